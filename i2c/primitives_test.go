package i2c

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/mklimuk/i2chub"
)

// MockI2CBus is a mock implementation of i2chub.I2CBus using testify/mock
type MockI2CBus struct {
	mock.Mock
}

func (m *MockI2CBus) WriteToAddr(ctx context.Context, address byte, buffer []byte) error {
	args := m.Called(ctx, address, buffer)
	return args.Error(0)
}

func (m *MockI2CBus) ReadFromAddr(ctx context.Context, address byte, buffer []byte) error {
	args := m.Called(ctx, address, buffer)
	if data, ok := args.Get(0).([]byte); ok && len(data) <= len(buffer) {
		copy(buffer, data)
	}
	return args.Error(1)
}

func (m *MockI2CBus) Release(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func TestPrimitives_WriteTransaction(t *testing.T) {
	ctx := context.Background()
	bus := &MockI2CBus{}
	bus.On("WriteToAddr", ctx, byte(0x73), []byte{}).Return(nil).Once()
	bus.On("WriteToAddr", ctx, byte(0x73), []byte{0x04}).Return(nil).Once()

	p := NewPrimitives(bus)
	require.NoError(t, p.Start(ctx, 0x73, i2chub.Write))
	require.NoError(t, p.WriteByte(ctx, 0x04))
	require.NoError(t, p.Stop(ctx))
	bus.AssertExpectations(t)
}

func TestPrimitives_AddressOnly(t *testing.T) {
	ctx := context.Background()
	bus := &MockI2CBus{}
	bus.On("WriteToAddr", ctx, byte(0x50), []byte{}).Return(nil).Once()

	p := NewPrimitives(bus)
	require.NoError(t, p.Start(ctx, 0x50, i2chub.Write))
	require.NoError(t, p.Stop(ctx))
	bus.AssertExpectations(t)
	bus.AssertNumberOfCalls(t, "WriteToAddr", 1)
}

func TestPrimitives_StartNak(t *testing.T) {
	ctx := context.Background()
	bus := &MockI2CBus{}
	bus.On("WriteToAddr", ctx, byte(0x10), []byte{}).Return(errors.New("nack")).Once()
	bus.On("ReadFromAddr", ctx, byte(0x11), mock.Anything).Return(nil, errors.New("nack")).Once()

	p := NewPrimitives(bus)
	err := p.Start(ctx, 0x10, i2chub.Write)
	assert.ErrorIs(t, err, i2chub.ErrNoAck)
	assert.ErrorIs(t, p.WriteByte(ctx, 0x01), ErrNoTransaction)
	assert.NoError(t, p.Stop(ctx))

	err = p.Start(ctx, 0x11, i2chub.Read)
	assert.ErrorIs(t, err, i2chub.ErrNoAck)
	_, err = p.ReadByte(ctx, true)
	assert.ErrorIs(t, err, ErrNoTransaction)
	bus.AssertExpectations(t)
}

func TestPrimitives_BusyReleases(t *testing.T) {
	ctx := context.Background()
	bus := &MockI2CBus{}
	bus.On("WriteToAddr", ctx, byte(0x20), []byte{}).Return(i2chub.ErrBusBusy).Once()
	bus.On("Release", ctx).Return(nil).Once()

	p := NewPrimitives(bus)
	err := p.Start(ctx, 0x20, i2chub.Write)
	assert.ErrorIs(t, err, i2chub.ErrNoAck)
	assert.ErrorIs(t, err, i2chub.ErrBusBusy)
	bus.AssertExpectations(t)
}

func TestPrimitives_BusyReadReleases(t *testing.T) {
	ctx := context.Background()
	bus := &MockI2CBus{}
	bus.On("ReadFromAddr", ctx, byte(0x20), mock.Anything).Return(nil, i2chub.ErrBusBusy).Once()
	bus.On("Release", ctx).Return(nil).Once()

	p := NewPrimitives(bus)
	err := p.Start(ctx, 0x20, i2chub.Read)
	assert.ErrorIs(t, err, i2chub.ErrNoAck)
	assert.ErrorIs(t, err, i2chub.ErrBusBusy)
	_, err = p.ReadByte(ctx, true)
	assert.ErrorIs(t, err, ErrNoTransaction)
	bus.AssertExpectations(t)
}

func TestPrimitives_ReadTransaction(t *testing.T) {
	ctx := context.Background()
	bus := &MockI2CBus{}
	bus.On("ReadFromAddr", ctx, byte(0x73), mock.Anything).Return([]byte{0x02, 0x07}, nil).Once()

	p := NewPrimitives(bus, WithReadAhead(2))
	require.NoError(t, p.Start(ctx, 0x73, i2chub.Read))
	assert.ErrorIs(t, p.WriteByte(ctx, 0x01), ErrWrongDirection)
	b, err := p.ReadByte(ctx, false)
	require.NoError(t, err)
	assert.Equal(t, byte(0x02), b)
	b, err = p.ReadByte(ctx, true)
	require.NoError(t, err)
	assert.Equal(t, byte(0x07), b)
	_, err = p.ReadByte(ctx, true)
	assert.ErrorIs(t, err, ErrReadExhausted)
	require.NoError(t, p.Stop(ctx))
	bus.AssertExpectations(t)
}

func TestPrimitives_FlushError(t *testing.T) {
	ctx := context.Background()
	bus := &MockI2CBus{}
	bus.On("WriteToAddr", ctx, byte(0x73), []byte{}).Return(nil).Once()
	bus.On("WriteToAddr", ctx, byte(0x73), []byte{0x01}).Return(errors.New("arbitration lost")).Once()

	p := NewPrimitives(bus)
	require.NoError(t, p.Start(ctx, 0x73, i2chub.Write))
	require.NoError(t, p.WriteByte(ctx, 0x01))
	assert.Error(t, p.Stop(ctx))
	// transaction is closed even when the flush fails
	assert.ErrorIs(t, p.WriteByte(ctx, 0x01), ErrNoTransaction)
	bus.AssertExpectations(t)
}
