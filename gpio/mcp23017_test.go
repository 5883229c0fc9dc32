package gpio

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

func TestRegistryAddress(t *testing.T) {
	tests := []struct {
		reg      registry
		bank     int
		port     Port
		expected byte
	}{
		{IODIR, 0, PortA, 0x00},
		{IODIR, 0, PortB, 0x01},
		{GPPU, 0, PortA, 0x0C},
		{GPIO, 0, PortB, 0x13},
		{OLAT, 0, PortA, 0x14},
		{OLAT, 0, PortB, 0x15},
		{IODIR, 1, PortB, 0x10},
		{GPIO, 1, PortA, 0x09},
		{OLAT, 1, PortA, 0x0A},
		{OLAT, 1, PortB, 0x1A},
	}
	for _, test := range tests {
		t.Run(test.reg.String()+test.port.String(), func(t *testing.T) {
			assert.Equal(t, test.expected, test.reg.address(test.bank, test.port))
		})
	}
}

func TestMCP23017_PinSet(t *testing.T) {
	ctx := context.Background()
	bus := &MockI2CBus{}
	// IODIRA read-modify-write clearing bit 3
	bus.On("WriteToAddr", ctx, byte(0x21), []byte{0x00}).Return(nil).Once()
	bus.On("ReadFromAddr", ctx, byte(0x21), mock.Anything).Return([]byte{0xFF}, nil).Once()
	bus.On("WriteToAddr", ctx, byte(0x21), []byte{0x00, 0xF7}).Return(nil).Once()
	// OLATA read-modify-write setting bit 3
	bus.On("WriteToAddr", ctx, byte(0x21), []byte{0x14}).Return(nil).Once()
	bus.On("ReadFromAddr", ctx, byte(0x21), mock.Anything).Return([]byte{0x01}, nil).Once()
	bus.On("WriteToAddr", ctx, byte(0x21), []byte{0x14, 0x09}).Return(nil).Once()

	dev := NewMCP23017(bus, DefaultMCP23017Address)
	pin := dev.Pin(PortA, 3)
	require.NoError(t, pin.Set(ctx, true))
	bus.AssertExpectations(t)

	// direction is configured only once
	bus.On("WriteToAddr", ctx, byte(0x21), []byte{0x14}).Return(nil).Once()
	bus.On("ReadFromAddr", ctx, byte(0x21), mock.Anything).Return([]byte{0x09}, nil).Once()
	bus.On("WriteToAddr", ctx, byte(0x21), []byte{0x14, 0x01}).Return(nil).Once()
	require.NoError(t, pin.Set(ctx, false))
	bus.AssertExpectations(t)
}

func TestMCP23017_RetryOnBusy(t *testing.T) {
	ctx := context.Background()
	bus := &MockI2CBus{}
	bus.On("WriteToAddr", ctx, byte(0x20), []byte{0x15, 0xAA}).Return(i2chub.ErrBusBusy).Once()
	bus.On("Release", ctx).Return(nil).Once()
	bus.On("WriteToAddr", ctx, byte(0x20), []byte{0x15, 0xAA}).Return(nil).Once()

	dev := NewMCP23017(bus, 0x20, WithRetryLimit(2))
	require.NoError(t, dev.WritePort(ctx, PortB, 0xAA))
	bus.AssertExpectations(t)
}

func TestMCP23017_RetryLimitReached(t *testing.T) {
	ctx := context.Background()
	bus := &MockI2CBus{}
	bus.On("WriteToAddr", ctx, byte(0x20), mock.Anything).Return(i2chub.ErrBusBusy)
	bus.On("Release", ctx).Return(nil)

	dev := NewMCP23017(bus, 0x20, WithRetryLimit(3))
	err := dev.PullUp(ctx, PortA, 0xFF)
	assert.ErrorIs(t, err, i2chub.ErrBusBusy)
	bus.AssertNumberOfCalls(t, "WriteToAddr", 3)
}

func TestMCP23017_ReadError(t *testing.T) {
	ctx := context.Background()
	bus := &MockI2CBus{}
	bus.On("WriteToAddr", ctx, byte(0x20), []byte{0x12}).Return(errors.New("nack"))

	dev := NewMCP23017(bus, 0x20)
	_, err := dev.Read(ctx)
	assert.ErrorContains(t, err, "GPIOA")
	bus.AssertNotCalled(t, "Release", ctx)
}

func TestParsePin(t *testing.T) {
	port, bit, err := ParsePin("A0")
	require.NoError(t, err)
	assert.Equal(t, PortA, port)
	assert.Equal(t, uint8(0), bit)

	port, bit, err = ParsePin("b7")
	require.NoError(t, err)
	assert.Equal(t, PortB, port)
	assert.Equal(t, uint8(7), bit)

	for _, name := range []string{"", "A", "C1", "A8", "A10", "Ax"} {
		_, _, err := ParsePin(name)
		assert.Error(t, err, name)
	}
}
