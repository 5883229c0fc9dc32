package adapter

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gobot.io/x/gobot/v2/drivers/i2c"

	"github.com/mklimuk/i2chub"
)

type fakeConn struct {
	i2c.Connection
	present bool
	written [][]byte
	reads   int
	value   byte
	closed  bool
}

func (c *fakeConn) Write(b []byte) (int, error) {
	if !c.present {
		return 0, errors.New("remote I/O error")
	}
	c.written = append(c.written, append([]byte(nil), b...))
	return len(b), nil
}

func (c *fakeConn) Read(b []byte) (int, error) {
	if !c.present {
		return 0, errors.New("remote I/O error")
	}
	for i := range b {
		b[i] = c.value
	}
	return len(b), nil
}

func (c *fakeConn) ReadByte() (byte, error) {
	c.reads++
	if !c.present {
		return 0, errors.New("remote I/O error")
	}
	return c.value, nil
}

func (c *fakeConn) Close() error {
	c.closed = true
	return nil
}

type fakeConnector struct {
	conns map[int]*fakeConn
	calls int
}

func (f *fakeConnector) GetI2cConnection(address int, busNr int) (i2c.Connection, error) {
	f.calls++
	c, ok := f.conns[address]
	if !ok {
		c = &fakeConn{}
		f.conns[address] = c
	}
	return c, nil
}

func (f *fakeConnector) DefaultI2cBus() int { return 0 }

func TestGobot(t *testing.T) {
	ctx := context.Background()
	connector := &fakeConnector{conns: map[int]*fakeConn{0x73: {present: true, value: 0x02}}}
	bus := NewGobot(connector, 0)

	require.NoError(t, bus.WriteToAddr(ctx, 0x73, []byte{0x02}))
	assert.Equal(t, [][]byte{{0x02}}, connector.conns[0x73].written)

	buf := make([]byte, 1)
	require.NoError(t, bus.ReadFromAddr(ctx, 0x73, buf))
	assert.Equal(t, byte(0x02), buf[0])
	// connection is reused
	assert.Equal(t, 1, connector.calls)

	require.NoError(t, bus.WriteToAddr(ctx, 0x73, nil))
	assert.Equal(t, 1, connector.conns[0x73].reads)

	err := bus.WriteToAddr(ctx, 0x20, nil)
	assert.ErrorIs(t, err, i2chub.ErrNoAck)
	err = bus.ReadFromAddr(ctx, 0x20, buf)
	assert.ErrorIs(t, err, i2chub.ErrNoAck)

	require.NoError(t, bus.Release(ctx))
	require.NoError(t, bus.Close())
	assert.True(t, connector.conns[0x73].closed)
	assert.True(t, connector.conns[0x20].closed)
}
