package transport

import (
	"bytes"
	"context"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeUART struct {
	rx  []byte
	out bytes.Buffer
}

func (f *fakeUART) Write(p []byte) (int, error) { return f.out.Write(p) }

func (f *fakeUART) Buffered() int { return len(f.rx) }

func (f *fakeUART) ReadByte() (byte, error) {
	if len(f.rx) == 0 {
		return 0, io.EOF
	}
	b := f.rx[0]
	f.rx = f.rx[1:]
	return b, nil
}

func TestUART(t *testing.T) {
	port := &fakeUART{rx: []byte("l3")}
	u := NewUART(port)
	buf := make([]byte, 64)
	n, err := u.Receive(context.Background(), buf)
	require.NoError(t, err)
	assert.Equal(t, "l3", string(buf[:n]))
	require.NoError(t, u.Send(context.Background(), []byte("ok\n")))
	assert.Equal(t, "ok\n", port.out.String())

	small := make([]byte, 1)
	port.rx = []byte("ab")
	n, err = u.Receive(context.Background(), small)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Equal(t, 1, port.Buffered())
}

func TestUART_Canceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := NewUART(&fakeUART{}).Receive(ctx, make([]byte, 8))
	assert.ErrorIs(t, err, context.Canceled)
}
