package transport

import (
	"context"
	"fmt"
	"io"
	"time"
)

// BufferedPort is the shape of a TinyGo UART or USB CDC port.
type BufferedPort interface {
	io.Writer
	Buffered() int
	ReadByte() (byte, error)
}

// UART polls a buffered port. Everything buffered when data first shows up
// is returned as one burst.
type UART struct {
	port BufferedPort
	poll time.Duration
}

func NewUART(port BufferedPort) *UART {
	return &UART{port: port, poll: 5 * time.Millisecond}
}

func (u *UART) Receive(ctx context.Context, buf []byte) (int, error) {
	for u.port.Buffered() == 0 {
		if err := ctx.Err(); err != nil {
			return 0, err
		}
		time.Sleep(u.poll)
	}
	n := 0
	for n < len(buf) && u.port.Buffered() > 0 {
		b, err := u.port.ReadByte()
		if err != nil {
			return n, fmt.Errorf("could not read from uart: %w", err)
		}
		buf[n] = b
		n++
	}
	return n, nil
}

func (u *UART) Send(ctx context.Context, data []byte) error {
	if _, err := u.port.Write(data); err != nil {
		return fmt.Errorf("could not write to uart: %w", err)
	}
	return nil
}
