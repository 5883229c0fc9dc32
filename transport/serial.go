//go:build !tinygo

package transport

import (
	"context"
	"encoding/hex"
	"fmt"
	"io"
	"log/slog"
	"time"

	"go.bug.st/serial"

	"github.com/mklimuk/i2chub/hubctx"
)

const DefaultBaudRate = 115200

// pollInterval bounds how long a Receive may block before it looks at ctx again.
const pollInterval = 200 * time.Millisecond

// Port is the subset of serial.Port used by Serial.
type Port interface {
	Read(p []byte) (int, error)
	Write(p []byte) (int, error)
	SetReadTimeout(t time.Duration) error
	Close() error
}

// Serial is a transport over a serial line (USB CDC gadget, UART bridge).
type Serial struct {
	port Port
	name string
}

func OpenSerial(name string, baud int) (*Serial, error) {
	if baud <= 0 {
		baud = DefaultBaudRate
	}
	port, err := serial.Open(name, &serial.Mode{
		BaudRate: baud,
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	})
	if err != nil {
		return nil, fmt.Errorf("could not open serial port %s: %w", name, err)
	}
	return NewSerial(name, port)
}

func NewSerial(name string, port Port) (*Serial, error) {
	if err := port.SetReadTimeout(pollInterval); err != nil {
		_ = port.Close()
		return nil, fmt.Errorf("could not set read timeout on %s: %w", name, err)
	}
	return &Serial{port: port, name: name}, nil
}

// Receive blocks until a burst arrives or ctx is done. A read timeout with no
// data is not an error, it only gives ctx a chance to be checked.
func (s *Serial) Receive(ctx context.Context, buf []byte) (int, error) {
	for {
		if err := ctx.Err(); err != nil {
			return 0, err
		}
		n, err := s.port.Read(buf)
		if err != nil {
			return n, fmt.Errorf("could not read from %s: %w", s.name, err)
		}
		if n > 0 {
			if hubctx.IsVerbose(ctx) {
				slog.Debug("received burst", "port", s.name, "data", hex.EncodeToString(buf[:n]))
			}
			return n, nil
		}
	}
}

func (s *Serial) Send(ctx context.Context, data []byte) error {
	for len(data) > 0 {
		n, err := s.port.Write(data)
		if err != nil {
			return fmt.Errorf("could not write to %s: %w", s.name, err)
		}
		if n == 0 {
			return fmt.Errorf("could not write to %s: %w", s.name, io.ErrShortWrite)
		}
		data = data[n:]
	}
	return nil
}

func (s *Serial) Close() error {
	return s.port.Close()
}

// ListPorts returns the serial ports present on the host.
func ListPorts() ([]string, error) {
	ports, err := serial.GetPortsList()
	if err != nil {
		return nil, fmt.Errorf("could not list serial ports: %w", err)
	}
	return ports, nil
}
