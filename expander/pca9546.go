package expander

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/mklimuk/i2chub"
)

// DefaultAddress is the bus address of the expander on the hub board.
const DefaultAddress = 0x73

// Sentinel is returned by ReadControlRegister when the expander does not answer.
// The control register only implements four bits so a live device never reads 0xFF.
const Sentinel byte = 0xFF

// Ports is the number of downstream channels.
const Ports = 4

const controlRegFormat = "I2C Expander Control Reg = %x\n"

// PCA9546 drives a PCA9546A I2C switch through its single control register.
// See: https://www.ti.com/lit/ds/symlink/pca9546a.pdf
type PCA9546 struct {
	bus     i2chub.Primitives
	address byte
}

type PCA9546Config struct {
	Address byte
}

type PCA9546ConfigOption func(*PCA9546Config)

func WithAddress(address byte) PCA9546ConfigOption {
	return func(c *PCA9546Config) {
		c.Address = address
	}
}

func NewPCA9546(bus i2chub.Primitives, opts ...PCA9546ConfigOption) *PCA9546 {
	config := &PCA9546Config{
		Address: DefaultAddress,
	}
	for _, opt := range opts {
		opt(config)
	}
	return &PCA9546{bus: bus, address: config.Address}
}

func (e *PCA9546) Address() byte {
	return e.address
}

// Read reads the control register. The byte is returned as is; bits above the
// channel enables are not masked.
func (e *PCA9546) Read(ctx context.Context) (byte, error) {
	err := e.bus.Start(ctx, e.address, i2chub.Read)
	if err != nil {
		return Sentinel, fmt.Errorf("could not address expander %x for read: %w", e.address, err)
	}
	val, err := e.bus.ReadByte(ctx, true)
	stopErr := e.bus.Stop(ctx)
	if err != nil {
		return Sentinel, fmt.Errorf("could not read control register: %w", err)
	}
	if stopErr != nil {
		slog.Debug("stop after control register read failed", "address", e.address, "error", stopErr)
	}
	return val, nil
}

// ReadControlRegister is Read with failures folded into Sentinel.
func (e *PCA9546) ReadControlRegister(ctx context.Context) byte {
	val, err := e.Read(ctx)
	if err != nil {
		slog.Debug("control register read failed", "error", err)
		return Sentinel
	}
	return val
}

// Select enables exactly one channel (1-4) or disables all of them (0).
func (e *PCA9546) Select(ctx context.Context, port int) error {
	mask := Mask(port)
	err := e.bus.Start(ctx, e.address, i2chub.Write)
	if err != nil {
		return fmt.Errorf("could not address expander %x for write: %w", e.address, err)
	}
	err = e.bus.WriteByte(ctx, mask)
	stopErr := e.bus.Stop(ctx)
	if err != nil {
		return fmt.Errorf("could not write control register: %w", err)
	}
	if stopErr != nil {
		return fmt.Errorf("could not complete control register write: %w", stopErr)
	}
	return nil
}

// SetPort is Select without error reporting; a missing expander is a silent no-op.
func (e *PCA9546) SetPort(ctx context.Context, port int) {
	if err := e.Select(ctx, port); err != nil {
		slog.Debug("port select failed", "port", port, "error", err)
	}
}

// PrintControlReg reads the control register and writes the report line to w.
func (e *PCA9546) PrintControlReg(ctx context.Context, w io.Writer) error {
	return FormatControlReg(w, e.ReadControlRegister(ctx))
}

func FormatControlReg(w io.Writer, val byte) error {
	_, err := fmt.Fprintf(w, controlRegFormat, val)
	return err
}

// Mask returns the control register value selecting port. Anything outside
// 1..Ports disables all channels.
func Mask(port int) byte {
	if port < 1 || port > Ports {
		return 0
	}
	return 1 << (port - 1)
}

// Enabled decodes a control register value into the enabled port numbers.
func Enabled(val byte) []int {
	var ports []int
	for p := 1; p <= Ports; p++ {
		if val&Mask(p) != 0 {
			ports = append(ports, p)
		}
	}
	return ports
}
