package gpio

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"

	"github.com/mklimuk/i2chub"
)

type registry int

const DefaultMCP23017Address = 0x21

const (
	IODIR registry = iota
	IPOL
	GPINTEN
	DEFVAL
	INTCON
	IOCON
	GPPU
	INTF
	INTCAP
	GPIO
	OLAT
)

func (r registry) String() string {
	return [...]string{"IODIR", "IPOL", "GPINTEN", "DEFVAL", "INTCON", "IOCON", "GPPU", "INTF", "INTCAP", "GPIO", "OLAT"}[r]
}

type Port int

const (
	PortA Port = iota
	PortB
)

func (p Port) String() string {
	if p == PortB {
		return "B"
	}
	return "A"
}

// address returns the register address for port in the given IOCON.BANK mode.
// With BANK=0 the A/B registers are interleaved, with BANK=1 they are split in
// two blocks 0x10 apart.
func (r registry) address(bank int, port Port) byte {
	if bank == 1 {
		return byte(r) + byte(port)*0x10
	}
	return byte(r)*2 + byte(port)
}

/*
	Steps to drive an output:

1. Clear the pin bit in IODIR (0 = output)
2. Read OLAT, set or clear the bit, write OLAT back
*/
type MCP23017 struct {
	mx         sync.Mutex
	transport  i2chub.I2CBus
	bank       int
	address    byte
	retryLimit int
}

type MCP23017Opt func(*MCP23017)

func WithRetryLimit(n int) MCP23017Opt {
	return func(m *MCP23017) {
		if n > 0 {
			m.retryLimit = n
		}
	}
}

// WithBank selects the IOCON.BANK register layout the device was configured with.
func WithBank(bank int) MCP23017Opt {
	return func(m *MCP23017) {
		m.bank = bank & 0x01
	}
}

func NewMCP23017(bus i2chub.I2CBus, address byte, opts ...MCP23017Opt) *MCP23017 {
	m := &MCP23017{retryLimit: 1, transport: bus, address: address}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// writeRegister writes one register, releasing the bus and retrying while the adapter reports busy.
func (m *MCP23017) writeRegister(ctx context.Context, reg registry, port Port, value byte) error {
	var err error
	for i := m.retryLimit; i > 0; i-- {
		err = m.transport.WriteToAddr(ctx, m.address, []byte{reg.address(m.bank, port), value})
		if err == nil {
			return nil
		}
		if !errors.Is(err, i2chub.ErrBusBusy) {
			return fmt.Errorf("could not write %s%s: %w", reg, port, err)
		}
		// try to release the bus
		_ = m.transport.Release(ctx)
	}
	return fmt.Errorf("could not write %s%s (retry limit reached): %w", reg, port, err)
}

func (m *MCP23017) readRegister(ctx context.Context, reg registry, port Port) (byte, error) {
	var err error
	var res byte
	for i := m.retryLimit; i > 0; i-- {
		res, err = m.readOnce(ctx, reg.address(m.bank, port))
		if err == nil {
			return res, nil
		}
		if !errors.Is(err, i2chub.ErrBusBusy) {
			return res, fmt.Errorf("could not read %s%s: %w", reg, port, err)
		}
		// try to release the bus
		_ = m.transport.Release(ctx)
	}
	return res, fmt.Errorf("could not read %s%s (retry limit reached): %w", reg, port, err)
}

func (m *MCP23017) readOnce(ctx context.Context, addr byte) (byte, error) {
	m.mx.Lock()
	defer m.mx.Unlock()
	err := m.transport.WriteToAddr(ctx, m.address, []byte{addr})
	if err != nil {
		return 0x00, fmt.Errorf("could not set register address: %w", err)
	}
	buf := make([]byte, 1)
	err = m.transport.ReadFromAddr(ctx, m.address, buf)
	if err != nil {
		return 0x00, fmt.Errorf("could not read register data: %w", err)
	}
	return buf[0], nil
}

// SetDirection writes IODIR; a set bit makes the pin an input.
func (m *MCP23017) SetDirection(ctx context.Context, port Port, inout byte) error {
	return m.writeRegister(ctx, IODIR, port, inout)
}

// PullUp enables the 100k pull-ups on the pins whose bits are set.
func (m *MCP23017) PullUp(ctx context.Context, port Port, settings byte) error {
	return m.writeRegister(ctx, GPPU, port, settings)
}

// ReadPort returns the logic levels of port.
func (m *MCP23017) ReadPort(ctx context.Context, port Port) (byte, error) {
	return m.readRegister(ctx, GPIO, port)
}

// WritePort sets the output latch of port.
func (m *MCP23017) WritePort(ctx context.Context, port Port, value byte) error {
	return m.writeRegister(ctx, OLAT, port, value)
}

func (m *MCP23017) Read(ctx context.Context) ([]byte, error) {
	res := make([]byte, 2)
	var err error
	res[0], err = m.ReadPort(ctx, PortA)
	if err != nil {
		return nil, err
	}
	res[1], err = m.ReadPort(ctx, PortB)
	if err != nil {
		return nil, err
	}
	return res, nil
}

// update applies a read-modify-write to a single bit of reg.
func (m *MCP23017) update(ctx context.Context, reg registry, port Port, bit uint8, set bool) error {
	val, err := m.readRegister(ctx, reg, port)
	if err != nil {
		return err
	}
	if set {
		val |= 1 << bit
	} else {
		val &^= 1 << bit
	}
	return m.writeRegister(ctx, reg, port, val)
}

// Pin returns a single output pin usable as the console indicator.
func (m *MCP23017) Pin(port Port, bit uint8) *Pin {
	return &Pin{dev: m, port: port, bit: bit & 0x07}
}

var _ i2chub.Indicator = &Pin{}

type Pin struct {
	dev        *MCP23017
	port       Port
	bit        uint8
	configured bool
}

func (p *Pin) Set(ctx context.Context, on bool) error {
	if !p.configured {
		if err := p.dev.update(ctx, IODIR, p.port, p.bit, false); err != nil {
			return fmt.Errorf("could not configure %s as output: %w", p, err)
		}
		p.configured = true
	}
	if err := p.dev.update(ctx, OLAT, p.port, p.bit, on); err != nil {
		return fmt.Errorf("could not drive %s: %w", p, err)
	}
	return nil
}

func (p *Pin) String() string {
	return fmt.Sprintf("%s%d", p.port, p.bit)
}

// ParsePin parses pin names like "A0" or "b7".
func ParsePin(name string) (Port, uint8, error) {
	if len(name) != 2 {
		return 0, 0, fmt.Errorf("invalid pin name %q", name)
	}
	var port Port
	switch strings.ToUpper(name[:1]) {
	case "A":
		port = PortA
	case "B":
		port = PortB
	default:
		return 0, 0, fmt.Errorf("invalid port in pin name %q", name)
	}
	bit, err := strconv.ParseUint(name[1:], 10, 8)
	if err != nil || bit > 7 {
		return 0, 0, fmt.Errorf("invalid bit in pin name %q", name)
	}
	return port, uint8(bit), nil
}
