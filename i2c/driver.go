package i2c

import (
	"context"
	"fmt"

	"tinygo.org/x/drivers"

	"github.com/mklimuk/i2chub"
)

var _ i2chub.I2CBus = DriverBus{}

// DriverBus adapts a tinygo driver bus (machine.I2C or a shim with the same Tx shape).
type DriverBus struct {
	bus drivers.I2C
}

func NewDriverBus(bus drivers.I2C) DriverBus {
	return DriverBus{bus: bus}
}

func (b DriverBus) ReadFromAddr(ctx context.Context, address byte, buffer []byte) error {
	if err := b.bus.Tx(uint16(address), nil, buffer); err != nil {
		return fmt.Errorf("could not read from %x: %w", address, err)
	}
	return nil
}

// WriteToAddr writes buffer to the slave. Not every port supports a zero
// length write, so an empty buffer is replaced by a single byte read.
func (b DriverBus) WriteToAddr(ctx context.Context, address byte, buffer []byte) error {
	var err error
	if len(buffer) == 0 {
		err = b.bus.Tx(uint16(address), nil, make([]byte, 1))
	} else {
		err = b.bus.Tx(uint16(address), buffer, nil)
	}
	if err != nil {
		return fmt.Errorf("could not write to %x: %w: %w", address, i2chub.ErrNoAck, err)
	}
	return nil
}

func (b DriverBus) Release(ctx context.Context) error {
	return nil
}
