//go:build !tinygo

package i2c

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/mklimuk/i2chub"
	"periph.io/x/conn/v3/i2c"
	"periph.io/x/conn/v3/i2c/i2creg"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/host/v3"
)

var _ i2chub.I2CBus = &GenericBus{}

// GenericBus is a Linux i2c-dev bus opened through periph.
type GenericBus struct {
	bus i2c.BusCloser
}

func NewGenericBus(dev string) (*GenericBus, error) {
	state, err := host.Init()
	if err != nil {
		return nil, fmt.Errorf("could not init host: %w", err)
	}
	for _, driver := range state.Loaded {
		slog.Debug("host driver loaded", "driver", driver.String())
	}
	bus, err := i2creg.Open(dev)
	if err != nil {
		return nil, fmt.Errorf("could not open i2c bus: %w", err)
	}
	return &GenericBus{
		bus: bus,
	}, nil
}

func (b *GenericBus) ReadFromAddr(ctx context.Context, address byte, buffer []byte) error {
	err := b.bus.Tx(uint16(address), nil, buffer)
	if err != nil {
		return fmt.Errorf("could not read from i2c bus %x: %w", address, err)
	}
	return nil
}

// WriteToAddr writes buffer to the slave. periph treats an empty Tx as a no-op
// so an empty buffer is turned into a single byte read.
func (b *GenericBus) WriteToAddr(ctx context.Context, address byte, buffer []byte) error {
	var err error
	if len(buffer) == 0 {
		err = b.bus.Tx(uint16(address), nil, make([]byte, 1))
	} else {
		err = b.bus.Tx(uint16(address), buffer, nil)
	}
	if err != nil {
		return fmt.Errorf("could not write to i2c bus %x: %w: %w", address, i2chub.ErrNoAck, err)
	}
	return nil
}

func (b *GenericBus) SetSpeed(f physic.Frequency) error {
	return b.bus.SetSpeed(f)
}

func (b *GenericBus) Release(ctx context.Context) error {
	return nil
}

func (b *GenericBus) Close() error {
	return b.bus.Close()
}
