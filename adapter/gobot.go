package adapter

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"gobot.io/x/gobot/v2/drivers/i2c"

	"github.com/mklimuk/i2chub"
)

var _ i2chub.I2CBus = &Gobot{}

// Gobot exposes a gobot I2C connector (NanoPi, Raspberry Pi, ... adaptors)
// as a transaction level bus. One connection is kept per slave address.
type Gobot struct {
	mx        sync.Mutex
	connector i2c.Connector
	busNr     int
	conns     map[byte]i2c.Connection
}

func NewGobot(connector i2c.Connector, busNr int) *Gobot {
	return &Gobot{connector: connector, busNr: busNr, conns: make(map[byte]i2c.Connection)}
}

func (g *Gobot) conn(address byte) (i2c.Connection, error) {
	if c, ok := g.conns[address]; ok {
		return c, nil
	}
	c, err := g.connector.GetI2cConnection(int(address), g.busNr)
	if err != nil {
		return nil, fmt.Errorf("could not get connection to %x on bus %d: %w", address, g.busNr, err)
	}
	g.conns[address] = c
	return c, nil
}

func (g *Gobot) ReadFromAddr(ctx context.Context, address byte, buffer []byte) error {
	g.mx.Lock()
	defer g.mx.Unlock()
	c, err := g.conn(address)
	if err != nil {
		return err
	}
	n, err := c.Read(buffer)
	if err != nil {
		return fmt.Errorf("could not read from %x: %w: %w", address, i2chub.ErrNoAck, err)
	}
	if n != len(buffer) {
		return fmt.Errorf("short read from %x: %d of %d", address, n, len(buffer))
	}
	return nil
}

// WriteToAddr writes buffer to the slave. The sysfs connection has no quick
// write, so an empty buffer is checked with a receive byte instead.
func (g *Gobot) WriteToAddr(ctx context.Context, address byte, buffer []byte) error {
	g.mx.Lock()
	defer g.mx.Unlock()
	c, err := g.conn(address)
	if err != nil {
		return err
	}
	if len(buffer) == 0 {
		_, err = c.ReadByte()
	} else {
		_, err = c.Write(buffer)
	}
	if err != nil {
		return fmt.Errorf("could not write to %x: %w: %w", address, i2chub.ErrNoAck, err)
	}
	return nil
}

func (g *Gobot) Release(ctx context.Context) error {
	return nil
}

func (g *Gobot) Close() error {
	g.mx.Lock()
	defer g.mx.Unlock()
	var errs []error
	for addr, c := range g.conns {
		if err := c.Close(); err != nil {
			errs = append(errs, fmt.Errorf("could not close connection to %x: %w", addr, err))
		}
		delete(g.conns, addr)
	}
	return errors.Join(errs...)
}
