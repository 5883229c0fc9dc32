package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/urfave/cli/v2"
	"gobot.io/x/gobot/v2/platforms/friendlyelec/nanopi"
	"periph.io/x/conn/v3/physic"

	"github.com/mklimuk/i2chub"
	"github.com/mklimuk/i2chub/adapter"
	"github.com/mklimuk/i2chub/gpio"
	"github.com/mklimuk/i2chub/i2c"
	"github.com/mklimuk/i2chub/indicator"
	"github.com/mklimuk/i2chub/sim"
)

const (
	adapterMCP2221 = "mcp2221"
	adapterGeneric = "generic"
	adapterNanoPi  = "nanopi"
	adapterSim     = "sim"
)

// hubBus is the opened backend. tx is nil for the simulated bus, mcp is set
// only for the MCP2221 bridge.
type hubBus struct {
	prims   i2chub.Primitives
	tx      i2chub.I2CBus
	mcp     *adapter.MCP2221
	closers []func() error
}

func (b *hubBus) Close() error {
	var errs []error
	for i := len(b.closers) - 1; i >= 0; i-- {
		errs = append(errs, b.closers[i]())
	}
	return errors.Join(errs...)
}

func openBus(ctx context.Context, c *cli.Context) (*hubBus, error) {
	name := c.String("adapter")
	speed := c.Int("speed")
	readAhead := i2c.WithReadAhead(c.Int("read-ahead"))
	b := &hubBus{}
	switch name {
	case adapterMCP2221:
		a := adapter.NewMCP2221()
		if speed > 0 {
			if err := a.SetSpeed(ctx, speed); err != nil {
				return nil, fmt.Errorf("could not set bus speed: %w", err)
			}
		}
		b.mcp = a
		b.tx = a
	case adapterGeneric:
		g, err := i2c.NewGenericBus(c.String("device"))
		if err != nil {
			return nil, err
		}
		b.closers = append(b.closers, g.Close)
		if speed > 0 {
			if err := g.SetSpeed(physic.Frequency(speed) * physic.Hertz); err != nil {
				_ = b.Close()
				return nil, fmt.Errorf("could not set bus speed: %w", err)
			}
		}
		b.tx = g
	case adapterNanoPi:
		npi := nanopi.NewNeoAdaptor()
		if err := npi.I2cBusAdaptor.Connect(); err != nil {
			return nil, fmt.Errorf("adaptor connect error: %w", err)
		}
		g := adapter.NewGobot(npi, c.Int("bus"))
		b.closers = append(b.closers, npi.I2cBusAdaptor.Finalize, g.Close)
		b.tx = g
	case adapterSim:
		bus, err := openSim(c)
		if err != nil {
			return nil, err
		}
		b.prims = bus
		slog.Debug("bus opened", "adapter", name)
		return b, nil
	default:
		return nil, fmt.Errorf("unknown adapter %q", name)
	}
	b.prims = i2c.NewPrimitives(b.tx, readAhead)
	slog.Debug("bus opened", "adapter", name, "speed", speed)
	return b, nil
}

func openSim(c *cli.Context) (*sim.Bus, error) {
	path := c.String("sim-config")
	if path == "" {
		addr, err := expanderAddress(c)
		if err != nil {
			return nil, err
		}
		return sim.DefaultConfig(addr).Build()
	}
	cfg, err := sim.LoadConfig(path)
	if err != nil {
		return nil, err
	}
	return cfg.Build()
}

func expanderAddress(c *cli.Context) (byte, error) {
	return parseAddress(c.String("address"))
}

func parseAddress(s string) (byte, error) {
	v, err := strconv.ParseUint(s, 0, 8)
	if err != nil || v > 0x7F {
		return 0, fmt.Errorf("invalid 7-bit address %q", s)
	}
	return byte(v), nil
}

const (
	ledLog      = "log"
	ledGPIO     = "gpio"
	ledMCP2221  = "mcp2221"
	ledMCP23017 = "mcp23017"
)

// ledTarget is a parsed --led value:
//
//	""                 log only
//	gpio:GPIO17        host GPIO, gpio:!GPIO17 for an active low LED
//	mcp2221:GP1        MCP2221 general purpose pin
//	mcp23017:0x21:A0   MCP23017 pin on the same bus
type ledTarget struct {
	kind      string
	pin       string
	activeLow bool
	gp        int
	address   byte
	port      gpio.Port
	bit       uint8
}

func parseLED(s string) (ledTarget, error) {
	if s == "" || s == ledLog {
		return ledTarget{kind: ledLog}, nil
	}
	kind, rest, _ := strings.Cut(s, ":")
	target := ledTarget{kind: kind}
	switch kind {
	case ledGPIO:
		target.pin, target.activeLow = strings.CutPrefix(rest, "!")
		if target.pin == "" {
			return target, fmt.Errorf("missing gpio name in %q", s)
		}
	case ledMCP2221:
		gp, err := strconv.Atoi(strings.TrimPrefix(strings.ToUpper(rest), "GP"))
		if err != nil || gp < 0 || gp > 3 {
			return target, fmt.Errorf("invalid MCP2221 pin in %q", s)
		}
		target.gp = gp
	case ledMCP23017:
		addr, pin, ok := strings.Cut(rest, ":")
		if !ok {
			return target, fmt.Errorf("expected mcp23017:ADDRESS:PIN, got %q", s)
		}
		var err error
		if target.address, err = parseAddress(addr); err != nil {
			return target, err
		}
		if target.port, target.bit, err = gpio.ParsePin(pin); err != nil {
			return target, err
		}
	default:
		return target, fmt.Errorf("unknown indicator kind %q", kind)
	}
	return target, nil
}

func openIndicator(b *hubBus, s string) (i2chub.Indicator, error) {
	target, err := parseLED(s)
	if err != nil {
		return nil, err
	}
	switch target.kind {
	case ledGPIO:
		return indicator.OpenPin(target.pin, target.activeLow)
	case ledMCP2221:
		if b.mcp == nil {
			return nil, fmt.Errorf("indicator %q needs the %s adapter", s, adapterMCP2221)
		}
		return b.mcp.LED(target.gp), nil
	case ledMCP23017:
		if b.tx == nil {
			return nil, fmt.Errorf("indicator %q needs a hardware bus", s)
		}
		return gpio.NewMCP23017(b.tx, target.address).Pin(target.port, target.bit), nil
	default:
		return indicator.Log{}, nil
	}
}
