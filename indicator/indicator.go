package indicator

import (
	"context"
	"fmt"
	"log/slog"

	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/host/v3"

	"github.com/mklimuk/i2chub"
)

var _ i2chub.Indicator = &Pin{}
var _ i2chub.Indicator = Log{}
var _ i2chub.Indicator = Func(nil)

// Pin drives a host GPIO line through periph.
type Pin struct {
	pin    gpio.PinOut
	invert bool
}

// OpenPin looks up a GPIO by name (e.g. "GPIO17") and drives it low.
func OpenPin(name string, activeLow bool) (*Pin, error) {
	if _, err := host.Init(); err != nil {
		return nil, fmt.Errorf("could not init host: %w", err)
	}
	p := gpioreg.ByName(name)
	if p == nil {
		return nil, fmt.Errorf("gpio %s not found", name)
	}
	led := NewPin(p, activeLow)
	if err := led.Set(context.Background(), false); err != nil {
		return nil, err
	}
	return led, nil
}

func NewPin(p gpio.PinOut, activeLow bool) *Pin {
	return &Pin{pin: p, invert: activeLow}
}

func (p *Pin) Set(ctx context.Context, on bool) error {
	level := gpio.Level(on != p.invert)
	if err := p.pin.Out(level); err != nil {
		return fmt.Errorf("could not drive %s: %w", p.pin, err)
	}
	return nil
}

// Log only records indicator changes. It is used when the board has no LED wired.
type Log struct{}

func (Log) Set(ctx context.Context, on bool) error {
	slog.Info("indicator", "on", on)
	return nil
}

// Func adapts a plain function.
type Func func(ctx context.Context, on bool) error

func (f Func) Set(ctx context.Context, on bool) error {
	return f(ctx, on)
}
