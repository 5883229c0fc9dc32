//go:build tinygo

// Command i2chub-pico is the hub console firmware for RP2040 boards. The
// console runs on the USB CDC port, the expander sits on I2C0 (GP0/GP1) and
// the on-board LED is the indicator.
package main

import (
	"context"
	"machine"
	"time"

	"github.com/mklimuk/i2chub/expander"
	"github.com/mklimuk/i2chub/hub"
	"github.com/mklimuk/i2chub/i2c"
	"github.com/mklimuk/i2chub/transport"
)

type led struct {
	pin machine.Pin
}

func (l led) Set(ctx context.Context, on bool) error {
	l.pin.Set(on)
	return nil
}

func main() {
	// give the host time to enumerate the CDC port
	time.Sleep(2 * time.Second)

	bus := machine.I2C0
	err := bus.Configure(machine.I2CConfig{
		SDA:       machine.GPIO0,
		SCL:       machine.GPIO1,
		Frequency: 100 * machine.KHz,
	})
	if err != nil {
		println("could not configure I2C bus:", err.Error())
		return
	}
	machine.LED.Configure(machine.PinConfig{Mode: machine.PinOutput})

	prims := i2c.NewPrimitives(i2c.NewDriverBus(bus))
	console := hub.NewConsole(
		transport.NewUART(machine.Serial),
		prims,
		hub.WithExpanderAddress(expander.DefaultAddress),
		hub.WithIndicator(led{pin: machine.LED}),
	)
	for {
		if err := console.Serve(context.Background()); err != nil {
			println("console error:", err.Error())
			time.Sleep(100 * time.Millisecond)
		}
	}
}
