package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/urfave/cli/v2"

	"github.com/mklimuk/i2chub/cmd/i2chub/console"
	"github.com/mklimuk/i2chub/hub"
	"github.com/mklimuk/i2chub/hubctx"
	"github.com/mklimuk/i2chub/transport"
)

const (
	portTerminal = "tty"
	portStdio    = "-"
)

var serveCmd = cli.Command{
	Name:  "serve",
	Usage: "run the single key console on a serial port, the terminal or stdio",
	Flags: []cli.Flag{
		&cli.StringFlag{
			Name:    "port",
			Usage:   "serial port name, tty for the local terminal or - for stdio",
			Value:   portTerminal,
			EnvVars: []string{"I2CHUB_PORT"},
		},
		&cli.IntFlag{
			Name:    "baud",
			Usage:   "serial baud rate",
			Value:   transport.DefaultBaudRate,
			EnvVars: []string{"I2CHUB_BAUD"},
		},
		&cli.StringFlag{
			Name:    "led",
			Usage:   "indicator: gpio:NAME, gpio:!NAME, mcp2221:GPn or mcp23017:ADDR:PIN (empty logs only)",
			EnvVars: []string{"I2CHUB_LED"},
		},
	},
	Action: func(c *cli.Context) error {
		ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
		defer stop()
		ctx = hubctx.SetVerbose(ctx, c.Bool("verbose"))

		addr, err := expanderAddress(c)
		if err != nil {
			return console.ExitErr(1, "invalid expander address", err)
		}
		bus, err := openBus(ctx, c)
		if err != nil {
			return console.ExitErr(1, "could not open bus", err)
		}
		defer func() { _ = bus.Close() }()
		led, err := openIndicator(bus, c.String("led"))
		if err != nil {
			return console.ExitErr(1, "could not open indicator", err)
		}
		t, closer, err := openTransport(c.String("port"), c.Int("baud"))
		if err != nil {
			return console.ExitErr(1, "could not open transport", err)
		}
		defer func() { _ = closer() }()

		slog.Info("console ready", "port", c.String("port"), "adapter", c.String("adapter"), "expander", addr)
		con := hub.NewConsole(t, bus.prims, hub.WithExpanderAddress(addr), hub.WithIndicator(led))
		err = con.Serve(ctx)
		if err != nil && !errors.Is(err, context.Canceled) {
			return console.ExitErr(1, "console stopped", err)
		}
		slog.Info("console closed")
		return nil
	},
}

func openTransport(port string, baud int) (hub.Transport, func() error, error) {
	switch port {
	case portStdio:
		return transport.NewStream(os.Stdin, os.Stdout), func() error { return nil }, nil
	case portTerminal:
		t, err := transport.NewTerminal(transport.DefaultPrompt)
		if err != nil {
			return nil, nil, err
		}
		return t, t.Close, nil
	default:
		s, err := transport.OpenSerial(port, baud)
		if err != nil {
			return nil, nil, err
		}
		return s, s.Close, nil
	}
}
