package main

import (
	"strconv"

	"github.com/urfave/cli/v2"

	"github.com/mklimuk/i2chub/cmd/i2chub/console"
	"github.com/mklimuk/i2chub/expander"
	"github.com/mklimuk/i2chub/hubctx"
)

var portCmd = cli.Command{
	Name:  "port",
	Usage: "read or change the expander channel selection",
	Subcommands: cli.Commands{
		&portReadCmd,
		&portSelectCmd,
	},
}

var portReadCmd = cli.Command{
	Name:  "read",
	Usage: "print the control register and the enabled channels",
	Action: func(c *cli.Context) error {
		ctx := hubctx.SetVerbose(c.Context, c.Bool("verbose"))
		exp, closer, err := openExpander(c)
		if err != nil {
			return err
		}
		defer func() { _ = closer() }()
		val, err := exp.Read(ctx)
		if err != nil {
			return console.ExitErr(1, "could not read control register", err)
		}
		printPorts(exp.Address(), val)
		return nil
	},
}

var portSelectCmd = cli.Command{
	Name:      "select",
	Usage:     "enable a single channel (1-4), 0 or any other value disables all",
	ArgsUsage: "PORT",
	Action: func(c *cli.Context) error {
		if c.NArg() != 1 {
			return console.Exit(1, "expected 1 argument, got %d", c.NArg())
		}
		port, err := strconv.Atoi(c.Args().Get(0))
		if err != nil {
			return console.Exit(1, "invalid port %q", c.Args().Get(0))
		}
		if port < 0 || port > expander.Ports {
			console.Warnf("port %d is out of range, all channels will be disabled", port)
		}
		ctx := hubctx.SetVerbose(c.Context, c.Bool("verbose"))
		exp, closer, err := openExpander(c)
		if err != nil {
			return err
		}
		defer func() { _ = closer() }()
		if err := exp.Select(ctx, port); err != nil {
			return console.ExitErr(1, "could not select port", err)
		}
		val, err := exp.Read(ctx)
		if err != nil {
			return console.ExitErr(1, "could not read control register", err)
		}
		printPorts(exp.Address(), val)
		return nil
	},
}

func openExpander(c *cli.Context) (*expander.PCA9546, func() error, error) {
	addr, err := expanderAddress(c)
	if err != nil {
		return nil, nil, console.ExitErr(1, "invalid expander address", err)
	}
	bus, err := openBus(c.Context, c)
	if err != nil {
		return nil, nil, console.ExitErr(1, "could not open bus", err)
	}
	return expander.NewPCA9546(bus.prims, expander.WithAddress(addr)), bus.Close, nil
}

func printPorts(addr, val byte) {
	console.PInfof(console.PictoPlug, "expander %#04x control register %#04x", addr, val)
	enabled := make(map[int]bool)
	for _, p := range expander.Enabled(val) {
		enabled[p] = true
	}
	for p := 1; p <= expander.Ports; p++ {
		console.Infof("port %d: %s", p, console.Port(enabled[p]))
	}
}
