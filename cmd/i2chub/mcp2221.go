package main

import (
	"os"

	"github.com/urfave/cli/v2"
	"gopkg.in/yaml.v3"

	"github.com/mklimuk/i2chub/adapter"
	"github.com/mklimuk/i2chub/cmd/i2chub/console"
	"github.com/mklimuk/i2chub/hubctx"
)

var mcp2221Cmd = cli.Command{
	Name:  "mcp2221",
	Usage: "MCP2221 bridge diagnostics",
	Subcommands: cli.Commands{
		&mcp2221StatusCmd,
		&mcp2221ReleaseCmd,
		&mcp2221GPIOCmd,
	},
}

var mcp2221StatusCmd = cli.Command{
	Name:  "status",
	Usage: "print the I2C engine status",
	Action: func(c *cli.Context) error {
		a := adapter.NewMCP2221()
		ctx := hubctx.SetVerbose(c.Context, c.Bool("verbose"))
		status, err := a.Status(ctx)
		if err != nil {
			return console.ExitErr(1, "adapter communication error", err)
		}
		return encodeYAML(status)
	},
}

var mcp2221ReleaseCmd = cli.Command{
	Name:  "release",
	Usage: "cancel the current I2C transfer and free the bus",
	Flags: []cli.Flag{
		&cli.BoolFlag{Name: "yes", Aliases: []string{"y"}, Usage: "do not ask for confirmation"},
	},
	Action: func(c *cli.Context) error {
		if !c.Bool("yes") {
			ok, err := console.Confirm("cancel the transfer in progress?")
			if err != nil {
				return console.ExitErr(1, "prompt error", err)
			}
			if !ok {
				return nil
			}
		}
		a := adapter.NewMCP2221()
		ctx := hubctx.SetVerbose(c.Context, c.Bool("verbose"))
		status, err := a.ReleaseBus(ctx)
		if err != nil {
			return console.ExitErr(1, "adapter communication error", err)
		}
		return encodeYAML(status)
	},
}

var mcp2221GPIOCmd = cli.Command{
	Name:  "gpio",
	Usage: "print the GP pin directions and levels",
	Action: func(c *cli.Context) error {
		a := adapter.NewMCP2221()
		ctx := hubctx.SetVerbose(c.Context, c.Bool("verbose"))
		values, err := a.ReadGPIO(ctx)
		if err != nil {
			return console.ExitErr(1, "adapter communication error", err)
		}
		return encodeYAML(values)
	},
}

func encodeYAML(v any) error {
	enc := yaml.NewEncoder(os.Stdout)
	if err := enc.Encode(v); err != nil {
		return console.ExitErr(1, "encoding error", err)
	}
	return enc.Close()
}
