package main

import (
	"fmt"
	"os"

	"github.com/urfave/cli/v2"
	"gopkg.in/yaml.v3"

	"github.com/mklimuk/i2chub/cmd/i2chub/console"
	"github.com/mklimuk/i2chub/hubctx"
	"github.com/mklimuk/i2chub/scan"
)

const (
	formatTable = "table"
	formatYAML  = "yaml"
)

type scanReport struct {
	Devices []string `yaml:"devices"`
}

var scanCmd = cli.Command{
	Name:  "scan",
	Usage: "ping all 7-bit addresses and print the device map",
	Flags: []cli.Flag{
		&cli.StringFlag{
			Name:  "format",
			Usage: "output format: table or yaml",
			Value: formatTable,
		},
	},
	Action: func(c *cli.Context) error {
		format := c.String("format")
		if format != formatTable && format != formatYAML {
			return console.Exit(1, "unknown format %q", format)
		}
		ctx := hubctx.SetVerbose(c.Context, c.Bool("verbose"))
		bus, err := openBus(ctx, c)
		if err != nil {
			return console.ExitErr(1, "could not open bus", err)
		}
		defer func() { _ = bus.Close() }()

		scanner := scan.NewScanner(bus.prims)
		if format == formatTable {
			if err := scanner.Scan(ctx, os.Stdout); err != nil {
				return console.ExitErr(1, "could not print scan", err)
			}
			return nil
		}
		var report scanReport
		for _, addr := range scanner.Detect(ctx).Present() {
			report.Devices = append(report.Devices, fmt.Sprintf("%#04x", addr))
		}
		enc := yaml.NewEncoder(os.Stdout)
		if err := enc.Encode(report); err != nil {
			return console.ExitErr(1, "encoding error", err)
		}
		return enc.Close()
	},
}
