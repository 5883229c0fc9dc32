package main

import (
	"github.com/urfave/cli/v2"

	"github.com/mklimuk/i2chub/cmd/i2chub/console"
	"github.com/mklimuk/i2chub/transport"
)

var portsCmd = cli.Command{
	Name:  "ports",
	Usage: "list serial ports usable with serve --port",
	Action: func(c *cli.Context) error {
		ports, err := transport.ListPorts()
		if err != nil {
			return console.ExitErr(1, "could not list ports", err)
		}
		if len(ports) == 0 {
			console.PInfof(console.PictoStop, "no serial ports found")
			return nil
		}
		for _, p := range ports {
			console.PInfof(console.PictoPin, "%s", p)
		}
		return nil
	},
}
