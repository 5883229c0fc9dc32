package main

import (
	"errors"
	"fmt"
	"log"
	"log/slog"
	"os"
	"time"

	chlog "github.com/charmbracelet/log"
	"github.com/joho/godotenv"
	"github.com/muesli/termenv"
	"github.com/urfave/cli/v2"

	"github.com/mklimuk/i2chub/expander"
)

var version string
var commit string
var date string

func main() {
	os.Exit(run())
}

func run() int {
	// flags below read their defaults from the environment
	if err := loadDotEnv(".env"); err != nil {
		log.Printf("could not load .env: %v", err)
		return 1
	}
	app := cli.NewApp()
	app.Name = "i2chub"
	app.EnableBashCompletion = true
	app.Version = fmt.Sprintf("%s-%s-%s", version, date, commit)
	app.Usage = "PCA9546A I2C hub console"
	app.Flags = []cli.Flag{
		&cli.BoolFlag{
			Name:    "verbose",
			Usage:   "enable verbose logging",
			EnvVars: []string{"I2CHUB_VERBOSE"},
		},
		&cli.StringFlag{
			Name:    "adapter",
			Usage:   "bus backend: mcp2221, generic, nanopi or sim",
			Value:   adapterMCP2221,
			EnvVars: []string{"I2CHUB_ADAPTER"},
		},
		&cli.StringFlag{
			Name:    "device",
			Usage:   "i2c-dev bus name for the generic adapter (empty picks the first one)",
			EnvVars: []string{"I2CHUB_DEVICE"},
		},
		&cli.IntFlag{
			Name:    "bus",
			Usage:   "bus number for the nanopi adapter",
			Value:   0,
			EnvVars: []string{"I2CHUB_BUS"},
		},
		&cli.IntFlag{
			Name:    "speed",
			Usage:   "bus clock in Hz (0 keeps the adapter default)",
			EnvVars: []string{"I2CHUB_SPEED"},
		},
		&cli.StringFlag{
			Name:    "sim-config",
			Usage:   "YAML topology of the simulated bus",
			EnvVars: []string{"I2CHUB_SIM_CONFIG"},
		},
		&cli.StringFlag{
			Name:    "address",
			Usage:   "expander address",
			Value:   fmt.Sprintf("%#x", expander.DefaultAddress),
			EnvVars: []string{"I2CHUB_ADDRESS"},
		},
		&cli.IntFlag{
			Name:    "read-ahead",
			Usage:   "bytes fetched per read transaction on transactional adapters",
			Value:   1,
			EnvVars: []string{"I2CHUB_READ_AHEAD"},
		},
	}
	app.Before = func(ctx *cli.Context) error {
		charm := chlog.NewWithOptions(os.Stderr, chlog.Options{
			ReportCaller:    true,
			ReportTimestamp: true,
			TimeFormat:      time.DateTime,
		})
		charm.SetColorProfile(termenv.TrueColor)
		charm.SetLevel(chlog.InfoLevel)
		if ctx.Bool("verbose") {
			charm.SetLevel(chlog.DebugLevel)
		}
		slog.SetDefault(slog.New(charm))
		return nil
	}
	app.Commands = cli.Commands{
		&serveCmd,
		&scanCmd,
		&portCmd,
		&portsCmd,
		&usbCmd,
		&mcp2221Cmd,
	}
	err := app.Run(os.Args)
	if err != nil {
		var exerr cli.ExitCoder
		if errors.As(err, &exerr) {
			log.Printf("unexpected error: %v", err)
			return exerr.ExitCode()
		}
		log.Printf("unexpected error: %v", err)
		return 1
	}
	return 0
}

// loadDotEnv loads environment variables from path. A missing file is ignored.
func loadDotEnv(path string) error {
	err := godotenv.Load(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	return err
}
