package hub

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/mklimuk/i2chub"
	"github.com/mklimuk/i2chub/expander"
	"github.com/mklimuk/i2chub/scan"
)

const ClearSequence = "\033[2J\033[H"

// HelpText is the listing printed for '?'. It is kept byte for byte as the hub
// firmware shipped it, including the port labels.
const HelpText = "c - Clear Screen\n" +
	"l - I2C List Devices\n" +
	"o - LED Off\n" +
	"O - LED On\n" +
	"r - Read I2C Expander Control\n" +
	"0 - Toogle Port 1\n" +
	"1 - Toogle Port 1\n" +
	"2 - Toogle Port 2\n" +
	"3 - Toogle Port 3\n"

// ReceiveBufferSize is the largest burst read from the transport in one call.
const ReceiveBufferSize = 64

// Transport is the host side byte stream. Receive blocks until at least one
// byte arrived and returns the whole burst.
type Transport interface {
	Receive(ctx context.Context, buf []byte) (int, error)
	Send(ctx context.Context, data []byte) error
}

type Console struct {
	transport Transport
	expander  *expander.PCA9546
	scanner   *scan.Scanner
	led       i2chub.Indicator
}

type ConsoleOpts struct {
	ExpanderAddress byte
	Indicator       i2chub.Indicator
}

type ConsoleOpt func(*ConsoleOpts)

func WithExpanderAddress(address byte) ConsoleOpt {
	return func(o *ConsoleOpts) {
		o.ExpanderAddress = address
	}
}

func WithIndicator(led i2chub.Indicator) ConsoleOpt {
	return func(o *ConsoleOpts) {
		o.Indicator = led
	}
}

func NewConsole(t Transport, bus i2chub.Primitives, opts ...ConsoleOpt) *Console {
	o := ConsoleOpts{ExpanderAddress: expander.DefaultAddress}
	for _, opt := range opts {
		opt(&o)
	}
	return &Console{
		transport: t,
		expander:  expander.NewPCA9546(bus, expander.WithAddress(o.ExpanderAddress)),
		scanner:   scan.NewScanner(bus),
		led:       o.Indicator,
	}
}

// Serve reads bursts from the transport until it is closed or ctx is done.
// Only the first byte of every burst is dispatched.
func (c *Console) Serve(ctx context.Context) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		buf := make([]byte, ReceiveBufferSize)
		n, err := c.transport.Receive(ctx, buf)
		if n > 0 {
			if n > 1 {
				slog.Debug("dropping trailing burst bytes", "dropped", n-1)
			}
			c.Dispatch(ctx, buf[0])
		}
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("could not receive command: %w", err)
		}
	}
}

// Dispatch runs a single command byte.
func (c *Console) Dispatch(ctx context.Context, b byte) {
	c.Execute(ctx, ParseCommand(b))
}

func (c *Console) Execute(ctx context.Context, cmd Command) {
	out := c.output(ctx)
	var err error
	switch cmd.Action {
	case ClearScreen:
		_, err = io.WriteString(out, ClearSequence)
	case LedOff:
		c.setIndicator(ctx, false)
	case LedOn:
		c.setIndicator(ctx, true)
	case ReadControlReg:
		err = c.expander.PrintControlReg(ctx, out)
	case SelectPort:
		c.expander.SetPort(ctx, cmd.Port)
		err = c.expander.PrintControlReg(ctx, out)
	case Scan:
		err = c.scanner.Scan(ctx, out)
	case Help:
		_, err = io.WriteString(out, HelpText)
	default:
		return
	}
	if err != nil {
		slog.Debug("command output failed", "command", cmd.String(), "error", err)
	}
}

func (c *Console) setIndicator(ctx context.Context, on bool) {
	if c.led == nil {
		return
	}
	if err := c.led.Set(ctx, on); err != nil {
		slog.Debug("indicator update failed", "on", on, "error", err)
	}
}

func (c *Console) output(ctx context.Context) io.Writer {
	return sendWriter{ctx: ctx, t: c.transport}
}

type sendWriter struct {
	ctx context.Context
	t   Transport
}

func (w sendWriter) Write(p []byte) (int, error) {
	if err := w.t.Send(w.ctx, p); err != nil {
		return 0, err
	}
	return len(p), nil
}
