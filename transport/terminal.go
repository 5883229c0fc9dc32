//go:build !tinygo

package transport

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/chzyer/readline"
)

const DefaultPrompt = "hub> "

// Terminal is an interactive transport on the local terminal. Every entered
// line is one receive burst, so only its first character is acted upon.
type Terminal struct {
	rl *readline.Instance
}

func NewTerminal(prompt string) (*Terminal, error) {
	rl, err := readline.NewEx(&readline.Config{
		Prompt:          prompt,
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
	})
	if err != nil {
		return nil, fmt.Errorf("could not open terminal: %w", err)
	}
	return &Terminal{rl: rl}, nil
}

// Receive returns io.EOF on Ctrl-C or Ctrl-D. Empty lines are skipped.
func (t *Terminal) Receive(ctx context.Context, buf []byte) (int, error) {
	for {
		if err := ctx.Err(); err != nil {
			return 0, err
		}
		line, err := t.rl.Readline()
		if errors.Is(err, readline.ErrInterrupt) || errors.Is(err, io.EOF) {
			return 0, io.EOF
		}
		if err != nil {
			return 0, fmt.Errorf("could not read line: %w", err)
		}
		if line == "" {
			continue
		}
		return copy(buf, line), nil
	}
}

func (t *Terminal) Send(ctx context.Context, data []byte) error {
	if _, err := t.rl.Write(data); err != nil {
		return fmt.Errorf("could not write to terminal: %w", err)
	}
	return nil
}

func (t *Terminal) Close() error {
	return t.rl.Close()
}
