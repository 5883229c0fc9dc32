package scan

import (
	"context"
	"io"
	"log/slog"

	"github.com/mklimuk/i2chub"
)

const (
	// Rows is the number of high nibbles in the 7-bit address space.
	Rows = 8
	// Cols is the number of low nibbles per row.
	Cols = 16
)

// Table holds the acknowledge outcome for every 7-bit address, indexed [high][low].
type Table [Rows][Cols]bool

// Has reports whether address acknowledged its ping.
func (t Table) Has(address byte) bool {
	if address > 0x7F {
		return false
	}
	return t[address>>4][address&0x0F]
}

// Present lists the acknowledging addresses in ascending order.
func (t Table) Present() []byte {
	var found []byte
	for high := range Rows {
		for low := range Cols {
			if t[high][low] {
				found = append(found, byte(high<<4|low))
			}
		}
	}
	return found
}

// Render writes the table in the same format Scan streams.
func (t Table) Render(w io.Writer) error {
	if err := writeHeader(w); err != nil {
		return err
	}
	for high := range Rows {
		if err := writeRowLabel(w, byte(high<<4)); err != nil {
			return err
		}
		for low := range Cols {
			if err := writeCell(w, byte(high<<4|low), t[high][low]); err != nil {
				return err
			}
		}
		if err := writeRowEnd(w); err != nil {
			return err
		}
	}
	return nil
}

// Scanner sweeps the whole 7-bit address space with empty write transactions.
type Scanner struct {
	bus i2chub.Primitives
}

func NewScanner(bus i2chub.Primitives) *Scanner {
	return &Scanner{bus: bus}
}

// Ping opens a write transaction at address and closes it immediately.
// The stop is issued whether or not the address acknowledged.
func (s *Scanner) Ping(ctx context.Context, address byte) bool {
	err := s.bus.Start(ctx, address, i2chub.Write)
	if stopErr := s.bus.Stop(ctx); stopErr != nil {
		slog.Debug("stop after ping failed", "address", address, "error", stopErr)
	}
	return err == nil
}

// Detect pings every address and returns the outcome.
func (s *Scanner) Detect(ctx context.Context) Table {
	var t Table
	for high := range Rows {
		for low := range Cols {
			t[high][low] = s.Ping(ctx, byte(high<<4|low))
		}
	}
	return t
}

// Scan pings every address, writing the report to w row by row.
// Output stops at the first write error.
func (s *Scanner) Scan(ctx context.Context, w io.Writer) error {
	if err := writeHeader(w); err != nil {
		return err
	}
	for high := 0x00; high <= 0x70; high += 0x10 {
		if err := writeRowLabel(w, byte(high)); err != nil {
			return err
		}
		for low := 0x0; low <= 0x0F; low++ {
			addr := byte(high | low)
			if err := writeCell(w, addr, s.Ping(ctx, addr)); err != nil {
				return err
			}
		}
		if err := writeRowEnd(w); err != nil {
			return err
		}
	}
	return nil
}
