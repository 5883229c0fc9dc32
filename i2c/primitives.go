package i2c

import (
	"context"
	"errors"
	"fmt"

	"github.com/mklimuk/i2chub"
)

var ErrNoTransaction = errors.New("no open transaction")
var ErrWrongDirection = errors.New("operation does not match transaction direction")
var ErrReadExhausted = errors.New("read past prefetched data")

var _ i2chub.Primitives = &Primitives{}

type PrimitivesOpts struct {
	ReadAhead int
}

type PrimitivesOpt func(*PrimitivesOpts)

// WithReadAhead sets how many bytes a read start fetches from the slave.
func WithReadAhead(n int) PrimitivesOpt {
	return func(o *PrimitivesOpts) {
		if n > 0 {
			o.ReadAhead = n
		}
	}
}

// Primitives emulates a byte level master on top of a transaction level bus.
//
// Start(write) addresses the slave with an empty write so the acknowledge is known
// immediately; the bytes passed to WriteByte are buffered and sent as one
// transaction on Stop. Start(read) fetches ReadAhead bytes at once and ReadByte
// hands them out.
type Primitives struct {
	bus     i2chub.I2CBus
	opts    PrimitivesOpts
	open    bool
	address byte
	dir     i2chub.Direction
	pending []byte
	read    []byte
	readPos int
}

func NewPrimitives(bus i2chub.I2CBus, opts ...PrimitivesOpt) *Primitives {
	o := PrimitivesOpts{ReadAhead: 1}
	for _, opt := range opts {
		opt(&o)
	}
	return &Primitives{bus: bus, opts: o}
}

func (p *Primitives) Start(ctx context.Context, address byte, dir i2chub.Direction) error {
	p.reset()
	switch dir {
	case i2chub.Read:
		buf := make([]byte, p.opts.ReadAhead)
		if err := p.bus.ReadFromAddr(ctx, address, buf); err != nil {
			p.releaseIfBusy(ctx, err)
			return fmt.Errorf("start read at %x: %w: %w", address, i2chub.ErrNoAck, err)
		}
		p.read = buf
	default:
		if err := p.bus.WriteToAddr(ctx, address, []byte{}); err != nil {
			p.releaseIfBusy(ctx, err)
			return fmt.Errorf("start write at %x: %w: %w", address, i2chub.ErrNoAck, err)
		}
	}
	p.open = true
	p.address = address
	p.dir = dir
	return nil
}

func (p *Primitives) ReadByte(ctx context.Context, nak bool) (byte, error) {
	if !p.open {
		return 0xFF, ErrNoTransaction
	}
	if p.dir != i2chub.Read {
		return 0xFF, ErrWrongDirection
	}
	if p.readPos >= len(p.read) {
		return 0xFF, ErrReadExhausted
	}
	b := p.read[p.readPos]
	p.readPos++
	return b, nil
}

func (p *Primitives) WriteByte(ctx context.Context, b byte) error {
	if !p.open {
		return ErrNoTransaction
	}
	if p.dir != i2chub.Write {
		return ErrWrongDirection
	}
	p.pending = append(p.pending, b)
	return nil
}

// Stop flushes buffered write data. Stop without an open transaction is a no-op.
func (p *Primitives) Stop(ctx context.Context) error {
	if !p.open {
		return nil
	}
	defer p.reset()
	if p.dir != i2chub.Write || len(p.pending) == 0 {
		return nil
	}
	if err := p.bus.WriteToAddr(ctx, p.address, p.pending); err != nil {
		return fmt.Errorf("could not flush write to %x: %w", p.address, err)
	}
	return nil
}

// releaseIfBusy releases the adapter after it refused a start as busy.
func (p *Primitives) releaseIfBusy(ctx context.Context, err error) {
	if errors.Is(err, i2chub.ErrBusBusy) {
		_ = p.bus.Release(ctx)
	}
}

func (p *Primitives) reset() {
	p.open = false
	p.pending = nil
	p.read = nil
	p.readPos = 0
}
