// Package sim provides an in-memory I2C bus with byte level semantics.
// It records every bus event and flags ordering violations, which makes it
// suitable both for tests and for running the console without hardware.
package sim

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/mklimuk/i2chub"
)

var ErrBusHeld = errors.New("start issued while previous transaction is still open")
var ErrNoTransaction = errors.New("no open transaction")

// Device is a slave attached to the simulated bus.
type Device interface {
	// ReadByte returns the next byte the slave drives on the bus.
	ReadByte() byte
	// WriteByte receives a byte from the master. Returning false NAKs the byte.
	WriteByte(b byte) bool
}

type State int

const (
	Idle State = iota
	StartSent
	Acked
	Naked
)

func (s State) String() string {
	switch s {
	case StartSent:
		return "START_SENT"
	case Acked:
		return "ACKED"
	case Naked:
		return "NAKED"
	default:
		return "IDLE"
	}
}

type EventKind int

const (
	EventStart EventKind = iota
	EventRead
	EventWrite
	EventStop
)

func (k EventKind) String() string {
	switch k {
	case EventStart:
		return "start"
	case EventRead:
		return "read"
	case EventWrite:
		return "write"
	default:
		return "stop"
	}
}

// Event is one recorded bus operation.
type Event struct {
	Kind    EventKind
	Address byte
	Dir     i2chub.Direction
	Data    byte
	Ack     bool
}

func (e Event) String() string {
	switch e.Kind {
	case EventStart:
		return fmt.Sprintf("start %#02x %s ack=%t", e.Address, e.Dir, e.Ack)
	case EventRead, EventWrite:
		return fmt.Sprintf("%s %#02x", e.Kind, e.Data)
	default:
		return "stop"
	}
}

var _ i2chub.Primitives = &Bus{}

// DefaultEventLimit bounds the event log of a bus. A full log drops its oldest entries.
const DefaultEventLimit = 4096

type Bus struct {
	mx         sync.Mutex
	devices    map[byte]Device
	state      State
	address    byte
	dir        i2chub.Direction
	events     []Event
	eventLimit int
	violations []error
}

type BusOpt func(*Bus)

// WithEventLimit sets how many events are kept; 0 disables recording.
func WithEventLimit(n int) BusOpt {
	return func(b *Bus) {
		if n >= 0 {
			b.eventLimit = n
		}
	}
}

func NewBus(opts ...BusOpt) *Bus {
	b := &Bus{devices: make(map[byte]Device), eventLimit: DefaultEventLimit}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

func (b *Bus) record(e Event) {
	if b.eventLimit == 0 {
		return
	}
	if len(b.events) >= b.eventLimit {
		n := copy(b.events, b.events[len(b.events)-b.eventLimit+1:])
		b.events = b.events[:n]
	}
	b.events = append(b.events, e)
}

// Attach connects dev at a 7-bit address, replacing whatever was there.
func (b *Bus) Attach(address byte, dev Device) {
	b.mx.Lock()
	defer b.mx.Unlock()
	b.devices[address&0x7F] = dev
}

func (b *Bus) Detach(address byte) {
	b.mx.Lock()
	defer b.mx.Unlock()
	delete(b.devices, address&0x7F)
}

func (b *Bus) Start(ctx context.Context, address byte, dir i2chub.Direction) error {
	b.mx.Lock()
	defer b.mx.Unlock()
	if b.state == StartSent || b.state == Acked {
		b.violations = append(b.violations, fmt.Errorf("start %#02x: %w", address, ErrBusHeld))
	}
	b.state = StartSent
	b.address = address
	b.dir = dir
	_, ok := b.devices[address&0x7F]
	b.record(Event{Kind: EventStart, Address: address, Dir: dir, Ack: ok})
	if !ok {
		// a not acknowledged address releases the bus
		b.state = Idle
		return fmt.Errorf("start %#02x: %w", address, i2chub.ErrNoAck)
	}
	b.state = Acked
	return nil
}

func (b *Bus) ReadByte(ctx context.Context, nak bool) (byte, error) {
	b.mx.Lock()
	defer b.mx.Unlock()
	if b.state != Acked || b.dir != i2chub.Read {
		return 0xFF, ErrNoTransaction
	}
	v := b.devices[b.address&0x7F].ReadByte()
	b.record(Event{Kind: EventRead, Address: b.address, Data: v, Ack: !nak})
	return v, nil
}

func (b *Bus) WriteByte(ctx context.Context, v byte) error {
	b.mx.Lock()
	defer b.mx.Unlock()
	if b.state != Acked || b.dir != i2chub.Write {
		return ErrNoTransaction
	}
	ack := b.devices[b.address&0x7F].WriteByte(v)
	b.record(Event{Kind: EventWrite, Address: b.address, Data: v, Ack: ack})
	if !ack {
		return fmt.Errorf("write %#02x to %#02x: %w", v, b.address, i2chub.ErrNoAck)
	}
	return nil
}

func (b *Bus) Stop(ctx context.Context) error {
	b.mx.Lock()
	defer b.mx.Unlock()
	b.record(Event{Kind: EventStop, Address: b.address})
	b.state = Idle
	return nil
}

func (b *Bus) State() State {
	b.mx.Lock()
	defer b.mx.Unlock()
	return b.state
}

// Events returns a copy of the recorded events.
func (b *Bus) Events() []Event {
	b.mx.Lock()
	defer b.mx.Unlock()
	out := make([]Event, len(b.events))
	copy(out, b.events)
	return out
}

// Violations lists every transaction ordering error observed so far.
func (b *Bus) Violations() []error {
	b.mx.Lock()
	defer b.mx.Unlock()
	out := make([]error, len(b.violations))
	copy(out, b.violations)
	return out
}

// Reset clears recorded events and violations; attached devices are kept.
func (b *Bus) Reset() {
	b.mx.Lock()
	defer b.mx.Unlock()
	b.events = nil
	b.violations = nil
	b.state = Idle
}
