package i2chub

import (
	"context"
	"fmt"
)

var ErrBusBusy = fmt.Errorf("I2C engine is busy (command not completed)")

// ErrNoAck is returned when the addressed slave did not acknowledge the start handshake.
var ErrNoAck = fmt.Errorf("no acknowledge from slave")

type AddressableReader interface {
	ReadFromAddr(ctx context.Context, address byte, buffer []byte) error
}

type AddressableWriter interface {
	WriteToAddr(ctx context.Context, address byte, buffer []byte) error
	Release(ctx context.Context) error
}

// I2CBus is a transaction level bus: every call is a complete start..stop exchange.
type I2CBus interface {
	AddressableReader
	AddressableWriter
}

type Direction byte

const (
	Write Direction = 0
	Read  Direction = 1
)

func (d Direction) String() string {
	if d == Read {
		return "read"
	}
	return "write"
}

// Primitives is a byte level I2C master. Start returns ErrNoAck (possibly wrapped)
// when the address is not acknowledged. ReadByte with nak set terminates the read.
type Primitives interface {
	Start(ctx context.Context, address byte, dir Direction) error
	ReadByte(ctx context.Context, nak bool) (byte, error)
	WriteByte(ctx context.Context, b byte) error
	Stop(ctx context.Context) error
}

// Indicator drives the console status output (LED).
type Indicator interface {
	Set(ctx context.Context, on bool) error
}
