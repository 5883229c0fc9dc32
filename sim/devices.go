package sim

import "sync"

// Switch models a PCA9546A: a single control register whose low four bits
// enable the downstream channels.
type Switch struct {
	mx      sync.Mutex
	control byte
}

func NewSwitch(control byte) *Switch {
	return &Switch{control: control & 0x0F}
}

func (s *Switch) ReadByte() byte {
	s.mx.Lock()
	defer s.mx.Unlock()
	return s.control
}

func (s *Switch) WriteByte(b byte) bool {
	s.mx.Lock()
	defer s.mx.Unlock()
	s.control = b & 0x0F
	return true
}

func (s *Switch) Control() byte {
	s.mx.Lock()
	defer s.mx.Unlock()
	return s.control
}

// Register is a plain one byte register device. Unlike Switch it stores every
// bit, so it can present values the real expander never produces.
type Register struct {
	mx    sync.Mutex
	value byte
}

func NewRegister(value byte) *Register {
	return &Register{value: value}
}

func (r *Register) ReadByte() byte {
	r.mx.Lock()
	defer r.mx.Unlock()
	return r.value
}

func (r *Register) WriteByte(b byte) bool {
	r.mx.Lock()
	defer r.mx.Unlock()
	r.value = b
	return true
}

// Responder acknowledges its address and ignores data.
type Responder struct{}

func (Responder) ReadByte() byte { return 0xFF }

func (Responder) WriteByte(byte) bool { return false }
