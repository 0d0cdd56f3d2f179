package ds323x

import (
	"errors"

	"tinygo.org/x/drivers"
)

// Compile-time checks.
var (
	_ drivers.I2C = (*fakeI2C)(nil)
	_ drivers.SPI = (*fakeSPI)(nil)
)

var errBus = errors.New("bus fault")

// regFile models the register map: reads and writes auto-increment from the
// addressed register.
type regFile struct {
	regs   [0x14]byte
	writes [][]byte // [reg, payload...] per write transaction
	reads  int
	fail   error
}

func (f *regFile) write(reg byte, data []byte) {
	f.writes = append(f.writes, append([]byte{reg}, data...))
	copy(f.regs[reg:], data)
}

func (f *regFile) read(reg byte, r []byte) {
	f.reads++
	copy(r, f.regs[reg:])
}

// lastWrite returns the most recent write, or nil.
func (f *regFile) lastWrite() []byte {
	if len(f.writes) == 0 {
		return nil
	}
	return f.writes[len(f.writes)-1]
}

type fakeI2C struct {
	regFile
	addrs []uint16
}

func (f *fakeI2C) Tx(addr uint16, w, r []byte) error {
	f.addrs = append(f.addrs, addr)
	if f.fail != nil {
		return f.fail
	}
	switch {
	case len(w) == 1 && len(r) > 0:
		f.read(w[0], r)
	case len(w) >= 1 && len(r) == 0:
		f.write(w[0], w[1:])
	default:
		return errors.New("unexpected transaction")
	}
	return nil
}

type fakeSPI struct {
	regFile
	frames [][]byte // raw MOSI frames
	csLog  []bool
	csFail error
}

func (f *fakeSPI) Tx(w, r []byte) error {
	f.frames = append(f.frames, append([]byte(nil), w...))
	if f.fail != nil {
		return f.fail
	}
	if len(w) == 0 {
		return errors.New("empty frame")
	}
	if w[0]&0x80 != 0 {
		f.write(w[0]&^0x80, w[1:])
		return nil
	}
	if len(r) != len(w) {
		return errors.New("read frame length mismatch")
	}
	r[0] = 0xFF
	f.read(w[0], r[1:])
	return nil
}

func (f *fakeSPI) Transfer(b byte) (byte, error) {
	var r [1]byte
	err := f.Tx([]byte{b}, r[:])
	return r[0], err
}

func (f *fakeSPI) cs(level bool) error {
	f.csLog = append(f.csLog, level)
	return f.csFail
}

func newTestDS3231() (*DS3231, *fakeI2C) {
	bus := &fakeI2C{}
	return NewDS3231(bus), bus
}

func newTestDS3232() (*DS3232, *fakeI2C) {
	bus := &fakeI2C{}
	return NewDS3232(bus), bus
}

func newTestDS3234() (*DS3234, *fakeSPI) {
	bus := &fakeSPI{}
	return NewDS3234(bus, bus.cs), bus
}
