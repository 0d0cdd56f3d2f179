package ds323x

import (
	"strconv"

	"tinygo.org/x/drivers"
)

// RegisterReader reads device registers.
type RegisterReader interface {
	ReadRegister(reg uint8) (uint8, error)
	// ReadBurst fills buf from consecutive registers starting at reg in a
	// single bus operation.
	ReadBurst(reg uint8, buf []byte) error
}

// RegisterWriter writes device registers.
type RegisterWriter interface {
	WriteRegister(reg, value uint8) error
	// WriteBurst writes buf[1:] to consecutive registers starting at buf[0]
	// in a single bus operation.
	WriteBurst(buf []byte) error
}

// Interface is the transport a device talks through.
type Interface interface {
	RegisterReader
	RegisterWriter
}

// PinOutput drives a digital output. level=false is electrical low.
type PinOutput func(level bool) error

// PinSetter adapts an infallible setter such as machine.Pin.Set.
func PinSetter(set func(level bool)) PinOutput {
	return func(level bool) error {
		set(level)
		return nil
	}
}

// BusError wraps a failure reported by the underlying bus or pin.
type BusError struct {
	Op  string // "read", "write" or "cs"
	Reg uint8
	Err error
}

func (e *BusError) Error() string {
	return "ds323x: " + e.Op + " reg 0x" + strconv.FormatUint(uint64(e.Reg), 16) + ": " + e.Err.Error()
}

func (e *BusError) Unwrap() error { return e.Err }

// Longest transfer: alarm 1 burst or 7-byte timestamp, plus address byte.
const maxFrame = 8

// ---------------- I2C ----------------

// I2CInterface frames register accesses for the DS3231/DS3232.
//
// NOTE: drivers.I2C.Tx MUST perform the address write and the data read as one
// transaction (repeated start) when both w and r are given.
type I2CInterface struct {
	bus drivers.I2C

	w [maxFrame]byte
	r [1]byte
}

// NewI2CInterface binds to the fixed device address.
func NewI2CInterface(bus drivers.I2C) *I2CInterface {
	return &I2CInterface{bus: bus}
}

// Bus returns the wrapped I2C bus.
func (i *I2CInterface) Bus() drivers.I2C { return i.bus }

func (i *I2CInterface) ReadRegister(reg uint8) (uint8, error) {
	if err := i.ReadBurst(reg, i.r[:]); err != nil {
		return 0, err
	}
	return i.r[0], nil
}

func (i *I2CInterface) ReadBurst(reg uint8, buf []byte) error {
	i.w[0] = reg
	if err := i.bus.Tx(Address, i.w[:1], buf); err != nil {
		return &BusError{Op: "read", Reg: reg, Err: err}
	}
	return nil
}

func (i *I2CInterface) WriteRegister(reg, value uint8) error {
	i.w[0] = reg
	i.w[1] = value
	return i.tx(i.w[:2])
}

func (i *I2CInterface) WriteBurst(buf []byte) error {
	if len(buf) == 0 {
		return nil
	}
	return i.tx(buf)
}

func (i *I2CInterface) tx(w []byte) error {
	if err := i.bus.Tx(Address, w, nil); err != nil {
		return &BusError{Op: "write", Reg: w[0], Err: err}
	}
	return nil
}

// ---------------- SPI ----------------

// SPIInterface frames register accesses for the DS3234. Every access is a
// single full-duplex transfer bracketed by an active-low chip select.
type SPIInterface struct {
	bus drivers.SPI
	cs  PinOutput

	w [maxFrame]byte
	r [maxFrame]byte
}

// NewSPIInterface wraps a configured SPI bus (mode 1 or 3) and its chip
// select, which must already idle high.
func NewSPIInterface(bus drivers.SPI, cs PinOutput) *SPIInterface {
	return &SPIInterface{bus: bus, cs: cs}
}

// Bus returns the wrapped SPI bus and chip-select output.
func (s *SPIInterface) Bus() (drivers.SPI, PinOutput) { return s.bus, s.cs }

func (s *SPIInterface) ReadRegister(reg uint8) (uint8, error) {
	var v [1]byte
	if err := s.ReadBurst(reg, v[:]); err != nil {
		return 0, err
	}
	return v[0], nil
}

func (s *SPIInterface) ReadBurst(reg uint8, buf []byte) error {
	n := len(buf) + 1
	var w, r []byte
	if n <= maxFrame {
		w, r = s.w[:n], s.r[:n]
	} else {
		w, r = make([]byte, n), make([]byte, n)
	}
	w[0] = reg &^ spiWrite
	for k := 1; k < n; k++ {
		w[k] = 0
	}
	if err := s.transfer("read", reg, w, r); err != nil {
		return err
	}
	// r[0] is clocked out while the address is shifted in.
	copy(buf, r[1:])
	return nil
}

func (s *SPIInterface) WriteRegister(reg, value uint8) error {
	s.w[0] = reg | spiWrite
	s.w[1] = value
	return s.transfer("write", reg, s.w[:2], nil)
}

func (s *SPIInterface) WriteBurst(buf []byte) error {
	if len(buf) == 0 {
		return nil
	}
	var w []byte
	if len(buf) <= maxFrame {
		w = s.w[:len(buf)]
	} else {
		w = make([]byte, len(buf))
	}
	copy(w, buf)
	w[0] |= spiWrite
	return s.transfer("write", buf[0], w, nil)
}

func (s *SPIInterface) transfer(op string, reg uint8, w, r []byte) error {
	if err := s.cs(false); err != nil {
		return &BusError{Op: "cs", Reg: reg, Err: err}
	}
	txErr := s.bus.Tx(w, r)
	csErr := s.cs(true)
	if txErr != nil {
		return &BusError{Op: op, Reg: reg, Err: txErr}
	}
	if csErr != nil {
		return &BusError{Op: "cs", Reg: reg, Err: csErr}
	}
	return nil
}
