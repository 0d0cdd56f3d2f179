package ds323x

import (
	"errors"
	"testing"

	qt "github.com/frankban/quicktest"
)

func TestI2CFraming(t *testing.T) {
	c := qt.New(t)
	bus := &fakeI2C{}
	i := NewI2CInterface(bus)
	bus.regs[regTempMSB], bus.regs[regTempMSB+1] = 0x19, 0x40

	var b [2]byte
	c.Assert(i.ReadBurst(regTempMSB, b[:]), qt.IsNil)
	c.Assert(b, qt.Equals, [2]byte{0x19, 0x40})

	c.Assert(i.WriteRegister(regAgingOffset, 5), qt.IsNil)
	c.Assert(i.WriteBurst([]byte{regMinutes, 1, 2}), qt.IsNil)
	c.Assert(i.WriteBurst(nil), qt.IsNil)
	c.Assert(bus.writes, qt.DeepEquals, [][]byte{{regAgingOffset, 5}, {regMinutes, 1, 2}})
	c.Assert(bus.addrs, qt.DeepEquals, []uint16{0b110_1000, 0b110_1000, 0b110_1000})
}

func TestSPIFraming(t *testing.T) {
	c := qt.New(t)
	bus := &fakeSPI{}
	s := NewSPIInterface(bus, bus.cs)
	copy(bus.regs[:], []byte{0x58, 0x59, 0x23})

	var b [3]byte
	c.Assert(s.ReadBurst(regSeconds, b[:]), qt.IsNil)
	c.Assert(b, qt.Equals, [3]byte{0x58, 0x59, 0x23})

	v, err := s.ReadRegister(regMinutes)
	c.Assert(err, qt.IsNil)
	c.Assert(v, qt.Equals, uint8(0x59))

	c.Assert(s.WriteRegister(regControl, 0x1C), qt.IsNil)
	burst := []byte{regAlarm2Minutes, 1, 2, 3}
	c.Assert(s.WriteBurst(burst), qt.IsNil)
	// Caller's buffer is not modified.
	c.Assert(burst[0], qt.Equals, uint8(regAlarm2Minutes))

	c.Assert(bus.frames, qt.DeepEquals, [][]byte{
		{0x00, 0, 0, 0},
		{0x01, 0},
		{0x8E, 0x1C},
		{0x8B, 1, 2, 3},
	})
	c.Assert(bus.csLog, qt.DeepEquals, []bool{false, true, false, true, false, true, false, true})
}

func TestSPILongBurst(t *testing.T) {
	c := qt.New(t)
	bus := &fakeSPI{}
	s := NewSPIInterface(bus, bus.cs)
	for i := range bus.regs {
		bus.regs[i] = byte(i)
	}

	b := make([]byte, 0x14)
	c.Assert(s.ReadBurst(0, b), qt.IsNil)
	c.Assert(b[0x13], qt.Equals, uint8(0x13))
}

func TestSPIErrors(t *testing.T) {
	c := qt.New(t)

	bus := &fakeSPI{}
	bus.fail = errBus
	s := NewSPIInterface(bus, bus.cs)
	err := s.WriteRegister(regStatus, 0)
	var be *BusError
	c.Assert(errors.As(err, &be), qt.IsTrue)
	c.Assert(be.Op, qt.Equals, "write")
	c.Assert(be.Reg, qt.Equals, uint8(regStatus))
	c.Assert(err, qt.ErrorMatches, "ds323x: write reg 0xf: bus fault")
	// Chip select is released even when the transfer fails.
	c.Assert(bus.csLog, qt.DeepEquals, []bool{false, true})

	pinErr := errors.New("pin stuck")
	bus = &fakeSPI{csFail: pinErr}
	s = NewSPIInterface(bus, bus.cs)
	_, err = s.ReadRegister(regStatus)
	c.Assert(errors.Is(err, pinErr), qt.IsTrue)
	c.Assert(errors.As(err, &be), qt.IsTrue)
	c.Assert(be.Op, qt.Equals, "cs")
	c.Assert(bus.frames, qt.HasLen, 0)
}

func TestI2CError(t *testing.T) {
	c := qt.New(t)
	bus := &fakeI2C{}
	bus.fail = errBus
	i := NewI2CInterface(bus)

	_, err := i.ReadRegister(regAgingOffset)
	c.Assert(errors.Is(err, errBus), qt.IsTrue)
	c.Assert(err, qt.ErrorMatches, "ds323x: read reg 0x10: bus fault")

	err = i.WriteBurst([]byte{regAlarm1Seconds, 0})
	c.Assert(err, qt.ErrorMatches, "ds323x: write reg 0x7: bus fault")
}
