package ds323x

// SqWFreq is the square-wave output frequency on INT/SQW.
type SqWFreq uint8

const (
	SqW1Hz SqWFreq = iota
	SqW1024Hz
	SqW4096Hz
	SqW8192Hz
)

func (f SqWFreq) bits() (uint8, bool) {
	switch f {
	case SqW1Hz:
		return 0, true
	case SqW1024Hz:
		return bitRS1, true
	case SqW4096Hz:
		return bitRS2, true
	case SqW8192Hz:
		return bitRS2 | bitRS1, true
	default:
		return 0, false
	}
}

// Status is a snapshot of the STATUS flags.
type Status struct {
	OscillatorStopped bool // OSF
	Busy              bool // BSY
	Alarm1Matched     bool // A1F
	Alarm2Matched     bool // A2F
}

// ---------------- register helpers ----------------

func (d *Device) writeControl(v uint8) error {
	if err := d.iface.WriteRegister(regControl, v); err != nil {
		return err
	}
	d.control = v
	return nil
}

// writeStatus writes STATUS with both alarm flags set so neither is cleared.
func (d *Device) writeStatus(v uint8) error {
	return d.writeStatusClearing(v, 0)
}

// writeStatusClearing writes STATUS with the alarm flags in clear written as
// 0 (cleared) and the other alarm flag written as 1 (left alone).
func (d *Device) writeStatusClearing(v, clear uint8) error {
	v &^= alarmFlags
	if err := d.iface.WriteRegister(regStatus, v|alarmFlags&^clear); err != nil {
		return err
	}
	d.status = v
	return nil
}

func (d *Device) statusBit(mask uint8) (bool, error) {
	v, err := d.iface.ReadRegister(regStatus)
	if err != nil {
		return false, err
	}
	return v&mask != 0, nil
}

func (d *Device) updateControl(set bool, mask uint8) error {
	if set {
		return d.writeControl(d.control | mask)
	}
	return d.writeControl(d.control &^ mask)
}

func (d *Device) updateStatus(set bool, mask uint8) error {
	if set {
		return d.writeStatus(d.status | mask)
	}
	return d.writeStatus(d.status &^ mask)
}

// ReadConfig loads CONTROL and STATUS from the chip into the handle, so
// later toggles keep settings made by an earlier handle. A new handle
// otherwise assumes power-on values. CONV, BSY and the alarm flags are
// owned by the chip and are not kept.
func (d *Device) ReadConfig() error {
	var b [2]byte
	if err := d.iface.ReadBurst(regControl, b[:]); err != nil {
		return err
	}
	d.control = b[0] &^ bitCONV
	d.status = b[1] &^ (bitBSY | alarmFlags)
	return nil
}

// ---------------- oscillator ----------------

// Enable starts the oscillator (clears EOSC). On battery power the
// oscillator only runs while EOSC is clear.
func (d *Device) Enable() error { return d.updateControl(false, bitEOSC) }

// Disable stops the oscillator while on battery power (sets EOSC).
func (d *Device) Disable() error { return d.updateControl(true, bitEOSC) }

// Running reports whether the oscillator is enabled.
func (d *Device) Running() (bool, error) {
	v, err := d.iface.ReadRegister(regControl)
	if err != nil {
		return false, err
	}
	return v&bitEOSC == 0, nil
}

// Status reads all STATUS flags in one access.
func (d *Device) Status() (Status, error) {
	v, err := d.iface.ReadRegister(regStatus)
	if err != nil {
		return Status{}, err
	}
	return Status{
		OscillatorStopped: v&bitOSF != 0,
		Busy:              v&bitBSY != 0,
		Alarm1Matched:     v&bitA1F != 0,
		Alarm2Matched:     v&bitA2F != 0,
	}, nil
}

// Busy reports whether a temperature conversion is in progress (BSY).
func (d *Device) Busy() (bool, error) { return d.statusBit(bitBSY) }

// HasBeenStopped reports the oscillator stop flag (OSF). It is set at first
// power-up and whenever the oscillator stopped, so the time may be wrong.
func (d *Device) HasBeenStopped() (bool, error) { return d.statusBit(bitOSF) }

// ClearHasBeenStoppedFlag clears OSF.
func (d *Device) ClearHasBeenStoppedFlag() error {
	return d.writeStatus(d.status &^ bitOSF)
}

// ---------------- temperature ----------------

// TemperatureQuarters returns the last temperature conversion in units of
// 0.25 °C.
func (d *Device) TemperatureQuarters() (int16, error) {
	var b [2]byte
	if err := d.iface.ReadBurst(regTempMSB, b[:]); err != nil {
		return 0, err
	}
	return temperatureFromRegisters(b[0], b[1]), nil
}

// TemperatureMilliC returns the last temperature conversion in m°C.
func (d *Device) TemperatureMilliC() (int32, error) {
	q, err := d.TemperatureQuarters()
	return int32(q) * 250, err
}

// Temperature returns the last temperature conversion in °C.
func (d *Device) Temperature() (float32, error) {
	q, err := d.TemperatureQuarters()
	return float32(q) / 4, err
}

// ConvertTemperature forces a temperature conversion and TCXO update if
// none is running. The chip clears CONV when it is done, so CONTROL is read
// first rather than taken from the cache.
func (d *Device) ConvertTemperature() error {
	v, err := d.iface.ReadRegister(regControl)
	if err != nil {
		return err
	}
	if v&bitCONV != 0 {
		return nil
	}
	return d.iface.WriteRegister(regControl, v|bitCONV)
}

// ---------------- aging offset ----------------

// SetAgingOffset writes the crystal aging offset. Positive values slow the
// oscillator down.
func (d *Device) SetAgingOffset(offset int8) error {
	return d.iface.WriteRegister(regAgingOffset, uint8(offset))
}

// AgingOffset reads the crystal aging offset.
func (d *Device) AgingOffset() (int8, error) {
	v, err := d.iface.ReadRegister(regAgingOffset)
	return int8(v), err
}

// ---------------- outputs ----------------

// Enable32kHzOutput turns on the 32kHz output (EN32kHz).
func (d *Device) Enable32kHzOutput() error { return d.updateStatus(true, bitEN32kHz) }

// Disable32kHzOutput turns off the 32kHz output.
func (d *Device) Disable32kHzOutput() error { return d.updateStatus(false, bitEN32kHz) }

// UseIntSqwOutputAsInterrupt routes alarm matches to INT/SQW (sets INTCN).
func (d *Device) UseIntSqwOutputAsInterrupt() error { return d.updateControl(true, bitINTCN) }

// UseIntSqwOutputAsSquareWave outputs the square wave on INT/SQW.
func (d *Device) UseIntSqwOutputAsSquareWave() error { return d.updateControl(false, bitINTCN) }

// EnableSquareWave keeps the square wave running on battery power (BBSQW).
func (d *Device) EnableSquareWave() error { return d.updateControl(true, bitBBSQW) }

// DisableSquareWave stops the square wave on battery power.
func (d *Device) DisableSquareWave() error { return d.updateControl(false, bitBBSQW) }

// SetSquareWaveFrequency sets RS2:RS1.
func (d *Device) SetSquareWaveFrequency(f SqWFreq) error {
	bits, ok := f.bits()
	if !ok {
		return ErrInvalidInputData
	}
	return d.writeControl(d.control&^(bitRS2|bitRS1) | bits)
}

// ---------------- alarm interrupts and flags ----------------

func (d *Device) EnableAlarm1Interrupts() error  { return d.updateControl(true, bitA1IE) }
func (d *Device) DisableAlarm1Interrupts() error { return d.updateControl(false, bitA1IE) }
func (d *Device) EnableAlarm2Interrupts() error  { return d.updateControl(true, bitA2IE) }
func (d *Device) DisableAlarm2Interrupts() error { return d.updateControl(false, bitA2IE) }

// HasAlarm1Matched reports A1F.
func (d *Device) HasAlarm1Matched() (bool, error) { return d.statusBit(bitA1F) }

// HasAlarm2Matched reports A2F.
func (d *Device) HasAlarm2Matched() (bool, error) { return d.statusBit(bitA2F) }

// ClearAlarm1MatchedFlag clears A1F, leaving A2F untouched.
func (d *Device) ClearAlarm1MatchedFlag() error {
	return d.writeStatusClearing(d.status, bitA1F)
}

// ClearAlarm2MatchedFlag clears A2F, leaving A1F untouched.
func (d *Device) ClearAlarm2MatchedFlag() error {
	return d.writeStatusClearing(d.status, bitA2F)
}
