package ds323x

// TempConvRate is how often the DS3232/DS3234 measure temperature and
// adjust the oscillator.
type TempConvRate uint8

const (
	TempConv64s TempConvRate = iota // POR default
	TempConv128s
	TempConv256s
	TempConv512s
)

func (r TempConvRate) bits() (uint8, bool) {
	switch r {
	case TempConv64s:
		return 0, true
	case TempConv128s:
		return bitCRATE0, true
	case TempConv256s:
		return bitCRATE1, true
	case TempConv512s:
		return bitCRATE1 | bitCRATE0, true
	default:
		return 0, false
	}
}

func (d *Device) set32kHzOnBattery(on bool) error { return d.updateStatus(on, bitBB32kHz) }

func (d *Device) setTempConvRate(r TempConvRate) error {
	bits, ok := r.bits()
	if !ok {
		return ErrInvalidInputData
	}
	return d.writeStatus(d.status&^(bitCRATE1|bitCRATE0) | bits)
}

// Enable32kHzOutputOnBattery keeps the 32kHz output running on battery
// power. The output itself must also be enabled.
func (d *DS3232) Enable32kHzOutputOnBattery() error { return d.set32kHzOnBattery(true) }

// Disable32kHzOutputOnBattery stops the 32kHz output on battery power.
func (d *DS3232) Disable32kHzOutputOnBattery() error { return d.set32kHzOnBattery(false) }

// SetTemperatureConversionRate sets CRATE1:CRATE0.
func (d *DS3232) SetTemperatureConversionRate(r TempConvRate) error { return d.setTempConvRate(r) }

// Enable32kHzOutputOnBattery keeps the 32kHz output running on battery
// power. The output itself must also be enabled.
func (d *DS3234) Enable32kHzOutputOnBattery() error { return d.set32kHzOnBattery(true) }

// Disable32kHzOutputOnBattery stops the 32kHz output on battery power.
func (d *DS3234) Disable32kHzOutputOnBattery() error { return d.set32kHzOnBattery(false) }

// SetTemperatureConversionRate sets CRATE1:CRATE0.
func (d *DS3234) SetTemperatureConversionRate(r TempConvRate) error { return d.setTempConvRate(r) }

// EnableTemperatureConversionsOnBattery clears BB_TD (the POR state).
func (d *DS3234) EnableTemperatureConversionsOnBattery() error {
	return d.iface.WriteRegister(regTempConv, 0)
}

// DisableTemperatureConversionsOnBattery sets BB_TD.
func (d *DS3234) DisableTemperatureConversionsOnBattery() error {
	return d.iface.WriteRegister(regTempConv, bitBBTD)
}
