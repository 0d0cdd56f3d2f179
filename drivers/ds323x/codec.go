package ds323x

// Packed BCD helpers. Inputs are not range checked; callers validate first.

func decimalToBCD(dec uint8) uint8 {
	return (dec/10)<<4 | dec%10
}

func bcdToDecimal(bcd uint8) uint8 {
	return (bcd>>4)*10 + bcd&0x0F
}

// HourMode selects how an Hours value is encoded in the HOURS register.
type HourMode uint8

const (
	H24 HourMode = iota // 0..23
	AM                  // 1..12
	PM                  // 1..12
)

func (m HourMode) String() string {
	switch m {
	case AM:
		return "AM"
	case PM:
		return "PM"
	default:
		return "H24"
	}
}

// Hours is an hour in either 24-hour or 12-hour (AM/PM) format.
type Hours struct {
	Mode  HourMode
	Value uint8
}

// Hour24 returns an Hours in 24-hour format.
func Hour24(h uint8) Hours { return Hours{Mode: H24, Value: h} }

// HourAM returns a 12-hour AM Hours.
func HourAM(h uint8) Hours { return Hours{Mode: AM, Value: h} }

// HourPM returns a 12-hour PM Hours.
func HourPM(h uint8) Hours { return Hours{Mode: PM, Value: h} }

// Valid reports whether the value is legal for its mode.
func (h Hours) Valid() bool {
	switch h.Mode {
	case H24:
		return h.Value <= 23
	case AM, PM:
		return h.Value >= 1 && h.Value <= 12
	default:
		return false
	}
}

// To24 converts the hour to 0..23. The result is undefined for invalid values.
func (h Hours) To24() uint8 {
	switch h.Mode {
	case AM:
		if h.Value == 12 {
			return 0
		}
		return h.Value
	case PM:
		if h.Value == 12 {
			return 12
		}
		return h.Value + 12
	default:
		return h.Value
	}
}

// amended replaces an illegal value by the lowest legal one for its mode.
func (h Hours) amended() Hours {
	if h.Valid() {
		return h
	}
	switch h.Mode {
	case AM, PM:
		return Hours{Mode: h.Mode, Value: 1}
	default:
		return Hour24(0)
	}
}

func hoursToRegister(h Hours) (uint8, error) {
	if !h.Valid() {
		return 0, ErrInvalidInputData
	}
	switch h.Mode {
	case AM:
		return bitH12 | decimalToBCD(h.Value), nil
	case PM:
		return bitH12 | bitPM | decimalToBCD(h.Value), nil
	default:
		return decimalToBCD(h.Value), nil
	}
}

func hoursFromRegister(v uint8) Hours {
	if v&bitH12 == 0 {
		return Hour24(bcdToDecimal(v &^ bitH12))
	}
	h := bcdToDecimal(v &^ (bitH12 | bitPM))
	if v&bitPM != 0 {
		return HourPM(h)
	}
	return HourAM(h)
}

func yearFromRegisters(month, year uint8) uint16 {
	y := 2000 + uint16(bcdToDecimal(year))
	if month&bitCentury != 0 {
		y += 100
	}
	return y
}

// yearToRegisters returns the century flag and the BCD year byte.
func yearToRegisters(year uint16) (century, yy uint8) {
	if year > 2099 {
		return bitCentury, decimalToBCD(uint8(year - 2100))
	}
	return 0, decimalToBCD(uint8(year - 2000))
}

// temperatureFromRegisters decodes the 10-bit two's complement reading in
// quarter degrees Celsius.
func temperatureFromRegisters(msb, lsb uint8) int16 {
	raw := uint16(msb)<<2 | uint16(lsb>>6)
	if msb&0x80 != 0 {
		raw |= 0xFC00
	}
	return int16(raw)
}
