package ds323x

import "time"

// DateTime is a calendar timestamp as held by the timekeeping registers.
// Weekday is 1..7; its mapping to day names is up to the application
// (Time and SetTime use 1 = Sunday).
type DateTime struct {
	Year    uint16 // 2000..2100
	Month   uint8  // 1..12
	Day     uint8  // 1..31
	Weekday uint8  // 1..7
	Hour    Hours
	Minute  uint8 // 0..59
	Second  uint8 // 0..59
}

// Valid reports whether every field is within its register range.
// It does not check that Day exists in Month.
func (t DateTime) Valid() bool {
	return t.Year >= 2000 && t.Year <= 2100 &&
		t.Weekday >= 1 && t.Weekday <= 7 &&
		t.readable()
}

// readable checks the fields a timestamp is built from. The year is always
// representable and the weekday is not used.
func (t DateTime) readable() bool {
	return t.Month >= 1 && t.Month <= 12 &&
		t.Day >= 1 && t.Day <= 31 &&
		t.Hour.Valid() &&
		t.Minute <= 59 &&
		t.Second <= 59
}

// ---------------- single fields ----------------

func (d *Device) readBCD(reg uint8) (uint8, error) {
	v, err := d.iface.ReadRegister(reg)
	if err != nil {
		return 0, err
	}
	return bcdToDecimal(v), nil
}

func (d *Device) writeBCD(reg, v uint8) error {
	return d.iface.WriteRegister(reg, decimalToBCD(v))
}

// Seconds returns 0..59.
func (d *Device) Seconds() (uint8, error) { return d.readBCD(regSeconds) }

// SetSeconds sets the seconds register.
func (d *Device) SetSeconds(s uint8) error {
	if s > 59 {
		return ErrInvalidInputData
	}
	return d.writeBCD(regSeconds, s)
}

// Minutes returns 0..59.
func (d *Device) Minutes() (uint8, error) { return d.readBCD(regMinutes) }

// SetMinutes sets the minutes register.
func (d *Device) SetMinutes(m uint8) error {
	if m > 59 {
		return ErrInvalidInputData
	}
	return d.writeBCD(regMinutes, m)
}

// Hours returns the hour in whichever format the chip is running.
func (d *Device) Hours() (Hours, error) {
	v, err := d.iface.ReadRegister(regHours)
	if err != nil {
		return Hours{}, err
	}
	return hoursFromRegister(v), nil
}

// SetHours sets the hour and the 12/24-hour format along with it.
func (d *Device) SetHours(h Hours) error {
	v, err := hoursToRegister(h)
	if err != nil {
		return err
	}
	return d.iface.WriteRegister(regHours, v)
}

// Weekday returns 1..7.
func (d *Device) Weekday() (uint8, error) { return d.readBCD(regDOW) }

// SetWeekday sets the day of the week (1..7).
func (d *Device) SetWeekday(w uint8) error {
	if w < 1 || w > 7 {
		return ErrInvalidInputData
	}
	return d.writeBCD(regDOW, w)
}

// Day returns the day of the month, 1..31.
func (d *Device) Day() (uint8, error) { return d.readBCD(regDOM) }

// SetDay sets the day of the month (1..31).
func (d *Device) SetDay(day uint8) error {
	if day < 1 || day > 31 {
		return ErrInvalidInputData
	}
	return d.writeBCD(regDOM, day)
}

// Month returns 1..12.
func (d *Device) Month() (uint8, error) {
	v, err := d.iface.ReadRegister(regMonth)
	if err != nil {
		return 0, err
	}
	return bcdToDecimal(v &^ bitCentury), nil
}

// SetMonth sets the month (1..12), keeping the century bit.
func (d *Device) SetMonth(m uint8) error {
	if m < 1 || m > 12 {
		return ErrInvalidInputData
	}
	v, err := d.iface.ReadRegister(regMonth)
	if err != nil {
		return err
	}
	return d.iface.WriteRegister(regMonth, v&bitCentury|decimalToBCD(m))
}

// Year returns the year from the century bit and year register (2000..2199).
func (d *Device) Year() (uint16, error) {
	var b [2]byte // month, year
	if err := d.iface.ReadBurst(regMonth, b[:]); err != nil {
		return 0, err
	}
	return yearFromRegisters(b[0], b[1]), nil
}

// SetYear sets the year (2000..2100), keeping the month.
func (d *Device) SetYear(year uint16) error {
	if year < 2000 || year > 2100 {
		return ErrInvalidInputData
	}
	month, err := d.iface.ReadRegister(regMonth)
	if err != nil {
		return err
	}
	century, yy := yearToRegisters(year)
	buf := [3]byte{regMonth, month&^bitCentury | century, yy}
	return d.iface.WriteBurst(buf[:])
}

// ---------------- full timestamp ----------------

// DateTime reads all seven timekeeping registers in one burst.
func (d *Device) DateTime() (DateTime, error) {
	var b [7]byte
	if err := d.iface.ReadBurst(regSeconds, b[:]); err != nil {
		return DateTime{}, err
	}
	t := DateTime{
		Second:  bcdToDecimal(b[0]),
		Minute:  bcdToDecimal(b[1]),
		Hour:    hoursFromRegister(b[2]),
		Weekday: bcdToDecimal(b[3]),
		Day:     bcdToDecimal(b[4]),
		Month:   bcdToDecimal(b[5] &^ bitCentury),
		Year:    yearFromRegisters(b[5], b[6]),
	}
	if !t.readable() {
		return t, ErrInvalidDeviceState
	}
	return t, nil
}

// SetDateTime validates t and writes it in one burst starting at SECONDS.
func (d *Device) SetDateTime(t DateTime) error {
	if !t.Valid() {
		return ErrInvalidInputData
	}
	h, err := hoursToRegister(t.Hour)
	if err != nil {
		return err
	}
	century, yy := yearToRegisters(t.Year)
	buf := [8]byte{
		regSeconds,
		decimalToBCD(t.Second),
		decimalToBCD(t.Minute),
		h,
		decimalToBCD(t.Weekday),
		decimalToBCD(t.Day),
		decimalToBCD(t.Month) | century,
		yy,
	}
	return d.iface.WriteBurst(buf[:])
}

// Time returns the current date and time. The chip has no notion of time
// zone; the wall-clock fields are returned in UTC.
func (d *Device) Time() (time.Time, error) {
	dt, err := d.DateTime()
	if err != nil {
		return time.Time{}, err
	}
	return dt.Time()
}

// SetTime writes the wall-clock fields of t, in t's location, using the
// 24-hour format. Weekday is stored as time.Weekday + 1.
func (d *Device) SetTime(t time.Time) error {
	dt, err := FromTime(t)
	if err != nil {
		return err
	}
	return d.SetDateTime(dt)
}

// Time converts to a time.Time in UTC. Dates that do not exist, such as
// 31 February, give ErrInvalidDeviceState.
func (t DateTime) Time() (time.Time, error) {
	if !t.readable() {
		return time.Time{}, ErrInvalidDeviceState
	}
	tt := time.Date(int(t.Year), time.Month(t.Month), int(t.Day),
		int(t.Hour.To24()), int(t.Minute), int(t.Second), 0, time.UTC)
	if tt.Day() != int(t.Day) {
		return time.Time{}, ErrInvalidDeviceState
	}
	return tt, nil
}

// FromTime builds a 24-hour DateTime from the wall-clock fields of t.
func FromTime(t time.Time) (DateTime, error) {
	if t.Year() < 2000 || t.Year() > 2100 {
		return DateTime{}, ErrInvalidInputData
	}
	return DateTime{
		Year:    uint16(t.Year()),
		Month:   uint8(t.Month()),
		Day:     uint8(t.Day()),
		Weekday: uint8(t.Weekday()) + 1,
		Hour:    Hour24(uint8(t.Hour())),
		Minute:  uint8(t.Minute()),
		Second:  uint8(t.Second()),
	}, nil
}
