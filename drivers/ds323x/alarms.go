package ds323x

import "time"

// Alarm1Matching selects which alarm 1 fields must match the clock.
type Alarm1Matching uint8

const (
	// Alarm once per second.
	OncePerSecond Alarm1Matching = iota
	// Alarm when seconds match.
	SecondsMatch
	// Alarm when minutes and seconds match.
	MinutesAndSecondsMatch
	// Alarm when hours, minutes and seconds match.
	HoursMinutesAndSecondsMatch
	// Alarm when date or weekday, hours, minutes and seconds match.
	Alarm1AllMatch
)

// Alarm2Matching selects which alarm 2 fields must match the clock. Alarm 2
// fires at second 00.
type Alarm2Matching uint8

const (
	// Alarm once per minute.
	OncePerMinute Alarm2Matching = iota
	// Alarm when minutes match.
	MinutesMatch
	// Alarm when hours and minutes match.
	HoursAndMinutesMatch
	// Alarm when date or weekday, hours and minutes match.
	Alarm2AllMatch
)

// DayAlarm1 matches on day of the month.
type DayAlarm1 struct {
	Day    uint8 // 1..31
	Hour   Hours
	Minute uint8
	Second uint8
}

// WeekdayAlarm1 matches on day of the week.
type WeekdayAlarm1 struct {
	Weekday uint8 // 1..7
	Hour    Hours
	Minute  uint8
	Second  uint8
}

// DayAlarm2 matches on day of the month.
type DayAlarm2 struct {
	Day    uint8 // 1..31
	Hour   Hours
	Minute uint8
}

// WeekdayAlarm2 matches on day of the week.
type WeekdayAlarm2 struct {
	Weekday uint8 // 1..7
	Hour    Hours
	Minute  uint8
}

// alarmFields is the common shape of all four alarm descriptors. Fields the
// matching mode ignores are replaced by legal placeholders; fields it uses
// must already be legal.
type alarmFields struct {
	day     uint8
	weekday bool
	hour    Hours
	minute  uint8
	second  uint8
}

// Number of significant fields, counted from seconds upward. Alarm 2 has no
// seconds field so its counts start at minutes.
func (m Alarm1Matching) used() (int, bool) {
	if m > Alarm1AllMatch {
		return 0, false
	}
	return int(m), true
}

func (m Alarm2Matching) used() (int, bool) {
	if m > Alarm2AllMatch {
		return 0, false
	}
	return int(m), true
}

// encode returns the register bytes seconds, minutes, hours, day for the
// first n significant fields (0..4), each ignored field flagged with
// bitAlarmMask.
func (a alarmFields) encode(n int) ([4]byte, error) {
	var out [4]byte
	dayMax := uint8(31)
	if a.weekday {
		dayMax = 7
	}

	useSec := n >= 1
	useMin := n >= 2
	useHour := n >= 3
	useDay := n >= 4

	if useSec && a.second > 59 ||
		useMin && a.minute > 59 ||
		useHour && !a.hour.Valid() ||
		useDay && (a.day < 1 || a.day > dayMax) {
		return out, ErrInvalidInputData
	}

	s, m, h, dd := a.second, a.minute, a.hour.amended(), a.day
	if s > 59 {
		s = 0
	}
	if m > 59 {
		m = 0
	}
	if dd < 1 || dd > dayMax {
		dd = 1
	}

	hv, err := hoursToRegister(h)
	if err != nil {
		return out, err
	}
	out[0] = decimalToBCD(s)
	out[1] = decimalToBCD(m)
	out[2] = hv
	out[3] = decimalToBCD(dd)
	if a.weekday {
		out[3] |= bitDYDT
	}
	for i, used := range [4]bool{useSec, useMin, useHour, useDay} {
		if !used {
			out[i] |= bitAlarmMask
		}
	}
	return out, nil
}

func (d *Device) setAlarm1(a alarmFields, m Alarm1Matching) error {
	n, ok := m.used()
	if !ok {
		return ErrInvalidInputData
	}
	regs, err := a.encode(n)
	if err != nil {
		return err
	}
	buf := [5]byte{regAlarm1Seconds, regs[0], regs[1], regs[2], regs[3]}
	return d.iface.WriteBurst(buf[:])
}

func (d *Device) setAlarm2(a alarmFields, m Alarm2Matching) error {
	n, ok := m.used()
	if !ok {
		return ErrInvalidInputData
	}
	// Alarm 2 has no seconds register; treat seconds as always matched.
	regs, err := a.encode(n + 1)
	if err != nil {
		return err
	}
	buf := [4]byte{regAlarm2Minutes, regs[1], regs[2], regs[3]}
	return d.iface.WriteBurst(buf[:])
}

// SetAlarm1Day programs alarm 1 to match on day of the month. Only the
// fields used by the matching mode are validated; the rest are written as
// placeholders.
func (d *Device) SetAlarm1Day(a DayAlarm1, m Alarm1Matching) error {
	return d.setAlarm1(alarmFields{
		day: a.Day, hour: a.Hour, minute: a.Minute, second: a.Second,
	}, m)
}

// SetAlarm1Weekday programs alarm 1 to match on day of the week.
func (d *Device) SetAlarm1Weekday(a WeekdayAlarm1, m Alarm1Matching) error {
	return d.setAlarm1(alarmFields{
		day: a.Weekday, weekday: true, hour: a.Hour, minute: a.Minute, second: a.Second,
	}, m)
}

// SetAlarm2Day programs alarm 2 to match on day of the month.
func (d *Device) SetAlarm2Day(a DayAlarm2, m Alarm2Matching) error {
	return d.setAlarm2(alarmFields{
		day: a.Day, hour: a.Hour, minute: a.Minute,
	}, m)
}

// SetAlarm2Weekday programs alarm 2 to match on day of the week.
func (d *Device) SetAlarm2Weekday(a WeekdayAlarm2, m Alarm2Matching) error {
	return d.setAlarm2(alarmFields{
		day: a.Weekday, weekday: true, hour: a.Hour, minute: a.Minute,
	}, m)
}

// SetAlarm1HMS sets alarm 1 to fire daily at the given 24-hour time.
func (d *Device) SetAlarm1HMS(hour, minute, second uint8) error {
	return d.SetAlarm1Day(DayAlarm1{
		Day: 1, Hour: Hour24(hour), Minute: minute, Second: second,
	}, HoursMinutesAndSecondsMatch)
}

// SetAlarm2HM sets alarm 2 to fire daily at the given 24-hour time.
func (d *Device) SetAlarm2HM(hour, minute uint8) error {
	return d.SetAlarm2Day(DayAlarm2{
		Day: 1, Hour: Hour24(hour), Minute: minute,
	}, HoursAndMinutesMatch)
}

// SetAlarm1At is SetAlarm1HMS with the wall-clock time of t.
func (d *Device) SetAlarm1At(t time.Time) error {
	return d.SetAlarm1HMS(uint8(t.Hour()), uint8(t.Minute()), uint8(t.Second()))
}

// SetAlarm2At is SetAlarm2HM with the wall-clock time of t. Seconds are
// dropped.
func (d *Device) SetAlarm2At(t time.Time) error {
	return d.SetAlarm2HM(uint8(t.Hour()), uint8(t.Minute()))
}
