package ds323x

import (
	"math/bits"
	"testing"
	"time"

	qt "github.com/frankban/quicktest"
)

func TestSetAlarm1(t *testing.T) {
	c := qt.New(t)
	for _, tc := range []struct {
		name string
		set  func(d *Device) error
		want []byte
	}{{
		name: "day all match",
		set: func(d *Device) error {
			return d.SetAlarm1Day(DayAlarm1{Day: 1, Hour: Hour24(2), Minute: 3, Second: 4}, Alarm1AllMatch)
		},
		want: []byte{regAlarm1Seconds, 0x04, 0x03, 0x02, 0x01},
	}, {
		name: "weekday all match",
		set: func(d *Device) error {
			return d.SetAlarm1Weekday(WeekdayAlarm1{Weekday: 3, Hour: HourAM(2), Minute: 3, Second: 4}, Alarm1AllMatch)
		},
		want: []byte{regAlarm1Seconds, 0x04, 0x03, bitH12 | 0x02, bitDYDT | 0x03},
	}, {
		name: "hms",
		set:  func(d *Device) error { return d.SetAlarm1HMS(21, 0, 30) },
		want: []byte{regAlarm1Seconds, 0x30, 0x00, 0x21, bitAlarmMask | 0x01},
	}, {
		name: "once per second ignores every field",
		set: func(d *Device) error {
			return d.SetAlarm1Day(DayAlarm1{Day: 0, Hour: Hour24(24), Minute: 99, Second: 99}, OncePerSecond)
		},
		want: []byte{regAlarm1Seconds, 0x80, 0x80, 0x80, 0x81},
	}, {
		name: "unused fields clamped",
		set: func(d *Device) error {
			return d.SetAlarm1Day(DayAlarm1{Day: 40, Hour: HourPM(13), Minute: 15, Second: 45}, MinutesAndSecondsMatch)
		},
		want: []byte{regAlarm1Seconds, 0x45, 0x15, bitAlarmMask | bitH12 | bitPM | 0x01, bitAlarmMask | 0x01},
	}, {
		name: "unused weekday clamped",
		set: func(d *Device) error {
			return d.SetAlarm1Weekday(WeekdayAlarm1{Weekday: 8, Hour: Hour24(6), Minute: 0, Second: 0}, HoursMinutesAndSecondsMatch)
		},
		want: []byte{regAlarm1Seconds, 0x00, 0x00, 0x06, bitAlarmMask | bitDYDT | 0x01},
	}, {
		name: "time",
		set: func(d *Device) error {
			return d.SetAlarm1At(time.Date(2024, 1, 1, 8, 9, 10, 0, time.UTC))
		},
		want: []byte{regAlarm1Seconds, 0x10, 0x09, 0x08, bitAlarmMask | 0x01},
	}} {
		c.Run(tc.name, func(c *qt.C) {
			dev, bus := newTestDS3231()
			c.Assert(tc.set(&dev.Device), qt.IsNil)
			c.Assert(bus.writes, qt.DeepEquals, [][]byte{tc.want})
		})
	}
}

func TestSetAlarm2(t *testing.T) {
	c := qt.New(t)
	for _, tc := range []struct {
		name string
		set  func(d *Device) error
		want []byte
	}{{
		name: "day all match",
		set: func(d *Device) error {
			return d.SetAlarm2Day(DayAlarm2{Day: 1, Hour: Hour24(2), Minute: 3}, Alarm2AllMatch)
		},
		want: []byte{regAlarm2Minutes, 0x03, 0x02, 0x01},
	}, {
		name: "weekday all match",
		set: func(d *Device) error {
			return d.SetAlarm2Weekday(WeekdayAlarm2{Weekday: 7, Hour: HourPM(10), Minute: 30}, Alarm2AllMatch)
		},
		want: []byte{regAlarm2Minutes, 0x30, bitH12 | bitPM | 0x10, bitDYDT | 0x07},
	}, {
		name: "once per minute",
		set: func(d *Device) error {
			return d.SetAlarm2Day(DayAlarm2{Day: 32, Hour: Hour24(99), Minute: 61}, OncePerMinute)
		},
		want: []byte{regAlarm2Minutes, 0x80, 0x80, 0x81},
	}, {
		name: "hm",
		set:  func(d *Device) error { return d.SetAlarm2HM(7, 30) },
		want: []byte{regAlarm2Minutes, 0x30, 0x07, bitAlarmMask | 0x01},
	}, {
		name: "time",
		set: func(d *Device) error {
			return d.SetAlarm2At(time.Date(2024, 1, 1, 18, 45, 59, 0, time.UTC))
		},
		want: []byte{regAlarm2Minutes, 0x45, 0x18, bitAlarmMask | 0x01},
	}} {
		c.Run(tc.name, func(c *qt.C) {
			dev, bus := newTestDS3231()
			c.Assert(tc.set(&dev.Device), qt.IsNil)
			c.Assert(bus.writes, qt.DeepEquals, [][]byte{tc.want})
		})
	}
}

func TestAlarmMaskMonotonic(t *testing.T) {
	c := qt.New(t)

	masks := func(regs []byte) (n int) {
		for _, r := range regs {
			n += bits.OnesCount8(r & bitAlarmMask)
		}
		return n
	}

	dev, bus := newTestDS3231()
	a1 := DayAlarm1{Day: 15, Hour: Hour24(12), Minute: 30, Second: 45}
	prev := 5
	for m := OncePerSecond; m <= Alarm1AllMatch; m++ {
		c.Assert(dev.SetAlarm1Day(a1, m), qt.IsNil)
		n := masks(bus.lastWrite()[1:])
		c.Assert(n, qt.Equals, 4-int(m))
		c.Assert(n < prev, qt.IsTrue)
		prev = n
	}

	a2 := DayAlarm2{Day: 15, Hour: Hour24(12), Minute: 30}
	prev = 4
	for m := OncePerMinute; m <= Alarm2AllMatch; m++ {
		c.Assert(dev.SetAlarm2Day(a2, m), qt.IsNil)
		n := masks(bus.lastWrite()[1:])
		c.Assert(n, qt.Equals, 3-int(m))
		c.Assert(n < prev, qt.IsTrue)
		prev = n
	}
}

func TestAlarmRejectsUsedFields(t *testing.T) {
	c := qt.New(t)
	dev, bus := newTestDS3231()

	for name, err := range map[string]error{
		"a1 second":    dev.SetAlarm1Day(DayAlarm1{Day: 1, Second: 60}, SecondsMatch),
		"a1 minute":    dev.SetAlarm1Day(DayAlarm1{Day: 1, Minute: 60}, MinutesAndSecondsMatch),
		"a1 hour":      dev.SetAlarm1Day(DayAlarm1{Day: 1, Hour: HourAM(0)}, HoursMinutesAndSecondsMatch),
		"a1 day":       dev.SetAlarm1Day(DayAlarm1{Day: 32}, Alarm1AllMatch),
		"a1 weekday":   dev.SetAlarm1Weekday(WeekdayAlarm1{Weekday: 8}, Alarm1AllMatch),
		"a1 weekday 0": dev.SetAlarm1Weekday(WeekdayAlarm1{Weekday: 0}, Alarm1AllMatch),
		"a1 bad mode":  dev.SetAlarm1Day(DayAlarm1{Day: 1}, Alarm1Matching(9)),
		"a1 hms":       dev.SetAlarm1HMS(24, 0, 0),
		"a1 hour mode": dev.SetAlarm1Day(DayAlarm1{Day: 1, Hour: Hours{Mode: HourMode(9), Value: 1}}, HoursMinutesAndSecondsMatch),
		"a2 pm 0":      dev.SetAlarm2Weekday(WeekdayAlarm2{Weekday: 1, Hour: HourPM(0)}, Alarm2AllMatch),
		"a2 minute":    dev.SetAlarm2Day(DayAlarm2{Day: 1, Minute: 60}, MinutesMatch),
		"a2 hour":      dev.SetAlarm2Day(DayAlarm2{Day: 1, Hour: Hour24(24)}, HoursAndMinutesMatch),
		"a2 day":       dev.SetAlarm2Day(DayAlarm2{Day: 0}, Alarm2AllMatch),
		"a2 weekday":   dev.SetAlarm2Weekday(WeekdayAlarm2{Weekday: 8}, Alarm2AllMatch),
		"a2 bad mode":  dev.SetAlarm2Day(DayAlarm2{Day: 1}, Alarm2Matching(4)),
		"a2 hm":        dev.SetAlarm2HM(23, 60),
	} {
		c.Check(err, qt.Equals, ErrInvalidInputData, qt.Commentf("%s", name))
	}
	c.Assert(bus.addrs, qt.HasLen, 0)
}
