package types

// ------------------------
// Real-time clock
// ------------------------

type RTCInfo struct {
	Variant string `json:"variant"` // "ds3231", "ds3232", "ds3234"
	Bus     string `json:"bus"`     // "i2c0", "spi1", ...
	Addr    uint16 `json:"addr,omitempty"`
}

// RTCValue is the periodic clock reading.
type RTCValue struct {
	Time       string `json:"time"` // RFC3339, chip wall clock taken as UTC
	Unix       int64  `json:"unix"`
	TempMilliC int32  `json:"temp_mc"`
	Stopped    bool   `json:"osf"` // oscillator stopped since last clear
	Alarm1     bool   `json:"a1f"`
	Alarm2     bool   `json:"a2f"`
	TS         int64  `json:"ts_ms"`
}

// RTCSetTime sets the clock. Time (RFC3339) wins over Unix when both are set.
type RTCSetTime struct {
	Time string `json:"time,omitempty"`
	Unix int64  `json:"unix,omitempty"`
}

// Alarm matching modes, coarsest first. Alarm 2 has no "second".
const (
	AlarmMatchOnce   = "once"   // every second (alarm 1) or minute (alarm 2)
	AlarmMatchSecond = "second" // alarm 1 only
	AlarmMatchMinute = "minute"
	AlarmMatchHour   = "hour"
	AlarmMatchAll    = "all" // includes day or weekday
)

// RTCAlarm programs one alarm. Day and Weekday are only used with "all";
// a non-zero Weekday selects weekday matching.
type RTCAlarm struct {
	Match   string `json:"match"`
	Day     uint8  `json:"day,omitempty"`
	Weekday uint8  `json:"weekday,omitempty"`
	Hour    uint8  `json:"hour"` // 0..23
	Minute  uint8  `json:"minute"`
	Second  uint8  `json:"second,omitempty"`
	// Interrupt enables the alarm interrupt on INT/SQW.
	Interrupt bool `json:"interrupt,omitempty"`
}

type RTCAlarmClear struct {
	Alarm uint8 `json:"alarm"` // 1 or 2
}

// RTCAging reads the aging offset, or sets it when Offset is present.
type RTCAging struct {
	Offset *int8 `json:"offset,omitempty"`
}

type RTCAgingValue struct {
	Offset int8 `json:"offset"`
}

// RTCConfig is supplied on topic "config/rtc".
type RTCConfig struct {
	IntervalMs uint32 `json:"interval_ms"`
}
