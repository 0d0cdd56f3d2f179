// Package rtc publishes a DS323x clock on the bus and serves control
// requests for it.
package rtc

import (
	"context"
	"encoding/json"
	"time"

	"ds323x-go/bus"
	"ds323x-go/drivers/ds323x"
	"ds323x-go/errcode"
	"ds323x-go/types"
)

const (
	DefaultInterval = 10 * time.Second
	minInterval     = time.Second
	maxInterval     = time.Hour
)

// Control verbs, addressed as rtc/ctl/<verb>.
const (
	VerbRead       = "read"
	VerbSetTime    = "set_time"
	VerbSetAlarm1  = "set_alarm1"
	VerbSetAlarm2  = "set_alarm2"
	VerbClearAlarm = "clear_alarm"
	VerbAging      = "aging"
)

var (
	TopicConfig = bus.Topic{"config", "rtc"}
	TopicCtrl   = bus.Topic{"rtc", "ctl", bus.SingleLevel}
	TopicValue  = bus.Topic{"rtc", "value"}
	TopicState  = bus.Topic{"rtc", "state"}
	TopicInfo   = bus.Topic{"rtc", "info"}
)

type Service struct {
	conn     *bus.Connection
	clock    *ds323x.Clock
	info     types.RTCInfo
	log      Logger
	interval time.Duration

	cfgSub  *bus.Subscription
	ctrlSub *bus.Subscription
	done    chan struct{}
}

type Option func(*Service)

// WithLogger sets the logger, typically a *zap.SugaredLogger. The default
// prints info and warnings to the console.
func WithLogger(l Logger) Option {
	return func(s *Service) { s.log = l }
}

// WithInterval sets the initial publish interval.
func WithInterval(d time.Duration) Option {
	return func(s *Service) { s.interval = clampInterval(d) }
}

func New(conn *bus.Connection, clock *ds323x.Clock, info types.RTCInfo, opts ...Option) *Service {
	s := &Service{
		conn:     conn,
		clock:    clock,
		info:     info,
		log:      printLogger{},
		interval: DefaultInterval,
		done:     make(chan struct{}),
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Start subscribes to the config and control topics and publishes the info
// record before it returns, so a request sent straight after Start is
// served. The loop then runs until ctx is cancelled; Done is closed once it
// has stopped.
func (s *Service) Start(ctx context.Context) error {
	s.cfgSub = s.conn.Subscribe(TopicConfig)
	s.ctrlSub = s.conn.Subscribe(TopicCtrl)

	s.conn.Publish(s.conn.NewMessage(TopicInfo, types.Info{
		SchemaVersion: 1,
		Driver:        s.info.Variant,
		Detail:        s.info,
	}, true))
	s.publishState("idle", "starting")

	go s.run(ctx)
	return nil
}

// Done is closed when the service loop has returned.
func (s *Service) Done() <-chan struct{} { return s.done }

func (s *Service) run(ctx context.Context) {
	defer close(s.done)
	defer s.conn.Unsubscribe(s.cfgSub)
	defer s.conn.Unsubscribe(s.ctrlSub)

	tick := time.NewTicker(s.interval)
	defer tick.Stop()
	s.publishValue()

	for {
		select {
		case <-ctx.Done():
			s.log.Infow("rtc service stopping")
			s.publishState("stopped", "context_cancelled")
			return

		case <-tick.C:
			s.publishValue()

		case msg, ok := <-s.cfgSub.Channel():
			if !ok {
				return
			}
			var cfg types.RTCConfig
			if err := decode(msg.Payload, &cfg); err != nil || cfg.IntervalMs == 0 {
				s.log.Warnw("ignoring rtc config", "payload", msg.Payload, "error", err)
				continue
			}
			s.interval = clampInterval(time.Duration(cfg.IntervalMs) * time.Millisecond)
			tick.Reset(s.interval)
			s.log.Infow("rtc interval set", "interval", s.interval)

		case msg, ok := <-s.ctrlSub.Channel():
			if !ok {
				return
			}
			s.handleControl(msg)
		}
	}
}

func (s *Service) handleControl(msg *bus.Message) {
	verb, _ := msg.Topic[len(msg.Topic)-1].(string)
	var (
		reply any = types.OKReply{OK: true}
		err   error
	)
	switch verb {
	case VerbRead:
		var v types.RTCValue
		if v, err = s.sample(); err == nil {
			reply = v
			s.conn.Publish(s.conn.NewMessage(TopicValue, v, true))
		}
	case VerbSetTime:
		err = s.setTime(msg.Payload)
	case VerbSetAlarm1:
		err = s.setAlarm(1, msg.Payload)
	case VerbSetAlarm2:
		err = s.setAlarm(2, msg.Payload)
	case VerbClearAlarm:
		err = s.clearAlarm(msg.Payload)
	case VerbAging:
		reply, err = s.aging(msg.Payload)
	default:
		err = errcode.Unsupported
	}

	if err != nil {
		code := errcode.MapDriverErr(err)
		s.log.Warnw("rtc control failed", "verb", verb, "code", code, "error", err)
		s.conn.Reply(msg, types.ErrorReply{OK: false, Error: string(code)}, false)
		return
	}
	s.log.Debugw("rtc control", "verb", verb)
	s.conn.Reply(msg, reply, false)
}

// ---- device access ----

func (s *Service) sample() (types.RTCValue, error) {
	var v types.RTCValue
	err := s.clock.Do(func(d *ds323x.Device) error {
		t, err := d.Time()
		if err != nil {
			return err
		}
		mc, err := d.TemperatureMilliC()
		if err != nil {
			return err
		}
		st, err := d.Status()
		if err != nil {
			return err
		}
		v = types.RTCValue{
			Time:       t.Format(time.RFC3339),
			Unix:       t.Unix(),
			TempMilliC: mc,
			Stopped:    st.OscillatorStopped,
			Alarm1:     st.Alarm1Matched,
			Alarm2:     st.Alarm2Matched,
			TS:         time.Now().UnixMilli(),
		}
		return nil
	})
	return v, err
}

func (s *Service) publishValue() {
	v, err := s.sample()
	if err != nil {
		code := errcode.MapDriverErr(err)
		s.log.Warnw("rtc read failed", "code", code, "error", err)
		s.publishState("degraded", string(code))
		return
	}
	s.conn.Publish(s.conn.NewMessage(TopicValue, v, true))
	if v.Stopped {
		s.publishState("degraded", "oscillator_stopped")
		return
	}
	s.publishState("ready", "ok")
}

func (s *Service) setTime(payload any) error {
	var p types.RTCSetTime
	if err := decode(payload, &p); err != nil {
		return errcode.InvalidPayload
	}
	t := time.Unix(p.Unix, 0).UTC()
	if p.Time != "" {
		var err error
		if t, err = time.Parse(time.RFC3339, p.Time); err != nil {
			return &errcode.E{C: errcode.InvalidParams, Op: VerbSetTime, Msg: p.Time, Err: err}
		}
		t = t.UTC()
	}
	return s.clock.Do(func(d *ds323x.Device) error {
		if err := d.SetTime(t); err != nil {
			return err
		}
		s.log.Infow("rtc time set", "time", t)
		// The time is now trustworthy again.
		return d.ClearHasBeenStoppedFlag()
	})
}

func (s *Service) setAlarm(n int, payload any) error {
	var p types.RTCAlarm
	if err := decode(payload, &p); err != nil {
		return errcode.InvalidPayload
	}
	hour := ds323x.Hour24(p.Hour)
	return s.clock.Do(func(d *ds323x.Device) error {
		var err error
		if n == 1 {
			m, ok := alarm1Match[p.Match]
			if !ok {
				return errcode.InvalidParams
			}
			if p.Weekday != 0 {
				err = d.SetAlarm1Weekday(ds323x.WeekdayAlarm1{
					Weekday: p.Weekday, Hour: hour, Minute: p.Minute, Second: p.Second,
				}, m)
			} else {
				err = d.SetAlarm1Day(ds323x.DayAlarm1{
					Day: p.Day, Hour: hour, Minute: p.Minute, Second: p.Second,
				}, m)
			}
		} else {
			m, ok := alarm2Match[p.Match]
			if !ok {
				return errcode.InvalidParams
			}
			if p.Weekday != 0 {
				err = d.SetAlarm2Weekday(ds323x.WeekdayAlarm2{
					Weekday: p.Weekday, Hour: hour, Minute: p.Minute,
				}, m)
			} else {
				err = d.SetAlarm2Day(ds323x.DayAlarm2{
					Day: p.Day, Hour: hour, Minute: p.Minute,
				}, m)
			}
		}
		if err != nil || !p.Interrupt {
			return err
		}
		if err := d.UseIntSqwOutputAsInterrupt(); err != nil {
			return err
		}
		if n == 1 {
			return d.EnableAlarm1Interrupts()
		}
		return d.EnableAlarm2Interrupts()
	})
}

var alarm1Match = map[string]ds323x.Alarm1Matching{
	types.AlarmMatchOnce:   ds323x.OncePerSecond,
	types.AlarmMatchSecond: ds323x.SecondsMatch,
	types.AlarmMatchMinute: ds323x.MinutesAndSecondsMatch,
	types.AlarmMatchHour:   ds323x.HoursMinutesAndSecondsMatch,
	types.AlarmMatchAll:    ds323x.Alarm1AllMatch,
}

var alarm2Match = map[string]ds323x.Alarm2Matching{
	types.AlarmMatchOnce:   ds323x.OncePerMinute,
	types.AlarmMatchMinute: ds323x.MinutesMatch,
	types.AlarmMatchHour:   ds323x.HoursAndMinutesMatch,
	types.AlarmMatchAll:    ds323x.Alarm2AllMatch,
}

func (s *Service) clearAlarm(payload any) error {
	var p types.RTCAlarmClear
	if err := decode(payload, &p); err != nil {
		return errcode.InvalidPayload
	}
	return s.clock.Do(func(d *ds323x.Device) error {
		switch p.Alarm {
		case 1:
			return d.ClearAlarm1MatchedFlag()
		case 2:
			return d.ClearAlarm2MatchedFlag()
		default:
			return errcode.InvalidParams
		}
	})
}

func (s *Service) aging(payload any) (any, error) {
	var p types.RTCAging
	if payload != nil {
		if err := decode(payload, &p); err != nil {
			return nil, errcode.InvalidPayload
		}
	}
	var v types.RTCAgingValue
	err := s.clock.Do(func(d *ds323x.Device) error {
		if p.Offset != nil {
			if err := d.SetAgingOffset(*p.Offset); err != nil {
				return err
			}
		}
		off, err := d.AgingOffset()
		v.Offset = off
		return err
	})
	return v, err
}

// ---- bus helpers & utils ----

func (s *Service) publishState(level, status string) {
	s.conn.Publish(s.conn.NewMessage(TopicState, types.State{
		Level:  level,
		Status: status,
		TS:     time.Now().UnixMilli(),
	}, true))
}

func clampInterval(d time.Duration) time.Duration {
	return max(minInterval, min(d, maxInterval))
}

// decode accepts the typed payload itself or any JSON-shaped value
// ([]byte, string, map[string]any).
func decode[T any](src any, dst *T) error {
	switch v := src.(type) {
	case T:
		*dst = v
		return nil
	case *T:
		if v == nil {
			return errcode.InvalidPayload
		}
		*dst = *v
		return nil
	case []byte:
		return json.Unmarshal(v, dst)
	case string:
		return json.Unmarshal([]byte(v), dst)
	default:
		b, err := json.Marshal(v)
		if err != nil {
			return err
		}
		return json.Unmarshal(b, dst)
	}
}
