package main

import (
	"context"
	"errors"
	"fmt"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/urfave/cli/v2"
	"go.uber.org/zap"

	"ds323x-go/bus"
	"ds323x-go/drivers/ds323x"
	"ds323x-go/services/rtc"
	"ds323x-go/types"
)

func cmdNow(c *cli.Context, r *chip, _ *zap.SugaredLogger) error {
	t, err := r.dev.Time()
	if err != nil {
		return err
	}
	fmt.Fprintln(c.App.Writer, t.Format(time.RFC3339))
	return nil
}

func cmdSet(c *cli.Context, r *chip, log *zap.SugaredLogger) error {
	var t time.Time
	switch {
	case c.Bool("system"):
		t = time.Now().UTC()
	case c.NArg() == 1:
		var err error
		if t, err = time.Parse(time.RFC3339, c.Args().First()); err != nil {
			return err
		}
		t = t.UTC()
	default:
		return cli.Exit("set needs an RFC3339 time or --system", 2)
	}
	if err := r.dev.SetTime(t); err != nil {
		return err
	}
	if err := r.dev.ClearHasBeenStoppedFlag(); err != nil {
		return err
	}
	log.Infow("time set", "time", t.Format(time.RFC3339))
	return nil
}

func cmdTemp(c *cli.Context, r *chip, log *zap.SugaredLogger) error {
	if c.Bool("convert") {
		if err := r.dev.ConvertTemperature(); err != nil {
			return err
		}
		if err := waitIdle(r.dev, time.Second); err != nil {
			return err
		}
		log.Debugw("conversion done")
	}
	mc, err := r.dev.TemperatureMilliC()
	if err != nil {
		return err
	}
	fmt.Fprintf(c.App.Writer, "%.2f°C\n", float64(mc)/1000)
	return nil
}

// waitIdle polls BSY until a conversion finishes. A conversion takes up to
// 200 ms.
func waitIdle(d *ds323x.Device, limit time.Duration) error {
	deadline := time.Now().Add(limit)
	for {
		busy, err := d.Busy()
		if err != nil || !busy {
			return err
		}
		if time.Now().After(deadline) {
			return context.DeadlineExceeded
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func cmdStatus(c *cli.Context, r *chip, _ *zap.SugaredLogger) error {
	st, err := r.dev.Status()
	if err != nil {
		return err
	}
	running, err := r.dev.Running()
	if err != nil {
		return err
	}
	aging, err := r.dev.AgingOffset()
	if err != nil {
		return err
	}
	w := c.App.Writer
	fmt.Fprintf(w, "variant:    %s on %s\n", r.info.Variant, r.info.Bus)
	fmt.Fprintf(w, "running:    %t\n", running)
	fmt.Fprintf(w, "stopped:    %t\n", st.OscillatorStopped)
	fmt.Fprintf(w, "busy:       %t\n", st.Busy)
	fmt.Fprintf(w, "alarm1:     %t\n", st.Alarm1Matched)
	fmt.Fprintf(w, "alarm2:     %t\n", st.Alarm2Matched)
	fmt.Fprintf(w, "aging:      %d\n", aging)
	return nil
}

func cmdAlarm1(c *cli.Context, r *chip, log *zap.SugaredLogger) error {
	h, m, s, err := parseClock(c.Args().First(), true)
	if err != nil {
		return cli.Exit(err.Error(), 2)
	}
	if err := r.dev.SetAlarm1HMS(h, m, s); err != nil {
		return err
	}
	if c.Bool("interrupt") {
		if err := r.dev.UseIntSqwOutputAsInterrupt(); err != nil {
			return err
		}
		if err := r.dev.EnableAlarm1Interrupts(); err != nil {
			return err
		}
	}
	log.Infow("alarm1 set", "hour", h, "minute", m, "second", s, "interrupt", c.Bool("interrupt"))
	return nil
}

func cmdAlarm2(c *cli.Context, r *chip, log *zap.SugaredLogger) error {
	h, m, _, err := parseClock(c.Args().First(), false)
	if err != nil {
		return cli.Exit(err.Error(), 2)
	}
	if err := r.dev.SetAlarm2HM(h, m); err != nil {
		return err
	}
	if c.Bool("interrupt") {
		if err := r.dev.UseIntSqwOutputAsInterrupt(); err != nil {
			return err
		}
		if err := r.dev.EnableAlarm2Interrupts(); err != nil {
			return err
		}
	}
	log.Infow("alarm2 set", "hour", h, "minute", m, "interrupt", c.Bool("interrupt"))
	return nil
}

func cmdClearAlarm(c *cli.Context, r *chip, _ *zap.SugaredLogger) error {
	switch c.Args().First() {
	case "1":
		return r.dev.ClearAlarm1MatchedFlag()
	case "2":
		return r.dev.ClearAlarm2MatchedFlag()
	}
	return cli.Exit("clear-alarm needs 1 or 2", 2)
}

func cmdAging(c *cli.Context, r *chip, log *zap.SugaredLogger) error {
	if c.NArg() == 1 {
		v, err := strconv.ParseInt(c.Args().First(), 10, 8)
		if err != nil {
			return cli.Exit("aging offset must be in -128..127", 2)
		}
		if err := r.dev.SetAgingOffset(int8(v)); err != nil {
			return err
		}
		log.Infow("aging offset set", "offset", v)
	}
	v, err := r.dev.AgingOffset()
	if err != nil {
		return err
	}
	fmt.Fprintln(c.App.Writer, v)
	return nil
}

func cmdSqw(c *cli.Context, r *chip, _ *zap.SugaredLogger) error {
	arg := c.Args().First()
	if arg == "off" {
		return r.dev.UseIntSqwOutputAsInterrupt()
	}
	f, err := parseSqW(arg)
	if err != nil {
		return cli.Exit(err.Error(), 2)
	}
	if err := r.dev.SetSquareWaveFrequency(f); err != nil {
		return err
	}
	if c.Bool("battery") {
		err = r.dev.EnableSquareWave()
	} else {
		err = r.dev.DisableSquareWave()
	}
	if err != nil {
		return err
	}
	return r.dev.UseIntSqwOutputAsSquareWave()
}

func cmdTempRate(c *cli.Context, r *chip, _ *zap.SugaredLogger) error {
	tr, ok := r.part.(tempRater)
	if !ok {
		return cli.Exit(r.info.Variant+" has a fixed conversion rate", 2)
	}
	rate, err := parseTempRate(c.Args().First())
	if err != nil {
		return cli.Exit(err.Error(), 2)
	}
	return tr.SetTemperatureConversionRate(rate)
}

func cmdBattery32k(c *cli.Context, r *chip, _ *zap.SugaredLogger) error {
	b, ok := r.part.(battery32k)
	if !ok {
		return cli.Exit(r.info.Variant+" has no battery-backed 32kHz output", 2)
	}
	switch c.Args().First() {
	case "on":
		return b.Enable32kHzOutputOnBattery()
	case "off":
		return b.Disable32kHzOutputOnBattery()
	}
	return cli.Exit("battery-32k needs on or off", 2)
}

// cmdWatch runs the rtc service on a private bus until interrupted.
func cmdWatch(c *cli.Context, r *chip, log *zap.SugaredLogger) error {
	ctx, stop := signal.NotifyContext(c.Context, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	interval := c.Duration("interval")
	if interval == 0 {
		interval = r.interval
	}

	b := bus.NewBus(8)
	mon := b.NewConnection("rtcctl")
	values := mon.Subscribe(rtc.TopicValue)
	defer mon.Unsubscribe(values)

	svc := rtc.New(b.NewConnection("rtc"), ds323x.NewClock(r.dev), r.info,
		rtc.WithLogger(log), rtc.WithInterval(interval))
	if err := svc.Start(ctx); err != nil {
		return err
	}

	for {
		select {
		case <-ctx.Done():
			<-svc.Done()
			return nil
		case m, ok := <-values.Channel():
			if !ok {
				return errors.New("bus closed")
			}
			v, ok := m.Payload.(types.RTCValue)
			if !ok {
				continue
			}
			fmt.Fprintf(c.App.Writer, "%s %.2f°C osf=%t a1f=%t a2f=%t\n",
				v.Time, float64(v.TempMilliC)/1000, v.Stopped, v.Alarm1, v.Alarm2)
		}
	}
}

// parseClock parses HH:MM:SS, or HH:MM when withSeconds is false.
func parseClock(s string, withSeconds bool) (h, m, sec uint8, err error) {
	parts := strings.Split(s, ":")
	want := 2
	if withSeconds {
		want = 3
	}
	if len(parts) != want {
		return 0, 0, 0, fmt.Errorf("time %q: want %d colon-separated fields", s, want)
	}
	limits := []uint64{23, 59, 59}
	var v [3]uint8
	for i, p := range parts {
		n, perr := strconv.ParseUint(p, 10, 8)
		if perr != nil || n > limits[i] {
			return 0, 0, 0, fmt.Errorf("time %q: field %d out of range", s, i+1)
		}
		v[i] = uint8(n)
	}
	return v[0], v[1], v[2], nil
}

func parseSqW(s string) (ds323x.SqWFreq, error) {
	switch s {
	case "1":
		return ds323x.SqW1Hz, nil
	case "1024":
		return ds323x.SqW1024Hz, nil
	case "4096":
		return ds323x.SqW4096Hz, nil
	case "8192":
		return ds323x.SqW8192Hz, nil
	}
	return 0, fmt.Errorf("square wave %q: want 1, 1024, 4096 or 8192", s)
}

func parseTempRate(s string) (ds323x.TempConvRate, error) {
	switch s {
	case "64":
		return ds323x.TempConv64s, nil
	case "128":
		return ds323x.TempConv128s, nil
	case "256":
		return ds323x.TempConv256s, nil
	case "512":
		return ds323x.TempConv512s, nil
	}
	return 0, fmt.Errorf("conversion period %q: want 64, 128, 256 or 512", s)
}
