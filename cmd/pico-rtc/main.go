//go:build rp2040 || rp2350

// Command pico-rtc: DS3231 on a Raspberry Pi Pico, published on the bus.
//
// Build/flash (TinyGo):
//   tinygo flash -target pico ./cmd/pico-rtc
//
// Wiring assumptions:
// - I2C0 @ 400 kHz on Pico defaults: SDA=GP4, SCL=GP5.
// - DS3231 INT/SQW wired to GP22 (open drain, active-low, pulled up here).
package main

import (
	"context"
	"machine"
	"time"

	"ds323x-go/bus"
	"ds323x-go/drivers/ds323x"
	"ds323x-go/services/rtc"
	"ds323x-go/types"
)

const alarmPin = machine.GP22

func main() {
	// Allow USB CDC to enumerate before we print.
	time.Sleep(2 * time.Second)
	ctx := context.Background()

	i2c := machine.I2C0
	if err := i2c.Configure(machine.I2CConfig{
		Frequency: 400 * machine.KHz,
		SDA:       machine.I2C0_SDA_PIN,
		SCL:       machine.I2C0_SCL_PIN,
	}); err != nil {
		println("Error: i2c0 configure:", err.Error())
		return
	}

	dev := ds323x.NewDS3231(i2c)
	// Keep whatever an earlier boot configured.
	if err := dev.ReadConfig(); err != nil {
		println("Warn: rtc read config:", err.Error())
	}
	clock := ds323x.NewClock(&dev.Device)

	println("Info: bootstrapping bus")
	b := bus.NewBus(4)
	ui := b.NewConnection("ui")

	mon := ui.Subscribe(bus.T("rtc", "#"))
	go func() {
		for m := range mon.Channel() {
			printMessage(m)
		}
	}()

	svc := rtc.New(b.NewConnection("rtc"), clock, types.RTCInfo{
		Variant: dev.Variant().String(),
		Bus:     "i2c0",
		Addr:    ds323x.Address,
	})
	if err := svc.Start(ctx); err != nil {
		println("Error: rtc service:", err.Error())
		return
	}

	// Seconds-resolution publishing is plenty for a console.
	ui.Publish(ui.NewMessage(rtc.TopicConfig, types.RTCConfig{IntervalMs: 5000}, true))

	// Daily alarm at 12:00:00 raising INT/SQW.
	ctl := func(verb string, payload any) {
		rctx, cancel := context.WithTimeout(ctx, time.Second)
		defer cancel()
		reply, err := ui.RequestWait(rctx, ui.NewMessage(bus.T("rtc", "ctl", verb), payload, false))
		if err != nil {
			println("Warn:", verb, "no reply:", err.Error())
			return
		}
		if e, ok := reply.Payload.(types.ErrorReply); ok {
			println("Warn:", verb, "failed:", e.Error)
		}
	}
	ctl(rtc.VerbSetAlarm1, types.RTCAlarm{Match: types.AlarmMatchHour, Hour: 12, Interrupt: true})

	alarms := make(chan struct{}, 1)
	alarmPin.Configure(machine.PinConfig{Mode: machine.PinInputPullup})
	if err := alarmPin.SetInterrupt(machine.PinFalling, func(machine.Pin) {
		select {
		case alarms <- struct{}{}:
		default:
		}
	}); err != nil {
		println("Warn: alarm interrupt unavailable:", err.Error())
	}

	for range alarms {
		println("Info: alarm 1 fired")
		ctl(rtc.VerbClearAlarm, types.RTCAlarmClear{Alarm: 1})
	}
}

func printMessage(m *bus.Message) {
	print("[monitor] ", m.Topic.String(), " ")
	switch p := m.Payload.(type) {
	case types.RTCValue:
		println(p.Time, p.TempMilliC/1000, "C osf:", p.Stopped, "a1f:", p.Alarm1)
	case types.State:
		println(p.Level, p.Status)
	default:
		println()
	}
}
