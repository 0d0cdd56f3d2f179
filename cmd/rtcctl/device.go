package main

import (
	"time"

	"go.uber.org/multierr"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/host/v3"

	"ds323x-go/drivers/ds323x"
	"ds323x-go/drivers/ds323x/hostbus"
	"ds323x-go/types"
)

// chip is an opened device. part is the *DS3231, *DS3232 or *DS3234 value for
// the variant-specific commands.
type chip struct {
	dev      *ds323x.Device
	part     any
	info     types.RTCInfo
	interval time.Duration
	close    func() error
}

// tempRater is implemented by DS3232 and DS3234.
type tempRater interface {
	SetTemperatureConversionRate(ds323x.TempConvRate) error
}

// battery32k is implemented by DS3232 and DS3234.
type battery32k interface {
	Enable32kHzOutputOnBattery() error
	Disable32kHzOutputOnBattery() error
}

func openRTC(cfg Config) (*chip, error) {
	if _, err := host.Init(); err != nil {
		return nil, err
	}
	v, err := parseVariant(cfg.Variant)
	if err != nil {
		return nil, err
	}
	speed := physic.Frequency(cfg.SpeedHz) * physic.Hertz
	interval := time.Duration(cfg.IntervalMs) * time.Millisecond

	if v == ds323x.VariantDS3234 {
		port, cs, err := hostbus.OpenSPI(hostbus.SPIConfig{Port: cfg.SPI, Speed: speed, CS: cfg.CS})
		if err != nil {
			return nil, err
		}
		d := ds323x.NewDS3234(port, cs)
		return attach(&chip{
			dev:      &d.Device,
			part:     d,
			info:     types.RTCInfo{Variant: v.String(), Bus: port.String()},
			interval: interval,
			close:    port.Close,
		})
	}

	b, err := hostbus.OpenI2C(cfg.I2C, speed)
	if err != nil {
		return nil, err
	}
	r := &chip{
		info:     types.RTCInfo{Variant: v.String(), Bus: b.String(), Addr: ds323x.Address},
		interval: interval,
		close:    b.Close,
	}
	if v == ds323x.VariantDS3232 {
		d := ds323x.NewDS3232(b)
		r.dev, r.part = &d.Device, d
	} else {
		d := ds323x.NewDS3231(b)
		r.dev, r.part = &d.Device, d
	}
	return attach(r)
}

// attach loads the chip's current configuration so a command does not undo
// what earlier runs set. The bus is closed on failure.
func attach(r *chip) (*chip, error) {
	if err := r.dev.ReadConfig(); err != nil {
		return nil, multierr.Append(err, r.close())
	}
	return r, nil
}
