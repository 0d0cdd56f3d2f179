// Command rtcctl reads and configures a DS3231, DS3232 or DS3234 attached to a
// Linux host over I2C or SPI.
//
//	rtcctl --variant ds3231 --bus 1 now
//	rtcctl --config rtc.yaml set --system
//	rtcctl --variant ds3234 --spi SPI0.0 --cs GPIO8 watch
package main

import (
	"fmt"
	"os"

	"github.com/urfave/cli/v2"
	"go.uber.org/zap"
)

func main() {
	if err := newApp().Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, "rtcctl:", err)
		os.Exit(1)
	}
}

func newApp() *cli.App {
	a := &app{}
	return &cli.App{
		Name:  "rtcctl",
		Usage: "read and configure a DS323x real-time clock",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "YAML file with variant, i2c, spi, cs and speed_hz",
				EnvVars: []string{"RTCCTL_CONFIG"},
			},
			&cli.StringFlag{
				Name:  "variant",
				Usage: "chip: ds3231, ds3232 or ds3234",
			},
			&cli.StringFlag{
				Name:  "bus",
				Usage: "I2C bus name (ds3231, ds3232)",
			},
			&cli.StringFlag{
				Name:  "spi",
				Usage: "SPI port name (ds3234)",
			},
			&cli.StringFlag{
				Name:  "cs",
				Usage: "GPIO used as SPI chip select",
			},
			&cli.Int64Flag{
				Name:  "speed",
				Usage: "bus speed in Hz",
			},
			&cli.BoolFlag{
				Name:  "debug",
				Usage: "log at debug level",
			},
		},
		Before: a.setup,
		After:  a.teardown,
		Commands: []*cli.Command{
			{
				Name:   "now",
				Usage:  "print the current date and time",
				Action: a.withRTC(cmdNow),
			},
			{
				Name:      "set",
				Usage:     "set the date and time and clear the oscillator-stopped flag",
				ArgsUsage: "[RFC3339]",
				Flags: []cli.Flag{
					&cli.BoolFlag{Name: "system", Usage: "use the host clock (UTC)"},
				},
				Action: a.withRTC(cmdSet),
			},
			{
				Name:  "temp",
				Usage: "print the die temperature",
				Flags: []cli.Flag{
					&cli.BoolFlag{Name: "convert", Usage: "force a conversion first"},
				},
				Action: a.withRTC(cmdTemp),
			},
			{
				Name:   "status",
				Usage:  "print oscillator, alarm and aging state",
				Action: a.withRTC(cmdStatus),
			},
			{
				Name:      "alarm1",
				Usage:     "set a daily alarm 1",
				ArgsUsage: "HH:MM:SS",
				Flags: []cli.Flag{
					&cli.BoolFlag{Name: "interrupt", Usage: "drive INT/SQW when it fires"},
				},
				Action: a.withRTC(cmdAlarm1),
			},
			{
				Name:      "alarm2",
				Usage:     "set a daily alarm 2",
				ArgsUsage: "HH:MM",
				Flags: []cli.Flag{
					&cli.BoolFlag{Name: "interrupt", Usage: "drive INT/SQW when it fires"},
				},
				Action: a.withRTC(cmdAlarm2),
			},
			{
				Name:      "clear-alarm",
				Usage:     "clear the matched flag of alarm 1 or 2",
				ArgsUsage: "N",
				Action:    a.withRTC(cmdClearAlarm),
			},
			{
				Name:      "aging",
				Usage:     "print or set the aging offset",
				ArgsUsage: "[OFFSET]",
				Action:    a.withRTC(cmdAging),
			},
			{
				Name:      "sqw",
				Usage:     "output a square wave on INT/SQW, or 'off' for interrupt mode",
				ArgsUsage: "1|1024|4096|8192|off",
				Flags: []cli.Flag{
					&cli.BoolFlag{Name: "battery", Usage: "keep the square wave running on battery"},
				},
				Action: a.withRTC(cmdSqw),
			},
			{
				Name:      "temp-rate",
				Usage:     "set the temperature conversion period (ds3232, ds3234)",
				ArgsUsage: "64|128|256|512",
				Action:    a.withRTC(cmdTempRate),
			},
			{
				Name:      "battery-32k",
				Usage:     "keep the 32kHz output running on battery (ds3232, ds3234)",
				ArgsUsage: "on|off",
				Action:    a.withRTC(cmdBattery32k),
			},
			{
				Name:  "watch",
				Usage: "run the rtc service and print every reading",
				Flags: []cli.Flag{
					&cli.DurationFlag{Name: "interval", Usage: "publish interval"},
				},
				Action: a.withRTC(cmdWatch),
			},
		},
	}
}

type app struct {
	cfg Config
	log *zap.Logger
}

func (a *app) setup(c *cli.Context) error {
	cfg, err := loadConfig(c.String("config"))
	if err != nil {
		return err
	}
	if c.IsSet("variant") {
		cfg.Variant = c.String("variant")
	}
	if c.IsSet("bus") {
		cfg.I2C = c.String("bus")
	}
	if c.IsSet("spi") {
		cfg.SPI = c.String("spi")
	}
	if c.IsSet("cs") {
		cfg.CS = c.String("cs")
	}
	if c.IsSet("speed") {
		cfg.SpeedHz = c.Int64("speed")
	}
	if err := cfg.validate(); err != nil {
		return err
	}
	a.cfg = cfg

	zc := zap.NewDevelopmentConfig()
	if !c.Bool("debug") {
		zc.Level = zap.NewAtomicLevelAt(zap.InfoLevel)
	}
	a.log, err = zc.Build()
	return err
}

func (a *app) teardown(*cli.Context) error {
	if a.log == nil {
		return nil
	}
	// Sync on a console sink fails with EINVAL on some systems.
	_ = a.log.Sync()
	return nil
}

// withRTC opens the configured chip around a command.
func (a *app) withRTC(fn func(*cli.Context, *chip, *zap.SugaredLogger) error) cli.ActionFunc {
	return func(c *cli.Context) error {
		log := a.log.Sugar().With("variant", a.cfg.Variant)
		r, err := openRTC(a.cfg)
		if err != nil {
			return err
		}
		defer func() {
			if err := r.close(); err != nil {
				log.Warnw("close bus", "error", err)
			}
		}()
		log.Debugw("opened", "bus", r.info.Bus, "addr", r.info.Addr)
		return fn(c, r, log)
	}
}
