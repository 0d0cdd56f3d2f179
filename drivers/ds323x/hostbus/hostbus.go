// Package hostbus adapts periph.io buses and pins on a Linux host to the
// transport types used by the ds323x driver.
package hostbus

import (
	"io"

	"go.uber.org/multierr"
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/conn/v3/i2c"
	"periph.io/x/conn/v3/i2c/i2creg"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/conn/v3/spi"
	"periph.io/x/conn/v3/spi/spireg"
	"tinygo.org/x/drivers"

	"ds323x-go/drivers/ds323x"
	"ds323x-go/errcode"
)

// Compile-time checks.
var (
	_ drivers.I2C = (*I2C)(nil)
	_ drivers.SPI = (*SPI)(nil)
)

// I2C exposes a periph I2C bus as drivers.I2C.
type I2C struct {
	bus    i2c.Bus
	closer io.Closer
}

// NewI2C wraps an already opened bus. Close is a no-op.
func NewI2C(bus i2c.Bus) *I2C { return &I2C{bus: bus} }

// OpenI2C opens a bus by name ("" for the first one, "1", "/dev/i2c-1").
// A zero speed keeps the bus default.
func OpenI2C(name string, speed physic.Frequency) (*I2C, error) {
	bus, err := i2creg.Open(name)
	if err != nil {
		return nil, &errcode.E{C: errcode.UnknownBus, Op: "open_i2c", Msg: name, Err: err}
	}
	if speed > 0 {
		if err := bus.SetSpeed(speed); err != nil {
			return nil, multierr.Combine(err, bus.Close())
		}
	}
	return &I2C{bus: bus, closer: bus}, nil
}

func (b *I2C) Tx(addr uint16, w, r []byte) error { return b.bus.Tx(addr, w, r) }

// Close releases the bus if it was opened by OpenI2C.
func (b *I2C) Close() error {
	if b.closer == nil {
		return nil
	}
	return b.closer.Close()
}

func (b *I2C) String() string { return b.bus.String() }

// SPI exposes a periph SPI connection as drivers.SPI.
type SPI struct {
	conn    spi.Conn
	closers []io.Closer
	pin     gpio.PinIO
}

// NewSPI wraps an already connected SPI conn. Close is a no-op.
func NewSPI(conn spi.Conn) *SPI { return &SPI{conn: conn} }

// SPIConfig selects a port and optional GPIO chip select.
type SPIConfig struct {
	Port  string           // "" for the first port, "SPI0.0", "/dev/spidev0.0"
	Speed physic.Frequency // 0 = 1MHz
	Mode  spi.Mode         // 0 = mode 1; the DS3234 accepts 1 or 3
	CS    string           // GPIO name for a manual chip select; "" uses the port's own
}

// OpenSPI opens and connects an SPI port for a DS3234 and returns the chip
// select output to hand to ds323x.NewDS3234.
func OpenSPI(cfg SPIConfig) (*SPI, ds323x.PinOutput, error) {
	if cfg.Speed == 0 {
		cfg.Speed = physic.MegaHertz
	}
	if cfg.Mode == 0 {
		cfg.Mode = spi.Mode1
	}

	var pin gpio.PinIO
	// halt releases the chip select on the failure paths below.
	halt := func(err error) error {
		if pin != nil {
			err = multierr.Append(err, pin.Halt())
		}
		return err
	}
	if cfg.CS != "" {
		if pin = gpioreg.ByName(cfg.CS); pin == nil {
			return nil, nil, &errcode.E{C: errcode.UnknownPin, Op: "open_spi", Msg: cfg.CS}
		}
		// Idle high before the first transfer.
		if err := pin.Out(gpio.High); err != nil {
			return nil, nil, halt(err)
		}
		cfg.Mode |= spi.NoCS
	}

	port, err := spireg.Open(cfg.Port)
	if err != nil {
		return nil, nil, halt(&errcode.E{C: errcode.UnknownBus, Op: "open_spi", Msg: cfg.Port, Err: err})
	}
	conn, err := port.Connect(cfg.Speed, cfg.Mode, 8)
	if err != nil {
		return nil, nil, halt(multierr.Combine(err, port.Close()))
	}

	s := &SPI{conn: conn, closers: []io.Closer{port}, pin: pin}
	if pin == nil {
		return s, nopCS, nil
	}
	return s, ChipSelect(pin), nil
}

func (s *SPI) Tx(w, r []byte) error { return s.conn.Tx(w, r) }

func (s *SPI) Transfer(b byte) (byte, error) {
	var r [1]byte
	err := s.conn.Tx([]byte{b}, r[:])
	return r[0], err
}

// Close releases the port and the chip select pin.
func (s *SPI) Close() error {
	var err error
	for _, c := range s.closers {
		err = multierr.Append(err, c.Close())
	}
	if s.pin != nil {
		err = multierr.Append(err, s.pin.Halt())
	}
	return err
}

func (s *SPI) String() string { return s.conn.String() }

// ChipSelect drives pin as an active-low chip select.
func ChipSelect(pin gpio.PinOut) ds323x.PinOutput {
	return func(high bool) error {
		l := gpio.Low
		if high {
			l = gpio.High
		}
		return pin.Out(l)
	}
}

// The kernel driver frames each transfer itself.
func nopCS(bool) error { return nil }
