// Package ds323x provides a TinyGo driver for the DS3231, DS3232 and DS3234
// temperature-compensated real-time clocks.
//
// Design notes (datasheet references):
// • DS3231/DS3232: I2C, fixed 7-bit address 0b1101000, register pointer then data.
// • DS3234: SPI mode 1 or 3, address bit 7 set for writes, chip select active low.
// • Timekeeping registers are packed BCD; the month register carries a century bit.
// • STATUS alarm flags (A1F/A2F) are cleared by writing 0 and left alone by writing 1,
//   so every STATUS write re-asserts both unless one is being cleared on purpose.
// • CONTROL and STATUS are cached; toggles do not read the chip first.
//
// Datasheets:
//   - https://datasheets.maximintegrated.com/en/ds/DS3231.pdf
//   - https://datasheets.maximintegrated.com/en/ds/DS3232.pdf
//   - https://datasheets.maximintegrated.com/en/ds/DS3234.pdf
package ds323x

import (
	"errors"

	"tinygo.org/x/drivers"
)

var (
	// ErrInvalidInputData is returned before any bus traffic when a value is
	// outside the range of the field it is written to.
	ErrInvalidInputData = errors.New("ds323x: invalid input data")
	// ErrInvalidDeviceState is returned when the timekeeping registers do not
	// hold a valid date, typically on a chip that was never set.
	ErrInvalidDeviceState = errors.New("ds323x: invalid device state")
	// ErrDeviceBusy is returned by Clock when the device is already in use.
	ErrDeviceBusy = errors.New("ds323x: device could not be acquired")
)

// Variant identifies the chip a Device was built for.
type Variant uint8

const (
	VariantDS3231 Variant = iota + 1
	VariantDS3232
	VariantDS3234
)

func (v Variant) String() string {
	switch v {
	case VariantDS3231:
		return "ds3231"
	case VariantDS3232:
		return "ds3232"
	case VariantDS3234:
		return "ds3234"
	default:
		return "unknown"
	}
}

// Device holds the functionality shared by all three parts. It is embedded
// by DS3231, DS3232 and DS3234, which add the variant-specific methods.
//
// A Device is not safe for concurrent use; see Clock for shared access.
type Device struct {
	iface   Interface
	variant Variant

	// Last values written to CONTROL and STATUS. status never holds A1F/A2F.
	control uint8
	status  uint8
}

func newDevice(iface Interface, v Variant, statusPOR uint8) Device {
	return Device{
		iface:   iface,
		variant: v,
		control: controlPOR,
		status:  statusPOR,
	}
}

// Variant returns the chip variant.
func (d *Device) Variant() Variant { return d.variant }

// DS3231 is an I2C DS3231.
type DS3231 struct {
	Device
	i2c *I2CInterface
}

// NewDS3231 creates a DS3231 on a configured I2C bus. It does not touch the
// device.
func NewDS3231(bus drivers.I2C) *DS3231 {
	i := NewI2CInterface(bus)
	return &DS3231{
		Device: newDevice(i, VariantDS3231, statusPOR3231),
		i2c:    i,
	}
}

// Release returns the I2C bus. The DS3231 must not be used afterwards.
func (d *DS3231) Release() drivers.I2C {
	d.iface = nil
	return d.i2c.Bus()
}

// DS3232 is an I2C DS3232.
type DS3232 struct {
	Device
	i2c *I2CInterface
}

// NewDS3232 creates a DS3232 on a configured I2C bus. It does not touch the
// device.
func NewDS3232(bus drivers.I2C) *DS3232 {
	i := NewI2CInterface(bus)
	return &DS3232{
		Device: newDevice(i, VariantDS3232, statusPOR323x),
		i2c:    i,
	}
}

// Release returns the I2C bus. The DS3232 must not be used afterwards.
func (d *DS3232) Release() drivers.I2C {
	d.iface = nil
	return d.i2c.Bus()
}

// DS3234 is an SPI DS3234.
type DS3234 struct {
	Device
	spi *SPIInterface
}

// NewDS3234 creates a DS3234 on a configured SPI bus with the given chip
// select output. It does not touch the device.
func NewDS3234(bus drivers.SPI, cs PinOutput) *DS3234 {
	s := NewSPIInterface(bus, cs)
	return &DS3234{
		Device: newDevice(s, VariantDS3234, statusPOR323x),
		spi:    s,
	}
}

// Release returns the SPI bus and chip select. The DS3234 must not be used
// afterwards.
func (d *DS3234) Release() (drivers.SPI, PinOutput) {
	d.iface = nil
	return d.spi.Bus()
}
