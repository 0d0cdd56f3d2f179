package ds323x

import (
	"sync"
	"time"
)

// Clock shares a Device between callers. Access never blocks: a caller that
// finds the device in use gets ErrDeviceBusy and may retry.
type Clock struct {
	mu  sync.Mutex
	dev *Device
}

// NewClock takes ownership of dev.
func NewClock(dev *Device) *Clock {
	return &Clock{dev: dev}
}

// Now returns the current time from the device.
func (c *Clock) Now() (time.Time, error) {
	var t time.Time
	err := c.Do(func(d *Device) error {
		var err error
		t, err = d.Time()
		return err
	})
	return t, err
}

// Do runs fn with exclusive access to the device.
func (c *Clock) Do(fn func(*Device) error) error {
	if !c.mu.TryLock() {
		return ErrDeviceBusy
	}
	defer c.mu.Unlock()
	return fn(c.dev)
}

// Unwrap returns the device. The Clock must not be used afterwards.
func (c *Clock) Unwrap() *Device {
	c.mu.Lock()
	defer c.mu.Unlock()
	d := c.dev
	c.dev = nil
	return d
}
