package errcode

import (
	"context"
	"errors"

	"ds323x-go/drivers/ds323x"
)

// Code is a stable, bus-facing error identifier.
// It is a string newtype, comparable, allocation-free, and implements error.
type Code string

func (c Code) Error() string { return string(c) }

// Canonical codes (short, stable).
const (
	OK             Code = "ok"
	Unsupported    Code = "unsupported"
	InvalidParams  Code = "invalid_params"
	InvalidPayload Code = "invalid_payload"

	UnknownBus Code = "unknown_bus"
	UnknownPin Code = "unknown_pin"
	Timeout    Code = "timeout"

	// Device level.
	InvalidInput       Code = "invalid_input"
	InvalidDeviceState Code = "invalid_device_state"
	BusError           Code = "bus_error"
	DeviceBusy         Code = "device_busy"

	Error Code = "error" // generic fallback
)

// Optional wrapper when we want to keep context and a cause.
type E struct {
	C   Code
	Op  string
	Msg string
	Err error
}

func (e *E) Error() string {
	s := string(e.C)
	if e.Op != "" {
		s = e.Op + ": " + s
	}
	if e.Msg != "" {
		s += ": " + e.Msg
	}
	if e.Err != nil {
		s += ": " + e.Err.Error()
	}
	return s
}
func (e *E) Unwrap() error { return e.Err }
func (e *E) Code() Code    { return e.C }

// Of extracts a Code from an error, defaulting to Error.
func Of(err error) Code {
	if err == nil {
		return OK
	}
	var c Code
	if errors.As(err, &c) {
		return c
	}
	type coder interface{ Code() Code }
	var x coder
	if errors.As(err, &x) {
		return x.Code()
	}
	return Error
}

// MapDriverErr maps ds323x and transport errors to a Code. Errors that
// already carry a Code keep it.
func MapDriverErr(err error) Code {
	var be *ds323x.BusError
	switch {
	case err == nil:
		return OK
	case errors.Is(err, ds323x.ErrInvalidInputData):
		return InvalidInput
	case errors.Is(err, ds323x.ErrInvalidDeviceState):
		return InvalidDeviceState
	case errors.Is(err, ds323x.ErrDeviceBusy):
		return DeviceBusy
	case errors.Is(err, context.DeadlineExceeded):
		return Timeout
	case errors.As(err, &be):
		return BusError
	}
	return Of(err)
}
