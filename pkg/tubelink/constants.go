// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 UnB Embedded Systems Lab

// Package tubelink implements the telemetry/command protocol spoken by the
// ball-in-the-tube experiment firmware over a serial link (USB-serial or
// HC-05 Bluetooth SPP, 115200 8N1).
//
// The micro streams fixed 15-byte telemetry frames at roughly 40 ms
// intervals; the host sends fixed 7-byte command frames. Both directions are
// big-endian with no framing delimiter, so inbound framing is purely
// positional (see LinkReader for the resynchronization strategy).
package tubelink

import "time"

// Wire frame sizes
const (
	FrameSize   = 15 // micro -> host telemetry frame
	CommandSize = 7  // host -> micro command frame
)

// Link parameters
const (
	DefaultBaudRate = 115200
	FrameInterval   = 40 * time.Millisecond // firmware's native telemetry cadence
)

// Engineering limits of the rig
const (
	HeightMaxMm   = 500  // tube height, mm
	MaxDutyRaw    = 1023 // fan duty, 10-bit PWM units
	MaxValveSteps = 420  // valve travel, stepper steps
)

// Retention bounds for the sample window
const (
	MinRetention = 5 * time.Second
	MaxRetention = 600 * time.Second
)

// Mode represents the experiment's control regime, as carried in byte 0 of
// every frame in both directions.
type Mode uint8

// Mode values
const (
	ModeManual Mode = 0 // open-loop operator control
	ModeFan    Mode = 1 // closed-loop fan duty control
	ModeValve  Mode = 2 // closed-loop valve position control
	ModeReset  Mode = 3 // reset the controller
)

// Valid reports whether m is one of the four known mode codes.
func (m Mode) Valid() bool {
	return m <= ModeReset
}

func (m Mode) String() string {
	switch m {
	case ModeManual:
		return "manual"
	case ModeFan:
		return "fan"
	case ModeValve:
		return "valve"
	case ModeReset:
		return "reset"
	default:
		return "unknown"
	}
}

// MarshalJSON encodes the mode as its lowercase name.
func (m Mode) MarshalJSON() ([]byte, error) {
	return []byte(`"` + m.String() + `"`), nil
}
