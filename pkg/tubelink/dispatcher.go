// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 UnB Embedded Systems Lab

package tubelink

import (
	"fmt"
	"math"
	"strings"
)

// Submit validates operator input and produces a Command together with its
// encoded wire frame. The mode must be one of the four known values; every
// numeric field is clamped into its engineering range — clamping is the
// documented policy for out-of-range setpoints, never an error.
//
// Submit has no side effects: writing the returned frame to the link is the
// caller's responsibility.
func Submit(mode, heightMm, dutyRaw, valveSteps int) (Command, []byte, error) {
	if mode < int(ModeManual) || mode > int(ModeReset) {
		return Command{}, nil, &ValidationError{
			Message: fmt.Sprintf("invalid mode: %d (known modes 0-3)", mode),
		}
	}

	cmd := Command{
		Mode:             Mode(mode),
		HeightTargetMm:   uint16(clamp(heightMm, 0, HeightMaxMm)),
		DutyTargetRaw:    uint16(clamp(dutyRaw, 0, MaxDutyRaw)),
		ValveTargetSteps: uint16(clamp(valveSteps, 0, MaxValveSteps)),
	}

	frame, err := EncodeCommand(cmd)
	if err != nil {
		return Command{}, nil, err
	}
	return cmd, frame, nil
}

// NewResetCommand returns the reset instruction: mode=Reset with all
// setpoints zeroed.
func NewResetCommand() Command {
	return Command{Mode: ModeReset}
}

// ParseMode parses an operator-entered mode: a numeric code ("0".."3") or a
// name ("manual", "fan", "valve", "reset"), case-insensitive.
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "0", "manual":
		return ModeManual, nil
	case "1", "fan":
		return ModeFan, nil
	case "2", "valve":
		return ModeValve, nil
	case "3", "reset":
		return ModeReset, nil
	default:
		return 0, &ValidationError{Message: fmt.Sprintf("invalid mode: %q", s)}
	}
}

// DutyRawFromPercent converts a percent duty setpoint to raw 10-bit units,
// rounding to the nearest step. Out-of-range percentages are clamped.
func DutyRawFromPercent(pct int) uint16 {
	pct = clamp(pct, 0, 100)
	return uint16(math.Round(float64(pct) * MaxDutyRaw / 100.0))
}

// ValveStepsFromPercent converts a percent valve setpoint to stepper steps,
// rounding to the nearest step. Out-of-range percentages are clamped.
func ValveStepsFromPercent(pct int) uint16 {
	pct = clamp(pct, 0, 100)
	return uint16(math.Round(float64(pct) * MaxValveSteps / 100.0))
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
