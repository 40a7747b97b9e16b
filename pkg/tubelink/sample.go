// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 UnB Embedded Systems Lab

package tubelink

import (
	"fmt"
	"time"
)

// Sample is one decoded telemetry frame from the micro. All fields except
// ReceivedAt come off the wire; ReceivedAt is stamped by the host at decode
// time (the firmware transmits no clock).
type Sample struct {
	Mode             Mode      `json:"mode"`
	HeightSetpointMm uint16    `json:"height_setpoint_mm"`
	HeightMeasuredMm uint16    `json:"height_measured_mm"`
	TofAverageRaw    uint16    `json:"tof_average_raw"`
	TemperatureDeciC uint16    `json:"temperature_deci_c"`
	ValveSetpointRaw uint16    `json:"valve_setpoint_raw"`
	ValvePositionRaw uint16    `json:"valve_position_raw"`
	DutyRaw          uint16    `json:"duty_raw"`
	ReceivedAt       time.Time `json:"received_at"`
}

// TemperatureC returns the temperature in degrees Celsius. The wire value is
// fixed-point deci-degrees, so the result always has exactly one decimal
// place of precision.
func (s *Sample) TemperatureC() float64 {
	return float64(s.TemperatureDeciC) / 10.0
}

// TemperatureString renders the temperature with its native one-decimal
// precision using integer arithmetic only, e.g. raw 235 -> "23.5".
func (s *Sample) TemperatureString() string {
	return fmt.Sprintf("%d.%d", s.TemperatureDeciC/10, s.TemperatureDeciC%10)
}

// DutyPercent converts the raw fan duty to percent of full scale.
func (s *Sample) DutyPercent() float64 {
	return float64(s.DutyRaw) * 100.0 / float64(MaxDutyRaw)
}

// ValvePercent converts the measured valve position to percent of travel.
func (s *Sample) ValvePercent() float64 {
	return float64(s.ValvePositionRaw) * 100.0 / float64(MaxValveSteps)
}
