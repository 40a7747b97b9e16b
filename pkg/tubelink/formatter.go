// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 UnB Embedded Systems Lab

package tubelink

import "fmt"

// FormatSample renders one telemetry sample as a single log line.
func FormatSample(s *Sample) string {
	return fmt.Sprintf("[%s] mode=%-6s height=%3dmm (sp %3dmm)  tof=%5d  temp=%s°C  valve=%3d/%d (sp %3d)  duty=%4d (%.1f%%)",
		s.ReceivedAt.Format("15:04:05.000"),
		s.Mode,
		s.HeightMeasuredMm,
		s.HeightSetpointMm,
		s.TofAverageRaw,
		s.TemperatureString(),
		s.ValvePositionRaw,
		MaxValveSteps,
		s.ValveSetpointRaw,
		s.DutyRaw,
		s.DutyPercent(),
	)
}

// FormatCommand renders an outbound command and its wire bytes for echo to
// the operator.
func FormatCommand(c Command, frame []byte) string {
	return fmt.Sprintf("mode=%s height=%dmm duty=%d valve=%d  [% X]",
		c.Mode, c.HeightTargetMm, c.DutyTargetRaw, c.ValveTargetSteps, frame)
}
