// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 UnB Embedded Systems Lab

package tubelink

import "encoding/binary"

// Command is one outbound instruction to the micro. Construct commands via
// Submit, which validates the mode and clamps every numeric field; a Command
// built by hand must already be inside its engineering limits.
type Command struct {
	Mode             Mode   `json:"mode"`
	HeightTargetMm   uint16 `json:"height_target_mm"`
	DutyTargetRaw    uint16 `json:"duty_target_raw"`
	ValveTargetSteps uint16 `json:"valve_target_steps"`
}

// EncodeCommand serializes a command to its 7-byte wire format, big-endian:
// mode(1) + height target(2) + duty target(2) + valve target(2).
//
// Encoding performs no clamping. Ranges are re-asserted defensively and an
// out-of-range field fails with an EncodePreconditionError rather than
// putting an illegal value on the wire.
func EncodeCommand(c Command) ([]byte, error) {
	if !c.Mode.Valid() {
		return nil, &EncodePreconditionError{Field: "mode", Value: int(c.Mode), Max: int(ModeReset)}
	}
	if c.HeightTargetMm > HeightMaxMm {
		return nil, &EncodePreconditionError{Field: "height", Value: int(c.HeightTargetMm), Max: HeightMaxMm}
	}
	if c.DutyTargetRaw > MaxDutyRaw {
		return nil, &EncodePreconditionError{Field: "duty", Value: int(c.DutyTargetRaw), Max: MaxDutyRaw}
	}
	if c.ValveTargetSteps > MaxValveSteps {
		return nil, &EncodePreconditionError{Field: "valve", Value: int(c.ValveTargetSteps), Max: MaxValveSteps}
	}

	frame := make([]byte, CommandSize)
	frame[0] = byte(c.Mode)
	binary.BigEndian.PutUint16(frame[1:3], c.HeightTargetMm)
	binary.BigEndian.PutUint16(frame[3:5], c.DutyTargetRaw)
	binary.BigEndian.PutUint16(frame[5:7], c.ValveTargetSteps)
	return frame, nil
}
