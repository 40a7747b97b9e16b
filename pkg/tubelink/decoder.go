// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 UnB Embedded Systems Lab

package tubelink

import (
	"encoding/binary"
	"time"
)

// Telemetry frame layout, all multi-byte fields big-endian:
//
//	offset 0   mode            (1 byte)
//	offset 1   height setpoint (2 bytes, mm)
//	offset 3   height measured (2 bytes, mm)
//	offset 5   ToF average     (2 bytes, raw timer counts)
//	offset 7   temperature     (2 bytes, deci-degrees C)
//	offset 9   valve setpoint  (2 bytes, steps)
//	offset 11  valve position  (2 bytes, steps)
//	offset 13  fan duty        (2 bytes, 0..1023)

// DecodeFrame decodes a single 15-byte telemetry frame. A frame either fully
// decodes or is rejected as a unit: any length other than FrameSize fails
// with InvalidLength, and a mode byte outside the four known codes fails
// with InvalidMode. ReceivedAt is stamped with the host clock.
func DecodeFrame(frame []byte) (*Sample, error) {
	if len(frame) != FrameSize {
		return nil, errInvalidLength(len(frame))
	}

	mode := Mode(frame[0])
	if !mode.Valid() {
		return nil, errInvalidModeByte(frame[0])
	}

	return &Sample{
		Mode:             mode,
		HeightSetpointMm: binary.BigEndian.Uint16(frame[1:3]),
		HeightMeasuredMm: binary.BigEndian.Uint16(frame[3:5]),
		TofAverageRaw:    binary.BigEndian.Uint16(frame[5:7]),
		TemperatureDeciC: binary.BigEndian.Uint16(frame[7:9]),
		ValveSetpointRaw: binary.BigEndian.Uint16(frame[9:11]),
		ValvePositionRaw: binary.BigEndian.Uint16(frame[11:13]),
		DutyRaw:          binary.BigEndian.Uint16(frame[13:15]),
		ReceivedAt:       time.Now(),
	}, nil
}
