// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 UnB Embedded Systems Lab

package tubelink

import (
	"encoding/binary"
	"errors"
	"testing"
)

// buildFrame assembles a 15-byte telemetry frame from field values.
func buildFrame(mode byte, fields [7]uint16) []byte {
	frame := make([]byte, FrameSize)
	frame[0] = mode
	for i, v := range fields {
		binary.BigEndian.PutUint16(frame[1+2*i:3+2*i], v)
	}
	return frame
}

func TestDecodeFrame_KnownFrame(t *testing.T) {
	// mode=fan, heightSP=150, height=123, tof=512, temp=23.5C,
	// valveSP=200, valvePos=210, duty=512
	frame := buildFrame(1, [7]uint16{150, 123, 512, 235, 200, 210, 512})

	s, err := DecodeFrame(frame)
	if err != nil {
		t.Fatalf("DecodeFrame failed: %v", err)
	}

	if s.Mode != ModeFan {
		t.Errorf("Mode = %v, want fan", s.Mode)
	}
	if s.HeightSetpointMm != 150 {
		t.Errorf("HeightSetpointMm = %d, want 150", s.HeightSetpointMm)
	}
	if s.HeightMeasuredMm != 123 {
		t.Errorf("HeightMeasuredMm = %d, want 123", s.HeightMeasuredMm)
	}
	if s.TofAverageRaw != 512 {
		t.Errorf("TofAverageRaw = %d, want 512", s.TofAverageRaw)
	}
	if s.TemperatureDeciC != 235 {
		t.Errorf("TemperatureDeciC = %d, want 235", s.TemperatureDeciC)
	}
	if s.TemperatureC() != 23.5 {
		t.Errorf("TemperatureC() = %v, want 23.5", s.TemperatureC())
	}
	if s.TemperatureString() != "23.5" {
		t.Errorf("TemperatureString() = %q, want \"23.5\"", s.TemperatureString())
	}
	if s.ValveSetpointRaw != 200 {
		t.Errorf("ValveSetpointRaw = %d, want 200", s.ValveSetpointRaw)
	}
	if s.ValvePositionRaw != 210 {
		t.Errorf("ValvePositionRaw = %d, want 210", s.ValvePositionRaw)
	}
	if s.DutyRaw != 512 {
		t.Errorf("DutyRaw = %d, want 512", s.DutyRaw)
	}
	if s.ReceivedAt.IsZero() {
		t.Error("ReceivedAt not stamped")
	}
}

func TestDecodeFrame_BigEndianReassembly(t *testing.T) {
	// Each uint16 field must equal its two input bytes reassembled
	// big-endian; use byte pairs where endianness confusion would show.
	frame := []byte{
		0x02,       // mode = valve
		0x01, 0xF4, // heightSP = 500
		0x00, 0xFF, // height = 255
		0xAB, 0xCD, // tof = 0xABCD
		0x01, 0x02, // temp = 258 (25.8 C)
		0x01, 0xA4, // valveSP = 420
		0x00, 0x01, // valvePos = 1
		0x03, 0xFF, // duty = 1023
	}

	s, err := DecodeFrame(frame)
	if err != nil {
		t.Fatalf("DecodeFrame failed: %v", err)
	}

	checks := []struct {
		name string
		got  uint16
		want uint16
	}{
		{"heightSP", s.HeightSetpointMm, 500},
		{"height", s.HeightMeasuredMm, 255},
		{"tof", s.TofAverageRaw, 0xABCD},
		{"temp", s.TemperatureDeciC, 258},
		{"valveSP", s.ValveSetpointRaw, 420},
		{"valvePos", s.ValvePositionRaw, 1},
		{"duty", s.DutyRaw, 1023},
	}
	for _, c := range checks {
		if c.got != c.want {
			t.Errorf("%s = %d, want %d", c.name, c.got, c.want)
		}
	}
	if s.TemperatureString() != "25.8" {
		t.Errorf("TemperatureString() = %q, want \"25.8\"", s.TemperatureString())
	}
}

func TestDecodeFrame_AllModes(t *testing.T) {
	for _, mode := range []Mode{ModeManual, ModeFan, ModeValve, ModeReset} {
		frame := buildFrame(byte(mode), [7]uint16{})
		s, err := DecodeFrame(frame)
		if err != nil {
			t.Fatalf("DecodeFrame(mode=%d) failed: %v", mode, err)
		}
		if s.Mode != mode {
			t.Errorf("Mode = %v, want %v", s.Mode, mode)
		}
	}
}

func TestDecodeFrame_InvalidLength(t *testing.T) {
	tests := []struct {
		name string
		size int
	}{
		{"empty", 0},
		{"short by one", FrameSize - 1},
		{"long by one", FrameSize + 1},
		{"command sized", CommandSize},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := DecodeFrame(make([]byte, tt.size))
			var derr *DecodeError
			if !errors.As(err, &derr) {
				t.Fatalf("expected DecodeError, got %v", err)
			}
			if derr.Kind != InvalidLength {
				t.Errorf("Kind = %d, want InvalidLength", derr.Kind)
			}
		})
	}
}

func TestDecodeFrame_InvalidMode(t *testing.T) {
	for _, mode := range []byte{4, 5, 0x7F, 0xFF} {
		frame := buildFrame(mode, [7]uint16{})
		_, err := DecodeFrame(frame)
		var derr *DecodeError
		if !errors.As(err, &derr) {
			t.Fatalf("mode byte %d: expected DecodeError, got %v", mode, err)
		}
		if derr.Kind != InvalidMode {
			t.Errorf("mode byte %d: Kind = %d, want InvalidMode", mode, derr.Kind)
		}
	}
}

func TestDecodeFrame_RejectsAsUnit(t *testing.T) {
	// No partial decode: a rejected frame yields a nil sample.
	frame := buildFrame(9, [7]uint16{150, 123, 512, 235, 200, 210, 512})
	s, err := DecodeFrame(frame)
	if err == nil {
		t.Fatal("expected error for invalid mode")
	}
	if s != nil {
		t.Errorf("expected nil sample on decode failure, got %+v", s)
	}
}
