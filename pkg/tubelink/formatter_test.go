// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 UnB Embedded Systems Lab

package tubelink

import (
	"strings"
	"testing"
	"time"
)

func TestFormatSample(t *testing.T) {
	s := &Sample{
		Mode:             ModeFan,
		HeightSetpointMm: 150,
		HeightMeasuredMm: 123,
		TofAverageRaw:    512,
		TemperatureDeciC: 235,
		ValveSetpointRaw: 200,
		ValvePositionRaw: 210,
		DutyRaw:          512,
		ReceivedAt:       time.Date(2026, 3, 14, 15, 9, 26, 0, time.UTC),
	}

	out := FormatSample(s)
	for _, want := range []string{"mode=fan", "123mm", "sp 150mm", "23.5°C", "15:09:26"} {
		if !strings.Contains(out, want) {
			t.Errorf("FormatSample output missing %q: %q", want, out)
		}
	}
}

func TestFormatCommand(t *testing.T) {
	cmd, frame, err := Submit(int(ModeValve), 250, 512, 210)
	if err != nil {
		t.Fatal(err)
	}
	out := FormatCommand(cmd, frame)
	for _, want := range []string{"mode=valve", "height=250mm", "02 00 FA"} {
		if !strings.Contains(out, want) {
			t.Errorf("FormatCommand output missing %q: %q", want, out)
		}
	}
}
