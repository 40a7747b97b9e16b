// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 UnB Embedded Systems Lab

package tubelink

import (
	"strings"
	"testing"
)

func TestLinkStats_Counters(t *testing.T) {
	s := NewLinkStats()
	for i := 0; i < 5; i++ {
		s.recordFrame()
	}
	s.recordDroppedByte()
	s.recordDroppedByte()
	s.recordDiscard(30)

	snap := s.Snapshot()
	if snap.Frames != 5 {
		t.Errorf("Frames = %d, want 5", snap.Frames)
	}
	if snap.DroppedBytes != 2 {
		t.Errorf("DroppedBytes = %d, want 2", snap.DroppedBytes)
	}
	if snap.Discards != 1 || snap.DiscardedBytes != 30 {
		t.Errorf("Discards = %d/%d bytes, want 1/30", snap.Discards, snap.DiscardedBytes)
	}
	if got := s.GarbledBytes(); got != 32 {
		t.Errorf("GarbledBytes = %d, want 32", got)
	}
}

func TestStatsSnapshot_String(t *testing.T) {
	s := NewLinkStats()
	s.recordFrame()
	s.recordDroppedByte()

	out := s.Snapshot().String()
	if !strings.Contains(out, "Frames decoded") {
		t.Errorf("summary missing frame count: %q", out)
	}
	if !strings.Contains(out, "Dropped bytes") {
		t.Errorf("summary missing dropped bytes: %q", out)
	}

	// Clean links omit the garble lines.
	clean := NewLinkStats().Snapshot().String()
	if strings.Contains(clean, "Dropped bytes") || strings.Contains(clean, "discards") {
		t.Errorf("clean summary should omit garble counters: %q", clean)
	}
}
