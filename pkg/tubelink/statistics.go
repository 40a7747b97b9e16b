// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 UnB Embedded Systems Lab

package tubelink

import (
	"fmt"
	"sync"
	"time"
)

// LinkStats tracks link health: decoded frame counts and the garbled-byte
// counters the resync path maintains. The LinkReader is the single writer;
// snapshots may be taken from any goroutine.
type LinkStats struct {
	mu sync.Mutex

	startTime      time.Time
	frames         uint64
	droppedBytes   uint64
	discardedBytes uint64
	discards       uint64
}

// StatsSnapshot is a point-in-time copy of the link counters.
type StatsSnapshot struct {
	Elapsed        time.Duration `json:"elapsed_ns"`
	Frames         uint64        `json:"frames"`
	DroppedBytes   uint64        `json:"dropped_bytes"`
	DiscardedBytes uint64        `json:"discarded_bytes"`
	Discards       uint64        `json:"discards"`
	FrameRate      float64       `json:"frame_rate"`
}

// NewLinkStats creates a link statistics tracker.
func NewLinkStats() *LinkStats {
	return &LinkStats{startTime: time.Now()}
}

func (s *LinkStats) recordFrame() {
	s.mu.Lock()
	s.frames++
	s.mu.Unlock()
}

func (s *LinkStats) recordDroppedByte() {
	s.mu.Lock()
	s.droppedBytes++
	s.mu.Unlock()
}

func (s *LinkStats) recordDiscard(n int) {
	s.mu.Lock()
	s.discards++
	s.discardedBytes += uint64(n)
	s.mu.Unlock()
}

// GarbledBytes returns the total number of bytes lost to resync shifts and
// buffer discards. This is the degraded-link signal consumers watch.
func (s *LinkStats) GarbledBytes() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.droppedBytes + s.discardedBytes
}

// Snapshot returns a copy of the current counters with derived rates.
func (s *LinkStats) Snapshot() StatsSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap := StatsSnapshot{
		Elapsed:        time.Since(s.startTime),
		Frames:         s.frames,
		DroppedBytes:   s.droppedBytes,
		DiscardedBytes: s.discardedBytes,
		Discards:       s.discards,
	}
	if secs := snap.Elapsed.Seconds(); secs > 0 {
		snap.FrameRate = float64(s.frames) / secs
	}
	return snap
}

// String returns a formatted link-health summary.
func (s StatsSnapshot) String() string {
	result := fmt.Sprintf("=== Link Health (%.0f seconds) ===\n", s.Elapsed.Seconds())
	result += fmt.Sprintf("Frames decoded:  %8d\n", s.Frames)
	result += fmt.Sprintf("Frame rate:      %8.1f frames/sec\n", s.FrameRate)
	if s.DroppedBytes > 0 {
		result += fmt.Sprintf("Dropped bytes:   %8d (resync shifts)\n", s.DroppedBytes)
	}
	if s.Discards > 0 {
		result += fmt.Sprintf("Buffer discards: %8d (%d bytes)\n", s.Discards, s.DiscardedBytes)
	}
	result += "=================================\n"
	return result
}
