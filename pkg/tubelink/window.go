// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 UnB Embedded Systems Lab

package tubelink

import (
	"fmt"
	"sync"
	"time"
)

// compactThreshold bounds how far the head index may run ahead before the
// live region is copied back to the front of the backing slice.
const compactThreshold = 64

// DefaultRetention is the retention window used when none is configured.
const DefaultRetention = 60 * time.Second

// SampleWindow is a time-windowed, bounded-memory buffer of decoded samples
// in arrival order. It is scoped to one connection: created on connect,
// written only by that connection's LinkReader, cleared on disconnect.
//
// Access discipline: exactly one writer (Append), any number of readers.
// Readers only ever see value copies via Snapshot; the live buffer is never
// exposed, so the writer cannot be observed mid-update.
type SampleWindow struct {
	mu        sync.Mutex
	retention time.Duration
	buf       []*Sample
	head      int
}

// NewSampleWindow creates a window retaining the trailing retention span of
// samples. Retention must lie in [MinRetention, MaxRetention].
func NewSampleWindow(retention time.Duration) (*SampleWindow, error) {
	if err := checkRetention(retention); err != nil {
		return nil, err
	}
	return &SampleWindow{retention: retention}, nil
}

// Append inserts s in arrival order, then evicts every sample older than the
// trailing retention span. Eviction is keyed off the newest ReceivedAt, so a
// replayed stream evicts the same way a live one does. Amortized O(1): the
// head index walks forward and the slice is compacted only occasionally.
func (w *SampleWindow) Append(s *Sample) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.buf = append(w.buf, s)
	w.evictLocked()
}

// SetRetention changes the window span and immediately re-evicts. Shrinking
// drops old samples at once; growing does not restore anything already
// evicted.
func (w *SampleWindow) SetRetention(retention time.Duration) error {
	if err := checkRetention(retention); err != nil {
		return err
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	w.retention = retention
	w.evictLocked()
	return nil
}

// Retention returns the current window span.
func (w *SampleWindow) Retention() time.Duration {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.retention
}

// Snapshot returns a read-consistent copy of the current contents, oldest
// first. The copy is independent of the live buffer: consumers may hold it
// across a render without blocking the writer.
func (w *SampleWindow) Snapshot() []Sample {
	w.mu.Lock()
	defer w.mu.Unlock()
	out := make([]Sample, len(w.buf)-w.head)
	for i, s := range w.buf[w.head:] {
		out[i] = *s
	}
	return out
}

// Len returns the number of retained samples.
func (w *SampleWindow) Len() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return len(w.buf) - w.head
}

// Clear empties the window. Called on disconnect.
func (w *SampleWindow) Clear() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.buf = nil
	w.head = 0
}

// evictLocked drops samples older than newest-retention, oldest first.
func (w *SampleWindow) evictLocked() {
	if w.head >= len(w.buf) {
		return
	}
	cutoff := w.buf[len(w.buf)-1].ReceivedAt.Add(-w.retention)
	for w.head < len(w.buf) && w.buf[w.head].ReceivedAt.Before(cutoff) {
		w.buf[w.head] = nil
		w.head++
	}
	if w.head > compactThreshold && w.head*2 >= len(w.buf) {
		w.buf = append(w.buf[:0], w.buf[w.head:]...)
		w.head = 0
	}
}

func checkRetention(retention time.Duration) error {
	if retention < MinRetention || retention > MaxRetention {
		return fmt.Errorf("retention %v out of range [%v, %v]", retention, MinRetention, MaxRetention)
	}
	return nil
}
