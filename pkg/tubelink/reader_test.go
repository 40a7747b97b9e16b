// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 UnB Embedded Systems Lab

package tubelink

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"testing"
	"time"
)

// chunkedReader feeds a fixed byte stream in small chunks to exercise
// partial reads, then reports io.EOF.
type chunkedReader struct {
	data  []byte
	chunk int
}

func (c *chunkedReader) Read(p []byte) (int, error) {
	if len(c.data) == 0 {
		return 0, io.EOF
	}
	n := c.chunk
	if n > len(c.data) {
		n = len(c.data)
	}
	if n > len(p) {
		n = len(p)
	}
	copy(p, c.data[:n])
	c.data = c.data[n:]
	return n, nil
}

func testWindow(t *testing.T) *SampleWindow {
	t.Helper()
	w, err := NewSampleWindow(DefaultRetention)
	if err != nil {
		t.Fatalf("NewSampleWindow failed: %v", err)
	}
	return w
}

// drain polls until the link reports an error, collecting all samples.
func drain(t *testing.T, r *LinkReader) []*Sample {
	t.Helper()
	var all []*Sample
	for {
		samples, err := r.Poll()
		all = append(all, samples...)
		if err != nil {
			return all
		}
	}
}

func validStream(n int) []byte {
	var stream []byte
	for i := 0; i < n; i++ {
		stream = append(stream, buildFrame(byte(i%4), [7]uint16{uint16(100 + i), uint16(i), 0, 235, 0, 0, 0})...)
	}
	return stream
}

func TestLinkReader_CleanStream(t *testing.T) {
	const n = 10
	r := NewLinkReader(&chunkedReader{data: validStream(n), chunk: 7}, testWindow(t))

	samples := drain(t, r)
	if len(samples) != n {
		t.Fatalf("decoded %d samples, want %d", len(samples), n)
	}
	for i, s := range samples {
		if s.HeightSetpointMm != uint16(100+i) {
			t.Errorf("sample %d: HeightSetpointMm = %d, want %d", i, s.HeightSetpointMm, 100+i)
		}
	}
	if got := r.Stats().Snapshot().Frames; got != n {
		t.Errorf("stats frames = %d, want %d", got, n)
	}
	if got := r.Window().Len(); got != n {
		t.Errorf("window holds %d samples, want %d", got, n)
	}
}

func TestLinkReader_ResyncAfterSpuriousByte(t *testing.T) {
	// One spurious byte before an otherwise valid sequence of N frames:
	// the reader must drop exactly that byte and still emit all N samples.
	const n = 5
	stream := append([]byte{0xA5}, validStream(n)...)
	r := NewLinkReader(&chunkedReader{data: stream, chunk: 16}, testWindow(t))

	samples := drain(t, r)
	if len(samples) != n {
		t.Fatalf("decoded %d samples, want %d", len(samples), n)
	}

	snap := r.Stats().Snapshot()
	if snap.DroppedBytes != 1 {
		t.Errorf("dropped bytes = %d, want 1", snap.DroppedBytes)
	}
	if snap.Discards != 0 {
		t.Errorf("discards = %d, want 0", snap.Discards)
	}
}

func TestLinkReader_SplitMidFrame(t *testing.T) {
	// Single-byte reads: every frame arrives split across 15 polls.
	const n = 3
	r := NewLinkReader(&chunkedReader{data: validStream(n), chunk: 1}, testWindow(t))

	samples := drain(t, r)
	if len(samples) != n {
		t.Fatalf("decoded %d samples, want %d", len(samples), n)
	}
}

func TestLinkReader_GarbledStreamDiscards(t *testing.T) {
	// A persistently garbled stream (no byte ever a valid mode code) must
	// be discarded after a bounded scan, not scanned forever.
	garbage := bytes.Repeat([]byte{0xEE}, 4*FrameSize)
	r := NewLinkReader(&chunkedReader{data: garbage, chunk: len(garbage)}, testWindow(t))

	samples := drain(t, r)
	if len(samples) != 0 {
		t.Fatalf("decoded %d samples from garbage", len(samples))
	}

	snap := r.Stats().Snapshot()
	if snap.Discards == 0 {
		t.Error("expected at least one buffer discard")
	}
	if snap.DroppedBytes+snap.DiscardedBytes != uint64(len(garbage)) {
		t.Errorf("accounted bytes = %d, want %d",
			snap.DroppedBytes+snap.DiscardedBytes, len(garbage))
	}
}

func TestLinkReader_RecoversBetweenGarbageBursts(t *testing.T) {
	// garbage, frame, garbage, frame: both frames must come through.
	var stream []byte
	stream = append(stream, 0xEE, 0xEF)
	stream = append(stream, buildFrame(0, [7]uint16{1, 0, 0, 0, 0, 0, 0})...)
	stream = append(stream, 0xFD)
	stream = append(stream, buildFrame(1, [7]uint16{2, 0, 0, 0, 0, 0, 0})...)
	r := NewLinkReader(&chunkedReader{data: stream, chunk: 8}, testWindow(t))

	samples := drain(t, r)
	if len(samples) != 2 {
		t.Fatalf("decoded %d samples, want 2", len(samples))
	}
	if samples[0].HeightSetpointMm != 1 || samples[1].HeightSetpointMm != 2 {
		t.Errorf("wrong samples decoded: %d, %d",
			samples[0].HeightSetpointMm, samples[1].HeightSetpointMm)
	}
}

func TestLinkReader_MonotonicStamps(t *testing.T) {
	const n = 50
	r := NewLinkReader(&chunkedReader{data: validStream(n), chunk: 64}, testWindow(t))

	samples := drain(t, r)
	if len(samples) != n {
		t.Fatalf("decoded %d samples, want %d", len(samples), n)
	}
	for i := 1; i < len(samples); i++ {
		if !samples[i].ReceivedAt.After(samples[i-1].ReceivedAt) {
			t.Fatalf("ReceivedAt not strictly monotonic at sample %d", i)
		}
	}
}

type failingReader struct {
	err error
}

func (f *failingReader) Read(p []byte) (int, error) {
	return 0, f.err
}

func TestLinkReader_ReadFailureIsTerminal(t *testing.T) {
	readErr := fmt.Errorf("device unplugged")
	r := NewLinkReader(&failingReader{err: readErr}, testWindow(t))

	_, err := r.Poll()
	var lerr *LinkError
	if !errors.As(err, &lerr) {
		t.Fatalf("expected LinkError, got %v", err)
	}
	if !errors.Is(err, readErr) {
		t.Errorf("LinkError does not wrap the read error: %v", err)
	}

	// Poisoned: subsequent polls return the same error without reading.
	_, err2 := r.Poll()
	if err2 != err {
		t.Errorf("second Poll returned %v, want the original LinkError", err2)
	}
}

func TestLinkReader_RunStopsOnCancel(t *testing.T) {
	pr, pw := io.Pipe()
	w := testWindow(t)
	r := NewLinkReader(pr, w)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- r.Run(ctx) }()

	if _, err := pw.Write(validStream(2)); err != nil {
		t.Fatalf("pipe write failed: %v", err)
	}

	// Cancel, then unblock the pending read by closing the link.
	cancel()
	pw.CloseWithError(io.ErrClosedPipe)

	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Errorf("Run returned %v, want context.Canceled", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not stop after cancel")
	}

	if w.Len() != 0 {
		t.Errorf("window not cleared on shutdown: %d samples remain", w.Len())
	}
}
