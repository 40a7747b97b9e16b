// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 UnB Embedded Systems Lab

package tubelink

import (
	"context"
	"io"
	"time"
)

// readChunkSize is the per-read scratch size; a few frames' worth so a
// delayed read cannot grow the window unbounded before extraction runs.
const readChunkSize = 256

// resyncLimit caps how many single-byte shifts one poll may attempt before
// the buffered bytes are discarded (bounded scan on a garbled stream).
const resyncLimit = FrameSize

// LinkReader converts the link's unbounded byte stream into decoded Samples
// appended to a SampleWindow. It tolerates partial reads, dropped bytes and
// stream desynchronization.
//
// The wire has no start-of-frame marker, so resynchronization is heuristic:
// when the byte at offset 0 is not a valid mode code, exactly one leading
// byte is dropped and decode is retried on the shifted window. A non-aligned
// window whose leading byte happens to match a mode code will decode as a
// bogus frame; the firmware's field layout makes this unlikely to persist
// but it is a known limitation of delimiter-free framing, not a guaranteed
// scheme.
//
// A LinkReader lives for one connection. After a read failure it is dead:
// reconnecting requires a fresh LinkReader and a fresh SampleWindow.
type LinkReader struct {
	link   io.Reader
	window *SampleWindow
	stats  *LinkStats

	buf       []byte
	chunk     []byte
	lastStamp time.Time
	failed    error
}

// NewLinkReader creates a reader that decodes frames from link and appends
// them to window.
func NewLinkReader(link io.Reader, window *SampleWindow) *LinkReader {
	return &LinkReader{
		link:   link,
		window: window,
		stats:  NewLinkStats(),
		buf:    make([]byte, 0, readChunkSize+FrameSize),
		chunk:  make([]byte, readChunkSize),
	}
}

// Stats returns the reader's link-health counters.
func (r *LinkReader) Stats() *LinkStats {
	return r.stats
}

// Window returns the sample window this reader appends to.
func (r *LinkReader) Window() *SampleWindow {
	return r.window
}

// Poll performs one blocking read on the link and decodes every complete
// frame buffered so far, appending each Sample to the window. It returns the
// samples decoded this cycle; an empty batch is normal when the read ended
// mid-frame. A read failure returns a LinkError and poisons the reader:
// every subsequent Poll returns the same error.
func (r *LinkReader) Poll() ([]*Sample, error) {
	if r.failed != nil {
		return nil, r.failed
	}

	n, err := r.link.Read(r.chunk)
	if n > 0 {
		r.buf = append(r.buf, r.chunk[:n]...)
	}
	samples := r.extract()
	if err != nil {
		r.failed = &LinkError{Err: err}
		return samples, r.failed
	}
	return samples, nil
}

// Run polls until ctx is canceled or the link fails. Cancellation is
// coarse-grained: a blocking read finishes (or the link is closed underneath
// it) before the loop observes ctx. The window is cleared on the way out.
func (r *LinkReader) Run(ctx context.Context) error {
	defer r.window.Clear()
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		if _, err := r.Poll(); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return err
		}
	}
}

// extract decodes frames from the front of the byte window, shifting one
// byte at a time past garbage, with at most resyncLimit shifts per cycle.
func (r *LinkReader) extract() []*Sample {
	var samples []*Sample
	off := 0
	shifts := 0

	for len(r.buf)-off >= FrameSize {
		s, err := DecodeFrame(r.buf[off : off+FrameSize])
		if err != nil {
			// Only InvalidMode can happen on a full-length slice.
			r.stats.recordDroppedByte()
			off++
			shifts++
			if shifts >= resyncLimit {
				r.stats.recordDiscard(len(r.buf) - off)
				r.buf = r.buf[:0]
				return samples
			}
			continue
		}

		s.ReceivedAt = r.stamp()
		r.window.Append(s)
		r.stats.recordFrame()
		samples = append(samples, s)
		off += FrameSize
	}

	if off > 0 {
		r.buf = r.buf[:copy(r.buf, r.buf[off:])]
	}
	return samples
}

// stamp returns a strictly monotonic receive time. time.Now can repeat on
// coarse clocks; equal stamps are bumped by a nanosecond so ReceivedAt is a
// strict ordering key per reader instance.
func (r *LinkReader) stamp() time.Time {
	now := time.Now()
	if !now.After(r.lastStamp) {
		now = r.lastStamp.Add(time.Nanosecond)
	}
	r.lastStamp = now
	return now
}
