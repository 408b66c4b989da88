// Package decoder batches receiver edges into pulse bursts, one burst per
// transmission, using a quiet period to detect where a transmission ends.
package decoder

import (
	"context"
	"time"

	"github.com/sweeney/acremote/internal/gpio"
	"github.com/sweeney/acremote/internal/ir"
)

// Default timing.
const (
	DefaultTick = 50 * time.Millisecond
	DefaultIdle = 100 * time.Millisecond
)

// Decoder accumulates pulses from falling-edge intervals.
//
// Two clocks are involved and never compared with each other: edge
// timestamps measure intervals, and the caller's clock (passed to Process
// and Flush) measures the quiet period.
type Decoder struct {
	idle time.Duration

	edges         int
	lastTimestamp time.Duration
	lastSeen      time.Time
	pending       []ir.Pulse
}

// New creates a decoder that flushes after idle without edges.
func New(idle time.Duration) *Decoder {
	return &Decoder{idle: idle}
}

// Process takes the next edge, observed at now. Falling edges after the
// first edge append the classified interval since the previous edge.
// Rising edges only move the reference point.
func (d *Decoder) Process(e gpio.Edge, now time.Time) {
	if d.edges > 0 && e.Type == gpio.FallingEdge {
		d.pending = append(d.pending, ir.Classify(e.Timestamp-d.lastTimestamp))
	}
	d.edges++
	d.lastTimestamp = e.Timestamp
	d.lastSeen = now
}

// Flush returns the pending burst and clears it if more than the idle
// period has passed since the last edge. It returns nil otherwise.
func (d *Decoder) Flush(now time.Time) []ir.Pulse {
	if len(d.pending) == 0 {
		return nil
	}
	if now.Sub(d.lastSeen) <= d.idle {
		return nil
	}
	return d.take()
}

func (d *Decoder) take() []ir.Pulse {
	burst := d.pending
	d.pending = nil
	return burst
}

// Pending returns the number of accumulated pulses.
func (d *Decoder) Pending() int {
	return len(d.pending)
}

// EdgeCount returns the number of edges processed so far.
func (d *Decoder) EdgeCount() int {
	return d.edges
}

// Run feeds edges into the decoder and checks for a quiet period on every
// tick, sending completed bursts to out. When edges is closed the pending
// burst, if any, is sent before returning. Run returns nil when ctx is done
// or edges is closed; it never interrupts the processing of a single edge.
func (d *Decoder) Run(ctx context.Context, edges <-chan gpio.Edge, tick <-chan time.Time, now func() time.Time, out chan<- []ir.Pulse) error {
	for {
		select {
		case <-ctx.Done():
			return nil

		case e, ok := <-edges:
			if !ok {
				if len(d.pending) > 0 {
					d.send(ctx, out, d.take())
				}
				return nil
			}
			d.Process(e, now())

		case <-tick:
			if burst := d.Flush(now()); burst != nil {
				if !d.send(ctx, out, burst) {
					return nil
				}
			}
		}
	}
}

func (d *Decoder) send(ctx context.Context, out chan<- []ir.Pulse, burst []ir.Pulse) bool {
	select {
	case out <- burst:
		return true
	case <-ctx.Done():
		return false
	}
}
