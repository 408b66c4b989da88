package decoder

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sweeney/acremote/internal/command"
	"github.com/sweeney/acremote/internal/gpio"
	"github.com/sweeney/acremote/internal/ir"
)

var epoch = time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)

func falling(us int) gpio.Edge {
	return gpio.Edge{Type: gpio.FallingEdge, Timestamp: time.Duration(us) * time.Microsecond}
}

func rising(us int) gpio.Edge {
	return gpio.Edge{Type: gpio.RisingEdge, Timestamp: time.Duration(us) * time.Microsecond}
}

func transmission(t *testing.T, c command.Command) []gpio.Edge {
	t.Helper()
	require.NoError(t, c.Validate())
	frame := ir.Assemble(command.Encode(c))
	return gpio.EdgesFromTimings(time.Second, ir.Timings(frame))
}

func TestNew(t *testing.T) {
	d := New(DefaultIdle)
	require.NotNil(t, d)
	assert.Equal(t, DefaultIdle, d.idle)
	assert.Zero(t, d.Pending())
	assert.Zero(t, d.EdgeCount())
}

func TestFirstEdgeProducesNoPulse(t *testing.T) {
	for _, e := range []gpio.Edge{falling(1000), rising(1000)} {
		t.Run(e.Type.String(), func(t *testing.T) {
			d := New(DefaultIdle)
			d.Process(e, epoch)
			assert.Zero(t, d.Pending())
			assert.Equal(t, 1, d.EdgeCount())
		})
	}
}

func TestRisingEdgesOnlyMoveReference(t *testing.T) {
	d := New(DefaultIdle)
	d.Process(falling(0), epoch)
	d.Process(rising(576), epoch)
	assert.Zero(t, d.Pending(), "rising edge must not add a pulse")

	// interval is measured from the rising edge, not the previous falling edge
	d.Process(falling(576+1582), epoch)
	require.Equal(t, 1, d.Pending())

	burst := d.Flush(epoch.Add(time.Second))
	require.Len(t, burst, 1)
	assert.Equal(t, ir.One, burst[0].Category)
	assert.Equal(t, 1582*time.Microsecond, burst[0].Duration)
}

func TestConsecutiveFallingEdges(t *testing.T) {
	d := New(DefaultIdle)
	d.Process(falling(0), epoch)
	d.Process(falling(503), epoch)
	d.Process(falling(503+4400), epoch)
	d.Process(falling(503+4400+900), epoch)

	burst := d.Flush(epoch.Add(time.Second))
	require.Len(t, burst, 3)
	assert.Equal(t, ir.Zero, burst[0].Category)
	assert.Equal(t, ir.Preamble, burst[1].Category)
	assert.Equal(t, ir.Invalid, burst[2].Category)
}

func TestFlushAfterIdle(t *testing.T) {
	d := New(DefaultIdle)
	d.Process(falling(0), epoch)
	d.Process(rising(576), epoch)
	d.Process(falling(1079), epoch)
	last := epoch.Add(5 * time.Millisecond)
	d.Process(rising(1655), last)
	d.Process(falling(2158), last)

	assert.Nil(t, d.Flush(last.Add(50*time.Millisecond)), "50ms of quiet is not enough")
	assert.Nil(t, d.Flush(last.Add(DefaultIdle)), "exactly idle is not enough")
	assert.Equal(t, 2, d.Pending(), "pulses kept until flushed")

	burst := d.Flush(last.Add(150 * time.Millisecond))
	require.Len(t, burst, 2)
	assert.Equal(t, ir.Zero, burst[0].Category)
	assert.Equal(t, ir.Zero, burst[1].Category)
	assert.Zero(t, d.Pending())

	assert.Nil(t, d.Flush(last.Add(200*time.Millisecond)), "burst delivered only once")
}

func TestFlushWithNothingPending(t *testing.T) {
	d := New(DefaultIdle)
	assert.Nil(t, d.Flush(epoch))

	d.Process(falling(0), epoch)
	assert.Nil(t, d.Flush(epoch.Add(time.Second)), "single edge yields no pulse")
}

func TestEdgeAfterFlushStartsNewBurst(t *testing.T) {
	d := New(DefaultIdle)
	d.Process(falling(0), epoch)
	d.Process(falling(503), epoch)
	require.Len(t, d.Flush(epoch.Add(time.Second)), 1)

	// The gap since the previous burst is classified too; it is far outside
	// every band and the validator discards it.
	later := epoch.Add(2 * time.Second)
	d.Process(falling(2_000_000), later)
	d.Process(falling(2_000_503), later)

	burst := d.Flush(later.Add(time.Second))
	require.Len(t, burst, 2)
	assert.Equal(t, ir.Invalid, burst[0].Category)
	assert.Equal(t, ir.Zero, burst[1].Category)
}

func TestFullTransmission(t *testing.T) {
	cmd := command.Command{On: true, Mode: command.ModeCool, Fan: command.FanHigh, Temperature: 22}
	edges := transmission(t, cmd)

	d := New(DefaultIdle)
	for _, e := range edges {
		d.Process(e, epoch)
	}
	burst := d.Flush(epoch.Add(150 * time.Millisecond))
	require.Len(t, burst, 99)

	var preambles int
	for _, p := range burst {
		if p.Category == ir.Preamble {
			preambles++
		}
	}
	assert.Equal(t, 3, preambles)

	rec, frame, err := ir.DecodeCapture(burst)
	require.NoError(t, err)
	assert.Equal(t, ir.Assemble(command.Encode(cmd)), frame)

	got, err := command.Decode(rec)
	require.NoError(t, err)
	assert.Equal(t, cmd, got)
}

func TestRunFlushesOnTick(t *testing.T) {
	cmd := command.Command{On: true, Mode: command.ModeHeat, Fan: command.FanLow, Temperature: 25}
	edges := transmission(t, cmd)

	edgeCh := make(chan gpio.Edge)
	tick := make(chan time.Time)
	out := make(chan []ir.Pulse, 1)

	var elapsed atomic.Int64
	clock := func() time.Time { return epoch.Add(time.Duration(elapsed.Load())) }

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan error, 1)
	d := New(DefaultIdle)
	go func() { done <- d.Run(ctx, edgeCh, tick, clock, out) }()

	for _, e := range edges {
		edgeCh <- e
	}

	// Each unbuffered send completes only once Run is back in its select,
	// so the second tick guarantees the first one was handled.
	tick <- time.Time{}
	tick <- time.Time{}
	assert.Len(t, out, 0, "no burst before the idle period")

	elapsed.Store(int64(150 * time.Millisecond))
	tick <- time.Time{}

	var burst []ir.Pulse
	select {
	case burst = <-out:
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for burst")
	}
	assert.Len(t, burst, 99)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("Run did not return after cancel")
	}
}

func TestRunFlushesWhenSourceCloses(t *testing.T) {
	cmd := command.Command{On: false, Mode: command.ModeCool}
	src := gpio.NewFakeSource(transmission(t, cmd))

	out := make(chan []ir.Pulse, 1)
	d := New(DefaultIdle)
	err := d.Run(context.Background(), src.Edges(), nil, time.Now, out)
	require.NoError(t, err)

	require.Len(t, out, 1)
	burst := <-out
	rec, _, err := ir.DecodeCapture(burst)
	require.NoError(t, err)

	got, err := command.Decode(rec)
	require.NoError(t, err)
	assert.Equal(t, cmd, got)
}

func TestRunSourceClosesWithNothingPending(t *testing.T) {
	out := make(chan []ir.Pulse, 1)
	d := New(DefaultIdle)

	err := d.Run(context.Background(), gpio.NewFakeSource(nil).Edges(), nil, time.Now, out)
	require.NoError(t, err)
	assert.Len(t, out, 0)
}

func TestRunStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	d := New(DefaultIdle)
	err := d.Run(ctx, make(chan gpio.Edge), nil, time.Now, make(chan []ir.Pulse))
	assert.NoError(t, err)
}

func TestRunCancelWhileSending(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	edgeCh := make(chan gpio.Edge)
	tick := make(chan time.Time)
	out := make(chan []ir.Pulse) // never read

	done := make(chan error, 1)
	d := New(DefaultIdle)
	go func() { done <- d.Run(ctx, edgeCh, tick, time.Now, out) }()

	edgeCh <- falling(0)
	edgeCh <- falling(503)
	close(edgeCh)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("Run blocked on an unread output channel")
	}
}
