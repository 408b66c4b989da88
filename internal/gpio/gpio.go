// Package gpio provides edge events from the IR receiver line with hardware
// abstraction. The real implementation uses the Linux GPIO character device.
// The fake implementation allows testing without hardware.
package gpio

import "time"

// EdgeType is the direction of a line transition.
type EdgeType int

const (
	RisingEdge EdgeType = iota + 1
	FallingEdge
)

func (t EdgeType) String() string {
	switch t {
	case RisingEdge:
		return "RISING"
	case FallingEdge:
		return "FALLING"
	default:
		return "UNKNOWN"
	}
}

// Edge is a single transition. Timestamp comes from a monotonic clock and
// is only meaningful relative to other edges of the same source.
type Edge struct {
	Type      EdgeType
	Timestamp time.Duration
}

// EdgeSource delivers edges in arrival order.
type EdgeSource interface {
	// Edges returns the event channel. It is closed when the source is closed.
	Edges() <-chan Edge

	// Close releases GPIO resources.
	Close() error
}

// Defaults (BCM numbering)
const (
	DefaultChip   = "gpiochip0"
	DefaultRxLine = 17 // IR receiver output
	DefaultTxPin  = 18 // IR LED, driven by the transmission tool
)
