// Package ir implements the infrared pulse layer of the AC remote protocol:
// classifying measured intervals, packing pulses into bytes, and assembling
// or validating the 48-pulse command frame.
package ir

import (
	"fmt"
	"time"
)

// Category is the symbolic meaning of a measured interval.
type Category int

const (
	Invalid Category = iota
	Preamble
	One
	Zero
)

func (c Category) String() string {
	switch c {
	case Preamble:
		return "PREAMBLE"
	case One:
		return "ONE"
	case Zero:
		return "ZERO"
	default:
		return "INVALID"
	}
}

// Nominal durations used when rendering pulses for transmission.
const (
	DurationPreamble  = 4400 * time.Microsecond
	DurationOne       = 1582 * time.Microsecond
	DurationZero      = 503 * time.Microsecond
	DurationGap       = 576 * time.Microsecond  // mark between symbols
	DurationSeparator = 5000 * time.Microsecond // space between the two repetitions
)

// Classification bands. All bounds are exclusive.
const (
	zeroMin     = 350_000 * time.Nanosecond
	zeroMax     = 650_000 * time.Nanosecond
	oneMin      = 1_350_000 * time.Nanosecond
	oneMax      = 1_650_000 * time.Nanosecond
	preambleMin = 4_000_000 * time.Nanosecond
	preambleMax = 6_000_000 * time.Nanosecond
)

// Pulse is a classified interval. Duration is the measured value, or the
// nominal one for pulses synthesized for transmission.
type Pulse struct {
	Category Category
	Duration time.Duration
}

// Classify maps a measured interval to a Pulse. Intervals outside every
// band are Invalid.
func Classify(d time.Duration) Pulse {
	switch {
	case d > zeroMin && d < zeroMax:
		return Pulse{Category: Zero, Duration: d}
	case d > oneMin && d < oneMax:
		return Pulse{Category: One, Duration: d}
	case d > preambleMin && d < preambleMax:
		return Pulse{Category: Preamble, Duration: d}
	default:
		return Pulse{Category: Invalid, Duration: d}
	}
}

// NominalOne returns a One pulse with its transmit duration.
func NominalOne() Pulse {
	return Pulse{Category: One, Duration: DurationOne}
}

// NominalZero returns a Zero pulse with its transmit duration.
func NominalZero() Pulse {
	return Pulse{Category: Zero, Duration: DurationZero}
}

// IsData reports whether the pulse carries a bit.
func (p Pulse) IsData() bool {
	return p.Category == One || p.Category == Zero
}

// Bit returns the payload bit of a One or Zero pulse.
// Calling it on any other pulse is a caller bug and panics.
func (p Pulse) Bit() byte {
	switch p.Category {
	case One:
		return 1
	case Zero:
		return 0
	default:
		panic(fmt.Sprintf("ir: bit of non-data pulse %s (%v)", p.Category, p.Duration))
	}
}

// Nominal returns the duration the pulse is rendered with for transmission,
// or 0 for Invalid pulses.
func (p Pulse) Nominal() time.Duration {
	switch p.Category {
	case One:
		return DurationOne
	case Zero:
		return DurationZero
	case Preamble:
		return DurationPreamble
	default:
		return 0
	}
}

// String renders data pulses as "1" or "0" and everything else as "".
func (p Pulse) String() string {
	switch p.Category {
	case One:
		return "1"
	case Zero:
		return "0"
	default:
		return ""
	}
}
