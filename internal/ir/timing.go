package ir

import (
	"encoding/json"
	"time"
)

// CodeName is the key the replay tool looks the timing list up by.
const CodeName = "generated"

// repetitions is how many times a frame is sent per transmission.
const repetitions = 2

// TimingDocument is the file handed to the transmission tool: alternating
// mark and space durations in microseconds, starting with a mark.
type TimingDocument struct {
	Generated []int `json:"generated"`
}

// Timings renders a frame as a full transmission: per repetition a double
// preamble, a gap, then each symbol followed by a gap; repetitions are
// separated by DurationSeparator. Pulses without a nominal duration are skipped.
func Timings(frame []Pulse) []int {
	out := make([]int, 0, repetitions*(3+2*len(frame))+repetitions-1)
	for i := 0; i < repetitions; i++ {
		if i > 0 {
			out = append(out, micros(DurationSeparator))
		}
		out = append(out, micros(DurationPreamble), micros(DurationPreamble), micros(DurationGap))
		for _, p := range frame {
			d := p.Nominal()
			if d == 0 {
				continue
			}
			out = append(out, micros(d), micros(DurationGap))
		}
	}
	return out
}

// EncodeTimings serializes the transmission of frame as a TimingDocument.
func EncodeTimings(frame []Pulse) ([]byte, error) {
	return json.Marshal(TimingDocument{Generated: Timings(frame)})
}

func micros(d time.Duration) int {
	return int(d / time.Microsecond)
}
