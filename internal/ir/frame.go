package ir

import (
	"errors"
	"fmt"
	"strings"

	"github.com/sweeney/acremote/internal/command"
)

// Frame sizes.
const (
	RecordBytes   = 3
	FrameBytes    = 2 * RecordBytes // each record byte followed by its complement
	FramePulses   = FrameBytes * BitsPerByte
	CapturePulses = 2 * FramePulses // a transmission repeats the frame once
)

var (
	// ErrMalformedCapture is returned when a capture does not hold exactly
	// two identical frames.
	ErrMalformedCapture = errors.New("malformed capture")
	// ErrChecksum is returned when a frame byte is not followed by its complement.
	ErrChecksum = errors.New("checksum mismatch")
	// ErrFrameLength is returned when a frame is neither 3 nor 6 bytes long.
	ErrFrameLength = errors.New("frame length")
)

// Assemble renders rec as a 48-pulse frame: every byte followed by its
// bitwise complement.
func Assemble(rec command.Record) []Pulse {
	frame := make([]Pulse, 0, FramePulses)
	for _, b := range rec.Bytes() {
		frame = append(frame, ByteToPulses(b)...)
		frame = append(frame, ByteToPulses(^b)...)
	}
	return frame
}

// ValidateAndTrim drops Preamble and Invalid pulses from a capture and
// checks that what remains is two bit-identical 48-pulse frames. It returns
// the first frame, or false if the capture is malformed.
func ValidateAndTrim(captured []Pulse) ([]Pulse, bool) {
	data := make([]Pulse, 0, CapturePulses)
	for _, p := range captured {
		if p.IsData() {
			data = append(data, p)
		}
	}
	if len(data) != CapturePulses {
		return nil, false
	}

	first, second := data[:FramePulses], data[FramePulses:]
	for i := range first {
		if first[i].Category != second[i].Category {
			return nil, false
		}
	}
	return first, true
}

// VerifyChecksum reports whether every even byte of a 48-pulse frame is
// followed by its complement.
func VerifyChecksum(frame []Pulse) bool {
	if len(frame) != FramePulses {
		return false
	}
	bytes := PulsesToBytes(frame)
	for i := 0; i < len(bytes)/2; i++ {
		if bytes[2*i] != ^bytes[2*i+1] {
			return false
		}
	}
	return true
}

// RecordFromFrame reads a record from a 24-pulse (record bytes only) or
// 48-pulse (bytes and complements) frame. For the latter the complements
// are skipped without being checked; see VerifyChecksum.
func RecordFromFrame(frame []Pulse) (command.Record, error) {
	var b [RecordBytes]byte
	switch len(frame) {
	case RecordBytes * BitsPerByte:
		copy(b[:], PulsesToBytes(frame))
	case FramePulses:
		all := PulsesToBytes(frame)
		for i := range b {
			b[i] = all[2*i]
		}
	default:
		return command.Record{}, fmt.Errorf("%w: %d pulses", ErrFrameLength, len(frame))
	}
	return command.RecordFromBytes(b), nil
}

// DecodeCapture runs a raw capture through validation, checksum and record
// extraction. The trimmed frame is returned whenever validation passed, so
// callers can still show a frame that failed its checksum.
func DecodeCapture(captured []Pulse) (command.Record, []Pulse, error) {
	frame, ok := ValidateAndTrim(captured)
	if !ok {
		return command.Record{}, nil, ErrMalformedCapture
	}
	if !VerifyChecksum(frame) {
		return command.Record{}, frame, ErrChecksum
	}
	rec, err := RecordFromFrame(frame)
	if err != nil {
		return command.Record{}, frame, err
	}
	return rec, frame, nil
}

// FormatFrame renders data pulses in 8-bit groups followed by the checksum
// result, e.g. "10110010 01001101 ... (chksum: true)".
func FormatFrame(frame []Pulse) string {
	var sb strings.Builder
	n := 0
	for _, p := range frame {
		s := p.String()
		if s == "" {
			continue
		}
		if n > 0 && n%BitsPerByte == 0 {
			sb.WriteByte(' ')
		}
		sb.WriteString(s)
		n++
	}
	fmt.Fprintf(&sb, " (chksum: %t)", VerifyChecksum(frame))
	return sb.String()
}
