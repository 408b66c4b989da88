package ir

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sweeney/acremote/internal/command"
)

// coolHigh22 is Cool, fan High, 22°C, on.
var coolHigh22 = command.Record{Flags: 0b10110010, FanAndState: 0b00111111, TempAndMode: 0b01110000}

// capture returns what a receiver sees for one transmission of frame.
func capture(frame []Pulse) []Pulse {
	out := []Pulse{{Category: Preamble, Duration: DurationPreamble}}
	out = append(out, frame...)
	out = append(out,
		Pulse{Category: Preamble, Duration: DurationSeparator},
		Pulse{Category: Preamble, Duration: DurationPreamble})
	return append(out, frame...)
}

func allCommands() []command.Command {
	var cmds []command.Command
	modes := []command.Mode{command.ModeCool, command.ModeHeat, command.ModeDry, command.ModeAuto, command.ModeFan}
	fans := []command.FanSpeed{command.FanAuto, command.FanLow, command.FanMedium, command.FanHigh}
	for _, m := range modes {
		for _, f := range fans {
			for deg := command.MinTemperature; deg <= command.MaxTemperature; deg++ {
				cmds = append(cmds, command.Command{On: true, Mode: m, Fan: f, Temperature: deg})
			}
		}
		cmds = append(cmds, command.Command{On: false, Mode: m})
	}
	return cmds
}

func TestAssembleLayout(t *testing.T) {
	frame := Assemble(coolHigh22)
	require.Len(t, frame, FramePulses)

	bytes := PulsesToBytes(frame)
	assert.Equal(t, []byte{0xb2, 0x4d, 0x3f, 0xc0, 0x70, 0x8f}, bytes)
	for i := 0; i < 3; i++ {
		assert.Equal(t, bytes[2*i], ^bytes[2*i+1], "byte %d", i)
	}
}

func TestChecksumHoldsForEncodedCommands(t *testing.T) {
	for _, c := range allCommands() {
		frame := Assemble(command.Encode(c))
		assert.True(t, VerifyChecksum(frame), "command %s", c)
	}
}

func TestVerifyChecksumDetectsFlippedBit(t *testing.T) {
	for i := 0; i < FramePulses; i++ {
		frame := Assemble(coolHigh22)
		frame[i] = flip(frame[i])
		assert.False(t, VerifyChecksum(frame), "flipped pulse %d", i)
	}
}

func TestVerifyChecksumWrongLength(t *testing.T) {
	frame := Assemble(coolHigh22)
	assert.False(t, VerifyChecksum(frame[:40]))
	assert.False(t, VerifyChecksum(nil))
}

func TestValidateAndTrimAcceptsMatchingHalves(t *testing.T) {
	frame := Assemble(coolHigh22)
	data := append(append([]Pulse{}, frame...), frame...)

	got, ok := ValidateAndTrim(data)
	require.True(t, ok)
	assert.Equal(t, frame, got)
}

func TestValidateAndTrimDropsPreambleAndInvalid(t *testing.T) {
	frame := Assemble(coolHigh22)
	captured := capture(frame)
	captured = append([]Pulse{{Category: Invalid, Duration: 20_000_000}}, captured...)
	captured = append(captured, Pulse{Category: Invalid, Duration: 100})

	got, ok := ValidateAndTrim(captured)
	require.True(t, ok)
	assert.Equal(t, frame, got)
}

func TestValidateAndTrimComparesCategoriesNotDurations(t *testing.T) {
	frame := Assemble(coolHigh22)
	second := make([]Pulse, len(frame))
	for i, p := range frame {
		second[i] = Pulse{Category: p.Category, Duration: p.Duration + 20_000}
	}

	got, ok := ValidateAndTrim(append(append([]Pulse{}, frame...), second...))
	require.True(t, ok)
	assert.Equal(t, frame, got)
}

func TestValidateAndTrimRejectsDisagreement(t *testing.T) {
	for _, pos := range []int{0, 7, 23, 47} {
		frame := Assemble(coolHigh22)
		second := append([]Pulse{}, frame...)
		second[pos] = flip(second[pos])

		_, ok := ValidateAndTrim(append(append([]Pulse{}, frame...), second...))
		assert.False(t, ok, "second half differs at %d", pos)
	}
}

func TestValidateAndTrimRejectsWrongCount(t *testing.T) {
	frame := Assemble(coolHigh22)
	data := append(append([]Pulse{}, frame...), frame...)

	_, ok := ValidateAndTrim(data[:95])
	assert.False(t, ok, "95 pulses")

	_, ok = ValidateAndTrim(append(data, NominalOne()))
	assert.False(t, ok, "97 pulses")

	_, ok = ValidateAndTrim(frame)
	assert.False(t, ok, "single frame")

	_, ok = ValidateAndTrim(nil)
	assert.False(t, ok, "empty")
}

func TestRecordFromFrame(t *testing.T) {
	frame := Assemble(coolHigh22)

	rec, err := RecordFromFrame(frame)
	require.NoError(t, err)
	assert.Equal(t, coolHigh22, rec)

	var short []Pulse
	for _, b := range coolHigh22.Bytes() {
		short = append(short, ByteToPulses(b)...)
	}
	rec, err = RecordFromFrame(short)
	require.NoError(t, err)
	assert.Equal(t, coolHigh22, rec)

	_, err = RecordFromFrame(frame[:32])
	assert.ErrorIs(t, err, ErrFrameLength)
}

func TestDecodeCapture(t *testing.T) {
	frame := Assemble(coolHigh22)

	rec, got, err := DecodeCapture(capture(frame))
	require.NoError(t, err)
	assert.Equal(t, coolHigh22, rec)
	assert.Equal(t, frame, got)
}

func TestDecodeCaptureMalformed(t *testing.T) {
	frame := Assemble(coolHigh22)

	_, got, err := DecodeCapture(capture(frame)[:60])
	assert.ErrorIs(t, err, ErrMalformedCapture)
	assert.Nil(t, got)
}

func TestDecodeCaptureChecksum(t *testing.T) {
	// Both repetitions agree, but the first complement byte is wrong.
	frame := Assemble(coolHigh22)
	frame[8] = flip(frame[8])

	_, got, err := DecodeCapture(capture(frame))
	assert.ErrorIs(t, err, ErrChecksum)
	assert.Equal(t, frame, got, "trimmed frame is returned for display")
}

func TestFormatFrame(t *testing.T) {
	got := FormatFrame(Assemble(coolHigh22))
	assert.Equal(t, "10110010 01001101 00111111 11000000 01110000 10001111 (chksum: true)", got)
}

func TestFormatFrameChecksumFailure(t *testing.T) {
	frame := Assemble(coolHigh22)
	frame[0] = flip(frame[0])
	assert.True(t, strings.HasSuffix(FormatFrame(frame), "(chksum: false)"))
}

func TestTimings(t *testing.T) {
	timings := Timings(Assemble(coolHigh22))
	require.Len(t, timings, 199)

	assert.Equal(t, []int{4400, 4400, 576}, timings[:3])
	// first symbol is the MSB of 0b10110010
	assert.Equal(t, []int{1582, 576, 503, 576}, timings[3:7])
	assert.Equal(t, 576, timings[98])
	assert.Equal(t, 5000, timings[99])
	assert.Equal(t, []int{4400, 4400, 576}, timings[100:103])
	assert.Equal(t, timings[3:99], timings[103:199], "both repetitions carry the same symbols")
}

func TestEncodeTimings(t *testing.T) {
	data, err := EncodeTimings(Assemble(coolHigh22))
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(data), `{"generated":[4400,4400,576,1582,576,503,`), string(data))

	var doc TimingDocument
	require.NoError(t, json.Unmarshal(data, &doc))
	assert.Len(t, doc.Generated, 199)
}

func flip(p Pulse) Pulse {
	if p.Category == One {
		return NominalZero()
	}
	return NominalOne()
}
