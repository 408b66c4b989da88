package command

import "fmt"

// Protocol constants.
const (
	FlagsDefault byte = 0b10110010
	FlagsToggle  byte = 0b10110101 // sent by the remote's toggle button; never encoded

	StateOn     byte = 0b1111
	StateOff    byte = 0b1011
	StateToggle byte = 0b0101 // never encoded

	FanOffCode byte = 0b0111
)

// TemperatureOff is the degree value that selects the reserved off code.
const TemperatureOff = 0

// temperatureOffCode is the nibble sent when the unit is off or in fan mode.
const temperatureOffCode byte = 0b1110

var modeCodes = map[Mode]byte{
	ModeCool: 0b0000,
	ModeHeat: 0b1100,
	ModeDry:  0b0100,
	ModeAuto: 0b1000,
	ModeFan:  0b0100, // shares Dry's code, distinguished by the temperature nibble
}

var fanCodes = map[FanSpeed]byte{
	FanAuto:   0b1011,
	FanLow:    0b1001,
	FanMedium: 0b0101,
	FanHigh:   0b0011,
}

// temperatureCodes[d-MinTemperature] is the nibble for d degrees. The codes
// are not monotonic; this is the unit's own ordering.
var temperatureCodes = [MaxTemperature - MinTemperature + 1]byte{
	0b0000, // 17
	0b0001, // 18
	0b0011, // 19
	0b0010, // 20
	0b0110, // 21
	0b0111, // 22
	0b0101, // 23
	0b0100, // 24
	0b1100, // 25
	0b1101, // 26
	0b1001, // 27
	0b1000, // 28
	0b1010, // 29
	0b1011, // 30
}

// TemperatureCode returns the 4-bit code for degrees, which must be in
// 17-30 or TemperatureOff.
func TemperatureCode(degrees int) (byte, error) {
	if degrees == TemperatureOff {
		return temperatureOffCode, nil
	}
	if degrees < MinTemperature || degrees > MaxTemperature {
		return 0, fmt.Errorf("%w: got %d", ErrTemperatureRange, degrees)
	}
	return temperatureCodes[degrees-MinTemperature], nil
}

// TemperatureFromCode is the inverse of TemperatureCode.
func TemperatureFromCode(code byte) (int, bool) {
	if code == temperatureOffCode {
		return TemperatureOff, true
	}
	for i, c := range temperatureCodes {
		if c == code {
			return MinTemperature + i, true
		}
	}
	return 0, false
}

func modeFromCode(code byte) (Mode, bool) {
	// ModeFan is resolved by the caller; Dry owns the shared code here.
	switch code {
	case modeCodes[ModeCool]:
		return ModeCool, true
	case modeCodes[ModeHeat]:
		return ModeHeat, true
	case modeCodes[ModeDry]:
		return ModeDry, true
	case modeCodes[ModeAuto]:
		return ModeAuto, true
	}
	return "", false
}

func fanFromCode(code byte) (FanSpeed, bool) {
	for f, c := range fanCodes {
		if c == code {
			return f, true
		}
	}
	return "", false
}
