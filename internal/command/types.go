// Package command maps logical AC settings to the 3-byte record carried by
// the infrared frame, and back.
package command

import (
	"errors"
	"fmt"
)

// Mode is the operating mode of the unit.
type Mode string

const (
	ModeCool Mode = "COOL"
	ModeHeat Mode = "HEAT"
	ModeDry  Mode = "DRY"
	ModeAuto Mode = "AUTO"
	// ModeFan runs the fan only. On the wire it is Dry mode with the
	// temperature nibble pinned to the off code.
	ModeFan Mode = "FAN"
)

// FanSpeed is the requested fan speed.
type FanSpeed string

const (
	FanAuto   FanSpeed = "AUTO"
	FanLow    FanSpeed = "LOW"
	FanMedium FanSpeed = "MEDIUM"
	FanHigh   FanSpeed = "HIGH"
)

// Temperature limits in degrees Celsius.
const (
	MinTemperature = 17
	MaxTemperature = 30
)

var (
	// ErrTemperatureRange is returned for temperatures outside 17-30.
	ErrTemperatureRange = errors.New("temperature has to be between 17 and 30")
	// ErrUnknownMode is returned for modes not in the protocol.
	ErrUnknownMode = errors.New("unknown mode")
	// ErrUnknownFan is returned for fan speeds not in the protocol.
	ErrUnknownFan = errors.New("unknown fan speed")
	// ErrUnknownCode is returned when a received record holds a nibble
	// outside the protocol tables.
	ErrUnknownCode = errors.New("unknown code")
)

// Command is the logical intent sent to or received from the unit.
// Temperature is only meaningful when On is true and Mode is not ModeFan;
// otherwise it is 0.
type Command struct {
	On          bool
	Mode        Mode
	Fan         FanSpeed
	Temperature int
}

// Validate checks that c can be encoded. Off commands are always valid.
func (c Command) Validate() error {
	if !c.On {
		return nil
	}
	if _, ok := modeCodes[c.Mode]; !ok {
		return fmt.Errorf("%w: %q", ErrUnknownMode, c.Mode)
	}
	if _, ok := fanCodes[c.Fan]; !ok {
		return fmt.Errorf("%w: %q", ErrUnknownFan, c.Fan)
	}
	if c.Mode == ModeFan {
		return nil
	}
	if c.Temperature < MinTemperature || c.Temperature > MaxTemperature {
		return fmt.Errorf("%w: got %d", ErrTemperatureRange, c.Temperature)
	}
	return nil
}

func (c Command) String() string {
	if !c.On {
		return "OFF"
	}
	if c.Mode == ModeFan {
		return fmt.Sprintf("ON %s fan=%s", c.Mode, c.Fan)
	}
	return fmt.Sprintf("ON %s fan=%s %d°C", c.Mode, c.Fan, c.Temperature)
}

// ParseMode converts a command-line mode name ("cool", "heat", "dry",
// "fan", "auto") to a Mode.
func ParseMode(s string) (Mode, error) {
	switch s {
	case "cool":
		return ModeCool, nil
	case "heat":
		return ModeHeat, nil
	case "dry":
		return ModeDry, nil
	case "fan":
		return ModeFan, nil
	case "auto":
		return ModeAuto, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownMode, s)
}

// ParseFan converts a command-line fan name ("low", "medium", "high",
// "auto") to a FanSpeed.
func ParseFan(s string) (FanSpeed, error) {
	switch s {
	case "low":
		return FanLow, nil
	case "medium":
		return FanMedium, nil
	case "high":
		return FanHigh, nil
	case "auto":
		return FanAuto, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownFan, s)
}
