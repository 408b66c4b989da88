package command

import "fmt"

// Record is the wire form of a command: three bytes, each split into two
// nibbles by position.
//
//	Flags        protocol marker
//	FanAndState  high nibble fan code, low nibble power state
//	TempAndMode  high nibble temperature code, low nibble mode code
type Record struct {
	Flags       byte
	FanAndState byte
	TempAndMode byte
}

// RecordFromBytes builds a record from its three bytes in wire order.
func RecordFromBytes(b [3]byte) Record {
	return Record{Flags: b[0], FanAndState: b[1], TempAndMode: b[2]}
}

// Bytes returns the record in wire order.
func (r Record) Bytes() [3]byte {
	return [3]byte{r.Flags, r.FanAndState, r.TempAndMode}
}

func (r Record) FanCode() byte         { return r.FanAndState >> 4 }
func (r Record) StateCode() byte       { return r.FanAndState & 0x0f }
func (r Record) TemperatureCode() byte { return r.TempAndMode >> 4 }
func (r Record) ModeCode() byte        { return r.TempAndMode & 0x0f }

// String renders the record as three 8-bit groups.
func (r Record) String() string {
	return fmt.Sprintf("%08b %08b %08b", r.Flags, r.FanAndState, r.TempAndMode)
}

// Encode maps c to its record. Off commands carry the off fan and
// temperature codes whatever c holds; ModeFan forces the off temperature
// code. c must pass Validate: an unmapped temperature panics.
func Encode(c Command) Record {
	r := Record{Flags: FlagsDefault}

	mode := modeCodes[c.Mode]
	if !c.On {
		r.FanAndState = FanOffCode<<4 | StateOff
		r.TempAndMode = temperatureOffCode<<4 | mode
		return r
	}

	r.FanAndState = fanCodes[c.Fan]<<4 | StateOn

	degrees := c.Temperature
	if c.Mode == ModeFan {
		degrees = TemperatureOff
	}
	temp, err := TemperatureCode(degrees)
	if err != nil {
		panic(fmt.Sprintf("command: encode %s: %v", c, err))
	}
	r.TempAndMode = temp<<4 | mode
	return r
}

// Decode is the inverse of Encode. A powered Dry record whose temperature
// nibble is the off code decodes as ModeFan; when off, Dry and Fan share
// the same bytes and decode as ModeDry. Nibbles outside the protocol tables
// yield ErrUnknownCode.
func Decode(r Record) (Command, error) {
	var c Command
	switch r.StateCode() {
	case StateOn:
		c.On = true
	case StateOff:
	default:
		return Command{}, fmt.Errorf("%w: state %04b", ErrUnknownCode, r.StateCode())
	}

	mode, ok := modeFromCode(r.ModeCode())
	if !ok {
		return Command{}, fmt.Errorf("%w: mode %04b", ErrUnknownCode, r.ModeCode())
	}
	temp, ok := TemperatureFromCode(r.TemperatureCode())
	if !ok {
		return Command{}, fmt.Errorf("%w: temperature %04b", ErrUnknownCode, r.TemperatureCode())
	}
	if c.On && mode == ModeDry && r.TemperatureCode() == temperatureOffCode {
		mode = ModeFan
	}
	c.Mode = mode

	if !c.On {
		return c, nil
	}

	fan, ok := fanFromCode(r.FanCode())
	if !ok {
		return Command{}, fmt.Errorf("%w: fan %04b", ErrUnknownCode, r.FanCode())
	}
	c.Fan = fan
	c.Temperature = temp
	return c, nil
}
