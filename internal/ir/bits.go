package ir

import "fmt"

// BitsPerByte is the number of data pulses that make up one byte.
const BitsPerByte = 8

// PulsesToByte packs eight data pulses into a byte, most significant bit first.
// It panics if pulses is not exactly eight One/Zero pulses; callers filter
// captures before packing.
func PulsesToByte(pulses []Pulse) byte {
	if len(pulses) != BitsPerByte {
		panic(fmt.Sprintf("ir: cannot pack %d pulses into a byte", len(pulses)))
	}
	var b byte
	for _, p := range pulses {
		b = b<<1 | p.Bit()
	}
	return b
}

// ByteToPulses expands b into eight nominal pulses, most significant bit first.
func ByteToPulses(b byte) []Pulse {
	pulses := make([]Pulse, 0, BitsPerByte)
	for mask := byte(0x80); mask != 0; mask >>= 1 {
		if b&mask != 0 {
			pulses = append(pulses, NominalOne())
		} else {
			pulses = append(pulses, NominalZero())
		}
	}
	return pulses
}

// PulsesToBytes packs a pulse sequence whose length is a multiple of eight.
func PulsesToBytes(pulses []Pulse) []byte {
	if len(pulses)%BitsPerByte != 0 {
		panic(fmt.Sprintf("ir: pulse count %d is not a multiple of %d", len(pulses), BitsPerByte))
	}
	out := make([]byte, 0, len(pulses)/BitsPerByte)
	for i := 0; i < len(pulses); i += BitsPerByte {
		out = append(out, PulsesToByte(pulses[i:i+BitsPerByte]))
	}
	return out
}
