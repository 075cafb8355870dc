// Package device layers typed polling, control and directory operations on
// top of the raw vendor API, using the parameter registry for code
// resolution, value decoding and write validation.
package device

import (
	"strconv"

	"github.com/victor987/hitemp/internal/api"
	"github.com/victor987/hitemp/internal/registry"
	"github.com/victor987/hitemp/internal/types"
)

// decodeReading turns a raw response element into a typed reading for the
// given canonical code. Values are taken at face value: observed readings
// outside the documented range (R06 is the known offender) are surfaced
// as-is, never clamped.
func decodeReading(code string, raw api.RawReading) types.Reading {
	r := types.Reading{
		Code:       code,
		Raw:        string(raw.Value),
		RangeStart: string(raw.RangeStart),
		RangeEnd:   string(raw.RangeEnd),
	}

	def, known := registry.Lookup(code)
	if known {
		r.Kind = def.Kind
	}

	if known && def.Kind == registry.Bitmask {
		r.Flags = parseFlags(string(raw.Value))
		return r
	}

	if v, err := strconv.ParseFloat(string(raw.Value), 64); err == nil {
		r.Number = v
	}
	return r
}

// parseFlags parses a bitmask value into a fixed-width flag vector. Flags are
// indexed by bit position: index 0 is the least significant bit, i.e. the
// rightmost character of the string. Short strings are treated as
// left-padded with zeros; anything non-'1' reads as false.
func parseFlags(s string) []bool {
	flags := make([]bool, registry.BitmaskWidth)
	for i := 0; i < registry.BitmaskWidth && i < len(s); i++ {
		if s[len(s)-1-i] == '1' {
			flags[i] = true
		}
	}
	return flags
}
