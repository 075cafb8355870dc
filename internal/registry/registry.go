// Package registry holds the reverse-engineered HiTemp parameter dictionary:
// the static mapping from protocol code to physical meaning, range, unit and
// writability, plus resolution of the numeric register aliases the cloud API
// accepts interchangeably with the letter codes.
package registry

import (
	"strconv"
	"strings"
)

// Kind classifies how a parameter's raw value is interpreted.
type Kind int

const (
	// Numeric values are scalars, transmitted with up to one decimal place.
	Numeric Kind = iota
	// Toggle values are on/off flags (0 or 1).
	Toggle
	// Bitmask values are fixed-width 16-bit flag strings. They are never
	// interpreted as integers; most bit positions are undocumented and
	// device-specific.
	Bitmask
	// Enum values are small integers from a named value set.
	Enum
)

// BitmaskWidth is the flag-vector width of every bitmask parameter.
const BitmaskWidth = 16

// Definition describes a single device parameter.
type Definition struct {
	Code     string // canonical spelling, e.g. "R01", "mode_real"
	Name     string
	Alias    int // numeric register alias, 0 = none documented
	Unit     string
	Min, Max *float64 // nil = no documented range
	Writable bool
	Kind     Kind
	Category string
}

// HasRange reports whether the definition carries a documented closed range.
func (d Definition) HasRange() bool {
	return d.Min != nil && d.Max != nil
}

// InRange reports whether v falls inside the documented range. Definitions
// without a range accept any value.
func (d Definition) InRange(v float64) bool {
	if !d.HasRange() {
		return true
	}
	return v >= *d.Min && v <= *d.Max
}

var (
	byCode  map[string]int // upper-cased code -> index into defs
	byAlias map[int]int    // numeric alias -> index into defs
)

func init() {
	byCode = make(map[string]int, len(defs))
	byAlias = make(map[int]int)
	for i := range defs {
		if a, ok := aliases[defs[i].Code]; ok {
			defs[i].Alias = a
		}
	}
	for i, d := range defs {
		byCode[strings.ToUpper(d.Code)] = i
		if d.Alias != 0 {
			byAlias[d.Alias] = i
		}
	}
}

// Lookup resolves a code to its definition. Comparison is case-insensitive
// and purely numeric input is resolved through the alias index; a letter code
// and its alias always yield the identical definition. Unknown codes are not
// an error here: the device accepts queries for undefined codes and simply
// returns no data, so significance is the caller's call.
func Lookup(code string) (Definition, bool) {
	code = strings.TrimSpace(code)
	if code == "" {
		return Definition{}, false
	}
	if n, err := strconv.Atoi(code); err == nil {
		if i, ok := byAlias[n]; ok {
			return defs[i], true
		}
		return Definition{}, false
	}
	if i, ok := byCode[strings.ToUpper(code)]; ok {
		return defs[i], true
	}
	return Definition{}, false
}

// Normalize returns the canonical spelling for a code: registry spelling for
// known codes (including vendor spellings like "Power" and "mode_real"),
// alias resolution for numeric input, and plain upper-casing for unknown
// letter codes. Normalize is idempotent.
func Normalize(code string) string {
	code = strings.TrimSpace(code)
	if d, ok := Lookup(code); ok {
		return d.Code
	}
	if _, err := strconv.Atoi(code); err == nil {
		// Unknown numeric alias: nothing to resolve against.
		return code
	}
	return strings.ToUpper(code)
}

// All returns every defined parameter code in table order. The returned slice
// is a copy.
func All() []string {
	out := make([]string, len(defs))
	for i, d := range defs {
		out[i] = d.Code
	}
	return out
}

// Count returns the number of defined parameters.
func Count() int { return len(defs) }
