package service

import (
	"github.com/victor987/hitemp/internal/types"
)

// Operating mode presets exposed over MQTT. The heater's mode_real parameter
// takes these discrete values; 1 is unused by the vendor app.
var presetByValue = map[float64]string{
	0: "intelligent",
	2: "eco",
	3: "hybrid",
	4: "fast",
}

var presetByName = map[string]float64{
	"intelligent": 0,
	"eco":         2,
	"hybrid":      3,
	"fast":        4,
}

// Presets lists the selectable operating modes in vendor order.
func Presets() []string {
	return []string{"intelligent", "eco", "hybrid", "fast"}
}

// PresetName maps a Mode parameter value to its preset name.
func PresetName(mode float64) (string, bool) {
	name, ok := presetByValue[mode]
	return name, ok
}

// PresetValue maps a preset name to the Mode parameter value.
func PresetValue(name string) (float64, bool) {
	v, ok := presetByName[name]
	return v, ok
}

// CurrentTemperature is the effective water temperature, the average of the
// two tank probes.
func CurrentTemperature(snap *types.Snapshot) (float64, bool) {
	t02, ok2 := snap.Number("T02")
	t03, ok3 := snap.Number("T03")
	if !ok2 || !ok3 {
		return 0, false
	}
	return (t02 + t03) / 2, true
}
