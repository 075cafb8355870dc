// Package types contains shared type definitions used across the hitemp packages.
package types

import (
	"time"

	"github.com/victor987/hitemp/internal/registry"
)

// DeviceStatusOnline is the deviceStatus value the cloud reports for a
// reachable unit.
const DeviceStatusOnline = "ONLINE"

// DeviceRecord is one physical device shared to the controlling account, as
// returned by the shared-device list endpoint. Identity fields are immutable;
// status, firmware versions and signal strength are refreshed on each fetch.
type DeviceRecord struct {
	DeviceCode         string `json:"deviceCode"`
	ProductID          string `json:"productId"`
	SerialNumber       string `json:"serialNumber"`
	NickName           string `json:"deviceNickName"`
	Status             string `json:"deviceStatus"`
	WifiSoftwareVer    string `json:"wifiSoftwareVer"`
	ControlSoftwareVer string `json:"controlSoftwareVer"`
	SignalStrength     *int   `json:"deviceSignal"`
}

// Online reports whether the cloud considers the device reachable.
func (d DeviceRecord) Online() bool { return d.Status == DeviceStatusOnline }

// DisplayName returns the user-assigned nickname, falling back to the device code.
func (d DeviceRecord) DisplayName() string {
	if d.NickName != "" {
		return d.NickName
	}
	return d.DeviceCode
}

// Reading is one decoded parameter value from a poll. Raw preserves the value
// exactly as the vendor returned it; Number is the lossless scalar parse for
// non-bitmask kinds. Readings are ephemeral and valid for the poll cycle that
// produced them.
type Reading struct {
	Code       string        `json:"code"`
	Kind       registry.Kind `json:"kind"`
	Raw        string        `json:"raw"`
	Number     float64       `json:"number"`
	Flags      []bool        `json:"flags,omitempty"` // bitmask kinds only, registry.BitmaskWidth entries
	RangeStart string        `json:"rangeStart,omitempty"`
	RangeEnd   string        `json:"rangeEnd,omitempty"`
}

// On interprets a toggle reading.
func (r Reading) On() bool { return r.Number != 0 }

// Bit returns flag i of a bitmask reading; false when out of range or when
// the reading is not a bitmask.
func (r Reading) Bit(i int) bool {
	if i < 0 || i >= len(r.Flags) {
		return false
	}
	return r.Flags[i]
}

// Snapshot is the result of one poll cycle for one device.
type Snapshot struct {
	Device   DeviceRecord       `json:"device"`
	Readings map[string]Reading `json:"readings"`
	Taken    time.Time          `json:"taken"`
	COP      *float64           `json:"cop,omitempty"`
}

// Number returns the scalar value of a reading by canonical code.
func (s *Snapshot) Number(code string) (float64, bool) {
	r, ok := s.Readings[code]
	if !ok || r.Kind == registry.Bitmask {
		return 0, false
	}
	return r.Number, true
}
