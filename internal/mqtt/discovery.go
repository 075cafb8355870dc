package mqtt

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/victor987/hitemp/internal/registry"
	"github.com/victor987/hitemp/internal/service"
	"github.com/victor987/hitemp/internal/types"
)

// discoveryMsg is a Home Assistant MQTT discovery payload.
type discoveryMsg struct {
	Topic   string // e.g. "homeassistant/sensor/hitemp_HP123/t02/config"
	Payload []byte // JSON, empty means delete
}

// haDevice is the "device" block in HA discovery.
type haDevice struct {
	Identifiers  []string `json:"identifiers"`
	Manufacturer string   `json:"manufacturer,omitempty"`
	Model        string   `json:"model,omitempty"`
	Name         string   `json:"name"`
	SWVersion    string   `json:"sw_version,omitempty"`
}

// haDiscovery is a generic HA discovery payload.
type haDiscovery struct {
	Name              string   `json:"name"`
	UniqueID          string   `json:"unique_id"`
	StateTopic        string   `json:"state_topic"`
	CommandTopic      string   `json:"command_topic,omitempty"`
	AvailabilityTopic string   `json:"availability_topic"`
	ValueTemplate     string   `json:"value_template,omitempty"`
	UnitOfMeasurement string   `json:"unit_of_measurement,omitempty"`
	DeviceClass       string   `json:"device_class,omitempty"`
	StateClass        string   `json:"state_class,omitempty"`
	PayloadOn         string   `json:"payload_on,omitempty"`
	PayloadOff        string   `json:"payload_off,omitempty"`
	Min               *float64 `json:"min,omitempty"`
	Max               *float64 `json:"max,omitempty"`
	Step              *float64 `json:"step,omitempty"`
	Options           []string `json:"options,omitempty"`
	Device            haDevice `json:"device"`
}

// Temperature probes worth surfacing as individual HA sensors.
var probeSensors = []struct {
	code  string
	label string
}{
	{"T01", "Ambient temperature"},
	{"T02", "Tank temperature bottom"},
	{"T03", "Tank temperature top"},
	{"T04", "Coil temperature"},
	{"T05", "Suction temperature"},
	{"T06", "Solar temperature"},
	{"T07", "Discharge temperature"},
}

func deviceIdentifier(dev types.DeviceRecord) string {
	return "hitemp_" + dev.DeviceCode
}

// deviceTopicName sanitizes the device code for use as an MQTT topic segment.
func deviceTopicName(dev types.DeviceRecord) string {
	name := strings.ToLower(dev.DeviceCode)
	return strings.Map(func(r rune) rune {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') || r == '_' || r == '-' {
			return r
		}
		return '_'
	}, name)
}

// buildDiscovery generates HA discovery messages for a water heater.
func buildDiscovery(dev types.DeviceRecord, prefix string) []discoveryMsg {
	nodeID := deviceIdentifier(dev)
	displayName := dev.DisplayName()
	stateTopic := prefix + "/" + deviceTopicName(dev)
	avail := stateTopic + "/availability"
	setTopic := stateTopic + "/set"

	haDev := haDevice{
		Identifiers:  []string{nodeID},
		Manufacturer: "HiTemp",
		Model:        dev.ProductID,
		Name:         displayName,
		SWVersion:    dev.ControlSoftwareVer,
	}

	var msgs []discoveryMsg

	// Power switch.
	msgs = append(msgs, discoveryMsg{
		Topic: fmt.Sprintf("homeassistant/switch/%s/power/config", nodeID),
		Payload: mustJSON(haDiscovery{
			Name:              displayName + " Power",
			UniqueID:          nodeID + "_power",
			StateTopic:        stateTopic,
			CommandTopic:      setTopic + "/Power",
			AvailabilityTopic: avail,
			ValueTemplate:     "{{ value_json.power }}",
			PayloadOn:         "ON",
			PayloadOff:        "OFF",
			Device:            haDev,
		}),
	})

	// Operating mode select.
	msgs = append(msgs, discoveryMsg{
		Topic: fmt.Sprintf("homeassistant/select/%s/mode/config", nodeID),
		Payload: mustJSON(haDiscovery{
			Name:              displayName + " Mode",
			UniqueID:          nodeID + "_mode",
			StateTopic:        stateTopic,
			CommandTopic:      setTopic + "/mode_real",
			AvailabilityTopic: avail,
			ValueTemplate:     "{{ value_json.mode }}",
			Options:           service.Presets(),
			Device:            haDev,
		}),
	})

	// Target temperature number, bounded to what the heater accepts.
	if def, ok := registry.Lookup("R01"); ok {
		step := 1.0
		msgs = append(msgs, discoveryMsg{
			Topic: fmt.Sprintf("homeassistant/number/%s/target/config", nodeID),
			Payload: mustJSON(haDiscovery{
				Name:              displayName + " Target temperature",
				UniqueID:          nodeID + "_target",
				StateTopic:        stateTopic,
				CommandTopic:      setTopic + "/R01",
				AvailabilityTopic: avail,
				ValueTemplate:     "{{ value_json.target_temperature }}",
				UnitOfMeasurement: "°C",
				DeviceClass:       "temperature",
				Min:               def.Min,
				Max:               def.Max,
				Step:              &step,
				Device:            haDev,
			}),
		})
	}

	// Effective water temperature.
	msgs = append(msgs, buildSensor(nodeID, displayName, stateTopic, avail, haDev,
		"water_temperature", "Water temperature", "temperature", "°C", "measurement",
		"{{ value_json.current_temperature }}"))

	// Individual probes.
	for _, probe := range probeSensors {
		object := strings.ToLower(probe.code)
		msgs = append(msgs, buildSensor(nodeID, displayName, stateTopic, avail, haDev,
			object, probe.label, "temperature", "°C", "measurement",
			fmt.Sprintf("{{ value_json.%s }}", object)))
	}

	// COP estimate, present only when an energy meter is wired in.
	msgs = append(msgs, buildSensor(nodeID, displayName, stateTopic, avail, haDev,
		"cop", "COP estimate", "", "", "measurement",
		"{{ value_json.cop }}"))

	// WiFi signal.
	msgs = append(msgs, buildSensor(nodeID, displayName, stateTopic, avail, haDev,
		"wifi_signal", "WiFi signal", "signal_strength", "dBm", "measurement",
		"{{ value_json.wifi_signal }}"))

	// Heating activity from the device state register.
	msgs = append(msgs, buildBinarySensor(nodeID, displayName, stateTopic, avail, haDev,
		"heating", "Heating", "running",
		"{{ 'ON' if value_json.heating else 'OFF' }}"))

	// Defrost cycle.
	msgs = append(msgs, buildBinarySensor(nodeID, displayName, stateTopic, avail, haDev,
		"defrost", "Defrosting", "running",
		"{{ 'ON' if value_json.o14 == 1 else 'OFF' }}"))

	return msgs
}

func buildSensor(nodeID, displayName, stateTopic, avail string, haDev haDevice,
	objectID, suffix, deviceClass, unit, stateClass, valueTmpl string) discoveryMsg {

	topic := fmt.Sprintf("homeassistant/sensor/%s/%s/config", nodeID, objectID)
	payload := haDiscovery{
		Name:              displayName + " " + suffix,
		UniqueID:          nodeID + "_" + objectID,
		StateTopic:        stateTopic,
		AvailabilityTopic: avail,
		ValueTemplate:     valueTmpl,
		UnitOfMeasurement: unit,
		DeviceClass:       deviceClass,
		StateClass:        stateClass,
		Device:            haDev,
	}
	return discoveryMsg{Topic: topic, Payload: mustJSON(payload)}
}

func buildBinarySensor(nodeID, displayName, stateTopic, avail string, haDev haDevice,
	objectID, suffix, deviceClass, valueTmpl string) discoveryMsg {

	topic := fmt.Sprintf("homeassistant/binary_sensor/%s/%s/config", nodeID, objectID)
	payload := haDiscovery{
		Name:              displayName + " " + suffix,
		UniqueID:          nodeID + "_" + objectID,
		StateTopic:        stateTopic,
		AvailabilityTopic: avail,
		ValueTemplate:     valueTmpl,
		DeviceClass:       deviceClass,
		PayloadOn:         "ON",
		PayloadOff:        "OFF",
		Device:            haDev,
	}
	return discoveryMsg{Topic: topic, Payload: mustJSON(payload)}
}

func mustJSON(v any) []byte {
	data, err := json.Marshal(v)
	if err != nil {
		return []byte("{}")
	}
	return data
}
