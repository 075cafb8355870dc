// Package mqtt bridges the poll service to an MQTT broker with Home
// Assistant autodiscovery. Each device gets a retained JSON state topic, an
// availability topic, and per-parameter command topics under
// <prefix>/<device>/set/<code>.
package mqtt

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"sync"
	"time"

	pahomqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/victor987/hitemp/internal/config"
	"github.com/victor987/hitemp/internal/device"
	"github.com/victor987/hitemp/internal/registry"
	"github.com/victor987/hitemp/internal/service"
	"github.com/victor987/hitemp/internal/types"
)

const commandTimeout = 30 * time.Second

// Bridge publishes device snapshots to MQTT and relays commands back to the
// heater.
type Bridge struct {
	client pahomqtt.Client
	svc    *service.Service
	prefix string
	meter  string // external energy meter topic, may be empty
	logger *slog.Logger

	mu         sync.Mutex
	discovered map[string]bool               // deviceCode -> discovery published
	devices    map[string]types.DeviceRecord // deviceCode -> latest record
}

// NewBridge creates and connects an MQTT bridge. The service callback is
// registered here; call before the poll loop starts.
func NewBridge(svc *service.Service, cfg config.MQTT, logger *slog.Logger) (*Bridge, error) {
	b := &Bridge{
		svc:        svc,
		prefix:     cfg.TopicPrefix,
		meter:      cfg.EnergyMeterTopic,
		logger:     logger.With("component", "mqtt"),
		discovered: make(map[string]bool),
		devices:    make(map[string]types.DeviceRecord),
	}

	opts := pahomqtt.NewClientOptions().
		AddBroker(cfg.Broker).
		SetClientID("hitemp-bridge").
		SetAutoReconnect(true).
		SetConnectRetry(true).
		SetConnectRetryInterval(5 * time.Second).
		SetWill(cfg.TopicPrefix+"/bridge/state", "offline", 1, true).
		SetOnConnectHandler(func(_ pahomqtt.Client) {
			b.logger.Info("MQTT connected")
			b.publishBridgeState("online")
			b.republishAll()
			b.subscribe()
		}).
		SetConnectionLostHandler(func(_ pahomqtt.Client, err error) {
			b.logger.Warn("MQTT connection lost", "error", err)
		})

	if cfg.Username != "" {
		opts.SetUsername(cfg.Username)
		opts.SetPassword(cfg.Password)
	}

	client := pahomqtt.NewClient(opts)
	token := client.Connect()
	if !token.WaitTimeout(10 * time.Second) {
		return nil, fmt.Errorf("mqtt connect timeout")
	}
	if err := token.Error(); err != nil {
		return nil, fmt.Errorf("mqtt connect: %w", err)
	}
	b.client = client

	svc.OnUpdate(b.publishSnapshot)
	return b, nil
}

// Stop marks everything offline and disconnects.
func (b *Bridge) Stop() {
	b.mu.Lock()
	for _, dev := range b.devices {
		topic := b.prefix + "/" + deviceTopicName(dev) + "/availability"
		b.publish(topic, []byte("offline"), true)
	}
	b.mu.Unlock()

	b.publishBridgeState("offline")
	b.client.Disconnect(1000)
	b.logger.Info("MQTT bridge stopped")
}

// publishSnapshot is the OnUpdate callback from the poll service.
func (b *Bridge) publishSnapshot(snap *types.Snapshot) {
	dev := snap.Device

	b.mu.Lock()
	b.devices[dev.DeviceCode] = dev
	first := !b.discovered[dev.DeviceCode]
	b.discovered[dev.DeviceCode] = true
	b.mu.Unlock()

	if first {
		b.publishDiscovery(dev)
	}

	base := b.prefix + "/" + deviceTopicName(dev)

	availability := "offline"
	if dev.Online() {
		availability = "online"
	}
	b.publish(base+"/availability", []byte(availability), true)

	b.publish(base, mustJSON(statePayload(snap)), true)
}

// statePayload flattens a snapshot into the JSON document HA templates read.
func statePayload(snap *types.Snapshot) map[string]any {
	state := make(map[string]any, len(snap.Readings)+8)

	for code, reading := range snap.Readings {
		key := strings.ToLower(code)
		if reading.Kind == registry.Bitmask {
			bits := make([]int, len(reading.Flags))
			for i, set := range reading.Flags {
				if set {
					bits[i] = 1
				}
			}
			state[key] = bits
			continue
		}
		state[key] = reading.Number
	}

	if power, ok := snap.Number("Power"); ok {
		if power != 0 {
			state["power"] = "ON"
		} else {
			state["power"] = "OFF"
		}
	}
	if mode, ok := snap.Number("mode_real"); ok {
		if name, ok := service.PresetName(mode); ok {
			state["mode"] = name
		}
	}
	if target, ok := snap.Number("R01"); ok {
		state["target_temperature"] = target
	}
	if current, ok := service.CurrentTemperature(snap); ok {
		state["current_temperature"] = current
	}
	if compressor, ok := snap.Number("O01"); ok {
		state["heating"] = compressor == 1
	}
	if snap.COP != nil {
		state["cop"] = *snap.COP
	}
	if snap.Device.SignalStrength != nil {
		state["wifi_signal"] = *snap.Device.SignalStrength
	}
	state["last_seen"] = snap.Taken.Format(time.RFC3339)

	return state
}

func (b *Bridge) publishDiscovery(dev types.DeviceRecord) {
	for _, msg := range buildDiscovery(dev, b.prefix) {
		b.publish(msg.Topic, msg.Payload, true)
	}
	b.logger.Info("Published HA discovery", "device", dev.DeviceCode, "name", dev.DisplayName())
}

// republishAll re-sends discovery and state after a reconnect so a restarted
// broker converges without waiting for the next poll.
func (b *Bridge) republishAll() {
	for _, snap := range b.svc.Snapshots() {
		b.publishDiscovery(snap.Device)
		b.publishSnapshot(snap)
	}
}

func (b *Bridge) subscribe() {
	topic := b.prefix + "/+/set/+"
	token := b.client.Subscribe(topic, 1, func(_ pahomqtt.Client, msg pahomqtt.Message) {
		b.handleCommand(msg.Topic(), msg.Payload())
	})
	if token.WaitTimeout(10*time.Second) && token.Error() != nil {
		b.logger.Error("Command subscription failed", "topic", topic, "error", token.Error())
	}

	if b.meter != "" {
		token := b.client.Subscribe(b.meter, 0, func(_ pahomqtt.Client, msg pahomqtt.Message) {
			b.handleEnergyMeter(msg.Payload())
		})
		if token.WaitTimeout(10*time.Second) && token.Error() != nil {
			b.logger.Error("Energy meter subscription failed", "topic", b.meter, "error", token.Error())
		}
	}
}

// handleCommand relays <prefix>/<device>/set/<code> payloads to the heater.
func (b *Bridge) handleCommand(topic string, payload []byte) {
	rest, ok := strings.CutPrefix(topic, b.prefix+"/")
	if !ok {
		return
	}
	parts := strings.Split(rest, "/")
	if len(parts) != 3 || parts[1] != "set" {
		return
	}
	topicName, code := parts[0], parts[2]

	deviceCode, ok := b.resolveDevice(topicName)
	if !ok {
		b.logger.Warn("Command for unknown device", "topic", topic)
		return
	}

	value, err := parseCommandValue(code, string(payload))
	if err != nil {
		b.logger.Warn("Invalid command payload", "topic", topic, "payload", string(payload), "error", err)
		b.publishCommandError(topicName, code, err)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), commandTimeout)
	defer cancel()

	if err := b.svc.Write(ctx, deviceCode, code, value); err != nil {
		var notWritable *device.NotWritableError
		var outOfRange *device.OutOfRangeError
		switch {
		case errors.As(err, &notWritable) || errors.As(err, &outOfRange):
			b.logger.Warn("Command rejected", "device", deviceCode, "code", code, "error", err)
		default:
			b.logger.Error("Command failed", "device", deviceCode, "code", code, "error", err)
		}
		b.publishCommandError(topicName, code, err)
		return
	}
	b.logger.Debug("Command applied", "device", deviceCode, "code", code, "value", value)
}

// publishCommandError reports a failed command on the device's error topic
// so HA users see rejections without reading daemon logs. Not retained; the
// error describes one command, not device state.
func (b *Bridge) publishCommandError(topicName, code string, err error) {
	payload := mustJSON(map[string]string{"code": code, "error": err.Error()})
	b.publish(b.prefix+"/"+topicName+"/error", payload, false)
}

// resolveDevice maps a sanitized topic segment back to the device code.
func (b *Bridge) resolveDevice(topicName string) (string, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for code, dev := range b.devices {
		if deviceTopicName(dev) == topicName {
			return code, true
		}
	}
	return "", false
}

// parseCommandValue converts an HA command payload to the numeric parameter
// value. Switch and select entities send words; numbers send digits.
func parseCommandValue(code, payload string) (float64, error) {
	payload = strings.TrimSpace(payload)

	switch registry.Normalize(code) {
	case "Power":
		switch strings.ToUpper(payload) {
		case "ON", "1":
			return 1, nil
		case "OFF", "0":
			return 0, nil
		}
		return 0, fmt.Errorf("want ON or OFF, got %q", payload)
	case "mode_real":
		if v, ok := service.PresetValue(strings.ToLower(payload)); ok {
			return v, nil
		}
		// Raw mode values pass through.
	}

	v, err := strconv.ParseFloat(payload, 64)
	if err != nil {
		return 0, fmt.Errorf("parse %q: %w", payload, err)
	}
	return v, nil
}

func (b *Bridge) handleEnergyMeter(payload []byte) {
	kwh, err := strconv.ParseFloat(strings.TrimSpace(string(payload)), 64)
	if err != nil {
		b.logger.Warn("Unparseable energy meter payload", "payload", string(payload))
		return
	}
	b.svc.SetEnergyMeter(kwh)
}

func (b *Bridge) publishBridgeState(state string) {
	b.publish(b.prefix+"/bridge/state", []byte(state), true)
}

func (b *Bridge) publish(topic string, payload []byte, retained bool) {
	token := b.client.Publish(topic, 1, retained, payload)
	go func() {
		if !token.WaitTimeout(5 * time.Second) {
			b.logger.Warn("MQTT publish timeout", "topic", topic)
		} else if err := token.Error(); err != nil {
			b.logger.Warn("MQTT publish error", "topic", topic, "error", err)
		}
	}()
}
