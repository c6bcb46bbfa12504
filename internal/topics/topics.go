// Package topics builds every MQTT topic string the bridge publishes or
// offers for discovery, grounded on the CornerBit HikSink original's
// MqttTopics. Kept as pure string-formatting functions — nothing here
// touches the network or the manager's state.
package topics

import "fmt"

// Scheme holds the two configurable topic roots: the bridge's own base
// topic and Home Assistant's MQTT discovery prefix.
type Scheme struct {
	Base          string
	HomeAssistant string
}

// DefaultScheme matches the original implementation's Default impl.
func DefaultScheme() Scheme {
	return Scheme{Base: "hikvision_cameras", HomeAssistant: "homeassistant"}
}

// GlobalAvailability is the bridge-wide online/offline topic, also used as
// the MQTT Last Will.
func (s Scheme) GlobalAvailability() string {
	return s.Base + "/availability"
}

// GlobalStats is the topic carrying the bridge-wide camera/trigger counts.
func (s Scheme) GlobalStats() string {
	return s.Base + "/stats"
}

// CameraBase is the root topic for one camera's sub-topics.
func (s Scheme) CameraBase(cameraID string) string {
	return fmt.Sprintf("%s/device_%s", s.Base, cameraID)
}

// CameraAvailability is one camera's own online/offline topic.
func (s Scheme) CameraAvailability(cameraID string) string {
	return s.CameraBase(cameraID) + "/availability"
}

// CameraLog carries a short human-readable connection status string.
func (s Scheme) CameraLog(cameraID string) string {
	return s.CameraBase(cameraID) + "/log"
}

// TriggerBase is the topic root for one trigger on one camera, scoped by
// channel when the trigger is channel-specific.
func (s Scheme) TriggerBase(cameraID, channel, eventType string) string {
	if channel != "" {
		return fmt.Sprintf("%s/ch%s/%s", s.CameraBase(cameraID), channel, eventType)
	}
	return fmt.Sprintf("%s/%s", s.CameraBase(cameraID), eventType)
}

// TriggerState is the topic a trigger's current alerting/regions state is
// published to. Identical to TriggerBase — kept as a distinct method
// because the two concerns (topic layout vs. state publication) are
// conceptually separate even though they currently coincide.
func (s Scheme) TriggerState(cameraID, channel, eventType string) string {
	return s.TriggerBase(cameraID, channel, eventType)
}

// DiscoveryIdentifierTrigger is the unique-ish identifier segment used in
// both the trigger's discovery topic and its device/unique_id fields.
func (s Scheme) DiscoveryIdentifierTrigger(cameraID, channel, eventType string) string {
	id := "device_" + cameraID
	if channel != "" {
		id += "_ch" + channel
	}
	return id + "_" + eventType
}

// GlobalStatsDiscovery is the HA discovery config topic for one bridge-wide
// stat sensor.
func (s Scheme) GlobalStatsDiscovery(key string) string {
	return fmt.Sprintf("%s/sensor/hiksink/%s/config", s.HomeAssistant, key)
}

// TriggerDiscovery is the HA discovery config topic for one trigger's
// binary_sensor.
func (s Scheme) TriggerDiscovery(cameraID, channel, eventType string) string {
	return fmt.Sprintf("%s/binary_sensor/hiksink/%s/config", s.HomeAssistant,
		s.DiscoveryIdentifierTrigger(cameraID, channel, eventType))
}
