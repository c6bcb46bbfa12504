package manager

import (
	"fmt"

	"github.com/cornerbit/hiksink/internal/hikapi"
)

// completeRefresh publishes every trigger state for a camera plus its log
// line and availability, enough to bring a fresh MQTT subscriber fully up
// to date.
func (m *Manager) completeRefresh(cam *CameraState) []Message {
	messages := make([]Message, 0, len(cam.Triggers)+2)
	for i := range cam.Triggers {
		messages = append(messages, m.triggerState(cam, &cam.Triggers[i]))
	}
	messages = append(messages, m.cameraLog(cam))
	messages = append(messages, m.cameraAvailability(cam))
	return messages
}

// completeDiscovery publishes HA discovery config for every trigger, once
// the camera's DeviceInfo is known (it never is before the first Connected
// event).
func (m *Manager) completeDiscovery(cam *CameraState) []Message {
	if cam.Info == nil {
		return nil
	}
	messages := make([]Message, 0, len(cam.Triggers))
	for i := range cam.Triggers {
		messages = append(messages, m.triggerDiscovery(cam, &cam.Triggers[i], cam.Info))
	}
	return messages
}

func (m *Manager) cameraAvailability(cam *CameraState) Message {
	state := "offline"
	if cam.Connected {
		state = "online"
	}
	return constantMessage(m.topics.CameraAvailability(cam.ID), AtLeastOnce, true, state)
}

func (m *Manager) cameraLog(cam *CameraState) Message {
	return constantMessage(m.topics.CameraLog(cam.ID), AtLeastOnce, true, cam.Log)
}

func (m *Manager) triggerState(cam *CameraState, t *TriggerState) Message {
	topic := m.topics.TriggerState(cam.ID, t.Trigger.Identifier.Channel, t.Trigger.Identifier.EventType.String())
	regions := t.Regions
	if regions == nil {
		regions = []hikapi.DetectionRegion{}
	}
	return jsonMessage(topic, AtLeastOnce, true, triggerStatePayload{
		Alerting: t.Alerting,
		Regions:  regions,
	})
}

type triggerStatePayload struct {
	Alerting bool                     `json:"alerting"`
	Regions  []hikapi.DetectionRegion `json:"regions"`
}

func (m *Manager) triggerDiscovery(cam *CameraState, t *TriggerState, info *hikapi.DeviceInfo) Message {
	ident := t.Trigger.Identifier
	eventType := ident.EventType.String()
	name := fmt.Sprintf("%s %s", cam.Name, ident.String())
	swVersion := fmt.Sprintf("HikSink v%s / Camera Firmware %s (%s)", BridgeVersion, info.FirmwareVersion, info.FirmwareReleaseDate)

	discoveryID := m.topics.DiscoveryIdentifierTrigger(cam.ID, ident.Channel, eventType)
	stateTopic := m.topics.TriggerState(cam.ID, ident.Channel, eventType)

	payload := map[string]interface{}{
		"availability": []map[string]string{
			{"topic": m.topics.GlobalAvailability()},
			{"topic": m.topics.CameraAvailability(cam.ID)},
		},
		"device": map[string]interface{}{
			"identifiers": []string{
				cam.ID + "_hiksink",
				info.SerialNumber,
				info.MACAddress,
			},
			"manufacturer": "Hikvision",
			"name":         cam.Name,
			"sw_version":   swVersion,
			"model":        fmt.Sprintf("%s (%s)", info.Model, info.DeviceType),
		},
		"json_attributes_topic": stateTopic,
		"name":                  name,
		"payload_off":           false,
		"payload_on":            true,
		"state_topic":           stateTopic,
		"unique_id":             discoveryID + "_hiksink",
		"value_template":        "{{ value_json.alerting }}",
	}
	if icon := ident.EventType.Icon(); icon != "" {
		payload["icon"] = icon
	}
	if dc := ident.EventType.DeviceClass(); dc != "" {
		payload["device_class"] = dc
	}

	return jsonMessage(m.topics.TriggerDiscovery(cam.ID, ident.Channel, eventType), AtLeastOnce, true, payload)
}

func (m *Manager) globalStats() Message {
	numCameras := len(m.cameras)
	numConnected := 0
	numTriggers := 0
	for _, c := range m.cameras {
		if c.Connected {
			numConnected++
		}
		numTriggers += len(c.Triggers)
	}
	return jsonMessage(m.topics.GlobalStats(), AtLeastOnce, true, map[string]int{
		"cameras_connected":    numConnected,
		"cameras_disconnected": numCameras - numConnected,
		"cameras_total":        numCameras,
		"triggers_total":       numTriggers,
	})
}

func (m *Manager) globalStatsDiscovery() []Message {
	discovery := func(key, name, unit string) Message {
		payload := map[string]interface{}{
			"availability": []map[string]string{
				{"topic": m.topics.GlobalAvailability()},
			},
			"device": map[string]interface{}{
				"identifiers":  []string{"hiksink_bridge"},
				"manufacturer": "Hiksink",
				"name":         "HikSink Bridge",
				"sw_version":   "v" + BridgeVersion,
			},
			"json_attributes_topic": m.topics.GlobalStats(),
			"name":                  name,
			"state_topic":           m.topics.GlobalStats(),
			"unique_id":             "hiksink_stat_" + key,
			"value_template":        fmt.Sprintf("{{ value_json.%s }}", key),
			"unit_of_measurement":   unit,
		}
		return jsonMessage(m.topics.GlobalStatsDiscovery(key), AtLeastOnce, true, payload)
	}

	return []Message{
		discovery("cameras_connected", "Cameras Connected", "Cameras"),
		discovery("cameras_disconnected", "Cameras Disconnected", "Cameras"),
		discovery("cameras_total", "Total Cameras", "Cameras"),
		discovery("triggers_total", "Total Triggers", "Triggers"),
	}
}
