// Package manager owns the bridge's in-memory model of every configured
// camera and folds incoming bus.CameraEvents into the MQTT messages that
// need publishing, grounded on the CornerBit HikSink original's
// mqtt::manager::Manager. It is deliberately a single-owner, lock-free
// struct: only the supervisor's manager goroutine ever touches it, matching
// spec.md's "no locks required" concurrency note.
package manager

import (
	"encoding/json"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/cornerbit/hiksink/internal/bus"
	"github.com/cornerbit/hiksink/internal/hikapi"
	"github.com/cornerbit/hiksink/internal/topics"
)

// BridgeVersion is stamped into discovery payloads as the bridge's own
// sw_version component, alongside the camera's own firmware version.
const BridgeVersion = "0.1.0"

// QoS mirrors the three MQTT quality-of-service levels.
type QoS byte

const (
	AtMostOnce  QoS = 0
	AtLeastOnce QoS = 1
	ExactlyOnce QoS = 2
)

// Message is one MQTT publish the manager wants performed.
type Message struct {
	Topic   string
	QoS     QoS
	Retain  bool
	Payload []byte
}

func constantMessage(topic string, qos QoS, retain bool, payload string) Message {
	return Message{Topic: topic, QoS: qos, Retain: retain, Payload: []byte(payload)}
}

func jsonMessage(topic string, qos QoS, retain bool, v interface{}) Message {
	// Marshal errors here would mean a bug in the payload shape below, not
	// a runtime condition callers can recover from, so the message is
	// still emitted with a best-effort payload rather than dropped.
	b, err := json.Marshal(v)
	if err != nil {
		b = []byte(fmt.Sprintf(`{"error":"marshal failed: %s"}`, err))
	}
	return Message{Topic: topic, QoS: qos, Retain: retain, Payload: b}
}

// TriggerState is the current alerting/region state of one trigger.
type TriggerState struct {
	Trigger   hikapi.TriggerItem
	Alerting  bool
	Regions   []hikapi.DetectionRegion
	LastAlert time.Time
}

// CameraState is the manager's full view of one configured camera.
type CameraState struct {
	ID        string
	Name      string
	Connected bool
	Log       string
	Info      *hikapi.DeviceInfo
	Triggers  []TriggerState
}

// Manager is the pure fold (prior state, CameraEvent) -> (new state,
// []Message) described in spec.md section 4.5, implemented as a mutable
// struct mutated only by NextEvent and ConnectionEstablished.
type Manager struct {
	cameras []*CameraState
	byID    map[string]*CameraState
	topics  topics.Scheme
	log     *zap.Logger
}

// CameraConfig is the minimal per-camera identity the manager needs at
// startup; everything else is discovered once the session connects.
type CameraConfig struct {
	ID   string
	Name string
}

// New builds a Manager with one placeholder CameraState per configured
// camera, not yet connected. log may be nil, in which case a no-op logger
// is used.
func New(cameras []CameraConfig, scheme topics.Scheme, log *zap.Logger) *Manager {
	if log == nil {
		log = zap.NewNop()
	}
	m := &Manager{
		byID:   make(map[string]*CameraState, len(cameras)),
		topics: scheme,
		log:    log,
	}
	for _, c := range cameras {
		cs := &CameraState{
			ID:   c.ID,
			Name: c.Name,
			Log:  "Initial connection in progress...",
		}
		m.cameras = append(m.cameras, cs)
		m.byID[c.ID] = cs
	}
	return m
}

// LastWill is the bridge-wide offline message to register as the MQTT
// connection's Last Will and Testament.
func (m *Manager) LastWill() Message {
	return constantMessage(m.topics.GlobalAvailability(), AtLeastOnce, true, "offline")
}

// ConnectionEstablished returns every message that must be (re)published
// after a fresh broker connection: per-camera state, the bridge coming
// online, stats, and every discovery topic. Order matters for a reader
// replaying these against a broker with retained-message history: camera
// state must land before the bridge announces itself online.
func (m *Manager) ConnectionEstablished() []Message {
	var messages []Message

	for _, cam := range m.cameras {
		messages = append(messages, m.completeRefresh(cam)...)
	}

	messages = append(messages, constantMessage(m.topics.GlobalAvailability(), AtLeastOnce, true, "online"))
	messages = append(messages, m.globalStats())

	for _, cam := range m.cameras {
		messages = append(messages, m.completeDiscovery(cam)...)
	}
	messages = append(messages, m.globalStatsDiscovery()...)

	return messages
}

// NextEvent folds one camera event into the manager's state, returning
// only the messages that need publishing as a result.
func (m *Manager) NextEvent(ev bus.CameraEvent) []Message {
	cam, ok := m.byID[ev.CameraID]
	if !ok {
		// Should not be reachable from a correctly wired supervisor; kept
		// as a defensive no-op rather than a panic so one misrouted event
		// cannot take down the whole bridge.
		m.log.Error("event for unknown camera", zap.String("camera_id", ev.CameraID))
		return nil
	}

	switch ev.Kind {
	case bus.Connected:
		return m.handleConnected(cam, ev)
	case bus.Disconnected:
		return m.handleDisconnected(cam, ev)
	case bus.Alert:
		return m.handleAlert(cam, ev)
	default:
		return nil
	}
}

func (m *Manager) handleConnected(cam *CameraState, ev bus.CameraEvent) []Message {
	triggers := make([]TriggerState, 0, len(ev.Triggers))
	for _, tr := range ev.Triggers {
		triggers = append(triggers, TriggerState{Trigger: tr, LastAlert: time.Now()})
	}
	info := ev.Info
	cam.Triggers = triggers
	cam.Info = &info
	cam.Log = "Connected"
	cam.Connected = true

	var messages []Message
	messages = append(messages, m.completeRefresh(cam)...)
	messages = append(messages, m.completeDiscovery(cam)...)
	messages = append(messages, m.globalStats())
	return messages
}

func (m *Manager) handleDisconnected(cam *CameraState, ev bus.CameraEvent) []Message {
	cam.Connected = false
	cam.Log = fmt.Sprintf("Connection Error: %v", ev.Err)
	return []Message{
		m.cameraLog(cam),
		m.cameraAvailability(cam),
	}
}

func (m *Manager) handleAlert(cam *CameraState, ev bus.CameraEvent) []Message {
	alert := ev.Alert
	var found, changed *TriggerState
	for i := range cam.Triggers {
		t := &cam.Triggers[i]
		if t.Trigger.Identifier != alert.Identifier {
			continue
		}
		found = t
		t.LastAlert = time.Now()
		if t.Alerting != alert.Active || !regionsEqual(t.Regions, alert.Regions) {
			t.Alerting = alert.Active
			t.Regions = alert.Regions
			changed = t
		}
		break
	}

	if found == nil {
		// VideoLoss is special: most camera models never list it during
		// the initial trigger scan, so its absence here is expected, not
		// a bridge/camera inconsistency worth a warning.
		if !alert.Identifier.EventType.IsVideoLoss() {
			m.log.Warn("camera sent an alert for a trigger which does not exist",
				zap.String("camera_id", cam.ID), zap.String("trigger", alert.Identifier.String()))
		}
		return nil
	}
	if changed == nil {
		return nil
	}

	return []Message{m.triggerState(cam, changed)}
}

func regionsEqual(a, b []hikapi.DetectionRegion) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i].ID != b[i].ID || a[i].Sensitivity != b[i].Sensitivity {
			return false
		}
		if len(a[i].Coordinates) != len(b[i].Coordinates) {
			return false
		}
		for j := range a[i].Coordinates {
			if a[i].Coordinates[j] != b[i].Coordinates[j] {
				return false
			}
		}
	}
	return true
}

// Snapshot returns a read-only copy of the manager's camera list, safe to
// hand to the status HTTP surface without exposing the manager's mutation
// path.
func (m *Manager) Snapshot() []CameraState {
	out := make([]CameraState, len(m.cameras))
	for i, c := range m.cameras {
		out[i] = *c
	}
	return out
}
