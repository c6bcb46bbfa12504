// Package bus provides the bounded event queue that carries CameraEvents
// from per-camera session goroutines to the single state-manager goroutine.
package bus

import (
	"context"

	"github.com/cornerbit/hiksink/internal/hikapi"
)

// Capacity is the bus's buffer size. A camera session blocks on send past
// this many unconsumed events, which naturally applies backpressure to a
// misbehaving or disconnected manager rather than growing memory without
// bound.
const Capacity = 20

// EventKind distinguishes the three things a camera session can report.
type EventKind int

const (
	// Connected reports a freshly (re)established session: the device's
	// identity and its full trigger list.
	Connected EventKind = iota
	// Disconnected reports that the session ended, with the error that
	// caused it.
	Disconnected
	// Alert reports a single alert document read from the stream.
	Alert
)

// CameraEvent is one message flowing from a camera session to the state
// manager, tagged by CameraID so the manager can route it to the right
// camera's state.
type CameraEvent struct {
	CameraID string
	Kind     EventKind

	// Populated when Kind == Connected.
	Info     hikapi.DeviceInfo
	Triggers []hikapi.TriggerItem

	// Populated when Kind == Disconnected.
	Err error

	// Populated when Kind == Alert.
	Alert hikapi.AlertItem
}

// Bus is a typed, bounded channel of CameraEvents shared by every camera
// session and drained by exactly one state-manager goroutine.
type Bus struct {
	ch chan CameraEvent
}

// New creates a Bus with the standard capacity.
func New() *Bus {
	return &Bus{ch: make(chan CameraEvent, Capacity)}
}

// Send delivers an event, blocking until there is room or ctx is done.
func (b *Bus) Send(ctx context.Context, ev CameraEvent) bool {
	select {
	case b.ch <- ev:
		return true
	case <-ctx.Done():
		return false
	}
}

// Events exposes the receive side for the manager's consuming goroutine.
func (b *Bus) Events() <-chan CameraEvent {
	return b.ch
}
