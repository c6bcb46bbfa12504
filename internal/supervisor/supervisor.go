// Package supervisor owns the bridge's whole runtime lifetime: one
// goroutine per configured camera feeding a shared bus, one goroutine
// draining that bus through the state manager and publishing the result
// over MQTT, and clean shutdown on context cancellation. Structurally
// grounded on internal/supervisor/supervisor.go's worker-map/cancel-func/
// Run(ctx)/stopAll shape, narrowed from that file's many-tenant MQTT
// device-discovery protocol down to this bridge's single-purpose fan-out.
package supervisor

import (
	"context"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/cornerbit/hiksink/internal/bus"
	"github.com/cornerbit/hiksink/internal/manager"
	"github.com/cornerbit/hiksink/internal/session"
)

// publisher is the slice of *mqttadapter.Adapter the supervisor needs,
// kept as an interface so the forwarding loop can be tested without a
// live broker.
type publisher interface {
	Publish(manager.Message) error
	Connected() <-chan struct{}
}

// CameraConfig is everything the supervisor needs to both run a camera
// session and register it with the state manager.
type CameraConfig struct {
	ID       string
	Name     string
	Address  string
	Port     int
	Username string
	Password string
}

// Supervisor wires camera sessions, the bus, the state manager and the
// MQTT adapter together and drives them for the process's lifetime.
type Supervisor struct {
	bus     *bus.Bus
	manager *manager.Manager
	adapter publisher
	log     *zap.Logger

	cameras []CameraConfig

	mu      sync.Mutex
	workers map[string]context.CancelFunc

	ready atomic.Bool
}

// New builds a Supervisor. The manager and adapter are constructed by the
// caller (cmd/hiksink) so their own setup errors surface before any camera
// goroutine starts.
func New(cameras []CameraConfig, m *manager.Manager, adapter publisher, log *zap.Logger) *Supervisor {
	if log == nil {
		log = zap.NewNop()
	}
	return &Supervisor{
		bus:     bus.New(),
		manager: m,
		adapter: adapter,
		log:     log,
		cameras: cameras,
		workers: make(map[string]context.CancelFunc, len(cameras)),
	}
}

// Run starts one session goroutine per configured camera plus the single
// forwarding goroutine, and blocks until ctx is cancelled.
func (s *Supervisor) Run(ctx context.Context) error {
	s.mu.Lock()
	for _, cam := range s.cameras {
		s.startCamera(ctx, cam)
	}
	s.mu.Unlock()

	s.forward(ctx)

	s.stopAll()
	return nil
}

func (s *Supervisor) startCamera(ctx context.Context, cam CameraConfig) {
	camCtx, cancel := context.WithCancel(ctx)
	s.workers[cam.ID] = cancel

	cfg := session.Config{
		Address:  cam.Address,
		Port:     cam.Port,
		Username: cam.Username,
		Password: cam.Password,
	}
	go session.Run(camCtx, cam.ID, cfg, s.bus, s.log)
}

func (s *Supervisor) stopAll() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, cancel := range s.workers {
		cancel()
		delete(s.workers, id)
	}
}

// forward drains both the manager's connection-established signal and the
// camera bus, publishing whatever messages they produce, until ctx is
// cancelled or the bus is closed out from under it.
func (s *Supervisor) forward(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-s.adapter.Connected():
			s.ready.Store(true)
			s.publishAll(s.manager.ConnectionEstablished())
		case ev, ok := <-s.bus.Events():
			if !ok {
				return
			}
			s.publishAll(s.manager.NextEvent(ev))
		}
	}
}

func (s *Supervisor) publishAll(messages []manager.Message) {
	for _, msg := range messages {
		if err := s.adapter.Publish(msg); err != nil {
			s.log.Error("unable to publish MQTT message", zap.String("topic", msg.Topic), zap.Error(err))
		}
	}
}

// Snapshot exposes the manager's camera state for the status HTTP surface.
func (s *Supervisor) Snapshot() []manager.CameraState {
	return s.manager.Snapshot()
}

// Ready reports whether the MQTT adapter has completed at least one
// broker connection, driving the status surface's /readyz endpoint.
func (s *Supervisor) Ready() bool {
	return s.ready.Load()
}
