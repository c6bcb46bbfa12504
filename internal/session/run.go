package session

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/cornerbit/hiksink/internal/bus"
)

// Run drives one camera's whole lifetime: connect, stream alerts onto b
// until the stream errors or ctx is cancelled, then reconnect after
// reconnectDelay. It never returns until ctx is done, matching
// run_camera/reconnect_cam's infinite loop in the original.
func Run(ctx context.Context, cameraID string, cfg Config, b *bus.Bus, log *zap.Logger) {
	if log == nil {
		log = zap.NewNop()
	}
	log = log.With(zap.String("camera_id", cameraID))

	cam, ok := connectWithRetry(ctx, cameraID, cfg, b, log)
	if !ok {
		return
	}

	for {
		alert, err := cam.NextAlert()
		if err != nil {
			cam.Close()
			log.Warn("camera errored, attempting reconnection", zap.Error(err))
			if !b.Send(ctx, bus.CameraEvent{CameraID: cameraID, Kind: bus.Disconnected, Err: err}) {
				return
			}
			select {
			case <-ctx.Done():
				return
			case <-time.After(reconnectDelay):
			}
			cam, ok = connectWithRetry(ctx, cameraID, cfg, b, log)
			if !ok {
				return
			}
			continue
		}

		if !b.Send(ctx, bus.CameraEvent{CameraID: cameraID, Kind: bus.Alert, Alert: alert}) {
			cam.Close()
			return
		}
	}
}

// connectWithRetry loops Load until it succeeds or ctx is cancelled,
// reporting a Disconnected event (and a fresh correlation ID) for every
// failed attempt, mirroring reconnect_cam.
func connectWithRetry(ctx context.Context, cameraID string, cfg Config, b *bus.Bus, log *zap.Logger) (*Camera, bool) {
	for {
		sessionID := uuid.NewString()
		attemptLog := log.With(zap.String("session_id", sessionID))

		cam, err := Load(ctx, cfg)
		if err == nil {
			attemptLog.Info("camera connection established")
			if !b.Send(ctx, bus.CameraEvent{
				CameraID: cameraID,
				Kind:     bus.Connected,
				Info:     cam.Info,
				Triggers: cam.Triggers,
			}) {
				cam.Close()
				return nil, false
			}
			return cam, true
		}

		attemptLog.Error("error reconnecting to camera", zap.Error(err))
		if !b.Send(ctx, bus.CameraEvent{CameraID: cameraID, Kind: bus.Disconnected, Err: err}) {
			return nil, false
		}

		select {
		case <-ctx.Done():
			return nil, false
		case <-time.After(reconnectDelay):
		}
	}
}
