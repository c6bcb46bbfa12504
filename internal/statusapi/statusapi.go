// Package statusapi is the bridge's optional read-only operational HTTP
// surface: liveness, readiness and a JSON status snapshot, grounded on
// mosleyit-reolink_server/internal/api/router.go's chi wiring and
// middleware stack. It has no effect on MQTT publishing semantics — it
// only reads the manager's state through Snapshot.
package statusapi

import (
	"context"
	"encoding/json"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/golang-jwt/jwt/v5"
	"github.com/shirou/gopsutil/v3/process"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/cornerbit/hiksink/internal/manager"
)

// Snapshotter is the narrow read of the manager the status surface needs.
type Snapshotter interface {
	Snapshot() []manager.CameraState
}

// Config configures the optional status server, mirroring the `[status]`
// TOML section in SPEC_FULL.md section 6.
type Config struct {
	Enabled            bool
	Address            string
	AuthToken          string
	JWTSecret          string
	CORSAllowedOrigins []string
}

// Server serves the status/health endpoints.
type Server struct {
	cfg      Config
	snap     Snapshotter
	ready    func() bool
	log      *zap.Logger
	mux      *chi.Mux
	authHash []byte
}

// New builds a Server. ready reports whether the MQTT adapter has
// completed its first broker connection (drives /readyz).
func New(cfg Config, snap Snapshotter, ready func() bool, log *zap.Logger) (*Server, error) {
	if log == nil {
		log = zap.NewNop()
	}

	s := &Server{cfg: cfg, snap: snap, ready: ready, log: log}

	if cfg.AuthToken != "" {
		hash, err := bcrypt.GenerateFromPassword([]byte(cfg.AuthToken), bcrypt.DefaultCost)
		if err != nil {
			return nil, err
		}
		s.authHash = hash
	}

	s.mux = chi.NewRouter()
	s.mux.Use(middleware.RequestID)
	s.mux.Use(middleware.RealIP)
	s.mux.Use(s.logRequest)
	s.mux.Use(middleware.Recoverer)
	s.mux.Use(middleware.Timeout(10 * time.Second))

	if len(cfg.CORSAllowedOrigins) > 0 {
		s.mux.Use(cors.Handler(cors.Options{
			AllowedOrigins: cfg.CORSAllowedOrigins,
			AllowedMethods: []string{http.MethodGet},
			MaxAge:         300,
		}))
	}

	s.mux.Get("/healthz", s.handleHealthz)
	s.mux.Get("/readyz", s.handleReadyz)
	s.mux.With(s.authenticate).Get("/status", s.handleStatus)

	return s, nil
}

// ListenAndServe blocks serving the status surface until ctx is cancelled.
func (s *Server) ListenAndServe(ctx context.Context) error {
	srv := &http.Server{Addr: s.cfg.Address, Handler: s.mux}

	errCh := make(chan error, 1)
	go func() { errCh <- srv.ListenAndServe() }()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	case err := <-errCh:
		return err
	}
}

func (s *Server) logRequest(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		s.log.Debug("status request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Duration("duration", time.Since(start)),
		)
	})
}

func (s *Server) handleHealthz(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (s *Server) handleReadyz(w http.ResponseWriter, _ *http.Request) {
	if s.ready != nil && s.ready() {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ready"))
		return
	}
	w.WriteHeader(http.StatusServiceUnavailable)
	_, _ = w.Write([]byte("not ready"))
}

// authenticate enforces the optional `[status].auth_token` /
// `[status].jwt_secret` bearer schemes. With neither configured, the
// status endpoint is open, matching the default `enabled = false` posture
// where an operator has already opted into exposing it.
func (s *Server) authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.authHash == nil && s.cfg.JWTSecret == "" {
			next.ServeHTTP(w, r)
			return
		}

		header := r.Header.Get("Authorization")
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || token == "" {
			http.Error(w, "missing bearer token", http.StatusUnauthorized)
			return
		}

		if s.authHash != nil && bcrypt.CompareHashAndPassword(s.authHash, []byte(token)) == nil {
			next.ServeHTTP(w, r)
			return
		}

		if s.cfg.JWTSecret != "" && validJWT(token, s.cfg.JWTSecret) {
			next.ServeHTTP(w, r)
			return
		}

		http.Error(w, "invalid bearer token", http.StatusUnauthorized)
	})
}

func validJWT(tokenString, secret string) bool {
	token, err := jwt.Parse(tokenString, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return []byte(secret), nil
	})
	return err == nil && token.Valid
}

type triggerStatus struct {
	EventType string `json:"event_type"`
	Channel   string `json:"channel,omitempty"`
	Alerting  bool   `json:"alerting"`
	LastAlert string `json:"last_alert,omitempty"`
}

type cameraStatus struct {
	ID        string          `json:"id"`
	Name      string          `json:"name"`
	Connected bool            `json:"connected"`
	Log       string          `json:"log"`
	Triggers  []triggerStatus `json:"triggers"`
}

type processStatus struct {
	CPUPercent float64 `json:"cpu_percent"`
	RSSBytes   uint64  `json:"rss_bytes"`
}

type statusPayload struct {
	Cameras []cameraStatus `json:"cameras"`
	Process processStatus  `json:"process"`
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	cams := s.snap.Snapshot()
	payload := statusPayload{
		Cameras: make([]cameraStatus, 0, len(cams)),
		Process: s.processStats(),
	}

	for _, cam := range cams {
		cs := cameraStatus{ID: cam.ID, Name: cam.Name, Connected: cam.Connected, Log: cam.Log}
		for _, t := range cam.Triggers {
			ts := triggerStatus{
				EventType: t.Trigger.Identifier.EventType.String(),
				Channel:   t.Trigger.Identifier.Channel,
				Alerting:  t.Alerting,
			}
			if !t.LastAlert.IsZero() {
				ts.LastAlert = t.LastAlert.UTC().Format(time.RFC3339)
			}
			cs.Triggers = append(cs.Triggers, ts)
		}
		payload.Cameras = append(payload.Cameras, cs)
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.log.Error("failed to encode status payload", zap.Error(err))
	}
}

// processStats gathers this process's own CPU/memory usage, grounded on
// the teacher's gopsutil use in its periodic status publisher. Errors are
// logged and yield a zeroed reading rather than failing the whole request.
func (s *Server) processStats() processStatus {
	proc, err := process.NewProcess(int32(os.Getpid()))
	if err != nil {
		s.log.Warn("unable to read process stats", zap.Error(err))
		return processStatus{}
	}

	cpuPercent, err := proc.CPUPercent()
	if err != nil {
		s.log.Warn("unable to read process CPU usage", zap.Error(err))
	}

	memInfo, err := proc.MemoryInfo()
	var rss uint64
	if err != nil {
		s.log.Warn("unable to read process memory usage", zap.Error(err))
	} else if memInfo != nil {
		rss = memInfo.RSS
	}

	return processStatus{CPUPercent: cpuPercent, RSSBytes: rss}
}
