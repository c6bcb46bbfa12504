// Command hiksink bridges Hikvision IP camera alert streams to MQTT,
// publishing Home Assistant MQTT discovery payloads alongside raw trigger
// state. Wiring order (flags -> config -> logger -> manager -> MQTT
// adapter -> supervisor -> optional status server) follows
// mosleyit-reolink_server/cmd/server/main.go; signal-handling shutdown is
// grounded on cmd/cam-bus/main.go.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/cornerbit/hiksink/internal/config"
	"github.com/cornerbit/hiksink/internal/logging"
	"github.com/cornerbit/hiksink/internal/manager"
	"github.com/cornerbit/hiksink/internal/mqttadapter"
	"github.com/cornerbit/hiksink/internal/statusapi"
	"github.com/cornerbit/hiksink/internal/supervisor"
	"github.com/cornerbit/hiksink/internal/topics"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "hiksink:", err)
		os.Exit(1)
	}
}

func run() error {
	configPath := flag.String("c", envOrDefault("HIKSINK_CONFIG", "config.toml"), "path to config.toml")
	flag.StringVar(configPath, "config", *configPath, "path to config.toml")
	flag.Parse()

	// A missing .env is routine in production deployments; only local
	// development relies on it, so its absence is not worth aborting on.
	_ = godotenv.Load()

	cfg, err := config.Load(*configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	log, err := logging.New(cfg.System.LogLevel)
	if err != nil {
		return fmt.Errorf("building logger: %w", err)
	}
	defer log.Sync() //nolint:errcheck

	scheme := topics.Scheme{Base: cfg.MQTT.BaseTopic, HomeAssistant: cfg.MQTT.HomeAssistantTopic}

	cameraConfigs := make([]manager.CameraConfig, 0, len(cfg.Camera))
	supervisorCameras := make([]supervisor.CameraConfig, 0, len(cfg.Camera))
	for _, cam := range cfg.Camera {
		cameraConfigs = append(cameraConfigs, manager.CameraConfig{ID: cam.Identifier, Name: cam.Name})
		port := cam.Port
		if port == 0 {
			port = 80
		}
		supervisorCameras = append(supervisorCameras, supervisor.CameraConfig{
			ID:       cam.Identifier,
			Name:     cam.Name,
			Address:  cam.Address,
			Port:     port,
			Username: cam.Username,
			Password: cam.Password,
		})
	}

	m := manager.New(cameraConfigs, scheme, log.Named("manager"))

	adapter, err := mqttadapter.New(mqttadapter.Config{
		Host:     cfg.MQTT.Address,
		Port:     cfg.MQTT.Port,
		Username: cfg.MQTT.Username,
		Password: cfg.MQTT.Password,
	}, m.LastWill(), log.Named("mqtt"))
	if err != nil {
		return fmt.Errorf("connecting to MQTT broker: %w", err)
	}
	defer adapter.Close()

	sup := supervisor.New(supervisorCameras, m, adapter, log.Named("supervisor"))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	supervisorDone := make(chan error, 1)
	go func() { supervisorDone <- sup.Run(ctx) }()

	if cfg.Status.Enabled {
		status, err := statusapi.New(statusapi.Config{
			Enabled:            cfg.Status.Enabled,
			Address:            cfg.Status.Address,
			AuthToken:          cfg.Status.AuthToken,
			JWTSecret:          cfg.Status.JWTSecret,
			CORSAllowedOrigins: cfg.Status.CORSAllowedOrigins,
		}, sup, sup.Ready, log.Named("statusapi"))
		if err != nil {
			return fmt.Errorf("building status server: %w", err)
		}
		go func() {
			if err := status.ListenAndServe(ctx); err != nil {
				log.Error("status server stopped", zap.Error(err))
			}
		}()
	}

	select {
	case <-sigCh:
		log.Info("shutdown signal received")
	case err := <-supervisorDone:
		if err != nil {
			log.Error("supervisor stopped unexpectedly", zap.Error(err))
		}
	}

	cancel()
	return nil
}

func envOrDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
