// Package config loads the bridge's TOML configuration file, overridable
// by HIKSINK_-prefixed environment variables, grounded on
// mosleyit-reolink_server/internal/config/config.go's Viper setup and
// original_source/src/config.rs for field shape and identifier-generation
// semantics.
package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// Config is the top-level TOML document, matching spec.md section 6
// exactly, plus the status-surface extension from SPEC_FULL.md.
type Config struct {
	System System   `mapstructure:"system"`
	MQTT   MQTT     `mapstructure:"mqtt"`
	Camera []Camera `mapstructure:"camera"`
	Status Status   `mapstructure:"status"`
}

// System holds process-wide settings.
type System struct {
	LogLevel string `mapstructure:"log_level"`
}

// MQTT holds the broker connection and topic scheme.
type MQTT struct {
	Address            string `mapstructure:"address"`
	Port               int    `mapstructure:"port"`
	Username           string `mapstructure:"username"`
	Password           string `mapstructure:"password"`
	BaseTopic          string `mapstructure:"base_topic"`
	HomeAssistantTopic string `mapstructure:"home_assistant_topic"`
}

// Camera is one configured device. Identifier is derived after load, never
// read from the file (mirrors the original's generated_id, skipped on
// deserialize).
type Camera struct {
	Identifier string `mapstructure:"-"`
	Name       string `mapstructure:"name"`
	Address    string `mapstructure:"address"`
	Port       int    `mapstructure:"port"`
	Username   string `mapstructure:"username"`
	Password   string `mapstructure:"password"`
}

// Status configures the optional status/health HTTP surface.
type Status struct {
	Enabled            bool     `mapstructure:"enabled"`
	Address            string   `mapstructure:"address"`
	AuthToken          string   `mapstructure:"auth_token"`
	JWTSecret          string   `mapstructure:"jwt_secret"`
	CORSAllowedOrigins []string `mapstructure:"cors_allowed_origins"`
}

// Load reads the TOML file at path, applies HIKSINK_-prefixed environment
// overrides, derives camera identifiers, and rejects duplicates.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("toml")

	v.SetEnvPrefix("HIKSINK")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("system.log_level", "info")
	v.SetDefault("mqtt.base_topic", "hikvision_cameras")
	v.SetDefault("mqtt.home_assistant_topic", "homeassistant")
	v.SetDefault("status.enabled", false)
	v.SetDefault("status.address", "127.0.0.1:8090")

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := deriveIdentifiers(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// deriveIdentifiers assigns each camera's Identifier from its Name (lower-
// cased [a-z0-9_], spaces to underscores, other runes dropped) and rejects
// duplicates, mirroring config.rs's load_config.
func deriveIdentifiers(cfg *Config) error {
	seen := make(map[string]bool, len(cfg.Camera))
	for i := range cfg.Camera {
		cam := &cfg.Camera[i]
		cam.Identifier = Identifier(cam.Name)
		if seen[cam.Identifier] {
			return fmt.Errorf("camera %q has duplicate id: %s", cam.Name, cam.Identifier)
		}
		seen[cam.Identifier] = true
	}
	return nil
}

// Identifier derives a camera identifier from its display name: letters
// and digits are lowercased, spaces become underscores, everything else is
// dropped.
func Identifier(name string) string {
	var b strings.Builder
	for _, r := range name {
		switch {
		case r == ' ':
			b.WriteByte('_')
		case r == '_' || (r >= '0' && r <= '9'):
			b.WriteRune(r)
		case r >= 'a' && r <= 'z':
			b.WriteRune(r)
		case r >= 'A' && r <= 'Z':
			b.WriteRune(r - 'A' + 'a')
		}
	}
	return b.String()
}
