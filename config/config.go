// Package config loads process configuration from an optional YAML file
// and the environment. Environment variables win over the file.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	"temporal-worker-onboarding/shared"
)

// Temporal locates the Temporal frontend.
type Temporal struct {
	HostPort  string `yaml:"hostPort"`
	Namespace string `yaml:"namespace"`
}

// Backend configures the onboarding backend client.
type Backend struct {
	BaseURL       string        `yaml:"baseUrl"`
	CallTimeout   time.Duration `yaml:"callTimeout"`
	UploadTimeout time.Duration `yaml:"uploadTimeout"`
}

// Adapters configures the verification and e-signature adapters.
type Adapters struct {
	VerificationEnabled bool          `yaml:"verificationEnabled"`
	SigningEmbedBase    string        `yaml:"signingEmbedBase"`
	RedisURL            string        `yaml:"redisUrl"`
	HandoffTTL          time.Duration `yaml:"handoffTtl"`
}

// Server configures the HTTP listeners of the server binary.
type Server struct {
	Addr              string        `yaml:"addr"`
	MetricsAddr       string        `yaml:"metricsAddr"`
	ShutdownTimeout   time.Duration `yaml:"shutdownTimeout"`
	RunActivityWorker bool          `yaml:"runActivityWorker"`
}

// Config is the full process configuration.
type Config struct {
	Temporal        Temporal `yaml:"temporal"`
	Backend         Backend  `yaml:"backend"`
	Adapters        Adapters `yaml:"adapters"`
	Server          Server   `yaml:"server"`
	HostCallbackURL string   `yaml:"hostCallbackUrl"`
	LogLevel        string   `yaml:"logLevel"`
}

// Default returns the configuration used when nothing is overridden.
func Default() Config {
	return Config{
		Temporal: Temporal{
			HostPort:  "localhost:7233",
			Namespace: "default",
		},
		Backend: Backend{
			BaseURL:       "https://api.joinpuzzl.com",
			CallTimeout:   shared.RemoteCallTimeout,
			UploadTimeout: shared.UploadTimeout,
		},
		Adapters: Adapters{
			VerificationEnabled: true,
			SigningEmbedBase:    "https://app.joinpuzzl.com/mobile/hellosign",
			HandoffTTL:          shared.AdapterSessionTimeout + 5*time.Minute,
		},
		Server: Server{
			Addr:              ":8080",
			MetricsAddr:       ":9090",
			ShutdownTimeout:   10 * time.Second,
			RunActivityWorker: true,
		},
		LogLevel: "info",
	}
}

// Load builds a Config from defaults, then the YAML file at path (skipped
// when path is empty), then the environment.
func Load(path string) (Config, error) {
	cfg := Default()
	if path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config file: %w", err)
		}
		if err := yaml.Unmarshal(raw, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config file %s: %w", path, err)
		}
	}
	if err := cfg.applyEnv(); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// FromEnv is Load without a config file.
func FromEnv() (Config, error) {
	return Load("")
}

// Validate reports settings no process can run with.
func (c Config) Validate() error {
	var errs []error
	if c.Temporal.HostPort == "" {
		errs = append(errs, errors.New("temporal host port is required"))
	}
	if c.Backend.BaseURL == "" {
		errs = append(errs, errors.New("backend base url is required"))
	}
	if c.Backend.CallTimeout <= 0 || c.Backend.UploadTimeout <= 0 {
		errs = append(errs, errors.New("backend timeouts must be positive"))
	}
	if c.Adapters.HandoffTTL < shared.AdapterSessionTimeout {
		errs = append(errs, fmt.Errorf("handoff ttl must be at least %s", shared.AdapterSessionTimeout))
	}
	return errors.Join(errs...)
}

func (c *Config) applyEnv() error {
	setString(&c.Temporal.HostPort, "TEMPORAL_HOST_PORT")
	setString(&c.Temporal.Namespace, "TEMPORAL_NAMESPACE")
	setString(&c.Backend.BaseURL, "ONBOARDING_BACKEND_URL")
	setString(&c.Adapters.SigningEmbedBase, "ONBOARDING_SIGNING_EMBED_BASE")
	setString(&c.Adapters.RedisURL, "ONBOARDING_REDIS_URL")
	setString(&c.Server.Addr, "ONBOARDING_ADDR")
	setString(&c.Server.MetricsAddr, "ONBOARDING_METRICS_ADDR")
	setString(&c.HostCallbackURL, "ONBOARDING_HOST_CALLBACK_URL")
	setString(&c.LogLevel, "ONBOARDING_LOG_LEVEL")

	return errors.Join(
		setDuration(&c.Backend.CallTimeout, "ONBOARDING_CALL_TIMEOUT"),
		setDuration(&c.Backend.UploadTimeout, "ONBOARDING_UPLOAD_TIMEOUT"),
		setDuration(&c.Adapters.HandoffTTL, "ONBOARDING_HANDOFF_TTL"),
		setDuration(&c.Server.ShutdownTimeout, "ONBOARDING_SHUTDOWN_TIMEOUT"),
		setBool(&c.Adapters.VerificationEnabled, "ONBOARDING_VERIFICATION_ENABLED"),
		setBool(&c.Server.RunActivityWorker, "ONBOARDING_RUN_ACTIVITY_WORKER"),
	)
}

func setString(dst *string, key string) {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		*dst = v
	}
}

func setDuration(dst *time.Duration, key string) error {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fmt.Errorf("%s: %w", key, err)
	}
	*dst = d
	return nil
}

func setBool(dst *bool, key string) error {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return fmt.Errorf("%s: %w", key, err)
	}
	*dst = b
	return nil
}
