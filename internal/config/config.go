package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Sandbox drivers.
const (
	SandboxDriverRemote = "remote"
	SandboxDriverDocker = "docker"
)

// Config holds runtime configuration values for the API service.
type Config struct {
	AppName          string
	AppEnv           string
	AppPort          string
	DatabaseURL      string
	SQLitePath       string
	RedisURL         string
	NATSURL          string
	EventSubject     string
	JWTSecret        string
	QuestionCacheTTL time.Duration
	RunRateLimit     int
	RunRateWindow    time.Duration
	SeedEnabled      bool
	SeedToken        string
	Sandbox          SandboxConfig
	AI               AIConfig
}

// SandboxConfig selects and tunes the execution backend.
type SandboxConfig struct {
	Driver           string
	Endpoint         string
	ExecutionTimeout time.Duration
	ClientTimeout    time.Duration
	MaxProgramBytes  int
	MaxResponseBytes int64
	DockerHost       string
	MemoryLimitMB    int64
	CPUShares        int64
}

// AIConfig configures the OpenAI compatible assistant. An empty key disables it.
type AIConfig struct {
	APIKey  string
	BaseURL string
	Model   string
}

// HTTPAddress returns the address the HTTP server should listen on.
func (c Config) HTTPAddress() string {
	if strings.HasPrefix(c.AppPort, ":") {
		return c.AppPort
	}

	return fmt.Sprintf(":%s", c.AppPort)
}

// Load reads configuration values from environment variables and optional .env file.
func Load() (Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetEnvPrefix("DEVREADY")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	v.SetDefault("app.name", "DevReady API")
	v.SetDefault("app.env", "development")
	v.SetDefault("app.port", "8080")
	v.SetDefault("sqlite.path", "devready.db")
	v.SetDefault("events.subject", "submission.created")
	v.SetDefault("questions.cache_ttl", "5m")
	v.SetDefault("run.rate_limit", 30)
	v.SetDefault("run.rate_window", "1m")
	v.SetDefault("seed.enabled", false)
	v.SetDefault("sandbox.driver", SandboxDriverRemote)
	v.SetDefault("sandbox.endpoint", "https://code-runner-new.livelypebble-17c142a1.eastus.azurecontainerapps.io/run")
	v.SetDefault("sandbox.execution_timeout", "5s")
	v.SetDefault("sandbox.client_timeout", "10s")
	v.SetDefault("sandbox.max_program_bytes", 256*1024)
	v.SetDefault("sandbox.max_response_bytes", 1<<20)
	v.SetDefault("sandbox.memory_mb", 256)
	v.SetDefault("sandbox.cpu_shares", 512)
	v.SetDefault("ai.base_url", "https://api.deepseek.com")
	v.SetDefault("ai.model", "deepseek-chat")

	durations := map[string]time.Duration{}
	for _, key := range []string{"questions.cache_ttl", "run.rate_window", "sandbox.execution_timeout", "sandbox.client_timeout"} {
		parsed, err := time.ParseDuration(v.GetString(key))
		if err != nil {
			return Config{}, fmt.Errorf("invalid %s: %w", key, err)
		}
		durations[key] = parsed
	}

	cfg := Config{
		AppName:          v.GetString("app.name"),
		AppEnv:           v.GetString("app.env"),
		AppPort:          v.GetString("app.port"),
		DatabaseURL:      v.GetString("database.url"),
		SQLitePath:       v.GetString("sqlite.path"),
		RedisURL:         v.GetString("redis.url"),
		NATSURL:          v.GetString("nats.url"),
		EventSubject:     v.GetString("events.subject"),
		JWTSecret:        v.GetString("jwt.secret"),
		QuestionCacheTTL: durations["questions.cache_ttl"],
		RunRateLimit:     v.GetInt("run.rate_limit"),
		RunRateWindow:    durations["run.rate_window"],
		SeedEnabled:      v.GetBool("seed.enabled"),
		SeedToken:        v.GetString("seed.token"),
		Sandbox: SandboxConfig{
			Driver:           strings.ToLower(strings.TrimSpace(v.GetString("sandbox.driver"))),
			Endpoint:         v.GetString("sandbox.endpoint"),
			ExecutionTimeout: durations["sandbox.execution_timeout"],
			ClientTimeout:    durations["sandbox.client_timeout"],
			MaxProgramBytes:  v.GetInt("sandbox.max_program_bytes"),
			MaxResponseBytes: v.GetInt64("sandbox.max_response_bytes"),
			DockerHost:       v.GetString("sandbox.docker_host"),
			MemoryLimitMB:    v.GetInt64("sandbox.memory_mb"),
			CPUShares:        v.GetInt64("sandbox.cpu_shares"),
		},
		AI: AIConfig{
			APIKey:  v.GetString("ai.api_key"),
			BaseURL: v.GetString("ai.base_url"),
			Model:   v.GetString("ai.model"),
		},
	}

	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) validate() error {
	if c.JWTSecret == "" {
		return fmt.Errorf("jwt secret must be provided")
	}

	switch c.Sandbox.Driver {
	case SandboxDriverRemote:
		if c.Sandbox.Endpoint == "" {
			return fmt.Errorf("sandbox endpoint must be provided for the remote driver")
		}
	case SandboxDriverDocker:
	default:
		return fmt.Errorf("unknown sandbox driver %q", c.Sandbox.Driver)
	}

	if c.Sandbox.ExecutionTimeout <= 0 {
		return fmt.Errorf("sandbox execution timeout must be positive")
	}
	if c.Sandbox.ClientTimeout <= c.Sandbox.ExecutionTimeout {
		return fmt.Errorf("sandbox client timeout (%s) must exceed the execution timeout (%s)", c.Sandbox.ClientTimeout, c.Sandbox.ExecutionTimeout)
	}
	if c.Sandbox.MaxProgramBytes <= 0 || c.Sandbox.MaxResponseBytes <= 0 {
		return fmt.Errorf("sandbox size limits must be positive")
	}
	if c.SeedEnabled && strings.TrimSpace(c.SeedToken) == "" {
		return fmt.Errorf("seed token must be provided when seeding is enabled")
	}
	return nil
}
