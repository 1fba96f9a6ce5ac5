package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("DEVREADY_JWT_SECRET", "secret")

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, "DevReady API", cfg.AppName)
	require.Equal(t, ":8080", cfg.HTTPAddress())
	require.Equal(t, SandboxDriverRemote, cfg.Sandbox.Driver)
	require.Equal(t, 5*time.Second, cfg.Sandbox.ExecutionTimeout)
	require.Equal(t, 10*time.Second, cfg.Sandbox.ClientTimeout)
	require.Equal(t, 5*time.Minute, cfg.QuestionCacheTTL)
	require.Equal(t, "submission.created", cfg.EventSubject)
	require.False(t, cfg.SeedEnabled)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("DEVREADY_JWT_SECRET", "secret")
	t.Setenv("DEVREADY_APP_PORT", ":9090")
	t.Setenv("DEVREADY_SANDBOX_DRIVER", " Docker ")
	t.Setenv("DEVREADY_SANDBOX_EXECUTION_TIMEOUT", "2s")
	t.Setenv("DEVREADY_SANDBOX_CLIENT_TIMEOUT", "3s")
	t.Setenv("DEVREADY_SEED_ENABLED", "true")
	t.Setenv("DEVREADY_SEED_TOKEN", "token")

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, ":9090", cfg.HTTPAddress())
	require.Equal(t, SandboxDriverDocker, cfg.Sandbox.Driver)
	require.Equal(t, 2*time.Second, cfg.Sandbox.ExecutionTimeout)
	require.True(t, cfg.SeedEnabled)
}

func TestLoadRejectsInvalidConfiguration(t *testing.T) {
	cases := map[string]map[string]string{
		"missing jwt secret": {},
		"unknown driver": {
			"DEVREADY_JWT_SECRET":     "secret",
			"DEVREADY_SANDBOX_DRIVER": "lambda",
		},
		"client timeout not above execution timeout": {
			"DEVREADY_JWT_SECRET":                "secret",
			"DEVREADY_SANDBOX_EXECUTION_TIMEOUT": "5s",
			"DEVREADY_SANDBOX_CLIENT_TIMEOUT":    "5s",
		},
		"seeding without token": {
			"DEVREADY_JWT_SECRET":   "secret",
			"DEVREADY_SEED_ENABLED": "true",
		},
		"bad duration": {
			"DEVREADY_JWT_SECRET":       "secret",
			"DEVREADY_RUN_RATE_WINDOW": "soon",
		},
	}

	for name, env := range cases {
		t.Run(name, func(t *testing.T) {
			for key, value := range env {
				t.Setenv(key, value)
			}
			_, err := Load()
			require.Error(t, err)
		})
	}
}
