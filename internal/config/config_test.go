package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/victornm/techbridge/internal/config"
)

type testConfig struct {
	Name string
	HTTP struct {
		Port int32
	}
	Cache struct {
		TTL time.Duration
	}
}

func defaults() testConfig {
	var c testConfig
	c.Name = "default"
	c.HTTP.Port = 5000
	c.Cache.TTL = time.Hour
	return c
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(p, []byte(content), 0o600))
	return p
}

func TestLoad(t *testing.T) {
	tests := map[string]struct {
		file  string
		env   map[string]string
		check func(t *testing.T, c testConfig)
	}{
		"defaults only": {
			check: func(t *testing.T, c testConfig) {
				assert.Equal(t, "default", c.Name)
				assert.Equal(t, int32(5000), c.HTTP.Port)
				assert.Equal(t, time.Hour, c.Cache.TTL)
			},
		},
		"file overrides defaults": {
			file: "name: file\nhttp:\n  port: 8080\n",
			check: func(t *testing.T, c testConfig) {
				assert.Equal(t, "file", c.Name)
				assert.Equal(t, int32(8080), c.HTTP.Port)
				assert.Equal(t, time.Hour, c.Cache.TTL)
			},
		},
		"env overrides file": {
			file: "name: file\nhttp:\n  port: 8080\n",
			env: map[string]string{
				"TECHBRIDGE_HTTP_PORT": "9090",
				"TECHBRIDGE_CACHE_TTL": "5m",
			},
			check: func(t *testing.T, c testConfig) {
				assert.Equal(t, "file", c.Name)
				assert.Equal(t, int32(9090), c.HTTP.Port)
				assert.Equal(t, 5*time.Minute, c.Cache.TTL)
			},
		},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			for k, v := range tc.env {
				t.Setenv(k, v)
			}

			var o config.Options
			if tc.file != "" {
				o.File = writeFile(t, "config.yaml", tc.file)
			}

			c := defaults()
			require.NoError(t, config.Load(o, &c))
			tc.check(t, c)
		})
	}
}

func TestLoad_DotEnv(t *testing.T) {
	t.Setenv("TECHBRIDGE_NAME", "")
	require.NoError(t, os.Unsetenv("TECHBRIDGE_NAME"))
	t.Cleanup(func() { _ = os.Unsetenv("TECHBRIDGE_NAME") })

	env := writeFile(t, ".env", "TECHBRIDGE_NAME=dotenv\n")

	c := defaults()
	require.NoError(t, config.Load(config.Options{DotEnv: []string{env, filepath.Join(t.TempDir(), "missing.env")}}, &c))
	assert.Equal(t, "dotenv", c.Name)
}

func TestLoad_MissingFile(t *testing.T) {
	c := defaults()
	err := config.Load(config.Options{File: filepath.Join(t.TempDir(), "missing.yaml")}, &c)
	assert.Error(t, err)
}
