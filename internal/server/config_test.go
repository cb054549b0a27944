package server

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/victornm/techbridge/internal/llm"
)

func validConfig() Config {
	c := DefaultConfig()
	c.Auth.Firebase.ProjectID = "tech-bridge"
	c.LLM.Gemini.APIKey = "key"
	return c
}

func TestConfig_Validate(t *testing.T) {
	tests := map[string]struct {
		arrange func(c *Config)
		wantErr bool
	}{
		"defaults with credentials": {
			arrange: func(c *Config) {},
		},
		"firebase without project": {
			arrange: func(c *Config) { c.Auth.Firebase.ProjectID = "" },
			wantErr: true,
		},
		"hmac with secret": {
			arrange: func(c *Config) {
				c.Auth.Mode = AuthHMAC
				c.Auth.HMAC.Secret = "secret"
			},
		},
		"hmac without secret": {
			arrange: func(c *Config) { c.Auth.Mode = AuthHMAC },
			wantErr: true,
		},
		"unknown auth mode": {
			arrange: func(c *Config) { c.Auth.Mode = "basic" },
			wantErr: true,
		},
		"llm grading": {
			arrange: func(c *Config) { c.Assessment.Grading = GradingLLM },
		},
		"unknown grading": {
			arrange: func(c *Config) { c.Assessment.Grading = "fuzzy" },
			wantErr: true,
		},
		"llm without key": {
			arrange: func(c *Config) { c.LLM.Gemini.APIKey = "" },
			wantErr: true,
		},
		"mock llm": {
			arrange: func(c *Config) {
				c.LLM.Provider = llm.ProviderMock
				c.LLM.Gemini.APIKey = ""
			},
		},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			c := validConfig()
			tc.arrange(&c)

			err := c.Validate()
			if tc.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestCorsMiddleware(t *testing.T) {
	c := DefaultConfig()
	assert.NotPanics(t, func() { corsMiddleware(c) })

	c.HTTP.CORS.AllowOrigins = []string{"http://localhost:3000"}
	assert.NotPanics(t, func() { corsMiddleware(c) })
}
