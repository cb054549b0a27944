package server

import (
	"fmt"
	"time"

	"github.com/victornm/techbridge/internal/llm"
)

const (
	GradingExact = "exact"
	GradingLLM   = "llm"

	AuthFirebase = "firebase"
	AuthHMAC     = "hmac"
)

type Config struct {
	HTTP struct {
		Port     int32
		BasePath string
		CORS     struct {
			AllowOrigins []string
		}
	}

	GRPC struct {
		Port int32
	}

	Log struct {
		// Level is one of debug, info, warn or error.
		Level string
		// Format is json or text.
		Format string
	}

	Redis struct {
		Addrs  []string
		Pass   string
		Prefix string
	}

	Postgres struct {
		Addr string
		User string
		Pass string
		Name string
	}

	Auth struct {
		// Mode is firebase or hmac.
		Mode string

		Firebase struct {
			ProjectID string
			CertsTTL  time.Duration
		}

		HMAC struct {
			Secret   string
			Issuer   string
			Audience string
		}
	}

	LLM llm.Config

	Assessment struct {
		QuestionCount int
		PassScore     int
		// Grading is exact or llm.
		Grading string
		LockTTL time.Duration
	}

	YouTube struct {
		APIKey   string
		Language string
	}

	Cache struct {
		TTL time.Duration
	}
}

func DefaultConfig() Config {
	var c Config

	c.HTTP.Port = 5000
	c.HTTP.BasePath = "/api"
	c.GRPC.Port = 5001

	c.Log.Level = "info"
	c.Log.Format = "json"

	c.Redis.Addrs = []string{"localhost:6379"}
	c.Redis.Prefix = "techbridge"

	c.Postgres.Addr = "localhost:5432"
	c.Postgres.User = "postgres"
	c.Postgres.Name = "techbridge"

	c.Auth.Mode = AuthFirebase
	c.Auth.Firebase.CertsTTL = time.Hour

	c.LLM = llm.DefaultConfig()

	c.Assessment.QuestionCount = 5
	c.Assessment.PassScore = 4
	c.Assessment.Grading = GradingExact
	c.Assessment.LockTTL = 30 * time.Second

	c.YouTube.Language = "en"
	c.Cache.TTL = 24 * time.Hour

	return c
}

// Validate checks settings that cannot be defaulted.
func (c Config) Validate() error {
	switch c.Auth.Mode {
	case AuthFirebase:
		if c.Auth.Firebase.ProjectID == "" {
			return fmt.Errorf("auth.firebase.projectid is required for firebase auth")
		}
	case AuthHMAC:
		if c.Auth.HMAC.Secret == "" {
			return fmt.Errorf("auth.hmac.secret is required for hmac auth")
		}
	default:
		return fmt.Errorf("unknown auth mode: %q", c.Auth.Mode)
	}

	switch c.Assessment.Grading {
	case GradingExact, GradingLLM:
	default:
		return fmt.Errorf("unknown grading strategy: %q", c.Assessment.Grading)
	}

	if err := c.LLM.Validate(); err != nil {
		return fmt.Errorf("llm: %w", err)
	}

	return nil
}
