//go:build integration_test

// Package demo drives a running server over HTTP. Start it with auth.mode=hmac and the
// same secret, e.g. TECHBRIDGE_AUTH_MODE=hmac TECHBRIDGE_AUTH_HMAC_SECRET=local-secret.
package demo

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"

	"github.com/victornm/techbridge/internal/api"
	"github.com/victornm/techbridge/internal/auth"
	"github.com/victornm/techbridge/internal/domain"
)

const (
	baseURL = "http://localhost:5000/api"
	secret  = "local-secret"
	prefix  = "techbridge"
)

type submitResponse struct {
	Finished bool          `json:"finished"`
	Question *api.Question `json:"question"`
	Score    int           `json:"score"`
	Total    int           `json:"total"`
	Passed   bool          `json:"passed"`
	Feedback string        `json:"feedback"`
}

func TestAssessment(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	var (
		users = []string{"u1", "u2", "u3"}
		d     = "Go"
		wg    = new(sync.WaitGroup)
	)

	// Prepare Redis subscriber
	subscribeAsUser(t, makeRedis(t), wg, "u1")

	// Every user runs a full session concurrently
	var eg errgroup.Group
	for _, u := range users {
		eg.Go(func() error {
			token := signToken(t, u)

			if err := call(ctx, token, http.MethodPost, "/user/sync", nil, nil); err != nil {
				return fmt.Errorf("user %q sync: %w", u, err)
			}

			var start api.StartSessionResponse
			if err := call(ctx, token, http.MethodPost, "/assessment/start", api.StartSessionRequest{Domain: d}, &start); err != nil {
				return fmt.Errorf("user %q start: %w", u, err)
			}
			if len(start.Question.Options) == 0 {
				t.Logf("User %q already completed %s", u, d)
				return nil
			}
			t.Logf("User %q started assessment=%s level=%s", u, start.AssessmentID, start.Level)

			q := &start.Question
			for q != nil {
				var resp submitResponse
				req := api.SubmitAnswerRequest{AssessmentID: start.AssessmentID, Answer: q.Options[0]}
				if err := call(ctx, token, http.MethodPost, "/assessment/submit", req, &resp); err != nil {
					return fmt.Errorf("user %q submit answer: %w", u, err)
				}

				if resp.Finished {
					t.Logf("User %q finished: score=%d/%d passed=%v feedback=%q", u, resp.Score, resp.Total, resp.Passed, resp.Feedback)
				}
				q = resp.Question
			}

			return nil
		})
	}

	require.NoError(t, eg.Wait())
	wg.Wait()
}

func signToken(t *testing.T, u string) string {
	token, err := auth.NewHMACVerifier(auth.HMACConfig{Secret: secret}).Sign(domain.Identity{
		Subject: u,
		Name:    u,
		Email:   u + "@example.com",
	}, time.Hour)
	require.NoError(t, err)
	return token
}

func call(ctx context.Context, token, method, path string, body, out any) error {
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			return err
		}
	}

	req, err := http.NewRequestWithContext(ctx, method, baseURL+path, &buf)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		var e map[string]any
		_ = json.NewDecoder(resp.Body).Decode(&e)
		return fmt.Errorf("status %d: %v", resp.StatusCode, e)
	}

	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

func subscribeAsUser(t *testing.T, rc redis.UniversalClient, wg *sync.WaitGroup, u string) {
	wg.Add(1)
	sub := subscribeRedis(t, rc, fmt.Sprintf("%s:user:%s", prefix, u))
	go func() {
		defer wg.Done()

		for msg := range sub {
			var n struct {
				Event string          `json:"event"`
				Data  json.RawMessage `json:"data"`
			}
			if err := json.Unmarshal([]byte(msg.Payload), &n); err != nil {
				t.Logf("unmarshal notification: %v", err)
				continue
			}

			switch n.Event {
			case domain.EventNameAssessmentGraded:
				var g api.AssessmentGraded
				if err := json.Unmarshal(n.Data, &g); err != nil {
					t.Logf("unmarshal graded: %v", err)
					continue
				}

				t.Logf("%s graded: %s level=%s score=%d/%d accuracy=%s next=%s", u, g.Domain, g.Level, g.Score, g.Total, g.Accuracy, g.NextLevel)
				return
			}
		}
	}()
}

func subscribeRedis(t *testing.T, rc redis.UniversalClient, channel string) <-chan *redis.Message {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	t.Cleanup(cancel)

	sub := rc.Subscribe(ctx, channel)
	t.Cleanup(func() { sub.Close() })

	c := make(chan *redis.Message)
	go func() {
		defer close(c)

		for {
			msg, err := sub.ReceiveMessage(ctx)
			if err != nil {
				t.Log(err)
				return
			}

			c <- msg
		}
	}()

	return c
}

func makeRedis(t *testing.T) redis.UniversalClient {
	r := redis.NewUniversalClient(&redis.UniversalOptions{
		Addrs: []string{"localhost:6379"},
	})
	t.Cleanup(func() { r.Close() })

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := r.Ping(ctx).Err(); err != nil {
		t.Fatal(err)
	}

	return r
}
