package llm_test

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/victornm/techbridge/internal/llm"
)

var pairSchema = &llm.Schema{
	Name: "test-pair",
	Definition: map[string]any{
		"type": "object",
		"properties": map[string]any{
			"name": map[string]any{"type": "string", "minLength": 1},
			"tags": map[string]any{
				"type":     "array",
				"items":    map[string]any{"type": "string"},
				"minItems": 2,
				"maxItems": 2,
			},
		},
		"required":             []any{"name", "tags"},
		"additionalProperties": false,
	},
}

func TestCleanJSON(t *testing.T) {
	tests := map[string]struct {
		in   string
		want string
	}{
		"plain object is unchanged": {
			in:   `{"a":1}`,
			want: `{"a":1}`,
		},
		"json fence is stripped": {
			in:   "```json\n{\"a\":1}\n```",
			want: `{"a":1}`,
		},
		"bare fence is stripped": {
			in:   "```\n[1,2]\n```",
			want: `[1,2]`,
		},
		"prose around the object is dropped": {
			in:   "Here is your quiz:\n{\"a\":{\"b\":2}}\nGood luck!",
			want: `{"a":{"b":2}}`,
		},
		"single line fence is stripped": {
			in:   "```json{\"a\":1}```",
			want: `{"a":1}`,
		},
		"fences inside string values are kept": {
			in:   "```json\n{\"text\":\"What does this print?\\n```go\\nfmt.Println(1)\\n```\"}\n```",
			want: "{\"text\":\"What does this print?\\n```go\\nfmt.Println(1)\\n```\"}",
		},
		"unfenced value with a fence is unchanged": {
			in:   "{\"text\":\"use ``` for code\"}",
			want: "{\"text\":\"use ``` for code\"}",
		},
		"empty stays empty": {
			in:   "  \n ",
			want: ``,
		},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			assert.Equal(t, tt.want, string(llm.CleanJSON(tt.in)))
		})
	}
}

func TestValidate(t *testing.T) {
	tests := map[string]struct {
		raw     string
		schema  *llm.Schema
		wantErr bool
	}{
		"conforming document passes": {
			raw:    `{"name":"x","tags":["a","b"]}`,
			schema: pairSchema,
		},
		"missing field fails": {
			raw:     `{"name":"x"}`,
			schema:  pairSchema,
			wantErr: true,
		},
		"wrong array size fails": {
			raw:     `{"name":"x","tags":["a"]}`,
			schema:  pairSchema,
			wantErr: true,
		},
		"unknown field fails": {
			raw:     `{"name":"x","tags":["a","b"],"extra":true}`,
			schema:  pairSchema,
			wantErr: true,
		},
		"malformed JSON fails without schema": {
			raw:     `{"name":`,
			wantErr: true,
		},
		"any JSON passes without schema": {
			raw: `[1,2,3]`,
		},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			err := llm.Validate(tt.schema, json.RawMessage(tt.raw))
			if !tt.wantErr {
				require.NoError(t, err)
				return
			}

			var invalid *llm.ErrInvalidResponse
			require.ErrorAs(t, err, &invalid)
			assert.Equal(t, tt.raw, string(invalid.Content), "raw payload should be kept for diagnostics")
		})
	}
}

func TestMockProvider(t *testing.T) {
	m := llm.NewMockProvider(
		llm.MockResponse{Content: json.RawMessage("```json\n{\"name\":\"x\",\"tags\":[\"a\",\"b\"]}\n```")},
		llm.MockResponse{Content: json.RawMessage(`{"name":""}`)},
		llm.MockResponse{Err: &llm.ErrRateLimit{}},
	)

	req := llm.UserPrompt("sys", "hello")
	req.Schema = pairSchema

	resp, err := m.Generate(context.Background(), req)
	require.NoError(t, err)
	assert.JSONEq(t, `{"name":"x","tags":["a","b"]}`, string(resp.Content))

	_, err = m.Generate(context.Background(), req)
	var invalid *llm.ErrInvalidResponse
	require.ErrorAs(t, err, &invalid)

	_, err = m.Generate(context.Background(), req)
	var rl *llm.ErrRateLimit
	require.ErrorAs(t, err, &rl)

	_, err = m.Generate(context.Background(), req)
	var unavailable *llm.ErrProviderUnavailable
	require.ErrorAs(t, err, &unavailable, "empty queue should report the provider as unavailable")

	calls := m.Calls()
	require.Len(t, calls, 4)
	assert.Equal(t, "sys", calls[0].System)
	assert.Equal(t, "hello", calls[0].Messages[0].Content)
}

type blockingProvider struct{}

func (blockingProvider) Generate(ctx context.Context, _ llm.Request) (*llm.Response, error) {
	<-ctx.Done()
	return nil, ctx.Err()
}

func (blockingProvider) ModelID() string { return "blocking" }

func TestWithTimeout(t *testing.T) {
	p := llm.WithTimeout(blockingProvider{}, 20*time.Millisecond)

	start := time.Now()
	_, err := p.Generate(context.Background(), llm.Request{})

	var timeout *llm.ErrTimeout
	require.ErrorAs(t, err, &timeout)
	assert.Equal(t, 20*time.Millisecond, timeout.After)
	assert.True(t, errors.Is(err, context.DeadlineExceeded))
	assert.Less(t, time.Since(start), time.Second)
	assert.Equal(t, "blocking", p.ModelID())
}

func TestWithLogging_PassesThrough(t *testing.T) {
	m := llm.NewMockProvider(llm.MockResponse{Content: json.RawMessage(`{"ok":true}`)})
	p := llm.WithLogging(m)

	resp, err := p.Generate(llm.WithPurpose(context.Background(), "test"), llm.Request{})
	require.NoError(t, err)
	assert.JSONEq(t, `{"ok":true}`, string(resp.Content))
	assert.Equal(t, "mock", p.ModelID())
}

func TestConfig_Validate(t *testing.T) {
	c := llm.DefaultConfig()
	require.Error(t, c.Validate(), "gemini without a key should be rejected")

	c.Gemini.APIKey = "k"
	require.NoError(t, c.Validate())

	c.Provider = llm.ProviderMock
	require.NoError(t, c.Validate())

	c.Provider = "palm"
	require.Error(t, c.Validate())
}

func TestNewProvider_Mock(t *testing.T) {
	c := llm.DefaultConfig()
	c.Provider = llm.ProviderMock

	p, err := llm.NewProvider(context.Background(), c)
	require.NoError(t, err)
	assert.Equal(t, "mock", p.ModelID())
}
