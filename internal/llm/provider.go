package llm

import (
	"context"
	"encoding/json"
)

// Provider is a generative language model that answers a prompt with JSON.
type Provider interface {
	// Generate sends the request and returns the cleaned response content. When req.Schema is
	// set the content has been validated against it.
	Generate(ctx context.Context, req Request) (*Response, error)

	// ModelID returns the model identifier the provider sends requests to.
	ModelID() string
}

type Request struct {
	// System sets the role and constraints of the model.
	System string

	// Messages is the conversation. Tech Bridge only sends single-turn prompts.
	Messages []Message

	// Schema, when set, is passed to the vendor's structured output mode and enforced on the
	// response.
	Schema *Schema

	MaxTokens int

	// Temperature in [0, 1]. Nil leaves the vendor default.
	Temperature *float64
}

type Message struct {
	Role    Role
	Content string
}

type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// UserPrompt is a request with a system prompt and one user message.
func UserPrompt(system, user string) Request {
	return Request{
		System:   system,
		Messages: []Message{{Role: RoleUser, Content: user}},
	}
}

// Schema is a JSON Schema the model output must match.
type Schema struct {
	// Name identifies the schema in vendor requests and in the compiled schema cache.
	Name        string
	Description string
	Definition  map[string]any
}

type Response struct {
	// Content is the JSON document produced by the model, stripped of markdown fences.
	Content json.RawMessage
	Usage   Usage
	Model   string
	// StopReason is normalized to "end", "max_tokens" or "error".
	StopReason string
}

type Usage struct {
	InputTokens  int
	OutputTokens int
	TotalTokens  int
}

// Float returns a pointer to v, for optional request fields such as Temperature.
func Float(v float64) *float64 {
	return &v
}
