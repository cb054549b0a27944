package question

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/victornm/techbridge/internal/domain"
	"github.com/victornm/techbridge/internal/llm"
)

type Config struct {
	Provider    llm.Provider
	MaxTokens   int
	Temperature float64
}

// Generator produces assessment questions with an LLM.
type Generator struct {
	provider    llm.Provider
	maxTokens   int
	temperature float64
}

func NewGenerator(c Config) *Generator {
	return &Generator{
		provider:    c.Provider,
		maxTokens:   c.MaxTokens,
		temperature: c.Temperature,
	}
}

// GenerateRequest describes the question to generate.
type GenerateRequest struct {
	Domain string
	Level  domain.Level
	// Position is the 1-based position of the question within its session.
	Position int
	// Exclude lists texts of questions already asked in the session.
	Exclude []string
}

type questionOutput struct {
	Text          string   `json:"text"`
	Options       []string `json:"options"`
	CorrectAnswer string   `json:"correctAnswer"`
}

// Generate asks the provider for one question. Output that does not decode into a valid
// question fails with *llm.ErrInvalidResponse carrying the raw payload.
func (g *Generator) Generate(ctx context.Context, req GenerateRequest) (*domain.Question, error) {
	ctx = llm.WithPurpose(ctx, "question-gen")

	r := llm.UserPrompt(generateSystemPrompt, generatePrompt(req))
	r.Schema = questionSchema
	r.MaxTokens = g.maxTokens
	if g.temperature > 0 {
		r.Temperature = llm.Float(g.temperature)
	}

	resp, err := g.provider.Generate(ctx, r)
	if err != nil {
		return nil, fmt.Errorf("generate question: %w", err)
	}

	var out questionOutput
	if err := json.Unmarshal(resp.Content, &out); err != nil {
		return nil, &llm.ErrInvalidResponse{Content: resp.Content, Err: err}
	}

	q := &domain.Question{
		ID:            req.Position,
		Text:          strings.TrimSpace(out.Text),
		Options:       out.Options,
		CorrectAnswer: out.CorrectAnswer,
	}

	if err := check(q, req.Exclude); err != nil {
		return nil, &llm.ErrInvalidResponse{Content: resp.Content, Err: err}
	}

	return q, nil
}

func check(q *domain.Question, exclude []string) error {
	if q.Text == "" {
		return fmt.Errorf("empty question text")
	}

	if len(q.Options) != OptionCount {
		return fmt.Errorf("want %d options, got %d", OptionCount, len(q.Options))
	}

	seen := make(map[string]bool, len(q.Options))
	for _, o := range q.Options {
		if strings.TrimSpace(o) == "" {
			return fmt.Errorf("empty option")
		}
		if seen[o] {
			return fmt.Errorf("duplicate option %q", o)
		}
		seen[o] = true
	}

	if !seen[q.CorrectAnswer] {
		return fmt.Errorf("correct answer %q is not one of the options", q.CorrectAnswer)
	}

	for _, e := range exclude {
		if strings.EqualFold(strings.TrimSpace(e), q.Text) {
			return fmt.Errorf("question repeats an earlier one: %q", q.Text)
		}
	}

	return nil
}
