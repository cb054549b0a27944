package question_test

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/victornm/techbridge/internal/domain"
	"github.com/victornm/techbridge/internal/llm"
	"github.com/victornm/techbridge/internal/question"
)

func TestGenerator_Generate(t *testing.T) {
	type outputs struct {
		q     *domain.Question
		err   error
		calls []llm.Request
	}

	tests := map[string]struct {
		content string
		req     question.GenerateRequest
		assert  func(t *testing.T, out outputs)
	}{
		"valid question should be decoded": {
			content: "```json\n" + `{"text":"What does len return?","options":["count","cap","size","none"],"correctAnswer":"count"}` + "\n```",
			req:     question.GenerateRequest{Domain: "Go", Level: domain.LevelBeginner, Position: 2, Exclude: []string{"What is a slice?"}},
			assert: func(t *testing.T, out outputs) {
				require.NoError(t, out.err)
				assert.Equal(t, &domain.Question{
					ID:            2,
					Text:          "What does len return?",
					Options:       []string{"count", "cap", "size", "none"},
					CorrectAnswer: "count",
				}, out.q)

				require.Len(t, out.calls, 1)
				prompt := out.calls[0].Messages[0].Content
				assert.Contains(t, prompt, "Domain: Go")
				assert.Contains(t, prompt, "Level: Beginner")
				assert.Contains(t, prompt, "1. What is a slice?")
				assert.NotNil(t, out.calls[0].Schema)
			},
		},

		"correct answer outside the options should be rejected": {
			content: `{"text":"q","options":["a","b","c","d"],"correctAnswer":"e"}`,
			req:     question.GenerateRequest{Domain: "Go", Level: domain.LevelBeginner, Position: 1},
			assert: func(t *testing.T, out outputs) {
				var invalid *llm.ErrInvalidResponse
				require.ErrorAs(t, out.err, &invalid)
				assert.Contains(t, string(invalid.Content), `"correctAnswer":"e"`)
			},
		},

		"three options should be rejected": {
			content: `{"text":"q","options":["a","b","c"],"correctAnswer":"a"}`,
			req:     question.GenerateRequest{Domain: "Go", Level: domain.LevelBeginner, Position: 1},
			assert: func(t *testing.T, out outputs) {
				var invalid *llm.ErrInvalidResponse
				require.ErrorAs(t, out.err, &invalid)
			},
		},

		"duplicate options should be rejected": {
			content: `{"text":"q","options":["a","a","c","d"],"correctAnswer":"a"}`,
			req:     question.GenerateRequest{Domain: "Go", Level: domain.LevelBeginner, Position: 1},
			assert: func(t *testing.T, out outputs) {
				var invalid *llm.ErrInvalidResponse
				require.ErrorAs(t, out.err, &invalid)
			},
		},

		"repeated question should be rejected": {
			content: `{"text":"What is a slice?","options":["a","b","c","d"],"correctAnswer":"a"}`,
			req:     question.GenerateRequest{Domain: "Go", Level: domain.LevelBeginner, Position: 2, Exclude: []string{"what is a slice?"}},
			assert: func(t *testing.T, out outputs) {
				var invalid *llm.ErrInvalidResponse
				require.ErrorAs(t, out.err, &invalid)
			},
		},

		"non JSON output should be rejected": {
			content: `I cannot help with that.`,
			req:     question.GenerateRequest{Domain: "Go", Level: domain.LevelBeginner, Position: 1},
			assert: func(t *testing.T, out outputs) {
				var invalid *llm.ErrInvalidResponse
				require.ErrorAs(t, out.err, &invalid)
			},
		},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			m := llm.NewMockProvider(llm.MockResponse{Content: json.RawMessage(tt.content)})
			g := question.NewGenerator(question.Config{Provider: m})

			q, err := g.Generate(context.Background(), tt.req)
			tt.assert(t, outputs{q: q, err: err, calls: m.Calls()})
		})
	}
}

func TestGenerator_ProviderFailure(t *testing.T) {
	m := llm.NewMockProvider(llm.MockResponse{Err: &llm.ErrTimeout{}})
	g := question.NewGenerator(question.Config{Provider: m})

	_, err := g.Generate(context.Background(), question.GenerateRequest{Domain: "Go", Level: domain.LevelAdvanced, Position: 1})

	var timeout *llm.ErrTimeout
	require.ErrorAs(t, err, &timeout)
}

func TestLLMGrader_Grade(t *testing.T) {
	questions := []domain.Question{
		{ID: 1, Text: "q1", Options: []string{"a", "b", "c", "d"}, CorrectAnswer: "a"},
		{ID: 2, Text: "q2", Options: []string{"a", "b", "c", "d"}, CorrectAnswer: "b"},
	}

	m := llm.NewMockProvider(
		llm.MockResponse{Content: json.RawMessage(`{"score":1}`)},
		llm.MockResponse{Content: json.RawMessage(`{"score":3}`)},
	)
	g := question.NewLLMGrader(m)

	score, err := g.Grade(context.Background(), questions, []string{"a", "c"})
	require.NoError(t, err)
	assert.Equal(t, 1, score)
	assert.Contains(t, m.Calls()[0].Messages[0].Content, "Learner answer: c")
	require.NotNil(t, m.Calls()[0].Temperature, "grading pins the temperature")
	assert.Zero(t, *m.Calls()[0].Temperature)

	_, err = g.Grade(context.Background(), questions, []string{"a", "b"})
	var invalid *llm.ErrInvalidResponse
	require.ErrorAs(t, err, &invalid, "a score above the question count should be rejected")
}
