package question

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/victornm/techbridge/internal/domain"
	"github.com/victornm/techbridge/internal/llm"
)

// LLMGrader delegates grading to the provider at temperature 0. The exact match grader of the
// assessment package is the default.
type LLMGrader struct {
	provider llm.Provider
}

func NewLLMGrader(p llm.Provider) *LLMGrader {
	return &LLMGrader{provider: p}
}

func (g *LLMGrader) Grade(ctx context.Context, questions []domain.Question, answers []string) (int, error) {
	ctx = llm.WithPurpose(ctx, "grading")

	r := llm.UserPrompt(gradeSystemPrompt, gradePrompt(questions, answers))
	r.Schema = gradeSchema
	r.Temperature = llm.Float(0)

	resp, err := g.provider.Generate(ctx, r)
	if err != nil {
		return 0, fmt.Errorf("grade answers: %w", err)
	}

	var out struct {
		Score int `json:"score"`
	}
	if err := json.Unmarshal(resp.Content, &out); err != nil {
		return 0, &llm.ErrInvalidResponse{Content: resp.Content, Err: err}
	}

	if out.Score < 0 || out.Score > len(questions) {
		return 0, &llm.ErrInvalidResponse{
			Content: resp.Content,
			Err:     fmt.Errorf("score %d out of range [0, %d]", out.Score, len(questions)),
		}
	}

	return out.Score, nil
}
