package assessment

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/victornm/techbridge/internal/domain"
)

// ExactMatchGrader scores answers by index-aligned string equality with the correct answer.
type ExactMatchGrader struct{}

func (ExactMatchGrader) Grade(_ context.Context, questions []domain.Question, answers []string) (int, error) {
	score := 0
	for i, q := range questions {
		if i < len(answers) && answers[i] == q.CorrectAnswer {
			score++
		}
	}
	return score, nil
}

func accuracy(score, total int) decimal.Decimal {
	if total == 0 {
		return decimal.Zero
	}
	return decimal.NewFromInt(int64(score)).Div(decimal.NewFromInt(int64(total))).Round(4)
}
