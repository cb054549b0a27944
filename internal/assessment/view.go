package assessment

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/victornm/techbridge/internal/domain"
)

// View is an assessment as shown to its learner. It never includes the correct answer of the
// pending question.
type View struct {
	AssessmentID string
	Domain       string
	CurrentLevel domain.Level
	InProgress   bool
	// Pending is the question awaiting an answer, if any.
	Pending  *domain.QuestionView
	Progress int
	Total    int
	History  []AttemptSummary
}

type AttemptSummary struct {
	Level      domain.Level
	Score      int
	Total      int
	Passed     bool
	Accuracy   decimal.Decimal
	CreateTime time.Time
}

type GetAssessmentRequest struct {
	UserID       string
	AssessmentID string
}

func (s *Service) GetAssessment(ctx context.Context, req GetAssessmentRequest) (*View, error) {
	a, err := s.store.Get(ctx, req.AssessmentID)
	if err != nil {
		return nil, fmt.Errorf("get assessment: %w", err)
	}

	if a.UserID != req.UserID {
		return nil, notFound(req.AssessmentID)
	}

	v := s.view(a)
	return &v, nil
}

type ListAssessmentsRequest struct {
	UserID string
}

func (s *Service) ListAssessments(ctx context.Context, req ListAssessmentsRequest) ([]View, error) {
	as, err := s.store.List(ctx, req.UserID)
	if err != nil {
		return nil, fmt.Errorf("list assessments: %w", err)
	}

	views := make([]View, 0, len(as))
	for i := range as {
		views = append(views, s.view(&as[i]))
	}
	return views, nil
}

func (s *Service) view(a *domain.Assessment) View {
	v := View{
		AssessmentID: a.AssessmentID,
		Domain:       a.Domain,
		CurrentLevel: a.CurrentLevel,
		InProgress:   !a.Session.Empty(),
		Total:        s.count,
		History:      make([]AttemptSummary, 0, len(a.History)),
	}

	if a.Session.Awaiting() {
		q := a.Session.Questions[len(a.Session.Questions)-1].View()
		v.Pending = &q
		v.Progress = len(a.Session.Questions)
	}

	for _, at := range a.History {
		v.History = append(v.History, AttemptSummary{
			Level:      at.Level,
			Score:      at.Score,
			Total:      at.Total,
			Passed:     at.Passed,
			Accuracy:   at.Accuracy,
			CreateTime: at.CreateTime,
		})
	}

	return v
}
