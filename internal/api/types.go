package api

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/victornm/techbridge/internal/assessment"
	"github.com/victornm/techbridge/internal/domain"
)

type (
	StartSessionRequest struct {
		Domain string `json:"domain" binding:"required"`
	}

	StartSessionResponse struct {
		AssessmentID string       `json:"assessmentId"`
		Level        domain.Level `json:"level"`
		Question     Question     `json:"question"`
		Progress     int          `json:"progress"`
		Total        int          `json:"total"`
	}

	CourseCompletedResponse struct {
		Message      string       `json:"message"`
		AssessmentID string       `json:"assessmentId"`
		Level        domain.Level `json:"level"`
	}

	SubmitAnswerRequest struct {
		AssessmentID string `json:"assessmentId" binding:"required"`
		Answer       string `json:"answer"`
	}

	NextQuestionResponse struct {
		Question *Question `json:"question"`
		Progress int       `json:"progress"`
		Total    int       `json:"total"`
	}

	GradedResponse struct {
		Finished  bool         `json:"finished"`
		Score     int          `json:"score"`
		Total     int          `json:"total"`
		Passed    bool         `json:"passed"`
		NextLevel domain.Level `json:"nextLevel"`
		Feedback  string       `json:"feedback"`
	}

	// Question never carries the correct answer.
	Question struct {
		ID      int      `json:"id"`
		Text    string   `json:"text"`
		Options []string `json:"options"`
	}

	Assessment struct {
		AssessmentID string       `json:"assessmentId"`
		Domain       string       `json:"domain"`
		CurrentLevel domain.Level `json:"currentLevel"`
		InProgress   bool         `json:"inProgress"`
		Question     *Question    `json:"question,omitempty"`
		Progress     int          `json:"progress,omitempty"`
		Total        int          `json:"total"`
		History      []Attempt    `json:"history"`
	}

	Attempt struct {
		Level     domain.Level    `json:"level"`
		Score     int             `json:"score"`
		Total     int             `json:"total"`
		Passed    bool            `json:"passed"`
		Accuracy  decimal.Decimal `json:"accuracy"`
		Timestamp time.Time       `json:"timestamp"`
	}

	ListAssessmentsResponse struct {
		Assessments []Assessment `json:"assessments"`
	}

	LearningPathRequest struct {
		Domain string `json:"domain" binding:"required"`
		Level  string `json:"level" binding:"required"`
	}

	StudyVideoRequest struct {
		VideoURL string `json:"videoUrl" binding:"required"`
	}
)

func toQuestion(q domain.QuestionView) Question {
	return Question{
		ID:      q.ID,
		Text:    q.Text,
		Options: q.Options,
	}
}

func toAssessment(v assessment.View) Assessment {
	a := Assessment{
		AssessmentID: v.AssessmentID,
		Domain:       v.Domain,
		CurrentLevel: v.CurrentLevel,
		InProgress:   v.InProgress,
		Progress:     v.Progress,
		Total:        v.Total,
		History:      make([]Attempt, 0, len(v.History)),
	}

	if v.Pending != nil {
		q := toQuestion(*v.Pending)
		a.Question = &q
	}

	for _, at := range v.History {
		a.History = append(a.History, Attempt{
			Level:     at.Level,
			Score:     at.Score,
			Total:     at.Total,
			Passed:    at.Passed,
			Accuracy:  at.Accuracy,
			Timestamp: at.CreateTime,
		})
	}

	return a
}
