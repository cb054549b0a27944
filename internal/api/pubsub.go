package api

import (
	"context"
	"encoding/json"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/victornm/techbridge/internal/domain"
)

const maxConcurrent = 100

type (
	Notification struct {
		Event string `json:"event"`
		Data  any    `json:"data"`
	}

	AssessmentGraded struct {
		AssessmentID string       `json:"assessmentId"`
		UserID       string       `json:"userId"`
		Domain       string       `json:"domain"`
		Level        domain.Level `json:"level"`
		Score        int          `json:"score"`
		Total        int          `json:"total"`
		Passed       bool         `json:"passed"`
		Accuracy     string       `json:"accuracy"`
		NextLevel    domain.Level `json:"nextLevel"`
	}
)

// PublishAssessmentGraded notifies the learner's channel and the domain activity channel.
func (a *API) PublishAssessmentGraded(ctx context.Context, e domain.EventAssessmentGraded) error {
	data := AssessmentGraded{
		AssessmentID: e.AssessmentID,
		UserID:       e.UserID,
		Domain:       e.Domain,
		Level:        e.Attempt.Level,
		Score:        e.Attempt.Score,
		Total:        e.Attempt.Total,
		Passed:       e.Attempt.Passed,
		Accuracy:     e.Attempt.Accuracy.String(),
		NextLevel:    e.NextLevel,
	}

	channels := []string{
		a.getUserChannel(e.UserID),
		a.getDomainChannel(e.Domain),
	}

	var eg errgroup.Group
	eg.SetLimit(maxConcurrent)

	for _, ch := range channels {
		eg.Go(func() error {
			return a.publishNotification(ctx, ch, e.Name(), data)
		})
	}

	return eg.Wait()
}

func (a *API) publishNotification(ctx context.Context, channel, event string, data any) error {
	n := Notification{
		Event: event,
		Data:  data,
	}

	b, err := json.Marshal(n)
	if err != nil {
		return fmt.Errorf("pubsub: marshal %s: %v", event, err)
	}

	return a.redis.Publish(ctx, channel, b).Err()
}

func (a *API) getUserChannel(userID string) string {
	return fmt.Sprintf("%s:user:%s", a.prefix, userID)
}

func (a *API) getDomainChannel(d string) string {
	return fmt.Sprintf("%s:domain:%s", a.prefix, d)
}
