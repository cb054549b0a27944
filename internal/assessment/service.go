package assessment

import (
	"context"
	stderrors "errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/victornm/techbridge/internal/domain"
	"github.com/victornm/techbridge/internal/errors"
	"github.com/victornm/techbridge/internal/event"
	"github.com/victornm/techbridge/internal/llm"
	"github.com/victornm/techbridge/internal/question"
)

const (
	defaultQuestionCount = 5
	defaultPassScore     = 4
)

// QuestionProvider generates one question at a time.
type QuestionProvider interface {
	Generate(ctx context.Context, req question.GenerateRequest) (*domain.Question, error)
}

// Grader counts the correct answers of a finished session.
type Grader interface {
	Grade(ctx context.Context, questions []domain.Question, answers []string) (int, error)
}

// Locker serializes operations on one assessment.
type Locker interface {
	Lock(ctx context.Context, key string) (unlock func(context.Context), err error)
}

type Config struct {
	Store     Store
	Questions QuestionProvider
	// Grader defaults to ExactMatchGrader.
	Grader   Grader
	Locker   Locker
	EventBus *event.Bus

	// QuestionCount is the length of a session, 5 by default.
	QuestionCount int
	// PassScore is the minimum score to advance a level, 4 by default.
	PassScore int

	Now func() time.Time
}

// Service runs assessment sessions: one generated question at a time, graded once all
// answers are in, advancing the learner's level on a pass.
type Service struct {
	store     Store
	questions QuestionProvider
	grader    Grader
	locker    Locker
	eb        *event.Bus
	count     int
	passScore int
	now       func() time.Time
}

func NewService(c Config) *Service {
	s := &Service{
		store:     c.Store,
		questions: c.Questions,
		grader:    c.Grader,
		locker:    c.Locker,
		eb:        c.EventBus,
		count:     c.QuestionCount,
		passScore: c.PassScore,
		now:       c.Now,
	}

	if s.grader == nil {
		s.grader = ExactMatchGrader{}
	}
	if s.count <= 0 {
		s.count = defaultQuestionCount
	}
	if s.passScore <= 0 || s.passScore > s.count {
		s.passScore = min(defaultPassScore, s.count)
	}
	if s.now == nil {
		s.now = time.Now
	}

	return s
}

type StartSessionRequest struct {
	UserID string
	Domain string
}

type StartSessionResponse struct {
	AssessmentID string
	// Completed is set when the learner already finished every level of the domain. No
	// question is generated in that case.
	Completed bool
	Level     domain.Level
	Question  domain.QuestionView
	Progress  int
	Total     int
}

// StartSession begins a new session for the user in the domain, creating the assessment on
// first use. An in-flight session of the same assessment is discarded.
func (s *Service) StartSession(ctx context.Context, req StartSessionRequest) (*StartSessionResponse, error) {
	d := strings.TrimSpace(req.Domain)
	if d == "" {
		return nil, errors.New(errors.CodeInvalidArgument, errors.WithMessagef("domain is required"))
	}
	if req.UserID == "" {
		return nil, errors.New(errors.CodeInvalidArgument, errors.WithMessagef("user is required"))
	}

	a, err := s.store.FindOrCreate(ctx, req.UserID, d)
	if err != nil {
		return nil, fmt.Errorf("find assessment: %w", err)
	}

	unlock, err := s.lock(ctx, a.AssessmentID)
	if err != nil {
		return nil, err
	}
	defer unlock(context.WithoutCancel(ctx))

	// Reload under the lock, the record may have moved on since FindOrCreate.
	a, err = s.store.Get(ctx, a.AssessmentID)
	if err != nil {
		return nil, fmt.Errorf("get assessment: %w", err)
	}

	if a.CurrentLevel == domain.LevelCompleted {
		return &StartSessionResponse{
			AssessmentID: a.AssessmentID,
			Completed:    true,
			Level:        a.CurrentLevel,
		}, nil
	}

	q, err := s.generate(ctx, a, domain.Session{}, 1)
	if err != nil {
		return nil, err
	}

	a.Session = domain.Session{
		StartTime: s.now(),
		Questions: []domain.Question{*q},
		Answers:   []string{},
	}

	if err := s.store.SaveSession(ctx, a); err != nil {
		return nil, fmt.Errorf("save session: %w", err)
	}

	slog.InfoContext(ctx, "assessment: session started",
		"assessment_id", a.AssessmentID,
		"domain", a.Domain,
		"level", a.CurrentLevel,
	)

	return &StartSessionResponse{
		AssessmentID: a.AssessmentID,
		Level:        a.CurrentLevel,
		Question:     q.View(),
		Progress:     1,
		Total:        s.count,
	}, nil
}

type SubmitAnswerRequest struct {
	UserID       string
	AssessmentID string
	Answer       string
}

// SubmitAnswerResponse either carries the next question or, when Finished, the grading result.
type SubmitAnswerResponse struct {
	Finished bool

	Question domain.QuestionView
	Progress int
	Total    int

	Score     int
	Passed    bool
	NextLevel domain.Level
	Feedback  string
}

// SubmitAnswer records the answer to the pending question. The session is graded once it has
// QuestionCount answers, otherwise the next question is generated. If generation fails the
// answer is not recorded and the caller should submit it again.
func (s *Service) SubmitAnswer(ctx context.Context, req SubmitAnswerRequest) (*SubmitAnswerResponse, error) {
	if req.AssessmentID == "" {
		return nil, errors.New(errors.CodeInvalidArgument, errors.WithMessagef("assessmentId is required"))
	}

	unlock, err := s.lock(ctx, req.AssessmentID)
	if err != nil {
		return nil, err
	}
	defer unlock(context.WithoutCancel(ctx))

	a, err := s.store.Get(ctx, req.AssessmentID)
	if err != nil {
		return nil, fmt.Errorf("get assessment: %w", err)
	}

	if a.UserID != req.UserID {
		return nil, notFound(req.AssessmentID)
	}

	if !a.Session.Awaiting() {
		return nil, errors.New(errors.CodeFailedPrecondition,
			errors.WithMessagef("no question is awaiting an answer: assessment=%s", a.AssessmentID))
	}

	session := a.Session
	session.Answers = append(append([]string(nil), session.Answers...), req.Answer)

	if len(session.Answers) >= s.count {
		return s.finish(ctx, a, session)
	}

	progress := len(session.Answers) + 1
	q, err := s.generate(ctx, a, session, progress)
	if err != nil {
		return nil, err
	}

	session.Questions = append(append([]domain.Question(nil), session.Questions...), *q)
	a.Session = session

	if err := s.store.SaveSession(ctx, a); err != nil {
		return nil, fmt.Errorf("save session: %w", err)
	}

	return &SubmitAnswerResponse{
		Question: q.View(),
		Progress: progress,
		Total:    s.count,
	}, nil
}

// finish grades the session, records the attempt and advances the level on a pass.
func (s *Service) finish(ctx context.Context, a *domain.Assessment, session domain.Session) (*SubmitAnswerResponse, error) {
	score, err := s.grader.Grade(ctx, session.Questions, session.Answers)
	if err != nil {
		return nil, providerError("grading failed", err)
	}

	passed := score >= s.passScore
	total := len(session.Questions)

	next := a.CurrentLevel
	if passed {
		next = next.Next()
	}

	at := domain.Attempt{
		Level:      a.CurrentLevel,
		Questions:  session.Questions,
		Answers:    session.Answers,
		Score:      score,
		Total:      total,
		Passed:     passed,
		Accuracy:   accuracy(score, total),
		CreateTime: s.now(),
	}

	a.CurrentLevel = next
	a.Session = domain.Session{}

	if err := s.store.SaveAttempt(ctx, a, at); err != nil {
		return nil, fmt.Errorf("save attempt: %w", err)
	}
	a.History = append(a.History, at)

	slog.InfoContext(ctx, "assessment: session graded",
		"assessment_id", a.AssessmentID,
		"level", at.Level,
		"score", score,
		"passed", passed,
		"next_level", next,
	)

	s.eb.Publish(ctx, domain.EventAssessmentGraded{
		AssessmentID: a.AssessmentID,
		UserID:       a.UserID,
		Domain:       a.Domain,
		Attempt:      at,
		NextLevel:    next,
	})

	return &SubmitAnswerResponse{
		Finished:  true,
		Total:     total,
		Score:     score,
		Passed:    passed,
		NextLevel: next,
		Feedback:  feedback(a.Domain, score, total, passed, at.Level, next),
	}, nil
}

func (s *Service) generate(ctx context.Context, a *domain.Assessment, session domain.Session, position int) (*domain.Question, error) {
	q, err := s.questions.Generate(ctx, question.GenerateRequest{
		Domain:   a.Domain,
		Level:    a.CurrentLevel,
		Position: position,
		Exclude:  excluded(a, session),
	})
	if err != nil {
		return nil, providerError("failed to generate question", err)
	}

	q.ID = position
	return q, nil
}

func (s *Service) lock(ctx context.Context, id string) (func(context.Context), error) {
	if s.locker == nil {
		return func(context.Context) {}, nil
	}

	return s.locker.Lock(ctx, id)
}

// excluded lists questions the learner has already seen at the current level, oldest first:
// earlier attempts followed by the running session.
func excluded(a *domain.Assessment, session domain.Session) []string {
	var texts []string
	for _, at := range a.History {
		if at.Level != a.CurrentLevel {
			continue
		}
		for _, q := range at.Questions {
			texts = append(texts, q.Text)
		}
	}
	return append(texts, session.AskedTexts()...)
}

func providerError(msg string, err error) error {
	opts := []errors.Option{errors.WithMessagef("%s", msg), errors.WithCause(err)}

	var (
		invalid *llm.ErrInvalidResponse
		timeout *llm.ErrTimeout
	)
	switch {
	case stderrors.As(err, &invalid):
		opts = append(opts, errors.WithDetail("raw", string(invalid.Content)))
	case stderrors.As(err, &timeout):
		opts[0] = errors.WithMessagef("%s: provider timed out after %s", msg, timeout.After)
	}

	return errors.New(errors.CodeInternal, opts...)
}

func notFound(id string) error {
	return errors.New(errors.CodeNotFound, errors.WithMessagef("assessment not found: %s", id))
}

func feedback(d string, score, total int, passed bool, level, next domain.Level) string {
	switch {
	case passed && next == domain.LevelCompleted:
		return fmt.Sprintf("You scored %d/%d. Congratulations, you have completed the %s track!", score, total, d)
	case passed:
		return fmt.Sprintf("You scored %d/%d. Great job! You advance to %s.", score, total, next)
	default:
		return fmt.Sprintf("You scored %d/%d. Keep practicing at %s level and try again.", score, total, level)
	}
}
