package domain

const (
	EventNameAssessmentGraded = "assessment.graded"
	EventNameUserCreated      = "user.created"
)

// EventAssessmentGraded is published after a finished session is graded and persisted.
type EventAssessmentGraded struct {
	AssessmentID string
	UserID       string
	Domain       string
	Attempt      Attempt
	NextLevel    Level
}

func (EventAssessmentGraded) Name() string { return EventNameAssessmentGraded }

type EventUserCreated struct {
	User User
}

func (EventUserCreated) Name() string { return EventNameUserCreated }
