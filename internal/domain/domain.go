package domain

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// Level is a competency tier within a domain. Levels are ordered and Completed is terminal.
type Level string

const (
	LevelBeginner     Level = "Beginner"
	LevelIntermediate Level = "Intermediate"
	LevelAdvanced     Level = "Advanced"
	LevelCompleted    Level = "Completed"
)

var levelOrder = []Level{LevelBeginner, LevelIntermediate, LevelAdvanced, LevelCompleted}

// ParseLevel returns the level named s.
func ParseLevel(s string) (Level, error) {
	for _, l := range levelOrder {
		if string(l) == s {
			return l, nil
		}
	}
	return "", fmt.Errorf("unknown level %q", s)
}

func (l Level) Valid() bool {
	_, err := ParseLevel(string(l))
	return err == nil
}

// Next returns the level that follows l. Completed is its own successor.
func (l Level) Next() Level {
	for i, lv := range levelOrder {
		if lv == l && i+1 < len(levelOrder) {
			return levelOrder[i+1]
		}
	}
	return LevelCompleted
}

func (l Level) String() string { return string(l) }

// Question is a generated multiple-choice question. CorrectAnswer must never leave the service,
// use View to build the client-facing form.
type Question struct {
	ID            int      `json:"id"`
	Text          string   `json:"text"`
	Options       []string `json:"options"`
	CorrectAnswer string   `json:"correctAnswer"`
}

// QuestionView is a Question without its answer.
type QuestionView struct {
	ID      int
	Text    string
	Options []string
}

func (q Question) View() QuestionView {
	return QuestionView{
		ID:      q.ID,
		Text:    q.Text,
		Options: append([]string(nil), q.Options...),
	}
}

// Session is the in-progress quiz of an assessment. Answers is index-aligned to Questions.
type Session struct {
	StartTime time.Time  `json:"startTime"`
	Questions []Question `json:"questions"`
	Answers   []string   `json:"answers"`
}

// Empty reports whether no quiz is in flight.
func (s Session) Empty() bool {
	return len(s.Questions) == 0
}

// Awaiting reports whether the last generated question has not been answered yet.
func (s Session) Awaiting() bool {
	return len(s.Answers) < len(s.Questions)
}

// AskedTexts returns the texts of all questions generated in this session.
func (s Session) AskedTexts() []string {
	texts := make([]string, 0, len(s.Questions))
	for _, q := range s.Questions {
		texts = append(texts, q.Text)
	}
	return texts
}

// Attempt is a graded session. Attempts are never modified once recorded.
type Attempt struct {
	Level      Level
	Questions  []Question
	Answers    []string
	Score      int
	Total      int
	Passed     bool
	Accuracy   decimal.Decimal
	CreateTime time.Time
}

// Assessment tracks a learner's progression in one domain.
type Assessment struct {
	AssessmentID string
	UserID       string
	Domain       string
	CurrentLevel Level
	Session      Session
	History      []Attempt
	// Version is bumped on every write and is used for conditional updates.
	Version    int64
	CreateTime time.Time
	UpdateTime time.Time
}

// User is a learner synced from the identity provider.
type User struct {
	UserID     string    `json:"id"`
	Name       string    `json:"name"`
	Email      string    `json:"email"`
	Picture    string    `json:"picture,omitempty"`
	CreateTime time.Time `json:"createdAt"`
}

// Identity holds verified claims of an identity token.
type Identity struct {
	Subject string
	Name    string
	Email   string
	Picture string
}

// Module is one step of a learning path.
type Module struct {
	Title        string `json:"title"`
	Description  string `json:"description"`
	YoutubeQuery string `json:"youtubeQuery"`
}

type LearningPath struct {
	Domain  string   `json:"domain"`
	Level   Level    `json:"level"`
	Modules []Module `json:"modules"`
}

// StudyQuestion is a self-check question of a study guide. Unlike assessment questions the
// answer and explanation are meant for the learner.
type StudyQuestion struct {
	Question      string   `json:"question"`
	Options       []string `json:"options"`
	CorrectAnswer string   `json:"correctAnswer"`
	Explanation   string   `json:"explanation"`
}

type StudyGuide struct {
	VideoURL string          `json:"videoUrl"`
	VideoID  string          `json:"videoId"`
	Summary  string          `json:"summary"`
	Quiz     []StudyQuestion `json:"quiz"`
}
