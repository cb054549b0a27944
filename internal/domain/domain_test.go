package domain_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/victornm/techbridge/internal/domain"
)

func TestLevel_Next(t *testing.T) {
	tests := map[string]struct {
		level domain.Level
		want  domain.Level
	}{
		"beginner advances to intermediate": {level: domain.LevelBeginner, want: domain.LevelIntermediate},
		"intermediate advances to advanced": {level: domain.LevelIntermediate, want: domain.LevelAdvanced},
		"advanced advances to completed":    {level: domain.LevelAdvanced, want: domain.LevelCompleted},
		"completed stays completed":         {level: domain.LevelCompleted, want: domain.LevelCompleted},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.level.Next())
		})
	}
}

func TestParseLevel(t *testing.T) {
	l, err := domain.ParseLevel("Advanced")
	require.NoError(t, err)
	assert.Equal(t, domain.LevelAdvanced, l)

	_, err = domain.ParseLevel("advanced")
	require.Error(t, err, "level names are case sensitive")

	assert.False(t, domain.Level("Expert").Valid())
}

func TestQuestion_View(t *testing.T) {
	q := domain.Question{ID: 2, Text: "t", Options: []string{"a", "b", "c", "d"}, CorrectAnswer: "c"}

	v := q.View()
	v.Options[0] = "changed"

	assert.Equal(t, 2, v.ID)
	assert.Equal(t, "a", q.Options[0], "view must not share the options slice")
}

func TestSession_Awaiting(t *testing.T) {
	s := domain.Session{}
	assert.True(t, s.Empty())
	assert.False(t, s.Awaiting())

	s.Questions = append(s.Questions, domain.Question{ID: 1, Text: "q1"})
	assert.True(t, s.Awaiting())
	assert.Equal(t, []string{"q1"}, s.AskedTexts())

	s.Answers = append(s.Answers, "a")
	assert.False(t, s.Awaiting())
}
