package question

import (
	"fmt"
	"strings"

	"github.com/victornm/techbridge/internal/domain"
)

// maxExcluded caps the do-not-repeat list sent with a prompt.
const maxExcluded = 20

const generateSystemPrompt = `You are an expert technical interviewer writing skill assessment quizzes.
Write exactly one multiple-choice question with exactly 4 options and one correct answer.
The correct answer must be copied verbatim from the options.
Respond with a single JSON object: {"text": string, "options": [4 strings], "correctAnswer": string}.`

const gradeSystemPrompt = `You grade multiple-choice quizzes.
An answer is correct only if it is identical to the correct answer of its question.
Respond with a single JSON object: {"score": integer}.`

func generatePrompt(req GenerateRequest) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Domain: %s\n", req.Domain)
	fmt.Fprintf(&b, "Level: %s\n", req.Level)
	if req.Position > 0 {
		fmt.Fprintf(&b, "Question number: %d\n", req.Position)
	}
	b.WriteString("\nDo not repeat any of these questions:\n")
	b.WriteString(excludedList(req.Exclude, maxExcluded))

	return b.String()
}

// excludedList numbers the most recent prior questions, or returns "None".
func excludedList(prior []string, max int) string {
	if len(prior) == 0 {
		return "None"
	}

	if max > 0 && len(prior) > max {
		prior = prior[len(prior)-max:]
	}

	var b strings.Builder
	for i, q := range prior {
		fmt.Fprintf(&b, "%d. %s\n", i+1, q)
	}
	return strings.TrimRight(b.String(), "\n")
}

func gradePrompt(questions []domain.Question, answers []string) string {
	var b strings.Builder

	for i, q := range questions {
		answer := ""
		if i < len(answers) {
			answer = answers[i]
		}
		fmt.Fprintf(&b, "Question %d: %s\n", i+1, q.Text)
		fmt.Fprintf(&b, "Correct answer: %s\n", q.CorrectAnswer)
		fmt.Fprintf(&b, "Learner answer: %s\n\n", answer)
	}

	return strings.TrimRight(b.String(), "\n")
}
