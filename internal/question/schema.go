package question

import "github.com/victornm/techbridge/internal/llm"

// OptionCount is the number of choices of every generated question.
const OptionCount = 4

var questionSchema = &llm.Schema{
	Name:        "assessment-question",
	Description: "One multiple-choice question assessing a learner at a given level",
	Definition: map[string]any{
		"type": "object",
		"properties": map[string]any{
			"text": map[string]any{
				"type":        "string",
				"minLength":   1,
				"description": "The question shown to the learner",
			},
			"options": map[string]any{
				"type":        "array",
				"items":       map[string]any{"type": "string", "minLength": 1},
				"minItems":    OptionCount,
				"maxItems":    OptionCount,
				"description": "Exactly 4 candidate answers",
			},
			"correctAnswer": map[string]any{
				"type":        "string",
				"minLength":   1,
				"description": "The correct option, copied verbatim from options",
			},
		},
		"required":             []any{"text", "options", "correctAnswer"},
		"additionalProperties": false,
	},
}

var gradeSchema = &llm.Schema{
	Name:        "assessment-grade",
	Description: "Number of correctly answered questions",
	Definition: map[string]any{
		"type": "object",
		"properties": map[string]any{
			"score": map[string]any{
				"type":        "integer",
				"minimum":     0,
				"description": "Count of answers that match the correct answer",
			},
		},
		"required":             []any{"score"},
		"additionalProperties": false,
	},
}
