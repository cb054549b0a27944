package study

import (
	"fmt"

	"github.com/victornm/techbridge/internal/llm"
)

const systemPrompt = `You are an expert tutor. You turn video transcripts into study guides.
Respond with a single JSON object:
{"summary": markdown string, "quiz": [{"question": string, "options": [4 strings], "correctAnswer": string, "explanation": string}]}.
The correctAnswer of every quiz question must be copied verbatim from its options.`

func prompt(transcript string) string {
	return fmt.Sprintf(`Analyze the following video transcript.

Transcript:
%q

1. Write a concise markdown summary of the key concepts.
2. Write a quiz of %d multiple-choice questions about the content.`, transcript, quizSize)
}

var guideSchema = &llm.Schema{
	Name:        "study-guide",
	Description: "Summary and self-check quiz of a video",
	Definition: map[string]any{
		"type": "object",
		"properties": map[string]any{
			"summary": map[string]any{"type": "string", "minLength": 1},
			"quiz": map[string]any{
				"type":     "array",
				"minItems": quizSize,
				"maxItems": quizSize,
				"items": map[string]any{
					"type": "object",
					"properties": map[string]any{
						"question": map[string]any{"type": "string", "minLength": 1},
						"options": map[string]any{
							"type":     "array",
							"items":    map[string]any{"type": "string"},
							"minItems": optionCount,
							"maxItems": optionCount,
						},
						"correctAnswer": map[string]any{"type": "string"},
						"explanation":   map[string]any{"type": "string"},
					},
					"required":             []any{"question", "options", "correctAnswer", "explanation"},
					"additionalProperties": false,
				},
			},
		},
		"required":             []any{"summary", "quiz"},
		"additionalProperties": false,
	},
}
