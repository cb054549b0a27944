package learningpath

import (
	"fmt"

	"github.com/victornm/techbridge/internal/domain"
	"github.com/victornm/techbridge/internal/llm"
)

const systemPrompt = `You are a curriculum designer for self-taught developers.
Design a learning path as a JSON object {"modules": [{"title": string, "description": string, "youtubeQuery": string}]}.
The youtubeQuery of a module is a precise YouTube search query for the best tutorial on that topic.
Respond with JSON only.`

func prompt(d string, level domain.Level) string {
	return fmt.Sprintf("Create a structured learning path of exactly %d key modules for a %q student who wants to master %q.",
		ModuleCount, level, d)
}

var pathSchema = &llm.Schema{
	Name:        "learning-path",
	Description: "An ordered list of learning modules",
	Definition: map[string]any{
		"type": "object",
		"properties": map[string]any{
			"modules": map[string]any{
				"type":     "array",
				"minItems": ModuleCount,
				"maxItems": ModuleCount,
				"items": map[string]any{
					"type": "object",
					"properties": map[string]any{
						"title":        map[string]any{"type": "string", "minLength": 1},
						"description":  map[string]any{"type": "string", "minLength": 1},
						"youtubeQuery": map[string]any{"type": "string", "minLength": 1},
					},
					"required":             []any{"title", "description", "youtubeQuery"},
					"additionalProperties": false,
				},
			},
		},
		"required":             []any{"modules"},
		"additionalProperties": false,
	},
}
