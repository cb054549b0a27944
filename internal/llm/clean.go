package llm

import (
	"encoding/json"
	"strings"
	"unicode"
)

// CleanJSON strips a surrounding markdown code fence and any prose around the outermost JSON
// object or array. Models asked for JSON still wrap it in ```json blocks often enough.
func CleanJSON(text string) json.RawMessage {
	s := stripFence(strings.TrimSpace(text))

	if s == "" || s[0] == '{' || s[0] == '[' {
		return json.RawMessage(s)
	}

	start := strings.IndexAny(s, "{[")
	if start < 0 {
		return json.RawMessage(s)
	}

	closer := byte('}')
	if s[start] == '[' {
		closer = ']'
	}
	end := strings.LastIndexByte(s, closer)
	if end < start {
		return json.RawMessage(s[start:])
	}

	return json.RawMessage(s[start : end+1])
}

// stripFence removes a leading ```lang line and a trailing ``` only. Fences inside string
// values are content.
func stripFence(s string) string {
	const fence = "```"

	if rest, ok := strings.CutPrefix(s, fence); ok {
		s = strings.TrimLeftFunc(rest, unicode.IsLetter)
	}
	if rest, ok := strings.CutSuffix(s, fence); ok {
		s = rest
	}

	return strings.TrimSpace(s)
}
