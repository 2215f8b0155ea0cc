package llm

import (
	"fmt"
	"strings"
)

// BuildPrompt numbers the passages in rank order and appends the question.
func BuildPrompt(req GenerateRequest) string {
	var b strings.Builder
	b.WriteString("Context passages:\n")
	for i, passage := range req.Passages {
		fmt.Fprintf(&b, "[%d] %s\n\n", i+1, strings.TrimSpace(passage))
	}
	fmt.Fprintf(&b, "Question: %s\n", strings.TrimSpace(req.Question))
	if req.Language != "" {
		fmt.Fprintf(&b, "Answer in the language with code %q.\n", req.Language)
	}
	b.WriteString("Answer using only the passages above and cite passage numbers in brackets.")
	return b.String()
}

var nonAnswerMarkers = []string{
	"i don't know",
	"i do not know",
	"not enough information",
	"insufficient information",
	"cannot answer",
	"can't answer",
	"unable to answer",
	"no information",
	"does not contain",
	"do not contain",
}

// IsNonAnswer reports whether a generated answer is a refusal rather than an
// answer. Only short texts are checked so an answer that mentions a gap in
// passing is not penalised.
func IsNonAnswer(answer string) bool {
	text := strings.ToLower(strings.TrimSpace(answer))
	if text == "" {
		return true
	}
	if len([]rune(text)) > 240 {
		return false
	}
	text = strings.ReplaceAll(text, "’", "'")
	for _, marker := range nonAnswerMarkers {
		if strings.Contains(text, marker) {
			return true
		}
	}
	return false
}
