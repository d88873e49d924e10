package categorizer

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// ErrBadReply is returned when a model reply holds no usable JSON object.
var ErrBadReply = errors.New("model reply is not a JSON object")

func buildPrompt(description string, categories []string) string {
	quoted := make([]string, len(categories))
	for i, c := range categories {
		quoted[i] = "'" + c + "'"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Given this credit card transaction description: '%s',\n", description)
	fmt.Fprintf(&b, "1. Categorize it with one of the following, do not create new categories: %s.\n", strings.Join(quoted, ", "))
	b.WriteString("2. Write a short, human-perceivable summary of the expense, including the merchant type and location if available. ")
	b.WriteString("Follow the format: 'Merchant Name, Location, brief description of expense purpose (no more than 10 words)'\n")
	b.WriteString("Return your answer as JSON in the following format (no markdown, no explanation, just JSON):\n")
	b.WriteString(`{"category": "...", "enhanced_description": "..."}`)
	return b.String()
}

type reply struct {
	Category            string `json:"category"`
	EnhancedDescription string `json:"enhanced_description"`
}

// parseReply reads the model's JSON answer. Missing fields default to
// Uncategorized and the original description.
func parseReply(raw, description string) (Result, error) {
	var r reply
	if err := json.Unmarshal([]byte(cleanModelJSON(raw)), &r); err != nil {
		return Result{}, fmt.Errorf("%w: %q", ErrBadReply, raw)
	}

	res := Result{
		Category:            strings.TrimSpace(r.Category),
		EnhancedDescription: strings.TrimSpace(r.EnhancedDescription),
	}
	if res.Category == "" {
		res.Category = Uncategorized
	}
	if res.EnhancedDescription == "" {
		res.EnhancedDescription = description
	}
	return res, nil
}

// cleanModelJSON strips Markdown fences and any text around the outermost
// JSON object.
func cleanModelJSON(raw string) string {
	s := strings.TrimSpace(raw)

	if strings.HasPrefix(s, "```") {
		if idx := strings.Index(s, "\n"); idx != -1 {
			s = s[idx+1:]
		}
	}
	if idx := strings.LastIndex(s, "```"); idx != -1 {
		s = s[:idx]
	}

	if start := strings.Index(s, "{"); start != -1 {
		if end := strings.LastIndex(s, "}"); end > start {
			s = s[start : end+1]
		}
	}
	return strings.TrimSpace(s)
}
