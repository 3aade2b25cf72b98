package ai

import (
	"encoding/json"
	"fmt"
	"strings"
)

func buildVocabularyPrompt(text string) string {
	return fmt.Sprintf(`You are a Japanese language learning assistant. Extract the Japanese vocabulary words and set phrases from the following study material.

Return ONLY a JSON array of unique vocabulary items, each as a simple string in its dictionary form. Include:
- Individual words
- Common phrases and expressions

Do NOT include:
- Particles on their own
- Section headers or lesson titles
- English translations
- Duplicate entries

Return format: ["単語", "表現", ...]

Document content:
%s`, text)
}

func buildSentencePrompt(headword string, n int) string {
	return fmt.Sprintf(`You are a Japanese language teacher. Write %d short, natural example sentences that use the word "%s" exactly as written.

Each sentence must be the Japanese sentence ending in 。 followed by a space and its English translation, for example:
"猫はかわいいです。 The cat is cute."

Return ONLY a JSON array of strings.`, n, headword)
}

// parseStringArray extracts a string slice from a model's JSON response,
// handling optional markdown code block wrappers.
func parseStringArray(response string) ([]string, error) {
	response = strings.TrimSpace(response)

	response = strings.TrimPrefix(response, "```json")
	response = strings.TrimPrefix(response, "```")
	response = strings.TrimSuffix(response, "```")
	response = strings.TrimSpace(response)

	var items []string
	if err := json.Unmarshal([]byte(response), &items); err != nil {
		return nil, fmt.Errorf("invalid JSON response: %w", err)
	}
	return items, nil
}

// sanitize trims whitespace and removes empty entries
func sanitize(items []string) []string {
	cleaned := make([]string, 0, len(items))
	for _, item := range items {
		item = strings.TrimSpace(item)
		if item != "" {
			cleaned = append(cleaned, item)
		}
	}
	return cleaned
}

// deduplicate removes duplicate entries while preserving order
func deduplicate(items []string) []string {
	seen := make(map[string]bool, len(items))
	unique := make([]string, 0, len(items))
	for _, item := range items {
		if !seen[item] {
			seen[item] = true
			unique = append(unique, item)
		}
	}
	return unique
}
