package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	apperrors "github.com/gojiplus/statqa/internal/errors"
	"github.com/gojiplus/statqa/ports"
)

const paraphraseSystemRole = "You are helping create a diverse Q/A dataset for data analysis."

// ParaphraseAdapter implements ports.Paraphraser over a chat-completion
// client. The request embeds the template questions plus the shared answer
// for context only; the adapter returns reworded questions and never emits
// answer text.
type ParaphraseAdapter struct {
	config Config
	client Client
}

// NewParaphraseAdapter creates an adapter with a real client from config.
func NewParaphraseAdapter(config Config) (*ParaphraseAdapter, error) {
	client, err := newClient(config)
	if err != nil {
		return nil, apperrors.ExternalServiceError("llm", err)
	}
	return &ParaphraseAdapter{config: config, client: client}, nil
}

// NewParaphraseAdapterWithClient injects a client directly (tests).
func NewParaphraseAdapterWithClient(config Config, client Client) *ParaphraseAdapter {
	return &ParaphraseAdapter{config: config, client: client}
}

// Paraphrase requests perQuestion rewordings of each question and parses the
// strict JSON array response. The call is bounded by the configured timeout
// so it can never sit on the template stage's critical path.
func (a *ParaphraseAdapter) Paraphrase(ctx context.Context, questions []string, answer string, perQuestion int) ([]ports.ParaphrasedQuestion, error) {
	if len(questions) == 0 {
		return nil, nil
	}
	if a.config.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, a.config.Timeout)
		defer cancel()
	}

	prompt := buildParaphrasePrompt(questions, answer, perQuestion)
	response, err := a.client.ChatCompletion(ctx, paraphraseSystemRole, prompt)
	if err != nil {
		return nil, apperrors.ExternalServiceError("llm", err)
	}

	parsed, err := parseParaphraseResponse(response)
	if err != nil {
		return nil, err
	}
	return parsed, nil
}

// buildParaphrasePrompt embeds the questions and shared answer and demands a
// JSON array of {original, paraphrases} objects.
func buildParaphrasePrompt(questions []string, answer string, perQuestion int) string {
	var numbered strings.Builder
	for i, q := range questions {
		fmt.Fprintf(&numbered, "%d. %s\n", i+1, q)
	}

	return fmt.Sprintf(`Given these questions about a statistical finding, generate %d natural paraphrases for each.

Original Questions:
%s
Answer (for context):
%s

Generate paraphrased questions that:
1. Ask for the same information in different ways
2. Vary in formality and structure
3. Could include domain-specific terminology
4. Remain clear and answerable

Return as JSON array with format:
[
  {"original": "question 1", "paraphrases": ["p1", "p2"]},
  ...
]
`, perQuestion, numbered.String(), answer)
}

// parseParaphraseResponse strips any surrounding code fences and parses the
// JSON array.
func parseParaphraseResponse(response string) ([]ports.ParaphrasedQuestion, error) {
	jsonStr := stripCodeFences(response)

	var parsed []ports.ParaphrasedQuestion
	if err := json.Unmarshal([]byte(jsonStr), &parsed); err != nil {
		return nil, apperrors.Wrap(err, "parse paraphrase response")
	}
	return parsed, nil
}

// stripCodeFences extracts the body of a ```json or ``` block if present.
func stripCodeFences(s string) string {
	if strings.Contains(s, "```json") {
		start := strings.Index(s, "```json")
		rest := s[start+7:]
		if end := strings.Index(rest, "```"); end >= 0 {
			return strings.TrimSpace(rest[:end])
		}
	} else if strings.Contains(s, "```") {
		start := strings.Index(s, "```")
		rest := s[start+3:]
		if end := strings.Index(rest, "```"); end >= 0 {
			return strings.TrimSpace(rest[:end])
		}
	}
	return strings.TrimSpace(s)
}
