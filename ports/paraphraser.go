package ports

import "context"

// ParaphrasedQuestion pairs one original question with its rewordings.
type ParaphrasedQuestion struct {
	Original    string   `json:"original"`
	Paraphrases []string `json:"paraphrases"`
}

// Paraphraser rewords template questions via an external text-completion
// service. It is an optional capability: the QA generator works without one,
// and a failed call degrades to zero paraphrases rather than failing the
// pipeline. Implementations must never touch the answer text.
type Paraphraser interface {
	Paraphrase(ctx context.Context, questions []string, answer string, perQuestion int) ([]ParaphrasedQuestion, error)
}
