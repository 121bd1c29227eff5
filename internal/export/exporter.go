package export

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/gojiplus/statqa/domain/analysis"
	apperrors "github.com/gojiplus/statqa/internal/errors"
)

// Format selects the serialization for fine-tuning exports.
type Format string

const (
	// FormatJSONL writes one full QAPair record per line, provenance included.
	FormatJSONL Format = "jsonl"
	// FormatChat writes chat-messages records (system/user/assistant).
	FormatChat Format = "chat"
	// FormatPromptCompletion writes {"prompt", "completion"} records.
	FormatPromptCompletion Format = "prompt_completion"
)

const chatSystemMessage = "You are a data analyst answering questions about statistical findings."

// ParseFormat maps a user-supplied format name to a Format.
func ParseFormat(s string) (Format, error) {
	switch Format(strings.ToLower(strings.TrimSpace(s))) {
	case FormatJSONL:
		return FormatJSONL, nil
	case FormatChat:
		return FormatChat, nil
	case FormatPromptCompletion:
		return FormatPromptCompletion, nil
	}
	return "", apperrors.InvalidInput(fmt.Sprintf("unknown export format %q (want jsonl, chat, or prompt_completion)", s))
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRecord struct {
	Messages []chatMessage `json:"messages"`
}

type promptCompletionRecord struct {
	Prompt     string `json:"prompt"`
	Completion string `json:"completion"`
}

// Lines renders every pair as one serialized line. The mapping is one line
// per pair in every format, and the answer text passes through unchanged.
func Lines(pairs []analysis.QAPair, format Format) ([]string, error) {
	lines := make([]string, 0, len(pairs))
	for _, pair := range pairs {
		var record interface{}
		switch format {
		case FormatJSONL:
			record = pair
		case FormatChat:
			record = chatRecord{Messages: []chatMessage{
				{Role: "system", Content: chatSystemMessage},
				{Role: "user", Content: pair.Question},
				{Role: "assistant", Content: pair.Answer},
			}}
		case FormatPromptCompletion:
			record = promptCompletionRecord{Prompt: pair.Question, Completion: pair.Answer}
		default:
			return nil, apperrors.InvalidInput(fmt.Sprintf("unknown export format %q", format))
		}

		raw, err := json.Marshal(record)
		if err != nil {
			return nil, apperrors.Wrap(err, "marshal export record")
		}
		lines = append(lines, string(raw))
	}
	return lines, nil
}

// Write streams the export to w, newline-terminated.
func Write(w io.Writer, pairs []analysis.QAPair, format Format) error {
	lines, err := Lines(pairs, format)
	if err != nil {
		return err
	}
	for _, line := range lines {
		if _, err := fmt.Fprintln(w, line); err != nil {
			return apperrors.StorageError("write export line", err)
		}
	}
	return nil
}

// WriteFile writes the export to path.
func WriteFile(path string, pairs []analysis.QAPair, format Format) error {
	file, err := os.Create(path)
	if err != nil {
		return apperrors.StorageError(fmt.Sprintf("create %s", path), err)
	}
	defer file.Close()

	if err := Write(file, pairs, format); err != nil {
		return err
	}
	return file.Close()
}
