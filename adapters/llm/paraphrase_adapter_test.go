package llm

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"
)

func TestParaphraseParsesFencedJSON(t *testing.T) {
	mock := &MockClient{Response: "```json\n" + `[
  {"original": "What is the distribution of Age?", "paraphrases": ["How is Age spread out?", "What does Age look like?"]}
]` + "\n```"}
	adapter := NewParaphraseAdapterWithClient(Config{Model: "test"}, mock)

	got, err := adapter.Paraphrase(context.Background(), []string{"What is the distribution of Age?"}, "the answer", 2)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 {
		t.Fatalf("parsed %d questions, want 1", len(got))
	}
	if got[0].Original != "What is the distribution of Age?" {
		t.Errorf("original = %q", got[0].Original)
	}
	if len(got[0].Paraphrases) != 2 || got[0].Paraphrases[0] != "How is Age spread out?" {
		t.Errorf("paraphrases = %v", got[0].Paraphrases)
	}
}

func TestParaphraseParsesBareJSON(t *testing.T) {
	mock := &MockClient{Response: `[{"original": "q", "paraphrases": ["p"]}]`}
	adapter := NewParaphraseAdapterWithClient(Config{Model: "test"}, mock)

	got, err := adapter.Paraphrase(context.Background(), []string{"q"}, "a", 1)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 || got[0].Paraphrases[0] != "p" {
		t.Errorf("parsed = %+v", got)
	}
}

func TestParaphraseMalformedResponse(t *testing.T) {
	mock := &MockClient{Response: "Sure! Here are some paraphrases: 1. blah"}
	adapter := NewParaphraseAdapterWithClient(Config{Model: "test"}, mock)

	if _, err := adapter.Paraphrase(context.Background(), []string{"q"}, "a", 1); err == nil {
		t.Error("non-JSON response should be an error for the caller to degrade on")
	}
}

func TestParaphraseClientError(t *testing.T) {
	mock := &MockClient{Error: errors.New("rate limited")}
	adapter := NewParaphraseAdapterWithClient(Config{Model: "test", Timeout: time.Second}, mock)

	if _, err := adapter.Paraphrase(context.Background(), []string{"q"}, "a", 1); err == nil {
		t.Error("client failure should surface as an error")
	}
}

func TestParaphraseNoQuestions(t *testing.T) {
	adapter := NewParaphraseAdapterWithClient(Config{Model: "test"}, &MockClient{})
	got, err := adapter.Paraphrase(context.Background(), nil, "a", 2)
	if err != nil || got != nil {
		t.Errorf("no questions should be a no-op, got (%v, %v)", got, err)
	}
}

func TestBuildParaphrasePrompt(t *testing.T) {
	prompt := buildParaphrasePrompt([]string{"Q one?", "Q two?"}, "the shared answer", 3)

	for _, want := range []string{
		"generate 3 natural paraphrases",
		"1. Q one?",
		"2. Q two?",
		"the shared answer",
		`"original"`,
		`"paraphrases"`,
	} {
		if !strings.Contains(prompt, want) {
			t.Errorf("prompt missing %q:\n%s", want, prompt)
		}
	}
}

func TestStripCodeFences(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"```json\n[1]\n```", "[1]"},
		{"```\n[2]\n```", "[2]"},
		{"prefix ```json\n[3]\n``` suffix", "[3]"},
		{"[4]", "[4]"},
		{"  [5]  ", "[5]"},
	}
	for _, c := range cases {
		if got := stripCodeFences(c.in); got != c.want {
			t.Errorf("stripCodeFences(%q) = %q, want %q", c.in, got, c.want)
		}
	}
}

func TestNewClientRequiresKey(t *testing.T) {
	if _, err := newClient(Config{Model: "m"}); err == nil {
		t.Error("missing API key should fail client construction")
	}
	c, err := newClient(Config{Model: "m", APIKey: "sk-test"})
	if err != nil {
		t.Fatal(err)
	}
	oc, ok := c.(*OpenAIClient)
	if !ok {
		t.Fatalf("unexpected client type %T", c)
	}
	if oc.BaseURL != "https://api.openai.com/v1" {
		t.Errorf("default base URL = %q", oc.BaseURL)
	}
}
