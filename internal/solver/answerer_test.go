package solver

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
)

func TestCoerceAnswer(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name string
		raw  string
		want Answer
	}{
		{"plain number", "29172", NumberAnswer(29172)},
		{"number with whitespace", "  29172\n", NumberAnswer(29172)},
		// Digits scattered through prose concatenate into one number.
		// Surprising but load-bearing: the grader expects it.
		{"prose with digits", "The sum is 450123.", NumberAnswer(450123)},
		{"float truncates", "123.9", NumberAnswer(123)},
		{"sentinel unchanged", "ANSWER_NOT_FOUND", TextAnswer("ANSWER_NOT_FOUND")},
		{"empty becomes sentinel", "", TextAnswer("ANSWER_NOT_FOUND")},
		{"whitespace becomes sentinel", "   \n", TextAnswer("ANSWER_NOT_FOUND")},
		{"no digits passes through", "unknown", TextAnswer("unknown")},
		{"dots only passes through", "...", TextAnswer("...")},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			if got := coerceAnswer(tt.raw); got != tt.want {
				t.Fatalf("coerceAnswer(%q) = %+v, want %+v", tt.raw, got, tt.want)
			}
		})
	}
}

func TestAnswerResolverConvertsCompletionFailure(t *testing.T) {
	provider := &stubProvider{err: errors.New("connection refused")}
	a := NewAnswerResolver(provider)

	got := a.Resolve(context.Background(), "Q. Get the secret code from this page.", "<html></html>")
	if got.IsNumber {
		t.Fatalf("failure must be a text answer, got %+v", got)
	}
	if !strings.HasPrefix(got.Text, "Error: ") || !strings.Contains(got.Text, "connection refused") {
		t.Fatalf("unexpected failure answer %q", got.Text)
	}
}

func TestAnswerResolverPromptComposition(t *testing.T) {
	provider := &stubProvider{response: "29172"}
	a := NewAnswerResolver(provider)

	got := a.Resolve(context.Background(), "Q. Get the secret code from this page.", "<p>Secret code is 29172</p>")
	if got != NumberAnswer(29172) {
		t.Fatalf("unexpected answer %+v", got)
	}
	if provider.jsonMode {
		t.Fatalf("answer call must not request JSON mode")
	}
	if len(provider.messages) != 2 {
		t.Fatalf("expected system+user messages, got %d", len(provider.messages))
	}
	if !strings.Contains(provider.messages[0].Content, "Q. Get the secret code from this page.") {
		t.Fatalf("question missing from system prompt")
	}
	if !strings.HasPrefix(provider.messages[1].Content, "Data Context:\n") {
		t.Fatalf("data context missing from user message: %q", provider.messages[1].Content)
	}
}

func TestAnswerMarshalJSON(t *testing.T) {
	t.Parallel()
	b, err := json.Marshal(NumberAnswer(500))
	if err != nil {
		t.Fatalf("marshal number: %v", err)
	}
	if string(b) != "500" {
		t.Fatalf("number answer marshalled to %s", b)
	}

	b, err = json.Marshal(TextAnswer("ANSWER_NOT_FOUND"))
	if err != nil {
		t.Fatalf("marshal text: %v", err)
	}
	if string(b) != `"ANSWER_NOT_FOUND"` {
		t.Fatalf("text answer marshalled to %s", b)
	}
}
