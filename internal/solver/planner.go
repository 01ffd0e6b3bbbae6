package solver

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"github.com/mohammad-safakhou/quizagent/internal/llm"
)

// CompletionProvider is the LLM capability both resolvers call. One
// request per call; no retries anywhere in the core.
type CompletionProvider interface {
	Complete(ctx context.Context, messages []llm.Message, jsonMode bool) (string, error)
}

const planSystemPrompt = `You are an automated HTML parser. Your *only* job is to find three
specific pieces of info from a webpage's HTML and return them as a JSON object.

You MUST follow these rules:
1.  **"question"**: Find the *literal task instruction*.
    -   First, look for text starting with "Q." (e.g., "Q. Get the secret code...").
    -   If no "Q." is found, find the main instruction by looking for keywords
        like "CSV file" and "Cutoff:".
    -   You MUST extract the *entire* instruction (e.g., "CSV file\nCutoff: 29172").
2.  **"data_url"**: Find the URL to a *data file*.
    -   This *must* be a *literal* link from an <a> tag.
    -   The link *must* end in .csv, .pdf, .mp3, or .wav.
    -   (e.g., find <a href="demo-audio-data.csv">CSV file</a> -> "demo-audio-data.csv")
    -   If no such link is found, you MUST return null.
3.  **"submit_url"**: Find the URL or path to *submit* the answer.
    This is often in the instructions (e.g., "POST your answer to /submit").
    This *must* be extracted.

You *must* return only the JSON object. Do not add commentary.

The JSON schema MUST be:
{
  "question": "The literal task instruction extracted from the text.",
  "data_url": "The full URL or path extracted from the HTML (or null).",
  "analysis_plan": "A one-sentence copy of the question.",
  "submit_url": "The literal submission URL or path (e.g., /submit)."
}`

// PlanResolver turns page markup into a validated Plan with one
// JSON-mode completion call.
type PlanResolver struct {
	provider CompletionProvider
	logger   *log.Logger
}

// NewPlanResolver creates a plan resolver backed by the given provider.
func NewPlanResolver(provider CompletionProvider) *PlanResolver {
	return &PlanResolver{
		provider: provider,
		logger:   log.New(log.Writer(), "[PLANNER] ", log.LstdFlags),
	}
}

// Resolve extracts a Plan from page markup. Transport failures pass
// through as-is; decode failures and a missing submit_url come back as
// a *ParseError. The loop terminates the round on any error here.
func (p *PlanResolver) Resolve(ctx context.Context, pageContent string) (Plan, error) {
	messages := []llm.Message{
		{Role: "system", Content: planSystemPrompt},
		{Role: "user", Content: "Parse this HTML and return the JSON:\n\n---\n\n" + pageContent},
	}

	response, err := p.provider.Complete(ctx, messages, true)
	if err != nil {
		return Plan{}, fmt.Errorf("plan completion failed: %w", err)
	}

	plan, err := parsePlan(response)
	if err != nil {
		p.logger.Printf("rejecting plan: %v", err)
		return Plan{}, err
	}
	p.logger.Printf("plan received: %q (data_url=%q submit_url=%q)", plan.Question, plan.DataURL, plan.SubmitURL)
	return plan, nil
}

// parsePlan decodes the model's JSON. Models occasionally wrap the
// object in prose even in JSON mode, so the object is located by
// balanced-brace scanning before unmarshalling.
func parsePlan(response string) (Plan, error) {
	jsonStr := extractJSONObject(response)
	if jsonStr == "" {
		return Plan{}, &ParseError{Reason: "no JSON object in response"}
	}

	var plan Plan
	if err := json.Unmarshal([]byte(jsonStr), &plan); err != nil {
		return Plan{}, &ParseError{Reason: err.Error()}
	}
	if plan.SubmitURL == "" {
		return Plan{}, &ParseError{Reason: "missing submit_url"}
	}
	return plan, nil
}

// extractJSONObject returns the first balanced top-level JSON object in
// s, or "" when none exists.
func extractJSONObject(s string) string {
	start := -1
	depth := 0
	for i, ch := range s {
		switch ch {
		case '{':
			if depth == 0 {
				start = i
			}
			depth++
		case '}':
			if depth > 0 {
				depth--
				if depth == 0 {
					return s[start : i+1]
				}
			}
		}
	}
	return ""
}
