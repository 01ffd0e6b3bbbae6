package solver

import (
	"encoding/json"
	"fmt"
)

// QuizTask is the unit of work handed to a background run. Created at
// trigger time, immutable, never persisted.
type QuizTask struct {
	Email      string
	Secret     string
	InitialURL string
}

// Plan is the structured result of the plan-extraction call. SubmitURL
// is the only required field; DataURL and SubmitURL may be relative and
// must be resolved against the round's URL before use.
type Plan struct {
	Question     string `json:"question"`
	DataURL      string `json:"data_url"`
	SubmitURL    string `json:"submit_url"`
	AnalysisPlan string `json:"analysis_plan"`
}

// ParseError marks a plan that could not be decoded or validated, as
// opposed to a transport failure talking to the completion endpoint.
// The loop terminates the round on either, but tests inject malformed
// model output without a live endpoint and need the distinction.
type ParseError struct {
	Reason string
}

func (e *ParseError) Error() string {
	return "plan parse error: " + e.Reason
}

// AnswerNotFound is the sentinel the answer model returns when neither
// of its rules matches or the data context is an error description. It
// is submitted as-is; resolution failure does not abort a round.
const AnswerNotFound = "ANSWER_NOT_FOUND"

// Answer is the typed result of answer resolution: either a number or
// free text. The grader accepts both JSON forms, so marshalling picks
// the matching one.
type Answer struct {
	Number   int64
	Text     string
	IsNumber bool
}

// NumberAnswer wraps an integer answer.
func NumberAnswer(n int64) Answer {
	return Answer{Number: n, IsNumber: true}
}

// TextAnswer wraps a free-text answer.
func TextAnswer(s string) Answer {
	return Answer{Text: s}
}

func (a Answer) MarshalJSON() ([]byte, error) {
	if a.IsNumber {
		return json.Marshal(a.Number)
	}
	return json.Marshal(a.Text)
}

func (a Answer) String() string {
	if a.IsNumber {
		return fmt.Sprintf("%d", a.Number)
	}
	return a.Text
}

// SubmissionResult is the grader's response to an answer POST. URL, when
// present, becomes the next round's page regardless of correctness.
type SubmissionResult struct {
	Correct bool   `json:"correct"`
	URL     string `json:"url"`
	Reason  string `json:"reason"`
}

// Outcome is the terminal state of a run. Timeouts and completed or
// wrong-final runs are normal stops; the failure variants mark the step
// that ended the run early.
type Outcome string

const (
	OutcomeCompleted    Outcome = "completed"
	OutcomeWrongFinal   Outcome = "wrong_final"
	OutcomeTimedOut     Outcome = "timed_out"
	OutcomeScrapeFailed Outcome = "scrape_failed"
	OutcomePlanFailed   Outcome = "plan_failed"
	OutcomeSubmitFailed Outcome = "submit_failed"
)
