package solver

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/mohammad-safakhou/quizagent/config"
	"github.com/mohammad-safakhou/quizagent/internal/fetch"
	"github.com/mohammad-safakhou/quizagent/internal/files"
	"github.com/mohammad-safakhou/quizagent/internal/telemetry"
)

// ContentFetcher renders a URL to full page markup. A result carrying
// the fetch.ErrorPrefix literal is a failure description, not markup.
type ContentFetcher interface {
	Render(ctx context.Context, url string) (string, error)
}

// FileRetriever downloads a data file and returns its local path.
type FileRetriever interface {
	Download(ctx context.Context, url string) (string, error)
}

// Planner derives a Plan from page markup.
type Planner interface {
	Resolve(ctx context.Context, pageContent string) (Plan, error)
}

// Answerer derives an Answer from a question and its data context.
type Answerer interface {
	Resolve(ctx context.Context, question, dataContext string) Answer
}

// Solver drives one quiz run through rounds of render, plan, data
// acquisition, answer and submission until the grader stops handing out
// follow-up URLs or the wall-clock budget runs out. Strictly
// sequential; exactly one active round per run; no retries.
type Solver struct {
	budget   time.Duration
	fetcher  ContentFetcher
	planner  Planner
	answerer Answerer
	retrieve FileRetriever
	extract  func(path string) (string, error)
	client   *http.Client
	metrics  *telemetry.Telemetry
	logger   *log.Logger
	now      func() time.Time
}

// New creates a solver. metrics may be nil.
func New(cfg config.SolverConfig, fetcher ContentFetcher, planner Planner, answerer Answerer, retriever FileRetriever, metrics *telemetry.Telemetry) *Solver {
	budget := cfg.RunBudget
	if budget == 0 {
		budget = 170 * time.Second
	}
	submitTimeout := cfg.SubmitTimeout
	if submitTimeout == 0 {
		submitTimeout = 30 * time.Second
	}
	return &Solver{
		budget:   budget,
		fetcher:  fetcher,
		planner:  planner,
		answerer: answerer,
		retrieve: retriever,
		extract:  files.ExtractText,
		client:   &http.Client{Timeout: submitTimeout},
		metrics:  metrics,
		logger:   log.New(log.Writer(), "[SOLVER] ", log.LstdFlags),
		now:      time.Now,
	}
}

// Run executes the quiz loop for one task and returns its terminal
// outcome. Timed-out, completed and wrong-final runs are all normal
// stops; the caller already acknowledged the trigger, so outcomes are
// observable only through logs and metrics.
func (s *Solver) Run(ctx context.Context, task QuizTask) Outcome {
	start := s.now()
	current := task.InitialURL

	outcome := OutcomeScrapeFailed
	for round := 0; current != ""; round++ {
		if s.now().Sub(start) > s.budget {
			s.logger.Printf("run budget exhausted before round %d; stopping", round)
			outcome = OutcomeTimedOut
			break
		}

		s.logger.Printf("round %d: processing %s", round, current)
		s.metrics.RoundStarted()

		var next string
		outcome, next = s.runRound(ctx, task, current, round)
		current = next
	}

	s.metrics.RunFinished(string(outcome))
	s.logger.Printf("run finished: %s", outcome)
	return outcome
}

// runRound walks one round through the state sequence. A non-empty next
// continues the loop; otherwise outcome is terminal. The deferred
// recover is the catch-all boundary: no failure inside a round may
// leak state into the next one, so a panic terminates the run at
// whatever stage outcome currently names.
func (s *Solver) runRound(ctx context.Context, task QuizTask, currentURL string, round int) (outcome Outcome, next string) {
	outcome = OutcomeScrapeFailed
	defer func() {
		if r := recover(); r != nil {
			s.logger.Printf("round %d aborted by panic: %v", round, r)
			next = ""
		}
	}()

	content, err := s.fetcher.Render(ctx, currentURL)
	if err != nil || strings.HasPrefix(content, fetch.ErrorPrefix) {
		s.logger.Printf("round %d: scrape failed: %v %s", round, err, content)
		return OutcomeScrapeFailed, ""
	}

	outcome = OutcomePlanFailed
	plan, err := s.planner.Resolve(ctx, content)
	if err != nil {
		s.logger.Printf("round %d: planning failed: %v", round, err)
		return OutcomePlanFailed, ""
	}

	dataURL := resolveURL(currentURL, plan.DataURL)
	submitURL := resolveURL(currentURL, plan.SubmitURL)

	// The page markup is the default evidence; a referenced data file
	// overrides it. Acquisition failures degrade the context instead of
	// terminating so the model can still answer (or decline).
	outcome = OutcomeSubmitFailed
	dataContext := content
	if dataURL != "" {
		s.logger.Printf("round %d: data url found, downloading %s", round, dataURL)
		dataContext = s.acquireData(ctx, dataURL)
	}

	answer := s.answerer.Resolve(ctx, plan.Question, dataContext)
	s.logger.Printf("round %d: answer computed: %.50s", round, answer.String())

	result, err := s.submit(ctx, task, currentURL, submitURL, answer)
	if err != nil {
		s.logger.Printf("round %d: submission failed: %v", round, err)
		return OutcomeSubmitFailed, ""
	}
	s.metrics.SubmissionRecorded(result.Correct)

	if result.Correct {
		s.logger.Printf("round %d: answer was correct", round)
	} else {
		s.logger.Printf("round %d: answer was wrong: %s", round, result.Reason)
	}

	// The follow-up URL continues the quiz whether or not the answer
	// was right. No URL means the run ended normally either way.
	if result.URL == "" {
		if result.Correct {
			return OutcomeCompleted, ""
		}
		return OutcomeWrongFinal, ""
	}
	return outcome, result.URL
}

// acquireData downloads and extracts the referenced file, degrading to
// an explanatory string on any failure.
func (s *Solver) acquireData(ctx context.Context, dataURL string) string {
	path, err := s.retrieve.Download(ctx, dataURL)
	if err != nil {
		s.logger.Printf("failed to process file: %v", err)
		return fmt.Sprintf("Error processing file: %v", err)
	}
	text, err := s.extract(path)
	if err != nil {
		s.logger.Printf("failed to process file: %v", err)
		return fmt.Sprintf("Error processing file: %v", err)
	}
	return text
}

type submissionPayload struct {
	Email  string `json:"email"`
	Secret string `json:"secret"`
	URL    string `json:"url"`
	Answer Answer `json:"answer"`
}

// submit POSTs the answer to the resolved submission URL and decodes
// the grader's verdict. Any non-2xx status is a round failure.
func (s *Solver) submit(ctx context.Context, task QuizTask, currentURL, submitURL string, answer Answer) (SubmissionResult, error) {
	if submitURL == "" {
		return SubmissionResult{}, fmt.Errorf("empty submit url")
	}

	body, err := json.Marshal(submissionPayload{
		Email:  task.Email,
		Secret: task.Secret,
		URL:    currentURL,
		Answer: answer,
	})
	if err != nil {
		return SubmissionResult{}, fmt.Errorf("marshalling submission: %w", err)
	}

	s.logger.Printf("submitting answer to %s", submitURL)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, submitURL, bytes.NewReader(body))
	if err != nil {
		return SubmissionResult{}, fmt.Errorf("building submission request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return SubmissionResult{}, fmt.Errorf("posting submission: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return SubmissionResult{}, fmt.Errorf("submission returned %s: %s", resp.Status, string(b))
	}

	var result SubmissionResult
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return SubmissionResult{}, fmt.Errorf("decoding submission result: %w", err)
	}
	return result, nil
}

// resolveURL joins ref against base. Absolute refs pass through
// unchanged; relative paths resolve against base's scheme, host and
// path. Plan URLs are never used unresolved.
func resolveURL(base, ref string) string {
	if ref == "" {
		return ""
	}
	b, err := url.Parse(base)
	if err != nil {
		return ref
	}
	r, err := url.Parse(ref)
	if err != nil {
		return ref
	}
	return b.ResolveReference(r).String()
}
