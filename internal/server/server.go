package server

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/mohammad-safakhou/quizagent/config"
	"github.com/mohammad-safakhou/quizagent/internal/fetch"
	"github.com/mohammad-safakhou/quizagent/internal/files"
	"github.com/mohammad-safakhou/quizagent/internal/llm"
	"github.com/mohammad-safakhou/quizagent/internal/solver"
	"github.com/mohammad-safakhou/quizagent/internal/telemetry"
)

// Run wires the service together and serves the trigger endpoint.
func Run(cfg *config.Config) error {
	e := echo.New()
	e.HideBanner = true
	e.Use(middleware.Recover())

	// Unified HTTP error handler with structured JSON and logging
	baseLogger := log.New(log.Writer(), "[HTTP] ", log.LstdFlags)
	e.HTTPErrorHandler = func(err error, c echo.Context) {
		code := http.StatusInternalServerError
		msg := err.Error()
		if he, ok := err.(*echo.HTTPError); ok {
			code = he.Code
			if he.Message != nil {
				msg = fmt.Sprint(he.Message)
			}
		}
		req := c.Request()
		baseLogger.Printf("%d %s %s from %s: %v", code, req.Method, req.URL.Path, c.RealIP(), err)
		if !c.Response().Committed {
			_ = c.JSON(code, map[string]interface{}{"error": msg})
		}
	}

	var tele *telemetry.Telemetry
	if cfg.Telemetry.Enabled {
		tele = telemetry.New()
	}

	e.GET("/healthz", func(c echo.Context) error { return c.String(http.StatusOK, "ok") })
	e.GET("/metrics", echo.WrapHandler(tele.Handler()))

	completions := llm.NewClient(cfg.LLM)
	planner := solver.NewPlanResolver(timedProvider{completions, tele, "plan"})
	answerer := solver.NewAnswerResolver(timedProvider{completions, tele, "answer"})
	renderer := fetch.NewRenderer(cfg.Solver.FetchTimeout, cfg.Solver.MaxPageChars)
	downloader := files.NewDownloader(cfg.Solver.DownloadDir, cfg.Solver.FetchTimeout)
	runner := solver.New(cfg.Solver, renderer, planner, answerer, downloader, tele)

	qh := &QuizHandler{Quiz: cfg.Quiz, Runner: runner}
	qh.Register(e)

	return e.Start(cfg.Server.Address)
}

// timedProvider feeds completion-call latency into the LLM histogram
// under a fixed operation label.
type timedProvider struct {
	provider solver.CompletionProvider
	tele     *telemetry.Telemetry
	op       string
}

func (p timedProvider) Complete(ctx context.Context, messages []llm.Message, jsonMode bool) (string, error) {
	t0 := time.Now()
	out, err := p.provider.Complete(ctx, messages, jsonMode)
	p.tele.ObserveLLM(p.op, time.Since(t0))
	return out, err
}
