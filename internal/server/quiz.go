package server

import (
	"context"
	"log"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/mohammad-safakhou/quizagent/config"
	"github.com/mohammad-safakhou/quizagent/internal/solver"
)

// QuizRunner executes one quiz run to completion. Implemented by the
// solver; stubbed in tests.
type QuizRunner interface {
	Run(ctx context.Context, task solver.QuizTask) solver.Outcome
}

// QuizPayload is the grader's trigger request. Unknown extra fields are
// tolerated by echo's JSON binding.
type QuizPayload struct {
	Email  string `json:"email"`
	Secret string `json:"secret"`
	URL    string `json:"url"`
}

// APIResponse acknowledges an accepted task.
type APIResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

// QuizHandler validates trigger requests against the configured shared
// credentials and schedules runs in the background. The caller gets an
// acceptance immediately and never a result: run outcomes surface only
// through logs and metrics.
type QuizHandler struct {
	Quiz   config.QuizConfig
	Runner QuizRunner

	logger *log.Logger
}

func (h *QuizHandler) Register(e *echo.Echo) {
	e.POST("/quiz-endpoint", h.start)
	e.GET("/", h.root)
}

func (h *QuizHandler) start(c echo.Context) error {
	var payload QuizPayload
	if err := c.Bind(&payload); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	if payload.Secret != h.Quiz.Secret {
		h.log().Printf("invalid secret attempt from %s", c.RealIP())
		return echo.NewHTTPError(http.StatusForbidden, "invalid secret provided")
	}
	if payload.Email != h.Quiz.Email {
		h.log().Printf("invalid email attempt: %s", payload.Email)
		return echo.NewHTTPError(http.StatusForbidden, "invalid email provided")
	}

	h.log().Printf("task accepted for %s, url: %s", payload.Email, payload.URL)
	task := solver.QuizTask{
		Email:      payload.Email,
		Secret:     payload.Secret,
		InitialURL: payload.URL,
	}
	// Fire and forget: the run outlives this request and is not awaited.
	go h.Runner.Run(context.Background(), task)

	return c.JSON(http.StatusOK, APIResponse{
		Status:  "accepted",
		Message: "Quiz task accepted and is processing in the background.",
	})
}

func (h *QuizHandler) root(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{
		"message": "Quiz agent is running. POST to /quiz-endpoint to start.",
	})
}

func (h *QuizHandler) log() *log.Logger {
	if h.logger == nil {
		h.logger = log.New(log.Writer(), "[QUIZ] ", log.LstdFlags)
	}
	return h.logger
}
