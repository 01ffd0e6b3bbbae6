package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration for the quiz agent service
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Quiz      QuizConfig      `mapstructure:"quiz"`
	LLM       LLMConfig       `mapstructure:"llm"`
	Solver    SolverConfig    `mapstructure:"solver"`
	Telemetry TelemetryConfig `mapstructure:"telemetry"`
}

// ServerConfig contains HTTP server settings
type ServerConfig struct {
	Address string `mapstructure:"address"`
}

// QuizConfig carries the shared credentials the grader sends with every
// trigger call. Read once at startup and passed by value into the
// handler and solver so tests can inject fakes.
type QuizConfig struct {
	Email  string `mapstructure:"email"`
	Secret string `mapstructure:"secret"`
}

func (q QuizConfig) Validate() error {
	if strings.TrimSpace(q.Email) == "" {
		return fmt.Errorf("quiz.email is required")
	}
	if strings.TrimSpace(q.Secret) == "" {
		return fmt.Errorf("quiz.secret is required")
	}
	return nil
}

// LLMConfig contains the completion endpoint configuration
type LLMConfig struct {
	APIKey      string        `mapstructure:"api_key"`
	BaseURL     string        `mapstructure:"base_url"`
	Model       string        `mapstructure:"model"`
	Temperature float64       `mapstructure:"temperature"`
	MaxTokens   int           `mapstructure:"max_tokens"`
	Timeout     time.Duration `mapstructure:"timeout"`
}

func (l LLMConfig) Validate() error {
	if strings.TrimSpace(l.APIKey) == "" {
		return fmt.Errorf("llm.api_key is required")
	}
	if strings.TrimSpace(l.BaseURL) == "" {
		return fmt.Errorf("llm.base_url is required")
	}
	return nil
}

// SolverConfig contains the agent loop budgets and file handling settings
type SolverConfig struct {
	RunBudget     time.Duration `mapstructure:"run_budget"`
	SubmitTimeout time.Duration `mapstructure:"submit_timeout"`
	FetchTimeout  time.Duration `mapstructure:"fetch_timeout"`
	MaxPageChars  int           `mapstructure:"max_page_chars"`
	DownloadDir   string        `mapstructure:"download_dir"`
}

// TelemetryConfig contains metrics settings
type TelemetryConfig struct {
	Enabled bool `mapstructure:"enabled"`
}

// LoadConfig reads configuration from an optional file plus QUIZAGENT_*
// environment variables. Every field except the credentials and the LLM
// API key has a default, so running from env alone works.
func LoadConfig(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("json")

	v.SetDefault("server.address", ":8000")
	// Register secret-bearing keys so AutomaticEnv can populate them
	// even when no config file supplies a value.
	v.SetDefault("quiz.email", "")
	v.SetDefault("quiz.secret", "")
	v.SetDefault("llm.api_key", "")
	v.SetDefault("llm.base_url", "https://aipipe.org/openrouter/v1/chat/completions")
	v.SetDefault("llm.model", "openai/gpt-4o")
	v.SetDefault("llm.temperature", 0.2)
	v.SetDefault("llm.max_tokens", 2000)
	v.SetDefault("llm.timeout", 60*time.Second)
	// Quiz rounds arrive with a 3-minute grading window; stop just under it.
	v.SetDefault("solver.run_budget", 170*time.Second)
	v.SetDefault("solver.submit_timeout", 30*time.Second)
	v.SetDefault("solver.fetch_timeout", 45*time.Second)
	v.SetDefault("solver.max_page_chars", 120000)
	v.SetDefault("solver.download_dir", "temp_data")
	v.SetDefault("telemetry.enabled", true)

	if path == "" {
		v.AddConfigPath("./config")
		v.AddConfigPath(".")
	} else {
		v.SetConfigFile(path)
	}

	v.SetEnvPrefix("QUIZAGENT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) || path != "" {
			return nil, fmt.Errorf("reading config: %w", err)
		}
		// env-only operation is fine
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshalling config: %w", err)
	}

	if err := cfg.Quiz.Validate(); err != nil {
		return nil, err
	}
	if err := cfg.LLM.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}
