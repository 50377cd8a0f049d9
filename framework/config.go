package framework

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config contains the runtime knobs shared between the CLI and the server.
// Credentials come from the environment only, never from the config file.
type Config struct {
	// Model runs query generation and text analysis.
	Model string `yaml:"model"`
	// PlannerModel runs plan generation; planning benefits from the
	// stronger model while per-question calls stay on the cheaper one.
	PlannerModel string `yaml:"planner_model"`
	// BaseURL points at an OpenAI-compatible chat completions endpoint.
	BaseURL string `yaml:"base_url"`
	APIKey  string `yaml:"-"`

	// ScrapeTimeout bounds each page fetch. This is the only deadline in
	// the system; no plan-wide timeout exists.
	ScrapeTimeout time.Duration `yaml:"scrape_timeout"`
	// MaxTextChars truncates textual artifacts before text analysis to
	// stay inside the model context window.
	MaxTextChars int `yaml:"max_text_chars"`

	Addr          string `yaml:"addr"`
	DebugLLM      bool   `yaml:"llm_debug"`
	TelemetryFile string `yaml:"telemetry_file"`
}

// DefaultConfig returns the built-in defaults, matching the behavior the
// system ships with when no config file exists.
func DefaultConfig() *Config {
	return &Config{
		Model:         "gpt-4o-mini",
		PlannerModel:  "gpt-4o",
		ScrapeTimeout: 25 * time.Second,
		MaxTextChars:  8000,
		Addr:          ":8080",
	}
}

// LoadConfig reads a YAML config file over the defaults. A missing file is
// not an error; a missing path argument just returns defaults.
func LoadConfig(path string) (*Config, error) {
	cfg := DefaultConfig()
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return nil, err
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	return cfg, nil
}

// ApplyEnv overlays credentials and endpoint overrides from the environment.
// OPENAI_API_KEY and OPENAI_BASE_URL are required the same way the hosted
// deployment requires them.
func (c *Config) ApplyEnv() {
	if v := os.Getenv("OPENAI_API_KEY"); v != "" {
		c.APIKey = v
	}
	if v := os.Getenv("OPENAI_BASE_URL"); v != "" {
		c.BaseURL = v
	}
	if v := os.Getenv("ANALYST_MODEL"); v != "" {
		c.Model = v
	}
	if v := os.Getenv("ANALYST_PLANNER_MODEL"); v != "" {
		c.PlannerModel = v
	}
	if v := os.Getenv("ANALYST_ADDR"); v != "" {
		c.Addr = v
	}
}

// Validate checks that credentials are present before any provider is built.
func (c *Config) Validate() error {
	if c.APIKey == "" || c.BaseURL == "" {
		return errors.New("OPENAI_API_KEY or OPENAI_BASE_URL not set")
	}
	return nil
}
