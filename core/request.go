package core

import (
	"errors"
	"time"

	"github.com/santiagomed/appcannon/llm"
	"github.com/santiagomed/appcannon/tool"
)

// Request is the immutable input of one build.
type Request struct {
	Frontend string                 `mapstructure:"frontend"`
	Backend  string                 `mapstructure:"backend"`
	Database string                 `mapstructure:"database"`
	Spec     map[string]interface{} `mapstructure:"-"`
	// GitRepo is only recorded and shown to the model.
	GitRepo   string `mapstructure:"git"`
	ModelName string `mapstructure:"model"`
	OutputDir string `mapstructure:"output"`
	LogFile   string `mapstructure:"log"`

	APIKey   string `mapstructure:"-"`
	TellmURL string `mapstructure:"tellm_url"`

	MaxAttempts int           `mapstructure:"max_attempts"`
	BaseDelay   time.Duration `mapstructure:"base_delay"`
	Concurrency int           `mapstructure:"concurrency"`
	FileTimeout time.Duration `mapstructure:"file_timeout"`
	ToolTag     string        `mapstructure:"tool_tag"`
}

// DefaultRequest returns a Request with default values.
func DefaultRequest() *Request {
	return &Request{
		Frontend:    "htmx with tailwind.css",
		Backend:     "flask/python3",
		Database:    "sqlite",
		Spec:        map[string]interface{}{},
		GitRepo:     "git@github.com:your-username/your-projectname.git",
		ModelName:   "claude-3-5-sonnet-20241022",
		OutputDir:   "build",
		MaxAttempts: llm.DefaultMaxAttempts,
		BaseDelay:   llm.DefaultBaseDelay,
		Concurrency: 1,
		ToolTag:     tool.DefaultTag,
	}
}

// Validate fills zero-valued engine settings and rejects unusable requests.
func (r *Request) Validate() error {
	if r.ModelName == "" {
		return errors.New("model name is required")
	}
	if r.OutputDir == "" {
		return errors.New("output directory is required")
	}
	if r.Spec == nil {
		r.Spec = map[string]interface{}{}
	}
	if r.MaxAttempts <= 0 {
		r.MaxAttempts = llm.DefaultMaxAttempts
	}
	if r.BaseDelay <= 0 {
		r.BaseDelay = llm.DefaultBaseDelay
	}
	if r.Concurrency <= 0 {
		r.Concurrency = 1
	}
	if r.FileTimeout < 0 {
		r.FileTimeout = 0
	}
	if r.ToolTag == "" {
		r.ToolTag = tool.DefaultTag
	}
	return nil
}

func (r *Request) RetryPolicy() llm.RetryPolicy {
	return llm.RetryPolicy{MaxAttempts: r.MaxAttempts, BaseDelay: r.BaseDelay}
}
