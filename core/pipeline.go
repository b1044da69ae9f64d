package core

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/santiagomed/appcannon/fs"
	"github.com/santiagomed/appcannon/llm"
	blogger "github.com/santiagomed/appcannon/logger"
)

type Pipeline struct {
	stepManager StepManager
	state       *State
	publisher   StepPublisher
}

func NewPipeline(r *Request, client llm.LlmClient, fsys *fs.FileSystem, genLog *fs.GenerationLog, pub StepPublisher, logger blogger.Logger) (*Pipeline, error) {
	if client == nil {
		return nil, errors.New("LLM client is required")
	}
	if fsys == nil {
		return nil, errors.New("file system is required")
	}
	if err := r.Validate(); err != nil {
		return nil, fmt.Errorf("invalid request: %w", err)
	}
	if pub == nil {
		pub = &DefaultStepPublisher{}
	}
	if logger == nil {
		logger = blogger.NewNullLogger()
	}
	return &Pipeline{
		stepManager: NewDefaultStepManager(),
		state: &State{
			Request:    r,
			LLM:        client,
			FileSystem: fsys,
			GenLog:     genLog,
			Retry:      r.RetryPolicy(),
			Publisher:  pub,
			Logger:     logger,
		},
		publisher: pub,
	}, nil
}

func (p *Pipeline) State() *State {
	return p.state
}

// Execute runs every step in order. Any failure moves the build to
// StatusFailed and is returned as a *BuildError; artifacts already written
// stay on disk.
func (p *Pipeline) Execute(ctx context.Context) error {
	steps := p.stepManager.GetSteps()
	p.state.Logger.Info("Starting pipeline execution")
	for i, stepType := range steps {
		if err := ctx.Err(); err != nil {
			p.state.Logger.Info("Pipeline execution cancelled")
			return p.fail(stepType, err)
		}

		p.state.Logger.Info(fmt.Sprintf("Attempting to execute step %d: %v", i, stepType))
		step := p.stepManager.GetStep(stepType)
		if step == nil {
			return p.fail(stepType, fmt.Errorf("step %v not found", stepType))
		}

		startTime := time.Now()
		if err := step.Execute(ctx, p.state); err != nil {
			return p.fail(stepType, err)
		}
		p.state.Logger.Info(fmt.Sprintf("Step %v completed in %v", stepType, time.Since(startTime)))
		p.publisher.PublishStep(stepType)
	}

	p.state.setStatus(StatusDone)
	p.publisher.PublishStep(Done)
	p.state.Logger.
		WithField("written", len(p.state.Written())).
		WithField("skipped", len(p.state.Skipped())).
		Info("Pipeline execution completed")
	return nil
}

func (p *Pipeline) fail(stepType StepType, err error) error {
	var be *BuildError
	if !errors.As(err, &be) {
		be = newBuildError(stepType, "", err)
	}
	p.state.setStatus(StatusFailed)
	p.state.Logger.Error(fmt.Sprintf("Error executing step %v: %v", stepType, err))
	p.publisher.Error(stepType, be)
	return be
}

type StepPublisher interface {
	PublishStep(step StepType)
	PublishFileList(files []string)
	PublishFile(file string)
	PublishRetry(step StepType, ev llm.RetryEvent)
	Warn(step StepType, msg string)
	Error(step StepType, err error)
}

type DefaultStepPublisher struct{}

func (p *DefaultStepPublisher) PublishStep(step StepType) {}

func (p *DefaultStepPublisher) PublishFileList(files []string) {}

func (p *DefaultStepPublisher) PublishFile(file string) {}

func (p *DefaultStepPublisher) PublishRetry(step StepType, ev llm.RetryEvent) {}

func (p *DefaultStepPublisher) Warn(step StepType, msg string) {}

func (p *DefaultStepPublisher) Error(step StepType, err error) {}
