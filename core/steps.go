package core

import (
	"context"
	"fmt"
	"strings"

	"github.com/santiagomed/appcannon/llm"
	"github.com/santiagomed/appcannon/tool"
	"golang.org/x/sync/errgroup"
)

type Step interface {
	Execute(ctx context.Context, state *State) error
}

type StepManager interface {
	GetSteps() []StepType
	GetStep(stepType StepType) Step
}

type DefaultStepManager struct {
	steps   []StepType
	stepMap map[StepType]Step
}

func NewDefaultStepManager() *DefaultStepManager {
	return &DefaultStepManager{
		steps: []StepType{GenerateReadme, GenerateFileList, GenerateFileContents},
		stepMap: map[StepType]Step{
			GenerateReadme:       &ReadmeStep{},
			GenerateFileList:     &FileListStep{},
			GenerateFileContents: &FileContentsStep{},
		},
	}
}

func (sm *DefaultStepManager) GetSteps() []StepType {
	return sm.steps
}

func (sm *DefaultStepManager) GetStep(stepType StepType) Step {
	return sm.stepMap[stepType]
}

// runPhase asks the model once (with retries) and dispatches every
// well-formed invocation in its reply against reg.
func runPhase(ctx context.Context, state *State, step StepType, codec *tool.Codec, reg *tool.Registry, system, user string) error {
	policy := state.Retry
	policy.OnRetry = func(ev llm.RetryEvent) {
		state.Logger.
			WithField("step", step.String()).
			WithField("attempt", ev.Attempt).
			WithField("delay", ev.Delay.String()).
			Warn(fmt.Sprintf("Retrying after error: %v", ev.Err))
		state.Publisher.PublishRetry(step, ev)
	}

	reply, err := llm.WithRetry(ctx, policy, func(ctx context.Context) (string, error) {
		return state.LLM.Complete(ctx, system, user)
	})
	if err != nil {
		return err
	}

	parsed := codec.Parse(reply)
	for _, rej := range parsed.Rejected {
		msg := fmt.Sprintf("Ignoring malformed action: %v", rej.Err)
		state.Logger.WithField("step", step.String()).Warn(msg)
		state.Publisher.Warn(step, msg)
	}

	if _, err := tool.NewDispatcher(reg).DispatchAll(ctx, parsed.Invocations); err != nil {
		return err
	}
	return nil
}

type ReadmeStep struct{}

func (s *ReadmeStep) Execute(ctx context.Context, state *State) error {
	state.Logger.Debug("Generating README.")
	reg := tool.NewRegistry().MustRegister(writeReadmeSchema, &readmeHandler{state: state})
	codec := tool.NewCodec(state.Request.ToolTag, reg)

	system, user, err := readmePrompts(state.Request, codec.RenderUsagePrompt())
	if err != nil {
		return err
	}
	if err := runPhase(ctx, state, GenerateReadme, codec, reg, system, user); err != nil {
		return err
	}
	if strings.TrimSpace(state.Readme()) == "" {
		return fmt.Errorf("%w: README generation failed", ErrLLMResponseInvalid)
	}
	state.setStatus(StatusReadmeGenerated)
	return nil
}

type FileListStep struct{}

func (s *FileListStep) Execute(ctx context.Context, state *State) error {
	readme := state.Readme()
	if strings.TrimSpace(readme) == "" {
		return fmt.Errorf("%w: file list requested before README", ErrStateInvariant)
	}
	state.Logger.Debug("Generating file list.")

	reg := tool.NewRegistry().MustRegister(provideFileListSchema, &fileListHandler{state: state})
	codec := tool.NewCodec(state.Request.ToolTag, reg)
	system, user := fileListPrompts(readme, codec.RenderUsagePrompt())

	if err := runPhase(ctx, state, GenerateFileList, codec, reg, system, user); err != nil {
		return err
	}
	files := state.FileList()
	if len(files) == 0 {
		return fmt.Errorf("%w: File list generation failed", ErrLLMResponseInvalid)
	}
	state.Logger.WithField("files", len(files)).Info("File list generated")
	state.setStatus(StatusFileListKnown)
	state.Publisher.PublishFileList(files)
	return nil
}

// FileContentsStep generates every listed file. With Concurrency 1 files are
// handled strictly in list order; the first failure stops the rest.
type FileContentsStep struct{}

func (s *FileContentsStep) Execute(ctx context.Context, state *State) error {
	readme := state.Readme()
	files := state.FileList()
	if readme == "" || len(files) == 0 {
		return fmt.Errorf("%w: file generation requires a README and a file list", ErrStateInvariant)
	}
	state.setStatus(StatusGeneratingFiles)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(1, state.Request.Concurrency))
	for _, file := range files {
		file := file
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			if err := generateFile(gctx, state, readme, file); err != nil {
				return newBuildError(GenerateFileContents, file, err)
			}
			return nil
		})
	}
	return g.Wait()
}

func generateFile(ctx context.Context, state *State, readme, file string) error {
	if state.Request.FileTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, state.Request.FileTimeout)
		defer cancel()
	}
	state.Logger.WithField("file", file).Debug("Generating file.")
	state.Publisher.PublishFile(file)

	h := &fileHandler{state: state}
	reg := tool.NewRegistry().MustRegister(writeFileSchema, h)
	codec := tool.NewCodec(state.Request.ToolTag, reg)
	system, user := filePrompts(state.Request, readme, file, codec.RenderUsagePrompt())

	if err := runPhase(ctx, state, GenerateFileContents, codec, reg, system, user); err != nil {
		return err
	}
	if h.writes == 0 {
		state.recordSkipped(file)
		msg := fmt.Sprintf("No content was written for %s", file)
		state.Logger.WithField("file", file).Warn(msg)
		state.Publisher.Warn(GenerateFileContents, msg)
	}
	return nil
}
