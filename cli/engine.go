package cli

import (
	"context"
	"sync"
	"time"

	"github.com/santiagomed/appcannon/core"
	"github.com/santiagomed/appcannon/fs"
	"github.com/santiagomed/appcannon/llm"
	"github.com/santiagomed/appcannon/logger"
)

type ClientFactory func(cfg *llm.LlmConfig, l logger.Logger) (llm.LlmClient, error)

type FileSystemFactory func(root string) *fs.FileSystem

type ExecutionRequest struct {
	Request    *core.Request
	ResultChan chan ExecutionResult
	CreatedAt  time.Time
}

// ExecutionResult is sent once per request. State is nil when the pipeline
// could not be built.
type ExecutionResult struct {
	State *core.State
	Err   error
}

type Engine struct {
	pub          core.StepPublisher
	logger       logger.Logger
	requests     chan ExecutionRequest
	workers      int
	workerWG     sync.WaitGroup
	shutdownChan chan struct{}
	newClient    ClientFactory
	newFS        FileSystemFactory
}

type EngineOption func(*Engine)

func WithClientFactory(f ClientFactory) EngineOption {
	return func(e *Engine) { e.newClient = f }
}

// WithFileSystemFactory replaces the output file system. The generation log
// is written to the same backing afero.Fs.
func WithFileSystemFactory(f FileSystemFactory) EngineOption {
	return func(e *Engine) { e.newFS = f }
}

func NewProjectEngine(pub core.StepPublisher, l logger.Logger, workers int, opts ...EngineOption) (*Engine, error) {
	if l == nil {
		l = logger.NewNullLogger()
	}
	if workers < 1 {
		workers = 1
	}
	e := &Engine{
		pub:          pub,
		logger:       l,
		requests:     make(chan ExecutionRequest, 100),
		workers:      workers,
		shutdownChan: make(chan struct{}),
		newClient:    llm.NewClient,
		newFS:        fs.NewOsFileSystem,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

func (e *Engine) Start(ctx context.Context) {
	for i := 0; i < e.workers; i++ {
		e.workerWG.Add(1)
		go e.worker(ctx)
	}
}

func (e *Engine) worker(ctx context.Context) {
	defer e.workerWG.Done()
	for {
		select {
		case req := <-e.requests:
			state, err := e.execute(ctx, req.Request)
			req.ResultChan <- ExecutionResult{State: state, Err: err}
			close(req.ResultChan)
		case <-ctx.Done():
			return
		case <-e.shutdownChan:
			return
		}
	}
}

func (e *Engine) execute(ctx context.Context, r *core.Request) (*core.State, error) {
	llmCfg := llm.LlmConfig{
		APIKey:    r.APIKey,
		ModelName: r.ModelName,
		BatchID:   llm.EnsureBatchID(""),
		TellmURL:  r.TellmURL,
	}
	client, err := e.newClient(&llmCfg, e.logger)
	if err != nil {
		return nil, err
	}

	fsys := e.newFS(r.OutputDir)
	genLog := fs.NewGenerationLog(fsys.Fs, r.LogFile)
	pipeline, err := core.NewPipeline(r, client, fsys, genLog, e.pub, e.logger.WithField("batch", llmCfg.BatchID))
	if err != nil {
		return nil, err
	}
	err = pipeline.Execute(ctx)
	return pipeline.State(), err
}

func (e *Engine) AddRequest(request *core.Request) chan ExecutionResult {
	resultChan := make(chan ExecutionResult, 1)
	e.requests <- ExecutionRequest{
		Request:    request,
		ResultChan: resultChan,
		CreatedAt:  time.Now(),
	}
	return resultChan
}

func (e *Engine) Shutdown(timeout time.Duration) {
	close(e.shutdownChan)

	done := make(chan struct{})
	go func() {
		e.workerWG.Wait()
		close(done)
	}()

	select {
	case <-done:
		e.logger.Info("All workers shut down gracefully")
	case <-time.After(timeout):
		e.logger.Warn("Shutdown timed out, some workers may still be running")
	}
}
