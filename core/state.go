package core

import (
	"sync"

	"github.com/santiagomed/appcannon/fs"
	"github.com/santiagomed/appcannon/llm"
	"github.com/santiagomed/appcannon/logger"
)

type StepType int

const (
	GenerateReadme StepType = iota
	GenerateFileList
	GenerateFileContents
	Done
)

func (s StepType) String() string {
	switch s {
	case GenerateReadme:
		return "README generation"
	case GenerateFileList:
		return "file list generation"
	case GenerateFileContents:
		return "file generation"
	case Done:
		return "done"
	default:
		return "unknown step"
	}
}

// Status is the build's position in its state machine.
type Status int

const (
	StatusInit Status = iota
	StatusReadmeGenerated
	StatusFileListKnown
	StatusGeneratingFiles
	StatusDone
	StatusFailed
)

func (s Status) String() string {
	return [...]string{"init", "readme generated", "file list known", "generating files", "done", "failed"}[s]
}

// State carries the collaborators of one build and the values its phases
// produce. Build values are only reachable through the guarded accessors.
type State struct {
	Request    *Request
	LLM        llm.LlmClient
	FileSystem *fs.FileSystem
	GenLog     *fs.GenerationLog
	Retry      llm.RetryPolicy
	Publisher  StepPublisher
	Logger     logger.Logger

	mu       sync.Mutex
	status   Status
	readme   string
	fileList []string
	written  []string
	skipped  []string
}

func (s *State) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status
}

func (s *State) setStatus(st Status) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.status = st
}

// Readme returns the README text, or "" while it is unset.
func (s *State) Readme() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.readme
}

func (s *State) setReadme(content string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.readme = content
}

func (s *State) FileList() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.fileList...)
}

func (s *State) setFileList(files []string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fileList = append([]string(nil), files...)
}

// Written lists persisted artifacts in write order.
func (s *State) Written() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.written...)
}

func (s *State) recordWritten(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.written = append(s.written, name)
}

// Skipped lists files from the file list that the model never wrote.
func (s *State) Skipped() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.skipped...)
}

func (s *State) recordSkipped(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.skipped = append(s.skipped, name)
}
