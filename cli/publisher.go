package cli

import (
	"fmt"
	"io"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/santiagomed/appcannon/core"
	"github.com/santiagomed/appcannon/llm"
	"github.com/santiagomed/appcannon/logger"
)

type fileListMsg []string

type fileMsg string

type retryMsg struct {
	step  core.StepType
	event llm.RetryEvent
}

type warnMsg string

// CliStepPublisher forwards pipeline events to the progress view. Events are
// dropped when a channel is full so the pipeline never blocks on the UI.
type CliStepPublisher struct {
	stepChan  chan core.StepType
	eventChan chan interface{}
	errorChan chan error
	logger    logger.Logger
}

func NewCliStepPublisher(logger logger.Logger) *CliStepPublisher {
	return &CliStepPublisher{
		stepChan:  make(chan core.StepType, 100),
		eventChan: make(chan interface{}, 1000),
		errorChan: make(chan error, 10),
		logger:    logger,
	}
}

func (p *CliStepPublisher) PublishStep(step core.StepType) {
	select {
	case p.stepChan <- step:
		p.logger.Debug(fmt.Sprintf("Successfully published step: %v", step))
	default:
		p.logger.Warn(fmt.Sprintf("Failed to publish step: %v. Channel full.", step))
	}
}

func (p *CliStepPublisher) PublishFileList(files []string) {
	p.publishEvent(fileListMsg(files))
}

func (p *CliStepPublisher) PublishFile(file string) {
	p.publishEvent(fileMsg(file))
}

func (p *CliStepPublisher) PublishRetry(step core.StepType, ev llm.RetryEvent) {
	p.publishEvent(retryMsg{step: step, event: ev})
}

func (p *CliStepPublisher) Warn(step core.StepType, msg string) {
	p.publishEvent(warnMsg(msg))
}

func (p *CliStepPublisher) Error(step core.StepType, err error) {
	select {
	case p.errorChan <- err:
		p.logger.Debug(fmt.Sprintf("Successfully published error for step: %v", step))
	default:
		p.logger.Warn(fmt.Sprintf("Failed to publish error for step: %v. Channel full.", step))
	}
}

func (p *CliStepPublisher) publishEvent(ev interface{}) {
	select {
	case p.eventChan <- ev:
	default:
		p.logger.Warn(fmt.Sprintf("Failed to publish event %T. Channel full.", ev))
	}
}

var (
	checkStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	warnStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#FFBA08"))
	errorStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	faintStyle = lipgloss.NewStyle().Faint(true)
	nameStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("212"))
)

// PlainStepPublisher prints one styled line per event. It is used when the
// output is not an interactive terminal.
type PlainStepPublisher struct {
	w io.Writer
}

func NewPlainStepPublisher(w io.Writer) *PlainStepPublisher {
	return &PlainStepPublisher{w: w}
}

func (p *PlainStepPublisher) PublishStep(step core.StepType) {
	if step == core.Done {
		return
	}
	fmt.Fprintf(p.w, "%s %s\n", checkStyle.Render("✓"), stepLabels[step].past)
}

func (p *PlainStepPublisher) PublishFileList(files []string) {
	fmt.Fprintf(p.w, "  %s\n", faintStyle.Render(fmt.Sprintf("%d files planned", len(files))))
}

func (p *PlainStepPublisher) PublishFile(file string) {
	fmt.Fprintf(p.w, "  %s %s\n", faintStyle.Render("generating"), file)
}

func (p *PlainStepPublisher) PublishRetry(step core.StepType, ev llm.RetryEvent) {
	fmt.Fprintln(p.w, warnStyle.Render(retryLine(step, ev)))
}

func (p *PlainStepPublisher) Warn(step core.StepType, msg string) {
	fmt.Fprintln(p.w, warnStyle.Render("! "+msg))
}

func (p *PlainStepPublisher) Error(step core.StepType, err error) {
	fmt.Fprintln(p.w, errorStyle.Render(fmt.Sprintf("✗ %v", err)))
}

func retryLine(step core.StepType, ev llm.RetryEvent) string {
	return fmt.Sprintf("! %s attempt %d/%d failed, retrying in %s: %v",
		step, ev.Attempt, ev.MaxAttempts, ev.Delay.Round(time.Millisecond), ev.Err)
}
