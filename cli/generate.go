package cli

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/list"
	"github.com/santiagomed/appcannon/core"
	"github.com/santiagomed/appcannon/logger"
)

const (
	padding  = 2
	maxWidth = 80
)

type state int

const (
	Processing state = iota
	Finished
	Failed
)

var stepOrder = []core.StepType{core.GenerateReadme, core.GenerateFileList, core.GenerateFileContents}

var stepLabels = map[core.StepType]struct {
	present string
	past    string
}{
	core.GenerateReadme:       {"Generating README.", "Generated README."},
	core.GenerateFileList:     {"Generating file list.", "Generated file list."},
	core.GenerateFileContents: {"Generating files.", "Generated files."},
}

type buildResultMsg ExecutionResult

type generateCmdModel struct {
	spinner        spinner.Model
	progress       progress.Model
	state          state
	request        *core.Request
	zipPath        string
	completedSteps []core.StepType
	totalFiles     int
	startedFiles   []string
	engine         *Engine
	engineCtx      context.Context
	engineCancel   context.CancelFunc
	publisher      *CliStepPublisher
	logger         logger.Logger
	err            error
}

func newGenerateModel(req *core.Request, zipPath string, l logger.Logger) (*generateCmdModel, error) {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("202"))

	publisher := NewCliStepPublisher(l)
	engine, err := NewProjectEngine(publisher, l, 1)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithCancel(context.Background())
	m := &generateCmdModel{
		spinner:      s,
		progress:     progress.New(progress.WithGradient("#FFBA08", "#F48C06")),
		state:        Processing,
		request:      req,
		zipPath:      zipPath,
		engine:       engine,
		engineCtx:    ctx,
		engineCancel: cancel,
		publisher:    publisher,
		logger:       l,
	}
	engine.Start(ctx)
	return m, nil
}

func (m *generateCmdModel) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.startGeneration())
}

func (m *generateCmdModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleQuit(msg)
	case tea.WindowSizeMsg:
		m.progress.Width = msg.Width - padding*2 - 4
		if m.progress.Width > maxWidth {
			m.progress.Width = maxWidth
		}
		return m, nil
	case core.StepType:
		return m.handleStep(msg)
	case fileListMsg:
		m.totalFiles = len(msg)
		return m, m.listenForNextEvent
	case fileMsg:
		m.startedFiles = append(m.startedFiles, string(msg))
		return m, tea.Batch(m.progress.SetPercent(m.filePercent()), m.listenForNextEvent)
	case retryMsg:
		return m, tea.Batch(tea.Println(warnStyle.Render(retryLine(msg.step, msg.event))), m.listenForNextEvent)
	case warnMsg:
		return m, tea.Batch(tea.Println(warnStyle.Render("! "+string(msg))), m.listenForNextEvent)
	case error:
		m.logger.Error(fmt.Sprintf("Error received during project generation: %v", msg))
		m.err = msg
		return m, nil
	case buildResultMsg:
		return m.handleResult(ExecutionResult(msg))
	case progress.FrameMsg:
		progressModel, cmd := m.progress.Update(msg)
		m.progress = progressModel.(progress.Model)
		return m, cmd
	default:
		if m.state == Processing {
			var cmd tea.Cmd
			m.spinner, cmd = m.spinner.Update(msg)
			return m, cmd
		}
	}
	return m, nil
}

func (m *generateCmdModel) View() string {
	switch m.state {
	case Processing:
		enumerator := func(l list.Items, i int) string {
			if i < len(m.completedSteps) {
				return checkStyle.Render("✓")
			}
			return m.spinner.View()
		}

		l := list.New().Enumerator(enumerator)
		for i, step := range stepOrder {
			if i < len(m.completedSteps) {
				l.Item(stepLabels[step].past)
			} else if i == len(m.completedSteps) {
				l.Item(stepLabels[step].present)
			}
		}

		var b strings.Builder
		b.WriteString(fmt.Sprint(l))
		if len(m.completedSteps) == 2 && m.totalFiles > 0 {
			pad := strings.Repeat(" ", padding)
			var current string
			if n := len(m.startedFiles); n > 0 {
				current = m.startedFiles[n-1]
			}
			b.WriteString("\n\n" + pad + m.progress.View())
			b.WriteString(fmt.Sprintf("\n%s%s %d/%d %s", pad, faintStyle.Render("files"),
				len(m.startedFiles), m.totalFiles, current))
		}
		return b.String() + "\n"
	case Failed:
		return errorStyle.Render(fmt.Sprintf("Build failed: %v", m.err)) + "\n"
	default:
		return ""
	}
}

func (m *generateCmdModel) Err() error {
	return m.err
}

func (m *generateCmdModel) Shutdown() {
	m.engineCancel()
	m.engine.Shutdown(5 * time.Second)
}

func (m *generateCmdModel) filePercent() float64 {
	if m.totalFiles == 0 {
		return 0
	}
	// a file counts once the next one starts
	return float64(len(m.startedFiles)-1) / float64(m.totalFiles)
}

func (m *generateCmdModel) listenForNextStep() tea.Msg {
	select {
	case step := <-m.publisher.stepChan:
		return step
	case err := <-m.publisher.errorChan:
		return err
	}
}

func (m *generateCmdModel) listenForNextEvent() tea.Msg {
	return <-m.publisher.eventChan
}

func (m *generateCmdModel) startGeneration() tea.Cmd {
	resultChan := m.engine.AddRequest(m.request)
	waitForResult := func() tea.Msg {
		return buildResultMsg(<-resultChan)
	}
	return tea.Batch(m.listenForNextStep, m.listenForNextEvent, waitForResult)
}

func (m *generateCmdModel) handleStep(step core.StepType) (tea.Model, tea.Cmd) {
	m.logger.Debug(fmt.Sprintf("Received step: %v", step))
	if step == core.Done {
		return m, nil
	}
	m.completedSteps = append(m.completedSteps, step)
	if step == core.GenerateFileContents {
		return m, tea.Batch(m.progress.SetPercent(1), m.listenForNextStep)
	}
	return m, tea.Batch(m.spinner.Tick, m.listenForNextStep)
}

func (m *generateCmdModel) handleResult(res ExecutionResult) (tea.Model, tea.Cmd) {
	summary, err := finalizeBuild(res, m.request, m.zipPath)
	if err != nil {
		m.logger.Error(fmt.Sprintf("Project generation failed: %v", err))
		m.state = Failed
		m.err = err
		return m, tea.Quit
	}
	m.state = Finished
	return m, tea.Sequence(tea.Println(summary), tea.Quit)
}

// handleQuit handles the quit state of the application on key press.
func (m *generateCmdModel) handleQuit(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.Type == tea.KeyCtrlC || msg.Type == tea.KeyEsc {
		m.logger.Debug("User exited the application")
		m.engineCancel()
		m.state = Failed
		m.err = context.Canceled
		message := faintStyle.Render("Interrupted. Exiting application...")
		return m, tea.Sequence(tea.Println(message), tea.Quit)
	}
	return m, nil
}

// finalizeBuild turns a finished build into the closing summary line and
// writes the zip archive when one was requested.
func finalizeBuild(res ExecutionResult, req *core.Request, zipPath string) (string, error) {
	if res.Err != nil {
		return "", res.Err
	}
	if zipPath != "" {
		if err := res.State.FileSystem.WriteToZip(zipPath); err != nil {
			return "", fmt.Errorf("error writing zip archive: %w", err)
		}
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Project generated in directory: %s (%d files written",
		nameStyle.Render(req.OutputDir), len(res.State.Written()))
	if skipped := res.State.Skipped(); len(skipped) > 0 {
		fmt.Fprintf(&b, ", %s", warnStyle.Render(fmt.Sprintf("%d skipped: %s", len(skipped), strings.Join(skipped, ", "))))
	}
	b.WriteString(")")
	if structure, err := res.State.FileSystem.ListFiles(); err == nil && len(structure) > 0 {
		b.WriteString("\n" + fileTree(structure).String())
	}
	if zipPath != "" {
		fmt.Fprintf(&b, "\nArchive written to %s", nameStyle.Render(zipPath))
	}
	return b.String(), nil
}

// fileTree renders a ListFiles structure as nested lists, sorted by name.
func fileTree(structure map[string]interface{}) *list.List {
	names := make([]string, 0, len(structure))
	for name := range structure {
		names = append(names, name)
	}
	sort.Strings(names)

	l := list.New()
	for _, name := range names {
		sub, ok := structure[name].(map[string]interface{})
		if !ok {
			l.Item(name)
			continue
		}
		l.Item(name + "/")
		if len(sub) > 0 {
			l.Item(fileTree(sub))
		}
	}
	return l
}
