package core

import (
	"context"
	"fmt"
	"strings"

	"github.com/santiagomed/appcannon/tool"
)

const (
	ActionWriteReadme     = "write_readme"
	ActionProvideFileList = "provide_file_list"
	ActionWriteFile       = "write_file"

	ReadmeFile = "README.md"
)

var (
	writeReadmeSchema = tool.Schema{
		Name:        ActionWriteReadme,
		Description: "Write the project README",
		Args: []tool.Arg{
			{Name: "content", Type: "string", Description: "Full README markdown", Verbatim: true},
		},
	}
	provideFileListSchema = tool.Schema{
		Name:        ActionProvideFileList,
		Description: "Provide the list of project files",
		Args: []tool.Arg{
			{Name: "files", Type: "string", Description: "Comma-separated list of relative file paths"},
		},
	}
	writeFileSchema = tool.Schema{
		Name:        ActionWriteFile,
		Description: "Write a project file",
		Args: []tool.Arg{
			{Name: "path", Type: "string", Description: "File path relative to the project root"},
			{Name: "content", Type: "string", Description: "Full file contents", Verbatim: true},
		},
	}
)

// persist writes an artifact under the output root and records it in the
// generation log.
func persist(state *State, name, content string) error {
	full, err := state.FileSystem.Persist(name, content)
	if err != nil {
		return fmt.Errorf("error saving %s: %w", name, err)
	}
	if err := state.GenLog.Append(name, content); err != nil {
		return err
	}
	state.recordWritten(name)
	state.Logger.WithField("path", full).Info("Saved " + name)
	return nil
}

type readmeHandler struct {
	state *State
}

func (h *readmeHandler) Handle(ctx context.Context, args map[string]string) error {
	content := args["content"]
	h.state.setReadme(content)
	return persist(h.state, ReadmeFile, content)
}

type fileListHandler struct {
	state *State
}

func (h *fileListHandler) Handle(ctx context.Context, args map[string]string) error {
	h.state.setFileList(splitFileList(args["files"]))
	return nil
}

// splitFileList accepts comma or newline separated names. Blank and
// repeated entries are dropped; the first occurrence keeps its position.
func splitFileList(raw string) []string {
	fields := strings.FieldsFunc(raw, func(r rune) bool { return r == ',' || r == '\n' })
	seen := make(map[string]struct{}, len(fields))
	files := make([]string, 0, len(fields))
	for _, f := range fields {
		f = strings.TrimSpace(f)
		if f == "" {
			continue
		}
		if _, ok := seen[f]; ok {
			continue
		}
		seen[f] = struct{}{}
		files = append(files, f)
	}
	return files
}

// fileHandler serves exactly one target file and counts its writes.
type fileHandler struct {
	state  *State
	writes int
}

func (h *fileHandler) Handle(ctx context.Context, args map[string]string) error {
	if err := persist(h.state, args["path"], args["content"]); err != nil {
		return err
	}
	h.writes++
	return nil
}
