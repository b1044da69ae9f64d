package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/santiagomed/appcannon/config"
	"github.com/santiagomed/appcannon/core"
	"github.com/santiagomed/appcannon/logger"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
)

type genFlags struct {
	config string
	zip    string
	plain  bool
}

var rootCmd = &cobra.Command{
	Use:   "appcannon <spec.yaml>",
	Short: "Generate a web application from a YAML project spec",
	Long: `appcannon asks a language model for a README, then for the list of project
files, then for every file in turn, and writes the results to the output directory.`,
	Args:          cobra.ExactArgs(1),
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		flags, err := parseGenFlags(cmd)
		if err != nil {
			return fmt.Errorf("error parsing flags: %w", err)
		}

		req, err := loadRequest(afero.NewOsFs(), args[0], flags.config, cmd)
		if err != nil {
			return err
		}

		logger.InitLogger()
		l := logger.GetLogger().WithField("model", req.ModelName)

		if flags.plain {
			return runPlain(cmd.Context(), cmd.OutOrStdout(), req, flags.zip, l)
		}
		return runInteractive(req, flags.zip, l)
	},
}

func init() {
	def := core.DefaultRequest()
	f := rootCmd.Flags()
	f.StringP("output", "o", def.OutputDir, "Output directory for the generated project")
	f.StringP("frontend", "f", def.Frontend, "Frontend technology")
	f.StringP("backend", "b", def.Backend, "Backend technology")
	f.StringP("database", "d", def.Database, "Database technology")
	f.StringP("model", "m", def.ModelName, "Model to use (claude-* or gpt-*)")
	f.StringP("git", "g", def.GitRepo, "Git repository URL")
	f.StringP("log", "l", def.LogFile, "Append every generated artifact to this log file")
	f.StringP("config", "c", "", "Path to custom configuration file")
	f.Int("concurrency", def.Concurrency, "Number of files generated in parallel")
	f.Int("max-attempts", def.MaxAttempts, "Attempts per model call before giving up")
	f.Duration("file-timeout", 0, "Time limit for generating a single file (0 means none)")
	f.String("tellm-url", "", "tellm server used to record completions")
	f.String("zip", "", "Also write the generated project to this zip archive")
	f.Bool("plain", false, "Print progress as plain lines instead of the interactive view")
}

func parseGenFlags(cmd *cobra.Command) (genFlags, error) {
	cfg, err := cmd.Flags().GetString("config")
	if err != nil {
		return genFlags{}, err
	}
	zip, err := cmd.Flags().GetString("zip")
	if err != nil {
		return genFlags{}, err
	}
	plain, err := cmd.Flags().GetBool("plain")
	if err != nil {
		return genFlags{}, err
	}
	return genFlags{config: cfg, zip: zip, plain: plain}, nil
}

func loadRequest(fsys afero.Fs, specPath, configPath string, cmd *cobra.Command) (*core.Request, error) {
	req, err := config.Load(fsys, configPath, cmd.Flags())
	if err != nil {
		return nil, err
	}
	spec, err := config.ReadSpecFile(fsys, specPath)
	if err != nil {
		return nil, err
	}
	req.Spec = spec
	if err := req.Validate(); err != nil {
		return nil, err
	}
	return req, nil
}

func runPlain(ctx context.Context, w io.Writer, req *core.Request, zipPath string, l logger.Logger, opts ...EngineOption) error {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	engine, err := NewProjectEngine(NewPlainStepPublisher(w), l, 1, opts...)
	if err != nil {
		return err
	}
	engine.Start(ctx)
	defer engine.Shutdown(5 * time.Second)

	summary, err := finalizeBuild(<-engine.AddRequest(req), req, zipPath)
	if err != nil {
		return err
	}
	fmt.Fprintln(w, summary)
	return nil
}

func runInteractive(req *core.Request, zipPath string, l logger.Logger) error {
	model, err := newGenerateModel(req, zipPath, l)
	if err != nil {
		return fmt.Errorf("error initializing model: %w", err)
	}
	defer model.Shutdown()

	p := tea.NewProgram(model)
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("error running program: %w", err)
	}
	return model.Err()
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, errorStyle.Render(err.Error()))
		os.Exit(1)
	}
}
