package main

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/songdl/internal/services"
	"github.com/desertthunder/songdl/internal/session"
	"github.com/desertthunder/songdl/internal/shared"
	"github.com/desertthunder/songdl/internal/tasks"
	"github.com/urfave/cli/v3"
	"golang.org/x/oauth2"
)

// Credentials is the stored session credential, readable as an [oauth2.TokenSource].
type Credentials interface {
	session.CredentialStore
	oauth2.TokenSource
}

// Runner holds all dependencies for CLI commands and provides methods for each command action.
type Runner struct {
	config     *shared.Config
	configPath string
	tokens     Credentials
	httpClient *http.Client
	logger     *log.Logger
	output     io.Writer
	gateway    *services.Gateway
	sink       *tasks.FileSink
	session    *session.Session
	progress   chan tasks.ProgressUpdate
}

// RunnerOpts contains configuration options for creating a Runner.
type RunnerOpts struct {
	Config     *shared.Config
	ConfigPath string
	Tokens     Credentials
	HTTPClient *http.Client
	Logger     *log.Logger
	Output     io.Writer
}

// NewRunner creates a new Runner with the provided configuration
func NewRunner(opts RunnerOpts) *Runner {
	if opts.Config == nil {
		opts.Config = shared.DefaultConfig()
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	if opts.Output == nil {
		opts.Output = os.Stdout
	}

	r := &Runner{
		config:     opts.Config,
		configPath: opts.ConfigPath,
		tokens:     opts.Tokens,
		httpClient: opts.HTTPClient,
		logger:     opts.Logger,
		output:     opts.Output,
	}
	r.build()
	return r
}

// build wires the gateway, sink and session from the runner's config and logger.
func (r *Runner) build() {
	var tokens oauth2.TokenSource
	var creds session.CredentialStore
	if r.tokens != nil {
		tokens, creds = r.tokens, r.tokens
	}

	r.gateway = services.NewGateway(services.GatewayOpts{
		BaseURL: r.config.ResolveBaseURL(),
		Origin:  r.config.Service.Origin,
		Timeout: r.config.Timeout(),
		Client:  r.httpClient,
		Tokens:  tokens,
		Logger:  shared.WithLogger(r.logger, "component", "gateway"),
	})
	r.sink = tasks.NewFileSink(r.config.Downloads.OutputDir, r.config.Downloads.TagMP3, r.logger)
	r.progress = make(chan tasks.ProgressUpdate, 64)
	r.session = session.New(session.Deps{
		Config:   r.config,
		Tokens:   creds,
		Gateway:  r.gateway,
		Sink:     r.sink,
		Progress: r.progress,
		Logger:   shared.WithLogger(r.logger, "component", "session"),
	})
}

// SetLogger replaces the logger and rewires the components that hold it.
func (r *Runner) SetLogger(l *log.Logger) {
	r.logger = l
	r.build()
}

func (r *Runner) register() []*cli.Command {
	commands := []*cli.Command{}
	for _, fn := range [](func(*Runner) *cli.Command){
		setupCommand, authCommand, songsCommand, downloadCommand, quotaCommand, playCommand, apiCommand, tuiCommand,
	} {
		commands = append(commands, fn(r))
	}

	return commands
}

// requireCredentials fails commands that need the token store when none was opened.
func (r *Runner) requireCredentials() error {
	if r.tokens == nil {
		return fmt.Errorf("%w: credential store not initialized (run songdl setup)", shared.ErrServiceUnavailable)
	}
	return nil
}

func (r *Runner) writeJSON(data any, pretty bool) error {
	var output []byte
	var err error

	if pretty {
		output, err = json.MarshalIndent(data, "", "  ")
	} else {
		output, err = json.Marshal(data)
	}

	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}

	if _, err := r.output.Write(output); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}

	if _, err := r.output.Write([]byte("\n")); err != nil {
		return fmt.Errorf("failed to write newline: %w", err)
	}

	return nil
}

func (r *Runner) writePlain(format string, args ...any) error {
	text := fmt.Sprintf(format, args...)
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (r *Runner) writePlainln(format string, args ...any) error {
	text := "\n" + fmt.Sprintf(format, args...) + "\n"
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (r *Runner) writePlainHeader(title string) {
	r.writePlain("═══════════════════════════════════════\n")
	r.writePlain("%v\n", title)
	r.writePlain("═══════════════════════════════════════\n")
}
