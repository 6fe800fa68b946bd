package main

import (
	"bufio"
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/urfave/cli/v3"

	"github.com/desertthunder/narrate/internal/repositories"
	"github.com/desertthunder/narrate/internal/services"
	"github.com/desertthunder/narrate/internal/session"
	"github.com/desertthunder/narrate/internal/shared"
	"github.com/desertthunder/narrate/internal/store"
	"github.com/desertthunder/narrate/internal/tasks"
)

// Runner holds all dependencies for CLI commands and provides methods for each command action.
//
// The database, cookie jar, backend client and session are opened on first use
// so that `setup` works before a config or database exists.
type Runner struct {
	config     *shared.Config
	configPath string
	httpClient *http.Client
	logger     *log.Logger
	output     io.Writer
	input      io.Reader
	lines      *bufio.Reader

	mu          sync.Mutex
	db          *sql.DB
	store       store.Store
	jobs        *repositories.JobRepository
	assignments *repositories.VoiceAssignmentRepository
	jar         *session.Jar
	api         *services.Client
	session     *session.Manager
	subs        *tasks.SubscriptionCache
}

// RunnerOpts contains configuration options for creating a Runner.
type RunnerOpts struct {
	Config     *shared.Config
	ConfigPath string
	HTTPClient *http.Client
	Logger     *log.Logger
	Output     io.Writer
	Input      io.Reader
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
	if opts.Input == nil {
		opts.Input = os.Stdin
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = &http.Client{}
	}

	return &Runner{
		config:     opts.Config,
		configPath: opts.ConfigPath,
		httpClient: opts.HTTPClient,
		logger:     opts.Logger,
		output:     opts.Output,
		input:      opts.Input,
	}
}

// SetLogger replaces the logger used by the runner and everything it opens afterwards.
func (r *Runner) SetLogger(l *log.Logger) {
	r.logger = l
}

func (r *Runner) register() []*cli.Command {
	commands := []*cli.Command{}
	for _, fn := range [](func(*Runner) *cli.Command){
		setupCommand, authCommand, accountCommand, scriptCommand, voicesCommand, audioCommand,
		subscriptionCommand, historyCommand, dashboardCommand,
	} {
		commands = append(commands, fn(r))
	}

	return commands
}

// open builds the persistent dependencies once.
func (r *Runner) open(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.session != nil {
		return nil
	}

	db, err := shared.OpenDatabase(r.config.Database)
	if err != nil {
		return fmt.Errorf("failed to open database (run `narrate setup init`): %w", err)
	}

	kv := repositories.NewKeyValueRepository(db)
	jar, err := session.NewJar(ctx, r.config.API.BaseURL, kv, shared.WithLogger(r.logger, "component", "jar"))
	if err != nil {
		db.Close()
		return err
	}

	httpClient := *r.httpClient
	httpClient.Jar = jar

	api := services.NewClient(services.ClientOptions{
		BaseURL:           r.config.API.BaseURL,
		HTTPClient:        &httpClient,
		RequestTimeout:    r.config.API.RequestTimeout.Duration,
		UploadTimeout:     r.config.API.UploadTimeout.Duration,
		RequestsPerSecond: r.config.API.RequestsPerSecond,
		Logger:            shared.WithLogger(r.logger, "component", "api"),
	})

	sess := session.New(ctx, session.Options{
		API:    api,
		Store:  kv,
		Jar:    jar,
		Logger: shared.WithLogger(r.logger, "component", "session"),
	})

	r.db = db
	r.store = kv
	r.jobs = repositories.NewJobRepository(db)
	r.assignments = repositories.NewVoiceAssignmentRepository(db)
	r.jar = jar
	r.api = api
	r.session = sess
	r.subs = tasks.NewSubscriptionCache(api, sess, shared.WithLogger(r.logger, "component", "subscription"))
	return nil
}

// before opens dependencies and shows the welcome banner on first use.
func (r *Runner) before(ctx context.Context, cmd *cli.Command) (context.Context, error) {
	if err := r.open(ctx); err != nil {
		return ctx, err
	}
	if !cmd.Bool("json") {
		r.showOnboarding(ctx)
	}
	return ctx, nil
}

// Close releases the database.
func (r *Runner) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.db == nil {
		return nil
	}
	err := r.db.Close()
	r.db = nil
	return err
}

func (r *Runner) workflowOptions(progress chan<- tasks.ProgressUpdate, kind string) tasks.Options {
	return tasks.Options{
		Tokens:    r.session,
		Store:     r.store,
		Interval:  r.config.API.PollInterval.Duration,
		Logger:    shared.WithLogger(r.logger, "job", kind),
		Refresher: r.subs,
		History:   r.jobs,
		Progress:  progress,
	}
}

func (r *Runner) formatWorkflow(progress chan<- tasks.ProgressUpdate) *tasks.FormatWorkflow {
	return tasks.NewFormatWorkflow(r.api, r.workflowOptions(progress, "format"))
}

func (r *Runner) audioWorkflow(progress chan<- tasks.ProgressUpdate) *tasks.AudioWorkflow {
	return tasks.NewAudioWorkflow(r.api, r.workflowOptions(progress, "audio"))
}

// token returns a valid access token or [shared.ErrNeedsSignIn].
func (r *Runner) token(ctx context.Context) (string, error) {
	return r.session.RequireToken(ctx)
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
