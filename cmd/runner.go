package main

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/charmbracelet/log"
	"github.com/urfave/cli/v3"

	"github.com/desertthunder/setlist/internal/models"
	"github.com/desertthunder/setlist/internal/repositories"
	"github.com/desertthunder/setlist/internal/services"
	"github.com/desertthunder/setlist/internal/shared"
	"github.com/desertthunder/setlist/internal/tasks"
)

// Runner holds all dependencies for CLI commands and provides methods for each command action.
//
// The local database, engine and accounts are opened on first use so commands that never touch them
// (setup config, serve, api) work without a writable database.
type Runner struct {
	config     *shared.Config
	configPath string
	api        *services.APIService
	store      services.Store
	httpClient *http.Client
	logger     *log.Logger
	output     io.Writer
	now        func() time.Time

	db       *sql.DB
	engine   *tasks.Engine
	accounts *tasks.Accounts
}

// RunnerOpts contains configuration options for creating a Runner.
type RunnerOpts struct {
	Config     *shared.Config
	ConfigPath string
	API        *services.APIService
	Store      services.Store // defaults to a sheet client over API
	HTTPClient *http.Client
	Logger     *log.Logger
	Output     io.Writer
	DB         *sql.DB // already migrated; opened from the config when nil
	Now        func() time.Time
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
	if opts.HTTPClient == nil {
		opts.HTTPClient = &http.Client{Timeout: opts.Config.Endpoint.Timeout()}
	}
	if opts.API == nil {
		opts.API = services.NewAPIService(opts.Config.Endpoint.URL, opts.HTTPClient)
	}
	if opts.Store == nil {
		opts.Store = services.NewSheetService(opts.API)
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	return &Runner{
		config:     opts.Config,
		configPath: opts.ConfigPath,
		api:        opts.API,
		store:      opts.Store,
		httpClient: opts.HTTPClient,
		logger:     opts.Logger,
		output:     opts.Output,
		now:        opts.Now,
		db:         opts.DB,
	}
}

// SetLogger replaces the logger used by the runner and every service it opens afterwards.
func (r *Runner) SetLogger(logger *log.Logger) {
	r.logger = logger
}

// configure resolves the config named by the --config flag, applies environment overrides and
// rebuilds the endpoint client. It runs before every command.
func (r *Runner) configure(ctx context.Context, cmd *cli.Command) (context.Context, error) {
	path := cmd.String("config")
	config, err := shared.ResolveConfig(path)
	if err != nil {
		return ctx, err
	}
	if err := config.Validate(); err != nil {
		return ctx, err
	}

	level := shared.ParseLogLevel(config.Log.Level)
	if cmd.Bool("verbose") {
		level = log.DebugLevel
	}
	shared.SetLogLevel(r.logger, level)

	r.config = config
	r.configPath = path
	r.httpClient = &http.Client{Timeout: config.Endpoint.Timeout()}
	r.api = services.NewAPIService(config.Endpoint.URL, r.httpClient)
	r.store = services.NewSheetService(r.api)

	r.logger.Debug("config resolved", "path", path, "endpoint", config.Endpoint.URL)
	return ctx, nil
}

// rules returns the input limits from the config.
func (r *Runner) rules() models.Rules {
	b := r.config.Bookings
	rules := models.Rules{MaxSongs: b.MaxSongs, PhoneLength: b.PhoneLength, MinPasswordLength: b.MinPasswordLength}
	if rules == (models.Rules{}) {
		return models.DefaultRules()
	}
	return rules
}

// open wires the local database, the engine and the account service.
func (r *Runner) open() error {
	if r.engine != nil {
		return nil
	}

	if r.db == nil {
		r.logger.Debug("opening database", "path", r.config.Database.Path)
		db, err := shared.OpenDatabase(r.config.Database)
		if err != nil {
			return err
		}
		r.db = db
	}

	cache := repositories.NewBookingCache(r.db)
	prefs := repositories.NewPreferenceRepository(r.db)

	var welcome *tasks.Welcome
	if r.config.Welcome.Enabled {
		welcome = tasks.NewWelcome(prefs, r.config.Welcome, r.logger, r.now)
	}

	r.engine = tasks.NewEngine(tasks.EngineOptions{
		Store:   r.store,
		Cache:   cache,
		Archive: repositories.NewArchiveRepository(r.db),
		Welcome: welcome,
		Logger:  r.logger,
		Sync:    r.config.Sync,
		Rules:   r.rules(),
		Now:     r.now,
	})
	r.accounts = tasks.NewAccounts(tasks.AccountsOptions{
		Store:       r.store,
		Prefs:       prefs,
		Cache:       cache,
		Engine:      r.engine,
		Admin:       r.config.Admin,
		Rules:       r.rules(),
		MaxAttempts: r.config.Bookings.MaxLoginAttempts,
		Logger:      r.logger,
	})
	return nil
}

// Close releases the local database.
func (r *Runner) Close() error {
	if r.db == nil {
		return nil
	}
	err := r.db.Close()
	r.db = nil
	r.engine = nil
	r.accounts = nil
	return err
}

// session opens the runner and restores the persisted identity.
func (r *Runner) session() (models.Identity, error) {
	if err := r.open(); err != nil {
		return models.Identity{}, err
	}

	identity, err := r.accounts.Restore()
	if errors.Is(err, shared.ErrNotAuthenticated) {
		return models.Identity{}, fmt.Errorf("%w: run 'setlist login' first", shared.ErrNotAuthenticated)
	}
	return identity, err
}

// sync restores the session and runs one reconciliation pass. Cached bookings are loaded first
// so a failed fetch still leaves something to show.
func (r *Runner) sync(ctx context.Context) (*tasks.SyncResult, error) {
	if _, err := r.session(); err != nil {
		return nil, err
	}
	if _, err := r.engine.Load(); err != nil {
		r.logger.Warn("failed to load cached bookings", "error", err)
	}

	result, err := r.engine.Sync(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to sync bookings: %w", err)
	}
	return result, nil
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
