package main

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/spottyfi/internal/cache"
	"github.com/desertthunder/spottyfi/internal/session"
	"github.com/desertthunder/spottyfi/internal/shared"
	"github.com/urfave/cli/v3"
)

// Runner holds all dependencies for CLI commands and provides methods for each command action.
type Runner struct {
	config     *shared.Config
	configPath string
	session    *session.Session
	db         *sql.DB
	store      *cache.Store
	logger     *log.Logger
	output     io.Writer
}

// RunnerOpts contains configuration options for creating a Runner.
type RunnerOpts struct {
	Config     *shared.Config
	ConfigPath string
	Session    *session.Session
	Logger     *log.Logger
	Output     io.Writer
}

// NewRunner creates a new Runner with the provided configuration
func NewRunner(opts RunnerOpts) *Runner {
	if opts.Config == nil {
		opts.Config = shared.DefaultConfig()
	}
	if opts.ConfigPath == "" {
		opts.ConfigPath = "config.toml"
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	if opts.Output == nil {
		opts.Output = os.Stdout
	}

	return &Runner{
		config:     opts.Config,
		configPath: opts.ConfigPath,
		session:    opts.Session,
		logger:     opts.Logger,
		output:     opts.Output,
	}
}

func (r *Runner) register() []*cli.Command {
	commands := []*cli.Command{}
	for _, fn := range [](func(*Runner) *cli.Command){
		setupCommand, authCommand, profileCommand, searchCommand, browseCommand, tuiCommand,
	} {
		commands = append(commands, fn(r))
	}

	return commands
}

// SetLogger swaps the runner's logger, e.g. for file logging while the TUI
// owns the terminal.
func (r *Runner) SetLogger(l *log.Logger) {
	r.logger = l
}

// requireSession guards commands that need Spotify credentials.
func (r *Runner) requireSession() error {
	if r.session == nil {
		return fmt.Errorf("%w: set credentials.spotify.client_id in %s", shared.ErrMissingCredentials, r.configPath)
	}
	return nil
}

// ensureLogin makes sure the session is usable, running a silent or
// interactive login when it is not.
func (r *Runner) ensureLogin(ctx context.Context) error {
	if err := r.requireSession(); err != nil {
		return err
	}

	switch r.session.Status() {
	case session.StatusAuthenticated, session.StatusLoggingIn, session.StatusLoggedIn:
		return nil
	}

	if err := r.session.Login(ctx, false); err != nil {
		return err
	}
	r.applyEvents()
	return nil
}

// applyEvents drains pending session notifications, persisting refresh-token
// changes to the config file.
func (r *Runner) applyEvents() {
	if r.session == nil {
		return
	}

	for {
		select {
		case ev := <-r.session.Events():
			if ev.Kind != session.EventPersistToken {
				continue
			}
			if ev.Token == r.config.Credentials.Spotify.RefreshToken {
				continue
			}
			r.config.UpdateRefreshToken(ev.Token)
			if err := shared.SaveConfig(r.configPath, r.config); err != nil {
				r.logger.Warn("failed to persist refresh token", "error", err)
			}
		default:
			return
		}
	}
}

// openStore lazily opens the browse cache database.
func (r *Runner) openStore() (*cache.Store, error) {
	if r.store != nil {
		return r.store, nil
	}

	db, err := shared.NewDatabase(r.config.Database.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to open cache database: %w", err)
	}
	shared.ConfigureDatabase(db, r.config.Database.MaxOpenConns, r.config.Database.MaxIdleConns)

	if err := shared.RunMigrations(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	r.db = db
	r.store = cache.NewStore(db)
	return r.store, nil
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
