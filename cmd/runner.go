package main

import (
	"bufio"
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/maestro/internal/auth"
	"github.com/desertthunder/maestro/internal/models"
	"github.com/desertthunder/maestro/internal/repositories"
	"github.com/desertthunder/maestro/internal/services"
	"github.com/desertthunder/maestro/internal/shared"
	"github.com/desertthunder/maestro/internal/store"
	"github.com/desertthunder/maestro/internal/tasks"
	"github.com/desertthunder/maestro/internal/wizard"
	"github.com/redis/go-redis/v9"
	"github.com/urfave/cli/v3"
	"golang.org/x/oauth2"
)

// Runner holds all dependencies for CLI commands and provides methods for each command action.
//
// Storage, accounts and remote services are opened on first use so that commands like
// `setup config` work before a database or credentials exist.
type Runner struct {
	configPath string
	config     *shared.Config
	db         *sql.DB
	notifier   store.Notifier
	curator    services.Curator
	spotify    services.Service
	httpClient *http.Client
	logger     *log.Logger
	output     io.Writer
	input      *bufio.Reader

	store    *store.Store
	accounts *auth.Accounts
	engine   *tasks.PlaylistEngine
	closers  []func() error
}

// RunnerOpts contains configuration options for creating a Runner.
type RunnerOpts struct {
	ConfigPath string
	Config     *shared.Config
	DB         *sql.DB
	Notifier   store.Notifier
	Curator    services.Curator
	Spotify    services.Service
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
		opts.HTTPClient = http.DefaultClient
	}

	return &Runner{
		configPath: opts.ConfigPath,
		config:     opts.Config,
		db:         opts.DB,
		notifier:   opts.Notifier,
		curator:    opts.Curator,
		spotify:    opts.Spotify,
		httpClient: opts.HTTPClient,
		logger:     opts.Logger,
		output:     opts.Output,
		input:      bufio.NewReader(opts.Input),
	}
}

func (r *Runner) register() []*cli.Command {
	commands := []*cli.Command{}
	for _, fn := range [](func(*Runner) *cli.Command){
		setupCommand, authCommand, playlistsCommand, ideasCommand, spotifyCommand, cacheCommand, serveCommand, tuiCommand,
	} {
		commands = append(commands, fn(r))
	}

	return commands
}

// Init is the root Before hook: it applies --verbose and loads --config when the file exists.
func (r *Runner) Init(ctx context.Context, cmd *cli.Command) (context.Context, error) {
	if cmd.Bool("verbose") {
		shared.SetLogLevel(r.logger, log.DebugLevel)
	}

	path := cmd.String("config")
	if path == "" {
		return ctx, nil
	}
	r.configPath = path

	if _, err := os.Stat(path); err != nil {
		r.logger.Debug("config file not found, using defaults", "path", path)
		r.config.ApplyEnv()
		return ctx, nil
	}

	config, err := shared.LoadConfig(path)
	if err != nil {
		r.logger.Warn("failed to load config, using defaults", "error", err)
		return ctx, nil
	}
	r.config = config
	return ctx, nil
}

// Close releases whatever the command opened. It is the root After hook.
func (r *Runner) Close(ctx context.Context, cmd *cli.Command) error {
	var errs []error
	for i := len(r.closers) - 1; i >= 0; i-- {
		errs = append(errs, r.closers[i]())
	}
	r.closers = nil
	return errors.Join(errs...)
}

// SetLogger replaces the logger used by the runner and everything it opens afterwards.
func (r *Runner) SetLogger(logger *log.Logger) {
	r.logger = logger
}

func (r *Runner) database() (*sql.DB, error) {
	if r.db != nil {
		return r.db, nil
	}

	cfg := r.config.Database
	db, err := cfg.Open()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrPersistence, err)
	}

	if err := shared.RunMigrations(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("%w: %v", shared.ErrPersistence, err)
	}

	r.logger.Debug("database opened", "path", cfg.Path)
	r.db = db
	r.closers = append(r.closers, func() error {
		r.db, r.store, r.accounts, r.engine = nil, nil, nil, nil
		return db.Close()
	})
	return db, nil
}

// changeNotifier returns the redis notifier when [redis] addr is set, else an in-process one.
func (r *Runner) changeNotifier(ctx context.Context) (store.Notifier, error) {
	if r.notifier != nil {
		return r.notifier, nil
	}

	cfg := r.config.Redis
	if cfg.Addr == "" {
		r.notifier = store.NewLocalNotifier()
		return r.notifier, nil
	}

	client := redis.NewClient(&redis.Options{Addr: cfg.Addr, Password: cfg.Password, DB: cfg.DB})
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("%w: redis at %s: %v", shared.ErrServiceUnavailable, cfg.Addr, err)
	}

	r.logger.Debug("redis notifier connected", "addr", cfg.Addr)
	r.closers = append(r.closers, func() error {
		r.notifier, r.store = nil, nil
		return client.Close()
	})
	r.notifier = store.NewRedisNotifier(client, cfg.ChannelPrefix, r.logger)
	return r.notifier, nil
}

func (r *Runner) playlistStore(ctx context.Context) (*store.Store, error) {
	if r.store != nil {
		return r.store, nil
	}

	db, err := r.database()
	if err != nil {
		return nil, err
	}
	notifier, err := r.changeNotifier(ctx)
	if err != nil {
		return nil, err
	}

	r.store = store.New(repositories.NewPlaylistRepository(db), notifier, r.logger)
	return r.store, nil
}

func (r *Runner) userAccounts() (*auth.Accounts, error) {
	if r.accounts != nil {
		return r.accounts, nil
	}

	db, err := r.database()
	if err != nil {
		return nil, err
	}
	r.accounts = auth.NewAccounts(repositories.NewUserRepository(db), r.config.App.ID, r.logger)
	return r.accounts, nil
}

func (r *Runner) sessions() *auth.SessionStore {
	return auth.NewSessionStore(r.config.App.SessionPath)
}

func (r *Runner) requireSession() (models.Session, error) {
	return auth.RequireSession(r.sessions())
}

// generator returns the configured curator, or nil when no Gemini API key is set. The wizard
// reports a nil curator as a configuration error on the first generative action.
func (r *Runner) generator() services.Curator {
	if r.curator != nil {
		return r.curator
	}
	cfg := r.config.Credentials.Gemini
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil
	}
	r.curator = services.NewGeminiServiceFromConfig(cfg, r.logger, services.WithHTTPClient(r.httpClient))
	return r.curator
}

// publisher returns a Spotify publish engine, or nil when no Spotify token is stored.
func (r *Runner) publisher(ctx context.Context) (tasks.Publisher, error) {
	if r.engine != nil {
		return r.engine, nil
	}

	svc := r.spotify
	if svc == nil {
		creds := r.config.Credentials.Spotify
		if creds.AccessToken == "" {
			return nil, nil
		}
		spotify, err := services.NewSpotifyService(creds.Map())
		if err != nil {
			return nil, err
		}
		spotify.SetTokenRefreshCallback(func(token *oauth2.Token) {
			if err := r.saveTokens(token); err != nil {
				r.logger.Warn("failed to persist refreshed spotify token", "error", err)
			}
		})
		if err := spotify.Authenticate(ctx, creds.Map()); err != nil {
			return nil, err
		}
		svc = spotify
	}

	db, err := r.database()
	if err != nil {
		return nil, err
	}

	cache := repositories.NewTrackCacheAdapter(repositories.NewTrackRepository(db))
	r.engine = tasks.NewPlaylistEngine(svc, tasks.WithTrackCache(cache), tasks.WithLogger(r.logger))
	r.spotify = svc
	return r.engine, nil
}

// newWizard assembles a wizard. With nil notices it is headless: its notices outlive any
// command and are printed with [Runner.writeNotices].
func (r *Runner) newWizard(ctx context.Context, withPublisher bool, notices *wizard.Notices) (*wizard.Wizard, error) {
	if notices == nil {
		notices = wizard.NewNotices(time.Hour, time.Hour)
	}
	s, err := r.playlistStore(ctx)
	if err != nil {
		return nil, err
	}
	db, err := r.database()
	if err != nil {
		return nil, err
	}

	deps := wizard.Deps{
		Curator:   r.generator(),
		Store:     s,
		Publishes: repositories.NewPublishRepository(db),
		Notices:   notices,
		Logger:    r.logger,
	}
	if withPublisher {
		publisher, err := r.publisher(ctx)
		if err != nil {
			return nil, err
		}
		if publisher != nil {
			deps.Publisher = publisher
		}
	}
	return wizard.New(deps), nil
}

// saveTokens stores token in the Spotify credentials and writes the config file when a
// config path is known.
func (r *Runner) saveTokens(token *oauth2.Token) error {
	if r.config == nil {
		return fmt.Errorf("%w: config is nil", shared.ErrMissingConfig)
	}
	if err := r.config.Credentials.Spotify.Update(token); err != nil {
		return fmt.Errorf("failed to update spotify configuration: %w", err)
	}
	if r.configPath == "" {
		return nil
	}
	if err := shared.SaveConfig(r.configPath, r.config); err != nil {
		return fmt.Errorf("failed to save config: %w", err)
	}
	return nil
}

// confirm asks a yes/no question on the output and reads the answer from the input.
func (r *Runner) confirm(question string) (bool, error) {
	if err := r.writePlain("%s [y/N]: ", question); err != nil {
		return false, err
	}
	answer, err := r.input.ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return false, fmt.Errorf("failed to read answer: %w", err)
	}
	switch strings.ToLower(strings.TrimSpace(answer)) {
	case "y", "yes":
		return true, nil
	default:
		return false, nil
	}
}

// prompt reads one line from the input after printing label.
func (r *Runner) prompt(label string) (string, error) {
	if err := r.writePlain("%s: ", label); err != nil {
		return "", err
	}
	line, err := r.input.ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("failed to read input: %w", err)
	}
	return strings.TrimSpace(line), nil
}

// writeNotices prints every active notice, errors marked with ✗.
func (r *Runner) writeNotices(notices *wizard.Notices) {
	for _, n := range notices.Active() {
		mark := "✓"
		if n.Kind == wizard.Failure {
			mark = "✗"
		}
		r.writePlain("%s %s\n", mark, n.Message)
	}
	notices.Clear()
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
