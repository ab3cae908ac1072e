package app

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/dori/tabshelf/internal/browser"
	"github.com/dori/tabshelf/internal/config"
	"github.com/dori/tabshelf/internal/db"
	"github.com/dori/tabshelf/internal/layout"
	"github.com/dori/tabshelf/internal/notify"
	"github.com/gofrs/flock"
	"github.com/sirupsen/logrus"
)

// connectTimeout bounds the devtools handshake at startup
const connectTimeout = 2 * time.Second

// App holds the application state and dependencies. It is created once per
// process and passed to everything that needs the store.
type App struct {
	Config   config.Config
	Loader   *config.Loader
	Log      *logrus.Logger
	DB       *db.DB
	Layout   *layout.Cache
	Browser  browser.Controller
	Relay    *browser.Relay
	Notifier *notify.Notifier
	DataDir  string

	lockFile *flock.Flock
	logFile  *os.File
	closers  []func() error

	mu       sync.Mutex
	onReload []func(config.Config)
}

// Options selects which parts of the app to start
type Options struct {
	// ConfigDir overrides the config directory
	ConfigDir string
	// Interactive takes the single-instance lock and opens the layout cache
	Interactive bool
	// Browser connects to the configured devtools endpoint
	Browser bool
}

// New creates a new application instance
func New(opts Options) (*App, error) {
	loader := config.NewLoader(opts.ConfigDir)
	cfg, err := loader.Load()
	if err != nil {
		return nil, err
	}

	// Ensure data directory exists
	if err := os.MkdirAll(cfg.DataDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	a := &App{
		Config:   cfg,
		Loader:   loader,
		DataDir:  cfg.DataDir,
		Notifier: notify.NewNotifier(),
	}
	a.Notifier.SetEnabled(cfg.Notifications)

	if err := a.setupLogging(); err != nil {
		return nil, err
	}

	if opts.Interactive {
		// Acquire lock to ensure single instance
		if err := a.acquireLock(); err != nil {
			a.Close()
			return nil, err
		}
	}

	database, err := db.Open(cfg.DBPath, a.Log)
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	a.DB = database
	a.closers = append(a.closers, database.Close)

	if opts.Interactive {
		cache, err := layout.Open(cfg.LayoutDir, a.Log)
		if err != nil {
			a.Close()
			return nil, err
		}
		a.Layout = cache
		a.closers = append(a.closers, cache.Close)
	}

	if opts.Browser && cfg.Browser.DebuggerURL != "" {
		a.connectBrowser()
	}

	if opts.Interactive {
		if _, err := os.Stat(loader.ConfigFile()); err == nil {
			loader.Watch(a.Log, a.applyConfig)
		}
	}

	return a, nil
}

// setupLogging sends logs to a file since stdout belongs to the TUI
func (a *App) setupLogging() error {
	f, err := os.OpenFile(a.Config.LogPath(), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return fmt.Errorf("failed to open log file: %w", err)
	}
	a.logFile = f

	a.Log = logrus.New()
	a.Log.SetOutput(f)
	a.Log.SetFormatter(&logrus.JSONFormatter{})
	a.Log.SetLevel(a.Config.Level())
	return nil
}

func (a *App) connectBrowser() {
	ctx, cancel := context.WithTimeout(context.Background(), connectTimeout)
	defer cancel()

	ctl, err := browser.Connect(ctx, a.Config.Browser.DebuggerURL, a.Log)
	if err != nil {
		a.Log.WithError(err).Warn("browser control unavailable")
		return
	}
	a.Browser = ctl
	a.Relay = browser.NewRelay(ctl, a.Config.Browser.SettleDelay, a.Log)
	a.closers = append(a.closers, func() error {
		a.Relay.Close()
		return ctl.Close()
	})
}

// OnReload registers fn to run after the config file changes
func (a *App) OnReload(fn func(config.Config)) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.onReload = append(a.onReload, fn)
}

func (a *App) applyConfig(cfg config.Config) {
	a.Log.SetLevel(cfg.Level())
	a.Notifier.SetEnabled(cfg.Notifications)

	a.mu.Lock()
	a.Config = cfg
	hooks := append([]func(config.Config){}, a.onReload...)
	a.mu.Unlock()

	for _, fn := range hooks {
		fn(cfg)
	}
}

// Component returns a logger tagged with a component name
func (a *App) Component(name string) logrus.FieldLogger {
	return a.Log.WithField("component", name)
}

// acquireLock acquires an exclusive file lock to prevent multiple instances
func (a *App) acquireLock() error {
	lockPath := filepath.Join(a.DataDir, "tabshelf.lock")
	a.lockFile = flock.New(lockPath)

	locked, err := a.lockFile.TryLock()
	if err != nil {
		return fmt.Errorf("failed to acquire lock: %w", err)
	}

	if !locked {
		return fmt.Errorf("another instance of tabshelf is already running")
	}

	return nil
}

// releaseLock releases the file lock
func (a *App) releaseLock() {
	if a.lockFile != nil {
		a.lockFile.Unlock()
	}
}

// Close cleans up application resources in reverse order of creation
func (a *App) Close() error {
	var errs []error

	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil

	a.releaseLock()

	if a.logFile != nil {
		a.logFile.Close()
	}

	if len(errs) > 0 {
		return errs[0]
	}
	return nil
}
