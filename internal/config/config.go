package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/dori/tabshelf/internal/db"
	"github.com/fsnotify/fsnotify"
	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment override, e.g. TABSHELF_LOG_LEVEL
const EnvPrefix = "TABSHELF"

// Config holds all configuration for the application.
// Values are read by viper from config.yaml or TABSHELF_* variables.
type Config struct {
	DataDir       string        `mapstructure:"data_dir"`
	DBPath        string        `mapstructure:"db_path"`
	LayoutDir     string        `mapstructure:"layout_dir"`
	LogLevel      string        `mapstructure:"log_level"`
	Theme         string        `mapstructure:"theme"`
	Notifications bool          `mapstructure:"notifications"`
	Browser       BrowserConfig `mapstructure:"browser"`
}

// BrowserConfig configures the devtools connection
type BrowserConfig struct {
	// DebuggerURL is the remote debugging address; empty disables browser control
	DebuggerURL string        `mapstructure:"debugger_url"`
	SettleDelay time.Duration `mapstructure:"settle_delay"`
}

// Level returns the parsed log level
func (c Config) Level() logrus.Level {
	lvl, err := logrus.ParseLevel(c.LogLevel)
	if err != nil {
		return logrus.InfoLevel
	}
	return lvl
}

// LogPath returns the log file location
func (c Config) LogPath() string {
	return filepath.Join(c.DataDir, "tabshelf.log")
}

// DefaultConfigDir returns ~/.config/tabshelf or the platform equivalent
func DefaultConfigDir() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ".tabshelf"
	}
	return filepath.Join(dir, "tabshelf")
}

// Loader reads configuration and reloads it when the file changes
type Loader struct {
	v   *viper.Viper
	dir string

	mu      sync.Mutex
	current Config
}

// NewLoader creates a loader that looks for config.yaml in dir
func NewLoader(dir string) *Loader {
	if dir == "" {
		dir = DefaultConfigDir()
	}

	v := viper.New()
	v.AddConfigPath(dir)
	v.SetConfigName("config")
	v.SetConfigType("yaml")

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("data_dir", db.DefaultDataDir())
	v.SetDefault("db_path", "")
	v.SetDefault("layout_dir", "")
	v.SetDefault("log_level", "info")
	v.SetDefault("theme", "nord")
	v.SetDefault("notifications", true)
	v.SetDefault("browser.debugger_url", "http://127.0.0.1:9222")
	v.SetDefault("browser.settle_delay", "100ms")

	return &Loader{v: v, dir: dir}
}

// Load reads the config file if present, applies env overrides and fills
// derived paths
func (l *Loader) Load() (Config, error) {
	if err := l.v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return Config{}, fmt.Errorf("error reading config file: %w", err)
		}
	}
	cfg, err := l.decode()
	if err != nil {
		return Config{}, err
	}

	l.mu.Lock()
	l.current = cfg
	l.mu.Unlock()
	return cfg, nil
}

func (l *Loader) decode() (Config, error) {
	var cfg Config
	if err := l.v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unable to decode into struct: %w", err)
	}

	if cfg.DataDir == "" {
		cfg.DataDir = db.DefaultDataDir()
	}
	if cfg.DBPath == "" {
		cfg.DBPath = filepath.Join(cfg.DataDir, "tabshelf.db")
	}
	if cfg.LayoutDir == "" {
		cfg.LayoutDir = filepath.Join(cfg.DataDir, "layout")
	}

	if _, err := logrus.ParseLevel(cfg.LogLevel); err != nil {
		return Config{}, fmt.Errorf("invalid log_level %q: %w", cfg.LogLevel, err)
	}
	if cfg.Browser.SettleDelay < 0 {
		return Config{}, fmt.Errorf("browser.settle_delay must not be negative")
	}
	return cfg, nil
}

// Current returns the most recently loaded configuration
func (l *Loader) Current() Config {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.current
}

// ConfigFile returns the file viper read, or where it would be written
func (l *Loader) ConfigFile() string {
	if f := l.v.ConfigFileUsed(); f != "" {
		return f
	}
	return filepath.Join(l.dir, "config.yaml")
}

// Watch calls onChange with the new configuration whenever the file changes.
// Invalid edits are logged and ignored. Watch requires an existing file.
func (l *Loader) Watch(log logrus.FieldLogger, onChange func(Config)) {
	l.v.OnConfigChange(func(e fsnotify.Event) {
		cfg, err := l.decode()
		if err != nil {
			log.WithError(err).WithField("file", e.Name).Warn("ignoring invalid config change")
			return
		}
		l.mu.Lock()
		l.current = cfg
		l.mu.Unlock()

		log.WithField("file", e.Name).Info("config reloaded")
		onChange(cfg)
	})
	l.v.WatchConfig()
}

// WriteDefault writes the current settings to the config file if none exists
func (l *Loader) WriteDefault() (string, error) {
	path := filepath.Join(l.dir, "config.yaml")
	if err := os.MkdirAll(l.dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create config directory: %w", err)
	}
	if err := l.v.SafeWriteConfigAs(path); err != nil {
		var exists viper.ConfigFileAlreadyExistsError
		if errors.As(err, &exists) {
			return path, nil
		}
		return "", fmt.Errorf("failed to write config: %w", err)
	}
	return path, nil
}
