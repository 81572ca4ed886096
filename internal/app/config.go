package app

import (
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"

	"themis/internal/crypto"
	"themis/internal/logger"
	"themis/internal/relay"
	"themis/internal/store"
)

const (
	// EnvPrefix prefixes environment overrides, e.g. THEMIS_RELAY_URL.
	EnvPrefix = "themis"

	defaultHomeDir        = ".themis"
	defaultRelayURL       = "http://127.0.0.1:8080"
	defaultLogLevel       = "info"
	defaultRequestTimeout = 10 * time.Second
	defaultListen         = ":8080"
	defaultMaxQueue       = 1024
)

// Config holds runtime wiring options for building the app.
type Config struct {
	Home           string        // config directory, e.g. $HOME/.themis
	RelayURL       string        // relay base URL, e.g. http://127.0.0.1:8080
	LogLevel       uint32        // logrus level
	CacheSize      int           // peer keys kept in memory
	Argon2         crypto.Argon2Params
	Poll           time.Duration // mailbox poll interval
	RequestTimeout time.Duration // per relay request
	HTTP           *http.Client  // optional; built from RequestTimeout when nil

	// Relay server settings.
	Listen   string
	MaxQueue int
}

// NewDefaultConfig creates a new Config with default settings.
func NewDefaultConfig() *Config {
	lvl, _ := logger.ParseLevel(defaultLogLevel)
	return &Config{
		Home:           defaultHome(),
		RelayURL:       defaultRelayURL,
		LogLevel:       lvl,
		CacheSize:      store.DefaultCacheSize,
		Argon2:         crypto.DefaultArgon2(),
		Poll:           relay.DefaultPollInterval,
		RequestTimeout: defaultRequestTimeout,
		Listen:         defaultListen,
		MaxQueue:       defaultMaxQueue,
	}
}

func defaultHome() string {
	dir, err := os.UserHomeDir()
	if err != nil {
		return defaultHomeDir
	}
	return filepath.Join(dir, defaultHomeDir)
}

func newViper() *viper.Viper {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

// NewConfig creates a new Config with default settings and applies any
// settings from the given YAML file and the THEMIS_* environment. An empty
// configFile skips the file; a named file that does not exist is an error.
func NewConfig(configFile string) (*Config, error) {
	config := NewDefaultConfig()
	v := newViper()

	v.SetDefault("home", config.Home)
	v.SetDefault("relay.url", config.RelayURL)
	v.SetDefault("log.level", defaultLogLevel)
	v.SetDefault("peers.cache.size", config.CacheSize)
	v.SetDefault("argon2.time", config.Argon2.Time)
	v.SetDefault("argon2.memory", config.Argon2.Memory)
	v.SetDefault("argon2.threads", config.Argon2.Threads)
	v.SetDefault("relay.poll", config.Poll.String())
	v.SetDefault("relay.timeout", config.RequestTimeout.String())
	v.SetDefault("listen", config.Listen)
	v.SetDefault("relay.max.queue", config.MaxQueue)

	if configFile != "" {
		v.SetConfigFile(configFile)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", configFile, err)
		}
	}

	config.Home = v.GetString("home")
	config.RelayURL = strings.TrimRight(v.GetString("relay.url"), "/")
	config.Listen = v.GetString("listen")

	level, err := logger.ParseLevel(v.GetString("log.level"))
	if err != nil {
		return nil, fmt.Errorf("invalid log.level setting %q", v.GetString("log.level"))
	}
	config.LogLevel = level

	if config.CacheSize = v.GetInt("peers.cache.size"); config.CacheSize <= 0 {
		return nil, fmt.Errorf("peers.cache.size must be positive, got %d", config.CacheSize)
	}
	if config.MaxQueue = v.GetInt("relay.max.queue"); config.MaxQueue <= 0 {
		return nil, fmt.Errorf("relay.max.queue must be positive, got %d", config.MaxQueue)
	}

	config.Argon2 = crypto.Argon2Params{
		Time:    v.GetUint32("argon2.time"),
		Memory:  v.GetUint32("argon2.memory"),
		Threads: uint8(v.GetUint("argon2.threads")),
	}
	if config.Argon2.Time == 0 || config.Argon2.Memory == 0 || config.Argon2.Threads == 0 {
		return nil, fmt.Errorf("argon2 time, memory and threads must all be positive")
	}

	if config.Poll, err = parseDuration(v, "relay.poll"); err != nil {
		return nil, err
	}
	if config.RequestTimeout, err = parseDuration(v, "relay.timeout"); err != nil {
		return nil, err
	}
	return config, nil
}

func parseDuration(v *viper.Viper, key string) (time.Duration, error) {
	d, err := time.ParseDuration(v.GetString(key))
	if err != nil {
		return 0, fmt.Errorf("invalid %s setting: %w", key, err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("%s must be positive, got %v", key, d)
	}
	return d, nil
}
