package app

import (
	"net/http"
	"os"

	"themis/internal/domain"
	"themis/internal/logger"
	"themis/internal/relay"
	identitysvc "themis/internal/services/identity"
	messagesvc "themis/internal/services/message"
	peersvc "themis/internal/services/peer"
	sessionsvc "themis/internal/services/session"
	"themis/internal/store"
)

// Wire bundles all stores, services, and clients for the CLI.
type Wire struct {
	Log      logger.Logger
	Keys     domain.KeyStore
	Peers    domain.PeerDirectory
	Relay    domain.RelayClient
	Identity domain.IdentityService
	PeerKeys domain.PeerService
	Sessions domain.SessionService
	Messages domain.MessageService
	HTTP     *http.Client
}

// NewWire constructs the dependency graph from cfg.
func NewWire(cfg *Config) (*Wire, error) {
	if err := os.MkdirAll(cfg.Home, 0o700); err != nil {
		return nil, err
	}
	log := logger.NewLogger(cfg.LogLevel)

	// File-based stores
	keyStore := store.NewKeyStore(cfg.Home,
		store.WithArgon2(cfg.Argon2.Time, cfg.Argon2.Memory, cfg.Argon2.Threads))
	directory, err := store.NewDirectory(cfg.Home, cfg.CacheSize)
	if err != nil {
		return nil, err
	}

	// Ensure an HTTP client is available for outbound calls
	httpClient := cfg.HTTP
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.RequestTimeout}
	}
	rc := relay.NewHTTP(cfg.RelayURL, httpClient)

	// High-level services
	return &Wire{
		Log:      log,
		Keys:     keyStore,
		Peers:    directory,
		Relay:    rc,
		Identity: identitysvc.New(keyStore),
		PeerKeys: peersvc.New(keyStore, directory, rc),
		Sessions: sessionsvc.New(keyStore, directory, rc, log, cfg.Poll),
		Messages: messagesvc.New(keyStore, directory),
		HTTP:     httpClient,
	}, nil
}
