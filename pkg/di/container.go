package di

import (
	"github.com/goliatone/go-directory-cache/cache"
	"github.com/goliatone/go-directory-cache/client"
	"github.com/goliatone/go-directory-cache/directory"
	"github.com/goliatone/go-directory-cache/internal/cacheinfra"
	"github.com/goliatone/go-directory-cache/store"
)

// Config aggregates the per-package configurations the container wires
// together.
type Config struct {
	Client client.Config
	Store  store.Config
	Cache  cacheinfra.Config
}

// DefaultConfig returns a Config with every section at its defaults;
// Client.BaseURL must still be set by the caller.
func DefaultConfig(baseURL string) Config {
	clientCfg := client.DefaultConfig()
	clientCfg.BaseURL = baseURL
	return Config{
		Client: clientCfg,
		Store:  store.DefaultConfig(),
		Cache:  cacheinfra.DefaultConfig(),
	}
}

// Container provides dependency injection for the directory cache: it owns
// singleton instances of the store, the HTTP client, the cache service, and
// the directory service built on top of them.
type Container struct {
	cacheService  cache.CacheService
	keySerializer cache.KeySerializer
	store         *store.Store
	client        *client.Client
	service       *directory.Service
	config        Config
}

// NewContainer builds the full dependency graph from the provided
// configuration.
func NewContainer(cfg Config) (*Container, error) {
	cacheService, err := cacheinfra.NewSturdycService(cfg.Cache)
	if err != nil {
		return nil, err
	}

	apiClient, err := client.New(cfg.Client)
	if err != nil {
		return nil, err
	}

	st := store.New(cfg.Store)
	keySerializer := cache.NewDefaultKeySerializer()
	service := directory.New(apiClient, st, cacheService, keySerializer)

	return &Container{
		cacheService:  cacheService,
		keySerializer: keySerializer,
		store:         st,
		client:        apiClient,
		service:       service,
		config:        cfg,
	}, nil
}

// NewContainerWithDefaults builds a container against the given base URL
// with every other setting at its defaults.
func NewContainerWithDefaults(baseURL string) (*Container, error) {
	return NewContainer(DefaultConfig(baseURL))
}

// Service returns the directory service instance.
func (c *Container) Service() *directory.Service { return c.service }

// Store returns the relational store instance.
func (c *Container) Store() *store.Store { return c.store }

// Client returns the HTTP API client instance.
func (c *Container) Client() *client.Client { return c.client }

// CacheService returns the singleton cache service instance.
func (c *Container) CacheService() cache.CacheService { return c.cacheService }

// KeySerializer returns the singleton key serializer instance.
func (c *Container) KeySerializer() cache.KeySerializer { return c.keySerializer }

// Config returns a copy of the configuration used by this container.
func (c *Container) Config() Config { return c.config }
