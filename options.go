package foodscope

import (
	"io"
	"log/slog"

	"github.com/foodscope/foodscope/infrastructure/provider"
	"github.com/foodscope/foodscope/internal/config"
)

// clientConfig holds configuration for Client construction. Defaults come
// from internal/config so that library and CLI users see the same behavior.
type clientConfig struct {
	appConfig     config.AppConfig
	configOptions []config.AppConfigOption

	textProvider      provider.TextGenerator
	embeddingProvider provider.Embedder
	logger            *slog.Logger
	closers           []io.Closer
	cacheEmbeddings   bool
}

func newClientConfig() *clientConfig {
	return &clientConfig{appConfig: config.NewAppConfig()}
}

// Option configures the Client.
type Option func(*clientConfig)

// WithConfig replaces the whole application configuration, typically one
// loaded from the environment.
func WithConfig(cfg config.AppConfig) Option {
	return func(c *clientConfig) {
		c.appConfig = cfg
	}
}

// WithDataDir sets the directory holding the database, index artifact, and
// model files.
func WithDataDir(dir string) Option {
	return func(c *clientConfig) {
		c.configOptions = append(c.configOptions, config.WithDataDir(dir))
	}
}

// WithDatabaseURL sets the database URL (sqlite:///path or postgres://...).
func WithDatabaseURL(url string) Option {
	return func(c *clientConfig) {
		c.configOptions = append(c.configOptions, config.WithDBURL(url))
	}
}

// WithIndexPath sets the index artifact path. Defaults to
// {dataDir}/index.json.
func WithIndexPath(path string) Option {
	return func(c *clientConfig) {
		c.configOptions = append(c.configOptions, config.WithIndexPath(path))
	}
}

// WithModelDir sets the directory holding local embedding model files.
// Defaults to {dataDir}/models.
func WithModelDir(dir string) Option {
	return func(c *clientConfig) {
		c.configOptions = append(c.configOptions, config.WithModelDir(dir))
	}
}

// WithTopK sets how many chunks ground each answer. Values <= 0 are
// ignored.
func WithTopK(k int) Option {
	return func(c *clientConfig) {
		c.configOptions = append(c.configOptions, config.WithTopK(k))
	}
}

// WithTextProvider sets a custom text generation provider.
func WithTextProvider(p provider.TextGenerator) Option {
	return func(c *clientConfig) {
		c.textProvider = p
	}
}

// WithEmbeddingProvider sets a custom embedding provider.
func WithEmbeddingProvider(p provider.Embedder) Option {
	return func(c *clientConfig) {
		c.embeddingProvider = p
	}
}

// WithEmbeddingCache caches remote embedding HTTP responses on disk under
// {dataDir}/cache, so rebuilding an unchanged corpus does not re-bill the
// API. Only applies when the embedding provider is built from the
// configured remote endpoint.
func WithEmbeddingCache() Option {
	return func(c *clientConfig) {
		c.cacheEmbeddings = true
	}
}

// WithLogger sets a custom logger.
func WithLogger(l *slog.Logger) Option {
	return func(c *clientConfig) {
		c.logger = l
	}
}

// WithCloser registers a resource to be closed when the Client shuts down.
func WithCloser(closer io.Closer) Option {
	return func(c *clientConfig) {
		c.closers = append(c.closers, closer)
	}
}
