package capkit

import "log/slog"

// RegistryOption configures a Registry.
type RegistryOption func(*registryConfig)

type registryConfig struct {
	logger      *slog.Logger
	middlewares []Middleware
}

func defaultRegistryConfig() registryConfig {
	return registryConfig{
		logger: slog.Default(),
	}
}

// WithLogger sets the logger used for registration and dispatch events.
func WithLogger(logger *slog.Logger) RegistryOption {
	return func(c *registryConfig) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithMiddleware appends middleware applied to every invocation.
// Middleware executes in FIFO order: the first registered is the outermost.
func WithMiddleware(mw ...Middleware) RegistryOption {
	return func(c *registryConfig) {
		c.middlewares = append(c.middlewares, mw...)
	}
}
