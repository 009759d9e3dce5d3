package application

import (
	"log/slog"
	"time"
)

// Option configures optional service collaborators.
type Option func(*serviceOptions)

type serviceOptions struct {
	logger    *slog.Logger
	publisher EventPublisher
	location  *time.Location
	cache     *ListCache
}

// WithLogger sets the base logger. A logger stored in the request context takes precedence.
func WithLogger(logger *slog.Logger) Option {
	return func(o *serviceOptions) { o.logger = logger }
}

// WithPublisher sets the observer bus notified after each committed mutation.
func WithPublisher(publisher EventPublisher) Option {
	return func(o *serviceOptions) { o.publisher = publisher }
}

// WithLocation sets the time zone used to interpret dates and times of day.
func WithLocation(location *time.Location) Option {
	return func(o *serviceOptions) { o.location = location }
}

// WithListCache enables list caching. Share one cache between services so
// every mutation purges it.
func WithListCache(cache *ListCache) Option {
	return func(o *serviceOptions) { o.cache = cache }
}

func buildOptions(opts []Option) serviceOptions {
	options := serviceOptions{}
	for _, opt := range opts {
		if opt != nil {
			opt(&options)
		}
	}
	options.logger = defaultLogger(options.logger)
	if options.publisher == nil {
		options.publisher = noopPublisher{}
	}
	if options.location == nil {
		options.location = time.UTC
	}
	return options
}
