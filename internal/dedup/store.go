package dedup

import (
	"fmt"
	"strings"
	"time"
)

// Package dedup provides the optional seen-notification store. When disabled
// (the default) every notification is processed, including repeats for the
// same content id.

// Store tracks recently processed content ids.
type Store interface {
	Close() error
	SeenContent(id int64) (bool, error)
	MarkContent(id int64) error
}

// Options controls retention characteristics for concrete store implementations.
type Options struct {
	ContentTTL      time.Duration
	CleanupInterval time.Duration
}

const (
	defaultContentTTL      = 1 * time.Hour
	defaultCleanupInterval = 12 * time.Hour
)

// NewStore creates the configured dedup backend.
func NewStore(typ, path string, opts Options) (Store, error) {
	typ = strings.TrimSpace(strings.ToLower(typ))
	opts = normalizeOptions(opts)

	switch typ {
	case "", "none", "disabled":
		return noopStore{}, nil
	case "bbolt":
		if strings.TrimSpace(path) == "" {
			return nil, fmt.Errorf("bbolt dedup store requires a path")
		}
		return openBolt(path, opts)
	default:
		return nil, fmt.Errorf("unsupported dedup store type %q", typ)
	}
}

func normalizeOptions(opts Options) Options {
	if opts.ContentTTL <= 0 {
		opts.ContentTTL = defaultContentTTL
	}
	if opts.CleanupInterval <= 0 {
		opts.CleanupInterval = defaultCleanupInterval
	}
	return opts
}

type noopStore struct{}

func (noopStore) Close() error                    { return nil }
func (noopStore) SeenContent(int64) (bool, error) { return false, nil }
func (noopStore) MarkContent(int64) error         { return nil }
