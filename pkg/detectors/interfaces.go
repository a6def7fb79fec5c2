package detectors

import (
	"context"

	"github.com/nestlogic/forum-sentinel/internal/domain"
	"github.com/nestlogic/forum-sentinel/pkg/httpclient"
)

// Detector is a provider-specific moderation strategy. Concrete
// implementations live in provider-specific files (e.g., akismet.go).
//
// PrepareRequest is a pure mapping from a content record to the provider
// request shape and may fail with a domain.MappingError when a
// provider-mandated field is absent. Evaluate performs the remote call.
// Normalize maps the raw provider response to canonical results; a single
// call may yield zero, one, or several results.
type Detector interface {
	ID() string
	PrepareRequest(record domain.ContentRecord) (Request, error)
	Evaluate(ctx context.Context, req Request) (RawResponse, error)
	Normalize(raw RawResponse) ([]domain.DetectionResult, error)
}

// Request is an ephemeral provider-shaped payload built fresh per invocation.
// It is never persisted.
type Request interface {
	DetectorID() string
}

// RawResponse carries the unnormalized provider response between Evaluate
// and Normalize.
type RawResponse interface {
	DetectorID() string
}

// HTTPClient aliases the shared httpclient.Client interface for clarity within detectors.
type HTTPClient = httpclient.Client
