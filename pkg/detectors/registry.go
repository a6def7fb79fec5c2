package detectors

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/nestlogic/forum-sentinel/pkg/httpclient"
)

// Environment carries the shared collaborators every detector is built with.
type Environment struct {
	// BaseURL is the origin platform base URL used for permalink construction.
	BaseURL   string
	Overrides *Overrides
	Client    HTTPClient
	Log       Logger
}

// Builder creates a Detector from a config entry.
type Builder func(cfg DetectorConfig, env Environment) (Detector, error)

// Registry maps detector types to builders.
type Registry interface {
	Register(typ string, builder Builder)
	DetectorFor(cfg DetectorConfig, env Environment) (Detector, error)
}

type registry struct {
	mu       sync.RWMutex
	builders map[string]Builder
}

// NewRegistry returns a registry with optional pre-registered builders.
func NewRegistry(builders map[string]Builder) Registry {
	r := &registry{
		builders: make(map[string]Builder),
	}
	for typ, b := range builders {
		r.Register(typ, b)
	}
	return r
}

// Register associates a builder with a detector type.
func (r *registry) Register(typ string, builder Builder) {
	if typ = strings.TrimSpace(strings.ToLower(typ)); typ == "" || builder == nil {
		return
	}

	r.mu.Lock()
	r.builders[typ] = builder
	r.mu.Unlock()
}

// DetectorFor returns the detector built for the provided config.
func (r *registry) DetectorFor(cfg DetectorConfig, env Environment) (Detector, error) {
	if cfg.Type == "" {
		return nil, fmt.Errorf("detector %q has no type configured", cfg.ID)
	}

	r.mu.RLock()
	builder := r.builders[strings.ToLower(cfg.Type)]
	r.mu.RUnlock()

	if builder == nil {
		return nil, fmt.Errorf("no detector registered for type %q", cfg.Type)
	}
	return builder(cfg, env)
}

// DefaultRegistry wires up known detectors.
func DefaultRegistry() Registry {
	builders := map[string]Builder{
		TypeAkismet:   newAkismetDetector,
		TypeBodyguard: newBodyguardDetector,
	}
	return NewRegistry(builders)
}

// BuildAll instantiates detectors for configs using the registry.
func BuildAll(reg Registry, cfgs []DetectorConfig, env Environment) ([]Detector, error) {
	if reg == nil || len(cfgs) == 0 {
		return nil, nil
	}

	var dets []Detector
	for _, cfg := range cfgs {
		det, err := reg.DetectorFor(cfg, env)
		if err != nil {
			return nil, err
		}
		dets = append(dets, det)
	}
	return dets, nil
}

// DefaultHTTPClient returns a tuned http.Client for detector evaluations.
func DefaultHTTPClient(timeout time.Duration) HTTPClient {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return httpclient.NewRestyClient(timeout)
}
