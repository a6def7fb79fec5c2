package detectors

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"
)

// Package detectors contains pluggable moderation detector configs
// (YAML/JSON) and the detector implementations built from them.

const (
	// Supported detector types.
	TypeAkismet   = "akismet"
	TypeBodyguard = "bodyguard"
)

// configFile represents the structure of the detectors configuration file.
type configFile struct {
	Detectors []DetectorConfig `json:"detectors" yaml:"detectors"`
}

// DetectorConfig represents a single detector entry declared in config files.
type DetectorConfig struct {
	ID      string         `json:"id" yaml:"id"`
	Name    string         `json:"name" yaml:"name"`
	Type    string         `json:"type" yaml:"type"`
	Enabled *bool          `json:"enabled" yaml:"enabled"`
	Table   string         `json:"table" yaml:"table"`
	Config  map[string]any `json:"config" yaml:"config"`
}

// ConfigRegistry materializes detector definitions loaded from config files.
type ConfigRegistry struct {
	mu        sync.RWMutex
	detectors []DetectorConfig
	idx       map[string]DetectorConfig
}

// LoadRegistry loads the detector registry from a YAML/JSON file.
func LoadRegistry(path string) (*ConfigRegistry, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, errors.New("detectors file path is empty")
	}

	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open detectors file: %w", err)
	}
	defer file.Close()

	raw, err := io.ReadAll(file)
	if err != nil {
		return nil, fmt.Errorf("read detectors file: %w", err)
	}

	fileReg, err := parseDetectorRegistry(raw, filepath.Ext(path))
	if err != nil {
		return nil, err
	}
	if len(fileReg.Detectors) == 0 {
		return nil, errors.New("detectors file contains no detectors entries")
	}

	reg := &ConfigRegistry{
		detectors: make([]DetectorConfig, len(fileReg.Detectors)),
		idx:       make(map[string]DetectorConfig, len(fileReg.Detectors)),
	}

	for i := range fileReg.Detectors {
		cfg := sanitizeDetectorConfig(fileReg.Detectors[i])
		if err := validateDetectorConfig(cfg); err != nil {
			return nil, fmt.Errorf("detectors[%d]: %w", i, err)
		}
		if _, exists := reg.idx[cfg.ID]; exists {
			return nil, fmt.Errorf("duplicate detector id %q", cfg.ID)
		}
		reg.detectors[i] = cfg
		reg.idx[cfg.ID] = cfg
	}

	return reg, nil
}

// parseDetectorRegistry attempts to decode the detectors file content.
func parseDetectorRegistry(data []byte, ext string) (configFile, error) {
	ext = strings.ToLower(strings.TrimSpace(ext))
	decoders := []struct {
		name string
		ext  string
		fn   func([]byte, any) error
	}{
		{name: "yaml", ext: ".yaml", fn: yaml.Unmarshal},
		{name: "yaml", ext: ".yml", fn: yaml.Unmarshal},
		{name: "json", ext: ".json", fn: json.Unmarshal},
	}

	for _, d := range decoders {
		if ext != "" && ext != d.ext {
			continue
		}
		if reg, err := unmarshalDetectorRegistry(d.name, data, d.fn); err == nil {
			return reg, nil
		}
	}

	return configFile{}, errors.New("detectors file format not recognized (expected YAML or JSON)")
}

// unmarshalDetectorRegistry decodes the detectors file using the provided function.
func unmarshalDetectorRegistry(name string, data []byte, fn func([]byte, any) error) (configFile, error) {
	var reg configFile
	if err := fn(data, &reg); err != nil {
		return configFile{}, fmt.Errorf("decode %s detectors: %w", name, err)
	}
	return reg, nil
}

// sanitizeDetectorConfig trims and normalizes the detector config fields.
func sanitizeDetectorConfig(cfg DetectorConfig) DetectorConfig {
	cfg.ID = strings.TrimSpace(cfg.ID)
	cfg.Name = strings.TrimSpace(cfg.Name)
	cfg.Type = strings.ToLower(strings.TrimSpace(cfg.Type))
	cfg.Table = strings.TrimSpace(cfg.Table)

	if cfg.Enabled == nil {
		def := true
		cfg.Enabled = &def
	}
	if cfg.Config == nil {
		cfg.Config = map[string]any{}
	}
	if cfg.Table == "" {
		switch cfg.Type {
		case TypeAkismet:
			cfg.Table = "result_akismet"
		case TypeBodyguard:
			cfg.Table = "result_bodyguard"
		}
	}

	return cfg
}

// validateDetectorConfig checks that required fields are present. Disabled
// entries only need an identity; their credentials are not checked so an
// operator can keep a stub entry around without a key.
func validateDetectorConfig(cfg DetectorConfig) error {
	if cfg.ID == "" {
		return errors.New("id is required")
	}
	if cfg.Type == "" {
		return fmt.Errorf("type is required for detector %q", cfg.ID)
	}
	if !cfg.EnabledValue() {
		return nil
	}
	if cfg.Table == "" {
		return fmt.Errorf("table is required for detector %q", cfg.ID)
	}
	if ConfigString(cfg, ConfigAPIKeyKey, "") == "" {
		return fmt.Errorf("config.api_key is required for detector %q", cfg.ID)
	}
	if cfg.Type == TypeBodyguard && ConfigString(cfg, ConfigChannelIDKey, "") == "" {
		return fmt.Errorf("config.channel_id is required for detector %q", cfg.ID)
	}
	return nil
}

// ByID returns the detector config by id.
func (r *ConfigRegistry) ByID(id string) (DetectorConfig, bool) {
	if r == nil {
		return DetectorConfig{}, false
	}

	id = strings.TrimSpace(id)
	if id == "" {
		return DetectorConfig{}, false
	}

	r.mu.RLock()
	defer r.mu.RUnlock()
	cfg, ok := r.idx[id]
	return cfg, ok
}

// All returns all configured detectors.
func (r *ConfigRegistry) All() []DetectorConfig {
	if r == nil {
		return nil
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]DetectorConfig, len(r.detectors))
	copy(out, r.detectors)
	return out
}

// Enabled returns detectors that are enabled.
func (r *ConfigRegistry) Enabled() []DetectorConfig {
	if r == nil {
		return nil
	}

	all := r.All()
	if len(all) == 0 {
		return nil
	}

	out := make([]DetectorConfig, 0, len(all))
	for _, cfg := range all {
		if cfg.EnabledValue() {
			out = append(out, cfg)
		}
	}
	return out
}

// EnabledValue returns enabled flag defaulting to true.
func (cfg DetectorConfig) EnabledValue() bool {
	if cfg.Enabled == nil {
		return true
	}
	return *cfg.Enabled
}
