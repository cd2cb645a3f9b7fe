package provider

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"gopkg.in/yaml.v3"
)

// Capabilities describes what one provider supports, loaded from a YAML
// capability file. Ported from
// original_source/heretix/provider/config.py's ProviderCapabilities model.
type Capabilities struct {
	Provider           string            `yaml:"provider"`
	DefaultModel       string            `yaml:"default_model"`
	APIModelMap        map[string]string `yaml:"api_model_map"`
	SupportsJSONSchema bool              `yaml:"supports_json_schema"`
	SupportsJSONMode   bool              `yaml:"supports_json_mode"`
	SupportsTools      bool              `yaml:"supports_tools"`
	SupportsSeed       bool              `yaml:"supports_seed"`
	MaxOutputTokens    int               `yaml:"max_output_tokens"`
	DefaultTemperature float64           `yaml:"default_temperature"`
}

// Validate checks the structural invariants config.py enforces: a positive
// token budget and a default_model present in the api_model_map.
func (c Capabilities) Validate() error {
	if c.Provider == "" {
		return fmt.Errorf("provider: capability record missing 'provider'")
	}
	if c.MaxOutputTokens <= 0 {
		return fmt.Errorf("provider %q: max_output_tokens must be > 0", c.Provider)
	}
	if _, ok := c.APIModelMap[c.DefaultModel]; !ok {
		return fmt.Errorf("provider %q: default_model %q missing from api_model_map", c.Provider, c.DefaultModel)
	}
	return nil
}

// CapabilitiesStore caches capability records by provider id, loaded from
// one or more YAML files. It mirrors load_provider_capabilities's
// process-wide cache plus reset_provider_capabilities_cache testing hook.
type CapabilitiesStore struct {
	mu     sync.Mutex
	cache  map[string]Capabilities
	loaded bool
}

// NewCapabilitiesStore creates an empty, unloaded store.
func NewCapabilitiesStore() *CapabilitiesStore {
	return &CapabilitiesStore{cache: make(map[string]Capabilities)}
}

// LoadDir loads every *.yaml/*.yml file in dir as a Capabilities record,
// replacing the current cache. A directory with no capability files is an
// error, matching config.py's refusal to silently run with nothing loaded.
func (s *CapabilitiesStore) LoadDir(dir string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return fmt.Errorf("provider: failed to read capability directory %s: %w", dir, err)
	}

	var paths []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		ext := filepath.Ext(e.Name())
		if ext == ".yaml" || ext == ".yml" {
			paths = append(paths, filepath.Join(dir, e.Name()))
		}
	}
	sort.Strings(paths)

	records := make(map[string]Capabilities, len(paths))
	var loadErrs []string
	for _, p := range paths {
		raw, err := os.ReadFile(p)
		if err != nil {
			loadErrs = append(loadErrs, fmt.Sprintf("%s: %v", p, err))
			continue
		}
		var capRec Capabilities
		if err := yaml.Unmarshal(raw, &capRec); err != nil {
			loadErrs = append(loadErrs, fmt.Sprintf("%s: %v", p, err))
			continue
		}
		if err := capRec.Validate(); err != nil {
			return fmt.Errorf("provider: invalid capability file %s: %w", p, err)
		}
		records[capRec.Provider] = capRec
	}

	if len(records) == 0 {
		detail := ""
		if len(loadErrs) > 0 {
			detail = fmt.Sprintf(" (%v)", loadErrs)
		}
		return fmt.Errorf("provider: no provider capability files found or loadable in %s%s", dir, detail)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.cache = records
	s.loaded = true
	return nil
}

// Get returns the capability record for a provider id.
func (s *CapabilitiesStore) Get(provider string) (Capabilities, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.cache[provider]
	return c, ok
}

// Reset clears the cache, mirroring reset_provider_capabilities_cache's
// testing hook.
func (s *CapabilitiesStore) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cache = make(map[string]Capabilities)
	s.loaded = false
}

// Loaded reports whether LoadDir has succeeded at least once.
func (s *CapabilitiesStore) Loaded() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loaded
}
