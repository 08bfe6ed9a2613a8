package catalog

import (
	_ "embed"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/boardswallah/boards-press/app/content"
)

//go:embed catalog.yml
var defaultCatalog []byte

// Store holds the active catalog, loaded once at startup by Run.
type Store struct {
	path    string
	catalog *Catalog
	mu      sync.RWMutex
}

// NewStore creates a catalog store backed by the YAML file at path,
// or by the embedded default when path is empty.
func NewStore(path string) *Store {
	return &Store{path: path}
}

func (s *Store) Run() error {
	data := defaultCatalog
	if s.path != "" {
		fileData, err := os.ReadFile(s.path)
		if err != nil {
			return fmt.Errorf("failed to read catalog file: %w", err)
		}
		data = fileData
	}

	c, err := Parse(data)
	if err != nil {
		return fmt.Errorf("invalid catalog %s: %w", s.sourceName(), err)
	}

	s.mu.Lock()
	s.catalog = c
	s.mu.Unlock()

	slog.Debug("Catalog loaded", "source", s.sourceName(), "categories", len(c.Subjects), "tiers", len(c.LengthTiers))
	return nil
}

// Parse decodes and validates catalog YAML, filling tier defaults.
func Parse(data []byte) (*Catalog, error) {
	var c Catalog
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if c.LengthTiers == nil {
		c.LengthTiers = make(map[LengthTier]TierSettings)
	}
	for tier, defaults := range defaultTiers {
		settings := c.LengthTiers[tier]
		if settings.TargetWords == 0 {
			settings.TargetWords = defaults.TargetWords
		}
		if settings.MaxTokens == 0 {
			settings.MaxTokens = defaults.MaxTokens
		}
		c.LengthTiers[tier] = settings
	}
	c.Types = content.Types

	if err := validate(&c); err != nil {
		return nil, err
	}
	return &c, nil
}

var defaultTiers = map[LengthTier]TierSettings{
	TierSmall:  {TargetWords: 600, MaxTokens: 4000},
	TierMedium: {TargetWords: 1200, MaxTokens: 8000},
	TierLarge:  {TargetWords: 2500, MaxTokens: 12000},
}

func validate(c *Catalog) error {
	for category, subjects := range c.Subjects {
		if !category.Valid() {
			return fmt.Errorf("unknown category %q", category)
		}
		for i, subject := range subjects {
			if strings.TrimSpace(subject) == "" {
				return fmt.Errorf("empty subject at index %d for %s", i, category)
			}
		}
	}

	for tier, settings := range c.LengthTiers {
		if _, ok := defaultTiers[tier]; !ok {
			return fmt.Errorf("unknown length tier %q", tier)
		}
		if settings.TargetWords < 0 || settings.MaxTokens < 0 {
			return fmt.Errorf("length tier %s must be non-negative", tier)
		}
	}

	return nil
}

// Get returns the active catalog. Run must have succeeded first.
func (s *Store) Get() *Catalog {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.catalog
}

// Subjects lists the subjects known for a category.
func (s *Store) Subjects(category content.Category) []string {
	c := s.Get()
	if c == nil {
		return nil
	}
	return append([]string(nil), c.Subjects[category]...)
}

// KnownSubject reports whether subject appears in the category's lookup table.
// The table is advisory; unknown subjects are still accepted.
func (s *Store) KnownSubject(category content.Category, subject string) bool {
	for _, known := range s.Subjects(category) {
		if strings.EqualFold(known, strings.TrimSpace(subject)) {
			return true
		}
	}
	return false
}

// Tier resolves a tier name, defaulting to medium for an empty name.
func (s *Store) Tier(tier LengthTier) (TierSettings, error) {
	if tier == "" {
		tier = TierMedium
	}
	c := s.Get()
	if c == nil {
		if settings, ok := defaultTiers[tier]; ok {
			return settings, nil
		}
		return TierSettings{}, fmt.Errorf("unknown length tier %q", tier)
	}
	settings, ok := c.LengthTiers[tier]
	if !ok {
		return TierSettings{}, fmt.Errorf("unknown length tier %q", tier)
	}
	return settings, nil
}

func (s *Store) sourceName() string {
	if s.path == "" {
		return "embedded"
	}
	return s.path
}
