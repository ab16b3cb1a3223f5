package reference

import (
	"embed"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

//go:embed data/*.json
var embedded embed.FS

const (
	yearWeightsFile = "year_weights.json"
	benchmarksFile  = "benchmarks.json"
	teamQualityFile = "team_quality.json"
	seasonsFile     = "seasons.json"
)

// Store reads reference tables, preferring files in dataDir over the
// embedded defaults.
type Store struct {
	dataDir string
}

// NewStore creates a store; an empty dataDir uses only embedded data.
func NewStore(dataDir string) *Store {
	return &Store{dataDir: dataDir}
}

// Load reads, derives and validates all tables.
func (s *Store) Load() (*Tables, error) {
	t := &Tables{}
	files := []struct {
		name string
		dst  any
	}{
		{yearWeightsFile, &t.YearWeights},
		{benchmarksFile, &t.Benchmarks},
		{teamQualityFile, &t.TeamQuality},
		{seasonsFile, &t.Seasons},
	}

	for _, f := range files {
		raw, err := s.read(f.name)
		if err != nil {
			return nil, err
		}
		if err := json.Unmarshal(raw, f.dst); err != nil {
			return nil, fmt.Errorf("failed to decode %s: %w", f.name, err)
		}
	}

	t.deriveTotals()
	if err := t.Validate(); err != nil {
		return nil, fmt.Errorf("invalid reference data: %w", err)
	}
	return t, nil
}

func (s *Store) read(name string) ([]byte, error) {
	if s.dataDir != "" {
		path := filepath.Join(s.dataDir, name)
		raw, err := os.ReadFile(path)
		if err == nil {
			return raw, nil
		}
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("failed to read %s: %w", path, err)
		}
	}

	raw, err := embedded.ReadFile("data/" + name)
	if err != nil {
		return nil, fmt.Errorf("failed to read embedded %s: %w", name, err)
	}
	return raw, nil
}

// Save writes tables into dataDir so they can be edited and reloaded.
func (s *Store) Save(t *Tables) error {
	if s.dataDir == "" {
		return fmt.Errorf("no data directory configured")
	}
	if err := os.MkdirAll(s.dataDir, 0755); err != nil {
		return fmt.Errorf("failed to create reference directory: %w", err)
	}

	files := map[string]any{
		yearWeightsFile: t.YearWeights,
		benchmarksFile:  t.Benchmarks,
		teamQualityFile: t.TeamQuality,
		seasonsFile:     t.Seasons,
	}
	for name, v := range files {
		raw, err := json.MarshalIndent(v, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to encode %s: %w", name, err)
		}
		if err := os.WriteFile(filepath.Join(s.dataDir, name), append(raw, '\n'), 0644); err != nil {
			return fmt.Errorf("failed to write %s: %w", name, err)
		}
	}
	return nil
}

// LoadDefault loads the embedded tables.
func LoadDefault() (*Tables, error) {
	return NewStore("").Load()
}

// MustLoadDefault is LoadDefault for tests and package init.
func MustLoadDefault() *Tables {
	t, err := LoadDefault()
	if err != nil {
		panic(err)
	}
	return t
}
