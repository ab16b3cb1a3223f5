package ingest

import (
	"context"
	"fmt"
	"os"

	"github.com/ZanzyTHEbar/qb-excellence-index/internal/types"
)

// LoadCSVFile reads players from a CSV file on disk.
func LoadCSVFile(path string) ([]types.Player, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	players, err := ReadCSV(f)
	if err != nil {
		return nil, fmt.Errorf("failed to load %s: %w", path, err)
	}
	return players, nil
}

// CSVSource serves players from a static CSV file. The file is re-read on
// every call so edits are picked up after a cache flush.
type CSVSource struct {
	path string
}

// NewCSVSource creates a source over path.
func NewCSVSource(path string) *CSVSource {
	return &CSVSource{path: path}
}

// LoadPlayers implements the player source contract.
func (s *CSVSource) LoadPlayers(ctx context.Context) ([]types.Player, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return LoadCSVFile(s.path)
}

// Name identifies the source in logs and health output.
func (s *CSVSource) Name() string {
	return "csv:" + s.path
}
