// Package history keeps a TOML catalog of generated runs so operators can
// audit what was produced for which tree and change-set.
package history

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	toml "github.com/pelletier/go-toml/v2"
)

// DefaultPath is the conventional location for the run catalog.
const DefaultPath = ".magnetar/history.toml"

// Entry records one generated run.
type Entry struct {
	Timestamp   time.Time `toml:"timestamp"`
	Tree        string    `toml:"tree"`
	Arch        string    `toml:"arch"`
	Description string    `toml:"description,omitempty"`
	Output      string    `toml:"output,omitempty"`
	SourcePaths []string  `toml:"source_paths,omitempty"`
	Cases       int       `toml:"cases"`
}

// Log is the catalog of generated runs, oldest first.
type Log struct {
	Runs []Entry `toml:"runs"`
}

// Load reads a run catalog from the given path. If the file does not exist,
// it returns an empty catalog and no error.
func Load(path string) (*Log, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return &Log{}, nil
		}
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}

	var log Log
	if err := toml.Unmarshal(data, &log); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	return &log, nil
}

// Save writes the run catalog to the given path, creating parent directories
// as needed.
func Save(path string, log *Log) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating directory %s: %w", dir, err)
	}

	data, err := toml.Marshal(log)
	if err != nil {
		return fmt.Errorf("marshaling %s: %w", path, err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return nil
}

// Append loads the catalog at path, appends e, and saves it back.
func Append(path string, e Entry) error {
	log, err := Load(path)
	if err != nil {
		return err
	}
	log.Runs = append(log.Runs, e)
	return Save(path, log)
}
