// Package cache persists session metadata and the session-to-topic mapping
// between runs as a flat JSON file scoped by year.
package cache

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/wcwagner/wwdc-dl/pkg/domain"
)

// Metadata is the on-disk cache shape: session records keyed by id plus the
// topic mapping. Entries are never invalidated automatically.
type Metadata struct {
	Sessions     map[string]*domain.Session `json:"sessions"`
	TopicMapping map[string]string          `json:"topic_mapping"`
}

// New returns an empty cache.
func New() *Metadata {
	return &Metadata{
		Sessions:     make(map[string]*domain.Session),
		TopicMapping: make(map[string]string),
	}
}

// Path returns the cache file location for a year under the output directory.
func Path(outputDir, year string) string {
	return filepath.Join(outputDir, year, "metadata.json")
}

// Load reads the cache file. A missing file is not an error and yields an
// empty cache; a corrupt file is discarded the same way, since every entry is
// re-fetchable.
func Load(path string) *Metadata {
	meta := New()

	data, err := os.ReadFile(path)
	if err != nil {
		return meta
	}
	if err := json.Unmarshal(data, meta); err != nil {
		return New()
	}

	if meta.Sessions == nil {
		meta.Sessions = make(map[string]*domain.Session)
	}
	if meta.TopicMapping == nil {
		meta.TopicMapping = make(map[string]string)
	}
	return meta
}

// Save writes the cache file, creating parent directories as needed.
func (m *Metadata) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create cache dir: %w", err)
	}

	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal cache: %w", err)
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write cache file: %w", err)
	}
	return nil
}
