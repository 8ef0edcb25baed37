// Package results persists finished simulation runs as JSON documents.
package results

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/ShakaTry/DiceBot/internal/engine"
	"github.com/ShakaTry/DiceBot/internal/strategy"
)

// Document is one complete simulation run: what was asked, every
// session result and the aggregate summary.
type Document struct {
	SimulationID string          `json:"simulation_id"`
	Strategy     strategy.Config `json:"strategy"`
	Sessions     int             `json:"sessions"`
	Parallel     bool            `json:"parallel"`

	Results []engine.SessionResult `json:"results"`
	Summary engine.Summary         `json:"summary"`

	CreatedAt time.Time `json:"created_at"`
}

// Save writes the document as indented JSON, creating parent
// directories as needed. The write goes through a temp file and rename
// so a crash never leaves a half-written document behind.
func Save(path string, doc *Document) error {
	if doc.CreatedAt.IsZero() {
		doc.CreatedAt = time.Now()
	}
	return write(path, doc)
}

// SaveComparison writes a strategy comparison the same way.
func SaveComparison(path string, cmp *engine.Comparison) error {
	return write(path, cmp)
}

// SaveSweep writes a parameter sweep the same way.
func SaveSweep(path string, sw *engine.Sweep) error {
	return write(path, sw)
}

func write(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling results: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating results directory: %w", err)
	}

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("writing results: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("replacing results file: %w", err)
	}
	return nil
}

// Load reads a document back.
func Load(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading results: %w", err)
	}

	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parsing results: %w", err)
	}
	return &doc, nil
}
