package pipeline

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"claimsev/internal/dataset"
	"claimsev/internal/join"
	"claimsev/internal/transform"
)

// StageRecord is the row accounting of one pipeline stage. RowsOut of a
// stage equals RowsIn of the next; the manifest makes the whole funnel
// auditable after the run.
type StageRecord struct {
	Name      string        `json:"name"`
	RowsIn    int           `json:"rows_in"`
	RowsOut   int           `json:"rows_out"`
	Elapsed   time.Duration `json:"elapsed_ns"`
	ElapsedMS int64         `json:"elapsed_ms"`
}

// Manifest records everything needed to audit and reproduce a run
type Manifest struct {
	RunID      string             `json:"run_id"`
	CreatedAt  time.Time          `json:"created_at"`
	Seed       int64              `json:"seed"`
	Proportion float64            `json:"proportion"`
	Folds      int                `json:"folds"`
	Repeats    int                `json:"repeats"`
	StrataBins int                `json:"strata_bins"`
	Units      []string           `json:"units"`
	PolicyLoad dataset.LoadResult `json:"policy_load"`
	ClaimLoad  dataset.LoadResult `json:"claim_load"`
	Join       join.Stats         `json:"join"`
	Transform  transform.Stats    `json:"transform"`
	Stages     []StageRecord      `json:"stages"`
	FailedFits int                `json:"failed_fits"`
}

// record appends a stage row to the manifest
func (m *Manifest) record(name string, rowsIn, rowsOut int, elapsed time.Duration) {
	m.Stages = append(m.Stages, StageRecord{
		Name:      name,
		RowsIn:    rowsIn,
		RowsOut:   rowsOut,
		Elapsed:   elapsed,
		ElapsedMS: elapsed.Milliseconds(),
	})
}

// Write persists the manifest as JSON next to the other artifacts
func (m *Manifest) Write(dir string) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal manifest: %w", err)
	}

	path := filepath.Join(dir, "manifest.json")
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write manifest: %w", err)
	}
	return nil
}
