package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sergi/go-diff/diffmatchpatch"

	"github.com/farolabs/faro/internal/logging"
)

// DiffChunk is a single change between two stored runs.
type DiffChunk struct {
	Type    string `json:"type"` // "added" or "removed"
	Content string `json:"content,omitempty"`
}

// DiffResult describes what changed between the markup of two runs.
type DiffResult struct {
	BaseRunID string      `json:"base_run_id"`
	HeadRunID string      `json:"head_run_id"`
	Chunks    []DiffChunk `json:"chunks"`
}

// DiffRuns computes the markup delta between two stored runs. Results are
// cached in run_diffs so repeated requests skip the diff computation.
func (s *Store) DiffRuns(ctx context.Context, baseRunID, headRunID string) (*DiffResult, error) {
	var diffJSON string
	err := s.db.QueryRowContext(ctx, `
		SELECT diff_json FROM run_diffs
		WHERE base_run_id = ? AND head_run_id = ?
	`, baseRunID, headRunID).Scan(&diffJSON)
	if err == nil {
		var cached DiffResult
		if err := json.Unmarshal([]byte(diffJSON), &cached); err != nil {
			return nil, fmt.Errorf("failed to unmarshal cached diff: %w", err)
		}
		return &cached, nil
	}
	if err != sql.ErrNoRows {
		return nil, fmt.Errorf("failed to query cached diff: %w", err)
	}

	base, err := s.Get(ctx, baseRunID)
	if err != nil {
		return nil, fmt.Errorf("base run: %w", err)
	}
	head, err := s.Get(ctx, headRunID)
	if err != nil {
		return nil, fmt.Errorf("head run: %w", err)
	}

	result := computeMarkupDiff(baseRunID, headRunID, base.HTML, head.HTML)

	payload, err := json.Marshal(result)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal diff: %w", err)
	}
	if _, err := s.db.ExecContext(ctx, `
		INSERT INTO run_diffs (id, base_run_id, head_run_id, diff_json, created_at)
		VALUES (?, ?, ?, ?, ?)
	`, uuid.New().String(), baseRunID, headRunID, string(payload), time.Now().Unix()); err != nil {
		s.logger.Warn("failed to cache diff",
			logging.Field{Key: "error", Value: err.Error()})
	}

	return result, nil
}

// computeMarkupDiff diffs at the character level; semantic cleanup merges
// the noise that character diffs produce on HTML.
func computeMarkupDiff(baseID, headID, base, head string) *DiffResult {
	dmp := diffmatchpatch.New()
	diffs := dmp.DiffMain(base, head, true)
	diffs = dmp.DiffCleanupSemantic(diffs)

	chunks := make([]DiffChunk, 0)
	for _, d := range diffs {
		var chunkType string
		switch d.Type {
		case diffmatchpatch.DiffInsert:
			chunkType = "added"
		case diffmatchpatch.DiffDelete:
			chunkType = "removed"
		case diffmatchpatch.DiffEqual:
			continue
		}
		if strings.TrimSpace(d.Text) != "" {
			chunks = append(chunks, DiffChunk{Type: chunkType, Content: d.Text})
		}
	}

	return &DiffResult{
		BaseRunID: baseID,
		HeadRunID: headID,
		Chunks:    chunks,
	}
}
