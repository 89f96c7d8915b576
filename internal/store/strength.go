package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/ppiankov/citecheck/internal/model"
)

// GetStrength returns the cached assessment for a citation, or nil
func (s *SQLiteStore) GetStrength(ctx context.Context, normalized string) (*model.StrengthAssessment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var payload string
	err := s.db.QueryRowContext(ctx,
		`SELECT payload FROM strength WHERE normalized = ?`, normalized).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query strength: %w", err)
	}

	var a model.StrengthAssessment
	if err := json.Unmarshal([]byte(payload), &a); err != nil {
		return nil, fmt.Errorf("decode strength: %w", err)
	}
	return &a, nil
}

// PutStrength stores or replaces the assessment for a citation
func (s *SQLiteStore) PutStrength(ctx context.Context, normalized string, a model.StrengthAssessment) error {
	payload, err := json.Marshal(a)
	if err != nil {
		return fmt.Errorf("marshal strength: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO strength (normalized, assessed_at, payload) VALUES (?, ?, ?)
		ON CONFLICT(normalized) DO UPDATE SET
			assessed_at = excluded.assessed_at,
			payload = excluded.payload
	`, normalized, a.AssessedAt.UnixNano(), string(payload))
	if err != nil {
		return fmt.Errorf("save strength: %w", err)
	}
	return nil
}
