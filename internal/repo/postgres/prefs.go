package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/hamed0406/netmonitor/internal/domain"
	"github.com/hamed0406/netmonitor/internal/repo"
)

var _ repo.PreferenceStore = (*Store)(nil)

func (s *Store) GetByUserID(ctx context.Context, userID string) (*domain.SpeedTestPreference, error) {
	const q = `SELECT user_id, source_id FROM speed_test_preferences WHERE user_id=$1`
	var p domain.SpeedTestPreference
	err := s.pool.QueryRow(ctx, q, userID).Scan(&p.UserID, &p.SourceID)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, repo.ErrNotFound
		}
		return nil, fmt.Errorf("get preference: %w", err)
	}
	return &p, nil
}

func (s *Store) SetPreference(ctx context.Context, p domain.SpeedTestPreference) error {
	const q = `
		INSERT INTO speed_test_preferences (user_id, source_id)
		VALUES ($1,$2)
		ON CONFLICT (user_id)
		DO UPDATE SET source_id=EXCLUDED.source_id
	`
	_, err := s.pool.Exec(ctx, q, p.UserID, p.SourceID)
	if err != nil {
		return fmt.Errorf("set preference: %w", err)
	}
	return nil
}
