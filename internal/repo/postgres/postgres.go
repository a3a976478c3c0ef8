package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/hamed0406/netmonitor/internal/domain"
	"github.com/hamed0406/netmonitor/internal/repo"
)

var _ repo.TargetStore = (*Store)(nil)
var _ repo.ResultStore = (*Results)(nil)

type Store struct {
	pool *pgxpool.Pool
	log  *zap.Logger
}

type Results struct{ s *Store }

func New(ctx context.Context, dsn string, log *zap.Logger) (*Store, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("pgxpool.New: %w", err)
	}
	ctxPing, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := pool.Ping(ctxPing); err != nil {
		return nil, fmt.Errorf("ping: %w", err)
	}
	return &Store{pool: pool, log: log}, nil
}

func (s *Store) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}

func (s *Store) Results() *Results { return &Results{s: s} }

// ---- TargetStore ----

func (s *Store) Create(ctx context.Context, data repo.CreateTarget) (*domain.Target, error) {
	t := &domain.Target{
		ID:        domain.TargetID("target-" + uuid.NewString()),
		Name:      data.Name,
		Address:   data.Address,
		OwnerID:   data.OwnerID,
		CreatedAt: time.Now().UTC(),
	}
	_, err := s.pool.Exec(ctx,
		`INSERT INTO targets (id, name, address, owner_id, created_at)
		 VALUES ($1, $2, $3, $4, $5)`,
		string(t.ID), t.Name, t.Address, t.OwnerID, t.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("insert target: %w", err)
	}
	t.SpeedTestResults = []domain.SpeedTestResult{}
	t.AlertRules = []domain.AlertRule{}
	return t, nil
}

func (s *Store) FindByID(ctx context.Context, id domain.TargetID) (*domain.Target, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT id, name, address, owner_id, created_at FROM targets WHERE id=$1`,
		string(id))
	t, err := scanTarget(row)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, repo.ErrNotFound
		}
		return nil, fmt.Errorf("find target: %w", err)
	}
	return t, nil
}

func (s *Store) FindByIDWithRelations(ctx context.Context, id domain.TargetID) (*domain.Target, error) {
	t, err := s.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.attachResults(ctx, t); err != nil {
		return nil, err
	}
	return t, nil
}

func (s *Store) FindByOwnerWithRelations(ctx context.Context, ownerID string) ([]*domain.Target, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, name, address, owner_id, created_at
		   FROM targets
		  WHERE owner_id=$1
		  ORDER BY created_at DESC, id DESC`, ownerID)
	if err != nil {
		return nil, fmt.Errorf("targets by owner: %w", err)
	}
	return s.collectWithRelations(ctx, rows)
}

func (s *Store) AllWithRelations(ctx context.Context) ([]*domain.Target, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, name, address, owner_id, created_at
		   FROM targets
		  ORDER BY created_at DESC, id DESC`)
	if err != nil {
		return nil, fmt.Errorf("all targets: %w", err)
	}
	return s.collectWithRelations(ctx, rows)
}

func (s *Store) Update(ctx context.Context, id domain.TargetID, data repo.UpdateTarget) (*domain.Target, error) {
	row := s.pool.QueryRow(ctx,
		`UPDATE targets
		    SET name = COALESCE($2, name),
		        address = COALESCE($3, address)
		  WHERE id=$1
		  RETURNING id, name, address, owner_id, created_at`,
		string(id), data.Name, data.Address)
	t, err := scanTarget(row)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, repo.ErrNotFound
		}
		return nil, fmt.Errorf("update target: %w", err)
	}
	return t, nil
}

func (s *Store) Delete(ctx context.Context, id domain.TargetID) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM targets WHERE id=$1`, string(id))
	if err != nil {
		return fmt.Errorf("delete target: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return repo.ErrNotFound
	}
	// results cascade via FK in schema
	return nil
}

func (s *Store) collectWithRelations(ctx context.Context, rows pgx.Rows) ([]*domain.Target, error) {
	defer rows.Close()
	var out []*domain.Target
	for rows.Next() {
		t, err := scanTarget(rows)
		if err != nil {
			return nil, fmt.Errorf("scan target: %w", err)
		}
		out = append(out, t)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	for _, t := range out {
		if err := s.attachResults(ctx, t); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func (s *Store) attachResults(ctx context.Context, t *domain.Target) error {
	rs, err := s.Results().FindByTargetID(ctx, t.ID, 0)
	if err != nil {
		return err
	}
	t.SpeedTestResults = make([]domain.SpeedTestResult, 0, len(rs))
	for _, r := range rs {
		t.SpeedTestResults = append(t.SpeedTestResults, *r)
	}
	t.AlertRules = []domain.AlertRule{}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTarget(row rowScanner) (*domain.Target, error) {
	var (
		id        string
		name      string
		address   string
		ownerID   string
		createdAt time.Time
	)
	if err := row.Scan(&id, &name, &address, &ownerID, &createdAt); err != nil {
		return nil, err
	}
	return &domain.Target{
		ID:               domain.TargetID(id),
		Name:             name,
		Address:          address,
		OwnerID:          ownerID,
		CreatedAt:        createdAt,
		SpeedTestResults: []domain.SpeedTestResult{},
		AlertRules:       []domain.AlertRule{},
	}, nil
}

// ---- ResultStore ----

func (r *Results) Create(ctx context.Context, data repo.CreateResult) (*domain.SpeedTestResult, error) {
	now := time.Now().UTC()
	res := &domain.SpeedTestResult{
		ID:        uuid.NewString(),
		TargetID:  data.TargetID,
		Ping:      data.Ping,
		Download:  data.Download,
		Upload:    data.Upload,
		Status:    data.Status,
		Error:     data.Error,
		Timestamp: now,
		CreatedAt: now,
	}
	var errText *string
	if res.Error != "" {
		errText = &res.Error
	}
	_, err := r.s.pool.Exec(ctx,
		`INSERT INTO speed_test_results
		   (id, target_id, ping_ms, download_mbps, upload_mbps, status, error, measured_at, created_at)
		 VALUES
		   ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		res.ID, string(res.TargetID), res.Ping, res.Download, res.Upload,
		string(res.Status), errText, res.Timestamp, res.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("insert result: %w", err)
	}
	return res, nil
}

func (r *Results) FindByTargetID(ctx context.Context, id domain.TargetID, limit int) ([]*domain.SpeedTestResult, error) {
	q := `SELECT id, target_id, ping_ms, download_mbps, upload_mbps, status, error, measured_at, created_at
	        FROM speed_test_results
	       WHERE target_id=$1
	       ORDER BY measured_at DESC, id DESC`
	args := []any{string(id)}
	if limit > 0 {
		q += ` LIMIT $2`
		args = append(args, limit)
	}
	rows, err := r.s.pool.Query(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("results by target: %w", err)
	}
	defer rows.Close()

	var out []*domain.SpeedTestResult
	for rows.Next() {
		var (
			res     domain.SpeedTestResult
			tid     string
			status  string
			errText *string
		)
		if err := rows.Scan(&res.ID, &tid, &res.Ping, &res.Download, &res.Upload,
			&status, &errText, &res.Timestamp, &res.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan result: %w", err)
		}
		res.TargetID = domain.TargetID(tid)
		res.Status = domain.TestStatus(status)
		if errText != nil {
			res.Error = *errText
		}
		out = append(out, &res)
	}
	return out, rows.Err()
}
