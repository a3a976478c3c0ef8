package repo

import (
	"context"
	"errors"

	"github.com/hamed0406/netmonitor/internal/domain"
)

// ErrNotFound is returned by stores when a lookup matches nothing.
var ErrNotFound = errors.New("not found")

type CreateTarget struct {
	Name    string
	Address string
	OwnerID string
}

type UpdateTarget struct {
	Name    *string
	Address *string
}

type CreateResult struct {
	TargetID domain.TargetID
	Ping     *float64
	Download *float64
	Upload   *float64
	Status   domain.TestStatus
	Error    string
}

// Ports (interfaces) — swap in any DB adapter later.
type TargetStore interface {
	FindByID(ctx context.Context, id domain.TargetID) (*domain.Target, error)
	FindByIDWithRelations(ctx context.Context, id domain.TargetID) (*domain.Target, error)
	FindByOwnerWithRelations(ctx context.Context, ownerID string) ([]*domain.Target, error)
	AllWithRelations(ctx context.Context) ([]*domain.Target, error)
	Create(ctx context.Context, data CreateTarget) (*domain.Target, error)
	Update(ctx context.Context, id domain.TargetID, data UpdateTarget) (*domain.Target, error)
	Delete(ctx context.Context, id domain.TargetID) error
}

type ResultStore interface {
	Create(ctx context.Context, data CreateResult) (*domain.SpeedTestResult, error)
	FindByTargetID(ctx context.Context, id domain.TargetID, limit int) ([]*domain.SpeedTestResult, error)
}

// PreferenceStore is an optional collaborator; a nil PreferenceStore means the
// user-preference path of download source resolution is unavailable.
type PreferenceStore interface {
	GetByUserID(ctx context.Context, userID string) (*domain.SpeedTestPreference, error)
}
