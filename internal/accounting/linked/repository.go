package linked

import (
	"context"

	"github.com/google/uuid"
)

// Repository persists linked entities.
type Repository interface {
	Insert(ctx context.Context, e Entity) (Entity, error)
	Get(ctx context.Context, id uuid.UUID) (Entity, error)
	// List returns entities of kind, or every entity when kind is empty.
	List(ctx context.Context, kind Kind) ([]Entity, error)
	Update(ctx context.Context, id uuid.UUID, in UpdateInput) (Entity, error)
	Delete(ctx context.Context, id uuid.UUID) error
	FindBySubAccount(ctx context.Context, accountID uuid.UUID) (Entity, error)
}
