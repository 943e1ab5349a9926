package ports

import (
	"context"

	"github.com/cropsure/cropsure-api/internal/core/domain"
)

// HistoryRepository persists analysis records. Every operation is scoped by owner.
type HistoryRepository interface {
	Insert(ctx context.Context, rec *domain.HistoryRecord) (int64, error)
	// ListByUser returns the newest records first, at most limit of them.
	ListByUser(ctx context.Context, userID int64, limit int) ([]domain.HistoryRecord, error)
	// Delete reports whether a row owned by userID was removed.
	Delete(ctx context.Context, userID, id int64) (bool, error)
}
