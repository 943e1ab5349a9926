package ports

import (
	"context"

	"github.com/cropsure/cropsure-api/internal/core/domain"
)

// HistoryService defines the use cases behind /api/history.
type HistoryService interface {
	List(ctx context.Context, userID int64) ([]domain.HistoryRecord, error)
	Insert(ctx context.Context, userID int64, report domain.Report) (int64, error)
	// Delete succeeds silently when the record is missing or owned by someone else.
	Delete(ctx context.Context, userID, id int64) error
}
