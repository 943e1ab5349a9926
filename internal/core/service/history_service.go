package service

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/cropsure/cropsure-api/internal/core/domain"
	"github.com/cropsure/cropsure-api/internal/core/ports"
)

type HistoryService struct {
	repo   ports.HistoryRepository
	now    func() time.Time
	logger zerolog.Logger
}

func NewHistoryService(repo ports.HistoryRepository, logger zerolog.Logger) *HistoryService {
	return &HistoryService{repo: repo, now: time.Now, logger: logger}
}

// List returns the caller's most recent records, newest first.
func (s *HistoryService) List(ctx context.Context, userID int64) ([]domain.HistoryRecord, error) {
	records, err := s.repo.ListByUser(ctx, userID, domain.HistoryListLimit)
	if err != nil {
		return nil, fmt.Errorf("list history: %w: %w", domain.ErrStoreUnavailable, err)
	}
	if records == nil {
		records = []domain.HistoryRecord{}
	}
	return records, nil
}

// Insert stores report under userID with a server-assigned timestamp.
func (s *HistoryService) Insert(ctx context.Context, userID int64, report domain.Report) (int64, error) {
	if userID <= 0 {
		return 0, domain.ErrUnauthorized
	}

	rec := &domain.HistoryRecord{
		UserID:    userID,
		Report:    report.Normalized(),
		Timestamp: s.now().UTC(),
	}

	id, err := s.repo.Insert(ctx, rec)
	if err != nil {
		s.logger.Error().Err(err).Int64("user_id", userID).Msg("failed to insert history record")
		return 0, fmt.Errorf("insert history: %w: %w", domain.ErrStoreUnavailable, err)
	}

	s.logger.Info().Int64("user_id", userID).Int64("record_id", id).Str("disease", report.DiseaseName).Msg("history record created")
	return id, nil
}

// Delete removes the record only when userID owns it. A foreign or missing
// record is a no-op, not an error.
func (s *HistoryService) Delete(ctx context.Context, userID, id int64) error {
	removed, err := s.repo.Delete(ctx, userID, id)
	if err != nil {
		return fmt.Errorf("delete history: %w: %w", domain.ErrStoreUnavailable, err)
	}
	if !removed {
		s.logger.Debug().Int64("user_id", userID).Int64("record_id", id).Msg("history delete matched no owned record")
	}
	return nil
}
