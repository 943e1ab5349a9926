package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/cropsure/cropsure-api/internal/core/domain"
	"github.com/cropsure/cropsure-api/internal/core/ports"
)

// AnalysisResult is a report plus, when it was saved, its history id.
type AnalysisResult struct {
	Report   domain.Report
	RecordID int64
}

// AnalysisService sends photos to the external analyzer and optionally files
// the report into the caller's history.
type AnalysisService struct {
	analyzer ports.Analyzer
	history  ports.HistoryService
	log      zerolog.Logger
}

// NewAnalysisService accepts a nil analyzer; every call then fails with
// domain.ErrAnalysisUnavailable.
func NewAnalysisService(analyzer ports.Analyzer, history ports.HistoryService, log zerolog.Logger) *AnalysisService {
	return &AnalysisService{analyzer: analyzer, history: history, log: log}
}

func (s *AnalysisService) Analyze(ctx context.Context, userID int64, image []byte, mimeType string, save bool) (*AnalysisResult, error) {
	if s.analyzer == nil {
		return nil, domain.ErrAnalysisUnavailable
	}
	if len(image) == 0 {
		return nil, domain.ErrInvalidPayload
	}

	report, err := s.analyzer.Analyze(ctx, image, mimeType)
	if err != nil {
		if !errors.Is(err, domain.ErrAnalysisFailed) {
			err = fmt.Errorf("%w: %v", domain.ErrAnalysisFailed, err)
		}
		s.log.Warn().Err(err).Int64("user_id", userID).Msg("crop analysis failed")
		return nil, err
	}

	res := &AnalysisResult{Report: report.Normalized()}
	if !save {
		return res, nil
	}

	id, err := s.history.Insert(ctx, userID, res.Report)
	if err != nil {
		return nil, err
	}
	res.RecordID = id
	return res, nil
}
