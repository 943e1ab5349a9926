package ports

import (
	"context"

	"github.com/cropsure/cropsure-api/internal/core/domain"
)

// Analyzer turns a crop photo into a structured disease report.
type Analyzer interface {
	Analyze(ctx context.Context, image []byte, mimeType string) (*domain.Report, error)
}
