package domain

import "errors"

var (
	ErrAnalysisFailed      = errors.New("analysis failed")
	ErrAnalysisUnavailable = errors.New("analysis is not configured")
)
