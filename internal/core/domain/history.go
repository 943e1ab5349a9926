package domain

import (
	"errors"
	"time"
)

// HistoryListLimit caps how many records a history listing returns.
const HistoryListLimit = 20

var (
	ErrInvalidPayload   = errors.New("invalid payload")
	ErrStoreUnavailable = errors.New("store unavailable")
)

// Report is a structured disease analysis of one crop photo.
type Report struct {
	DiseaseName              string   `json:"diseaseName"`
	Confidence               string   `json:"confidence"`
	Symptoms                 []string `json:"symptoms"`
	Treatment                string   `json:"treatment"`
	FertilizerRecommendation string   `json:"fertilizerRecommendation"`
	PreventionTips           []string `json:"preventionTips"`
}

// Normalized returns a copy with nil sequences replaced by empty ones so the
// stored and listed forms are always arrays.
func (r Report) Normalized() Report {
	if r.Symptoms == nil {
		r.Symptoms = []string{}
	}
	if r.PreventionTips == nil {
		r.PreventionTips = []string{}
	}
	return r
}

// HistoryRecord is a persisted Report owned by exactly one user.
type HistoryRecord struct {
	ID        int64
	UserID    int64
	Report    Report
	Timestamp time.Time
}
