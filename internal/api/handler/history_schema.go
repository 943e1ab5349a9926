package handler

import (
	"time"

	"github.com/cropsure/cropsure-api/internal/core/domain"
)

// reportRequest is the body of POST /api/history. Array fields must be JSON
// arrays of strings; anything else fails to decode.
type reportRequest struct {
	DiseaseName              string   `json:"diseaseName"              validate:"required" example:"Leaf Blight"`
	Confidence               string   `json:"confidence"               validate:"required" example:"High"`
	Symptoms                 []string `json:"symptoms"                 example:"brown lesions"`
	Treatment                string   `json:"treatment"                example:"Apply copper fungicide"`
	FertilizerRecommendation string   `json:"fertilizerRecommendation" example:"Balanced NPK"`
	PreventionTips           []string `json:"preventionTips"           example:"Rotate crops"`
}

func (r reportRequest) toDomain() domain.Report {
	return domain.Report{
		DiseaseName:              r.DiseaseName,
		Confidence:               r.Confidence,
		Symptoms:                 r.Symptoms,
		Treatment:                r.Treatment,
		FertilizerRecommendation: r.FertilizerRecommendation,
		PreventionTips:           r.PreventionTips,
	}
}

type historyRecordResponse struct {
	ID                       int64    `json:"id"        example:"1"`
	UserID                   int64    `json:"userId"    example:"1"`
	DiseaseName              string   `json:"diseaseName"`
	Confidence               string   `json:"confidence"`
	Symptoms                 []string `json:"symptoms"`
	Treatment                string   `json:"treatment"`
	FertilizerRecommendation string   `json:"fertilizerRecommendation"`
	PreventionTips           []string `json:"preventionTips"`
	Timestamp                string   `json:"timestamp" example:"2026-05-01T08:00:00Z"`
}

type idResponse struct {
	ID int64 `json:"id" example:"1"`
}

func toHistoryResponse(rec domain.HistoryRecord) historyRecordResponse {
	rep := rec.Report.Normalized()
	return historyRecordResponse{
		ID:                       rec.ID,
		UserID:                   rec.UserID,
		DiseaseName:              rep.DiseaseName,
		Confidence:               rep.Confidence,
		Symptoms:                 rep.Symptoms,
		Treatment:                rep.Treatment,
		FertilizerRecommendation: rep.FertilizerRecommendation,
		PreventionTips:           rep.PreventionTips,
		Timestamp:                rec.Timestamp.UTC().Format(time.RFC3339),
	}
}
