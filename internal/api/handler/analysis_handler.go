package handler

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/cropsure/cropsure-api/internal/api/metrics"
	"github.com/cropsure/cropsure-api/internal/core/domain"
	"github.com/cropsure/cropsure-api/internal/core/service"
)

// Analyzer is the use case behind POST /api/analyze.
type Analyzer interface {
	Analyze(ctx context.Context, userID int64, image []byte, mimeType string, save bool) (*service.AnalysisResult, error)
}

type analyzeRequest struct {
	// Image is raw base64 or a data URL such as "data:image/png;base64,...".
	Image string `json:"image" validate:"required"`
	Save  bool   `json:"save"`
}

type analyzeResponse struct {
	Report domain.Report `json:"report"`
	ID     int64         `json:"id,omitempty" example:"12"`
}

type AnalysisHandler struct {
	analyzer Analyzer
}

func NewAnalysisHandler(analyzer Analyzer) *AnalysisHandler {
	return &AnalysisHandler{analyzer: analyzer}
}

// Analyze sends a crop photo to the model and returns its disease report.
//
// @Summary      Analyze a crop photo
// @Tags         analysis
// @Accept       json
// @Produce      json
// @Param        body  body      analyzeRequest  true  "Image and save flag"
// @Success      200   {object}  analyzeResponse
// @Failure      400   {object}  errorBody
// @Failure      401   {object}  errorBody
// @Failure      502   {object}  errorBody
// @Failure      503   {object}  errorBody
// @Security     SessionCookie
// @Router       /api/analyze [post]
func (h *AnalysisHandler) Analyze(c echo.Context) error {
	userID, err := currentUser(c)
	if err != nil {
		return err
	}

	var req analyzeRequest
	if err := bindJSON(c, &req); err != nil {
		metrics.AnalysisRequestsTotal.WithLabelValues("invalid").Inc()
		return err
	}
	if err := c.Validate(&req); err != nil {
		metrics.AnalysisRequestsTotal.WithLabelValues("invalid").Inc()
		return err
	}

	image, mimeType, err := decodeImage(req.Image)
	if err != nil {
		metrics.AnalysisRequestsTotal.WithLabelValues("invalid").Inc()
		return err
	}

	start := time.Now()
	res, err := h.analyzer.Analyze(c.Request().Context(), userID, image, mimeType, req.Save)
	metrics.AnalysisDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.AnalysisRequestsTotal.WithLabelValues(analysisResult(err)).Inc()
		return err
	}

	metrics.AnalysisRequestsTotal.WithLabelValues("success").Inc()
	return c.JSON(http.StatusOK, analyzeResponse{Report: res.Report, ID: res.RecordID})
}

func analysisResult(err error) string {
	switch {
	case errors.Is(err, domain.ErrAnalysisUnavailable):
		return "unavailable"
	case errors.Is(err, domain.ErrInvalidPayload):
		return "invalid"
	default:
		return "failed"
	}
}

// decodeImage accepts raw base64 or a data URL and returns the bytes plus
// the MIME type, defaulting to image/jpeg.
func decodeImage(s string) ([]byte, string, error) {
	mimeType := "image/jpeg"
	payload := strings.TrimSpace(s)

	if strings.HasPrefix(payload, "data:") {
		header, data, ok := strings.Cut(payload, ",")
		if !ok {
			return nil, "", fmt.Errorf("%w: malformed data URL", domain.ErrInvalidPayload)
		}
		meta := strings.TrimPrefix(header, "data:")
		if !strings.HasSuffix(meta, ";base64") {
			return nil, "", fmt.Errorf("%w: data URL must be base64 encoded", domain.ErrInvalidPayload)
		}
		if mt := strings.TrimSuffix(meta, ";base64"); mt != "" {
			mimeType = mt
		}
		payload = data
	}

	if !strings.HasPrefix(mimeType, "image/") {
		return nil, "", fmt.Errorf("%w: unsupported media type %s", domain.ErrInvalidPayload, mimeType)
	}

	image, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		if image, err = base64.RawStdEncoding.DecodeString(payload); err != nil {
			return nil, "", fmt.Errorf("%w: image is not valid base64", domain.ErrInvalidPayload)
		}
	}
	if len(image) == 0 {
		return nil, "", fmt.Errorf("%w: image is empty", domain.ErrInvalidPayload)
	}
	return image, mimeType, nil
}
