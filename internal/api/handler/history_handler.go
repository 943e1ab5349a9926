package handler

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/cropsure/cropsure-api/internal/api/metrics"
	"github.com/cropsure/cropsure-api/internal/core/domain"
	"github.com/cropsure/cropsure-api/internal/core/ports"
)

type HistoryHandler struct {
	history ports.HistoryService
}

func NewHistoryHandler(history ports.HistoryService) *HistoryHandler {
	return &HistoryHandler{history: history}
}

// List returns the caller's 20 most recent analyses, newest first.
//
// @Summary      List analysis history
// @Tags         history
// @Produce      json
// @Success      200  {array}   historyRecordResponse
// @Failure      401  {object}  errorBody
// @Failure      500  {object}  errorBody
// @Security     SessionCookie
// @Router       /api/history [get]
func (h *HistoryHandler) List(c echo.Context) error {
	userID, err := currentUser(c)
	if err != nil {
		return err
	}

	records, err := h.history.List(c.Request().Context(), userID)
	if err != nil {
		return err
	}

	resp := make([]historyRecordResponse, 0, len(records))
	for _, rec := range records {
		resp = append(resp, toHistoryResponse(rec))
	}
	return c.JSON(http.StatusOK, resp)
}

// Create stores a report in the caller's history.
//
// @Summary      Save an analysis report
// @Tags         history
// @Accept       json
// @Produce      json
// @Param        body  body      reportRequest  true  "Analysis report"
// @Success      200   {object}  idResponse
// @Failure      400   {object}  errorBody
// @Failure      401   {object}  errorBody
// @Security     SessionCookie
// @Router       /api/history [post]
func (h *HistoryHandler) Create(c echo.Context) error {
	userID, err := currentUser(c)
	if err != nil {
		return err
	}

	var req reportRequest
	if err := bindJSON(c, &req); err != nil {
		return err
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	id, err := h.history.Insert(c.Request().Context(), userID, req.toDomain())
	if err != nil {
		return err
	}

	metrics.HistoryOperationsTotal.WithLabelValues("insert").Inc()
	return c.JSON(http.StatusOK, idResponse{ID: id})
}

// Delete removes one of the caller's records. Records that are missing or
// belong to someone else are left alone and still answer success.
//
// @Summary      Delete an analysis report
// @Tags         history
// @Produce      json
// @Param        id   path      int  true  "Record id"
// @Success      200  {object}  successResponse
// @Failure      400  {object}  errorBody
// @Failure      401  {object}  errorBody
// @Security     SessionCookie
// @Router       /api/history/{id} [delete]
func (h *HistoryHandler) Delete(c echo.Context) error {
	userID, err := currentUser(c)
	if err != nil {
		return err
	}

	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return fmt.Errorf("%w: id must be an integer", domain.ErrInvalidPayload)
	}

	if err := h.history.Delete(c.Request().Context(), userID, id); err != nil {
		return err
	}

	metrics.HistoryOperationsTotal.WithLabelValues("delete").Inc()
	return c.JSON(http.StatusOK, successResponse{Success: true})
}
