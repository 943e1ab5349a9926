package handler

import (
	"fmt"

	"github.com/labstack/echo/v4"

	"github.com/cropsure/cropsure-api/internal/api/middleware"
	"github.com/cropsure/cropsure-api/internal/core/domain"
)

// currentUser returns the identity attached by the auth middleware. Routes
// are mounted behind RequireAuth, so a miss means the wiring is wrong.
func currentUser(c echo.Context) (int64, error) {
	id, ok := middleware.UserID(c)
	if !ok {
		return 0, domain.ErrUnauthorized
	}
	return id, nil
}

// bindJSON decodes the request body, reporting decode failures as invalid payloads.
func bindJSON(c echo.Context, dst any) error {
	if err := (&echo.DefaultBinder{}).BindBody(c, dst); err != nil {
		return fmt.Errorf("%w: malformed JSON body", domain.ErrInvalidPayload)
	}
	return nil
}
