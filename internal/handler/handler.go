// Package handler exposes the scheduler, the booking workflow and the
// holiday calendar over HTTP. Handlers assume the JWT and role middleware
// already ran for protected routes.
package handler

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/iliyamo/cineplex-booking/internal/apperr"
)

// RequestValidator plugs validator/v10 into echo's c.Validate.
type RequestValidator struct {
	v *validator.Validate
}

func NewRequestValidator() *RequestValidator {
	return &RequestValidator{v: validator.New(validator.WithRequiredStructEnabled())}
}

func (r *RequestValidator) Validate(i any) error {
	err := r.v.Struct(i)
	if err == nil {
		return nil
	}
	var fields validator.ValidationErrors
	if errors.As(err, &fields) {
		msgs := make([]string, 0, len(fields))
		for _, f := range fields {
			msgs = append(msgs, fmt.Sprintf("%s failed %s", f.Field(), f.Tag()))
		}
		return apperr.InvalidArgument("validate", "%s", strings.Join(msgs, "; "))
	}
	return apperr.InvalidArgument("validate", "%v", err)
}

func bind(c echo.Context, req any) error {
	if err := c.Bind(req); err != nil {
		return apperr.InvalidArgument("bind", "invalid request body")
	}
	return c.Validate(req)
}

func statusFor(kind apperr.Kind) int {
	switch kind {
	case apperr.KindNotFound:
		return http.StatusNotFound
	case apperr.KindInvalidArgument:
		return http.StatusBadRequest
	case apperr.KindInvalidState, apperr.KindSchedulingConflict:
		return http.StatusConflict
	}
	return http.StatusInternalServerError
}

// fail writes err as {"error", "kind"}. Errors without a kind are logged
// and hidden behind a 500.
func fail(c echo.Context, log *zap.Logger, err error) error {
	kind, ok := apperr.KindOf(err)
	if !ok {
		log.Error("request failed",
			zap.String("method", c.Request().Method),
			zap.String("path", c.Path()),
			zap.Error(err),
		)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal error"})
	}
	return c.JSON(statusFor(kind), echo.Map{"error": err.Error(), "kind": kind})
}

func pathUUID(c echo.Context, name string) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		return uuid.Nil, apperr.InvalidArgument("path", "invalid %s", name)
	}
	return id, nil
}

// getUserID reads the subject the JWT middleware stored under "user_id".
func getUserID(c echo.Context) (uuid.UUID, error) {
	s, ok := c.Get("user_id").(string)
	if !ok {
		return uuid.Nil, errors.New("missing user_id in context")
	}
	return uuid.Parse(s)
}
