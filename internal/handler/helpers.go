package handler

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/classroom-api/internal/middleware"
	"github.com/noah-isme/classroom-api/internal/service"
	"github.com/noah-isme/classroom-api/internal/utils"
)

// Stable error codes returned in the response envelope.
const (
	codeValidation       = "validation_error"
	codeNotFound         = "not_found"
	codeAlreadySubmitted = "already_submitted"
	codeStorage          = "storage_error"
	codeInternal         = "internal_error"
)

func parseUintParam(c *fiber.Ctx, name string) (uint, error) {
	parsed, err := strconv.ParseUint(strings.TrimSpace(c.Params(name)), 10, 64)
	if err != nil || parsed == 0 {
		return 0, &service.ValidationError{Problems: []service.FieldProblem{{Field: name, Message: "must be a positive integer"}}}
	}
	return uint(parsed), nil
}

func parseOptionalUintQuery(c *fiber.Ctx, name string) (*uint, error) {
	raw := strings.TrimSpace(c.Query(name))
	if raw == "" {
		return nil, nil
	}
	parsed, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || parsed == 0 {
		return nil, &service.ValidationError{Problems: []service.FieldProblem{{Field: name, Message: "must be a positive integer"}}}
	}
	value := uint(parsed)
	return &value, nil
}

func parseBody(c *fiber.Ctx, target interface{}) error {
	if err := c.BodyParser(target); err != nil {
		return &service.ValidationError{Problems: []service.FieldProblem{{Field: "body", Message: fmt.Sprintf("could not be decoded: %v", err)}}}
	}
	return nil
}

func requestLogger(base zerolog.Logger, c *fiber.Ctx) *zerolog.Logger {
	logger := base
	if correlation := middleware.GetCorrelationID(c); correlation != "" {
		logger = base.With().Str("correlation_id", correlation).Logger()
	}
	return &logger
}

// respondError maps domain errors to status codes and stable error codes.
func respondError(c *fiber.Ctx, logger zerolog.Logger, err error) error {
	var validationErr *service.ValidationError
	switch {
	case errors.As(err, &validationErr):
		return utils.FailWithCode(c, fiber.StatusBadRequest, codeValidation, "validation failed", validationErr.Problems)
	case errors.Is(err, service.ErrActivityNotFound),
		errors.Is(err, service.ErrSubjectNotFound),
		errors.Is(err, service.ErrStudentNotFound),
		errors.Is(err, service.ErrUserNotFound):
		return utils.FailWithCode(c, fiber.StatusNotFound, codeNotFound, err.Error(), nil)
	case errors.Is(err, service.ErrAlreadySubmitted):
		return utils.FailWithCode(c, fiber.StatusConflict, codeAlreadySubmitted, "activity already submitted by this student", nil)
	case errors.Is(err, service.ErrStorage):
		requestLogger(logger, c).Error().Err(err).Msg("storage failure")
		return utils.FailWithCode(c, fiber.StatusServiceUnavailable, codeStorage, "storage temporarily unavailable, retry later", nil)
	default:
		requestLogger(logger, c).Error().Err(err).Msg("internal server error")
		return utils.FailWithCode(c, fiber.StatusInternalServerError, codeInternal, "internal server error", nil)
	}
}
