package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/classroom-api/internal/service"
	"github.com/noah-isme/classroom-api/internal/utils"
)

// ReportingHandler serves per-student statistics across activity kinds.
type ReportingHandler struct {
	service service.ReportingService
	logger  zerolog.Logger
}

// NewReportingHandler constructs the handler.
func NewReportingHandler(svc service.ReportingService, logger zerolog.Logger) *ReportingHandler {
	return &ReportingHandler{
		service: svc,
		logger:  logger.With().Str("component", "reporting_handler").Logger(),
	}
}

// Register attaches the statistics endpoint. The router is expected to be the /students group.
func (h *ReportingHandler) Register(router fiber.Router) {
	router.Get("/:studentId/statistics", h.statistics)
}

func (h *ReportingHandler) statistics(c *fiber.Ctx) error {
	studentID, err := parseUintParam(c, "studentId")
	if err != nil {
		return respondError(c, h.logger, err)
	}

	subjectID, err := parseOptionalUintQuery(c, "subject_id")
	if err != nil {
		return respondError(c, h.logger, err)
	}

	stats, err := h.service.StatisticsForStudent(c.UserContext(), studentID, subjectID)
	if err != nil {
		return respondError(c, h.logger, err)
	}

	return utils.SendSuccess(c, "student statistics retrieved", stats)
}
