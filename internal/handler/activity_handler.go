package handler

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/classroom-api/internal/dto"
	"github.com/noah-isme/classroom-api/internal/middleware"
	"github.com/noah-isme/classroom-api/internal/service"
	"github.com/noah-isme/classroom-api/internal/utils"
)

// ActivityHandler wires the routes of one activity kind.
type ActivityHandler struct {
	service     service.ActivityService
	submitGuard fiber.Handler
	label       string
	logger      zerolog.Logger
}

// NewActivityHandler constructs the handler. submitGuard runs before submissions and may be nil.
func NewActivityHandler(svc service.ActivityService, submitGuard fiber.Handler, logger zerolog.Logger) *ActivityHandler {
	if submitGuard == nil {
		submitGuard = func(c *fiber.Ctx) error { return c.Next() }
	}

	kind := string(svc.Kind())
	return &ActivityHandler{
		service:     svc,
		submitGuard: submitGuard,
		label:       kind,
		logger:      logger.With().Str("component", kind+"_handler").Logger(),
	}
}

// Register attaches the activity endpoints to the router group.
func (h *ActivityHandler) Register(router fiber.Router) {
	router.Post("/", h.create)
	router.Get("/bysubject/:subjectId", h.listBySubject)
	router.Get("/scores/:studentId", h.studentScores)
	router.Get("/:id", h.get)
	router.Put("/:id", h.update)
	router.Delete("/:id", h.delete)
	router.Get("/:id/scores", h.scores)
	router.Post("/:id/take", h.submitGuard, h.take)
	router.Post("/:id/check", h.check)
}

func (h *ActivityHandler) create(c *fiber.Ctx) error {
	var payload dto.ActivityCreateRequest
	if err := parseBody(c, &payload); err != nil {
		return respondError(c, h.logger, err)
	}

	activity, err := h.service.Create(c.UserContext(), payload)
	if err != nil {
		return respondError(c, h.logger, err)
	}

	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, h.label+" created", activity)
}

func (h *ActivityHandler) listBySubject(c *fiber.Ctx) error {
	subjectID, err := parseUintParam(c, "subjectId")
	if err != nil {
		return respondError(c, h.logger, err)
	}

	activities, err := h.service.ListBySubject(c.UserContext(), subjectID)
	if err != nil {
		return respondError(c, h.logger, err)
	}

	return utils.OK(c, activities, h.label+" list retrieved", fiber.Map{"count": len(activities)})
}

func (h *ActivityHandler) get(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return respondError(c, h.logger, err)
	}

	view := dto.ActivityViewFull
	switch strings.ToLower(strings.TrimSpace(c.Query("view"))) {
	case "", string(dto.ActivityViewFull):
	case string(dto.ActivityViewStudent):
		view = dto.ActivityViewStudent
	default:
		return respondError(c, h.logger, &service.ValidationError{Problems: []service.FieldProblem{{Field: "view", Message: "must be one of: full student"}}})
	}

	activity, err := h.service.Get(c.UserContext(), id, view)
	if err != nil {
		return respondError(c, h.logger, err)
	}

	return utils.SendSuccess(c, h.label+" retrieved", activity)
}

func (h *ActivityHandler) update(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return respondError(c, h.logger, err)
	}

	var payload dto.ActivityUpdateRequest
	if err := parseBody(c, &payload); err != nil {
		return respondError(c, h.logger, err)
	}

	activity, err := h.service.Update(c.UserContext(), id, payload)
	if err != nil {
		return respondError(c, h.logger, err)
	}

	return utils.SendSuccess(c, h.label+" updated", activity)
}

func (h *ActivityHandler) delete(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return respondError(c, h.logger, err)
	}

	if err := h.service.Delete(c.UserContext(), id); err != nil {
		return respondError(c, h.logger, err)
	}

	return utils.SendSuccess(c, h.label+" deleted", fiber.Map{"id": id})
}

func (h *ActivityHandler) scores(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return respondError(c, h.logger, err)
	}

	scores, err := h.service.Scores(c.UserContext(), id)
	if err != nil {
		return respondError(c, h.logger, err)
	}

	return utils.OK(c, scores, "scores retrieved", fiber.Map{"count": len(scores)})
}

func (h *ActivityHandler) studentScores(c *fiber.Ctx) error {
	studentID, err := parseUintParam(c, "studentId")
	if err != nil {
		return respondError(c, h.logger, err)
	}

	scores, err := h.service.ScoresForStudent(c.UserContext(), studentID)
	if err != nil {
		return respondError(c, h.logger, err)
	}

	return utils.OK(c, scores, "student scores retrieved", fiber.Map{"count": len(scores)})
}

func (h *ActivityHandler) take(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return respondError(c, h.logger, err)
	}

	var payload dto.SubmitAttemptRequest
	if err := parseBody(c, &payload); err != nil {
		return respondError(c, h.logger, err)
	}
	if payload.StudentID == 0 {
		payload.StudentID = middleware.UserID(c)
	}

	result, err := h.service.Submit(c.UserContext(), id, payload)
	if err != nil {
		return respondError(c, h.logger, err)
	}

	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, h.label+" submitted", result)
}

func (h *ActivityHandler) check(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return respondError(c, h.logger, err)
	}

	var payload dto.CheckAttemptRequest
	if len(c.Body()) > 0 {
		if err := parseBody(c, &payload); err != nil {
			return respondError(c, h.logger, err)
		}
	}
	if payload.StudentID == 0 {
		payload.StudentID = middleware.UserID(c)
	}

	result, err := h.service.HasAttempted(c.UserContext(), id, payload)
	if err != nil {
		return respondError(c, h.logger, err)
	}

	return utils.SendSuccess(c, "attempt status retrieved", result)
}
