package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/classroom-api/internal/dto"
	"github.com/noah-isme/classroom-api/internal/service"
	"github.com/noah-isme/classroom-api/internal/utils"
)

// SubjectHandler exposes the subject directory.
type SubjectHandler struct {
	service service.SubjectService
	logger  zerolog.Logger
}

// NewSubjectHandler constructs the handler.
func NewSubjectHandler(svc service.SubjectService, logger zerolog.Logger) *SubjectHandler {
	return &SubjectHandler{
		service: svc,
		logger:  logger.With().Str("component", "subject_handler").Logger(),
	}
}

// Register attaches subject routes.
func (h *SubjectHandler) Register(router fiber.Router) {
	router.Get("/", h.list)
	router.Post("/", h.create)
	router.Get("/:id", h.get)
}

func (h *SubjectHandler) list(c *fiber.Ctx) error {
	subjects, err := h.service.List(c.UserContext())
	if err != nil {
		return respondError(c, h.logger, err)
	}

	return utils.OK(c, subjects, "subjects retrieved", fiber.Map{"count": len(subjects)})
}

func (h *SubjectHandler) create(c *fiber.Ctx) error {
	var payload dto.SubjectCreateRequest
	if err := parseBody(c, &payload); err != nil {
		return respondError(c, h.logger, err)
	}

	subject, err := h.service.Create(c.UserContext(), payload)
	if err != nil {
		return respondError(c, h.logger, err)
	}

	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "subject created", subject)
}

func (h *SubjectHandler) get(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return respondError(c, h.logger, err)
	}

	subject, err := h.service.Get(c.UserContext(), id)
	if err != nil {
		return respondError(c, h.logger, err)
	}

	return utils.SendSuccess(c, "subject retrieved", subject)
}

// UserHandler exposes the user directory.
type UserHandler struct {
	service service.UserService
	logger  zerolog.Logger
}

// NewUserHandler constructs the handler.
func NewUserHandler(svc service.UserService, logger zerolog.Logger) *UserHandler {
	return &UserHandler{
		service: svc,
		logger:  logger.With().Str("component", "user_handler").Logger(),
	}
}

// Register attaches user routes.
func (h *UserHandler) Register(router fiber.Router) {
	router.Get("/", h.list)
	router.Post("/", h.create)
	router.Get("/:id", h.get)
}

func (h *UserHandler) list(c *fiber.Ctx) error {
	var filter dto.UserFilter
	if err := c.QueryParser(&filter); err != nil {
		return respondError(c, h.logger, &service.ValidationError{Problems: []service.FieldProblem{{Field: "query", Message: "could not be decoded"}}})
	}

	users, err := h.service.List(c.UserContext(), filter)
	if err != nil {
		return respondError(c, h.logger, err)
	}

	return utils.OK(c, users, "users retrieved", fiber.Map{"count": len(users)})
}

func (h *UserHandler) create(c *fiber.Ctx) error {
	var payload dto.UserCreateRequest
	if err := parseBody(c, &payload); err != nil {
		return respondError(c, h.logger, err)
	}

	user, err := h.service.Create(c.UserContext(), payload)
	if err != nil {
		return respondError(c, h.logger, err)
	}

	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "user created", user)
}

func (h *UserHandler) get(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return respondError(c, h.logger, err)
	}

	user, err := h.service.Get(c.UserContext(), id)
	if err != nil {
		return respondError(c, h.logger, err)
	}

	return utils.SendSuccess(c, "user retrieved", user)
}
