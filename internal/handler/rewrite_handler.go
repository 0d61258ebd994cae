package handler

import (
	"errors"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/writeright/essay-api/internal/dto"
	"github.com/writeright/essay-api/internal/service"
	"github.com/writeright/essay-api/internal/utils"
)

// RewriteHandler manages rewrite endpoints nested under submissions.
type RewriteHandler struct {
	service service.RewriteService
	logger  zerolog.Logger
}

// NewRewriteHandler builds a rewrite handler instance.
func NewRewriteHandler(service service.RewriteService, logger zerolog.Logger) *RewriteHandler {
	return &RewriteHandler{
		service: service,
		logger:  logger.With().Str("component", "rewrite_handler").Logger(),
	}
}

// Register attaches the routes to the provided submissions router group.
func (h *RewriteHandler) Register(router fiber.Router) {
	router.Get("/:id/rewrites", h.list)
	router.Post("/:id/rewrites", h.create)
}

func (h *RewriteHandler) list(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	rewrites, err := h.service.List(c.Context(), id)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "rewrites retrieved", rewrites)
}

func (h *RewriteHandler) create(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	var payload dto.RewriteCreateRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	rewrite, err := h.service.Create(c.Context(), id, payload)
	if err != nil {
		return h.handleError(c, err)
	}

	requestLogger(h.logger, c).Info().Uint("submission_id", id).Str("mode", payload.Mode).Msg("rewrite created")

	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "rewrite created", rewrite)
}

func (h *RewriteHandler) handleError(c *fiber.Ctx, err error) error {
	var validationErrors validator.ValidationErrors
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return utils.SendError(c, fiber.StatusNotFound, "submission not found")
	case errors.Is(err, service.ErrSubmissionNotEvaluated):
		return utils.SendError(c, fiber.StatusConflict, "submission has not been evaluated yet")
	case errors.As(err, &validationErrors):
		return utils.SendError(c, fiber.StatusBadRequest, validationErrors.Error())
	default:
		h.logger.Error().Err(err).Msg("internal server error")
		return utils.SendError(c, fiber.StatusInternalServerError, "internal server error")
	}
}
