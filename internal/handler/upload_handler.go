package handler

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/writeright/essay-api/internal/service"
	"github.com/writeright/essay-api/internal/utils"
)

// UploadHandler accepts batches of submission files.
type UploadHandler struct {
	service service.UploadService
	logger  zerolog.Logger
}

// NewUploadHandler builds an upload handler instance.
func NewUploadHandler(service service.UploadService, logger zerolog.Logger) *UploadHandler {
	return &UploadHandler{
		service: service,
		logger:  logger.With().Str("component", "upload_handler").Logger(),
	}
}

// Register attaches the routes to the provided router group.
func (h *UploadHandler) Register(router fiber.Router) {
	router.Get("", h.list)
	router.Post("", h.upload)
}

func (h *UploadHandler) list(c *fiber.Ctx) error {
	userID := userIDFromContext(c)
	if userID == nil {
		return utils.SendError(c, fiber.StatusUnauthorized, "authentication required")
	}

	records, err := h.service.ListByUser(c.Context(), *userID)
	if err != nil {
		h.logger.Error().Err(err).Msg("internal server error")
		return utils.SendError(c, fiber.StatusInternalServerError, "internal server error")
	}

	return utils.SendSuccess(c, "uploads retrieved", records)
}

func (h *UploadHandler) upload(c *fiber.Ctx) error {
	form, err := c.MultipartForm()
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "multipart form is required")
	}

	files := form.File["files"]
	if len(files) == 0 {
		return utils.SendError(c, fiber.StatusBadRequest, "at least one file is required")
	}

	response, err := h.service.UploadBatch(c.Context(), files, userIDFromContext(c))
	if err != nil {
		if errors.Is(err, service.ErrTooManyFiles) {
			return utils.SendError(c, fiber.StatusBadRequest, "too many files in one request")
		}
		h.logger.Error().Err(err).Msg("internal server error")
		return utils.SendError(c, fiber.StatusInternalServerError, "internal server error")
	}

	status := fiber.StatusOK
	if response.Rejected > 0 && response.Accepted > 0 {
		status = fiber.StatusMultiStatus
	} else if response.Rejected > 0 {
		status = fiber.StatusUnprocessableEntity
	}

	requestLogger(h.logger, c).Info().Int("accepted", response.Accepted).Int("rejected", response.Rejected).Msg("upload batch processed")

	return utils.SendSuccessWithStatus(c, status, "upload batch processed", response)
}
