package handler

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/edulearn-io/edulearn-go-api/internal/dto"
	"github.com/edulearn-io/edulearn-go-api/internal/service"
	"github.com/edulearn-io/edulearn-go-api/internal/utils"
)

// ActivityHandler exposes the workflow audit trail to instructors.
type ActivityHandler struct {
	service service.ActivityService
	logger  zerolog.Logger
}

// NewActivityHandler builds an activity handler instance.
func NewActivityHandler(service service.ActivityService, logger zerolog.Logger) *ActivityHandler {
	return &ActivityHandler{
		service: service,
		logger:  logger.With().Str("component", "activity_handler").Logger(),
	}
}

// Register attaches the routes to the provided router group.
func (h *ActivityHandler) Register(router fiber.Router) {
	router.Get("", h.list)
}

func (h *ActivityHandler) list(c *fiber.Ctx) error {
	req := dto.ActivityListRequest{
		Action:     strings.TrimSpace(c.Query("action")),
		EntityType: strings.TrimSpace(c.Query("entity_type")),
	}
	if page, err := parseQueryInt(c, "page"); err == nil {
		req.Page = page
	}
	if pageSize, err := parseQueryInt(c, "page_size"); err == nil {
		req.PageSize = pageSize
	}

	result, err := h.service.List(c.UserContext(), req)
	if err != nil {
		return handleError(c, h.logger, err)
	}

	return utils.SendSuccess(c, "activity retrieved", result)
}
