package handler

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/edulearn-io/edulearn-go-api/internal/service"
	"github.com/edulearn-io/edulearn-go-api/internal/utils"
)

// PodiumHandler exposes the leaderboard views.
type PodiumHandler struct {
	service service.PodiumService
	logger  zerolog.Logger
}

// NewPodiumHandler builds a podium handler instance.
func NewPodiumHandler(service service.PodiumService, logger zerolog.Logger) *PodiumHandler {
	return &PodiumHandler{
		service: service,
		logger:  logger.With().Str("component", "podium_handler").Logger(),
	}
}

// Register attaches the routes to the provided router group.
func (h *PodiumHandler) Register(router fiber.Router) {
	router.Get("/courses/:courseId/me", h.myPosition)
	router.Get("/courses/:courseId", h.byCourse)
	router.Get("/levels/:level", h.byLevel)
}

func (h *PodiumHandler) byCourse(c *fiber.Ctx) error {
	courseID, err := parseUintParam(c, "courseId")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	rows, err := h.service.PodiumByCourse(c.UserContext(), courseID, userIDFromContext(c))
	if err != nil {
		return handleError(c, h.logger, err)
	}

	return utils.SendSuccess(c, "podium retrieved", rows)
}

func (h *PodiumHandler) byLevel(c *fiber.Ctx) error {
	level := strings.TrimSpace(c.Params("level"))
	if level == "" {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid level")
	}

	rows, err := h.service.PodiumByLevel(c.UserContext(), level, userIDFromContext(c))
	if err != nil {
		return handleError(c, h.logger, err)
	}

	return utils.SendSuccess(c, "podium retrieved", rows)
}

func (h *PodiumHandler) myPosition(c *fiber.Ctx) error {
	courseID, err := parseUintParam(c, "courseId")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	row, err := h.service.StudentPosition(c.UserContext(), courseID, userIDFromContext(c))
	if err != nil {
		return handleError(c, h.logger, err)
	}

	return utils.SendSuccess(c, "position retrieved", row)
}
