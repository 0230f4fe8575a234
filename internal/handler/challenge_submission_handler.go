package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/edulearn-io/edulearn-go-api/internal/dto"
	"github.com/edulearn-io/edulearn-go-api/internal/service"
	"github.com/edulearn-io/edulearn-go-api/internal/utils"
)

// ChallengeSubmissionHandler exposes the challenge submission workflow.
type ChallengeSubmissionHandler struct {
	service service.ChallengeSubmissionService
	logger  zerolog.Logger
}

// NewChallengeSubmissionHandler builds a challenge submission handler instance.
func NewChallengeSubmissionHandler(service service.ChallengeSubmissionService, logger zerolog.Logger) *ChallengeSubmissionHandler {
	return &ChallengeSubmissionHandler{
		service: service,
		logger:  logger.With().Str("component", "challenge_submission_handler").Logger(),
	}
}

// RegisterChallengeRoutes attaches the challenge-scoped routes.
func (h *ChallengeSubmissionHandler) RegisterChallengeRoutes(router fiber.Router) {
	router.Post("/:id/submissions", h.create)
	router.Get("/:id/submissions", h.listByChallenge)
}

// Register attaches the submission-scoped routes.
func (h *ChallengeSubmissionHandler) Register(router fiber.Router) {
	router.Get("/mine", h.listMine)
	router.Get("/:id", h.get)
	router.Patch("/:id", h.edit)
	router.Post("/:id/review", h.review)
	router.Delete("/:id", h.delete)
}

func (h *ChallengeSubmissionHandler) create(c *fiber.Ctx) error {
	challengeID, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	file, err := c.FormFile("file")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "file is required")
	}

	submission, err := h.service.Submit(c.UserContext(), challengeID, userIDFromContext(c), file)
	if err != nil {
		return handleError(c, h.logger, err)
	}

	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "submission created", submission)
}

func (h *ChallengeSubmissionHandler) listByChallenge(c *fiber.Ctx) error {
	challengeID, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	submissions, err := h.service.ListByChallenge(c.UserContext(), challengeID, userIDFromContext(c))
	if err != nil {
		return handleError(c, h.logger, err)
	}

	return utils.SendSuccess(c, "submissions retrieved", submissions)
}

func (h *ChallengeSubmissionHandler) listMine(c *fiber.Ctx) error {
	submissions, err := h.service.ListMine(c.UserContext(), userIDFromContext(c))
	if err != nil {
		return handleError(c, h.logger, err)
	}

	return utils.SendSuccess(c, "submissions retrieved", submissions)
}

func (h *ChallengeSubmissionHandler) get(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	submission, err := h.service.Get(c.UserContext(), id, userIDFromContext(c))
	if err != nil {
		return handleError(c, h.logger, err)
	}

	return utils.SendSuccess(c, "submission retrieved", submission)
}

func (h *ChallengeSubmissionHandler) edit(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	file, err := c.FormFile("file")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "file is required")
	}

	submission, err := h.service.Edit(c.UserContext(), id, userIDFromContext(c), file)
	if err != nil {
		return handleError(c, h.logger, err)
	}

	return utils.SendSuccess(c, "submission updated", submission)
}

func (h *ChallengeSubmissionHandler) review(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	var payload dto.ChallengeReviewRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	submission, err := h.service.Review(c.UserContext(), id, payload, actorFromContext(c))
	if err != nil {
		return handleError(c, h.logger, err)
	}

	return utils.SendSuccess(c, "submission reviewed", submission)
}

func (h *ChallengeSubmissionHandler) delete(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	if err := h.service.Delete(c.UserContext(), id, userIDFromContext(c)); err != nil {
		return handleError(c, h.logger, err)
	}

	return utils.SendSuccess(c, "submission deleted", nil)
}
