package service

import (
	"context"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"gorm.io/datatypes"

	"github.com/edulearn-io/edulearn-go-api/internal/apperr"
	"github.com/edulearn-io/edulearn-go-api/internal/dto"
	"github.com/edulearn-io/edulearn-go-api/internal/models"
	"github.com/edulearn-io/edulearn-go-api/internal/repository"
)

// Actor identifies the authenticated user performing a workflow operation.
type Actor struct {
	ID   uint
	Role string
}

// newActivityLog builds the audit entry persisted alongside grading and
// review transitions.
func newActivityLog(actor Actor, action, entityType string, entityID uint, metadata map[string]interface{}) models.ActivityLog {
	id := entityID
	return models.ActivityLog{
		ActorID:    actor.ID,
		ActorRole:  strings.ToLower(strings.TrimSpace(actor.Role)),
		Action:     action,
		EntityType: entityType,
		EntityID:   &id,
		Metadata:   datatypes.JSONMap(metadata),
	}
}

// ActivityService exposes the audit trail to instructors.
type ActivityService interface {
	List(ctx context.Context, req dto.ActivityListRequest) (dto.ActivityListResponse, error)
}

type activityService struct {
	repo      repository.ActivityLogRepository
	validator *validator.Validate
	logger    zerolog.Logger
}

// NewActivityService constructs the audit trail service.
func NewActivityService(repo repository.ActivityLogRepository, validate *validator.Validate, logger zerolog.Logger) ActivityService {
	return &activityService{
		repo:      repo,
		validator: validate,
		logger:    logger.With().Str("component", "activity_service").Logger(),
	}
}

func (s *activityService) List(ctx context.Context, req dto.ActivityListRequest) (dto.ActivityListResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return dto.ActivityListResponse{}, apperr.Wrap(apperr.KindValidation, "invalid activity filter", err)
	}

	filter := repository.ActivityLogFilter{
		Page:       req.Page,
		PageSize:   req.PageSize,
		Action:     strings.ToLower(strings.TrimSpace(req.Action)),
		EntityType: strings.ToLower(strings.TrimSpace(req.EntityType)),
	}
	if filter.PageSize == 0 {
		filter.PageSize = 20
	}

	entries, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return dto.ActivityListResponse{}, err
	}

	items := make([]dto.ActivityResponse, 0, len(entries))
	for _, entry := range entries {
		items = append(items, dto.NewActivityResponse(entry))
	}

	return dto.ActivityListResponse{Items: items, Total: total}, nil
}
