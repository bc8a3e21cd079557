package services

import (
	"context"
	"strings"

	"gatehouse/internal/constants"
	"gatehouse/internal/db/repositories"
	"gatehouse/internal/models/entities"
)

// ApplicationTypeService is the type registry. Deleting a type leaves
// applications that reference it untouched.
type ApplicationTypeService struct {
	repo     *repositories.ApplicationTypeRepository
	activity *ActivityService
}

func NewApplicationTypeService(repo *repositories.ApplicationTypeRepository, activity *ActivityService) *ApplicationTypeService {
	return &ApplicationTypeService{repo: repo, activity: activity}
}

func (s *ApplicationTypeService) List(ctx context.Context) ([]entities.ApplicationType, error) {
	return s.repo.List(ctx)
}

func (s *ApplicationTypeService) Get(ctx context.Context, id string) (*entities.ApplicationType, error) {
	return s.repo.Get(ctx, id)
}

func (s *ApplicationTypeService) Create(ctx context.Context, t entities.ApplicationType, actor entities.Reviewer) (*entities.ApplicationType, error) {
	t.ID = strings.TrimSpace(t.ID)
	if err := t.Validate(); err != nil {
		return nil, err
	}
	if err := s.repo.Create(ctx, t); err != nil {
		return nil, err
	}

	s.activity.Record(ctx, ActivityEvent{
		Type:       constants.ActivityTypeCreated,
		UserID:     actor.ID,
		UserName:   actor.Username,
		TargetID:   t.ID,
		TargetName: t.Name,
	})
	return &t, nil
}

// Update overwrites only the fields present in patch.
func (s *ApplicationTypeService) Update(ctx context.Context, id string, patch entities.ApplicationTypePatch, actor entities.Reviewer) (*entities.ApplicationType, error) {
	if err := patch.Validate(); err != nil {
		return nil, err
	}
	updated, err := s.repo.Update(ctx, id, patch)
	if err != nil {
		return nil, err
	}

	s.activity.Record(ctx, ActivityEvent{
		Type:       constants.ActivityTypeUpdated,
		UserID:     actor.ID,
		UserName:   actor.Username,
		TargetID:   id,
		TargetName: updated.Name,
	})
	return updated, nil
}

func (s *ApplicationTypeService) Delete(ctx context.Context, id string, actor entities.Reviewer) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}

	s.activity.Record(ctx, ActivityEvent{
		Type:     constants.ActivityTypeDeleted,
		UserID:   actor.ID,
		UserName: actor.Username,
		TargetID: id,
	})
	return nil
}
