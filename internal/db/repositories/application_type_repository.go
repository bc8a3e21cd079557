package repositories

import (
	"context"
	"fmt"

	"gatehouse/internal/constants"
	"gatehouse/internal/db"
	"gatehouse/internal/models/entities"
)

// ApplicationTypeRepository is CRUD over the application type registry.
type ApplicationTypeRepository struct {
	cols *db.Collections
}

func NewApplicationTypeRepository(cols *db.Collections) *ApplicationTypeRepository {
	return &ApplicationTypeRepository{cols: cols}
}

func (r *ApplicationTypeRepository) List(ctx context.Context) ([]entities.ApplicationType, error) {
	return db.Read[entities.ApplicationType](ctx, r.cols, constants.CollectionApplicationTypes)
}

// Get returns the type with id, or ErrNotFound.
func (r *ApplicationTypeRepository) Get(ctx context.Context, id string) (*entities.ApplicationType, error) {
	types, err := r.List(ctx)
	if err != nil {
		return nil, err
	}
	for i := range types {
		if types[i].ID == id {
			return &types[i], nil
		}
	}
	return nil, fmt.Errorf("application type %s: %w", id, constants.ErrNotFound)
}

func (r *ApplicationTypeRepository) Create(ctx context.Context, t entities.ApplicationType) error {
	return db.Mutate(ctx, r.cols, constants.CollectionApplicationTypes, func(types []entities.ApplicationType) ([]entities.ApplicationType, error) {
		for _, existing := range types {
			if existing.ID == t.ID {
				return nil, fmt.Errorf("application type %s: %w", t.ID, constants.ErrConflict)
			}
		}
		return append(types, t), nil
	})
}

// Update merges patch into the stored type and returns the result.
func (r *ApplicationTypeRepository) Update(ctx context.Context, id string, patch entities.ApplicationTypePatch) (*entities.ApplicationType, error) {
	var updated entities.ApplicationType
	err := db.Mutate(ctx, r.cols, constants.CollectionApplicationTypes, func(types []entities.ApplicationType) ([]entities.ApplicationType, error) {
		for i := range types {
			if types[i].ID == id {
				patch.Apply(&types[i])
				updated = types[i]
				return types, nil
			}
		}
		return nil, fmt.Errorf("application type %s: %w", id, constants.ErrNotFound)
	})
	if err != nil {
		return nil, err
	}
	return &updated, nil
}

func (r *ApplicationTypeRepository) Delete(ctx context.Context, id string) error {
	return db.Mutate(ctx, r.cols, constants.CollectionApplicationTypes, func(types []entities.ApplicationType) ([]entities.ApplicationType, error) {
		for i := range types {
			if types[i].ID == id {
				return append(types[:i], types[i+1:]...), nil
			}
		}
		return nil, fmt.Errorf("application type %s: %w", id, constants.ErrNotFound)
	})
}
