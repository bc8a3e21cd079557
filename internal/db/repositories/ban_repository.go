package repositories

import (
	"context"
	"fmt"

	"gatehouse/internal/constants"
	"gatehouse/internal/db"
	"gatehouse/internal/models/entities"
)

// BanListRepository manages one keyed list of BanEntry: the ban list or
// the blacklist.
type BanListRepository struct {
	cols *db.Collections
	name constants.CollectionName
}

func NewBanListRepository(cols *db.Collections, name constants.CollectionName) *BanListRepository {
	return &BanListRepository{cols: cols, name: name}
}

func (r *BanListRepository) Name() constants.CollectionName { return r.name }

func (r *BanListRepository) List(ctx context.Context) ([]entities.BanEntry, error) {
	return db.Read[entities.BanEntry](ctx, r.cols, r.name)
}

// Find returns the entry for discordID, or nil when there is none.
func (r *BanListRepository) Find(ctx context.Context, discordID string) (*entities.BanEntry, error) {
	entries, err := r.List(ctx)
	if err != nil {
		return nil, err
	}
	for i := range entries {
		if entries[i].DiscordID == discordID {
			return &entries[i], nil
		}
	}
	return nil, nil
}

// Upsert replaces any existing entry for the same discordId.
func (r *BanListRepository) Upsert(ctx context.Context, entry entities.BanEntry) error {
	return db.Mutate(ctx, r.cols, r.name, func(entries []entities.BanEntry) ([]entities.BanEntry, error) {
		for i := range entries {
			if entries[i].DiscordID == entry.DiscordID {
				entries[i] = entry
				return entries, nil
			}
		}
		return append(entries, entry), nil
	})
}

func (r *BanListRepository) Remove(ctx context.Context, discordID string) error {
	return db.Mutate(ctx, r.cols, r.name, func(entries []entities.BanEntry) ([]entities.BanEntry, error) {
		for i := range entries {
			if entries[i].DiscordID == discordID {
				return append(entries[:i], entries[i+1:]...), nil
			}
		}
		return nil, fmt.Errorf("%s entry %s: %w", r.name, discordID, constants.ErrNotFound)
	})
}
