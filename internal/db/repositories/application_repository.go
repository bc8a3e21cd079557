package repositories

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"gatehouse/internal/constants"
	"gatehouse/internal/db"
	"gatehouse/internal/models/entities"
)

// Location says which collection an application was found in.
type Location int

const (
	LocationActive Location = iota
	LocationArchived
)

func (l Location) String() string {
	if l == LocationArchived {
		return "archived"
	}
	return "active"
}

// ApplicationRepository owns the active and archived application collections.
type ApplicationRepository struct {
	cols *db.Collections
	now  func() time.Time
}

func NewApplicationRepository(cols *db.Collections, now func() time.Time) *ApplicationRepository {
	if now == nil {
		now = time.Now
	}
	return &ApplicationRepository{cols: cols, now: now}
}

func (r *ApplicationRepository) ListActive(ctx context.Context) ([]entities.Application, error) {
	return db.Read[entities.Application](ctx, r.cols, constants.CollectionApplications)
}

func (r *ApplicationRepository) ListArchived(ctx context.Context) ([]entities.Application, error) {
	return db.Read[entities.Application](ctx, r.cols, constants.CollectionArchive)
}

// Append stores a new application, filling in id, timestamp and defaults.
func (r *ApplicationRepository) Append(ctx context.Context, app *entities.Application) error {
	return r.AppendIf(ctx, app, nil)
}

// AppendIf is Append with a guard that sees the active collection under
// the write lock. A guard error aborts the append and is returned as is.
func (r *ApplicationRepository) AppendIf(
	ctx context.Context,
	app *entities.Application,
	guard func(active []entities.Application) error,
) error {
	return db.Mutate(ctx, r.cols, constants.CollectionApplications, func(active []entities.Application) ([]entities.Application, error) {
		if guard != nil {
			if err := guard(active); err != nil {
				return nil, err
			}
		}
		if app.ID == "" {
			// Lock order: applications before archived-applications, same as Move.
			archived, err := db.Read[entities.Application](ctx, r.cols, constants.CollectionArchive)
			if err != nil {
				return nil, err
			}
			app.ID = nextApplicationID(r.now(), active, archived)
		} else if indexOf(active, app.ID) >= 0 {
			return nil, fmt.Errorf("%w: application %s already exists", constants.ErrConflict, app.ID)
		}

		if app.Timestamp.IsZero() {
			app.Timestamp = r.now()
		}
		if app.Status == "" {
			app.Status = constants.StatusPending
		}
		if app.Priority == "" {
			app.Priority = constants.PriorityNormal
		}
		if app.ApplicationType == "" {
			app.ApplicationType = constants.DefaultApplicationType
		}
		return append(active, *app), nil
	})
}

// Find scans the active collection, then the archive.
func (r *ApplicationRepository) Find(ctx context.Context, id string) (*entities.Application, Location, error) {
	active, err := r.ListActive(ctx)
	if err != nil {
		return nil, LocationActive, err
	}
	if i := indexOf(active, id); i >= 0 {
		return &active[i], LocationActive, nil
	}

	archived, err := r.ListArchived(ctx)
	if err != nil {
		return nil, LocationActive, err
	}
	if i := indexOf(archived, id); i >= 0 {
		return &archived[i], LocationArchived, nil
	}
	return nil, LocationActive, fmt.Errorf("application %s: %w", id, constants.ErrNotFound)
}

// Update applies mutate to the application in whichever collection owns it.
func (r *ApplicationRepository) Update(
	ctx context.Context,
	id string,
	mutate func(*entities.Application) error,
) (*entities.Application, Location, error) {
	for _, loc := range []Location{LocationActive, LocationArchived} {
		updated, err := r.updateIn(ctx, collectionFor(loc), id, mutate)
		if err == nil {
			return updated, loc, nil
		}
		if !errors.Is(err, errNotInCollection) {
			return nil, loc, err
		}
	}
	return nil, LocationActive, fmt.Errorf("application %s: %w", id, constants.ErrNotFound)
}

var errNotInCollection = errors.New("not in collection")

func (r *ApplicationRepository) updateIn(
	ctx context.Context,
	name constants.CollectionName,
	id string,
	mutate func(*entities.Application) error,
) (*entities.Application, error) {
	var updated entities.Application
	err := db.Mutate(ctx, r.cols, name, func(apps []entities.Application) ([]entities.Application, error) {
		i := indexOf(apps, id)
		if i < 0 {
			return nil, errNotInCollection
		}
		if err := mutate(&apps[i]); err != nil {
			return nil, err
		}
		apps[i].ID = id
		updated = apps[i]
		return apps, nil
	})
	if err != nil {
		return nil, err
	}
	return &updated, nil
}

// Move removes a pending application from the active collection, applies
// stamp, and appends it to the archive. An id that is already archived is
// a leftover of an interrupted move: the active copy is dropped and
// ErrConflict is returned.
func (r *ApplicationRepository) Move(
	ctx context.Context,
	id string,
	stamp func(*entities.Application) error,
) (*entities.Application, error) {
	var (
		moved     entities.Application
		staleCopy bool
	)
	err := db.MutatePair(ctx, r.cols, constants.CollectionApplications, constants.CollectionArchive,
		func(active, archived []entities.Application) ([]entities.Application, []entities.Application, error) {
			staleCopy = false
			i := indexOf(active, id)
			if i < 0 {
				return nil, nil, fmt.Errorf("application %s: %w", id, constants.ErrNotFound)
			}

			remaining := make([]entities.Application, 0, len(active)-1)
			remaining = append(remaining, active[:i]...)
			remaining = append(remaining, active[i+1:]...)

			if indexOf(archived, id) >= 0 {
				staleCopy = true
				return remaining, archived, nil
			}

			moved = active[i]
			if err := stamp(&moved); err != nil {
				return nil, nil, err
			}
			moved.ID = id
			return remaining, append(archived, moved), nil
		})
	if err != nil {
		return nil, err
	}
	if staleCopy {
		return nil, fmt.Errorf("%w: %s", constants.ErrConflict, constants.MsgAlreadyReviewed)
	}
	return &moved, nil
}

// BulkUpdate applies mutate to every active application in ids within one
// read-modify-write cycle. Unknown ids are returned in notFound.
func (r *ApplicationRepository) BulkUpdate(
	ctx context.Context,
	ids []string,
	mutate func(*entities.Application),
) (updated int, notFound []string, err error) {
	err = db.Mutate(ctx, r.cols, constants.CollectionApplications, func(active []entities.Application) ([]entities.Application, error) {
		updated, notFound = 0, nil
		for _, id := range ids {
			i := indexOf(active, id)
			if i < 0 {
				notFound = append(notFound, id)
				continue
			}
			mutate(&active[i])
			active[i].ID = id
			updated++
		}
		return active, nil
	})
	return updated, notFound, err
}

// BulkArchive moves every active application in ids to the archive,
// stamping archivedAt. Order in the active collection is preserved for the
// rest.
func (r *ApplicationRepository) BulkArchive(
	ctx context.Context,
	ids []string,
	stamp func(*entities.Application),
) (moved []entities.Application, notFound []string, err error) {
	wanted := make(map[string]bool, len(ids))
	for _, id := range ids {
		wanted[id] = true
	}

	err = db.MutatePair(ctx, r.cols, constants.CollectionApplications, constants.CollectionArchive,
		func(active, archived []entities.Application) ([]entities.Application, []entities.Application, error) {
			moved, notFound = nil, nil
			remaining := make([]entities.Application, 0, len(active))
			found := make(map[string]bool, len(ids))
			now := r.now()
			alreadyArchived := make(map[string]bool, len(archived))
			for _, app := range archived {
				alreadyArchived[app.ID] = true
			}

			for _, app := range active {
				if !wanted[app.ID] {
					remaining = append(remaining, app)
					continue
				}
				found[app.ID] = true
				if alreadyArchived[app.ID] {
					// Stale copy from an interrupted move.
					continue
				}
				app.ArchivedAt = &now
				if stamp != nil {
					stamp(&app)
				}
				moved = append(moved, app)
			}
			for _, id := range ids {
				if !found[id] {
					notFound = append(notFound, id)
				}
			}
			return remaining, append(archived, moved...), nil
		})
	return moved, notFound, err
}

// ByUser returns the user's applications from both collections.
func (r *ApplicationRepository) ByUser(ctx context.Context, userID string) (active, archived []entities.Application, err error) {
	all, err := r.ListActive(ctx)
	if err != nil {
		return nil, nil, err
	}
	old, err := r.ListArchived(ctx)
	if err != nil {
		return nil, nil, err
	}

	active = filterByUser(all, userID)
	archived = filterByUser(old, userID)
	return active, archived, nil
}

func filterByUser(apps []entities.Application, userID string) []entities.Application {
	out := []entities.Application{}
	for _, a := range apps {
		if a.Discord.ID == userID {
			out = append(out, a)
		}
	}
	return out
}

func collectionFor(loc Location) constants.CollectionName {
	if loc == LocationArchived {
		return constants.CollectionArchive
	}
	return constants.CollectionApplications
}

func indexOf(apps []entities.Application, id string) int {
	for i := range apps {
		if apps[i].ID == id {
			return i
		}
	}
	return -1
}

// nextApplicationID derives an id from the submission time in milliseconds,
// stepping forward until it collides with nothing in either collection.
func nextApplicationID(now time.Time, active, archived []entities.Application) string {
	taken := make(map[string]struct{}, len(active)+len(archived))
	for _, a := range active {
		taken[a.ID] = struct{}{}
	}
	for _, a := range archived {
		taken[a.ID] = struct{}{}
	}

	ms := now.UnixMilli()
	for {
		id := strconv.FormatInt(ms, 10)
		if _, ok := taken[id]; !ok {
			return id
		}
		ms++
	}
}
