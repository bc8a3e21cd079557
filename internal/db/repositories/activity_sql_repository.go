package repositories

import (
	"context"

	"gatehouse/internal/constants"
	"gatehouse/internal/models/entities"

	"github.com/jmoiron/sqlx"
)

// ActivityLogSQLRepo mirrors activity entries into Postgres.
type ActivityLogSQLRepo struct {
	db *sqlx.DB
}

var _ ActivitySink = (*ActivityLogSQLRepo)(nil)

func NewActivityLogSQLRepo(db *sqlx.DB) *ActivityLogSQLRepo {
	return &ActivityLogSQLRepo{db}
}

func (r *ActivityLogSQLRepo) Append(ctx context.Context, entry entities.ActivityLogEntry) error {
	_, err := r.db.NamedExecContext(ctx, constants.InsertActivityLog, entry)
	return err
}

func (r *ActivityLogSQLRepo) Recent(ctx context.Context, limit int) ([]entities.ActivityLogEntry, error) {
	var entries []entities.ActivityLogEntry
	if err := r.db.SelectContext(ctx, &entries, constants.SelectRecentActivityLog, limit); err != nil {
		return nil, err
	}
	return entries, nil
}

func (r *ActivityLogSQLRepo) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}
