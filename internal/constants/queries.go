package constants

const (
	CreateActivityLogTable = `
	CREATE TABLE IF NOT EXISTS activity_log (
		id          BIGSERIAL PRIMARY KEY,
		type        TEXT NOT NULL,
		user_id     TEXT NOT NULL,
		user_name   TEXT NOT NULL,
		target_id   TEXT,
		target_name TEXT,
		details     TEXT,
		created_at  TIMESTAMPTZ NOT NULL
	)
	`

	InsertActivityLog = `
	INSERT INTO activity_log (type, user_id, user_name, target_id, target_name, details, created_at)
	VALUES (:type, :user_id, :user_name, :target_id, :target_name, :details, :created_at)
	`

	SelectRecentActivityLog = `
	SELECT type, user_id, user_name, target_id, target_name, details, created_at
	FROM activity_log ORDER BY created_at DESC LIMIT $1
	`
)
