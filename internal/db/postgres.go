package db

import (
	"time"

	"gatehouse/internal/constants"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
)

// InitAuditDB connects to the Postgres database that mirrors the activity
// log and makes sure its table exists.
func InitAuditDB(dsn string) (*sqlx.DB, error) {
	var (
		conn *sqlx.DB
		err  error
	)

	for i := 0; i < 10; i++ {
		conn, err = sqlx.Connect("postgres", dsn)
		if err == nil {
			break
		}
		time.Sleep(500 * time.Millisecond)
	}
	if err != nil {
		return nil, err
	}

	if _, err := conn.Exec(constants.CreateActivityLogTable); err != nil {
		conn.Close()
		return nil, err
	}
	return conn, nil
}
