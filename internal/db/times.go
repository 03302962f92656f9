package db

import (
	"database/sql"
	"time"
)

// Timestamps are stored as unix seconds on every engine.

func UnixTime(sec int64) time.Time { return time.Unix(sec, 0).UTC() }

func NullUnixTime(v sql.NullInt64) *time.Time {
	if !v.Valid {
		return nil
	}
	t := UnixTime(v.Int64)
	return &t
}
