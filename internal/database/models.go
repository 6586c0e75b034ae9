package database

import (
	"encoding/json"
	"time"
)

type ProfileRecord struct {
	Key       string
	Value     json.RawMessage
	CreatedAt time.Time
	UpdatedAt time.Time
}
