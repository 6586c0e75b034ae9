package database

import (
	"context"
	"encoding/json"
)

const upsertProfileRecord = `-- name: UpsertProfileRecord :exec
INSERT INTO profile_records (
key, value)
VALUES ( $1, $2)
ON CONFLICT (key)
DO UPDATE SET
    value = EXCLUDED.value,
    updated_at = CURRENT_TIMESTAMP
`

type UpsertProfileRecordParams struct {
	Key   string
	Value json.RawMessage
}

func (q *Queries) UpsertProfileRecord(ctx context.Context, arg UpsertProfileRecordParams) error {
	_, err := q.db.ExecContext(ctx, upsertProfileRecord, arg.Key, arg.Value)
	return err
}

const getProfileRecord = `-- name: GetProfileRecord :one
SELECT key, value, created_at, updated_at FROM profile_records WHERE key=$1
`

func (q *Queries) GetProfileRecord(ctx context.Context, key string) (ProfileRecord, error) {
	row := q.db.QueryRowContext(ctx, getProfileRecord, key)
	var i ProfileRecord
	err := row.Scan(
		&i.Key,
		&i.Value,
		&i.CreatedAt,
		&i.UpdatedAt,
	)
	return i, err
}
