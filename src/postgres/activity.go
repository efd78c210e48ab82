package postgres

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/pkg/errors"
)

const activitySchema = `CREATE TABLE IF NOT EXISTS activity (
	id        BIGSERIAL PRIMARY KEY,
	account   TEXT NOT NULL DEFAULT '',
	kind      TEXT NOT NULL,
	message   TEXT NOT NULL,
	timestamp TIMESTAMPTZ NOT NULL
)`

type ActivityEntry struct {
	Account   string
	Kind      string
	Message   string
	Timestamp time.Time
}

func EnsureActivitySchema(ctx context.Context) error {
	return errors.Wrap(DoExec(ctx, activitySchema), "failed creating activity table")
}

func PutActivity(ctx context.Context, entry ActivityEntry) error {
	return DoQuery(ctx, func(conn *pgx.Conn) error {
		_, err := conn.Exec(ctx, `INSERT into activity(account, kind, message, timestamp)
			VALUES ($1, $2, $3, $4)`,
			entry.Account, entry.Kind, entry.Message, entry.Timestamp.UTC())
		if err != nil {
			return errors.Wrap(err, "failed to record activity")
		}
		return nil
	})
}

// GetRecentActivity returns the newest entries first. An empty account returns every account.
func GetRecentActivity(ctx context.Context, account string, limit int) ([]ActivityEntry, error) {
	var fetched []ActivityEntry
	return fetched, DoQuery(ctx, func(conn *pgx.Conn) error {
		rows, err := conn.Query(ctx,
			`SELECT account, kind, message, timestamp FROM activity
			 WHERE $1 = '' OR account = $1
			 ORDER BY timestamp DESC LIMIT $2`, account, limit)
		if err != nil {
			return errors.Wrap(err, "failed to fetch activity")
		}
		defer rows.Close()
		for rows.Next() {
			entry := ActivityEntry{}
			if err := rows.Scan(&entry.Account, &entry.Kind, &entry.Message, &entry.Timestamp); err != nil {
				return errors.Wrap(err, "failed unmarshalling activity")
			}
			fetched = append(fetched, entry)
		}
		return rows.Err()
	})
}

// PruneActivity keeps the newest `keep` rows
func PruneActivity(ctx context.Context, keep int) error {
	return errors.Wrap(DoExec(ctx, `DELETE FROM activity WHERE id NOT IN
			(SELECT id FROM activity ORDER BY timestamp DESC LIMIT $1)`, keep), "failed pruning activity")
}
