package activity

import (
	"context"
	"database/sql"
	"time"

	"cryptex-node/types"
	"cryptex-node/utils"

	logging "github.com/ipfs/go-log/v2"
	_ "github.com/mattn/go-sqlite3"
)

var log = logging.Logger("activity")

const DefaultListLimit = 20

// activity service is the append-only audit trail of coordinator decisions.
// Sequence ids come from sqlite AUTOINCREMENT: strictly increasing, never
// reused, even across deletions (there are none) or restarts.
type ActivitySvcApi interface {
	Append(ctx context.Context, entry *types.ActivityEntry) (int64, error)
	ListByAddress(ctx context.Context, address string, limit int) ([]types.ActivityEntry, error)
}

type ActivitySvc struct {
	db *sql.DB
}

func NewActivitySvc(db *sql.DB) (*ActivitySvc, error) {
	_, err := db.Exec(`CREATE TABLE IF NOT EXISTS ACTIVITY (
		ID INTEGER PRIMARY KEY AUTOINCREMENT,
		KIND TEXT NOT NULL,
		ASSET TEXT NOT NULL,
		FROM_ADDR TEXT NOT NULL,
		TO_ADDR TEXT NOT NULL,
		DATE INTEGER NOT NULL,
		STATUS TEXT NOT NULL,
		USER_ADDRESS TEXT NOT NULL
	)`)
	if err != nil {
		return nil, types.Wrap(types.ErrOpenCatalogFailed, err)
	}

	return &ActivitySvc{db: db}, nil
}

func (as *ActivitySvc) Append(ctx context.Context, entry *types.ActivityEntry) (int64, error) {
	if _, err := types.ParseActivityKind(string(entry.Kind)); err != nil {
		return 0, types.Wrap(types.ErrInvalidActivityEntry, err)
	}
	if _, err := types.ParseActivityOutcome(string(entry.Outcome)); err != nil {
		return 0, types.Wrap(types.ErrInvalidActivityEntry, err)
	}

	date := entry.Date
	if date.IsZero() {
		date = time.Now().UTC()
	}

	res, err := as.db.ExecContext(ctx,
		"INSERT INTO ACTIVITY (KIND, ASSET, FROM_ADDR, TO_ADDR, DATE, STATUS, USER_ADDRESS) VALUES (?, ?, ?, ?, ?, ?, ?)",
		string(entry.Kind), entry.Asset,
		utils.NormalizeAddress(entry.From), utils.NormalizeAddress(entry.To),
		date.Unix(), string(entry.Outcome), utils.NormalizeAddress(entry.Address),
	)
	if err != nil {
		return 0, types.Wrap(types.ErrAppendActivityFailed, err)
	}

	seq, err := res.LastInsertId()
	if err != nil {
		return 0, types.Wrap(types.ErrAppendActivityFailed, err)
	}

	log.Debugf("activity appended. seq=%d kind=%s outcome=%s", seq, entry.Kind, entry.Outcome)
	return seq, nil
}

func (as *ActivitySvc) ListByAddress(ctx context.Context, address string, limit int) ([]types.ActivityEntry, error) {
	if limit <= 0 {
		limit = DefaultListLimit
	}

	rows, err := as.db.QueryContext(ctx,
		"SELECT ID, KIND, ASSET, FROM_ADDR, TO_ADDR, DATE, STATUS, USER_ADDRESS FROM ACTIVITY WHERE USER_ADDRESS = ? ORDER BY ID DESC LIMIT ?",
		utils.NormalizeAddress(address), limit,
	)
	if err != nil {
		return nil, types.Wrap(types.ErrQueryActivityFailed, err)
	}
	defer rows.Close() //nolint:errcheck

	entries := make([]types.ActivityEntry, 0)
	for rows.Next() {
		var entry types.ActivityEntry
		var kind, outcome string
		var date int64
		if err = rows.Scan(&entry.Seq, &kind, &entry.Asset, &entry.From, &entry.To, &date, &outcome, &entry.Address); err != nil {
			return nil, types.Wrap(types.ErrQueryActivityFailed, err)
		}
		entry.Kind = types.ActivityKind(kind)
		entry.Outcome = types.ActivityOutcome(outcome)
		entry.Date = time.Unix(date, 0).UTC()
		entries = append(entries, entry)
	}
	if err = rows.Err(); err != nil {
		return nil, types.Wrap(types.ErrQueryActivityFailed, err)
	}

	return entries, nil
}
