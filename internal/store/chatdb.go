package store

import (
	"context"
	"database/sql"
	"os"
	"sort"

	"msgwrapped/internal/domain"
)

// ChatDB is a read-only connection to the local message store.
type ChatDB struct {
	db *sql.DB
}

// OpenChatDB opens the message store. Any failure here is fatal for the
// whole gather: no message data means nothing to export.
func OpenChatDB(ctx context.Context, rt *Runtime, path string) (*ChatDB, error) {
	db, err := rt.open(ctx, path)
	if err != nil {
		return nil, domain.WrapError(domain.KindLocalStorage, "message store", err)
	}
	return &ChatDB{db: db}, nil
}

// Messages returns every message record in retrieval order.
func (c *ChatDB) Messages(ctx context.Context) ([]domain.MessageRecord, error) {
	rows, err := c.db.QueryContext(ctx,
		`SELECT ROWID,
		        COALESCE(guid, ''),
		        COALESCE(text, ''),
		        COALESCE(handle_id, 0),
		        COALESCE(date, 0),
		        COALESCE(is_from_me, 0),
		        COALESCE(cache_roomnames, '')
		 FROM message`)
	if err != nil {
		return nil, domain.WrapError(domain.KindLocalStorage, "query messages", err)
	}
	defer rows.Close()

	var msgs []domain.MessageRecord
	for rows.Next() {
		var m domain.MessageRecord
		var fromMe int
		if err := rows.Scan(&m.RowID, &m.GUID, &m.Text, &m.HandleID, &m.Date, &fromMe, &m.ChatName); err != nil {
			return nil, domain.WrapError(domain.KindLocalStorage, "scan message row", err)
		}
		m.FromMe = fromMe != 0
		msgs = append(msgs, m)
	}
	if err := rows.Err(); err != nil {
		return nil, domain.WrapError(domain.KindLocalStorage, "query messages", err)
	}
	return msgs, nil
}

// Handles returns the handle index: row ID to raw identifier.
func (c *ChatDB) Handles(ctx context.Context) (domain.Handles, error) {
	rows, err := c.db.QueryContext(ctx, `SELECT ROWID, COALESCE(id, '') FROM handle`)
	if err != nil {
		return nil, domain.WrapError(domain.KindLocalStorage, "query handles", err)
	}
	defer rows.Close()

	handles := make(domain.Handles)
	for rows.Next() {
		var rowID int64
		var id string
		if err := rows.Scan(&rowID, &id); err != nil {
			return nil, domain.WrapError(domain.KindLocalStorage, "scan handle row", err)
		}
		handles[rowID] = id
	}
	if err := rows.Err(); err != nil {
		return nil, domain.WrapError(domain.KindLocalStorage, "query handles", err)
	}
	return handles, nil
}

// sortMessages orders records ascending by timestamp. The sort is stable:
// records with equal timestamps keep their retrieval order, which downstream
// statistics rely on.
func sortMessages(msgs []domain.MessageRecord) {
	sort.SliceStable(msgs, func(i, j int) bool {
		return msgs[i].Date < msgs[j].Date
	})
}

// DatabaseSizeMB returns the message store file size in megabytes, or 0.0
// when the file is absent or unreadable. Never errors.
func DatabaseSizeMB(path string) float64 {
	info, err := os.Stat(path)
	if err != nil {
		return 0.0
	}
	return float64(info.Size()) / 1048576.0
}
