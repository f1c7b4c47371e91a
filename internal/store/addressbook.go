package store

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"msgwrapped/internal/domain"
)

const addressBookFile = "AddressBook-v22.abcddb"

// shardPaths enumerates the address-book source databases under dir: the
// primary database first, then one per account shard under Sources/.
// Failure to enumerate is fatal; a missing Sources directory is not.
func shardPaths(dir string) ([]string, error) {
	if _, err := os.Stat(dir); err != nil {
		return nil, fmt.Errorf("cannot access address book directory %s: %w", dir, err)
	}

	paths := []string{filepath.Join(dir, addressBookFile)}

	sources := filepath.Join(dir, "Sources")
	entries, err := os.ReadDir(sources)
	if err != nil {
		if os.IsNotExist(err) {
			return paths, nil
		}
		return nil, fmt.Errorf("cannot enumerate address book sources: %w", err)
	}
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		paths = append(paths, filepath.Join(sources, entry.Name(), addressBookFile))
	}
	return paths, nil
}

// LoadContacts merges every reachable address-book source into one lookup.
// The primary database must open; individual account shards are skipped
// with a warning when they cannot be read. Partial contact data is
// tolerable, no contact enumeration is not.
func LoadContacts(ctx context.Context, rt *Runtime, dir string, logger *slog.Logger) (domain.Contacts, error) {
	contacts := domain.NewContacts()

	paths, err := shardPaths(dir)
	if err != nil {
		return contacts, domain.WrapError(domain.KindLocalStorage, "contact store", err)
	}

	for i, path := range paths {
		db, err := rt.open(ctx, path)
		if err != nil {
			if i == 0 {
				return contacts, domain.WrapError(domain.KindLocalStorage, "primary contact store", err)
			}
			logger.Warn("skipping unreadable contact shard", "path", path, "err", err)
			continue
		}
		if err := loadShard(ctx, db, contacts); err != nil {
			db.Close()
			if i == 0 {
				return contacts, domain.WrapError(domain.KindLocalStorage, "primary contact store", err)
			}
			logger.Warn("skipping unreadable contact shard", "path", path, "err", err)
			continue
		}
		// Closing is unconditional cleanup after extraction; Release
		// still covers the error paths above.
		db.Close()
	}
	return contacts, nil
}

// loadShard reads one source database: record names, then the phone numbers
// and email addresses that point at them.
func loadShard(ctx context.Context, db *sql.DB, contacts domain.Contacts) error {
	names := make(map[int64]string)

	rows, err := db.QueryContext(ctx,
		`SELECT Z_PK,
		        COALESCE(ZFIRSTNAME, ''),
		        COALESCE(ZLASTNAME, ''),
		        COALESCE(ZORGANIZATION, '')
		 FROM ZABCDRECORD`)
	if err != nil {
		return fmt.Errorf("query records: %w", err)
	}
	for rows.Next() {
		var pk int64
		var first, last, org string
		if err := rows.Scan(&pk, &first, &last, &org); err != nil {
			rows.Close()
			return fmt.Errorf("scan record: %w", err)
		}
		names[pk] = displayName(first, last, org)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return fmt.Errorf("query records: %w", err)
	}
	rows.Close()

	for _, q := range []string{
		`SELECT COALESCE(ZOWNER, 0), COALESCE(ZFULLNUMBER, '') FROM ZABCDPHONENUMBER`,
		`SELECT COALESCE(ZOWNER, 0), COALESCE(ZADDRESS, '') FROM ZABCDEMAILADDRESS`,
	} {
		rows, err := db.QueryContext(ctx, q)
		if err != nil {
			return fmt.Errorf("query identifiers: %w", err)
		}
		for rows.Next() {
			var owner int64
			var identifier string
			if err := rows.Scan(&owner, &identifier); err != nil {
				rows.Close()
				return fmt.Errorf("scan identifier: %w", err)
			}
			if name, ok := names[owner]; ok {
				contacts.Add(identifier, name)
			}
		}
		if err := rows.Err(); err != nil {
			rows.Close()
			return fmt.Errorf("query identifiers: %w", err)
		}
		rows.Close()
	}
	return nil
}

func displayName(first, last, org string) string {
	switch {
	case first != "" && last != "":
		return first + " " + last
	case first != "":
		return first
	case last != "":
		return last
	default:
		return org
	}
}

// HasContacts reports whether any reachable source yields at least one
// contact record. A missing or unreadable path is false, never an error.
func HasContacts(ctx context.Context, dir string) bool {
	paths, err := shardPaths(dir)
	if err != nil {
		return false
	}

	rt := Acquire(nil)
	defer rt.Release()

	for _, path := range paths {
		db, err := rt.open(ctx, path)
		if err != nil {
			continue
		}
		var count int
		err = db.QueryRowContext(ctx, `SELECT COUNT(*) FROM ZABCDRECORD`).Scan(&count)
		db.Close()
		if err == nil && count > 0 {
			return true
		}
	}
	return false
}
