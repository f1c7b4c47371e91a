// Package store reads the local message and address-book databases.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"sync"

	_ "modernc.org/sqlite"
)

// Runtime owns every database handle opened during one pipeline run.
// Acquire/Release bracket the run: Release closes everything that was
// opened, is idempotent, and is meant to run via defer so it executes on
// normal return, early error return, and cancellation alike.
//
// Concurrent pipeline runs must each acquire their own Runtime; handles are
// never shared between runs. The sqlite driver needs no process-global
// init, so per-run isolation carries no extra cost.
type Runtime struct {
	mu       sync.Mutex
	dbs      []*sql.DB
	released bool
	logger   *slog.Logger
}

func Acquire(logger *slog.Logger) *Runtime {
	return &Runtime{logger: logger}
}

// open opens a database read-only and verifies the file is reachable.
func (r *Runtime) open(ctx context.Context, path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite", "file:"+path+"?mode=ro")
	if err != nil {
		return nil, fmt.Errorf("cannot open database %s: %w", path, err)
	}
	// Single connection: reads are sequential within a run.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("cannot open database %s: %w", path, err)
	}

	r.track(db)
	return db, nil
}

func (r *Runtime) track(db *sql.DB) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.dbs = append(r.dbs, db)
}

// Release closes every tracked handle. Safe to call more than once; close
// failures are logged, not returned, since release is unconditional cleanup.
func (r *Runtime) Release() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.released {
		return
	}
	r.released = true
	for _, db := range r.dbs {
		if err := db.Close(); err != nil && r.logger != nil {
			r.logger.Debug("database close failed", "err", err)
		}
	}
	r.dbs = nil
}
