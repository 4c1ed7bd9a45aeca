package journal

import (
	"context"
	"database/sql"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/omimic12/proxy6-automator/pkg"
)

const (
	createTable = `CREATE TABLE IF NOT EXISTS journal_entries (
	id         UUID PRIMARY KEY,
	created_at TIMESTAMPTZ NOT NULL,
	severity   TEXT NOT NULL,
	message    TEXT NOT NULL,
	details    TEXT NOT NULL DEFAULT ''
)`
	insertEntry = `INSERT INTO journal_entries (id, created_at, severity, message, details) VALUES ($1, $2, $3, $4, $5)`
)

// Postgres archives entries one row each. Writes happen inline, a failed
// insert is logged and the entry is lost.
type Postgres struct {
	db      *sql.DB
	timeout time.Duration
	logger  *zap.Logger
}

func NewPostgres(ctx context.Context, db *sql.DB, timeout time.Duration, logger *zap.Logger) (*Postgres, error) {
	if _, err := db.ExecContext(ctx, createTable); err != nil {
		return nil, errors.Wrap(err, "failed to create journal table")
	}

	return &Postgres{
		db:      db,
		timeout: timeout,
		logger:  logger,
	}, nil
}

func (p *Postgres) Append(entry pkg.Entry) {
	ctx, cancel := context.WithTimeout(context.Background(), p.timeout)
	defer cancel()

	_, err := p.db.ExecContext(ctx, insertEntry,
		entry.ID,
		entry.Time,
		string(entry.Severity),
		entry.Message,
		entry.Detail,
	)
	if err != nil {
		p.logger.Error("failed to archive journal entry", zap.String("entry", entry.ID), zap.Error(err))
	}
}
