package database

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/lib/pq"
	"github.com/pkg/errors"

	"github.com/omimic12/proxy6-automator/config"
)

const driverName = "postgres"

func Connect(ctx context.Context, cfg *config.Config) (*sql.DB, error) {
	db, err := sql.Open(driverName, ConnectionString(cfg))
	if err != nil {
		return nil, errors.Wrap(err, "failed to open postgres")
	}
	if err = db.PingContext(ctx); err != nil {
		db.Close() //nolint:errcheck
		return nil, errors.Wrap(err, "failed to ping postgres")
	}
	return db, nil
}

func ConnectionString(cfg *config.Config) string {
	return fmt.Sprintf("user=%s password=%s dbname=%s host=%s port=%d sslmode=%s",
		cfg.Postgres.User,
		cfg.Postgres.Password,
		cfg.Postgres.DBName,
		cfg.Postgres.Host,
		cfg.Postgres.Port,
		cfg.Postgres.SSLMode,
	)
}
