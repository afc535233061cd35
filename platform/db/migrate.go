package db

import (
	"database/sql"
	"fmt"

	"studio_sales_backend/platform/config"

	_ "github.com/jackc/pgx/v5/stdlib" // database/sql driver for goose
	"github.com/pressly/goose/v3"
)

// RunMigrations applies pending SQL migrations from the given directory.
// It opens a short-lived database/sql connection because goose does not
// speak the pgx pool interface.
func RunMigrations(cfg config.DatabaseConfig, dir string) error {
	conn, err := sql.Open("pgx", cfg.GetDatabaseURL())
	if err != nil {
		return fmt.Errorf("open migration connection: %w", err)
	}
	defer conn.Close()

	if err := goose.SetDialect("postgres"); err != nil {
		return fmt.Errorf("set goose dialect: %w", err)
	}

	if err := goose.Up(conn, dir); err != nil {
		return fmt.Errorf("apply migrations: %w", err)
	}

	return nil
}
