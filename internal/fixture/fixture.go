// Package fixture embeds the reference dataset the exercises are written
// against and loads it into a Postgres database.
package fixture

import (
	"context"
	"embed"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	log "github.com/sirupsen/logrus"

	"github.com/vibesql/sqlzoo/internal/database"
)

//go:embed sql/*.sql
var scripts embed.FS

const schemaScript = "schema"

// loadLockKey serializes concurrent loads into the same database.
const loadLockKey = 5_150_001

const (
	DatasetMovies = "movies"
	DatasetAlbums = "albums"
)

var datasets = []string{DatasetMovies, DatasetAlbums}

// Datasets lists the loadable datasets in load order.
func Datasets() []string {
	return append([]string(nil), datasets...)
}

// Script returns the SQL text of an embedded script: "schema" or one of
// Datasets().
func Script(name string) (string, error) {
	b, err := scripts.ReadFile("sql/" + name + ".sql")
	if err != nil {
		return "", fmt.Errorf("unknown fixture script %q", name)
	}
	return string(b), nil
}

// Load drops and recreates every exercise table, then inserts the named
// datasets. With no names all datasets are loaded. The whole load is one
// transaction, so readers see either the old tables or the new ones. The
// scripts use Postgres syntax, so other drivers are refused.
func Load(ctx context.Context, conn *database.Connection, names ...string) (err error) {
	if conn.Driver() != database.DriverPostgres {
		return fmt.Errorf("fixture: driver %q is not supported, load the dataset into postgres", conn.Driver())
	}

	tx, err := conn.DB().BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("fixture: failed to begin transaction: %w", database.TranslateError(err))
	}
	defer func() {
		if err != nil {
			tx.Rollback()
		}
	}()

	if _, err = tx.ExecContext(ctx, "SELECT pg_advisory_xact_lock($1)", loadLockKey); err != nil {
		return fmt.Errorf("fixture: failed to take load lock: %w", database.TranslateError(err))
	}
	if err = load(ctx, tx, names); err != nil {
		return err
	}
	if err = tx.Commit(); err != nil {
		return fmt.Errorf("fixture: failed to commit: %w", database.TranslateError(err))
	}
	return nil
}

func load(ctx context.Context, db sqlx.ExecerContext, names []string) error {
	if len(names) == 0 {
		names = datasets
	}

	plan := []string{schemaScript}
	for _, name := range names {
		if !isDataset(name) {
			return fmt.Errorf("fixture: unknown dataset %q", name)
		}
		plan = append(plan, name)
	}

	for _, name := range plan {
		text, err := Script(name)
		if err != nil {
			return err
		}

		start := time.Now()
		if _, err := db.ExecContext(ctx, text); err != nil {
			return fmt.Errorf("fixture: failed to load %s: %w", name, database.TranslateError(err))
		}
		log.WithFields(log.Fields{
			"script":  name,
			"elapsed": time.Since(start),
		}).Debug("fixture loaded")
	}
	return nil
}

func isDataset(name string) bool {
	for _, ds := range datasets {
		if ds == name {
			return true
		}
	}
	return false
}
