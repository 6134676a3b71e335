package database

import (
	"database/sql"
	"embed"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/sqlite3"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/mbolis/survey-forms/log"
	"github.com/pkg/errors"
)

//go:embed migrations
var schema embed.FS

// migrateDB brings the schema to the latest embedded version. A dirty
// version, left by a migration that failed halfway, stops startup.
func migrateDB(db *sql.DB) error {
	src, err := iofs.New(schema, "migrations")
	if err != nil {
		return errors.Wrap(err, "database.migrate.source")
	}

	dst, err := sqlite3.WithInstance(db, &sqlite3.Config{})
	if err != nil {
		return errors.Wrap(err, "database.migrate.driver")
	}

	migrator, err := migrate.NewWithInstance("iofs", src, "sqlite3", dst)
	if err != nil {
		return errors.Wrap(err, "database.migrate")
	}

	before, dirty, err := migrator.Version()
	switch {
	case errors.Is(err, migrate.ErrNilVersion):
		log.Info("database.migrate: empty database")
	case err != nil:
		return errors.Wrap(err, "database.migrate.version")
	case dirty:
		return errors.Errorf("database.migrate: dirty schema at version %d", before)
	}

	err = migrator.Up()
	if errors.Is(err, migrate.ErrNoChange) {
		log.Debugf("database.migrate: schema up to date (version %d)", before)
		return nil
	}
	if err != nil {
		return errors.Wrap(err, "database.migrate.up")
	}

	after, _, _ := migrator.Version()
	log.WithFields(log.Fields{"from": before, "to": after}).Info("database.migrate: schema upgraded")
	return nil
}
