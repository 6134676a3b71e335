package database

import (
	"database/sql"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/mbolis/survey-forms/config"
	"github.com/mbolis/survey-forms/log"
)

// Connection parameters applied to every pooled connection: foreign keys are
// per connection in SQLite and cascades depend on them. Write transactions
// take the lock up front so that concurrent slug assignment serializes.
const dsnParams = "_foreign_keys=on&_busy_timeout=5000&_txlock=immediate"

// dsn appends dsnParams to path, which may be a plain file name or a file:
// URI already carrying a query.
func dsn(path string) string {
	if strings.Contains(path, "?") {
		return path + "&" + dsnParams
	}
	return path + "?" + dsnParams
}

func Open(cfg config.Config) (*sql.DB, error) {
	return OpenFile(cfg.DBUrl)
}

func OpenFile(path string) (db *sql.DB, err error) {
	db, err = sql.Open("sqlite3", dsn(path))
	if err != nil {
		return
	}

	// db tuning options
	db.SetMaxOpenConns(20)
	db.SetMaxIdleConns(10)
	db.SetConnMaxIdleTime(5 * time.Minute)
	db.SetConnMaxLifetime(2 * time.Hour)

	err = migrateDB(db)
	if err != nil {
		db.Close()
		return
	}

	log.Debugf("database.open: %s", path)
	return
}
