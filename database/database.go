package database

import (
	"database/sql"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/formwise/formwise/config"
)

func Open(cfg config.Config) (db *sql.DB, err error) {
	// The pragma goes through the DSN so every pooled connection gets it;
	// form deletion relies on ON DELETE CASCADE.
	db, err = sql.Open("sqlite3", cfg.DBPath+"?_foreign_keys=on")
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

	return
}
