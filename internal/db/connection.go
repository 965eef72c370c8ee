package db

import (
	"database/sql"

	"cafeteria-meals/internal/config"

	_ "github.com/go-sql-driver/mysql"
	_ "github.com/mattn/go-sqlite3"
)

func NewConnection(cfg *config.Config) (*sql.DB, error) {
	db, err := sql.Open(cfg.Database.Driver, cfg.DatabaseDSN())
	if err != nil {
		return nil, err
	}

	db.SetMaxOpenConns(cfg.Database.MaxConnections)
	db.SetMaxIdleConns(cfg.Database.MaxIdleConnections)
	db.SetConnMaxLifetime(cfg.Database.ConnectionLifetime)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, err
	}

	return db, nil
}

// Open connects and returns a repository for the configured dialect.
func Open(cfg *config.Config) (*sql.DB, Repository, error) {
	conn, err := NewConnection(cfg)
	if err != nil {
		return nil, nil, err
	}
	return conn, NewRepository(conn, Dialect(cfg.Database.Driver)), nil
}
