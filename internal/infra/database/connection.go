package database

import (
	"context"
	"database/sql"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib" // registers the "pgx" driver
)

// NewDBConnection opens the pool and pings it.
func NewDBConnection(ctx context.Context, connString string) (*sql.DB, error) {
	// 1. Abre o pool (ainda não conecta, só valida a string)
	db, err := sql.Open("pgx", connString)
	if err != nil {
		return nil, err
	}

	// 2. Configura o Pool
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	// 3. Ping
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, err
	}

	return db, nil
}
