package db

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"time"

	_ "github.com/lib/pq"
	"github.com/rs/zerolog"
)

// CircleDB wraps the postgres connection holding all savings circle state.
// Every member-facing operation is a potential concurrent writer against the
// same group and cycle rows, so multi-step writes go through transactions.
type CircleDB struct {
	DB  *sql.DB
	Log *zerolog.Logger
}

// NewCircleDB is a constructor that initializes CircleDB with DB and Log
func NewCircleDB(log *zerolog.Logger) (*CircleDB, error) {
	// Get the database connection string from the environment
	connStr := os.Getenv("DATABASE_URL")
	if connStr == "" {
		log.Error().Msg("DATABASE_URL environment variable is not set")
		return nil, fmt.Errorf("DATABASE_URL environment variable is not set")
	}

	// Open the database connection
	db, err := sql.Open("postgres", connStr)
	if err != nil {
		log.Error().Err(err).Msg("Failed to open database connection")
		return nil, err
	}

	// Check we are actually connected
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	err = db.PingContext(ctx)
	if err != nil {
		log.Error().Err(err).Msg("Database connection failed during ping")
		return nil, err
	}

	return &CircleDB{
		DB:  db,
		Log: log,
	}, nil
}

func (db *CircleDB) Close() error {
	if err := db.DB.Close(); err != nil {
		return err
	}
	db.Log.Info().Msg("database connection closed")
	db.DB = nil

	return nil
}

func (db *CircleDB) execQuery(tx *sql.Tx, query string, args ...interface{}) error {

	if db.DB == nil {
		return fmt.Errorf("database connection is not established")
	}

	_, err := tx.Exec(query, args...)
	if err != nil {
		return fmt.Errorf("failed to execute query: %v", err)
	}
	return nil
}
