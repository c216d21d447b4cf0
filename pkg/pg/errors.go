package pg

import (
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// Common errors
var (
	// ErrFailedToConnect is returned when the pool cannot be opened after
	// all retry attempts
	ErrFailedToConnect = errors.New("failed to open postgres connection")

	// ErrFailedToParseConfig is returned when the connection string is invalid
	ErrFailedToParseConfig = errors.New("failed to parse postgres config")

	// ErrHealthcheckFailed is returned when a ping fails
	ErrHealthcheckFailed = errors.New("postgres healthcheck failed")

	// ErrFailedToApplyMigrations is returned when goose cannot bring the
	// schema up to date
	ErrFailedToApplyMigrations = errors.New("failed to apply migrations")

	// ErrMigrationsDirNotFound is returned when the migrations path does
	// not exist
	ErrMigrationsDirNotFound = errors.New("migrations directory not found")
)

// IsNotFound detects pgx.ErrNoRows for consistent not-found handling.
func IsNotFound(err error) bool {
	return err != nil && errors.Is(err, pgx.ErrNoRows)
}

// IsDuplicateKey detects unique constraint violations (SQLSTATE 23505).
func IsDuplicateKey(err error) bool {
	if err == nil {
		return false
	}
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

// IsForeignKeyViolation detects referential integrity violations (SQLSTATE 23503).
func IsForeignKeyViolation(err error) bool {
	if err == nil {
		return false
	}
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23503"
}
