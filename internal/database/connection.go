package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/yokie-karaoke/yokie-server/internal/apperr"
)

var errEmptyStatement = errors.New("empty SQL statement")

// withConn acquires a pooled connection for the duration of fn and releases it
// on every exit path.
func (db *DB) withConn(ctx context.Context, fn func(*sql.Conn) error) error {
	conn, err := db.conn.Conn(ctx)
	if err != nil {
		return fmt.Errorf("failed to acquire connection: %w", err)
	}
	defer func() {
		if cerr := conn.Close(); cerr != nil {
			log.Debug().Err(cerr).Msg("Failed to release connection")
		}
	}()

	return fn(conn)
}

// Query runs statement with optional positional arguments and returns the
// resulting rows. Arguments are bound to ? placeholders by the driver; with
// no arguments the statement runs as written.
func (db *DB) Query(ctx context.Context, statement string, args ...any) (*Result, error) {
	if strings.TrimSpace(statement) == "" {
		return nil, apperr.Database("query", errEmptyStatement)
	}

	log.Trace().Str("sql", statement).Interface("args", args).Msg("Executing query")

	var rows []Row
	err := db.withConn(ctx, func(conn *sql.Conn) error {
		sqlRows, err := conn.QueryContext(ctx, statement, args...)
		if err != nil {
			return err
		}
		defer sqlRows.Close()

		rows, err = scanRows(sqlRows)
		return err
	})
	if err != nil {
		return nil, apperr.Database("query", err)
	}

	return NewResult(rows), nil
}

// QueryOne runs statement and returns its first row. A statement that yields
// no rows returns a NotFoundError naming resource.
func (db *DB) QueryOne(ctx context.Context, resource, statement string, args ...any) (Row, error) {
	result, err := db.Query(ctx, statement, args...)
	if err != nil {
		return nil, err
	}

	rows := result.Rows()
	if len(rows) == 0 {
		return nil, apperr.NotFound(resource, resource+" not found")
	}
	return rows[0], nil
}

// Exec runs a statement that returns no rows
func (db *DB) Exec(ctx context.Context, statement string, args ...any) (sql.Result, error) {
	if strings.TrimSpace(statement) == "" {
		return nil, apperr.Database("exec", errEmptyStatement)
	}

	var result sql.Result
	err := db.withConn(ctx, func(conn *sql.Conn) error {
		var err error
		result, err = conn.ExecContext(ctx, statement, args...)
		return err
	})
	if err != nil {
		return nil, apperr.Database("exec", err)
	}
	return result, nil
}
