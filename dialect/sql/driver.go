package sql

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/mangaloom/schemagen"
	"github.com/mangaloom/schemagen/dialect"
)

// ErrNoRows is returned by Get and BatchReader.One when the query selects
// no row.
var ErrNoRows = sql.ErrNoRows

// IsNoRows reports if err is, or wraps, ErrNoRows.
func IsNoRows(err error) bool {
	return errors.Is(err, sql.ErrNoRows)
}

type (
	// Result is an alias to sql.Result.
	Result = sql.Result
	// TxOptions holds the transaction options to be used in DB.BeginTx.
	TxOptions = sql.TxOptions
)

// Statement is one query of a batch.
type Statement struct {
	Query string
	Args  []any
}

// NewStatement returns a statement with the given query and arguments.
func NewStatement(query string, args ...any) Statement {
	return Statement{Query: query, Args: args}
}

// BatchReader reads the result sets of a batch in emission order. Each
// call runs the next statement, so statements that are never read are
// never executed.
type BatchReader interface {
	// One scans the single row of the next statement into dest, a pointer
	// to a struct. A statement selecting no row returns ErrNoRows.
	One(dest any) error
	// Many scans the rows of the next statement into dest, a pointer to a
	// slice.
	Many(dest any) error
}

// Executor is the data-access runtime the generated services call into.
type Executor interface {
	// Get scans a single row into dest. No row returns ErrNoRows.
	Get(ctx context.Context, dest any, query string, args ...any) error
	// Select scans all rows into dest, a pointer to a slice.
	Select(ctx context.Context, dest any, query string, args ...any) error
	// Exec executes a statement without returning rows.
	Exec(ctx context.Context, query string, args ...any) (Result, error)
	// Batch runs stmts in one read-only transaction, handing their result
	// sets to read in order.
	Batch(ctx context.Context, stmts []Statement, read func(BatchReader) error) error
}

// Driver is an Executor backed by a sqlx database handle.
type Driver struct {
	db *sqlx.DB
}

// Open opens a PostgreSQL database with the lib/pq driver.
func Open(source string) (*Driver, error) {
	db, err := sqlx.Open(dialect.Postgres, source)
	if err != nil {
		return nil, err
	}
	return &Driver{db: db}, nil
}

// OpenDB wraps the given database/sql.DB with a Driver.
func OpenDB(db *sql.DB) *Driver {
	return &Driver{db: sqlx.NewDb(db, dialect.Postgres)}
}

// DB returns the underlying *sqlx.DB instance.
func (d *Driver) DB() *sqlx.DB { return d.db }

// Close closes the underlying connection.
func (d *Driver) Close() error { return d.db.Close() }

// Get implements Executor.
func (d *Driver) Get(ctx context.Context, dest any, query string, args ...any) error {
	return convert(d.db.GetContext(ctx, dest, query, args...))
}

// Select implements Executor.
func (d *Driver) Select(ctx context.Context, dest any, query string, args ...any) error {
	return convert(d.db.SelectContext(ctx, dest, query, args...))
}

// Exec implements Executor.
func (d *Driver) Exec(ctx context.Context, query string, args ...any) (Result, error) {
	res, err := d.db.ExecContext(ctx, query, args...)
	return res, convert(err)
}

// Batch implements Executor. The transaction is rolled back when read
// fails, committed otherwise.
func (d *Driver) Batch(ctx context.Context, stmts []Statement, read func(BatchReader) error) error {
	tx, err := d.db.BeginTxx(ctx, &TxOptions{ReadOnly: true})
	if err != nil {
		return fmt.Errorf("dialect/sql: batch: begin: %w", err)
	}
	if err := read(&batch{ctx: ctx, tx: tx, stmts: stmts}); err != nil {
		if rerr := tx.Rollback(); rerr != nil {
			return errors.Join(err, fmt.Errorf("dialect/sql: batch: rollback: %w", rerr))
		}
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("dialect/sql: batch: commit: %w", err)
	}
	return nil
}

// batch reads statements lazily within tx.
type batch struct {
	ctx   context.Context
	tx    *sqlx.Tx
	stmts []Statement
	next  int
}

func (b *batch) statement() (Statement, error) {
	if b.next >= len(b.stmts) {
		return Statement{}, fmt.Errorf("dialect/sql: batch: read %d of %d statements", b.next+1, len(b.stmts))
	}
	s := b.stmts[b.next]
	b.next++
	return s, nil
}

// One implements BatchReader.
func (b *batch) One(dest any) error {
	s, err := b.statement()
	if err != nil {
		return err
	}
	return convert(b.tx.GetContext(b.ctx, dest, s.Query, s.Args...))
}

// Many implements BatchReader.
func (b *batch) Many(dest any) error {
	s, err := b.statement()
	if err != nil {
		return err
	}
	return convert(b.tx.SelectContext(b.ctx, dest, s.Query, s.Args...))
}

// PostgreSQL SQLSTATE codes for constraint violations (Class 23).
const (
	pgNotNullViolation    = "23502"
	pgForeignKeyViolation = "23503"
	pgUniqueViolation     = "23505"
	pgCheckViolation      = "23514"
)

// convert maps constraint violations reported by lib/pq to
// schemagen.ConstraintError. Other errors are returned as is.
func convert(err error) error {
	var pqErr *pq.Error
	if err == nil || !errors.As(err, &pqErr) {
		return err
	}
	switch pqErr.Code {
	case pgUniqueViolation:
		return schemagen.NewConstraintError(schemagen.Unique, pqErr.Constraint, err)
	case pgForeignKeyViolation:
		return schemagen.NewConstraintError(schemagen.ForeignKey, pqErr.Constraint, err)
	case pgCheckViolation:
		return schemagen.NewConstraintError(schemagen.Check, pqErr.Constraint, err)
	case pgNotNullViolation:
		return schemagen.NewConstraintError(schemagen.NotNull, pqErr.Column, err)
	default:
		return err
	}
}

var _ Executor = (*Driver)(nil)
