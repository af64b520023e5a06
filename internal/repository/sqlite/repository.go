package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	msqlite "modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"github.com/msomdec/associates/internal/domain"
	"github.com/msomdec/associates/internal/repository"
)

// Repository implements domain.Repository for any record type declared by a
// repository.Table, using SQLite.
type Repository[T any] struct {
	db    *sql.DB
	table repository.Table[T]
}

// NewRepository creates a SQLite-backed repository for table.
func NewRepository[T any](db *DB, table repository.Table[T]) (*Repository[T], error) {
	if err := table.Validate(); err != nil {
		return nil, err
	}
	return &Repository[T]{db: db.SqlDB, table: table}, nil
}

// NewAssociateRepository creates a SQLite-backed associate repository.
func NewAssociateRepository(db *DB) *Repository[domain.Associate] {
	r, err := NewRepository(db, repository.AssociateTable)
	if err != nil {
		panic(err)
	}
	return r
}

func (r *Repository[T]) Create(ctx context.Context, record T) (T, error) {
	var zero T
	withKey := r.table.ID(record) != 0

	result, err := r.db.ExecContext(ctx,
		r.table.InsertSQL(repository.Question, withKey),
		r.table.InsertArgs(record, withKey)...,
	)
	if err != nil {
		return zero, classify("insert into "+r.table.Name, err)
	}

	if !withKey {
		id, err := result.LastInsertId()
		if err != nil {
			return zero, fmt.Errorf("%w: get last insert id: %w", domain.ErrStatement, err)
		}
		r.table.SetID(&record, id)
	}
	return record, nil
}

func (r *Repository[T]) Read(ctx context.Context, id int64) (T, error) {
	var record T
	rows, err := r.db.QueryContext(ctx, r.table.SelectSQL(repository.Question), id)
	if err != nil {
		return record, classify("select from "+r.table.Name, err)
	}
	defer rows.Close()

	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return record, classify("select from "+r.table.Name, err)
		}
		return record, domain.ErrNotFound
	}

	columns, err := rows.Columns()
	if err != nil {
		return record, classify("read columns of "+r.table.Name, err)
	}
	if err := rows.Scan(r.table.ScanTargets(&record, columns)...); err != nil {
		var zero T
		return zero, classify("scan "+r.table.Name, err)
	}
	return record, nil
}

func (r *Repository[T]) Update(ctx context.Context, record T) (T, error) {
	_, err := r.db.ExecContext(ctx,
		r.table.UpdateSQL(repository.Question),
		r.table.UpdateArgs(record)...,
	)
	if err != nil {
		var zero T
		return zero, classify("update "+r.table.Name, err)
	}
	return record, nil
}

func (r *Repository[T]) Delete(ctx context.Context, id int64) error {
	if _, err := r.db.ExecContext(ctx, r.table.DeleteSQL(repository.Question), id); err != nil {
		return classify("delete from "+r.table.Name, err)
	}
	return nil
}

// classify wraps err with the domain error matching its cause.
func classify(op string, err error) error {
	if isConstraintError(err) {
		return fmt.Errorf("%w: %s: %w", domain.ErrConstraintViolation, op, err)
	}
	return fmt.Errorf("%w: %s: %w", domain.ErrStatement, op, err)
}

// isConstraintError checks if the error is a SQLite constraint violation
// (primary key, unique, not null, check or foreign key).
func isConstraintError(err error) bool {
	var se *msqlite.Error
	if !errors.As(err, &se) {
		return false
	}
	return se.Code()&0xff == sqlite3.SQLITE_CONSTRAINT
}
