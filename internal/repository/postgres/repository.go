package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/msomdec/associates/internal/domain"
	"github.com/msomdec/associates/internal/repository"
)

// DBTX is satisfied by *pgxpool.Pool, *pgx.Conn and pgx.Tx, so a repository
// works inside or outside a transaction.
type DBTX interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Repository implements domain.Repository for any record type declared by a
// repository.Table, using PostgreSQL.
type Repository[T any] struct {
	db    DBTX
	table repository.Table[T]
}

// NewRepository creates a PostgreSQL-backed repository for table.
func NewRepository[T any](db DBTX, table repository.Table[T]) (*Repository[T], error) {
	if err := table.Validate(); err != nil {
		return nil, err
	}
	return &Repository[T]{db: db, table: table}, nil
}

// NewAssociateRepository creates a PostgreSQL-backed associate repository.
func NewAssociateRepository(db DBTX) *Repository[domain.Associate] {
	r, err := NewRepository(db, repository.AssociateTable)
	if err != nil {
		panic(err)
	}
	return r
}

// Create inserts record. A zero ID lets the identity column assign one,
// which is returned in the same round trip. A caller-supplied ID moves the
// key's sequence past it so later keyless inserts do not collide.
func (r *Repository[T]) Create(ctx context.Context, record T) (T, error) {
	var zero T

	if r.table.ID(record) != 0 {
		_, err := r.db.Exec(ctx, r.insertWithKeySQL(), r.table.InsertArgs(record, true)...)
		if err != nil {
			return zero, classify("insert into "+r.table.Name, err)
		}
		return record, nil
	}

	var id int64
	err := r.db.QueryRow(ctx,
		r.table.InsertSQL(repository.Dollar, false)+" RETURNING "+r.table.Key,
		r.table.InsertArgs(record, false)...,
	).Scan(&id)
	if err != nil {
		return zero, classify("insert into "+r.table.Name, err)
	}
	r.table.SetID(&record, id)
	return record, nil
}

// insertWithKeySQL wraps the keyed insert in a statement that advances the
// key's sequence to the highest stored key. pg_get_serial_sequence yields
// NULL for a key without a sequence, which setval passes through.
func (r *Repository[T]) insertWithKeySQL() string {
	t := r.table
	return fmt.Sprintf("WITH inserted AS (%s RETURNING %s) "+
		"SELECT setval(pg_get_serial_sequence('%s', '%s'), "+
		"GREATEST((SELECT MAX(%s) FROM %s), (SELECT %s FROM inserted), 1))",
		t.InsertSQL(repository.Dollar, true), t.Key,
		t.Name, t.Key,
		t.Key, t.Name, t.Key,
	)
}

func (r *Repository[T]) Read(ctx context.Context, id int64) (T, error) {
	var record T
	rows, err := r.db.Query(ctx, r.table.SelectSQL(repository.Dollar), id)
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

	fields := rows.FieldDescriptions()
	columns := make([]string, len(fields))
	for i, f := range fields {
		columns[i] = f.Name
	}
	if err := rows.Scan(r.table.ScanTargets(&record, columns)...); err != nil {
		var zero T
		return zero, classify("scan "+r.table.Name, err)
	}
	return record, nil
}

func (r *Repository[T]) Update(ctx context.Context, record T) (T, error) {
	_, err := r.db.Exec(ctx, r.table.UpdateSQL(repository.Dollar), r.table.UpdateArgs(record)...)
	if err != nil {
		var zero T
		return zero, classify("update "+r.table.Name, err)
	}
	return record, nil
}

func (r *Repository[T]) Delete(ctx context.Context, id int64) error {
	if _, err := r.db.Exec(ctx, r.table.DeleteSQL(repository.Dollar), id); err != nil {
		return classify("delete from "+r.table.Name, err)
	}
	return nil
}

// classify wraps err with the domain error matching its SQLSTATE class.
func classify(op string, err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgerrcode.IsIntegrityConstraintViolation(pgErr.Code) {
		return fmt.Errorf("%w: %s: %w", domain.ErrConstraintViolation, op, err)
	}
	return fmt.Errorf("%w: %s: %w", domain.ErrStatement, op, err)
}
