package postgres_test

import (
	"context"
	"errors"
	"testing"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/msomdec/associates/internal/domain"
	"github.com/msomdec/associates/internal/repository/postgres"
)

type call struct {
	sql  string
	args []any
}

// fakeDB records statements and answers with canned results.
type fakeDB struct {
	calls    []call
	execErr  error
	queryErr error
	rowID    int64
	rowErr   error
}

func (f *fakeDB) Exec(_ context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	f.calls = append(f.calls, call{sql, args})
	return pgconn.NewCommandTag("OK"), f.execErr
}

func (f *fakeDB) Query(_ context.Context, sql string, args ...any) (pgx.Rows, error) {
	f.calls = append(f.calls, call{sql, args})
	return nil, f.queryErr
}

func (f *fakeDB) QueryRow(_ context.Context, sql string, args ...any) pgx.Row {
	f.calls = append(f.calls, call{sql, args})
	return fakeRow{id: f.rowID, err: f.rowErr}
}

type fakeRow struct {
	id  int64
	err error
}

func (r fakeRow) Scan(dest ...any) error {
	if r.err != nil {
		return r.err
	}
	*(dest[0].(*int64)) = r.id
	return nil
}

func TestRepository_CreateWithID(t *testing.T) {
	db := &fakeDB{}
	repo := postgres.NewAssociateRepository(db)

	a := domain.Associate{ID: 1, FirstName: "Tiffany", LastName: "Obi", Age: 25}
	created, err := repo.Create(context.Background(), a)
	require.NoError(t, err)
	assert.Equal(t, a, created)

	require.Len(t, db.calls, 1)
	assert.Equal(t,
		"WITH inserted AS (INSERT INTO associates (associate_id, first_name, last_name, age) VALUES ($1, $2, $3, $4) RETURNING associate_id) "+
			"SELECT setval(pg_get_serial_sequence('associates', 'associate_id'), "+
			"GREATEST((SELECT MAX(associate_id) FROM associates), (SELECT associate_id FROM inserted), 1))",
		db.calls[0].sql)
	assert.Equal(t, []any{int64(1), "Tiffany", "Obi", 25}, db.calls[0].args)
}

func TestRepository_CreateAssignsID(t *testing.T) {
	db := &fakeDB{rowID: 9}
	repo := postgres.NewAssociateRepository(db)

	a := domain.Associate{FirstName: "Ahmad", LastName: "Rawashdeh", Age: 38}
	created, err := repo.Create(context.Background(), a)
	require.NoError(t, err)

	assert.Equal(t, int64(9), created.ID)
	assert.Equal(t, int64(0), a.ID, "argument must not be modified")
	require.Len(t, db.calls, 1)
	assert.Equal(t, "INSERT INTO associates (first_name, last_name, age) VALUES ($1, $2, $3) RETURNING associate_id", db.calls[0].sql)
	assert.Equal(t, []any{"Ahmad", "Rawashdeh", 38}, db.calls[0].args)
}

func TestRepository_CreateDuplicate(t *testing.T) {
	db := &fakeDB{execErr: &pgconn.PgError{Code: pgerrcode.UniqueViolation, Message: "duplicate key"}}
	repo := postgres.NewAssociateRepository(db)

	_, err := repo.Create(context.Background(), domain.Associate{ID: 1, FirstName: "A", LastName: "B", Age: 1})
	require.ErrorIs(t, err, domain.ErrConstraintViolation)
}

func TestRepository_ReadQueryError(t *testing.T) {
	db := &fakeDB{queryErr: errors.New("conn closed")}
	repo := postgres.NewAssociateRepository(db)

	_, err := repo.Read(context.Background(), 4)
	require.ErrorIs(t, err, domain.ErrStatement)
	assert.NotErrorIs(t, err, domain.ErrNotFound)
	assert.Equal(t, "SELECT associate_id, first_name, last_name, age FROM associates WHERE associate_id = $1", db.calls[0].sql)
	assert.Equal(t, []any{int64(4)}, db.calls[0].args)
}

func TestRepository_Update(t *testing.T) {
	db := &fakeDB{}
	repo := postgres.NewAssociateRepository(db)

	a := domain.Associate{ID: 2, FirstName: "Sir Kyle", LastName: "Plummer", Age: 36}
	updated, err := repo.Update(context.Background(), a)
	require.NoError(t, err)
	assert.Equal(t, a, updated)
	assert.Equal(t, "UPDATE associates SET first_name = $1, last_name = $2, age = $3 WHERE associate_id = $4", db.calls[0].sql)
	assert.Equal(t, []any{"Sir Kyle", "Plummer", 36, int64(2)}, db.calls[0].args)
}

func TestRepository_Delete(t *testing.T) {
	db := &fakeDB{}
	repo := postgres.NewAssociateRepository(db)

	require.NoError(t, repo.Delete(context.Background(), 5))
	assert.Equal(t, "DELETE FROM associates WHERE associate_id = $1", db.calls[0].sql)
	assert.Equal(t, []any{int64(5)}, db.calls[0].args)

	db.execErr = errors.New("conn closed")
	require.ErrorIs(t, repo.Delete(context.Background(), 5), domain.ErrStatement)
}
