// Package repository holds the storage-independent half of every repository:
// the explicit mapping between a record type and its table, and the
// parameterized statements built from that mapping. Backends in the sqlite
// and postgres subpackages execute them.
package repository

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// Placeholder renders the n-th (1-based) bind parameter of a statement.
type Placeholder func(n int) string

var (
	// Question renders SQLite placeholders.
	Question Placeholder = func(int) string { return "?" }
	// Dollar renders PostgreSQL placeholders.
	Dollar Placeholder = func(n int) string { return "$" + strconv.Itoa(n) }
)

var identifier = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// Table declares how records of type T are stored in one table.
//
// Columns lists the mutable columns in bind order and excludes Key. Values
// must return one value per column in that order. Fields returns pointers
// into the record keyed by column name, Key included.
type Table[T any] struct {
	Name    string
	Key     string
	Columns []string

	ID     func(T) int64
	SetID  func(*T, int64)
	Values func(T) []any
	Fields func(*T) map[string]any
}

// Validate checks that every declared name is a plain SQL identifier and
// that the accessors are set. Only validated names are written into
// statement text; record values are always bound.
func (t Table[T]) Validate() error {
	if !identifier.MatchString(t.Name) {
		return fmt.Errorf("table %q: invalid table name", t.Name)
	}
	if !identifier.MatchString(t.Key) {
		return fmt.Errorf("table %s: invalid key column %q", t.Name, t.Key)
	}
	if len(t.Columns) == 0 {
		return fmt.Errorf("table %s: no columns", t.Name)
	}
	seen := map[string]bool{t.Key: true}
	for _, c := range t.Columns {
		if !identifier.MatchString(c) {
			return fmt.Errorf("table %s: invalid column %q", t.Name, c)
		}
		if seen[c] {
			return fmt.Errorf("table %s: duplicate column %q", t.Name, c)
		}
		seen[c] = true
	}
	if t.ID == nil || t.SetID == nil || t.Values == nil || t.Fields == nil {
		return fmt.Errorf("table %s: missing accessor", t.Name)
	}
	return nil
}

// InsertSQL builds the insert statement. With withKey the key column comes
// first, followed by Columns; without it storage assigns the key.
func (t Table[T]) InsertSQL(ph Placeholder, withKey bool) string {
	cols := t.Columns
	if withKey {
		cols = append([]string{t.Key}, t.Columns...)
	}
	params := make([]string, len(cols))
	for i := range cols {
		params[i] = ph(i + 1)
	}
	return fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		t.Name, strings.Join(cols, ", "), strings.Join(params, ", "))
}

// InsertArgs returns the bind values matching InsertSQL.
func (t Table[T]) InsertArgs(record T, withKey bool) []any {
	values := t.Values(record)
	if !withKey {
		return values
	}
	return append([]any{t.ID(record)}, values...)
}

// SelectSQL builds the select-by-key statement.
func (t Table[T]) SelectSQL(ph Placeholder) string {
	cols := append([]string{t.Key}, t.Columns...)
	return fmt.Sprintf("SELECT %s FROM %s WHERE %s = %s",
		strings.Join(cols, ", "), t.Name, t.Key, ph(1))
}

// UpdateSQL builds the update-by-key statement setting every mutable column.
func (t Table[T]) UpdateSQL(ph Placeholder) string {
	sets := make([]string, len(t.Columns))
	for i, c := range t.Columns {
		sets[i] = c + " = " + ph(i+1)
	}
	return fmt.Sprintf("UPDATE %s SET %s WHERE %s = %s",
		t.Name, strings.Join(sets, ", "), t.Key, ph(len(t.Columns)+1))
}

// UpdateArgs returns the bind values matching UpdateSQL.
func (t Table[T]) UpdateArgs(record T) []any {
	return append(t.Values(record), t.ID(record))
}

// DeleteSQL builds the delete-by-key statement.
func (t Table[T]) DeleteSQL(ph Placeholder) string {
	return fmt.Sprintf("DELETE FROM %s WHERE %s = %s", t.Name, t.Key, ph(1))
}

// ScanTargets returns scan destinations for a row with the given column
// names, pointing into record. Columns the table does not declare are
// scanned into throwaway values.
func (t Table[T]) ScanTargets(record *T, columns []string) []any {
	fields := t.Fields(record)
	dest := make([]any, len(columns))
	for i, c := range columns {
		if p, ok := fields[c]; ok {
			dest[i] = p
			continue
		}
		dest[i] = new(any)
	}
	return dest
}
