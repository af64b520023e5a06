package repository

import "github.com/msomdec/associates/internal/domain"

// AssociateTable maps domain.Associate onto the associates table.
var AssociateTable = Table[domain.Associate]{
	Name:    "associates",
	Key:     "associate_id",
	Columns: []string{"first_name", "last_name", "age"},

	ID:    func(a domain.Associate) int64 { return a.ID },
	SetID: func(a *domain.Associate, id int64) { a.ID = id },
	Values: func(a domain.Associate) []any {
		return []any{a.FirstName, a.LastName, a.Age}
	},
	Fields: func(a *domain.Associate) map[string]any {
		return map[string]any{
			"associate_id": &a.ID,
			"first_name":   &a.FirstName,
			"last_name":    &a.LastName,
			"age":          &a.Age,
		}
	},
}
