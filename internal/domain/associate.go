package domain

// Associate is a person enrolled in a training cohort.
type Associate struct {
	ID        int64 // Zero asks storage to assign one on create
	FirstName string
	LastName  string
	Age       int
}

// AssociateRepository defines persistence operations for associates.
type AssociateRepository = Repository[Associate]
