package contract

// DuplicateError is returned by Create when a unique constraint rejects the row.
type DuplicateError struct {
	Constraint string
}

func (e *DuplicateError) Error() string {
	return "duplicate key violates unique constraint " + e.Constraint
}
