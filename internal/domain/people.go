// catalog-service/internal/domain/people.go
package domain

// Director is referenced by zero or more movies.
type Director struct {
	ID   int64  `json:"id" db:"id"`
	Name string `json:"name" db:"name"`
}

// Genre is referenced by zero or more movies.
type Genre struct {
	ID   int64  `json:"id" db:"id"`
	Name string `json:"name" db:"name"`
}

// NameDraft is the write-side payload shared by directors and genres.
// An empty name is allowed; a missing one is not.
type NameDraft struct {
	Name *string `json:"name" validate:"required"`
}

// Value returns the name the draft carries, or "" when it carries none.
func (d NameDraft) Value() string {
	return deref(d.Name)
}
