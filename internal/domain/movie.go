// catalog-service/internal/domain/movie.go
package domain

// Movie is a catalog entry. GenreID and DirectorID are weak references:
// the movie never owns the genre or director they point at.
type Movie struct {
	ID          int64   `json:"id" db:"id"`
	Title       string  `json:"title" db:"title"`
	Description string  `json:"description" db:"description"`
	TrailerURL  string  `json:"trailer" db:"trailer"`
	Year        int     `json:"year" db:"year"`
	Rating      float64 `json:"rating" db:"rating"`
	GenreID     *int64  `json:"genre_id" db:"genre_id"`
	DirectorID  *int64  `json:"director_id" db:"director_id"`
}

// Clone returns a copy that shares no pointers with m.
func (m Movie) Clone() Movie {
	m.GenreID = cloneID(m.GenreID)
	m.DirectorID = cloneID(m.DirectorID)
	return m
}

// MovieDraft is the write-side payload for a movie. A nil field means the
// client did not send it.
type MovieDraft struct {
	Title       *string  `json:"title" validate:"required"`
	Description *string  `json:"description"`
	TrailerURL  *string  `json:"trailer"`
	Year        *int     `json:"year"`
	Rating      *float64 `json:"rating"`
	GenreID     *int64   `json:"genre_id"`
	DirectorID  *int64   `json:"director_id"`
}

// Movie builds the full record the draft describes. Fields the draft omits
// take their zero value, so applying a draft always replaces the whole record.
func (d MovieDraft) Movie(id int64) Movie {
	return Movie{
		ID:          id,
		Title:       deref(d.Title),
		Description: deref(d.Description),
		TrailerURL:  deref(d.TrailerURL),
		Year:        deref(d.Year),
		Rating:      deref(d.Rating),
		GenreID:     cloneID(d.GenreID),
		DirectorID:  cloneID(d.DirectorID),
	}
}

// MovieSelector filters movies by their references. A nil field is not a
// predicate; all supplied predicates must hold.
type MovieSelector struct {
	DirectorID *int64
	GenreID    *int64
}

// Matches reports whether m satisfies every predicate in s.
func (s MovieSelector) Matches(m Movie) bool {
	if s.DirectorID != nil && !sameID(m.DirectorID, *s.DirectorID) {
		return false
	}
	if s.GenreID != nil && !sameID(m.GenreID, *s.GenreID) {
		return false
	}
	return true
}

// Empty reports whether s selects every movie.
func (s MovieSelector) Empty() bool {
	return s.DirectorID == nil && s.GenreID == nil
}

func sameID(ref *int64, id int64) bool {
	return ref != nil && *ref == id
}

func cloneID(id *int64) *int64 {
	if id == nil {
		return nil
	}
	v := *id
	return &v
}

func deref[T any](p *T) T {
	var zero T
	if p == nil {
		return zero
	}
	return *p
}
