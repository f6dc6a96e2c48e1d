package sisense

import "net/http"

// Resolution is the outcome of resolving a string reference that may be an
// entity ID or an exact title. Status carries HTTP-like semantics: 200 for a
// match, 404 for a definitive miss, 500 for a transport failure (so callers
// can retry transport failures but not misses).
type Resolution struct {
	OK     bool
	Status int
	ID     string
	Title  string
	Err    error
}

// Resolved builds a successful resolution.
func Resolved(id, title string) Resolution {
	return Resolution{OK: true, Status: http.StatusOK, ID: id, Title: title}
}

// Unresolved builds a definitive not-found resolution.
func Unresolved(err error) Resolution {
	return Resolution{Status: http.StatusNotFound, Err: err}
}

// ResolutionFailed builds a transport-failure resolution.
func ResolutionFailed(err error) Resolution {
	return Resolution{Status: http.StatusInternalServerError, Err: err}
}
