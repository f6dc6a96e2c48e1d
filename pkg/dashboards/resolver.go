package dashboards

import (
	"context"
	"regexp"

	"github.com/sisensehq/go-sisense/pkg/sisense"
)

// oidPattern matches the platform's dashboard object IDs.
var oidPattern = regexp.MustCompile(`^[0-9a-f]{24}$`)

// IsOID reports whether ref is shaped like a dashboard ID.
func IsOID(ref string) bool {
	return oidPattern.MatchString(ref)
}

// ResolveReference disambiguates a string that may be a dashboard ID or an
// exact title. ID-shaped references are tried as IDs first; a miss or a
// malformed ID falls back to an exact, case-sensitive title lookup. No
// fuzzy matching: an ambiguous or partial title is the caller's problem.
func (s *Service) ResolveReference(ctx context.Context, ref string) sisense.Resolution {
	if IsOID(ref) {
		found, err := s.GetByID(ctx, ref)
		switch {
		case err == nil:
			return sisense.Resolved(found.OID, found.Title)
		case sisense.IsNotFound(err):
			// Fall through to the title lookup.
		case sisense.IsTransport(err):
			return sisense.ResolutionFailed(err)
		default:
			return sisense.ResolutionFailed(err)
		}
	}

	found, err := s.GetByName(ctx, ref)
	switch {
	case err == nil:
		return sisense.Resolved(found.OID, found.Title)
	case sisense.IsNotFound(err):
		return sisense.Unresolved(&sisense.NotFoundError{Resource: "dashboard", Ref: ref})
	default:
		return sisense.ResolutionFailed(err)
	}
}
