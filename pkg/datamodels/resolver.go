package datamodels

import (
	"context"
	"regexp"

	"github.com/sisensehq/go-sisense/pkg/sisense"
)

// oidPattern matches the platform's data model IDs (UUIDs).
var oidPattern = regexp.MustCompile(`^[0-9a-fA-F]{8}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{12}$`)

// IsOID reports whether ref is shaped like a data model ID.
func IsOID(ref string) bool {
	return oidPattern.MatchString(ref)
}

// ResolveReference disambiguates a string that may be a data model ID or an
// exact title. ID-shaped references are matched by ID first, anything else
// by exact, case-sensitive title. The listing is fetched fresh on every
// call; resolutions are never cached.
func (s *Service) ResolveReference(ctx context.Context, ref string) sisense.Resolution {
	models, err := s.ListSchemas(ctx)
	if err != nil {
		return sisense.ResolutionFailed(err)
	}

	if IsOID(ref) {
		for _, m := range models {
			if m.OID == ref {
				return sisense.Resolved(m.OID, m.Title)
			}
		}
	}
	for _, m := range models {
		if m.Title == ref {
			return sisense.Resolved(m.OID, m.Title)
		}
	}
	return sisense.Unresolved(&sisense.NotFoundError{Resource: "data model", Ref: ref})
}
