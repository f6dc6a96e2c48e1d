package datamodels

import (
	"fmt"
	"sort"

	"github.com/hashicorp/go-multierror"
)

// Dependency kinds a data model export can carry. These are the
// caller-facing names; each maps to one or more API dependency identifiers.
const (
	DependencyDataSecurity = "dataSecurity"
	DependencyFormulas     = "formulas"
	DependencyHierarchies  = "hierarchies"
	DependencyPerspectives = "perspectives"
)

// DependencyAll requests every recognized dependency kind.
const DependencyAll = "all"

// dependencyMapping translates caller-facing kinds to the identifiers the
// export endpoint's dependenciesIdsToInclude parameter understands. Adding
// a new kind to the platform means adding it here explicitly; there is no
// wildcard at the API layer.
var dependencyMapping = map[string][]string{
	DependencyDataSecurity: {"dataContext", "scopeConfiguration"},
	DependencyFormulas:     {"formulaManagement"},
	DependencyHierarchies:  {"drillHierarchies"},
	DependencyPerspectives: {"perspectives"},
}

// KnownDependencies returns the recognized dependency kinds, sorted.
func KnownDependencies() []string {
	kinds := make([]string, 0, len(dependencyMapping))
	for kind := range dependencyMapping {
		kinds = append(kinds, kind)
	}
	sort.Strings(kinds)
	return kinds
}

// ExpandDependencies maps requested dependency kinds to the de-duplicated
// API identifier list. An empty request or "all" expands to every known
// kind. Unknown kinds fail with a validation error instead of being
// silently dropped, so a typo cannot cause a silently partial migration.
func ExpandDependencies(requested []string) ([]string, error) {
	if len(requested) == 0 {
		requested = KnownDependencies()
	} else {
		for _, kind := range requested {
			if kind == DependencyAll {
				requested = KnownDependencies()
				break
			}
		}
	}

	var errs *multierror.Error
	seen := make(map[string]bool)
	var ids []string
	for _, kind := range requested {
		apiIDs, ok := dependencyMapping[kind]
		if !ok {
			errs = multierror.Append(errs, fmt.Errorf(
				"unknown dependency %q (known: %v)", kind, KnownDependencies()))
			continue
		}
		for _, id := range apiIDs {
			if !seen[id] {
				seen[id] = true
				ids = append(ids, id)
			}
		}
	}
	if err := errs.ErrorOrNil(); err != nil {
		return nil, err
	}

	sort.Strings(ids)
	return ids, nil
}
