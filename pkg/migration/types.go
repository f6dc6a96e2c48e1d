package migration

import (
	"fmt"

	"github.com/hashicorp/go-multierror"
)

// Action is the policy applied when a migrated entity already exists in the
// target environment.
type Action string

const (
	// ActionDefault leaves the platform default, which skips existing
	// entities.
	ActionDefault Action = ""
	// ActionSkip leaves existing target entities untouched.
	ActionSkip Action = "skip"
	// ActionOverwrite updates the existing target entity in place, reusing
	// its ID.
	ActionOverwrite Action = "overwrite"
	// ActionDuplicate creates a new entity under a different title, leaving
	// the existing one untouched.
	ActionDuplicate Action = "duplicate"
)

// Validate rejects unknown action names before any network activity.
func (a Action) Validate() error {
	switch a {
	case ActionDefault, ActionSkip, ActionOverwrite, ActionDuplicate:
		return nil
	default:
		return fmt.Errorf("unknown action %q (known: skip, overwrite, duplicate)", string(a))
	}
}

// orDefault resolves ActionDefault to the platform default.
func (a Action) orDefault() Action {
	if a == ActionDefault {
		return ActionSkip
	}
	return a
}

type refKind int

const (
	refID refKind = iota
	refTitle
)

// Reference names an entity either by ID or by exact title, so call sites
// never have to shape-sniff strings. Resolution still falls back from ID to
// title when an ID-shaped reference does not exist.
type Reference struct {
	kind  refKind
	value string
}

// ByID builds a reference by entity ID.
func ByID(id string) Reference { return Reference{kind: refID, value: id} }

// ByTitle builds a reference by exact entity title.
func ByTitle(title string) Reference { return Reference{kind: refTitle, value: title} }

// IsID reports whether the reference was given as an ID.
func (r Reference) IsID() bool { return r.kind == refID }

// Value returns the raw reference string.
func (r Reference) Value() string { return r.value }

func (r Reference) String() string { return r.value }

// ByIDs builds references for a list of entity IDs.
func ByIDs(ids ...string) []Reference {
	refs := make([]Reference, len(ids))
	for i, id := range ids {
		refs[i] = ByID(id)
	}
	return refs
}

// ByTitles builds references for a list of entity titles.
func ByTitles(titles ...string) []Reference {
	refs := make([]Reference, len(titles))
	for i, title := range titles {
		refs[i] = ByTitle(title)
	}
	return refs
}

// OutcomeStatus classifies one entity's migration result.
type OutcomeStatus string

const (
	StatusSucceeded OutcomeStatus = "succeeded"
	StatusSkipped   OutcomeStatus = "skipped"
	StatusFailed    OutcomeStatus = "failed"
)

// Outcome records what happened to one entity.
type Outcome struct {
	// Ref is the reference string the caller supplied.
	Ref string `json:"ref"`
	// ID and Title identify the source entity when resolution succeeded.
	ID    string `json:"id,omitempty"`
	Title string `json:"title,omitempty"`
	// Status is the final classification.
	Status OutcomeStatus `json:"status"`
	// Reason explains skipped and failed outcomes.
	Reason string `json:"reason,omitempty"`
}

func succeededOutcome(ref, id, title string) Outcome {
	return Outcome{Ref: ref, ID: id, Title: title, Status: StatusSucceeded}
}

func skippedOutcome(ref, id, title, reason string) Outcome {
	return Outcome{Ref: ref, ID: id, Title: title, Status: StatusSkipped, Reason: reason}
}

func failedOutcome(ref, id, title, reason string) Outcome {
	return Outcome{Ref: ref, ID: id, Title: title, Status: StatusFailed, Reason: reason}
}

// Summary is the complete accounting of one migration call. Every requested
// entity lands in exactly one of the three lists; a failed entity never
// aborts the pass.
type Summary struct {
	// RunID identifies the migration invocation in logs and reports.
	RunID string `json:"runId"`

	Succeeded []Outcome `json:"succeeded"`
	Skipped   []Outcome `json:"skipped"`
	Failed    []Outcome `json:"failed"`

	// Share counters, populated when the call also migrated shares.
	SharesAdded  int `json:"sharesAdded,omitempty"`
	SharesFailed int `json:"sharesFailed,omitempty"`
}

// Total returns the number of entities accounted for.
func (s *Summary) Total() int {
	return len(s.Succeeded) + len(s.Skipped) + len(s.Failed)
}

// Err aggregates every failure reason into one error, or nil when nothing
// failed. Skips are not errors.
func (s *Summary) Err() error {
	var errs *multierror.Error
	for _, o := range s.Failed {
		errs = multierror.Append(errs, fmt.Errorf("%s: %s", o.Ref, o.Reason))
	}
	return errs.ErrorOrNil()
}

func (s *Summary) add(o Outcome) {
	switch o.Status {
	case StatusSucceeded:
		s.Succeeded = append(s.Succeeded, o)
	case StatusSkipped:
		s.Skipped = append(s.Skipped, o)
	default:
		s.Failed = append(s.Failed, o)
	}
}

func (s *Summary) merge(other *Summary) {
	s.Succeeded = append(s.Succeeded, other.Succeeded...)
	s.Skipped = append(s.Skipped, other.Skipped...)
	s.Failed = append(s.Failed, other.Failed...)
	s.SharesAdded += other.SharesAdded
	s.SharesFailed += other.SharesFailed
}

// IdentityMap maps source entity IDs to their target-environment
// counterparts. It is built at the start of a pass and consumed within that
// pass only; nothing is persisted across calls.
type IdentityMap map[string]string

// ConnectionMap maps data source provider names (for example "Databricks")
// to the oid of an equivalent connection already created in the target
// environment.
type ConnectionMap map[string]string

// ShareOutcome records the share migration result for one positional
// source/target pair.
type ShareOutcome struct {
	SourceID    string        `json:"sourceId"`
	TargetID    string        `json:"targetId"`
	SharesAdded int           `json:"sharesAdded"`
	Status      OutcomeStatus `json:"status"`
	Reason      string        `json:"reason,omitempty"`
}

// ShareSummary is the complete accounting of one share migration call.
type ShareSummary struct {
	RunID string `json:"runId"`

	Pairs        []ShareOutcome `json:"pairs"`
	SharesAdded  int            `json:"sharesAdded"`
	SharesFailed int            `json:"sharesFailed"`
}

// Err aggregates the failed pairs into one error, or nil.
func (s *ShareSummary) Err() error {
	var errs *multierror.Error
	for _, p := range s.Pairs {
		if p.Status == StatusFailed {
			errs = multierror.Append(errs, fmt.Errorf("%s: %s", p.SourceID, p.Reason))
		}
	}
	return errs.ErrorOrNil()
}

func (s *ShareSummary) add(p ShareOutcome) {
	s.Pairs = append(s.Pairs, p)
	s.SharesAdded += p.SharesAdded
	if p.Status == StatusFailed {
		s.SharesFailed++
	}
}
