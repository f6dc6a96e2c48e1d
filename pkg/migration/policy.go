package migration

// Effect is the concrete operation the action policy settled on for one
// entity, given whether a same-title entity already exists in the target.
type Effect string

const (
	// EffectCreate imports the entity as new.
	EffectCreate Effect = "create"
	// EffectSkip leaves the target untouched.
	EffectSkip Effect = "skip"
	// EffectOverwrite replaces the matched target entity in place.
	EffectOverwrite Effect = "overwrite"
	// EffectDuplicate imports under a different title next to the match.
	EffectDuplicate Effect = "duplicate"
)

// TargetMatch identifies the target entity that collides with the one being
// migrated.
type TargetMatch struct {
	ID    string
	Title string
}

// Decision is the policy output for one entity.
type Decision struct {
	Effect Effect
	// TargetID is the matched target entity's ID; set for overwrites.
	TargetID string
	// Title is the title to import under; set for duplicates.
	Title string
	// Reason explains skips.
	Reason string
}

// Decide applies the conflict action. With no target match every action
// degrades to a plain create: there is nothing to skip, overwrite, or
// duplicate around. NewTitle only matters for duplicates; empty means
// "<original title> (Duplicate)".
func Decide(action Action, match *TargetMatch, originalTitle, newTitle string) Decision {
	if match == nil {
		return Decision{Effect: EffectCreate}
	}

	switch action.orDefault() {
	case ActionOverwrite:
		return Decision{Effect: EffectOverwrite, TargetID: match.ID}
	case ActionDuplicate:
		title := newTitle
		if title == "" {
			title = originalTitle + " (Duplicate)"
		}
		return Decision{Effect: EffectDuplicate, Title: title}
	default:
		return Decision{
			Effect: EffectSkip,
			Reason: "already exists in target (action: skip)",
		}
	}
}
