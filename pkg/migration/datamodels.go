package migration

import (
	"context"
	"errors"
	"fmt"

	"github.com/sisensehq/go-sisense/pkg/datamodels"
	"github.com/sisensehq/go-sisense/pkg/sisense"
)

// DatamodelOptions tune a data model migration.
type DatamodelOptions struct {
	// Connections maps provider names to target connection oids. Datasets
	// whose provider is mapped are pointed at the target connection;
	// everything else has its credentials blanked.
	Connections ConnectionMap
	// Dependencies selects which dependency kinds ride along with the
	// schema (dataSecurity, formulas, hierarchies, perspectives). Empty or
	// "all" means everything.
	Dependencies []string
	// Shares also migrates each model's permission rules.
	Shares bool
	// Action controls how title collisions in the target are handled.
	Action Action
	// NewTitle overrides the "<title> (Duplicate)" naming for duplicates.
	NewTitle string
}

// migratedModel carries what the share pass needs about one imported model.
type migratedModel struct {
	schema datamodels.Schema
	// targetTitle and targetID locate the model in the target environment
	// after the import, which may differ from the source under duplicate
	// and overwrite actions.
	targetTitle string
	targetID    string
}

// MigrateDatamodels migrates the referenced data models one by one. Unknown
// dependency names and unknown actions fail before any network activity.
// Expected platform conditions (overwrite target vanished, title collision
// with a different model) are recorded per entity, never raised.
func (m *Migrator) MigrateDatamodels(ctx context.Context, refs []Reference, opts DatamodelOptions) (*Summary, error) {
	if len(refs) == 0 {
		return nil, fmt.Errorf("no data model references given")
	}
	if err := opts.Action.Validate(); err != nil {
		return nil, err
	}
	apiDeps, err := datamodels.ExpandDependencies(opts.Dependencies)
	if err != nil {
		return nil, err
	}

	summary := m.newSummary()
	m.migrateModelRefs(ctx, summary, refs, opts, apiDeps)
	return summary, nil
}

// MigrateAllDatamodels migrates every data model in the source, in batches
// with a pause between them.
func (m *Migrator) MigrateAllDatamodels(ctx context.Context, opts DatamodelOptions, batch BatchOptions) (*Summary, error) {
	if err := opts.Action.Validate(); err != nil {
		return nil, err
	}
	apiDeps, err := datamodels.ExpandDependencies(opts.Dependencies)
	if err != nil {
		return nil, err
	}

	models, err := m.sourceModels.ListSchemas(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing source data models: %w", err)
	}
	refs := make([]Reference, len(models))
	for i, model := range models {
		refs[i] = ByID(model.OID)
	}

	summary := runBatches(ctx, m, refs, batch,
		func(r Reference) string { return r.Value() },
		func(ctx context.Context, batch []Reference) (*Summary, error) {
			s := m.newSummary()
			m.migrateModelRefs(ctx, s, batch, opts, apiDeps)
			return s, nil
		})
	return summary, nil
}

func (m *Migrator) migrateModelRefs(ctx context.Context, summary *Summary, refs []Reference, opts DatamodelOptions, apiDeps []string) {
	targetModels, err := m.targetModels.ListSchemas(ctx)
	if err != nil {
		for _, ref := range refs {
			summary.add(failedOutcome(ref.Value(), "", "", fmt.Sprintf("listing target data models: %v", err)))
		}
		return
	}
	targetByTitle := make(map[string]datamodels.SchemaSummary, len(targetModels))
	for _, t := range targetModels {
		targetByTitle[t.Title] = t
	}

	var migrated []migratedModel
	for _, ref := range refs {
		res := m.sourceModels.ResolveReference(ctx, ref.Value())
		if !res.OK {
			summary.add(failedOutcome(ref.Value(), "", "", res.Err.Error()))
			continue
		}

		schema, err := m.sourceModels.ExportSchema(ctx, res.ID, apiDeps)
		if err != nil {
			summary.add(failedOutcome(ref.Value(), res.ID, res.Title, fmt.Sprintf("export failed: %v", err)))
			continue
		}
		m.remapConnections(schema, opts.Connections)

		var match *TargetMatch
		if t, ok := targetByTitle[schema.Title()]; ok {
			match = &TargetMatch{ID: t.OID, Title: t.Title}
		}
		decision := Decide(opts.Action, match, schema.Title(), opts.NewTitle)

		outcome, model := m.importModel(ctx, ref.Value(), schema, decision)
		summary.add(outcome)
		if outcome.Status == StatusSucceeded {
			migrated = append(migrated, model)
		}
	}

	if opts.Shares && len(migrated) > 0 {
		m.migrateModelShares(ctx, summary, migrated)
	}
}

// importModel runs one import under the policy decision, including the
// stale-ID degradation: an overwrite whose target ID the platform no longer
// knows is retried as a plain create instead of failing the model.
func (m *Migrator) importModel(ctx context.Context, ref string, schema datamodels.Schema, decision Decision) (Outcome, migratedModel) {
	id, title := schema.OID(), schema.Title()
	model := migratedModel{schema: schema, targetTitle: title, targetID: id}

	switch decision.Effect {
	case EffectSkip:
		return skippedOutcome(ref, id, title, decision.Reason), model

	case EffectDuplicate:
		model.targetTitle = decision.Title
		err := m.targetModels.ImportSchema(ctx, schema, datamodels.ImportOptions{NewTitle: decision.Title})
		if err != nil {
			return failedOutcome(ref, id, title, err.Error()), model
		}
		m.logger.Info("data model duplicated", "title", title, "new_title", decision.Title)
		return succeededOutcome(ref, id, title), model

	case EffectOverwrite:
		model.targetID = decision.TargetID
		err := m.targetModels.ImportSchema(ctx, schema, datamodels.ImportOptions{DatamodelID: decision.TargetID})
		if err == nil {
			m.logger.Info("data model overwritten", "title", title, "target_id", decision.TargetID)
			return succeededOutcome(ref, id, title), model
		}
		if !sisense.IsNotFound(err) {
			return failedOutcome(ref, id, title, err.Error()), model
		}
		m.logger.Warn("overwrite target vanished, importing as new", "title", title)
		model.targetID = id
		outcome := m.createModel(ctx, ref, schema)
		if outcome.Status == StatusSucceeded {
			outcome.Reason = "overwrite target missing, imported as new"
		}
		return outcome, model

	default: // EffectCreate
		return m.createModel(ctx, ref, schema), model
	}
}

func (m *Migrator) createModel(ctx context.Context, ref string, schema datamodels.Schema) Outcome {
	id, title := schema.OID(), schema.Title()
	if err := m.targetModels.ImportSchema(ctx, schema, datamodels.ImportOptions{}); err != nil {
		var exists *datamodels.AlreadyExistsError
		if errors.As(err, &exists) {
			return failedOutcome(ref, id, title, err.Error()+
				"; use the duplicate action with a new title, or remove the existing model")
		}
		return failedOutcome(ref, id, title, err.Error())
	}
	m.logger.Info("data model imported", "title", title)
	return succeededOutcome(ref, id, title)
}

func (m *Migrator) migrateModelShares(ctx context.Context, summary *Summary, migrated []migratedModel) {
	maps, err := m.buildIdentityMaps(ctx)
	if err != nil {
		m.logger.Error("share migration aborted", "error", err)
		summary.SharesFailed += len(migrated)
		return
	}

	for _, model := range migrated {
		rules, err := m.sourceModels.Permissions(ctx, model.schema)
		if err != nil {
			m.logger.Error("fetching source permissions failed",
				"model", model.schema.Title(), "error", err)
			summary.SharesFailed++
			continue
		}

		translated := m.translatePermissions(rules, maps)
		if len(translated) == 0 {
			m.logger.Warn("no permission rules could be mapped to the target",
				"model", model.schema.Title())
			continue
		}

		// The permission endpoints address extract models by title and
		// live models by oid, so the schema copy has to carry the
		// post-import identity.
		target := datamodels.Schema{
			"oid":   model.targetID,
			"title": model.targetTitle,
			"type":  model.schema.Type(),
		}
		if err := m.targetModels.SetPermissions(ctx, target, translated); err != nil {
			m.logger.Error("applying permissions failed",
				"model", model.targetTitle, "error", err)
			summary.SharesFailed++
			continue
		}
		summary.SharesAdded += len(translated)
		m.logger.Info("data model permissions migrated",
			"model", model.targetTitle, "rules", len(translated))
	}
}

// translatePermissions re-keys permission rules into target party IDs,
// dropping rules whose party has no target counterpart.
func (m *Migrator) translatePermissions(rules []datamodels.PermissionRule, maps *identityMaps) []datamodels.PermissionRule {
	var translated []datamodels.PermissionRule
	for _, rule := range rules {
		permission := rule.Permission
		if permission == "" {
			permission = "a"
		}
		switch rule.Type {
		case "user":
			targetID, ok := maps.users[rule.PartyID]
			if !ok {
				m.logger.Warn("permission user missing in target, dropped",
					"email", maps.sourceUserEmails[rule.PartyID])
				continue
			}
			translated = append(translated, datamodels.PermissionRule{
				PartyID: targetID, Type: "user", Permission: permission,
			})
		case "group":
			targetID, ok := maps.groups[rule.PartyID]
			if !ok {
				m.logger.Warn("permission group missing in target, dropped",
					"group", maps.sourceGroupNames[rule.PartyID])
				continue
			}
			translated = append(translated, datamodels.PermissionRule{
				PartyID: targetID, Type: "group", Permission: permission,
			})
		default:
			m.logger.Warn("unknown permission party type, dropped", "type", rule.Type)
		}
	}
	return translated
}
