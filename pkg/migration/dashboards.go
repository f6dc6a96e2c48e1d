package migration

import (
	"context"
	"fmt"

	"github.com/sisensehq/go-sisense/pkg/dashboards"
)

// DashboardOptions tune a dashboard migration.
type DashboardOptions struct {
	// Action controls how title collisions in the target are handled.
	Action Action
	// Republish republishes migrated dashboards on import.
	Republish bool
	// MigrateShares migrates each dashboard's share list after import.
	// Shares only follow skip/default imports: overwrites keep the target's
	// existing shares and duplicates start clean.
	MigrateShares bool
	// ChangeOwnership reassigns migrated dashboards to the source owner's
	// target counterpart. Requires MigrateShares.
	ChangeOwnership bool
}

// Validate rejects inconsistent options before any network activity.
func (o DashboardOptions) Validate() error {
	if err := o.Action.Validate(); err != nil {
		return err
	}
	if o.ChangeOwnership && !o.MigrateShares {
		return fmt.Errorf("ChangeOwnership requires MigrateShares")
	}
	return nil
}

// MigrateDashboards migrates the referenced dashboards from source to
// target through the bulk import endpoint. Each reference is resolved
// against the source; a reference that does not resolve, or whose export
// fails, fails that dashboard only.
func (m *Migrator) MigrateDashboards(ctx context.Context, refs []Reference, opts DashboardOptions) (*Summary, error) {
	if len(refs) == 0 {
		return nil, fmt.Errorf("no dashboard references given")
	}
	if err := opts.Validate(); err != nil {
		return nil, err
	}

	summary := m.newSummary()
	m.migrateDashboardRefs(ctx, summary, refs, opts)
	return summary, nil
}

// MigrateAllDashboards migrates every root dashboard in the source, in
// batches with a pause between them.
func (m *Migrator) MigrateAllDashboards(ctx context.Context, opts DashboardOptions, batch BatchOptions) (*Summary, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}

	all, err := m.sourceDashboards.Search(ctx)
	if err != nil {
		return nil, fmt.Errorf("searching source dashboards: %w", err)
	}

	refs := make([]Reference, len(all))
	for i, d := range all {
		refs[i] = ByID(d.OID)
	}

	summary := runBatches(ctx, m, refs, batch,
		func(r Reference) string { return r.Value() },
		func(ctx context.Context, batch []Reference) (*Summary, error) {
			s := m.newSummary()
			m.migrateDashboardRefs(ctx, s, batch, opts)
			return s, nil
		})
	return summary, nil
}

func (m *Migrator) migrateDashboardRefs(ctx context.Context, summary *Summary, refs []Reference, opts DashboardOptions) {
	// Resolve and export from the source. Export documents keep their
	// source oid, which the share pass later pairs with the imported
	// target oid by title.
	type exported struct {
		ref string
		doc dashboards.Document
	}
	var exports []exported
	for _, ref := range refs {
		res := m.sourceDashboards.ResolveReference(ctx, ref.Value())
		if !res.OK {
			summary.add(failedOutcome(ref.Value(), "", "", res.Err.Error()))
			continue
		}
		doc, err := m.sourceDashboards.Export(ctx, res.ID)
		if err != nil {
			summary.add(failedOutcome(ref.Value(), res.ID, res.Title, fmt.Sprintf("export failed: %v", err)))
			continue
		}
		exports = append(exports, exported{ref: ref.Value(), doc: doc})
	}
	if len(exports) == 0 {
		return
	}

	docs := make([]dashboards.Document, len(exports))
	byTitle := make(map[string]exported, len(exports))
	for i, e := range exports {
		docs[i] = e.doc
		byTitle[e.doc.Title()] = e
	}

	m.logger.Info("importing dashboards into target",
		"run_id", summary.RunID, "count", len(docs), "action", string(opts.Action))
	result, err := m.targetDashboards.ImportBulk(ctx, docs, opts.Republish, string(opts.Action))
	if err != nil {
		for _, e := range exports {
			summary.add(failedOutcome(e.ref, e.doc.OID(), e.doc.Title(), err.Error()))
		}
		return
	}

	// The import envelope reports by title; pair entries back to the
	// exported documents through it.
	outcomeFor := func(title string) (ref, id string) {
		if e, ok := byTitle[title]; ok {
			return e.ref, e.doc.OID()
		}
		return title, ""
	}

	// sourceToTarget pairs source oid to imported target oid for the share
	// pass.
	sourceToTarget := make(map[string]string)
	for _, d := range result.Succeeded {
		ref, sourceID := outcomeFor(d.Title)
		summary.add(succeededOutcome(ref, sourceID, d.Title))
		if sourceID != "" {
			if sourceID != d.OID {
				m.logger.Warn("imported dashboard has a new id",
					"title", d.Title, "source_id", sourceID, "target_id", d.OID)
			}
			sourceToTarget[sourceID] = d.OID
		}
	}
	for _, d := range result.Skipped {
		ref, sourceID := outcomeFor(d.Title)
		summary.add(skippedOutcome(ref, sourceID, d.Title, "already exists in target"))
	}
	for _, f := range result.Failed {
		ref, sourceID := outcomeFor(f.Title)
		summary.add(failedOutcome(ref, sourceID, f.Title, f.Reason))
	}

	if !opts.MigrateShares {
		return
	}
	if a := opts.Action.orDefault(); a == ActionOverwrite || a == ActionDuplicate {
		m.logger.Info("shares not migrated for this action", "action", string(a))
		return
	}
	if len(sourceToTarget) == 0 {
		m.logger.Info("no newly imported dashboards, skipping share migration")
		return
	}

	sourceIDs := make([]string, 0, len(sourceToTarget))
	targetIDs := make([]string, 0, len(sourceToTarget))
	for sourceID, targetID := range sourceToTarget {
		sourceIDs = append(sourceIDs, sourceID)
		targetIDs = append(targetIDs, targetID)
	}
	shareSummary, err := m.MigrateDashboardShares(ctx, sourceIDs, targetIDs, opts.ChangeOwnership)
	if err != nil {
		m.logger.Error("share migration failed", "error", err)
		return
	}
	summary.SharesAdded += shareSummary.SharesAdded
	summary.SharesFailed += shareSummary.SharesFailed
}
