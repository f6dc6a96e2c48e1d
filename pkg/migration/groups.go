package migration

import (
	"context"
	"fmt"

	"github.com/sisensehq/go-sisense/pkg/access"
)

// MigrateGroups migrates the named groups from source to target through the
// bulk creation endpoint. A requested name with no source group fails that
// name only; nothing is silently dropped. Groups already present in the
// target are reported as skipped.
func (m *Migrator) MigrateGroups(ctx context.Context, names []string) (*Summary, error) {
	if len(names) == 0 {
		return nil, fmt.Errorf("no group names given")
	}

	sourceGroups, err := m.sourceAccess.ListGroups(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing source groups: %w", err)
	}

	byName := make(map[string]access.Group, len(sourceGroups))
	for _, g := range sourceGroups {
		byName[g.Name] = g
	}

	summary := m.newSummary()
	var selected []access.Group
	for _, name := range names {
		g, ok := byName[name]
		if !ok {
			summary.add(failedOutcome(name, "", name, "not found in source"))
			continue
		}
		selected = append(selected, g)
	}

	m.migrateGroupRecords(ctx, summary, selected)
	return summary, nil
}

// MigrateAllGroups migrates every group in the source except the reserved
// system groups, which exist in every environment already.
func (m *Migrator) MigrateAllGroups(ctx context.Context) (*Summary, error) {
	sourceGroups, err := m.sourceAccess.ListGroups(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing source groups: %w", err)
	}

	summary := m.newSummary()
	var selected []access.Group
	for _, g := range sourceGroups {
		if access.ReservedGroups[g.Name] {
			m.logger.Debug("reserved group excluded", "group", g.Name)
			continue
		}
		selected = append(selected, g)
	}

	m.migrateGroupRecords(ctx, summary, selected)
	return summary, nil
}

func (m *Migrator) migrateGroupRecords(ctx context.Context, summary *Summary, groups []access.Group) {
	if len(groups) == 0 {
		return
	}

	existing, err := m.targetGroupIndex(ctx)
	if err != nil {
		for _, g := range groups {
			summary.add(failedOutcome(g.Name, g.ID, g.Name, err.Error()))
		}
		return
	}

	var toCreate []access.Group
	payloads := make([]access.GroupPayload, 0, len(groups))
	for _, g := range groups {
		if targetID, ok := existing[g.Name]; ok {
			summary.add(skippedOutcome(g.Name, targetID, g.Name, "already exists in target"))
			continue
		}
		toCreate = append(toCreate, g)
		payloads = append(payloads, access.NewGroupPayload(g))
	}
	if len(toCreate) == 0 {
		return
	}

	m.logger.Info("creating groups in target",
		"run_id", summary.RunID, "count", len(toCreate))
	if _, err := m.targetAccess.CreateGroupsBulk(ctx, payloads); err != nil {
		for _, g := range toCreate {
			summary.add(failedOutcome(g.Name, g.ID, g.Name, err.Error()))
		}
		return
	}
	for _, g := range toCreate {
		summary.add(succeededOutcome(g.Name, g.ID, g.Name))
	}
}
