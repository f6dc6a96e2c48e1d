package migration

import (
	"context"
	"fmt"

	"github.com/sisensehq/go-sisense/pkg/dashboards"
)

// MigrateDashboardShares migrates share lists for dashboard pairs. The two
// slices pair positionally: sourceIDs[i]'s shares are applied to
// targetIDs[i]. Length mismatches fail up front, before any network call,
// because a misaligned pairing would grant access to the wrong dashboards.
//
// Existing target shares are kept; only source shares whose party is not
// already on the target list are added. When changeOwnership is set and the
// source owner has a target counterpart, the target dashboard is reassigned
// to it, granting the previous owner edit access.
func (m *Migrator) MigrateDashboardShares(ctx context.Context, sourceIDs, targetIDs []string, changeOwnership bool) (*ShareSummary, error) {
	if len(sourceIDs) == 0 || len(targetIDs) == 0 {
		return nil, fmt.Errorf("both source and target dashboard IDs must be given")
	}
	if len(sourceIDs) != len(targetIDs) {
		return nil, fmt.Errorf(
			"source and target dashboard ID counts differ: %d vs %d",
			len(sourceIDs), len(targetIDs))
	}

	maps, err := m.buildIdentityMaps(ctx)
	if err != nil {
		return nil, err
	}

	summary := m.newShareSummary()
	for i := range sourceIDs {
		summary.add(m.migrateShareSet(ctx, maps, sourceIDs[i], targetIDs[i], changeOwnership))
	}

	m.logger.Info("share migration finished",
		"run_id", summary.RunID,
		"dashboards", len(sourceIDs),
		"shares_added", summary.SharesAdded,
		"shares_failed", summary.SharesFailed)
	return summary, nil
}

func (m *Migrator) migrateShareSet(ctx context.Context, maps *identityMaps, sourceID, targetID string, changeOwnership bool) ShareOutcome {
	m.logger.Info("migrating shares", "source_id", sourceID, "target_id", targetID)

	sourceShares, err := m.sourceDashboards.Shares(ctx, sourceID)
	if err != nil {
		return ShareOutcome{
			SourceID: sourceID, TargetID: targetID,
			Status: StatusFailed,
			Reason: fmt.Sprintf("fetching source shares: %v", err),
		}
	}
	if len(sourceShares.SharesTo) == 0 {
		return ShareOutcome{
			SourceID: sourceID, TargetID: targetID,
			Status: StatusSkipped, Reason: "source dashboard has no shares",
		}
	}

	newShares := m.translateShares(sourceShares.SharesTo, maps)

	targetShares, err := m.targetDashboards.Shares(ctx, targetID)
	if err != nil {
		return ShareOutcome{
			SourceID: sourceID, TargetID: targetID,
			Status: StatusFailed,
			Reason: fmt.Sprintf("fetching target shares: %v", err),
		}
	}

	existing := make(map[string]bool, len(targetShares.SharesTo))
	for _, s := range targetShares.SharesTo {
		existing[s.PartyKey()] = true
	}
	var added []dashboards.Share
	for _, s := range newShares {
		if existing[s.PartyKey()] {
			m.logger.Debug("share already present on target, not re-added", "party", s.PartyKey())
			continue
		}
		// The import API only consumes the rule fields; display names were
		// just for duplicate detection.
		added = append(added, dashboards.Share{
			ShareID:   s.ShareID,
			Type:      s.Type,
			Rule:      s.Rule,
			Subscribe: s.Subscribe,
		})
	}

	combined := append(append([]dashboards.Share{}, targetShares.SharesTo...), added...)
	if len(combined) == 0 {
		return ShareOutcome{
			SourceID: sourceID, TargetID: targetID,
			Status: StatusSkipped,
			Reason: "no shares could be mapped to the target environment",
		}
	}

	if err := m.targetDashboards.SetShares(ctx, targetID, combined); err != nil {
		return ShareOutcome{
			SourceID: sourceID, TargetID: targetID,
			Status: StatusFailed,
			Reason: fmt.Sprintf("applying shares: %v", err),
		}
	}

	outcome := ShareOutcome{
		SourceID: sourceID, TargetID: targetID,
		SharesAdded: len(added),
		Status:      StatusSucceeded,
	}

	if changeOwnership {
		if err := m.reassignOwner(ctx, maps, sourceShares, targetShares, targetID); err != nil {
			m.logger.Error("ownership change failed", "target_id", targetID, "error", err)
		}
	}
	return outcome
}

// reassignOwner points the target dashboard at the source owner's target
// counterpart. A target that is already correctly owned is left alone.
func (m *Migrator) reassignOwner(ctx context.Context, maps *identityMaps, sourceShares, targetShares *dashboards.ShareSet, targetID string) error {
	if sourceShares.Owner == nil {
		m.logger.Warn("source dashboard has no owner recorded", "target_id", targetID)
		return nil
	}
	newOwnerID, ok := maps.users[sourceShares.Owner.ID]
	if !ok {
		m.logger.Warn("source owner has no counterpart in target",
			"owner", sourceShares.Owner.UserName, "target_id", targetID)
		return nil
	}
	if targetShares.Owner != nil && targetShares.Owner.ID == newOwnerID {
		m.logger.Debug("target dashboard already correctly owned", "target_id", targetID)
		return nil
	}

	m.logger.Info("changing dashboard owner",
		"target_id", targetID, "owner", sourceShares.Owner.UserName)
	return m.targetDashboards.ChangeOwner(ctx, targetID, newOwnerID)
}
