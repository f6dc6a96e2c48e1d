package migration

import (
	"context"
	"fmt"

	"github.com/mitchellh/mapstructure"

	"github.com/sisensehq/go-sisense/pkg/access"
	"github.com/sisensehq/go-sisense/pkg/dashboards"
	"github.com/sisensehq/go-sisense/pkg/datamodels"
)

// Source payloads carry IDs that only mean something in the source
// environment. Before an import, every such ID is rewritten to its
// target-environment equivalent by matching on the stable attribute (role
// name, group name, user email, provider name).

// roleIndex maps role names to IDs in one environment.
type roleIndex map[string]string

func (m *Migrator) targetRoleIndex(ctx context.Context) (roleIndex, error) {
	roles, err := m.targetAccess.ListRoles(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing target roles: %w", err)
	}
	index := make(roleIndex, len(roles))
	for _, r := range roles {
		index[r.Name] = r.ID
	}
	return index, nil
}

// groupIndex maps group names to IDs in one environment.
type groupIndex map[string]string

func (m *Migrator) targetGroupIndex(ctx context.Context) (groupIndex, error) {
	groups, err := m.targetAccess.ListGroups(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing target groups: %w", err)
	}
	index := make(groupIndex, len(groups))
	for _, g := range groups {
		index[g.Name] = g.ID
	}
	return index, nil
}

// translateUser rewrites a source user into a creation payload for the
// target. The role is mandatory: a role name the target does not have fails
// the user. Groups are best effort: reserved groups never migrate, and a
// group missing from the target is dropped with a warning rather than
// blocking the user.
func (m *Migrator) translateUser(user access.User, roles roleIndex, groups groupIndex) (access.UserPayload, error) {
	if user.Role == nil {
		return access.UserPayload{}, fmt.Errorf("user %q has no role attached", user.Email)
	}
	roleID, ok := roles[user.Role.Name]
	if !ok {
		return access.UserPayload{}, fmt.Errorf(
			"role %q does not exist in the target", user.Role.Name)
	}

	var groupIDs []string
	for _, g := range user.Groups {
		if access.ReservedGroups[g.Name] {
			continue
		}
		id, ok := groups[g.Name]
		if !ok {
			m.logger.Warn("group missing in target, dropped from user",
				"user", user.Email, "group", g.Name)
			continue
		}
		groupIDs = append(groupIDs, id)
	}

	prefs := user.Preferences
	if len(prefs) == 0 {
		prefs = map[string]any{"localeId": "en-US"}
	}

	return access.UserPayload{
		Email:       user.Email,
		FirstName:   user.FirstName,
		LastName:    user.LastName,
		RoleID:      roleID,
		Groups:      groupIDs,
		Preferences: prefs,
	}, nil
}

// remapConnections rewrites each dataset's connection in place. Providers
// present in the map are pointed at the target environment's connection;
// everything else has its credentials blanked so source secrets never reach
// the target.
func (m *Migrator) remapConnections(schema datamodels.Schema, connections ConnectionMap) {
	for _, dataset := range schema.Datasets() {
		raw, ok := dataset["connection"].(map[string]any)
		if !ok {
			continue
		}

		var conn datamodels.Connection
		if err := mapstructure.Decode(raw, &conn); err != nil {
			m.logger.Warn("unreadable connection object, left as is",
				"model", schema.Title(), "error", err)
			continue
		}

		if oid, ok := connections[conn.Provider]; ok {
			dataset["connection"] = map[string]any{
				"oid":      oid,
				"provider": conn.Provider,
			}
			continue
		}
		if _, ok := raw["parameters"]; ok {
			raw["parameters"] = ""
		}
	}
}

// identityMaps pairs up users and groups across the two environments by
// email and name respectively. Entities without a counterpart are simply
// absent; callers decide whether that is a warning or a failure.
type identityMaps struct {
	// users maps source user ID to target user ID.
	users IdentityMap
	// groups maps source group ID to target group ID.
	groups IdentityMap
	// sourceUserEmails maps source user ID to email, for logs and share
	// de-duplication.
	sourceUserEmails map[string]string
	// sourceGroupNames maps source group ID to name.
	sourceGroupNames map[string]string
}

func (m *Migrator) buildIdentityMaps(ctx context.Context) (*identityMaps, error) {
	sourceUsers, err := m.sourceAccess.ListUsers(ctx, "")
	if err != nil {
		return nil, fmt.Errorf("listing source users: %w", err)
	}
	targetUsers, err := m.targetAccess.ListUsers(ctx, "")
	if err != nil {
		return nil, fmt.Errorf("listing target users: %w", err)
	}
	sourceGroups, err := m.sourceAccess.ListGroups(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing source groups: %w", err)
	}
	targetGroups, err := m.targetAccess.ListGroups(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing target groups: %w", err)
	}

	targetByEmail := make(map[string]string, len(targetUsers))
	for _, u := range targetUsers {
		targetByEmail[u.Email] = u.ID
	}
	targetByName := make(map[string]string, len(targetGroups))
	for _, g := range targetGroups {
		targetByName[g.Name] = g.ID
	}

	maps := &identityMaps{
		users:            make(IdentityMap),
		groups:           make(IdentityMap),
		sourceUserEmails: make(map[string]string, len(sourceUsers)),
		sourceGroupNames: make(map[string]string, len(sourceGroups)),
	}
	for _, u := range sourceUsers {
		maps.sourceUserEmails[u.ID] = u.Email
		if targetID, ok := targetByEmail[u.Email]; ok {
			maps.users[u.ID] = targetID
		}
	}
	for _, g := range sourceGroups {
		maps.sourceGroupNames[g.ID] = g.Name
		if targetID, ok := targetByName[g.Name]; ok {
			maps.groups[g.ID] = targetID
		}
	}

	m.logger.Debug("built identity maps",
		"users_matched", len(maps.users),
		"groups_matched", len(maps.groups))
	return maps, nil
}

// translateShares rewrites a source dashboard's share list into target
// party IDs. Shares whose party has no target counterpart are dropped with
// a warning. The returned shares keep UserName and Name populated so the
// caller can de-duplicate against existing target shares by identity, not
// by environment-specific ID.
func (m *Migrator) translateShares(shares []dashboards.Share, maps *identityMaps) []dashboards.Share {
	var translated []dashboards.Share
	for _, share := range shares {
		switch share.Type {
		case "user":
			email := maps.sourceUserEmails[share.ShareID]
			targetID, ok := maps.users[share.ShareID]
			if !ok {
				m.logger.Warn("share user missing in target, dropped", "email", email)
				continue
			}
			share.ShareID = targetID
			share.UserName = email
			if share.Rule == "" {
				share.Rule = "edit"
			}
			translated = append(translated, share)
		case "group":
			name := maps.sourceGroupNames[share.ShareID]
			targetID, ok := maps.groups[share.ShareID]
			if !ok {
				m.logger.Warn("share group missing in target, dropped", "group", name)
				continue
			}
			share.ShareID = targetID
			share.Name = name
			if share.Rule == "" {
				share.Rule = "viewer"
			}
			translated = append(translated, share)
		default:
			m.logger.Warn("unknown share type, dropped", "type", share.Type)
		}
	}
	return translated
}
