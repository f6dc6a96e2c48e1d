package migration

import (
	"context"
	"fmt"

	"github.com/sisensehq/go-sisense/pkg/access"
)

// MigrateUsers migrates the given users, identified by email, from source
// to target. Role references are rewritten by role name; a user whose role
// the target lacks fails that user only. Users already present in the
// target are skipped.
func (m *Migrator) MigrateUsers(ctx context.Context, emails []string) (*Summary, error) {
	if len(emails) == 0 {
		return nil, fmt.Errorf("no user emails given")
	}

	sourceUsers, err := m.sourceAccess.ListUsers(ctx, "groups,role")
	if err != nil {
		return nil, fmt.Errorf("listing source users: %w", err)
	}

	byEmail := make(map[string]access.User, len(sourceUsers))
	for _, u := range sourceUsers {
		byEmail[u.Email] = u
	}

	summary := m.newSummary()
	var selected []access.User
	for _, email := range emails {
		u, ok := byEmail[email]
		if !ok {
			summary.add(failedOutcome(email, "", "", "not found in source"))
			continue
		}
		selected = append(selected, u)
	}

	m.migrateUserRecords(ctx, summary, selected)
	return summary, nil
}

// MigrateAllUsers migrates every source user except holders of the sysadmin
// role, which is environment-local.
func (m *Migrator) MigrateAllUsers(ctx context.Context) (*Summary, error) {
	sourceUsers, err := m.sourceAccess.ListUsers(ctx, "groups,role")
	if err != nil {
		return nil, fmt.Errorf("listing source users: %w", err)
	}

	summary := m.newSummary()
	var selected []access.User
	for _, u := range sourceUsers {
		if u.Role != nil && u.Role.Name == access.RoleSuper {
			m.logger.Debug("sysadmin user excluded", "email", u.Email)
			continue
		}
		selected = append(selected, u)
	}

	m.migrateUserRecords(ctx, summary, selected)
	return summary, nil
}

func (m *Migrator) migrateUserRecords(ctx context.Context, summary *Summary, users []access.User) {
	if len(users) == 0 {
		return
	}

	roles, err := m.targetRoleIndex(ctx)
	if err != nil {
		for _, u := range users {
			summary.add(failedOutcome(u.Email, u.ID, u.Email, err.Error()))
		}
		return
	}
	groups, err := m.targetGroupIndex(ctx)
	if err != nil {
		for _, u := range users {
			summary.add(failedOutcome(u.Email, u.ID, u.Email, err.Error()))
		}
		return
	}

	targetUsers, err := m.targetAccess.ListUsers(ctx, "")
	if err != nil {
		for _, u := range users {
			summary.add(failedOutcome(u.Email, u.ID, u.Email, err.Error()))
		}
		return
	}
	existing := make(map[string]string, len(targetUsers))
	for _, u := range targetUsers {
		existing[u.Email] = u.ID
	}

	var toCreate []access.User
	var payloads []access.UserPayload
	for _, u := range users {
		if targetID, ok := existing[u.Email]; ok {
			summary.add(skippedOutcome(u.Email, targetID, u.Email, "already exists in target"))
			continue
		}
		payload, err := m.translateUser(u, roles, groups)
		if err != nil {
			summary.add(failedOutcome(u.Email, u.ID, u.Email, err.Error()))
			continue
		}
		toCreate = append(toCreate, u)
		payloads = append(payloads, payload)
	}
	if len(toCreate) == 0 {
		return
	}

	m.logger.Info("creating users in target",
		"run_id", summary.RunID, "count", len(toCreate))
	if _, err := m.targetAccess.CreateUsersBulk(ctx, payloads); err != nil {
		for _, u := range toCreate {
			summary.add(failedOutcome(u.Email, u.ID, u.Email, err.Error()))
		}
		return
	}
	for _, u := range toCreate {
		summary.add(succeededOutcome(u.Email, u.ID, u.Email))
	}
}
