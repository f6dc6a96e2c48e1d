// Package access provides user, group, and role operations against one
// Sisense environment.
package access

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/hashicorp/go-hclog"

	"github.com/sisensehq/go-sisense/pkg/sisense"
)

// Service exposes user/group/role operations for one environment.
type Service struct {
	client *sisense.Client
	logger hclog.Logger
}

// NewService creates an access service on top of client.
func NewService(client *sisense.Client, logger hclog.Logger) *Service {
	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	return &Service{
		client: client,
		logger: logger.Named("access"),
	}
}

// ListUsers returns every user in the environment. expand is forwarded to
// the API (e.g. "groups,role" to resolve role and group names inline).
func (s *Service) ListUsers(ctx context.Context, expand string) ([]User, error) {
	query := url.Values{}
	if expand != "" {
		query.Set("expand", expand)
	}

	resp, err := s.client.Get(ctx, "/api/v1/users", query)
	if err != nil {
		return nil, err
	}
	if !resp.OK() {
		return nil, fmt.Errorf("listing users: %s", resp.ErrorMessage())
	}

	var users []User
	if err := resp.Decode(&users); err != nil {
		return nil, err
	}
	s.logger.Debug("listed users", "count", len(users))
	return users, nil
}

// ListGroups returns every group in the environment.
func (s *Service) ListGroups(ctx context.Context) ([]Group, error) {
	resp, err := s.client.Get(ctx, "/api/v1/groups", nil)
	if err != nil {
		return nil, err
	}
	if !resp.OK() {
		return nil, fmt.Errorf("listing groups: %s", resp.ErrorMessage())
	}

	var groups []Group
	if err := resp.Decode(&groups); err != nil {
		return nil, err
	}
	s.logger.Debug("listed groups", "count", len(groups))
	return groups, nil
}

// ListRoles returns every role defined in the environment.
func (s *Service) ListRoles(ctx context.Context) ([]Role, error) {
	resp, err := s.client.Get(ctx, "/api/roles", nil)
	if err != nil {
		return nil, err
	}
	if !resp.OK() {
		return nil, fmt.Errorf("listing roles: %s", resp.ErrorMessage())
	}

	var roles []Role
	if err := resp.Decode(&roles); err != nil {
		return nil, err
	}
	return roles, nil
}

// GetUserByEmail returns the user with the given email, or a NotFoundError.
func (s *Service) GetUserByEmail(ctx context.Context, email string) (*User, error) {
	query := url.Values{"email": []string{email}}
	resp, err := s.client.Get(ctx, "/api/v1/users", query)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode == http.StatusNotFound {
		return nil, &sisense.NotFoundError{Resource: "user", Ref: email}
	}
	if !resp.OK() {
		return nil, fmt.Errorf("fetching user %q: %s", email, resp.ErrorMessage())
	}

	var users []User
	if err := resp.Decode(&users); err != nil {
		return nil, err
	}
	for i := range users {
		if users[i].Email == email {
			return &users[i], nil
		}
	}
	return nil, &sisense.NotFoundError{Resource: "user", Ref: email}
}

// GetGroupByName returns the group with the given name, or a NotFoundError.
// The match is exact and case-sensitive.
func (s *Service) GetGroupByName(ctx context.Context, name string) (*Group, error) {
	query := url.Values{"name": []string{name}}
	resp, err := s.client.Get(ctx, "/api/v1/groups", query)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode == http.StatusNotFound {
		return nil, &sisense.NotFoundError{Resource: "group", Ref: name}
	}
	if !resp.OK() {
		return nil, fmt.Errorf("fetching group %q: %s", name, resp.ErrorMessage())
	}

	var groups []Group
	if err := resp.Decode(&groups); err != nil {
		return nil, err
	}
	for i := range groups {
		if groups[i].Name == name {
			return &groups[i], nil
		}
	}
	return nil, &sisense.NotFoundError{Resource: "group", Ref: name}
}

// CreateUsersBulk creates users through the bulk endpoint. The returned
// slice holds the created users when the platform echoes them back; a 201
// with an unparsable body is still a success.
func (s *Service) CreateUsersBulk(ctx context.Context, payloads []UserPayload) ([]User, error) {
	resp, err := s.client.Post(ctx, "/api/v1/users/bulk", nil, payloads)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusCreated {
		return nil, fmt.Errorf("bulk user creation failed: %s", resp.ErrorMessage())
	}

	var created []User
	if err := resp.Decode(&created); err != nil {
		s.logger.Warn("bulk user response is not valid JSON, assuming success")
		return nil, nil
	}
	return created, nil
}

// CreateGroupsBulk creates groups through the bulk endpoint, with the same
// response handling as CreateUsersBulk.
func (s *Service) CreateGroupsBulk(ctx context.Context, payloads []GroupPayload) ([]Group, error) {
	resp, err := s.client.Post(ctx, "/api/v1/groups/bulk", nil, payloads)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusCreated {
		return nil, fmt.Errorf("bulk group creation failed: %s", resp.ErrorMessage())
	}

	var created []Group
	if err := resp.Decode(&created); err != nil {
		s.logger.Warn("bulk group response is not valid JSON, assuming success")
		return nil, nil
	}
	return created, nil
}
