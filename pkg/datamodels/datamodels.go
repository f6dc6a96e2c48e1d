// Package datamodels provides data model operations against one Sisense
// environment: schema listing, export with dependencies, import, and
// permissions for both extract and live models.
package datamodels

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/hashicorp/go-hclog"

	"github.com/sisensehq/go-sisense/pkg/sisense"
)

// Model types as reported by the schema's "type" field.
const (
	TypeExtract = "extract"
	TypeLive    = "live"
)

// AlreadyExistsError reports that an import collided with a model that has
// the same title but a different ID, so neither create nor overwrite can
// proceed.
type AlreadyExistsError struct {
	Title string
}

func (e *AlreadyExistsError) Error() string {
	return fmt.Sprintf("data model %q already exists in the target with a different ID", e.Title)
}

// Service exposes data model operations for one environment.
type Service struct {
	client *sisense.Client
	logger hclog.Logger
}

// NewService creates a data model service on top of client.
func NewService(client *sisense.Client, logger hclog.Logger) *Service {
	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	return &Service{
		client: client,
		logger: logger.Named("datamodels"),
	}
}

// ListSchemas returns every data model's oid and title.
func (s *Service) ListSchemas(ctx context.Context) ([]SchemaSummary, error) {
	query := url.Values{"fields": []string{"oid,title"}}
	resp, err := s.client.Get(ctx, "/api/v2/datamodels/schema", query)
	if err != nil {
		return nil, err
	}
	if !resp.OK() {
		return nil, fmt.Errorf("listing data models: %s", resp.ErrorMessage())
	}

	var models []SchemaSummary
	if err := resp.Decode(&models); err != nil {
		return nil, err
	}
	s.logger.Debug("listed data models", "count", len(models))
	return models, nil
}

// ExportSchema fetches a model's latest schema including the given API
// dependency identifiers (see ExpandDependencies).
func (s *Service) ExportSchema(ctx context.Context, id string, apiDeps []string) (Schema, error) {
	query := url.Values{
		"datamodelId":              []string{id},
		"type":                     []string{"schema-latest"},
		"dependenciesIdsToInclude": []string{strings.Join(apiDeps, ",")},
	}
	resp, err := s.client.Get(ctx, "/api/v2/datamodel-exports/schema", query)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode == http.StatusNotFound {
		return nil, &sisense.NotFoundError{Resource: "data model", Ref: id}
	}
	if !resp.OK() {
		return nil, fmt.Errorf("exporting data model %q: %s", id, resp.ErrorMessage())
	}

	var schema Schema
	if err := resp.Decode(&schema); err != nil {
		return nil, err
	}
	return schema, nil
}

// ImportSchema imports a schema. A NotFoundError is returned when opts
// requested an overwrite of a model the target no longer has, an
// AlreadyExistsError when the title collides with a different model; both
// are expected conditions the caller resolves, not failures of the call.
func (s *Service) ImportSchema(ctx context.Context, schema Schema, opts ImportOptions) error {
	query := url.Values{}
	if opts.DatamodelID != "" {
		query.Set("datamodelId", opts.DatamodelID)
	}
	if opts.NewTitle != "" {
		query.Set("newTitle", opts.NewTitle)
	}

	resp, err := s.client.Post(ctx, "/api/v2/datamodel-imports/schema", query, schema)
	if err != nil {
		return err
	}
	switch {
	case resp.StatusCode == http.StatusCreated:
		return nil
	case resp.StatusCode == http.StatusNotFound:
		return &sisense.NotFoundError{Resource: "data model", Ref: opts.DatamodelID}
	case resp.StatusCode == http.StatusBadRequest && importConflict(resp.Body):
		return &AlreadyExistsError{Title: schema.Title()}
	default:
		return fmt.Errorf("importing data model %q: %s", schema.Title(), resp.ErrorMessage())
	}
}

func importConflict(body []byte) bool {
	var envelope struct {
		Title string `json:"title"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil {
		return false
	}
	return envelope.Title == "ElasticubeAlreadyExists"
}

// Publish triggers a publish build for a live model, a precondition for
// patching its permissions.
func (s *Service) Publish(ctx context.Context, id string) error {
	body := map[string]any{
		"datamodelId": id,
		"buildType":   "publish",
	}
	resp, err := s.client.Post(ctx, "/api/v2/builds", nil, body)
	if err != nil {
		return err
	}
	if resp.StatusCode != http.StatusCreated {
		return fmt.Errorf("publishing data model %q: %s", id, resp.ErrorMessage())
	}
	return nil
}

// Permissions fetches a model's share rules. Extract and live models use
// different endpoints and envelopes.
func (s *Service) Permissions(ctx context.Context, model Schema) ([]PermissionRule, error) {
	switch model.Type() {
	case TypeExtract:
		resp, err := s.client.Get(ctx, extractPermissionsPath(model.Title()), nil)
		if err != nil {
			return nil, err
		}
		if !resp.OK() {
			return nil, fmt.Errorf("fetching permissions for %q: %s", model.Title(), resp.ErrorMessage())
		}
		var envelope struct {
			Shares []PermissionRule `json:"shares"`
		}
		if err := resp.Decode(&envelope); err != nil {
			return nil, err
		}
		return envelope.Shares, nil

	case TypeLive:
		resp, err := s.client.Get(ctx, livePermissionsPath(model.OID()), nil)
		if err != nil {
			return nil, err
		}
		if !resp.OK() {
			return nil, fmt.Errorf("fetching permissions for %q: %s", model.Title(), resp.ErrorMessage())
		}
		var rules []PermissionRule
		if err := resp.Decode(&rules); err != nil {
			return nil, err
		}
		return rules, nil

	default:
		return nil, fmt.Errorf("unknown data model type %q for %q", model.Type(), model.Title())
	}
}

// SetPermissions replaces a model's share rules. Live models are published
// first so the permission patch lands on the published build.
func (s *Service) SetPermissions(ctx context.Context, model Schema, rules []PermissionRule) error {
	switch model.Type() {
	case TypeExtract:
		resp, err := s.client.Put(ctx, extractPermissionsPath(model.Title()), nil, rules)
		if err != nil {
			return err
		}
		if !resp.OK() {
			return fmt.Errorf("setting permissions for %q: %s", model.Title(), resp.ErrorMessage())
		}
		return nil

	case TypeLive:
		if err := s.Publish(ctx, model.OID()); err != nil {
			return err
		}
		resp, err := s.client.Patch(ctx, livePermissionsPath(model.OID()), nil, rules)
		if err != nil {
			return err
		}
		if !resp.OK() {
			return fmt.Errorf("setting permissions for %q: %s", model.Title(), resp.ErrorMessage())
		}
		return nil

	default:
		return fmt.Errorf("unknown data model type %q for %q", model.Type(), model.Title())
	}
}

// ListConnections returns every connection defined in the environment.
func (s *Service) ListConnections(ctx context.Context) ([]ConnectionInfo, error) {
	resp, err := s.client.Get(ctx, "/api/v2/connections", nil)
	if err != nil {
		return nil, err
	}
	if !resp.OK() {
		return nil, fmt.Errorf("listing connections: %s", resp.ErrorMessage())
	}

	var connections []ConnectionInfo
	if err := resp.Decode(&connections); err != nil {
		return nil, err
	}
	return connections, nil
}

// GetConnection returns the connection with the given name, or a
// NotFoundError.
func (s *Service) GetConnection(ctx context.Context, name string) (*ConnectionInfo, error) {
	connections, err := s.ListConnections(ctx)
	if err != nil {
		return nil, err
	}
	for i := range connections {
		if connections[i].Name == name {
			return &connections[i], nil
		}
	}
	return nil, &sisense.NotFoundError{Resource: "connection", Ref: name}
}

func extractPermissionsPath(title string) string {
	return "/api/elasticubes/localhost/" + url.PathEscape(title) + "/permissions"
}

func livePermissionsPath(oid string) string {
	return "/api/v1/elasticubes/live/" + oid + "/permissions"
}
