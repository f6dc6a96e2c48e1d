// Package dashboards provides dashboard operations against one Sisense
// environment: search, export, bulk import, shares, and ownership.
package dashboards

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/hashicorp/go-hclog"

	"github.com/sisensehq/go-sisense/pkg/sisense"
)

// searchPageSize is the page size used for the paginated search endpoint.
const searchPageSize = 50

// Service exposes dashboard operations for one environment.
type Service struct {
	client *sisense.Client
	logger hclog.Logger
}

// NewService creates a dashboard service on top of client.
func NewService(client *sisense.Client, logger hclog.Logger) *Service {
	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	return &Service{
		client: client,
		logger: logger.Named("dashboards"),
	}
}

// Search lists every root dashboard in the environment, paging through the
// search endpoint and de-duplicating by oid.
func (s *Service) Search(ctx context.Context) ([]Summary, error) {
	seen := make(map[string]bool)
	var all []Summary

	for skip := 0; ; skip += searchPageSize {
		body := map[string]any{
			"queryParams": map[string]any{
				"ownershipType": "allRoot",
				"search":        "",
				"ownerInfo":     true,
				"asObject":      true,
			},
			"queryOptions": map[string]any{
				"sort":  map[string]any{"title": 1},
				"limit": searchPageSize,
				"skip":  skip,
			},
		}

		resp, err := s.client.Post(ctx, "/api/v1/dashboards/searches", nil, body)
		if err != nil {
			return nil, err
		}
		if !resp.OK() {
			return nil, fmt.Errorf("searching dashboards: %s", resp.ErrorMessage())
		}

		var page struct {
			Items []Summary `json:"items"`
		}
		if err := resp.Decode(&page); err != nil {
			return nil, err
		}
		if len(page.Items) == 0 {
			break
		}

		for _, item := range page.Items {
			if !seen[item.OID] {
				seen[item.OID] = true
				all = append(all, item)
			}
		}
	}

	s.logger.Debug("searched dashboards", "count", len(all))
	return all, nil
}

// Export fetches the full export document of one dashboard.
func (s *Service) Export(ctx context.Context, id string) (Document, error) {
	query := url.Values{"adminAccess": []string{"true"}}
	resp, err := s.client.Get(ctx, "/api/dashboards/"+id+"/export", query)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode == http.StatusNotFound {
		return nil, &sisense.NotFoundError{Resource: "dashboard", Ref: id}
	}
	if !resp.OK() {
		return nil, fmt.Errorf("exporting dashboard %q: %s", id, resp.ErrorMessage())
	}

	var doc Document
	if err := resp.Decode(&doc); err != nil {
		return nil, err
	}
	return doc, nil
}

// GetByID fetches one dashboard summary through the admin endpoint.
func (s *Service) GetByID(ctx context.Context, id string) (*Summary, error) {
	query := url.Values{
		"dashboardType": []string{"owner"},
		"id":            []string{id},
	}
	return s.adminLookup(ctx, query, id, func(found Summary) bool {
		return found.OID == id
	})
}

// GetByName fetches one dashboard summary by exact, case-sensitive title.
func (s *Service) GetByName(ctx context.Context, name string) (*Summary, error) {
	query := url.Values{
		"dashboardType": []string{"owner"},
		"name":          []string{name},
	}
	return s.adminLookup(ctx, query, name, func(found Summary) bool {
		return found.Title == name
	})
}

func (s *Service) adminLookup(ctx context.Context, query url.Values, ref string, match func(Summary) bool) (*Summary, error) {
	resp, err := s.client.Get(ctx, "/api/v1/dashboards/admin", query)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode == http.StatusNotFound {
		return nil, &sisense.NotFoundError{Resource: "dashboard", Ref: ref}
	}
	if !resp.OK() {
		return nil, fmt.Errorf("fetching dashboard %q: %s", ref, resp.ErrorMessage())
	}

	var found []Summary
	if err := resp.Decode(&found); err != nil {
		// The admin endpoint returns a single object for some versions.
		var one Summary
		if err := resp.Decode(&one); err != nil {
			return nil, err
		}
		found = []Summary{one}
	}
	for i := range found {
		if match(found[i]) {
			return &found[i], nil
		}
	}
	return nil, &sisense.NotFoundError{Resource: "dashboard", Ref: ref}
}

// ImportBulk imports exported dashboard documents into the environment.
// action maps directly to the platform's skip/overwrite/duplicate handling
// of title collisions; an empty action leaves the platform default (skip).
func (s *Service) ImportBulk(ctx context.Context, docs []Document, republish bool, action string) (*ImportResult, error) {
	query := url.Values{"republish": []string{fmt.Sprintf("%t", republish)}}
	if action != "" {
		query.Set("action", action)
	}

	resp, err := s.client.Post(ctx, "/api/v1/dashboards/import/bulk", query, docs)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusCreated {
		return nil, fmt.Errorf("bulk dashboard import failed: %s", resp.ErrorMessage())
	}

	// The platform misspells "succeded" in this envelope.
	var envelope struct {
		Succeeded []ImportedDashboard `json:"succeded"`
		Skipped   []ImportedDashboard `json:"skipped"`
		Failed    map[string][]struct {
			Title string `json:"title"`
			Error struct {
				Message string `json:"message"`
			} `json:"error"`
		} `json:"failed"`
	}
	if err := resp.Decode(&envelope); err != nil {
		return nil, fmt.Errorf("parsing bulk import response: %w", err)
	}

	result := &ImportResult{
		Succeeded: envelope.Succeeded,
		Skipped:   envelope.Skipped,
	}
	for _, errs := range envelope.Failed {
		for _, f := range errs {
			result.Failed = append(result.Failed, ImportFailure{
				Title:  f.Title,
				Reason: f.Error.Message,
			})
		}
	}
	return result, nil
}

// Shares fetches a dashboard's share list. A 403 on the admin-scoped
// endpoint is retried without adminAccess, matching the platform's
// permission model for dashboards owned by the API user.
func (s *Service) Shares(ctx context.Context, id string) (*ShareSet, error) {
	resp, err := s.getWithAdminFallback(ctx, "/api/shares/dashboard/"+id)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode == http.StatusNotFound {
		return nil, &sisense.NotFoundError{Resource: "dashboard shares", Ref: id}
	}
	if !resp.OK() {
		return nil, fmt.Errorf("fetching shares for dashboard %q: %s", id, resp.ErrorMessage())
	}

	var shares ShareSet
	if err := resp.Decode(&shares); err != nil {
		return nil, err
	}
	return &shares, nil
}

// SetShares replaces a dashboard's share list, with the same 403 fallback
// as Shares.
func (s *Service) SetShares(ctx context.Context, id string, shares []Share) error {
	body := map[string]any{"sharesTo": shares}
	resp, err := s.postWithAdminFallback(ctx, "/api/shares/dashboard/"+id, body)
	if err != nil {
		return err
	}
	if !resp.OK() {
		return fmt.Errorf("setting shares for dashboard %q: %s", id, resp.ErrorMessage())
	}
	return nil
}

// ChangeOwner reassigns a dashboard to ownerID, granting the previous owner
// edit access.
func (s *Service) ChangeOwner(ctx context.Context, id, ownerID string) error {
	body := map[string]any{
		"ownerId":           ownerID,
		"originalOwnerRule": "edit",
	}
	resp, err := s.postWithAdminFallback(ctx, "/api/v1/dashboards/"+id+"/change_owner", body)
	if err != nil {
		return err
	}
	if !resp.OK() {
		return fmt.Errorf("changing owner of dashboard %q: %s", id, resp.ErrorMessage())
	}
	return nil
}

func (s *Service) getWithAdminFallback(ctx context.Context, path string) (*sisense.Response, error) {
	query := url.Values{"adminAccess": []string{"true"}}
	resp, err := s.client.Get(ctx, path, query)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode == http.StatusForbidden {
		s.logger.Warn("admin access denied, retrying without adminAccess", "path", path)
		return s.client.Get(ctx, path, nil)
	}
	return resp, nil
}

func (s *Service) postWithAdminFallback(ctx context.Context, path string, body any) (*sisense.Response, error) {
	query := url.Values{"adminAccess": []string{"true"}}
	resp, err := s.client.Post(ctx, path, query, body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode == http.StatusForbidden {
		s.logger.Warn("admin access denied, retrying without adminAccess", "path", path)
		return s.client.Post(ctx, path, nil, body)
	}
	return resp, nil
}
