package migration

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sisensehq/go-sisense/pkg/dashboards"
)

const (
	sourceDashOID = "5f8d0a1b2c3d4e5f6a7b8c9d"
	targetDashOID = "6f0000000000000000000001"
)

// newDashboardSource serves resolution and export for one dashboard.
func newDashboardSource(t *testing.T, oid, title string) *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/v1/dashboards/admin", func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		if q.Get("id") == oid || q.Get("name") == title {
			writeJSON(t, w, http.StatusOK, []map[string]any{{"oid": oid, "title": title}})
			return
		}
		writeJSON(t, w, http.StatusOK, []map[string]any{})
	})
	mux.HandleFunc("GET /api/dashboards/{id}/export", func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, oid, r.PathValue("id"))
		assert.Equal(t, "true", r.URL.Query().Get("adminAccess"))
		writeJSON(t, w, http.StatusOK, map[string]any{
			"oid":   oid,
			"title": title,
			"layout": map[string]any{
				"columns": []any{},
			},
		})
	})
	return mux
}

func TestMigrateDashboardsImportsAndAccounts(t *testing.T) {
	source := newDashboardSource(t, sourceDashOID, "Revenue")

	var imported []dashboards.Document
	target := http.NewServeMux()
	target.HandleFunc("POST /api/v1/dashboards/import/bulk", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "true", r.URL.Query().Get("republish"))
		assert.Equal(t, "overwrite", r.URL.Query().Get("action"))
		decodeBody(t, r, &imported)
		writeJSON(t, w, http.StatusCreated, map[string]any{
			"succeded": []map[string]any{{"oid": targetDashOID, "title": "Revenue"}},
		})
	})

	m := newTestMigrator(t, source, target)
	summary, err := m.MigrateDashboards(context.Background(),
		ByIDs(sourceDashOID),
		DashboardOptions{Action: ActionOverwrite, Republish: true})
	require.NoError(t, err)

	require.Len(t, summary.Succeeded, 1)
	assert.Equal(t, sourceDashOID, summary.Succeeded[0].ID)
	assert.Equal(t, "Revenue", summary.Succeeded[0].Title)

	require.Len(t, imported, 1)
	assert.Equal(t, sourceDashOID, imported[0].OID())
}

func TestMigrateDashboardsByTitle(t *testing.T) {
	source := newDashboardSource(t, sourceDashOID, "Revenue")

	target := http.NewServeMux()
	target.HandleFunc("POST /api/v1/dashboards/import/bulk", func(w http.ResponseWriter, r *http.Request) {
		var docs []dashboards.Document
		decodeBody(t, r, &docs)
		writeJSON(t, w, http.StatusCreated, map[string]any{
			"succeded": []map[string]any{{"oid": targetDashOID, "title": "Revenue"}},
		})
	})

	m := newTestMigrator(t, source, target)
	summary, err := m.MigrateDashboards(context.Background(),
		ByTitles("Revenue"), DashboardOptions{})
	require.NoError(t, err)
	assert.Equal(t, []string{"Revenue"}, outcomeRefs(summary.Succeeded))
}

func TestMigrateDashboardsUnresolvedFailsEntity(t *testing.T) {
	source := newDashboardSource(t, sourceDashOID, "Revenue")
	// No import call expected: nothing resolved.
	m := newTestMigrator(t, source, failingHandler(t))

	summary, err := m.MigrateDashboards(context.Background(),
		ByTitles("Ghost"), DashboardOptions{})
	require.NoError(t, err)

	require.Len(t, summary.Failed, 1)
	assert.Equal(t, "Ghost", summary.Failed[0].Ref)
	assert.Empty(t, summary.Succeeded)
}

func TestMigrateDashboardsSkippedAndFailedEnvelope(t *testing.T) {
	source := newDashboardSource(t, sourceDashOID, "Revenue")

	target := http.NewServeMux()
	target.HandleFunc("POST /api/v1/dashboards/import/bulk", func(w http.ResponseWriter, r *http.Request) {
		var docs []dashboards.Document
		decodeBody(t, r, &docs)
		writeJSON(t, w, http.StatusCreated, map[string]any{
			"skipped": []map[string]any{{"oid": targetDashOID, "title": "Revenue"}},
		})
	})

	m := newTestMigrator(t, source, target)
	summary, err := m.MigrateDashboards(context.Background(),
		ByIDs(sourceDashOID), DashboardOptions{})
	require.NoError(t, err)

	require.Len(t, summary.Skipped, 1)
	assert.Equal(t, sourceDashOID, summary.Skipped[0].ID)
}

func TestMigrateDashboardsOptionValidation(t *testing.T) {
	m := newTestMigrator(t, failingHandler(t), failingHandler(t))

	_, err := m.MigrateDashboards(context.Background(), nil, DashboardOptions{})
	require.Error(t, err)

	_, err = m.MigrateDashboards(context.Background(), ByIDs(sourceDashOID),
		DashboardOptions{ChangeOwnership: true})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "MigrateShares")

	_, err = m.MigrateDashboards(context.Background(), ByIDs(sourceDashOID),
		DashboardOptions{Action: Action("merge")})
	require.Error(t, err)
}

func TestMigrateDashboardsSharesFollowImport(t *testing.T) {
	source := newDashboardSource(t, sourceDashOID, "Revenue")
	source.HandleFunc("GET /api/v1/users", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(t, w, http.StatusOK, []map[string]any{
			{"_id": "su-1", "email": "ana@example.com"},
		})
	})
	source.HandleFunc("GET /api/v1/groups", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(t, w, http.StatusOK, []map[string]any{})
	})
	source.HandleFunc("GET /api/shares/dashboard/{id}", func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, sourceDashOID, r.PathValue("id"))
		writeJSON(t, w, http.StatusOK, map[string]any{
			"owner": map[string]any{"_id": "su-1", "userName": "ana@example.com"},
			"sharesTo": []map[string]any{
				{"shareId": "su-1", "type": "user", "rule": "edit", "subscribe": true},
			},
		})
	})

	var applied struct {
		SharesTo []dashboards.Share `json:"sharesTo"`
	}
	target := http.NewServeMux()
	target.HandleFunc("POST /api/v1/dashboards/import/bulk", func(w http.ResponseWriter, r *http.Request) {
		var docs []dashboards.Document
		decodeBody(t, r, &docs)
		writeJSON(t, w, http.StatusCreated, map[string]any{
			"succeded": []map[string]any{{"oid": targetDashOID, "title": "Revenue"}},
		})
	})
	target.HandleFunc("GET /api/v1/users", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(t, w, http.StatusOK, []map[string]any{
			{"_id": "tu-1", "email": "ana@example.com"},
		})
	})
	target.HandleFunc("GET /api/v1/groups", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(t, w, http.StatusOK, []map[string]any{})
	})
	target.HandleFunc("GET /api/shares/dashboard/{id}", func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, targetDashOID, r.PathValue("id"))
		writeJSON(t, w, http.StatusOK, map[string]any{"sharesTo": []map[string]any{}})
	})
	target.HandleFunc("POST /api/shares/dashboard/{id}", func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, targetDashOID, r.PathValue("id"))
		decodeBody(t, r, &applied)
		writeJSON(t, w, http.StatusOK, map[string]any{})
	})

	m := newTestMigrator(t, source, target)
	summary, err := m.MigrateDashboards(context.Background(),
		ByIDs(sourceDashOID),
		DashboardOptions{MigrateShares: true})
	require.NoError(t, err)

	assert.Equal(t, 1, summary.SharesAdded)
	require.Len(t, applied.SharesTo, 1)
	assert.Equal(t, "tu-1", applied.SharesTo[0].ShareID)
	assert.Equal(t, "edit", applied.SharesTo[0].Rule)
	assert.True(t, applied.SharesTo[0].Subscribe)
}

func TestMigrateDashboardsSharesSkippedForDuplicate(t *testing.T) {
	source := newDashboardSource(t, sourceDashOID, "Revenue")

	shareCalls := 0
	target := http.NewServeMux()
	target.HandleFunc("POST /api/v1/dashboards/import/bulk", func(w http.ResponseWriter, r *http.Request) {
		var docs []dashboards.Document
		decodeBody(t, r, &docs)
		writeJSON(t, w, http.StatusCreated, map[string]any{
			"succeded": []map[string]any{{"oid": targetDashOID, "title": "Revenue"}},
		})
	})
	target.HandleFunc("/api/shares/", func(w http.ResponseWriter, r *http.Request) {
		shareCalls++
		writeJSON(t, w, http.StatusOK, map[string]any{})
	})

	m := newTestMigrator(t, source, target)
	_, err := m.MigrateDashboards(context.Background(),
		ByIDs(sourceDashOID),
		DashboardOptions{Action: ActionDuplicate, MigrateShares: true})
	require.NoError(t, err)
	assert.Zero(t, shareCalls)
}
