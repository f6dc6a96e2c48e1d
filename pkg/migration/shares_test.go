package migration

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sisensehq/go-sisense/pkg/dashboards"
)

func identitySourceHandler(t *testing.T) *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/v1/users", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(t, w, http.StatusOK, []map[string]any{
			{"_id": "su-1", "email": "ana@example.com"},
			{"_id": "su-2", "email": "bob@example.com"},
		})
	})
	mux.HandleFunc("GET /api/v1/groups", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(t, w, http.StatusOK, []map[string]any{
			{"_id": "sg-1", "name": "Sales"},
		})
	})
	return mux
}

func identityTargetHandler(t *testing.T) *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/v1/users", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(t, w, http.StatusOK, []map[string]any{
			{"_id": "tu-1", "email": "ana@example.com"},
			// bob has no target counterpart.
		})
	})
	mux.HandleFunc("GET /api/v1/groups", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(t, w, http.StatusOK, []map[string]any{
			{"_id": "tg-1", "name": "Sales"},
		})
	})
	return mux
}

func TestMigrateDashboardSharesLengthMismatch(t *testing.T) {
	m := newTestMigrator(t, failingHandler(t), failingHandler(t))

	_, err := m.MigrateDashboardShares(context.Background(),
		[]string{"a", "b"}, []string{"x"}, false)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "counts differ")

	_, err = m.MigrateDashboardShares(context.Background(), nil, []string{"x"}, false)
	require.Error(t, err)
}

func TestMigrateDashboardSharesAddsMissingParties(t *testing.T) {
	source := identitySourceHandler(t)
	source.HandleFunc("GET /api/shares/dashboard/{id}", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(t, w, http.StatusOK, map[string]any{
			"owner": map[string]any{"_id": "su-1", "userName": "ana@example.com"},
			"sharesTo": []map[string]any{
				{"shareId": "su-1", "type": "user", "rule": "edit", "userName": "ana@example.com"},
				{"shareId": "su-2", "type": "user", "rule": "view", "userName": "bob@example.com"},
				{"shareId": "sg-1", "type": "group", "name": "Sales"},
			},
		})
	})

	var applied struct {
		SharesTo []dashboards.Share `json:"sharesTo"`
	}
	target := identityTargetHandler(t)
	target.HandleFunc("GET /api/shares/dashboard/{id}", func(w http.ResponseWriter, r *http.Request) {
		// ana is already shared on the target.
		writeJSON(t, w, http.StatusOK, map[string]any{
			"sharesTo": []map[string]any{
				{"shareId": "tu-1", "type": "user", "rule": "edit", "userName": "ana@example.com"},
			},
		})
	})
	target.HandleFunc("POST /api/shares/dashboard/{id}", func(w http.ResponseWriter, r *http.Request) {
		decodeBody(t, r, &applied)
		writeJSON(t, w, http.StatusOK, map[string]any{})
	})

	m := newTestMigrator(t, source, target)
	summary, err := m.MigrateDashboardShares(context.Background(),
		[]string{"src-dash"}, []string{"tgt-dash"}, false)
	require.NoError(t, err)

	// ana was filtered as a duplicate, bob has no counterpart, so only the
	// group share is new.
	assert.Equal(t, 1, summary.SharesAdded)
	require.Len(t, applied.SharesTo, 2)
	assert.Equal(t, "tu-1", applied.SharesTo[0].ShareID)
	added := applied.SharesTo[1]
	assert.Equal(t, "tg-1", added.ShareID)
	assert.Equal(t, "group", added.Type)
	assert.Equal(t, "viewer", added.Rule)
	// Display fields are never posted.
	assert.Empty(t, added.Name)
	assert.Empty(t, added.UserName)
}

func TestMigrateDashboardSharesOwnershipChange(t *testing.T) {
	source := identitySourceHandler(t)
	source.HandleFunc("GET /api/shares/dashboard/{id}", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(t, w, http.StatusOK, map[string]any{
			"owner": map[string]any{"_id": "su-1", "userName": "ana@example.com"},
			"sharesTo": []map[string]any{
				{"shareId": "su-1", "type": "user", "rule": "edit", "userName": "ana@example.com"},
			},
		})
	})

	var ownerChange map[string]any
	target := identityTargetHandler(t)
	target.HandleFunc("GET /api/shares/dashboard/{id}", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(t, w, http.StatusOK, map[string]any{
			"owner":    map[string]any{"_id": "tu-other", "userName": "svc@example.com"},
			"sharesTo": []map[string]any{},
		})
	})
	target.HandleFunc("POST /api/shares/dashboard/{id}", func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		decodeBody(t, r, &body)
		writeJSON(t, w, http.StatusOK, map[string]any{})
	})
	target.HandleFunc("POST /api/v1/dashboards/{id}/change_owner", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "tgt-dash", r.PathValue("id"))
		decodeBody(t, r, &ownerChange)
		writeJSON(t, w, http.StatusOK, map[string]any{})
	})

	m := newTestMigrator(t, source, target)
	_, err := m.MigrateDashboardShares(context.Background(),
		[]string{"src-dash"}, []string{"tgt-dash"}, true)
	require.NoError(t, err)

	require.NotNil(t, ownerChange)
	assert.Equal(t, "tu-1", ownerChange["ownerId"])
	assert.Equal(t, "edit", ownerChange["originalOwnerRule"])
}

func TestMigrateDashboardSharesOwnershipAlreadyCorrect(t *testing.T) {
	source := identitySourceHandler(t)
	source.HandleFunc("GET /api/shares/dashboard/{id}", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(t, w, http.StatusOK, map[string]any{
			"owner": map[string]any{"_id": "su-1", "userName": "ana@example.com"},
			"sharesTo": []map[string]any{
				{"shareId": "su-1", "type": "user", "rule": "edit", "userName": "ana@example.com"},
			},
		})
	})

	target := identityTargetHandler(t)
	target.HandleFunc("GET /api/shares/dashboard/{id}", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(t, w, http.StatusOK, map[string]any{
			"owner":    map[string]any{"_id": "tu-1", "userName": "ana@example.com"},
			"sharesTo": []map[string]any{},
		})
	})
	target.HandleFunc("POST /api/shares/dashboard/{id}", func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		decodeBody(t, r, &body)
		writeJSON(t, w, http.StatusOK, map[string]any{})
	})
	target.HandleFunc("POST /api/v1/dashboards/{id}/change_owner", func(w http.ResponseWriter, r *http.Request) {
		t.Error("ownership change issued for an already correct owner")
	})

	m := newTestMigrator(t, source, target)
	_, err := m.MigrateDashboardShares(context.Background(),
		[]string{"src-dash"}, []string{"tgt-dash"}, true)
	require.NoError(t, err)
}

func TestMigrateDashboardSharesFailedPairContinues(t *testing.T) {
	source := identitySourceHandler(t)
	source.HandleFunc("GET /api/shares/dashboard/{id}", func(w http.ResponseWriter, r *http.Request) {
		if r.PathValue("id") == "src-bad" {
			writeJSON(t, w, http.StatusNotFound, map[string]any{"detail": "gone"})
			return
		}
		writeJSON(t, w, http.StatusOK, map[string]any{
			"sharesTo": []map[string]any{
				{"shareId": "su-1", "type": "user", "rule": "edit", "userName": "ana@example.com"},
			},
		})
	})

	target := identityTargetHandler(t)
	target.HandleFunc("GET /api/shares/dashboard/{id}", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(t, w, http.StatusOK, map[string]any{"sharesTo": []map[string]any{}})
	})
	target.HandleFunc("POST /api/shares/dashboard/{id}", func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		decodeBody(t, r, &body)
		writeJSON(t, w, http.StatusOK, map[string]any{})
	})

	m := newTestMigrator(t, source, target)
	summary, err := m.MigrateDashboardShares(context.Background(),
		[]string{"src-bad", "src-ok"}, []string{"tgt-1", "tgt-2"}, false)
	require.NoError(t, err)

	require.Len(t, summary.Pairs, 2)
	assert.Equal(t, StatusFailed, summary.Pairs[0].Status)
	assert.Equal(t, StatusSucceeded, summary.Pairs[1].Status)
	assert.Equal(t, 1, summary.SharesAdded)
}

func TestMigrateDashboardSharesNoSourceShares(t *testing.T) {
	source := identitySourceHandler(t)
	source.HandleFunc("GET /api/shares/dashboard/{id}", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(t, w, http.StatusOK, map[string]any{"sharesTo": []map[string]any{}})
	})

	target := identityTargetHandler(t)

	m := newTestMigrator(t, source, target)
	summary, err := m.MigrateDashboardShares(context.Background(),
		[]string{"src-empty"}, []string{"tgt-1"}, false)
	require.NoError(t, err)

	require.Len(t, summary.Pairs, 1)
	assert.Equal(t, StatusSkipped, summary.Pairs[0].Status)
	assert.Zero(t, summary.SharesAdded)
}
