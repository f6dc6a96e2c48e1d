package dashboards

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sisensehq/go-sisense/pkg/sisense"
)

func newTestService(t *testing.T, handler http.Handler) *Service {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	noSSL := false
	client, err := sisense.NewClient(&sisense.Config{
		Domain:        strings.TrimPrefix(srv.URL, "http://"),
		Token:         "test-token",
		IsSSL:         &noSSL,
		Timeout:       5 * time.Second,
		MaxRetries:    1,
		RetryInterval: time.Millisecond,
	}, nil)
	require.NoError(t, err)
	return NewService(client, nil)
}

func TestSearchPagesAndDeduplicates(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/v1/dashboards/searches", func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			QueryOptions struct {
				Limit int `json:"limit"`
				Skip  int `json:"skip"`
			} `json:"queryOptions"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, searchPageSize, body.QueryOptions.Limit)

		var items []Summary
		switch body.QueryOptions.Skip {
		case 0:
			for i := 0; i < searchPageSize; i++ {
				items = append(items, Summary{OID: "d-" + strconv.Itoa(i), Title: "Dash " + strconv.Itoa(i)})
			}
		case searchPageSize:
			// One duplicate straddles the page boundary.
			items = []Summary{
				{OID: "d-49", Title: "Dash 49"},
				{OID: "d-50", Title: "Dash 50"},
			}
		}
		_ = json.NewEncoder(w).Encode(map[string]any{"items": items})
	})

	svc := newTestService(t, mux)
	all, err := svc.Search(context.Background())
	require.NoError(t, err)
	assert.Len(t, all, searchPageSize+1)
}

func TestExportNotFound(t *testing.T) {
	svc := newTestService(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))

	_, err := svc.Export(context.Background(), "5f8d0a1b2c3d4e5f6a7b8c9d")
	assert.True(t, sisense.IsNotFound(err))
}

func TestImportBulkParsesEnvelope(t *testing.T) {
	var gotQuery string
	svc := newTestService(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/dashboards/import/bulk", r.URL.Path)
		gotQuery = r.URL.RawQuery
		w.WriteHeader(http.StatusCreated)
		// The platform misspells "succeded".
		_, _ = w.Write([]byte(`{
			"succeded":[{"oid":"t-1","title":"Sales"}],
			"skipped":[{"oid":"t-2","title":"Revenue"}],
			"failed":{"Churn":[{"title":"Churn","error":{"message":"broken widget"}}]}
		}`))
	}))

	result, err := svc.ImportBulk(context.Background(), []Document{{"title": "Sales"}}, true, "overwrite")
	require.NoError(t, err)
	assert.Contains(t, gotQuery, "republish=true")
	assert.Contains(t, gotQuery, "action=overwrite")
	require.Len(t, result.Succeeded, 1)
	assert.Equal(t, "t-1", result.Succeeded[0].OID)
	require.Len(t, result.Skipped, 1)
	require.Len(t, result.Failed, 1)
	assert.Equal(t, "Churn", result.Failed[0].Title)
	assert.Equal(t, "broken widget", result.Failed[0].Reason)
}

func TestImportBulkOmitsEmptyAction(t *testing.T) {
	svc := newTestService(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.False(t, r.URL.Query().Has("action"))
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"succeded":[],"skipped":[],"failed":{}}`))
	}))

	_, err := svc.ImportBulk(context.Background(), nil, false, "")
	require.NoError(t, err)
}

func TestSharesRetriesWithoutAdminAccess(t *testing.T) {
	var calls []string
	svc := newTestService(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls = append(calls, r.URL.RawQuery)
		if r.URL.Query().Get("adminAccess") == "true" {
			w.WriteHeader(http.StatusForbidden)
			return
		}
		_, _ = w.Write([]byte(`{
			"owner":{"_id":"u-1","userName":"ana@example.com"},
			"sharesTo":[{"shareId":"u-1","type":"user","rule":"edit"}]
		}`))
	}))

	shares, err := svc.Shares(context.Background(), "5f8d0a1b2c3d4e5f6a7b8c9d")
	require.NoError(t, err)
	require.Equal(t, []string{"adminAccess=true", ""}, calls)
	require.NotNil(t, shares.Owner)
	assert.Equal(t, "u-1", shares.Owner.ID)
	require.Len(t, shares.SharesTo, 1)
}

func TestChangeOwnerBody(t *testing.T) {
	var gotBody map[string]any
	svc := newTestService(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/dashboards/5f8d0a1b2c3d4e5f6a7b8c9d/change_owner", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		w.WriteHeader(http.StatusOK)
	}))

	err := svc.ChangeOwner(context.Background(), "5f8d0a1b2c3d4e5f6a7b8c9d", "tu-1")
	require.NoError(t, err)
	assert.Equal(t, "tu-1", gotBody["ownerId"])
	assert.Equal(t, "edit", gotBody["originalOwnerRule"])
}

func TestSharePartyKey(t *testing.T) {
	user := Share{ShareID: "u-1", Type: "user", UserName: "ana@example.com"}
	group := Share{ShareID: "g-1", Type: "group", Name: "Sales"}
	assert.Equal(t, "user:ana@example.com", user.PartyKey())
	assert.Equal(t, "group:Sales", group.PartyKey())
}

func TestIsOID(t *testing.T) {
	assert.True(t, IsOID("5f8d0a1b2c3d4e5f6a7b8c9d"))
	assert.False(t, IsOID("5F8D0A1B2C3D4E5F6A7B8C9D"))
	assert.False(t, IsOID("Sales Overview"))
	assert.False(t, IsOID("5f8d0a1b2c3d4e5f6a7b8c9"))
}

func TestResolveReferenceIDThenTitleFallback(t *testing.T) {
	const oid = "5f8d0a1b2c3d4e5f6a7b8c9d"
	svc := newTestService(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		if q.Get("id") != "" {
			// ID lookup misses; the resolver should retry by title.
			_, _ = w.Write([]byte(`[]`))
			return
		}
		_ = json.NewEncoder(w).Encode([]Summary{{OID: oid, Title: q.Get("name")}})
	}))

	res := svc.ResolveReference(context.Background(), oid)
	require.NoError(t, res.Err)
	assert.True(t, res.OK)
	assert.Equal(t, oid, res.ID)
}

func TestResolveReferenceUnresolvedTitle(t *testing.T) {
	svc := newTestService(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`[]`))
	}))

	res := svc.ResolveReference(context.Background(), "No Such Dashboard")
	assert.False(t, res.OK)
	require.Error(t, res.Err)
	assert.True(t, sisense.IsNotFound(res.Err))
}

func TestResolveReferenceTransportFailure(t *testing.T) {
	svc := newTestService(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))

	res := svc.ResolveReference(context.Background(), "Sales Overview")
	assert.False(t, res.OK)
	require.Error(t, res.Err)
	assert.True(t, sisense.IsTransport(res.Err))
}
