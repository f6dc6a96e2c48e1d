package migration

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/hashicorp/go-hclog"
	"github.com/stretchr/testify/require"

	"github.com/sisensehq/go-sisense/pkg/sisense"
)

// newTestMigrator wires a Migrator against two in-process servers standing
// in for the source and target environments. Batch pauses are disabled and
// the run ID is pinned.
func newTestMigrator(t *testing.T, source, target http.Handler) *Migrator {
	t.Helper()

	sourceSrv := httptest.NewServer(source)
	t.Cleanup(sourceSrv.Close)
	targetSrv := httptest.NewServer(target)
	t.Cleanup(targetSrv.Close)

	m := New(
		newEnvClient(t, sourceSrv.URL),
		newEnvClient(t, targetSrv.URL),
		hclog.NewNullLogger(),
	)
	m.sleep = func(context.Context, time.Duration) {}
	m.newRunID = func() string { return "run-test" }
	return m
}

func newEnvClient(t *testing.T, serverURL string) *sisense.Client {
	t.Helper()

	noSSL := false
	cfg := sisense.DefaultConfig()
	cfg.Domain = strings.TrimPrefix(serverURL, "http://")
	cfg.IsSSL = &noSSL
	cfg.Token = "test-token"
	cfg.MaxRetries = 1
	cfg.RetryInterval = time.Millisecond

	client, err := sisense.NewClient(cfg, hclog.NewNullLogger())
	require.NoError(t, err)
	return client
}

// failingHandler fails the test on any request, for asserting that
// validation errors happen before network activity.
func failingHandler(t *testing.T) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Errorf("unexpected request: %s %s", r.Method, r.URL.Path)
		w.WriteHeader(http.StatusInternalServerError)
	})
}

func writeJSON(t *testing.T, w http.ResponseWriter, status int, v any) {
	t.Helper()
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	require.NoError(t, json.NewEncoder(w).Encode(v))
}

func decodeBody(t *testing.T, r *http.Request, out any) {
	t.Helper()
	require.NoError(t, json.NewDecoder(r.Body).Decode(out))
}

func outcomeRefs(outcomes []Outcome) []string {
	refs := make([]string, len(outcomes))
	for i, o := range outcomes {
		refs[i] = o.Ref
	}
	return refs
}
