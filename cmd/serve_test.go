package main

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"

	"github.com/sells-group/laborstat-cli/internal/model"
	"github.com/sells-group/laborstat-cli/internal/store"
)

func testRouter(t *testing.T) (http.Handler, store.RunStore, *store.LongFormStore) {
	t.Helper()
	root := t.TempDir()

	st, err := store.NewSQLite(filepath.Join(root, "runs.db"))
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })
	require.NoError(t, st.Migrate(context.Background()))

	clean := store.NewLongFormStore(filepath.Join(root, "clean_data.jsonl"))
	return newAPIRouter(st, clean, rate.Limit(100), 100), st, clean
}

func TestHealthz(t *testing.T) {
	r, _, _ := testRouter(t)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"status":"ok"`)
}

func TestPointsLatestEmptyStore(t *testing.T) {
	r, _, _ := testRouter(t)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/points/latest", nil))

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestPointsLatest(t *testing.T) {
	r, _, clean := testRouter(t)

	require.NoError(t, clean.Append([]model.LongFormPoint{
		{StateCanonical: "Alabama", StateCode: "AL", Date: "2025-12-01", Value: 4.6, Source: "s", IngestRun: "2026-01-05T10:00:00Z"},
	}))

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/points/latest", nil))

	require.Equal(t, http.StatusOK, rec.Code)

	var points []model.LongFormPoint
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &points))
	require.Len(t, points, 1)
	assert.Equal(t, "AL", points[0].StateCode)
}

func TestListAndGetRuns(t *testing.T) {
	r, st, _ := testRouter(t)

	created, err := st.CreateRun(context.Background(), "run1")
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/runs", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "run1")

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/runs/"+created.ID, nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/runs/no-such-id", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestRateLimitExceeded(t *testing.T) {
	limited := newAPIRouterForLimitTest(t)
	rec := httptest.NewRecorder()
	limited.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	limited.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
}

func newAPIRouterForLimitTest(t *testing.T) http.Handler {
	t.Helper()
	root := t.TempDir()

	st, err := store.NewSQLite(filepath.Join(root, "runs.db"))
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })

	clean := store.NewLongFormStore(filepath.Join(root, "clean_data.jsonl"))
	return newAPIRouter(st, clean, rate.Limit(0.001), 1)
}
