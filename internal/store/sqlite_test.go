package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/laborstat-cli/internal/config"
	"github.com/sells-group/laborstat-cli/internal/model"
)

func configWithDriver(driver string) config.StoreConfig {
	return config.StoreConfig{Driver: driver}
}

func testSQLite(t *testing.T) *SQLiteStore {
	t.Helper()
	s, err := NewSQLite(filepath.Join(t.TempDir(), "state", "runs.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	require.NoError(t, s.Migrate(context.Background()))
	return s
}

func TestSQLiteCreateAndGetRun(t *testing.T) {
	s := testSQLite(t)
	ctx := context.Background()

	rec, err := s.CreateRun(ctx, "20260105_103045")
	require.NoError(t, err)
	assert.NotEmpty(t, rec.ID)
	assert.Equal(t, model.RunStatusStarted, rec.Status)

	got, err := s.GetRun(ctx, rec.ID)
	require.NoError(t, err)
	assert.Equal(t, rec.ID, got.ID)
	assert.Equal(t, "20260105_103045", got.RunID)
	assert.Nil(t, got.Manifest)
}

func TestSQLiteUpdateRunStatus(t *testing.T) {
	s := testSQLite(t)
	ctx := context.Background()

	rec, err := s.CreateRun(ctx, "run1")
	require.NoError(t, err)

	require.NoError(t, s.UpdateRunStatus(ctx, rec.ID, model.RunStatusValidating))

	got, err := s.GetRun(ctx, rec.ID)
	require.NoError(t, err)
	assert.Equal(t, model.RunStatusValidating, got.Status)
}

func TestSQLiteUpdateRunManifest(t *testing.T) {
	s := testSQLite(t)
	ctx := context.Background()

	rec, err := s.CreateRun(ctx, "run1")
	require.NoError(t, err)

	passed := true
	manifest := &model.RunManifest{
		RunID:           "run1",
		Status:          model.RunStatusCompleted,
		StepsCompleted:  []string{"validate", "clean", "output"},
		LatestDataMonth: "2025-12",
		GatePassed:      &passed,
	}
	require.NoError(t, s.UpdateRunManifest(ctx, rec.ID, model.RunStatusCompleted, manifest))

	got, err := s.GetRun(ctx, rec.ID)
	require.NoError(t, err)
	assert.Equal(t, model.RunStatusCompleted, got.Status)
	require.NotNil(t, got.Manifest)
	assert.Equal(t, "2025-12", got.Manifest.LatestDataMonth)
	assert.Equal(t, []string{"validate", "clean", "output"}, got.Manifest.StepsCompleted)
}

func TestSQLiteUpdateUnknownRun(t *testing.T) {
	s := testSQLite(t)
	ctx := context.Background()

	err := s.UpdateRunStatus(ctx, "no-such-id", model.RunStatusCompleted)
	assert.Error(t, err)
}

func TestSQLiteGetUnknownRun(t *testing.T) {
	s := testSQLite(t)
	_, err := s.GetRun(context.Background(), "no-such-id")
	assert.Error(t, err)
}

func TestSQLiteListRuns(t *testing.T) {
	s := testSQLite(t)
	ctx := context.Background()

	for _, runID := range []string{"run1", "run2", "run3"} {
		_, err := s.CreateRun(ctx, runID)
		require.NoError(t, err)
	}

	runs, err := s.ListRuns(ctx, 2)
	require.NoError(t, err)
	assert.Len(t, runs, 2)

	all, err := s.ListRuns(ctx, 0)
	require.NoError(t, err)
	assert.Len(t, all, 3)
}

func TestOpenUnknownDriver(t *testing.T) {
	_, err := Open(context.Background(), configWithDriver("mysql"))
	assert.Error(t, err)
}

func TestOpenSQLite(t *testing.T) {
	cfg := configWithDriver("sqlite")
	cfg.SQLitePath = filepath.Join(t.TempDir(), "runs.db")

	s, err := Open(context.Background(), cfg)
	require.NoError(t, err)
	defer s.Close()
	require.NoError(t, s.Migrate(context.Background()))
}
