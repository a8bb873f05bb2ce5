package jsonfile_test

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bryanwahyu/docsense/internal/domain/incidents"
	"github.com/bryanwahyu/docsense/internal/infra/db/jsonfile"
)

func testIncident(i int) *incidents.Incident {
	return &incidents.Incident{
		ID:                  fmt.Sprintf("inc-%d", i),
		Timestamp:           "2026-08-31T10:00:00Z",
		Level:               "HIGH",
		OverallScore:        70,
		TopCategories:       []string{"financial"},
		DepartmentsAffected: []string{"Finance"},
		Status:              "completed",
		Hash:                "cafebabecafebabe",
	}
}

func TestArchiveRoundTrip(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "incidents.json")

	a, err := jsonfile.New(path)
	require.NoError(t, err)

	require.NoError(t, a.Insert(ctx, testIncident(1)))
	require.NoError(t, a.Insert(ctx, testIncident(2)))

	// a second open reads what the first one flushed
	b, err := jsonfile.New(path)
	require.NoError(t, err)
	items, err := b.Load(ctx, 0)
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, "inc-2", items[0].ID)
	assert.Equal(t, []string{"Finance"}, items[0].DepartmentsAffected)
}

func TestArchiveDeleteAndClear(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "incidents.json")

	a, err := jsonfile.New(path)
	require.NoError(t, err)
	require.NoError(t, a.Insert(ctx, testIncident(1)))
	require.NoError(t, a.Insert(ctx, testIncident(2)))

	require.NoError(t, a.Delete(ctx, "inc-1"))
	items, err := a.Load(ctx, 0)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "inc-2", items[0].ID)

	require.NoError(t, a.Clear(ctx))
	items, err = a.Load(ctx, 0)
	require.NoError(t, err)
	assert.Empty(t, items)

	// cleared snapshot is an empty JSON array, not "null"
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.JSONEq(t, "[]", string(data))
}

func TestArchivePrune(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "incidents.json")

	a, err := jsonfile.New(path)
	require.NoError(t, err)
	for i := 0; i < 10; i++ {
		require.NoError(t, a.Insert(ctx, testIncident(i)))
	}

	require.NoError(t, a.Prune(ctx, 3))
	items, err := a.Load(ctx, 0)
	require.NoError(t, err)
	require.Len(t, items, 3)
	// newest survive
	assert.Equal(t, "inc-9", items[0].ID)
	assert.Equal(t, "inc-7", items[2].ID)
}

func TestArchiveLoadLimit(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "incidents.json")

	a, err := jsonfile.New(path)
	require.NoError(t, err)
	for i := 0; i < 5; i++ {
		require.NoError(t, a.Insert(ctx, testIncident(i)))
	}

	items, err := a.Load(ctx, 2)
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, "inc-4", items[0].ID)
}
