package storage

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/bosocmputer/fleet_capture_ocr/internal/form"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var _ form.Repository = (*MemoryRepository)(nil)
var _ form.Repository = (*MongoRepository)(nil)

func TestMemoryRepositoryLifecycle(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryRepository()

	record := form.NewRecord(form.TypeKmReport, form.KmReportFields())
	require.NoError(t, repo.Create(ctx, record))
	assert.Error(t, repo.Create(ctx, record))

	got, err := repo.Get(ctx, record.ID)
	require.NoError(t, err)
	got.Fields["kilometer"] = "mutated"

	again, err := repo.Get(ctx, record.ID)
	require.NoError(t, err)
	assert.Equal(t, "", again.Fields["kilometer"], "callers get copies")

	updated, err := repo.Update(ctx, record.ID, func(r *form.Record) error {
		r.Merge(map[string]string{"kilometer": "1200"})
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, "1200", updated.Fields["kilometer"])
	assert.Equal(t, int64(1), updated.Version)

	_, err = repo.Get(ctx, "missing")
	assert.ErrorIs(t, err, form.ErrNotFound)
	_, err = repo.Update(ctx, "missing", func(*form.Record) error { return nil })
	assert.ErrorIs(t, err, form.ErrNotFound)
}

func TestMemoryRepositoryUpdateErrorLeavesRecord(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryRepository()
	record := form.NewRecord(form.TypeKmReport, form.KmReportFields())
	require.NoError(t, repo.Create(ctx, record))

	boom := errors.New("boom")
	_, err := repo.Update(ctx, record.ID, func(r *form.Record) error {
		r.Fields["kilometer"] = "999"
		return boom
	})
	assert.ErrorIs(t, err, boom)

	got, err := repo.Get(ctx, record.ID)
	require.NoError(t, err)
	assert.Equal(t, "", got.Fields["kilometer"])
	assert.Equal(t, int64(0), got.Version)
}

func TestMemoryRepositoryConcurrentFieldUpdates(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryRepository()
	record := form.NewRecord(form.TypeKmReport, form.KmReportFields())
	require.NoError(t, repo.Create(ctx, record))

	var wg sync.WaitGroup
	for _, kv := range [][2]string{{"vehicleNumber", "12-345-67"}, {"kilometer", "5000"}} {
		wg.Add(1)
		go func(field, value string) {
			defer wg.Done()
			_, err := repo.Update(ctx, record.ID, func(r *form.Record) error {
				r.Merge(map[string]string{field: value})
				return nil
			})
			assert.NoError(t, err)
		}(kv[0], kv[1])
	}
	wg.Wait()

	got, err := repo.Get(ctx, record.ID)
	require.NoError(t, err)
	assert.Equal(t, "12-345-67", got.Fields["vehicleNumber"])
	assert.Equal(t, "5000", got.Fields["kilometer"])
	assert.Equal(t, 1, repo.Len())
}
