package repo_test

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/xxxsen/eventkb/internal/model"
	appErr "github.com/xxxsen/eventkb/internal/pkg/errors"
	"github.com/xxxsen/eventkb/internal/repo"
)

func newSource(id, eventID string, ctime int64) *model.Source {
	return &model.Source{
		ID:      id,
		EventID: eventID,
		Title:   "title " + id,
		Type:    model.SourceTypeText,
		Content: "content " + id,
		Status:  model.SourceStatusPending,
		Ctime:   ctime,
		Mtime:   ctime,
	}
}

func TestMemorySourceRepoCRUD(t *testing.T) {
	ctx := context.Background()
	r := repo.NewMemorySourceRepo()
	require.NoError(t, r.Create(ctx, newSource("s1", "ev", 10)))
	require.NoError(t, r.Create(ctx, newSource("s2", "ev", 5)))
	require.NoError(t, r.Create(ctx, newSource("s3", "other", 1)))
	require.ErrorIs(t, r.Create(ctx, newSource("s1", "ev", 11)), appErr.ErrInvalid)

	got, err := r.GetByID(ctx, "s1")
	require.NoError(t, err)
	require.Equal(t, "title s1", got.Title)

	_, err = r.GetByID(ctx, "missing")
	require.ErrorIs(t, err, appErr.ErrNotFound)

	list, err := r.ListByEvent(ctx, "ev")
	require.NoError(t, err)
	require.Len(t, list, 2)
	require.Equal(t, "s2", list[0].ID)
	require.Equal(t, "s1", list[1].ID)

	pending, err := r.ListByStatus(ctx, model.SourceStatusPending, 2)
	require.NoError(t, err)
	require.Len(t, pending, 2)
	require.Equal(t, "s3", pending[0].ID)
}

func TestMemorySourceRepoUpdateStatusIf(t *testing.T) {
	ctx := context.Background()
	r := repo.NewMemorySourceRepo()
	require.NoError(t, r.Create(ctx, newSource("s1", "ev", 1)))

	ok, err := r.UpdateStatusIf(ctx, "s1", model.SourceStatusPending, model.SourceStatusProcessing, nil, 2)
	require.NoError(t, err)
	require.True(t, ok)

	ok, err = r.UpdateStatusIf(ctx, "s1", model.SourceStatusPending, model.SourceStatusProcessing, nil, 3)
	require.NoError(t, err)
	require.False(t, ok)

	msg := "boom"
	ok, err = r.UpdateStatusIf(ctx, "s1", model.SourceStatusProcessing, model.SourceStatusFailed, &msg, 4)
	require.NoError(t, err)
	require.True(t, ok)
	msg = "mutated"

	got, err := r.GetByID(ctx, "s1")
	require.NoError(t, err)
	require.Equal(t, model.SourceStatusFailed, got.Status)
	require.NotNil(t, got.ErrorMessage)
	require.Equal(t, "boom", *got.ErrorMessage)
	require.Equal(t, int64(4), got.Mtime)

	ok, err = r.UpdateStatusIf(ctx, "missing", model.SourceStatusPending, model.SourceStatusProcessing, nil, 5)
	require.NoError(t, err)
	require.False(t, ok)
}

func TestMemorySourceRepoClaimIsExclusive(t *testing.T) {
	ctx := context.Background()
	r := repo.NewMemorySourceRepo()
	require.NoError(t, r.Create(ctx, newSource("s1", "ev", 1)))

	var wins int32
	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ok, err := r.UpdateStatusIf(ctx, "s1", model.SourceStatusPending, model.SourceStatusProcessing, nil, 2)
			if err == nil && ok {
				atomic.AddInt32(&wins, 1)
			}
		}()
	}
	wg.Wait()
	require.Equal(t, int32(1), wins)
}
