package repo_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/xxxsen/eventkb/internal/model"
	appErr "github.com/xxxsen/eventkb/internal/pkg/errors"
	"github.com/xxxsen/eventkb/internal/pkg/timeutil"
	"github.com/xxxsen/eventkb/internal/repo"
	"github.com/xxxsen/eventkb/internal/testutil"
)

func TestSourceRepoLifecycle(t *testing.T) {
	db, cleanup := testutil.OpenTestDB(t)
	defer cleanup()

	ctx := context.Background()
	sources := repo.NewSourceRepo(db)
	now := timeutil.NowUnix()
	eventID := "ev-" + randomSuffix()
	src := newSource("src-"+randomSuffix(), eventID, now)
	require.NoError(t, sources.Create(ctx, src))

	got, err := sources.GetByID(ctx, src.ID)
	require.NoError(t, err)
	require.Equal(t, model.SourceStatusPending, got.Status)
	require.Nil(t, got.ErrorMessage)

	list, err := sources.ListByEvent(ctx, eventID)
	require.NoError(t, err)
	require.Len(t, list, 1)

	ok, err := sources.UpdateStatusIf(ctx, src.ID, model.SourceStatusPending, model.SourceStatusProcessing, nil, now+1)
	require.NoError(t, err)
	require.True(t, ok)
	ok, err = sources.UpdateStatusIf(ctx, src.ID, model.SourceStatusPending, model.SourceStatusProcessing, nil, now+2)
	require.NoError(t, err)
	require.False(t, ok)

	msg := "acquisition failed: status 404"
	ok, err = sources.UpdateStatusIf(ctx, src.ID, model.SourceStatusProcessing, model.SourceStatusFailed, &msg, now+3)
	require.NoError(t, err)
	require.True(t, ok)

	got, err = sources.GetByID(ctx, src.ID)
	require.NoError(t, err)
	require.Equal(t, model.SourceStatusFailed, got.Status)
	require.Equal(t, msg, *got.ErrorMessage)

	_, err = sources.GetByID(ctx, "missing-"+randomSuffix())
	require.ErrorIs(t, err, appErr.ErrNotFound)
}
