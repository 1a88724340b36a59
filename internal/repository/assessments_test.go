package repository

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"aurora-agent/internal/domain"
)

func TestAssessmentRepo_PutReplacesPerUser(t *testing.T) {
	store, err := NewFileStore(t.TempDir())
	require.NoError(t, err)
	repo, err := NewAssessmentRepo(store)
	require.NoError(t, err)
	ctx := context.Background()

	_, ok, err := repo.Get(ctx, "u1")
	require.NoError(t, err)
	require.False(t, ok)

	first := domain.Assessment{UserID: "u1", Data: domain.Questionnaire{AgeRange: "18-24"}, UpdatedAt: base}
	require.NoError(t, repo.Put(ctx, first))
	second := domain.Assessment{UserID: "u1", Data: domain.Questionnaire{AgeRange: "25-34", MainFactors: []string{"work"}}, UpdatedAt: base}
	require.NoError(t, repo.Put(ctx, second))

	got, ok, err := repo.Get(ctx, "u1")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "25-34", got.Data.AgeRange)
	require.Equal(t, []string{"work"}, got.Data.MainFactors)

	docs, err := store.List(ctx, CollectionAssessments, Filter{Owner: "u1"})
	require.NoError(t, err)
	require.Len(t, docs, 1)

	require.ErrorIs(t, repo.Put(ctx, domain.Assessment{}), ErrInvalidKey)
	_, err = NewAssessmentRepo(nil)
	require.Error(t, err)
}
