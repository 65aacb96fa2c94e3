package listings_test

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fcescuela/clubhouse/app/models"
	"github.com/fcescuela/clubhouse/internal/pkg/cache"
)

func TestSearch(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	require.NoError(t, f.db.Create(&[]models.News{
		{Title: "Derby preview", Content: "Rivals come to town", Slug: "derby-preview", Published: true},
		{Title: "Kit launch", Content: "New colours", Slug: "kit-launch", Published: true},
		{Title: "Secret rivals plan", Content: "draft", Slug: "secret", Published: false},
	}).Error)
	require.NoError(t, f.db.Create(&[]models.Player{
		{Name: "Ana Rivalsdottir", Role: "FW", Position: 1},
		{Name: "Keeper", Role: "GK", Position: 2},
	}).Error)
	older := f.match(t, "Rivals", -72*time.Hour, strPtr("1-0"), nil)
	newer := f.match(t, "RIVALS United", 48*time.Hour, nil, nil)
	f.match(t, "Strangers", 96*time.Hour, nil, nil)

	res, err := f.svc.Search(ctx, "  rivals ")
	require.NoError(t, err)

	require.Len(t, res.News, 1)
	assert.Equal(t, "derby-preview", res.News[0].Slug)
	require.Len(t, res.Team, 1)
	assert.Equal(t, "Ana Rivalsdottir", res.Team[0].Name)
	require.Len(t, res.Matches, 2)
	assert.Equal(t, newer.ID, res.Matches[0].ID)
	assert.Equal(t, older.ID, res.Matches[1].ID)
	assert.Equal(t, models.MatchStatusFinished, res.Matches[1].Status)

	// reads go through the list caches
	assert.True(t, f.mr.Exists(cache.KeyNews))
	assert.True(t, f.mr.Exists(cache.KeyMatches))

	byStatus, err := f.svc.Search(ctx, "finished")
	require.NoError(t, err)
	require.Len(t, byStatus.Matches, 1)
	assert.Equal(t, older.ID, byStatus.Matches[0].ID)
}

func TestSearch_EmptyQuery(t *testing.T) {
	f := setup(t)
	f.match(t, "Anyone", time.Hour, nil, nil)

	for _, q := range []string{"", "   "} {
		res, err := f.svc.Search(context.Background(), q)
		require.NoError(t, err)
		assert.NotNil(t, res.News)
		assert.Empty(t, res.News)
		assert.Empty(t, res.Team)
		assert.Empty(t, res.Matches)
	}
	assert.False(t, f.mr.Exists(cache.KeyMatches))

	res, err := f.svc.Search(context.Background(), strings.Repeat("x", 500))
	require.NoError(t, err)
	assert.Empty(t, res.Matches)
}
