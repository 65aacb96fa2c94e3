package repository_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fcescuela/clubhouse/app/models"
	"github.com/fcescuela/clubhouse/app/repository"
	"github.com/fcescuela/clubhouse/internal/pkg/database/dbtest"
)

func intPtr(v int) *int { return &v }

func TestMatchRepository_ListAndUpdate(t *testing.T) {
	db := dbtest.New(t)
	repos := repository.NewRepositories(db)
	ctx := context.Background()

	late := models.Match{HomeTeam: "Club", AwayTeam: "B", Date: time.Date(2025, 5, 2, 0, 0, 0, 0, time.UTC), Capacity: intPtr(100)}
	early := models.Match{HomeTeam: "Club", AwayTeam: "A", Date: time.Date(2025, 5, 1, 0, 0, 0, 0, time.UTC)}
	require.NoError(t, repos.Match.Create(ctx, &late))
	require.NoError(t, repos.Match.Create(ctx, &early))

	list, err := repos.Match.ListByDate(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "A", list[0].AwayTeam)

	limited, err := repos.Match.ListWithCapacity(ctx)
	require.NoError(t, err)
	require.Len(t, limited, 1)
	assert.Equal(t, late.ID, limited[0].ID)

	late.Capacity = nil
	require.NoError(t, repos.Match.Update(ctx, &late))
	got, err := repos.Match.GetByID(ctx, late.ID)
	require.NoError(t, err)
	assert.Nil(t, got.Capacity)

	_, err = repos.Match.GetByID(ctx, 999)
	assert.ErrorIs(t, err, repository.ErrNotFound)

	missing := models.Match{ID: 999, HomeTeam: "X", AwayTeam: "Y", Date: time.Now()}
	assert.ErrorIs(t, repos.Match.Update(ctx, &missing), repository.ErrNotFound)
}

func TestTicketRepository_Occupancy(t *testing.T) {
	db := dbtest.New(t)
	repos := repository.NewRepositories(db)
	ctx := context.Background()

	m1 := models.Match{HomeTeam: "Club", AwayTeam: "A", Date: time.Now()}
	m2 := models.Match{HomeTeam: "Club", AwayTeam: "B", Date: time.Now()}
	require.NoError(t, db.Create(&m1).Error)
	require.NoError(t, db.Create(&m2).Error)

	now := time.Now().UTC()
	tickets := []models.Ticket{
		{MatchID: m1.ID, UserID: 1, Quantity: 3, Category: "standard", CheckoutSessionID: "cs_1", PurchasedAt: now},
		{MatchID: m1.ID, UserID: 2, Quantity: 2, Category: "vip", CheckoutSessionID: "cs_2", PurchasedAt: now.Add(time.Minute)},
		{MatchID: m2.ID, UserID: 1, Quantity: 1, Category: "premium", CheckoutSessionID: "cs_3", PurchasedAt: now.Add(2 * time.Minute)},
	}
	require.NoError(t, db.Create(&tickets).Error)

	sum, err := repos.Ticket.SumQuantityByMatch(ctx, m1.ID)
	require.NoError(t, err)
	assert.Equal(t, 5, sum)

	empty, err := repos.Ticket.SumQuantityByMatch(ctx, 999)
	require.NoError(t, err)
	assert.Equal(t, 0, empty)

	sold, err := repos.Ticket.SoldByMatch(ctx)
	require.NoError(t, err)
	assert.Equal(t, map[uint]int{m1.ID: 5, m2.ID: 1}, sold)

	mine, err := repos.Ticket.ListByUser(ctx, 1)
	require.NoError(t, err)
	require.Len(t, mine, 2)
	assert.Equal(t, "cs_3", mine[0].CheckoutSessionID)
	require.NotNil(t, mine[0].Match)
	assert.Equal(t, "B", mine[0].Match.AwayTeam)

	bySession, err := repos.Ticket.GetBySession(ctx, "cs_2")
	require.NoError(t, err)
	assert.Equal(t, 2, bySession.Quantity)
}

func TestNewsRepository_PublishedOnly(t *testing.T) {
	db := dbtest.New(t)
	repos := repository.NewRepositories(db)
	ctx := context.Background()

	require.NoError(t, repos.News.Create(ctx, &models.News{Title: "Season opener", Content: "...", Slug: "season-opener", Published: true}))
	draft := models.News{Title: "Draft", Content: "...", Slug: "draft"}
	require.NoError(t, repos.News.Create(ctx, &draft))

	list, err := repos.News.GetPublished(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "season-opener", list[0].Slug)

	_, err = repos.News.GetBySlug(ctx, "draft")
	assert.ErrorIs(t, err, repository.ErrNotFound)

	exists, err := repos.News.SlugExists(ctx, "draft")
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestRefundRepository_Resolve(t *testing.T) {
	db := dbtest.New(t)
	repos := repository.NewRepositories(db)
	ctx := context.Background()

	req := models.RefundRequest{CheckoutSessionID: "cs_9", MatchID: 1, UserID: 1, Quantity: 2, Status: models.RefundStatusPending}
	require.NoError(t, db.Create(&req).Error)

	pending, err := repos.Refund.ListPending(ctx)
	require.NoError(t, err)
	require.Len(t, pending, 1)

	require.NoError(t, repos.Refund.Resolve(ctx, req.ID))
	pending, err = repos.Refund.ListPending(ctx)
	require.NoError(t, err)
	assert.Empty(t, pending)
	assert.ErrorIs(t, repos.Refund.Resolve(ctx, req.ID), repository.ErrNotFound, "already resolved")
	assert.ErrorIs(t, repos.Refund.Resolve(ctx, 999), repository.ErrNotFound)
}

func TestPlayerRepository_Order(t *testing.T) {
	db := dbtest.New(t)
	repos := repository.NewRepositories(db)

	require.NoError(t, db.Create(&[]models.Player{
		{Name: "Striker", Role: "FW", Position: 3},
		{Name: "Keeper", Role: "GK", Position: 1},
		{Name: "Skipper", Role: "DF", Position: 2, Captain: true},
	}).Error)

	players, err := repos.Player.List(context.Background())
	require.NoError(t, err)
	require.Len(t, players, 3)
	assert.Equal(t, []string{"Keeper", "Skipper", "Striker"}, []string{players[0].Name, players[1].Name, players[2].Name})
}
