package capacity_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fcescuela/clubhouse/app/models"
	"github.com/fcescuela/clubhouse/app/repository"
	"github.com/fcescuela/clubhouse/internal/pkg/capacity"
	"github.com/fcescuela/clubhouse/internal/pkg/database/dbtest"
)

type fakeMatches map[uint]models.Match

func (f fakeMatches) GetByID(_ context.Context, id uint) (*models.Match, error) {
	m, ok := f[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &m, nil
}

func (f fakeMatches) ListWithCapacity(context.Context) ([]models.Match, error) {
	var out []models.Match
	for _, m := range f {
		if m.Capacity != nil {
			out = append(out, m)
		}
	}
	return out, nil
}

type fakeOccupancy struct {
	sold map[uint]int
	err  error
}

func (f fakeOccupancy) SumQuantityByMatch(_ context.Context, id uint) (int, error) {
	return f.sold[id], f.err
}

func intPtr(v int) *int { return &v }

func TestAdmit(t *testing.T) {
	matches := fakeMatches{
		1: {ID: 1, HomeTeam: "Club", AwayTeam: "A", Capacity: intPtr(10)},
		2: {ID: 2, HomeTeam: "Club", AwayTeam: "B"},
		3: {ID: 3, HomeTeam: "Club", AwayTeam: "C", Capacity: intPtr(0)},
	}
	ledger := capacity.NewLedger(matches, fakeOccupancy{sold: map[uint]int{1: 7, 2: 5000}})

	tests := []struct {
		name     string
		matchID  uint
		quantity int
		admitted bool
		reason   string
	}{
		{"fits exactly", 1, 3, true, capacity.ReasonAvailable},
		{"one too many", 1, 4, false, capacity.ReasonInsufficient},
		{"unlimited always admits", 2, 10000, true, capacity.ReasonUnlimited},
		{"zero capacity rejects", 3, 1, false, capacity.ReasonInsufficient},
		{"zero quantity rejected", 1, 0, false, capacity.ReasonInvalidCount},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d, err := ledger.Admit(context.Background(), tt.matchID, tt.quantity)
			require.NoError(t, err)
			assert.Equal(t, tt.admitted, d.Admitted)
			assert.Equal(t, tt.reason, d.Reason)
		})
	}
}

func TestAdmit_UnknownMatch(t *testing.T) {
	ledger := capacity.NewLedger(fakeMatches{}, fakeOccupancy{})
	_, err := ledger.Admit(context.Background(), 42, 1)
	assert.ErrorIs(t, err, capacity.ErrMatchNotFound)
}

func TestAdmit_OccupancyErrorPropagates(t *testing.T) {
	boom := errors.New("db down")
	ledger := capacity.NewLedger(fakeMatches{1: {ID: 1, Capacity: intPtr(5)}}, fakeOccupancy{err: boom})
	_, err := ledger.Admit(context.Background(), 1, 1)
	assert.ErrorIs(t, err, boom)
}

func TestRemaining(t *testing.T) {
	ledger := capacity.NewLedger(fakeMatches{
		1: {ID: 1, Capacity: intPtr(10)},
		2: {ID: 2},
		3: {ID: 3, Capacity: intPtr(2)},
	}, fakeOccupancy{sold: map[uint]int{1: 4, 3: 5}})
	ctx := context.Background()

	left, err := ledger.Remaining(ctx, 1)
	require.NoError(t, err)
	require.NotNil(t, left)
	assert.Equal(t, 6, *left)

	left, err = ledger.Remaining(ctx, 2)
	require.NoError(t, err)
	assert.Nil(t, left)

	left, err = ledger.Remaining(ctx, 3)
	require.NoError(t, err)
	assert.Equal(t, 0, *left)
}

func TestLedger_WithDatabase(t *testing.T) {
	db := dbtest.New(t)
	repos := repository.NewRepositories(db)
	ledger := capacity.NewLedgerFromRepositories(repos)
	ctx := context.Background()

	match := models.Match{HomeTeam: "Club", AwayTeam: "Rivals", Date: time.Now().Add(48 * time.Hour), Capacity: intPtr(10)}
	require.NoError(t, db.Create(&match).Error)
	require.NoError(t, db.Create(&models.Ticket{
		MatchID: match.ID, UserID: 1, Quantity: 7, Category: "standard",
		CheckoutSessionID: "cs_seed", PurchasedAt: time.Now(),
	}).Error)

	occ, err := ledger.Occupancy(ctx, match.ID)
	require.NoError(t, err)
	assert.Equal(t, 7, occ)

	d, err := ledger.Admit(ctx, match.ID, 4)
	require.NoError(t, err)
	assert.False(t, d.Admitted)
	assert.Equal(t, 3, *d.Remaining())

	d, err = ledger.Admit(ctx, match.ID, 3)
	require.NoError(t, err)
	assert.True(t, d.Admitted)

	// capacity lowered below what was sold
	require.NoError(t, db.Model(&models.Match{}).Where("id = ?", match.ID).Update("capacity", 5).Error)
	over, err := ledger.Audit(ctx)
	require.NoError(t, err)
	require.Len(t, over, 1)
	assert.Equal(t, capacity.Overbooked{MatchID: match.ID, Title: "Club vs Rivals", Capacity: 5, Occupancy: 7}, over[0])
}
