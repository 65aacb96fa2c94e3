package capacity

import (
	"context"
	"errors"
	"fmt"

	"github.com/gofiber/fiber/v2/log"

	"github.com/fcescuela/clubhouse/app/models"
	"github.com/fcescuela/clubhouse/app/repository"
)

var ErrMatchNotFound = errors.New("match not found")

// Rejection reasons carried by a Decision.
const (
	ReasonUnlimited    = "unlimited capacity"
	ReasonAvailable    = "seats available"
	ReasonInsufficient = "insufficient capacity"
	ReasonInvalidCount = "quantity must be at least 1"
)

// MatchReader resolves fixtures.
type MatchReader interface {
	GetByID(ctx context.Context, id uint) (*models.Match, error)
	ListWithCapacity(ctx context.Context) ([]models.Match, error)
}

// OccupancyReader sums issued seats.
type OccupancyReader interface {
	SumQuantityByMatch(ctx context.Context, matchID uint) (int, error)
}

// Decision is the outcome of an admission check. A rejection is a value,
// not an error.
type Decision struct {
	Admitted  bool
	Reason    string
	Capacity  *int
	Occupancy int
}

// Remaining returns the seats left, or nil when capacity is unlimited.
func (d Decision) Remaining() *int {
	if d.Capacity == nil {
		return nil
	}
	left := *d.Capacity - d.Occupancy
	if left < 0 {
		left = 0
	}
	return &left
}

// Ledger answers occupancy and admission questions from issued tickets.
type Ledger struct {
	matches MatchReader
	tickets OccupancyReader
}

func NewLedger(matches MatchReader, tickets OccupancyReader) *Ledger {
	return &Ledger{matches: matches, tickets: tickets}
}

// NewLedgerFromRepositories wires the ledger to the GORM repositories.
func NewLedgerFromRepositories(repos *repository.Repositories) *Ledger {
	return NewLedger(repos.Match, repos.Ticket)
}

// Occupancy is the sum of ticket quantities issued for the match.
func (l *Ledger) Occupancy(ctx context.Context, matchID uint) (int, error) {
	return l.tickets.SumQuantityByMatch(ctx, matchID)
}

// Admit reports whether quantity more seats fit. It reads a snapshot and
// reserves nothing; the final check happens when the ticket is committed.
func (l *Ledger) Admit(ctx context.Context, matchID uint, quantity int) (Decision, error) {
	match, err := l.match(ctx, matchID)
	if err != nil {
		return Decision{}, err
	}
	if quantity < 1 {
		return Decision{Reason: ReasonInvalidCount, Capacity: match.Capacity}, nil
	}
	if match.HasUnlimitedCapacity() {
		return Decision{Admitted: true, Reason: ReasonUnlimited}, nil
	}
	occupied, err := l.Occupancy(ctx, matchID)
	if err != nil {
		return Decision{}, fmt.Errorf("occupancy for match %d: %w", matchID, err)
	}
	return Evaluate(*match.Capacity, occupied, quantity), nil
}

// Evaluate applies the admission rule occupancy + quantity <= capacity.
func Evaluate(capacity, occupancy, quantity int) Decision {
	c := capacity
	d := Decision{Capacity: &c, Occupancy: occupancy}
	if occupancy+quantity <= capacity {
		d.Admitted = true
		d.Reason = ReasonAvailable
		return d
	}
	d.Reason = ReasonInsufficient
	return d
}

// Remaining returns the seats left for a match, nil when unlimited.
func (l *Ledger) Remaining(ctx context.Context, matchID uint) (*int, error) {
	match, err := l.match(ctx, matchID)
	if err != nil {
		return nil, err
	}
	if match.HasUnlimitedCapacity() {
		return nil, nil
	}
	occupied, err := l.Occupancy(ctx, matchID)
	if err != nil {
		return nil, err
	}
	return Evaluate(*match.Capacity, occupied, 0).Remaining(), nil
}

// Overbooked describes a match whose issued seats exceed its capacity,
// typically after an admin lowered the capacity.
type Overbooked struct {
	MatchID   uint   `json:"matchId"`
	Title     string `json:"title"`
	Capacity  int    `json:"capacity"`
	Occupancy int    `json:"occupancy"`
}

// Audit lists every capacity-limited match that is over its limit.
func (l *Ledger) Audit(ctx context.Context) ([]Overbooked, error) {
	matches, err := l.matches.ListWithCapacity(ctx)
	if err != nil {
		return nil, err
	}
	var out []Overbooked
	for _, m := range matches {
		if m.Capacity == nil {
			continue
		}
		occupied, err := l.Occupancy(ctx, m.ID)
		if err != nil {
			return nil, err
		}
		if occupied > *m.Capacity {
			log.Warnf("[Capacity] Match %d (%s) is overbooked: %d/%d", m.ID, m.Title(), occupied, *m.Capacity)
			out = append(out, Overbooked{MatchID: m.ID, Title: m.Title(), Capacity: *m.Capacity, Occupancy: occupied})
		}
	}
	return out, nil
}

func (l *Ledger) match(ctx context.Context, matchID uint) (*models.Match, error) {
	match, err := l.matches.GetByID(ctx, matchID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, fmt.Errorf("%w: %d", ErrMatchNotFound, matchID)
		}
		return nil, err
	}
	return match, nil
}
