// Package orders assembles a user's purchase history.
package orders

import (
	"context"
	"sort"
	"time"

	"github.com/fcescuela/clubhouse/app/models"
	"github.com/fcescuela/clubhouse/internal/pkg/membership"
)

const (
	KindTicket     = "ticket"
	KindMembership = "membership"
)

// MatchSummary describes the fixture a ticket is for.
type MatchSummary struct {
	ID    uint      `json:"id"`
	Name  string    `json:"name"`
	Date  time.Time `json:"date"`
	Time  string    `json:"time"`
	Venue string    `json:"venue"`
}

// Details holds the kind-specific part of an order.
type Details struct {
	Match       *MatchSummary     `json:"match,omitempty"`
	Quantity    int               `json:"quantity,omitempty"`
	Category    string            `json:"category,omitempty"`
	AmountTotal int64             `json:"amountTotal,omitempty"`
	PlanID      string            `json:"planId,omitempty"`
	Status      membership.Status `json:"status,omitempty"`
	EndDate     *time.Time        `json:"endDate,omitempty"`
}

type Order struct {
	Type    string    `json:"type"`
	ID      uint      `json:"id"`
	Date    time.Time `json:"date"`
	Details Details   `json:"details"`
}

type TicketLister interface {
	ListByUser(ctx context.Context, userID uint) ([]models.Ticket, error)
}

type MembershipHistory interface {
	History(ctx context.Context, userID uint) ([]membership.HistoryEntry, error)
}

type Service struct {
	tickets     TicketLister
	memberships MembershipHistory
}

func NewService(tickets TicketLister, memberships MembershipHistory) *Service {
	return &Service{tickets: tickets, memberships: memberships}
}

// List merges tickets and memberships, newest first. Membership status is
// the one derived at read time.
func (s *Service) List(ctx context.Context, userID uint) ([]Order, error) {
	tickets, err := s.tickets.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	history, err := s.memberships.History(ctx, userID)
	if err != nil {
		return nil, err
	}

	out := make([]Order, 0, len(tickets)+len(history))
	for _, t := range tickets {
		o := Order{
			Type: KindTicket,
			ID:   t.ID,
			Date: t.PurchasedAt,
			Details: Details{
				Quantity:    t.Quantity,
				Category:    t.Category,
				AmountTotal: t.AmountTotal,
			},
		}
		if t.Match != nil {
			o.Details.Match = &MatchSummary{
				ID:    t.Match.ID,
				Name:  t.Match.Title(),
				Date:  t.Match.Date,
				Time:  t.Match.Time,
				Venue: t.Match.Venue,
			}
		}
		out = append(out, o)
	}
	for _, h := range history {
		end := h.EndDate
		out = append(out, Order{
			Type: KindMembership,
			ID:   h.ID,
			Date: h.StartDate,
			Details: Details{
				PlanID:  h.PlanID,
				Status:  h.EffectiveStatus,
				EndDate: &end,
			},
		})
	}

	sort.SliceStable(out, func(i, j int) bool { return out[i].Date.After(out[j].Date) })
	return out, nil
}
