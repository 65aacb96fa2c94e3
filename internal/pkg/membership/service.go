package membership

import (
	"context"
	"errors"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/fcescuela/clubhouse/app/models"
)

// Service applies confirmed subscription outcomes and answers membership
// reads with the clock it was built with.
type Service struct {
	repo Repository
	now  func() time.Time
}

// NewService creates a membership service from an injected repository.
func NewService(repo Repository, now func() time.Time) *Service {
	if now == nil {
		now = time.Now
	}
	return &Service{repo: repo, now: now}
}

// NewServiceFromDB creates a membership service from a GORM DB handle.
func NewServiceFromDB(db *gorm.DB, now func() time.Time) *Service {
	return NewService(NewRepository(db), now)
}

// ActivateInput is a confirmed subscription checkout.
type ActivateInput struct {
	UserID         uint
	PlanID         string
	CustomerID     string
	SubscriptionID string
	PeriodStart    time.Time
	PeriodEnd      time.Time
	Profile        models.ProfileUpdate
}

// Activate makes the subscription the user's active membership. Applying the
// same input twice leaves the same single history row.
func (s *Service) Activate(ctx context.Context, in ActivateInput) (*models.Membership, error) {
	subID := strings.TrimSpace(in.SubscriptionID)
	plan := strings.ToLower(strings.TrimSpace(in.PlanID))
	if in.UserID == 0 || subID == "" || plan == "" {
		return nil, errors.New("user_id, plan_id and subscription_id are required")
	}

	start := in.PeriodStart
	if start.IsZero() {
		start = s.now()
	}
	m := &models.Membership{
		UserID:               in.UserID,
		PlanID:               plan,
		StripeCustomerID:     strings.TrimSpace(in.CustomerID),
		StripeSubscriptionID: subID,
		Status:               string(StatusActive),
		StartDate:            start.UTC(),
		EndDate:              in.PeriodEnd.UTC(),
	}
	if err := s.repo.Activate(ctx, m, in.Profile); err != nil {
		return nil, err
	}
	return m, nil
}

// Cancel moves the membership for subscriptionID to Canceled and clears the
// user's active pointer if it referenced it.
func (s *Service) Cancel(ctx context.Context, subscriptionID string) (*models.Membership, error) {
	subID := strings.TrimSpace(subscriptionID)
	if subID == "" {
		return nil, errors.New("subscription_id is required")
	}
	return s.repo.Cancel(ctx, subID, s.now().UTC())
}

// Current returns the user's active membership row with its derived status.
// A user without one gets (nil, StatusNone, nil).
func (s *Service) Current(ctx context.Context, userID uint) (*models.Membership, Status, error) {
	m, err := s.repo.FindActiveForUser(ctx, userID)
	if err != nil {
		if errors.Is(err, ErrNotFound) || errors.Is(err, ErrUserNotFound) {
			return nil, StatusNone, nil
		}
		return nil, StatusNone, err
	}
	return m, Effective(m, s.now()), nil
}

// HistoryEntry is a membership row with its status as of the read.
type HistoryEntry struct {
	models.Membership
	EffectiveStatus Status `json:"effectiveStatus"`
}

// History lists all of the user's memberships, newest first.
func (s *Service) History(ctx context.Context, userID uint) ([]HistoryEntry, error) {
	list, err := s.repo.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	now := s.now()
	out := make([]HistoryEntry, 0, len(list))
	for i := range list {
		out = append(out, HistoryEntry{Membership: list[i], EffectiveStatus: Effective(&list[i], now)})
	}
	return out, nil
}
