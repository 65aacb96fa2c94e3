package checkout

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/gofiber/fiber/v2/log"

	"github.com/fcescuela/clubhouse/app/models"
	"github.com/fcescuela/clubhouse/internal/pkg/billing"
	"github.com/fcescuela/clubhouse/internal/pkg/capacity"
	"github.com/fcescuela/clubhouse/internal/pkg/entitlements"
)

// MaxTicketsPerOrder bounds a single purchase. Price relies on it to stay
// inside int64.
const MaxTicketsPerOrder = 20

var (
	ErrMatchNotFound        = capacity.ErrMatchNotFound
	ErrInvalidCategory      = errors.New("invalid ticket category")
	ErrInvalidQuantity      = fmt.Errorf("quantity must be between 1 and %d", MaxTicketsPerOrder)
	ErrInsufficientCapacity = errors.New("not enough available seats")
	ErrInvalidOrFreePlan    = errors.New("invalid or free plan selected")
	ErrPriceNotConfigured   = errors.New("price reference not configured")
)

// Admitter is the capacity check consulted before a session is opened.
type Admitter interface {
	Admit(ctx context.Context, matchID uint, quantity int) (capacity.Decision, error)
}

// Initiator validates purchase requests and opens processor sessions. It
// never writes local state; the purchase only exists once fulfilled.
type Initiator struct {
	ledger    Admitter
	processor billing.Processor
	plans     *entitlements.Catalog
	cfg       Config
}

func NewInitiator(ledger Admitter, processor billing.Processor, plans *entitlements.Catalog, cfg Config) *Initiator {
	return &Initiator{ledger: ledger, processor: processor, plans: plans, cfg: cfg.withDefaults()}
}

// Price returns basePrice × quantity × category multiplier in cents.
func Price(baseCents int64, quantity int, category models.TicketCategory) int64 {
	return baseCents * int64(quantity) * category.MultiplierHalves() / 2
}

// InitiateTicketCheckout opens a hosted checkout priced by the processor's
// per-category price reference.
func (i *Initiator) InitiateTicketCheckout(ctx context.Context, user *models.User, matchID uint, quantity int, category string) (*billing.SessionHandle, error) {
	cat, err := i.admitTicket(ctx, matchID, quantity, category)
	if err != nil {
		return nil, err
	}
	priceID := strings.TrimSpace(i.cfg.TicketPriceIDs[cat])
	if priceID == "" {
		return nil, fmt.Errorf("%w: ticket category %s", ErrPriceNotConfigured, cat)
	}

	intent := ticketIntent(user, matchID, quantity, cat)
	handle, err := i.processor.CreateCheckoutSession(ctx, billing.CheckoutSessionRequest{
		Mode:          billing.ModePayment,
		PriceID:       priceID,
		Quantity:      int64(quantity),
		CustomerEmail: user.Email,
		SuccessURL:    i.cfg.ticketSuccessURL(),
		CancelURL:     i.cfg.ticketCancelURL(),
		Metadata:      intent.ToMetadata(),
	})
	if err != nil {
		return nil, fmt.Errorf("create checkout session: %w", err)
	}
	log.Infof("[Checkout] Ticket session %s opened for user %d, match %d (%d x %s)", handle.ID, user.ID, matchID, quantity, cat)
	return handle, nil
}

// InitiateTicketPaymentIntent opens a direct payment for a locally computed
// amount.
func (i *Initiator) InitiateTicketPaymentIntent(ctx context.Context, user *models.User, matchID uint, quantity int, category string) (*billing.SessionHandle, error) {
	cat, err := i.admitTicket(ctx, matchID, quantity, category)
	if err != nil {
		return nil, err
	}

	intent := ticketIntent(user, matchID, quantity, cat)
	intent.Source = billing.SourcePaymentIntent
	amount := Price(i.cfg.BasePriceCents, quantity, cat)
	handle, err := i.processor.CreatePaymentIntent(ctx, billing.PaymentIntentRequest{
		AmountCents:  amount,
		Currency:     i.cfg.Currency,
		ReceiptEmail: user.Email,
		Description:  fmt.Sprintf("%d x %s ticket, match %d", quantity, cat, matchID),
		Metadata:     intent.ToMetadata(),
	})
	if err != nil {
		return nil, fmt.Errorf("create payment intent: %w", err)
	}
	handle.AmountCents = amount
	log.Infof("[Checkout] Payment intent %s opened for user %d, match %d (%d cents)", handle.ID, user.ID, matchID, amount)
	return handle, nil
}

// InitiateMembershipCheckout opens a subscription checkout for a paid plan.
func (i *Initiator) InitiateMembershipCheckout(ctx context.Context, user *models.User, planID string) (*billing.SessionHandle, error) {
	plan, ok := i.plans.Lookup(planID)
	if !ok || plan.IsFree() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidOrFreePlan, planID)
	}

	intent := billing.CheckoutIntent{
		Kind:   billing.IntentMembership,
		UserID: user.ID,
		PlanID: string(plan.ID),
		Email:  user.Email,
		Name:   user.Name,
		Image:  user.AvatarURL,
	}
	handle, err := i.processor.CreateCheckoutSession(ctx, billing.CheckoutSessionRequest{
		Mode:          billing.ModeSubscription,
		PriceID:       plan.PriceID,
		Quantity:      1,
		CustomerEmail: user.Email,
		SuccessURL:    i.cfg.membershipSuccessURL(),
		CancelURL:     i.cfg.membershipCancelURL(),
		Metadata:      intent.ToMetadata(),
	})
	if err != nil {
		return nil, fmt.Errorf("create membership session: %w", err)
	}
	log.Infof("[Checkout] Membership session %s opened for user %d, plan %s", handle.ID, user.ID, plan.ID)
	return handle, nil
}

func (i *Initiator) admitTicket(ctx context.Context, matchID uint, quantity int, category string) (models.TicketCategory, error) {
	cat, ok := models.ParseTicketCategory(category)
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrInvalidCategory, category)
	}
	if quantity < 1 || quantity > MaxTicketsPerOrder {
		return "", ErrInvalidQuantity
	}
	decision, err := i.ledger.Admit(ctx, matchID, quantity)
	if err != nil {
		return "", err
	}
	if !decision.Admitted {
		if rem := decision.Remaining(); rem != nil {
			return "", fmt.Errorf("%w: %d remaining", ErrInsufficientCapacity, *rem)
		}
		return "", ErrInsufficientCapacity
	}
	return cat, nil
}

func ticketIntent(user *models.User, matchID uint, quantity int, cat models.TicketCategory) billing.CheckoutIntent {
	return billing.CheckoutIntent{
		Kind:     billing.IntentTicket,
		UserID:   user.ID,
		MatchID:  matchID,
		Quantity: quantity,
		Category: cat,
		Email:    user.Email,
		Name:     user.Name,
		Image:    user.AvatarURL,
	}
}
