package fulfillment

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2/log"

	"github.com/fcescuela/clubhouse/app/models"
	"github.com/fcescuela/clubhouse/internal/pkg/billing"
	"github.com/fcescuela/clubhouse/internal/pkg/cache"
	"github.com/fcescuela/clubhouse/internal/pkg/entitlements"
	"github.com/fcescuela/clubhouse/internal/pkg/events"
	"github.com/fcescuela/clubhouse/internal/pkg/jobqueue"
	"github.com/fcescuela/clubhouse/internal/pkg/membership"
)

var (
	ErrInvalidSignature = billing.ErrInvalidSignature
	ErrMalformedEvent   = billing.ErrMalformedEvent
)

// Action names what a callback did.
type Action string

const (
	ActionIgnored             Action = "ignored"
	ActionInvalidIntent       Action = "invalid_intent"
	ActionTicketIssued        Action = "ticket_issued"
	ActionTicketDuplicate     Action = "ticket_already_issued"
	ActionRefundFlagged       Action = "refund_flagged"
	ActionMembershipActivated Action = "membership_activated"
	ActionMembershipUnchanged Action = "membership_unchanged"
	ActionMembershipCanceled  Action = "membership_canceled"
)

// Outcome is returned for every authentic callback. The HTTP layer answers
// 200 for any outcome.
type Outcome struct {
	EventID      string `json:"eventId"`
	EventType    string `json:"eventType"`
	Action       Action `json:"action"`
	TicketID     uint   `json:"ticketId,omitempty"`
	RefundID     uint   `json:"refundRequestId,omitempty"`
	MembershipID uint   `json:"membershipId,omitempty"`
}

// Memberships is the membership lifecycle used by fulfillment.
type Memberships interface {
	Activate(ctx context.Context, in membership.ActivateInput) (*models.Membership, error)
	Cancel(ctx context.Context, subscriptionID string) (*models.Membership, error)
	Current(ctx context.Context, userID uint) (*models.Membership, membership.Status, error)
}

// Invalidator evicts cached collections.
type Invalidator interface {
	Invalidate(ctx context.Context, keys ...string)
}

// Notifier queues follow-up emails.
type Notifier interface {
	EnqueuePurchaseConfirmation(ctx context.Context, p jobqueue.PurchaseConfirmationPayload) error
	EnqueueRefundReview(ctx context.Context, p jobqueue.RefundReviewPayload) error
}

// Deps are the collaborators of a Processor. Notifier and Events are optional.
type Deps struct {
	WebhookSecret string
	Billing       billing.Processor
	Tickets       TicketStore
	Memberships   Memberships
	Plans         *entitlements.Catalog
	Cache         Invalidator
	Notifier      Notifier
	Events        events.Publisher
	Now           func() time.Time
}

// Processor turns authenticated payment callbacks into tickets and
// memberships. Every step is safe to repeat for a redelivered event.
type Processor struct {
	Deps
}

func NewProcessor(d Deps) *Processor {
	if d.Now == nil {
		d.Now = time.Now
	}
	if d.Events == nil {
		d.Events = events.NopPublisher{}
	}
	return &Processor{Deps: d}
}

// HandlePaymentCallback authenticates rawPayload and applies it. An error
// wrapping ErrInvalidSignature or ErrMalformedEvent means nothing was
// changed; any other error is a processing failure the sender should retry.
func (p *Processor) HandlePaymentCallback(ctx context.Context, rawPayload []byte, signatureHeader string) (Outcome, error) {
	evt, err := billing.ParseWebhookEvent(rawPayload, signatureHeader, p.WebhookSecret)
	if err != nil {
		log.Warnf("[Fulfillment] Rejected callback: %v", err)
		return Outcome{}, err
	}
	out := Outcome{EventID: evt.ID, EventType: evt.Type, Action: ActionIgnored}

	switch evt.Type {
	case billing.EventCheckoutCompleted:
		err = p.handleCheckoutCompleted(ctx, evt.Checkout, &out)
	case billing.EventPaymentIntentSucceeded:
		err = p.handlePaymentIntent(ctx, evt.PaymentIntent, &out)
	case billing.EventSubscriptionDeleted:
		err = p.handleSubscriptionDeleted(ctx, evt.Subscription, &out)
	default:
		log.Debugf("[Fulfillment] Ignoring event %s (%s)", evt.ID, evt.Type)
	}
	if err != nil {
		log.Errorf("[Fulfillment] Event %s (%s) failed: %v", evt.ID, evt.Type, err)
		return out, err
	}
	log.Infof("[Fulfillment] Event %s (%s): %s", evt.ID, evt.Type, out.Action)
	return out, nil
}

func (p *Processor) handleCheckoutCompleted(ctx context.Context, s *billing.CheckoutSession, out *Outcome) error {
	if s == nil {
		return fmt.Errorf("%w: checkout session missing", ErrMalformedEvent)
	}
	intent, err := billing.IntentFromMetadata(s.Mode, s.Metadata)
	if err != nil {
		log.Errorf("[Fulfillment] Session %s carries no usable intent: %v", s.ID, err)
		out.Action = ActionInvalidIntent
		return nil
	}
	if intent.Email == "" {
		intent.Email = s.CustomerEmail
	}
	if intent.Name == "" {
		intent.Name = s.CustomerName
	}

	if s.Mode == billing.ModeSubscription {
		return p.activateMembership(ctx, s, intent, out)
	}
	if !isPaid(s.PaymentStatus) {
		log.Infof("[Fulfillment] Session %s not paid yet (%s)", s.ID, s.PaymentStatus)
		return nil
	}
	return p.issueTicket(ctx, s.ID, s.AmountTotal, intent, out)
}

// handlePaymentIntent fulfills only the direct payment flow; intents created
// by hosted checkout are fulfilled through their session.
func (p *Processor) handlePaymentIntent(ctx context.Context, pi *billing.PaymentIntent, out *Outcome) error {
	if pi == nil {
		return fmt.Errorf("%w: payment intent missing", ErrMalformedEvent)
	}
	if pi.Metadata["source"] != billing.SourcePaymentIntent {
		return nil
	}
	intent, err := billing.IntentFromMetadata(billing.ModePayment, pi.Metadata)
	if err != nil {
		log.Errorf("[Fulfillment] Payment intent %s carries no usable intent: %v", pi.ID, err)
		out.Action = ActionInvalidIntent
		return nil
	}
	return p.issueTicket(ctx, pi.ID, pi.AmountCents, intent, out)
}

func (p *Processor) issueTicket(ctx context.Context, reference string, amount int64, intent billing.CheckoutIntent, out *Outcome) error {
	res, err := p.Tickets.CommitTicket(ctx, TicketCommit{
		SessionID:   reference,
		MatchID:     intent.MatchID,
		UserID:      intent.UserID,
		Quantity:    intent.Quantity,
		Category:    intent.Category,
		AmountTotal: amount,
		PurchasedAt: p.Now(),
		Profile:     intent.Profile(),
	})
	if err != nil {
		return fmt.Errorf("commit ticket for %s: %w", reference, err)
	}
	if res.Ticket == nil && res.Refund == nil {
		return fmt.Errorf("commit ticket for %s: %w", reference, ErrOutcomeUnresolved)
	}

	if res.Refund != nil {
		out.Action = ActionRefundFlagged
		out.RefundID = res.Refund.ID
		if res.Created {
			log.Warnf("[Fulfillment] Session %s flagged for refund: %s", reference, res.Refund.Reason)
			p.afterRefundFlagged(ctx, res, intent)
		}
		return nil
	}

	out.TicketID = res.Ticket.ID
	out.Action = ActionTicketDuplicate
	if res.Created {
		out.Action = ActionTicketIssued
	}
	if p.Cache != nil {
		p.Cache.Invalidate(ctx, cache.PurchaseKeys()...)
	}
	if res.Created {
		p.afterTicketIssued(ctx, res, intent)
	}
	return nil
}

func (p *Processor) activateMembership(ctx context.Context, s *billing.CheckoutSession, intent billing.CheckoutIntent, out *Outcome) error {
	if s.SubscriptionID == "" {
		log.Errorf("[Fulfillment] Subscription session %s has no subscription", s.ID)
		out.Action = ActionInvalidIntent
		return nil
	}
	sub, err := p.Billing.GetSubscription(ctx, s.SubscriptionID)
	if err != nil {
		return fmt.Errorf("retrieve subscription %s: %w", s.SubscriptionID, err)
	}
	customerID := s.CustomerID
	if customerID == "" {
		customerID = sub.CustomerID
	}
	if customerID != "" && (intent.Email == "" || intent.Name == "") {
		cust, err := p.Billing.GetCustomer(ctx, customerID)
		if err != nil {
			return fmt.Errorf("retrieve customer %s: %w", customerID, err)
		}
		if intent.Email == "" {
			intent.Email = cust.Email
		}
		if intent.Name == "" {
			intent.Name = cust.Name
		}
	}

	plan := p.resolvePlan(intent.PlanID, sub.PriceID)
	if plan == "" {
		log.Errorf("[Fulfillment] Subscription %s maps to no known plan (price %s)", sub.ID, sub.PriceID)
		out.Action = ActionInvalidIntent
		return nil
	}
	if !billing.IsEntitlingStatus(sub.Status) {
		log.Infof("[Fulfillment] Subscription %s is %s, not activating", sub.ID, sub.Status)
		out.Action = ActionMembershipUnchanged
		return nil
	}

	// a redelivery finds the same subscription already active
	redelivered := false
	if cur, status, err := p.Memberships.Current(ctx, intent.UserID); err == nil && cur != nil {
		redelivered = status == membership.StatusActive && cur.StripeSubscriptionID == sub.ID
	}

	start, end := sub.CurrentPeriodStart, sub.CurrentPeriodEnd
	if start.IsZero() {
		start = p.Now().UTC()
	}
	if end.IsZero() {
		end = start.AddDate(1, 0, 0)
	}
	m, err := p.Memberships.Activate(ctx, membership.ActivateInput{
		UserID:         intent.UserID,
		PlanID:         plan,
		CustomerID:     customerID,
		SubscriptionID: sub.ID,
		PeriodStart:    start,
		PeriodEnd:      end,
		Profile:        intent.Profile(),
	})
	if err != nil {
		return fmt.Errorf("activate membership for user %d: %w", intent.UserID, err)
	}
	out.MembershipID = m.ID
	if m.Status != models.MembershipStatusActive || redelivered {
		out.Action = ActionMembershipUnchanged
		return nil
	}
	out.Action = ActionMembershipActivated
	p.afterMembershipActivated(ctx, m, intent)
	return nil
}

func (p *Processor) handleSubscriptionDeleted(ctx context.Context, sub *billing.Subscription, out *Outcome) error {
	if sub == nil {
		return fmt.Errorf("%w: subscription missing", ErrMalformedEvent)
	}
	m, err := p.Memberships.Cancel(ctx, sub.ID)
	if err != nil {
		if errors.Is(err, membership.ErrNotFound) {
			return nil
		}
		return fmt.Errorf("cancel membership for %s: %w", sub.ID, err)
	}
	out.MembershipID = m.ID
	out.Action = ActionMembershipCanceled
	p.publish(ctx, events.Event{
		Type: events.TypeMembershipCanceled,
		Key:  sub.ID,
		Data: map[string]interface{}{"membershipId": m.ID, "userId": m.UserID, "planId": m.PlanID},
	})
	return nil
}

func (p *Processor) resolvePlan(planID, priceID string) string {
	if p.Plans == nil {
		return strings.ToLower(strings.TrimSpace(planID))
	}
	if info, ok := p.Plans.Lookup(planID); ok && !info.IsFree() {
		return string(info.ID)
	}
	if info, ok := p.Plans.LookupByPriceID(priceID); ok {
		return string(info.ID)
	}
	return ""
}

func isPaid(status string) bool {
	switch status {
	case "paid", "no_payment_required", "":
		return true
	default:
		return false
	}
}
