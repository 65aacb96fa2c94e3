package fulfillment

import (
	"context"

	"github.com/gofiber/fiber/v2/log"

	"github.com/fcescuela/clubhouse/app/models"
	"github.com/fcescuela/clubhouse/internal/pkg/billing"
	"github.com/fcescuela/clubhouse/internal/pkg/events"
	"github.com/fcescuela/clubhouse/internal/pkg/jobqueue"
)

// Follow-ups run after commit. Their failures are logged and never change
// the callback outcome.

func (p *Processor) afterTicketIssued(ctx context.Context, res *CommitResult, intent billing.CheckoutIntent) {
	t := res.Ticket
	title := ""
	if res.Match != nil {
		title = res.Match.Title()
	}
	p.publish(ctx, events.Event{
		Type: events.TypeTicketPurchased,
		Key:  t.CheckoutSessionID,
		Data: map[string]interface{}{
			"ticketId": t.ID, "matchId": t.MatchID, "userId": t.UserID,
			"quantity": t.Quantity, "category": t.Category, "amount": t.AmountTotal,
		},
	})
	if p.Notifier == nil {
		return
	}
	err := p.Notifier.EnqueuePurchaseConfirmation(ctx, jobqueue.PurchaseConfirmationPayload{
		Kind:        billing.IntentTicket,
		Reference:   t.CheckoutSessionID,
		UserID:      t.UserID,
		Email:       recipient(res.User, intent),
		Name:        intent.Name,
		MatchTitle:  title,
		Quantity:    t.Quantity,
		Category:    t.Category,
		AmountCents: t.AmountTotal,
	})
	if err != nil {
		log.Errorf("[Fulfillment] Could not queue confirmation for %s: %v", t.CheckoutSessionID, err)
	}
}

func (p *Processor) afterRefundFlagged(ctx context.Context, res *CommitResult, intent billing.CheckoutIntent) {
	r := res.Refund
	title := ""
	if res.Match != nil {
		title = res.Match.Title()
	}
	p.publish(ctx, events.Event{
		Type: events.TypeRefundFlagged,
		Key:  r.CheckoutSessionID,
		Data: map[string]interface{}{
			"refundRequestId": r.ID, "matchId": r.MatchID, "userId": r.UserID,
			"quantity": r.Quantity, "reason": r.Reason,
		},
	})
	if p.Notifier == nil {
		return
	}
	err := p.Notifier.EnqueueRefundReview(ctx, jobqueue.RefundReviewPayload{
		RefundRequestID:   r.ID,
		CheckoutSessionID: r.CheckoutSessionID,
		MatchID:           r.MatchID,
		MatchTitle:        title,
		UserID:            r.UserID,
		Email:             recipient(res.User, intent),
		Quantity:          r.Quantity,
		Reason:            r.Reason,
	})
	if err != nil {
		log.Errorf("[Fulfillment] Could not queue refund review for %s: %v", r.CheckoutSessionID, err)
	}
}

func (p *Processor) afterMembershipActivated(ctx context.Context, m *models.Membership, intent billing.CheckoutIntent) {
	p.publish(ctx, events.Event{
		Type: events.TypeMembershipActivated,
		Key:  m.StripeSubscriptionID,
		Data: map[string]interface{}{
			"membershipId": m.ID, "userId": m.UserID, "planId": m.PlanID, "endDate": m.EndDate,
		},
	})
	if p.Notifier == nil || intent.Email == "" {
		return
	}
	err := p.Notifier.EnqueuePurchaseConfirmation(ctx, jobqueue.PurchaseConfirmationPayload{
		Kind:      billing.IntentMembership,
		Reference: m.StripeSubscriptionID,
		UserID:    m.UserID,
		Email:     intent.Email,
		Name:      intent.Name,
		PlanID:    m.PlanID,
	})
	if err != nil {
		log.Errorf("[Fulfillment] Could not queue membership confirmation for %s: %v", m.StripeSubscriptionID, err)
	}
}

func (p *Processor) publish(ctx context.Context, evt events.Event) {
	evt.OccurredAt = p.Now().UTC()
	if err := p.Events.Publish(ctx, evt); err != nil {
		log.Warnf("[Fulfillment] Event %s for %s not published: %v", evt.Type, evt.Key, err)
	}
}

func recipient(u *models.User, intent billing.CheckoutIntent) string {
	if intent.Email != "" {
		return intent.Email
	}
	if u != nil {
		return u.Email
	}
	return ""
}
