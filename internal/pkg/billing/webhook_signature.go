package billing

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/webhook"
)

var (
	// ErrInvalidSignature means the delivery could not be authenticated.
	ErrInvalidSignature = errors.New("invalid webhook signature")
	// ErrMalformedEvent means an authentic delivery could not be decoded.
	ErrMalformedEvent = errors.New("malformed webhook event")
)

// ParseWebhookEvent authenticates payload against the Stripe-Signature header
// and decodes it. payload must be the raw request body.
func ParseWebhookEvent(payload []byte, signatureHeader, secret string) (*Event, error) {
	if strings.TrimSpace(secret) == "" {
		return nil, fmt.Errorf("%w: webhook secret is not configured", ErrInvalidSignature)
	}
	if strings.TrimSpace(signatureHeader) == "" {
		return nil, fmt.Errorf("%w: missing signature header", ErrInvalidSignature)
	}
	if err := webhook.ValidatePayload(payload, signatureHeader, secret); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSignature, err)
	}

	var ev stripe.Event
	if err := json.Unmarshal(payload, &ev); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedEvent, err)
	}
	return decodeEvent(ev)
}

func decodeEvent(ev stripe.Event) (*Event, error) {
	out := &Event{ID: ev.ID, Type: string(ev.Type)}
	if ev.Data == nil {
		return nil, fmt.Errorf("%w: event %s has no data", ErrMalformedEvent, ev.ID)
	}

	switch out.Type {
	case EventCheckoutCompleted:
		var s stripe.CheckoutSession
		if err := json.Unmarshal(ev.Data.Raw, &s); err != nil {
			return nil, fmt.Errorf("%w: checkout session: %v", ErrMalformedEvent, err)
		}
		out.Checkout = checkoutFromStripe(&s)
	case EventPaymentIntentSucceeded:
		var pi stripe.PaymentIntent
		if err := json.Unmarshal(ev.Data.Raw, &pi); err != nil {
			return nil, fmt.Errorf("%w: payment intent: %v", ErrMalformedEvent, err)
		}
		out.PaymentIntent = &PaymentIntent{
			ID:          pi.ID,
			Status:      string(pi.Status),
			AmountCents: pi.Amount,
			Metadata:    pi.Metadata,
		}
	case EventSubscriptionDeleted:
		var sub stripe.Subscription
		if err := json.Unmarshal(ev.Data.Raw, &sub); err != nil {
			return nil, fmt.Errorf("%w: subscription: %v", ErrMalformedEvent, err)
		}
		out.Subscription = subscriptionFromStripe(&sub)
	}
	return out, nil
}

func checkoutFromStripe(s *stripe.CheckoutSession) *CheckoutSession {
	out := &CheckoutSession{
		ID:            s.ID,
		Mode:          string(s.Mode),
		PaymentStatus: string(s.PaymentStatus),
		CustomerEmail: s.CustomerEmail,
		AmountTotal:   s.AmountTotal,
		Metadata:      s.Metadata,
	}
	if s.Customer != nil {
		out.CustomerID = s.Customer.ID
	}
	if s.Subscription != nil {
		out.SubscriptionID = s.Subscription.ID
	}
	if s.CustomerDetails != nil {
		if s.CustomerDetails.Email != "" {
			out.CustomerEmail = s.CustomerDetails.Email
		}
		out.CustomerName = s.CustomerDetails.Name
	}
	return out
}

func subscriptionFromStripe(sub *stripe.Subscription) *Subscription {
	out := &Subscription{
		ID:                 sub.ID,
		Status:             string(sub.Status),
		CurrentPeriodStart: unixUTC(sub.CurrentPeriodStart),
		CurrentPeriodEnd:   unixUTC(sub.CurrentPeriodEnd),
		Metadata:           sub.Metadata,
	}
	if sub.Customer != nil {
		out.CustomerID = sub.Customer.ID
	}
	if sub.Items != nil {
		for _, item := range sub.Items.Data {
			if item != nil && item.Price != nil {
				out.PriceID = item.Price.ID
				break
			}
		}
	}
	return out
}

func unixUTC(sec int64) time.Time {
	if sec == 0 {
		return time.Time{}
	}
	return time.Unix(sec, 0).UTC()
}
