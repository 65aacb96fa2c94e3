package billing

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/client"

	"github.com/fcescuela/clubhouse/internal/pkg/env"
)

// StripeClient implements Processor on top of the Stripe API.
type StripeClient struct {
	api *client.API
}

// NewStripeClient creates a client bound to secretKey. Each client carries
// its own backend so tests and tenants do not share global state.
func NewStripeClient(secretKey string) *StripeClient {
	api := &client.API{}
	api.Init(secretKey, nil)
	return &StripeClient{api: api}
}

func NewStripeClientFromEnv() *StripeClient {
	return NewStripeClient(strings.TrimSpace(env.GetEnv("STRIPE_SECRET_KEY", "")))
}

func (c *StripeClient) CreateCheckoutSession(ctx context.Context, req CheckoutSessionRequest) (*SessionHandle, error) {
	if strings.TrimSpace(req.PriceID) == "" {
		return nil, errors.New("price reference is required")
	}
	quantity := req.Quantity
	if quantity < 1 {
		quantity = 1
	}

	params := &stripe.CheckoutSessionParams{
		Mode:       stripe.String(req.Mode),
		SuccessURL: stripe.String(req.SuccessURL),
		CancelURL:  stripe.String(req.CancelURL),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{
				Price:    stripe.String(req.PriceID),
				Quantity: stripe.Int64(quantity),
			},
		},
	}
	params.Context = ctx
	if req.CustomerEmail != "" {
		params.CustomerEmail = stripe.String(req.CustomerEmail)
	}
	for k, v := range req.Metadata {
		params.AddMetadata(k, v)
	}
	if req.Mode == ModeSubscription {
		params.SubscriptionData = &stripe.CheckoutSessionSubscriptionDataParams{
			Metadata: req.Metadata,
		}
	}

	s, err := c.api.CheckoutSessions.New(params)
	if err != nil {
		return nil, fmt.Errorf("stripe: create checkout session: %w", err)
	}
	return &SessionHandle{ID: s.ID, URL: s.URL}, nil
}

func (c *StripeClient) CreatePaymentIntent(ctx context.Context, req PaymentIntentRequest) (*SessionHandle, error) {
	if req.AmountCents <= 0 {
		return nil, errors.New("amount must be positive")
	}
	params := &stripe.PaymentIntentParams{
		Amount:   stripe.Int64(req.AmountCents),
		Currency: stripe.String(strings.ToLower(req.Currency)),
		AutomaticPaymentMethods: &stripe.PaymentIntentAutomaticPaymentMethodsParams{
			Enabled: stripe.Bool(true),
		},
	}
	params.Context = ctx
	if req.ReceiptEmail != "" {
		params.ReceiptEmail = stripe.String(req.ReceiptEmail)
	}
	if req.Description != "" {
		params.Description = stripe.String(req.Description)
	}
	for k, v := range req.Metadata {
		params.AddMetadata(k, v)
	}

	pi, err := c.api.PaymentIntents.New(params)
	if err != nil {
		return nil, fmt.Errorf("stripe: create payment intent: %w", err)
	}
	return &SessionHandle{ID: pi.ID, ClientSecret: pi.ClientSecret, AmountCents: pi.Amount}, nil
}

func (c *StripeClient) GetSubscription(ctx context.Context, id string) (*Subscription, error) {
	params := &stripe.SubscriptionParams{}
	params.Context = ctx
	sub, err := c.api.Subscriptions.Get(id, params)
	if err != nil {
		return nil, fmt.Errorf("stripe: get subscription %s: %w", id, err)
	}
	return subscriptionFromStripe(sub), nil
}

func (c *StripeClient) GetCustomer(ctx context.Context, id string) (*Customer, error) {
	params := &stripe.CustomerParams{}
	params.Context = ctx
	cust, err := c.api.Customers.Get(id, params)
	if err != nil {
		return nil, fmt.Errorf("stripe: get customer %s: %w", id, err)
	}
	return &Customer{ID: cust.ID, Email: cust.Email, Name: cust.Name}, nil
}
