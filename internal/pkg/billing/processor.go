package billing

import "context"

// Processor is the subset of the payment processor used by checkout and
// fulfillment. Implementations must be safe for concurrent use.
type Processor interface {
	CreateCheckoutSession(ctx context.Context, req CheckoutSessionRequest) (*SessionHandle, error)
	CreatePaymentIntent(ctx context.Context, req PaymentIntentRequest) (*SessionHandle, error)
	GetSubscription(ctx context.Context, id string) (*Subscription, error)
	GetCustomer(ctx context.Context, id string) (*Customer, error)
}
