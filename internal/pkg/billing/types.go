package billing

import "time"

// Checkout session modes as reported by the payment processor.
const (
	ModePayment      = "payment"
	ModeSubscription = "subscription"
)

// Event types the fulfillment pipeline reacts to.
const (
	EventCheckoutCompleted      = "checkout.session.completed"
	EventPaymentIntentSucceeded = "payment_intent.succeeded"
	EventSubscriptionDeleted    = "customer.subscription.deleted"
)

// SessionHandle is what a client needs to continue a purchase with the
// processor. It never contains a local purchase id.
type SessionHandle struct {
	ID           string `json:"sessionId,omitempty"`
	URL          string `json:"url,omitempty"`
	ClientSecret string `json:"clientSecret,omitempty"`
	AmountCents  int64  `json:"amount,omitempty"`
}

// CheckoutSessionRequest opens a hosted checkout for a pre-provisioned price.
type CheckoutSessionRequest struct {
	Mode          string
	PriceID       string
	Quantity      int64
	CustomerEmail string
	SuccessURL    string
	CancelURL     string
	Metadata      map[string]string
}

// PaymentIntentRequest opens a direct payment for a locally computed amount.
type PaymentIntentRequest struct {
	AmountCents  int64
	Currency     string
	ReceiptEmail string
	Description  string
	Metadata     map[string]string
}

// Event is the provider-neutral shape of a verified webhook delivery.
// Exactly one of the payload pointers is set for the event types above.
type Event struct {
	ID            string
	Type          string
	Checkout      *CheckoutSession
	PaymentIntent *PaymentIntent
	Subscription  *Subscription
}

type CheckoutSession struct {
	ID             string
	Mode           string
	PaymentStatus  string
	CustomerID     string
	SubscriptionID string
	CustomerEmail  string
	CustomerName   string
	AmountTotal    int64
	Metadata       map[string]string
}

type PaymentIntent struct {
	ID          string
	Status      string
	AmountCents int64
	Metadata    map[string]string
}

type Subscription struct {
	ID                 string
	CustomerID         string
	Status             string
	PriceID            string
	CurrentPeriodStart time.Time
	CurrentPeriodEnd   time.Time
	Metadata           map[string]string
}

type Customer struct {
	ID    string
	Email string
	Name  string
}
