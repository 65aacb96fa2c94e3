// Package billingtest provides a fake payment processor and webhook signing
// for tests.
package billingtest

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sync"
	"time"

	"github.com/fcescuela/clubhouse/internal/pkg/billing"
)

// SignatureHeader builds a Stripe-Signature header for payload signed at ts.
func SignatureHeader(payload []byte, secret string, ts time.Time) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(fmt.Sprintf("%d.%s", ts.Unix(), payload)))
	return fmt.Sprintf("t=%d,v1=%s", ts.Unix(), hex.EncodeToString(mac.Sum(nil)))
}

// Processor is an in-memory billing.Processor that records its calls.
type Processor struct {
	mu sync.Mutex

	CheckoutRequests      []billing.CheckoutSessionRequest
	PaymentIntentRequests []billing.PaymentIntentRequest

	Subscriptions map[string]*billing.Subscription
	Customers     map[string]*billing.Customer

	// Err, when set, is returned by every call.
	Err error
}

func NewProcessor() *Processor {
	return &Processor{
		Subscriptions: make(map[string]*billing.Subscription),
		Customers:     make(map[string]*billing.Customer),
	}
}

func (p *Processor) CreateCheckoutSession(_ context.Context, req billing.CheckoutSessionRequest) (*billing.SessionHandle, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.Err != nil {
		return nil, p.Err
	}
	p.CheckoutRequests = append(p.CheckoutRequests, req)
	id := fmt.Sprintf("cs_test_%d", len(p.CheckoutRequests))
	return &billing.SessionHandle{ID: id, URL: "https://checkout.example/" + id}, nil
}

func (p *Processor) CreatePaymentIntent(_ context.Context, req billing.PaymentIntentRequest) (*billing.SessionHandle, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.Err != nil {
		return nil, p.Err
	}
	p.PaymentIntentRequests = append(p.PaymentIntentRequests, req)
	id := fmt.Sprintf("pi_test_%d", len(p.PaymentIntentRequests))
	return &billing.SessionHandle{ID: id, ClientSecret: id + "_secret", AmountCents: req.AmountCents}, nil
}

func (p *Processor) GetSubscription(_ context.Context, id string) (*billing.Subscription, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.Err != nil {
		return nil, p.Err
	}
	sub, ok := p.Subscriptions[id]
	if !ok {
		return nil, fmt.Errorf("subscription %s not found", id)
	}
	cp := *sub
	return &cp, nil
}

func (p *Processor) GetCustomer(_ context.Context, id string) (*billing.Customer, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.Err != nil {
		return nil, p.Err
	}
	c, ok := p.Customers[id]
	if !ok {
		return nil, fmt.Errorf("customer %s not found", id)
	}
	cp := *c
	return &cp, nil
}

// CheckoutCalls returns the number of hosted checkout sessions opened.
func (p *Processor) CheckoutCalls() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.CheckoutRequests)
}

var _ billing.Processor = (*Processor)(nil)
