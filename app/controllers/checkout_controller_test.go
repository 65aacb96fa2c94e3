package controllers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fcescuela/clubhouse/app/models"
	"github.com/fcescuela/clubhouse/internal/pkg/billing"
	"github.com/fcescuela/clubhouse/internal/pkg/checkout"
	"github.com/fcescuela/clubhouse/internal/pkg/fulfillment"
	"github.com/fcescuela/clubhouse/internal/pkg/usercontext"
)

type fakeInitiator struct {
	err      error
	gotUser  *models.User
	gotMatch uint
	gotQty   int
	gotCat   string
	gotPlan  string
}

func (f *fakeInitiator) InitiateTicketCheckout(_ context.Context, u *models.User, matchID uint, qty int, cat string) (*billing.SessionHandle, error) {
	f.gotUser, f.gotMatch, f.gotQty, f.gotCat = u, matchID, qty, cat
	if f.err != nil {
		return nil, f.err
	}
	return &billing.SessionHandle{ID: "cs_1", URL: "https://checkout.example/cs_1"}, nil
}

func (f *fakeInitiator) InitiateTicketPaymentIntent(_ context.Context, u *models.User, matchID uint, qty int, cat string) (*billing.SessionHandle, error) {
	f.gotUser, f.gotMatch, f.gotQty, f.gotCat = u, matchID, qty, cat
	if f.err != nil {
		return nil, f.err
	}
	return &billing.SessionHandle{ID: "pi_1", ClientSecret: "pi_1_secret", AmountCents: 9000}, nil
}

func (f *fakeInitiator) InitiateMembershipCheckout(_ context.Context, u *models.User, plan string) (*billing.SessionHandle, error) {
	f.gotUser, f.gotPlan = u, plan
	if f.err != nil {
		return nil, f.err
	}
	return &billing.SessionHandle{ID: "cs_sub", URL: "https://checkout.example/cs_sub"}, nil
}

func withUser(u *models.User) fiber.Handler {
	return func(c *fiber.Ctx) error {
		usercontext.Set(c, usercontext.FromUser(u), u)
		return c.Next()
	}
}

func postJSON(t *testing.T, app *fiber.App, path, body string) (int, map[string]interface{}) {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req)
	require.NoError(t, err)
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	out := map[string]interface{}{}
	if len(raw) > 0 {
		require.NoError(t, json.Unmarshal(raw, &out), string(raw))
	}
	return resp.StatusCode, out
}

func checkoutApp(app *fiber.App, fi *fakeInitiator, user *models.User) *fiber.App {
	cc := NewCheckoutController(fi)
	app.Use(withUser(user))
	app.Post("/tickets", cc.HandleTicketCheckout)
	app.Post("/payment-intent", cc.HandleTicketPaymentIntent)
	app.Post("/membership", cc.HandleMembershipCheckout)
	return app
}

func TestCheckoutController_Success(t *testing.T) {
	user := &models.User{ID: 7, Email: "fan@example.com"}
	fi := &fakeInitiator{}
	app := checkoutApp(fiber.New(), fi, user)

	status, body := postJSON(t, app, "/tickets", `{"matchId":3,"quantity":2,"category":"vip"}`)
	assert.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, "cs_1", body["sessionId"])
	assert.Equal(t, "https://checkout.example/cs_1", body["url"])
	assert.Equal(t, user, fi.gotUser)
	assert.Equal(t, uint(3), fi.gotMatch)
	assert.Equal(t, 2, fi.gotQty)
	assert.Equal(t, "vip", fi.gotCat)

	status, body = postJSON(t, app, "/payment-intent", `{"matchId":3,"quantity":2,"category":"premium"}`)
	assert.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, "pi_1_secret", body["clientSecret"])
	assert.Equal(t, float64(9000), body["amount"])

	status, body = postJSON(t, app, "/membership", `{"planId":"vip"}`)
	assert.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, "https://checkout.example/cs_sub", body["url"])
	assert.Equal(t, "vip", fi.gotPlan)
}

func TestCheckoutController_ErrorMapping(t *testing.T) {
	tests := []struct {
		err    error
		status int
		code   string
	}{
		{checkout.ErrMatchNotFound, fiber.StatusNotFound, "not_found"},
		{fmt.Errorf("%w: gold", checkout.ErrInvalidCategory), fiber.StatusBadRequest, "invalid_category"},
		{checkout.ErrInvalidQuantity, fiber.StatusBadRequest, "invalid_quantity"},
		{checkout.ErrInsufficientCapacity, fiber.StatusConflict, "insufficient_capacity"},
		{checkout.ErrInvalidOrFreePlan, fiber.StatusBadRequest, "invalid_or_free_plan"},
		{errors.New("stripe down"), fiber.StatusInternalServerError, "checkout_failed"},
	}
	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			app := checkoutApp(fiber.New(), &fakeInitiator{err: tt.err}, &models.User{ID: 1})
			status, body := postJSON(t, app, "/tickets", `{"matchId":1,"quantity":1,"category":"standard"}`)
			assert.Equal(t, tt.status, status)
			assert.Equal(t, tt.code, body["error"])
		})
	}
}

func TestCheckoutController_BadBody(t *testing.T) {
	app := checkoutApp(fiber.New(), &fakeInitiator{}, &models.User{ID: 1})

	status, _ := postJSON(t, app, "/tickets", `{"matchId":`)
	assert.Equal(t, fiber.StatusBadRequest, status)

	status, body := postJSON(t, app, "/tickets", `{"quantity":1}`)
	assert.Equal(t, fiber.StatusBadRequest, status)
	assert.Equal(t, "invalid_request", body["error"])
}

type fakeCallbacks struct {
	err     error
	payload []byte
	sig     string
}

func (f *fakeCallbacks) HandlePaymentCallback(_ context.Context, raw []byte, sig string) (fulfillment.Outcome, error) {
	f.payload, f.sig = raw, sig
	return fulfillment.Outcome{Action: fulfillment.ActionTicketIssued}, f.err
}

type countingRecorder struct{ names []string }

func (r *countingRecorder) Add(_ context.Context, name string) { r.names = append(r.names, name) }

func TestWebhookController_StatusCodes(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		status  int
		counted string
	}{
		{"processed", nil, fiber.StatusOK, "webhook_ticket_issued"},
		{"bad signature", fmt.Errorf("%w: mismatch", fulfillment.ErrInvalidSignature), fiber.StatusBadRequest, "webhook_rejected"},
		{"malformed", fulfillment.ErrMalformedEvent, fiber.StatusBadRequest, "webhook_malformed"},
		{"processing failure", errors.New("db down"), fiber.StatusInternalServerError, "webhook_failed"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fc := &fakeCallbacks{err: tt.err}
			counts := &countingRecorder{}
			app := fiber.New()
			app.Post("/webhook", NewWebhookController(fc).WithCounter(counts).HandleStripeWebhook)

			req := httptest.NewRequest(http.MethodPost, "/webhook", strings.NewReader(`{"id":"evt_1"}`))
			req.Header.Set("Stripe-Signature", "t=1,v1=abc")
			resp, err := app.Test(req)
			require.NoError(t, err)
			assert.Equal(t, tt.status, resp.StatusCode)
			assert.Equal(t, `{"id":"evt_1"}`, string(fc.payload), "raw body is passed through untouched")
			assert.Equal(t, "t=1,v1=abc", fc.sig)
			assert.Equal(t, []string{tt.counted}, counts.names)
		})
	}
}
