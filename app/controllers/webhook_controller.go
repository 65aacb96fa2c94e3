package controllers

import (
	"context"
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/fcescuela/clubhouse/internal/pkg/fulfillment"
)

// CallbackHandler applies authenticated payment processor callbacks.
type CallbackHandler interface {
	HandlePaymentCallback(ctx context.Context, rawPayload []byte, signatureHeader string) (fulfillment.Outcome, error)
}

// EventCounter records webhook outcomes.
type EventCounter interface {
	Add(ctx context.Context, name string)
}

type WebhookController struct {
	handler CallbackHandler
	counter EventCounter
}

func NewWebhookController(handler CallbackHandler) *WebhookController {
	return &WebhookController{handler: handler}
}

// WithCounter makes the controller count every delivery by result.
func (wc *WebhookController) WithCounter(counter EventCounter) *WebhookController {
	wc.counter = counter
	return wc
}

func (wc *WebhookController) count(c *fiber.Ctx, name string) {
	if wc.counter != nil {
		wc.counter.Add(c.UserContext(), "webhook_"+name)
	}
}

// HandleStripeWebhook answers 200 for processed or ignored deliveries, 400 for
// deliveries that fail authentication or decoding, and 500 so the processor
// redelivers after a processing failure.
func (wc *WebhookController) HandleStripeWebhook(c *fiber.Ctx) error {
	rawBody := append([]byte(nil), c.BodyRaw()...)
	signature := c.Get("Stripe-Signature")

	out, err := wc.handler.HandlePaymentCallback(c.UserContext(), rawBody, signature)
	switch {
	case err == nil:
		wc.count(c, string(out.Action))
		return c.JSON(fiber.Map{"received": true, "action": out.Action})
	case errors.Is(err, fulfillment.ErrInvalidSignature):
		wc.count(c, "rejected")
		return jsonError(c, fiber.StatusBadRequest, "invalid_signature", "Webhook signature verification failed")
	case errors.Is(err, fulfillment.ErrMalformedEvent):
		wc.count(c, "malformed")
		return jsonError(c, fiber.StatusBadRequest, "malformed_event", "Webhook payload could not be decoded")
	default:
		wc.count(c, "failed")
		return jsonError(c, fiber.StatusInternalServerError, "processing_failed", "Webhook processing failed")
	}
}
