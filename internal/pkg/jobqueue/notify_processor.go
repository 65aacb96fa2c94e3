package jobqueue

import (
	"context"
	"fmt"
	"html"
	"strings"

	"github.com/gofiber/fiber/v2/log"

	"github.com/fcescuela/clubhouse/internal/pkg/mail"
)

// RegisterMailHandlers wires the purchase email jobs to mailer. officeEmail
// receives refund review notices; those jobs are dropped when it is empty.
func RegisterMailHandlers(q *Queue, mailer mail.Mailer, officeEmail, publicURL string) {
	publicURL = strings.TrimRight(publicURL, "/")

	q.Handle(JobTypePurchaseConfirmation, func(ctx context.Context, job *Job) error {
		p, err := PurchaseConfirmationPayloadFromMap(job.Payload)
		if err != nil {
			return fmt.Errorf("decode purchase confirmation payload: %w", err)
		}
		if p.Email == "" {
			log.Warnf("[JobQueue] Purchase confirmation %s has no recipient, skipping", p.Reference)
			return nil
		}
		subject, body := purchaseConfirmationMail(p, publicURL)
		return mailer.Send(ctx, p.Email, subject, body)
	})

	q.Handle(JobTypeRefundReview, func(ctx context.Context, job *Job) error {
		p, err := RefundReviewPayloadFromMap(job.Payload)
		if err != nil {
			return fmt.Errorf("decode refund review payload: %w", err)
		}
		if officeEmail == "" {
			log.Warnf("[JobQueue] Refund review for session %s not mailed: no office address", p.CheckoutSessionID)
			return nil
		}
		subject, body := refundReviewMail(p)
		return mailer.Send(ctx, officeEmail, subject, body)
	})
}

func purchaseConfirmationMail(p *PurchaseConfirmationPayload, publicURL string) (string, string) {
	name := html.EscapeString(p.Name)
	if name == "" {
		name = "supporter"
	}
	if p.Kind == "membership" {
		subject := fmt.Sprintf("Welcome to your %s membership", p.PlanID)
		body := fmt.Sprintf("<p>Hi %s,</p><p>Your <strong>%s</strong> membership is now active.</p><p><a href=\"%s/orders\">View your orders</a></p>",
			name, html.EscapeString(p.PlanID), publicURL)
		return subject, body
	}
	subject := fmt.Sprintf("Your tickets for %s", p.MatchTitle)
	body := fmt.Sprintf("<p>Hi %s,</p><p>You bought %d %s ticket(s) for <strong>%s</strong> (total %s).</p><p><a href=\"%s/orders\">View your orders</a></p>",
		name, p.Quantity, html.EscapeString(p.Category), html.EscapeString(p.MatchTitle), formatCents(p.AmountCents), publicURL)
	return subject, body
}

func refundReviewMail(p *RefundReviewPayload) (string, string) {
	subject := fmt.Sprintf("Refund needed: %s", p.CheckoutSessionID)
	body := fmt.Sprintf("<p>A paid purchase could not be issued and needs a manual refund.</p><ul><li>Refund request: %d</li><li>Session: %s</li><li>Match: %s (%d)</li><li>User: %d %s</li><li>Quantity: %d</li><li>Reason: %s</li></ul>",
		p.RefundRequestID, html.EscapeString(p.CheckoutSessionID), html.EscapeString(p.MatchTitle), p.MatchID,
		p.UserID, html.EscapeString(p.Email), p.Quantity, html.EscapeString(p.Reason))
	return subject, body
}

func formatCents(c int64) string {
	return fmt.Sprintf("%d.%02d", c/100, c%100)
}
