package checkout

import (
	"strings"

	"github.com/fcescuela/clubhouse/app/models"
	"github.com/fcescuela/clubhouse/internal/pkg/env"
)

const (
	defaultBasePriceCents = 3000
	defaultCurrency       = "usd"
)

// Config holds the processor price references and redirect targets.
type Config struct {
	// TicketPriceIDs maps each category to a pre-provisioned processor price.
	TicketPriceIDs map[models.TicketCategory]string
	// BasePriceCents is the standard ticket price for the direct payment flow.
	BasePriceCents int64
	Currency       string
	PublicURL      string
}

// ConfigFromEnv reads checkout settings from the environment.
func ConfigFromEnv() Config {
	return Config{
		TicketPriceIDs: map[models.TicketCategory]string{
			models.TicketCategoryStandard: env.GetEnv("STRIPE_PRICE_TICKET_STANDARD", ""),
			models.TicketCategoryPremium:  env.GetEnv("STRIPE_PRICE_TICKET_PREMIUM", ""),
			models.TicketCategoryVIP:      env.GetEnv("STRIPE_PRICE_TICKET_VIP", ""),
		},
		BasePriceCents: env.GetEnvInt64("TICKET_BASE_PRICE_CENTS", defaultBasePriceCents),
		Currency:       env.GetEnv("TICKET_CURRENCY", defaultCurrency),
		PublicURL:      env.GetEnv("PUBLIC_DOMAIN", "http://localhost:8080"),
	}
}

func (c Config) withDefaults() Config {
	if c.BasePriceCents <= 0 {
		c.BasePriceCents = defaultBasePriceCents
	}
	if strings.TrimSpace(c.Currency) == "" {
		c.Currency = defaultCurrency
	}
	c.PublicURL = strings.TrimRight(strings.TrimSpace(c.PublicURL), "/")
	return c
}

func (c Config) ticketSuccessURL() string {
	return c.PublicURL + "/tickets/confirmation?session_id={CHECKOUT_SESSION_ID}"
}

func (c Config) ticketCancelURL() string {
	return c.PublicURL + "/tickets"
}

func (c Config) membershipSuccessURL() string {
	return c.PublicURL + "/orders?success=1"
}

func (c Config) membershipCancelURL() string {
	return c.PublicURL + "/membership?canceled=1"
}
