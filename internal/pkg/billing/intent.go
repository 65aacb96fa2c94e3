package billing

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/fcescuela/clubhouse/app/models"
)

// ErrInvalidMetadata means a confirmed session does not carry a usable
// checkout intent.
var ErrInvalidMetadata = errors.New("invalid checkout metadata")

const (
	IntentTicket     = "ticket"
	IntentMembership = "membership"
)

// SourcePaymentIntent marks intents opened through the direct payment flow,
// so hosted checkout payments are not fulfilled twice.
const SourcePaymentIntent = "payment_intent"

const (
	metaKind     = "kind"
	metaSource   = "source"
	metaUserID   = "userId"
	metaMatchID  = "matchId"
	metaQuantity = "quantity"
	metaCategory = "category"
	metaPlanID   = "planId"
	metaEmail    = "email"
	metaName     = "name"
	metaImage    = "image"
)

// CheckoutIntent is the purchase request carried through the processor as
// session metadata. It is the only state bridging checkout and fulfillment.
type CheckoutIntent struct {
	Kind     string
	Source   string
	UserID   uint
	MatchID  uint
	Quantity int
	Category models.TicketCategory
	PlanID   string
	Email    string
	Name     string
	Image    string
}

// ToMetadata flattens the intent into processor metadata.
func (i CheckoutIntent) ToMetadata() map[string]string {
	md := map[string]string{
		metaKind:   i.Kind,
		metaUserID: strconv.FormatUint(uint64(i.UserID), 10),
	}
	if i.Source != "" {
		md[metaSource] = i.Source
	}
	switch i.Kind {
	case IntentTicket:
		md[metaMatchID] = strconv.FormatUint(uint64(i.MatchID), 10)
		md[metaQuantity] = strconv.Itoa(i.Quantity)
		md[metaCategory] = string(i.Category)
	case IntentMembership:
		md[metaPlanID] = i.PlanID
	}
	if i.Email != "" {
		md[metaEmail] = i.Email
	}
	if i.Name != "" {
		md[metaName] = i.Name
	}
	if i.Image != "" {
		md[metaImage] = i.Image
	}
	return md
}

// Profile returns the user display fields captured at checkout time.
func (i CheckoutIntent) Profile() models.ProfileUpdate {
	return models.ProfileUpdate{Name: i.Name, Email: i.Email, AvatarURL: i.Image}
}

// IntentFromMetadata rebuilds and validates a checkout intent. mode is the
// processor session mode and decides which fields are required.
func IntentFromMetadata(mode string, md map[string]string) (CheckoutIntent, error) {
	in := CheckoutIntent{
		Kind:   strings.TrimSpace(md[metaKind]),
		Source: strings.TrimSpace(md[metaSource]),
		Email:  strings.TrimSpace(md[metaEmail]),
		Name:   strings.TrimSpace(md[metaName]),
		Image:  strings.TrimSpace(md[metaImage]),
	}

	userID, err := strconv.ParseUint(strings.TrimSpace(md[metaUserID]), 10, 64)
	if err != nil || userID == 0 {
		return in, fmt.Errorf("%w: userId %q", ErrInvalidMetadata, md[metaUserID])
	}
	in.UserID = uint(userID)

	if mode == ModeSubscription {
		in.Kind = IntentMembership
		in.PlanID = strings.ToLower(strings.TrimSpace(md[metaPlanID]))
		return in, nil
	}

	in.Kind = IntentTicket
	matchID, err := strconv.ParseUint(strings.TrimSpace(md[metaMatchID]), 10, 64)
	if err != nil || matchID == 0 {
		return in, fmt.Errorf("%w: matchId %q", ErrInvalidMetadata, md[metaMatchID])
	}
	in.MatchID = uint(matchID)

	qty, err := strconv.Atoi(strings.TrimSpace(md[metaQuantity]))
	if err != nil || qty < 1 {
		return in, fmt.Errorf("%w: quantity %q", ErrInvalidMetadata, md[metaQuantity])
	}
	in.Quantity = qty

	cat, ok := models.ParseTicketCategory(md[metaCategory])
	if !ok {
		return in, fmt.Errorf("%w: category %q", ErrInvalidMetadata, md[metaCategory])
	}
	in.Category = cat
	return in, nil
}
