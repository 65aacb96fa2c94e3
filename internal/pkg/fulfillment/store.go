package fulfillment

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/fcescuela/clubhouse/app/models"
	"github.com/fcescuela/clubhouse/app/repository"
)

var (
	ErrUserNotFound = errors.New("purchasing user not found")
	// ErrOutcomeUnresolved means a commit left neither a ticket nor a refund
	// request behind. The delivery is failed so the processor retries it.
	ErrOutcomeUnresolved = errors.New("commit produced no outcome")
)

// Refund reasons recorded on a RefundRequest.
const (
	ReasonOverCapacity = "insufficient capacity at fulfillment"
	ReasonMatchMissing = "match no longer exists"
)

// TicketCommit is a confirmed one-off purchase.
type TicketCommit struct {
	SessionID   string
	MatchID     uint
	UserID      uint
	Quantity    int
	Category    models.TicketCategory
	AmountTotal int64
	PurchasedAt time.Time
	Profile     models.ProfileUpdate
}

// CommitResult reports what the commit left in the store. Exactly one of
// Ticket and Refund is set.
type CommitResult struct {
	Ticket *models.Ticket
	Refund *models.RefundRequest
	Match  *models.Match
	User   *models.User
	// Created is false when the session had already been fulfilled.
	Created bool
}

// TicketStore commits ticket purchases.
type TicketStore interface {
	CommitTicket(ctx context.Context, c TicketCommit) (*CommitResult, error)
}

type gormTicketStore struct {
	db *gorm.DB
}

// NewTicketStore creates the GORM-backed ticket store.
func NewTicketStore(db *gorm.DB) TicketStore {
	return &gormTicketStore{db: db}
}

// CommitTicket inserts the ticket keyed by its checkout session, once. The
// match row is locked and occupancy re-checked inside the transaction; a
// purchase that no longer fits is recorded as a RefundRequest instead.
//
// The match lock must be the first statement. Under MySQL REPEATABLE READ the
// first plain read fixes the snapshot, so any read before the lock would hide
// tickets committed by the delivery that held it.
func (s *gormTicketStore) CommitTicket(ctx context.Context, c TicketCommit) (*CommitResult, error) {
	res := &CommitResult{}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var match models.Match
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&match, c.MatchID).Error
		matchMissing := errors.Is(err, gorm.ErrRecordNotFound)
		if err != nil && !matchMissing {
			return err
		}
		if !matchMissing {
			res.Match = &match
		}

		var user models.User
		if err := tx.First(&user, c.UserID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("%w: %d", ErrUserNotFound, c.UserID)
			}
			return err
		}
		res.User = &user

		if done, err := s.findPrior(tx, c.SessionID, res); err != nil || done {
			return err
		}

		if matchMissing {
			return s.flagRefund(tx, c, &user, ReasonMatchMissing, res)
		}
		if match.Capacity != nil {
			occupied, err := repository.SumTicketQuantity(tx, match.ID)
			if err != nil {
				return err
			}
			if occupied+c.Quantity > *match.Capacity {
				return s.flagRefund(tx, c, &user, ReasonOverCapacity, res)
			}
		}

		ticket := models.Ticket{
			MatchID:           c.MatchID,
			UserID:            c.UserID,
			Quantity:          c.Quantity,
			Category:          string(c.Category),
			CheckoutSessionID: c.SessionID,
			AmountTotal:       c.AmountTotal,
			PurchasedAt:       c.PurchasedAt.UTC(),
		}
		ins := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "checkout_session_id"}},
			DoNothing: true,
		}).Create(&ticket)
		if ins.Error != nil {
			return ins.Error
		}
		if ins.RowsAffected == 0 {
			// a concurrent delivery of the same session won the insert
			return s.mustFindPrior(tx, c.SessionID, res)
		}
		res.Ticket = &ticket
		res.Created = true

		return syncProfile(tx, &user, c.Profile)
	})
	if err != nil {
		return nil, err
	}
	return res, nil
}

// findPrior loads an earlier outcome for the session into res. Reads lock so
// they see rows committed after the transaction's snapshot was taken.
func (s *gormTicketStore) findPrior(tx *gorm.DB, sessionID string, res *CommitResult) (bool, error) {
	var ticket models.Ticket
	err := tx.Clauses(clause.Locking{Strength: "SHARE"}).Where("checkout_session_id = ?", sessionID).First(&ticket).Error
	if err == nil {
		res.Ticket = &ticket
		return true, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return false, err
	}

	var refund models.RefundRequest
	err = tx.Clauses(clause.Locking{Strength: "SHARE"}).Where("checkout_session_id = ?", sessionID).First(&refund).Error
	if err == nil {
		res.Refund = &refund
		return true, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return false, err
	}
	return false, nil
}

// mustFindPrior is findPrior after a lost insert race, where the winner's row
// has to be there.
func (s *gormTicketStore) mustFindPrior(tx *gorm.DB, sessionID string, res *CommitResult) error {
	done, err := s.findPrior(tx, sessionID, res)
	if err != nil {
		return err
	}
	if !done {
		return fmt.Errorf("%w: session %s", ErrOutcomeUnresolved, sessionID)
	}
	return nil
}

// flagRefund records the paid purchase that could not be honored. The buyer's
// profile is synced either way.
func (s *gormTicketStore) flagRefund(tx *gorm.DB, c TicketCommit, user *models.User, reason string, res *CommitResult) error {
	refund := models.RefundRequest{
		CheckoutSessionID: c.SessionID,
		MatchID:           c.MatchID,
		UserID:            c.UserID,
		Quantity:          c.Quantity,
		Category:          string(c.Category),
		Reason:            reason,
		Status:            models.RefundStatusPending,
	}
	ins := tx.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "checkout_session_id"}},
		DoNothing: true,
	}).Create(&refund)
	if ins.Error != nil {
		return ins.Error
	}
	if ins.RowsAffected == 0 {
		return s.mustFindPrior(tx, c.SessionID, res)
	}
	res.Refund = &refund
	res.Created = true
	return syncProfile(tx, user, c.Profile)
}

func syncProfile(tx *gorm.DB, user *models.User, profile models.ProfileUpdate) error {
	if !profile.Apply(user) {
		return nil
	}
	return tx.Model(&models.User{}).Where("id = ?", user.ID).Updates(map[string]interface{}{
		"name":       user.Name,
		"email":      user.Email,
		"avatar_url": user.AvatarURL,
	}).Error
}
