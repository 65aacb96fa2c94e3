package membership

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/fcescuela/clubhouse/app/models"
)

var (
	ErrNotFound     = errors.New("membership not found")
	ErrUserNotFound = errors.New("user not found")
)

// Repository provides DB operations used by the membership service.
type Repository interface {
	Activate(ctx context.Context, m *models.Membership, profile models.ProfileUpdate) error
	Cancel(ctx context.Context, subscriptionID string, at time.Time) (*models.Membership, error)
	FindActiveForUser(ctx context.Context, userID uint) (*models.Membership, error)
	ListByUser(ctx context.Context, userID uint) ([]models.Membership, error)
}

type gormRepository struct {
	db *gorm.DB
}

// NewRepository creates a membership repository backed by GORM.
func NewRepository(db *gorm.DB) Repository {
	return &gormRepository{db: db}
}

// Activate upserts the history row keyed by the external subscription id and
// points the user at it, in one transaction. A canceled row is never revived.
func (r *gormRepository) Activate(ctx context.Context, m *models.Membership, profile models.ProfileUpdate) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var user models.User
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&user, m.UserID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("%w: %d", ErrUserNotFound, m.UserID)
			}
			return err
		}

		var existing models.Membership
		err := tx.Where("stripe_subscription_id = ?", m.StripeSubscriptionID).First(&existing).Error
		switch {
		case err == nil:
			if !CanTransition(Status(existing.Status), StatusActive) {
				*m = existing
				return nil
			}
		case errors.Is(err, gorm.ErrRecordNotFound):
		default:
			return err
		}

		if err := tx.Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "stripe_subscription_id"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"user_id",
				"plan_id",
				"stripe_customer_id",
				"status",
				"start_date",
				"end_date",
				"updated_at",
			}),
		}).Create(m).Error; err != nil {
			return err
		}
		// Ensure ID is populated after upsert.
		if err := tx.Where("stripe_subscription_id = ?", m.StripeSubscriptionID).First(m).Error; err != nil {
			return err
		}

		// the previous active row is replaced, not stacked
		if user.ActiveMembershipID != nil && *user.ActiveMembershipID != m.ID {
			if err := tx.Model(&models.Membership{}).
				Where("id = ? AND status = ?", *user.ActiveMembershipID, models.MembershipStatusActive).
				Updates(map[string]interface{}{
					"status":      models.MembershipStatusCanceled,
					"canceled_at": m.StartDate,
				}).Error; err != nil {
				return err
			}
		}

		profile.Apply(&user)
		memberSince := user.MemberSince
		if memberSince == nil {
			start := m.StartDate
			memberSince = &start
		}
		return tx.Model(&models.User{}).Where("id = ?", user.ID).Updates(map[string]interface{}{
			"name":                 user.Name,
			"email":                user.Email,
			"avatar_url":           user.AvatarURL,
			"is_member":            true,
			"membership_type":      m.PlanID,
			"member_since":         memberSince,
			"active_membership_id": m.ID,
		}).Error
	})
}

func (r *gormRepository) Cancel(ctx context.Context, subscriptionID string, at time.Time) (*models.Membership, error) {
	var m models.Membership
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("stripe_subscription_id = ?", subscriptionID).First(&m).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("%w: subscription %s", ErrNotFound, subscriptionID)
			}
			return err
		}
		if Status(m.Status) == StatusCanceled {
			return nil
		}
		if _, err := Transition(Status(m.Status), StatusCanceled); err != nil {
			return err
		}

		m.Status = models.MembershipStatusCanceled
		m.CanceledAt = &at
		if err := tx.Model(&m).Updates(map[string]interface{}{
			"status":      m.Status,
			"canceled_at": m.CanceledAt,
		}).Error; err != nil {
			return err
		}

		return tx.Model(&models.User{}).
			Where("id = ? AND active_membership_id = ?", m.UserID, m.ID).
			Updates(map[string]interface{}{
				"active_membership_id": nil,
				"is_member":            false,
				"membership_type":      "",
			}).Error
	})
	if err != nil {
		return nil, err
	}
	return &m, nil
}

func (r *gormRepository) FindActiveForUser(ctx context.Context, userID uint) (*models.Membership, error) {
	var user models.User
	if err := r.db.WithContext(ctx).Select("id", "active_membership_id").First(&user, userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	if user.ActiveMembershipID == nil {
		return nil, ErrNotFound
	}
	var m models.Membership
	if err := r.db.WithContext(ctx).First(&m, *user.ActiveMembershipID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &m, nil
}

func (r *gormRepository) ListByUser(ctx context.Context, userID uint) ([]models.Membership, error) {
	var list []models.Membership
	err := r.db.WithContext(ctx).Where("user_id = ?", userID).Order("created_at DESC, id DESC").Find(&list).Error
	return list, err
}
