package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/fcescuela/clubhouse/app/models"
)

type refundRepository struct {
	db *gorm.DB
}

// NewRefundRepository creates a new refund request repository instance
func NewRefundRepository(db *gorm.DB) RefundRepository {
	return &refundRepository{db: db}
}

func (r *refundRepository) ListPending(ctx context.Context) ([]models.RefundRequest, error) {
	var list []models.RefundRequest
	err := r.db.WithContext(ctx).Where("status = ?", models.RefundStatusPending).Order("created_at ASC").Find(&list).Error
	return list, err
}

// Resolve moves a pending request to resolved. Unknown and already resolved
// ids both report ErrNotFound.
func (r *refundRepository) Resolve(ctx context.Context, id uint) error {
	res := r.db.WithContext(ctx).Model(&models.RefundRequest{}).
		Where("id = ? AND status = ?", id, models.RefundStatusPending).
		Update("status", models.RefundStatusResolved)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
