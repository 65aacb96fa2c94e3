package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/fcescuela/clubhouse/app/models"
)

// ticketRepository implements the TicketRepository interface
type ticketRepository struct {
	db *gorm.DB
}

// NewTicketRepository creates a new ticket repository instance
func NewTicketRepository(db *gorm.DB) TicketRepository {
	return &ticketRepository{db: db}
}

// SumQuantityByMatch returns the number of seats issued for a match.
func (r *ticketRepository) SumQuantityByMatch(ctx context.Context, matchID uint) (int, error) {
	return SumTicketQuantity(r.db.WithContext(ctx), matchID)
}

// SumTicketQuantity is shared with transactional callers that hold a row lock.
func SumTicketQuantity(db *gorm.DB, matchID uint) (int, error) {
	var total int64
	err := db.Model(&models.Ticket{}).
		Where("match_id = ?", matchID).
		Select("COALESCE(SUM(quantity), 0)").
		Scan(&total).Error
	return int(total), err
}

func (r *ticketRepository) SoldByMatch(ctx context.Context) (map[uint]int, error) {
	var rows []struct {
		MatchID uint
		Sold    int64
	}
	err := r.db.WithContext(ctx).Model(&models.Ticket{}).
		Select("match_id, COALESCE(SUM(quantity), 0) AS sold").
		Group("match_id").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	out := make(map[uint]int, len(rows))
	for _, row := range rows {
		out[row.MatchID] = int(row.Sold)
	}
	return out, nil
}

func (r *ticketRepository) ListByUser(ctx context.Context, userID uint) ([]models.Ticket, error) {
	var tickets []models.Ticket
	err := r.db.WithContext(ctx).Preload("Match").
		Where("user_id = ?", userID).
		Order("purchased_at DESC, id DESC").
		Find(&tickets).Error
	return tickets, err
}

func (r *ticketRepository) GetBySession(ctx context.Context, sessionID string) (*models.Ticket, error) {
	var ticket models.Ticket
	if err := r.db.WithContext(ctx).Where("checkout_session_id = ?", sessionID).First(&ticket).Error; err != nil {
		return nil, notFound(err)
	}
	return &ticket, nil
}
