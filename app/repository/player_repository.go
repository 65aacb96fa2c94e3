package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/fcescuela/clubhouse/app/models"
)

type playerRepository struct {
	db *gorm.DB
}

// NewPlayerRepository creates a new roster repository instance
func NewPlayerRepository(db *gorm.DB) PlayerRepository {
	return &playerRepository{db: db}
}

// List returns the roster in display order, captain first within a position.
func (r *playerRepository) List(ctx context.Context) ([]models.Player, error) {
	var players []models.Player
	err := r.db.WithContext(ctx).Order("position ASC, captain DESC, id ASC").Find(&players).Error
	return players, err
}
