package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/fcescuela/clubhouse/app/models"
)

// matchRepository implements the MatchRepository interface
type matchRepository struct {
	db *gorm.DB
}

// NewMatchRepository creates a new match repository instance
func NewMatchRepository(db *gorm.DB) MatchRepository {
	return &matchRepository{db: db}
}

func (r *matchRepository) Create(ctx context.Context, match *models.Match) error {
	return r.db.WithContext(ctx).Create(match).Error
}

// Update saves every column, including a cleared score or capacity.
func (r *matchRepository) Update(ctx context.Context, match *models.Match) error {
	res := r.db.WithContext(ctx).Model(&models.Match{}).Where("id = ?", match.ID).
		Select("home_team", "away_team", "date", "time", "venue", "competition", "score", "capacity", "updated_at").
		Updates(match)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *matchRepository) GetByID(ctx context.Context, id uint) (*models.Match, error) {
	var match models.Match
	if err := r.db.WithContext(ctx).First(&match, id).Error; err != nil {
		return nil, notFound(err)
	}
	return &match, nil
}

func (r *matchRepository) ListByDate(ctx context.Context) ([]models.Match, error) {
	var matches []models.Match
	err := r.db.WithContext(ctx).Order("date ASC, id ASC").Find(&matches).Error
	return matches, err
}

func (r *matchRepository) ListWithCapacity(ctx context.Context) ([]models.Match, error) {
	var matches []models.Match
	err := r.db.WithContext(ctx).Where("capacity IS NOT NULL").Order("date ASC, id ASC").Find(&matches).Error
	return matches, err
}
