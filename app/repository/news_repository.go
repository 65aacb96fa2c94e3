package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/fcescuela/clubhouse/app/models"
)

// newsRepository implements the NewsRepository interface
type newsRepository struct {
	db *gorm.DB
}

// NewNewsRepository creates a new news repository instance
func NewNewsRepository(db *gorm.DB) NewsRepository {
	return &newsRepository{db: db}
}

// Create creates a new news article in the database
func (r *newsRepository) Create(ctx context.Context, news *models.News) error {
	return r.db.WithContext(ctx).Create(news).Error
}

// GetBySlug retrieves a published news article by its slug
func (r *newsRepository) GetBySlug(ctx context.Context, slug string) (*models.News, error) {
	var news models.News
	err := r.db.WithContext(ctx).Where("slug = ? AND published = ?", slug, true).First(&news).Error
	if err != nil {
		return nil, notFound(err)
	}
	return &news, nil
}

// GetPublished retrieves published news articles, newest first
func (r *newsRepository) GetPublished(ctx context.Context) ([]models.News, error) {
	var news []models.News
	err := r.db.WithContext(ctx).Where("published = ?", true).
		Order("created_at DESC, id DESC").Find(&news).Error
	return news, err
}

// SlugExists checks if a slug already exists
func (r *newsRepository) SlugExists(ctx context.Context, slug string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Unscoped().Model(&models.News{}).Where("slug = ?", slug).Count(&count).Error
	return count > 0, err
}
