package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/fcescuela/clubhouse/app/models"
)

// ErrNotFound is returned when a lookup matches no row.
var ErrNotFound = errors.New("record not found")

// MatchRepository defines the interface for fixture operations
type MatchRepository interface {
	Create(ctx context.Context, match *models.Match) error
	Update(ctx context.Context, match *models.Match) error
	GetByID(ctx context.Context, id uint) (*models.Match, error)
	// ListByDate returns every match ordered by date ascending.
	ListByDate(ctx context.Context) ([]models.Match, error)
	ListWithCapacity(ctx context.Context) ([]models.Match, error)
}

// TicketRepository defines the interface for issued ticket reads
type TicketRepository interface {
	SumQuantityByMatch(ctx context.Context, matchID uint) (int, error)
	SoldByMatch(ctx context.Context) (map[uint]int, error)
	ListByUser(ctx context.Context, userID uint) ([]models.Ticket, error)
	GetBySession(ctx context.Context, sessionID string) (*models.Ticket, error)
}

// RefundRepository defines the interface for flagged purchases
type RefundRepository interface {
	ListPending(ctx context.Context) ([]models.RefundRequest, error)
	Resolve(ctx context.Context, id uint) error
}

// UserRepository defines the interface for user-related database operations
type UserRepository interface {
	Create(ctx context.Context, user *models.User) error
	GetByID(ctx context.Context, id uint) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
}

// NewsRepository defines the interface for news-related operations
type NewsRepository interface {
	Create(ctx context.Context, news *models.News) error
	GetBySlug(ctx context.Context, slug string) (*models.News, error)
	GetPublished(ctx context.Context) ([]models.News, error)
	SlugExists(ctx context.Context, slug string) (bool, error)
}

// PlayerRepository defines the interface for the roster
type PlayerRepository interface {
	List(ctx context.Context) ([]models.Player, error)
}

// Repositories struct holds all repository instances
type Repositories struct {
	Match  MatchRepository
	Ticket TicketRepository
	Refund RefundRepository
	User   UserRepository
	News   NewsRepository
	Player PlayerRepository
}

// NewRepositories creates a new instance of all repositories
func NewRepositories(db *gorm.DB) *Repositories {
	return &Repositories{
		Match:  NewMatchRepository(db),
		Ticket: NewTicketRepository(db),
		Refund: NewRefundRepository(db),
		User:   NewUserRepository(db),
		News:   NewNewsRepository(db),
		Player: NewPlayerRepository(db),
	}
}

func notFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return err
}
