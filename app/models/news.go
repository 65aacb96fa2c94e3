package models

import (
	"strings"
	"time"
	"unicode/utf8"

	"github.com/go-playground/validator/v10"
	"gorm.io/gorm"
)

// LeadLength caps the summary derived from an article body.
const LeadLength = 280

// News is a club article. Only published rows are served by the public API.
type News struct {
	ID         uint64         `gorm:"primaryKey" json:"id"`
	Slug       string         `gorm:"uniqueIndex;type:varchar(255)" json:"slug" validate:"required,min=3,max=255"`
	Title      string         `gorm:"type:varchar(255)" json:"title" validate:"required,min=3,max=255"`
	Summary    string         `gorm:"type:varchar(500)" json:"summary" validate:"max=500"`
	Content    string         `gorm:"type:text" json:"content" validate:"required"`
	CoverImage string         `gorm:"column:image;type:varchar(255)" json:"image,omitempty" validate:"omitempty,max=255"`
	Published  bool           `gorm:"type:tinyint(1);default:0" json:"published"`
	AuthorID   uint           `gorm:"index" json:"author_id"`
	CreatedAt  time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt  time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt  gorm.DeletedAt `gorm:"index" json:"-"`
}

func (News) TableName() string {
	return "news"
}

func (n *News) Validate() error {
	return validator.New().Struct(n)
}

// BeforeSave fills an empty summary with the opening of the body.
func (n *News) BeforeSave(*gorm.DB) error {
	if strings.TrimSpace(n.Summary) == "" {
		n.Summary = Lead(n.Content)
	}
	return nil
}

// Lead collapses whitespace in body and cuts it at a word boundary before
// LeadLength runes, appending "..." when anything was dropped.
func Lead(body string) string {
	text := strings.Join(strings.Fields(body), " ")
	if utf8.RuneCountInString(text) <= LeadLength {
		return text
	}
	cut := string([]rune(text)[:LeadLength])
	if i := strings.LastIndexByte(cut, ' '); i > 0 {
		cut = cut[:i]
	}
	return cut + "..."
}
