package models

// Player is a member of the first-team roster.
type Player struct {
	ID       uint   `gorm:"primaryKey" json:"id"`
	Name     string `gorm:"type:varchar(150);not null" json:"name"`
	Role     string `gorm:"type:varchar(10)" json:"role"`
	Image    string `gorm:"type:varchar(255)" json:"image,omitempty"`
	Captain  bool   `gorm:"default:false" json:"captain"`
	Position int    `gorm:"default:0;index" json:"-"`
}

func (Player) TableName() string {
	return "team_players"
}
