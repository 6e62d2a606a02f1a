package db

import "time"

// Bookmark is a saved directory on one endpoint.
type Bookmark struct {
	ID        string    `json:"id" gorm:"primaryKey;size:36"`
	Endpoint  string    `json:"endpoint" gorm:"size:100;not null;default:'local'"`
	Path      string    `json:"path" gorm:"size:4096;not null"`
	Name      string    `json:"name" gorm:"size:200"`
	Order     int       `json:"order" gorm:"column:sort_order;index"`
	CreatedAt time.Time `json:"created_at"`
}

func (Bookmark) TableName() string {
	return "bookmarks"
}
