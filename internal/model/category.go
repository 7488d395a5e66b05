package model

import "time"

// BookType tags content as belonging to one of the three books.
type BookType string

const (
	BookWorld      BookType = "world"
	BookAdventurer BookType = "adventurer"
	BookStory      BookType = "story"
)

func (b BookType) Valid() bool {
	switch b {
	case BookWorld, BookAdventurer, BookStory:
		return true
	}
	return false
}

// Category organizes book content hierarchically. ParentID is nil for roots;
// a parent must belong to the same world.
type Category struct {
	ID          int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	Title       string    `gorm:"not null;size:200" json:"title"`
	Description string    `gorm:"type:text" json:"description"`
	BookType    BookType  `gorm:"not null;size:20" json:"bookType"`
	WorldID     int64     `gorm:"not null;index" json:"worldId"`
	ParentID    *int64    `gorm:"index" json:"parentId"`
	OwnerID     int64     `gorm:"not null;index" json:"ownerId"`
	IsHidden    bool      `gorm:"default:false" json:"isHidden"`
	SortOrder   int       `gorm:"default:0" json:"sortOrder"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

func (Category) TableName() string {
	return "categories"
}
