package model

import "time"

// Role is the global account role.
type Role string

const (
	RoleDM     Role = "dm"
	RolePlayer Role = "player"
)

func (r Role) Valid() bool {
	switch r {
	case RoleDM, RolePlayer:
		return true
	}
	return false
}

// Theme preference constants
const (
	ThemeLight = "light"
	ThemeDark  = "dark"
	ThemeAuto  = "auto"
)

type User struct {
	ID              int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	Username        string    `gorm:"not null;uniqueIndex;size:150" json:"username"`
	Email           string    `gorm:"not null;uniqueIndex;size:255" json:"email"`
	PasswordHash    string    `gorm:"size:255" json:"-"`
	Provider        string    `gorm:"size:20" json:"provider,omitempty"`
	ProviderID      string    `gorm:"size:255" json:"-"`
	Role            Role      `gorm:"not null;size:10;default:'player'" json:"role"`
	Bio             string    `gorm:"type:text" json:"bio"`
	AvatarURL       string    `json:"avatarUrl"`
	ThemePreference string    `gorm:"size:20;default:'dark'" json:"themePreference"`
	IsActive        bool      `gorm:"default:true" json:"isActive"`
	CreatedAt       time.Time `json:"createdAt"`
	UpdatedAt       time.Time `json:"updatedAt"`
}

func (User) TableName() string {
	return "users"
}

func (u *User) IsDM() bool {
	return u.Role == RoleDM
}

// UserProfile holds the extended, optional profile fields.
type UserProfile struct {
	ID                    int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID                int64     `gorm:"not null;uniqueIndex" json:"userId"`
	FavoriteEdition       string    `gorm:"size:20" json:"favoriteEdition"`
	DMExperienceYears     int       `gorm:"default:0" json:"dmExperienceYears"`
	PlayerExperienceYears int       `gorm:"default:0" json:"playerExperienceYears"`
	DiscordUsername       string    `gorm:"size:100" json:"discordUsername"`
	TwitterHandle         string    `gorm:"size:100" json:"twitterHandle"`
	ProfilePublic         bool      `gorm:"default:true" json:"profilePublic"`
	ShowEmail             bool      `gorm:"default:false" json:"showEmail"`
	CreatedAt             time.Time `json:"createdAt"`
	UpdatedAt             time.Time `json:"updatedAt"`
}

func (UserProfile) TableName() string {
	return "user_profiles"
}
