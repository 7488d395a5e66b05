package model

import (
	"time"

	"github.com/plothook/api/internal/apperr"
)

// WorldRole is a user's role inside a single world.
type WorldRole string

const (
	WorldRoleCreator   WorldRole = "creator"
	WorldRoleCoCreator WorldRole = "co_creator"
	WorldRolePlayer    WorldRole = "player"
)

func (r WorldRole) Valid() bool {
	switch r {
	case WorldRoleCreator, WorldRoleCoCreator, WorldRolePlayer:
		return true
	}
	return false
}

// Privileged reports whether the role carries DM-level rights in the world.
func (r WorldRole) Privileged() bool {
	return r == WorldRoleCreator || r == WorldRoleCoCreator
}

type World struct {
	ID          int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	Name        string    `gorm:"not null;size:255" json:"name"`
	Description string    `gorm:"type:text" json:"description"`
	OwnerID     int64     `gorm:"not null;index" json:"ownerId"`
	JoinCode    string    `gorm:"not null;uniqueIndex;size:20" json:"joinCode"`
	ThemeColor  string    `gorm:"size:20;default:'#8b7355'" json:"themeColor"`
	IsActive    bool      `gorm:"default:true" json:"isActive"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

func (World) TableName() string {
	return "worlds"
}

// JoinableBy decides whether a user may join the world through its code.
// The owner re-using their own code and an existing member both conflict.
func (w *World) JoinableBy(userID int64, alreadyMember bool) error {
	if w.OwnerID == userID {
		return apperr.Conflict("already_owner", "you already own this world")
	}
	if alreadyMember {
		return apperr.Conflict("already_member", "you are already a member of this world")
	}
	return nil
}

type WorldMembership struct {
	ID       int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	WorldID  int64     `gorm:"not null;uniqueIndex:idx_world_memberships_world_user,priority:1" json:"worldId"`
	UserID   int64     `gorm:"not null;uniqueIndex:idx_world_memberships_world_user,priority:2;index" json:"userId"`
	Role     WorldRole `gorm:"not null;size:20" json:"role"`
	JoinedAt time.Time `gorm:"autoCreateTime" json:"joinedAt"`
}

func (WorldMembership) TableName() string {
	return "world_memberships"
}
