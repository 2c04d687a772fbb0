package models

import (
	"time"

	"github.com/google/uuid"
)

// Player is a person record in a user's library. FriendUserID links the
// player to a real account when the owner has matched them to a friend;
// unlinked players never trigger auto-sharing.
type Player struct {
	ID           uuid.UUID  `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	CreatedByID  uuid.UUID  `gorm:"column:created_by_id;type:uuid;not null;index"`
	FriendUserID *uuid.UUID `gorm:"column:friend_user_id;type:uuid"`
	Name         string     `gorm:"column:name;not null"`
	CreatedAt    time.Time  `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt    time.Time  `gorm:"column:updated_at;autoUpdateTime"`
}
