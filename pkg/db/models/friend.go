package models

import (
	"time"

	"github.com/google/uuid"
)

// Friend is a directed edge between two users. Each direction carries its own
// row so that sharing policy can differ per side of the relationship.
type Friend struct {
	ID           uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	UserID       uuid.UUID `gorm:"column:user_id;type:uuid;not null;uniqueIndex:idx_friend_pair"`
	FriendUserID uuid.UUID `gorm:"column:friend_user_id;type:uuid;not null;uniqueIndex:idx_friend_pair"`
	CreatedAt    time.Time `gorm:"column:created_at;autoCreateTime"`
}
