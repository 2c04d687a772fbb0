package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/Gravender/boardgames-backend/pkg/enums"
)

// PlayerShare is the durable grant for one player. Unlinking clears
// LinkedPlayerID but never deletes the row.
type PlayerShare struct {
	ID             uuid.UUID             `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	OwnerID        uuid.UUID             `gorm:"column:owner_id;type:uuid;not null;uniqueIndex:uq_player_share"`
	SharedWithID   uuid.UUID             `gorm:"column:shared_with_id;type:uuid;not null;uniqueIndex:uq_player_share"`
	PlayerID       uuid.UUID             `gorm:"column:player_id;type:uuid;not null;uniqueIndex:uq_player_share"`
	Permission     enums.SharePermission `gorm:"column:permission;type:share_permission_enum;not null;default:view"`
	LinkedPlayerID *uuid.UUID            `gorm:"column:linked_player_id;type:uuid"`
	CreatedAt      time.Time             `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt      time.Time             `gorm:"column:updated_at;autoUpdateTime"`
}
