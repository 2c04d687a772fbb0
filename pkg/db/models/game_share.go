package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/Gravender/boardgames-backend/pkg/enums"
)

// GameShare is the durable grant for one game. LinkedGameID points at the
// recipient's own copy of the game once they have linked it; reads resolve
// the shared game to the linked copy from then on.
type GameShare struct {
	ID           uuid.UUID             `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	OwnerID      uuid.UUID             `gorm:"column:owner_id;type:uuid;not null;uniqueIndex:uq_game_share"`
	SharedWithID uuid.UUID             `gorm:"column:shared_with_id;type:uuid;not null;uniqueIndex:uq_game_share"`
	GameID       uuid.UUID             `gorm:"column:game_id;type:uuid;not null;uniqueIndex:uq_game_share"`
	Permission   enums.SharePermission `gorm:"column:permission;type:share_permission_enum;not null;default:view"`
	LinkedGameID *uuid.UUID            `gorm:"column:linked_game_id;type:uuid"`
	CreatedAt    time.Time             `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt    time.Time             `gorm:"column:updated_at;autoUpdateTime"`
}
