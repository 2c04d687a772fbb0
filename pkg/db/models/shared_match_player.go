package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/Gravender/boardgames-backend/pkg/enums"
)

// SharedMatchPlayer grants visibility of one match participant. It always
// references its MatchShare; PlayerShareID is set when the underlying player
// has been granted on their own.
type SharedMatchPlayer struct {
	ID            uuid.UUID             `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	OwnerID       uuid.UUID             `gorm:"column:owner_id;type:uuid;not null;uniqueIndex:uq_shared_match_player"`
	SharedWithID  uuid.UUID             `gorm:"column:shared_with_id;type:uuid;not null;uniqueIndex:uq_shared_match_player"`
	MatchPlayerID uuid.UUID             `gorm:"column:match_player_id;type:uuid;not null;uniqueIndex:uq_shared_match_player"`
	MatchShareID  uuid.UUID             `gorm:"column:match_share_id;type:uuid;not null"`
	PlayerShareID *uuid.UUID            `gorm:"column:player_share_id;type:uuid"`
	Permission    enums.SharePermission `gorm:"column:permission;type:share_permission_enum;not null;default:view"`
	CreatedAt     time.Time             `gorm:"column:created_at;autoCreateTime"`
}
