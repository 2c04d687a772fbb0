package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/Gravender/boardgames-backend/pkg/enums"
)

// LocationShare is the durable grant for one location.
type LocationShare struct {
	ID               uuid.UUID             `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	OwnerID          uuid.UUID             `gorm:"column:owner_id;type:uuid;not null;uniqueIndex:uq_location_share"`
	SharedWithID     uuid.UUID             `gorm:"column:shared_with_id;type:uuid;not null;uniqueIndex:uq_location_share"`
	LocationID       uuid.UUID             `gorm:"column:location_id;type:uuid;not null;uniqueIndex:uq_location_share"`
	Permission       enums.SharePermission `gorm:"column:permission;type:share_permission_enum;not null;default:view"`
	LinkedLocationID *uuid.UUID            `gorm:"column:linked_location_id;type:uuid"`
	CreatedAt        time.Time             `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt        time.Time             `gorm:"column:updated_at;autoUpdateTime"`
}
