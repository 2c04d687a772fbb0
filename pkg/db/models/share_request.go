package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/Gravender/boardgames-backend/pkg/enums"
)

// ShareRequest is one node of a share request tree. A root node has a nil
// ParentShareID; children hang off the root via the self-referential FK.
// SharedWithID is nil for public-link shares, which are addressed by Token
// instead. The partial unique index uq_share_requests_active (defined in the
// migrations) enforces at most one active root per
// (owner, item_type, item_id, shared_with) tuple.
type ShareRequest struct {
	ID            uuid.UUID             `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	OwnerID       uuid.UUID             `gorm:"column:owner_id;type:uuid;not null;index"`
	SharedWithID  *uuid.UUID            `gorm:"column:shared_with_id;type:uuid;index"`
	ItemType      enums.ShareItemType   `gorm:"column:item_type;type:share_item_type_enum;not null"`
	ItemID        uuid.UUID             `gorm:"column:item_id;type:uuid;not null"`
	Permission    enums.SharePermission `gorm:"column:permission;type:share_permission_enum;not null;default:view"`
	Status        enums.ShareStatus     `gorm:"column:status;type:share_status_enum;not null;default:pending"`
	ParentShareID *uuid.UUID            `gorm:"column:parent_share_id;type:uuid;index"`
	Token         string                `gorm:"column:token;uniqueIndex;not null"`
	ExpiresAt     *time.Time            `gorm:"column:expires_at"`
	CreatedAt     time.Time             `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt     time.Time             `gorm:"column:updated_at;autoUpdateTime"`
}

// IsPublicLink reports whether the request is addressed by token rather than
// a concrete recipient.
func (s ShareRequest) IsPublicLink() bool {
	return s.SharedWithID == nil
}

// IsExpired reports whether the request has an expiry in the past.
func (s ShareRequest) IsExpired(now time.Time) bool {
	return s.ExpiresAt != nil && s.ExpiresAt.Before(now)
}
