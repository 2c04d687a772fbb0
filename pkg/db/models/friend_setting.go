package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/Gravender/boardgames-backend/pkg/enums"
)

// FriendSetting is the per-relationship sharing policy. CreatedByID is the
// user the settings belong to; FriendID points at the directed friend edge
// the policy applies to.
//
// The AutoShare/Include flags describe the owner's willingness to push new
// matches to this friend. The AllowShared flags describe what this user is
// willing to receive; both sides must opt in before auto-share runs. The
// AutoAccept flags short-circuit the interactive accept step per item type.
type FriendSetting struct {
	ID          uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	CreatedByID uuid.UUID `gorm:"column:created_by_id;type:uuid;not null;uniqueIndex:idx_friend_setting"`
	FriendID    uuid.UUID `gorm:"column:friend_id;type:uuid;not null;uniqueIndex:idx_friend_setting"`

	AutoShareMatches         bool `gorm:"column:auto_share_matches;not null;default:false"`
	SharePlayersWithMatch    bool `gorm:"column:share_players_with_match;not null;default:false"`
	IncludeLocationWithMatch bool `gorm:"column:include_location_with_match;not null;default:false"`

	AllowSharedGames    bool `gorm:"column:allow_shared_games;not null;default:true"`
	AllowSharedMatches  bool `gorm:"column:allow_shared_matches;not null;default:true"`
	AllowSharedPlayers  bool `gorm:"column:allow_shared_players;not null;default:true"`
	AllowSharedLocation bool `gorm:"column:allow_shared_location;not null;default:true"`

	AutoAcceptGame     bool `gorm:"column:auto_accept_game;not null;default:false"`
	AutoAcceptMatches  bool `gorm:"column:auto_accept_matches;not null;default:false"`
	AutoAcceptPlayers  bool `gorm:"column:auto_accept_players;not null;default:false"`
	AutoAcceptLocation bool `gorm:"column:auto_accept_location;not null;default:false"`

	DefaultPermissionGame     enums.SharePermission `gorm:"column:default_permission_game;not null;default:view"`
	DefaultPermissionMatches  enums.SharePermission `gorm:"column:default_permission_matches;not null;default:view"`
	DefaultPermissionPlayers  enums.SharePermission `gorm:"column:default_permission_players;not null;default:view"`
	DefaultPermissionLocation enums.SharePermission `gorm:"column:default_permission_location;not null;default:view"`

	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}
