package friends

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Gravender/boardgames-backend/pkg/db/models"
	"github.com/Gravender/boardgames-backend/pkg/enums"
)

// AutoShareRecipient pairs a friend with the two directed settings rows that
// govern auto-sharing between the owner and that friend.
type AutoShareRecipient struct {
	UserID           uuid.UUID
	OwnerSetting     models.FriendSetting
	RecipientSetting models.FriendSetting
}

// Repository encapsulates friendship and friend-setting persistence.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	AreFriends(ctx context.Context, userID, friendUserID uuid.UUID) (bool, error)
	FindSetting(ctx context.Context, createdByID, friendID uuid.UUID) (*models.FriendSetting, error)
	FindAutoShareRecipient(ctx context.Context, ownerID, friendUserID uuid.UUID) (*AutoShareRecipient, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository builds a friends repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) AreFriends(ctx context.Context, userID, friendUserID uuid.UUID) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.Friend{}).
		Where("user_id = ? AND friend_user_id = ?", userID, friendUserID).
		Count(&count).Error
	return count > 0, err
}

func (r *repository) FindSetting(ctx context.Context, createdByID, friendID uuid.UUID) (*models.FriendSetting, error) {
	var setting models.FriendSetting
	err := r.db.WithContext(ctx).
		Where("created_by_id = ? AND friend_id = ?", createdByID, friendID).
		First(&setting).Error
	if err != nil {
		return nil, err
	}
	return &setting, nil
}

// FindAutoShareRecipient checks whether matches auto-share from the owner to
// this friend. Sharing requires mutual opt-in: the owner enabled
// auto_share_matches toward the friend and the friend still allows shared
// matches from the owner. Returns nil without error when either side opted
// out or the friendship does not exist. A friend who never saved settings
// gets the column defaults: receiving allowed, nothing auto-accepted.
func (r *repository) FindAutoShareRecipient(ctx context.Context, ownerID, friendUserID uuid.UUID) (*AutoShareRecipient, error) {
	ok, err := r.AreFriends(ctx, ownerID, friendUserID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, nil
	}

	ownerSetting, err := r.FindSetting(ctx, ownerID, friendUserID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	if !ownerSetting.AutoShareMatches {
		return nil, nil
	}

	recipientSetting, err := r.FindSetting(ctx, friendUserID, ownerID)
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, err
		}
		recipientSetting = defaultSetting(friendUserID, ownerID)
	}
	if !recipientSetting.AllowSharedMatches {
		return nil, nil
	}

	return &AutoShareRecipient{
		UserID:           friendUserID,
		OwnerSetting:     *ownerSetting,
		RecipientSetting: *recipientSetting,
	}, nil
}

func defaultSetting(createdByID, friendID uuid.UUID) *models.FriendSetting {
	return &models.FriendSetting{
		CreatedByID:               createdByID,
		FriendID:                  friendID,
		AllowSharedGames:          true,
		AllowSharedMatches:        true,
		AllowSharedPlayers:        true,
		AllowSharedLocation:       true,
		DefaultPermissionGame:     enums.SharePermissionView,
		DefaultPermissionMatches:  enums.SharePermissionView,
		DefaultPermissionPlayers:  enums.SharePermissionView,
		DefaultPermissionLocation: enums.SharePermissionView,
	}
}
