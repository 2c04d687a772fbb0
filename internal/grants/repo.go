package grants

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/Gravender/boardgames-backend/pkg/db/models"
)

// Repository persists durable grants. Every insert is idempotent: a conflict
// on the (owner, shared_with, item) natural key leaves the existing grant
// untouched and the existing row is returned instead.
type Repository interface {
	WithTx(tx *gorm.DB) Repository

	UpsertGameShare(ctx context.Context, share *models.GameShare) (*models.GameShare, bool, error)
	UpsertLocationShare(ctx context.Context, share *models.LocationShare) (*models.LocationShare, bool, error)
	UpsertPlayerShare(ctx context.Context, share *models.PlayerShare) (*models.PlayerShare, bool, error)
	UpsertMatchShare(ctx context.Context, share *models.MatchShare) (*models.MatchShare, bool, error)
	UpsertScoresheetShare(ctx context.Context, share *models.ScoresheetShare) (*models.ScoresheetShare, bool, error)
	UpsertSharedMatchPlayer(ctx context.Context, share *models.SharedMatchPlayer) (*models.SharedMatchPlayer, bool, error)

	FindGameShare(ctx context.Context, ownerID, sharedWithID, gameID uuid.UUID) (*models.GameShare, error)
	FindLocationShare(ctx context.Context, ownerID, sharedWithID, locationID uuid.UUID) (*models.LocationShare, error)
	FindPlayerShare(ctx context.Context, ownerID, sharedWithID, playerID uuid.UUID) (*models.PlayerShare, error)

	FindGameShareByID(ctx context.Context, id uuid.UUID) (*models.GameShare, error)
	FindLocationShareByID(ctx context.Context, id uuid.UUID) (*models.LocationShare, error)
	FindPlayerShareByID(ctx context.Context, id uuid.UUID) (*models.PlayerShare, error)

	ListGameSharesForRecipient(ctx context.Context, recipientID uuid.UUID) ([]models.GameShare, error)
	ListLocationSharesForRecipient(ctx context.Context, recipientID uuid.UUID) ([]models.LocationShare, error)
	ListPlayerSharesForRecipient(ctx context.Context, recipientID uuid.UUID) ([]models.PlayerShare, error)
	ListMatchSharesForRecipient(ctx context.Context, recipientID uuid.UUID) ([]models.MatchShare, error)
	ListScoresheetSharesForRecipient(ctx context.Context, recipientID uuid.UUID) ([]models.ScoresheetShare, error)

	UpdateLinkedGame(ctx context.Context, grantID uuid.UUID, linkedID *uuid.UUID) error
	UpdateLinkedLocation(ctx context.Context, grantID uuid.UUID, linkedID *uuid.UUID) error
	UpdateLinkedPlayer(ctx context.Context, grantID uuid.UUID, linkedID *uuid.UUID) error
}

type repository struct {
	db *gorm.DB
}

// NewRepository builds a grants repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) UpsertGameShare(ctx context.Context, share *models.GameShare) (*models.GameShare, bool, error) {
	res := r.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(share)
	if res.Error != nil {
		return nil, false, res.Error
	}
	if res.RowsAffected == 0 {
		existing, err := r.FindGameShare(ctx, share.OwnerID, share.SharedWithID, share.GameID)
		if err != nil {
			return nil, false, err
		}
		return existing, false, nil
	}
	return share, true, nil
}

func (r *repository) UpsertLocationShare(ctx context.Context, share *models.LocationShare) (*models.LocationShare, bool, error) {
	res := r.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(share)
	if res.Error != nil {
		return nil, false, res.Error
	}
	if res.RowsAffected == 0 {
		existing, err := r.FindLocationShare(ctx, share.OwnerID, share.SharedWithID, share.LocationID)
		if err != nil {
			return nil, false, err
		}
		return existing, false, nil
	}
	return share, true, nil
}

func (r *repository) UpsertPlayerShare(ctx context.Context, share *models.PlayerShare) (*models.PlayerShare, bool, error) {
	res := r.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(share)
	if res.Error != nil {
		return nil, false, res.Error
	}
	if res.RowsAffected == 0 {
		existing, err := r.FindPlayerShare(ctx, share.OwnerID, share.SharedWithID, share.PlayerID)
		if err != nil {
			return nil, false, err
		}
		return existing, false, nil
	}
	return share, true, nil
}

func (r *repository) UpsertMatchShare(ctx context.Context, share *models.MatchShare) (*models.MatchShare, bool, error) {
	res := r.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(share)
	if res.Error != nil {
		return nil, false, res.Error
	}
	if res.RowsAffected == 0 {
		var existing models.MatchShare
		err := r.db.WithContext(ctx).
			Where("owner_id = ? AND shared_with_id = ? AND match_id = ?", share.OwnerID, share.SharedWithID, share.MatchID).
			First(&existing).Error
		if err != nil {
			return nil, false, err
		}
		return &existing, false, nil
	}
	return share, true, nil
}

func (r *repository) UpsertScoresheetShare(ctx context.Context, share *models.ScoresheetShare) (*models.ScoresheetShare, bool, error) {
	res := r.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(share)
	if res.Error != nil {
		return nil, false, res.Error
	}
	if res.RowsAffected == 0 {
		var existing models.ScoresheetShare
		err := r.db.WithContext(ctx).
			Where("owner_id = ? AND shared_with_id = ? AND scoresheet_id = ?", share.OwnerID, share.SharedWithID, share.ScoresheetID).
			First(&existing).Error
		if err != nil {
			return nil, false, err
		}
		return &existing, false, nil
	}
	return share, true, nil
}

func (r *repository) UpsertSharedMatchPlayer(ctx context.Context, share *models.SharedMatchPlayer) (*models.SharedMatchPlayer, bool, error) {
	res := r.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(share)
	if res.Error != nil {
		return nil, false, res.Error
	}
	if res.RowsAffected == 0 {
		var existing models.SharedMatchPlayer
		err := r.db.WithContext(ctx).
			Where("owner_id = ? AND shared_with_id = ? AND match_player_id = ?", share.OwnerID, share.SharedWithID, share.MatchPlayerID).
			First(&existing).Error
		if err != nil {
			return nil, false, err
		}
		return &existing, false, nil
	}
	return share, true, nil
}

func (r *repository) FindGameShare(ctx context.Context, ownerID, sharedWithID, gameID uuid.UUID) (*models.GameShare, error) {
	var share models.GameShare
	err := r.db.WithContext(ctx).
		Where("owner_id = ? AND shared_with_id = ? AND game_id = ?", ownerID, sharedWithID, gameID).
		First(&share).Error
	if err != nil {
		return nil, err
	}
	return &share, nil
}

func (r *repository) FindLocationShare(ctx context.Context, ownerID, sharedWithID, locationID uuid.UUID) (*models.LocationShare, error) {
	var share models.LocationShare
	err := r.db.WithContext(ctx).
		Where("owner_id = ? AND shared_with_id = ? AND location_id = ?", ownerID, sharedWithID, locationID).
		First(&share).Error
	if err != nil {
		return nil, err
	}
	return &share, nil
}

func (r *repository) FindPlayerShare(ctx context.Context, ownerID, sharedWithID, playerID uuid.UUID) (*models.PlayerShare, error) {
	var share models.PlayerShare
	err := r.db.WithContext(ctx).
		Where("owner_id = ? AND shared_with_id = ? AND player_id = ?", ownerID, sharedWithID, playerID).
		First(&share).Error
	if err != nil {
		return nil, err
	}
	return &share, nil
}

func (r *repository) FindGameShareByID(ctx context.Context, id uuid.UUID) (*models.GameShare, error) {
	var share models.GameShare
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&share).Error; err != nil {
		return nil, err
	}
	return &share, nil
}

func (r *repository) FindLocationShareByID(ctx context.Context, id uuid.UUID) (*models.LocationShare, error) {
	var share models.LocationShare
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&share).Error; err != nil {
		return nil, err
	}
	return &share, nil
}

func (r *repository) FindPlayerShareByID(ctx context.Context, id uuid.UUID) (*models.PlayerShare, error) {
	var share models.PlayerShare
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&share).Error; err != nil {
		return nil, err
	}
	return &share, nil
}

func (r *repository) ListGameSharesForRecipient(ctx context.Context, recipientID uuid.UUID) ([]models.GameShare, error) {
	var shares []models.GameShare
	err := r.db.WithContext(ctx).
		Where("shared_with_id = ?", recipientID).
		Order("created_at ASC").
		Find(&shares).Error
	return shares, err
}

func (r *repository) ListLocationSharesForRecipient(ctx context.Context, recipientID uuid.UUID) ([]models.LocationShare, error) {
	var shares []models.LocationShare
	err := r.db.WithContext(ctx).
		Where("shared_with_id = ?", recipientID).
		Order("created_at ASC").
		Find(&shares).Error
	return shares, err
}

func (r *repository) ListPlayerSharesForRecipient(ctx context.Context, recipientID uuid.UUID) ([]models.PlayerShare, error) {
	var shares []models.PlayerShare
	err := r.db.WithContext(ctx).
		Where("shared_with_id = ?", recipientID).
		Order("created_at ASC").
		Find(&shares).Error
	return shares, err
}

func (r *repository) ListMatchSharesForRecipient(ctx context.Context, recipientID uuid.UUID) ([]models.MatchShare, error) {
	var shares []models.MatchShare
	err := r.db.WithContext(ctx).
		Where("shared_with_id = ?", recipientID).
		Order("created_at ASC").
		Find(&shares).Error
	return shares, err
}

func (r *repository) ListScoresheetSharesForRecipient(ctx context.Context, recipientID uuid.UUID) ([]models.ScoresheetShare, error) {
	var shares []models.ScoresheetShare
	err := r.db.WithContext(ctx).
		Where("shared_with_id = ?", recipientID).
		Order("created_at ASC").
		Find(&shares).Error
	return shares, err
}

func (r *repository) UpdateLinkedGame(ctx context.Context, grantID uuid.UUID, linkedID *uuid.UUID) error {
	return r.db.WithContext(ctx).
		Model(&models.GameShare{}).
		Where("id = ?", grantID).
		Update("linked_game_id", linkedID).Error
}

func (r *repository) UpdateLinkedLocation(ctx context.Context, grantID uuid.UUID, linkedID *uuid.UUID) error {
	return r.db.WithContext(ctx).
		Model(&models.LocationShare{}).
		Where("id = ?", grantID).
		Update("linked_location_id", linkedID).Error
}

func (r *repository) UpdateLinkedPlayer(ctx context.Context, grantID uuid.UUID, linkedID *uuid.UUID) error {
	return r.db.WithContext(ctx).
		Model(&models.PlayerShare{}).
		Where("id = ?", grantID).
		Update("linked_player_id", linkedID).Error
}
