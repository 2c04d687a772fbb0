package sharing

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/Gravender/boardgames-backend/pkg/db/models"
	"github.com/Gravender/boardgames-backend/pkg/enums"
	"github.com/Gravender/boardgames-backend/pkg/pagination"
)

// Repository is the request tree store. Trees are written root-first in one
// batch and read back either by root id or by public token.
type Repository interface {
	WithTx(tx *gorm.DB) Repository

	CreateTree(ctx context.Context, root *models.ShareRequest, children []models.ShareRequest) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.ShareRequest, error)
	FindByToken(ctx context.Context, token string) (*models.ShareRequest, error)
	LockRoot(ctx context.Context, id uuid.UUID) (*models.ShareRequest, error)
	FindDescendants(ctx context.Context, rootID uuid.UUID) ([]models.ShareRequest, error)
	FindActiveDuplicate(ctx context.Context, ownerID uuid.UUID, itemType enums.ShareItemType, itemID uuid.UUID, sharedWithID uuid.UUID, since time.Time) (*models.ShareRequest, error)
	UpdateStatus(ctx context.Context, ids []uuid.UUID, status enums.ShareStatus) error
	ClaimRecipient(ctx context.Context, id uuid.UUID, recipientID uuid.UUID) error
	DeleteTree(ctx context.Context, rootID uuid.UUID) error
	ListRoots(ctx context.Context, filter ListFilter) ([]models.ShareRequest, string, error)
	DeleteExpiredBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

// ListFilter selects share request roots for listing endpoints.
type ListFilter struct {
	OwnerID      *uuid.UUID
	SharedWithID *uuid.UUID
	Cursor       string
	Limit        int
}

type repository struct {
	db *gorm.DB
}

// NewRepository builds a sharing repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) CreateTree(ctx context.Context, root *models.ShareRequest, children []models.ShareRequest) error {
	if err := r.db.WithContext(ctx).Create(root).Error; err != nil {
		return err
	}
	if len(children) == 0 {
		return nil
	}
	for i := range children {
		children[i].ParentShareID = &root.ID
	}
	return r.db.WithContext(ctx).Create(&children).Error
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.ShareRequest, error) {
	var row models.ShareRequest
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&row).Error; err != nil {
		return nil, err
	}
	return &row, nil
}

func (r *repository) FindByToken(ctx context.Context, token string) (*models.ShareRequest, error) {
	var row models.ShareRequest
	if err := r.db.WithContext(ctx).Where("token = ?", token).First(&row).Error; err != nil {
		return nil, err
	}
	return &row, nil
}

// LockRoot loads the root row FOR UPDATE so concurrent resolutions of the
// same tree serialize on it.
func (r *repository) LockRoot(ctx context.Context, id uuid.UUID) (*models.ShareRequest, error) {
	var row models.ShareRequest
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ? AND parent_share_id IS NULL", id).
		First(&row).Error
	if err != nil {
		return nil, err
	}
	return &row, nil
}

// FindDescendants returns every node under the root, depth-first by
// creation order, using a recursive CTE.
func (r *repository) FindDescendants(ctx context.Context, rootID uuid.UUID) ([]models.ShareRequest, error) {
	var rows []models.ShareRequest
	err := r.db.WithContext(ctx).Raw(`
WITH RECURSIVE tree AS (
  SELECT sr.* FROM share_requests sr WHERE sr.parent_share_id = ?
  UNION ALL
  SELECT sr.* FROM share_requests sr JOIN tree t ON sr.parent_share_id = t.id
)
SELECT * FROM tree ORDER BY created_at ASC, id ASC`, rootID).
		Scan(&rows).Error
	return rows, err
}

// FindActiveDuplicate looks for a root that still blocks a fresh share of
// the same item to the same recipient: accepted ones forever, pending ones
// while unexpired and inside the lookback window.
func (r *repository) FindActiveDuplicate(ctx context.Context, ownerID uuid.UUID, itemType enums.ShareItemType, itemID uuid.UUID, sharedWithID uuid.UUID, since time.Time) (*models.ShareRequest, error) {
	var row models.ShareRequest
	err := r.db.WithContext(ctx).
		Where("owner_id = ? AND item_type = ? AND item_id = ? AND shared_with_id = ?", ownerID, itemType, itemID, sharedWithID).
		Where("parent_share_id IS NULL").
		Where(
			"status = ? OR (status = ? AND created_at >= ? AND (expires_at IS NULL OR expires_at > NOW()))",
			enums.ShareStatusAccepted, enums.ShareStatusPending, since,
		).
		First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &row, nil
}

func (r *repository) UpdateStatus(ctx context.Context, ids []uuid.UUID, status enums.ShareStatus) error {
	if len(ids) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).
		Model(&models.ShareRequest{}).
		Where("id IN ?", ids).
		Update("status", status).Error
}

// ClaimRecipient binds a public-link tree to the accepting user.
func (r *repository) ClaimRecipient(ctx context.Context, id uuid.UUID, recipientID uuid.UUID) error {
	return r.db.WithContext(ctx).
		Model(&models.ShareRequest{}).
		Where("(id = ? OR parent_share_id = ?) AND shared_with_id IS NULL", id, id).
		Update("shared_with_id", recipientID).Error
}

func (r *repository) DeleteTree(ctx context.Context, rootID uuid.UUID) error {
	// Children go with the root via ON DELETE CASCADE.
	return r.db.WithContext(ctx).
		Where("id = ?", rootID).
		Delete(&models.ShareRequest{}).Error
}

func (r *repository) ListRoots(ctx context.Context, filter ListFilter) ([]models.ShareRequest, string, error) {
	normalizedLimit := pagination.NormalizeLimit(filter.Limit)
	limitWithBuffer := pagination.LimitWithBuffer(filter.Limit)
	decodedCursor, err := pagination.ParseCursor(strings.TrimSpace(filter.Cursor))
	if err != nil {
		return nil, "", err
	}

	query := r.db.WithContext(ctx).
		Model(&models.ShareRequest{}).
		Where("parent_share_id IS NULL")
	if filter.OwnerID != nil {
		query = query.Where("owner_id = ?", *filter.OwnerID)
	}
	if filter.SharedWithID != nil {
		query = query.Where("shared_with_id = ?", *filter.SharedWithID)
	}
	if decodedCursor != nil {
		query = query.Where("(created_at < ?) OR (created_at = ? AND id < ?)", decodedCursor.CreatedAt, decodedCursor.CreatedAt, decodedCursor.ID)
	}

	var rows []models.ShareRequest
	err = query.Order("created_at DESC").Order("id DESC").Limit(limitWithBuffer).Find(&rows).Error
	if err != nil {
		return nil, "", err
	}

	nextCursor := ""
	if len(rows) > normalizedLimit {
		rows = rows[:normalizedLimit]
		last := rows[len(rows)-1]
		nextCursor = pagination.EncodeCursor(pagination.Cursor{
			CreatedAt: last.CreatedAt,
			ID:        last.ID,
		})
	}
	return rows, nextCursor, nil
}

// DeleteExpiredBefore removes pending trees whose expiry passed before the
// cutoff. Resolved trees are never touched.
func (r *repository) DeleteExpiredBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	res := r.db.WithContext(ctx).
		Where("parent_share_id IS NULL AND status = ? AND expires_at IS NOT NULL AND expires_at < ?", enums.ShareStatusPending, cutoff).
		Delete(&models.ShareRequest{})
	return res.RowsAffected, res.Error
}
