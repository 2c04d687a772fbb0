package sharing

import (
	"time"

	"github.com/google/uuid"

	"github.com/Gravender/boardgames-backend/pkg/db/models"
	"github.com/Gravender/boardgames-backend/pkg/enums"
)

// ChildInput names one item bundled under a share request root.
type ChildInput struct {
	ItemType   enums.ShareItemType
	ItemID     uuid.UUID
	Permission enums.SharePermission
}

// CreateInput carries everything needed to create a share request tree. A
// nil SharedWithID produces a public-link share addressed by token.
type CreateInput struct {
	OwnerID      uuid.UUID
	SharedWithID *uuid.UUID
	ItemType     enums.ShareItemType
	ItemID       uuid.UUID
	Permission   enums.SharePermission
	ExpiresAt    *time.Time
	Children     []ChildInput
}

// AcceptInput identifies the tree to accept. AcceptChildIDs lists the child
// nodes the recipient takes along with the root; any child left off the list
// is rejected. An empty list accepts the root alone.
type AcceptInput struct {
	ShareRequestID uuid.UUID
	RecipientID    uuid.UUID
	AcceptChildIDs []uuid.UUID
}

// RejectInput identifies the tree to reject wholesale.
type RejectInput struct {
	ShareRequestID uuid.UUID
	RecipientID    uuid.UUID
}

// CancelInput identifies the pending tree the owner wants withdrawn.
type CancelInput struct {
	ShareRequestID uuid.UUID
	OwnerID        uuid.UUID
}

// ShareRequestDTO is the API projection of one share request node.
type ShareRequestDTO struct {
	ID            uuid.UUID             `json:"id"`
	OwnerID       uuid.UUID             `json:"owner_id"`
	SharedWithID  *uuid.UUID            `json:"shared_with_id,omitempty"`
	ItemType      enums.ShareItemType   `json:"item_type"`
	ItemID        uuid.UUID             `json:"item_id"`
	Permission    enums.SharePermission `json:"permission"`
	Status        enums.ShareStatus     `json:"status"`
	ParentShareID *uuid.UUID            `json:"parent_share_id,omitempty"`
	ExpiresAt     *time.Time            `json:"expires_at,omitempty"`
	CreatedAt     time.Time             `json:"created_at"`
	Children      []ShareRequestDTO     `json:"children,omitempty"`
	ShareURL      string                `json:"share_url,omitempty"`
}

// RootGrantDTO identifies the durable grant materialized for the accepted
// root item.
type RootGrantDTO struct {
	GrantID    uuid.UUID             `json:"grant_id"`
	ItemType   enums.ShareItemType   `json:"item_type"`
	ItemID     uuid.UUID             `json:"item_id"`
	Permission enums.SharePermission `json:"permission"`
}

// AcceptResultDTO reports the outcome of an acceptance transaction.
type AcceptResultDTO struct {
	ShareRequestID uuid.UUID    `json:"share_request_id"`
	RootGrant      RootGrantDTO `json:"root_grant"`
	AcceptedIDs    []uuid.UUID  `json:"accepted_ids"`
	RejectedIDs    []uuid.UUID  `json:"rejected_ids,omitempty"`
	GrantsCreated  int          `json:"grants_created"`
}

// SharePageDTO is a cursor-paginated list of share request roots.
type SharePageDTO struct {
	Items      []ShareRequestDTO `json:"items"`
	NextCursor string            `json:"next_cursor,omitempty"`
}

func toDTO(row models.ShareRequest) ShareRequestDTO {
	return ShareRequestDTO{
		ID:            row.ID,
		OwnerID:       row.OwnerID,
		SharedWithID:  row.SharedWithID,
		ItemType:      row.ItemType,
		ItemID:        row.ItemID,
		Permission:    row.Permission,
		Status:        row.Status,
		ParentShareID: row.ParentShareID,
		ExpiresAt:     row.ExpiresAt,
		CreatedAt:     row.CreatedAt,
	}
}

func toTreeDTO(root models.ShareRequest, children []models.ShareRequest, shareURL string) ShareRequestDTO {
	dto := toDTO(root)
	dto.ShareURL = shareURL

	// Arena of nodes indexed by parent so nesting does not require repeated
	// scans over the child slice.
	byParent := make(map[uuid.UUID][]models.ShareRequest, len(children))
	for _, child := range children {
		if child.ParentShareID == nil {
			continue
		}
		byParent[*child.ParentShareID] = append(byParent[*child.ParentShareID], child)
	}
	dto.Children = buildChildren(root.ID, byParent)
	return dto
}

func buildChildren(parentID uuid.UUID, byParent map[uuid.UUID][]models.ShareRequest) []ShareRequestDTO {
	rows, ok := byParent[parentID]
	if !ok {
		return nil
	}
	out := make([]ShareRequestDTO, 0, len(rows))
	for _, row := range rows {
		dto := toDTO(row)
		dto.Children = buildChildren(row.ID, byParent)
		out = append(out, dto)
	}
	return out
}
