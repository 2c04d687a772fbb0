package outbox

import (
	"time"

	"github.com/google/uuid"

	"github.com/Gravender/boardgames-backend/pkg/enums"
)

// ShareRequestedPayload is emitted when a share request tree is created.
type ShareRequestedPayload struct {
	ShareRequestID uuid.UUID           `json:"shareRequestId"`
	OwnerID        uuid.UUID           `json:"ownerId"`
	SharedWithID   *uuid.UUID          `json:"sharedWithId,omitempty"`
	ItemType       enums.ShareItemType `json:"itemType"`
	ItemID         uuid.UUID           `json:"itemId"`
	ChildCount     int                 `json:"childCount"`
	ExpiresAt      *time.Time          `json:"expiresAt,omitempty"`
}

// ShareResolvedPayload is emitted when a tree reaches a terminal status
// through acceptance, rejection, or cancellation.
type ShareResolvedPayload struct {
	ShareRequestID uuid.UUID         `json:"shareRequestId"`
	OwnerID        uuid.UUID         `json:"ownerId"`
	SharedWithID   *uuid.UUID        `json:"sharedWithId,omitempty"`
	Status         enums.ShareStatus `json:"status"`
	AcceptedIDs    []uuid.UUID       `json:"acceptedIds,omitempty"`
	RejectedIDs    []uuid.UUID       `json:"rejectedIds,omitempty"`
}

// ShareAutoSharedPayload is emitted when match creation auto-shares with friends.
type ShareAutoSharedPayload struct {
	MatchID      uuid.UUID   `json:"matchId"`
	OwnerID      uuid.UUID   `json:"ownerId"`
	SharedWith   []uuid.UUID `json:"sharedWith"`
	AutoAccepted []uuid.UUID `json:"autoAccepted,omitempty"`
}

// ShareLinkedPayload is emitted when a recipient links a shared item to a
// record of their own.
type ShareLinkedPayload struct {
	GrantID      uuid.UUID           `json:"grantId"`
	ItemType     enums.ShareItemType `json:"itemType"`
	SharedWithID uuid.UUID           `json:"sharedWithId"`
	LinkedItemID *uuid.UUID          `json:"linkedItemId,omitempty"`
}
