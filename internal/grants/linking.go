package grants

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Gravender/boardgames-backend/internal/library"
	"github.com/Gravender/boardgames-backend/pkg/enums"
	pkgerrors "github.com/Gravender/boardgames-backend/pkg/errors"
	"github.com/Gravender/boardgames-backend/pkg/logger"
	"github.com/Gravender/boardgames-backend/pkg/outbox"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type outboxPublisher interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

// LinkInput identifies the grant to link and the recipient-owned record to
// link it to. A nil LinkedItemID clears an existing link.
type LinkInput struct {
	ItemType     enums.ShareItemType
	GrantID      uuid.UUID
	RecipientID  uuid.UUID
	LinkedItemID *uuid.UUID
}

// LinkResultDTO reports the grant's link state after the operation.
type LinkResultDTO struct {
	GrantID      uuid.UUID           `json:"grant_id"`
	ItemType     enums.ShareItemType `json:"item_type"`
	LinkedItemID *uuid.UUID          `json:"linked_item_id,omitempty"`
	Changed      bool                `json:"changed"`
}

// Resolver links shared items to the recipient's own records. Matches and
// scoresheets are not linkable; a recipient has no local copy of someone
// else's match history.
type Resolver struct {
	repo    Repository
	library library.Repository
	tx      txRunner
	outbox  outboxPublisher
	logg    *logger.Logger
}

// ResolverParams groups dependencies for the linking resolver.
type ResolverParams struct {
	Repo     Repository
	Library  library.Repository
	TxRunner txRunner
	Outbox   outboxPublisher
	Logger   *logger.Logger
}

// NewResolver builds a linking resolver with the required dependencies.
func NewResolver(params ResolverParams) (*Resolver, error) {
	if params.Repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "grants repo is required")
	}
	if params.Library == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "library repo is required")
	}
	if params.TxRunner == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "transaction runner is required")
	}
	if params.Outbox == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "outbox publisher is required")
	}
	return &Resolver{
		repo:    params.Repo,
		library: params.Library,
		tx:      params.TxRunner,
		outbox:  params.Outbox,
		logg:    params.Logger,
	}, nil
}

// Link attaches the recipient's own record to a grant, replacing any prior
// link. Linking the same record twice is a no-op, never an error.
func (r *Resolver) Link(ctx context.Context, input LinkInput) (LinkResultDTO, error) {
	if input.GrantID == uuid.Nil {
		return LinkResultDTO{}, pkgerrors.New(pkgerrors.CodeValidation, "grant id is required")
	}
	if input.RecipientID == uuid.Nil {
		return LinkResultDTO{}, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}

	var result LinkResultDTO
	err := r.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := r.repo.WithTx(tx)
		lib := r.library.WithTx(tx)

		var err error
		switch input.ItemType {
		case enums.ShareItemGame:
			result, err = linkGame(ctx, repo, lib, input)
		case enums.ShareItemPlayer:
			result, err = linkPlayer(ctx, repo, lib, input)
		case enums.ShareItemLocation:
			result, err = linkLocation(ctx, repo, lib, input)
		case enums.ShareItemMatch, enums.ShareItemScoresheet:
			err = pkgerrors.New(pkgerrors.CodeValidation, "item type does not support linking")
		default:
			err = pkgerrors.New(pkgerrors.CodeValidation, "unknown share item type")
		}
		if err != nil || !result.Changed {
			return err
		}
		event := outbox.DomainEvent{
			EventType:     enums.EventShareLinked,
			AggregateType: enums.AggregateShareRequest,
			AggregateID:   result.GrantID,
			Actor:         &outbox.ActorRef{UserID: input.RecipientID},
			Data: outbox.ShareLinkedPayload{
				GrantID:      result.GrantID,
				ItemType:     result.ItemType,
				SharedWithID: input.RecipientID,
				LinkedItemID: result.LinkedItemID,
			},
			Version: 1,
		}
		return r.outbox.Emit(ctx, tx, event)
	})
	if err != nil {
		return LinkResultDTO{}, err
	}
	if r.logg != nil && result.Changed {
		r.logg.Info(ctx, "shared item linked")
	}
	return result, nil
}

func linkGame(ctx context.Context, repo Repository, lib library.Repository, input LinkInput) (LinkResultDTO, error) {
	grant, err := repo.FindGameShareByID(ctx, input.GrantID)
	if err != nil {
		return LinkResultDTO{}, grantLookupError(err)
	}
	if grant.SharedWithID != input.RecipientID {
		return LinkResultDTO{}, pkgerrors.New(pkgerrors.CodeForbidden, "grant does not belong to user")
	}
	if input.LinkedItemID != nil {
		game, err := lib.FindGame(ctx, *input.LinkedItemID)
		if err != nil {
			return LinkResultDTO{}, linkTargetError(err, "game")
		}
		if game.UserID != input.RecipientID {
			return LinkResultDTO{}, pkgerrors.New(pkgerrors.CodeForbidden, "linked game does not belong to user")
		}
	}
	result := LinkResultDTO{
		GrantID:      grant.ID,
		ItemType:     enums.ShareItemGame,
		LinkedItemID: input.LinkedItemID,
	}
	if uuidPtrEqual(grant.LinkedGameID, input.LinkedItemID) {
		return result, nil
	}
	if err := repo.UpdateLinkedGame(ctx, grant.ID, input.LinkedItemID); err != nil {
		return LinkResultDTO{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update game link")
	}
	result.Changed = true
	return result, nil
}

func linkPlayer(ctx context.Context, repo Repository, lib library.Repository, input LinkInput) (LinkResultDTO, error) {
	grant, err := repo.FindPlayerShareByID(ctx, input.GrantID)
	if err != nil {
		return LinkResultDTO{}, grantLookupError(err)
	}
	if grant.SharedWithID != input.RecipientID {
		return LinkResultDTO{}, pkgerrors.New(pkgerrors.CodeForbidden, "grant does not belong to user")
	}
	if input.LinkedItemID != nil {
		player, err := lib.FindPlayer(ctx, *input.LinkedItemID)
		if err != nil {
			return LinkResultDTO{}, linkTargetError(err, "player")
		}
		if player.CreatedByID != input.RecipientID {
			return LinkResultDTO{}, pkgerrors.New(pkgerrors.CodeForbidden, "linked player does not belong to user")
		}
	}
	result := LinkResultDTO{
		GrantID:      grant.ID,
		ItemType:     enums.ShareItemPlayer,
		LinkedItemID: input.LinkedItemID,
	}
	if uuidPtrEqual(grant.LinkedPlayerID, input.LinkedItemID) {
		return result, nil
	}
	if err := repo.UpdateLinkedPlayer(ctx, grant.ID, input.LinkedItemID); err != nil {
		return LinkResultDTO{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update player link")
	}
	result.Changed = true
	return result, nil
}

func linkLocation(ctx context.Context, repo Repository, lib library.Repository, input LinkInput) (LinkResultDTO, error) {
	grant, err := repo.FindLocationShareByID(ctx, input.GrantID)
	if err != nil {
		return LinkResultDTO{}, grantLookupError(err)
	}
	if grant.SharedWithID != input.RecipientID {
		return LinkResultDTO{}, pkgerrors.New(pkgerrors.CodeForbidden, "grant does not belong to user")
	}
	if input.LinkedItemID != nil {
		location, err := lib.FindLocation(ctx, *input.LinkedItemID)
		if err != nil {
			return LinkResultDTO{}, linkTargetError(err, "location")
		}
		if location.CreatedByID != input.RecipientID {
			return LinkResultDTO{}, pkgerrors.New(pkgerrors.CodeForbidden, "linked location does not belong to user")
		}
	}
	result := LinkResultDTO{
		GrantID:      grant.ID,
		ItemType:     enums.ShareItemLocation,
		LinkedItemID: input.LinkedItemID,
	}
	if uuidPtrEqual(grant.LinkedLocationID, input.LinkedItemID) {
		return result, nil
	}
	if err := repo.UpdateLinkedLocation(ctx, grant.ID, input.LinkedItemID); err != nil {
		return LinkResultDTO{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update location link")
	}
	result.Changed = true
	return result, nil
}

func grantLookupError(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return pkgerrors.New(pkgerrors.CodeNotFound, "grant not found")
	}
	return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load grant")
}

func linkTargetError(err error, kind string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return pkgerrors.New(pkgerrors.CodeNotFound, kind+" not found")
	}
	return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load "+kind)
}

func uuidPtrEqual(a, b *uuid.UUID) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}
