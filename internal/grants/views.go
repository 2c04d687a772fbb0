package grants

import (
	"context"

	"github.com/google/uuid"

	"github.com/Gravender/boardgames-backend/pkg/enums"
	pkgerrors "github.com/Gravender/boardgames-backend/pkg/errors"
)

// GrantViewDTO is the read shape of one grant. ItemID is the effective
// identity: the recipient's linked record when a link exists, the owner's
// record otherwise. SourceItemID always carries the owner's record so
// clients can tell the two apart.
type GrantViewDTO struct {
	GrantID      uuid.UUID             `json:"grant_id"`
	ItemType     enums.ShareItemType   `json:"item_type"`
	OwnerID      uuid.UUID             `json:"owner_id"`
	ItemID       uuid.UUID             `json:"item_id"`
	SourceItemID uuid.UUID             `json:"source_item_id"`
	Linked       bool                  `json:"linked"`
	Permission   enums.SharePermission `json:"permission"`
}

// MatchGrantViewDTO adds the match's resolved game and location identity.
// Both resolve through the parent grants, so linking a game re-identifies
// every shared match of that game on the next read.
type MatchGrantViewDTO struct {
	GrantViewDTO
	GameID     uuid.UUID  `json:"game_id"`
	LocationID *uuid.UUID `json:"location_id,omitempty"`
}

// ScoresheetGrantViewDTO adds the sheet's resolved game identity.
type ScoresheetGrantViewDTO struct {
	GrantViewDTO
	GameID uuid.UUID `json:"game_id"`
}

// SharedLibraryDTO is everything currently granted to one recipient.
type SharedLibraryDTO struct {
	Games       []GrantViewDTO           `json:"games"`
	Players     []GrantViewDTO           `json:"players"`
	Locations   []GrantViewDTO           `json:"locations"`
	Matches     []MatchGrantViewDTO      `json:"matches"`
	Scoresheets []ScoresheetGrantViewDTO `json:"scoresheets"`
}

// ListForRecipient loads the recipient's granted items with link
// substitution applied.
func (r *Resolver) ListForRecipient(ctx context.Context, recipientID uuid.UUID) (SharedLibraryDTO, error) {
	if recipientID == uuid.Nil {
		return SharedLibraryDTO{}, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}

	gameShares, err := r.repo.ListGameSharesForRecipient(ctx, recipientID)
	if err != nil {
		return SharedLibraryDTO{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list game grants")
	}
	locationShares, err := r.repo.ListLocationSharesForRecipient(ctx, recipientID)
	if err != nil {
		return SharedLibraryDTO{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list location grants")
	}
	playerShares, err := r.repo.ListPlayerSharesForRecipient(ctx, recipientID)
	if err != nil {
		return SharedLibraryDTO{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list player grants")
	}
	matchShares, err := r.repo.ListMatchSharesForRecipient(ctx, recipientID)
	if err != nil {
		return SharedLibraryDTO{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list match grants")
	}
	sheetShares, err := r.repo.ListScoresheetSharesForRecipient(ctx, recipientID)
	if err != nil {
		return SharedLibraryDTO{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list scoresheet grants")
	}

	out := SharedLibraryDTO{
		Games:       make([]GrantViewDTO, 0, len(gameShares)),
		Players:     make([]GrantViewDTO, 0, len(playerShares)),
		Locations:   make([]GrantViewDTO, 0, len(locationShares)),
		Matches:     make([]MatchGrantViewDTO, 0, len(matchShares)),
		Scoresheets: make([]ScoresheetGrantViewDTO, 0, len(sheetShares)),
	}

	gameIDByShare := make(map[uuid.UUID]uuid.UUID, len(gameShares))
	for _, gs := range gameShares {
		view := grantView(gs.ID, enums.ShareItemGame, gs.OwnerID, gs.GameID, gs.LinkedGameID, gs.Permission)
		gameIDByShare[gs.ID] = view.ItemID
		out.Games = append(out.Games, view)
	}

	locationIDByShare := make(map[uuid.UUID]uuid.UUID, len(locationShares))
	for _, ls := range locationShares {
		view := grantView(ls.ID, enums.ShareItemLocation, ls.OwnerID, ls.LocationID, ls.LinkedLocationID, ls.Permission)
		locationIDByShare[ls.ID] = view.ItemID
		out.Locations = append(out.Locations, view)
	}

	for _, ps := range playerShares {
		out.Players = append(out.Players, grantView(ps.ID, enums.ShareItemPlayer, ps.OwnerID, ps.PlayerID, ps.LinkedPlayerID, ps.Permission))
	}

	for _, ms := range matchShares {
		gameID, ok := gameIDByShare[ms.GameShareID]
		if !ok {
			return SharedLibraryDTO{}, pkgerrors.New(pkgerrors.CodeInternal, "match grant references an unknown game grant")
		}
		view := MatchGrantViewDTO{
			GrantViewDTO: grantView(ms.ID, enums.ShareItemMatch, ms.OwnerID, ms.MatchID, nil, ms.Permission),
			GameID:       gameID,
		}
		if ms.LocationShareID != nil {
			if locID, ok := locationIDByShare[*ms.LocationShareID]; ok {
				id := locID
				view.LocationID = &id
			}
		}
		out.Matches = append(out.Matches, view)
	}

	for _, ss := range sheetShares {
		gameID, ok := gameIDByShare[ss.GameShareID]
		if !ok {
			return SharedLibraryDTO{}, pkgerrors.New(pkgerrors.CodeInternal, "scoresheet grant references an unknown game grant")
		}
		out.Scoresheets = append(out.Scoresheets, ScoresheetGrantViewDTO{
			GrantViewDTO: grantView(ss.ID, enums.ShareItemScoresheet, ss.OwnerID, ss.ScoresheetID, nil, ss.Permission),
			GameID:       gameID,
		})
	}

	return out, nil
}

func grantView(grantID uuid.UUID, itemType enums.ShareItemType, ownerID, sourceID uuid.UUID, linkedID *uuid.UUID, permission enums.SharePermission) GrantViewDTO {
	view := GrantViewDTO{
		GrantID:      grantID,
		ItemType:     itemType,
		OwnerID:      ownerID,
		ItemID:       sourceID,
		SourceItemID: sourceID,
		Permission:   permission,
	}
	if linkedID != nil {
		view.ItemID = *linkedID
		view.Linked = true
	}
	return view
}
