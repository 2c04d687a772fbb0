package grants

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Gravender/boardgames-backend/internal/library"
	"github.com/Gravender/boardgames-backend/pkg/db/models"
	"github.com/Gravender/boardgames-backend/pkg/enums"
	pkgerrors "github.com/Gravender/boardgames-backend/pkg/errors"
)

// ItemRef names one shared record to materialize a grant for.
type ItemRef struct {
	Type       enums.ShareItemType
	ID         uuid.UUID
	Permission enums.SharePermission
}

// MaterializeInput carries everything a materialization pass needs. The
// caller supplies owner and recipient explicitly rather than reading them
// from ambient request state.
//
// RequireExistingParents controls what happens when a dependent grant's
// parent grant is absent: the interactive accept path grants the parent on
// demand, while policy-driven callers set the flag so a missing parent
// surfaces as DEPENDENCY_MISSING instead of being papered over.
type MaterializeInput struct {
	OwnerID                uuid.UUID
	SharedWithID           uuid.UUID
	Items                  []ItemRef
	RequireExistingParents bool
}

// ItemKey identifies one shared record across a materialization pass.
type ItemKey struct {
	Type enums.ShareItemType
	ID   uuid.UUID
}

// MaterializeResult reports what a pass wrote, by item type. Re-running the
// same input yields zero counts because every insert is conflict-tolerant.
// GrantByItem maps every requested item to its surviving grant row, whether
// that row was just inserted or already existed.
type MaterializeResult struct {
	CreatedByType map[enums.ShareItemType]int
	MatchPlayers  int
	GrantByItem   map[ItemKey]uuid.UUID
}

// Total sums created grants across all item types.
func (r MaterializeResult) Total() int {
	n := r.MatchPlayers
	for _, count := range r.CreatedByType {
		n += count
	}
	return n
}

// Materializer turns accepted share request nodes into durable grant rows,
// resolving cross-grant references in dependency order: games, locations,
// and players first, then matches and scoresheets that point back at them.
type Materializer struct {
	repo    Repository
	library library.Repository
}

// NewMaterializer builds a grant materializer with the required dependencies.
func NewMaterializer(repo Repository, lib library.Repository) (*Materializer, error) {
	if repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "grants repo is required")
	}
	if lib == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "library repo is required")
	}
	return &Materializer{repo: repo, library: lib}, nil
}

// WithTx rebinds the materializer's repositories to the supplied transaction.
func (m *Materializer) WithTx(tx *gorm.DB) *Materializer {
	if tx == nil {
		return m
	}
	return &Materializer{
		repo:    m.repo.WithTx(tx),
		library: m.library.WithTx(tx),
	}
}

type materializeState struct {
	input MaterializeInput

	gameShareByGame         map[uuid.UUID]uuid.UUID
	locationShareByLocation map[uuid.UUID]uuid.UUID
	playerShareByPlayer     map[uuid.UUID]uuid.UUID

	result MaterializeResult
}

type itemHandler struct {
	phase int
	fn    func(m *Materializer, ctx context.Context, st *materializeState, ref ItemRef) error
}

// Dispatch table keyed by item type. Phase 0 grants have no cross-grant
// references; phase 1 grants resolve them through the state built in phase 0.
var itemHandlers = map[enums.ShareItemType]itemHandler{
	enums.ShareItemGame:       {phase: 0, fn: (*Materializer).materializeGame},
	enums.ShareItemLocation:   {phase: 0, fn: (*Materializer).materializeLocation},
	enums.ShareItemPlayer:     {phase: 0, fn: (*Materializer).materializePlayer},
	enums.ShareItemMatch:      {phase: 1, fn: (*Materializer).materializeMatch},
	enums.ShareItemScoresheet: {phase: 1, fn: (*Materializer).materializeScoresheet},
}

// Materialize writes grants for every item, in dependency order, inside the
// caller's transaction. Existing grants win: a conflicting insert is skipped
// and the surviving row is reused for downstream references.
func (m *Materializer) Materialize(ctx context.Context, input MaterializeInput) (MaterializeResult, error) {
	if input.OwnerID == uuid.Nil {
		return MaterializeResult{}, pkgerrors.New(pkgerrors.CodeValidation, "owner id is required")
	}
	if input.SharedWithID == uuid.Nil {
		return MaterializeResult{}, pkgerrors.New(pkgerrors.CodeValidation, "recipient id is required")
	}

	st := &materializeState{
		input:                   input,
		gameShareByGame:         map[uuid.UUID]uuid.UUID{},
		locationShareByLocation: map[uuid.UUID]uuid.UUID{},
		playerShareByPlayer:     map[uuid.UUID]uuid.UUID{},
		result: MaterializeResult{
			CreatedByType: map[enums.ShareItemType]int{},
			GrantByItem:   map[ItemKey]uuid.UUID{},
		},
	}

	for phase := 0; phase <= 1; phase++ {
		for _, ref := range input.Items {
			handler, ok := itemHandlers[ref.Type]
			if !ok {
				return MaterializeResult{}, pkgerrors.New(pkgerrors.CodeInternal, "unknown share item type "+ref.Type.String())
			}
			if handler.phase != phase {
				continue
			}
			if err := handler.fn(m, ctx, st, ref); err != nil {
				return MaterializeResult{}, err
			}
		}
	}
	return st.result, nil
}

func (m *Materializer) materializeGame(ctx context.Context, st *materializeState, ref ItemRef) error {
	if _, err := m.library.FindGame(ctx, ref.ID); err != nil {
		return missingItem(err, "game")
	}
	share, created, err := m.repo.UpsertGameShare(ctx, &models.GameShare{
		OwnerID:      st.input.OwnerID,
		SharedWithID: st.input.SharedWithID,
		GameID:       ref.ID,
		Permission:   ref.Permission,
	})
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "write game grant")
	}
	st.gameShareByGame[ref.ID] = share.ID
	st.result.GrantByItem[ItemKey{Type: enums.ShareItemGame, ID: ref.ID}] = share.ID
	if created {
		st.result.CreatedByType[enums.ShareItemGame]++
	}
	return nil
}

func (m *Materializer) materializeLocation(ctx context.Context, st *materializeState, ref ItemRef) error {
	if _, err := m.library.FindLocation(ctx, ref.ID); err != nil {
		return missingItem(err, "location")
	}
	share, created, err := m.repo.UpsertLocationShare(ctx, &models.LocationShare{
		OwnerID:      st.input.OwnerID,
		SharedWithID: st.input.SharedWithID,
		LocationID:   ref.ID,
		Permission:   ref.Permission,
	})
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "write location grant")
	}
	st.locationShareByLocation[ref.ID] = share.ID
	st.result.GrantByItem[ItemKey{Type: enums.ShareItemLocation, ID: ref.ID}] = share.ID
	if created {
		st.result.CreatedByType[enums.ShareItemLocation]++
	}
	return nil
}

func (m *Materializer) materializePlayer(ctx context.Context, st *materializeState, ref ItemRef) error {
	if _, err := m.library.FindPlayer(ctx, ref.ID); err != nil {
		return missingItem(err, "player")
	}
	share, created, err := m.repo.UpsertPlayerShare(ctx, &models.PlayerShare{
		OwnerID:      st.input.OwnerID,
		SharedWithID: st.input.SharedWithID,
		PlayerID:     ref.ID,
		Permission:   ref.Permission,
	})
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "write player grant")
	}
	st.playerShareByPlayer[ref.ID] = share.ID
	st.result.GrantByItem[ItemKey{Type: enums.ShareItemPlayer, ID: ref.ID}] = share.ID
	if created {
		st.result.CreatedByType[enums.ShareItemPlayer]++
	}
	return nil
}

func (m *Materializer) materializeMatch(ctx context.Context, st *materializeState, ref ItemRef) error {
	match, err := m.library.FindMatch(ctx, ref.ID)
	if err != nil {
		return missingItem(err, "match")
	}

	// A match grant cannot exist without its game grant, so the game is
	// granted implicitly when the tree did not include it.
	gameShareID, err := m.ensureGameShare(ctx, st, match.GameID, ref.Permission)
	if err != nil {
		return err
	}

	var locationShareID *uuid.UUID
	if match.LocationID != nil {
		if id, ok := m.lookupLocationShare(ctx, st, *match.LocationID); ok {
			locationShareID = &id
		}
	}

	share, created, err := m.repo.UpsertMatchShare(ctx, &models.MatchShare{
		OwnerID:         st.input.OwnerID,
		SharedWithID:    st.input.SharedWithID,
		MatchID:         ref.ID,
		GameShareID:     gameShareID,
		LocationShareID: locationShareID,
		Permission:      ref.Permission,
	})
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "write match grant")
	}
	st.result.GrantByItem[ItemKey{Type: enums.ShareItemMatch, ID: ref.ID}] = share.ID
	if created {
		st.result.CreatedByType[enums.ShareItemMatch]++
	}

	return m.materializeMatchPlayers(ctx, st, share, ref.Permission)
}

func (m *Materializer) materializeMatchPlayers(ctx context.Context, st *materializeState, share *models.MatchShare, permission enums.SharePermission) error {
	participants, err := m.library.FindMatchPlayers(ctx, share.MatchID)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load match participants")
	}
	for _, participant := range participants {
		var playerShareID *uuid.UUID
		if id, ok := m.lookupPlayerShare(ctx, st, participant.PlayerID); ok {
			playerShareID = &id
		}
		_, created, err := m.repo.UpsertSharedMatchPlayer(ctx, &models.SharedMatchPlayer{
			OwnerID:       st.input.OwnerID,
			SharedWithID:  st.input.SharedWithID,
			MatchPlayerID: participant.ID,
			MatchShareID:  share.ID,
			PlayerShareID: playerShareID,
			Permission:    permission,
		})
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "write match participant grant")
		}
		if created {
			st.result.MatchPlayers++
		}
	}
	return nil
}

func (m *Materializer) materializeScoresheet(ctx context.Context, st *materializeState, ref ItemRef) error {
	sheet, err := m.library.FindScoresheet(ctx, ref.ID)
	if err != nil {
		return missingItem(err, "scoresheet")
	}
	gameShareID, err := m.ensureGameShare(ctx, st, sheet.GameID, ref.Permission)
	if err != nil {
		return err
	}
	share, created, err := m.repo.UpsertScoresheetShare(ctx, &models.ScoresheetShare{
		OwnerID:      st.input.OwnerID,
		SharedWithID: st.input.SharedWithID,
		ScoresheetID: ref.ID,
		GameShareID:  gameShareID,
		Permission:   ref.Permission,
	})
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "write scoresheet grant")
	}
	st.result.GrantByItem[ItemKey{Type: enums.ShareItemScoresheet, ID: ref.ID}] = share.ID
	if created {
		st.result.CreatedByType[enums.ShareItemScoresheet]++
	}
	return nil
}

func (m *Materializer) ensureGameShare(ctx context.Context, st *materializeState, gameID uuid.UUID, permission enums.SharePermission) (uuid.UUID, error) {
	if id, ok := st.gameShareByGame[gameID]; ok {
		return id, nil
	}
	if st.input.RequireExistingParents {
		existing, err := m.repo.FindGameShare(ctx, st.input.OwnerID, st.input.SharedWithID, gameID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return uuid.Nil, pkgerrors.New(pkgerrors.CodeDependencyMissing, "game grant required by dependent share does not exist")
			}
			return uuid.Nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load game grant")
		}
		st.gameShareByGame[gameID] = existing.ID
		return existing.ID, nil
	}
	if _, err := m.library.FindGame(ctx, gameID); err != nil {
		return uuid.Nil, missingItem(err, "game")
	}
	share, created, err := m.repo.UpsertGameShare(ctx, &models.GameShare{
		OwnerID:      st.input.OwnerID,
		SharedWithID: st.input.SharedWithID,
		GameID:       gameID,
		Permission:   permission,
	})
	if err != nil {
		return uuid.Nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "write game grant")
	}
	st.gameShareByGame[gameID] = share.ID
	if created {
		st.result.CreatedByType[enums.ShareItemGame]++
	}
	return share.ID, nil
}

func (m *Materializer) lookupLocationShare(ctx context.Context, st *materializeState, locationID uuid.UUID) (uuid.UUID, bool) {
	if id, ok := st.locationShareByLocation[locationID]; ok {
		return id, true
	}
	share, err := m.repo.FindLocationShare(ctx, st.input.OwnerID, st.input.SharedWithID, locationID)
	if err != nil {
		return uuid.Nil, false
	}
	st.locationShareByLocation[locationID] = share.ID
	return share.ID, true
}

func (m *Materializer) lookupPlayerShare(ctx context.Context, st *materializeState, playerID uuid.UUID) (uuid.UUID, bool) {
	if id, ok := st.playerShareByPlayer[playerID]; ok {
		return id, true
	}
	share, err := m.repo.FindPlayerShare(ctx, st.input.OwnerID, st.input.SharedWithID, playerID)
	if err != nil {
		return uuid.Nil, false
	}
	st.playerShareByPlayer[playerID] = share.ID
	return share.ID, true
}

func missingItem(err error, kind string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return pkgerrors.Wrap(pkgerrors.CodeDependencyMissing, err, kind+" referenced by share no longer exists")
	}
	return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load "+kind)
}
