package autoshare

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Gravender/boardgames-backend/internal/friends"
	"github.com/Gravender/boardgames-backend/internal/grants"
	"github.com/Gravender/boardgames-backend/internal/library"
	"github.com/Gravender/boardgames-backend/internal/sharing"
	"github.com/Gravender/boardgames-backend/pkg/config"
	"github.com/Gravender/boardgames-backend/pkg/db/models"
	"github.com/Gravender/boardgames-backend/pkg/enums"
	pkgerrors "github.com/Gravender/boardgames-backend/pkg/errors"
	"github.com/Gravender/boardgames-backend/pkg/logger"
	"github.com/Gravender/boardgames-backend/pkg/metrics"
	"github.com/Gravender/boardgames-backend/pkg/outbox"
	"github.com/Gravender/boardgames-backend/pkg/security"
)

type outboxPublisher interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

// ResultDTO reports which friends a new match was shared with.
type ResultDTO struct {
	MatchID      uuid.UUID   `json:"match_id"`
	SharedWith   []uuid.UUID `json:"shared_with"`
	AutoAccepted []uuid.UUID `json:"auto_accepted,omitempty"`
	Skipped      []uuid.UUID `json:"skipped,omitempty"`
}

// Hook adapts the service for callers that only care about failure.
type Hook struct {
	Service Service
}

func (h Hook) OnMatchCreated(ctx context.Context, tx *gorm.DB, match *models.Match) error {
	_, err := h.Service.OnMatchCreated(ctx, tx, match)
	return err
}

// Service fans a freshly created match out to friends with mutual opt-in.
// It always runs inside the match-creation transaction so a failed share
// rolls the match back too.
type Service interface {
	OnMatchCreated(ctx context.Context, tx *gorm.DB, match *models.Match) (ResultDTO, error)
}

// ServiceParams groups dependencies for the auto-share engine.
type ServiceParams struct {
	Shares       sharing.Repository
	Friends      friends.Repository
	Library      library.Repository
	Materializer *grants.Materializer
	Outbox       outboxPublisher
	Logger       *logger.Logger
	Metrics      *metrics.SharingMetrics
	Config       config.SharingConfig
}

type service struct {
	shares       sharing.Repository
	friends      friends.Repository
	library      library.Repository
	materializer *grants.Materializer
	outbox       outboxPublisher
	logg         *logger.Logger
	metrics      *metrics.SharingMetrics
	cfg          config.SharingConfig
}

// NewService builds the auto-share engine with the required dependencies.
func NewService(params ServiceParams) (Service, error) {
	if params.Shares == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "sharing repo is required")
	}
	if params.Friends == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "friends repo is required")
	}
	if params.Library == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "library repo is required")
	}
	if params.Materializer == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "grant materializer is required")
	}
	if params.Outbox == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "outbox publisher is required")
	}
	return &service{
		shares:       params.Shares,
		friends:      params.Friends,
		library:      params.Library,
		materializer: params.Materializer,
		outbox:       params.Outbox,
		logg:         params.Logger,
		metrics:      params.Metrics,
		cfg:          params.Config,
	}, nil
}

func (s *service) OnMatchCreated(ctx context.Context, tx *gorm.DB, match *models.Match) (ResultDTO, error) {
	if tx == nil {
		return ResultDTO{}, pkgerrors.New(pkgerrors.CodeValidation, "transaction required")
	}
	if match == nil || match.ID == uuid.Nil {
		return ResultDTO{}, pkgerrors.New(pkgerrors.CodeValidation, "match is required")
	}

	shares := s.shares.WithTx(tx)
	friendsRepo := s.friends.WithTx(tx)
	lib := s.library.WithTx(tx)
	materializer := s.materializer.WithTx(tx)

	result := ResultDTO{MatchID: match.ID}

	participants, err := lib.FindMatchPlayers(ctx, match.ID)
	if err != nil {
		return ResultDTO{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load match participants")
	}

	// Recipients come from the match roster: only participants whose player
	// record is linked to a friend account can receive the match. Unlinked
	// players never trigger auto-sharing.
	candidateIDs, err := s.linkedParticipants(ctx, lib, match.UserID, participants)
	if err != nil {
		return ResultDTO{}, err
	}
	if len(candidateIDs) == 0 {
		return result, nil
	}

	since := time.Now().Add(-s.cfg.DuplicateWindow)
	for _, friendUserID := range candidateIDs {
		recipient, err := friendsRepo.FindAutoShareRecipient(ctx, match.UserID, friendUserID)
		if err != nil {
			return ResultDTO{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "resolve auto-share recipient")
		}
		if recipient == nil {
			continue
		}

		duplicate, err := shares.FindActiveDuplicate(ctx, match.UserID, enums.ShareItemMatch, match.ID, recipient.UserID, since)
		if err != nil {
			return ResultDTO{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check duplicate share")
		}
		if duplicate != nil {
			result.Skipped = append(result.Skipped, recipient.UserID)
			continue
		}

		root, children, err := s.buildTree(ctx, lib, match, participants, *recipient)
		if err != nil {
			return ResultDTO{}, err
		}
		if err := shares.CreateTree(ctx, root, children); err != nil {
			return ResultDTO{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create auto-share tree")
		}
		result.SharedWith = append(result.SharedWith, recipient.UserID)
		s.metrics.IncRequest("auto_shared")

		// The match grant cannot exist without its game grant, so the tree
		// only auto-accepts when the recipient auto-accepts both. The other
		// node types are decided one by one; whatever is not auto-accepted
		// stays pending for the recipient to decide later.
		setting := recipient.RecipientSetting
		if !setting.AutoAcceptMatches || !setting.AutoAcceptGame {
			continue
		}

		var items []grants.ItemRef
		var ids []uuid.UUID
		accept := func(node models.ShareRequest) {
			items = append(items, grants.ItemRef{Type: node.ItemType, ID: node.ItemID, Permission: node.Permission})
			ids = append(ids, node.ID)
		}
		accept(*root)
		for _, child := range children {
			switch child.ItemType {
			case enums.ShareItemGame, enums.ShareItemScoresheet:
				accept(child)
			case enums.ShareItemLocation:
				if setting.AutoAcceptLocation {
					accept(child)
				}
			case enums.ShareItemPlayer:
				if setting.AutoAcceptPlayers {
					accept(child)
				}
			}
		}

		materialized, err := materializer.Materialize(ctx, grants.MaterializeInput{
			OwnerID:                match.UserID,
			SharedWithID:           recipient.UserID,
			Items:                  items,
			RequireExistingParents: true,
		})
		if err != nil {
			return ResultDTO{}, err
		}
		if err := shares.UpdateStatus(ctx, ids, enums.ShareStatusAccepted); err != nil {
			return ResultDTO{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "mark auto-share accepted")
		}
		for itemType, count := range materialized.CreatedByType {
			s.metrics.AddGrants(itemType.String(), count)
		}
		s.metrics.AddGrants("match_player", materialized.MatchPlayers)
		result.AutoAccepted = append(result.AutoAccepted, recipient.UserID)
	}

	if len(result.SharedWith) > 0 {
		event := outbox.DomainEvent{
			EventType:     enums.EventShareAutoShared,
			AggregateType: enums.AggregateMatch,
			AggregateID:   match.ID,
			Actor:         &outbox.ActorRef{UserID: match.UserID},
			Data: outbox.ShareAutoSharedPayload{
				MatchID:      match.ID,
				OwnerID:      match.UserID,
				SharedWith:   result.SharedWith,
				AutoAccepted: result.AutoAccepted,
			},
			Version: 1,
		}
		if err := s.outbox.Emit(ctx, tx, event); err != nil {
			return ResultDTO{}, err
		}
	}

	if s.logg != nil && len(result.SharedWith) > 0 {
		fields := map[string]any{"match_id": match.ID.String(), "recipients": len(result.SharedWith)}
		s.logg.Info(s.logg.WithFields(ctx, fields), "match auto-shared")
	}
	return result, nil
}

// linkedParticipants maps the match roster to friend user ids, deduplicated
// and in roster order. The owner playing in their own match is not a
// recipient.
func (s *service) linkedParticipants(ctx context.Context, lib library.Repository, ownerID uuid.UUID, participants []models.MatchPlayer) ([]uuid.UUID, error) {
	seen := make(map[uuid.UUID]struct{}, len(participants))
	var out []uuid.UUID
	for _, participant := range participants {
		player, err := lib.FindPlayer(ctx, participant.PlayerID)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load participant player")
		}
		if player.FriendUserID == nil || *player.FriendUserID == ownerID {
			continue
		}
		if _, ok := seen[*player.FriendUserID]; ok {
			continue
		}
		seen[*player.FriendUserID] = struct{}{}
		out = append(out, *player.FriendUserID)
	}
	return out, nil
}

// buildTree assembles the share request nodes for one recipient. What rides
// along with the match is decided by both sides: the owner's sharing toggles
// and the recipient's allow flags. The game and a scoresheet always ride
// along; a match grant is meaningless without them.
func (s *service) buildTree(ctx context.Context, lib library.Repository, match *models.Match, participants []models.MatchPlayer, recipient friends.AutoShareRecipient) (*models.ShareRequest, []models.ShareRequest, error) {
	token, err := security.GenerateShareToken()
	if err != nil {
		return nil, nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "generate share token")
	}
	recipientID := recipient.UserID
	root := &models.ShareRequest{
		OwnerID:      match.UserID,
		SharedWithID: &recipientID,
		ItemType:     enums.ShareItemMatch,
		ItemID:       match.ID,
		Permission:   recipient.RecipientSetting.DefaultPermissionMatches,
		Status:       enums.ShareStatusPending,
		Token:        token,
	}

	var children []models.ShareRequest
	addChild := func(itemType enums.ShareItemType, itemID uuid.UUID, permission enums.SharePermission) error {
		childToken, err := security.GenerateShareToken()
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "generate share token")
		}
		children = append(children, models.ShareRequest{
			OwnerID:      match.UserID,
			SharedWithID: &recipientID,
			ItemType:     itemType,
			ItemID:       itemID,
			Permission:   permission,
			Status:       enums.ShareStatusPending,
			Token:        childToken,
		})
		return nil
	}

	if err := addChild(enums.ShareItemGame, match.GameID, recipient.RecipientSetting.DefaultPermissionGame); err != nil {
		return nil, nil, err
	}
	if match.LocationID != nil &&
		recipient.OwnerSetting.IncludeLocationWithMatch &&
		recipient.RecipientSetting.AllowSharedLocation {
		if err := addChild(enums.ShareItemLocation, *match.LocationID, recipient.RecipientSetting.DefaultPermissionLocation); err != nil {
			return nil, nil, err
		}
	}
	if recipient.OwnerSetting.SharePlayersWithMatch && recipient.RecipientSetting.AllowSharedPlayers {
		for _, participant := range participants {
			if err := addChild(enums.ShareItemPlayer, participant.PlayerID, recipient.RecipientSetting.DefaultPermissionPlayers); err != nil {
				return nil, nil, err
			}
		}
	}
	scoresheetID, err := s.matchScoresheet(ctx, lib, match)
	if err != nil {
		return nil, nil, err
	}
	if scoresheetID != nil {
		if err := addChild(enums.ShareItemScoresheet, *scoresheetID, recipient.RecipientSetting.DefaultPermissionGame); err != nil {
			return nil, nil, err
		}
	}

	return root, children, nil
}

// matchScoresheet picks the sheet shared with the match: the one the match
// was scored on, or the owner's default sheet for the game. A game with no
// sheets at all shares without one.
func (s *service) matchScoresheet(ctx context.Context, lib library.Repository, match *models.Match) (*uuid.UUID, error) {
	if match.ScoresheetID != nil {
		return match.ScoresheetID, nil
	}
	sheet, err := lib.FindDefaultScoresheet(ctx, match.UserID, match.GameID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load default scoresheet")
	}
	return &sheet.ID, nil
}
