package library

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Gravender/boardgames-backend/pkg/db/models"
	pkgerrors "github.com/Gravender/boardgames-backend/pkg/errors"
	"github.com/Gravender/boardgames-backend/pkg/logger"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// MatchShareHook runs inside the match-creation transaction after the match
// and its participants are persisted.
type MatchShareHook interface {
	OnMatchCreated(ctx context.Context, tx *gorm.DB, match *models.Match) error
}

// CreateMatchInput carries a new match record and its participants.
type CreateMatchInput struct {
	UserID       uuid.UUID
	GameID       uuid.UUID
	LocationID   *uuid.UUID
	ScoresheetID *uuid.UUID
	Name         string
	PlayedAt     time.Time
	PlayerIDs    []uuid.UUID
}

// MatchDTO is the API projection of a match.
type MatchDTO struct {
	ID           uuid.UUID   `json:"id"`
	UserID       uuid.UUID   `json:"user_id"`
	GameID       uuid.UUID   `json:"game_id"`
	LocationID   *uuid.UUID  `json:"location_id,omitempty"`
	ScoresheetID *uuid.UUID  `json:"scoresheet_id,omitempty"`
	Name         string      `json:"name"`
	PlayedAt     time.Time   `json:"played_at"`
	PlayerIDs    []uuid.UUID `json:"player_ids"`
	CreatedAt    time.Time   `json:"created_at"`
}

// Service records matches into a user's library.
type Service interface {
	CreateMatch(ctx context.Context, input CreateMatchInput) (MatchDTO, error)
}

// ServiceParams groups dependencies for the library service.
type ServiceParams struct {
	Repo      Repository
	TxRunner  txRunner
	ShareHook MatchShareHook
	Logger    *logger.Logger
}

type service struct {
	repo      Repository
	tx        txRunner
	shareHook MatchShareHook
	logg      *logger.Logger
}

// NewService builds a library service with the required dependencies.
func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "library repo is required")
	}
	if params.TxRunner == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "transaction runner is required")
	}
	return &service{
		repo:      params.Repo,
		tx:        params.TxRunner,
		shareHook: params.ShareHook,
		logg:      params.Logger,
	}, nil
}

// CreateMatch persists the match with its participants and, in the same
// transaction, fans it out to auto-share recipients. When no scoresheet is
// supplied the game's default sheet is used if one exists.
func (s *service) CreateMatch(ctx context.Context, input CreateMatchInput) (MatchDTO, error) {
	if input.UserID == uuid.Nil {
		return MatchDTO{}, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	if input.GameID == uuid.Nil {
		return MatchDTO{}, pkgerrors.New(pkgerrors.CodeValidation, "game id is required")
	}
	if input.Name == "" {
		return MatchDTO{}, pkgerrors.New(pkgerrors.CodeValidation, "match name is required")
	}

	game, err := s.repo.FindGame(ctx, input.GameID)
	if err != nil {
		return MatchDTO{}, lookupError(err, "game")
	}
	if game.UserID != input.UserID {
		return MatchDTO{}, pkgerrors.New(pkgerrors.CodeForbidden, "game does not belong to user")
	}
	if input.LocationID != nil {
		location, err := s.repo.FindLocation(ctx, *input.LocationID)
		if err != nil {
			return MatchDTO{}, lookupError(err, "location")
		}
		if location.CreatedByID != input.UserID {
			return MatchDTO{}, pkgerrors.New(pkgerrors.CodeForbidden, "location does not belong to user")
		}
	}
	for _, playerID := range input.PlayerIDs {
		player, err := s.repo.FindPlayer(ctx, playerID)
		if err != nil {
			return MatchDTO{}, lookupError(err, "player")
		}
		if player.CreatedByID != input.UserID {
			return MatchDTO{}, pkgerrors.New(pkgerrors.CodeForbidden, "player does not belong to user")
		}
	}

	scoresheetID := input.ScoresheetID
	if scoresheetID == nil {
		sheet, err := s.repo.FindDefaultScoresheet(ctx, input.UserID, input.GameID)
		if err == nil {
			scoresheetID = &sheet.ID
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return MatchDTO{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load default scoresheet")
		}
	} else {
		sheet, err := s.repo.FindScoresheet(ctx, *scoresheetID)
		if err != nil {
			return MatchDTO{}, lookupError(err, "scoresheet")
		}
		if sheet.UserID != input.UserID {
			return MatchDTO{}, pkgerrors.New(pkgerrors.CodeForbidden, "scoresheet does not belong to user")
		}
	}

	playedAt := input.PlayedAt
	if playedAt.IsZero() {
		playedAt = time.Now()
	}
	match := models.Match{
		UserID:       input.UserID,
		GameID:       input.GameID,
		LocationID:   input.LocationID,
		ScoresheetID: scoresheetID,
		Name:         input.Name,
		PlayedAt:     playedAt,
	}

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		if err := repo.CreateMatch(ctx, &match); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create match")
		}
		participants := make([]models.MatchPlayer, 0, len(input.PlayerIDs))
		for _, playerID := range input.PlayerIDs {
			participants = append(participants, models.MatchPlayer{
				MatchID:  match.ID,
				PlayerID: playerID,
			})
		}
		if err := repo.CreateMatchPlayers(ctx, participants); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create match participants")
		}
		if s.shareHook != nil {
			if err := s.shareHook.OnMatchCreated(ctx, tx, &match); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return MatchDTO{}, err
	}

	if s.logg != nil {
		s.logg.Info(ctx, "match created")
	}
	return MatchDTO{
		ID:           match.ID,
		UserID:       match.UserID,
		GameID:       match.GameID,
		LocationID:   match.LocationID,
		ScoresheetID: match.ScoresheetID,
		Name:         match.Name,
		PlayedAt:     match.PlayedAt,
		PlayerIDs:    input.PlayerIDs,
		CreatedAt:    match.CreatedAt,
	}, nil
}

func lookupError(err error, kind string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return pkgerrors.New(pkgerrors.CodeNotFound, kind+" not found")
	}
	return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load "+kind)
}
