package library

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Gravender/boardgames-backend/pkg/db/models"
)

// Repository exposes lookups over a user's own games, matches, players,
// locations, and scoresheets. The share engine validates ownership and
// resolves grant dependencies through it.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	FindGame(ctx context.Context, id uuid.UUID) (*models.Game, error)
	FindMatch(ctx context.Context, id uuid.UUID) (*models.Match, error)
	FindPlayer(ctx context.Context, id uuid.UUID) (*models.Player, error)
	FindLocation(ctx context.Context, id uuid.UUID) (*models.Location, error)
	FindScoresheet(ctx context.Context, id uuid.UUID) (*models.Scoresheet, error)
	FindMatchPlayers(ctx context.Context, matchID uuid.UUID) ([]models.MatchPlayer, error)
	FindDefaultScoresheet(ctx context.Context, userID, gameID uuid.UUID) (*models.Scoresheet, error)
	CreateMatch(ctx context.Context, match *models.Match) error
	CreateMatchPlayers(ctx context.Context, players []models.MatchPlayer) error
}

type repository struct {
	db *gorm.DB
}

// NewRepository builds a library repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) FindGame(ctx context.Context, id uuid.UUID) (*models.Game, error) {
	var game models.Game
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&game).Error; err != nil {
		return nil, err
	}
	return &game, nil
}

func (r *repository) FindMatch(ctx context.Context, id uuid.UUID) (*models.Match, error) {
	var match models.Match
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&match).Error; err != nil {
		return nil, err
	}
	return &match, nil
}

func (r *repository) FindPlayer(ctx context.Context, id uuid.UUID) (*models.Player, error) {
	var player models.Player
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&player).Error; err != nil {
		return nil, err
	}
	return &player, nil
}

func (r *repository) FindLocation(ctx context.Context, id uuid.UUID) (*models.Location, error) {
	var location models.Location
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&location).Error; err != nil {
		return nil, err
	}
	return &location, nil
}

func (r *repository) FindScoresheet(ctx context.Context, id uuid.UUID) (*models.Scoresheet, error) {
	var sheet models.Scoresheet
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&sheet).Error; err != nil {
		return nil, err
	}
	return &sheet, nil
}

func (r *repository) FindMatchPlayers(ctx context.Context, matchID uuid.UUID) ([]models.MatchPlayer, error) {
	var rows []models.MatchPlayer
	err := r.db.WithContext(ctx).
		Where("match_id = ?", matchID).
		Order("created_at ASC").
		Find(&rows).Error
	return rows, err
}

func (r *repository) FindDefaultScoresheet(ctx context.Context, userID, gameID uuid.UUID) (*models.Scoresheet, error) {
	var sheet models.Scoresheet
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND game_id = ? AND is_default = TRUE", userID, gameID).
		First(&sheet).Error
	if err != nil {
		return nil, err
	}
	return &sheet, nil
}

func (r *repository) CreateMatch(ctx context.Context, match *models.Match) error {
	return r.db.WithContext(ctx).Create(match).Error
}

func (r *repository) CreateMatchPlayers(ctx context.Context, players []models.MatchPlayer) error {
	if len(players) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Create(&players).Error
}
