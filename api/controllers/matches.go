package controllers

import (
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/Gravender/boardgames-backend/api/responses"
	"github.com/Gravender/boardgames-backend/api/validators"
	"github.com/Gravender/boardgames-backend/internal/library"
	pkgerrors "github.com/Gravender/boardgames-backend/pkg/errors"
	"github.com/Gravender/boardgames-backend/pkg/logger"
)

type createMatchRequest struct {
	GameID       string     `json:"game_id" validate:"required,uuid"`
	LocationID   *string    `json:"location_id,omitempty" validate:"omitempty,uuid"`
	ScoresheetID *string    `json:"scoresheet_id,omitempty" validate:"omitempty,uuid"`
	Name         string     `json:"name" validate:"required,max=120"`
	PlayedAt     *time.Time `json:"played_at,omitempty"`
	PlayerIDs    []string   `json:"player_ids,omitempty" validate:"omitempty,dive,uuid"`
}

// CreateMatch records a played match and triggers friend auto-sharing.
func CreateMatch(svc library.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, err := requireUser(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body createMatchRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		gameID, err := uuid.Parse(body.GameID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid game_id"))
			return
		}

		input := library.CreateMatchInput{
			UserID: userID,
			GameID: gameID,
			Name:   validators.SanitizeString(body.Name, 120),
		}

		if body.PlayedAt != nil {
			input.PlayedAt = *body.PlayedAt
		} else {
			input.PlayedAt = time.Now().UTC()
		}

		if body.LocationID != nil {
			locationID, err := uuid.Parse(*body.LocationID)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid location_id"))
				return
			}
			input.LocationID = &locationID
		}

		if body.ScoresheetID != nil {
			scoresheetID, err := uuid.Parse(*body.ScoresheetID)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid scoresheet_id"))
				return
			}
			input.ScoresheetID = &scoresheetID
		}

		for _, raw := range body.PlayerIDs {
			playerID, err := uuid.Parse(raw)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid player_ids entry"))
				return
			}
			input.PlayerIDs = append(input.PlayerIDs, playerID)
		}

		resp, err := svc.CreateMatch(r.Context(), input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, resp)
	}
}
