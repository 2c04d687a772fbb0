package controllers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/Gravender/boardgames-backend/internal/library"
	pkgerrors "github.com/Gravender/boardgames-backend/pkg/errors"
)

type stubLibraryService struct {
	createMatch func(context.Context, library.CreateMatchInput) (library.MatchDTO, error)
}

func (s stubLibraryService) CreateMatch(ctx context.Context, input library.CreateMatchInput) (library.MatchDTO, error) {
	if s.createMatch != nil {
		return s.createMatch(ctx, input)
	}
	return library.MatchDTO{}, nil
}

func TestCreateMatchBuildsInput(t *testing.T) {
	userID := uuid.New()
	gameID := uuid.New()
	playerID := uuid.New()
	playedAt := time.Date(2026, 4, 2, 19, 30, 0, 0, time.UTC)

	var captured library.CreateMatchInput
	svc := stubLibraryService{
		createMatch: func(_ context.Context, input library.CreateMatchInput) (library.MatchDTO, error) {
			captured = input
			return library.MatchDTO{ID: uuid.New()}, nil
		},
	}

	body := `{
		"game_id": "` + gameID.String() + `",
		"name": "  Friday night Catan  ",
		"played_at": "` + playedAt.Format(time.RFC3339) + `",
		"player_ids": ["` + playerID.String() + `"]
	}`
	req := authedRequest(http.MethodPost, "/api/v1/matches", body, userID)
	resp := httptest.NewRecorder()
	CreateMatch(svc, nil)(resp, req)

	if resp.Code != http.StatusCreated {
		t.Fatalf("expected 201 got %d: %s", resp.Code, resp.Body.String())
	}
	if captured.UserID != userID || captured.GameID != gameID {
		t.Fatalf("unexpected identity: %+v", captured)
	}
	if captured.Name != "Friday night Catan" {
		t.Fatalf("expected trimmed name, got %q", captured.Name)
	}
	if !captured.PlayedAt.Equal(playedAt) {
		t.Fatalf("unexpected played_at: %s", captured.PlayedAt)
	}
	if len(captured.PlayerIDs) != 1 || captured.PlayerIDs[0] != playerID {
		t.Fatalf("unexpected players: %v", captured.PlayerIDs)
	}
}

func TestCreateMatchDefaultsPlayedAt(t *testing.T) {
	var captured library.CreateMatchInput
	svc := stubLibraryService{
		createMatch: func(_ context.Context, input library.CreateMatchInput) (library.MatchDTO, error) {
			captured = input
			return library.MatchDTO{}, nil
		},
	}

	body := `{"game_id": "` + uuid.NewString() + `", "name": "quick game"}`
	req := authedRequest(http.MethodPost, "/api/v1/matches", body, uuid.New())
	resp := httptest.NewRecorder()
	CreateMatch(svc, nil)(resp, req)

	if resp.Code != http.StatusCreated {
		t.Fatalf("expected 201 got %d", resp.Code)
	}
	if captured.PlayedAt.IsZero() {
		t.Fatal("expected played_at to default to now")
	}
}

func TestCreateMatchRejectsMissingName(t *testing.T) {
	svc := stubLibraryService{}
	body := `{"game_id": "` + uuid.NewString() + `"}`
	req := authedRequest(http.MethodPost, "/api/v1/matches", body, uuid.New())
	resp := httptest.NewRecorder()
	CreateMatch(svc, nil)(resp, req)

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
}

func TestCreateMatchMapsOwnershipError(t *testing.T) {
	svc := stubLibraryService{
		createMatch: func(context.Context, library.CreateMatchInput) (library.MatchDTO, error) {
			return library.MatchDTO{}, pkgerrors.New(pkgerrors.CodeForbidden, "game belongs to another user")
		},
	}

	body := `{"game_id": "` + uuid.NewString() + `", "name": "not mine"}`
	req := authedRequest(http.MethodPost, "/api/v1/matches", body, uuid.New())
	resp := httptest.NewRecorder()
	CreateMatch(svc, nil)(resp, req)

	if resp.Code != http.StatusForbidden {
		t.Fatalf("expected 403 got %d", resp.Code)
	}
}
