package controllers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/Gravender/boardgames-backend/api/middleware"
	"github.com/Gravender/boardgames-backend/internal/sharing"
	"github.com/Gravender/boardgames-backend/pkg/enums"
	pkgerrors "github.com/Gravender/boardgames-backend/pkg/errors"
	"github.com/Gravender/boardgames-backend/pkg/pagination"
	"github.com/Gravender/boardgames-backend/pkg/types"
)

type stubSharingService struct {
	create         func(context.Context, sharing.CreateInput) (sharing.ShareRequestDTO, error)
	accept         func(context.Context, sharing.AcceptInput) (sharing.AcceptResultDTO, error)
	reject         func(context.Context, sharing.RejectInput) error
	cancel         func(context.Context, sharing.CancelInput) error
	resolveByToken func(context.Context, string) (sharing.ShareRequestDTO, error)
}

func (s stubSharingService) Create(ctx context.Context, input sharing.CreateInput) (sharing.ShareRequestDTO, error) {
	if s.create != nil {
		return s.create(ctx, input)
	}
	return sharing.ShareRequestDTO{}, nil
}

func (s stubSharingService) Accept(ctx context.Context, input sharing.AcceptInput) (sharing.AcceptResultDTO, error) {
	if s.accept != nil {
		return s.accept(ctx, input)
	}
	return sharing.AcceptResultDTO{}, nil
}

func (s stubSharingService) Reject(ctx context.Context, input sharing.RejectInput) error {
	if s.reject != nil {
		return s.reject(ctx, input)
	}
	return nil
}

func (s stubSharingService) Cancel(ctx context.Context, input sharing.CancelInput) error {
	if s.cancel != nil {
		return s.cancel(ctx, input)
	}
	return nil
}

func (s stubSharingService) ResolveByToken(ctx context.Context, token string) (sharing.ShareRequestDTO, error) {
	if s.resolveByToken != nil {
		return s.resolveByToken(ctx, token)
	}
	return sharing.ShareRequestDTO{}, nil
}

func (s stubSharingService) ListOutgoing(ctx context.Context, ownerID uuid.UUID, params pagination.Params) (sharing.SharePageDTO, error) {
	return sharing.SharePageDTO{}, nil
}

func (s stubSharingService) ListIncoming(ctx context.Context, recipientID uuid.UUID, params pagination.Params) (sharing.SharePageDTO, error) {
	return sharing.SharePageDTO{}, nil
}

func authedRequest(method, target, body string, userID uuid.UUID) *http.Request {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
	}
	ctx := middleware.WithUserID(req.Context(), userID.String())
	return req.WithContext(ctx)
}

func withChiParam(req *http.Request, key, value string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add(key, value)
	return req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))
}

func TestCreateShareBuildsInput(t *testing.T) {
	ownerID := uuid.New()
	recipientID := uuid.New()
	gameID := uuid.New()
	matchID := uuid.New()

	var captured sharing.CreateInput
	svc := stubSharingService{
		create: func(_ context.Context, input sharing.CreateInput) (sharing.ShareRequestDTO, error) {
			captured = input
			return sharing.ShareRequestDTO{ID: uuid.New()}, nil
		},
	}

	body := `{
		"shared_with_id": "` + recipientID.String() + `",
		"item_type": "match",
		"item_id": "` + matchID.String() + `",
		"permission": "view",
		"children": [
			{"item_type": "game", "item_id": "` + gameID.String() + `", "permission": "view"}
		]
	}`
	req := authedRequest(http.MethodPost, "/api/v1/shares", body, ownerID)
	resp := httptest.NewRecorder()
	CreateShare(svc, nil)(resp, req)

	if resp.Code != http.StatusCreated {
		t.Fatalf("expected 201 got %d: %s", resp.Code, resp.Body.String())
	}
	if captured.OwnerID != ownerID {
		t.Fatalf("unexpected owner: %s", captured.OwnerID)
	}
	if captured.SharedWithID == nil || *captured.SharedWithID != recipientID {
		t.Fatalf("unexpected recipient: %v", captured.SharedWithID)
	}
	if captured.ItemType != enums.ShareItemMatch || captured.ItemID != matchID {
		t.Fatalf("unexpected root item: %s %s", captured.ItemType, captured.ItemID)
	}
	if len(captured.Children) != 1 || captured.Children[0].ItemType != enums.ShareItemGame {
		t.Fatalf("unexpected children: %+v", captured.Children)
	}
}

func TestCreateShareAllowsPublicLink(t *testing.T) {
	ownerID := uuid.New()
	var captured sharing.CreateInput
	svc := stubSharingService{
		create: func(_ context.Context, input sharing.CreateInput) (sharing.ShareRequestDTO, error) {
			captured = input
			return sharing.ShareRequestDTO{}, nil
		},
	}

	body := `{"item_type": "game", "item_id": "` + uuid.NewString() + `", "permission": "view"}`
	req := authedRequest(http.MethodPost, "/api/v1/shares", body, ownerID)
	resp := httptest.NewRecorder()
	CreateShare(svc, nil)(resp, req)

	if resp.Code != http.StatusCreated {
		t.Fatalf("expected 201 got %d", resp.Code)
	}
	if captured.SharedWithID != nil {
		t.Fatalf("expected public link input, got recipient %v", captured.SharedWithID)
	}
}

func TestCreateShareRejectsUnknownItemType(t *testing.T) {
	svc := stubSharingService{}
	body := `{"item_type": "poem", "item_id": "` + uuid.NewString() + `", "permission": "view"}`
	req := authedRequest(http.MethodPost, "/api/v1/shares", body, uuid.New())
	resp := httptest.NewRecorder()
	CreateShare(svc, nil)(resp, req)

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
}

func TestCreateShareRequiresUser(t *testing.T) {
	svc := stubSharingService{}
	req := httptest.NewRequest(http.MethodPost, "/api/v1/shares", strings.NewReader(`{}`))
	resp := httptest.NewRecorder()
	CreateShare(svc, nil)(resp, req)

	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 got %d", resp.Code)
	}
}

func TestAcceptSharePassesAcceptedChildren(t *testing.T) {
	recipientID := uuid.New()
	shareID := uuid.New()
	childID := uuid.New()

	var captured sharing.AcceptInput
	svc := stubSharingService{
		accept: func(_ context.Context, input sharing.AcceptInput) (sharing.AcceptResultDTO, error) {
			captured = input
			return sharing.AcceptResultDTO{ShareRequestID: input.ShareRequestID}, nil
		},
	}

	body := `{"accept_child_ids": ["` + childID.String() + `"]}`
	req := authedRequest(http.MethodPost, "/api/v1/shares/"+shareID.String()+"/accept", body, recipientID)
	req = withChiParam(req, "shareId", shareID.String())
	resp := httptest.NewRecorder()
	AcceptShare(svc, nil)(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d: %s", resp.Code, resp.Body.String())
	}
	if captured.ShareRequestID != shareID || captured.RecipientID != recipientID {
		t.Fatalf("unexpected input: %+v", captured)
	}
	if len(captured.AcceptChildIDs) != 1 || captured.AcceptChildIDs[0] != childID {
		t.Fatalf("unexpected accepted ids: %v", captured.AcceptChildIDs)
	}
}

func TestAcceptShareWithoutBody(t *testing.T) {
	svc := stubSharingService{
		accept: func(_ context.Context, input sharing.AcceptInput) (sharing.AcceptResultDTO, error) {
			if len(input.AcceptChildIDs) != 0 {
				t.Fatalf("expected no child decisions, got %v", input.AcceptChildIDs)
			}
			return sharing.AcceptResultDTO{}, nil
		},
	}

	shareID := uuid.New()
	req := authedRequest(http.MethodPost, "/api/v1/shares/"+shareID.String()+"/accept", "", uuid.New())
	req = withChiParam(req, "shareId", shareID.String())
	resp := httptest.NewRecorder()
	AcceptShare(svc, nil)(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
}

func TestAcceptShareMapsServiceErrors(t *testing.T) {
	svc := stubSharingService{
		accept: func(context.Context, sharing.AcceptInput) (sharing.AcceptResultDTO, error) {
			return sharing.AcceptResultDTO{}, pkgerrors.New(pkgerrors.CodeStateConflict, "request already resolved")
		},
	}

	shareID := uuid.New()
	req := authedRequest(http.MethodPost, "/api/v1/shares/"+shareID.String()+"/accept", "", uuid.New())
	req = withChiParam(req, "shareId", shareID.String())
	resp := httptest.NewRecorder()
	AcceptShare(svc, nil)(resp, req)

	if resp.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422 got %d", resp.Code)
	}

	var body types.ErrorEnvelope
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode error envelope: %v", err)
	}
	if body.Error.Code != string(pkgerrors.CodeStateConflict) {
		t.Fatalf("unexpected code %s", body.Error.Code)
	}
}

func TestCancelShareUsesOwnerIdentity(t *testing.T) {
	ownerID := uuid.New()
	shareID := uuid.New()

	var captured sharing.CancelInput
	svc := stubSharingService{
		cancel: func(_ context.Context, input sharing.CancelInput) error {
			captured = input
			return nil
		},
	}

	req := authedRequest(http.MethodDelete, "/api/v1/shares/"+shareID.String(), "", ownerID)
	req = withChiParam(req, "shareId", shareID.String())
	resp := httptest.NewRecorder()
	CancelShare(svc, nil)(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
	if captured.OwnerID != ownerID || captured.ShareRequestID != shareID {
		t.Fatalf("unexpected input: %+v", captured)
	}
}

func TestResolveShareLinkByToken(t *testing.T) {
	svc := stubSharingService{
		resolveByToken: func(_ context.Context, token string) (sharing.ShareRequestDTO, error) {
			if token != "tok123" {
				t.Fatalf("unexpected token %q", token)
			}
			return sharing.ShareRequestDTO{ID: uuid.New()}, nil
		},
	}

	req := httptest.NewRequest(http.MethodGet, "/api/public/shares/tok123", nil)
	req = withChiParam(req, "token", "tok123")
	resp := httptest.NewRecorder()
	ResolveShareLink(svc, nil)(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
}

func TestResolveShareLinkNotFound(t *testing.T) {
	svc := stubSharingService{
		resolveByToken: func(context.Context, string) (sharing.ShareRequestDTO, error) {
			return sharing.ShareRequestDTO{}, pkgerrors.New(pkgerrors.CodeNotFound, "share link not found")
		},
	}

	req := httptest.NewRequest(http.MethodGet, "/api/public/shares/expired", nil)
	req = withChiParam(req, "token", "expired")
	resp := httptest.NewRecorder()
	ResolveShareLink(svc, nil)(resp, req)

	if resp.Code != http.StatusNotFound {
		t.Fatalf("expected 404 got %d", resp.Code)
	}
}
