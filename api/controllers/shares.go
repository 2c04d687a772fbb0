package controllers

import (
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/Gravender/boardgames-backend/api/middleware"
	"github.com/Gravender/boardgames-backend/api/responses"
	"github.com/Gravender/boardgames-backend/api/validators"
	"github.com/Gravender/boardgames-backend/internal/grants"
	"github.com/Gravender/boardgames-backend/internal/sharing"
	"github.com/Gravender/boardgames-backend/pkg/enums"
	pkgerrors "github.com/Gravender/boardgames-backend/pkg/errors"
	"github.com/Gravender/boardgames-backend/pkg/logger"
	"github.com/Gravender/boardgames-backend/pkg/pagination"
)

type createShareChildRequest struct {
	ItemType   string `json:"item_type" validate:"required"`
	ItemID     string `json:"item_id" validate:"required,uuid"`
	Permission string `json:"permission" validate:"required"`
}

type createShareRequest struct {
	SharedWithID *string                   `json:"shared_with_id,omitempty" validate:"omitempty,uuid"`
	ItemType     string                    `json:"item_type" validate:"required"`
	ItemID       string                    `json:"item_id" validate:"required,uuid"`
	Permission   string                    `json:"permission" validate:"required"`
	ExpiresAt    *time.Time                `json:"expires_at,omitempty"`
	Children     []createShareChildRequest `json:"children,omitempty" validate:"omitempty,dive"`
}

// CreateShare creates a share request tree owned by the authenticated user.
func CreateShare(svc sharing.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ownerID, err := requireUser(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body createShareRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		input := sharing.CreateInput{
			OwnerID:   ownerID,
			ExpiresAt: body.ExpiresAt,
		}

		if body.SharedWithID != nil {
			recipient, err := uuid.Parse(*body.SharedWithID)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid shared_with_id"))
				return
			}
			input.SharedWithID = &recipient
		}

		input.ItemType, input.ItemID, input.Permission, err = parseShareItem(body.ItemType, body.ItemID, body.Permission)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		for _, child := range body.Children {
			itemType, itemID, permission, err := parseShareItem(child.ItemType, child.ItemID, child.Permission)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}
			input.Children = append(input.Children, sharing.ChildInput{
				ItemType:   itemType,
				ItemID:     itemID,
				Permission: permission,
			})
		}

		resp, err := svc.Create(r.Context(), input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, resp)
	}
}

type acceptShareRequest struct {
	AcceptChildIDs []string `json:"accept_child_ids,omitempty" validate:"omitempty,dive,uuid"`
}

// AcceptShare accepts a share request root along with the listed children.
// Children left off the list are declined.
func AcceptShare(svc sharing.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		recipientID, err := requireUser(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		shareID, err := parsePathUUID(r, "shareId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		input := sharing.AcceptInput{
			ShareRequestID: shareID,
			RecipientID:    recipientID,
		}

		if r.ContentLength != 0 {
			var body acceptShareRequest
			if err := validators.DecodeJSONBody(r, &body); err != nil {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}
			for _, raw := range body.AcceptChildIDs {
				id, err := uuid.Parse(raw)
				if err != nil {
					responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid accept_child_ids entry"))
					return
				}
				input.AcceptChildIDs = append(input.AcceptChildIDs, id)
			}
		}

		resp, err := svc.Accept(r.Context(), input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, resp)
	}
}

// RejectShare declines an entire share request tree.
func RejectShare(svc sharing.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		recipientID, err := requireUser(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		shareID, err := parsePathUUID(r, "shareId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := svc.Reject(r.Context(), sharing.RejectInput{
			ShareRequestID: shareID,
			RecipientID:    recipientID,
		}); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]string{"status": "rejected"})
	}
}

// CancelShare withdraws a pending share request tree the caller owns.
func CancelShare(svc sharing.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ownerID, err := requireUser(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		shareID, err := parsePathUUID(r, "shareId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := svc.Cancel(r.Context(), sharing.CancelInput{
			ShareRequestID: shareID,
			OwnerID:        ownerID,
		}); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]string{"status": "canceled"})
	}
}

// ListOutgoingShares returns the caller's share requests, newest first.
func ListOutgoingShares(svc sharing.Service, logg *logger.Logger) http.HandlerFunc {
	return listShares(svc, logg, func(svc sharing.Service, r *http.Request, userID uuid.UUID, params pagination.Params) (sharing.SharePageDTO, error) {
		return svc.ListOutgoing(r.Context(), userID, params)
	})
}

// ListIncomingShares returns share requests addressed to the caller.
func ListIncomingShares(svc sharing.Service, logg *logger.Logger) http.HandlerFunc {
	return listShares(svc, logg, func(svc sharing.Service, r *http.Request, userID uuid.UUID, params pagination.Params) (sharing.SharePageDTO, error) {
		return svc.ListIncoming(r.Context(), userID, params)
	})
}

func listShares(svc sharing.Service, logg *logger.Logger, fetch func(sharing.Service, *http.Request, uuid.UUID, pagination.Params) (sharing.SharePageDTO, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, err := requireUser(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		limit, err := validators.ParseQueryInt(r, "limit", pagination.DefaultLimit, 1, pagination.MaxLimit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		params := pagination.Params{
			Limit:  limit,
			Cursor: strings.TrimSpace(r.URL.Query().Get("cursor")),
		}

		resp, err := fetch(svc, r, userID, params)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, resp)
	}
}

// ResolveShareLink resolves a public share link token to its request tree.
func ResolveShareLink(svc sharing.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		token := strings.TrimSpace(chi.URLParam(r, "token"))
		if token == "" {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "share token is required"))
			return
		}

		resp, err := svc.ResolveByToken(r.Context(), token)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, resp)
	}
}

type linkGrantRequest struct {
	LinkedItemID *string `json:"linked_item_id,omitempty" validate:"omitempty,uuid"`
}

// LinkGrant points a received grant at one of the caller's own records, or
// clears the link when linked_item_id is null.
func LinkGrant(resolver *grants.Resolver, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		recipientID, err := requireUser(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		itemType, err := enums.ParseShareItemType(chi.URLParam(r, "itemType"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid item type"))
			return
		}

		grantID, err := parsePathUUID(r, "grantId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body linkGrantRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		input := grants.LinkInput{
			ItemType:    itemType,
			GrantID:     grantID,
			RecipientID: recipientID,
		}
		if body.LinkedItemID != nil {
			linked, err := uuid.Parse(*body.LinkedItemID)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid linked_item_id"))
				return
			}
			input.LinkedItemID = &linked
		}

		resp, err := resolver.Link(r.Context(), input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, resp)
	}
}

// ListGrants returns everything granted to the caller, with linked items
// resolved to the caller's own records.
func ListGrants(resolver *grants.Resolver, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		recipientID, err := requireUser(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		resp, err := resolver.ListForRecipient(r.Context(), recipientID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, resp)
	}
}

func requireUser(r *http.Request) (uuid.UUID, error) {
	raw := middleware.UserIDFromContext(r.Context())
	if raw == "" {
		return uuid.Nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	userID, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "invalid user identity")
	}
	return userID, nil
}

func parsePathUUID(r *http.Request, key string) (uuid.UUID, error) {
	raw := strings.TrimSpace(chi.URLParam(r, key))
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid "+key)
	}
	return id, nil
}

func parseShareItem(rawType, rawID, rawPermission string) (enums.ShareItemType, uuid.UUID, enums.SharePermission, error) {
	itemType, err := enums.ParseShareItemType(rawType)
	if err != nil {
		return "", uuid.Nil, "", pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid item_type")
	}
	itemID, err := uuid.Parse(rawID)
	if err != nil {
		return "", uuid.Nil, "", pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid item_id")
	}
	permission, err := enums.ParseSharePermission(rawPermission)
	if err != nil {
		return "", uuid.Nil, "", pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid permission")
	}
	return itemType, itemID, permission, nil
}
