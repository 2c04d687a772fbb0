package sharing

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Gravender/boardgames-backend/internal/friends"
	"github.com/Gravender/boardgames-backend/internal/grants"
	"github.com/Gravender/boardgames-backend/internal/library"
	"github.com/Gravender/boardgames-backend/pkg/config"
	"github.com/Gravender/boardgames-backend/pkg/db"
	"github.com/Gravender/boardgames-backend/pkg/db/models"
	"github.com/Gravender/boardgames-backend/pkg/enums"
	pkgerrors "github.com/Gravender/boardgames-backend/pkg/errors"
	"github.com/Gravender/boardgames-backend/pkg/logger"
	"github.com/Gravender/boardgames-backend/pkg/metrics"
	"github.com/Gravender/boardgames-backend/pkg/outbox"
	"github.com/Gravender/boardgames-backend/pkg/pagination"
	"github.com/Gravender/boardgames-backend/pkg/security"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type outboxPublisher interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

// Service exposes the share request lifecycle: create a tree, resolve it
// through acceptance or rejection, withdraw it, and read it back.
type Service interface {
	Create(ctx context.Context, input CreateInput) (ShareRequestDTO, error)
	Accept(ctx context.Context, input AcceptInput) (AcceptResultDTO, error)
	Reject(ctx context.Context, input RejectInput) error
	Cancel(ctx context.Context, input CancelInput) error
	ResolveByToken(ctx context.Context, token string) (ShareRequestDTO, error)
	ListOutgoing(ctx context.Context, ownerID uuid.UUID, params pagination.Params) (SharePageDTO, error)
	ListIncoming(ctx context.Context, recipientID uuid.UUID, params pagination.Params) (SharePageDTO, error)
}

// ServiceParams groups dependencies for the sharing service.
type ServiceParams struct {
	Repo         Repository
	Library      library.Repository
	Friends      friends.Repository
	Materializer *grants.Materializer
	TxRunner     txRunner
	Outbox       outboxPublisher
	Logger       *logger.Logger
	Metrics      *metrics.SharingMetrics
	Config       config.SharingConfig
}

type service struct {
	repo         Repository
	library      library.Repository
	friends      friends.Repository
	materializer *grants.Materializer
	tx           txRunner
	outbox       outboxPublisher
	logg         *logger.Logger
	metrics      *metrics.SharingMetrics
	cfg          config.SharingConfig
}

// NewService builds a sharing service with the required dependencies.
func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "sharing repo is required")
	}
	if params.Library == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "library repo is required")
	}
	if params.Friends == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "friends repo is required")
	}
	if params.Materializer == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "grant materializer is required")
	}
	if params.TxRunner == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "transaction runner is required")
	}
	if params.Outbox == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "outbox publisher is required")
	}
	return &service{
		repo:         params.Repo,
		library:      params.Library,
		friends:      params.Friends,
		materializer: params.Materializer,
		tx:           params.TxRunner,
		outbox:       params.Outbox,
		logg:         params.Logger,
		metrics:      params.Metrics,
		cfg:          params.Config,
	}, nil
}

// Create validates ownership and recipient policy, then writes the tree and
// its outbox event in one transaction.
func (s *service) Create(ctx context.Context, input CreateInput) (ShareRequestDTO, error) {
	if input.OwnerID == uuid.Nil {
		return ShareRequestDTO{}, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	if !input.ItemType.IsValid() {
		return ShareRequestDTO{}, pkgerrors.New(pkgerrors.CodeValidation, "invalid item type")
	}
	if input.ItemID == uuid.Nil {
		return ShareRequestDTO{}, pkgerrors.New(pkgerrors.CodeValidation, "item id is required")
	}
	if input.Permission == "" {
		input.Permission = enums.SharePermissionView
	}
	if !input.Permission.IsValid() {
		return ShareRequestDTO{}, pkgerrors.New(pkgerrors.CodeValidation, "invalid permission")
	}
	if input.SharedWithID != nil && *input.SharedWithID == input.OwnerID {
		return ShareRequestDTO{}, pkgerrors.New(pkgerrors.CodeValidation, "cannot share with yourself")
	}
	for _, child := range input.Children {
		if !child.ItemType.IsValid() {
			return ShareRequestDTO{}, pkgerrors.New(pkgerrors.CodeValidation, "invalid child item type")
		}
		if child.ItemID == uuid.Nil {
			return ShareRequestDTO{}, pkgerrors.New(pkgerrors.CodeValidation, "child item id is required")
		}
	}

	if err := s.verifyOwnership(ctx, input.OwnerID, input.ItemType, input.ItemID); err != nil {
		return ShareRequestDTO{}, err
	}
	for _, child := range input.Children {
		if err := s.verifyOwnership(ctx, input.OwnerID, child.ItemType, child.ItemID); err != nil {
			return ShareRequestDTO{}, err
		}
	}

	if input.SharedWithID != nil {
		if err := s.verifyRecipientPolicy(ctx, input.OwnerID, *input.SharedWithID, input.ItemType); err != nil {
			return ShareRequestDTO{}, err
		}

		since := time.Now().Add(-s.cfg.DuplicateWindow)
		duplicate, err := s.repo.FindActiveDuplicate(ctx, input.OwnerID, input.ItemType, input.ItemID, *input.SharedWithID, since)
		if err != nil {
			return ShareRequestDTO{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check duplicate share")
		}
		if duplicate != nil {
			return ShareRequestDTO{}, pkgerrors.New(pkgerrors.CodeConflict, "an identical share is already active")
		}
	}

	token, err := security.GenerateShareToken()
	if err != nil {
		return ShareRequestDTO{}, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "generate share token")
	}

	expiresAt := input.ExpiresAt
	if input.SharedWithID == nil && expiresAt == nil {
		t := time.Now().Add(s.cfg.DefaultLinkExpiry)
		expiresAt = &t
	}

	root := models.ShareRequest{
		OwnerID:      input.OwnerID,
		SharedWithID: input.SharedWithID,
		ItemType:     input.ItemType,
		ItemID:       input.ItemID,
		Permission:   input.Permission,
		Status:       enums.ShareStatusPending,
		Token:        token,
		ExpiresAt:    expiresAt,
	}
	children := make([]models.ShareRequest, 0, len(input.Children))
	for _, child := range input.Children {
		permission := child.Permission
		if permission == "" {
			permission = input.Permission
		}
		childToken, err := security.GenerateShareToken()
		if err != nil {
			return ShareRequestDTO{}, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "generate share token")
		}
		children = append(children, models.ShareRequest{
			OwnerID:      input.OwnerID,
			SharedWithID: input.SharedWithID,
			ItemType:     child.ItemType,
			ItemID:       child.ItemID,
			Permission:   permission,
			Status:       enums.ShareStatusPending,
			Token:        childToken,
			ExpiresAt:    expiresAt,
		})
	}

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		if err := repo.CreateTree(ctx, &root, children); err != nil {
			// A racing create loses to the one-active-root index.
			if db.IsUniqueViolation(err, "uq_share_requests_active") {
				return pkgerrors.New(pkgerrors.CodeConflict, "an identical share is already active")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create share request tree")
		}
		event := outbox.DomainEvent{
			EventType:     enums.EventShareRequested,
			AggregateType: enums.AggregateShareRequest,
			AggregateID:   root.ID,
			Actor:         &outbox.ActorRef{UserID: input.OwnerID},
			Data: outbox.ShareRequestedPayload{
				ShareRequestID: root.ID,
				OwnerID:        root.OwnerID,
				SharedWithID:   root.SharedWithID,
				ItemType:       root.ItemType,
				ItemID:         root.ItemID,
				ChildCount:     len(children),
				ExpiresAt:      root.ExpiresAt,
			},
			Version: 1,
		}
		return s.outbox.Emit(ctx, tx, event)
	})
	if err != nil {
		return ShareRequestDTO{}, err
	}

	s.metrics.IncRequest("created")
	if s.logg != nil {
		s.logg.Info(s.logg.WithShareRequestID(ctx, root.ID.String()), "share request created")
	}
	return toTreeDTO(root, children, s.shareURL(token)), nil
}

// Accept resolves a pending tree. The call itself accepts the root; child
// nodes are accepted only when named in AcceptChildIDs and omitted children
// are rejected. Everything is granted atomically inside one transaction
// while the root row is locked.
func (s *service) Accept(ctx context.Context, input AcceptInput) (AcceptResultDTO, error) {
	if input.ShareRequestID == uuid.Nil {
		return AcceptResultDTO{}, pkgerrors.New(pkgerrors.CodeValidation, "share request id is required")
	}
	if input.RecipientID == uuid.Nil {
		return AcceptResultDTO{}, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}

	started := time.Now()
	var result AcceptResultDTO
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		root, err := repo.LockRoot(ctx, input.ShareRequestID)
		if err != nil {
			return rootLookupError(err)
		}
		if err := s.checkResolvable(root, input.RecipientID); err != nil {
			return err
		}

		if root.IsPublicLink() {
			if err := repo.ClaimRecipient(ctx, root.ID, input.RecipientID); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "claim public share")
			}
		}

		children, err := repo.FindDescendants(ctx, root.ID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load share request tree")
		}

		accepted, rejected, err := partitionTree(*root, children, input.AcceptChildIDs)
		if err != nil {
			return err
		}

		items := make([]grants.ItemRef, 0, len(accepted))
		acceptedIDs := make([]uuid.UUID, 0, len(accepted))
		for _, node := range accepted {
			items = append(items, grants.ItemRef{
				Type:       node.ItemType,
				ID:         node.ItemID,
				Permission: node.Permission,
			})
			acceptedIDs = append(acceptedIDs, node.ID)
		}
		rejectedIDs := make([]uuid.UUID, 0, len(rejected))
		for _, node := range rejected {
			rejectedIDs = append(rejectedIDs, node.ID)
		}

		materialized, err := s.materializer.WithTx(tx).Materialize(ctx, grants.MaterializeInput{
			OwnerID:      root.OwnerID,
			SharedWithID: input.RecipientID,
			Items:        items,
		})
		if err != nil {
			return err
		}
		rootGrantID, ok := materialized.GrantByItem[grants.ItemKey{Type: root.ItemType, ID: root.ItemID}]
		if !ok {
			return pkgerrors.New(pkgerrors.CodeInternal, "accepted root produced no grant")
		}

		if err := repo.UpdateStatus(ctx, acceptedIDs, enums.ShareStatusAccepted); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "mark nodes accepted")
		}
		if err := repo.UpdateStatus(ctx, rejectedIDs, enums.ShareStatusRejected); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "mark nodes rejected")
		}

		recipientID := input.RecipientID
		event := outbox.DomainEvent{
			EventType:     enums.EventShareAccepted,
			AggregateType: enums.AggregateShareRequest,
			AggregateID:   root.ID,
			Actor:         &outbox.ActorRef{UserID: input.RecipientID},
			Data: outbox.ShareResolvedPayload{
				ShareRequestID: root.ID,
				OwnerID:        root.OwnerID,
				SharedWithID:   &recipientID,
				Status:         enums.ShareStatusAccepted,
				AcceptedIDs:    acceptedIDs,
				RejectedIDs:    rejectedIDs,
			},
			Version: 1,
		}
		if err := s.outbox.Emit(ctx, tx, event); err != nil {
			return err
		}

		for itemType, count := range materialized.CreatedByType {
			s.metrics.AddGrants(itemType.String(), count)
		}
		s.metrics.AddGrants("match_player", materialized.MatchPlayers)

		result = AcceptResultDTO{
			ShareRequestID: root.ID,
			RootGrant: RootGrantDTO{
				GrantID:    rootGrantID,
				ItemType:   root.ItemType,
				ItemID:     root.ItemID,
				Permission: root.Permission,
			},
			AcceptedIDs:    acceptedIDs,
			RejectedIDs:    rejectedIDs,
			GrantsCreated:  materialized.Total(),
		}
		return nil
	})
	if err != nil {
		return AcceptResultDTO{}, err
	}

	s.metrics.IncRequest("accepted")
	s.metrics.ObserveAccept(time.Since(started))
	if s.logg != nil {
		s.logg.Info(s.logg.WithShareRequestID(ctx, result.ShareRequestID.String()), "share request accepted")
	}
	return result, nil
}

// Reject marks the whole tree rejected. No grants are written.
func (s *service) Reject(ctx context.Context, input RejectInput) error {
	if input.ShareRequestID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "share request id is required")
	}
	if input.RecipientID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}

	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		root, err := repo.LockRoot(ctx, input.ShareRequestID)
		if err != nil {
			return rootLookupError(err)
		}
		if err := s.checkResolvable(root, input.RecipientID); err != nil {
			return err
		}

		children, err := repo.FindDescendants(ctx, root.ID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load share request tree")
		}
		ids := make([]uuid.UUID, 0, len(children)+1)
		ids = append(ids, root.ID)
		for _, child := range children {
			ids = append(ids, child.ID)
		}
		if err := repo.UpdateStatus(ctx, ids, enums.ShareStatusRejected); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "mark tree rejected")
		}

		recipientID := input.RecipientID
		event := outbox.DomainEvent{
			EventType:     enums.EventShareRejected,
			AggregateType: enums.AggregateShareRequest,
			AggregateID:   root.ID,
			Actor:         &outbox.ActorRef{UserID: input.RecipientID},
			Data: outbox.ShareResolvedPayload{
				ShareRequestID: root.ID,
				OwnerID:        root.OwnerID,
				SharedWithID:   &recipientID,
				Status:         enums.ShareStatusRejected,
				RejectedIDs:    ids,
			},
			Version: 1,
		}
		return s.outbox.Emit(ctx, tx, event)
	})
	if err != nil {
		return err
	}

	s.metrics.IncRequest("rejected")
	return nil
}

// Cancel withdraws a pending tree. Only the owner may cancel, and the rows
// are removed outright so a fresh share is possible immediately.
func (s *service) Cancel(ctx context.Context, input CancelInput) error {
	if input.ShareRequestID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "share request id is required")
	}
	if input.OwnerID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}

	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		root, err := repo.LockRoot(ctx, input.ShareRequestID)
		if err != nil {
			return rootLookupError(err)
		}
		if root.OwnerID != input.OwnerID {
			return pkgerrors.New(pkgerrors.CodeForbidden, "share request does not belong to user")
		}
		if root.Status.IsTerminal() {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "share request already resolved")
		}

		if err := repo.DeleteTree(ctx, root.ID); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete share request tree")
		}

		event := outbox.DomainEvent{
			EventType:     enums.EventShareCanceled,
			AggregateType: enums.AggregateShareRequest,
			AggregateID:   root.ID,
			Actor:         &outbox.ActorRef{UserID: input.OwnerID},
			Data: outbox.ShareResolvedPayload{
				ShareRequestID: root.ID,
				OwnerID:        root.OwnerID,
				SharedWithID:   root.SharedWithID,
				Status:         enums.ShareStatusRejected,
			},
			Version: 1,
		}
		return s.outbox.Emit(ctx, tx, event)
	})
	if err != nil {
		return err
	}

	s.metrics.IncRequest("canceled")
	return nil
}

// ResolveByToken returns the tree behind a public share link.
func (s *service) ResolveByToken(ctx context.Context, token string) (ShareRequestDTO, error) {
	if token == "" {
		return ShareRequestDTO{}, pkgerrors.New(pkgerrors.CodeValidation, "token is required")
	}
	row, err := s.repo.FindByToken(ctx, token)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ShareRequestDTO{}, pkgerrors.New(pkgerrors.CodeNotFound, "share link not found")
		}
		return ShareRequestDTO{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load share link")
	}
	root := row
	if row.ParentShareID != nil {
		root, err = s.repo.FindByID(ctx, rootOf(row))
		if err != nil {
			return ShareRequestDTO{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load share root")
		}
	}
	if root.IsExpired(time.Now()) {
		return ShareRequestDTO{}, pkgerrors.New(pkgerrors.CodeNotFound, "share link expired")
	}
	children, err := s.repo.FindDescendants(ctx, root.ID)
	if err != nil {
		return ShareRequestDTO{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load share request tree")
	}
	return toTreeDTO(*root, children, ""), nil
}

func (s *service) ListOutgoing(ctx context.Context, ownerID uuid.UUID, params pagination.Params) (SharePageDTO, error) {
	if ownerID == uuid.Nil {
		return SharePageDTO{}, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	rows, next, err := s.repo.ListRoots(ctx, ListFilter{
		OwnerID: &ownerID,
		Cursor:  params.Cursor,
		Limit:   params.Limit,
	})
	if err != nil {
		return SharePageDTO{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list outgoing shares")
	}
	return toPageDTO(rows, next), nil
}

func (s *service) ListIncoming(ctx context.Context, recipientID uuid.UUID, params pagination.Params) (SharePageDTO, error) {
	if recipientID == uuid.Nil {
		return SharePageDTO{}, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	rows, next, err := s.repo.ListRoots(ctx, ListFilter{
		SharedWithID: &recipientID,
		Cursor:       params.Cursor,
		Limit:        params.Limit,
	})
	if err != nil {
		return SharePageDTO{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list incoming shares")
	}
	return toPageDTO(rows, next), nil
}

func toPageDTO(rows []models.ShareRequest, next string) SharePageDTO {
	items := make([]ShareRequestDTO, 0, len(rows))
	for _, row := range rows {
		items = append(items, toDTO(row))
	}
	return SharePageDTO{Items: items, NextCursor: next}
}

func (s *service) shareURL(token string) string {
	if s.cfg.ShareBaseURL == "" {
		return ""
	}
	return s.cfg.ShareBaseURL + "/" + token
}

func (s *service) checkResolvable(root *models.ShareRequest, recipientID uuid.UUID) error {
	if root.Status.IsTerminal() {
		return pkgerrors.New(pkgerrors.CodeStateConflict, "share request already resolved")
	}
	if root.IsExpired(time.Now()) {
		return pkgerrors.New(pkgerrors.CodeStateConflict, "share request expired")
	}
	if root.SharedWithID != nil && *root.SharedWithID != recipientID {
		return pkgerrors.New(pkgerrors.CodeForbidden, "share request is addressed to another user")
	}
	return nil
}

func (s *service) verifyOwnership(ctx context.Context, ownerID uuid.UUID, itemType enums.ShareItemType, itemID uuid.UUID) error {
	var itemOwner uuid.UUID
	var err error
	switch itemType {
	case enums.ShareItemGame:
		var game *models.Game
		if game, err = s.library.FindGame(ctx, itemID); err == nil {
			itemOwner = game.UserID
		}
	case enums.ShareItemMatch:
		var match *models.Match
		if match, err = s.library.FindMatch(ctx, itemID); err == nil {
			itemOwner = match.UserID
		}
	case enums.ShareItemPlayer:
		var player *models.Player
		if player, err = s.library.FindPlayer(ctx, itemID); err == nil {
			itemOwner = player.CreatedByID
		}
	case enums.ShareItemLocation:
		var location *models.Location
		if location, err = s.library.FindLocation(ctx, itemID); err == nil {
			itemOwner = location.CreatedByID
		}
	case enums.ShareItemScoresheet:
		var sheet *models.Scoresheet
		if sheet, err = s.library.FindScoresheet(ctx, itemID); err == nil {
			itemOwner = sheet.UserID
		}
	default:
		return pkgerrors.New(pkgerrors.CodeValidation, "invalid item type")
	}
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.New(pkgerrors.CodeNotFound, itemType.String()+" not found")
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load "+itemType.String())
	}
	if itemOwner != ownerID {
		return pkgerrors.New(pkgerrors.CodeForbidden, itemType.String()+" does not belong to user")
	}
	return nil
}

func (s *service) verifyRecipientPolicy(ctx context.Context, ownerID, recipientID uuid.UUID, itemType enums.ShareItemType) error {
	ok, err := s.friends.AreFriends(ctx, ownerID, recipientID)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check friendship")
	}
	if !ok {
		return pkgerrors.New(pkgerrors.CodeForbidden, "recipient is not a friend")
	}

	setting, err := s.friends.FindSetting(ctx, recipientID, ownerID)
	if err != nil {
		// No settings row means the recipient kept the defaults, which
		// allow incoming shares.
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load friend settings")
	}
	if !recipientAllows(*setting, itemType) {
		return pkgerrors.New(pkgerrors.CodeForbidden, "recipient does not accept shared "+itemType.String()+"s")
	}
	return nil
}

func recipientAllows(setting models.FriendSetting, itemType enums.ShareItemType) bool {
	switch itemType {
	case enums.ShareItemGame, enums.ShareItemScoresheet:
		return setting.AllowSharedGames
	case enums.ShareItemMatch:
		return setting.AllowSharedMatches
	case enums.ShareItemPlayer:
		return setting.AllowSharedPlayers
	case enums.ShareItemLocation:
		return setting.AllowSharedLocation
	default:
		return false
	}
}

// partitionTree applies the recipient's decisions. The root is accepted by
// the call itself; a child is accepted only when named, and an omitted child
// is rejected along with its subtree. A tree that bundles scoresheets must
// keep at least one: a shared game is unplayable without a sheet to score on.
func partitionTree(root models.ShareRequest, children []models.ShareRequest, acceptIDs []uuid.UUID) ([]models.ShareRequest, []models.ShareRequest, error) {
	known := map[uuid.UUID]bool{root.ID: true}
	for _, child := range children {
		known[child.ID] = true
	}
	acceptSet := map[uuid.UUID]bool{root.ID: true}
	for _, id := range acceptIDs {
		if !known[id] {
			return nil, nil, pkgerrors.New(pkgerrors.CodeValidation, "accepted node is not part of the share request")
		}
		acceptSet[id] = true
	}

	accepted := []models.ShareRequest{root}
	rejected := []models.ShareRequest{}
	scoresheetSeen := root.ItemType == enums.ShareItemScoresheet
	scoresheetKept := scoresheetSeen
	// children arrive parent-before-child, so the parent's decision is
	// already settled when its subtree comes up.
	for _, child := range children {
		if child.ItemType == enums.ShareItemScoresheet {
			scoresheetSeen = true
		}
		if !acceptSet[child.ID] {
			rejected = append(rejected, child)
			continue
		}
		if child.ParentShareID != nil && !acceptSet[*child.ParentShareID] {
			return nil, nil, pkgerrors.New(pkgerrors.CodeValidation, "cannot accept an item whose parent was declined")
		}
		if child.ItemType == enums.ShareItemScoresheet {
			scoresheetKept = true
		}
		accepted = append(accepted, child)
	}
	if scoresheetSeen && !scoresheetKept {
		return nil, nil, pkgerrors.New(pkgerrors.CodeValidation, "at least one scoresheet must be accepted")
	}
	return accepted, rejected, nil
}

func rootOf(row *models.ShareRequest) uuid.UUID {
	if row.ParentShareID == nil {
		return row.ID
	}
	return *row.ParentShareID
}

func rootLookupError(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return pkgerrors.New(pkgerrors.CodeNotFound, "share request not found")
	}
	return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load share request")
}
