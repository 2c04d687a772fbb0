package sharing

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Gravender/boardgames-backend/internal/friends"
	"github.com/Gravender/boardgames-backend/internal/grants"
	"github.com/Gravender/boardgames-backend/internal/library"
	"github.com/Gravender/boardgames-backend/pkg/config"
	"github.com/Gravender/boardgames-backend/pkg/db/models"
	"github.com/Gravender/boardgames-backend/pkg/enums"
	pkgerrors "github.com/Gravender/boardgames-backend/pkg/errors"
	"github.com/Gravender/boardgames-backend/pkg/outbox"
	"github.com/Gravender/boardgames-backend/pkg/pagination"
)

type statusUpdate struct {
	ids    []uuid.UUID
	status enums.ShareStatus
}

type stubShareRepo struct {
	createdRoot     *models.ShareRequest
	createdChildren []models.ShareRequest
	createErr       error

	lockRoot *models.ShareRequest
	lockErr  error

	descendants []models.ShareRequest

	duplicate *models.ShareRequest

	tokenRow *models.ShareRequest
	byIDRow  *models.ShareRequest

	statusUpdates []statusUpdate
	claimedWith   *uuid.UUID
	deletedRoot   *uuid.UUID

	listRows   []models.ShareRequest
	listFilter ListFilter
}

func (s *stubShareRepo) WithTx(tx *gorm.DB) Repository { return s }

func (s *stubShareRepo) CreateTree(ctx context.Context, root *models.ShareRequest, children []models.ShareRequest) error {
	if s.createErr != nil {
		return s.createErr
	}
	root.ID = uuid.New()
	for i := range children {
		children[i].ID = uuid.New()
		children[i].ParentShareID = &root.ID
	}
	s.createdRoot = root
	s.createdChildren = children
	return nil
}

func (s *stubShareRepo) FindByID(ctx context.Context, id uuid.UUID) (*models.ShareRequest, error) {
	if s.byIDRow == nil {
		return nil, gorm.ErrRecordNotFound
	}
	return s.byIDRow, nil
}

func (s *stubShareRepo) FindByToken(ctx context.Context, token string) (*models.ShareRequest, error) {
	if s.tokenRow == nil {
		return nil, gorm.ErrRecordNotFound
	}
	return s.tokenRow, nil
}

func (s *stubShareRepo) LockRoot(ctx context.Context, id uuid.UUID) (*models.ShareRequest, error) {
	if s.lockErr != nil {
		return nil, s.lockErr
	}
	if s.lockRoot == nil {
		return nil, gorm.ErrRecordNotFound
	}
	return s.lockRoot, nil
}

func (s *stubShareRepo) FindDescendants(ctx context.Context, rootID uuid.UUID) ([]models.ShareRequest, error) {
	return s.descendants, nil
}

func (s *stubShareRepo) FindActiveDuplicate(ctx context.Context, ownerID uuid.UUID, itemType enums.ShareItemType, itemID uuid.UUID, sharedWithID uuid.UUID, since time.Time) (*models.ShareRequest, error) {
	return s.duplicate, nil
}

func (s *stubShareRepo) UpdateStatus(ctx context.Context, ids []uuid.UUID, status enums.ShareStatus) error {
	s.statusUpdates = append(s.statusUpdates, statusUpdate{ids: ids, status: status})
	return nil
}

func (s *stubShareRepo) ClaimRecipient(ctx context.Context, id uuid.UUID, recipientID uuid.UUID) error {
	s.claimedWith = &recipientID
	return nil
}

func (s *stubShareRepo) DeleteTree(ctx context.Context, rootID uuid.UUID) error {
	s.deletedRoot = &rootID
	return nil
}

func (s *stubShareRepo) ListRoots(ctx context.Context, filter ListFilter) ([]models.ShareRequest, string, error) {
	s.listFilter = filter
	return s.listRows, "", nil
}

func (s *stubShareRepo) DeleteExpiredBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	return 0, nil
}

type stubLibraryRepo struct {
	games       map[uuid.UUID]*models.Game
	matches     map[uuid.UUID]*models.Match
	players     map[uuid.UUID]*models.Player
	locations   map[uuid.UUID]*models.Location
	scoresheets map[uuid.UUID]*models.Scoresheet
}

func newStubLibraryRepo() *stubLibraryRepo {
	return &stubLibraryRepo{
		games:       map[uuid.UUID]*models.Game{},
		matches:     map[uuid.UUID]*models.Match{},
		players:     map[uuid.UUID]*models.Player{},
		locations:   map[uuid.UUID]*models.Location{},
		scoresheets: map[uuid.UUID]*models.Scoresheet{},
	}
}

func (s *stubLibraryRepo) WithTx(tx *gorm.DB) library.Repository { return s }

func (s *stubLibraryRepo) FindGame(ctx context.Context, id uuid.UUID) (*models.Game, error) {
	if game, ok := s.games[id]; ok {
		return game, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (s *stubLibraryRepo) FindMatch(ctx context.Context, id uuid.UUID) (*models.Match, error) {
	if match, ok := s.matches[id]; ok {
		return match, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (s *stubLibraryRepo) FindPlayer(ctx context.Context, id uuid.UUID) (*models.Player, error) {
	if player, ok := s.players[id]; ok {
		return player, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (s *stubLibraryRepo) FindLocation(ctx context.Context, id uuid.UUID) (*models.Location, error) {
	if location, ok := s.locations[id]; ok {
		return location, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (s *stubLibraryRepo) FindScoresheet(ctx context.Context, id uuid.UUID) (*models.Scoresheet, error) {
	if sheet, ok := s.scoresheets[id]; ok {
		return sheet, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (s *stubLibraryRepo) FindMatchPlayers(ctx context.Context, matchID uuid.UUID) ([]models.MatchPlayer, error) {
	return nil, nil
}

func (s *stubLibraryRepo) FindDefaultScoresheet(ctx context.Context, userID, gameID uuid.UUID) (*models.Scoresheet, error) {
	return nil, gorm.ErrRecordNotFound
}

func (s *stubLibraryRepo) CreateMatch(ctx context.Context, match *models.Match) error { return nil }

func (s *stubLibraryRepo) CreateMatchPlayers(ctx context.Context, players []models.MatchPlayer) error {
	return nil
}

type stubFriendsRepo struct {
	areFriends bool
	setting    *models.FriendSetting
}

func (s *stubFriendsRepo) WithTx(tx *gorm.DB) friends.Repository { return s }

func (s *stubFriendsRepo) AreFriends(ctx context.Context, userID, friendUserID uuid.UUID) (bool, error) {
	return s.areFriends, nil
}

func (s *stubFriendsRepo) FindSetting(ctx context.Context, createdByID, friendID uuid.UUID) (*models.FriendSetting, error) {
	if s.setting == nil {
		return nil, gorm.ErrRecordNotFound
	}
	return s.setting, nil
}

func (s *stubFriendsRepo) FindAutoShareRecipient(ctx context.Context, ownerID, friendUserID uuid.UUID) (*friends.AutoShareRecipient, error) {
	return nil, nil
}

type stubGrantRepo struct {
	gameShares     map[uuid.UUID]*models.GameShare
	locationShares map[uuid.UUID]*models.LocationShare
	playerShares   map[uuid.UUID]*models.PlayerShare
	matchShares    []*models.MatchShare
	sheetShares    []*models.ScoresheetShare
	upsertErr      error
}

func newStubGrantRepo() *stubGrantRepo {
	return &stubGrantRepo{
		gameShares:     map[uuid.UUID]*models.GameShare{},
		locationShares: map[uuid.UUID]*models.LocationShare{},
		playerShares:   map[uuid.UUID]*models.PlayerShare{},
	}
}

func (s *stubGrantRepo) WithTx(tx *gorm.DB) grants.Repository { return s }

func (s *stubGrantRepo) UpsertGameShare(ctx context.Context, share *models.GameShare) (*models.GameShare, bool, error) {
	if s.upsertErr != nil {
		return nil, false, s.upsertErr
	}
	if existing, ok := s.gameShares[share.GameID]; ok {
		return existing, false, nil
	}
	share.ID = uuid.New()
	s.gameShares[share.GameID] = share
	return share, true, nil
}

func (s *stubGrantRepo) UpsertLocationShare(ctx context.Context, share *models.LocationShare) (*models.LocationShare, bool, error) {
	if existing, ok := s.locationShares[share.LocationID]; ok {
		return existing, false, nil
	}
	share.ID = uuid.New()
	s.locationShares[share.LocationID] = share
	return share, true, nil
}

func (s *stubGrantRepo) UpsertPlayerShare(ctx context.Context, share *models.PlayerShare) (*models.PlayerShare, bool, error) {
	if existing, ok := s.playerShares[share.PlayerID]; ok {
		return existing, false, nil
	}
	share.ID = uuid.New()
	s.playerShares[share.PlayerID] = share
	return share, true, nil
}

func (s *stubGrantRepo) UpsertMatchShare(ctx context.Context, share *models.MatchShare) (*models.MatchShare, bool, error) {
	share.ID = uuid.New()
	s.matchShares = append(s.matchShares, share)
	return share, true, nil
}

func (s *stubGrantRepo) UpsertScoresheetShare(ctx context.Context, share *models.ScoresheetShare) (*models.ScoresheetShare, bool, error) {
	share.ID = uuid.New()
	s.sheetShares = append(s.sheetShares, share)
	return share, true, nil
}

func (s *stubGrantRepo) UpsertSharedMatchPlayer(ctx context.Context, share *models.SharedMatchPlayer) (*models.SharedMatchPlayer, bool, error) {
	share.ID = uuid.New()
	return share, true, nil
}

func (s *stubGrantRepo) FindGameShare(ctx context.Context, ownerID, sharedWithID, gameID uuid.UUID) (*models.GameShare, error) {
	if share, ok := s.gameShares[gameID]; ok {
		return share, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (s *stubGrantRepo) FindLocationShare(ctx context.Context, ownerID, sharedWithID, locationID uuid.UUID) (*models.LocationShare, error) {
	if share, ok := s.locationShares[locationID]; ok {
		return share, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (s *stubGrantRepo) FindPlayerShare(ctx context.Context, ownerID, sharedWithID, playerID uuid.UUID) (*models.PlayerShare, error) {
	if share, ok := s.playerShares[playerID]; ok {
		return share, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (s *stubGrantRepo) FindGameShareByID(ctx context.Context, id uuid.UUID) (*models.GameShare, error) {
	return nil, gorm.ErrRecordNotFound
}

func (s *stubGrantRepo) FindLocationShareByID(ctx context.Context, id uuid.UUID) (*models.LocationShare, error) {
	return nil, gorm.ErrRecordNotFound
}

func (s *stubGrantRepo) FindPlayerShareByID(ctx context.Context, id uuid.UUID) (*models.PlayerShare, error) {
	return nil, gorm.ErrRecordNotFound
}

func (s *stubGrantRepo) ListGameSharesForRecipient(ctx context.Context, recipientID uuid.UUID) ([]models.GameShare, error) {
	return nil, nil
}

func (s *stubGrantRepo) ListLocationSharesForRecipient(ctx context.Context, recipientID uuid.UUID) ([]models.LocationShare, error) {
	return nil, nil
}

func (s *stubGrantRepo) ListPlayerSharesForRecipient(ctx context.Context, recipientID uuid.UUID) ([]models.PlayerShare, error) {
	return nil, nil
}

func (s *stubGrantRepo) ListMatchSharesForRecipient(ctx context.Context, recipientID uuid.UUID) ([]models.MatchShare, error) {
	return nil, nil
}

func (s *stubGrantRepo) ListScoresheetSharesForRecipient(ctx context.Context, recipientID uuid.UUID) ([]models.ScoresheetShare, error) {
	return nil, nil
}

func (s *stubGrantRepo) UpdateLinkedGame(ctx context.Context, grantID uuid.UUID, linkedID *uuid.UUID) error {
	return nil
}

func (s *stubGrantRepo) UpdateLinkedLocation(ctx context.Context, grantID uuid.UUID, linkedID *uuid.UUID) error {
	return nil
}

func (s *stubGrantRepo) UpdateLinkedPlayer(ctx context.Context, grantID uuid.UUID, linkedID *uuid.UUID) error {
	return nil
}

type stubTxRunner struct{}

func (stubTxRunner) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return fn(nil)
}

type stubOutbox struct {
	events []outbox.DomainEvent
	err    error
}

func (s *stubOutbox) Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error {
	if s.err != nil {
		return s.err
	}
	s.events = append(s.events, event)
	return nil
}

type sharingFixture struct {
	repo     *stubShareRepo
	library  *stubLibraryRepo
	friends  *stubFriendsRepo
	grants   *stubGrantRepo
	outbox   *stubOutbox
	service  Service
	ownerID  uuid.UUID
	friendID uuid.UUID
}

func newSharingFixture(t *testing.T) *sharingFixture {
	t.Helper()
	f := &sharingFixture{
		repo:     &stubShareRepo{},
		library:  newStubLibraryRepo(),
		friends:  &stubFriendsRepo{areFriends: true},
		grants:   newStubGrantRepo(),
		outbox:   &stubOutbox{},
		ownerID:  uuid.New(),
		friendID: uuid.New(),
	}
	materializer, err := grants.NewMaterializer(f.grants, f.library)
	if err != nil {
		t.Fatalf("NewMaterializer: %v", err)
	}
	svc, err := NewService(ServiceParams{
		Repo:         f.repo,
		Library:      f.library,
		Friends:      f.friends,
		Materializer: materializer,
		TxRunner:     stubTxRunner{},
		Outbox:       f.outbox,
		Config: config.SharingConfig{
			DuplicateWindow:   7 * 24 * time.Hour,
			DefaultLinkExpiry: 30 * 24 * time.Hour,
			ShareBaseURL:      "https://boardgames.gravender.dev/share",
		},
	})
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}
	f.service = svc
	return f
}

func (f *sharingFixture) addGame(t *testing.T, ownerID uuid.UUID) uuid.UUID {
	t.Helper()
	id := uuid.New()
	f.library.games[id] = &models.Game{ID: id, UserID: ownerID}
	return id
}

func (f *sharingFixture) addPlayer(t *testing.T, ownerID uuid.UUID) uuid.UUID {
	t.Helper()
	id := uuid.New()
	f.library.players[id] = &models.Player{ID: id, CreatedByID: ownerID}
	return id
}

func (f *sharingFixture) addLocation(t *testing.T, ownerID uuid.UUID) uuid.UUID {
	t.Helper()
	id := uuid.New()
	f.library.locations[id] = &models.Location{ID: id, CreatedByID: ownerID}
	return id
}

func assertCode(t *testing.T, err error, code pkgerrors.Code) {
	t.Helper()
	if err == nil {
		t.Fatalf("expected %s error, got nil", code)
	}
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != code {
		t.Fatalf("expected %s error, got %v", code, err)
	}
}

func TestCreateBuildsTree(t *testing.T) {
	f := newSharingFixture(t)
	gameID := f.addGame(t, f.ownerID)
	playerID := f.addPlayer(t, f.ownerID)

	dto, err := f.service.Create(context.Background(), CreateInput{
		OwnerID:      f.ownerID,
		SharedWithID: &f.friendID,
		ItemType:     enums.ShareItemGame,
		ItemID:       gameID,
		Children: []ChildInput{
			{ItemType: enums.ShareItemPlayer, ItemID: playerID, Permission: enums.SharePermissionEdit},
		},
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	if f.repo.createdRoot == nil {
		t.Fatal("expected root row to be written")
	}
	if f.repo.createdRoot.Permission != enums.SharePermissionView {
		t.Fatalf("expected root to default to view, got %s", f.repo.createdRoot.Permission)
	}
	if f.repo.createdRoot.Status != enums.ShareStatusPending {
		t.Fatalf("expected pending root, got %s", f.repo.createdRoot.Status)
	}
	if f.repo.createdRoot.Token == "" {
		t.Fatal("expected root token to be generated")
	}
	if len(f.repo.createdChildren) != 1 {
		t.Fatalf("expected 1 child row, got %d", len(f.repo.createdChildren))
	}
	if f.repo.createdChildren[0].Permission != enums.SharePermissionEdit {
		t.Fatalf("expected child permission edit, got %s", f.repo.createdChildren[0].Permission)
	}
	if len(dto.Children) != 1 {
		t.Fatalf("expected 1 child in DTO, got %d", len(dto.Children))
	}
	if dto.ShareURL == "" {
		t.Fatal("expected share URL in DTO")
	}
	if len(f.outbox.events) != 1 || f.outbox.events[0].EventType != enums.EventShareRequested {
		t.Fatalf("expected share_requested event, got %+v", f.outbox.events)
	}
}

func TestCreateChildInheritsRootPermission(t *testing.T) {
	f := newSharingFixture(t)
	gameID := f.addGame(t, f.ownerID)
	playerID := f.addPlayer(t, f.ownerID)

	_, err := f.service.Create(context.Background(), CreateInput{
		OwnerID:      f.ownerID,
		SharedWithID: &f.friendID,
		ItemType:     enums.ShareItemGame,
		ItemID:       gameID,
		Permission:   enums.SharePermissionEdit,
		Children:     []ChildInput{{ItemType: enums.ShareItemPlayer, ItemID: playerID}},
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if got := f.repo.createdChildren[0].Permission; got != enums.SharePermissionEdit {
		t.Fatalf("expected child to inherit edit, got %s", got)
	}
}

func TestCreateRejectsForeignItem(t *testing.T) {
	f := newSharingFixture(t)
	gameID := f.addGame(t, uuid.New())

	_, err := f.service.Create(context.Background(), CreateInput{
		OwnerID:      f.ownerID,
		SharedWithID: &f.friendID,
		ItemType:     enums.ShareItemGame,
		ItemID:       gameID,
	})
	assertCode(t, err, pkgerrors.CodeForbidden)
}

func TestCreateRejectsMissingItem(t *testing.T) {
	f := newSharingFixture(t)

	_, err := f.service.Create(context.Background(), CreateInput{
		OwnerID:      f.ownerID,
		SharedWithID: &f.friendID,
		ItemType:     enums.ShareItemGame,
		ItemID:       uuid.New(),
	})
	assertCode(t, err, pkgerrors.CodeNotFound)
}

func TestCreateRejectsSelfShare(t *testing.T) {
	f := newSharingFixture(t)
	gameID := f.addGame(t, f.ownerID)

	_, err := f.service.Create(context.Background(), CreateInput{
		OwnerID:      f.ownerID,
		SharedWithID: &f.ownerID,
		ItemType:     enums.ShareItemGame,
		ItemID:       gameID,
	})
	assertCode(t, err, pkgerrors.CodeValidation)
}

func TestCreateRequiresFriendship(t *testing.T) {
	f := newSharingFixture(t)
	f.friends.areFriends = false
	gameID := f.addGame(t, f.ownerID)

	_, err := f.service.Create(context.Background(), CreateInput{
		OwnerID:      f.ownerID,
		SharedWithID: &f.friendID,
		ItemType:     enums.ShareItemGame,
		ItemID:       gameID,
	})
	assertCode(t, err, pkgerrors.CodeForbidden)
}

func TestCreateHonorsRecipientOptOut(t *testing.T) {
	f := newSharingFixture(t)
	f.friends.setting = &models.FriendSetting{
		CreatedByID:      f.friendID,
		FriendID:         f.ownerID,
		AllowSharedGames: false,
	}
	gameID := f.addGame(t, f.ownerID)

	_, err := f.service.Create(context.Background(), CreateInput{
		OwnerID:      f.ownerID,
		SharedWithID: &f.friendID,
		ItemType:     enums.ShareItemGame,
		ItemID:       gameID,
	})
	assertCode(t, err, pkgerrors.CodeForbidden)
}

func TestCreateDetectsDuplicate(t *testing.T) {
	f := newSharingFixture(t)
	gameID := f.addGame(t, f.ownerID)
	f.repo.duplicate = &models.ShareRequest{ID: uuid.New()}

	_, err := f.service.Create(context.Background(), CreateInput{
		OwnerID:      f.ownerID,
		SharedWithID: &f.friendID,
		ItemType:     enums.ShareItemGame,
		ItemID:       gameID,
	})
	assertCode(t, err, pkgerrors.CodeConflict)
}

func TestCreateRaceLosesToActiveIndex(t *testing.T) {
	f := newSharingFixture(t)
	gameID := f.addGame(t, f.ownerID)
	f.repo.createErr = errors.New(`ERROR: duplicate key value violates unique constraint "uq_share_requests_active" (SQLSTATE 23505)`)

	_, err := f.service.Create(context.Background(), CreateInput{
		OwnerID:      f.ownerID,
		SharedWithID: &f.friendID,
		ItemType:     enums.ShareItemGame,
		ItemID:       gameID,
	})
	assertCode(t, err, pkgerrors.CodeConflict)
}

func TestCreatePublicLinkDefaultsExpiry(t *testing.T) {
	f := newSharingFixture(t)
	gameID := f.addGame(t, f.ownerID)

	dto, err := f.service.Create(context.Background(), CreateInput{
		OwnerID:  f.ownerID,
		ItemType: enums.ShareItemGame,
		ItemID:   gameID,
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if f.repo.createdRoot.ExpiresAt == nil {
		t.Fatal("expected public link to receive a default expiry")
	}
	if f.repo.createdRoot.SharedWithID != nil {
		t.Fatal("expected public link to have no recipient")
	}
	if dto.ShareURL == "" {
		t.Fatal("expected share URL for public link")
	}
}

func acceptFixture(t *testing.T) (*sharingFixture, *models.ShareRequest, []models.ShareRequest) {
	t.Helper()
	f := newSharingFixture(t)
	gameID := f.addGame(t, f.ownerID)
	playerID := f.addPlayer(t, f.ownerID)
	locationID := f.addLocation(t, f.ownerID)

	rootID := uuid.New()
	recipientID := f.friendID
	root := &models.ShareRequest{
		ID:           rootID,
		OwnerID:      f.ownerID,
		SharedWithID: &recipientID,
		ItemType:     enums.ShareItemGame,
		ItemID:       gameID,
		Permission:   enums.SharePermissionView,
		Status:       enums.ShareStatusPending,
	}
	children := []models.ShareRequest{
		{
			ID:            uuid.New(),
			OwnerID:       f.ownerID,
			SharedWithID:  &recipientID,
			ItemType:      enums.ShareItemPlayer,
			ItemID:        playerID,
			Permission:    enums.SharePermissionView,
			Status:        enums.ShareStatusPending,
			ParentShareID: &rootID,
		},
		{
			ID:            uuid.New(),
			OwnerID:       f.ownerID,
			SharedWithID:  &recipientID,
			ItemType:      enums.ShareItemLocation,
			ItemID:        locationID,
			Permission:    enums.SharePermissionView,
			Status:        enums.ShareStatusPending,
			ParentShareID: &rootID,
		},
	}
	f.repo.lockRoot = root
	f.repo.descendants = children
	return f, root, children
}

func TestAcceptWholeTree(t *testing.T) {
	f, root, children := acceptFixture(t)

	result, err := f.service.Accept(context.Background(), AcceptInput{
		ShareRequestID: root.ID,
		RecipientID:    f.friendID,
		AcceptChildIDs: []uuid.UUID{children[0].ID, children[1].ID},
	})
	if err != nil {
		t.Fatalf("Accept: %v", err)
	}
	if len(result.AcceptedIDs) != 3 {
		t.Fatalf("expected 3 accepted nodes, got %d", len(result.AcceptedIDs))
	}
	if len(result.RejectedIDs) != 0 {
		t.Fatalf("expected no rejected nodes, got %d", len(result.RejectedIDs))
	}
	if result.GrantsCreated != 3 {
		t.Fatalf("expected 3 grants, got %d", result.GrantsCreated)
	}
	if len(f.grants.gameShares) != 1 || len(f.grants.playerShares) != 1 || len(f.grants.locationShares) != 1 {
		t.Fatal("expected one grant per accepted node")
	}
	if len(f.outbox.events) != 1 || f.outbox.events[0].EventType != enums.EventShareAccepted {
		t.Fatalf("expected share_accepted event, got %+v", f.outbox.events)
	}
}

func TestAcceptReturnsRootGrant(t *testing.T) {
	f, root, _ := acceptFixture(t)

	result, err := f.service.Accept(context.Background(), AcceptInput{
		ShareRequestID: root.ID,
		RecipientID:    f.friendID,
	})
	if err != nil {
		t.Fatalf("Accept: %v", err)
	}
	gameShare := f.grants.gameShares[root.ItemID]
	if gameShare == nil {
		t.Fatal("expected game grant for the root")
	}
	if result.RootGrant.GrantID != gameShare.ID {
		t.Fatalf("root grant id = %s, want %s", result.RootGrant.GrantID, gameShare.ID)
	}
	if result.RootGrant.ItemType != enums.ShareItemGame || result.RootGrant.ItemID != root.ItemID {
		t.Fatalf("root grant must identify the root item, got %+v", result.RootGrant)
	}
}

func TestAcceptOmittedChildrenAreRejected(t *testing.T) {
	f, root, children := acceptFixture(t)

	result, err := f.service.Accept(context.Background(), AcceptInput{
		ShareRequestID: root.ID,
		RecipientID:    f.friendID,
		AcceptChildIDs: []uuid.UUID{children[1].ID},
	})
	if err != nil {
		t.Fatalf("Accept: %v", err)
	}
	if len(result.AcceptedIDs) != 2 {
		t.Fatalf("expected 2 accepted nodes, got %d", len(result.AcceptedIDs))
	}
	if len(result.RejectedIDs) != 1 || result.RejectedIDs[0] != children[0].ID {
		t.Fatalf("expected the omitted player child rejected, got %v", result.RejectedIDs)
	}
	if len(f.grants.playerShares) != 0 {
		t.Fatal("omitted child must not produce a grant")
	}
	if len(f.grants.locationShares) != 1 {
		t.Fatal("named sibling should still produce a grant")
	}

	var acceptedUpdate, rejectedUpdate *statusUpdate
	for i := range f.repo.statusUpdates {
		switch f.repo.statusUpdates[i].status {
		case enums.ShareStatusAccepted:
			acceptedUpdate = &f.repo.statusUpdates[i]
		case enums.ShareStatusRejected:
			rejectedUpdate = &f.repo.statusUpdates[i]
		}
	}
	if acceptedUpdate == nil || len(acceptedUpdate.ids) != 2 {
		t.Fatalf("expected 2 rows marked accepted, got %+v", f.repo.statusUpdates)
	}
	if rejectedUpdate == nil || len(rejectedUpdate.ids) != 1 {
		t.Fatalf("expected 1 row marked rejected, got %+v", f.repo.statusUpdates)
	}
}

func TestAcceptOmittedSubtreeIsRejected(t *testing.T) {
	f, root, children := acceptFixture(t)
	// Hang a grandchild under the player child; omitting the parent takes
	// the grandchild with it.
	locationID := f.addLocation(t, f.ownerID)
	recipientID := f.friendID
	grandchild := models.ShareRequest{
		ID:            uuid.New(),
		OwnerID:       f.ownerID,
		SharedWithID:  &recipientID,
		ItemType:      enums.ShareItemLocation,
		ItemID:        locationID,
		Permission:    enums.SharePermissionView,
		Status:        enums.ShareStatusPending,
		ParentShareID: &children[0].ID,
	}
	f.repo.descendants = append([]models.ShareRequest{children[0]}, grandchild, children[1])

	result, err := f.service.Accept(context.Background(), AcceptInput{
		ShareRequestID: root.ID,
		RecipientID:    f.friendID,
		AcceptChildIDs: []uuid.UUID{children[1].ID},
	})
	if err != nil {
		t.Fatalf("Accept: %v", err)
	}
	if len(result.RejectedIDs) != 2 {
		t.Fatalf("expected child and grandchild rejected, got %v", result.RejectedIDs)
	}
	if len(result.AcceptedIDs) != 2 {
		t.Fatalf("expected root and sibling accepted, got %v", result.AcceptedIDs)
	}
}

func TestAcceptRejectsChildUnderDeclinedParent(t *testing.T) {
	f, root, children := acceptFixture(t)
	locationID := f.addLocation(t, f.ownerID)
	recipientID := f.friendID
	grandchild := models.ShareRequest{
		ID:            uuid.New(),
		OwnerID:       f.ownerID,
		SharedWithID:  &recipientID,
		ItemType:      enums.ShareItemLocation,
		ItemID:        locationID,
		Permission:    enums.SharePermissionView,
		Status:        enums.ShareStatusPending,
		ParentShareID: &children[0].ID,
	}
	f.repo.descendants = append([]models.ShareRequest{children[0]}, grandchild, children[1])

	_, err := f.service.Accept(context.Background(), AcceptInput{
		ShareRequestID: root.ID,
		RecipientID:    f.friendID,
		AcceptChildIDs: []uuid.UUID{grandchild.ID},
	})
	assertCode(t, err, pkgerrors.CodeValidation)
}

func TestAcceptRequiresBundledScoresheet(t *testing.T) {
	f, root, children := acceptFixture(t)
	sheetID := uuid.New()
	f.library.scoresheets[sheetID] = &models.Scoresheet{ID: sheetID, UserID: f.ownerID, GameID: root.ItemID}
	recipientID := f.friendID
	sheetChild := models.ShareRequest{
		ID:            uuid.New(),
		OwnerID:       f.ownerID,
		SharedWithID:  &recipientID,
		ItemType:      enums.ShareItemScoresheet,
		ItemID:        sheetID,
		Permission:    enums.SharePermissionView,
		Status:        enums.ShareStatusPending,
		ParentShareID: &root.ID,
	}
	f.repo.descendants = append(children, sheetChild)

	_, err := f.service.Accept(context.Background(), AcceptInput{
		ShareRequestID: root.ID,
		RecipientID:    f.friendID,
	})
	assertCode(t, err, pkgerrors.CodeValidation)

	result, err := f.service.Accept(context.Background(), AcceptInput{
		ShareRequestID: root.ID,
		RecipientID:    f.friendID,
		AcceptChildIDs: []uuid.UUID{sheetChild.ID},
	})
	if err != nil {
		t.Fatalf("Accept with scoresheet: %v", err)
	}
	if len(f.grants.sheetShares) != 1 {
		t.Fatal("expected the scoresheet grant to materialize")
	}
	if len(result.AcceptedIDs) != 2 {
		t.Fatalf("expected root and scoresheet accepted, got %v", result.AcceptedIDs)
	}
}

func TestAcceptRejectsForeignAcceptID(t *testing.T) {
	f, root, _ := acceptFixture(t)

	_, err := f.service.Accept(context.Background(), AcceptInput{
		ShareRequestID: root.ID,
		RecipientID:    f.friendID,
		AcceptChildIDs: []uuid.UUID{uuid.New()},
	})
	assertCode(t, err, pkgerrors.CodeValidation)
}

func TestAcceptRejectsWrongRecipient(t *testing.T) {
	f, root, _ := acceptFixture(t)

	_, err := f.service.Accept(context.Background(), AcceptInput{
		ShareRequestID: root.ID,
		RecipientID:    uuid.New(),
	})
	assertCode(t, err, pkgerrors.CodeForbidden)
}

func TestAcceptRejectsResolvedTree(t *testing.T) {
	f, root, _ := acceptFixture(t)
	root.Status = enums.ShareStatusAccepted

	_, err := f.service.Accept(context.Background(), AcceptInput{
		ShareRequestID: root.ID,
		RecipientID:    f.friendID,
	})
	assertCode(t, err, pkgerrors.CodeStateConflict)
}

func TestAcceptRejectsExpiredTree(t *testing.T) {
	f, root, _ := acceptFixture(t)
	expired := time.Now().Add(-time.Hour)
	root.ExpiresAt = &expired

	_, err := f.service.Accept(context.Background(), AcceptInput{
		ShareRequestID: root.ID,
		RecipientID:    f.friendID,
	})
	assertCode(t, err, pkgerrors.CodeStateConflict)
}

func TestAcceptMissingTree(t *testing.T) {
	f := newSharingFixture(t)

	_, err := f.service.Accept(context.Background(), AcceptInput{
		ShareRequestID: uuid.New(),
		RecipientID:    f.friendID,
	})
	assertCode(t, err, pkgerrors.CodeNotFound)
}

func TestAcceptClaimsPublicLink(t *testing.T) {
	f, root, _ := acceptFixture(t)
	root.SharedWithID = nil

	claimer := uuid.New()
	_, err := f.service.Accept(context.Background(), AcceptInput{
		ShareRequestID: root.ID,
		RecipientID:    claimer,
	})
	if err != nil {
		t.Fatalf("Accept: %v", err)
	}
	if f.repo.claimedWith == nil || *f.repo.claimedWith != claimer {
		t.Fatalf("expected public link claimed by %s, got %v", claimer, f.repo.claimedWith)
	}
	if len(f.grants.gameShares) != 1 {
		t.Fatal("expected grants for claimed public link")
	}
	for _, share := range f.grants.gameShares {
		if share.SharedWithID != claimer {
			t.Fatalf("expected grant addressed to claimer, got %s", share.SharedWithID)
		}
	}
}

func TestRejectMarksWholeTree(t *testing.T) {
	f, root, children := acceptFixture(t)

	err := f.service.Reject(context.Background(), RejectInput{
		ShareRequestID: root.ID,
		RecipientID:    f.friendID,
	})
	if err != nil {
		t.Fatalf("Reject: %v", err)
	}
	if len(f.repo.statusUpdates) != 1 {
		t.Fatalf("expected a single status update, got %d", len(f.repo.statusUpdates))
	}
	update := f.repo.statusUpdates[0]
	if update.status != enums.ShareStatusRejected {
		t.Fatalf("expected rejected status, got %s", update.status)
	}
	if len(update.ids) != len(children)+1 {
		t.Fatalf("expected %d rows rejected, got %d", len(children)+1, len(update.ids))
	}
	if len(f.grants.gameShares) != 0 {
		t.Fatal("rejection must not write grants")
	}
	if len(f.outbox.events) != 1 || f.outbox.events[0].EventType != enums.EventShareRejected {
		t.Fatalf("expected share_rejected event, got %+v", f.outbox.events)
	}
}

func TestCancelDeletesPendingTree(t *testing.T) {
	f, root, _ := acceptFixture(t)

	err := f.service.Cancel(context.Background(), CancelInput{
		ShareRequestID: root.ID,
		OwnerID:        f.ownerID,
	})
	if err != nil {
		t.Fatalf("Cancel: %v", err)
	}
	if f.repo.deletedRoot == nil || *f.repo.deletedRoot != root.ID {
		t.Fatalf("expected tree %s deleted, got %v", root.ID, f.repo.deletedRoot)
	}
	if len(f.outbox.events) != 1 || f.outbox.events[0].EventType != enums.EventShareCanceled {
		t.Fatalf("expected share_canceled event, got %+v", f.outbox.events)
	}
}

func TestCancelRequiresOwner(t *testing.T) {
	f, root, _ := acceptFixture(t)

	err := f.service.Cancel(context.Background(), CancelInput{
		ShareRequestID: root.ID,
		OwnerID:        uuid.New(),
	})
	assertCode(t, err, pkgerrors.CodeForbidden)
	if f.repo.deletedRoot != nil {
		t.Fatal("tree must not be deleted on authorization failure")
	}
}

func TestCancelRejectsResolvedTree(t *testing.T) {
	f, root, _ := acceptFixture(t)
	root.Status = enums.ShareStatusRejected

	err := f.service.Cancel(context.Background(), CancelInput{
		ShareRequestID: root.ID,
		OwnerID:        f.ownerID,
	})
	assertCode(t, err, pkgerrors.CodeStateConflict)
}

func TestResolveByTokenReturnsTree(t *testing.T) {
	f, root, children := acceptFixture(t)
	f.repo.tokenRow = root

	dto, err := f.service.ResolveByToken(context.Background(), "tok")
	if err != nil {
		t.Fatalf("ResolveByToken: %v", err)
	}
	if dto.ID != root.ID {
		t.Fatalf("expected root %s, got %s", root.ID, dto.ID)
	}
	if len(dto.Children) != len(children) {
		t.Fatalf("expected %d children, got %d", len(children), len(dto.Children))
	}
}

func TestResolveByTokenClimbsToRoot(t *testing.T) {
	f, root, children := acceptFixture(t)
	f.repo.tokenRow = &children[0]
	f.repo.byIDRow = root

	dto, err := f.service.ResolveByToken(context.Background(), "child-token")
	if err != nil {
		t.Fatalf("ResolveByToken: %v", err)
	}
	if dto.ID != root.ID {
		t.Fatalf("expected resolution to climb to root %s, got %s", root.ID, dto.ID)
	}
}

func TestResolveByTokenUnknown(t *testing.T) {
	f := newSharingFixture(t)

	_, err := f.service.ResolveByToken(context.Background(), "missing")
	assertCode(t, err, pkgerrors.CodeNotFound)
}

func TestResolveByTokenExpired(t *testing.T) {
	f, root, _ := acceptFixture(t)
	expired := time.Now().Add(-time.Minute)
	root.ExpiresAt = &expired
	f.repo.tokenRow = root

	_, err := f.service.ResolveByToken(context.Background(), "tok")
	assertCode(t, err, pkgerrors.CodeNotFound)
}

func TestListOutgoingFiltersByOwner(t *testing.T) {
	f := newSharingFixture(t)
	f.repo.listRows = []models.ShareRequest{{ID: uuid.New(), OwnerID: f.ownerID}}

	page, err := f.service.ListOutgoing(context.Background(), f.ownerID, pagination.Params{Limit: 10})
	if err != nil {
		t.Fatalf("ListOutgoing: %v", err)
	}
	if len(page.Items) != 1 {
		t.Fatalf("expected 1 item, got %d", len(page.Items))
	}
	if f.repo.listFilter.OwnerID == nil || *f.repo.listFilter.OwnerID != f.ownerID {
		t.Fatalf("expected owner filter, got %+v", f.repo.listFilter)
	}
	if f.repo.listFilter.SharedWithID != nil {
		t.Fatal("outgoing list must not filter by recipient")
	}
}

func TestListIncomingFiltersByRecipient(t *testing.T) {
	f := newSharingFixture(t)

	_, err := f.service.ListIncoming(context.Background(), f.friendID, pagination.Params{})
	if err != nil {
		t.Fatalf("ListIncoming: %v", err)
	}
	if f.repo.listFilter.SharedWithID == nil || *f.repo.listFilter.SharedWithID != f.friendID {
		t.Fatalf("expected recipient filter, got %+v", f.repo.listFilter)
	}
}
