package main

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	gcppubsub "cloud.google.com/go/pubsub/v2"
	"github.com/google/uuid"

	"github.com/Gravender/boardgames-backend/pkg/config"
	"github.com/Gravender/boardgames-backend/pkg/db/models"
	"github.com/Gravender/boardgames-backend/pkg/enums"
	"github.com/Gravender/boardgames-backend/pkg/logger"
)

type fakePubSub struct {
	pingErr error
}

func (f fakePubSub) Ping(context.Context) error {
	return f.pingErr
}

func (f fakePubSub) DomainPublisher() *gcppubsub.Publisher {
	return nil
}

type fakeRepo struct {
	events    []models.OutboxEvent
	published []uuid.UUID
	failed    []uuid.UUID
	fetchErr  error
}

func (f *fakeRepo) FetchUnpublished(limit, maxAttempts int) ([]models.OutboxEvent, error) {
	if f.fetchErr != nil {
		return nil, f.fetchErr
	}
	if len(f.events) > limit {
		return f.events[:limit], nil
	}
	return f.events, nil
}

func (f *fakeRepo) MarkPublished(id uuid.UUID) error {
	f.published = append(f.published, id)
	return nil
}

func (f *fakeRepo) MarkFailed(id uuid.UUID, err error) error {
	f.failed = append(f.failed, id)
	return nil
}

type fakeResult struct {
	err error
}

func (f fakeResult) Get(context.Context) (string, error) {
	return "msg-1", f.err
}

type fakePublisher struct {
	messages []*gcppubsub.Message
	err      error
}

func (f *fakePublisher) Publish(_ context.Context, msg *gcppubsub.Message) publishResult {
	f.messages = append(f.messages, msg)
	return fakeResult{err: f.err}
}

func newTestService(t *testing.T, repo *fakeRepo, pub *fakePublisher) *Service {
	t.Helper()
	svc, err := NewService(ServiceParams{
		Config: &config.Config{},
		Logger: logger.New(logger.Options{ServiceName: "test", Output: io.Discard}),
		PubSub: fakePubSub{},
		Repository: repo,
		PublisherFactory: func() publisher {
			return pub
		},
	})
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}
	return svc
}

func testEvent() models.OutboxEvent {
	return models.OutboxEvent{
		ID:            uuid.New(),
		EventType:     enums.EventShareAccepted,
		AggregateType: enums.AggregateShareRequest,
		AggregateID:   uuid.New(),
		Payload:       []byte(`{"version":1,"eventId":"evt-1","occurredAt":"2026-05-01T10:00:00Z","data":{}}`),
		CreatedAt:     time.Now().UTC(),
	}
}

func TestProcessBatchPublishesAndMarks(t *testing.T) {
	event := testEvent()
	repo := &fakeRepo{events: []models.OutboxEvent{event}}
	pub := &fakePublisher{}
	svc := newTestService(t, repo, pub)

	processed, err := svc.processBatch(context.Background())
	if err != nil {
		t.Fatalf("processBatch: %v", err)
	}
	if !processed {
		t.Fatal("expected batch to be processed")
	}
	if len(pub.messages) != 1 {
		t.Fatalf("expected 1 publish, got %d", len(pub.messages))
	}
	msg := pub.messages[0]
	if msg.Attributes["event_type"] != string(enums.EventShareAccepted) {
		t.Fatalf("unexpected event_type attribute: %s", msg.Attributes["event_type"])
	}
	if msg.Attributes["event_id"] != "evt-1" {
		t.Fatalf("expected envelope event id attribute, got %q", msg.Attributes["event_id"])
	}
	if len(repo.published) != 1 || repo.published[0] != event.ID {
		t.Fatalf("expected event marked published, got %v", repo.published)
	}
	if len(repo.failed) != 0 {
		t.Fatalf("expected no failures, got %v", repo.failed)
	}
}

func TestProcessBatchMarksFailureAndContinues(t *testing.T) {
	bad := testEvent()
	good := testEvent()
	repo := &fakeRepo{events: []models.OutboxEvent{bad, good}}

	calls := 0
	failFirst := &fakePublisher{}
	svc := newTestService(t, repo, failFirst)
	svc.publisherFactory = func() publisher {
		calls++
		if calls == 1 {
			return &fakePublisher{err: errors.New("broker unavailable")}
		}
		return failFirst
	}

	processed, err := svc.processBatch(context.Background())
	if err != nil {
		t.Fatalf("processBatch: %v", err)
	}
	if !processed {
		t.Fatal("expected batch to be processed")
	}
	if len(repo.failed) != 1 || repo.failed[0] != bad.ID {
		t.Fatalf("expected first event marked failed, got %v", repo.failed)
	}
	if len(repo.published) != 1 || repo.published[0] != good.ID {
		t.Fatalf("expected second event published, got %v", repo.published)
	}
}

func TestProcessBatchEmpty(t *testing.T) {
	repo := &fakeRepo{}
	svc := newTestService(t, repo, &fakePublisher{})

	processed, err := svc.processBatch(context.Background())
	if err != nil {
		t.Fatalf("processBatch: %v", err)
	}
	if processed {
		t.Fatal("expected idle batch")
	}
}

func TestNewServiceAppliesDefaults(t *testing.T) {
	svc := newTestService(t, &fakeRepo{}, &fakePublisher{})
	if svc.batchSize != defaultBatchSize {
		t.Fatalf("unexpected batch size %d", svc.batchSize)
	}
	if svc.maxAttempts != defaultMaxAttempts {
		t.Fatalf("unexpected max attempts %d", svc.maxAttempts)
	}
	if svc.pollInterval != time.Duration(defaultPollMs)*time.Millisecond {
		t.Fatalf("unexpected poll interval %s", svc.pollInterval)
	}
}
