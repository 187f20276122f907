package store

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/peertask/horizon/internal/core/domain"
	"github.com/peertask/horizon/internal/core/ports"
)

// ---------------------------------------------------------------------------
// Stub messaging gateway
// ---------------------------------------------------------------------------

// stubMessagingGateway serves canned message pages per conversation.
// A conversation listed in blockUntil delays its Messages response
// until the matching channel is closed, which lets tests interleave
// slow and fast loads deterministically.
type stubMessagingGateway struct {
	mu          sync.Mutex
	pages       map[string][]domain.Message
	blockUntil  map[string]chan struct{}
	sendFn      func(ports.SendMessageInput) (*domain.Message, error)
	sendCalls   int
	lastDetails []string
}

func newStubMessagingGateway() *stubMessagingGateway {
	return &stubMessagingGateway{
		pages:      make(map[string][]domain.Message),
		blockUntil: make(map[string]chan struct{}),
	}
}

func (g *stubMessagingGateway) Conversations(_ context.Context, _, userID string) ([]domain.Conversation, error) {
	return []domain.Conversation{{ID: "c1", Members: []string{userID, "u2"}}}, nil
}

func (g *stubMessagingGateway) ParticipantDetails(_ context.Context, _ string, ids []string) ([]domain.UserSummary, error) {
	g.mu.Lock()
	g.lastDetails = ids
	g.mu.Unlock()
	out := make([]domain.UserSummary, 0, len(ids))
	for _, id := range ids {
		out = append(out, domain.UserSummary{ID: id, FullName: "User " + id})
	}
	return out, nil
}

func (g *stubMessagingGateway) Messages(_ context.Context, conversationID string, before time.Time, limit int) ([]domain.Message, error) {
	g.mu.Lock()
	gate := g.blockUntil[conversationID]
	all := g.pages[conversationID]
	g.mu.Unlock()

	if gate != nil {
		<-gate
	}

	var filtered []domain.Message
	for _, m := range all {
		if !before.IsZero() && !m.CreatedAt.Before(before) {
			continue
		}
		filtered = append(filtered, m)
	}
	if len(filtered) > limit {
		filtered = filtered[len(filtered)-limit:]
	}
	return filtered, nil
}

func (g *stubMessagingGateway) CreateConversation(_ context.Context, _, senderID, receiverID string) (*domain.Conversation, error) {
	return &domain.Conversation{ID: "c-" + senderID + "-" + receiverID, Members: []string{senderID, receiverID}}, nil
}

func (g *stubMessagingGateway) SendMessage(_ context.Context, _ string, input ports.SendMessageInput) (*domain.Message, error) {
	g.mu.Lock()
	g.sendCalls++
	fn := g.sendFn
	g.mu.Unlock()
	if fn != nil {
		return fn(input)
	}
	return &domain.Message{
		ID:             fmt.Sprintf("m-sent-%d", g.sendCalls),
		ConversationID: input.ConversationID,
		SenderID:       input.SenderID,
		ReceiverID:     input.ReceiverID,
		Content:        input.Content,
		CreatedAt:      time.Now().UTC(),
	}, nil
}

// fixedCreds is a CredentialSource with static values.
type fixedCreds struct {
	token, userID string
}

func (c fixedCreds) Token() string  { return c.token }
func (c fixedCreds) UserID() string { return c.userID }

func messagesFor(conversationID string, n int, start time.Time) []domain.Message {
	out := make([]domain.Message, n)
	for i := range out {
		out[i] = domain.Message{
			ID:             fmt.Sprintf("%s-m%d", conversationID, i),
			ConversationID: conversationID,
			SenderID:       "u1",
			ReceiverID:     "u2",
			Content:        fmt.Sprintf("message %d", i),
			CreatedAt:      start.Add(time.Duration(i) * time.Minute),
		}
	}
	return out
}

var baseTime = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

// ---------------------------------------------------------------------------
// Select / pagination
// ---------------------------------------------------------------------------

func TestMessageStore_Select_LoadsNewestPageAscending(t *testing.T) {
	gw := newStubMessagingGateway()
	gw.pages["c1"] = messagesFor("c1", 30, baseTime)
	store := NewMessageStore(gw, fixedCreds{"tok", "u1"}, 20, discardLogger)

	msgs, err := store.Select(context.Background(), "c1")
	if err != nil {
		t.Fatalf("select: %v", err)
	}
	if len(msgs) != 20 {
		t.Fatalf("expected 20 messages, got %d", len(msgs))
	}
	for i := 1; i < len(msgs); i++ {
		if msgs[i].CreatedAt.Before(msgs[i-1].CreatedAt) {
			t.Fatal("messages must be in non-decreasing creation order")
		}
		if msgs[i].ConversationID != "c1" {
			t.Fatal("all messages must belong to the selected conversation")
		}
	}
	// Newest page: the last 20 of 30.
	if msgs[0].ID != "c1-m10" {
		t.Errorf("expected page to start at c1-m10, got %s", msgs[0].ID)
	}
}

func TestMessageStore_LoadOlder_PrependsPreviousPage(t *testing.T) {
	gw := newStubMessagingGateway()
	gw.pages["c1"] = messagesFor("c1", 30, baseTime)
	store := NewMessageStore(gw, fixedCreds{"tok", "u1"}, 20, discardLogger)

	_, _ = store.Select(context.Background(), "c1")
	msgs, err := store.LoadOlder(context.Background())
	if err != nil {
		t.Fatalf("load older: %v", err)
	}
	if len(msgs) != 30 {
		t.Fatalf("expected full history of 30, got %d", len(msgs))
	}
	if msgs[0].ID != "c1-m0" {
		t.Errorf("expected oldest first, got %s", msgs[0].ID)
	}
	for i := 1; i < len(msgs); i++ {
		if msgs[i].CreatedAt.Before(msgs[i-1].CreatedAt) {
			t.Fatal("order must stay ascending after backfill")
		}
	}
}

func TestMessageStore_LoadOlder_WithoutSelection(t *testing.T) {
	store := NewMessageStore(newStubMessagingGateway(), fixedCreds{"tok", "u1"}, 0, discardLogger)

	if _, err := store.LoadOlder(context.Background()); !errors.Is(err, domain.ErrNoSelection) {
		t.Fatalf("expected ErrNoSelection, got %v", err)
	}
}

// ---------------------------------------------------------------------------
// Stale-response race
// ---------------------------------------------------------------------------

func TestMessageStore_StaleSelectDiscarded(t *testing.T) {
	gw := newStubMessagingGateway()
	gw.pages["convA"] = messagesFor("convA", 5, baseTime)
	gw.pages["convB"] = messagesFor("convB", 3, baseTime)

	gate := make(chan struct{})
	gw.blockUntil["convA"] = gate

	store := NewMessageStore(gw, fixedCreds{"tok", "u1"}, 20, discardLogger)

	errCh := make(chan error, 1)
	go func() {
		_, err := store.Select(context.Background(), "convA")
		errCh <- err
	}()

	// Give the first select time to issue its fetch, then switch to B.
	time.Sleep(20 * time.Millisecond)
	if _, err := store.Select(context.Background(), "convB"); err != nil {
		t.Fatalf("select B: %v", err)
	}

	// A's fetch resolves after B's: its result must be dropped.
	close(gate)
	if err := <-errCh; !errors.Is(err, domain.ErrStaleSelection) {
		t.Fatalf("expected ErrStaleSelection for A's late result, got %v", err)
	}

	msgs := store.Messages()
	if len(msgs) != 3 {
		t.Fatalf("expected B's 3 messages, got %d", len(msgs))
	}
	for _, m := range msgs {
		if m.ConversationID != "convB" {
			t.Fatalf("store must show B's messages, found %s", m.ConversationID)
		}
	}
}

func TestMessageStore_StaleRefreshDiscarded(t *testing.T) {
	gw := newStubMessagingGateway()
	gw.pages["convA"] = messagesFor("convA", 2, baseTime)
	gw.pages["convB"] = messagesFor("convB", 2, baseTime)
	store := NewMessageStore(gw, fixedCreds{"tok", "u1"}, 20, discardLogger)

	_, _ = store.Select(context.Background(), "convA")

	gate := make(chan struct{})
	gw.mu.Lock()
	gw.blockUntil["convA"] = gate
	gw.mu.Unlock()

	errCh := make(chan error, 1)
	go func() {
		_, err := store.Refresh(context.Background())
		errCh <- err
	}()

	time.Sleep(20 * time.Millisecond)
	_, _ = store.Select(context.Background(), "convB")
	close(gate)

	if err := <-errCh; !errors.Is(err, domain.ErrStaleSelection) {
		t.Fatalf("expected ErrStaleSelection, got %v", err)
	}
	if got := store.Selected(); got != "convB" {
		t.Fatalf("selection must remain convB, got %s", got)
	}
}

// ---------------------------------------------------------------------------
// Send
// ---------------------------------------------------------------------------

func TestMessageStore_Send_AppendsLocally(t *testing.T) {
	gw := newStubMessagingGateway()
	gw.pages["c1"] = messagesFor("c1", 2, baseTime)
	store := NewMessageStore(gw, fixedCreds{"tok", "u1"}, 20, discardLogger)
	_, _ = store.Select(context.Background(), "c1")

	msg, err := store.Send(context.Background(), "hello there", "u2")
	if err != nil {
		t.Fatalf("send: %v", err)
	}
	if msg.Content != "hello there" || msg.SenderID != "u1" || msg.ReceiverID != "u2" {
		t.Fatalf("unexpected message: %+v", msg)
	}

	msgs := store.Messages()
	if len(msgs) != 3 {
		t.Fatalf("expected append, got %d messages", len(msgs))
	}
	if msgs[len(msgs)-1].ID != msg.ID {
		t.Error("sent message must be the newest cached entry")
	}
}

func TestMessageStore_Send_EmptyContentNeverHitsNetwork(t *testing.T) {
	gw := newStubMessagingGateway()
	gw.pages["c1"] = messagesFor("c1", 2, baseTime)
	store := NewMessageStore(gw, fixedCreds{"tok", "u1"}, 20, discardLogger)
	_, _ = store.Select(context.Background(), "c1")
	before := len(store.Messages())

	for _, content := range []string{"", "   ", "\n\t "} {
		_, err := store.Send(context.Background(), content, "u2")
		if !errors.Is(err, domain.ErrValidation) {
			t.Fatalf("content %q: expected validation error, got %v", content, err)
		}
	}

	if gw.sendCalls != 0 {
		t.Errorf("expected 0 network calls, got %d", gw.sendCalls)
	}
	if len(store.Messages()) != before {
		t.Error("cache must not change on rejected send")
	}
}

func TestMessageStore_Send_SecondSendRejectedWhilePending(t *testing.T) {
	gw := newStubMessagingGateway()
	gw.pages["c1"] = messagesFor("c1", 1, baseTime)

	release := make(chan struct{})
	started := make(chan struct{})
	gw.sendFn = func(input ports.SendMessageInput) (*domain.Message, error) {
		close(started)
		<-release
		return &domain.Message{ID: "m-slow", ConversationID: input.ConversationID, Content: input.Content, CreatedAt: time.Now().UTC()}, nil
	}

	store := NewMessageStore(gw, fixedCreds{"tok", "u1"}, 20, discardLogger)
	_, _ = store.Select(context.Background(), "c1")

	done := make(chan struct{})
	go func() {
		_, _ = store.Send(context.Background(), "first", "u2")
		close(done)
	}()

	<-started
	if _, err := store.Send(context.Background(), "second", "u2"); !errors.Is(err, domain.ErrSendInFlight) {
		t.Fatalf("expected ErrSendInFlight, got %v", err)
	}

	close(release)
	<-done

	// After the first send resolves, sending is allowed again.
	gw.mu.Lock()
	gw.sendFn = nil
	gw.mu.Unlock()
	if _, err := store.Send(context.Background(), "third", "u2"); err != nil {
		t.Fatalf("send after settle: %v", err)
	}
}

func TestMessageStore_Send_WithoutSelection(t *testing.T) {
	store := NewMessageStore(newStubMessagingGateway(), fixedCreds{"tok", "u1"}, 0, discardLogger)

	if _, err := store.Send(context.Background(), "hi", "u2"); !errors.Is(err, domain.ErrNoSelection) {
		t.Fatalf("expected ErrNoSelection, got %v", err)
	}
}

func TestMessageStore_Refresh_MergesWithoutDuplicates(t *testing.T) {
	gw := newStubMessagingGateway()
	gw.pages["c1"] = messagesFor("c1", 2, baseTime)
	store := NewMessageStore(gw, fixedCreds{"tok", "u1"}, 20, discardLogger)
	_, _ = store.Select(context.Background(), "c1")

	// Server gains one message; existing ones must not duplicate.
	gw.mu.Lock()
	gw.pages["c1"] = append(gw.pages["c1"], domain.Message{
		ID: "c1-new", ConversationID: "c1", Content: "late arrival",
		CreatedAt: baseTime.Add(time.Hour),
	})
	gw.mu.Unlock()

	msgs, err := store.Refresh(context.Background())
	if err != nil {
		t.Fatalf("refresh: %v", err)
	}
	if len(msgs) != 3 {
		t.Fatalf("expected 3 after merge, got %d", len(msgs))
	}
	if msgs[2].ID != "c1-new" {
		t.Errorf("merged message must sort last, got %s", msgs[2].ID)
	}
}
