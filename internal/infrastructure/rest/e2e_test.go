package rest

import (
	"context"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/peertask/horizon/internal/api"
	"github.com/peertask/horizon/internal/core/domain"
	"github.com/peertask/horizon/internal/core/ports"
	"github.com/peertask/horizon/internal/core/store"
	"github.com/peertask/horizon/internal/infrastructure/memory"
	"github.com/peertask/horizon/internal/infrastructure/session"
)

// TestEndToEnd drives the stores through the REST gateways against the
// stub server, covering the full account → task → messaging flow.
func TestEndToEnd(t *testing.T) {
	backend := memory.NewBackend("e2e-secret", time.Hour)
	srv := httptest.NewServer(api.NewRouter(backend, zerolog.Nop()))
	t.Cleanup(srv.Close)

	client := NewClient(srv.URL+"/api/v1", srv.Client(), 5*time.Second, zerolog.Nop())
	nop := zerolog.Nop()
	ctx := context.Background()

	newIdentity := func(t *testing.T) *store.IdentityStore {
		sess, err := session.NewStore(t.TempDir())
		if err != nil {
			t.Fatalf("session.NewStore: %v", err)
		}
		return store.NewIdentityStore(NewIdentityGateway(client), sess, nop)
	}

	alice := newIdentity(t)
	aliceUser, err := alice.Register(ctx, "Alice Moore", "alice@example.com", "password123")
	if err != nil {
		t.Fatalf("register alice: %v", err)
	}

	bob := newIdentity(t)
	bobUser, err := bob.Register(ctx, "Bob Reyes", "bob@example.com", "password456")
	if err != nil {
		t.Fatalf("register bob: %v", err)
	}

	// --- Task lifecycle: alice posts, bob applies, alice assigns and completes ---

	aliceTasks := store.NewTaskStore(NewTaskGateway(client), alice, nop)
	bobTasks := store.NewTaskStore(NewTaskGateway(client), bob, nop)

	task, err := aliceTasks.Submit(ctx, ports.SubmitTaskInput{
		Title:       "assemble bookshelf",
		Description: "flat-pack, tools provided",
		Category:    "home",
		Budget:      60,
		Deadline:    time.Now().Add(48 * time.Hour),
		Tags:        []string{"furniture"},
	})
	if err != nil {
		t.Fatalf("submit task: %v", err)
	}
	if task.Status != domain.TaskOpen || task.CreatedBy != aliceUser.ID {
		t.Fatalf("unexpected task: %+v", task)
	}

	board, err := bobTasks.BrowseTasks(ctx)
	if err != nil {
		t.Fatalf("browse tasks: %v", err)
	}
	if len(board) != 1 || board[0].ID != task.ID {
		t.Fatalf("unexpected board: %+v", board)
	}

	if _, err := bobTasks.Apply(ctx, task.ID, "happy to help"); err != nil {
		t.Fatalf("apply: %v", err)
	}
	if _, err := bobTasks.Apply(ctx, task.ID, "again"); err == nil {
		t.Fatalf("second application should be rejected")
	}

	if _, err := aliceTasks.BrowseTasks(ctx); err != nil {
		t.Fatalf("browse tasks: %v", err)
	}
	assigned, err := aliceTasks.Assign(ctx, task.ID, bobUser.ID)
	if err != nil {
		t.Fatalf("assign: %v", err)
	}
	if assigned.Status != domain.TaskAssigned || assigned.AssignedTo != bobUser.ID {
		t.Fatalf("unexpected assigned task: %+v", assigned)
	}

	completed, err := aliceTasks.Complete(ctx, task.ID)
	if err != nil {
		t.Fatalf("complete: %v", err)
	}
	if completed.Status != domain.TaskCompleted || completed.CompletedAt.IsZero() {
		t.Fatalf("unexpected completed task: %+v", completed)
	}
	if _, err := aliceTasks.Complete(ctx, task.ID); err == nil {
		t.Fatalf("completing twice should be rejected")
	}

	// --- Messaging: one thread, paginated history ---

	aliceConvs := store.NewConversationStore(NewMessagingGateway(client), alice, nop)
	conv, err := aliceConvs.CreateConversation(ctx, bobUser.ID)
	if err != nil {
		t.Fatalf("create conversation: %v", err)
	}

	// Creating the same pair again resolves to the existing thread.
	again, err := aliceConvs.CreateConversation(ctx, bobUser.ID)
	if err != nil {
		t.Fatalf("create conversation again: %v", err)
	}
	if again.ID != conv.ID {
		t.Fatalf("pair thread duplicated: %s vs %s", again.ID, conv.ID)
	}

	aliceMsgs := store.NewMessageStore(NewMessagingGateway(client), alice, 2, nop)
	if _, err := aliceMsgs.Select(ctx, conv.ID); err != nil {
		t.Fatalf("select conversation: %v", err)
	}
	for _, content := range []string{"hi bob", "shelf is ready", "see you at 5"} {
		if _, err := aliceMsgs.Send(ctx, content, bobUser.ID); err != nil {
			t.Fatalf("send %q: %v", content, err)
		}
	}

	// A fresh selection loads only the newest page.
	page, err := aliceMsgs.Select(ctx, conv.ID)
	if err != nil {
		t.Fatalf("reselect conversation: %v", err)
	}
	if len(page) != 2 {
		t.Fatalf("newest page = %d messages, want 2", len(page))
	}
	if page[0].Content != "shelf is ready" || page[1].Content != "see you at 5" {
		t.Fatalf("unexpected newest page: %+v", page)
	}

	all, err := aliceMsgs.LoadOlder(ctx)
	if err != nil {
		t.Fatalf("load older: %v", err)
	}
	if len(all) != 3 || all[0].Content != "hi bob" {
		t.Fatalf("unexpected full history: %+v", all)
	}

	// Bob sees the thread and its counterpart's summary.
	bobConvs := store.NewConversationStore(NewMessagingGateway(client), bob, nop)
	list, err := bobConvs.LoadConversations(ctx)
	if err != nil {
		t.Fatalf("load conversations: %v", err)
	}
	if len(list) != 1 || !list[0].Has(aliceUser.ID) {
		t.Fatalf("unexpected conversations: %+v", list)
	}

	summaries, err := bobConvs.Participants(ctx, []string{aliceUser.ID})
	if err != nil {
		t.Fatalf("participants: %v", err)
	}
	if len(summaries) != 1 || summaries[0].FullName != "Alice Moore" {
		t.Fatalf("unexpected summaries: %+v", summaries)
	}

	// --- Session round trip: login restores credentials ---

	alice.Logout()
	if alice.Token() != "" {
		t.Fatalf("token should be cleared on logout")
	}
	if _, err := alice.Login(ctx, "alice@example.com", "password123"); err != nil {
		t.Fatalf("login: %v", err)
	}
	if _, ok := alice.CurrentUser(); !ok {
		t.Fatalf("current user missing after login")
	}
}
