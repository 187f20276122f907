package store

import (
	"fmt"
	"sync"
	"testing"
)

func TestNotificationStore_AddAndUnreadCount(t *testing.T) {
	store := NewNotificationStore(nil, discardLogger)

	first := store.Add("task_created", "Task posted")
	second := store.Add("message_sent", "Message delivered")

	if first.ID == second.ID {
		t.Error("notification ids must be unique")
	}
	if store.UnreadCount() != 2 {
		t.Fatalf("expected 2 unread, got %d", store.UnreadCount())
	}

	list := store.Notifications()
	if len(list) != 2 || list[0].ID != second.ID {
		t.Fatalf("expected newest first, got %+v", list)
	}
}

func TestNotificationStore_MarkReadAndRemove(t *testing.T) {
	store := NewNotificationStore(nil, discardLogger)
	n := store.Add("task_created", "Task posted")
	store.Add("message_sent", "Message delivered")

	store.MarkRead(n.ID)
	if store.UnreadCount() != 1 {
		t.Fatalf("expected 1 unread, got %d", store.UnreadCount())
	}

	store.MarkAllRead()
	if store.UnreadCount() != 0 {
		t.Fatalf("expected 0 unread, got %d", store.UnreadCount())
	}

	store.Remove(n.ID)
	if len(store.Notifications()) != 1 {
		t.Fatal("expected one notification after remove")
	}

	store.Clear()
	if len(store.Notifications()) != 0 {
		t.Fatal("expected empty feed after clear")
	}
}

func TestNotificationStore_PersistsAcrossRestarts(t *testing.T) {
	sess := newSession(t)

	store := NewNotificationStore(sess, discardLogger)
	n := store.Add("task_created", "Task posted")
	store.MarkRead(n.ID)

	reopened := NewNotificationStore(sess, discardLogger)
	list := reopened.Notifications()
	if len(list) != 1 || list[0].ID != n.ID || !list[0].Read {
		t.Fatalf("expected restored notification, got %+v", list)
	}
}

func TestNotificationStore_ConcurrentMutationsPersistFinalState(t *testing.T) {
	sess := newSession(t)
	store := NewNotificationStore(sess, discardLogger)

	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			for j := 0; j < 10; j++ {
				store.Add("info", fmt.Sprintf("note %d-%d", i, j))
			}
		}(i)
	}
	wg.Wait()

	inMemory := store.Notifications()
	persisted, err := sess.LoadNotifications()
	if err != nil {
		t.Fatalf("load notifications: %v", err)
	}
	if len(persisted) != len(inMemory) {
		t.Fatalf("persisted %d notifications, memory has %d", len(persisted), len(inMemory))
	}
	for i := range persisted {
		if persisted[i].ID != inMemory[i].ID {
			t.Fatalf("persisted order diverges from memory at %d", i)
		}
	}
}
