package store

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/peertask/horizon/internal/core/domain"
	"github.com/peertask/horizon/internal/core/ports"
)

const defaultPageSize = 20

// MessageStore holds the ordered history of the currently selected
// conversation. Every fetch is tagged with the generation it was issued
// for; a result arriving after the user has selected a different
// conversation is discarded instead of overwriting the new state.
type MessageStore struct {
	mu      sync.Mutex
	gateway ports.MessagingGateway
	creds   ports.CredentialSource
	log     zerolog.Logger

	pageSize int

	conversationID string
	generation     uint64
	messages       []domain.Message
	oldest         time.Time // backfill cursor
	sending        bool
}

// NewMessageStore creates a store paging pageSize messages at a time;
// pageSize <= 0 selects the default of 20.
func NewMessageStore(gateway ports.MessagingGateway, creds ports.CredentialSource, pageSize int, log zerolog.Logger) *MessageStore {
	if pageSize <= 0 {
		pageSize = defaultPageSize
	}
	return &MessageStore{gateway: gateway, creds: creds, pageSize: pageSize, log: log}
}

// Select switches to a conversation and loads its newest page. If the
// selection changes while the load is in flight the late result is
// dropped and ErrStaleSelection returned.
func (s *MessageStore) Select(ctx context.Context, conversationID string) ([]domain.Message, error) {
	s.mu.Lock()
	s.generation++
	gen := s.generation
	s.conversationID = conversationID
	s.messages = nil
	s.oldest = time.Time{}
	s.mu.Unlock()

	page, err := s.gateway.Messages(ctx, conversationID, time.Time{}, s.pageSize)
	if err != nil {
		s.log.Error().Err(err).Str("conversation_id", conversationID).Msg("loading messages failed")
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.generation != gen {
		return nil, domain.ErrStaleSelection
	}
	sortByCreation(page)
	s.messages = page
	s.resetCursor()
	return s.copyLocked(), nil
}

// LoadOlder backfills one page before the oldest cached message and
// prepends it. Without a selection it fails with ErrNoSelection.
func (s *MessageStore) LoadOlder(ctx context.Context) ([]domain.Message, error) {
	s.mu.Lock()
	if s.conversationID == "" {
		s.mu.Unlock()
		return nil, domain.ErrNoSelection
	}
	gen := s.generation
	conversationID := s.conversationID
	cursor := s.oldest
	s.mu.Unlock()

	page, err := s.gateway.Messages(ctx, conversationID, cursor, s.pageSize)
	if err != nil {
		s.log.Error().Err(err).Str("conversation_id", conversationID).Msg("backfill failed")
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.generation != gen {
		return nil, domain.ErrStaleSelection
	}
	s.merge(page)
	return s.copyLocked(), nil
}

// Refresh re-fetches the newest page for the current selection and
// merges it into the cache, reconciling locally appended sends with
// server state. Stale results are discarded like in Select.
func (s *MessageStore) Refresh(ctx context.Context) ([]domain.Message, error) {
	s.mu.Lock()
	if s.conversationID == "" {
		s.mu.Unlock()
		return nil, domain.ErrNoSelection
	}
	gen := s.generation
	conversationID := s.conversationID
	s.mu.Unlock()

	page, err := s.gateway.Messages(ctx, conversationID, time.Time{}, s.pageSize)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.generation != gen {
		return nil, domain.ErrStaleSelection
	}
	s.merge(page)
	return s.copyLocked(), nil
}

// Send posts a message to the selected conversation and appends the
// created message locally. Empty or whitespace-only content is rejected
// before any network call, and a second send is refused while one is
// outstanding so a double-click cannot submit twice.
func (s *MessageStore) Send(ctx context.Context, content, receiverID string) (*domain.Message, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, domain.NewValidationError("content", "content is required")
	}

	token, senderID := s.creds.Token(), s.creds.UserID()
	if token == "" || senderID == "" {
		return nil, domain.ErrUnauthorized
	}

	s.mu.Lock()
	if s.conversationID == "" {
		s.mu.Unlock()
		return nil, domain.ErrNoSelection
	}
	if s.sending {
		s.mu.Unlock()
		return nil, domain.ErrSendInFlight
	}
	s.sending = true
	gen := s.generation
	conversationID := s.conversationID
	s.mu.Unlock()

	msg, err := s.gateway.SendMessage(ctx, token, ports.SendMessageInput{
		Content:        content,
		ConversationID: conversationID,
		SenderID:       senderID,
		ReceiverID:     receiverID,
	})

	s.mu.Lock()
	defer s.mu.Unlock()
	s.sending = false
	if err != nil {
		s.log.Error().Err(err).Str("conversation_id", conversationID).Msg("send failed")
		return nil, err
	}

	// The message went out either way; only the cache append is skipped
	// when the user has moved to another conversation meanwhile.
	if s.generation == gen {
		s.merge([]domain.Message{*msg})
	}
	out := *msg
	return &out, nil
}

// Messages returns the cached history, ascending by creation time.
func (s *MessageStore) Messages() []domain.Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.copyLocked()
}

// Selected returns the id of the currently selected conversation.
func (s *MessageStore) Selected() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.conversationID
}

// merge folds a page into the cache, deduplicating by message id and
// keeping ascending creation order. Callers hold the lock.
func (s *MessageStore) merge(page []domain.Message) {
	seen := make(map[string]struct{}, len(s.messages))
	for _, m := range s.messages {
		seen[m.ID] = struct{}{}
	}
	for _, m := range page {
		if _, ok := seen[m.ID]; ok {
			continue
		}
		s.messages = append(s.messages, m)
		seen[m.ID] = struct{}{}
	}
	sortByCreation(s.messages)
	s.resetCursor()
}

func (s *MessageStore) resetCursor() {
	if len(s.messages) == 0 {
		s.oldest = time.Time{}
		return
	}
	s.oldest = s.messages[0].CreatedAt
}

func (s *MessageStore) copyLocked() []domain.Message {
	out := make([]domain.Message, len(s.messages))
	copy(out, s.messages)
	return out
}

func sortByCreation(msgs []domain.Message) {
	sort.SliceStable(msgs, func(i, j int) bool {
		return msgs[i].CreatedAt.Before(msgs[j].CreatedAt)
	})
}
