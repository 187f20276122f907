package store

import (
	"context"
	"sync"

	"github.com/rs/zerolog"

	"github.com/peertask/horizon/internal/core/domain"
	"github.com/peertask/horizon/internal/core/ports"
)

// ConversationStore caches the current user's conversations and the
// participant summaries needed to render them.
type ConversationStore struct {
	mu      sync.Mutex
	gateway ports.MessagingGateway
	creds   ports.CredentialSource
	log     zerolog.Logger

	conversations []domain.Conversation
	summaries     map[string]domain.UserSummary
}

func NewConversationStore(gateway ports.MessagingGateway, creds ports.CredentialSource, log zerolog.Logger) *ConversationStore {
	return &ConversationStore{
		gateway:   gateway,
		creds:     creds,
		log:       log,
		summaries: make(map[string]domain.UserSummary),
	}
}

// LoadConversations fetches the conversation list and replaces the
// cache. Requires a live session.
func (s *ConversationStore) LoadConversations(ctx context.Context) ([]domain.Conversation, error) {
	token, userID := s.creds.Token(), s.creds.UserID()
	if token == "" || userID == "" {
		return nil, domain.ErrUnauthorized
	}

	list, err := s.gateway.Conversations(ctx, token, userID)
	if err != nil {
		s.log.Error().Err(err).Msg("loading conversations failed")
		return nil, err
	}

	s.mu.Lock()
	s.conversations = list
	s.mu.Unlock()
	return s.snapshot(), nil
}

// Participants resolves display metadata for the given participant ids.
// Ids already cached are not refetched; only the missing ones go over
// the wire. The returned slice covers every requested id that could be
// resolved.
func (s *ConversationStore) Participants(ctx context.Context, userIDs []string) ([]domain.UserSummary, error) {
	s.mu.Lock()
	missing := make([]string, 0, len(userIDs))
	for _, id := range userIDs {
		if _, ok := s.summaries[id]; !ok {
			missing = append(missing, id)
		}
	}
	s.mu.Unlock()

	if len(missing) > 0 {
		fetched, err := s.gateway.ParticipantDetails(ctx, s.creds.Token(), missing)
		if err != nil {
			s.log.Error().Err(err).Int("count", len(missing)).Msg("resolving participants failed")
			return nil, err
		}
		s.mu.Lock()
		for _, sum := range fetched {
			s.summaries[sum.ID] = sum
		}
		s.mu.Unlock()
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]domain.UserSummary, 0, len(userIDs))
	for _, id := range userIDs {
		if sum, ok := s.summaries[id]; ok {
			out = append(out, sum)
		}
	}
	return out, nil
}

// CreateConversation starts a thread with another user. When a cached
// conversation between the pair already exists it is returned as-is,
// so rapid double-clicks do not create duplicate threads.
func (s *ConversationStore) CreateConversation(ctx context.Context, otherUserID string) (*domain.Conversation, error) {
	token, userID := s.creds.Token(), s.creds.UserID()
	if token == "" || userID == "" {
		return nil, domain.ErrUnauthorized
	}
	if otherUserID == "" || otherUserID == userID {
		return nil, domain.NewValidationError("receiverId", "a different user is required")
	}

	if existing := s.find(userID, otherUserID); existing != nil {
		return existing, nil
	}

	conv, err := s.gateway.CreateConversation(ctx, token, userID, otherUserID)
	if err != nil {
		s.log.Error().Err(err).Str("other_user", otherUserID).Msg("creating conversation failed")
		return nil, err
	}

	s.mu.Lock()
	s.conversations = append(s.conversations, *conv)
	s.mu.Unlock()

	c := *conv
	return &c, nil
}

// Conversations returns a snapshot of the cached list.
func (s *ConversationStore) Conversations() []domain.Conversation {
	return s.snapshot()
}

func (s *ConversationStore) find(a, b string) *domain.Conversation {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.conversations {
		c := &s.conversations[i]
		if c.Has(a) && c.Has(b) {
			out := *c
			return &out
		}
	}
	return nil
}

func (s *ConversationStore) snapshot() []domain.Conversation {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]domain.Conversation, len(s.conversations))
	copy(out, s.conversations)
	return out
}
