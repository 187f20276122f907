// Package horizon wires the store layer to a backend and exposes it as
// one client object. Live mode talks to the external REST API; demo
// mode runs entirely in process against the in-memory backend.
package horizon

import (
	"fmt"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/peertask/horizon/internal/core/ports"
	"github.com/peertask/horizon/internal/core/store"
	"github.com/peertask/horizon/internal/infrastructure/config"
	"github.com/peertask/horizon/internal/infrastructure/memory"
	"github.com/peertask/horizon/internal/infrastructure/rest"
	"github.com/peertask/horizon/internal/infrastructure/session"
)

// DefaultPageSize is the message page size used when composing the
// message store through New.
const DefaultPageSize = 20

// Client bundles the five stores over one shared backend and session.
type Client struct {
	Identity      *store.IdentityStore
	Conversations *store.ConversationStore
	Messages      *store.MessageStore
	Tasks         *store.TaskStore
	Notifications *store.NotificationStore
}

// New composes a Client from configuration. cfg.Mode selects the
// backend: "live" builds REST gateways against cfg.API, "demo" builds
// the in-memory backend with cfg.Stub's token settings.
func New(cfg *config.Config, log zerolog.Logger) (*Client, error) {
	sess, err := session.NewStore(cfg.Session.Dir)
	if err != nil {
		return nil, fmt.Errorf("open session store: %w", err)
	}

	var (
		identityGW  ports.IdentityGateway
		messagingGW ports.MessagingGateway
		taskGW      ports.TaskGateway
	)
	switch cfg.Mode {
	case config.ModeLive:
		client := rest.NewClient(cfg.API.BaseURL, &http.Client{}, cfg.API.Timeout, log)
		identityGW = rest.NewIdentityGateway(client)
		messagingGW = rest.NewMessagingGateway(client)
		taskGW = rest.NewTaskGateway(client)
	case config.ModeDemo:
		backend := memory.NewBackend(cfg.Stub.JWTSecret, cfg.Stub.TokenTTL)
		identityGW = backend
		messagingGW = backend
		taskGW = backend
	default:
		return nil, fmt.Errorf("unknown mode %q", cfg.Mode)
	}

	identity := store.NewIdentityStore(identityGW, sess, log)

	return &Client{
		Identity:      identity,
		Conversations: store.NewConversationStore(messagingGW, identity, log),
		Messages:      store.NewMessageStore(messagingGW, identity, DefaultPageSize, log),
		Tasks:         store.NewTaskStore(taskGW, identity, log),
		Notifications: store.NewNotificationStore(sess, log),
	}, nil
}
