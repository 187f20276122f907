package store

import (
	"context"
	"strings"
	"sync"

	"github.com/rs/zerolog"

	"github.com/peertask/horizon/internal/core/domain"
	"github.com/peertask/horizon/internal/core/ports"
	"github.com/peertask/horizon/internal/infrastructure/session"
)

// IdentityStore holds the authenticated user and their bearer
// credential. Register and login replace the held user wholesale;
// profile updates merge the returned fields. The credential is
// persisted so a restart restores the session.
//
// IdentityStore implements ports.CredentialSource for the other stores.
type IdentityStore struct {
	mu      sync.Mutex
	gateway ports.IdentityGateway
	session *session.Store
	log     zerolog.Logger

	user  *domain.User
	token string
}

// NewIdentityStore restores a persisted session when one exists.
// session may be nil, in which case nothing is persisted.
func NewIdentityStore(gateway ports.IdentityGateway, sess *session.Store, log zerolog.Logger) *IdentityStore {
	s := &IdentityStore{gateway: gateway, session: sess, log: log}
	if sess != nil {
		user, token, err := sess.LoadUser()
		if err != nil {
			log.Warn().Err(err).Msg("could not restore session")
		} else if user != nil {
			s.user = user
			s.token = token
		}
	}
	return s
}

type registerForm struct {
	FullName string `validate:"required,min=2"`
	Email    string `validate:"required,email"`
	Password string `validate:"required,min=8"`
}

// Register creates an account and signs the user in. Field checks run
// locally before any network call.
func (s *IdentityStore) Register(ctx context.Context, fullName, email, password string) (*domain.User, error) {
	form := registerForm{
		FullName: strings.TrimSpace(fullName),
		Email:    strings.TrimSpace(email),
		Password: password,
	}
	if err := fieldErrors(validate.Struct(form)); err != nil {
		return nil, err
	}

	result, err := s.gateway.Register(ctx, ports.RegisterInput{
		FullName: form.FullName,
		Email:    form.Email,
		Password: form.Password,
		Role:     domain.RoleClient,
	})
	if err != nil {
		s.log.Error().Err(err).Str("email", form.Email).Msg("registration failed")
		return nil, err
	}

	s.replace(result)
	s.log.Info().Str("user_id", result.User.ID).Msg("registered")
	return result.User, nil
}

type loginForm struct {
	Email    string `validate:"required,email"`
	Password string `validate:"required"`
}

// Login authenticates against the backend and replaces the held user.
func (s *IdentityStore) Login(ctx context.Context, email, password string) (*domain.User, error) {
	form := loginForm{Email: strings.TrimSpace(email), Password: password}
	if err := fieldErrors(validate.Struct(form)); err != nil {
		return nil, err
	}

	result, err := s.gateway.Login(ctx, form.Email, form.Password)
	if err != nil {
		s.log.Error().Err(err).Str("email", form.Email).Msg("login failed")
		return nil, err
	}

	s.replace(result)
	s.log.Info().Str("user_id", result.User.ID).Msg("logged in")
	return result.User, nil
}

// UpdateProfile sends the edited fields and merges the returned user
// into local state. Requires a live session.
func (s *IdentityStore) UpdateProfile(ctx context.Context, update ports.ProfileUpdate) (*domain.User, error) {
	s.mu.Lock()
	token := s.token
	s.mu.Unlock()
	if token == "" {
		return nil, domain.ErrUnauthorized
	}

	updated, err := s.gateway.UpdateProfile(ctx, token, update)
	if err != nil {
		s.log.Error().Err(err).Msg("profile update failed")
		return nil, err
	}

	s.mu.Lock()
	s.user = updated
	user, tok := s.user, s.token
	s.mu.Unlock()

	s.persist(user, tok)
	return updated, nil
}

// Logout clears the held user and the persisted session. Local only;
// the server record is untouched.
func (s *IdentityStore) Logout() {
	s.mu.Lock()
	s.user = nil
	s.token = ""
	s.mu.Unlock()

	if s.session != nil {
		if err := s.session.ClearUser(); err != nil {
			s.log.Warn().Err(err).Msg("could not clear persisted session")
		}
	}
	s.log.Info().Msg("logged out")
}

// CurrentUser returns a copy of the held user, if any.
func (s *IdentityStore) CurrentUser() (*domain.User, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.user == nil {
		return nil, false
	}
	u := *s.user
	return &u, true
}

// Token implements ports.CredentialSource.
func (s *IdentityStore) Token() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.token
}

// UserID implements ports.CredentialSource.
func (s *IdentityStore) UserID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.user == nil {
		return ""
	}
	return s.user.ID
}

func (s *IdentityStore) replace(result *ports.AuthResult) {
	s.mu.Lock()
	s.user = result.User
	s.token = result.Token
	s.mu.Unlock()

	s.persist(result.User, result.Token)
}

func (s *IdentityStore) persist(user *domain.User, token string) {
	if s.session == nil {
		return
	}
	if err := s.session.SaveUser(user, token); err != nil {
		s.log.Warn().Err(err).Msg("could not persist session")
	}
}
