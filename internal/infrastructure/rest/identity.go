package rest

import (
	"context"
	"errors"
	"net/http"

	"github.com/peertask/horizon/internal/core/domain"
	"github.com/peertask/horizon/internal/core/ports"
)

// IdentityGateway implements ports.IdentityGateway over the /users
// endpoints.
type IdentityGateway struct {
	client *Client
}

func NewIdentityGateway(client *Client) *IdentityGateway {
	return &IdentityGateway{client: client}
}

type registerRequest struct {
	FullName string `json:"fullName"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// authPayload is the auth response shape: the profile plus the bearer
// credential.
type authPayload struct {
	User        *domain.User `json:"user"`
	AccessToken string       `json:"accessToken"`
}

func (g *IdentityGateway) Register(ctx context.Context, input ports.RegisterInput) (*ports.AuthResult, error) {
	var payload authPayload
	err := g.client.postJSON(ctx, "/users/register", "", registerRequest{
		FullName: input.FullName,
		Email:    input.Email,
		Password: input.Password,
	}, &payload)
	if err != nil {
		var apiErr *APIError
		if errors.As(err, &apiErr) && apiErr.Status == http.StatusConflict {
			return nil, domain.ErrEmailTaken
		}
		return nil, mapError(err)
	}
	return &ports.AuthResult{User: payload.User, Token: payload.AccessToken}, nil
}

func (g *IdentityGateway) Login(ctx context.Context, email, password string) (*ports.AuthResult, error) {
	var payload authPayload
	err := g.client.postJSON(ctx, "/users/login", "", loginRequest{Email: email, Password: password}, &payload)
	if err != nil {
		var apiErr *APIError
		if errors.As(err, &apiErr) && apiErr.Status == http.StatusUnauthorized {
			return nil, domain.ErrInvalidCredentials
		}
		return nil, mapError(err)
	}
	return &ports.AuthResult{User: payload.User, Token: payload.AccessToken}, nil
}

func (g *IdentityGateway) UpdateProfile(ctx context.Context, token string, update ports.ProfileUpdate) (*domain.User, error) {
	form := new(Form).
		Set("fullName", update.FullName).
		Set("bio", update.Bio).
		SetAll("skills", update.Skills)
	if update.Photo != nil {
		form.AddFile("photo", update.Photo.Name, update.Photo.Content)
	}

	var user domain.User
	if err := g.client.postMultipart(ctx, "/users/update_details", token, form, &user); err != nil {
		return nil, mapError(err)
	}
	return &user, nil
}
