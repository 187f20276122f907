package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/peertask/horizon/internal/core/domain"
)

// dataEnvelope wraps every successful response body: {"data": <payload>}.
type dataEnvelope struct {
	Data any `json:"data"`
}

func respond(c echo.Context, status int, payload any) error {
	return c.JSON(status, dataEnvelope{Data: payload})
}

// ctxUserID extracts the caller identity injected by the Auth
// middleware; its absence means the middleware did not run.
func ctxUserID(c echo.Context) (string, error) {
	userID, _ := c.Get("user_id").(string)
	if userID == "" {
		return "", echo.NewHTTPError(http.StatusUnauthorized, "missing authentication claims")
	}
	return userID, nil
}

// --- Request / Response types ---

type registerRequest struct {
	FullName string `json:"fullName" validate:"required,min=2"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
	Role     string `json:"role" validate:"omitempty,oneof=client worker"`
}

type loginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// authResponse carries the profile plus the bearer credential.
type authResponse struct {
	User        *domain.User `json:"user"`
	AccessToken string       `json:"accessToken"`
}

type applyTaskRequest struct {
	TaskID      string `json:"taskId" validate:"required"`
	UserID      string `json:"userId" validate:"required"`
	CoverLetter string `json:"coverLetter"`
}

type assignTaskRequest struct {
	TaskID   string `json:"taskId" validate:"required"`
	WorkerID string `json:"workerId"`
}

type completeTaskRequest struct {
	TaskID string `json:"taskId" validate:"required"`
}

type participantDetailsRequest struct {
	OpponentUserIDs []string `json:"opponentUserIds" validate:"required,min=1"`
}

type sendMessageRequest struct {
	Content        string `json:"content" validate:"required"`
	ConversationID string `json:"conversationId" validate:"required"`
	SenderID       string `json:"senderId" validate:"required"`
	ReceiverID     string `json:"receiverId" validate:"required"`
}

type createConversationRequest struct {
	SenderID   string `json:"senderId" validate:"required"`
	ReceiverID string `json:"receiverId" validate:"required"`
}
