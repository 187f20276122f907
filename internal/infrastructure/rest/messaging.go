package rest

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/peertask/horizon/internal/core/domain"
	"github.com/peertask/horizon/internal/core/ports"
)

// MessagingGateway implements ports.MessagingGateway over the
// /messages_route endpoints.
type MessagingGateway struct {
	client *Client
}

func NewMessagingGateway(client *Client) *MessagingGateway {
	return &MessagingGateway{client: client}
}

func (g *MessagingGateway) Conversations(ctx context.Context, token, userID string) ([]domain.Conversation, error) {
	query := url.Values{"userId": {userID}}
	var list []domain.Conversation
	if err := g.client.get(ctx, "/messages_route/get-all-conversations", query, token, &list); err != nil {
		return nil, mapError(err)
	}
	return list, nil
}

type participantDetailsRequest struct {
	OpponentUserIDs []string `json:"opponentUserIds"`
}

func (g *MessagingGateway) ParticipantDetails(ctx context.Context, token string, userIDs []string) ([]domain.UserSummary, error) {
	var list []domain.UserSummary
	err := g.client.postJSON(ctx, "/messages_route/get-other-user-details", token,
		participantDetailsRequest{OpponentUserIDs: userIDs}, &list)
	if err != nil {
		return nil, mapError(err)
	}
	return list, nil
}

func (g *MessagingGateway) Messages(ctx context.Context, conversationID string, before time.Time, limit int) ([]domain.Message, error) {
	query := url.Values{
		"conversationId": {conversationID},
		"limit":          {strconv.Itoa(limit)},
	}
	if !before.IsZero() {
		query.Set("timeStamp", before.Format(time.RFC3339Nano))
	}

	var list []domain.Message
	if err := g.client.get(ctx, "/messages_route/get-messages", query, "", &list); err != nil {
		return nil, mapMessagingError(err)
	}
	return list, nil
}

type sendMessageRequest struct {
	Content        string `json:"content"`
	ConversationID string `json:"conversationId"`
	SenderID       string `json:"senderId"`
	ReceiverID     string `json:"receiverId"`
}

func (g *MessagingGateway) SendMessage(ctx context.Context, token string, input ports.SendMessageInput) (*domain.Message, error) {
	var msg domain.Message
	err := g.client.postJSON(ctx, "/messages_route/send-message", token, sendMessageRequest{
		Content:        input.Content,
		ConversationID: input.ConversationID,
		SenderID:       input.SenderID,
		ReceiverID:     input.ReceiverID,
	}, &msg)
	if err != nil {
		return nil, mapMessagingError(err)
	}
	return &msg, nil
}

type createConversationRequest struct {
	SenderID   string `json:"senderId"`
	ReceiverID string `json:"receiverId"`
}

func (g *MessagingGateway) CreateConversation(ctx context.Context, token, senderID, receiverID string) (*domain.Conversation, error) {
	var conv domain.Conversation
	err := g.client.postJSON(ctx, "/messages_route/create-conversation", token,
		createConversationRequest{SenderID: senderID, ReceiverID: receiverID}, &conv)
	if err != nil {
		return nil, mapMessagingError(err)
	}
	return &conv, nil
}

func mapMessagingError(err error) error {
	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.Status == http.StatusNotFound {
		return domain.ErrConversationNotFound
	}
	return mapError(err)
}
