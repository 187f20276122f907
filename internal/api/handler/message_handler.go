package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/peertask/horizon/internal/api/metrics"
	"github.com/peertask/horizon/internal/core/ports"
)

const defaultPageSize = 20

// MessageHandler serves the /messages_route endpoints.
type MessageHandler struct {
	messaging ports.MessagingGateway
}

func NewMessageHandler(messaging ports.MessagingGateway) *MessageHandler {
	return &MessageHandler{messaging: messaging}
}

// Conversations lists every conversation the user participates in.
func (h *MessageHandler) Conversations(c echo.Context) error {
	userID := c.QueryParam("userId")
	if userID == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "userId is required")
	}
	caller, err := ctxUserID(c)
	if err != nil {
		return err
	}
	if userID != caller {
		return echo.NewHTTPError(http.StatusForbidden, "conversations belong to the authenticated user")
	}

	list, err := h.messaging.Conversations(c.Request().Context(), bearerToken(c), userID)
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, list)
}

// ParticipantDetails resolves display metadata for a batch of user ids.
func (h *MessageHandler) ParticipantDetails(c echo.Context) error {
	var req participantDetailsRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	list, err := h.messaging.ParticipantDetails(c.Request().Context(), bearerToken(c), req.OpponentUserIDs)
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, list)
}

// Messages returns one page of a conversation's history, ascending by
// creation time. timeStamp, when present, bounds the page to messages
// created strictly earlier.
func (h *MessageHandler) Messages(c echo.Context) error {
	conversationID := c.QueryParam("conversationId")
	if conversationID == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "conversationId is required")
	}

	limit := defaultPageSize
	if raw := c.QueryParam("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			return echo.NewHTTPError(http.StatusBadRequest, "limit must be a positive integer")
		}
		limit = n
	}

	var before time.Time
	if raw := c.QueryParam("timeStamp"); raw != "" {
		t, err := time.Parse(time.RFC3339Nano, raw)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "timeStamp must be an RFC3339 timestamp")
		}
		before = t
	}

	list, err := h.messaging.Messages(c.Request().Context(), conversationID, before, limit)
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, list)
}

// SendMessage appends one message to a conversation.
func (h *MessageHandler) SendMessage(c echo.Context) error {
	var req sendMessageRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}
	userID, err := ctxUserID(c)
	if err != nil {
		return err
	}
	if req.SenderID != userID {
		return echo.NewHTTPError(http.StatusForbidden, "sender must be the authenticated user")
	}

	msg, err := h.messaging.SendMessage(c.Request().Context(), bearerToken(c), ports.SendMessageInput{
		Content:        req.Content,
		ConversationID: req.ConversationID,
		SenderID:       req.SenderID,
		ReceiverID:     req.ReceiverID,
	})
	if err != nil {
		return err
	}
	metrics.MessagesSentTotal.Inc()

	return respond(c, http.StatusCreated, msg)
}

// CreateConversation opens a thread between two users, returning the
// existing one when the pair already has a thread.
func (h *MessageHandler) CreateConversation(c echo.Context) error {
	var req createConversationRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}
	userID, err := ctxUserID(c)
	if err != nil {
		return err
	}
	if req.SenderID != userID {
		return echo.NewHTTPError(http.StatusForbidden, "sender must be the authenticated user")
	}

	conv, err := h.messaging.CreateConversation(c.Request().Context(), bearerToken(c), req.SenderID, req.ReceiverID)
	if err != nil {
		return err
	}
	metrics.ConversationsCreatedTotal.Inc()

	return respond(c, http.StatusCreated, conv)
}
