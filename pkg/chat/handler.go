package chat

import (
	"context"
	"net/http"

	"github.com/gatherly/gatherly/internal/handler"
	"github.com/gatherly/gatherly/pkg/model"
	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func NewHandler(relay relayService) Handler {
	return Handler{relay}
}

type Handler struct {
	relay relayService
}

type relayService interface {
	Send(ctx context.Context, sender, receiver, body string) (*model.Message, error)
	MarkRead(ctx context.Context, ids []string, reader primitive.ObjectID) (int64, error)
	Conversations(ctx context.Context, userID primitive.ObjectID) ([]model.Conversation, error)
	History(ctx context.Context, requester, other primitive.ObjectID) ([]model.Message, error)
	Delete(ctx context.Context, id, requester primitive.ObjectID) error
	UnreadCount(ctx context.Context, userID primitive.ObjectID) (int64, error)
	Online() []string
}

type SendMessageRequest struct {
	Receiver string `json:"receiver" binding:"required,objectid"`
	Message  string `json:"message" binding:"required"`
}

// Send persists a message from the authenticated user and relays it like a websocket message
func (h Handler) Send(c *gin.Context) {
	user, err := handler.GetUserFromContext(c)
	if err != nil {
		_ = c.Error(err)
		return
	}

	var request SendMessageRequest
	if err := handler.DataBinder(c, &request); err != nil {
		_ = c.Error(err)
		return
	}

	message, err := h.relay.Send(c.Request.Context(), user.ID.Hex(), request.Receiver, request.Message)
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"success": true, "message": message})
}

func (h Handler) Conversations(c *gin.Context) {
	user, err := handler.GetUserFromContext(c)
	if err != nil {
		_ = c.Error(err)
		return
	}

	conversations, err := h.relay.Conversations(c.Request.Context(), user.ID)
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "conversations": conversations})
}

// History returns the conversation with the user given by the path and marks it as read
func (h Handler) History(c *gin.Context) {
	user, err := handler.GetUserFromContext(c)
	if err != nil {
		_ = c.Error(err)
		return
	}

	other, ok := handler.GetObjectIDParameter(c, "userId")
	if !ok {
		return
	}

	messages, err := h.relay.History(c.Request.Context(), user.ID, other)
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "messages": messages})
}

type MarkReadRequest struct {
	MessageIDs []string `json:"messageIds" binding:"required,min=1,dive,objectid"`
}

func (h Handler) MarkRead(c *gin.Context) {
	user, err := handler.GetUserFromContext(c)
	if err != nil {
		_ = c.Error(err)
		return
	}

	var request MarkReadRequest
	if err := handler.DataBinder(c, &request); err != nil {
		_ = c.Error(err)
		return
	}

	modified, err := h.relay.MarkRead(c.Request.Context(), request.MessageIDs, user.ID)
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "modifiedCount": modified})
}

func (h Handler) Delete(c *gin.Context) {
	user, err := handler.GetUserFromContext(c)
	if err != nil {
		_ = c.Error(err)
		return
	}

	id, ok := handler.GetObjectIDParameter(c, "id")
	if !ok {
		return
	}

	if err := h.relay.Delete(c.Request.Context(), id, user.ID); err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "message": "message deleted"})
}

func (h Handler) UnreadCount(c *gin.Context) {
	user, err := handler.GetUserFromContext(c)
	if err != nil {
		_ = c.Error(err)
		return
	}

	count, err := h.relay.UnreadCount(c.Request.Context(), user.ID)
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "count": count})
}

func (h Handler) Online(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"success": true, "users": h.relay.Online()})
}
