package chat

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"slices"

	"github.com/gatherly/gatherly/internal/errdef"
	"github.com/gatherly/gatherly/internal/handler"
	"github.com/gatherly/gatherly/pkg/model"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Events received from connections.
const (
	EventRegister    = "register"
	EventSendMessage = "sendMessage"
	EventMarkAsRead  = "markAsRead"
	EventTyping      = "typing"
	EventStopTyping  = "stopTyping"
)

//goland:noinspection GoExportedFuncWithUnexportedType
func NewSocketHandler(logger *slog.Logger, hub *Hub, relay socketRelay, presence presenceRegistry, allowedOrigins []string) SocketHandler {
	return SocketHandler{
		logger:   logger,
		hub:      hub,
		relay:    relay,
		presence: presence,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     checkOrigin(allowedOrigins),
		},
	}
}

type socketRelay interface {
	Send(ctx context.Context, sender, receiver, body string) (*model.Message, error)
	MarkRead(ctx context.Context, ids []string, reader primitive.ObjectID) (int64, error)
	Typing(notification TypingNotification, typing bool)
}

type presenceRegistry interface {
	Register(userID, connectionID string)
	Unregister(connectionID string) (string, bool)
}

// SocketHandler upgrades authenticated requests to websocket connections and dispatches the events
// received on them.
type SocketHandler struct {
	logger   *slog.Logger
	hub      *Hub
	relay    socketRelay
	presence presenceRegistry
	upgrader websocket.Upgrader
}

// Serve blocks until the connection is closed. The connection only receives messages after the
// client registered it.
func (h SocketHandler) Serve(c *gin.Context) {
	user, err := handler.GetUserFromContext(c)
	if err != nil {
		_ = c.Error(err)
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		// the upgrader already replied
		h.logger.InfoContext(c.Request.Context(), "Websocket upgrade failed", "error", err)
		return
	}

	cl := &client{
		id:     uuid.NewString(),
		userID: user.ID,
		conn:   conn,
		send:   make(chan []byte, sendBufferSize),
	}
	ctx := c.Request.Context()
	h.hub.add(cl)
	h.logger.InfoContext(ctx, "Websocket connected", "connectionId", cl.id)

	go cl.writeLoop()
	cl.readLoop(func(envelope Envelope) {
		h.dispatch(ctx, cl, envelope)
	})

	h.presence.Unregister(cl.id)
	h.hub.remove(cl.id)
	h.logger.InfoContext(ctx, "Websocket disconnected", "connectionId", cl.id)
}

type sendMessageRequest struct {
	Sender   string `json:"sender"`
	Receiver string `json:"receiver"`
	Message  string `json:"message"`
}

type markAsReadRequest struct {
	MessageIDs []string `json:"messageIds"`
	UserID     string   `json:"userId"`
}

type errorPayload struct {
	Message string `json:"message"`
}

func (h SocketHandler) dispatch(ctx context.Context, cl *client, envelope Envelope) {
	userID := cl.userID.Hex()

	switch envelope.Event {
	case EventRegister:
		var id string
		if err := json.Unmarshal(envelope.Data, &id); err != nil || id != userID {
			h.fail(ctx, cl, errdef.NewForbidden("can only register as the authenticated user"))
			return
		}
		h.presence.Register(userID, cl.id)

	case EventSendMessage:
		var request sendMessageRequest
		if err := json.Unmarshal(envelope.Data, &request); err != nil {
			h.fail(ctx, cl, errdef.NewBadRequest("invalid message: %v", err))
			return
		}
		if request.Sender == "" {
			h.fail(ctx, cl, errdef.NewBadRequest("sender, receiver and message are required"))
			return
		}
		if request.Sender != userID {
			h.fail(ctx, cl, errdef.NewForbidden("can only send messages as the authenticated user"))
			return
		}
		message, err := h.relay.Send(ctx, request.Sender, request.Receiver, request.Message)
		if err != nil {
			h.fail(ctx, cl, err)
			return
		}
		h.hub.Emit(cl.id, EventMessageSent, message)

	case EventMarkAsRead:
		var request markAsReadRequest
		if err := json.Unmarshal(envelope.Data, &request); err != nil {
			h.fail(ctx, cl, errdef.NewBadRequest("invalid read receipt: %v", err))
			return
		}
		if request.UserID != userID {
			h.fail(ctx, cl, errdef.NewForbidden("can only mark messages as read for the authenticated user"))
			return
		}
		modified, err := h.relay.MarkRead(ctx, request.MessageIDs, cl.userID)
		if err != nil {
			h.fail(ctx, cl, err)
			return
		}
		h.hub.Emit(cl.id, EventMessagesMarkedRead, gin.H{"messageIds": request.MessageIDs, "modifiedCount": modified})

	case EventTyping, EventStopTyping:
		var notification TypingNotification
		if err := json.Unmarshal(envelope.Data, &notification); err != nil || notification.Sender != userID {
			return
		}
		h.relay.Typing(notification, envelope.Event == EventTyping)

	default:
		h.fail(ctx, cl, errdef.NewBadRequest("unknown event %q", envelope.Event))
	}
}

// fail reports the error to the originating connection only. Unclassified errors aren't exposed.
func (h SocketHandler) fail(ctx context.Context, cl *client, err error) {
	message := err.Error()
	if !errdef.IsBadRequest(err) && !errdef.IsForbidden(err) && !errdef.IsNotFound(err) {
		h.logger.ErrorContext(ctx, "Websocket event failed", "connectionId", cl.id, "error", err)
		message = "failed to process event"
	}
	h.hub.Emit(cl.id, EventMessageError, errorPayload{Message: message})
}

func checkOrigin(allowedOrigins []string) func(r *http.Request) bool {
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" || slices.Contains(allowedOrigins, "*") {
			return true
		}
		return slices.Contains(allowedOrigins, origin)
	}
}
