package chat

import (
	"context"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/gatherly/gatherly/internal/errdef"
	"github.com/gatherly/gatherly/pkg/activity"
	"github.com/gatherly/gatherly/pkg/model"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

const maxMessageLength = 5000

// Events emitted to connections.
const (
	EventNewMessage         = "newMessage"
	EventMessageSent        = "messageSent"
	EventMessageError       = "messageError"
	EventMessagesMarkedRead = "messagesMarkedRead"
	EventUserTyping         = "userTyping"
	EventUserStoppedTyping  = "userStoppedTyping"
)

//goland:noinspection GoExportedFuncWithUnexportedType
func NewRelay(logger *slog.Logger, repository messageRepository, registry registry, emitter emitter, userService userService, publisher activity.Publisher) *Relay {
	return &Relay{
		logger:      logger,
		repository:  repository,
		registry:    registry,
		emitter:     emitter,
		userService: userService,
		publisher:   publisher,
	}
}

type messageRepository interface {
	create(ctx context.Context, message *model.Message) error
	findByID(ctx context.Context, id primitive.ObjectID) (*model.Message, error)
	markRead(ctx context.Context, ids []primitive.ObjectID, reader primitive.ObjectID, readAt time.Time) (int64, error)
	markConversationRead(ctx context.Context, reader, partner primitive.ObjectID, readAt time.Time) (int64, error)
	history(ctx context.Context, a, b primitive.ObjectID) ([]model.Message, error)
	conversations(ctx context.Context, userID primitive.ObjectID) ([]model.Conversation, error)
	delete(ctx context.Context, id primitive.ObjectID) error
	unreadCount(ctx context.Context, userID primitive.ObjectID) (int64, error)
}

type registry interface {
	Resolve(userID string) (string, bool)
	Online() []string
}

// emitter delivers an event to a connection. It reports whether the event was queued.
type emitter interface {
	Emit(connectionID string, event string, data any) bool
}

type userService interface {
	FindPublic(ctx context.Context, ids []primitive.ObjectID) ([]model.PublicUser, error)
}

// Relay persists direct messages and pushes them to the receiver if it's connected. Delivery is
// best effort, a receiver without connection reads the message from its history later.
type Relay struct {
	logger      *slog.Logger
	repository  messageRepository
	registry    registry
	emitter     emitter
	userService userService
	publisher   activity.Publisher
}

// TypingNotification is the payload of typing events.
type TypingNotification struct {
	Sender   string `json:"sender"`
	Receiver string `json:"receiver"`
}

// Send validates and persists the message before it's pushed to the receiver.
func (r Relay) Send(ctx context.Context, sender, receiver, body string) (*model.Message, error) {
	body = strings.TrimSpace(body)
	if sender == "" || receiver == "" || body == "" {
		return nil, errdef.NewBadRequest("sender, receiver and message are required")
	}
	if utf8.RuneCountInString(body) > maxMessageLength {
		return nil, errdef.NewBadRequest("message exceeds %d characters", maxMessageLength)
	}

	senderID, err := parseID("sender", sender)
	if err != nil {
		return nil, err
	}
	receiverID, err := parseID("receiver", receiver)
	if err != nil {
		return nil, err
	}
	if senderID == receiverID {
		return nil, errdef.NewBadRequest("can't send a message to yourself")
	}

	message := &model.Message{
		Sender:    senderID,
		Receiver:  receiverID,
		Message:   body,
		CreatedAt: time.Now(),
	}
	if err := r.repository.create(ctx, message); err != nil {
		return nil, err
	}

	r.withSender(ctx, message)
	r.publisher.Publish(ctx, activity.New(activity.MessageSent, senderID, message.ID))

	// presence is keyed by the canonical lowercase hex
	if connectionID, ok := r.registry.Resolve(receiverID.Hex()); ok {
		if !r.emitter.Emit(connectionID, EventNewMessage, message) {
			r.logger.WarnContext(ctx, "Message not delivered", "messageId", message.ID.Hex(), "connectionId", connectionID)
		}
	}

	return message, nil
}

// withSender attaches the profile of the sender. A failed lookup leaves the message as is.
func (r Relay) withSender(ctx context.Context, message *model.Message) {
	users, err := r.userService.FindPublic(ctx, []primitive.ObjectID{message.Sender})
	if err != nil {
		r.logger.ErrorContext(ctx, "Failed to find sender", "error", err)
		return
	}
	if len(users) == 1 {
		message.SenderDetail = &users[0]
	}
}

// MarkRead marks the unread messages among ids addressed to reader as read. Messages addressed to
// someone else are left untouched.
func (r Relay) MarkRead(ctx context.Context, ids []string, reader primitive.ObjectID) (int64, error) {
	messageIDs := make([]primitive.ObjectID, 0, len(ids))
	for _, id := range ids {
		messageID, err := parseID("message id", id)
		if err != nil {
			return 0, err
		}
		messageIDs = append(messageIDs, messageID)
	}

	return r.repository.markRead(ctx, messageIDs, reader, time.Now())
}

// Typing forwards a typing indicator to the receiver if it's connected. Nothing is persisted and
// nothing happens if the receiver isn't connected.
func (r Relay) Typing(notification TypingNotification, typing bool) {
	receiverID, err := primitive.ObjectIDFromHex(notification.Receiver)
	if err != nil {
		return
	}
	notification.Receiver = receiverID.Hex()

	connectionID, ok := r.registry.Resolve(notification.Receiver)
	if !ok {
		return
	}

	event := EventUserStoppedTyping
	if typing {
		event = EventUserTyping
	}
	r.emitter.Emit(connectionID, event, notification)
}

func (r Relay) Conversations(ctx context.Context, userID primitive.ObjectID) ([]model.Conversation, error) {
	return r.repository.conversations(ctx, userID)
}

// History returns the messages exchanged with other, oldest first. Unread messages addressed to the
// requester are marked as read before they are read back, so the result reflects the new state.
func (r Relay) History(ctx context.Context, requester, other primitive.ObjectID) ([]model.Message, error) {
	if _, err := r.repository.markConversationRead(ctx, requester, other, time.Now()); err != nil {
		return nil, err
	}

	return r.repository.history(ctx, requester, other)
}

// Delete removes a message. Only the sender is allowed to delete it.
func (r Relay) Delete(ctx context.Context, id, requester primitive.ObjectID) error {
	message, err := r.repository.findByID(ctx, id)
	if err != nil {
		return err
	}

	if message.Sender != requester {
		return errdef.NewForbidden("only the sender can delete message %q", id.Hex())
	}

	return r.repository.delete(ctx, id)
}

func (r Relay) UnreadCount(ctx context.Context, userID primitive.ObjectID) (int64, error) {
	return r.repository.unreadCount(ctx, userID)
}

// Online returns the ids of the users with a registered connection.
func (r Relay) Online() []string {
	return r.registry.Online()
}

func parseID(name, value string) (primitive.ObjectID, error) {
	id, err := primitive.ObjectIDFromHex(value)
	if err != nil {
		return primitive.NilObjectID, errdef.NewBadRequest("invalid %s %q", name, value)
	}
	return id, nil
}
