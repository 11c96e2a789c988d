package model

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Message is a direct message between two users.
type Message struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Sender    primitive.ObjectID `bson:"sender" json:"sender"`
	Receiver  primitive.ObjectID `bson:"receiver" json:"receiver"`
	Message   string             `bson:"message" json:"message"`
	Read      bool               `bson:"read" json:"read"`
	ReadAt    *time.Time         `bson:"readAt,omitempty" json:"readAt,omitempty"`
	CreatedAt time.Time          `bson:"createdAt" json:"createdAt"`

	SenderDetail *PublicUser `bson:"-" json:"senderDetail,omitempty"`
}

// Partner returns the other participant of the message from the point of view of userID.
func (m *Message) Partner(userID primitive.ObjectID) primitive.ObjectID {
	if m.Sender == userID {
		return m.Receiver
	}
	return m.Sender
}

// ConversationKey identifies the conversation between a and b regardless of direction.
func ConversationKey(a, b primitive.ObjectID) string {
	x, y := a.Hex(), b.Hex()
	if x > y {
		x, y = y, x
	}
	return x + ":" + y
}

// Conversation summarises the messages exchanged with one partner.
type Conversation struct {
	Partner     PublicUser `bson:"partner" json:"user"`
	LastMessage Message    `bson:"lastMessage" json:"lastMessage"`
	UnreadCount int        `bson:"unreadCount" json:"unreadCount"`
}
