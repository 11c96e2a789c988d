package model

import (
	"slices"
	"time"

	"github.com/gatherly/gatherly/internal/optional"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type EventStatus string

const (
	EventStatusDraft     EventStatus = "draft"
	EventStatusPublished EventStatus = "published"
	EventStatusCancelled EventStatus = "cancelled"
)

// Event domain object defining an event. Capacity nil means unlimited and Creator is nil for
// events created before creators were tracked.
type Event struct {
	ID            primitive.ObjectID   `bson:"_id,omitempty" json:"id"`
	Title         string               `bson:"title" json:"title"`
	Description   string               `bson:"description" json:"description"`
	Category      string               `bson:"category" json:"category"`
	Location      string               `bson:"location" json:"location"`
	Date          time.Time            `bson:"date" json:"date"`
	EndDate       *time.Time           `bson:"endDate,omitempty" json:"endDate,omitempty"`
	Image         string               `bson:"image,omitempty" json:"image,omitempty"`
	Tags          []string             `bson:"tags,omitempty" json:"tags,omitempty"`
	Capacity      *int                 `bson:"capacity" json:"capacity"`
	Attendees     []primitive.ObjectID `bson:"attendees" json:"attendees"`
	AttendeeCount int                  `bson:"attendeeCount" json:"attendeeCount"`
	Status        EventStatus          `bson:"status" json:"status"`
	Creator       *primitive.ObjectID  `bson:"creator" json:"creator"`
	CreatedAt     time.Time            `bson:"createdAt" json:"createdAt"`
	UpdatedAt     time.Time            `bson:"updatedAt" json:"updatedAt"`
}

func (e *Event) HasAttendee(userID primitive.ObjectID) bool {
	return slices.Contains(e.Attendees, userID)
}

func (e *Event) IsCreatedBy(userID primitive.ObjectID) bool {
	return e.Creator != nil && *e.Creator == userID
}

// IsFull reports whether the attendee set reached the capacity.
func (e *Event) IsFull() bool {
	return e.Capacity != nil && len(e.Attendees) >= *e.Capacity
}

// RemainingSpots returns nil for events without a capacity.
func (e *Event) RemainingSpots() *int {
	if e.Capacity == nil {
		return nil
	}
	remaining := max(*e.Capacity-len(e.Attendees), 0)
	return &remaining
}

// EventUpdate is an explicit partial update of an event. Capacity may be explicitly null which
// removes the limit.
type EventUpdate struct {
	Title       optional.Field[string]
	Description optional.Field[string]
	Category    optional.Field[string]
	Location    optional.Field[string]
	Date        optional.Field[time.Time]
	EndDate     optional.Field[time.Time]
	Image       optional.Field[string]
	Tags        optional.Field[[]string]
	Capacity    optional.Field[int]
	Status      optional.Field[EventStatus]
}

// EventFilter narrows down event listings.
type EventFilter struct {
	Category string
	Status   EventStatus
	Search   string
	Upcoming bool
	Creator  *primitive.ObjectID
	Page     int
	Limit    int
}
