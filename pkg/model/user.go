package model

import (
	"context"
	"slices"
	"time"

	"github.com/gatherly/gatherly/internal/optional"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// User domain object defining a user
type User struct {
	ID              primitive.ObjectID   `bson:"_id,omitempty" json:"id"`
	Name            string               `bson:"name" json:"name"`
	Email           string               `bson:"email" json:"email"`
	Password        string               `bson:"password" json:"-"`
	Bio             string               `bson:"bio,omitempty" json:"bio,omitempty"`
	Location        string               `bson:"location,omitempty" json:"location,omitempty"`
	Avatar          string               `bson:"avatar,omitempty" json:"avatar,omitempty"`
	Interests       []string             `bson:"interests,omitempty" json:"interests,omitempty"`
	Active          bool                 `bson:"active" json:"active"`
	CreatedEvents   []primitive.ObjectID `bson:"createdEvents" json:"createdEvents"`
	AttendingEvents []primitive.ObjectID `bson:"attendingEvents" json:"attendingEvents"`
	SavedEvents     []primitive.ObjectID `bson:"savedEvents" json:"savedEvents"`
	CreatedAt       time.Time            `bson:"createdAt" json:"createdAt"`
	UpdatedAt       time.Time            `bson:"updatedAt" json:"updatedAt"`
}

// PublicUser is the projection of a user embedded into other resources.
type PublicUser struct {
	ID        primitive.ObjectID `bson:"_id" json:"id"`
	Name      string             `bson:"name" json:"name"`
	Avatar    string             `bson:"avatar,omitempty" json:"avatar,omitempty"`
	Bio       string             `bson:"bio,omitempty" json:"bio,omitempty"`
	Location  string             `bson:"location,omitempty" json:"location,omitempty"`
	Interests []string           `bson:"interests,omitempty" json:"interests,omitempty"`
}

// PublicUserProjection selects the fields of PublicUser when querying the users collection.
var PublicUserProjection = map[string]int{
	"name":      1,
	"avatar":    1,
	"bio":       1,
	"location":  1,
	"interests": 1,
}

func (u *User) Public() PublicUser {
	return PublicUser{
		ID:        u.ID,
		Name:      u.Name,
		Avatar:    u.Avatar,
		Bio:       u.Bio,
		Location:  u.Location,
		Interests: u.Interests,
	}
}

func (u *User) IsAttending(eventID primitive.ObjectID) bool {
	return slices.Contains(u.AttendingEvents, eventID)
}

func (u *User) HasSaved(eventID primitive.ObjectID) bool {
	return slices.Contains(u.SavedEvents, eventID)
}

// UserUpdate is an explicit partial update of a user profile. Only the fields present are written
// and an explicit null clears the field.
type UserUpdate struct {
	Name      optional.Field[string]
	Bio       optional.Field[string]
	Location  optional.Field[string]
	Avatar    optional.Field[string]
	Interests optional.Field[[]string]
}

func (u UserUpdate) IsEmpty() bool {
	return !u.Name.Set && !u.Bio.Set && !u.Location.Set && !u.Avatar.Set && !u.Interests.Set
}

type userContextKey struct{}

// NewContextWithUser returns a new context.Context that carries the authenticated user.
func NewContextWithUser(ctx context.Context, user *User) context.Context {
	return context.WithValue(ctx, userContextKey{}, user)
}

// GetUserFromContext returns the user stored in ctx, if any.
func GetUserFromContext(ctx context.Context) (*User, bool) {
	u, ok := ctx.Value(userContextKey{}).(*User)
	return u, ok
}
