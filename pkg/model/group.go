package model

import (
	"slices"
	"time"

	"github.com/gatherly/gatherly/internal/optional"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Group domain object defining an interest group
type Group struct {
	ID          primitive.ObjectID   `bson:"_id,omitempty" json:"id"`
	Name        string               `bson:"name" json:"name"`
	Slug        string               `bson:"slug" json:"slug"`
	Description string               `bson:"description" json:"description"`
	Category    string               `bson:"category" json:"category"`
	Image       string               `bson:"image,omitempty" json:"image,omitempty"`
	Creator     primitive.ObjectID   `bson:"creator" json:"creator"`
	Admins      []primitive.ObjectID `bson:"admins" json:"admins"`
	Members     []primitive.ObjectID `bson:"members" json:"members"`
	MemberCount int                  `bson:"memberCount" json:"memberCount"`
	PostCount   int                  `bson:"postCount" json:"postCount"`
	CreatedAt   time.Time            `bson:"createdAt" json:"createdAt"`
	UpdatedAt   time.Time            `bson:"updatedAt" json:"updatedAt"`
}

func (g *Group) IsMember(userID primitive.ObjectID) bool {
	return slices.Contains(g.Members, userID)
}

func (g *Group) IsAdmin(userID primitive.ObjectID) bool {
	return slices.Contains(g.Admins, userID)
}

// GroupUpdate is an explicit partial update of a group. An explicit null clears the field.
type GroupUpdate struct {
	Description optional.Field[string]
	Category    optional.Field[string]
	Image       optional.Field[string]
}

type Post struct {
	ID           primitive.ObjectID   `bson:"_id,omitempty" json:"id"`
	Group        primitive.ObjectID   `bson:"group" json:"group"`
	Author       primitive.ObjectID   `bson:"author" json:"-"`
	AuthorDetail *PublicUser          `bson:"authorDetail,omitempty" json:"author,omitempty"`
	Content      string               `bson:"content" json:"content"`
	Images       []string             `bson:"images,omitempty" json:"images,omitempty"`
	Likes        []primitive.ObjectID `bson:"likes" json:"likes"`
	LikeCount    int                  `bson:"likeCount" json:"likeCount"`
	CommentCount int                  `bson:"commentCount" json:"commentCount"`
	CreatedAt    time.Time            `bson:"createdAt" json:"createdAt"`
	UpdatedAt    time.Time            `bson:"updatedAt" json:"updatedAt"`
}

type Comment struct {
	ID           primitive.ObjectID   `bson:"_id,omitempty" json:"id"`
	Post         primitive.ObjectID   `bson:"post" json:"post"`
	Author       primitive.ObjectID   `bson:"author" json:"-"`
	AuthorDetail *PublicUser          `bson:"authorDetail,omitempty" json:"author,omitempty"`
	Content      string               `bson:"content" json:"content"`
	Likes        []primitive.ObjectID `bson:"likes" json:"likes"`
	LikeCount    int                  `bson:"likeCount" json:"likeCount"`
	CreatedAt    time.Time            `bson:"createdAt" json:"createdAt"`
}

// LikeResult is the state of a like set after a toggle.
type LikeResult struct {
	Liked     bool `json:"liked"`
	LikeCount int  `json:"likeCount"`
}
