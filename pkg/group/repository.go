package group

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"time"

	"github.com/gatherly/gatherly/internal/errdef"
	"github.com/gatherly/gatherly/internal/optional"
	"github.com/gatherly/gatherly/pkg/model"
	"github.com/gatherly/gatherly/pkg/storage"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

//goland:noinspection GoExportedFuncWithUnexportedType
func NewRepository(db *mongo.Database) *repository {
	return &repository{
		groups:   db.Collection(storage.GroupsCollection),
		posts:    db.Collection(storage.PostsCollection),
		comments: db.Collection(storage.CommentsCollection),
	}
}

type repository struct {
	groups   *mongo.Collection
	posts    *mongo.Collection
	comments *mongo.Collection
}

var returnAfter = options.FindOneAndUpdate().SetReturnDocument(options.After)

func (r repository) create(ctx context.Context, group *model.Group) error {
	result, err := r.groups.InsertOne(ctx, group)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return errdef.NewBadRequest("group %q already exists", group.Name)
		}
		return fmt.Errorf("failed to create group: %v", err)
	}

	group.ID = result.InsertedID.(primitive.ObjectID)
	return nil
}

func (r repository) findByID(ctx context.Context, id primitive.ObjectID) (*model.Group, error) {
	var group model.Group
	err := r.groups.FindOne(ctx, bson.M{"_id": id}).Decode(&group)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, errdef.NewNotFound("failed to find group with id %q", id.Hex())
		}
		return nil, fmt.Errorf("failed to find group: %v", err)
	}
	return &group, nil
}

func (r repository) find(ctx context.Context, category, search string, page, limit int) ([]model.Group, int64, error) {
	filter := bson.M{}
	if category != "" {
		filter["category"] = category
	}
	if search != "" {
		pattern := primitive.Regex{Pattern: regexp.QuoteMeta(search), Options: "i"}
		filter["$or"] = bson.A{
			bson.M{"name": pattern},
			bson.M{"description": pattern},
		}
	}

	total, err := r.groups.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to count groups: %v", err)
	}

	findOptions := options.Find().
		SetSort(bson.D{{Key: "memberCount", Value: -1}, {Key: "_id", Value: -1}}).
		SetSkip(int64((page - 1) * limit)).
		SetLimit(int64(limit))
	groups, err := r.findAll(ctx, filter, findOptions)
	if err != nil {
		return nil, 0, err
	}
	return groups, total, nil
}

func (r repository) findByMember(ctx context.Context, userID primitive.ObjectID) ([]model.Group, error) {
	return r.findAll(ctx, bson.M{"members": userID}, options.Find().SetSort(bson.D{{Key: "name", Value: 1}}))
}

func (r repository) findAll(ctx context.Context, filter bson.M, findOptions *options.FindOptions) ([]model.Group, error) {
	cursor, err := r.groups.Find(ctx, filter, findOptions)
	if err != nil {
		return nil, fmt.Errorf("failed to find groups: %v", err)
	}

	groups := []model.Group{}
	if err := cursor.All(ctx, &groups); err != nil {
		return nil, fmt.Errorf("failed to decode groups: %v", err)
	}
	return groups, nil
}

func (r repository) update(ctx context.Context, id primitive.ObjectID, update model.GroupUpdate) (*model.Group, error) {
	set := bson.M{"updatedAt": time.Now()}
	unset := bson.M{}
	fields := map[string]optional.Field[string]{
		"description": update.Description,
		"category":    update.Category,
		"image":       update.Image,
	}
	for field, value := range fields {
		if value.Null {
			unset[field] = ""
		} else if value.Set {
			set[field] = value.Value
		}
	}

	document := bson.M{"$set": set}
	if len(unset) > 0 {
		document["$unset"] = unset
	}

	var group model.Group
	err := r.groups.FindOneAndUpdate(ctx, bson.M{"_id": id}, document, returnAfter).Decode(&group)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, errdef.NewNotFound("failed to find group with id %q", id.Hex())
		}
		return nil, fmt.Errorf("failed to update group: %v", err)
	}
	return &group, nil
}

// delete removes the group together with its posts and their comments.
func (r repository) delete(ctx context.Context, id primitive.ObjectID) error {
	postIDs, err := r.posts.Distinct(ctx, "_id", bson.M{"group": id})
	if err != nil {
		return fmt.Errorf("failed to find posts of group: %v", err)
	}

	if len(postIDs) > 0 {
		if _, err := r.comments.DeleteMany(ctx, bson.M{"post": bson.M{"$in": postIDs}}); err != nil {
			return fmt.Errorf("failed to delete comments of group: %v", err)
		}
		if _, err := r.posts.DeleteMany(ctx, bson.M{"group": id}); err != nil {
			return fmt.Errorf("failed to delete posts of group: %v", err)
		}
	}

	result, err := r.groups.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("failed to delete group: %v", err)
	}
	if result.DeletedCount == 0 {
		return errdef.NewNotFound("failed to find group with id %q", id.Hex())
	}
	return nil
}

// join adds the user to the members. ok is false if the user already is a member.
func (r repository) join(ctx context.Context, groupID, userID primitive.ObjectID) (*model.Group, bool, error) {
	return r.updateMembership(ctx,
		bson.M{"_id": groupID, "members": bson.M{"$ne": userID}},
		bson.M{
			"$addToSet": bson.M{"members": userID},
			"$inc":      bson.M{"memberCount": 1},
			"$set":      bson.M{"updatedAt": time.Now()},
		},
	)
}

// leave removes the user from the members and admins. The creator never matches.
func (r repository) leave(ctx context.Context, groupID, userID primitive.ObjectID) (*model.Group, bool, error) {
	return r.updateMembership(ctx,
		bson.M{"_id": groupID, "members": userID, "creator": bson.M{"$ne": userID}},
		bson.M{
			"$pull": bson.M{"members": userID, "admins": userID},
			"$inc":  bson.M{"memberCount": -1},
			"$set":  bson.M{"updatedAt": time.Now()},
		},
	)
}

func (r repository) updateMembership(ctx context.Context, filter, update bson.M) (*model.Group, bool, error) {
	var group model.Group
	err := r.groups.FindOneAndUpdate(ctx, filter, update, returnAfter).Decode(&group)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("failed to update group members: %v", err)
	}
	return &group, true, nil
}

func (r repository) createPost(ctx context.Context, post *model.Post) error {
	result, err := r.posts.InsertOne(ctx, post)
	if err != nil {
		return fmt.Errorf("failed to create post: %v", err)
	}
	post.ID = result.InsertedID.(primitive.ObjectID)

	_, err = r.groups.UpdateOne(ctx, bson.M{"_id": post.Group}, bson.M{"$inc": bson.M{"postCount": 1}})
	if err != nil {
		return fmt.Errorf("failed to increment post count: %v", err)
	}
	return nil
}

func (r repository) findPost(ctx context.Context, id primitive.ObjectID) (*model.Post, error) {
	var post model.Post
	err := r.posts.FindOne(ctx, bson.M{"_id": id}).Decode(&post)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, errdef.NewNotFound("failed to find post with id %q", id.Hex())
		}
		return nil, fmt.Errorf("failed to find post: %v", err)
	}
	return &post, nil
}

// findPosts returns the posts of the group, newest first.
func (r repository) findPosts(ctx context.Context, groupID primitive.ObjectID, page, limit int) ([]model.Post, int64, error) {
	filter := bson.M{"group": groupID}
	total, err := r.posts.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to count posts: %v", err)
	}

	findOptions := options.Find().
		SetSort(bson.D{{Key: "createdAt", Value: -1}, {Key: "_id", Value: -1}}).
		SetSkip(int64((page - 1) * limit)).
		SetLimit(int64(limit))
	cursor, err := r.posts.Find(ctx, filter, findOptions)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to find posts: %v", err)
	}

	posts := []model.Post{}
	if err := cursor.All(ctx, &posts); err != nil {
		return nil, 0, fmt.Errorf("failed to decode posts: %v", err)
	}
	return posts, total, nil
}

// deletePost removes the post and its comments and decrements the post count of its group.
func (r repository) deletePost(ctx context.Context, post *model.Post) error {
	if _, err := r.comments.DeleteMany(ctx, bson.M{"post": post.ID}); err != nil {
		return fmt.Errorf("failed to delete comments of post: %v", err)
	}

	result, err := r.posts.DeleteOne(ctx, bson.M{"_id": post.ID})
	if err != nil {
		return fmt.Errorf("failed to delete post: %v", err)
	}
	if result.DeletedCount == 0 {
		return errdef.NewNotFound("failed to find post with id %q", post.ID.Hex())
	}

	_, err = r.groups.UpdateOne(ctx,
		bson.M{"_id": post.Group, "postCount": bson.M{"$gt": 0}},
		bson.M{"$inc": bson.M{"postCount": -1}},
	)
	if err != nil {
		return fmt.Errorf("failed to decrement post count: %v", err)
	}
	return nil
}

func (r repository) togglePostLike(ctx context.Context, postID, userID primitive.ObjectID) (*model.LikeResult, error) {
	return toggleLike(ctx, r.posts, "post", postID, userID)
}

func (r repository) createComment(ctx context.Context, comment *model.Comment) error {
	result, err := r.comments.InsertOne(ctx, comment)
	if err != nil {
		return fmt.Errorf("failed to create comment: %v", err)
	}
	comment.ID = result.InsertedID.(primitive.ObjectID)

	_, err = r.posts.UpdateOne(ctx, bson.M{"_id": comment.Post}, bson.M{"$inc": bson.M{"commentCount": 1}})
	if err != nil {
		return fmt.Errorf("failed to increment comment count: %v", err)
	}
	return nil
}

func (r repository) findComment(ctx context.Context, id primitive.ObjectID) (*model.Comment, error) {
	var comment model.Comment
	err := r.comments.FindOne(ctx, bson.M{"_id": id}).Decode(&comment)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, errdef.NewNotFound("failed to find comment with id %q", id.Hex())
		}
		return nil, fmt.Errorf("failed to find comment: %v", err)
	}
	return &comment, nil
}

// findComments returns the comments of the post, oldest first.
func (r repository) findComments(ctx context.Context, postID primitive.ObjectID) ([]model.Comment, error) {
	findOptions := options.Find().SetSort(bson.D{{Key: "createdAt", Value: 1}, {Key: "_id", Value: 1}})
	cursor, err := r.comments.Find(ctx, bson.M{"post": postID}, findOptions)
	if err != nil {
		return nil, fmt.Errorf("failed to find comments: %v", err)
	}

	comments := []model.Comment{}
	if err := cursor.All(ctx, &comments); err != nil {
		return nil, fmt.Errorf("failed to decode comments: %v", err)
	}
	return comments, nil
}

func (r repository) deleteComment(ctx context.Context, comment *model.Comment) error {
	result, err := r.comments.DeleteOne(ctx, bson.M{"_id": comment.ID})
	if err != nil {
		return fmt.Errorf("failed to delete comment: %v", err)
	}
	if result.DeletedCount == 0 {
		return errdef.NewNotFound("failed to find comment with id %q", comment.ID.Hex())
	}

	_, err = r.posts.UpdateOne(ctx,
		bson.M{"_id": comment.Post, "commentCount": bson.M{"$gt": 0}},
		bson.M{"$inc": bson.M{"commentCount": -1}},
	)
	if err != nil {
		return fmt.Errorf("failed to decrement comment count: %v", err)
	}
	return nil
}

func (r repository) toggleCommentLike(ctx context.Context, commentID, userID primitive.ObjectID) (*model.LikeResult, error) {
	return toggleLike(ctx, r.comments, "comment", commentID, userID)
}

type likeable struct {
	LikeCount int `bson:"likeCount"`
}

// toggleLike adds the like if absent and removes it otherwise. Both branches are conditional on the
// current membership so likeCount always equals the size of likes.
func toggleLike(ctx context.Context, collection *mongo.Collection, kind string, id, userID primitive.ObjectID) (*model.LikeResult, error) {
	var document likeable
	err := collection.FindOneAndUpdate(ctx,
		bson.M{"_id": id, "likes": bson.M{"$ne": userID}},
		bson.M{"$addToSet": bson.M{"likes": userID}, "$inc": bson.M{"likeCount": 1}},
		returnAfter,
	).Decode(&document)
	if err == nil {
		return &model.LikeResult{Liked: true, LikeCount: document.LikeCount}, nil
	}
	if !errors.Is(err, mongo.ErrNoDocuments) {
		return nil, fmt.Errorf("failed to like: %v", err)
	}

	err = collection.FindOneAndUpdate(ctx,
		bson.M{"_id": id, "likes": userID},
		bson.M{"$pull": bson.M{"likes": userID}, "$inc": bson.M{"likeCount": -1}},
		returnAfter,
	).Decode(&document)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, errdef.NewNotFound("failed to find %s with id %q", kind, id.Hex())
		}
		return nil, fmt.Errorf("failed to unlike: %v", err)
	}
	return &model.LikeResult{Liked: false, LikeCount: document.LikeCount}, nil
}
