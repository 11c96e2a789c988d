package user

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"time"

	"github.com/gatherly/gatherly/internal/errdef"
	"github.com/gatherly/gatherly/pkg/model"
	"github.com/gatherly/gatherly/pkg/storage"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

//goland:noinspection GoExportedFuncWithUnexportedType
func NewRepository(db *mongo.Database) *repository {
	return &repository{users: db.Collection(storage.UsersCollection)}
}

type repository struct {
	users *mongo.Collection
}

func (r repository) create(ctx context.Context, user *model.User) error {
	result, err := r.users.InsertOne(ctx, user)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return errdef.NewBadRequest("user %q already exists", user.Email)
		}
		return fmt.Errorf("failed to create user: %v", err)
	}

	user.ID = result.InsertedID.(primitive.ObjectID)
	return nil
}

func (r repository) findByID(ctx context.Context, id primitive.ObjectID) (*model.User, error) {
	return r.findOne(ctx, bson.M{"_id": id}, fmt.Sprintf("failed to find user with id %q", id.Hex()))
}

func (r repository) findByEmail(ctx context.Context, email string) (*model.User, error) {
	return r.findOne(ctx, bson.M{"email": email}, fmt.Sprintf("failed to find user with email %q", email))
}

func (r repository) findOne(ctx context.Context, filter bson.M, notFound string) (*model.User, error) {
	var user model.User
	err := r.users.FindOne(ctx, filter).Decode(&user)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, errdef.NewNotFound("%s", notFound)
		}
		return nil, fmt.Errorf("failed to find user: %v", err)
	}
	return &user, nil
}

// findPublic returns the public projection of the given users in no particular order.
func (r repository) findPublic(ctx context.Context, ids []primitive.ObjectID) ([]model.PublicUser, error) {
	users := []model.PublicUser{}
	if len(ids) == 0 {
		return users, nil
	}

	cursor, err := r.users.Find(ctx, bson.M{"_id": bson.M{"$in": ids}}, options.Find().SetProjection(model.PublicUserProjection))
	if err != nil {
		return nil, fmt.Errorf("failed to find users: %v", err)
	}

	if err := cursor.All(ctx, &users); err != nil {
		return nil, fmt.Errorf("failed to decode users: %v", err)
	}
	return users, nil
}

func (r repository) find(ctx context.Context, search string, page, limit int) ([]model.PublicUser, int64, error) {
	filter := bson.M{"active": true}
	if search != "" {
		pattern := primitive.Regex{Pattern: regexp.QuoteMeta(search), Options: "i"}
		filter["$or"] = bson.A{
			bson.M{"name": pattern},
			bson.M{"location": pattern},
			bson.M{"interests": pattern},
		}
	}

	total, err := r.users.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to count users: %v", err)
	}

	findOptions := options.Find().
		SetProjection(model.PublicUserProjection).
		SetSort(bson.D{{Key: "name", Value: 1}, {Key: "_id", Value: 1}}).
		SetSkip(int64((page - 1) * limit)).
		SetLimit(int64(limit))
	cursor, err := r.users.Find(ctx, filter, findOptions)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to find users: %v", err)
	}

	users := []model.PublicUser{}
	if err := cursor.All(ctx, &users); err != nil {
		return nil, 0, fmt.Errorf("failed to decode users: %v", err)
	}
	return users, total, nil
}

func (r repository) update(ctx context.Context, id primitive.ObjectID, update model.UserUpdate) (*model.User, error) {
	set := bson.M{"updatedAt": time.Now()}
	unset := bson.M{}
	apply := func(field string, value any, present, null bool) {
		switch {
		case null:
			unset[field] = ""
		case present:
			set[field] = value
		}
	}
	apply("name", update.Name.Value, update.Name.HasValue(), false)
	apply("bio", update.Bio.Value, update.Bio.HasValue(), update.Bio.Null)
	apply("location", update.Location.Value, update.Location.HasValue(), update.Location.Null)
	apply("avatar", update.Avatar.Value, update.Avatar.HasValue(), update.Avatar.Null)
	apply("interests", update.Interests.Value, update.Interests.HasValue(), update.Interests.Null)

	document := bson.M{"$set": set}
	if len(unset) > 0 {
		document["$unset"] = unset
	}
	return r.findOneAndUpdate(ctx, id, document)
}

func (r repository) updatePassword(ctx context.Context, id primitive.ObjectID, hashedPassword string) error {
	_, err := r.findOneAndSet(ctx, id, bson.M{"password": hashedPassword, "updatedAt": time.Now()})
	return err
}

func (r repository) deactivate(ctx context.Context, id primitive.ObjectID) error {
	_, err := r.findOneAndSet(ctx, id, bson.M{"active": false, "updatedAt": time.Now()})
	return err
}

func (r repository) findOneAndSet(ctx context.Context, id primitive.ObjectID, set bson.M) (*model.User, error) {
	return r.findOneAndUpdate(ctx, id, bson.M{"$set": set})
}

func (r repository) findOneAndUpdate(ctx context.Context, id primitive.ObjectID, document bson.M) (*model.User, error) {
	var user model.User
	err := r.users.FindOneAndUpdate(
		ctx,
		bson.M{"_id": id},
		document,
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&user)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, errdef.NewNotFound("failed to find user with id %q", id.Hex())
		}
		return nil, fmt.Errorf("failed to update user: %v", err)
	}
	return &user, nil
}
