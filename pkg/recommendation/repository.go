package recommendation

import (
	"context"
	"errors"
	"fmt"

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
	return &repository{
		users:  db.Collection(storage.UsersCollection),
		groups: db.Collection(storage.GroupsCollection),
	}
}

type repository struct {
	users  *mongo.Collection
	groups *mongo.Collection
}

var eventsProjection = bson.M{"attendingEvents": 1, "savedEvents": 1}

func (r repository) findUser(ctx context.Context, id primitive.ObjectID) (*model.User, error) {
	var user model.User
	err := r.users.FindOne(ctx, bson.M{"_id": id}, options.FindOne().SetProjection(eventsProjection)).Decode(&user)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, errdef.NewNotFound("failed to find user with id %q", id.Hex())
		}
		return nil, fmt.Errorf("failed to find user: %v", err)
	}
	return &user, nil
}

// findEventPeers returns the active users other than userID attending or saving any of the events.
func (r repository) findEventPeers(ctx context.Context, userID primitive.ObjectID, eventIDs []primitive.ObjectID) ([]model.User, error) {
	users := []model.User{}
	if len(eventIDs) == 0 {
		return users, nil
	}

	filter := bson.M{
		"_id":    bson.M{"$ne": userID},
		"active": true,
		"$or": bson.A{
			bson.M{"attendingEvents": bson.M{"$in": eventIDs}},
			bson.M{"savedEvents": bson.M{"$in": eventIDs}},
		},
	}
	findOptions := options.Find().SetProjection(eventsProjection).SetSort(bson.D{{Key: "_id", Value: 1}})
	cursor, err := r.users.Find(ctx, filter, findOptions)
	if err != nil {
		return nil, fmt.Errorf("failed to find users sharing events: %v", err)
	}

	if err := cursor.All(ctx, &users); err != nil {
		return nil, fmt.Errorf("failed to decode users: %v", err)
	}
	return users, nil
}

func (r repository) findGroups(ctx context.Context, userID primitive.ObjectID) ([]model.Group, error) {
	findOptions := options.Find().SetProjection(bson.M{"members": 1}).SetSort(bson.D{{Key: "_id", Value: 1}})
	cursor, err := r.groups.Find(ctx, bson.M{"members": userID}, findOptions)
	if err != nil {
		return nil, fmt.Errorf("failed to find groups of user: %v", err)
	}

	groups := []model.Group{}
	if err := cursor.All(ctx, &groups); err != nil {
		return nil, fmt.Errorf("failed to decode groups: %v", err)
	}
	return groups, nil
}

// findActiveProfiles returns the public profiles of the active users among ids in no particular order.
func (r repository) findActiveProfiles(ctx context.Context, ids []primitive.ObjectID) ([]model.PublicUser, error) {
	users := []model.PublicUser{}
	if len(ids) == 0 {
		return users, nil
	}

	findOptions := options.Find().SetProjection(model.PublicUserProjection)
	cursor, err := r.users.Find(ctx, bson.M{"_id": bson.M{"$in": ids}, "active": true}, findOptions)
	if err != nil {
		return nil, fmt.Errorf("failed to find users: %v", err)
	}

	if err := cursor.All(ctx, &users); err != nil {
		return nil, fmt.Errorf("failed to decode users: %v", err)
	}
	return users, nil
}

// sample returns up to size random active users other than userID.
func (r repository) sample(ctx context.Context, userID primitive.ObjectID, size int) ([]model.PublicUser, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"_id": bson.M{"$ne": userID}, "active": true}}},
		{{Key: "$sample", Value: bson.M{"size": size}}},
		{{Key: "$project", Value: model.PublicUserProjection}},
	}
	cursor, err := r.users.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, fmt.Errorf("failed to sample users: %v", err)
	}

	users := []model.PublicUser{}
	if err := cursor.All(ctx, &users); err != nil {
		return nil, fmt.Errorf("failed to decode users: %v", err)
	}
	return users, nil
}
