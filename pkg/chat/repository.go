package chat

import (
	"context"
	"errors"
	"fmt"
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
	return &repository{messages: db.Collection(storage.MessagesCollection)}
}

type repository struct {
	messages *mongo.Collection
}

func (r repository) create(ctx context.Context, message *model.Message) error {
	result, err := r.messages.InsertOne(ctx, message)
	if err != nil {
		return fmt.Errorf("failed to create message: %v", err)
	}
	message.ID = result.InsertedID.(primitive.ObjectID)
	return nil
}

func (r repository) findByID(ctx context.Context, id primitive.ObjectID) (*model.Message, error) {
	var message model.Message
	err := r.messages.FindOne(ctx, bson.M{"_id": id}).Decode(&message)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, errdef.NewNotFound("failed to find message with id %q", id.Hex())
		}
		return nil, fmt.Errorf("failed to find message: %v", err)
	}
	return &message, nil
}

// markRead marks the unread messages among ids addressed to reader as read and returns how many
// were modified.
func (r repository) markRead(ctx context.Context, ids []primitive.ObjectID, reader primitive.ObjectID, readAt time.Time) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	return r.updateRead(ctx, bson.M{"_id": bson.M{"$in": ids}, "receiver": reader, "read": false}, readAt)
}

// markConversationRead marks every unread message from partner to reader as read.
func (r repository) markConversationRead(ctx context.Context, reader, partner primitive.ObjectID, readAt time.Time) (int64, error) {
	return r.updateRead(ctx, bson.M{"sender": partner, "receiver": reader, "read": false}, readAt)
}

func (r repository) updateRead(ctx context.Context, filter bson.M, readAt time.Time) (int64, error) {
	result, err := r.messages.UpdateMany(ctx, filter, bson.M{"$set": bson.M{"read": true, "readAt": readAt}})
	if err != nil {
		return 0, fmt.Errorf("failed to mark messages as read: %v", err)
	}
	return result.ModifiedCount, nil
}

// history returns the messages exchanged between a and b, oldest first.
func (r repository) history(ctx context.Context, a, b primitive.ObjectID) ([]model.Message, error) {
	filter := bson.M{"$or": bson.A{
		bson.M{"sender": a, "receiver": b},
		bson.M{"sender": b, "receiver": a},
	}}
	findOptions := options.Find().SetSort(bson.D{{Key: "createdAt", Value: 1}, {Key: "_id", Value: 1}})
	cursor, err := r.messages.Find(ctx, filter, findOptions)
	if err != nil {
		return nil, fmt.Errorf("failed to find messages: %v", err)
	}

	messages := []model.Message{}
	if err := cursor.All(ctx, &messages); err != nil {
		return nil, fmt.Errorf("failed to decode messages: %v", err)
	}
	return messages, nil
}

// conversations groups the messages of the user by partner. Each conversation carries the most
// recent message, the number of unread messages addressed to the user and the partner profile.
func (r repository) conversations(ctx context.Context, userID primitive.ObjectID) ([]model.Conversation, error) {
	partnerProjection := bson.M{"lastMessage": 1, "unreadCount": 1}
	for field := range model.PublicUserProjection {
		partnerProjection["partner."+field] = 1
	}
	partnerProjection["partner._id"] = 1

	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"$or": bson.A{bson.M{"sender": userID}, bson.M{"receiver": userID}}}}},
		{{Key: "$sort", Value: bson.D{{Key: "createdAt", Value: -1}, {Key: "_id", Value: -1}}}},
		{{Key: "$group", Value: bson.M{
			"_id":         bson.M{"$cond": bson.A{bson.M{"$eq": bson.A{"$sender", userID}}, "$receiver", "$sender"}},
			"lastMessage": bson.M{"$first": "$$ROOT"},
			"unreadCount": bson.M{"$sum": bson.M{"$cond": bson.A{
				bson.M{"$and": bson.A{
					bson.M{"$eq": bson.A{"$receiver", userID}},
					bson.M{"$eq": bson.A{"$read", false}},
				}},
				1,
				0,
			}}},
		}}},
		{{Key: "$lookup", Value: bson.M{
			"from":         storage.UsersCollection,
			"localField":   "_id",
			"foreignField": "_id",
			"as":           "partner",
		}}},
		{{Key: "$unwind", Value: "$partner"}},
		{{Key: "$project", Value: partnerProjection}},
		{{Key: "$sort", Value: bson.D{{Key: "lastMessage.createdAt", Value: -1}, {Key: "lastMessage._id", Value: -1}}}},
	}

	cursor, err := r.messages.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate conversations: %v", err)
	}

	conversations := []model.Conversation{}
	if err := cursor.All(ctx, &conversations); err != nil {
		return nil, fmt.Errorf("failed to decode conversations: %v", err)
	}
	return conversations, nil
}

func (r repository) delete(ctx context.Context, id primitive.ObjectID) error {
	result, err := r.messages.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("failed to delete message: %v", err)
	}
	if result.DeletedCount == 0 {
		return errdef.NewNotFound("failed to find message with id %q", id.Hex())
	}
	return nil
}

func (r repository) unreadCount(ctx context.Context, userID primitive.ObjectID) (int64, error) {
	count, err := r.messages.CountDocuments(ctx, bson.M{"receiver": userID, "read": false})
	if err != nil {
		return 0, fmt.Errorf("failed to count unread messages: %v", err)
	}
	return count, nil
}
