package event

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
	return &repository{
		events: db.Collection(storage.EventsCollection),
		users:  db.Collection(storage.UsersCollection),
	}
}

type repository struct {
	events *mongo.Collection
	users  *mongo.Collection
}

// attendeeSize guards against legacy documents without an attendees array.
var attendeeSize = bson.M{"$size": bson.M{"$ifNull": bson.A{"$attendees", bson.A{}}}}

func (r repository) create(ctx context.Context, event *model.Event) error {
	result, err := r.events.InsertOne(ctx, event)
	if err != nil {
		return fmt.Errorf("failed to create event: %v", err)
	}
	event.ID = result.InsertedID.(primitive.ObjectID)

	if event.Creator != nil {
		_, err = r.users.UpdateOne(ctx, bson.M{"_id": *event.Creator}, bson.M{"$addToSet": bson.M{"createdEvents": event.ID}})
		if err != nil {
			return fmt.Errorf("failed to add event to creator: %v", err)
		}
	}
	return nil
}

func (r repository) findByID(ctx context.Context, id primitive.ObjectID) (*model.Event, error) {
	var event model.Event
	err := r.events.FindOne(ctx, bson.M{"_id": id}).Decode(&event)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, errdef.NewNotFound("failed to find event with id %q", id.Hex())
		}
		return nil, fmt.Errorf("failed to find event: %v", err)
	}
	return &event, nil
}

// findByIDs returns the events sorted by date, newest first. Unknown ids are skipped.
func (r repository) findByIDs(ctx context.Context, ids []primitive.ObjectID) ([]model.Event, error) {
	events := []model.Event{}
	if len(ids) == 0 {
		return events, nil
	}

	findOptions := options.Find().SetSort(bson.D{{Key: "date", Value: -1}, {Key: "_id", Value: -1}})
	cursor, err := r.events.Find(ctx, bson.M{"_id": bson.M{"$in": ids}}, findOptions)
	if err != nil {
		return nil, fmt.Errorf("failed to find events: %v", err)
	}

	if err := cursor.All(ctx, &events); err != nil {
		return nil, fmt.Errorf("failed to decode events: %v", err)
	}
	return events, nil
}

func (r repository) find(ctx context.Context, filter model.EventFilter) ([]model.Event, int64, error) {
	query := bson.M{}
	if filter.Status != "" {
		query["status"] = filter.Status
	}
	if filter.Category != "" {
		query["category"] = filter.Category
	}
	if filter.Creator != nil {
		query["creator"] = *filter.Creator
	}
	if filter.Upcoming {
		query["date"] = bson.M{"$gte": time.Now()}
	}
	if filter.Search != "" {
		pattern := primitive.Regex{Pattern: regexp.QuoteMeta(filter.Search), Options: "i"}
		query["$or"] = bson.A{
			bson.M{"title": pattern},
			bson.M{"description": pattern},
		}
	}

	total, err := r.events.CountDocuments(ctx, query)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to count events: %v", err)
	}

	findOptions := options.Find().
		SetSort(bson.D{{Key: "date", Value: -1}, {Key: "_id", Value: -1}}).
		SetSkip(int64((filter.Page - 1) * filter.Limit)).
		SetLimit(int64(filter.Limit))
	cursor, err := r.events.Find(ctx, query, findOptions)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to find events: %v", err)
	}

	events := []model.Event{}
	if err := cursor.All(ctx, &events); err != nil {
		return nil, 0, fmt.Errorf("failed to decode events: %v", err)
	}
	return events, total, nil
}

// update applies the set fields of the update. A new capacity is only written if it isn't lower
// than the attendee count at the time of the write.
func (r repository) update(ctx context.Context, id primitive.ObjectID, update model.EventUpdate) (*model.Event, error) {
	set := bson.M{"updatedAt": time.Now()}
	unset := bson.M{}
	filter := bson.M{"_id": id}

	setString := func(field string, value string, ok bool) {
		if ok {
			set[field] = value
		}
	}
	setString("title", update.Title.Value, update.Title.HasValue())
	setString("description", update.Description.Value, update.Description.HasValue())
	setString("category", update.Category.Value, update.Category.HasValue())
	setString("location", update.Location.Value, update.Location.HasValue())
	setString("image", update.Image.Value, update.Image.HasValue())
	if update.Image.Null {
		unset["image"] = ""
	}
	if date, ok := update.Date.Get(); ok {
		set["date"] = date
	}
	if endDate, ok := update.EndDate.Get(); ok {
		set["endDate"] = endDate
	} else if update.EndDate.Null {
		unset["endDate"] = ""
	}
	if tags, ok := update.Tags.Get(); ok {
		set["tags"] = tags
	} else if update.Tags.Null {
		unset["tags"] = ""
	}
	if status, ok := update.Status.Get(); ok {
		set["status"] = status
	}
	if capacity, ok := update.Capacity.Get(); ok {
		set["capacity"] = capacity
		filter["$expr"] = bson.M{"$lte": bson.A{attendeeSize, capacity}}
	} else if update.Capacity.Null {
		set["capacity"] = nil
	}

	document := bson.M{"$set": set}
	if len(unset) > 0 {
		document["$unset"] = unset
	}

	var event model.Event
	err := r.events.FindOneAndUpdate(ctx, filter, document, options.FindOneAndUpdate().SetReturnDocument(options.After)).Decode(&event)
	if err == nil {
		return &event, nil
	}
	if !errors.Is(err, mongo.ErrNoDocuments) {
		return nil, fmt.Errorf("failed to update event: %v", err)
	}

	current, err := r.findByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !update.Capacity.HasValue() {
		return nil, errdef.NewNotFound("failed to find event with id %q", id.Hex())
	}
	return nil, errdef.NewBadRequest("capacity %d is lower than the current attendee count %d", update.Capacity.Value, len(current.Attendees))
}

// delete removes the event and every reference users hold to it.
func (r repository) delete(ctx context.Context, id primitive.ObjectID) error {
	result, err := r.events.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("failed to delete event: %v", err)
	}
	if result.DeletedCount == 0 {
		return errdef.NewNotFound("failed to find event with id %q", id.Hex())
	}

	_, err = r.users.UpdateMany(ctx, bson.M{}, bson.M{"$pull": bson.M{
		"createdEvents":   id,
		"attendingEvents": id,
		"savedEvents":     id,
	}})
	if err != nil {
		return fmt.Errorf("failed to remove event references: %v", err)
	}
	return nil
}

// attend adds the user to the attendees in a single conditional update. The update only matches a
// published event the user isn't attending yet that has room left, so concurrent joins can never
// exceed the capacity. ok is false if nothing matched.
func (r repository) attend(ctx context.Context, eventID, userID primitive.ObjectID) (event *model.Event, ok bool, err error) {
	filter := bson.M{
		"_id":       eventID,
		"status":    model.EventStatusPublished,
		"attendees": bson.M{"$ne": userID},
		"$or": bson.A{
			bson.M{"capacity": nil},
			bson.M{"$expr": bson.M{"$lt": bson.A{attendeeSize, "$capacity"}}},
		},
	}
	update := bson.M{
		"$addToSet": bson.M{"attendees": userID},
		"$inc":      bson.M{"attendeeCount": 1},
		"$set":      bson.M{"updatedAt": time.Now()},
	}

	var updated model.Event
	err = r.events.FindOneAndUpdate(ctx, filter, update, options.FindOneAndUpdate().SetReturnDocument(options.After)).Decode(&updated)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("failed to attend event: %v", err)
	}

	_, err = r.users.UpdateOne(ctx, bson.M{"_id": userID}, bson.M{"$addToSet": bson.M{"attendingEvents": eventID}})
	if err != nil {
		return nil, false, fmt.Errorf("failed to add event to attendee: %v", err)
	}
	return &updated, true, nil
}

// leave removes the user from the attendees. The counter is recomputed from the remaining set
// size so it never drops below zero.
func (r repository) leave(ctx context.Context, eventID, userID primitive.ObjectID) (event *model.Event, ok bool, err error) {
	filter := bson.M{"_id": eventID, "attendees": userID}
	update := bson.A{
		bson.M{"$set": bson.M{
			"attendees": bson.M{"$filter": bson.M{
				"input": "$attendees",
				"cond":  bson.M{"$ne": bson.A{"$$this", userID}},
			}},
			"updatedAt": time.Now(),
		}},
		bson.M{"$set": bson.M{"attendeeCount": attendeeSize}},
	}

	var updated model.Event
	err = r.events.FindOneAndUpdate(ctx, filter, update, options.FindOneAndUpdate().SetReturnDocument(options.After)).Decode(&updated)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("failed to leave event: %v", err)
	}

	_, err = r.users.UpdateOne(ctx, bson.M{"_id": userID}, bson.M{"$pull": bson.M{"attendingEvents": eventID}})
	if err != nil {
		return nil, false, fmt.Errorf("failed to remove event from attendee: %v", err)
	}
	return &updated, true, nil
}

// toggleSave flips the membership of the event in the saved events of the user and returns whether
// it is saved afterward.
func (r repository) toggleSave(ctx context.Context, eventID, userID primitive.ObjectID) (bool, error) {
	result, err := r.users.UpdateOne(ctx,
		bson.M{"_id": userID, "savedEvents": bson.M{"$ne": eventID}},
		bson.M{"$addToSet": bson.M{"savedEvents": eventID}},
	)
	if err != nil {
		return false, fmt.Errorf("failed to save event: %v", err)
	}
	if result.ModifiedCount == 1 {
		return true, nil
	}

	result, err = r.users.UpdateOne(ctx,
		bson.M{"_id": userID, "savedEvents": eventID},
		bson.M{"$pull": bson.M{"savedEvents": eventID}},
	)
	if err != nil {
		return false, fmt.Errorf("failed to unsave event: %v", err)
	}
	if result.MatchedCount == 0 {
		return false, errdef.NewNotFound("failed to find user with id %q", userID.Hex())
	}
	return false, nil
}

// findUserEventIDs returns the created, attending and saved event ids of a user.
func (r repository) findUserEventIDs(ctx context.Context, userID primitive.ObjectID) (*model.User, error) {
	projection := bson.M{"createdEvents": 1, "attendingEvents": 1, "savedEvents": 1, "active": 1}

	var user model.User
	err := r.users.FindOne(ctx, bson.M{"_id": userID}, options.FindOne().SetProjection(projection)).Decode(&user)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, errdef.NewNotFound("failed to find user with id %q", userID.Hex())
		}
		return nil, fmt.Errorf("failed to find user: %v", err)
	}
	return &user, nil
}
