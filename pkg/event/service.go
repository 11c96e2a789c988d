package event

import (
	"context"
	"strings"
	"time"

	"github.com/gatherly/gatherly/internal/errdef"
	"github.com/gatherly/gatherly/pkg/activity"
	"github.com/gatherly/gatherly/pkg/model"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

//goland:noinspection GoExportedFuncWithUnexportedType
func NewService(repository eventRepository, userService userService, publisher activity.Publisher) *Service {
	return &Service{
		repository:  repository,
		userService: userService,
		publisher:   publisher,
	}
}

type eventRepository interface {
	create(ctx context.Context, event *model.Event) error
	findByID(ctx context.Context, id primitive.ObjectID) (*model.Event, error)
	findByIDs(ctx context.Context, ids []primitive.ObjectID) ([]model.Event, error)
	find(ctx context.Context, filter model.EventFilter) ([]model.Event, int64, error)
	update(ctx context.Context, id primitive.ObjectID, update model.EventUpdate) (*model.Event, error)
	delete(ctx context.Context, id primitive.ObjectID) error
	attend(ctx context.Context, eventID, userID primitive.ObjectID) (*model.Event, bool, error)
	leave(ctx context.Context, eventID, userID primitive.ObjectID) (*model.Event, bool, error)
	toggleSave(ctx context.Context, eventID, userID primitive.ObjectID) (bool, error)
	findUserEventIDs(ctx context.Context, userID primitive.ObjectID) (*model.User, error)
}

type userService interface {
	FindPublic(ctx context.Context, ids []primitive.ObjectID) ([]model.PublicUser, error)
}

type Service struct {
	repository  eventRepository
	userService userService
	publisher   activity.Publisher
}

// AttendResult is the outcome of toggling the attendance of a user.
type AttendResult struct {
	Attending     bool         `json:"attending"`
	AttendeeCount int          `json:"attendeeCount"`
	Event         *model.Event `json:"event"`
}

// UserEvents groups the events a user is related to. Saved is only populated for the user itself.
type UserEvents struct {
	Created   []model.Event `json:"created"`
	Attending []model.Event `json:"attending"`
	Saved     []model.Event `json:"saved,omitempty"`
}

func (s Service) Create(ctx context.Context, creator primitive.ObjectID, event *model.Event) (*model.Event, error) {
	if strings.TrimSpace(event.Title) == "" {
		return nil, errdef.NewBadRequest("title is required")
	}
	if event.Date.IsZero() {
		return nil, errdef.NewBadRequest("date is required")
	}
	if err := validateSchedule(event.Date, event.EndDate); err != nil {
		return nil, err
	}
	if event.Capacity != nil && *event.Capacity < 1 {
		return nil, errdef.NewBadRequest("capacity must be at least 1")
	}
	if event.Status == "" {
		event.Status = model.EventStatusPublished
	}
	if !validStatus(event.Status) {
		return nil, errdef.NewBadRequest("invalid status %q", event.Status)
	}

	now := time.Now()
	event.Title = strings.TrimSpace(event.Title)
	event.Creator = &creator
	event.Attendees = []primitive.ObjectID{}
	event.AttendeeCount = 0
	event.CreatedAt = now
	event.UpdatedAt = now

	if err := s.repository.create(ctx, event); err != nil {
		return nil, err
	}
	return event, nil
}

func (s Service) FindByID(ctx context.Context, id primitive.ObjectID) (*model.Event, error) {
	return s.repository.findByID(ctx, id)
}

// Find lists events. Without an explicit status only published events are listed.
func (s Service) Find(ctx context.Context, filter model.EventFilter) ([]model.Event, int64, error) {
	if filter.Status == "" {
		filter.Status = model.EventStatusPublished
	}
	if !validStatus(filter.Status) {
		return nil, 0, errdef.NewBadRequest("invalid status %q", filter.Status)
	}
	return s.repository.find(ctx, filter)
}

func (s Service) Update(ctx context.Context, id, userID primitive.ObjectID, update model.EventUpdate) (*model.Event, error) {
	event, err := s.repository.findByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if !event.IsCreatedBy(userID) {
		return nil, errdef.NewForbidden("only the creator can update event %q", id.Hex())
	}

	if title, ok := update.Title.Get(); ok && strings.TrimSpace(title) == "" {
		return nil, errdef.NewBadRequest("title can't be empty")
	}
	if update.Title.Null || update.Date.Null || update.Status.Null {
		return nil, errdef.NewBadRequest("title, date and status can't be null")
	}
	if capacity, ok := update.Capacity.Get(); ok && capacity < 1 {
		return nil, errdef.NewBadRequest("capacity must be at least 1")
	}
	if status, ok := update.Status.Get(); ok && !validStatus(status) {
		return nil, errdef.NewBadRequest("invalid status %q", status)
	}

	date := event.Date
	if value, ok := update.Date.Get(); ok {
		date = value
	}
	endDate := event.EndDate
	if value, ok := update.EndDate.Get(); ok {
		endDate = &value
	} else if update.EndDate.Null {
		endDate = nil
	}
	if err := validateSchedule(date, endDate); err != nil {
		return nil, err
	}

	return s.repository.update(ctx, id, update)
}

func (s Service) Delete(ctx context.Context, id, userID primitive.ObjectID) error {
	event, err := s.repository.findByID(ctx, id)
	if err != nil {
		return err
	}

	if !event.IsCreatedBy(userID) {
		return errdef.NewForbidden("only the creator can delete event %q", id.Hex())
	}

	return s.repository.delete(ctx, id)
}

// ToggleAttend makes the user leave the event if attending and join it otherwise. Joining is
// rejected when the event isn't published or is full.
func (s Service) ToggleAttend(ctx context.Context, eventID, userID primitive.ObjectID) (*AttendResult, error) {
	event, err := s.repository.findByID(ctx, eventID)
	if err != nil {
		return nil, err
	}

	if event.HasAttendee(userID) {
		return s.leave(ctx, eventID, userID)
	}

	if event.Status != model.EventStatusPublished {
		return nil, errdef.NewBadRequest("event %q is not open for attendance", eventID.Hex())
	}

	updated, ok, err := s.repository.attend(ctx, eventID, userID)
	if err != nil {
		return nil, err
	}

	if !ok {
		return s.rejectAttendance(ctx, eventID, userID)
	}

	s.publisher.Publish(ctx, activity.New(activity.EventAttended, userID, eventID))
	return &AttendResult{Attending: true, AttendeeCount: updated.AttendeeCount, Event: updated}, nil
}

func (s Service) leave(ctx context.Context, eventID, userID primitive.ObjectID) (*AttendResult, error) {
	updated, ok, err := s.repository.leave(ctx, eventID, userID)
	if err != nil {
		return nil, err
	}

	if !ok {
		// left concurrently
		current, err := s.repository.findByID(ctx, eventID)
		if err != nil {
			return nil, err
		}
		return &AttendResult{Attending: false, AttendeeCount: current.AttendeeCount, Event: current}, nil
	}

	s.publisher.Publish(ctx, activity.New(activity.EventLeft, userID, eventID))
	return &AttendResult{Attending: false, AttendeeCount: updated.AttendeeCount, Event: updated}, nil
}

// rejectAttendance explains why the conditional join didn't match by looking at the current state.
func (s Service) rejectAttendance(ctx context.Context, eventID, userID primitive.ObjectID) (*AttendResult, error) {
	current, err := s.repository.findByID(ctx, eventID)
	if err != nil {
		return nil, err
	}

	if current.HasAttendee(userID) {
		return &AttendResult{Attending: true, AttendeeCount: current.AttendeeCount, Event: current}, nil
	}

	if current.Status != model.EventStatusPublished {
		return nil, errdef.NewBadRequest("event %q is not open for attendance", eventID.Hex())
	}

	if current.IsFull() {
		return nil, errdef.NewCapacityExceeded(*current.Capacity, len(current.Attendees))
	}

	return nil, errdef.NewBadRequest("failed to attend event %q", eventID.Hex())
}

// ToggleSave returns whether the event is saved by the user afterward.
func (s Service) ToggleSave(ctx context.Context, eventID, userID primitive.ObjectID) (bool, error) {
	if _, err := s.repository.findByID(ctx, eventID); err != nil {
		return false, err
	}
	return s.repository.toggleSave(ctx, eventID, userID)
}

func (s Service) Attendees(ctx context.Context, eventID primitive.ObjectID) ([]model.PublicUser, error) {
	event, err := s.repository.findByID(ctx, eventID)
	if err != nil {
		return nil, err
	}
	return s.userService.FindPublic(ctx, event.Attendees)
}

// FindByUser returns the events the user created and attends. Saved events are private and only
// included when requested by the user itself.
func (s Service) FindByUser(ctx context.Context, userID primitive.ObjectID, requester *primitive.ObjectID) (*UserEvents, error) {
	user, err := s.repository.findUserEventIDs(ctx, userID)
	if err != nil {
		return nil, err
	}

	created, err := s.repository.findByIDs(ctx, user.CreatedEvents)
	if err != nil {
		return nil, err
	}

	attending, err := s.repository.findByIDs(ctx, user.AttendingEvents)
	if err != nil {
		return nil, err
	}

	events := &UserEvents{Created: created, Attending: attending}
	if requester != nil && *requester == userID {
		saved, err := s.repository.findByIDs(ctx, user.SavedEvents)
		if err != nil {
			return nil, err
		}
		events.Saved = saved
	}
	return events, nil
}

func validStatus(status model.EventStatus) bool {
	switch status {
	case model.EventStatusDraft, model.EventStatusPublished, model.EventStatusCancelled:
		return true
	}
	return false
}

func validateSchedule(date time.Time, endDate *time.Time) error {
	if endDate != nil && endDate.Before(date) {
		return errdef.NewBadRequest("end date can't be before the start date")
	}
	return nil
}
