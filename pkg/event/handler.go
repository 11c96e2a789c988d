package event

import (
	"context"
	"net/http"
	"time"

	"github.com/gatherly/gatherly/internal/errdef"
	"github.com/gatherly/gatherly/internal/handler"
	"github.com/gatherly/gatherly/internal/optional"
	"github.com/gatherly/gatherly/pkg/model"
	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func NewHandler(eventService eventService) Handler {
	return Handler{eventService}
}

type Handler struct {
	eventService eventService
}

type eventService interface {
	Create(ctx context.Context, creator primitive.ObjectID, event *model.Event) (*model.Event, error)
	FindByID(ctx context.Context, id primitive.ObjectID) (*model.Event, error)
	Find(ctx context.Context, filter model.EventFilter) ([]model.Event, int64, error)
	Update(ctx context.Context, id, userID primitive.ObjectID, update model.EventUpdate) (*model.Event, error)
	Delete(ctx context.Context, id, userID primitive.ObjectID) error
	ToggleAttend(ctx context.Context, eventID, userID primitive.ObjectID) (*AttendResult, error)
	ToggleSave(ctx context.Context, eventID, userID primitive.ObjectID) (bool, error)
	Attendees(ctx context.Context, eventID primitive.ObjectID) ([]model.PublicUser, error)
	FindByUser(ctx context.Context, userID primitive.ObjectID, requester *primitive.ObjectID) (*UserEvents, error)
}

type CreateEventRequest struct {
	Title       string            `json:"title" binding:"required,max=200"`
	Description string            `json:"description" binding:"max=5000"`
	Category    string            `json:"category" binding:"max=100"`
	Location    string            `json:"location" binding:"max=200"`
	Date        time.Time         `json:"date" binding:"required"`
	EndDate     *time.Time        `json:"endDate"`
	Image       string            `json:"image"`
	Tags        []string          `json:"tags" binding:"max=20,dive,max=50"`
	Capacity    *int              `json:"capacity" binding:"omitempty,min=1"`
	Status      model.EventStatus `json:"status" binding:"omitempty,oneOf=draft published cancelled"`
}

func (h Handler) Create(c *gin.Context) {
	user, err := handler.GetUserFromContext(c)
	if err != nil {
		_ = c.Error(err)
		return
	}

	var request CreateEventRequest
	if err := handler.DataBinder(c, &request); err != nil {
		_ = c.Error(err)
		return
	}

	event, err := h.eventService.Create(c.Request.Context(), user.ID, &model.Event{
		Title:       request.Title,
		Description: request.Description,
		Category:    request.Category,
		Location:    request.Location,
		Date:        request.Date,
		EndDate:     request.EndDate,
		Image:       request.Image,
		Tags:        request.Tags,
		Capacity:    request.Capacity,
		Status:      request.Status,
	})
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"success": true, "event": event})
}

// Find lists events filtered by the query parameters category, status, search, upcoming and creator
func (h Handler) Find(c *gin.Context) {
	page, limit := handler.GetPagination(c)
	filter := model.EventFilter{
		Category: c.Query("category"),
		Status:   model.EventStatus(c.Query("status")),
		Search:   c.Query("search"),
		Upcoming: c.Query("upcoming") == "true",
		Page:     page,
		Limit:    limit,
	}

	if creator := c.Query("creator"); creator != "" {
		id, err := primitive.ObjectIDFromHex(creator)
		if err != nil {
			_ = c.Error(errdef.NewBadRequest("invalid creator %q", creator))
			return
		}
		filter.Creator = &id
	}

	events, total, err := h.eventService.Find(c.Request.Context(), filter)
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "events": events, "total": total, "page": page, "limit": limit})
}

// FindByID returns the event. Authenticated callers also learn whether they attend or saved it.
func (h Handler) FindByID(c *gin.Context) {
	id, ok := handler.GetObjectIDParameter(c, "id")
	if !ok {
		return
	}

	event, err := h.eventService.FindByID(c.Request.Context(), id)
	if err != nil {
		_ = c.Error(err)
		return
	}

	response := gin.H{"success": true, "event": event, "remainingSpots": event.RemainingSpots()}
	if user := handler.GetOptionalUserFromContext(c); user != nil {
		response["isAttending"] = event.HasAttendee(user.ID)
		response["isSaved"] = user.HasSaved(event.ID)
		response["isCreator"] = event.IsCreatedBy(user.ID)
	}
	c.JSON(http.StatusOK, response)
}

// UpdateEventRequest distinguishes absent fields from explicit nulls. A null capacity removes the limit.
type UpdateEventRequest struct {
	Title       optional.Field[string]            `json:"title"`
	Description optional.Field[string]            `json:"description"`
	Category    optional.Field[string]            `json:"category"`
	Location    optional.Field[string]            `json:"location"`
	Date        optional.Field[time.Time]         `json:"date"`
	EndDate     optional.Field[time.Time]         `json:"endDate"`
	Image       optional.Field[string]            `json:"image"`
	Tags        optional.Field[[]string]          `json:"tags"`
	Capacity    optional.Field[int]               `json:"capacity"`
	Status      optional.Field[model.EventStatus] `json:"status"`
}

func (h Handler) Update(c *gin.Context) {
	user, err := handler.GetUserFromContext(c)
	if err != nil {
		_ = c.Error(err)
		return
	}

	id, ok := handler.GetObjectIDParameter(c, "id")
	if !ok {
		return
	}

	var request UpdateEventRequest
	if err := handler.DataBinder(c, &request); err != nil {
		_ = c.Error(err)
		return
	}

	event, err := h.eventService.Update(c.Request.Context(), id, user.ID, model.EventUpdate{
		Title:       request.Title,
		Description: request.Description,
		Category:    request.Category,
		Location:    request.Location,
		Date:        request.Date,
		EndDate:     request.EndDate,
		Image:       request.Image,
		Tags:        request.Tags,
		Capacity:    request.Capacity,
		Status:      request.Status,
	})
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "event": event})
}

func (h Handler) Delete(c *gin.Context) {
	user, err := handler.GetUserFromContext(c)
	if err != nil {
		_ = c.Error(err)
		return
	}

	id, ok := handler.GetObjectIDParameter(c, "id")
	if !ok {
		return
	}

	if err := h.eventService.Delete(c.Request.Context(), id, user.ID); err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "message": "event deleted"})
}

// Attend toggles the attendance of the authenticated user
func (h Handler) Attend(c *gin.Context) {
	user, err := handler.GetUserFromContext(c)
	if err != nil {
		_ = c.Error(err)
		return
	}

	id, ok := handler.GetObjectIDParameter(c, "id")
	if !ok {
		return
	}

	result, err := h.eventService.ToggleAttend(c.Request.Context(), id, user.ID)
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":       true,
		"attending":     result.Attending,
		"attendeeCount": result.AttendeeCount,
		"event":         result.Event,
	})
}

func (h Handler) Save(c *gin.Context) {
	user, err := handler.GetUserFromContext(c)
	if err != nil {
		_ = c.Error(err)
		return
	}

	id, ok := handler.GetObjectIDParameter(c, "id")
	if !ok {
		return
	}

	saved, err := h.eventService.ToggleSave(c.Request.Context(), id, user.ID)
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "saved": saved})
}

func (h Handler) Attendees(c *gin.Context) {
	id, ok := handler.GetObjectIDParameter(c, "id")
	if !ok {
		return
	}

	attendees, err := h.eventService.Attendees(c.Request.Context(), id)
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "attendees": attendees})
}

func (h Handler) FindByUser(c *gin.Context) {
	id, ok := handler.GetObjectIDParameter(c, "id")
	if !ok {
		return
	}

	var requester *primitive.ObjectID
	if user := handler.GetOptionalUserFromContext(c); user != nil {
		requester = &user.ID
	}

	events, err := h.eventService.FindByUser(c.Request.Context(), id, requester)
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "events": events})
}
