package group

import (
	"context"
	"net/http"

	"github.com/gatherly/gatherly/internal/handler"
	"github.com/gatherly/gatherly/internal/optional"
	"github.com/gatherly/gatherly/pkg/model"
	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func NewHandler(groupService groupService) Handler {
	return Handler{
		groupService: groupService,
	}
}

type Handler struct {
	groupService groupService
}

type groupService interface {
	Create(ctx context.Context, creator primitive.ObjectID, name, description, category, image string) (*model.Group, error)
	FindByID(ctx context.Context, id primitive.ObjectID) (*model.Group, error)
	Find(ctx context.Context, category, search string, page, limit int) ([]model.Group, int64, error)
	FindByMember(ctx context.Context, userID primitive.ObjectID) ([]model.Group, error)
	Update(ctx context.Context, id, userID primitive.ObjectID, update model.GroupUpdate) (*model.Group, error)
	Delete(ctx context.Context, id, userID primitive.ObjectID) error
	Join(ctx context.Context, groupID, userID primitive.ObjectID) (*model.Group, error)
	Leave(ctx context.Context, groupID, userID primitive.ObjectID) (*model.Group, error)
	Members(ctx context.Context, groupID primitive.ObjectID) ([]model.PublicUser, error)
	CreatePost(ctx context.Context, groupID, author primitive.ObjectID, content string, images []string) (*model.Post, error)
	Posts(ctx context.Context, groupID primitive.ObjectID, page, limit int) ([]model.Post, int64, error)
	DeletePost(ctx context.Context, postID, userID primitive.ObjectID) error
	TogglePostLike(ctx context.Context, postID, userID primitive.ObjectID) (*model.LikeResult, error)
	CreateComment(ctx context.Context, postID, author primitive.ObjectID, content string) (*model.Comment, error)
	Comments(ctx context.Context, postID primitive.ObjectID) ([]model.Comment, error)
	DeleteComment(ctx context.Context, commentID, userID primitive.ObjectID) error
	ToggleCommentLike(ctx context.Context, commentID, userID primitive.ObjectID) (*model.LikeResult, error)
}

type CreateGroupRequest struct {
	Name        string `json:"name" binding:"required,max=100"`
	Description string `json:"description" binding:"max=2000"`
	Category    string `json:"category" binding:"max=100"`
	Image       string `json:"image"`
}

// Create group
func (h Handler) Create(c *gin.Context) {
	// swagger:route POST /groups groupCreate
	//
	// Create group
	//
	// Create a group. The creator becomes its first admin and member...
	//
	// security:
	//   oauth2:
	//
	// responses:
	//   201: Group
	//   400: Error
	//   401: Error
	//   415: Error
	user, err := handler.GetUserFromContext(c)
	if err != nil {
		_ = c.Error(err)
		return
	}

	var request CreateGroupRequest
	if err := handler.DataBinder(c, &request); err != nil {
		_ = c.Error(err)
		return
	}

	group, err := h.groupService.Create(c.Request.Context(), user.ID, request.Name, request.Description, request.Category, request.Image)
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"success": true, "group": group})
}

// Find groups
func (h Handler) Find(c *gin.Context) {
	// swagger:route GET /groups findGroups
	//
	// Find groups
	//
	// Find groups filtered by category and search term, most members first...
	//
	// responses:
	//   200: Groups
	//   400: Error
	page, limit := handler.GetPagination(c)

	groups, total, err := h.groupService.Find(c.Request.Context(), c.Query("category"), c.Query("search"), page, limit)
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "groups": groups, "total": total, "page": page, "limit": limit})
}

// Mine returns the groups of the authenticated user
func (h Handler) Mine(c *gin.Context) {
	user, err := handler.GetUserFromContext(c)
	if err != nil {
		_ = c.Error(err)
		return
	}

	groups, err := h.groupService.FindByMember(c.Request.Context(), user.ID)
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "groups": groups})
}

func (h Handler) FindByID(c *gin.Context) {
	id, ok := handler.GetObjectIDParameter(c, "id")
	if !ok {
		return
	}

	group, err := h.groupService.FindByID(c.Request.Context(), id)
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "group": group})
}

// UpdateGroupRequest distinguishes absent fields from explicit nulls. A null clears the field.
type UpdateGroupRequest struct {
	Description optional.Field[string] `json:"description"`
	Category    optional.Field[string] `json:"category"`
	Image       optional.Field[string] `json:"image"`
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

	var request UpdateGroupRequest
	if err := handler.DataBinder(c, &request); err != nil {
		_ = c.Error(err)
		return
	}

	group, err := h.groupService.Update(c.Request.Context(), id, user.ID, model.GroupUpdate{
		Description: request.Description,
		Category:    request.Category,
		Image:       request.Image,
	})
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "group": group})
}

// Delete group
func (h Handler) Delete(c *gin.Context) {
	// swagger:route DELETE /groups/{id} deleteGroup
	//
	// Delete group
	//
	// Delete a group including its posts and comments. Only the creator is allowed to do so...
	//
	// security:
	//   oauth2:
	//
	// responses:
	//   200: Message
	//   401: Error
	//   403: Error
	//   404: Error
	user, err := handler.GetUserFromContext(c)
	if err != nil {
		_ = c.Error(err)
		return
	}

	id, ok := handler.GetObjectIDParameter(c, "id")
	if !ok {
		return
	}

	if err := h.groupService.Delete(c.Request.Context(), id, user.ID); err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "message": "group deleted"})
}

func (h Handler) Join(c *gin.Context) {
	h.membership(c, h.groupService.Join)
}

func (h Handler) Leave(c *gin.Context) {
	h.membership(c, h.groupService.Leave)
}

func (h Handler) membership(c *gin.Context, update func(ctx context.Context, groupID, userID primitive.ObjectID) (*model.Group, error)) {
	user, err := handler.GetUserFromContext(c)
	if err != nil {
		_ = c.Error(err)
		return
	}

	id, ok := handler.GetObjectIDParameter(c, "id")
	if !ok {
		return
	}

	group, err := update(c.Request.Context(), id, user.ID)
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "group": group, "isMember": group.IsMember(user.ID)})
}

func (h Handler) Members(c *gin.Context) {
	id, ok := handler.GetObjectIDParameter(c, "id")
	if !ok {
		return
	}

	members, err := h.groupService.Members(c.Request.Context(), id)
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "members": members})
}

type CreatePostRequest struct {
	Content string   `json:"content" binding:"required,max=10000"`
	Images  []string `json:"images" binding:"max=10"`
}

func (h Handler) CreatePost(c *gin.Context) {
	user, err := handler.GetUserFromContext(c)
	if err != nil {
		_ = c.Error(err)
		return
	}

	id, ok := handler.GetObjectIDParameter(c, "id")
	if !ok {
		return
	}

	var request CreatePostRequest
	if err := handler.DataBinder(c, &request); err != nil {
		_ = c.Error(err)
		return
	}

	post, err := h.groupService.CreatePost(c.Request.Context(), id, user.ID, request.Content, request.Images)
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"success": true, "post": post})
}

func (h Handler) Posts(c *gin.Context) {
	id, ok := handler.GetObjectIDParameter(c, "id")
	if !ok {
		return
	}

	page, limit := handler.GetPagination(c)
	posts, total, err := h.groupService.Posts(c.Request.Context(), id, page, limit)
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "posts": posts, "total": total, "page": page, "limit": limit})
}

func (h Handler) DeletePost(c *gin.Context) {
	user, err := handler.GetUserFromContext(c)
	if err != nil {
		_ = c.Error(err)
		return
	}

	postID, ok := handler.GetObjectIDParameter(c, "postId")
	if !ok {
		return
	}

	if err := h.groupService.DeletePost(c.Request.Context(), postID, user.ID); err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "message": "post deleted"})
}

func (h Handler) LikePost(c *gin.Context) {
	h.like(c, "postId", h.groupService.TogglePostLike)
}

func (h Handler) LikeComment(c *gin.Context) {
	h.like(c, "commentId", h.groupService.ToggleCommentLike)
}

func (h Handler) like(c *gin.Context, parameter string, toggle func(ctx context.Context, id, userID primitive.ObjectID) (*model.LikeResult, error)) {
	user, err := handler.GetUserFromContext(c)
	if err != nil {
		_ = c.Error(err)
		return
	}

	id, ok := handler.GetObjectIDParameter(c, parameter)
	if !ok {
		return
	}

	result, err := toggle(c.Request.Context(), id, user.ID)
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "liked": result.Liked, "likeCount": result.LikeCount})
}

type CreateCommentRequest struct {
	Content string `json:"content" binding:"required,max=2000"`
}

func (h Handler) CreateComment(c *gin.Context) {
	user, err := handler.GetUserFromContext(c)
	if err != nil {
		_ = c.Error(err)
		return
	}

	postID, ok := handler.GetObjectIDParameter(c, "postId")
	if !ok {
		return
	}

	var request CreateCommentRequest
	if err := handler.DataBinder(c, &request); err != nil {
		_ = c.Error(err)
		return
	}

	comment, err := h.groupService.CreateComment(c.Request.Context(), postID, user.ID, request.Content)
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"success": true, "comment": comment})
}

func (h Handler) Comments(c *gin.Context) {
	postID, ok := handler.GetObjectIDParameter(c, "postId")
	if !ok {
		return
	}

	comments, err := h.groupService.Comments(c.Request.Context(), postID)
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "comments": comments})
}

func (h Handler) DeleteComment(c *gin.Context) {
	user, err := handler.GetUserFromContext(c)
	if err != nil {
		_ = c.Error(err)
		return
	}

	commentID, ok := handler.GetObjectIDParameter(c, "commentId")
	if !ok {
		return
	}

	if err := h.groupService.DeleteComment(c.Request.Context(), commentID, user.ID); err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "message": "comment deleted"})
}
