package group

import (
	"context"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/gatherly/gatherly/internal/errdef"
	"github.com/gatherly/gatherly/pkg/activity"
	"github.com/gatherly/gatherly/pkg/model"
	"github.com/gosimple/slug"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	maxDescriptionLength = 2000
	maxCategoryLength    = 100
)

//goland:noinspection GoExportedFuncWithUnexportedType
func NewService(repository groupRepository, userService userService, publisher activity.Publisher) *Service {
	return &Service{
		repository:  repository,
		userService: userService,
		publisher:   publisher,
	}
}

type groupRepository interface {
	create(ctx context.Context, group *model.Group) error
	findByID(ctx context.Context, id primitive.ObjectID) (*model.Group, error)
	find(ctx context.Context, category, search string, page, limit int) ([]model.Group, int64, error)
	findByMember(ctx context.Context, userID primitive.ObjectID) ([]model.Group, error)
	update(ctx context.Context, id primitive.ObjectID, update model.GroupUpdate) (*model.Group, error)
	delete(ctx context.Context, id primitive.ObjectID) error
	join(ctx context.Context, groupID, userID primitive.ObjectID) (*model.Group, bool, error)
	leave(ctx context.Context, groupID, userID primitive.ObjectID) (*model.Group, bool, error)
	createPost(ctx context.Context, post *model.Post) error
	findPost(ctx context.Context, id primitive.ObjectID) (*model.Post, error)
	findPosts(ctx context.Context, groupID primitive.ObjectID, page, limit int) ([]model.Post, int64, error)
	deletePost(ctx context.Context, post *model.Post) error
	togglePostLike(ctx context.Context, postID, userID primitive.ObjectID) (*model.LikeResult, error)
	createComment(ctx context.Context, comment *model.Comment) error
	findComment(ctx context.Context, id primitive.ObjectID) (*model.Comment, error)
	findComments(ctx context.Context, postID primitive.ObjectID) ([]model.Comment, error)
	deleteComment(ctx context.Context, comment *model.Comment) error
	toggleCommentLike(ctx context.Context, commentID, userID primitive.ObjectID) (*model.LikeResult, error)
}

type userService interface {
	FindPublic(ctx context.Context, ids []primitive.ObjectID) ([]model.PublicUser, error)
}

type Service struct {
	repository  groupRepository
	userService userService
	publisher   activity.Publisher
}

func (s Service) Create(ctx context.Context, creator primitive.ObjectID, name, description, category, image string) (*model.Group, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, errdef.NewBadRequest("name is required")
	}

	groupSlug := slug.Make(name)
	if groupSlug == "" {
		return nil, errdef.NewBadRequest("name %q doesn't contain any usable characters", name)
	}

	now := time.Now()
	group := &model.Group{
		Name:        name,
		Slug:        groupSlug,
		Description: description,
		Category:    category,
		Image:       image,
		Creator:     creator,
		Admins:      []primitive.ObjectID{creator},
		Members:     []primitive.ObjectID{creator},
		MemberCount: 1,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := s.repository.create(ctx, group); err != nil {
		return nil, err
	}
	return group, nil
}

func (s Service) FindByID(ctx context.Context, id primitive.ObjectID) (*model.Group, error) {
	return s.repository.findByID(ctx, id)
}

func (s Service) Find(ctx context.Context, category, search string, page, limit int) ([]model.Group, int64, error) {
	return s.repository.find(ctx, category, search, page, limit)
}

// FindByMember returns the groups the user is a member of
func (s Service) FindByMember(ctx context.Context, userID primitive.ObjectID) ([]model.Group, error) {
	return s.repository.findByMember(ctx, userID)
}

func (s Service) Update(ctx context.Context, id, userID primitive.ObjectID, update model.GroupUpdate) (*model.Group, error) {
	group, err := s.repository.findByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if !group.IsAdmin(userID) {
		return nil, errdef.NewForbidden("only admins can update group %q", group.Name)
	}

	if value, ok := update.Description.Get(); ok && utf8.RuneCountInString(value) > maxDescriptionLength {
		return nil, errdef.NewBadRequest("description exceeds %d characters", maxDescriptionLength)
	}
	if value, ok := update.Category.Get(); ok && utf8.RuneCountInString(value) > maxCategoryLength {
		return nil, errdef.NewBadRequest("category exceeds %d characters", maxCategoryLength)
	}

	return s.repository.update(ctx, id, update)
}

func (s Service) Delete(ctx context.Context, id, userID primitive.ObjectID) error {
	group, err := s.repository.findByID(ctx, id)
	if err != nil {
		return err
	}

	if group.Creator != userID {
		return errdef.NewForbidden("only the creator can delete group %q", group.Name)
	}

	return s.repository.delete(ctx, id)
}

// Join is idempotent. Joining a group the user is already a member of returns the group unchanged.
func (s Service) Join(ctx context.Context, groupID, userID primitive.ObjectID) (*model.Group, error) {
	group, ok, err := s.repository.join(ctx, groupID, userID)
	if err != nil {
		return nil, err
	}

	if !ok {
		return s.repository.findByID(ctx, groupID)
	}

	s.publisher.Publish(ctx, activity.New(activity.GroupJoined, userID, groupID))
	return group, nil
}

func (s Service) Leave(ctx context.Context, groupID, userID primitive.ObjectID) (*model.Group, error) {
	group, ok, err := s.repository.leave(ctx, groupID, userID)
	if err != nil {
		return nil, err
	}

	if ok {
		return group, nil
	}

	current, err := s.repository.findByID(ctx, groupID)
	if err != nil {
		return nil, err
	}
	if current.Creator == userID {
		return nil, errdef.NewBadRequest("the creator can't leave group %q", current.Name)
	}
	return nil, errdef.NewBadRequest("not a member of group %q", current.Name)
}

func (s Service) Members(ctx context.Context, groupID primitive.ObjectID) ([]model.PublicUser, error) {
	group, err := s.repository.findByID(ctx, groupID)
	if err != nil {
		return nil, err
	}
	return s.userService.FindPublic(ctx, group.Members)
}

func (s Service) CreatePost(ctx context.Context, groupID, author primitive.ObjectID, content string, images []string) (*model.Post, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, errdef.NewBadRequest("content is required")
	}

	group, err := s.repository.findByID(ctx, groupID)
	if err != nil {
		return nil, err
	}

	if !group.IsMember(author) {
		return nil, errdef.NewForbidden("only members can post in group %q", group.Name)
	}

	now := time.Now()
	post := &model.Post{
		Group:     groupID,
		Author:    author,
		Content:   content,
		Images:    images,
		Likes:     []primitive.ObjectID{},
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.repository.createPost(ctx, post); err != nil {
		return nil, err
	}

	if err := s.populatePostAuthors(ctx, []*model.Post{post}); err != nil {
		return nil, err
	}
	return post, nil
}

func (s Service) Posts(ctx context.Context, groupID primitive.ObjectID, page, limit int) ([]model.Post, int64, error) {
	if _, err := s.repository.findByID(ctx, groupID); err != nil {
		return nil, 0, err
	}

	posts, total, err := s.repository.findPosts(ctx, groupID, page, limit)
	if err != nil {
		return nil, 0, err
	}

	pointers := make([]*model.Post, len(posts))
	for i := range posts {
		pointers[i] = &posts[i]
	}
	if err := s.populatePostAuthors(ctx, pointers); err != nil {
		return nil, 0, err
	}
	return posts, total, nil
}

// DeletePost is allowed for the author and the admins of the group.
func (s Service) DeletePost(ctx context.Context, postID, userID primitive.ObjectID) error {
	post, err := s.repository.findPost(ctx, postID)
	if err != nil {
		return err
	}

	if post.Author != userID {
		group, err := s.repository.findByID(ctx, post.Group)
		if err != nil {
			return err
		}
		if !group.IsAdmin(userID) {
			return errdef.NewForbidden("not allowed to delete post %q", postID.Hex())
		}
	}

	return s.repository.deletePost(ctx, post)
}

func (s Service) TogglePostLike(ctx context.Context, postID, userID primitive.ObjectID) (*model.LikeResult, error) {
	return s.repository.togglePostLike(ctx, postID, userID)
}

func (s Service) CreateComment(ctx context.Context, postID, author primitive.ObjectID, content string) (*model.Comment, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, errdef.NewBadRequest("content is required")
	}

	post, err := s.repository.findPost(ctx, postID)
	if err != nil {
		return nil, err
	}

	group, err := s.repository.findByID(ctx, post.Group)
	if err != nil {
		return nil, err
	}

	if !group.IsMember(author) {
		return nil, errdef.NewForbidden("only members can comment in group %q", group.Name)
	}

	comment := &model.Comment{
		Post:      postID,
		Author:    author,
		Content:   content,
		Likes:     []primitive.ObjectID{},
		CreatedAt: time.Now(),
	}
	if err := s.repository.createComment(ctx, comment); err != nil {
		return nil, err
	}

	if err := s.populateCommentAuthors(ctx, []*model.Comment{comment}); err != nil {
		return nil, err
	}
	return comment, nil
}

func (s Service) Comments(ctx context.Context, postID primitive.ObjectID) ([]model.Comment, error) {
	if _, err := s.repository.findPost(ctx, postID); err != nil {
		return nil, err
	}

	comments, err := s.repository.findComments(ctx, postID)
	if err != nil {
		return nil, err
	}

	pointers := make([]*model.Comment, len(comments))
	for i := range comments {
		pointers[i] = &comments[i]
	}
	if err := s.populateCommentAuthors(ctx, pointers); err != nil {
		return nil, err
	}
	return comments, nil
}

// DeleteComment is allowed for the author and the admins of the group the post belongs to.
func (s Service) DeleteComment(ctx context.Context, commentID, userID primitive.ObjectID) error {
	comment, err := s.repository.findComment(ctx, commentID)
	if err != nil {
		return err
	}

	if comment.Author != userID {
		post, err := s.repository.findPost(ctx, comment.Post)
		if err != nil {
			return err
		}
		group, err := s.repository.findByID(ctx, post.Group)
		if err != nil {
			return err
		}
		if !group.IsAdmin(userID) {
			return errdef.NewForbidden("not allowed to delete comment %q", commentID.Hex())
		}
	}

	return s.repository.deleteComment(ctx, comment)
}

func (s Service) ToggleCommentLike(ctx context.Context, commentID, userID primitive.ObjectID) (*model.LikeResult, error) {
	return s.repository.toggleCommentLike(ctx, commentID, userID)
}

func (s Service) populatePostAuthors(ctx context.Context, posts []*model.Post) error {
	ids := make([]primitive.ObjectID, len(posts))
	for i, post := range posts {
		ids[i] = post.Author
	}

	authors, err := s.authors(ctx, ids)
	if err != nil {
		return err
	}

	for _, post := range posts {
		if author, ok := authors[post.Author]; ok {
			post.AuthorDetail = &author
		}
	}
	return nil
}

func (s Service) populateCommentAuthors(ctx context.Context, comments []*model.Comment) error {
	ids := make([]primitive.ObjectID, len(comments))
	for i, comment := range comments {
		ids[i] = comment.Author
	}

	authors, err := s.authors(ctx, ids)
	if err != nil {
		return err
	}

	for _, comment := range comments {
		if author, ok := authors[comment.Author]; ok {
			comment.AuthorDetail = &author
		}
	}
	return nil
}

func (s Service) authors(ctx context.Context, ids []primitive.ObjectID) (map[primitive.ObjectID]model.PublicUser, error) {
	users, err := s.userService.FindPublic(ctx, ids)
	if err != nil {
		return nil, err
	}

	authors := make(map[primitive.ObjectID]model.PublicUser, len(users))
	for _, user := range users {
		authors[user.ID] = user
	}
	return authors, nil
}
