package user

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/gatherly/gatherly/internal/errdef"
	"github.com/gatherly/gatherly/internal/optional"
	"github.com/gatherly/gatherly/pkg/model"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"golang.org/x/crypto/bcrypt"
)

const minPasswordLength = 6

//goland:noinspection GoExportedFuncWithUnexportedType
func NewService(repository userRepository) *Service {
	return &Service{repository: repository}
}

type userRepository interface {
	create(ctx context.Context, user *model.User) error
	findByID(ctx context.Context, id primitive.ObjectID) (*model.User, error)
	findByEmail(ctx context.Context, email string) (*model.User, error)
	findPublic(ctx context.Context, ids []primitive.ObjectID) ([]model.PublicUser, error)
	find(ctx context.Context, search string, page, limit int) ([]model.PublicUser, int64, error)
	update(ctx context.Context, id primitive.ObjectID, update model.UserUpdate) (*model.User, error)
	updatePassword(ctx context.Context, id primitive.ObjectID, hashedPassword string) error
	deactivate(ctx context.Context, id primitive.ObjectID) error
}

type Service struct {
	repository userRepository
}

func (s Service) SignUp(ctx context.Context, name, email, password string) (*model.User, error) {
	name = strings.TrimSpace(name)
	email = normalizeEmail(email)
	if name == "" || email == "" {
		return nil, errdef.NewBadRequest("name and email are required")
	}
	if len(password) < minPasswordLength {
		return nil, errdef.NewBadRequest("password must be at least %d characters", minPasswordLength)
	}

	hashedPassword, err := hashPassword(password)
	if err != nil {
		return nil, fmt.Errorf("password hashing failed: %v", err)
	}

	now := time.Now()
	user := &model.User{
		Name:            name,
		Email:           email,
		Password:        hashedPassword,
		Active:          true,
		Interests:       []string{},
		CreatedEvents:   []primitive.ObjectID{},
		AttendingEvents: []primitive.ObjectID{},
		SavedEvents:     []primitive.ObjectID{},
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	if err := s.repository.create(ctx, user); err != nil {
		return nil, err
	}

	return user, nil
}

func (s Service) SignIn(ctx context.Context, email string, password string) (*model.User, error) {
	unauthorizedError := "invalid email and password combination"

	user, err := s.repository.findByEmail(ctx, normalizeEmail(email))
	if err != nil {
		if errdef.IsNotFound(err) {
			return nil, errdef.NewUnauthorized("%s", unauthorizedError)
		}
		return nil, err
	}

	match, err := comparePasswords(user.Password, password)
	if err != nil {
		return nil, fmt.Errorf("password comparison failed: %v", err)
	}

	if !match {
		return nil, errdef.NewUnauthorized("%s", unauthorizedError)
	}

	if !user.Active {
		return nil, errdef.NewUnauthorized("account is deactivated")
	}

	return user, nil
}

func (s Service) FindByID(ctx context.Context, id primitive.ObjectID) (*model.User, error) {
	return s.repository.findByID(ctx, id)
}

// FindPublic returns the public profiles of ids in the order of ids. Unknown ids are skipped.
func (s Service) FindPublic(ctx context.Context, ids []primitive.ObjectID) ([]model.PublicUser, error) {
	users, err := s.repository.findPublic(ctx, ids)
	if err != nil {
		return nil, err
	}

	byID := make(map[primitive.ObjectID]model.PublicUser, len(users))
	for _, user := range users {
		byID[user.ID] = user
	}

	ordered := make([]model.PublicUser, 0, len(users))
	for _, id := range ids {
		if user, ok := byID[id]; ok {
			ordered = append(ordered, user)
		}
	}
	return ordered, nil
}

// Profile returns the public profile of an active user.
func (s Service) Profile(ctx context.Context, id primitive.ObjectID) (*model.PublicUser, error) {
	user, err := s.repository.findByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if !user.Active {
		return nil, errdef.NewNotFound("failed to find user with id %q", id.Hex())
	}

	public := user.Public()
	return &public, nil
}

func (s Service) Find(ctx context.Context, search string, page, limit int) ([]model.PublicUser, int64, error) {
	return s.repository.find(ctx, strings.TrimSpace(search), page, limit)
}

func (s Service) UpdateProfile(ctx context.Context, id primitive.ObjectID, update model.UserUpdate) (*model.User, error) {
	if err := validateUpdate(update); err != nil {
		return nil, err
	}

	if update.IsEmpty() {
		return s.repository.findByID(ctx, id)
	}

	return s.repository.update(ctx, id, update)
}

func (s Service) ChangePassword(ctx context.Context, id primitive.ObjectID, currentPassword, newPassword string) error {
	user, err := s.repository.findByID(ctx, id)
	if err != nil {
		return err
	}

	match, err := comparePasswords(user.Password, currentPassword)
	if err != nil {
		return fmt.Errorf("password comparison failed: %v", err)
	}
	if !match {
		return errdef.NewUnauthorized("current password is incorrect")
	}

	if len(newPassword) < minPasswordLength {
		return errdef.NewBadRequest("password must be at least %d characters", minPasswordLength)
	}

	hashedPassword, err := hashPassword(newPassword)
	if err != nil {
		return fmt.Errorf("password hashing failed: %v", err)
	}

	return s.repository.updatePassword(ctx, id, hashedPassword)
}

func (s Service) Deactivate(ctx context.Context, id primitive.ObjectID) error {
	return s.repository.deactivate(ctx, id)
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func hashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

func comparePasswords(storedPassword string, suppliedPassword string) (bool, error) {
	err := bcrypt.CompareHashAndPassword([]byte(storedPassword), []byte(suppliedPassword))
	if err == nil {
		return true, nil
	}
	if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
		return false, nil
	}
	return false, err
}

const (
	maxNameLength     = 100
	maxBioLength      = 500
	maxLocationLength = 200
	maxAvatarLength   = 2048
	maxInterests      = 50
	maxInterestLength = 50
)

func validateUpdate(update model.UserUpdate) error {
	if update.Name.Null {
		return errdef.NewBadRequest("name can't be null")
	}
	if name, ok := update.Name.Get(); ok && strings.TrimSpace(name) == "" {
		return errdef.NewBadRequest("name can't be empty")
	}

	lengths := []struct {
		field string
		value optional.Field[string]
		max   int
	}{
		{"name", update.Name, maxNameLength},
		{"bio", update.Bio, maxBioLength},
		{"location", update.Location, maxLocationLength},
		{"avatar", update.Avatar, maxAvatarLength},
	}
	for _, length := range lengths {
		if value, ok := length.value.Get(); ok && utf8.RuneCountInString(value) > length.max {
			return errdef.NewBadRequest("%s exceeds %d characters", length.field, length.max)
		}
	}

	if interests, ok := update.Interests.Get(); ok {
		if len(interests) > maxInterests {
			return errdef.NewBadRequest("at most %d interests are allowed", maxInterests)
		}
		for _, interest := range interests {
			if utf8.RuneCountInString(interest) > maxInterestLength {
				return errdef.NewBadRequest("interest %q exceeds %d characters", interest, maxInterestLength)
			}
		}
	}
	return nil
}
