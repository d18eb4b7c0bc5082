package usecases

import (
	"context"
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/practice-sem-2/chat-backend/internal/models"
	"github.com/practice-sem-2/chat-backend/internal/security"
	storage "github.com/practice-sem-2/chat-backend/internal/storages"
)

type UsersUsecase struct {
	registry storage.Registry
	security *security.Service
	validate *validator.Validate
}

func NewUsersUsecase(r storage.Registry, s *security.Service, v *validator.Validate) *UsersUsecase {
	return &UsersUsecase{
		registry: r,
		security: s,
		validate: v,
	}
}

func (u *UsersUsecase) GetUser(ctx context.Context, userId string) (*models.User, error) {
	return u.registry.Users().GetUser(ctx, userId)
}

func (u *UsersUsecase) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	return u.registry.Users().GetUserByUsername(ctx, username)
}

func (u *UsersUsecase) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	return u.registry.Users().GetUserByEmail(ctx, email)
}

func (u *UsersUsecase) GetUsers(ctx context.Context, filter models.UserFilter) ([]models.User, error) {
	return u.registry.Users().SelectUsers(ctx, filter)
}

func (u *UsersUsecase) CreateUser(ctx context.Context, create models.UserCreate) (*models.User, error) {
	if err := u.validate.Struct(create); err != nil {
		return nil, err
	}

	hash, err := u.security.Hash(create.Password)
	if err != nil {
		return nil, err
	}

	user := &models.User{
		UserID:       uuid.NewString(),
		Username:     create.Username,
		Email:        create.Email,
		PasswordHash: hash,
		IsActive:     true,
		CreatedAt:    time.Now().UTC(),
	}

	err = u.registry.Users().CreateUser(ctx, user)
	if err != nil {
		return nil, err
	}

	return user, nil
}

func (u *UsersUsecase) UpdateUser(ctx context.Context, userId string, update models.UserUpdate) (user *models.User, err error) {
	if err := u.validate.Struct(update); err != nil {
		return nil, err
	}

	fields := map[string]interface{}{}
	if update.Username != nil {
		fields["username"] = *update.Username
	}
	if update.Email != nil {
		fields["email"] = *update.Email
	}
	if update.IsActive != nil {
		fields["is_active"] = *update.IsActive
	}
	if update.Password != nil {
		hash, err := u.security.Hash(*update.Password)
		if err != nil {
			return nil, err
		}
		fields["password_hash"] = hash
	}

	err = u.registry.Atomic(ctx, func(r storage.Registry) error {
		store := r.Users()

		if err := store.UpdateUser(ctx, userId, fields); err != nil {
			return err
		}

		user, err = store.GetUser(ctx, userId)
		return err
	})
	return
}

func (u *UsersUsecase) DeleteUser(ctx context.Context, userId string) error {
	return u.registry.Users().DeleteUser(ctx, userId)
}

// SearchUsers matches the query against usernames and emails, leaving the
// requesting user out of the results.
func (u *UsersUsecase) SearchUsers(ctx context.Context, query string, currentUserId string) ([]models.User, error) {
	return u.registry.Users().SearchUsers(ctx, query, currentUserId)
}

// VerifyPassword returns the user for valid credentials. An unknown username
// and a wrong password both come back as (nil, nil): absence of a match is
// an expected outcome here, not a failure.
func (u *UsersUsecase) VerifyPassword(ctx context.Context, username string, password string) (*models.User, error) {
	user, err := u.registry.Users().GetUserByUsername(ctx, username)

	if errors.Is(err, storage.ErrUserNotFound) {
		return nil, nil
	} else if err != nil {
		return nil, err
	}

	if !u.security.Verify(password, user.PasswordHash) {
		return nil, nil
	}

	return user, nil
}
