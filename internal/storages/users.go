package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/practice-sem-2/chat-backend/internal/models"
)

type UsersStorage struct {
	db Scope
}

func NewUsersStorage(db Scope) *UsersStorage {
	return &UsersStorage{
		db: db,
	}
}

func (s *UsersStorage) CreateUser(ctx context.Context, user *models.User) error {
	query, args, err := sq.Insert("users").
		Columns("user_id", "username", "email", "password_hash", "is_active", "created_at").
		Values(user.UserID, user.Username, user.Email, user.PasswordHash, user.IsActive, user.CreatedAt).
		PlaceholderFormat(sq.Dollar).
		ToSql()

	if err != nil {
		return err
	}

	_, err = s.db.ExecContext(ctx, query, args...)

	switch GetPgxConstraintName(err) {
	case UsersUsernameKey:
		return ErrUsernameTaken
	case UsersEmailKey:
		return ErrEmailTaken
	default:
		return err
	}
}

func (s *UsersStorage) getBy(ctx context.Context, pred sq.Eq) (*models.User, error) {
	query, args, err := sq.Select("*").
		From("users").
		Where(pred).
		PlaceholderFormat(sq.Dollar).
		ToSql()

	if err != nil {
		return nil, err
	}

	user := models.User{}
	err = s.db.GetContext(ctx, &user, query, args...)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrUserNotFound
	} else if err != nil {
		return nil, err
	} else {
		return &user, nil
	}
}

func (s *UsersStorage) GetUser(ctx context.Context, userId string) (*models.User, error) {
	return s.getBy(ctx, sq.Eq{"user_id": userId})
}

func (s *UsersStorage) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	return s.getBy(ctx, sq.Eq{"username": username})
}

func (s *UsersStorage) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	return s.getBy(ctx, sq.Eq{"email": email})
}

func (s *UsersStorage) SelectUsers(ctx context.Context, filter models.UserFilter) ([]models.User, error) {
	builder := sq.Select("*").
		From("users").
		OrderBy("username").
		Offset(filter.Skip).
		PlaceholderFormat(sq.Dollar)

	if filter.Limit > 0 {
		builder = builder.Limit(filter.Limit)
	}

	if filter.Username != "" {
		builder = builder.Where(sq.ILike{"username": fmt.Sprintf("%%%s%%", filter.Username)})
	}

	query, args, err := builder.ToSql()

	if err != nil {
		return nil, err
	}

	users := make([]models.User, 0)
	err = s.db.SelectContext(ctx, &users, query, args...)

	if err != nil {
		return nil, err
	}

	return users, nil
}

func (s *UsersStorage) SelectUsersById(ctx context.Context, ids []string) ([]models.User, error) {
	if len(ids) == 0 {
		return []models.User{}, nil
	}

	query, args, err := sq.Select("*").
		From("users").
		Where(sq.Eq{"user_id": ids}).
		PlaceholderFormat(sq.Dollar).
		ToSql()

	if err != nil {
		return nil, err
	}

	users := make([]models.User, 0, len(ids))
	err = s.db.SelectContext(ctx, &users, query, args...)

	if err != nil {
		return nil, err
	}

	return users, nil
}

func (s *UsersStorage) SearchUsers(ctx context.Context, query string, excludeUserId string) ([]models.User, error) {
	pattern := fmt.Sprintf("%%%s%%", query)

	sqlQuery, args, err := sq.Select("*").
		From("users").
		Where(sq.And{
			sq.Or{
				sq.ILike{"username": pattern},
				sq.ILike{"email": pattern},
			},
			sq.NotEq{"user_id": excludeUserId},
		}).
		OrderBy("username").
		PlaceholderFormat(sq.Dollar).
		ToSql()

	if err != nil {
		return nil, err
	}

	users := make([]models.User, 0)
	err = s.db.SelectContext(ctx, &users, sqlQuery, args...)

	if err != nil {
		return nil, err
	}

	return users, nil
}

func (s *UsersStorage) UpdateUser(ctx context.Context, userId string, fields map[string]interface{}) error {
	if len(fields) == 0 {
		return nil
	}

	query, args, err := sq.Update("users").
		SetMap(fields).
		Where(sq.Eq{"user_id": userId}).
		PlaceholderFormat(sq.Dollar).
		ToSql()

	if err != nil {
		return err
	}

	res, err := s.db.ExecContext(ctx, query, args...)

	switch GetPgxConstraintName(err) {
	case UsersUsernameKey:
		return ErrUsernameTaken
	case UsersEmailKey:
		return ErrEmailTaken
	}

	if err != nil {
		return err
	}

	count, err := res.RowsAffected()

	if err != nil {
		return err
	}

	if count == 0 {
		return ErrUserNotFound
	}

	return nil
}

func (s *UsersStorage) DeleteUser(ctx context.Context, userId string) error {
	query, args, err := sq.Delete("users").
		Where(sq.Eq{"user_id": userId}).
		PlaceholderFormat(sq.Dollar).
		ToSql()

	if err != nil {
		return err
	}

	res, err := s.db.ExecContext(ctx, query, args...)

	if err != nil {
		return err
	}

	count, err := res.RowsAffected()

	if err != nil {
		return err
	}

	if count == 0 {
		return ErrUserNotFound
	}

	return nil
}
