package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/practice-sem-2/chat-backend/internal/models"
)

type ChatsStorage struct {
	db Scope
}

func NewChatsStorage(db Scope) *ChatsStorage {
	return &ChatsStorage{
		db: db,
	}
}

func (s *ChatsStorage) CreateChat(ctx context.Context, chat *models.Chat) error {
	query, args, err := sq.Insert("chats").
		Columns("chat_id", "name", "is_direct", "created_at").
		Values(chat.ChatID, chat.Name, chat.IsDirect, chat.CreatedAt).
		PlaceholderFormat(sq.Dollar).
		ToSql()

	if err != nil {
		return err
	}

	_, err = s.db.ExecContext(ctx, query, args...)

	if GetPgxConstraintName(err) == ChatsPrimaryKey {
		return ErrChatAlreadyExists
	} else {
		return err
	}
}

func (s *ChatsStorage) GetChat(ctx context.Context, chatId string) (*models.Chat, error) {
	query, args, err := sq.Select("*").
		From("chats").
		Where(sq.Eq{"chat_id": chatId}).
		PlaceholderFormat(sq.Dollar).
		ToSql()

	if err != nil {
		return nil, err
	}

	chat := models.Chat{}
	err = s.db.GetContext(ctx, &chat, query, args...)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrChatNotFound
	} else if err != nil {
		return nil, err
	} else {
		return &chat, nil
	}
}

func (s *ChatsStorage) GetChatWithMembers(ctx context.Context, chatId string) (*models.ChatWithMembers, error) {
	chat, err := s.GetChat(ctx, chatId)

	if err != nil {
		return nil, err
	}

	query, args, err := sq.Select("user_id").
		From("chat_members").
		Where(sq.Eq{"chat_id": chatId}).
		OrderBy("user_id").
		PlaceholderFormat(sq.Dollar).
		ToSql()

	if err != nil {
		return nil, err
	}

	members := make([]models.ChatMember, 0)
	err = s.db.SelectContext(ctx, &members, query, args...)

	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}

	return &models.ChatWithMembers{
		Chat:    *chat,
		Members: members,
	}, nil
}

func (s *ChatsStorage) SelectChats(ctx context.Context, filter models.ChatFilter) ([]models.Chat, error) {
	builder := sq.Select("*").
		From("chats").
		OrderBy("created_at").
		Offset(filter.Skip).
		PlaceholderFormat(sq.Dollar)

	if filter.Limit > 0 {
		builder = builder.Limit(filter.Limit)
	}

	if filter.Name != "" {
		builder = builder.Where(sq.ILike{"name": fmt.Sprintf("%%%s%%", filter.Name)})
	}

	query, args, err := builder.ToSql()

	if err != nil {
		return nil, err
	}

	chats := make([]models.Chat, 0)
	err = s.db.SelectContext(ctx, &chats, query, args...)

	if err != nil {
		return nil, err
	}

	return chats, nil
}

func (s *ChatsStorage) UpdateChat(ctx context.Context, chatId string, fields map[string]interface{}) error {
	if len(fields) == 0 {
		return nil
	}

	query, args, err := sq.Update("chats").
		SetMap(fields).
		Where(sq.Eq{"chat_id": chatId}).
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
		return ErrChatNotFound
	}

	return nil
}

// DeleteChat removes the chat row. Members, messages and read markers go
// with it through the ON DELETE CASCADE foreign keys.
func (s *ChatsStorage) DeleteChat(ctx context.Context, chatId string) error {
	query, args, err := sq.Delete("chats").
		Where(sq.Eq{"chat_id": chatId}).
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
		return ErrChatNotFound
	}

	return nil
}

func (s *ChatsStorage) AddChatMembers(ctx context.Context, chatId string, members []string) error {
	if len(members) == 0 {
		return ErrEmptyMembers
	}

	builder := sq.Insert("chat_members").
		Columns("chat_id", "user_id").
		Suffix("ON CONFLICT DO NOTHING").
		PlaceholderFormat(sq.Dollar)

	for _, member := range members {
		builder = builder.Values(chatId, member)
	}

	query, args, err := builder.ToSql()

	if err != nil {
		return err
	}

	_, err = s.db.ExecContext(ctx, query, args...)

	switch GetPgxConstraintName(err) {
	case ChatMembersChatIdForeignKey:
		return ErrChatNotFound
	case ChatMembersUserIdForeignKey:
		return ErrUserNotFound
	default:
		return err
	}
}

func (s *ChatsStorage) DeleteChatMembers(ctx context.Context, chatId string, members []string) error {
	if len(members) == 0 {
		return ErrEmptyMembers
	}

	query, args, err := sq.Delete("chat_members").
		Where(sq.Eq{
			"chat_id": chatId,
			"user_id": members,
		}).
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
		return ErrMemberNotFound
	}

	return nil
}

func (s *ChatsStorage) UserIsMember(ctx context.Context, chatId string, userId string) (bool, error) {
	// Check if chat exists
	_, err := s.GetChat(ctx, chatId)
	if err != nil {
		return false, err
	}

	query, args, err := sq.Select("1").
		From("chat_members").
		Where(sq.Eq{
			"chat_id": chatId,
			"user_id": userId,
		}).
		PlaceholderFormat(sq.Dollar).
		ToSql()

	if err != nil {
		return false, err
	}

	ok := false
	row := s.db.QueryRowxContext(ctx, query, args...)
	err = row.Scan(&ok)
	ok = ok && !errors.Is(err, sql.ErrNoRows)
	return ok, nil
}

func (s *ChatsStorage) GetChatMembers(ctx context.Context, chatId string) ([]models.User, error) {
	_, err := s.GetChat(ctx, chatId)
	if err != nil {
		return nil, err
	}

	query, args, err := sq.Select("u.*").
		From("users u").
		Join("chat_members m ON m.user_id = u.user_id").
		Where(sq.Eq{"m.chat_id": chatId}).
		OrderBy("u.username").
		PlaceholderFormat(sq.Dollar).
		ToSql()

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

// FindDirectChat looks up the direct chat whose member set is exactly the
// given pair. Returns ErrChatNotFound when the pair never started one.
func (s *ChatsStorage) FindDirectChat(ctx context.Context, userA string, userB string) (*models.Chat, error) {
	query, args, err := sq.Select("c.chat_id", "c.name", "c.is_direct", "c.created_at").
		From("chats c").
		Join("chat_members m USING (chat_id)").
		Where(sq.Eq{"c.is_direct": true}).
		GroupBy("c.chat_id").
		Having("count(*) = 2").
		Having("count(*) FILTER (WHERE m.user_id IN (?, ?)) = 2", userA, userB).
		PlaceholderFormat(sq.Dollar).
		ToSql()

	if err != nil {
		return nil, err
	}

	chat := models.Chat{}
	err = s.db.GetContext(ctx, &chat, query, args...)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrChatNotFound
	} else if err != nil {
		return nil, err
	} else {
		return &chat, nil
	}
}
