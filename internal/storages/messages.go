package storage

import (
	"context"
	"database/sql"
	"errors"

	sq "github.com/Masterminds/squirrel"
	"github.com/practice-sem-2/chat-backend/internal/models"
)

type MessagesStorage struct {
	db Scope
}

func NewMessagesStorage(db Scope) *MessagesStorage {
	return &MessagesStorage{
		db: db,
	}
}

func (s *MessagesStorage) PutMessage(ctx context.Context, message *models.Message) error {
	query, args, err := sq.Insert("messages").
		Columns("message_id", "chat_id", "from_user", "text", "sending_time", "status").
		Values(message.MessageID, message.ChatID, message.FromUser, message.Text, message.SendingTime, message.Status).
		PlaceholderFormat(sq.Dollar).
		ToSql()

	if err != nil {
		return err
	}

	_, err = s.db.ExecContext(ctx, query, args...)

	switch GetPgxConstraintName(err) {
	case MessagesChatIdForeignKey:
		return ErrChatNotFound
	case MessagesFromUserForeignKey:
		return ErrUserNotFound
	case MessagesPrimaryKey:
		return ErrMessageAlreadyExists
	default:
		return err
	}
}

func (s *MessagesStorage) GetMessage(ctx context.Context, messageId string) (*models.Message, error) {
	query, args, err := sq.Select("*").
		From("messages").
		Where(sq.Eq{"message_id": messageId}).
		PlaceholderFormat(sq.Dollar).
		ToSql()

	if err != nil {
		return nil, err
	}

	msg := models.Message{}
	err = s.db.GetContext(ctx, &msg, query, args...)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrMessageNotFound
	} else if err != nil {
		return nil, err
	} else {
		return &msg, nil
	}
}

func (s *MessagesStorage) SelectMessages(ctx context.Context, sel models.MessagesSelect) ([]models.Message, error) {
	selector := sq.And{sq.Eq{"chat_id": sel.ChatID}}
	orderBy := "sending_time"

	if sel.Since != nil {
		selector = append(selector, sq.GtOrEq{"sending_time": sel.Since.UTC()})
	}
	if sel.Until != nil {
		selector = append(selector, sq.LtOrEq{"sending_time": sel.Until.UTC()})
		orderBy = "sending_time DESC"
	}

	builder := sq.Select("*").
		From("messages").
		Where(selector).
		OrderBy(orderBy).
		PlaceholderFormat(sq.Dollar)

	if sel.Count != nil && *sel.Count > 0 {
		builder = builder.Limit(*sel.Count)
	}

	query, args, err := builder.ToSql()

	if err != nil {
		return nil, err
	}

	messages := make([]models.Message, 0)
	err = s.db.SelectContext(ctx, &messages, query, args...)

	if err != nil {
		return nil, err
	}

	return messages, nil
}

func (s *MessagesStorage) UpdateMessage(ctx context.Context, messageId string, fields map[string]interface{}) error {
	if len(fields) == 0 {
		return nil
	}

	query, args, err := sq.Update("messages").
		SetMap(fields).
		Where(sq.Eq{"message_id": messageId}).
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
		return ErrMessageNotFound
	}

	return nil
}

func (s *MessagesStorage) DeleteMessage(ctx context.Context, messageId string) error {
	query, args, err := sq.Delete("messages").
		Where(sq.Eq{"message_id": messageId}).
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
		return ErrMessageNotFound
	}

	return nil
}

func (s *MessagesStorage) SetStatus(ctx context.Context, messageId string, status models.MessageStatus) error {
	return s.UpdateMessage(ctx, messageId, map[string]interface{}{
		"status": status,
	})
}

// MarkRead records a per-recipient read marker. Returns false when the
// marker already existed, which keeps repeated READ transitions idempotent.
func (s *MessagesStorage) MarkRead(ctx context.Context, messageId string, userId string) (bool, error) {
	query, args, err := sq.Insert("message_reads").
		Columns("message_id", "user_id", "read_at").
		Values(messageId, userId, sq.Expr("now()")).
		Suffix("ON CONFLICT DO NOTHING").
		PlaceholderFormat(sq.Dollar).
		ToSql()

	if err != nil {
		return false, err
	}

	res, err := s.db.ExecContext(ctx, query, args...)

	if GetPgxConstraintName(err) == MessageReadsMsgIdForeignKey {
		return false, ErrMessageNotFound
	} else if err != nil {
		return false, err
	}

	count, err := res.RowsAffected()

	if err != nil {
		return false, err
	}

	return count > 0, nil
}

// UnreadCount counts messages in the chat the user has not read yet,
// excluding the user's own messages. Computed on demand so it can never go
// stale against the messages and read-marker state.
func (s *MessagesStorage) UnreadCount(ctx context.Context, chatId string, userId string) (int, error) {
	query, args, err := sq.Select("count(*)").
		From("messages m").
		LeftJoin("message_reads r ON r.message_id = m.message_id AND r.user_id = ?", userId).
		Where(sq.And{
			sq.Eq{"m.chat_id": chatId},
			sq.NotEq{"m.from_user": userId},
			sq.Eq{"r.message_id": nil},
		}).
		PlaceholderFormat(sq.Dollar).
		ToSql()

	if err != nil {
		return 0, err
	}

	count := 0
	err = s.db.GetContext(ctx, &count, query, args...)

	if err != nil {
		return 0, err
	}

	return count, nil
}
