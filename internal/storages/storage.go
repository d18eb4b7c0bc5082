package storage

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/practice-sem-2/chat-backend/internal/models"
)

type AtomicFunc func(Registry) error

// Registry is the unit of work: it hands out gateways bound to one scope and
// runs a function atomically within a single-level transaction.
type Registry interface {
	Atomic(ctx context.Context, fn AtomicFunc) error
	Users() UsersStore
	Chats() ChatsStore
	Messages() MessagesStore
}

type UsersStore interface {
	CreateUser(ctx context.Context, user *models.User) error
	GetUser(ctx context.Context, userId string) (*models.User, error)
	GetUserByUsername(ctx context.Context, username string) (*models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	SelectUsers(ctx context.Context, filter models.UserFilter) ([]models.User, error)
	SelectUsersById(ctx context.Context, ids []string) ([]models.User, error)
	SearchUsers(ctx context.Context, query string, excludeUserId string) ([]models.User, error)
	UpdateUser(ctx context.Context, userId string, fields map[string]interface{}) error
	DeleteUser(ctx context.Context, userId string) error
}

type ChatsStore interface {
	CreateChat(ctx context.Context, chat *models.Chat) error
	GetChat(ctx context.Context, chatId string) (*models.Chat, error)
	GetChatWithMembers(ctx context.Context, chatId string) (*models.ChatWithMembers, error)
	SelectChats(ctx context.Context, filter models.ChatFilter) ([]models.Chat, error)
	UpdateChat(ctx context.Context, chatId string, fields map[string]interface{}) error
	DeleteChat(ctx context.Context, chatId string) error
	AddChatMembers(ctx context.Context, chatId string, members []string) error
	DeleteChatMembers(ctx context.Context, chatId string, members []string) error
	UserIsMember(ctx context.Context, chatId string, userId string) (bool, error)
	GetChatMembers(ctx context.Context, chatId string) ([]models.User, error)
	FindDirectChat(ctx context.Context, userA string, userB string) (*models.Chat, error)
}

type MessagesStore interface {
	PutMessage(ctx context.Context, message *models.Message) error
	GetMessage(ctx context.Context, messageId string) (*models.Message, error)
	SelectMessages(ctx context.Context, sel models.MessagesSelect) ([]models.Message, error)
	UpdateMessage(ctx context.Context, messageId string, fields map[string]interface{}) error
	DeleteMessage(ctx context.Context, messageId string) error
	SetStatus(ctx context.Context, messageId string, status models.MessageStatus) error
	MarkRead(ctx context.Context, messageId string, userId string) (bool, error)
	UnreadCount(ctx context.Context, chatId string, userId string) (int, error)
}

type DefaultRegistry struct {
	db    *sqlx.DB
	scope Scope
}

type Scope interface {
	sqlx.QueryerContext
	sqlx.ExecerContext
	sqlx.Execer
	sqlx.Queryer
	Get(dest interface{}, query string, args ...interface{}) error
	GetContext(ctx context.Context, dest interface{}, query string, args ...interface{}) error
	Select(dest interface{}, query string, args ...interface{}) error
	SelectContext(ctx context.Context, dest interface{}, query string, args ...interface{}) error
	NamedExec(query string, arg interface{}) (sql.Result, error)
	NamedExecContext(ctx context.Context, query string, arg interface{}) (sql.Result, error)
	NamedQuery(query string, arg interface{}) (*sqlx.Rows, error)
}

func NewRegistry(db *sqlx.DB) *DefaultRegistry {
	return &DefaultRegistry{
		db:    db,
		scope: db,
	}
}

func (r *DefaultRegistry) Atomic(ctx context.Context, fn AtomicFunc) (err error) {
	tx, err := r.db.BeginTxx(ctx, &sql.TxOptions{})
	if err != nil {
		return err
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
		if err != nil {
			if rbErr := tx.Rollback(); rbErr != nil {
				err = fmt.Errorf("rollback caused by error: \"%v\" failed: %v", err, rbErr)
			}
		} else {
			err = tx.Commit()
		}
	}()

	storage := DefaultRegistry{
		db:    r.db,
		scope: tx,
	}
	err = fn(&storage)
	return err
}

func (r *DefaultRegistry) Users() UsersStore {
	return NewUsersStorage(r.scope)
}

func (r *DefaultRegistry) Chats() ChatsStore {
	return NewChatsStorage(r.scope)
}

func (r *DefaultRegistry) Messages() MessagesStore {
	return NewMessagesStorage(r.scope)
}
