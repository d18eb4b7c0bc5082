package usecases

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/practice-sem-2/chat-backend/internal/events"
	"github.com/practice-sem-2/chat-backend/internal/models"
	storage "github.com/practice-sem-2/chat-backend/internal/storages"
	"github.com/samber/lo"
)

type ChatsUsecase struct {
	registry   storage.Registry
	dispatcher *events.Dispatcher
	validate   *validator.Validate
}

func NewChatsUsecase(r storage.Registry, d *events.Dispatcher, v *validator.Validate) *ChatsUsecase {
	return &ChatsUsecase{
		registry:   r,
		dispatcher: d,
		validate:   v,
	}
}

// CreateChat creates a chat with the creator plus the listed members. Every
// member id must resolve to an existing user; the first missing one fails
// the whole transaction.
func (u *ChatsUsecase) CreateChat(ctx context.Context, actorId string, create models.ChatCreate) (chat *models.ChatWithMembers, err error) {
	if err := u.validate.Struct(create); err != nil {
		return nil, err
	}

	members := lo.Uniq(append([]string{actorId}, create.Members...))

	var pending []models.Event
	err = u.registry.Atomic(ctx, func(r storage.Registry) error {
		known, err := r.Users().SelectUsersById(ctx, members)
		if err != nil {
			return err
		}

		knownIds := lo.Map(known, func(user models.User, _ int) string {
			return user.UserID
		})
		for _, member := range members {
			if !lo.Contains(knownIds, member) {
				return fmt.Errorf("%w: user %s", storage.ErrUserNotFound, member)
			}
		}

		now := time.Now().UTC()
		created := &models.Chat{
			ChatID:    uuid.NewString(),
			Name:      create.Name,
			IsDirect:  create.IsDirect,
			CreatedAt: now,
		}

		store := r.Chats()
		if err := store.CreateChat(ctx, created); err != nil {
			return err
		}
		if err := store.AddChatMembers(ctx, created.ChatID, members); err != nil {
			return err
		}

		chat = &models.ChatWithMembers{
			Chat: *created,
			Members: lo.Map(members, func(id string, _ int) models.ChatMember {
				return models.ChatMember{UserID: id}
			}),
		}
		pending = append(pending, models.ChatCreated{
			EventMeta: models.EventMeta{Timestamp: now},
			ChatID:    created.ChatID,
			IsDirect:  created.IsDirect,
			Members:   members,
		})
		return nil
	})

	if err != nil {
		return nil, err
	}

	u.dispatcher.Dispatch(ctx, pending...)
	return chat, nil
}

// StartChat finds or creates the direct chat between the two users. Calling
// it again with the same pair, in either order, returns the same chat.
func (u *ChatsUsecase) StartChat(ctx context.Context, actorId string, otherUserId string) (chat *models.Chat, err error) {
	var pending []models.Event
	err = u.registry.Atomic(ctx, func(r storage.Registry) error {
		users := r.Users()

		actor, err := users.GetUser(ctx, actorId)
		if err != nil {
			return err
		}
		other, err := users.GetUser(ctx, otherUserId)
		if err != nil {
			return err
		}

		store := r.Chats()
		existing, err := store.FindDirectChat(ctx, actorId, otherUserId)
		if err == nil {
			chat = existing
			return nil
		}
		if !errors.Is(err, storage.ErrChatNotFound) {
			return err
		}

		now := time.Now().UTC()
		members := lo.Uniq([]string{actorId, otherUserId})
		chat = &models.Chat{
			ChatID:    uuid.NewString(),
			Name:      fmt.Sprintf("Chat between %s and %s", actor.Username, other.Username),
			IsDirect:  true,
			CreatedAt: now,
		}

		if err := store.CreateChat(ctx, chat); err != nil {
			return err
		}
		if err := store.AddChatMembers(ctx, chat.ChatID, members); err != nil {
			return err
		}

		pending = append(pending, models.ChatCreated{
			EventMeta: models.EventMeta{Timestamp: now},
			ChatID:    chat.ChatID,
			IsDirect:  true,
			Members:   members,
		})
		return nil
	})

	if err != nil {
		return nil, err
	}

	u.dispatcher.Dispatch(ctx, pending...)
	return chat, nil
}

// AddChatMember is idempotent: adding an existing member succeeds without a
// write or an event.
func (u *ChatsUsecase) AddChatMember(ctx context.Context, actorId string, chatId string, userId string) error {
	var pending []models.Event
	err := u.registry.Atomic(ctx, func(r storage.Registry) error {
		store := r.Chats()

		isMember, err := store.UserIsMember(ctx, chatId, actorId)
		if err != nil {
			return err
		}
		if !isMember {
			return ErrUserIsNotAChatMember
		}

		if _, err := r.Users().GetUser(ctx, userId); err != nil {
			return err
		}

		already, err := store.UserIsMember(ctx, chatId, userId)
		if err != nil {
			return err
		}
		if already {
			return nil
		}

		if err := store.AddChatMembers(ctx, chatId, []string{userId}); err != nil {
			return err
		}

		pending = append(pending, models.MemberAdded{
			EventMeta: models.EventMeta{Timestamp: time.Now().UTC()},
			ChatID:    chatId,
			UserID:    userId,
		})
		return nil
	})

	if err != nil {
		return err
	}

	u.dispatcher.Dispatch(ctx, pending...)
	return nil
}

func (u *ChatsUsecase) RemoveChatMember(ctx context.Context, actorId string, chatId string, userId string) error {
	var pending []models.Event
	err := u.registry.Atomic(ctx, func(r storage.Registry) error {
		store := r.Chats()

		isMember, err := store.UserIsMember(ctx, chatId, actorId)
		if err != nil {
			return err
		}
		if !isMember {
			return ErrUserIsNotAChatMember
		}

		target, err := store.UserIsMember(ctx, chatId, userId)
		if err != nil {
			return err
		}
		if !target {
			return storage.ErrMemberNotFound
		}

		if err := store.DeleteChatMembers(ctx, chatId, []string{userId}); err != nil {
			return err
		}

		pending = append(pending, models.MemberRemoved{
			EventMeta: models.EventMeta{Timestamp: time.Now().UTC()},
			ChatID:    chatId,
			UserID:    userId,
		})
		return nil
	})

	if err != nil {
		return err
	}

	u.dispatcher.Dispatch(ctx, pending...)
	return nil
}

func (u *ChatsUsecase) UpdateChat(ctx context.Context, actorId string, chatId string, update models.ChatUpdate) (chat *models.Chat, err error) {
	if err := u.validate.Struct(update); err != nil {
		return nil, err
	}

	fields := map[string]interface{}{}
	if update.Name != nil {
		fields["name"] = *update.Name
	}

	err = u.registry.Atomic(ctx, func(r storage.Registry) error {
		store := r.Chats()

		isMember, err := store.UserIsMember(ctx, chatId, actorId)
		if err != nil {
			return err
		}
		if !isMember {
			return ErrUserIsNotAChatMember
		}

		if err := store.UpdateChat(ctx, chatId, fields); err != nil {
			return err
		}

		chat, err = store.GetChat(ctx, chatId)
		return err
	})
	return
}

// DeleteChat removes the chat and, through the storage cascade, all of its
// messages. Any current member may delete.
func (u *ChatsUsecase) DeleteChat(ctx context.Context, actorId string, chatId string) error {
	return u.registry.Atomic(ctx, func(r storage.Registry) error {
		store := r.Chats()

		isMember, err := store.UserIsMember(ctx, chatId, actorId)
		if err != nil {
			return err
		}
		if !isMember {
			return ErrUserIsNotAChatMember
		}

		return store.DeleteChat(ctx, chatId)
	})
}

func (u *ChatsUsecase) GetChats(ctx context.Context, filter models.ChatFilter) ([]models.Chat, error) {
	return u.registry.Chats().SelectChats(ctx, filter)
}

func (u *ChatsUsecase) GetChatWithMembers(ctx context.Context, actorId string, chatId string) (chat *models.ChatWithMembers, err error) {
	err = u.registry.Atomic(ctx, func(r storage.Registry) error {
		store := r.Chats()

		isMember, err := store.UserIsMember(ctx, chatId, actorId)
		if err != nil {
			return err
		}
		if !isMember {
			return ErrUserIsNotAChatMember
		}

		chat, err = store.GetChatWithMembers(ctx, chatId)
		return err
	})
	return
}

func (u *ChatsUsecase) GetChatMembers(ctx context.Context, chatId string) ([]models.User, error) {
	return u.registry.Chats().GetChatMembers(ctx, chatId)
}

func (u *ChatsUsecase) GetUnreadCount(ctx context.Context, chatId string, userId string) (count int, err error) {
	err = u.registry.Atomic(ctx, func(r storage.Registry) error {
		if _, err := r.Chats().GetChat(ctx, chatId); err != nil {
			return err
		}

		count, err = r.Messages().UnreadCount(ctx, chatId, userId)
		return err
	})
	return
}
