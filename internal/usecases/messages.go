package usecases

import (
	"context"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/practice-sem-2/chat-backend/internal/events"
	"github.com/practice-sem-2/chat-backend/internal/models"
	storage "github.com/practice-sem-2/chat-backend/internal/storages"
)

type MessagesUsecase struct {
	registry   storage.Registry
	dispatcher *events.Dispatcher
	validate   *validator.Validate
}

func NewMessagesUsecase(r storage.Registry, d *events.Dispatcher, v *validator.Validate) *MessagesUsecase {
	return &MessagesUsecase{
		registry:   r,
		dispatcher: d,
		validate:   v,
	}
}

// SendMessage writes the message and, after commit, dispatches one
// MessageCreated event plus an UnreadCountUpdated event for every other
// member of the chat, computed from the membership snapshot at creation
// time. The sender never gets an unread update for their own message.
func (u *MessagesUsecase) SendMessage(ctx context.Context, senderId string, send models.MessageSend) (message *models.Message, err error) {
	if err := u.validate.Struct(send); err != nil {
		return nil, err
	}

	var pending []models.Event
	err = u.registry.Atomic(ctx, func(r storage.Registry) error {
		chats := r.Chats()

		isMember, err := chats.UserIsMember(ctx, send.ChatID, senderId)
		if err != nil {
			return err
		}
		if !isMember {
			return ErrUserIsNotAChatMember
		}

		chat, err := chats.GetChatWithMembers(ctx, send.ChatID)
		if err != nil {
			return err
		}

		now := time.Now().UTC()
		message = &models.Message{
			MessageID:   uuid.NewString(),
			ChatID:      send.ChatID,
			FromUser:    senderId,
			Text:        send.Text,
			SendingTime: now,
			Status:      models.StatusSent,
		}

		msgs := r.Messages()
		if err := msgs.PutMessage(ctx, message); err != nil {
			return err
		}

		pending = append(pending, models.MessageCreated{
			EventMeta: models.EventMeta{Timestamp: now},
			Message:   *message,
		})

		for _, member := range chat.Members {
			if member.UserID == senderId {
				continue
			}
			count, err := msgs.UnreadCount(ctx, send.ChatID, member.UserID)
			if err != nil {
				return err
			}
			pending = append(pending, models.UnreadCountUpdated{
				EventMeta: models.EventMeta{Timestamp: now},
				ChatID:    send.ChatID,
				UserID:    member.UserID,
				Count:     count,
			})
		}
		return nil
	})

	if err != nil {
		return nil, err
	}

	u.dispatcher.Dispatch(ctx, pending...)
	return message, nil
}

func (u *MessagesUsecase) UpdateMessage(ctx context.Context, actorId string, messageId string, update models.MessageUpdate) (message *models.Message, err error) {
	if err := u.validate.Struct(update); err != nil {
		return nil, err
	}

	fields := map[string]interface{}{}
	if update.Text != nil {
		fields["text"] = *update.Text
	}

	var pending []models.Event
	err = u.registry.Atomic(ctx, func(r storage.Registry) error {
		msgs := r.Messages()

		message, err = msgs.GetMessage(ctx, messageId)
		if err != nil {
			return err
		}
		if message.FromUser != actorId {
			return ErrNotMessageSender
		}

		if err := msgs.UpdateMessage(ctx, messageId, fields); err != nil {
			return err
		}
		if update.Text != nil {
			message.Text = *update.Text
		}

		pending = append(pending, models.MessageUpdated{
			EventMeta: models.EventMeta{Timestamp: time.Now().UTC()},
			Message:   *message,
		})
		return nil
	})

	if err != nil {
		return nil, err
	}

	u.dispatcher.Dispatch(ctx, pending...)
	return message, nil
}

// DeleteMessage lets any current member of the owning chat delete a message.
func (u *MessagesUsecase) DeleteMessage(ctx context.Context, actorId string, messageId string) error {
	var pending []models.Event
	err := u.registry.Atomic(ctx, func(r storage.Registry) error {
		msgs := r.Messages()

		message, err := msgs.GetMessage(ctx, messageId)
		if err != nil {
			return err
		}

		isMember, err := r.Chats().UserIsMember(ctx, message.ChatID, actorId)
		if err != nil {
			return err
		}
		if !isMember {
			return ErrUserIsNotAChatMember
		}

		if err := msgs.DeleteMessage(ctx, messageId); err != nil {
			return err
		}

		pending = append(pending, models.MessageDeleted{
			EventMeta: models.EventMeta{Timestamp: time.Now().UTC()},
			ChatID:    message.ChatID,
			MessageID: messageId,
			ActorID:   actorId,
		})
		return nil
	})

	if err != nil {
		return err
	}

	u.dispatcher.Dispatch(ctx, pending...)
	return nil
}

// MarkStatus moves a message through SENT/DELIVERED/READ. A READ transition
// by a recipient records an idempotent read marker; only a marker that was
// actually new produces an UnreadCountUpdated event, and only for that user.
func (u *MessagesUsecase) MarkStatus(ctx context.Context, actorId string, messageId string, status models.MessageStatus) error {
	if !status.Valid() {
		return ErrUnknownStatus
	}

	var pending []models.Event
	err := u.registry.Atomic(ctx, func(r storage.Registry) error {
		msgs := r.Messages()

		message, err := msgs.GetMessage(ctx, messageId)
		if err != nil {
			return err
		}

		isMember, err := r.Chats().UserIsMember(ctx, message.ChatID, actorId)
		if err != nil {
			return err
		}
		if !isMember {
			return ErrUserIsNotAChatMember
		}

		if err := msgs.SetStatus(ctx, messageId, status); err != nil {
			return err
		}

		now := time.Now().UTC()
		pending = append(pending, models.MessageStatusUpdated{
			EventMeta: models.EventMeta{Timestamp: now},
			ChatID:    message.ChatID,
			MessageID: messageId,
			ActorID:   actorId,
			Status:    status,
		})

		if status == models.StatusRead && actorId != message.FromUser {
			marked, err := msgs.MarkRead(ctx, messageId, actorId)
			if err != nil {
				return err
			}
			if marked {
				count, err := msgs.UnreadCount(ctx, message.ChatID, actorId)
				if err != nil {
					return err
				}
				pending = append(pending, models.UnreadCountUpdated{
					EventMeta: models.EventMeta{Timestamp: now},
					ChatID:    message.ChatID,
					UserID:    actorId,
					Count:     count,
				})
			}
		}
		return nil
	})

	if err != nil {
		return err
	}

	u.dispatcher.Dispatch(ctx, pending...)
	return nil
}

func (u *MessagesUsecase) GetMessages(ctx context.Context, actorId string, sel models.MessagesSelect) (messages []models.Message, err error) {
	if err := u.validate.Struct(sel); err != nil {
		return nil, err
	}

	err = u.registry.Atomic(ctx, func(r storage.Registry) error {
		isMember, err := r.Chats().UserIsMember(ctx, sel.ChatID, actorId)
		if err != nil {
			return err
		}
		if !isMember {
			return ErrUserIsNotAChatMember
		}

		messages, err = r.Messages().SelectMessages(ctx, sel)
		return err
	})
	return
}
