package events

import (
	"fmt"

	"github.com/practice-sem-2/chat-backend/internal/models"
)

// Envelope is the flat transport representation of a domain event, shared by
// the realtime notifier and the durable feed.
type Envelope struct {
	Event     models.EventKind `json:"event"`
	ChatID    string           `json:"chat_id,omitempty"`
	MessageID string           `json:"message_id,omitempty"`
	UserID    string           `json:"user_id,omitempty"`
	Timestamp int64            `json:"timestamp"`
	Payload   interface{}      `json:"payload,omitempty"`
}

func ChatChannel(chatId string) string {
	return "chat:" + chatId
}

func UserChannel(userId string) string {
	return "user:" + userId
}

type messagePayload struct {
	Text   string               `json:"text"`
	Status models.MessageStatus `json:"status"`
}

type unreadPayload struct {
	Count int `json:"count"`
}

type chatPayload struct {
	IsDirect bool     `json:"is_direct"`
	Members  []string `json:"members"`
}

// buildEnvelope flattens an event and picks its destination channel:
// chat-scoped events go to the chat channel, unread counters to the channel
// of the affected user.
func buildEnvelope(event models.Event) (Envelope, string, error) {
	switch ev := event.(type) {
	case models.MessageCreated:
		return Envelope{
			Event:     ev.EventKind(),
			ChatID:    ev.Message.ChatID,
			MessageID: ev.Message.MessageID,
			UserID:    ev.Message.FromUser,
			Timestamp: ev.Timestamp.UTC().Unix(),
			Payload: messagePayload{
				Text:   ev.Message.Text,
				Status: ev.Message.Status,
			},
		}, ChatChannel(ev.Message.ChatID), nil
	case models.MessageUpdated:
		return Envelope{
			Event:     ev.EventKind(),
			ChatID:    ev.Message.ChatID,
			MessageID: ev.Message.MessageID,
			UserID:    ev.Message.FromUser,
			Timestamp: ev.Timestamp.UTC().Unix(),
			Payload: messagePayload{
				Text:   ev.Message.Text,
				Status: ev.Message.Status,
			},
		}, ChatChannel(ev.Message.ChatID), nil
	case models.MessageDeleted:
		return Envelope{
			Event:     ev.EventKind(),
			ChatID:    ev.ChatID,
			MessageID: ev.MessageID,
			UserID:    ev.ActorID,
			Timestamp: ev.Timestamp.UTC().Unix(),
		}, ChatChannel(ev.ChatID), nil
	case models.MessageStatusUpdated:
		return Envelope{
			Event:     ev.EventKind(),
			ChatID:    ev.ChatID,
			MessageID: ev.MessageID,
			UserID:    ev.ActorID,
			Timestamp: ev.Timestamp.UTC().Unix(),
			Payload: messagePayload{
				Status: ev.Status,
			},
		}, ChatChannel(ev.ChatID), nil
	case models.UnreadCountUpdated:
		return Envelope{
			Event:     ev.EventKind(),
			ChatID:    ev.ChatID,
			UserID:    ev.UserID,
			Timestamp: ev.Timestamp.UTC().Unix(),
			Payload: unreadPayload{
				Count: ev.Count,
			},
		}, UserChannel(ev.UserID), nil
	case models.ChatCreated:
		return Envelope{
			Event:     ev.EventKind(),
			ChatID:    ev.ChatID,
			Timestamp: ev.Timestamp.UTC().Unix(),
			Payload: chatPayload{
				IsDirect: ev.IsDirect,
				Members:  ev.Members,
			},
		}, ChatChannel(ev.ChatID), nil
	case models.MemberAdded:
		return Envelope{
			Event:     ev.EventKind(),
			ChatID:    ev.ChatID,
			UserID:    ev.UserID,
			Timestamp: ev.Timestamp.UTC().Unix(),
		}, ChatChannel(ev.ChatID), nil
	case models.MemberRemoved:
		return Envelope{
			Event:     ev.EventKind(),
			ChatID:    ev.ChatID,
			UserID:    ev.UserID,
			Timestamp: ev.Timestamp.UTC().Unix(),
		}, ChatChannel(ev.ChatID), nil
	default:
		return Envelope{}, "", fmt.Errorf("no envelope mapping for event %q", event.EventKind())
	}
}
