package models

import "time"

type MessageStatus string

const (
	StatusSent      MessageStatus = "SENT"
	StatusDelivered MessageStatus = "DELIVERED"
	StatusRead      MessageStatus = "READ"
)

func (s MessageStatus) Valid() bool {
	switch s {
	case StatusSent, StatusDelivered, StatusRead:
		return true
	}
	return false
}

type Message struct {
	MessageID   string        `db:"message_id"`
	ChatID      string        `db:"chat_id"`
	FromUser    string        `db:"from_user"`
	Text        string        `db:"text"`
	SendingTime time.Time     `db:"sending_time"`
	Status      MessageStatus `db:"status"`
}

type MessageSend struct {
	ChatID string `validate:"required,uuid"`
	Text   string `validate:"required"`
}

type MessageUpdate struct {
	Text *string `validate:"omitempty,min=1"`
}

// MessagesSelect narrows a chat history query; nil bounds are open.
type MessagesSelect struct {
	ChatID string `validate:"required,uuid"`
	Since  *time.Time
	Until  *time.Time
	Count  *uint64
}
