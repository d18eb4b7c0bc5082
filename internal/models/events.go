package models

import "time"

// EventKind tags a domain event for dispatcher routing.
type EventKind string

const (
	KindMessageCreated       EventKind = "MessageCreated"
	KindMessageUpdated       EventKind = "MessageUpdated"
	KindMessageDeleted       EventKind = "MessageDeleted"
	KindMessageStatusUpdated EventKind = "MessageStatusUpdated"
	KindUnreadCountUpdated   EventKind = "UnreadCountUpdated"
	KindChatCreated          EventKind = "ChatCreated"
	KindMemberAdded          EventKind = "MemberAdded"
	KindMemberRemoved        EventKind = "MemberRemoved"
)

// Event is a record of a committed state change. Events are built by the
// usecases right after the owning write succeeds and are handed to the
// dispatcher only once the transaction has committed.
type Event interface {
	EventKind() EventKind
}

type EventMeta struct {
	Timestamp time.Time `json:"timestamp"`
}

type MessageCreated struct {
	EventMeta
	Message Message `validate:"required"`
}

type MessageUpdated struct {
	EventMeta
	Message Message `validate:"required"`
}

type MessageDeleted struct {
	EventMeta
	ChatID    string `validate:"required,uuid"`
	MessageID string `validate:"required,uuid"`
	ActorID   string `validate:"required,uuid"`
}

type MessageStatusUpdated struct {
	EventMeta
	ChatID    string        `validate:"required,uuid"`
	MessageID string        `validate:"required,uuid"`
	ActorID   string        `validate:"required,uuid"`
	Status    MessageStatus `validate:"required"`
}

type UnreadCountUpdated struct {
	EventMeta
	ChatID string `validate:"required,uuid"`
	UserID string `validate:"required,uuid"`
	Count  int
}

type ChatCreated struct {
	EventMeta
	ChatID   string `validate:"required,uuid"`
	IsDirect bool
	Members  []string
}

type MemberAdded struct {
	EventMeta
	ChatID string `validate:"required,uuid"`
	UserID string `validate:"required,uuid"`
}

type MemberRemoved struct {
	EventMeta
	ChatID string `validate:"required,uuid"`
	UserID string `validate:"required,uuid"`
}

func (MessageCreated) EventKind() EventKind       { return KindMessageCreated }
func (MessageUpdated) EventKind() EventKind       { return KindMessageUpdated }
func (MessageDeleted) EventKind() EventKind       { return KindMessageDeleted }
func (MessageStatusUpdated) EventKind() EventKind { return KindMessageStatusUpdated }
func (UnreadCountUpdated) EventKind() EventKind   { return KindUnreadCountUpdated }
func (ChatCreated) EventKind() EventKind          { return KindChatCreated }
func (MemberAdded) EventKind() EventKind          { return KindMemberAdded }
func (MemberRemoved) EventKind() EventKind        { return KindMemberRemoved }
