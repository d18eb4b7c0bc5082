package models

import "time"

type Chat struct {
	ChatID    string    `json:"chat_id" db:"chat_id"`
	Name      string    `json:"name" db:"name"`
	IsDirect  bool      `json:"is_direct" db:"is_direct"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

type ChatMember struct {
	UserID string `json:"user_id" db:"user_id"`
}

type ChatWithMembers struct {
	Chat
	Members []ChatMember `json:"members"`
}

type ChatCreate struct {
	Name     string   `validate:"required,max=128"`
	Members  []string `validate:"dive,uuid"`
	IsDirect bool
}

type ChatUpdate struct {
	Name *string `validate:"omitempty,max=128"`
}

type ChatFilter struct {
	Skip  uint64
	Limit uint64
	Name  string
}
