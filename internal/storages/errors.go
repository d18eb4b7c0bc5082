package storage

import "errors"

var (
	ErrUserNotFound      = errors.New("user with provided user_id does not exist")
	ErrUsernameTaken     = errors.New("user with provided username already exists")
	ErrEmailTaken        = errors.New("user with provided email already exists")
	ErrChatAlreadyExists = errors.New("chat with provided chat_id already exists")
	ErrChatNotFound      = errors.New("chat with provided chat_id does not exist")
	ErrEmptyMembers      = errors.New("members array can't be empty")
	ErrMemberNotFound    = errors.New("user is not a member of the chat")

	ErrMessageAlreadyExists = errors.New("message with provided message_id already exists")
	ErrMessageNotFound      = errors.New("message does not exist")
)

const (
	UsersPrimaryKey             = "users_pkey"
	UsersUsernameKey            = "users_username_key"
	UsersEmailKey               = "users_email_key"
	ChatsPrimaryKey             = "chats_pkey"
	ChatMembersChatIdForeignKey = "chat_members_chat_id_fkey"
	ChatMembersUserIdForeignKey = "chat_members_user_id_fkey"
	MessagesPrimaryKey          = "messages_pkey"
	MessagesChatIdForeignKey    = "messages_chat_id_fkey"
	MessagesFromUserForeignKey  = "messages_from_user_fkey"
	MessageReadsMsgIdForeignKey = "message_reads_message_id_fkey"
)
