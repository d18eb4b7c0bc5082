package usecases

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/practice-sem-2/chat-backend/internal/models"
	storage "github.com/practice-sem-2/chat-backend/internal/storages"
)

// fakeRegistry is an in-memory stand-in for the Postgres registry. Atomic
// takes a deep snapshot up front and restores it when the closure fails, so
// rollback semantics can be asserted without a database.
type fakeRegistry struct {
	users    map[string]models.User
	chats    map[string]models.Chat
	members  map[string]map[string]bool
	messages map[string]models.Message
	reads    map[string]map[string]bool
}

func newFakeRegistry() *fakeRegistry {
	return &fakeRegistry{
		users:    map[string]models.User{},
		chats:    map[string]models.Chat{},
		members:  map[string]map[string]bool{},
		messages: map[string]models.Message{},
		reads:    map[string]map[string]bool{},
	}
}

func copySets(src map[string]map[string]bool) map[string]map[string]bool {
	dst := make(map[string]map[string]bool, len(src))
	for k, set := range src {
		inner := make(map[string]bool, len(set))
		for id := range set {
			inner[id] = true
		}
		dst[k] = inner
	}
	return dst
}

func (f *fakeRegistry) clone() *fakeRegistry {
	c := newFakeRegistry()
	for k, v := range f.users {
		c.users[k] = v
	}
	for k, v := range f.chats {
		c.chats[k] = v
	}
	for k, v := range f.messages {
		c.messages[k] = v
	}
	c.members = copySets(f.members)
	c.reads = copySets(f.reads)
	return c
}

func (f *fakeRegistry) Atomic(ctx context.Context, fn storage.AtomicFunc) error {
	snapshot := f.clone()
	if err := fn(f); err != nil {
		*f = *snapshot
		return err
	}
	return nil
}

func (f *fakeRegistry) Users() storage.UsersStore       { return f }
func (f *fakeRegistry) Chats() storage.ChatsStore       { return f }
func (f *fakeRegistry) Messages() storage.MessagesStore { return f }

// UsersStore

func (f *fakeRegistry) CreateUser(ctx context.Context, user *models.User) error {
	for _, existing := range f.users {
		if existing.Username == user.Username {
			return storage.ErrUsernameTaken
		}
		if existing.Email == user.Email {
			return storage.ErrEmailTaken
		}
	}
	f.users[user.UserID] = *user
	return nil
}

func (f *fakeRegistry) GetUser(ctx context.Context, userId string) (*models.User, error) {
	user, ok := f.users[userId]
	if !ok {
		return nil, storage.ErrUserNotFound
	}
	return &user, nil
}

func (f *fakeRegistry) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	for _, user := range f.users {
		if user.Username == username {
			user := user
			return &user, nil
		}
	}
	return nil, storage.ErrUserNotFound
}

func (f *fakeRegistry) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	for _, user := range f.users {
		if user.Email == email {
			user := user
			return &user, nil
		}
	}
	return nil, storage.ErrUserNotFound
}

func (f *fakeRegistry) sortedUsers() []models.User {
	users := make([]models.User, 0, len(f.users))
	for _, user := range f.users {
		users = append(users, user)
	}
	sort.Slice(users, func(i, j int) bool {
		return users[i].Username < users[j].Username
	})
	return users
}

func (f *fakeRegistry) SelectUsers(ctx context.Context, filter models.UserFilter) ([]models.User, error) {
	matched := make([]models.User, 0)
	for _, user := range f.sortedUsers() {
		if filter.Username != "" && !strings.Contains(strings.ToLower(user.Username), strings.ToLower(filter.Username)) {
			continue
		}
		matched = append(matched, user)
	}
	if filter.Skip >= uint64(len(matched)) {
		return []models.User{}, nil
	}
	matched = matched[filter.Skip:]
	if filter.Limit > 0 && filter.Limit < uint64(len(matched)) {
		matched = matched[:filter.Limit]
	}
	return matched, nil
}

func (f *fakeRegistry) SelectUsersById(ctx context.Context, ids []string) ([]models.User, error) {
	users := make([]models.User, 0, len(ids))
	for _, id := range ids {
		if user, ok := f.users[id]; ok {
			users = append(users, user)
		}
	}
	return users, nil
}

func (f *fakeRegistry) SearchUsers(ctx context.Context, query string, excludeUserId string) ([]models.User, error) {
	matched := make([]models.User, 0)
	for _, user := range f.sortedUsers() {
		if user.UserID == excludeUserId {
			continue
		}
		q := strings.ToLower(query)
		if strings.Contains(strings.ToLower(user.Username), q) || strings.Contains(strings.ToLower(user.Email), q) {
			matched = append(matched, user)
		}
	}
	return matched, nil
}

func (f *fakeRegistry) UpdateUser(ctx context.Context, userId string, fields map[string]interface{}) error {
	user, ok := f.users[userId]
	if !ok {
		return storage.ErrUserNotFound
	}
	for key, value := range fields {
		switch key {
		case "username":
			user.Username = value.(string)
		case "email":
			user.Email = value.(string)
		case "password_hash":
			user.PasswordHash = value.(string)
		case "is_active":
			user.IsActive = value.(bool)
		default:
			return fmt.Errorf("fake: unknown users field %q", key)
		}
	}
	f.users[userId] = user
	return nil
}

func (f *fakeRegistry) DeleteUser(ctx context.Context, userId string) error {
	if _, ok := f.users[userId]; !ok {
		return storage.ErrUserNotFound
	}
	delete(f.users, userId)
	return nil
}

// ChatsStore

func (f *fakeRegistry) CreateChat(ctx context.Context, chat *models.Chat) error {
	if _, ok := f.chats[chat.ChatID]; ok {
		return storage.ErrChatAlreadyExists
	}
	f.chats[chat.ChatID] = *chat
	f.members[chat.ChatID] = map[string]bool{}
	return nil
}

func (f *fakeRegistry) GetChat(ctx context.Context, chatId string) (*models.Chat, error) {
	chat, ok := f.chats[chatId]
	if !ok {
		return nil, storage.ErrChatNotFound
	}
	return &chat, nil
}

func (f *fakeRegistry) GetChatWithMembers(ctx context.Context, chatId string) (*models.ChatWithMembers, error) {
	chat, err := f.GetChat(ctx, chatId)
	if err != nil {
		return nil, err
	}

	ids := make([]string, 0, len(f.members[chatId]))
	for id := range f.members[chatId] {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	members := make([]models.ChatMember, 0, len(ids))
	for _, id := range ids {
		members = append(members, models.ChatMember{UserID: id})
	}
	return &models.ChatWithMembers{
		Chat:    *chat,
		Members: members,
	}, nil
}

func (f *fakeRegistry) SelectChats(ctx context.Context, filter models.ChatFilter) ([]models.Chat, error) {
	chats := make([]models.Chat, 0, len(f.chats))
	for _, chat := range f.chats {
		if filter.Name != "" && !strings.Contains(strings.ToLower(chat.Name), strings.ToLower(filter.Name)) {
			continue
		}
		chats = append(chats, chat)
	}
	sort.Slice(chats, func(i, j int) bool {
		return chats[i].CreatedAt.Before(chats[j].CreatedAt)
	})
	if filter.Skip >= uint64(len(chats)) {
		return []models.Chat{}, nil
	}
	chats = chats[filter.Skip:]
	if filter.Limit > 0 && filter.Limit < uint64(len(chats)) {
		chats = chats[:filter.Limit]
	}
	return chats, nil
}

func (f *fakeRegistry) UpdateChat(ctx context.Context, chatId string, fields map[string]interface{}) error {
	chat, ok := f.chats[chatId]
	if !ok {
		return storage.ErrChatNotFound
	}
	for key, value := range fields {
		switch key {
		case "name":
			chat.Name = value.(string)
		default:
			return fmt.Errorf("fake: unknown chats field %q", key)
		}
	}
	f.chats[chatId] = chat
	return nil
}

func (f *fakeRegistry) DeleteChat(ctx context.Context, chatId string) error {
	if _, ok := f.chats[chatId]; !ok {
		return storage.ErrChatNotFound
	}
	delete(f.chats, chatId)
	delete(f.members, chatId)
	for id, msg := range f.messages {
		if msg.ChatID == chatId {
			delete(f.messages, id)
			delete(f.reads, id)
		}
	}
	return nil
}

func (f *fakeRegistry) AddChatMembers(ctx context.Context, chatId string, members []string) error {
	if len(members) == 0 {
		return storage.ErrEmptyMembers
	}
	if _, ok := f.chats[chatId]; !ok {
		return storage.ErrChatNotFound
	}
	for _, member := range members {
		if _, ok := f.users[member]; !ok {
			return storage.ErrUserNotFound
		}
		f.members[chatId][member] = true
	}
	return nil
}

func (f *fakeRegistry) DeleteChatMembers(ctx context.Context, chatId string, members []string) error {
	if len(members) == 0 {
		return storage.ErrEmptyMembers
	}
	removed := 0
	for _, member := range members {
		if f.members[chatId][member] {
			delete(f.members[chatId], member)
			removed++
		}
	}
	if removed == 0 {
		return storage.ErrMemberNotFound
	}
	return nil
}

func (f *fakeRegistry) UserIsMember(ctx context.Context, chatId string, userId string) (bool, error) {
	if _, ok := f.chats[chatId]; !ok {
		return false, storage.ErrChatNotFound
	}
	return f.members[chatId][userId], nil
}

func (f *fakeRegistry) GetChatMembers(ctx context.Context, chatId string) ([]models.User, error) {
	if _, ok := f.chats[chatId]; !ok {
		return nil, storage.ErrChatNotFound
	}
	users := make([]models.User, 0, len(f.members[chatId]))
	for id := range f.members[chatId] {
		users = append(users, f.users[id])
	}
	sort.Slice(users, func(i, j int) bool {
		return users[i].Username < users[j].Username
	})
	return users, nil
}

func (f *fakeRegistry) FindDirectChat(ctx context.Context, userA string, userB string) (*models.Chat, error) {
	for chatId, chat := range f.chats {
		if !chat.IsDirect {
			continue
		}
		set := f.members[chatId]
		if len(set) == 2 && set[userA] && set[userB] {
			chat := chat
			return &chat, nil
		}
	}
	return nil, storage.ErrChatNotFound
}

// MessagesStore

func (f *fakeRegistry) PutMessage(ctx context.Context, message *models.Message) error {
	if _, ok := f.chats[message.ChatID]; !ok {
		return storage.ErrChatNotFound
	}
	if _, ok := f.users[message.FromUser]; !ok {
		return storage.ErrUserNotFound
	}
	if _, ok := f.messages[message.MessageID]; ok {
		return storage.ErrMessageAlreadyExists
	}
	f.messages[message.MessageID] = *message
	return nil
}

func (f *fakeRegistry) GetMessage(ctx context.Context, messageId string) (*models.Message, error) {
	msg, ok := f.messages[messageId]
	if !ok {
		return nil, storage.ErrMessageNotFound
	}
	return &msg, nil
}

func (f *fakeRegistry) SelectMessages(ctx context.Context, sel models.MessagesSelect) ([]models.Message, error) {
	messages := make([]models.Message, 0)
	for _, msg := range f.messages {
		if msg.ChatID != sel.ChatID {
			continue
		}
		if sel.Since != nil && msg.SendingTime.Before(*sel.Since) {
			continue
		}
		if sel.Until != nil && msg.SendingTime.After(*sel.Until) {
			continue
		}
		messages = append(messages, msg)
	}
	sort.Slice(messages, func(i, j int) bool {
		if sel.Until != nil {
			return messages[i].SendingTime.After(messages[j].SendingTime)
		}
		return messages[i].SendingTime.Before(messages[j].SendingTime)
	})
	if sel.Count != nil && *sel.Count > 0 && *sel.Count < uint64(len(messages)) {
		messages = messages[:*sel.Count]
	}
	return messages, nil
}

func (f *fakeRegistry) UpdateMessage(ctx context.Context, messageId string, fields map[string]interface{}) error {
	msg, ok := f.messages[messageId]
	if !ok {
		return storage.ErrMessageNotFound
	}
	for key, value := range fields {
		switch key {
		case "text":
			msg.Text = value.(string)
		case "status":
			msg.Status = value.(models.MessageStatus)
		default:
			return fmt.Errorf("fake: unknown messages field %q", key)
		}
	}
	f.messages[messageId] = msg
	return nil
}

func (f *fakeRegistry) DeleteMessage(ctx context.Context, messageId string) error {
	if _, ok := f.messages[messageId]; !ok {
		return storage.ErrMessageNotFound
	}
	delete(f.messages, messageId)
	delete(f.reads, messageId)
	return nil
}

func (f *fakeRegistry) SetStatus(ctx context.Context, messageId string, status models.MessageStatus) error {
	return f.UpdateMessage(ctx, messageId, map[string]interface{}{"status": status})
}

func (f *fakeRegistry) MarkRead(ctx context.Context, messageId string, userId string) (bool, error) {
	if _, ok := f.messages[messageId]; !ok {
		return false, storage.ErrMessageNotFound
	}
	if f.reads[messageId] == nil {
		f.reads[messageId] = map[string]bool{}
	}
	if f.reads[messageId][userId] {
		return false, nil
	}
	f.reads[messageId][userId] = true
	return true, nil
}

func (f *fakeRegistry) UnreadCount(ctx context.Context, chatId string, userId string) (int, error) {
	count := 0
	for id, msg := range f.messages {
		if msg.ChatID != chatId || msg.FromUser == userId {
			continue
		}
		if !f.reads[id][userId] {
			count++
		}
	}
	return count, nil
}
