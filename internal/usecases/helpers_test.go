package usecases

import (
	"context"
	"io"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/practice-sem-2/chat-backend/internal/events"
	"github.com/practice-sem-2/chat-backend/internal/models"
	"github.com/practice-sem-2/chat-backend/internal/security"
	storage "github.com/practice-sem-2/chat-backend/internal/storages"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

var _ storage.Registry = (*fakeRegistry)(nil)

var allEventKinds = []models.EventKind{
	models.KindMessageCreated,
	models.KindMessageUpdated,
	models.KindMessageDeleted,
	models.KindMessageStatusUpdated,
	models.KindUnreadCountUpdated,
	models.KindChatCreated,
	models.KindMemberAdded,
	models.KindMemberRemoved,
}

type testEnv struct {
	registry *fakeRegistry
	captured []models.Event

	users    *UsersUsecase
	chats    *ChatsUsecase
	messages *MessagesUsecase
}

func newTestEnv() *testEnv {
	logger := logrus.New()
	logger.SetOutput(io.Discard)

	env := &testEnv{registry: newFakeRegistry()}

	dispatcher := events.NewDispatcher(logger)
	capture := func(ctx context.Context, event models.Event) error {
		env.captured = append(env.captured, event)
		return nil
	}
	for _, kind := range allEventKinds {
		dispatcher.Register(kind, capture)
	}

	validate := validator.New()
	sec := security.NewService(bcrypt.MinCost)

	env.users = NewUsersUsecase(env.registry, sec, validate)
	env.chats = NewChatsUsecase(env.registry, dispatcher, validate)
	env.messages = NewMessagesUsecase(env.registry, dispatcher, validate)
	return env
}

func (e *testEnv) mustCreateUser(t *testing.T, username string) *models.User {
	t.Helper()
	user, err := e.users.CreateUser(context.Background(), models.UserCreate{
		Username: username,
		Email:    username + "@example.com",
		Password: "password123",
	})
	require.NoError(t, err, "fixture user %s", username)
	return user
}

func (e *testEnv) eventsOfKind(kind models.EventKind) []models.Event {
	matched := make([]models.Event, 0)
	for _, event := range e.captured {
		if event.EventKind() == kind {
			matched = append(matched, event)
		}
	}
	return matched
}

func (e *testEnv) resetEvents() {
	e.captured = nil
}
