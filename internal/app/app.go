package app

import (
	"github.com/Shopify/sarama"
	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
	"github.com/practice-sem-2/chat-backend/internal/events"
	"github.com/practice-sem-2/chat-backend/internal/models"
	"github.com/practice-sem-2/chat-backend/internal/pubsub"
	"github.com/practice-sem-2/chat-backend/internal/security"
	storage "github.com/practice-sem-2/chat-backend/internal/storages"
	"github.com/practice-sem-2/chat-backend/internal/usecases"
	"github.com/sirupsen/logrus"
)

// Application bundles the wired core. The request boundary (an external
// collaborator) embeds it and calls the usecases directly.
type Application struct {
	Users    *usecases.UsersUsecase
	Chats    *usecases.ChatsUsecase
	Messages *usecases.MessagesUsecase

	Registry   storage.Registry
	Dispatcher *events.Dispatcher
	PubSub     *pubsub.Client
}

func New(db *sqlx.DB, transport *pubsub.Client, producer sarama.SyncProducer, feedCfg *events.FeedConfig, sec *security.Service, logger *logrus.Logger) *Application {
	registry := storage.NewRegistry(db)
	validate := validator.New()

	notifier := events.NewNotifier(transport)
	feed := events.NewFeed(producer, feedCfg)
	dispatcher := events.NewDispatcher(logger)

	// Fixed wiring table, built once before the first dispatch. For each
	// kind the realtime notifier runs first, the durable feed second.
	table := map[models.EventKind][]events.Handler{
		models.KindMessageCreated:       {notifier.Handle, feed.Handle},
		models.KindMessageUpdated:       {notifier.Handle, feed.Handle},
		models.KindMessageDeleted:       {notifier.Handle, feed.Handle},
		models.KindMessageStatusUpdated: {notifier.Handle, feed.Handle},
		models.KindUnreadCountUpdated:   {notifier.Handle, feed.Handle},
		models.KindChatCreated:          {notifier.Handle, feed.Handle},
		models.KindMemberAdded:          {notifier.Handle, feed.Handle},
		models.KindMemberRemoved:        {notifier.Handle, feed.Handle},
	}
	for kind, handlers := range table {
		for _, handler := range handlers {
			dispatcher.Register(kind, handler)
		}
	}

	return &Application{
		Users:      usecases.NewUsersUsecase(registry, sec, validate),
		Chats:      usecases.NewChatsUsecase(registry, dispatcher, validate),
		Messages:   usecases.NewMessagesUsecase(registry, dispatcher, validate),
		Registry:   registry,
		Dispatcher: dispatcher,
		PubSub:     transport,
	}
}
