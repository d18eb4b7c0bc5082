package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/Shopify/sarama"
	_ "github.com/jackc/pgx/v4/stdlib"
	"github.com/jmoiron/sqlx"
	"github.com/practice-sem-2/chat-backend/internal/app"
	"github.com/practice-sem-2/chat-backend/internal/events"
	"github.com/practice-sem-2/chat-backend/internal/models"
	"github.com/practice-sem-2/chat-backend/internal/pubsub"
	"github.com/practice-sem-2/chat-backend/internal/security"
	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"
	"golang.org/x/crypto/bcrypt"
)

func initLogger(level string) *logrus.Logger {

	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{
		PrettyPrint: true,
	})

	logLevel, err := logrus.ParseLevel(level)
	if err != nil {
		logger.SetLevel(logrus.InfoLevel)
		logger.
			WithField("log_level", level).
			Warning("specified invalid log level")
	} else {
		logger.SetLevel(logLevel)
		logger.
			WithField("log_level", level).
			Infof("specified %s log level", logLevel.String())
	}

	return logger
}

func initDB(dsn string, logger *logrus.Logger) *sqlx.DB {
	db, err := sqlx.Connect("pgx", dsn)
	if err != nil {
		logger.Fatalf("can't connect to database: %s", err.Error())
	}

	err = db.Ping()

	if err != nil {
		logger.Fatalf("database ping failed: %s", err.Error())
	}

	logger.Info("successfully connected to database")
	return db
}

func initProducer(logger *logrus.Logger) sarama.SyncProducer {
	brokers := viper.GetString("KAFKA_BROKERS")
	if len(brokers) == 0 {
		logger.Fatal("KAFKA_BROKERS environment variable must be defined")
	}

	addrs := strings.Split(brokers, ",")
	config := sarama.NewConfig()
	config.Producer.Partitioner = sarama.NewHashPartitioner
	config.Producer.RequiredAcks = sarama.WaitForLocal
	config.Producer.Timeout = 10 * time.Second
	config.Producer.Return.Successes = true
	producer, err := sarama.NewSyncProducer(addrs, config)

	if err != nil {
		logger.WithError(err).Fatalf("can't create producer")
	}

	return producer
}

func initPubSub(ctx context.Context, logger *logrus.Logger) *pubsub.Client {
	addr := viper.GetString("REDIS_ADDR")
	if len(addr) == 0 {
		logger.Fatal("REDIS_ADDR environment variable must be defined")
	}

	client := pubsub.NewClient(addr, logger)
	if err := client.Connect(ctx); err != nil {
		logger.Fatalf("can't connect to redis: %s", err.Error())
	}

	return client
}

func main() {
	viper.AutomaticEnv()
	ctx := context.Background()
	defer ctx.Done()

	var logLevel string

	flag.StringVar(&logLevel, "log", "info", "log level")
	flag.Parse()

	logger := initLogger(logLevel)

	db := initDB(viper.GetString("DB_DSN"), logger)
	defer func(db *sqlx.DB) {
		err := db.Close()
		if err != nil {
			logger.Fatalf("during db connection close an error occurred: %s", err.Error())
		}
	}(db)

	producer := initProducer(logger)
	defer func(producer sarama.SyncProducer) {
		if err := producer.Close(); err != nil {
			logger.Errorf("during producer close an error occurred: %s", err.Error())
		}
	}(producer)

	updatesTopic := viper.GetString("UPDATES_TOPIC")
	if len(updatesTopic) == 0 {
		logger.Fatal("UPDATES_TOPIC environment variable must be defined")
	}

	transport := initPubSub(ctx, logger)
	defer func(transport *pubsub.Client) {
		if err := transport.Disconnect(); err != nil {
			logger.Errorf("during redis disconnect an error occurred: %s", err.Error())
		}
	}(transport)

	application := app.New(
		db,
		transport,
		producer,
		&events.FeedConfig{
			UpdatesTopic: updatesTopic,
		},
		security.NewService(bcrypt.DefaultCost),
		logger,
	)
	// Startup self-check: one read through the full registry path.
	if _, err := application.Users.GetUsers(ctx, models.UserFilter{Limit: 1}); err != nil {
		logger.Fatalf("storage self-check failed: %s", err.Error())
	}

	logger.Info("chat backend core is wired and ready")

	osSignal := make(chan os.Signal, 1)
	signal.Notify(osSignal,
		syscall.SIGHUP,
		syscall.SIGINT,
		syscall.SIGTERM,
		syscall.SIGQUIT)

	sig := <-osSignal
	logger.Infof("%s caught. Gracefully shutdown", sig.String())
}
