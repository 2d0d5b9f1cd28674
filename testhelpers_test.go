//go:build integration

package main_test

import (
	"context"
	"fmt"
	"net"
	"testing"
	"time"

	"github.com/google/uuid"
	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	kafkamodule "github.com/testcontainers/testcontainers-go/modules/kafka"
	"github.com/testcontainers/testcontainers-go/wait"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/punchly/service-loyalty/internal/application"
	loyaltyEvents "github.com/punchly/service-loyalty/internal/events"
	"github.com/punchly/service-loyalty/internal/platform/kafka"
	"github.com/punchly/service-loyalty/internal/repository"
)

// testInfra holds shared test infrastructure.
type testInfra struct {
	DB           *gorm.DB
	KafkaBrokers []string
	Cleanup      func()
}

// loyaltyStack holds wired-up loyalty service components.
type loyaltyStack struct {
	Redemptions     *application.RedemptionService
	Punches         *application.PunchService
	Accounts        *application.AccountService
	Consumer        *loyaltyEvents.AccountEventConsumer
	CleanupProducer func()
}

// setupContainers starts PostgreSQL and Kafka testcontainers and returns a connected GORM DB.
func setupContainers(t *testing.T) *testInfra {
	t.Helper()
	ctx := context.Background()

	pgReq := testcontainers.ContainerRequest{
		Image:        "postgres:16-alpine",
		ExposedPorts: []string{"5432/tcp"},
		Env: map[string]string{
			"POSTGRES_USER":     "test",
			"POSTGRES_PASSWORD": "test",
			"POSTGRES_DB":       "test_loyalty",
		},
		WaitingFor: wait.ForLog("database system is ready to accept connections").
			WithOccurrence(2).
			WithStartupTimeout(60 * time.Second),
	}
	pgContainer, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: pgReq,
		Started:          true,
	})
	require.NoError(t, err, "failed to start PostgreSQL container")

	pgHost, err := pgContainer.Host(ctx)
	require.NoError(t, err)
	pgPort, err := pgContainer.MappedPort(ctx, "5432")
	require.NoError(t, err)

	dsn := fmt.Sprintf("host=%s port=%s user=test password=test dbname=test_loyalty sslmode=disable", pgHost, pgPort.Port())

	// Poll until GORM can actually connect and ping.
	var db *gorm.DB
	require.Eventually(t, func() bool {
		var err error
		db, err = gorm.Open(postgres.Open(dsn), &gorm.Config{})
		if err != nil {
			return false
		}
		sqlDB, err := db.DB()
		if err != nil {
			return false
		}
		return sqlDB.Ping() == nil
	}, 30*time.Second, 1*time.Second, "PostgreSQL not ready for connections")

	require.NoError(t, db.AutoMigrate(
		&repository.UserModel{},
		&repository.BusinessModel{},
		&repository.PunchcardModel{},
		&repository.RedemptionTokenModel{},
		&repository.PunchHistoryModel{},
		&repository.RedemptionHistoryModel{},
	))

	kafkaContainer, err := kafkamodule.Run(ctx, "confluentinc/confluent-local:7.5.0")
	require.NoError(t, err, "failed to start Kafka container")

	kafkaBrokers, err := kafkaContainer.Brokers(ctx)
	require.NoError(t, err, "failed to get Kafka brokers")

	createTopics(t, kafkaBrokers, loyaltyEvents.TopicLoyaltyEvents, loyaltyEvents.TopicAccountEvents)

	cleanup := func() {
		if err := kafkaContainer.Terminate(ctx); err != nil {
			t.Logf("failed to terminate Kafka container: %v", err)
		}
		if err := pgContainer.Terminate(ctx); err != nil {
			t.Logf("failed to terminate PostgreSQL container: %v", err)
		}
	}

	return &testInfra{
		DB:           db,
		KafkaBrokers: kafkaBrokers,
		Cleanup:      cleanup,
	}
}

// setupLoyaltyStack wires up the full loyalty service stack.
func setupLoyaltyStack(t *testing.T, db *gorm.DB, brokers []string) *loyaltyStack {
	t.Helper()
	logger, _ := zap.NewDevelopment()

	tokenRepo := repository.NewGormTokenRepository(db)
	punchcardRepo := repository.NewGormPunchcardRepository(db)
	businessRepo := repository.NewGormBusinessRepository(db)
	userRepo := repository.NewGormUserRepository(db)
	historyRepo := repository.NewGormHistoryRepository(db)
	producer := kafka.NewProducer(brokers, logger)

	redemptions := application.NewRedemptionService(
		tokenRepo, punchcardRepo, businessRepo, userRepo, historyRepo,
		producer, 5*time.Minute, logger,
	)
	punches := application.NewPunchService(
		punchcardRepo, businessRepo, userRepo, historyRepo, producer, logger,
	)
	accounts := application.NewAccountService(tokenRepo, punchcardRepo, historyRepo, userRepo, logger)

	groupID := fmt.Sprintf("test-loyalty-%s", uuid.New().String()[:8])
	consumer := loyaltyEvents.NewAccountEventConsumer(brokers, groupID, accounts, logger)

	return &loyaltyStack{
		Redemptions:     redemptions,
		Punches:         punches,
		Accounts:        accounts,
		Consumer:        consumer,
		CleanupProducer: func() { _ = producer.Close() },
	}
}

// seedCustomer inserts a user row.
func seedCustomer(t *testing.T, db *gorm.DB, name string) uuid.UUID {
	t.Helper()
	userID := uuid.New()
	model := repository.UserModel{
		ID:        userID,
		Name:      name,
		Email:     fmt.Sprintf("%s@example.com", uuid.New().String()[:8]),
		CreatedAt: time.Now().UTC(),
	}
	require.NoError(t, db.Create(&model).Error, "failed to seed user")
	return userID
}

// seedBusiness inserts a business with the given redemption threshold.
func seedBusiness(t *testing.T, db *gorm.DB, punchesRequired int) uuid.UUID {
	t.Helper()
	businessID := uuid.New()
	now := time.Now().UTC()
	model := repository.BusinessModel{
		ID:              businessID,
		Name:            "Brew Bros",
		BusinessType:    "cafe",
		Reward:          "Free coffee",
		PunchesRequired: punchesRequired,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	require.NoError(t, db.Create(&model).Error, "failed to seed business")
	return businessID
}

// seedPunchcard inserts a punchcard with the given balance.
func seedPunchcard(t *testing.T, db *gorm.DB, userID, businessID uuid.UUID, punches int) uuid.UUID {
	t.Helper()
	cardID := uuid.New()
	now := time.Now().UTC()
	model := repository.PunchcardModel{
		ID:          cardID,
		UserID:      userID,
		BusinessID:  businessID,
		Punches:     punches,
		LastPunchAt: &now,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	require.NoError(t, db.Create(&model).Error, "failed to seed punchcard")
	return cardID
}

// publishTestEvent publishes a CloudEvent to Kafka.
func publishTestEvent(t *testing.T, brokers []string, topic, source, eventType string, data interface{}) {
	t.Helper()
	logger, _ := zap.NewDevelopment()
	producer := kafka.NewProducer(brokers, logger)
	defer func() { _ = producer.Close() }()

	ce, err := kafka.NewCloudEvent(source, eventType, data)
	require.NoError(t, err, "failed to create cloud event")

	err = producer.PublishEvent(context.Background(), topic, ce)
	require.NoError(t, err, "failed to publish event")
}

// consumeOneEvent reads from a Kafka topic until it finds an event of the expected type.
func consumeOneEvent(t *testing.T, brokers []string, topic, expectedType string, timeout time.Duration) kafka.CloudEvent {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	groupID := fmt.Sprintf("test-assert-%s", uuid.New().String()[:8])
	reader := kafkago.NewReader(kafkago.ReaderConfig{
		Brokers:     brokers,
		GroupID:     groupID,
		Topic:       topic,
		MinBytes:    1,
		MaxBytes:    10e6,
		StartOffset: kafkago.FirstOffset,
	})
	defer func() { _ = reader.Close() }()

	for {
		msg, err := reader.ReadMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				t.Fatalf("timed out waiting for event type %q on topic %q", expectedType, topic)
			}
			continue
		}
		ce, err := kafka.ParseCloudEvent(msg.Value)
		if err != nil {
			continue
		}
		if ce.Type == expectedType {
			return ce
		}
	}
}

// createTopics pre-creates Kafka topics so producers don't fail with "Unknown Topic".
func createTopics(t *testing.T, brokers []string, topics ...string) {
	t.Helper()
	conn, err := kafkago.Dial("tcp", brokers[0])
	require.NoError(t, err, "failed to dial Kafka for topic creation")
	defer conn.Close()

	controller, err := conn.Controller()
	require.NoError(t, err, "failed to get Kafka controller")

	controllerConn, err := kafkago.Dial("tcp", net.JoinHostPort(controller.Host, fmt.Sprintf("%d", controller.Port)))
	require.NoError(t, err, "failed to connect to Kafka controller")
	defer controllerConn.Close()

	topicConfigs := make([]kafkago.TopicConfig, len(topics))
	for i, topic := range topics {
		topicConfigs[i] = kafkago.TopicConfig{
			Topic:             topic,
			NumPartitions:     1,
			ReplicationFactor: 1,
		}
	}
	err = controllerConn.CreateTopics(topicConfigs...)
	require.NoError(t, err, "failed to create Kafka topics")

	// Give Kafka a moment to propagate topic metadata.
	time.Sleep(1 * time.Second)
}
