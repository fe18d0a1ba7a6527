package kafka

import (
	"testing"

	"github.com/google/uuid"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/PARADOX-BSSM/windeath44.server.feed/pkg/core/health"
	"github.com/PARADOX-BSSM/windeath44.server.feed/pkg/messaging/kafka/avro"
	"github.com/PARADOX-BSSM/windeath44.server.feed/pkg/messaging/kafka/config"
	"github.com/PARADOX-BSSM/windeath44.server.feed/pkg/messaging/kafka/consumer"
	"github.com/PARADOX-BSSM/windeath44.server.feed/pkg/messaging/kafka/producer"
	"github.com/PARADOX-BSSM/windeath44.server.feed/pkg/messaging/kafka/schemaregistry"
)

func testKafkaConfig() config.Config {
	return config.Config{
		Brokers:        "localhost:9092",
		SchemaRegistry: config.SchemaRegistryConfig{URL: "mock://" + uuid.NewString()},
		ConsumersConfig: config.ConsumersConfig{
			DefaultGroupID: "feed",
			ConsumerConfig: []config.ConsumerConfig{
				{Name: "memorial-vectorizing", Topic: "memorial-vectorizing-request"},
				{Name: "memorial-vector-delete", Topic: "memorial-vector-delete-request"},
			},
		},
	}
}

func baseOptions() fx.Option {
	return fx.Options(
		fx.NopLogger,
		fx.Supply(viper.New()),
		fx.Provide(zap.NewNop),
		health.NewReadinessModule(),
	)
}

func TestNewMessagingModule_ProvidesStack(t *testing.T) {
	// Arrange
	var (
		registry  schemaregistry.Registry
		decoder   *avro.Deserializer
		avroPub   *producer.AvroPublisher
		publisher producer.Publisher
		jsonPub   *producer.JSONPublisher
		listeners consumer.Listeners
		checker   health.ReadinessChecker
	)

	// Act
	app := fx.New(
		baseOptions(),
		NewMessagingModule(WithKafkaConfig(testKafkaConfig())),
		fx.Populate(&registry, &decoder, &avroPub, &publisher, &jsonPub, &listeners, &checker),
	)

	// Assert
	require.NoError(t, app.Err())
	assert.NotNil(t, registry)
	assert.NotNil(t, decoder)
	assert.Same(t, avroPub, publisher)
	assert.NotNil(t, jsonPub)
	require.Len(t, listeners, 2)

	l, err := listeners.Get("memorial-vectorizing")
	require.NoError(t, err)
	assert.Equal(t, "memorial-vectorizing-request", l.Topic())
	assert.Equal(t, string(consumer.StateStopped), l.State())

	_, err = listeners.Get("unknown")
	assert.Error(t, err)

	names := make([]string, 0)
	for _, c := range checker.GetStatus().Components {
		names = append(names, c.Name)
	}
	assert.ElementsMatch(t, []string{"kafka-publisher", "listener-memorial-vectorizing", "listener-memorial-vector-delete"}, names)
	assert.False(t, checker.IsReady())
}

func TestNewMessagingModule_WithoutListeners(t *testing.T) {
	var listeners consumer.Listeners

	app := fx.New(
		baseOptions(),
		NewMessagingModule(WithKafkaConfig(testKafkaConfig()), WithoutListeners()),
		fx.Populate(&listeners),
	)

	assert.Error(t, app.Err())
}

func TestNewMessagingModule_InvalidConfig(t *testing.T) {
	cfg := testKafkaConfig()
	cfg.ProducerConfig.Acks = "most"

	app := fx.New(
		baseOptions(),
		NewMessagingModule(WithKafkaConfig(cfg)),
		fx.Invoke(func(config.Config) {}),
	)

	require.Error(t, app.Err())
	assert.Contains(t, app.Err().Error(), "invalid kafka config")
}
