package sender

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/magabrotheeeer/storefront/internal/config"
)

func newNoopLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestNew_UnknownBroker(t *testing.T) {
	cfg := &config.Config{Notifications: config.Notifications{Broker: "sns"}}

	_, err := New(context.Background(), cfg, newNoopLogger())
	require.Error(t, err)
	assert.Contains(t, err.Error(), `unknown notifications broker "sns"`)
}

func TestRun_KafkaStopsOnCancel(t *testing.T) {
	cfg := &config.Config{
		Notifications: config.Notifications{Broker: config.BrokerKafka, Recipients: []string{"shop@example.com"}},
		Kafka: config.Kafka{
			KafkaBrokers: []string{"127.0.0.1:1"},
			KafkaTopic:   "order.confirmed",
			KafkaGroupID: "notification-sender",
		},
	}

	app, err := New(context.Background(), cfg, newNoopLogger())
	require.NoError(t, err)
	require.NotNil(t, app.consumer)
	assert.Nil(t, app.conn)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	errCh := make(chan error, 1)
	go func() { errCh <- app.Run(ctx) }()

	select {
	case err := <-errCh:
		assert.NoError(t, err)
	case <-time.After(10 * time.Second):
		t.Fatal("sender did not stop after cancel")
	}
}
