//go:build integration

package integration_test

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net"
	"strconv"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	tckafka "github.com/testcontainers/testcontainers-go/modules/kafka"

	"github.com/okh2o/stream-dashboard/internal/adapter/kafka"
	"github.com/okh2o/stream-dashboard/internal/config"
	"github.com/okh2o/stream-dashboard/internal/domain"
	"github.com/okh2o/stream-dashboard/internal/observability"
	"github.com/okh2o/stream-dashboard/internal/pipeline"
)

const testTopic = "test-interactions"

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func startKafka(ctx context.Context, t *testing.T) string {
	t.Helper()
	container, err := tckafka.Run(ctx, "confluentinc/confluent-local:7.5.0", tckafka.WithClusterID("test-cluster"))
	require.NoError(t, err, "start kafka container")
	t.Cleanup(func() { _ = container.Terminate(context.Background()) })

	brokers, err := container.Brokers(ctx)
	require.NoError(t, err)
	require.NotEmpty(t, brokers)
	return brokers[0]
}

func createTopic(t *testing.T, broker, topic string) {
	t.Helper()
	conn, err := kafkago.Dial("tcp", broker)
	require.NoError(t, err)
	defer conn.Close()

	controller, err := conn.Controller()
	require.NoError(t, err)
	cconn, err := kafkago.Dial("tcp", net.JoinHostPort(controller.Host, strconv.Itoa(controller.Port)))
	require.NoError(t, err)
	defer cconn.Close()

	require.NoError(t, cconn.CreateTopics(kafkago.TopicConfig{
		Topic:             topic,
		NumPartitions:     1,
		ReplicationFactor: 1,
	}))
}

func testDataset(t *testing.T) *domain.Dataset {
	t.Helper()
	ds, err := domain.NewDataset(
		[]domain.BacteriaSample{{
			StationName: "Creek A",
			SampleTime:  time.Date(2018, 6, 1, 10, 0, 0, 0, time.UTC),
			Ecoli:       10,
			Enterococci: 4,
			Lat:         35.1,
			Long:        -97.1,
		}},
		nil,
		[]domain.GaugeStation{{StationName: "Illinois River near Tahlequah", SiteNumber: "7196500", Lat: 35.92, Long: -94.92}},
	)
	require.NoError(t, err)
	return ds
}

type noFetch struct{}

func (noFetch) FetchDailyFlow(context.Context, domain.SeriesRequest) (domain.FlowSeries, error) {
	return domain.FlowSeries{}, domain.ErrEmptySeries
}

// TestInteractionSink verifies dispatched events arrive on the topic with
// their key, headers and JSON body.
func TestInteractionSink(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 120*time.Second)
	defer cancel()

	broker := startKafka(ctx, t)
	createTopic(t, broker, testTopic)

	cfg := &config.Config{KafkaBrokers: []string{broker}, KafkaTopic: testTopic}
	metrics := observability.NewMetricsForTesting()
	writer := kafka.NewWriter(cfg, discardLogger(), metrics)

	now := time.Date(2024, 6, 15, 14, 30, 0, 0, time.UTC)
	b := pipeline.New(testDataset(t), noFetch{}, clockwork.NewFakeClockAt(now), discardLogger(), metrics, pipeline.Options{
		Sink: writer,
	})

	b.Dispatch(ctx, domain.Hover("Creek A"))
	b.Dispatch(ctx, domain.StyleChange(domain.StyleSatellite))
	require.NoError(t, writer.Close(), "flush writer")

	reader := kafkago.NewReader(kafkago.ReaderConfig{
		Brokers:   []string{broker},
		Topic:     testTopic,
		Partition: 0,
		MinBytes:  1,
		MaxBytes:  1 << 20,
	})
	t.Cleanup(func() { _ = reader.Close() })

	var got []domain.Interaction
	var keys []string
	for range 2 {
		readCtx, readCancel := context.WithTimeout(ctx, 30*time.Second)
		msg, err := reader.ReadMessage(readCtx)
		readCancel()
		require.NoError(t, err, "read interaction")

		var in domain.Interaction
		require.NoError(t, json.Unmarshal(msg.Value, &in))
		got = append(got, in)
		keys = append(keys, string(msg.Key))
	}

	assert.Equal(t, []string{"Creek A", "style"}, keys)
	assert.Equal(t, "hover", got[0].Type)
	assert.Equal(t, "bacteria", got[0].Selection)
	assert.True(t, now.Equal(got[0].At))
	assert.Equal(t, "style", got[1].Type)
	assert.Equal(t, "satellite", got[1].Style)
}
