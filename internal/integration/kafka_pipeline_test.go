//go:build integration

package integration_test

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/couchcryptid/rain-grid-etl/internal/adapter/kafka"
	"github.com/couchcryptid/rain-grid-etl/internal/config"
	"github.com/couchcryptid/rain-grid-etl/internal/domain"
	"github.com/couchcryptid/rain-grid-etl/internal/observability"
	"github.com/couchcryptid/rain-grid-etl/internal/pipeline"
	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	tckafka "github.com/testcontainers/testcontainers-go/modules/kafka"
)

const testTopic = "test-rasters"

// publishedEvent holds a deserialized message read from the raster topic.
type publishedEvent struct {
	Event   domain.RasterEvent
	Key     string
	Headers map[string]string
}

func startKafka(ctx context.Context, t *testing.T) string {
	t.Helper()
	container, err := tckafka.Run(ctx, "confluentinc/confluent-local:7.5.0",
		tckafka.WithClusterID("rain-grid-test"),
	)
	require.NoError(t, err, "start kafka container")
	t.Cleanup(func() {
		if err := container.Terminate(context.Background()); err != nil {
			t.Logf("terminate kafka container: %v", err)
		}
	})

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
	ctrl, err := kafkago.Dial("tcp", net.JoinHostPort(controller.Host, strconv.Itoa(controller.Port)))
	require.NoError(t, err)
	defer ctrl.Close()

	require.NoError(t, ctrl.CreateTopics(kafkago.TopicConfig{
		Topic:             topic,
		NumPartitions:     1,
		ReplicationFactor: 1,
	}))
}

func newConsumer(broker, topic string) *kafkago.Reader {
	return kafkago.NewReader(kafkago.ReaderConfig{
		Brokers:     []string{broker},
		Topic:       topic,
		GroupID:     fmt.Sprintf("test-consumer-%d", time.Now().UnixNano()),
		StartOffset: kafkago.FirstOffset,
		MaxWait:     500 * time.Millisecond,
	})
}

// readEvent reads a single message from the consumer and deserializes it.
func readEvent(ctx context.Context, t *testing.T, consumer *kafkago.Reader) publishedEvent {
	t.Helper()
	readCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	msg, err := consumer.ReadMessage(readCtx)
	require.NoError(t, err, "read from raster topic")

	headers := make(map[string]string, len(msg.Headers))
	for _, h := range msg.Headers {
		headers[h.Key] = string(h.Value)
	}
	var event domain.RasterEvent
	require.NoError(t, json.Unmarshal(msg.Value, &event), "unmarshal raster event")

	return publishedEvent{Event: event, Key: string(msg.Key), Headers: headers}
}

// writeScenario writes one January 2020 table with a reporting station A and
// a silent station B.
func writeScenario(t *testing.T, dir string) {
	t.Helper()
	header := []string{"站名", "LON", "LAT"}
	a := []string{"A", "121.0", "24.0"}
	b := []string{"B", "121.5", "24.5"}
	for d := 1; d <= 31; d++ {
		header = append(header, fmt.Sprintf("202001%02d", d))
		a = append(a, "10")
		b = append(b, "-99.9")
	}
	rows := []string{strings.Join(header, ","), strings.Join(a, ","), strings.Join(b, ",")}
	require.NoError(t, os.MkdirAll(dir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "2020.csv"), []byte(strings.Join(rows, "\n")+"\n"), 0o644))
}

// TestKafkaWriter verifies the adapter layer round-trips a raster event.
func TestKafkaWriter(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 90*time.Second)
	defer cancel()

	broker := startKafka(ctx, t)
	createTopic(t, broker, testTopic)

	cfg := config.Default()
	cfg.KafkaBrokers = []string{broker}
	cfg.KafkaTopic = testTopic

	writer := kafka.NewWriter(cfg, slog.New(slog.NewTextHandler(io.Discard, nil)))
	defer writer.Close()

	event := domain.RasterEvent{
		ID:        "run-1:rain_2020_01",
		RunID:     "run-1",
		Month:     "2020-01",
		Strategy:  "idw",
		CellSize:  0.1,
		Cols:      6,
		Rows:      6,
		Artifacts: []domain.RasterArtifact{{Kind: "grid", Path: "rain_2020_01.asc"}},
	}
	require.NoError(t, writer.Publish(ctx, event))

	consumer := newConsumer(broker, testTopic)
	defer consumer.Close()

	got := readEvent(ctx, t, consumer)
	assert.Equal(t, "2020-01", got.Key)
	assert.Equal(t, "run-1", got.Headers["run_id"])
	assert.Equal(t, "idw", got.Headers["strategy"])
	assert.Equal(t, event.ID, got.Event.ID)
	assert.Equal(t, 6, got.Event.Cols)
	assert.Equal(t, event.Artifacts, got.Event.Artifacts)
}

// TestPipelinePublishesRasterEvents runs a whole batch with Kafka publishing.
func TestPipelinePublishesRasterEvents(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 120*time.Second)
	defer cancel()

	broker := startKafka(ctx, t)
	createTopic(t, broker, testTopic)

	root := t.TempDir()
	cfg := config.Default()
	cfg.InputDir = filepath.Join(root, "data")
	cfg.AggregateFile = filepath.Join(root, "out", "monthly.csv")
	cfg.MonthDir = filepath.Join(root, "out", "months")
	cfg.RasterDir = filepath.Join(root, "out", "rasters")
	cfg.LegendDir = filepath.Join(root, "out", "legends")
	cfg.CellSize = 0.1
	cfg.StyleEnabled = true
	cfg.KafkaBrokers = []string{broker}
	cfg.KafkaTopic = testTopic
	writeScenario(t, cfg.InputDir)

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	writer := kafka.NewWriter(cfg, logger)
	defer writer.Close()

	runner, err := pipeline.New(cfg, logger, observability.NewMetricsForTesting(), pipeline.WithPublishers(writer))
	require.NoError(t, err)

	summary := runner.Run(ctx)
	require.NoError(t, summary.Err)
	require.Equal(t, 1, summary.Count(domain.StageRasterize, domain.StatusSucceeded))

	consumer := newConsumer(broker, testTopic)
	defer consumer.Close()

	got := readEvent(ctx, t, consumer)
	assert.Equal(t, summary.RunID, got.Event.RunID)
	assert.Equal(t, "2020-01", got.Event.Month)
	assert.Zero(t, got.Event.Stats.NoData, "idw grid has no gaps")
	assert.InDelta(t, 310.0, got.Event.Stats.Max, 1e-9)

	legendPath, ok := got.Event.Artifact("legend")
	require.True(t, ok)
	assert.FileExists(t, legendPath)
}
