package consumers

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/confluentinc/confluent-kafka-go/kafka"

	"github.com/calderos/moodlens/internal/clients"
	"github.com/calderos/moodlens/internal/clients/kafka_client"
	kutils "github.com/calderos/moodlens/internal/clients/kafka_client/utils"
	"github.com/calderos/moodlens/internal/models"
	"github.com/calderos/moodlens/internal/utils"
)

const publishAttempts = 3

// TextAnalyzer is the slice of the pipeline the worker needs.
type TextAnalyzer interface {
	AnalyzeText(ctx context.Context, text string) (models.SentimentResult, error)
	TextSource() string
}

// messageSource and offsetCommitter are the two sides of the Kafka client the
// worker loop touches.
type messageSource interface {
	Next(timeout time.Duration) (*kafka.Message, error)
}

type offsetCommitter interface {
	Commit(msg *kafka.Message) error
}

// resultCache is the dedupe window; a nil cache means every request is scored.
type resultCache interface {
	IsAnalyzed(ctx context.Context, contentID string) bool
	MarkAnalyzed(ctx context.Context, contentID string) error
}

type analysisWorker struct {
	analyzer   TextAnalyzer
	cache      resultCache
	publish    func(topic string, key string, payload interface{}) error
	results    *utils.BatchBuffer[models.AnalyzedContent]
	batchSize  int
	retryDelay time.Duration
}

// StartAnalysisConsumer scores batched analysis requests and publishes the
// results. Content ids are marked analyzed only after their batch is
// published, so a crash mid-batch redelivers instead of silently losing
// results for the dedupe window.
func StartAnalysisConsumer(ctx context.Context, consumer *kafka.Consumer, analyzer TextAnalyzer) {
	worker := &analysisWorker{
		analyzer:   analyzer,
		publish:    kafka_client.PublishToKafka,
		results:    utils.NewBatchBuffer[models.AnalyzedContent](kafka_client.BATCH_SIZE),
		batchSize:  kafka_client.BATCH_SIZE,
		retryDelay: kafka_client.RETRY_DELAY,
	}
	if cache := clients.GetValkeyClient(); cache != nil {
		worker.cache = cache
	}

	worker.run(ctx,
		kafka_client.NewKafkaMessageIterator(ctx, consumer),
		kafka_client.NewCommitHandler(ctx, consumer))
}

func (w *analysisWorker) run(ctx context.Context, source messageSource, committer offsetCommitter) {
	slog.Info("[AnalysisConsumer] Listening for analysis requests",
		slog.String("source", w.analyzer.TextSource()))

	for {
		select {
		case <-ctx.Done():
			slog.Warn("[AnalysisConsumer] Consumer shutting down...")
			w.publishResults(ctx, committer)
			return
		default:
		}

		msg, err := source.Next(kafka_client.BATCH_TIMEOUT)
		if errors.Is(err, kafka_client.ErrReadTimeout) {
			// traffic went idle, flush the partial batch
			w.publishResults(ctx, committer)
			continue
		}
		if err != nil {
			kutils.HandleConsumerError(err)
			return
		}

		w.handleMessage(ctx, msg)

		if w.results.Size() >= w.batchSize {
			w.publishResults(ctx, committer)
		}
	}
}

func (w *analysisWorker) handleMessage(ctx context.Context, msg *kafka.Message) {
	var requests []models.AnalysisRequest
	if err := kutils.DeserializeFromJSON(msg.Value, &requests); err != nil {
		kutils.HandleConsumerError(err)
		return
	}
	if len(requests) == 0 {
		return
	}

	kutils.TrackMessage(requests[0].ContentID, msg)

	for _, request := range requests {
		if w.cache != nil && w.cache.IsAnalyzed(ctx, request.ContentID) {
			slog.Info("[AnalysisConsumer] Skipping already analyzed content",
				slog.String("content_id", request.ContentID))
			continue
		}

		result, err := w.analyzer.AnalyzeText(ctx, request.Text)
		if err != nil {
			slog.Warn("[AnalysisConsumer] Analysis failed",
				slog.String("content_id", request.ContentID),
				slog.String("error", err.Error()))
			continue
		}

		w.results.Add(models.AnalyzedContent{
			AnalysisRequest: request,
			SentimentLabel:  result.Sentiment,
			Confidence:      result.Confidence,
			Timestamp:       result.Timestamp.Format(time.RFC3339),
			SentimentSource: w.analyzer.TextSource(),
		})
	}
}

// publishResults drains the buffer and publishes it. Offsets are committed
// and content ids marked analyzed only once the batch is on the wire; a
// failed publish leaves both untouched so the broker redelivers.
func (w *analysisWorker) publishResults(ctx context.Context, committer offsetCommitter) {
	batch := w.results.GetAndClear()
	if len(batch) == 0 {
		return
	}

	var err error
	for i := 0; i < publishAttempts; i++ {
		err = w.publish(kafka_client.KAFKA_TOPIC_ANALYSIS_RESULTS, batch[0].ContentID, batch)
		if err == nil {
			break
		}
		slog.Warn("[AnalysisConsumer] Batch publishing failed",
			slog.Int("attempt", i+1),
			slog.String("error", err.Error()))
		time.Sleep(w.retryDelay)
	}
	if err != nil {
		slog.Error("[AnalysisConsumer] Leaving offsets uncommitted, batch not published",
			slog.Int("batch_size", len(batch)),
			slog.String("error", err.Error()))
		return
	}

	for _, content := range batch {
		if w.cache != nil {
			if err := w.cache.MarkAnalyzed(ctx, content.ContentID); err != nil {
				slog.Warn("[AnalysisConsumer] Failed to mark content as analyzed",
					slog.String("content_id", content.ContentID),
					slog.String("error", err.Error()))
			}
		}

		trackedMsg, found := kutils.GetMessageForContent(content.ContentID)
		if found {
			if err := committer.Commit(trackedMsg); err != nil {
				slog.Warn("[AnalysisConsumer] Failed to commit offset",
					slog.String("error", err.Error()))
			}
		}
	}
}
