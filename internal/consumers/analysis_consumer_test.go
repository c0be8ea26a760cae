package consumers

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/confluentinc/confluent-kafka-go/kafka"

	"github.com/calderos/moodlens/internal/clients/kafka_client"
	"github.com/calderos/moodlens/internal/models"
	"github.com/calderos/moodlens/internal/utils"
)

type fakeTextAnalyzer struct {
	analyzed []string
}

func (f *fakeTextAnalyzer) AnalyzeText(ctx context.Context, text string) (models.SentimentResult, error) {
	f.analyzed = append(f.analyzed, text)
	return models.SentimentResult{
		Sentiment:  models.SentimentPositive,
		Confidence: 70,
		Timestamp:  time.Now().UTC(),
	}, nil
}

func (f *fakeTextAnalyzer) TextSource() string { return "test" }

var errNoMoreMessages = errors.New("no more messages")

// fakeSource replays a fixed poll sequence; a nil entry is an idle window.
type fakeSource struct {
	polls []*kafka.Message
}

func (f *fakeSource) Next(timeout time.Duration) (*kafka.Message, error) {
	if len(f.polls) == 0 {
		return nil, errNoMoreMessages
	}
	msg := f.polls[0]
	f.polls = f.polls[1:]
	if msg == nil {
		return nil, kafka_client.ErrReadTimeout
	}
	return msg, nil
}

type fakeCommitter struct {
	committed []*kafka.Message
}

func (f *fakeCommitter) Commit(msg *kafka.Message) error {
	f.committed = append(f.committed, msg)
	return nil
}

type fakeResultCache struct {
	analyzed map[string]bool
	marked   []string
	events   *[]string
}

func (f *fakeResultCache) IsAnalyzed(ctx context.Context, contentID string) bool {
	return f.analyzed[contentID]
}

func (f *fakeResultCache) MarkAnalyzed(ctx context.Context, contentID string) error {
	f.marked = append(f.marked, contentID)
	if f.events != nil {
		*f.events = append(*f.events, "mark:"+contentID)
	}
	return nil
}

func requestMessage(t *testing.T, requests ...models.AnalysisRequest) *kafka.Message {
	t.Helper()
	payload, err := json.Marshal(requests)
	if err != nil {
		t.Fatalf("marshal requests: %v", err)
	}
	topic := kafka_client.KAFKA_TOPIC_ANALYSIS_REQUESTS
	return &kafka.Message{
		TopicPartition: kafka.TopicPartition{Topic: &topic},
		Value:          payload,
	}
}

func newTestWorker(analyzer TextAnalyzer, cache resultCache, publish func(string, string, interface{}) error) *analysisWorker {
	return &analysisWorker{
		analyzer:   analyzer,
		cache:      cache,
		publish:    publish,
		results:    utils.NewBatchBuffer[models.AnalyzedContent](4),
		batchSize:  kafka_client.BATCH_SIZE,
		retryDelay: time.Millisecond,
	}
}

func TestIdlePollFlushesPartialBatch(t *testing.T) {
	var published [][]models.AnalyzedContent
	publish := func(topic, key string, payload interface{}) error {
		published = append(published, payload.([]models.AnalyzedContent))
		return nil
	}
	committer := &fakeCommitter{}
	worker := newTestWorker(&fakeTextAnalyzer{}, nil, publish)

	source := &fakeSource{polls: []*kafka.Message{
		requestMessage(t, models.AnalysisRequest{ContentID: "idle-1", Text: "pretty good"}),
		nil,
	}}
	worker.run(context.Background(), source, committer)

	if len(published) != 1 || len(published[0]) != 1 {
		t.Fatalf("expected the idle poll to flush a single-result batch, got %v", published)
	}
	if published[0][0].ContentID != "idle-1" {
		t.Fatalf("unexpected batch content %+v", published[0])
	}
	if len(committer.committed) != 1 {
		t.Fatalf("expected one offset commit after the flush, got %d", len(committer.committed))
	}
}

func TestBatchSizeThresholdFlush(t *testing.T) {
	var published [][]models.AnalyzedContent
	publish := func(topic, key string, payload interface{}) error {
		published = append(published, payload.([]models.AnalyzedContent))
		return nil
	}
	worker := newTestWorker(&fakeTextAnalyzer{}, nil, publish)
	worker.batchSize = 2

	source := &fakeSource{polls: []*kafka.Message{
		requestMessage(t, models.AnalysisRequest{ContentID: "size-1", Text: "one"}),
		requestMessage(t, models.AnalysisRequest{ContentID: "size-2", Text: "two"}),
	}}
	worker.run(context.Background(), source, &fakeCommitter{})

	if len(published) != 1 || len(published[0]) != 2 {
		t.Fatalf("expected one two-result batch at the size threshold, got %v", published)
	}
}

func TestFailedPublishSkipsCommitAndDedupe(t *testing.T) {
	attempts := 0
	publish := func(topic, key string, payload interface{}) error {
		attempts++
		return errors.New("broker unavailable")
	}
	cache := &fakeResultCache{analyzed: map[string]bool{}}
	committer := &fakeCommitter{}
	worker := newTestWorker(&fakeTextAnalyzer{}, cache, publish)

	source := &fakeSource{polls: []*kafka.Message{
		requestMessage(t, models.AnalysisRequest{ContentID: "fail-1", Text: "meh"}),
		nil,
	}}
	worker.run(context.Background(), source, committer)

	if attempts != publishAttempts {
		t.Fatalf("expected %d publish attempts, got %d", publishAttempts, attempts)
	}
	if len(cache.marked) != 0 {
		t.Fatalf("content marked analyzed despite failed publish: %v", cache.marked)
	}
	if len(committer.committed) != 0 {
		t.Fatalf("offsets committed despite failed publish: %d", len(committer.committed))
	}
}

func TestDedupeMarkedOnlyAfterPublish(t *testing.T) {
	var events []string
	publish := func(topic, key string, payload interface{}) error {
		events = append(events, "publish")
		return nil
	}
	cache := &fakeResultCache{analyzed: map[string]bool{}, events: &events}
	worker := newTestWorker(&fakeTextAnalyzer{}, cache, publish)

	source := &fakeSource{polls: []*kafka.Message{
		requestMessage(t, models.AnalysisRequest{ContentID: "order-1", Text: "fine"}),
		nil,
	}}
	worker.run(context.Background(), source, &fakeCommitter{})

	want := []string{"publish", "mark:order-1"}
	if len(events) != len(want) || events[0] != want[0] || events[1] != want[1] {
		t.Fatalf("expected mark to follow publish, got %v", events)
	}
}

func TestAlreadyAnalyzedContentSkipped(t *testing.T) {
	analyzer := &fakeTextAnalyzer{}
	cache := &fakeResultCache{analyzed: map[string]bool{"dup-1": true}}
	publish := func(topic, key string, payload interface{}) error { return nil }
	worker := newTestWorker(analyzer, cache, publish)

	source := &fakeSource{polls: []*kafka.Message{
		requestMessage(t,
			models.AnalysisRequest{ContentID: "dup-1", Text: "seen before"},
			models.AnalysisRequest{ContentID: "dup-2", Text: "fresh"}),
		nil,
	}}
	worker.run(context.Background(), source, &fakeCommitter{})

	if len(analyzer.analyzed) != 1 || analyzer.analyzed[0] != "fresh" {
		t.Fatalf("expected only the fresh request to be scored, got %v", analyzer.analyzed)
	}
}
