package kafka_client

import "time"

const (
	KAFKA_TOPIC_ANALYSIS_REQUESTS = "analysis-requests" // batched content waiting for sentiment analysis
	KAFKA_TOPIC_ANALYSIS_RESULTS  = "analysis-results"  // batched results from sentiment analysis
)

const (
	BATCH_SIZE    = 50
	BATCH_TIMEOUT = 5 * time.Second
	MAX_RETRIES   = 5
	RETRY_DELAY   = 2 * time.Second
)
