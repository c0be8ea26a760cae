package models

import "time"

type SentimentLabel string

const (
	SentimentNegative SentimentLabel = "negative"
	SentimentNeutral  SentimentLabel = "neutral"
	SentimentPositive SentimentLabel = "positive"
)

// DefaultLabels is the fixed label ordering. Index i of a ScoreVector
// corresponds to DefaultLabels[i]; the model's output layout must match.
var DefaultLabels = []SentimentLabel{
	SentimentNegative,
	SentimentNeutral,
	SentimentPositive,
}

// ScoreVector is the raw model output, one value per label. Values are the
// model's own calibration and are not required to sum to 1.
type ScoreVector []float64

type SentimentResult struct {
	Sentiment  SentimentLabel `json:"sentiment"`
	Confidence float64        `json:"confidence"`
	Timestamp  time.Time      `json:"timestamp"`
}
