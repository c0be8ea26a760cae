package pipeline

import (
	"math"
	"time"

	"github.com/calderos/moodlens/internal/models"
)

// Decode maps a raw score vector to a sentiment result. The first occurrence
// wins on a tied maximum. Confidence is the winning raw score as a percentage
// rounded to two decimals; the scores are the model's own calibration, not
// softmax probabilities.
//
// The invoker guarantees a non-empty vector whose length matches the label
// ordering, so there is no failure path here.
func Decode(scores models.ScoreVector, labels []models.SentimentLabel) models.SentimentResult {
	maxIdx := 0
	maxVal := scores[0]
	for i, v := range scores {
		if v > maxVal {
			maxVal = v
			maxIdx = i
		}
	}

	return models.SentimentResult{
		Sentiment:  labels[maxIdx],
		Confidence: math.Round(maxVal*10000) / 100,
		Timestamp:  time.Now().UTC(),
	}
}
