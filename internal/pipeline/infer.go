package pipeline

import (
	"context"
	"fmt"
	"math"

	"github.com/calderos/moodlens/internal/models"
)

// ImageBackend runs a loaded image classifier against a preprocessed tensor.
type ImageBackend interface {
	Labels() []models.SentimentLabel
	Run(ctx context.Context, t *ImageTensor) (models.ScoreVector, error)
}

// TextBackend runs a loaded text classifier against tokenized input.
type TextBackend interface {
	Labels() []models.SentimentLabel
	Run(ctx context.Context, t *TextTensor) (models.ScoreVector, error)
}

// validateScores checks raw model output against the expected label count
// before it reaches the decoder. A violation means the model and tensor
// shapes disagree, which is an InferenceError, never something to retry.
func validateScores(out []float32, want int) (models.ScoreVector, error) {
	if len(out) == 0 {
		return nil, &InferenceError{Err: fmt.Errorf("model produced empty output")}
	}
	if len(out) != want {
		return nil, &InferenceError{Err: fmt.Errorf("model produced %d scores, expected %d", len(out), want)}
	}

	scores := make(models.ScoreVector, len(out))
	for i, v := range out {
		f := float64(v)
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return nil, &InferenceError{Err: fmt.Errorf("model produced non-numeric score at index %d", i)}
		}
		scores[i] = f
	}
	return scores, nil
}
