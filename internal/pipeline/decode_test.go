package pipeline

import (
	"math"
	"testing"

	"github.com/calderos/moodlens/internal/models"
)

func TestDecodePicksArgmax(t *testing.T) {
	result := Decode(models.ScoreVector{0.1, 0.2, 0.7}, models.DefaultLabels)

	if result.Sentiment != models.SentimentPositive {
		t.Fatalf("expected positive, got %s", result.Sentiment)
	}
	if result.Confidence != 70.0 {
		t.Fatalf("expected confidence 70.0, got %v", result.Confidence)
	}
	if result.Timestamp.IsZero() {
		t.Fatal("expected timestamp to be set")
	}
}

func TestDecodeFirstMaxWinsOnTie(t *testing.T) {
	result := Decode(models.ScoreVector{0.5, 0.5, 0.1}, models.DefaultLabels)

	if result.Sentiment != models.SentimentNegative {
		t.Fatalf("expected negative on tied maximum, got %s", result.Sentiment)
	}
}

func TestDecodeConfidenceBounds(t *testing.T) {
	vectors := []models.ScoreVector{
		{0.0, 0.0, 0.0},
		{1.0, 0.0, 0.0},
		{0.333333, 0.333334, 0.333333},
		{0.123456, 0.654321, 0.222223},
	}

	for _, v := range vectors {
		result := Decode(v, models.DefaultLabels)
		if result.Confidence < 0 || result.Confidence > 100 {
			t.Errorf("confidence %v out of [0,100] for %v", result.Confidence, v)
		}
		scaled := result.Confidence * 100
		if math.Abs(scaled-math.Round(scaled)) > 1e-9 {
			t.Errorf("confidence %v has more than two decimal digits for %v", result.Confidence, v)
		}
	}
}

func TestDecodeEachLabelReachable(t *testing.T) {
	cases := []struct {
		scores models.ScoreVector
		want   models.SentimentLabel
	}{
		{models.ScoreVector{0.9, 0.05, 0.05}, models.SentimentNegative},
		{models.ScoreVector{0.1, 0.8, 0.1}, models.SentimentNeutral},
		{models.ScoreVector{0.0, 0.1, 0.9}, models.SentimentPositive},
	}

	for _, tc := range cases {
		result := Decode(tc.scores, models.DefaultLabels)
		if result.Sentiment != tc.want {
			t.Errorf("scores %v: expected %s, got %s", tc.scores, tc.want, result.Sentiment)
		}
	}
}

func TestValidateScores(t *testing.T) {
	if _, err := validateScores(nil, 3); err == nil {
		t.Error("expected error for empty output")
	}
	if _, err := validateScores([]float32{0.1, 0.2}, 3); err == nil {
		t.Error("expected error for wrong-length output")
	}
	if _, err := validateScores([]float32{0.1, float32(math.NaN()), 0.2}, 3); err == nil {
		t.Error("expected error for NaN output")
	}

	scores, err := validateScores([]float32{0.1, 0.2, 0.7}, 3)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(scores) != 3 {
		t.Fatalf("expected 3 scores, got %d", len(scores))
	}
}
