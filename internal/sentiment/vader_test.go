package sentiment

import (
	"testing"

	"github.com/calderos/moodlens/internal/models"
)

func argmax(v models.ScoreVector) int {
	maxIdx := 0
	for i, s := range v {
		if s > v[maxIdx] {
			maxIdx = i
		}
	}
	return maxIdx
}

func TestScoresMatchLabelOrdering(t *testing.T) {
	scores := Scores("this is fine")
	if len(scores) != len(models.DefaultLabels) {
		t.Fatalf("expected %d scores, got %d", len(models.DefaultLabels), len(scores))
	}
}

func TestScoresPolarity(t *testing.T) {
	positive := Scores("I love this, it is wonderful and great")
	if models.DefaultLabels[argmax(positive)] != models.SentimentPositive {
		t.Errorf("expected positive dominant, got %v", positive)
	}

	negative := Scores("I hate this, it is awful and terrible")
	if models.DefaultLabels[argmax(negative)] != models.SentimentNegative {
		t.Errorf("expected negative dominant, got %v", negative)
	}
}

func TestNormalizeTextStripsMarkdown(t *testing.T) {
	got := NormalizeText("I **love** [this](https://example.com)")
	if got != "I love this" {
		t.Fatalf("expected %q, got %q", "I love this", got)
	}
}

func TestNormalizeTextRemovesBareLinks(t *testing.T) {
	got := NormalizeText("check https://example.com/page now")
	if got != "check now" {
		t.Fatalf("expected %q, got %q", "check now", got)
	}
}

func TestNormalizeTextCollapsesWhitespace(t *testing.T) {
	got := NormalizeText("a\n\nb\t c")
	if got != "a b c" {
		t.Fatalf("expected %q, got %q", "a b c", got)
	}
}
