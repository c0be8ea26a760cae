package pipeline

import (
	"errors"
	"strings"
	"testing"
)

// fakeTokenizer emits one sequential id per whitespace-separated word.
type fakeTokenizer struct{}

func (fakeTokenizer) Encode(text string) ([]int64, []int64, error) {
	words := strings.Fields(text)
	ids := make([]int64, len(words))
	mask := make([]int64, len(words))
	for i := range words {
		ids[i] = int64(i + 1)
		mask[i] = 1
	}
	return ids, mask, nil
}

func TestPreprocessTextPadsShortInput(t *testing.T) {
	tensor, err := PreprocessText("one two three", fakeTokenizer{}, 8)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(tensor.TokenIDs) != 8 || len(tensor.AttentionMask) != 8 {
		t.Fatalf("expected fixed length 8, got %d/%d", len(tensor.TokenIDs), len(tensor.AttentionMask))
	}

	for i := 0; i < 3; i++ {
		if tensor.TokenIDs[i] != int64(i+1) {
			t.Errorf("token id at %d: expected %d, got %d", i, i+1, tensor.TokenIDs[i])
		}
		if tensor.AttentionMask[i] != 1 {
			t.Errorf("attention mask at %d: expected 1, got %d", i, tensor.AttentionMask[i])
		}
	}
	for i := 3; i < 8; i++ {
		if tensor.TokenIDs[i] != 0 || tensor.AttentionMask[i] != 0 {
			t.Errorf("padding at %d: expected 0/0, got %d/%d", i, tensor.TokenIDs[i], tensor.AttentionMask[i])
		}
	}
}

func TestPreprocessTextTruncatesLongInput(t *testing.T) {
	tensor, err := PreprocessText("one two three four five six", fakeTokenizer{}, 4)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(tensor.TokenIDs) != 4 {
		t.Fatalf("expected length 4, got %d", len(tensor.TokenIDs))
	}
	for i := 0; i < 4; i++ {
		if tensor.TokenIDs[i] != int64(i+1) {
			t.Errorf("token id at %d: expected %d, got %d", i, i+1, tensor.TokenIDs[i])
		}
		if tensor.AttentionMask[i] != 1 {
			t.Errorf("attention mask at %d: expected 1, got %d", i, tensor.AttentionMask[i])
		}
	}
}

func TestPreprocessTextRejectsEmptyInput(t *testing.T) {
	for _, input := range []string{"", "   ", "\n\t "} {
		_, err := PreprocessText(input, fakeTokenizer{}, 8)

		var preprocessErr *PreprocessError
		if !errors.As(err, &preprocessErr) {
			t.Errorf("input %q: expected PreprocessError, got %v", input, err)
		}
	}
}
