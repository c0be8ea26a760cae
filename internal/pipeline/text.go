package pipeline

import (
	"errors"
	"fmt"
	"strings"

	"github.com/daulet/tokenizers"

	"github.com/calderos/moodlens/internal/sentiment"
)

const DefaultMaxLength = 128

// TextTensor holds two parallel fixed-length integer sequences: token ids and
// an attention mask marking real (1) vs padding (0) positions.
type TextTensor struct {
	TokenIDs      []int64
	AttentionMask []int64
}

// Tokenizer turns plain text into token ids plus an attention mask. The
// production implementation wraps a HuggingFace tokenizer file; tests
// substitute deterministic fakes.
type Tokenizer interface {
	Encode(text string) (ids []int64, mask []int64, err error)
}

type hfTokenizer struct {
	tk *tokenizers.Tokenizer
}

// NewHFTokenizer loads a tokenizer.json exported alongside the text model.
func NewHFTokenizer(path string) (Tokenizer, error) {
	tk, err := tokenizers.FromFile(path)
	if err != nil {
		return nil, fmt.Errorf("load tokenizer %q: %w", path, err)
	}
	return &hfTokenizer{tk: tk}, nil
}

func (h *hfTokenizer) Encode(text string) ([]int64, []int64, error) {
	enc := h.tk.EncodeWithOptions(text, true, tokenizers.WithReturnAttentionMask())

	ids := make([]int64, len(enc.IDs))
	for i, id := range enc.IDs {
		ids[i] = int64(id)
	}
	mask := make([]int64, len(enc.AttentionMask))
	for i, m := range enc.AttentionMask {
		mask[i] = int64(m)
	}
	return ids, mask, nil
}

// PreprocessText normalizes and tokenizes text into a fixed-length tensor.
// Policy: sequences longer than maxLength are truncated at the tail, shorter
// ones are padded at the tail with id 0 and mask 0. Input that is empty after
// normalization and trimming fails with PreprocessError.
func PreprocessText(text string, tok Tokenizer, maxLength int) (*TextTensor, error) {
	if maxLength <= 0 {
		maxLength = DefaultMaxLength
	}

	plain := strings.TrimSpace(sentiment.NormalizeText(text))
	if plain == "" {
		return nil, &PreprocessError{Err: errors.New("empty text after trimming")}
	}

	ids, mask, err := tok.Encode(plain)
	if err != nil {
		return nil, &PreprocessError{Err: fmt.Errorf("tokenize: %w", err)}
	}
	if len(ids) != len(mask) {
		return nil, &PreprocessError{Err: fmt.Errorf("tokenizer returned %d ids but %d mask values", len(ids), len(mask))}
	}

	if len(ids) > maxLength {
		ids = ids[:maxLength]
		mask = mask[:maxLength]
	}

	tensor := &TextTensor{
		TokenIDs:      make([]int64, maxLength),
		AttentionMask: make([]int64, maxLength),
	}
	copy(tensor.TokenIDs, ids)
	copy(tensor.AttentionMask, mask)

	return tensor, nil
}
