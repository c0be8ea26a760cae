package pipeline

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/calderos/moodlens/internal/models"
	"github.com/calderos/moodlens/internal/sentiment"
)

type Config struct {
	ImageModelPath    string
	ImageMetadataPath string
	// TextModelPath empty means the text path scores with the VADER
	// heuristic instead of an ONNX model.
	TextModelPath    string
	TextMetadataPath string
	TokenizerPath    string
	MaxLength        int
}

func getEnv(key, defaultValue string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return defaultValue
}

func ConfigFromEnv() Config {
	maxLength, err := strconv.Atoi(getEnv("SENTIMENT_MAX_LENGTH", "128"))
	if err != nil || maxLength <= 0 {
		maxLength = DefaultMaxLength
	}

	return Config{
		ImageModelPath:    getEnv("SENTIMENT_IMAGE_MODEL", "./models/image_sentiment.onnx"),
		ImageMetadataPath: getEnv("SENTIMENT_IMAGE_METADATA", "./models/image_sentiment.json"),
		TextModelPath:     getEnv("SENTIMENT_TEXT_MODEL", ""),
		TextMetadataPath:  getEnv("SENTIMENT_TEXT_METADATA", ""),
		TokenizerPath:     getEnv("SENTIMENT_TOKENIZER", "./models/tokenizer.json"),
		MaxLength:         maxLength,
	}
}

// Analyzer is the sentiment inference pipeline: preprocess the input and load
// the model concurrently, invoke the model, decode the winning label. Each
// analysis is a single linear run with no state beyond the in-flight request.
type Analyzer struct {
	cfg Config

	imageLoader     *ModelLoader[ImageBackend]
	textLoader      *ModelLoader[TextBackend]
	tokenizerLoader *ModelLoader[Tokenizer]

	tracker *ResultTracker
}

func NewAnalyzer(cfg Config) *Analyzer {
	a := &Analyzer{
		cfg:     cfg,
		tracker: NewResultTracker(),
	}
	a.imageLoader = NewModelLoader(func(ref string) (ImageBackend, error) {
		return newImageSession(ref, cfg.ImageMetadataPath)
	})
	a.textLoader = NewModelLoader(func(ref string) (TextBackend, error) {
		return newTextSession(ref, cfg.TextMetadataPath, cfg.MaxLength)
	})
	a.tokenizerLoader = NewModelLoader(func(ref string) (Tokenizer, error) {
		return NewHFTokenizer(ref)
	})
	return a
}

// TextSource names the backend the text path currently scores with.
func (a *Analyzer) TextSource() string {
	if a.cfg.TextModelPath == "" {
		return "vader"
	}
	return "onnx"
}

// AnalyzeText runs the full text pipeline and commits the result to the
// latest-result slot unless a newer request superseded it.
func (a *Analyzer) AnalyzeText(ctx context.Context, text string) (models.SentimentResult, error) {
	return a.analyzeText(ctx, text, true)
}

func (a *Analyzer) analyzeText(ctx context.Context, text string, commit bool) (models.SentimentResult, error) {
	// Probes skip the tracker entirely so they never invalidate the
	// generation token of an in-flight user request.
	var gen uint64
	if commit {
		gen = a.tracker.Begin()
	}
	start := time.Now()

	if a.cfg.TextModelPath == "" {
		plain := strings.TrimSpace(sentiment.NormalizeText(text))
		if plain == "" {
			return models.SentimentResult{}, &PreprocessError{Err: errors.New("empty text after trimming")}
		}

		result := Decode(sentiment.Scores(plain), models.DefaultLabels)
		if commit {
			a.commit(gen, result, start, "vader")
		}
		return result, nil
	}

	// Model loading has no data dependency on preprocessing, so both run
	// concurrently; the buffered channel lets a preprocess failure return
	// without waiting for the load.
	type loaded struct {
		backend TextBackend
		err     error
	}
	loadCh := make(chan loaded, 1)
	go func() {
		backend, err := a.textLoader.EnsureLoaded(a.cfg.TextModelPath)
		loadCh <- loaded{backend: backend, err: err}
	}()

	tokenizer, err := a.tokenizerLoader.EnsureLoaded(a.cfg.TokenizerPath)
	if err != nil {
		return models.SentimentResult{}, err
	}
	tensor, err := PreprocessText(text, tokenizer, a.cfg.MaxLength)
	if err != nil {
		return models.SentimentResult{}, err
	}

	load := <-loadCh
	if load.err != nil {
		return models.SentimentResult{}, load.err
	}

	scores, err := load.backend.Run(ctx, tensor)
	if err != nil {
		return models.SentimentResult{}, err
	}

	result := Decode(scores, load.backend.Labels())
	if commit {
		a.commit(gen, result, start, "onnx")
	}
	return result, nil
}

// AnalyzeImage resolves an opaque image reference and runs the image pipeline.
func (a *Analyzer) AnalyzeImage(ctx context.Context, imageRef string) (models.SentimentResult, error) {
	return a.analyzeImage(ctx, func() (*ImageTensor, error) {
		return PreprocessImageFile(imageRef)
	})
}

// AnalyzeImageFrom runs the image pipeline on already-opened image data,
// the shape uploads arrive in at the HTTP boundary.
func (a *Analyzer) AnalyzeImageFrom(ctx context.Context, r io.Reader) (models.SentimentResult, error) {
	return a.analyzeImage(ctx, func() (*ImageTensor, error) {
		return PreprocessImage(r)
	})
}

func (a *Analyzer) analyzeImage(ctx context.Context, preprocess func() (*ImageTensor, error)) (models.SentimentResult, error) {
	gen := a.tracker.Begin()
	start := time.Now()

	type loaded struct {
		backend ImageBackend
		err     error
	}
	loadCh := make(chan loaded, 1)
	go func() {
		backend, err := a.imageLoader.EnsureLoaded(a.cfg.ImageModelPath)
		loadCh <- loaded{backend: backend, err: err}
	}()

	tensor, err := preprocess()
	if err != nil {
		// Preprocess failure short-circuits the join; the load result
		// stays cached for the next request either way.
		return models.SentimentResult{}, err
	}

	load := <-loadCh
	if load.err != nil {
		return models.SentimentResult{}, load.err
	}

	scores, err := load.backend.Run(ctx, tensor)
	if err != nil {
		return models.SentimentResult{}, err
	}

	result := Decode(scores, load.backend.Labels())
	a.commit(gen, result, start, "onnx")
	return result, nil
}

func (a *Analyzer) commit(gen uint64, result models.SentimentResult, start time.Time, source string) {
	if !a.tracker.Commit(gen, result) {
		slog.Warn("[Analyzer] Dropping stale result",
			slog.Uint64("generation", gen),
			slog.String("sentiment", string(result.Sentiment)))
		return
	}
	slog.Info("[Analyzer] Analysis complete",
		slog.String("sentiment", string(result.Sentiment)),
		slog.Float64("confidence", result.Confidence),
		slog.String("source", source),
		slog.Duration("elapsed", time.Since(start)))
}

// Latest returns the most recent committed result, if any.
func (a *Analyzer) Latest() (models.SentimentResult, bool) {
	return a.tracker.Latest()
}

// Probe runs a minimal text analysis without touching the latest-result slot.
func (a *Analyzer) Probe(ctx context.Context) error {
	_, err := a.analyzeText(ctx, "service health probe", false)
	return err
}
