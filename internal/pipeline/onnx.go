package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sync"

	ort "github.com/yalue/onnxruntime_go"

	"github.com/calderos/moodlens/internal/models"
)

// Metadata is the JSON sidecar exported next to each ONNX model. The label
// ordering must match the model's output index ordering exactly.
type Metadata struct {
	InputShape  []int64  `json:"input_shape"`
	OutputShape []int64  `json:"output_shape"`
	InputNames  []string `json:"input_names"`
	OutputNames []string `json:"output_names"`
	Labels      []string `json:"labels"`
	ImageSize   int      `json:"image_size"`
	MaxLength   int      `json:"max_length"`
}

var (
	ortOnce sync.Once
	ortErr  error
)

func initORT() error {
	ortOnce.Do(func() {
		ortErr = ort.InitializeEnvironment()
	})
	if ortErr != nil {
		return fmt.Errorf("initialize ONNX environment: %w", ortErr)
	}
	return nil
}

func readMetadata(path string) (Metadata, error) {
	var metadata Metadata
	raw, err := os.ReadFile(path)
	if err != nil {
		return metadata, fmt.Errorf("read metadata: %w", err)
	}
	if err := json.Unmarshal(raw, &metadata); err != nil {
		return metadata, fmt.Errorf("parse metadata: %w", err)
	}
	return metadata, nil
}

// nodeNames resolves the graph node names to bind: the sidecar overrides the
// defaults, and an override must name every node the session binds.
func (m Metadata) nodeNames(defaultInputs, defaultOutputs []string) ([]string, []string, error) {
	inputs := defaultInputs
	if len(m.InputNames) > 0 {
		if len(m.InputNames) != len(defaultInputs) {
			return nil, nil, fmt.Errorf("metadata lists %d input names, model binds %d", len(m.InputNames), len(defaultInputs))
		}
		inputs = m.InputNames
	}
	outputs := defaultOutputs
	if len(m.OutputNames) > 0 {
		if len(m.OutputNames) != len(defaultOutputs) {
			return nil, nil, fmt.Errorf("metadata lists %d output names, model binds %d", len(m.OutputNames), len(defaultOutputs))
		}
		outputs = m.OutputNames
	}
	return inputs, outputs, nil
}

func (m Metadata) labels() []models.SentimentLabel {
	if len(m.Labels) == 0 {
		return models.DefaultLabels
	}
	labels := make([]models.SentimentLabel, len(m.Labels))
	for i, l := range m.Labels {
		labels[i] = models.SentimentLabel(l)
	}
	return labels
}

// imageSession is an ONNX image classifier with preallocated input/output
// tensors. Run is serialized by a mutex because the tensors are shared.
type imageSession struct {
	mu           sync.Mutex
	session      *ort.AdvancedSession
	inputTensor  *ort.Tensor[float32]
	outputTensor *ort.Tensor[float32]
	labels       []models.SentimentLabel
}

func newImageSession(modelPath, metadataPath string) (ImageBackend, error) {
	if err := initORT(); err != nil {
		return nil, err
	}

	metadata, err := readMetadata(metadataPath)
	if err != nil {
		return nil, err
	}

	inputNames, outputNames, err := metadata.nodeNames([]string{"input"}, []string{"output"})
	if err != nil {
		return nil, err
	}

	inputShape := metadata.InputShape
	if len(inputShape) == 0 {
		inputShape = []int64{1, ImageChannels, ImageSize, ImageSize}
	}
	outputShape := metadata.OutputShape
	if len(outputShape) == 0 {
		outputShape = []int64{1, int64(len(metadata.labels()))}
	}

	inputTensor, err := ort.NewEmptyTensor[float32](ort.NewShape(inputShape...))
	if err != nil {
		return nil, fmt.Errorf("create input tensor: %w", err)
	}
	outputTensor, err := ort.NewEmptyTensor[float32](ort.NewShape(outputShape...))
	if err != nil {
		inputTensor.Destroy()
		return nil, fmt.Errorf("create output tensor: %w", err)
	}

	session, err := ort.NewAdvancedSession(modelPath,
		inputNames, outputNames,
		[]ort.ArbitraryTensor{inputTensor}, []ort.ArbitraryTensor{outputTensor},
		nil)
	if err != nil {
		inputTensor.Destroy()
		outputTensor.Destroy()
		return nil, fmt.Errorf("create ONNX session: %w", err)
	}

	return &imageSession{
		session:      session,
		inputTensor:  inputTensor,
		outputTensor: outputTensor,
		labels:       metadata.labels(),
	}, nil
}

func (s *imageSession) Labels() []models.SentimentLabel { return s.labels }

func (s *imageSession) Run(ctx context.Context, t *ImageTensor) (models.ScoreVector, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	input := s.inputTensor.GetData()
	if len(t.Data) != len(input) {
		return nil, &InferenceError{Err: fmt.Errorf("tensor has %d values, model expects %d", len(t.Data), len(input))}
	}
	copy(input, t.Data)

	if err := s.session.Run(); err != nil {
		return nil, &InferenceError{Err: err}
	}

	return validateScores(s.outputTensor.GetData(), len(s.labels))
}

// textSession is an ONNX text classifier taking token ids and an attention
// mask as two parallel int64 inputs.
type textSession struct {
	mu         sync.Mutex
	session    *ort.AdvancedSession
	idsTensor  *ort.Tensor[int64]
	maskTensor *ort.Tensor[int64]
	outTensor  *ort.Tensor[float32]
	seqLen     int
	labels     []models.SentimentLabel
}

func newTextSession(modelPath, metadataPath string, maxLength int) (TextBackend, error) {
	if err := initORT(); err != nil {
		return nil, err
	}

	metadata := Metadata{}
	if metadataPath != "" {
		var err error
		metadata, err = readMetadata(metadataPath)
		if err != nil {
			return nil, err
		}
	}

	inputNames, outputNames, err := metadata.nodeNames([]string{"input_ids", "attention_mask"}, []string{"logits"})
	if err != nil {
		return nil, err
	}

	seqLen := metadata.MaxLength
	if seqLen == 0 {
		seqLen = maxLength
	}
	if seqLen <= 0 {
		seqLen = DefaultMaxLength
	}
	labels := metadata.labels()

	inputShape := ort.NewShape(1, int64(seqLen))
	idsTensor, err := ort.NewEmptyTensor[int64](inputShape)
	if err != nil {
		return nil, fmt.Errorf("create input_ids tensor: %w", err)
	}
	maskTensor, err := ort.NewEmptyTensor[int64](inputShape)
	if err != nil {
		idsTensor.Destroy()
		return nil, fmt.Errorf("create attention_mask tensor: %w", err)
	}
	outTensor, err := ort.NewEmptyTensor[float32](ort.NewShape(1, int64(len(labels))))
	if err != nil {
		idsTensor.Destroy()
		maskTensor.Destroy()
		return nil, fmt.Errorf("create output tensor: %w", err)
	}

	session, err := ort.NewAdvancedSession(modelPath,
		inputNames, outputNames,
		[]ort.ArbitraryTensor{idsTensor, maskTensor}, []ort.ArbitraryTensor{outTensor},
		nil)
	if err != nil {
		idsTensor.Destroy()
		maskTensor.Destroy()
		outTensor.Destroy()
		return nil, fmt.Errorf("create ONNX session: %w", err)
	}

	return &textSession{
		session:    session,
		idsTensor:  idsTensor,
		maskTensor: maskTensor,
		outTensor:  outTensor,
		seqLen:     seqLen,
		labels:     labels,
	}, nil
}

func (s *textSession) Labels() []models.SentimentLabel { return s.labels }

func (s *textSession) Run(ctx context.Context, t *TextTensor) (models.ScoreVector, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(t.TokenIDs) != s.seqLen || len(t.AttentionMask) != s.seqLen {
		return nil, &InferenceError{Err: fmt.Errorf("sequence length %d does not match model input %d", len(t.TokenIDs), s.seqLen)}
	}
	copy(s.idsTensor.GetData(), t.TokenIDs)
	copy(s.maskTensor.GetData(), t.AttentionMask)

	if err := s.session.Run(); err != nil {
		return nil, &InferenceError{Err: err}
	}

	return validateScores(s.outTensor.GetData(), len(s.labels))
}
