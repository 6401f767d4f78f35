package classifier

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	ort "github.com/yalue/onnxruntime_go"
)

// ONNXSpec names the graph file and the tensors of a tabular classifier
// exported with skl2onnx (zipmap disabled).
type ONNXSpec struct {
	Path              string
	InputName         string
	LabelOutput       string
	ProbabilityOutput string
	NumFeatures       int
}

func (s *ONNXSpec) applyDefaults() {
	if s.InputName == "" {
		s.InputName = "float_input"
	}
	if s.LabelOutput == "" {
		s.LabelOutput = "output_label"
	}
	if s.ProbabilityOutput == "" {
		s.ProbabilityOutput = "output_probability"
	}
	if s.NumFeatures <= 0 {
		s.NumFeatures = 6
	}
}

// ONNXClassifier wraps one ONNX session with preallocated tensors.
type ONNXClassifier struct {
	name        string
	session     *ort.AdvancedSession
	numFeatures int

	input *ort.Tensor[float32]
	label *ort.Tensor[int64]
	proba *ort.Tensor[float32]

	mu sync.Mutex
}

// LoadONNX initializes the runtime (once) and opens the model session.
func LoadONNX(name string, spec ONNXSpec) (*ONNXClassifier, error) {
	spec.applyDefaults()
	if strings.TrimSpace(spec.Path) == "" {
		return nil, errors.New("model path is empty")
	}
	if _, err := os.Stat(spec.Path); err != nil {
		return nil, fmt.Errorf("model file missing at %s: %w", spec.Path, err)
	}
	if err := initRuntime(filepath.Dir(spec.Path)); err != nil {
		return nil, err
	}

	input, err := ort.NewEmptyTensor[float32](ort.NewShape(1, int64(spec.NumFeatures)))
	if err != nil {
		return nil, fmt.Errorf("allocate input tensor: %w", err)
	}
	label, err := ort.NewEmptyTensor[int64](ort.NewShape(1))
	if err != nil {
		input.Destroy()
		return nil, fmt.Errorf("allocate label tensor: %w", err)
	}
	proba, err := ort.NewEmptyTensor[float32](ort.NewShape(1, NumClasses))
	if err != nil {
		input.Destroy()
		label.Destroy()
		return nil, fmt.Errorf("allocate probability tensor: %w", err)
	}

	session, err := ort.NewAdvancedSession(
		spec.Path,
		[]string{spec.InputName},
		[]string{spec.LabelOutput, spec.ProbabilityOutput},
		[]ort.Value{input},
		[]ort.Value{label, proba},
		nil,
	)
	if err != nil {
		input.Destroy()
		label.Destroy()
		proba.Destroy()
		return nil, fmt.Errorf("create onnx session: %w", err)
	}

	return &ONNXClassifier{
		name:        name,
		session:     session,
		numFeatures: spec.NumFeatures,
		input:       input,
		label:       label,
		proba:       proba,
	}, nil
}

func (m *ONNXClassifier) Name() string { return m.name }

// Score runs one inference and returns label and distribution together.
func (m *ONNXClassifier) Score(ctx context.Context, row []float32) (Class, []float64, error) {
	if m == nil || m.session == nil {
		return 0, nil, errors.New("onnx classifier not initialized")
	}
	if len(row) != m.numFeatures {
		return 0, nil, fmt.Errorf("expected %d features, got %d", m.numFeatures, len(row))
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	copy(m.input.GetData(), row)
	if err := m.session.Run(); err != nil {
		return 0, nil, fmt.Errorf("onnx run: %w", err)
	}

	pred := Class(m.label.GetData()[0])
	raw := m.proba.GetData()
	probs := make([]float64, len(raw))
	for i, p := range raw {
		probs[i] = float64(p)
	}
	return pred, probs, nil
}

func (m *ONNXClassifier) Predict(ctx context.Context, row []float32) (Class, error) {
	pred, _, err := m.Score(ctx, row)
	return pred, err
}

func (m *ONNXClassifier) PredictProba(ctx context.Context, row []float32) ([]float64, error) {
	_, probs, err := m.Score(ctx, row)
	return probs, err
}

// Close releases the session and its tensors.
func (m *ONNXClassifier) Close() error {
	if m == nil {
		return nil
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.session == nil {
		return nil
	}
	err := errors.Join(
		m.session.Destroy(),
		m.input.Destroy(),
		m.label.Destroy(),
		m.proba.Destroy(),
	)
	m.session = nil
	return err
}

var runtimeMu sync.Mutex

func initRuntime(modelDir string) error {
	runtimeMu.Lock()
	defer runtimeMu.Unlock()

	if ort.IsInitialized() {
		return nil
	}
	libPath := resolveSharedLibraryPath(modelDir)
	if libPath == "" {
		return fmt.Errorf("onnxruntime shared library not found; set ONNXRUNTIME_SHARED_LIBRARY_PATH or install the runtime")
	}
	ort.SetSharedLibraryPath(libPath)
	if err := ort.InitializeEnvironment(); err != nil {
		return fmt.Errorf("initialize onnxruntime: %w", err)
	}
	return nil
}

// resolveSharedLibraryPath attempts to locate a platform-specific onnxruntime shared library.
// If ONNXRUNTIME_SHARED_LIBRARY_PATH is set, it wins; otherwise we probe common names/locations.
func resolveSharedLibraryPath(modelDir string) string {
	if env := strings.TrimSpace(os.Getenv("ONNXRUNTIME_SHARED_LIBRARY_PATH")); env != "" {
		return env
	}

	names := []string{
		"libonnxruntime.dylib",
		"onnxruntime.dylib",
		"libonnxruntime.so",
		"onnxruntime.so",
		"onnxruntime.dll",
	}
	dirs := []string{
		modelDir,
		filepath.Join(modelDir, "lib"),
		".",
		"/opt/homebrew/lib",
		"/usr/local/lib",
		"/usr/lib",
	}

	for _, dir := range dirs {
		for _, name := range names {
			candidate := filepath.Join(dir, name)
			if _, err := os.Stat(candidate); err == nil {
				return candidate
			}
		}
	}
	return ""
}
