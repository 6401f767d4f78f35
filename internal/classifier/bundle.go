package classifier

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

const (
	RandomForestModel = "random_forest"
	DecisionTreeModel = "decision_tree"
)

// ErrManifestNotFound is returned when manifest.json is missing.
var ErrManifestNotFound = errors.New("model manifest not found")

// ManifestFile describes one file entry in manifest.json.
type ManifestFile struct {
	Path   string `json:"path"`
	SHA256 string `json:"sha256"`
	Size   int64  `json:"size"`
}

// Manifest mirrors manifest.json.
type Manifest struct {
	Model     string         `json:"model"`
	Version   string         `json:"version"`
	CreatedAt string         `json:"created_at"`
	Files     []ManifestFile `json:"files"`
}

// ModelSpec configures one of the two capabilities.
type ModelSpec struct {
	Type              string // onnx | static
	Path              string
	InputName         string
	LabelOutput       string
	ProbabilityOutput string
	Probabilities     []float64
}

// BundleSpec configures both capabilities.
type BundleSpec struct {
	Dir             string
	RequireManifest bool
	RandomForest    ModelSpec
	DecisionTree    ModelSpec
}

// Bundle holds the two loaded capabilities. Both fields are always non-nil;
// a model that failed to load is replaced by an unavailable classifier.
type Bundle struct {
	RandomForest Classifier
	DecisionTree Classifier
	Manifest     *Manifest
}

// LoadBundle verifies the manifest (when present or required) and loads both
// models. It always returns a usable Bundle; the error lists what failed.
func LoadBundle(spec BundleSpec) (*Bundle, error) {
	b := &Bundle{}

	manifest, err := VerifyManifest(spec.Dir)
	switch {
	case err == nil:
		b.Manifest = manifest
	case errors.Is(err, ErrManifestNotFound) && !spec.RequireManifest:
	default:
		cause := fmt.Errorf("verify bundle: %w", err)
		b.RandomForest = NewUnavailable(RandomForestModel, cause)
		b.DecisionTree = NewUnavailable(DecisionTreeModel, cause)
		return b, errors.Join(Unavailable(RandomForestModel, cause), Unavailable(DecisionTreeModel, cause))
	}

	var errs []error
	b.RandomForest, err = loadModel(RandomForestModel, spec.Dir, spec.RandomForest)
	if err != nil {
		errs = append(errs, err)
	}
	b.DecisionTree, err = loadModel(DecisionTreeModel, spec.Dir, spec.DecisionTree)
	if err != nil {
		errs = append(errs, err)
	}
	return b, errors.Join(errs...)
}

// Close releases any runtime resources held by the models.
func (b *Bundle) Close() error {
	if b == nil {
		return nil
	}
	var errs []error
	for _, c := range []Classifier{b.RandomForest, b.DecisionTree} {
		if closer, ok := c.(io.Closer); ok {
			errs = append(errs, closer.Close())
		}
	}
	return errors.Join(errs...)
}

func loadModel(name, dir string, spec ModelSpec) (Classifier, error) {
	switch strings.ToLower(strings.TrimSpace(spec.Type)) {
	case "static":
		if len(spec.Probabilities) != NumClasses {
			err := Unavailable(name, fmt.Errorf("static model needs %d probabilities, got %d", NumClasses, len(spec.Probabilities)))
			return NewUnavailable(name, err), err
		}
		return NewStatic(name, spec.Probabilities...), nil
	case "", "onnx":
		path, err := modelPath(dir, spec.Path)
		if err != nil {
			err = Unavailable(name, err)
			return NewUnavailable(name, err), err
		}
		m, err := LoadONNX(name, ONNXSpec{
			Path:              path,
			InputName:         spec.InputName,
			LabelOutput:       spec.LabelOutput,
			ProbabilityOutput: spec.ProbabilityOutput,
		})
		if err != nil {
			err = Unavailable(name, fmt.Errorf("load onnx: %w", err))
			return NewUnavailable(name, err), err
		}
		return m, nil
	default:
		err := Unavailable(name, fmt.Errorf("unknown model type %q", spec.Type))
		return NewUnavailable(name, err), err
	}
}

func modelPath(dir, p string) (string, error) {
	p = strings.TrimSpace(p)
	if p == "" {
		return "", errors.New("model path is empty")
	}
	if filepath.IsAbs(p) {
		return p, nil
	}
	if strings.TrimSpace(dir) == "" {
		return filepath.Clean(p), nil
	}
	return resolveBundlePath(dir, p)
}

// VerifyManifest checks every file listed in <dir>/manifest.json against its
// recorded size and sha256.
func VerifyManifest(dir string) (*Manifest, error) {
	if strings.TrimSpace(dir) == "" {
		return nil, ErrManifestNotFound
	}
	data, err := os.ReadFile(filepath.Join(dir, "manifest.json"))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrManifestNotFound
		}
		return nil, fmt.Errorf("read manifest: %w", err)
	}

	var manifest Manifest
	if err := json.Unmarshal(data, &manifest); err != nil {
		return nil, fmt.Errorf("decode manifest: %w", err)
	}
	if len(manifest.Files) == 0 {
		return nil, errors.New("manifest lists no files")
	}

	for _, f := range manifest.Files {
		local, err := resolveBundlePath(dir, filepath.FromSlash(f.Path))
		if err != nil {
			return nil, fmt.Errorf("resolve path %s: %w", f.Path, err)
		}
		info, err := os.Stat(local)
		if err != nil {
			return nil, fmt.Errorf("stat %s: %w", f.Path, err)
		}
		if f.Size > 0 && info.Size() != f.Size {
			return nil, fmt.Errorf("size mismatch for %s: expected %d got %d", f.Path, f.Size, info.Size())
		}
		sum, err := fileSHA256(local)
		if err != nil {
			return nil, fmt.Errorf("hash %s: %w", f.Path, err)
		}
		if f.SHA256 != "" && !strings.EqualFold(sum, f.SHA256) {
			return nil, fmt.Errorf("sha256 mismatch for %s: expected %s got %s", f.Path, f.SHA256, sum)
		}
	}
	return &manifest, nil
}

func fileSHA256(path string) (string, error) {
	fh, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer fh.Close()

	h := sha256.New()
	if _, err := io.Copy(h, fh); err != nil {
		return "", err
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

// resolveBundlePath joins rel onto base and rejects absolute paths and
// anything that escapes base.
func resolveBundlePath(base, rel string) (string, error) {
	if filepath.IsAbs(rel) {
		return "", fmt.Errorf("absolute path %q not allowed", rel)
	}
	cleanBase := filepath.Clean(base)
	joined := filepath.Join(cleanBase, rel)
	r, err := filepath.Rel(cleanBase, joined)
	if err != nil {
		return "", err
	}
	if r == ".." || strings.HasPrefix(r, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("path %q escapes bundle dir", rel)
	}
	return joined, nil
}
