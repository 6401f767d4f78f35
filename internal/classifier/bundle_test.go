package classifier

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeBundle(t *testing.T, files map[string][]byte, tamper bool) string {
	t.Helper()

	dir := t.TempDir()
	var entries []ManifestFile
	for name, data := range files {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), data, 0o644))
		sum := sha256.Sum256(data)
		entries = append(entries, ManifestFile{Path: name, SHA256: hex.EncodeToString(sum[:]), Size: int64(len(data))})
	}
	if tamper {
		entries[0].SHA256 = hex.EncodeToString(make([]byte, 32))
	}
	raw, err := json.Marshal(Manifest{Model: "wine_quality", Version: "v1", Files: entries})
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "manifest.json"), raw, 0o644))
	return dir
}

func staticSpec(dir string) BundleSpec {
	return BundleSpec{
		Dir:          dir,
		RandomForest: ModelSpec{Type: "static", Probabilities: []float64{0.1, 0.8, 0.1}},
		DecisionTree: ModelSpec{Type: "static", Probabilities: []float64{0.6, 0.2, 0.2}},
	}
}

func TestVerifyManifest(t *testing.T) {
	dir := writeBundle(t, map[string][]byte{"random_forest.onnx": []byte("rf-bytes")}, false)

	m, err := VerifyManifest(dir)
	require.NoError(t, err)
	assert.Equal(t, "v1", m.Version)
	require.Len(t, m.Files, 1)
}

func TestVerifyManifestRejectsMismatch(t *testing.T) {
	dir := writeBundle(t, map[string][]byte{"random_forest.onnx": []byte("rf-bytes")}, true)

	_, err := VerifyManifest(dir)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "sha256 mismatch")
}

func TestVerifyManifestMissing(t *testing.T) {
	_, err := VerifyManifest(t.TempDir())
	require.ErrorIs(t, err, ErrManifestNotFound)
}

func TestResolveBundlePathBlocksTraversal(t *testing.T) {
	_, err := resolveBundlePath("/tmp/bundle", "../evil")
	require.Error(t, err)
	_, err = resolveBundlePath("/tmp/bundle", "/abs/path")
	require.Error(t, err)

	got, err := resolveBundlePath("/tmp/bundle", "models/rf.onnx")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join("/tmp/bundle", "models", "rf.onnx"), got)
}

func TestLoadBundleStatic(t *testing.T) {
	b, err := LoadBundle(staticSpec(""))
	require.NoError(t, err)
	require.NotNil(t, b.RandomForest)
	require.NotNil(t, b.DecisionTree)
	assert.Nil(t, b.Manifest)

	out, err := Evaluate(context.Background(), b.DecisionTree, row)
	require.NoError(t, err)
	assert.Equal(t, Low, out.Class)
	require.NoError(t, b.Close())
}

func TestLoadBundleRequireManifest(t *testing.T) {
	spec := staticSpec(t.TempDir())
	spec.RequireManifest = true

	b, err := LoadBundle(spec)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrModelUnavailable)
	assert.ErrorIs(t, err, ErrManifestNotFound)

	_, err = Evaluate(context.Background(), b.RandomForest, row)
	assert.ErrorIs(t, err, ErrModelUnavailable)
}

func TestLoadBundleDegradesPerModel(t *testing.T) {
	spec := staticSpec(t.TempDir())
	spec.DecisionTree = ModelSpec{Type: "onnx", Path: "missing.onnx"}

	b, err := LoadBundle(spec)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrModelUnavailable)
	assert.Contains(t, err.Error(), DecisionTreeModel)

	_, err = Evaluate(context.Background(), b.RandomForest, row)
	require.NoError(t, err)
	_, err = Evaluate(context.Background(), b.DecisionTree, row)
	require.ErrorIs(t, err, ErrModelUnavailable)
}

func TestLoadBundleRejectsBadSpecs(t *testing.T) {
	cases := []struct {
		name string
		spec ModelSpec
	}{
		{name: "unknown type", spec: ModelSpec{Type: "xgboost"}},
		{name: "static wrong size", spec: ModelSpec{Type: "static", Probabilities: []float64{1}}},
		{name: "onnx empty path", spec: ModelSpec{Type: "onnx"}},
		{name: "onnx traversal", spec: ModelSpec{Type: "onnx", Path: "../rf.onnx"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			spec := staticSpec(t.TempDir())
			spec.RandomForest = tc.spec

			b, err := LoadBundle(spec)
			require.ErrorIs(t, err, ErrModelUnavailable)
			assert.Equal(t, RandomForestModel, b.RandomForest.Name())
		})
	}
}
