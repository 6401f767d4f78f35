package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/straja-ai/winegrade/internal/arbiter"
	"github.com/straja-ai/winegrade/internal/classifier"
)

// Config holds winegrade configuration.
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Logging   LoggingConfig   `yaml:"logging"`
	Telemetry TelemetryConfig `yaml:"telemetry"`
	Models    ModelsConfig    `yaml:"models"`
	Arbiter   ArbiterConfig   `yaml:"arbiter"`
}

type ServerConfig struct {
	Addr                string `yaml:"addr"` // HTTP listen address, e.g. ":8080"
	ReadTimeoutSeconds  int    `yaml:"read_timeout_seconds"`
	WriteTimeoutSeconds int    `yaml:"write_timeout_seconds"`
	MaxBodyBytes        int64  `yaml:"max_body_bytes"`
}

type LoggingConfig struct {
	Level  string `yaml:"level"`  // debug | info | warn | error
	Format string `yaml:"format"` // json | console
}

type TelemetryConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Endpoint string `yaml:"endpoint"`
	Protocol string `yaml:"protocol"` // grpc | http
	Service  string `yaml:"service"`
	Version  string `yaml:"version"`
}

type ModelsConfig struct {
	Dir             string      `yaml:"dir"`
	Require         bool        `yaml:"require"`
	RequireManifest bool        `yaml:"require_manifest"`
	RandomForest    ModelConfig `yaml:"random_forest"`
	DecisionTree    ModelConfig `yaml:"decision_tree"`
}

type ModelConfig struct {
	Type              string    `yaml:"type"` // onnx | static
	Path              string    `yaml:"path"`
	InputName         string    `yaml:"input_name"`
	LabelOutput       string    `yaml:"label_output"`
	ProbabilityOutput string    `yaml:"probability_output"`
	Probabilities     []float64 `yaml:"probabilities"`
}

type ArbiterConfig struct {
	RFConfThresh      *float64 `yaml:"rf_conf_thresh"`
	DTConfThreshMinor *float64 `yaml:"dt_conf_thresh_minor"`
}

// Load reads configuration from a YAML file.
// If the file doesn't exist, it returns a default config and no error.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			cfg := defaultConfig()
			applyEnv(cfg)
			return cfg, nil
		}
		return nil, err
	}

	if errs := ValidateSchema(data); len(errs) > 0 {
		return nil, fmt.Errorf("config %s: %s", path, strings.Join(errs, "; "))
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}

	applyDefaults(&cfg)
	applyEnv(&cfg)

	return &cfg, nil
}

func defaultConfig() *Config {
	cfg := &Config{}
	applyDefaults(cfg)
	return cfg
}

func applyDefaults(cfg *Config) {
	if cfg.Server.Addr == "" {
		cfg.Server.Addr = ":8080"
	}
	if cfg.Server.ReadTimeoutSeconds == 0 {
		cfg.Server.ReadTimeoutSeconds = 10
	}
	if cfg.Server.WriteTimeoutSeconds == 0 {
		cfg.Server.WriteTimeoutSeconds = 30
	}
	if cfg.Server.MaxBodyBytes == 0 {
		cfg.Server.MaxBodyBytes = 64 << 10
	}

	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "console"
	}

	if cfg.Telemetry.Protocol == "" {
		cfg.Telemetry.Protocol = "grpc"
	}
	if cfg.Telemetry.Service == "" {
		cfg.Telemetry.Service = "winegrade"
	}

	if cfg.Models.Dir == "" {
		cfg.Models.Dir = "./models"
	}
	applyModelDefaults(&cfg.Models.RandomForest, "random_forest.onnx")
	applyModelDefaults(&cfg.Models.DecisionTree, "decision_tree.onnx")

	if cfg.Arbiter.RFConfThresh == nil {
		v := 0.8
		cfg.Arbiter.RFConfThresh = &v
	}
	if cfg.Arbiter.DTConfThreshMinor == nil {
		v := 0.4
		cfg.Arbiter.DTConfThreshMinor = &v
	}
}

func applyModelDefaults(m *ModelConfig, file string) {
	if m.Type == "" {
		m.Type = "onnx"
	}
	if m.Type == "onnx" && m.Path == "" {
		m.Path = file
	}
}

// applyEnv lets deployments override the file without editing it.
func applyEnv(cfg *Config) {
	if v := strings.TrimSpace(os.Getenv("WINEGRADE_MODELS_DIR")); v != "" {
		cfg.Models.Dir = v
	}
	if v := strings.TrimSpace(os.Getenv("WINEGRADE_ADDR")); v != "" {
		cfg.Server.Addr = v
	}
}

// DefaultPath returns WINEGRADE_CONFIG or "winegrade.yaml".
func DefaultPath() string {
	if v := strings.TrimSpace(os.Getenv("WINEGRADE_CONFIG")); v != "" {
		return v
	}
	return "winegrade.yaml"
}

// BundleSpec converts the models section for classifier.LoadBundle.
func (c *Config) BundleSpec() classifier.BundleSpec {
	conv := func(m ModelConfig) classifier.ModelSpec {
		return classifier.ModelSpec{
			Type:              m.Type,
			Path:              m.Path,
			InputName:         m.InputName,
			LabelOutput:       m.LabelOutput,
			ProbabilityOutput: m.ProbabilityOutput,
			Probabilities:     m.Probabilities,
		}
	}
	return classifier.BundleSpec{
		Dir:             filepath.Clean(c.Models.Dir),
		RequireManifest: c.Models.RequireManifest,
		RandomForest:    conv(c.Models.RandomForest),
		DecisionTree:    conv(c.Models.DecisionTree),
	}
}

// Thresholds returns the arbiter section with defaults applied.
func (c *Config) Thresholds() arbiter.Thresholds {
	th := arbiter.DefaultThresholds
	if c.Arbiter.RFConfThresh != nil {
		th.RF = *c.Arbiter.RFConfThresh
	}
	if c.Arbiter.DTConfThreshMinor != nil {
		th.DTMinor = *c.Arbiter.DTConfThreshMinor
	}
	return th
}
