package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func validConfig() *Config {
	return defaultConfig()
}

func TestValidateDefaults(t *testing.T) {
	if err := Validate(validConfig()); err != nil {
		t.Fatalf("default config should validate: %v", err)
	}
}

func TestValidateFailures(t *testing.T) {
	neg := -0.1
	big := 1.5

	cases := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{
			name:   "missing server addr",
			mutate: func(c *Config) { c.Server.Addr = "" },
			want:   "server.addr",
		},
		{
			name:   "bad log level",
			mutate: func(c *Config) { c.Logging.Level = "verbose" },
			want:   "logging.level",
		},
		{
			name:   "bad log format",
			mutate: func(c *Config) { c.Logging.Format = "xml" },
			want:   "logging.format",
		},
		{
			name:   "telemetry without endpoint",
			mutate: func(c *Config) { c.Telemetry.Enabled = true },
			want:   "endpoint",
		},
		{
			name: "telemetry bad protocol",
			mutate: func(c *Config) {
				c.Telemetry.Enabled = true
				c.Telemetry.Endpoint = "localhost:4317"
				c.Telemetry.Protocol = "udp"
			},
			want: "telemetry.protocol",
		},
		{
			name:   "unknown model type",
			mutate: func(c *Config) { c.Models.RandomForest.Type = "xgboost" },
			want:   "models.random_forest.type",
		},
		{
			name:   "onnx without path",
			mutate: func(c *Config) { c.Models.DecisionTree.Path = "" },
			want:   "models.decision_tree.path",
		},
		{
			name: "static wrong size",
			mutate: func(c *Config) {
				c.Models.DecisionTree = ModelConfig{Type: "static", Probabilities: []float64{1}}
			},
			want: "probabilities",
		},
		{
			name:   "negative rf threshold",
			mutate: func(c *Config) { c.Arbiter.RFConfThresh = &neg },
			want:   "arbiter.rf_conf_thresh",
		},
		{
			name:   "dt threshold above one",
			mutate: func(c *Config) { c.Arbiter.DTConfThreshMinor = &big },
			want:   "arbiter.dt_conf_thresh_minor",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := validConfig()
			tc.mutate(cfg)
			err := Validate(cfg)
			if err == nil {
				t.Fatalf("expected error")
			}
			if !strings.Contains(err.Error(), tc.want) {
				t.Fatalf("expected error to contain %q, got %q", tc.want, err.Error())
			}
		})
	}
}

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Server.Addr != ":8080" {
		t.Fatalf("addr = %q", cfg.Server.Addr)
	}
	th := cfg.Thresholds()
	if th.RF != 0.8 || th.DTMinor != 0.4 {
		t.Fatalf("thresholds = %+v", th)
	}
	if cfg.Models.RandomForest.Path != "random_forest.onnx" {
		t.Fatalf("rf path = %q", cfg.Models.RandomForest.Path)
	}
}

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "winegrade.yaml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadFile(t *testing.T) {
	path := writeConfig(t, `
server:
  addr: ":9090"
logging:
  level: debug
  format: json
models:
  dir: /srv/models
  random_forest:
    type: static
    probabilities: [0.1, 0.8, 0.1]
arbiter:
  rf_conf_thresh: 0.75
  dt_conf_thresh_minor: 0
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if err := Validate(cfg); err != nil {
		t.Fatalf("Validate: %v", err)
	}
	th := cfg.Thresholds()
	if th.RF != 0.75 {
		t.Fatalf("rf thresh = %v", th.RF)
	}
	// An explicit zero is kept, not replaced by the default.
	if th.DTMinor != 0 {
		t.Fatalf("dt thresh = %v", th.DTMinor)
	}

	spec := cfg.BundleSpec()
	if spec.Dir != "/srv/models" {
		t.Fatalf("bundle dir = %q", spec.Dir)
	}
	if spec.RandomForest.Type != "static" || len(spec.RandomForest.Probabilities) != 3 {
		t.Fatalf("rf spec = %+v", spec.RandomForest)
	}
	if spec.DecisionTree.Type != "onnx" || spec.DecisionTree.Path != "decision_tree.onnx" {
		t.Fatalf("dt spec = %+v", spec.DecisionTree)
	}
}

func TestLoadRejectsSchemaViolations(t *testing.T) {
	cases := map[string]string{
		"unknown section":   "providers: {}\n",
		"bad threshold":     "arbiter:\n  rf_conf_thresh: 2\n",
		"bad format":        "logging:\n  format: xml\n",
		"probabilities len": "models:\n  decision_tree:\n    type: static\n    probabilities: [1]\n",
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			if _, err := Load(writeConfig(t, body)); err == nil {
				t.Fatalf("expected schema error")
			}
		})
	}
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("WINEGRADE_MODELS_DIR", "/opt/models")
	t.Setenv("WINEGRADE_ADDR", "127.0.0.1:7000")
	t.Setenv("WINEGRADE_CONFIG", "/etc/winegrade.yaml")

	cfg, err := Load(writeConfig(t, "server:\n  addr: \":9090\"\n"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Models.Dir != "/opt/models" {
		t.Fatalf("models dir = %q", cfg.Models.Dir)
	}
	if cfg.Server.Addr != "127.0.0.1:7000" {
		t.Fatalf("addr = %q", cfg.Server.Addr)
	}
	if DefaultPath() != "/etc/winegrade.yaml" {
		t.Fatalf("default path = %q", DefaultPath())
	}
}
