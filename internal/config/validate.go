package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/straja-ai/winegrade/internal/classifier"
)

// Validate checks the loaded config for required fields and safe values.
func Validate(cfg *Config) error {
	if cfg == nil {
		return errors.New("config is nil")
	}

	if strings.TrimSpace(cfg.Server.Addr) == "" {
		return errors.New("server.addr must be set")
	}
	if cfg.Server.MaxBodyBytes < 0 {
		return errors.New("server.max_body_bytes must not be negative")
	}

	switch strings.ToLower(cfg.Logging.Level) {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level must be debug, info, warn or error, got %q", cfg.Logging.Level)
	}
	switch strings.ToLower(cfg.Logging.Format) {
	case "json", "console":
	default:
		return fmt.Errorf("logging.format must be json or console, got %q", cfg.Logging.Format)
	}

	if err := validateTelemetryConfig(cfg.Telemetry); err != nil {
		return err
	}

	if err := validateModelConfig("models.random_forest", cfg.Models.RandomForest); err != nil {
		return err
	}
	if err := validateModelConfig("models.decision_tree", cfg.Models.DecisionTree); err != nil {
		return err
	}

	if err := validateThreshold("arbiter.rf_conf_thresh", cfg.Arbiter.RFConfThresh); err != nil {
		return err
	}
	if err := validateThreshold("arbiter.dt_conf_thresh_minor", cfg.Arbiter.DTConfThreshMinor); err != nil {
		return err
	}

	return nil
}

func validateTelemetryConfig(t TelemetryConfig) error {
	if !t.Enabled {
		return nil
	}
	if strings.TrimSpace(t.Endpoint) == "" {
		return errors.New("telemetry enabled but endpoint is empty")
	}
	if t.Protocol != "" {
		switch strings.ToLower(strings.TrimSpace(t.Protocol)) {
		case "grpc", "http":
		default:
			return fmt.Errorf("telemetry.protocol must be grpc or http, got %q", t.Protocol)
		}
	}
	return nil
}

func validateModelConfig(field string, m ModelConfig) error {
	switch strings.ToLower(strings.TrimSpace(m.Type)) {
	case "onnx":
		if strings.TrimSpace(m.Path) == "" {
			return fmt.Errorf("%s.path must be set for onnx models", field)
		}
	case "static":
		if len(m.Probabilities) != classifier.NumClasses {
			return fmt.Errorf("%s.probabilities must have %d entries, got %d", field, classifier.NumClasses, len(m.Probabilities))
		}
		for _, p := range m.Probabilities {
			if p < 0 || p > 1 {
				return fmt.Errorf("%s.probabilities must be in [0,1], got %v", field, p)
			}
		}
	default:
		return fmt.Errorf("%s.type must be onnx or static, got %q", field, m.Type)
	}
	return nil
}

func validateThreshold(field string, v *float64) error {
	if v == nil {
		return fmt.Errorf("%s must be set", field)
	}
	if !(*v >= 0 && *v <= 1) {
		return fmt.Errorf("%s must be in [0,1], got %v", field, *v)
	}
	return nil
}
