package telemetry

import (
	"fmt"
	"sort"
	"strings"

	"go.opentelemetry.io/otel/attribute"
)

// denyKeys are unbounded-cardinality values that must never become metric
// labels: raw measurements and per-request identifiers.
var denyKeys = []string{
	"analysis_id",
	"request_id",
	"value",
	"input",
	"formatted",
}

func errUnknownProtocol(p string) error {
	return fmt.Errorf("telemetry: unknown protocol %q (want grpc or http)", p)
}

// SafeAttributes filters out unsafe keys/values and returns OTEL attributes
// sorted by key.
func SafeAttributes(values map[string]interface{}) []attribute.KeyValue {
	if len(values) == 0 {
		return nil
	}
	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var attrs []attribute.KeyValue
	for _, k := range keys {
		lk := strings.ToLower(k)
		skip := false
		for _, bad := range denyKeys {
			if strings.Contains(lk, bad) {
				skip = true
				break
			}
		}
		if skip {
			continue
		}
		switch val := values[k].(type) {
		case string:
			if len(val) > 128 {
				continue
			}
			attrs = append(attrs, attribute.String(k, val))
		case bool:
			attrs = append(attrs, attribute.Bool(k, val))
		case int:
			attrs = append(attrs, attribute.Int(k, val))
		case int64:
			attrs = append(attrs, attribute.Int64(k, val))
		default:
			// floats and composites are too high-cardinality for labels
		}
	}
	return attrs
}
