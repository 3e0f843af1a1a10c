package tools

import (
	"encoding/json"
	"fmt"
)

// stringParam extracts a required string parameter
func stringParam(params map[string]interface{}, key string) (string, error) {
	v, ok := params[key]
	if !ok {
		return "", fmt.Errorf("missing required parameter %q", key)
	}
	s, ok := v.(string)
	if !ok || s == "" {
		return "", fmt.Errorf("parameter %q must be a non-empty string", key)
	}
	return s, nil
}

// optionalStringParam extracts an optional string parameter, returning the
// fallback when absent
func optionalStringParam(params map[string]interface{}, key, fallback string) string {
	if v, ok := params[key]; ok {
		if s, ok := v.(string); ok && s != "" {
			return s
		}
	}
	return fallback
}

// intParam extracts a required integer parameter. JSON numbers arrive as
// float64, so both representations are accepted.
func intParam(params map[string]interface{}, key string) (int, error) {
	v, ok := params[key]
	if !ok {
		return 0, fmt.Errorf("missing required parameter %q", key)
	}
	switch n := v.(type) {
	case float64:
		return int(n), nil
	case int:
		return n, nil
	case string:
		var parsed int
		if _, err := fmt.Sscanf(n, "%d", &parsed); err == nil {
			return parsed, nil
		}
	}
	return 0, fmt.Errorf("parameter %q must be a number", key)
}

// decodeParam re-marshals a parameter value into a typed destination, for
// structured parameters like event lists
func decodeParam(params map[string]interface{}, key string, dst interface{}) error {
	v, ok := params[key]
	if !ok {
		return fmt.Errorf("missing required parameter %q", key)
	}
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("parameter %q is not encodable: %w", key, err)
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return fmt.Errorf("parameter %q has the wrong shape: %w", key, err)
	}
	return nil
}
