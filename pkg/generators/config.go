package generators

import (
	"fmt"
	"strconv"
)

// Generator configurations arrive as loosely typed maps decoded from YAML.
// The helpers below coerce the shapes the YAML decoders produce.

func configFloat(cfg map[string]interface{}, key string) (float64, bool, error) {
	raw, ok := cfg[key]
	if !ok || raw == nil {
		return 0, false, nil
	}
	value, ok := toFloat(raw)
	if !ok {
		return 0, false, fmt.Errorf("config key %q must be a number, got %T", key, raw)
	}
	return value, true, nil
}

func configInt(cfg map[string]interface{}, key string) (int, bool, error) {
	raw, ok := cfg[key]
	if !ok || raw == nil {
		return 0, false, nil
	}
	switch v := raw.(type) {
	case int:
		return v, true, nil
	case int64:
		return int(v), true, nil
	case float64:
		if v != float64(int(v)) {
			return 0, false, fmt.Errorf("config key %q must be an integer, got %v", key, v)
		}
		return int(v), true, nil
	}
	return 0, false, fmt.Errorf("config key %q must be an integer, got %T", key, raw)
}

func configString(cfg map[string]interface{}, key string) (string, bool) {
	raw, ok := cfg[key]
	if !ok {
		return "", false
	}
	s, ok := raw.(string)
	return s, ok
}

// configSchedule reads a key holding either a period -> amount map or a line
// item name to look the amounts up in the value matrix.
func configSchedule(cfg map[string]interface{}, key string) (schedule map[int]float64, source string, err error) {
	raw, ok := cfg[key]
	if !ok || raw == nil {
		return nil, "", nil
	}
	if name, ok := raw.(string); ok {
		return nil, name, nil
	}
	schedule, err = toPeriodMap(raw)
	if err != nil {
		return nil, "", fmt.Errorf("config key %q: %w", key, err)
	}
	return schedule, "", nil
}

func toPeriodMap(raw interface{}) (map[int]float64, error) {
	out := make(map[int]float64)
	switch m := raw.(type) {
	case map[int]float64:
		for k, v := range m {
			out[k] = v
		}
	case map[string]interface{}:
		for k, v := range m {
			period, err := strconv.Atoi(k)
			if err != nil {
				return nil, fmt.Errorf("period key %q is not an integer", k)
			}
			value, ok := toFloat(v)
			if !ok {
				return nil, fmt.Errorf("value for period %s is not a number", k)
			}
			out[period] = value
		}
	case map[interface{}]interface{}:
		for k, v := range m {
			period, ok := toInt(k)
			if !ok {
				return nil, fmt.Errorf("period key %v is not an integer", k)
			}
			value, ok := toFloat(v)
			if !ok {
				return nil, fmt.Errorf("value for period %v is not a number", k)
			}
			out[period] = value
		}
	default:
		return nil, fmt.Errorf("expected a period -> amount map, got %T", raw)
	}
	return out, nil
}

func toFloat(raw interface{}) (float64, bool) {
	switch v := raw.(type) {
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	}
	return 0, false
}

func toInt(raw interface{}) (int, bool) {
	switch v := raw.(type) {
	case int:
		return v, true
	case int64:
		return int(v), true
	case string:
		n, err := strconv.Atoi(v)
		if err != nil {
			return 0, false
		}
		return n, true
	}
	return 0, false
}
