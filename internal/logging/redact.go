package logging

import (
	"fmt"
	"strings"

	"go.uber.org/zap"
)

// maxArgLength is the longest string argument kept verbatim.
const maxArgLength = 1000

// sensitiveKeys are matched case-insensitively against argument names.
var sensitiveKeys = []string{"password", "token", "secret", "key"}

// SanitizeArgs returns a copy of tool arguments that is safe to log or
// persist: sensitive keys are replaced by "<redacted>" and long strings by
// "<truncated:Nchars>". Nested maps are sanitized recursively.
func SanitizeArgs(args map[string]any) map[string]any {
	if args == nil {
		return nil
	}
	out := make(map[string]any, len(args))
	for k, v := range args {
		if isSensitive(k) {
			out[k] = "<redacted>"
			continue
		}
		out[k] = sanitizeValue(v)
	}
	return out
}

func sanitizeValue(v any) any {
	switch val := v.(type) {
	case string:
		if len(val) > maxArgLength {
			return fmt.Sprintf("<truncated:%dchars>", len(val))
		}
		return val
	case map[string]any:
		return SanitizeArgs(val)
	case []any:
		items := make([]any, len(val))
		for i, item := range val {
			items[i] = sanitizeValue(item)
		}
		return items
	default:
		return v
	}
}

// isSensitive matches "token" and "api_token" but not "tokens" or "keywords".
func isSensitive(key string) bool {
	lower := strings.ToLower(key)
	for _, s := range sensitiveKeys {
		if lower == s || strings.HasSuffix(lower, "_"+s) || strings.HasSuffix(lower, "-"+s) {
			return true
		}
	}
	return false
}

// Args is a zap field carrying sanitized tool arguments.
func Args(args map[string]any) zap.Field {
	return zap.Any("args", SanitizeArgs(args))
}
