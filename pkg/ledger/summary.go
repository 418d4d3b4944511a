package ledger

import "strings"

const maxSummaryValue = 128

var sensitiveKeys = []string{"email", "name", "phone", "address", "card", "token", "secret", "password"}

// Summarize keeps a minimal, redacted copy of fields. Empty values are
// dropped, values under sensitive keys are masked and long values are cut.
func Summarize(fields map[string]string) map[string]string {
	if len(fields) == 0 {
		return nil
	}
	out := make(map[string]string, len(fields))
	for k, v := range fields {
		if v == "" {
			continue
		}
		switch {
		case isSensitive(k):
			out[k] = "[redacted]"
		case len(v) > maxSummaryValue:
			out[k] = v[:maxSummaryValue]
		default:
			out[k] = v
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

func isSensitive(key string) bool {
	key = strings.ToLower(key)
	for _, s := range sensitiveKeys {
		if strings.Contains(key, s) {
			return true
		}
	}
	return false
}
