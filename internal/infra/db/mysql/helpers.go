package mysql

import "strings"

// stringOrUnknown returns "unknown" when the input is empty/whitespace
func stringOrUnknown(s string) string {
	if strings.TrimSpace(s) == "" {
		return "unknown"
	}
	return s
}
