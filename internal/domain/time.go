package domain

import "time"

// NormalizeInstant parses s under the RFC3339 layout and reformats it in
// UTC, so stored instants compare lexicographically in chronological order.
func NormalizeInstant(s string) (string, bool) {
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return "", false
	}
	return FormatInstant(t), true
}

func FormatInstant(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}
