package helpers

// Truncate returns the first n runes of s, followed by "..." when s was longer
func Truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n]) + "..."
}
