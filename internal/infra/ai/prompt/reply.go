package prompt

import "strings"

// CleanReply strips the code fences and markdown emphasis models add despite
// being told not to, and trims surrounding whitespace.
func CleanReply(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "```text")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	s = strings.ReplaceAll(s, "**", "")
	return strings.TrimSpace(s)
}
