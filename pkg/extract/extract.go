// Package extract pulls fenced code blocks out of free-form LLM replies.
package extract

import "regexp"

// pythonFence matches the first fenced block tagged as Python. (?s) lets
// the non-greedy body span multiple lines without over-capturing when the
// reply contains several blocks.
var pythonFence = regexp.MustCompile("(?s)```python\n(.*?)\n```")

// PythonBlock returns the interior of the first ```python fenced block in
// reply, byte-for-byte and without the fence lines. Blocks with a different
// language tag (or no tag) are ignored. Returns "" when no such block
// exists; callers treat that as "no executable code produced", not as an
// error.
func PythonBlock(reply string) string {
	m := pythonFence.FindStringSubmatch(reply)
	if m == nil {
		return ""
	}
	return m[1]
}
