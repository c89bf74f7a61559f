package chunk

import "strings"

// DefaultSize is the number of whitespace-separated words per chunk.
const DefaultSize = 500

// Split breaks text into consecutive groups of size words joined by a single
// space. Groups that are empty after trimming are dropped, so the result never
// contains an empty string. A non-positive size falls back to DefaultSize.
func Split(text string, size int) []string {
	if size <= 0 {
		size = DefaultSize
	}
	words := strings.Fields(text)
	if len(words) == 0 {
		return nil
	}
	chunks := make([]string, 0, (len(words)+size-1)/size)
	for start := 0; start < len(words); start += size {
		end := start + size
		if end > len(words) {
			end = len(words)
		}
		group := strings.TrimSpace(strings.Join(words[start:end], " "))
		if group == "" {
			continue
		}
		chunks = append(chunks, group)
	}
	return chunks
}

// Count returns how many chunks Split would produce for text.
func Count(text string, size int) int {
	if size <= 0 {
		size = DefaultSize
	}
	n := len(strings.Fields(text))
	return (n + size - 1) / size
}
