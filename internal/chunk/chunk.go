// Package chunk implements the canonical reply-chunking rule every channel
// adapter uses to respect a platform message-length limit: split on
// double-newline (paragraph), then single-newline (line), then a hard cut,
// in that order of preference (§5 channel adapter contract).
package chunk

import "strings"

// Split breaks text into chunks no longer than limit runes. A text of
// length exactly limit produces one chunk; limit+1 produces two.
func Split(text string, limit int) []string {
	runes := []rune(text)
	if limit <= 0 || len(runes) <= limit {
		if text == "" {
			return nil
		}
		return []string{text}
	}

	var chunks []string
	remaining := text
	for {
		r := []rune(remaining)
		if len(r) <= limit {
			if remaining != "" {
				chunks = append(chunks, remaining)
			}
			break
		}
		window := string(r[:limit])
		cut := bestCut(window)
		chunks = append(chunks, strings.TrimRight(window[:cut], "\n"))
		remaining = remaining[cut:]
	}
	return chunks
}

// bestCut finds the preferred split point within window: the last
// double-newline, else the last single-newline, else the full window
// length (hard cut).
func bestCut(window string) int {
	if i := strings.LastIndex(window, "\n\n"); i > 0 {
		return i + 2
	}
	if i := strings.LastIndex(window, "\n"); i > 0 {
		return i + 1
	}
	return len(window)
}
