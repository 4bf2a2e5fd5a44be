package bot

import (
	"strings"
	"unicode/utf8"
)

// breakChars are preferred split points, tried from the cap backwards.
const breakChars = "\n .,!?;:"

// breakSearchSpan bounds how far back chunkMessage looks for a clean split
// before giving up and cutting mid-word.
const breakSearchSpan = 200

// chunkMessage splits a reply into transport-sized pieces, preferring to
// break after a newline, space or punctuation near the cap so splits land
// between words. Splits never land inside a multi-byte character.
func chunkMessage(message string, maxLen int) []string {
	if len(message) <= maxLen {
		return []string{message}
	}

	var chunks []string
	remaining := message

	for len(remaining) > maxLen {
		breakPoint := maxLen
		floor := maxLen - breakSearchSpan
		if floor < 0 {
			floor = 0
		}
		for i := maxLen - 1; i >= floor; i-- {
			if strings.IndexByte(breakChars, remaining[i]) >= 0 {
				breakPoint = i + 1
				break
			}
		}

		for breakPoint > 0 && !utf8.RuneStart(remaining[breakPoint]) {
			breakPoint--
		}
		if breakPoint == 0 {
			breakPoint = maxLen
		}

		chunks = append(chunks, remaining[:breakPoint])
		remaining = remaining[breakPoint:]
	}

	return append(chunks, remaining)
}

// commandWord extracts the bare command name from a slash-prefixed message,
// dropping arguments. Used by transports without native command parsing.
func commandWord(text string) string {
	fields := strings.Fields(text)
	if len(fields) == 0 {
		return ""
	}

	return strings.TrimPrefix(fields[0], "/")
}
