package sanitize

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"unicode/utf8"
)

var (
	ErrTooLong           = errors.New("message exceeds maximum length")
	ErrControlCharacters = errors.New("message contains control characters")
	ErrEmptyAfterTrim    = errors.New("message is empty")
	ErrUnsupportedScheme = errors.New("url scheme must be http")
	ErrNonLocalHost      = errors.New("url host must be a loopback address")
)

// DefaultMaxMessage bounds inbound message length when no override is
// configured.
const DefaultMaxMessage = 2000

// maxLogLine caps a single transcript line so one turn can never blow up a
// log file. Replies are chunked at 4096 for transport, so this leaves room.
const maxLogLine = 8192

// ValidateMessage checks a raw inbound message and returns it with
// surrounding whitespace stripped. Oversized input, control bytes (other
// than newline, carriage return, tab) and whitespace-only input are
// rejected outright rather than repaired.
func ValidateMessage(raw string, maxLen int) (string, error) {
	if len(raw) > maxLen {
		return "", ErrTooLong
	}

	for _, r := range raw {
		if r == '\n' || r == '\r' || r == '\t' {
			continue
		}
		if r < 0x20 || r == 0x7f {
			return "", ErrControlCharacters
		}
	}

	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return "", ErrEmptyAfterTrim
	}

	return trimmed, nil
}

// ValidateURL enforces that the inference endpoint stays on this machine.
// Only plain http to 127.0.0.1, localhost or ::1 passes; everything else is
// an SSRF hazard and is rejected. The HTTP client must additionally refuse
// redirects so a local endpoint cannot bounce a request elsewhere.
func ValidateURL(raw string) error {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return fmt.Errorf("parse url: %w", err)
	}

	if u.Scheme != "http" {
		return fmt.Errorf("%w, got %q", ErrUnsupportedScheme, u.Scheme)
	}

	switch u.Hostname() {
	case "127.0.0.1", "localhost", "::1":
		return nil
	}

	return fmt.Errorf("%w, got %q", ErrNonLocalHost, u.Hostname())
}

// ForLog makes one message safe to store as a single transcript line:
// newlines become visible escapes, remaining control bytes are dropped and
// the line is capped. Prevents a crafted turn from forging extra log lines.
func ForLog(text string) string {
	var b strings.Builder
	b.Grow(len(text))

	for _, r := range text {
		switch r {
		case '\n':
			b.WriteString(`\n`)
		case '\r':
			b.WriteString(`\r`)
		case '\t':
			b.WriteRune('\t')
		default:
			if r < 0x20 || r == 0x7f {
				continue
			}
			b.WriteRune(r)
		}
	}

	line := b.String()
	if len(line) > maxLogLine {
		cut := maxLogLine
		for cut > 0 && !utf8.RuneStart(line[cut]) {
			cut--
		}
		line = line[:cut]
	}

	return line
}
