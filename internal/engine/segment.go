package engine

import "strings"

// Split breaks a reply into message-sized segments on sentence-ending
// punctuation. A period directly followed by a digit is not a terminator,
// which keeps decimals and dotted dates in one piece. Trailing runs of
// terminators stay attached to their segment.
func Split(text string) []string {
	runes := []rune(text)
	var segments []string
	var cur []rune

	flush := func() {
		s := strings.TrimSpace(string(cur))
		if s != "" {
			segments = append(segments, s)
		}
		cur = cur[:0]
	}

	for i := 0; i < len(runes); i++ {
		cur = append(cur, runes[i])
		if !terminates(runes, i) {
			continue
		}
		for i+1 < len(runes) && terminates(runes, i+1) {
			i++
			cur = append(cur, runes[i])
		}
		flush()
	}
	flush()

	if len(segments) == 0 {
		if s := strings.TrimSpace(text); s != "" {
			return []string{s}
		}
	}
	return segments
}

func terminates(runes []rune, i int) bool {
	switch runes[i] {
	case '。', '！', '？', '…', '!', '?', '\n', '~', '～':
		return true
	case '.':
		return i+1 >= len(runes) || runes[i+1] < '0' || runes[i+1] > '9'
	default:
		return false
	}
}
