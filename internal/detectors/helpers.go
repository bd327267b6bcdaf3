package detectors

import (
	"slices"
	"strings"
	"unicode/utf8"

	"github.com/redactyl/promptscan/internal/types"
)

// contextRadius is how far either side of a match required tokens are searched.
const contextRadius = 50

func hasContext(text string, start, end int, tokens []string) bool {
	lo, hi := clip(text, start-contextRadius, end+contextRadius)
	window := strings.ToLower(text[lo:hi])
	for _, tok := range tokens {
		if strings.Contains(window, strings.ToLower(tok)) {
			return true
		}
	}
	return false
}

// clip bounds [lo,hi) to the text and widens it outward to rune boundaries.
func clip(text string, lo, hi int) (int, int) {
	lo = min(max(lo, 0), len(text))
	hi = min(max(hi, lo), len(text))
	for lo > 0 && !utf8.RuneStart(text[lo]) {
		lo--
	}
	for hi < len(text) && !utf8.RuneStart(text[hi]) {
		hi++
	}
	return lo, hi
}

// Snippet returns the text around span, width bytes either side, clipped to
// the text bounds and to rune boundaries.
func Snippet(text string, span types.Span, width int) string {
	if width < 0 {
		width = 0
	}
	lo, hi := clip(text, span.Start-width, span.End+width)
	return text[lo:hi]
}

// RedactedSnippet is Snippet with the matched bytes replaced by their Mask.
// Any of masked that reaches into the window is masked too, in full; masked
// spans must not overlap each other.
func RedactedSnippet(text string, span types.Span, width int, masked ...types.Span) string {
	if width < 0 {
		width = 0
	}
	lo, _ := clip(text, span.Start-width, span.Start)
	_, hi := clip(text, span.End, span.End+width)

	hide := []types.Span{span}
	for _, m := range masked {
		if m == span || m.Start < 0 || m.End > len(text) || m.Start >= m.End {
			continue
		}
		if m.Overlaps(types.Span{Start: lo, End: hi}) {
			hide = append(hide, m)
			lo, hi = min(lo, m.Start), max(hi, m.End)
		}
	}
	slices.SortFunc(hide, func(a, b types.Span) int { return a.Start - b.Start })

	var b strings.Builder
	cur := lo
	for _, m := range hide {
		if m.Start < cur {
			continue
		}
		b.WriteString(text[cur:m.Start])
		b.WriteString(Mask(text[m.Start:m.End]))
		cur = m.End
	}
	b.WriteString(text[cur:hi])
	return b.String()
}

// Mask hides all but the edges of a matched value.
func Mask(s string) string {
	r := []rune(s)
	if len(r) <= 8 {
		return "********"
	}
	return string(r[:4]) + "…" + string(r[len(r)-4:])
}
