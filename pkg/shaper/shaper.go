// Package shaper turns caption strings into glyph order suitable for
// left-to-right text drawing.
package shaper

import "unicode"

// Shaper converts mixed Latin/Arabic text to visual order.
// The script cache makes it unsafe for concurrent use.
type Shaper struct {
	latin map[rune]bool
}

func New() *Shaper {
	return &Shaper{latin: make(map[rune]bool)}
}

func (s *Shaper) isLatin(r rune) bool {
	if v, ok := s.latin[r]; ok {
		return v
	}
	v := unicode.Is(unicode.Latin, r)
	s.latin[r] = v
	return v
}

// OnlyLatin reports whether every letter in text is Latin. Digits, punctuation
// and spaces are ignored, so a string without letters is Latin-only.
func (s *Shaper) OnlyLatin(text string) bool {
	for _, r := range text {
		if unicode.IsLetter(r) && !s.isLatin(r) {
			return false
		}
	}
	return true
}

// Shape returns text unchanged when it is Latin-only, otherwise joins Arabic
// letters into their contextual forms and reorders the result for display.
// Shape is not idempotent: shaping already shaped text reverses it again.
func (s *Shaper) Shape(text string) string {
	if s.OnlyLatin(text) {
		return text
	}
	return Reorder(Reshape(text))
}
