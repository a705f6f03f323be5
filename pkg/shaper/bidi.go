package shaper

import (
	"golang.org/x/text/unicode/bidi"
)

var mirrors = map[rune]rune{
	'(': ')', ')': '(',
	'[': ']', ']': '[',
	'{': '}', '}': '{',
	'<': '>', '>': '<',
	'«': '»', '»': '«',
}

func isStrong(c bidi.Class) bool {
	return c == bidi.L || c == bidi.R || c == bidi.AL
}

func isNumber(c bidi.Class) bool {
	return c == bidi.EN || c == bidi.AN
}

// Reorder converts a single line from logical to visual order. It covers the
// parts of the Unicode bidirectional algorithm that captions exercise: paragraph
// level from the first strong character, weak and neutral type resolution,
// implicit levels, run reversal and bracket mirroring. Explicit embeddings and
// isolates are treated as neutrals.
func Reorder(text string) string {
	runes := []rune(text)
	if len(runes) == 0 {
		return text
	}

	types := make([]bidi.Class, len(runes))
	for i, r := range runes {
		p, _ := bidi.LookupRune(r)
		types[i] = p.Class()
	}

	paraLevel := 0
	for _, c := range types {
		if c == bidi.L {
			break
		}
		if c == bidi.R || c == bidi.AL {
			paraLevel = 1
			break
		}
	}
	sor := bidi.L
	if paraLevel == 1 {
		sor = bidi.R
	}

	resolveWeak(types, sor)
	resolveNeutral(types, sor)

	levels := make([]int, len(types))
	maxLevel := paraLevel
	for i, c := range types {
		lvl := paraLevel
		if paraLevel%2 == 0 {
			switch c {
			case bidi.R:
				lvl++
			case bidi.EN, bidi.AN:
				lvl += 2
			}
		} else if c == bidi.L || isNumber(c) {
			lvl++
		}
		levels[i] = lvl
		if lvl > maxLevel {
			maxLevel = lvl
		}
	}

	for lvl := maxLevel; lvl >= 1; lvl-- {
		for i := 0; i < len(runes); {
			if levels[i] < lvl {
				i++
				continue
			}
			j := i
			for j < len(runes) && levels[j] >= lvl {
				j++
			}
			reverse(runes[i:j])
			reverse(levels[i:j])
			i = j
		}
	}

	for i, r := range runes {
		if levels[i]%2 == 1 {
			if m, ok := mirrors[r]; ok {
				runes[i] = m
			}
		}
	}
	return string(runes)
}

func resolveWeak(types []bidi.Class, sor bidi.Class) {
	// W1: marks take the type of what they attach to
	prev := sor
	for i, c := range types {
		if c == bidi.NSM {
			types[i] = prev
		}
		prev = types[i]
	}

	// W2, W3: European numbers after Arabic letters are Arabic numbers
	lastStrong := sor
	for i, c := range types {
		switch {
		case isStrong(c):
			lastStrong = c
		case c == bidi.EN && lastStrong == bidi.AL:
			types[i] = bidi.AN
		}
		if c == bidi.AL {
			types[i] = bidi.R
		}
	}

	// W4: one separator between two numbers of the same kind joins them
	for i := 1; i+1 < len(types); i++ {
		a, b := types[i-1], types[i+1]
		switch types[i] {
		case bidi.ES:
			if a == bidi.EN && b == bidi.EN {
				types[i] = bidi.EN
			}
		case bidi.CS:
			if isNumber(a) && a == b {
				types[i] = a
			}
		}
	}

	// W5: terminators next to European numbers become part of them
	for i := 0; i < len(types); {
		if types[i] != bidi.ET {
			i++
			continue
		}
		j := i
		for j < len(types) && types[j] == bidi.ET {
			j++
		}
		if (i > 0 && types[i-1] == bidi.EN) || (j < len(types) && types[j] == bidi.EN) {
			for k := i; k < j; k++ {
				types[k] = bidi.EN
			}
		}
		i = j
	}

	// W6, W7
	lastStrong = sor
	for i, c := range types {
		switch c {
		case bidi.ES, bidi.ET, bidi.CS:
			types[i] = bidi.ON
		case bidi.L, bidi.R:
			lastStrong = c
		case bidi.EN:
			if lastStrong == bidi.L {
				types[i] = bidi.L
			}
		}
	}
}

// resolveNeutral applies N1 and N2: a run of neutrals takes the direction of
// its surroundings when both sides agree, otherwise the embedding direction.
func resolveNeutral(types []bidi.Class, sor bidi.Class) {
	direction := func(c bidi.Class) (bidi.Class, bool) {
		switch {
		case c == bidi.L:
			return bidi.L, true
		case c == bidi.R || isNumber(c):
			return bidi.R, true
		}
		return 0, false
	}

	for i := 0; i < len(types); {
		if _, ok := direction(types[i]); ok {
			i++
			continue
		}
		j := i
		for j < len(types) {
			if _, ok := direction(types[j]); ok {
				break
			}
			j++
		}

		before, after := sor, sor
		if i > 0 {
			before, _ = direction(types[i-1])
		}
		if j < len(types) {
			after, _ = direction(types[j])
		}
		resolved := sor
		if before == after {
			resolved = before
		}
		for k := i; k < j; k++ {
			types[k] = resolved
		}
		i = j
	}
}

func reverse[T any](s []T) {
	for i, j := 0, len(s)-1; i < j; i, j = i+1, j-1 {
		s[i], s[j] = s[j], s[i]
	}
}
