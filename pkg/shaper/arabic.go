package shaper

import "github.com/01walid/goarabic"

const (
	lam  = 0x0644
	alef = 0x0627
	// alef final form as produced by goarabic.ToGlyph
	alefFinal = 0xFE8E
)

// lamAlef maps the alef following a lam to the ligature's isolated and final forms.
var lamAlef = map[rune][2]rune{
	0x0622: {0xFEF5, 0xFEF6},
	0x0623: {0xFEF7, 0xFEF8},
	0x0625: {0xFEF9, 0xFEFA},
	0x0627: {0xFEFB, 0xFEFC},
}

// Reshape replaces Arabic letters with the presentation form their neighbours
// call for and merges lam-alef pairs into ligatures. Harakat are dropped.
// Text stays in logical order.
func Reshape(text string) string {
	in := []rune(goarabic.RemoveTashkeel(text))

	// A lam-alef pair joins like a lone alef, so it stands in as one while
	// goarabic picks the forms, and the ligature is put back afterwards.
	merged := make([]rune, 0, len(in))
	ligatures := make(map[int][2]rune)
	for i := 0; i < len(in); i++ {
		if in[i] == lam && i+1 < len(in) {
			if lig, ok := lamAlef[in[i+1]]; ok {
				ligatures[len(merged)] = lig
				merged = append(merged, alef)
				i++
				continue
			}
		}
		merged = append(merged, in[i])
	}

	out := []rune(goarabic.ToGlyph(string(merged)))
	for i, lig := range ligatures {
		if out[i] == alefFinal {
			out[i] = lig[1]
		} else {
			out[i] = lig[0]
		}
	}
	return string(out)
}
