package locale

import (
	"github.com/pemistahl/lingua-go"
)

// Detector guesses the locale of listing text when the URL does not carry one.
type Detector struct {
	detector lingua.LanguageDetector
}

// NewDetector builds a detector restricted to the supported locales.
func NewDetector() *Detector {
	d := lingua.NewLanguageDetectorBuilder().
		FromLanguages(lingua.English, lingua.Arabic).
		Build()
	return &Detector{detector: d}
}

// Detect returns the locale of text, or false when no language could be determined.
func (d *Detector) Detect(text string) (Locale, bool) {
	lang, ok := d.detector.DetectLanguageOf(text)
	if !ok {
		return "", false
	}
	switch lang {
	case lingua.Arabic:
		return Arabic, true
	case lingua.English:
		return English, true
	}
	return "", false
}
