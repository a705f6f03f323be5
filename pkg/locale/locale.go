// Package locale models the two languages a listing is published in.
package locale

import (
	"fmt"
	"strings"
)

// Locale is a listing language as it appears in the site's URL path.
type Locale string

const (
	English Locale = "en"
	Arabic  Locale = "ar"
)

// All lists the supported locales in the order they are written to metadata.
var All = []Locale{Arabic, English}

func (l Locale) String() string { return string(l) }

func (l Locale) segment() string { return "/" + string(l) + "/" }

// Other returns the counterpart locale.
func (l Locale) Other() Locale {
	if l == Arabic {
		return English
	}
	return Arabic
}

// FromURL returns the locale encoded as a path segment of rawURL.
func FromURL(rawURL string) (Locale, bool) {
	for _, l := range []Locale{English, Arabic} {
		if strings.Contains(rawURL, l.segment()) {
			return l, true
		}
	}
	return "", false
}

// SwapURL rewrites rawURL from locale from to locale to.
func SwapURL(rawURL string, from, to Locale) (string, error) {
	if !strings.Contains(rawURL, from.segment()) {
		return "", fmt.Errorf("url %s has no %s segment", rawURL, from.segment())
	}
	return strings.Replace(rawURL, from.segment(), to.segment(), 1), nil
}
