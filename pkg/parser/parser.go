package parser

import (
	"bufio"
	"fmt"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/go-shiori/go-readability"
)

type Parser struct{}

// Summary is the human-readable headline of a listing page.
type Summary struct {
	Title   string
	Excerpt string
}

// Summarize runs go-readability over a listing page and returns its title and excerpt.
func (p *Parser) Summarize(rawURL, html string) (Summary, error) {
	parsedURL, err := url.Parse(rawURL)
	if err != nil {
		return Summary{}, fmt.Errorf("invalid URL: %w", err)
	}

	readabilityParser := readability.NewParser()
	article, err := readabilityParser.Parse(strings.NewReader(html), parsedURL)
	if err != nil {
		return Summary{}, fmt.Errorf("failed to extract summary: %w", err)
	}

	return Summary{
		Title:   NormalizeText(article.Title),
		Excerpt: NormalizeText(article.Excerpt),
	}, nil
}

// OwnText returns the element's direct text nodes, ignoring text of child elements.
func OwnText(s *goquery.Selection) string {
	var b strings.Builder
	s.Contents().Each(func(i int, c *goquery.Selection) {
		if goquery.NodeName(c) == "#text" {
			b.WriteString(c.Text())
		}
	})
	return NormalizeText(b.String())
}

// NormalizeText cleans up a string by trimming space and removing excess newlines.
func NormalizeText(input string) string {
	var b strings.Builder
	b.Grow(len(input))
	scanner := bufio.NewScanner(strings.NewReader(input))
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line != "" {
			b.WriteString(line)
			b.WriteString(" ")
		}
	}
	return strings.TrimSpace(b.String())
}
