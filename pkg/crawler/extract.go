package crawler

import (
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/dtnitsch/adbuilder/models"
	"github.com/dtnitsch/adbuilder/pkg/parser"
)

func (c *Crawler) extractInfo(p *page) (models.ListingInfo, error) {
	sel := c.selectors
	var info models.ListingInfo

	mileage := p.doc.Find(sel.Mileage).Eq(sel.MileageIndex)
	if mileage.Length() == 0 {
		return info, fmt.Errorf("%w: mileage %q[%d]", ErrMissingSelector, sel.Mileage, sel.MileageIndex)
	}
	info.Mileage = parser.OwnText(mileage)

	model, err := first(p.doc, sel.Model, "model")
	if err != nil {
		return info, err
	}
	info.Model = parser.OwnText(model)

	price, err := first(p.doc, sel.Price, "price")
	if err != nil {
		return info, err
	}
	info.Price = parser.OwnText(price)
	if sel.PriceSuffix != "" {
		info.Price = strings.TrimSpace(strings.ReplaceAll(info.Price, sel.PriceSuffix, ""))
	}

	if href, ok := p.doc.Find(sel.Tel).First().Attr("href"); ok {
		info.Tel = strings.TrimSpace(strings.TrimPrefix(href, "tel:"))
	}

	summary, err := c.parser.Summarize(p.url, string(p.html))
	if err != nil {
		c.logger.Debug("no page summary", "url", p.url, "error", err)
	} else {
		info.Title = summary.Title
		info.Description = summary.Excerpt
	}
	return info, nil
}

func first(doc *goquery.Document, selector, field string) (*goquery.Selection, error) {
	s := doc.Find(selector).First()
	if s.Length() == 0 {
		return nil, fmt.Errorf("%w: %s %q", ErrMissingSelector, field, selector)
	}
	return s, nil
}
