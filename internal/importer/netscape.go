package importer

import (
	"bytes"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/kailas-cloud/markdex/internal/domain/bookmark"
)

// parseNetscape reads the bookmark HTML every browser exports:
// <DT><A HREF="...">Title</A> optionally followed by <DD>description.
func parseNetscape(data []byte) ([]bookmark.Raw, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}

	out := []bookmark.Raw{}
	doc.Find("a[href]").Each(func(_ int, a *goquery.Selection) {
		href, _ := a.Attr("href")
		if strings.HasPrefix(strings.ToLower(strings.TrimSpace(href)), "javascript:") {
			return
		}
		raw := bookmark.Raw{URL: href, Title: strings.TrimSpace(a.Text())}
		if dd := a.Closest("dt").Next(); dd.Is("dd") {
			raw.Description = strings.TrimSpace(dd.Text())
		}
		out = append(out, raw)
	})
	return out, nil
}
