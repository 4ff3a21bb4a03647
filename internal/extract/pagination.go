package extract

import (
	"net/url"

	"github.com/PuerkitoBio/goquery"
)

// nextPageTitle is the title attribute of the next-page navigation
// anchor on a results page.
const nextPageTitle = "Page suivante"

// NextPageURL looks up the next-page navigation link and resolves it
// against the page URL. It returns ("", false) when the page is the
// last one or the lookup fails.
func NextPageURL(doc *goquery.Document, pageURL string) (string, bool) {
	anchor := doc.Find(`a[title="` + nextPageTitle + `"]`).First()
	href, ok := anchor.Attr("href")
	if !ok || href == "" {
		return "", false
	}

	base, err := url.Parse(pageURL)
	if err != nil {
		return "", false
	}
	next, err := url.Parse(href)
	if err != nil {
		return "", false
	}

	resolved := base.ResolveReference(next)
	if resolved.Scheme != "http" && resolved.Scheme != "https" {
		return "", false
	}
	return resolved.String(), true
}

// AbsoluteURL resolves a listing path against the site base.
func AbsoluteURL(base, href string) (string, bool) {
	b, err := url.Parse(base)
	if err != nil {
		return "", false
	}
	h, err := url.Parse(href)
	if err != nil {
		return "", false
	}
	return b.ResolveReference(h).String(), true
}
