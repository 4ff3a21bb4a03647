package extract

import (
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"autoveille/internal/types"
)

// Listing-card markup landmarks. One fixed lookup rule per field; a
// missing node or garbled value yields nil for that field only.
const (
	cardTag        = "article"
	linkAriaLabel  = "Voir l’annonce"
	labelYear      = "Année"
	labelMileage   = "Kilométrage"
	labelGearbox   = "Boîte de vitesse"
	mileageSuffix  = " km"
	currencySuffix = "€"
)

// cardClasses are the container classes of one listing card on a
// results page.
var cardClasses = []string{"relative", "h-[inherit]", "group/adcard"}

// CardValues holds the fields extracted from one listing-card fragment.
// Nil members mean the field was absent or unparseable.
type CardValues struct {
	Link         *string
	Title        *string
	Year         *int
	CurrentPrice *int
	Mileage      *int
	Gearbox      *string
}

// ListingCards returns every listing-card fragment on a results page.
func ListingCards(doc *goquery.Document) []*goquery.Selection {
	var cards []*goquery.Selection
	doc.Find(cardTag).Each(func(_ int, sel *goquery.Selection) {
		for _, class := range cardClasses {
			if !sel.HasClass(class) {
				return
			}
		}
		cards = append(cards, sel)
	})
	return cards
}

// Card extracts the requested fields from one listing-card fragment.
// Extraction of one field never aborts extraction of the others.
func Card(sel *goquery.Selection, fields []types.Field) CardValues {
	var out CardValues
	for _, field := range fields {
		switch field {
		case types.FieldLink:
			out.Link = cardLink(sel)
		case types.FieldTitle:
			out.Title = cardTitle(sel)
		case types.FieldYear:
			out.Year = textToInt(labelSibling(sel, labelYear))
		case types.FieldCurrentPrice:
			out.CurrentPrice = cardPrice(sel)
		case types.FieldMileage:
			out.Mileage = textToInt(stripSuffix(labelSibling(sel, labelMileage), mileageSuffix))
		case types.FieldGearbox:
			out.Gearbox = labelSibling(sel, labelGearbox)
		}
	}
	return out
}

// cardLink reads the href of the card's overlay anchor.
func cardLink(sel *goquery.Selection) *string {
	anchor := sel.Find("a.absolute.inset-0").FilterFunction(func(_ int, a *goquery.Selection) bool {
		label, _ := a.Attr("aria-label")
		return label == linkAriaLabel
	}).First()

	href, ok := anchor.Attr("href")
	if !ok || href == "" {
		return nil
	}
	return &href
}

func cardTitle(sel *goquery.Selection) *string {
	h3 := sel.Find("h3").First()
	if h3.Length() == 0 {
		return nil
	}
	title := strings.TrimSpace(h3.Text())
	if title == "" {
		return nil
	}
	return &title
}

// cardPrice reads the labeled price node and normalizes the text to an
// integer, stripping thousands separators and the currency symbol.
func cardPrice(sel *goquery.Selection) *int {
	span := sel.Find(`p[data-test-id="price"] span`).First()
	if span.Length() == 0 {
		return nil
	}
	return textToInt(normalizePrice(span.Text()))
}

// labelSibling finds the p.text-neutral node whose text equals label
// and returns the trimmed text of its next sibling p.
func labelSibling(sel *goquery.Selection, label string) *string {
	node := sel.Find("p.text-neutral").FilterFunction(func(_ int, p *goquery.Selection) bool {
		return strings.TrimSpace(p.Text()) == label
	}).First()
	if node.Length() == 0 {
		return nil
	}

	sibling := node.NextAllFiltered("p").First()
	if sibling.Length() == 0 {
		return nil
	}
	value := strings.TrimSpace(sibling.Text())
	if value == "" {
		return nil
	}
	return &value
}

// normalizePrice strips separators and the euro sign from a price
// string. The site uses U+202F narrow no-break spaces as thousands
// separators.
func normalizePrice(text string) *string {
	replacer := strings.NewReplacer(
		" ", "",
		" ", "",
		" ", "",
		currencySuffix, "",
	)
	cleaned := strings.TrimSpace(replacer.Replace(text))
	if cleaned == "" {
		return nil
	}
	return &cleaned
}

func stripSuffix(text *string, suffix string) *string {
	if text == nil {
		return nil
	}
	cleaned := strings.ReplaceAll(strings.TrimSuffix(*text, suffix), " ", "")
	cleaned = strings.ReplaceAll(cleaned, " ", "")
	if cleaned == "" {
		return nil
	}
	return &cleaned
}

func textToInt(text *string) *int {
	if text == nil {
		return nil
	}
	n, err := strconv.Atoi(*text)
	if err != nil {
		return nil
	}
	return &n
}
