package extract

import (
	"encoding/json"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"autoveille/internal/types"
)

// publicationDateLayout is the fixed timestamp format of the embedded
// ad data.
const publicationDateLayout = "2006-01-02 15:04:05"

// DetailValues holds the fields extracted from a full listing page's
// embedded JSON blob. Nil members mean absent or unparseable.
type DetailValues struct {
	OldPrice             *float64
	FirstPublicationDate *time.Time
}

// adEnvelope mirrors the slice of the embedded page state the detail
// extractor reads.
type adEnvelope struct {
	Props struct {
		PageProps struct {
			Ad struct {
				Attributes []struct {
					Key   string `json:"key"`
					Value any    `json:"value"`
				} `json:"attributes"`
				FirstPublicationDate string `json:"first_publication_date"`
			} `json:"ad"`
		} `json:"pageProps"`
	} `json:"props"`
}

// Detail extracts the requested fields from a full listing page. The
// values live in a <script type="application/json"> blob rather than
// the visible DOM. A missing script, malformed JSON, or missing keys
// yield all-nil values, never an error.
func Detail(doc *goquery.Document, fields []types.Field) DetailValues {
	var out DetailValues

	script := doc.Find(`script[type="application/json"]`).First()
	if script.Length() == 0 {
		return out
	}

	var envelope adEnvelope
	if err := json.Unmarshal([]byte(strings.TrimSpace(script.Text())), &envelope); err != nil {
		return out
	}
	ad := envelope.Props.PageProps.Ad

	for _, field := range fields {
		switch field {
		case types.FieldOldPrice:
			for _, attr := range ad.Attributes {
				if attr.Key == "old_price" {
					out.OldPrice = toFloat(attr.Value)
					break
				}
			}
		case types.FieldFirstPublicationDate:
			if ad.FirstPublicationDate != "" {
				if ts, err := time.Parse(publicationDateLayout, ad.FirstPublicationDate); err == nil {
					out.FirstPublicationDate = &ts
				}
			}
		}
	}
	return out
}

// ParsePublicationDate parses the fixed "YYYY-MM-DD HH:MM:SS" format.
// A malformed string yields nil.
func ParsePublicationDate(value string) *time.Time {
	ts, err := time.Parse(publicationDateLayout, value)
	if err != nil {
		return nil
	}
	return &ts
}

// toFloat coerces the attribute value, which the site serializes
// sometimes as a string and sometimes as a number.
func toFloat(value any) *float64 {
	switch v := value.(type) {
	case float64:
		return &v
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			return nil
		}
		return &f
	default:
		return nil
	}
}
