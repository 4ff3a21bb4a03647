package types

// Field identifies one extractable listing attribute. The set is closed:
// the extractor switches over it explicitly instead of dispatching on
// free-form string keys.
type Field int

const (
	// Card-mode fields, read from a listing-card fragment on a results page.
	FieldLink Field = iota
	FieldTitle
	FieldYear
	FieldCurrentPrice
	FieldMileage
	FieldGearbox

	// Detail-mode fields, read from the JSON blob embedded in a full
	// listing page.
	FieldOldPrice
	FieldFirstPublicationDate
)

func (f Field) String() string {
	switch f {
	case FieldLink:
		return "link"
	case FieldTitle:
		return "title"
	case FieldYear:
		return "year"
	case FieldCurrentPrice:
		return "current_price"
	case FieldMileage:
		return "mileage"
	case FieldGearbox:
		return "gearbox"
	case FieldOldPrice:
		return "old_price"
	case FieldFirstPublicationDate:
		return "first_publication_date"
	default:
		return "unknown"
	}
}

// CardFields returns every field the card extractor supports.
func CardFields() []Field {
	return []Field{FieldLink, FieldTitle, FieldYear, FieldCurrentPrice, FieldMileage, FieldGearbox}
}

// DetailFields returns every field the detail extractor supports.
func DetailFields() []Field {
	return []Field{FieldOldPrice, FieldFirstPublicationDate}
}
