package domain

// Tier is a confidence stratum of the tax extractor.
type Tier string

// Extractor tiers, strongest first.
const (
	TierFormField Tier = "form_field"
	TierLayout    Tier = "layout"
	TierOCRLayout Tier = "ocr_layout"
)

// Rank orders tiers so that form_field > layout > ocr_layout.
func (t Tier) Rank() int {
	switch t {
	case TierFormField:
		return 3
	case TierLayout:
		return 2
	case TierOCRLayout:
		return 1
	default:
		return 0
	}
}

// Form types the extractor knows.
const (
	Form1040 = "1040"
	FormW2   = "W2"
)

// TaxField is one extracted, year-scoped tax form value.
type TaxField struct {
	FormType          string
	FieldCode         string
	FieldLabel        string
	RawValue          string
	NormalizedDecimal string
	Confidence        float64
	Tier              Tier
	TaxYear           int

	// Source and Mtime identify the document the value came from.
	Source string
	Mtime  int64
}

// FieldKind returns "line" for 1040 fields and "box" for W-2 fields.
func (f TaxField) FieldKind() string {
	if f.FormType == FormW2 {
		return "box"
	}
	return "line"
}
