package model

// Status classifies a value against its printed reference range
type Status string

const (
	StatusBelow   Status = "below"
	StatusWithin  Status = "within"
	StatusAbove   Status = "above"
	StatusUnknown Status = "unknown"
)

// IsAbnormal reports whether the status belongs in the abnormal narrative
func (s Status) IsAbnormal() bool {
	return s == StatusBelow || s == StatusAbove
}

// RangeKind describes which bounds a reference range carries
type RangeKind string

const (
	RangeClosed      RangeKind = "closed"      // low and high
	RangeLowerOnly   RangeKind = "lower_only"  // "> L"
	RangeUpperOnly   RangeKind = "upper_only"  // "< H"
	RangeQualitative RangeKind = "qualitative" // "negative", "non-reactive", ...
	RangeNone        RangeKind = "none"
)

// ReferenceRange is the interval printed next to a value on the report
type ReferenceRange struct {
	Kind        RangeKind `json:"kind"`
	Low         *Decimal  `json:"low,omitempty"`
	High        *Decimal  `json:"high,omitempty"`
	Qualitative string    `json:"qualitative,omitempty"` // sentinel text, never compared numerically
	Raw         string    `json:"raw,omitempty"`         // range text as printed
}

// UnitSource records where a record's unit came from
type UnitSource string

const (
	UnitPrinted UnitSource = "printed"
	UnitDefault UnitSource = "default" // per-test fallback table
	UnitNone    UnitSource = "none"
)

// LabTestRecord is one test row recovered from a report
type LabTestRecord struct {
	Name       string         `json:"name"`
	Value      Decimal        `json:"value"`
	Unit       string         `json:"unit"`
	UnitSource UnitSource     `json:"unit_source"`
	Range      ReferenceRange `json:"range"`
	Status     Status         `json:"status"`
	Category   string         `json:"category,omitempty"`
	Line       int            `json:"line"` // 1-based line number in the source

	ExplanationEN string `json:"explanation_en,omitempty"`
	ExplanationMR string `json:"explanation_mr,omitempty"`
}

// UnparsedReason explains why a line produced no record
type UnparsedReason string

const (
	ReasonNoValue UnparsedReason = "no_value" // a name but no number
	ReasonNoName  UnparsedReason = "no_name"  // a number but no name
	ReasonHeader  UnparsedReason = "header"
	ReasonDate    UnparsedReason = "date"
)

// UnparsedLine is a non-blank line that did not yield a record
type UnparsedLine struct {
	Line   int            `json:"line"`
	Text   string         `json:"text"`
	Reason UnparsedReason `json:"reason"`
}
