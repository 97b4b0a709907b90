package extract

import (
	"strings"
	"unicode"

	"github.com/ppiankov/labsense/internal/model"
)

// RowParser extracts lab test records from raw report lines
type RowParser struct {
	resolver       *RangeResolver
	headerKeywords []string
	metaPrefixes   []string
}

// NewRowParser creates a new row parser
func NewRowParser() *RowParser {
	return &RowParser{
		resolver: NewRangeResolver(),
		headerKeywords: []string{
			"test", "parameter", "investigation", "result", "value", "reference", "unit", "normal",
		},
		metaPrefixes: []string{
			"page", "age", "date", "sample", "collected", "received", "reported", "registered",
			"patient", "mobile", "phone", "lab no", "ref. by", "ref by", "uhid", "sr. no", "sr no",
		},
	}
}

// Parse parses every line. Lines that produce no record are returned as
// unparsed with a reason, blank lines excepted. Parsing never aborts.
func (p *RowParser) Parse(lines []string) ([]model.LabTestRecord, []model.UnparsedLine) {
	var records []model.LabTestRecord
	var unparsed []model.UnparsedLine

	for i, line := range lines {
		record, skipped := p.ParseLine(line, i+1)
		if record != nil {
			records = append(records, *record)
		}
		if skipped != nil {
			unparsed = append(unparsed, *skipped)
		}
	}

	return records, unparsed
}

// ParseLine parses one line. Exactly one of the results is non-nil unless the
// line is blank, in which case both are nil.
func (p *RowParser) ParseLine(line string, lineNo int) (*model.LabTestRecord, *model.UnparsedLine) {
	text := strings.TrimSpace(line)
	if text == "" {
		return nil, nil
	}

	skip := func(reason model.UnparsedReason) (*model.LabTestRecord, *model.UnparsedLine) {
		return nil, &model.UnparsedLine{Line: lineNo, Text: text, Reason: reason}
	}

	numbers := scanNumbers(text)
	if len(numbers) == 0 {
		if p.isHeader(text) {
			return skip(model.ReasonHeader)
		}
		return skip(model.ReasonNoValue)
	}

	first := numbers[0]
	name := cleanName(text[:first.Start])
	if name == "" {
		return skip(model.ReasonNoName)
	}
	if p.isMeta(name) {
		return skip(model.ReasonHeader)
	}
	if looksLikeDate(text, first.End) {
		return skip(model.ReasonDate)
	}

	value, err := model.ParseDecimal(first.Text)
	if err != nil {
		return skip(model.ReasonNoValue)
	}

	record := &model.LabTestRecord{
		Name:       name,
		Value:      value,
		UnitSource: model.UnitNone,
		Status:     model.StatusUnknown,
		Line:       lineNo,
	}

	// Unit glued to the value or in the next word; the range text follows it.
	rest := text[first.End+gluedFlag(text, first.End):]
	if unit, consumed, ok := leadingUnit(rest); ok {
		record.Unit = unit
		record.UnitSource = model.UnitPrinted
		rest = rest[consumed:]
	} else if unit, ok := firstUnit(rest); ok {
		// Unit printed after the range, as in "9.2  13.0 - 17.0 g/dL"
		record.Unit = unit
		record.UnitSource = model.UnitPrinted
	} else if unit, ok := DefaultUnit(name); ok {
		record.Unit = unit
		record.UnitSource = model.UnitDefault
	}

	record.Range = p.resolver.Resolve(rest)

	return record, nil
}

// leadingUnit returns a unit directly after a value, glued or space-separated
func leadingUnit(rest string) (string, int, bool) {
	if rest == "" {
		return "", 0, false
	}

	if !unicode.IsSpace(rune(rest[0])) {
		word := wordAt(rest, 0)
		if unit, ok := LookupUnit(word); ok {
			return unit, len(word), true
		}
		return "", 0, false
	}

	trimmed := strings.TrimLeftFunc(rest, unicode.IsSpace)
	offset := len(rest) - len(trimmed)
	word := wordAt(trimmed, 0)
	if unit, ok := LookupUnit(word); ok {
		return unit, offset + len(word), true
	}

	return "", 0, false
}

// firstUnit returns the first vocabulary unit anywhere in rest
func firstUnit(rest string) (string, bool) {
	for _, field := range strings.Fields(rest) {
		if unit, ok := LookupUnit(field); ok {
			return unit, true
		}
	}
	return "", false
}

// cleanName trims separators and collapses whitespace in a name segment
func cleanName(s string) string {
	name := strings.Join(strings.Fields(s), " ")
	name = strings.TrimRight(name, " :-|=.")
	name = strings.TrimLeft(name, " •*-|")

	hasLetter := false
	for _, r := range name {
		if unicode.IsLetter(r) {
			hasLetter = true
			break
		}
	}
	if !hasLetter {
		return ""
	}

	return name
}

// looksLikeDate reports a value followed directly by "/digit" or ":digit"
func looksLikeDate(text string, end int) bool {
	if end+1 >= len(text) {
		return false
	}
	return (text[end] == '/' || text[end] == ':') && isDigit(text[end+1])
}

func (p *RowParser) isHeader(text string) bool {
	lower := strings.ToLower(text)
	for _, kw := range p.headerKeywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}

func (p *RowParser) isMeta(name string) bool {
	lower := strings.ToLower(name)
	for _, prefix := range p.metaPrefixes {
		if lower == prefix || strings.HasPrefix(lower, prefix+" ") || strings.HasPrefix(lower, prefix+":") {
			return true
		}
	}
	return false
}
