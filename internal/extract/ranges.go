package extract

import (
	"regexp"
	"strings"

	"github.com/ppiankov/labsense/internal/model"
	"golang.org/x/text/unicode/norm"
)

// RangeResolver turns printed reference range text into a canonical range
type RangeResolver struct {
	dashes      *strings.Replacer
	closed      *regexp.Regexp
	upper       *regexp.Regexp
	lower       *regexp.Regexp
	qualitative *regexp.Regexp
}

const numberPattern = `(\d{1,3}(?:,\d{2,3})+|\d+)(\.\d+)?`

// NewRangeResolver creates a new range resolver
func NewRangeResolver() *RangeResolver {
	return &RangeResolver{
		dashes:      strings.NewReplacer("–", "-", "—", "-", "−", "-", "‒", "-", "~", "-"),
		closed:      regexp.MustCompile(`(?:^|[^\w.])` + numberPattern + `\s*(?:-|to)\s*` + numberPattern + `(?:$|[^\w.])`),
		upper:       regexp.MustCompile(`(?:<=|≤|<|\bless than|\bup ?to|\bbelow|\bunder)\s*` + numberPattern),
		lower:       regexp.MustCompile(`(?:>=|≥|>|\bmore than|\bgreater than|\babove|\bover)\s*` + numberPattern),
		qualitative: regexp.MustCompile(`\b(non[- ]?reactive|not detected|negative|positive|reactive|detected|absent|present|nil|normal)\b`),
	}
}

// Resolve parses raw range text.
//
// Handled forms: "L - H", "L–H", "L to H", "L H" (two bare numbers from a
// table column), "< H", "<= H", "up to H", "> L", ">= L", and qualitative
// words. Units inside the text are ignored. A single number without an
// operator, or three and more numbers, is ambiguous and yields RangeNone.
// Reversed bounds are swapped.
func (r *RangeResolver) Resolve(text string) model.ReferenceRange {
	raw := strings.TrimSpace(text)
	result := model.ReferenceRange{Kind: model.RangeNone, Raw: raw}
	if raw == "" {
		return result
	}

	clean := r.clean(raw)

	// 1. Closed interval
	if m := r.closed.FindStringSubmatch(clean); m != nil {
		low, errLow := model.ParseDecimal(m[1] + m[2])
		high, errHigh := model.ParseDecimal(m[3] + m[4])
		if errLow == nil && errHigh == nil {
			if low.Cmp(high) > 0 {
				low, high = high, low
			}
			result.Kind = model.RangeClosed
			result.Low = &low
			result.High = &high
			return result
		}
	}

	// 2. One-sided bounds
	if m := r.upper.FindStringSubmatch(clean); m != nil {
		if high, err := model.ParseDecimal(m[1] + m[2]); err == nil {
			result.Kind = model.RangeUpperOnly
			result.High = &high
			return result
		}
	}
	if m := r.lower.FindStringSubmatch(clean); m != nil {
		if low, err := model.ParseDecimal(m[1] + m[2]); err == nil {
			result.Kind = model.RangeLowerOnly
			result.Low = &low
			return result
		}
	}

	numbers := scanNumbers(clean)

	// 3. Two bare numbers, as when a table column lost its dash
	if len(numbers) == 2 && onlySpaceBetween(clean, numbers[0], numbers[1]) {
		low, errLow := model.ParseDecimal(numbers[0].Text)
		high, errHigh := model.ParseDecimal(numbers[1].Text)
		if errLow == nil && errHigh == nil {
			if low.Cmp(high) > 0 {
				low, high = high, low
			}
			result.Kind = model.RangeClosed
			result.Low = &low
			result.High = &high
			return result
		}
	}

	// 4. Qualitative sentinel, only when nothing numeric is printed
	if len(numbers) == 0 {
		if m := r.qualitative.FindStringSubmatch(clean); m != nil {
			result.Kind = model.RangeQualitative
			result.Qualitative = m[1]
			return result
		}
	}

	return result
}

// clean folds the text and blanks out units and brackets
func (r *RangeResolver) clean(text string) string {
	folded := strings.ToLower(norm.NFKC.String(r.dashes.Replace(text)))

	fields := strings.Fields(folded)
	for i, f := range fields {
		if _, ok := LookupUnit(f); ok {
			fields[i] = ""
			continue
		}
		fields[i] = stripGluedUnits(f)
	}

	return strings.Map(func(c rune) rune {
		switch c {
		case '(', ')', '[', ']', ':', ';':
			return ' '
		}
		return c
	}, strings.Join(fields, " "))
}

// stripGluedUnits blanks units printed against a bound: "17.0g/dl" and
// "13.0-17.0g/dl". A run after a digit is cut only when it is a known unit.
func stripGluedUnits(field string) string {
	var b strings.Builder
	i := 0
	for i < len(field) {
		c := field[i]
		b.WriteByte(c)
		i++
		if !isDigit(c) || i >= len(field) || !startsUnit(field[i]) {
			continue
		}

		end := i
		for end < len(field) && field[end] != '-' {
			end++
		}
		run := strings.TrimRight(field[i:end], ")],;:")
		if _, ok := LookupUnit(run); ok {
			b.WriteByte(' ')
			i += len(run)
		}
	}
	return b.String()
}

// startsUnit reports whether c can open a unit glued to a number
func startsUnit(c byte) bool {
	return !isDigit(c) && c != '.' && c != ',' && c != '-' && c != ')' && c != ']'
}

func onlySpaceBetween(s string, a, b numberToken) bool {
	return strings.TrimSpace(s[a.End:b.Start]) == ""
}
