package explain

import (
	"fmt"
	"strings"

	"github.com/ppiankov/labsense/internal/model"
)

// Disclaimer closes every explanation. The glossary pins its translation.
const Disclaimer = "This summary only restates the values and reference ranges printed on your report and is not medical advice, so please consult your doctor about these results."

// CountSentence is the fixed form of the overall count
const CountSentence = "%d of %d tests are outside the printed reference range."

// Template renders the sentence for one abnormal record
type Template func(r model.LabTestRecord) string

// templates is the category -> template lookup
var templates = map[Category]Template{
	CategoryGeneral:     plainTemplate,
	CategoryBloodSugar:  panelTemplate(CategoryBloodSugar),
	CategoryCholesterol: panelTemplate(CategoryCholesterol),
	CategoryKidney:      panelTemplate(CategoryKidney),
	CategoryLiver:       panelTemplate(CategoryLiver),
	CategoryBloodCount:  panelTemplate(CategoryBloodCount),
	CategoryThyroid:     panelTemplate(CategoryThyroid),
}

// Item is the explanation of one abnormal record
type Item struct {
	Record   model.LabTestRecord
	Category Category
	Sentence string
}

// Explanation is the English narrative for one report
type Explanation struct {
	Items      []Item
	Summary    string // the count sentence
	Disclaimer string
	Text       string // everything joined
}

// Sentences returns the narrative sentence by sentence
func (e Explanation) Sentences() []string {
	sentences := make([]string, 0, len(e.Items)+2)
	for _, item := range e.Items {
		sentences = append(sentences, item.Sentence)
	}
	return append(sentences, e.Summary, e.Disclaimer)
}

// Generator produces English explanations from classified records
type Generator struct {
	templates map[Category]Template
}

// NewGenerator creates a new explanation generator
func NewGenerator() *Generator {
	return &Generator{templates: templates}
}

// Explain describes every below/above record, then states the overall count
// and the disclaimer. Within and unknown records are left out of the
// narrative. Records are read, never modified.
func (g *Generator) Explain(records []model.LabTestRecord) Explanation {
	var exp Explanation

	for _, r := range records {
		if !r.Status.IsAbnormal() {
			continue
		}

		category := Category(r.Category)
		if category == "" {
			category = Categorize(r.Name)
		}
		render, ok := g.templates[category]
		if !ok {
			render = g.templates[CategoryGeneral]
		}

		exp.Items = append(exp.Items, Item{
			Record:   r,
			Category: category,
			Sentence: render(r),
		})
	}

	exp.Summary = fmt.Sprintf(CountSentence, len(exp.Items), len(records))
	exp.Disclaimer = Disclaimer
	exp.Text = strings.Join(exp.Sentences(), " ")

	return exp
}

// Uninterpretable returns the records whose status could not be computed
func Uninterpretable(records []model.LabTestRecord) []model.LabTestRecord {
	var out []model.LabTestRecord
	for _, r := range records {
		if r.Status == model.StatusUnknown {
			out = append(out, r)
		}
	}
	return out
}

func plainTemplate(r model.LabTestRecord) string {
	return fmt.Sprintf("%s is %s, which is %s.", r.Name, withUnit(r.Value.String(), r.Unit), position(r))
}

func panelTemplate(c Category) Template {
	return func(r model.LabTestRecord) string {
		return fmt.Sprintf("%s, a %s test, is %s, which is %s.", r.Name, c, withUnit(r.Value.String(), r.Unit), position(r))
	}
}

// position states the direction and the printed range or bound
func position(r model.LabTestRecord) string {
	direction := "above"
	if r.Status == model.StatusBelow {
		direction = "below"
	}

	low, high := r.Range.Low, r.Range.High
	switch {
	case low != nil && high != nil:
		return fmt.Sprintf("%s the printed reference range of %s", direction, withUnit(low.String()+"–"+high.String(), r.Unit))
	case low != nil:
		return fmt.Sprintf("%s the printed minimum of %s", direction, withUnit(low.String(), r.Unit))
	case high != nil:
		return fmt.Sprintf("%s the printed maximum of %s", direction, withUnit(high.String(), r.Unit))
	}
	return direction + " the printed reference range"
}

func withUnit(number, unit string) string {
	if unit == "" {
		return number
	}
	return number + " " + unit
}
