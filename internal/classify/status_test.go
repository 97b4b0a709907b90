package classify

import (
	"errors"
	"fmt"
	"testing"

	"github.com/ppiankov/labsense/internal/model"
)

func TestClassify_Rules(t *testing.T) {
	d := model.DecimalPtr

	tests := []struct {
		name  string
		value string
		low   *model.Decimal
		high  *model.Decimal
		want  model.Status
	}{
		{"no bounds", "5", nil, nil, model.StatusUnknown},
		{"low only, below", "4.9", d("5"), nil, model.StatusBelow},
		{"low only, equal", "5.0", d("5"), nil, model.StatusWithin},
		{"low only, above low", "500", d("5"), nil, model.StatusWithin},
		{"high only, above", "250", nil, d("200"), model.StatusAbove},
		{"high only, equal", "200", nil, d("200"), model.StatusWithin},
		{"high only, below high", "1", nil, d("200"), model.StatusWithin},
		{"both, below", "9.2", d("13.0"), d("17.0"), model.StatusBelow},
		{"both, at low", "13.00", d("13.0"), d("17.0"), model.StatusWithin},
		{"both, at high", "17", d("13.0"), d("17.0"), model.StatusWithin},
		{"both, above", "17.01", d("13.0"), d("17.0"), model.StatusAbove},
		{"grouped digits", "1,40,000", d("1,50,000"), d("4,50,000"), model.StatusBelow},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Classify(model.MustDecimal(tt.value), tt.low, tt.high)
			if got != tt.want {
				t.Errorf("Classify(%s) = %s, want %s", tt.value, got, tt.want)
			}
		})
	}
}

// Exhaustive check over a grid of values and bounds with low < high
func TestClassify_BoundaryInclusiveProperty(t *testing.T) {
	for low := 0; low < 12; low++ {
		for high := low + 1; high <= 12; high++ {
			lowD := model.MustDecimal(fmt.Sprintf("%d.0", low))
			highD := model.MustDecimal(fmt.Sprintf("%d.0", high))

			for v := 0; v <= 130; v++ {
				value := model.MustDecimal(fmt.Sprintf("%d.%d", v/10, v%10))
				got := Classify(value, &lowD, &highD)

				var want model.Status
				switch {
				case value.Cmp(lowD) < 0:
					want = model.StatusBelow
				case value.Cmp(highD) > 0:
					want = model.StatusAbove
				default:
					want = model.StatusWithin
				}

				if got != want {
					t.Fatalf("value %s in [%s, %s]: got %s, want %s", value, lowD, highD, got, want)
				}
				if (value.Cmp(lowD) == 0 || value.Cmp(highD) == 0) && got != model.StatusWithin {
					t.Fatalf("boundary value %s must be within, got %s", value, got)
				}
			}
		}
	}
}

func TestClassifyRecord_Qualitative(t *testing.T) {
	record := model.LabTestRecord{
		Name:  "HIV",
		Value: model.MustDecimal("0.1"),
		Range: model.ReferenceRange{Kind: model.RangeQualitative, Qualitative: "non-reactive"},
	}

	if got := ClassifyRecord(&record); got != model.StatusUnknown {
		t.Errorf("qualitative range must classify as unknown, got %s", got)
	}
}

func TestClassifyRecord_UpperOnlyScenario(t *testing.T) {
	record := model.LabTestRecord{
		Name:  "Cholesterol",
		Value: model.MustDecimal("250"),
		Range: model.ReferenceRange{Kind: model.RangeUpperOnly, High: model.DecimalPtr("200"), Raw: "< 200"},
	}

	if got := ClassifyRecord(&record); got != model.StatusAbove {
		t.Errorf("expected above, got %s", got)
	}
	if record.Status != model.StatusAbove {
		t.Error("ClassifyRecord must set the status in place")
	}
}

func TestClassifyAll_TallyAndSplit(t *testing.T) {
	records := []model.LabTestRecord{
		{Name: "A", Value: model.MustDecimal("9.2"), Range: model.ReferenceRange{Kind: model.RangeClosed, Low: model.DecimalPtr("13.0"), High: model.DecimalPtr("17.0")}},
		{Name: "B", Value: model.MustDecimal("15"), Range: model.ReferenceRange{Kind: model.RangeClosed, Low: model.DecimalPtr("13.0"), High: model.DecimalPtr("17.0")}},
		{Name: "C", Value: model.MustDecimal("250"), Range: model.ReferenceRange{Kind: model.RangeUpperOnly, High: model.DecimalPtr("200")}},
		{Name: "D", Value: model.MustDecimal("42"), Range: model.ReferenceRange{Kind: model.RangeNone, Raw: ""}},
	}

	counts := ClassifyAll(records)
	want := model.Counts{Total: 4, Below: 1, Within: 1, Above: 1, Unknown: 1}
	if counts != want {
		t.Errorf("counts = %+v, want %+v", counts, want)
	}
	if counts.Abnormal() != 2 {
		t.Errorf("expected 2 abnormal, got %d", counts.Abnormal())
	}

	abnormal, unknown := Split(records)
	if len(abnormal) != 2 || abnormal[0].Name != "A" || abnormal[1].Name != "C" {
		t.Errorf("unexpected abnormal list: %+v", abnormal)
	}
	if len(unknown) != 1 || unknown[0].Name != "D" {
		t.Errorf("unexpected unknown list: %+v", unknown)
	}

	if err := UnresolvedReason(unknown[0]); !errors.Is(err, model.ErrUnresolvedRange) {
		t.Errorf("expected unresolved range error, got %v", err)
	}
	if err := UnresolvedReason(abnormal[0]); err != nil {
		t.Errorf("classified record should have no unresolved reason, got %v", err)
	}
}
