package classify

import "github.com/ppiankov/labsense/internal/model"

// Classify compares a value with its printed bounds.
//
// Rules, in order: no bounds is unknown; only a low bound is below iff
// value < low; only a high bound is above iff value > high; both bounds give
// below, above or within. Bounds are inclusive.
func Classify(value model.Decimal, low, high *model.Decimal) model.Status {
	switch {
	case low == nil && high == nil:
		return model.StatusUnknown
	case low != nil && value.Cmp(*low) < 0:
		return model.StatusBelow
	case high != nil && value.Cmp(*high) > 0:
		return model.StatusAbove
	default:
		return model.StatusWithin
	}
}

// ClassifyRecord sets the record's status from its resolved range. A
// qualitative range is never compared numerically and stays unknown.
func ClassifyRecord(record *model.LabTestRecord) model.Status {
	if record.Range.Kind == model.RangeQualitative {
		record.Status = model.StatusUnknown
		return record.Status
	}

	record.Status = Classify(record.Value, record.Range.Low, record.Range.High)
	return record.Status
}

// ClassifyAll classifies every record in place and returns the tally
func ClassifyAll(records []model.LabTestRecord) model.Counts {
	for i := range records {
		ClassifyRecord(&records[i])
	}
	return Tally(records)
}

// Tally counts records by status
func Tally(records []model.LabTestRecord) model.Counts {
	counts := model.Counts{Total: len(records)}
	for _, r := range records {
		switch r.Status {
		case model.StatusBelow:
			counts.Below++
		case model.StatusWithin:
			counts.Within++
		case model.StatusAbove:
			counts.Above++
		default:
			counts.Unknown++
		}
	}
	return counts
}

// Split partitions records into abnormal and uninterpretable lists
func Split(records []model.LabTestRecord) (abnormal, unknown []model.LabTestRecord) {
	for _, r := range records {
		switch {
		case r.Status.IsAbnormal():
			abnormal = append(abnormal, r)
		case r.Status == model.StatusUnknown:
			unknown = append(unknown, r)
		}
	}
	return abnormal, unknown
}

// UnresolvedReason explains why a record could not be classified
func UnresolvedReason(record model.LabTestRecord) error {
	if record.Status != model.StatusUnknown {
		return nil
	}
	return model.NewUnresolvedRangeError(record.Name, record.Range.Raw)
}
