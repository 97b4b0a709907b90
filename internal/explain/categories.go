package explain

import (
	"sort"
	"strings"
)

// Category groups tests for template selection
type Category string

const (
	CategoryGeneral     Category = "general"
	CategoryBloodSugar  Category = "blood sugar"
	CategoryCholesterol Category = "cholesterol"
	CategoryKidney      Category = "kidney"
	CategoryLiver       Category = "liver"
	CategoryBloodCount  Category = "blood count"
	CategoryThyroid     Category = "thyroid"
)

// categoryKeywords maps lower-case name fragments to categories
var categoryKeywords = map[string]Category{
	"fasting blood sugar":       CategoryBloodSugar,
	"post prandial blood sugar": CategoryBloodSugar,
	"random blood sugar":        CategoryBloodSugar,
	"blood sugar":               CategoryBloodSugar,
	"glucose":                   CategoryBloodSugar,
	"hba1c":                     CategoryBloodSugar,
	"total cholesterol":         CategoryCholesterol,
	"cholesterol":               CategoryCholesterol,
	"ldl":                       CategoryCholesterol,
	"hdl":                       CategoryCholesterol,
	"triglycerides":             CategoryCholesterol,
	"creatinine":                CategoryKidney,
	"bun":                       CategoryKidney,
	"urea":                      CategoryKidney,
	"uric acid":                 CategoryKidney,
	"sgpt":                      CategoryLiver,
	"sgot":                      CategoryLiver,
	"alt":                       CategoryLiver,
	"ast":                       CategoryLiver,
	"bilirubin":                 CategoryLiver,
	"haemoglobin":               CategoryBloodCount,
	"hemoglobin":                CategoryBloodCount,
	"platelet":                  CategoryBloodCount,
	"wbc":                       CategoryBloodCount,
	"rbc":                       CategoryBloodCount,
	"tsh":                       CategoryThyroid,
	"t3":                        CategoryThyroid,
	"t4":                        CategoryThyroid,
}

// keywordOrder lists keywords longest first so "fasting blood sugar" wins over "blood sugar"
var keywordOrder = sortedKeywords()

func sortedKeywords() []string {
	keys := make([]string, 0, len(categoryKeywords))
	for k := range categoryKeywords {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if len(keys[i]) != len(keys[j]) {
			return len(keys[i]) > len(keys[j])
		}
		return keys[i] < keys[j]
	})
	return keys
}

// Categorize returns the category of a test name. Keywords match whole words.
func Categorize(name string) Category {
	words := " " + strings.Join(strings.FieldsFunc(strings.ToLower(name), isSeparator), " ") + " "
	for _, kw := range keywordOrder {
		if strings.Contains(words, " "+kw+" ") {
			return categoryKeywords[kw]
		}
	}
	return CategoryGeneral
}

func isSeparator(r rune) bool {
	switch r {
	case ' ', '\t', '(', ')', ',', ':', '-', '/', '[', ']':
		return true
	}
	return false
}
