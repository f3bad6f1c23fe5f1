package accuracy

import (
	"fmt"
	"math"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"shipdocs/internal/domain"
	"shipdocs/internal/oracle"
)

// fieldWeights controls how much each canonical field contributes to the
// overall score. Identifier fields weigh more than descriptive ones.
var fieldWeights = map[string]float64{
	"bill_of_lading_number": 1.0,
	"container_number":      0.8,
	"consignee_name":        0.8,
	"consignee_address":     0.5,
	"date":                  0.9,
	"line_items_count":      0.7,
	"average_gross_weight":  0.6,
	"average_price":         0.6,
}

const defaultWeight = 0.5

var (
	nonWordRe    = regexp.MustCompile(`[^\w]`)
	datePatterns = []*regexp.Regexp{
		regexp.MustCompile(`\d{4}-\d{2}-\d{2}`),
		regexp.MustCompile(`\d{2}[-/]\d{2}[-/]\d{4}`),
		regexp.MustCompile(`\d{2}[-/]\d{2}[-/]\d{2}`),
	}
)

// FieldAccuracy is one field's score in [0,1].
type FieldAccuracy struct {
	Field string  `json:"field"`
	Score float64 `json:"score"`
}

// Report is the accuracy of one extracted record against ground truth.
type Report struct {
	Overall        float64         `json:"overall_accuracy"`
	Fields         []FieldAccuracy `json:"field_accuracies"`
	TotalFields    int             `json:"total_fields"`
	PerfectMatches int             `json:"perfect_matches"`
}

// Evaluate scores a reconciled record against ground-truth field values. The
// truth map is keyed by canonical field name; keys it omits are scored as
// null-vs-extracted. Extra truth keys the record does not carry are scored
// too, so a truth file with unexpected fields pulls the score down instead of
// being silently ignored.
func Evaluate(record *domain.ShipmentRecord, truth map[string]interface{}) *Report {
	extracted := recordValues(record)

	fields := make([]string, 0, len(oracle.FieldNames))
	fields = append(fields, oracle.FieldNames...)
	var extra []string
	for k := range truth {
		if _, ok := extracted[k]; !ok {
			extra = append(extra, k)
		}
	}
	sort.Strings(extra)
	fields = append(fields, extra...)

	report := &Report{TotalFields: len(fields)}
	var weightedSum, totalWeight float64

	for _, field := range fields {
		score := FieldScore(field, extracted[field], truth[field])
		report.Fields = append(report.Fields, FieldAccuracy{Field: field, Score: score})
		if score == 1.0 {
			report.PerfectMatches++
		}

		weight, ok := fieldWeights[field]
		if !ok {
			weight = defaultWeight
		}
		weightedSum += score * weight
		totalWeight += weight
	}

	if totalWeight > 0 {
		report.Overall = weightedSum / totalWeight
	}
	return report
}

// FieldScore scores a single extracted value against its ground truth.
// Both nil counts as a perfect match; one-sided nil is a miss.
func FieldScore(field string, extracted, truth interface{}) float64 {
	if isNil(extracted) && isNil(truth) {
		return 1.0
	}
	if isNil(extracted) || isNil(truth) {
		return 0.0
	}

	switch field {
	case "line_items_count", "average_gross_weight", "average_price":
		return numericScore(extracted, truth)
	}

	a := strings.ToLower(strings.TrimSpace(stringify(extracted)))
	b := strings.ToLower(strings.TrimSpace(stringify(truth)))
	if a == b {
		return 1.0
	}

	switch field {
	case "bill_of_lading_number", "container_number":
		return alphanumericScore(a, b)
	case "date":
		return dateScore(a, b)
	default:
		return tokenSetScore(a, b)
	}
}

// alphanumericScore strips separators before comparing, so "ZMLU 3411-0002"
// and "ZMLU34110002" match exactly; otherwise it degrades to a subsequence
// ratio over the cleaned strings.
func alphanumericScore(a, b string) float64 {
	ca := nonWordRe.ReplaceAllString(a, "")
	cb := nonWordRe.ReplaceAllString(b, "")
	if ca == cb {
		return 1.0
	}
	return similarityRatio(ca, cb)
}

// dateScore compares the first recognizable date pattern on each side. A
// pattern match on both sides that disagrees still scores 0.7 since the
// values are at least both dates.
func dateScore(a, b string) float64 {
	da := firstDate(a)
	db := firstDate(b)
	if da != "" && db != "" {
		if da == db {
			return 1.0
		}
		return 0.7
	}
	return textScore(a, b)
}

func firstDate(s string) string {
	for _, re := range datePatterns {
		if m := re.FindString(s); m != "" {
			return m
		}
	}
	return ""
}

// tokenSetScore compares names and addresses by word overlap, so reordered
// or partially extracted values still earn partial credit.
func tokenSetScore(a, b string) float64 {
	ta := tokenSet(a)
	tb := tokenSet(b)
	if len(ta) == 0 || len(tb) == 0 {
		return 0.0
	}
	common := 0
	for tok := range ta {
		if tb[tok] {
			common++
		}
	}
	union := len(ta) + len(tb) - common
	score := float64(common) / float64(union)
	if score <= 0.3 {
		return 0.0
	}
	return score
}

func tokenSet(s string) map[string]bool {
	set := make(map[string]bool)
	for _, tok := range strings.Fields(nonWordRe.ReplaceAllString(s, " ")) {
		set[tok] = true
	}
	return set
}

func textScore(a, b string) float64 {
	score := similarityRatio(a, b)
	if score <= 0.3 {
		return 0.0
	}
	return score
}

func numericScore(extracted, truth interface{}) float64 {
	a, okA := toFloat(extracted)
	b, okB := toFloat(truth)
	if !okA || !okB {
		return 0.0
	}
	if math.Abs(a-b) < 0.005 {
		return 1.0
	}
	return 0.0
}

// similarityRatio is 2*LCS/(len(a)+len(b)) over bytes, in [0,1].
func similarityRatio(a, b string) float64 {
	if len(a) == 0 && len(b) == 0 {
		return 1.0
	}
	if len(a) == 0 || len(b) == 0 {
		return 0.0
	}

	prev := make([]int, len(b)+1)
	curr := make([]int, len(b)+1)
	for i := 1; i <= len(a); i++ {
		for j := 1; j <= len(b); j++ {
			if a[i-1] == b[j-1] {
				curr[j] = prev[j-1] + 1
			} else if prev[j] >= curr[j-1] {
				curr[j] = prev[j]
			} else {
				curr[j] = curr[j-1]
			}
		}
		prev, curr = curr, prev
	}
	lcs := prev[len(b)]
	return 2 * float64(lcs) / float64(len(a)+len(b))
}

func recordValues(record *domain.ShipmentRecord) map[string]interface{} {
	vals := map[string]interface{}{
		"bill_of_lading_number": nil,
		"container_number":      nil,
		"consignee_name":        nil,
		"consignee_address":     nil,
		"date":                  nil,
		"line_items_count":      nil,
		"average_gross_weight":  nil,
		"average_price":         nil,
	}
	if record == nil {
		return vals
	}
	if record.BillOfLadingNumber != nil {
		vals["bill_of_lading_number"] = *record.BillOfLadingNumber
	}
	if record.ContainerNumber != nil {
		vals["container_number"] = *record.ContainerNumber
	}
	if record.ConsigneeName != nil {
		vals["consignee_name"] = *record.ConsigneeName
	}
	if record.ConsigneeAddress != nil {
		vals["consignee_address"] = *record.ConsigneeAddress
	}
	if record.Date != nil {
		vals["date"] = *record.Date
	}
	if record.LineItemsCount != nil {
		vals["line_items_count"] = *record.LineItemsCount
	}
	if record.AverageGrossWeight != nil {
		vals["average_gross_weight"] = *record.AverageGrossWeight
	}
	if record.AveragePrice != nil {
		vals["average_price"] = *record.AveragePrice
	}
	return vals
}

func isNil(v interface{}) bool {
	return v == nil
}

func stringify(v interface{}) string {
	switch t := v.(type) {
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case int:
		return strconv.Itoa(t)
	default:
		return fmt.Sprintf("%v", t)
	}
}

func toFloat(v interface{}) (float64, bool) {
	switch t := v.(type) {
	case float64:
		return t, true
	case float32:
		return float64(t), true
	case int:
		return float64(t), true
	case int64:
		return float64(t), true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(t), 64)
		return f, err == nil
	default:
		return 0, false
	}
}
