package reconcile

import (
	"math"
	"regexp"
	"time"

	"shipdocs/internal/domain"
)

// isoTimestampRe matches an ISO-8601 timestamp with a date prefix, e.g.
// "2025-03-01T00:00:00Z" or "2025-03-01 14:30:00".
var isoTimestampRe = regexp.MustCompile(`^(\d{4}-\d{2}-\d{2})[T ]`)

// Reconcile merges the ordered field sets into a single shipment record.
// Text fields take the first non-nil value (labels supply provenance),
// line_items_count sums across sets, and the weight/price averages are the
// mean of non-nil values rounded to two decimals. The merge is deterministic:
// the same ordered input always produces the same record.
func Reconcile(sets []domain.FieldSet, labels []string) *domain.ShipmentRecord {
	record := &domain.ShipmentRecord{
		Provenance: make(map[string]string),
	}

	for i, set := range sets {
		label := labelFor(labels, i)
		firstWins(&record.BillOfLadingNumber, set.BillOfLadingNumber, "bill_of_lading_number", label, record.Provenance)
		firstWins(&record.ContainerNumber, set.ContainerNumber, "container_number", label, record.Provenance)
		firstWins(&record.ConsigneeName, set.ConsigneeName, "consignee_name", label, record.Provenance)
		firstWins(&record.ConsigneeAddress, set.ConsigneeAddress, "consignee_address", label, record.Provenance)
		firstWins(&record.Date, set.Date, "date", label, record.Provenance)
	}

	if record.Date != nil {
		normalized := normalizeDate(*record.Date)
		record.Date = &normalized
	}

	record.LineItemsCount = sumCounts(sets, labels, record.Provenance)
	record.AverageGrossWeight = meanOf(sets, labels, record.Provenance, "average_gross_weight",
		func(s domain.FieldSet) *float64 { return s.AverageGrossWeight })
	record.AveragePrice = meanOf(sets, labels, record.Provenance, "average_price",
		func(s domain.FieldSet) *float64 { return s.AveragePrice })

	now := time.Now().UTC()
	record.CreatedAt = now
	record.UpdatedAt = now
	return record
}

// ReaggregateNumeric recomputes the summed and averaged fields of an edited
// record from the original field sets, leaving the identifier fields as the
// user set them. The numeric provenance entries are cleared: the recomputed
// values no longer trace to the labels recorded at reconciliation time.
func ReaggregateNumeric(record *domain.ShipmentRecord, sets []domain.FieldSet) {
	record.LineItemsCount = sumCounts(sets, nil, nil)
	record.AverageGrossWeight = meanOf(sets, nil, nil, "average_gross_weight",
		func(s domain.FieldSet) *float64 { return s.AverageGrossWeight })
	record.AveragePrice = meanOf(sets, nil, nil, "average_price",
		func(s domain.FieldSet) *float64 { return s.AveragePrice })
	if record.Provenance != nil {
		delete(record.Provenance, "line_items_count")
		delete(record.Provenance, "average_gross_weight")
		delete(record.Provenance, "average_price")
	}
	record.UpdatedAt = time.Now().UTC()
}

func firstWins(dst **string, src *string, field, label string, provenance map[string]string) {
	if *dst != nil || src == nil {
		return
	}
	v := *src
	*dst = &v
	if provenance != nil {
		provenance[field] = label
	}
}

func sumCounts(sets []domain.FieldSet, labels []string, provenance map[string]string) *int {
	var total int
	var contributed []string
	found := false
	for i, set := range sets {
		if set.LineItemsCount == nil {
			continue
		}
		total += *set.LineItemsCount
		found = true
		contributed = append(contributed, labelFor(labels, i))
	}
	if !found {
		return nil
	}
	if provenance != nil {
		provenance["line_items_count"] = joinLabels(contributed)
	}
	return &total
}

func meanOf(sets []domain.FieldSet, labels []string, provenance map[string]string, field string, get func(domain.FieldSet) *float64) *float64 {
	var sum float64
	var contributed []string
	n := 0
	for i, set := range sets {
		v := get(set)
		if v == nil {
			continue
		}
		sum += *v
		n++
		contributed = append(contributed, labelFor(labels, i))
	}
	if n == 0 {
		return nil
	}
	mean := math.Round(sum/float64(n)*100) / 100
	if provenance != nil {
		provenance[field] = joinLabels(contributed)
	}
	return &mean
}

// normalizeDate truncates ISO-timestamp-shaped values to their date component.
// Anything else passes through unchanged.
func normalizeDate(s string) string {
	if m := isoTimestampRe.FindStringSubmatch(s); m != nil {
		return m[1]
	}
	return s
}

func labelFor(labels []string, i int) string {
	if i < len(labels) {
		return labels[i]
	}
	return ""
}

func joinLabels(labels []string) string {
	out := ""
	for _, l := range labels {
		if l == "" {
			continue
		}
		if out != "" {
			out += ","
		}
		out += l
	}
	return out
}
