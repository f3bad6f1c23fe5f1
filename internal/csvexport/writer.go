package csvexport

import (
	"encoding/csv"
	"io"
	"sort"
	"strconv"
	"strings"
	"time"

	"shipdocs/internal/port"
)

// UTF-8 BOM bytes for Excel compatibility on Windows.
var BOM = []byte{0xEF, 0xBB, 0xBF}

// columns defines the CSV header row.
var columns = []string{
	"Record ID",
	"Bill of Lading Number",
	"Container Number",
	"Consignee Name",
	"Consignee Address",
	"Date",
	"Line Item Count",
	"Average Gross Weight",
	"Average Price",
	"Source Documents",
	"Provenance",
	"Created At",
	"Updated At",
}

// Writer wraps csv.Writer for exporting shipment records as CSV.
type Writer struct {
	csv *csv.Writer
}

// NewWriter creates a Writer that writes CSV to w.
func NewWriter(w io.Writer) *Writer {
	return &Writer{csv: csv.NewWriter(w)}
}

// WriteHeader writes the header row.
func (w *Writer) WriteHeader() error {
	return w.csv.Write(columns)
}

// WriteRecords converts stored records to CSV rows and writes them.
func (w *Writer) WriteRecords(records []port.StoredRecord) error {
	for i := range records {
		row := recordToRow(&records[i])
		if err := w.csv.Write(row); err != nil {
			return err
		}
	}
	return nil
}

// Flush flushes the underlying csv.Writer buffer.
func (w *Writer) Flush() {
	w.csv.Flush()
}

// Error returns any error from the underlying csv.Writer.
func (w *Writer) Error() error {
	return w.csv.Error()
}

// recordToRow converts a single stored record to a row. Fields the oracle
// never found stay empty rather than printing a zero.
func recordToRow(stored *port.StoredRecord) []string {
	row := make([]string, len(columns))
	rec := &stored.Record

	row[0] = rec.ID
	row[1] = strOrEmpty(rec.BillOfLadingNumber)
	row[2] = strOrEmpty(rec.ContainerNumber)
	row[3] = strOrEmpty(rec.ConsigneeName)
	row[4] = strOrEmpty(rec.ConsigneeAddress)
	row[5] = strOrEmpty(rec.Date)
	if rec.LineItemsCount != nil {
		row[6] = strconv.Itoa(*rec.LineItemsCount)
	}
	if rec.AverageGrossWeight != nil {
		row[7] = strconv.FormatFloat(*rec.AverageGrossWeight, 'f', 2, 64)
	}
	if rec.AveragePrice != nil {
		row[8] = strconv.FormatFloat(*rec.AveragePrice, 'f', 2, 64)
	}
	row[9] = sourceDocuments(stored)
	row[10] = summarizeProvenance(rec.Provenance)
	row[11] = formatTime(rec.CreatedAt)
	row[12] = formatTime(rec.UpdatedAt)
	return row
}

// sourceDocuments lists the filenames of the documents that produced the
// record, in submission order.
func sourceDocuments(stored *port.StoredRecord) string {
	var names []string
	for _, rep := range stored.Reports {
		if rep.Skipped {
			continue
		}
		names = append(names, rep.Filename)
	}
	return strings.Join(names, "; ")
}

// summarizeProvenance flattens the field→source map into "field=source"
// pairs, sorted by field name for stable output.
func summarizeProvenance(prov map[string]string) string {
	if len(prov) == 0 {
		return ""
	}
	fields := make([]string, 0, len(prov))
	for f := range prov {
		fields = append(fields, f)
	}
	sort.Strings(fields)

	pairs := make([]string, 0, len(fields))
	for _, f := range fields {
		pairs = append(pairs, f+"="+prov[f])
	}
	return strings.Join(pairs, "; ")
}

func strOrEmpty(p *string) string {
	if p == nil {
		return ""
	}
	return *p
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}
