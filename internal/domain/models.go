package domain

import (
	"time"
)

// RawDocument is an uploaded file accepted by intake. It is immutable for the
// lifetime of a processing request; Index preserves submission order.
type RawDocument struct {
	Index       int            `json:"index"`
	Fingerprint string         `json:"fingerprint"`
	Format      DocumentFormat `json:"format"`
	Filename    string         `json:"filename"`
	Payload     []byte         `json:"-"`
	StorageKey  string         `json:"storage_key,omitempty"`
}

// PageImage is one rasterized PDF page.
type PageImage struct {
	Number int
	PNG    []byte
}

// Sheet is one worksheet of a spreadsheet, rows in workbook order.
type Sheet struct {
	Name string
	Rows [][]string
}

// ExtractedContent is the normalized content of one RawDocument. Exactly one
// variant is populated, selected by Kind. The variant is decided once per
// document and never re-derived mid-request.
type ExtractedContent struct {
	Kind   ContentKind
	Text   string
	Pages  []PageImage
	DPI    int
	Sheets []Sheet
}

// FieldSet is the oracle's parsed output for one extraction call. Nil means
// "not found" — never an empty string or zero; reconciliation depends on the
// distinction.
type FieldSet struct {
	BillOfLadingNumber *string  `json:"bill_of_lading_number"`
	ContainerNumber    *string  `json:"container_number"`
	ConsigneeName      *string  `json:"consignee_name"`
	ConsigneeAddress   *string  `json:"consignee_address"`
	Date               *string  `json:"date"`
	LineItemsCount     *int     `json:"line_items_count"`
	AverageGrossWeight *float64 `json:"average_gross_weight"`
	AveragePrice       *float64 `json:"average_price"`
}

// ShipmentRecord is the reconciled output of a processing request. Provenance
// maps a field's JSON name to the label of the FieldSet that supplied it.
type ShipmentRecord struct {
	ID                 string            `json:"id,omitempty"`
	BillOfLadingNumber *string           `json:"bill_of_lading_number"`
	ContainerNumber    *string           `json:"container_number"`
	ConsigneeName      *string           `json:"consignee_name"`
	ConsigneeAddress   *string           `json:"consignee_address"`
	Date               *string           `json:"date"`
	LineItemsCount     *int              `json:"line_items_count"`
	AverageGrossWeight *float64          `json:"average_gross_weight"`
	AveragePrice       *float64          `json:"average_price"`
	Provenance         map[string]string `json:"provenance,omitempty"`
	CreatedAt          time.Time         `json:"created_at,omitempty"`
	UpdatedAt          time.Time         `json:"updated_at,omitempty"`
}

// DocumentReport is the per-document outcome of a processing request. Skipped
// documents never reached extraction; Err carries a non-fatal extraction
// failure for documents that did.
type DocumentReport struct {
	Index    int            `json:"index"`
	Filename string         `json:"filename"`
	Format   DocumentFormat `json:"format,omitempty"`
	Path     ExtractionPath `json:"extraction_path"`
	Skipped  bool           `json:"skipped,omitempty"`
	Reason   string         `json:"reason,omitempty"`
	Err      string         `json:"error,omitempty"`
}

// ProcessResult is the full outcome of one processing request.
type ProcessResult struct {
	Record    *ShipmentRecord  `json:"record"`
	Reports   []DocumentReport `json:"documents"`
	FieldSets []FieldSet       `json:"-"`
}
