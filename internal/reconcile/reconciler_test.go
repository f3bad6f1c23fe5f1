package reconcile_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"shipdocs/internal/domain"
	"shipdocs/internal/reconcile"
)

func strPtr(s string) *string   { return &s }
func intPtr(i int) *int         { return &i }
func fltPtr(f float64) *float64 { return &f }

func TestReconcile_FirstWriterWinsForText(t *testing.T) {
	sets := []domain.FieldSet{
		{BillOfLadingNumber: strPtr("A")},
		{BillOfLadingNumber: strPtr("B")},
	}

	record := reconcile.Reconcile(sets, []string{"bol.pdf", "invoice.xlsx"})

	require.NotNil(t, record.BillOfLadingNumber)
	assert.Equal(t, "A", *record.BillOfLadingNumber)
	assert.Equal(t, "bol.pdf", record.Provenance["bill_of_lading_number"])
}

func TestReconcile_NilSkippedForText(t *testing.T) {
	sets := []domain.FieldSet{
		{},
		{ConsigneeName: strPtr("ACME TRADING CO")},
	}

	record := reconcile.Reconcile(sets, []string{"first", "second"})

	require.NotNil(t, record.ConsigneeName)
	assert.Equal(t, "ACME TRADING CO", *record.ConsigneeName)
	assert.Equal(t, "second", record.Provenance["consignee_name"])
	assert.Nil(t, record.ContainerNumber)
}

func TestReconcile_LineItemsSum(t *testing.T) {
	sets := []domain.FieldSet{
		{LineItemsCount: intPtr(10)},
		{LineItemsCount: intPtr(8)},
		{},
	}

	record := reconcile.Reconcile(sets, []string{"a", "b", "c"})

	require.NotNil(t, record.LineItemsCount)
	assert.Equal(t, 18, *record.LineItemsCount)
	assert.Equal(t, "a,b", record.Provenance["line_items_count"])
}

func TestReconcile_LineItemsAllNil(t *testing.T) {
	record := reconcile.Reconcile([]domain.FieldSet{{}, {}}, nil)
	assert.Nil(t, record.LineItemsCount)
}

func TestReconcile_AveragesAreMeansRoundedTo2dp(t *testing.T) {
	sets := []domain.FieldSet{
		{AverageGrossWeight: fltPtr(100), AveragePrice: fltPtr(10.333)},
		{AverageGrossWeight: fltPtr(200), AveragePrice: fltPtr(10.334)},
	}

	record := reconcile.Reconcile(sets, []string{"x", "y"})

	require.NotNil(t, record.AverageGrossWeight)
	assert.Equal(t, 150.00, *record.AverageGrossWeight)
	require.NotNil(t, record.AveragePrice)
	assert.InDelta(t, 10.33, *record.AveragePrice, 0.0001)
	assert.Equal(t, "x,y", record.Provenance["average_gross_weight"])
}

func TestReconcile_AverageSingleValue(t *testing.T) {
	sets := []domain.FieldSet{
		{AverageGrossWeight: fltPtr(162.38)},
		{},
	}

	record := reconcile.Reconcile(sets, []string{"a", "b"})

	require.NotNil(t, record.AverageGrossWeight)
	assert.Equal(t, 162.38, *record.AverageGrossWeight)
	assert.Nil(t, record.AveragePrice)
}

func TestReconcile_DateTruncation(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"2025-03-01T00:00:00Z", "2025-03-01"},
		{"2025-03-01 14:30:00", "2025-03-01"},
		{"2025-03-01", "2025-03-01"},
		{"01 MAR 2025", "01 MAR 2025"},
	}
	for _, tc := range cases {
		record := reconcile.Reconcile([]domain.FieldSet{{Date: strPtr(tc.in)}}, []string{"doc"})
		require.NotNil(t, record.Date, tc.in)
		assert.Equal(t, tc.want, *record.Date, tc.in)
	}
}

func TestReconcile_Deterministic(t *testing.T) {
	sets := []domain.FieldSet{
		{BillOfLadingNumber: strPtr("ZMLU34110002"), LineItemsCount: intPtr(2), AverageGrossWeight: fltPtr(162.38)},
		{ContainerNumber: strPtr("TEMU1234567"), LineItemsCount: intPtr(3), AveragePrice: fltPtr(11.5)},
	}
	labels := []string{"bol.pdf", "invoice.xlsx"}

	first := reconcile.Reconcile(sets, labels)
	second := reconcile.Reconcile(sets, labels)

	assert.Equal(t, *first.BillOfLadingNumber, *second.BillOfLadingNumber)
	assert.Equal(t, *first.ContainerNumber, *second.ContainerNumber)
	assert.Equal(t, *first.LineItemsCount, *second.LineItemsCount)
	assert.Equal(t, *first.AverageGrossWeight, *second.AverageGrossWeight)
	assert.Equal(t, *first.AveragePrice, *second.AveragePrice)
	assert.Equal(t, first.Provenance, second.Provenance)
}

func TestReconcile_InputNotMutated(t *testing.T) {
	bol := "ORIGINAL"
	sets := []domain.FieldSet{{BillOfLadingNumber: &bol}}

	record := reconcile.Reconcile(sets, []string{"doc"})
	*record.BillOfLadingNumber = "CHANGED"

	assert.Equal(t, "ORIGINAL", bol)
}

func TestReaggregateNumeric_ClearsStaleNumericProvenance(t *testing.T) {
	record := &domain.ShipmentRecord{
		BillOfLadingNumber: strPtr("ZMLU34110002"),
		LineItemsCount:     intPtr(2),
		Provenance: map[string]string{
			"bill_of_lading_number": "bol.pdf",
			"line_items_count":      "invoice.xlsx",
			"average_gross_weight":  "invoice.xlsx",
			"average_price":         "invoice.xlsx",
		},
	}

	reconcile.ReaggregateNumeric(record, []domain.FieldSet{
		{LineItemsCount: intPtr(7)},
	})

	require.NotNil(t, record.LineItemsCount)
	assert.Equal(t, 7, *record.LineItemsCount)
	assert.Equal(t, "bol.pdf", record.Provenance["bill_of_lading_number"])
	assert.NotContains(t, record.Provenance, "line_items_count")
	assert.NotContains(t, record.Provenance, "average_gross_weight")
	assert.NotContains(t, record.Provenance, "average_price")
}

func TestReaggregateNumeric(t *testing.T) {
	sets := []domain.FieldSet{
		{LineItemsCount: intPtr(4), AverageGrossWeight: fltPtr(50)},
		{LineItemsCount: intPtr(6), AverageGrossWeight: fltPtr(150)},
	}

	edited := &domain.ShipmentRecord{
		BillOfLadingNumber: strPtr("USER-EDITED"),
		LineItemsCount:     intPtr(999),
	}

	reconcile.ReaggregateNumeric(edited, sets)

	assert.Equal(t, "USER-EDITED", *edited.BillOfLadingNumber)
	require.NotNil(t, edited.LineItemsCount)
	assert.Equal(t, 10, *edited.LineItemsCount)
	require.NotNil(t, edited.AverageGrossWeight)
	assert.Equal(t, 100.00, *edited.AverageGrossWeight)
	assert.False(t, edited.UpdatedAt.IsZero())
}
