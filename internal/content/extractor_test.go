package content

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"shipdocs/internal/config"
	"shipdocs/internal/domain"
	"shipdocs/internal/ocr"
)

// fakeRunner stands in for pdftoppm/tesseract/pdftotext.
type fakeRunner struct {
	pages     int
	tesseract string
	tessErr   error
	rasterErr error
}

func (f *fakeRunner) Run(_ context.Context, name string, args ...string) ([]byte, []byte, error) {
	switch filepath.Base(name) {
	case "pdftoppm":
		if f.rasterErr != nil {
			return nil, []byte("raster failed"), f.rasterErr
		}
		prefix := args[len(args)-1]
		for i := 1; i <= f.pages; i++ {
			if err := os.WriteFile(prefix+"-"+strconv.Itoa(i)+".png", []byte("png"), 0o644); err != nil {
				return nil, nil, err
			}
		}
		return nil, nil, nil
	case "tesseract":
		if f.tessErr != nil {
			return nil, []byte("ocr failed"), f.tessErr
		}
		return []byte(f.tesseract), nil, nil
	}
	return nil, nil, errors.New("unexpected command: " + name)
}

func newTestExtractor(t *testing.T, runner *fakeRunner, ocrEnabled bool, primary, secondary string) *Extractor {
	t.Helper()
	fb := ocr.NewFallback(config.OCRConfig{Enabled: ocrEnabled, DPI: 150}, runner)
	e := NewExtractor(config.ExtractConfig{MinTextChars: 10, Concurrency: 2}, fb, runner)
	e.primaryText = func(context.Context, []byte) (string, error) { return primary, nil }
	e.secondaryText = func(context.Context, []byte) (string, error) { return secondary, nil }
	return e
}

func pdfDoc(index int, name string) domain.RawDocument {
	return domain.RawDocument{Index: index, Format: domain.FormatPDF, Filename: name, Payload: []byte("%PDF")}
}

func TestExtract_TextPDFAboveThresholdNeverOCRs(t *testing.T) {
	runner := &fakeRunner{pages: 1, tesseract: "should not be used"}
	e := newTestExtractor(t, runner, true, "BILL OF LADING ZMLU34110002", "")

	content, path, err := e.Extract(context.Background(), pdfDoc(0, "bol.pdf"))
	require.NoError(t, err)
	assert.Equal(t, domain.PathText, path)
	assert.Equal(t, domain.ContentText, content.Kind)
	assert.Equal(t, "BILL OF LADING ZMLU34110002", content.Text)
}

func TestExtract_SecondaryTextWinsWhenPrimaryThin(t *testing.T) {
	runner := &fakeRunner{}
	e := newTestExtractor(t, runner, true, "   ", "CONSIGNEE: ACME TRADING CO LTD")

	content, path, err := e.Extract(context.Background(), pdfDoc(0, "bol.pdf"))
	require.NoError(t, err)
	assert.Equal(t, domain.PathText, path)
	assert.Equal(t, "CONSIGNEE: ACME TRADING CO LTD", content.Text)
}

func TestExtract_BelowThresholdTakesOCRPath(t *testing.T) {
	runner := &fakeRunner{pages: 2, tesseract: "OCR RECOVERED SHIPMENT TEXT"}
	e := newTestExtractor(t, runner, true, "x", "")

	content, path, err := e.Extract(context.Background(), pdfDoc(0, "scan.pdf"))
	require.NoError(t, err)
	assert.Equal(t, domain.PathOCR, path)
	assert.Equal(t, domain.ContentText, content.Kind)
	assert.Contains(t, content.Text, "OCR RECOVERED SHIPMENT TEXT")
}

func TestExtract_OCRDisabledForwardsPageImages(t *testing.T) {
	runner := &fakeRunner{pages: 2}
	e := newTestExtractor(t, runner, false, "", "")

	content, path, err := e.Extract(context.Background(), pdfDoc(0, "scan.pdf"))
	require.NoError(t, err)
	assert.Equal(t, domain.PathImage, path)
	assert.Equal(t, domain.ContentImage, content.Kind)
	assert.Len(t, content.Pages, 2)
}

func TestExtract_RecognitionFailureDegradesToImages(t *testing.T) {
	runner := &fakeRunner{pages: 1, tessErr: errors.New("tesseract missing")}
	e := newTestExtractor(t, runner, true, "", "")

	content, path, err := e.Extract(context.Background(), pdfDoc(0, "scan.pdf"))
	require.NoError(t, err)
	assert.Equal(t, domain.PathImage, path)
	assert.Len(t, content.Pages, 1)
}

func TestExtract_RasterizationFailureIsOCRFailure(t *testing.T) {
	runner := &fakeRunner{rasterErr: errors.New("broken pdf")}
	e := newTestExtractor(t, runner, true, "", "")

	_, _, err := e.Extract(context.Background(), pdfDoc(0, "scan.pdf"))
	assert.ErrorIs(t, err, domain.ErrOCRFailure)
}

func TestExtract_XLSX(t *testing.T) {
	payload := buildWorkbook(t, map[string][][]interface{}{
		"Invoice": {
			{"Description", "Gross Weight", "Price"},
			{"Widget A", 150.0, 100.0},
			{"Widget B", 174.76, 200.0},
		},
	})

	e := newTestExtractor(t, &fakeRunner{}, true, "", "")
	doc := domain.RawDocument{Format: domain.FormatXLSX, Filename: "invoice.xlsx", Payload: payload}

	content, path, err := e.Extract(context.Background(), doc)
	require.NoError(t, err)
	assert.Equal(t, domain.PathTabular, path)
	assert.Equal(t, domain.ContentTabular, content.Kind)
	require.Len(t, content.Sheets, 1)
	assert.Equal(t, "Invoice", content.Sheets[0].Name)
	require.Len(t, content.Sheets[0].Rows, 3)
	assert.Equal(t, []string{"Description", "Gross Weight", "Price"}, content.Sheets[0].Rows[0])
}

func TestExtract_CorruptXLSXIsUnsupported(t *testing.T) {
	e := newTestExtractor(t, &fakeRunner{}, true, "", "")
	doc := domain.RawDocument{Format: domain.FormatXLSX, Filename: "bad.xlsx", Payload: []byte("not a zip")}

	_, _, err := e.Extract(context.Background(), doc)
	assert.ErrorIs(t, err, domain.ErrUnsupportedDocument)
}

func TestExtractAll_BatchSurvivesSingleFailure(t *testing.T) {
	e := newTestExtractor(t, &fakeRunner{}, true, "PLENTY OF EXTRACTABLE TEXT HERE", "")

	docs := []domain.RawDocument{
		pdfDoc(0, "good.pdf"),
		{Index: 1, Format: domain.FormatXLSX, Filename: "bad.xlsx", Payload: []byte("garbage")},
		pdfDoc(2, "also-good.pdf"),
	}

	extractions, reports := e.ExtractAll(context.Background(), docs)
	require.Len(t, extractions, 2)
	require.Len(t, reports, 3)

	assert.Equal(t, "good.pdf", extractions[0].Doc.Filename)
	assert.Equal(t, "also-good.pdf", extractions[1].Doc.Filename)

	assert.Empty(t, reports[0].Err)
	assert.Contains(t, reports[1].Err, "could not be parsed")
	assert.Empty(t, reports[2].Err)
}

func TestScrapeTextOperators(t *testing.T) {
	stream := `BT /F1 12 Tf 72 720 Td (BILL OF LADING) Tj 0 -14 Td [(No.) -250 (ZMLU34110002)] TJ ET`
	got := scrapeTextOperators(stream)
	assert.Contains(t, got, "BILL OF LADING")
	assert.Contains(t, got, "ZMLU34110002")
}

func TestScrapeTextOperators_Escapes(t *testing.T) {
	got := scrapeTextOperators(`(Parens \(nested\) and \\ backslash) Tj`)
	assert.Equal(t, `Parens (nested) and \ backslash`, got)
}

func buildWorkbook(t *testing.T, sheets map[string][][]interface{}) []byte {
	t.Helper()
	f := excelize.NewFile()
	first := true
	for name, rows := range sheets {
		if first {
			require.NoError(t, f.SetSheetName("Sheet1", name))
			first = false
		} else {
			_, err := f.NewSheet(name)
			require.NoError(t, err)
		}
		for i, row := range rows {
			cell, err := excelize.CoordinatesToCellName(1, i+1)
			require.NoError(t, err)
			require.NoError(t, f.SetSheetRow(name, cell, &row))
		}
	}
	var buf bytes.Buffer
	require.NoError(t, f.Write(&buf))
	return buf.Bytes()
}
