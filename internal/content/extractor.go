package content

import (
	"context"
	"fmt"
	"log"
	"strings"

	"golang.org/x/sync/errgroup"

	"shipdocs/internal/config"
	"shipdocs/internal/domain"
	"shipdocs/internal/ocr"
)

// Extraction pairs a document with its extracted content. Content is only
// valid when Report.Err is empty and the document was not skipped.
type Extraction struct {
	Doc     domain.RawDocument
	Content domain.ExtractedContent
	Path    domain.ExtractionPath
}

// Extractor turns raw documents into normalized content. PDFs try the pdfcpu
// text layer first, then pdftotext, then degrade to the OCR/image path;
// spreadsheets always produce tabular content.
type Extractor struct {
	cfg      config.ExtractConfig
	fallback *ocr.Fallback
	runner   ocr.Runner

	// seams for tests; default to the real implementations
	primaryText   func(ctx context.Context, payload []byte) (string, error)
	secondaryText func(ctx context.Context, payload []byte) (string, error)
}

// NewExtractor creates an Extractor. A nil runner defaults to os/exec.
func NewExtractor(cfg config.ExtractConfig, fallback *ocr.Fallback, runner ocr.Runner) *Extractor {
	if runner == nil {
		runner = ocr.NewExecRunner()
	}
	if cfg.MinTextChars <= 0 {
		cfg.MinTextChars = 32
	}
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = 4
	}
	if cfg.PdftotextBin == "" {
		cfg.PdftotextBin = "pdftotext"
	}
	e := &Extractor{cfg: cfg, fallback: fallback, runner: runner}
	e.primaryText = pdfTextPrimary
	e.secondaryText = func(ctx context.Context, payload []byte) (string, error) {
		return pdfTextSecondary(ctx, e.runner, e.cfg.PdftotextBin, payload)
	}
	return e
}

// Extract produces the content variant for one document. The variant choice
// is made here, once, and callers must not re-derive it.
func (e *Extractor) Extract(ctx context.Context, doc domain.RawDocument) (domain.ExtractedContent, domain.ExtractionPath, error) {
	switch doc.Format {
	case domain.FormatPDF:
		return e.extractPDF(ctx, doc)
	case domain.FormatXLSX:
		sheets, err := extractXLSX(doc.Payload)
		if err != nil {
			return domain.ExtractedContent{}, domain.PathNone, err
		}
		return domain.ExtractedContent{Kind: domain.ContentTabular, Sheets: sheets}, domain.PathTabular, nil
	default:
		return domain.ExtractedContent{}, domain.PathNone, fmt.Errorf("%w: format %q", domain.ErrUnsupportedDocument, doc.Format)
	}
}

func (e *Extractor) extractPDF(ctx context.Context, doc domain.RawDocument) (domain.ExtractedContent, domain.ExtractionPath, error) {
	text, err := e.primaryText(ctx, doc.Payload)
	if err != nil {
		log.Printf("content.Extract: primary text extraction failed for %q: %v", doc.Filename, err)
	}
	if usableChars(text) >= e.cfg.MinTextChars {
		return domain.ExtractedContent{Kind: domain.ContentText, Text: text}, domain.PathText, nil
	}

	alt, err := e.secondaryText(ctx, doc.Payload)
	if err != nil {
		log.Printf("content.Extract: secondary text extraction failed for %q: %v", doc.Filename, err)
	}
	if usableChars(alt) >= e.cfg.MinTextChars {
		return domain.ExtractedContent{Kind: domain.ContentText, Text: alt}, domain.PathText, nil
	}

	// Image-based PDF: rasterize, then OCR when enabled.
	log.Printf("content.Extract: %q yielded %d usable chars, below threshold %d; treating as image-based",
		doc.Filename, max(usableChars(text), usableChars(alt)), e.cfg.MinTextChars)

	pages, err := e.fallback.Rasterize(ctx, doc.Payload, 0)
	if err != nil {
		return domain.ExtractedContent{}, domain.PathNone, err
	}

	if e.fallback.Enabled() {
		recognized, err := e.fallback.RecognizePages(ctx, pages)
		if err == nil && usableChars(recognized) > max(usableChars(text), usableChars(alt)) {
			return domain.ExtractedContent{Kind: domain.ContentText, Text: recognized}, domain.PathOCR, nil
		}
		if err != nil {
			log.Printf("content.Extract: recognition failed for %q, forwarding page images: %v", doc.Filename, err)
		}
	}

	return domain.ExtractedContent{Kind: domain.ContentImage, Pages: pages, DPI: e.fallback.DPI()}, domain.PathImage, nil
}

// ExtractAll runs Extract for every document concurrently, bounded by the
// configured limit, and reassembles results in submission order. A failed
// document becomes a report entry, never an aborted batch.
func (e *Extractor) ExtractAll(ctx context.Context, docs []domain.RawDocument) ([]Extraction, []domain.DocumentReport) {
	results := make([]Extraction, len(docs))
	errs := make([]error, len(docs))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(e.cfg.Concurrency)
	for i, doc := range docs {
		g.Go(func() error {
			content, path, err := e.Extract(ctx, doc)
			if err != nil {
				errs[i] = err
				results[i] = Extraction{Doc: doc, Path: domain.PathNone}
				return nil // per-document failures never abort the batch
			}
			results[i] = Extraction{Doc: doc, Content: content, Path: path}
			return nil
		})
	}
	_ = g.Wait()

	var ok []Extraction
	var reports []domain.DocumentReport
	for i, res := range results {
		report := domain.DocumentReport{
			Index:    res.Doc.Index,
			Filename: res.Doc.Filename,
			Format:   res.Doc.Format,
			Path:     res.Path,
		}
		if errs[i] != nil {
			report.Err = errs[i].Error()
			reports = append(reports, report)
			continue
		}
		reports = append(reports, report)
		ok = append(ok, res)
	}
	return ok, reports
}

// usableChars counts non-whitespace characters, the measure compared against
// the minimal-content threshold.
func usableChars(s string) int {
	n := 0
	for _, r := range s {
		if !strings.ContainsRune(" \t\n\r\f\v", r) {
			n++
		}
	}
	return n
}
