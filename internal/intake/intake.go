package intake

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"log"
	"mime"
	"path/filepath"
	"strings"
	"time"

	"shipdocs/internal/domain"
)

// Upload is one incoming file as handed over by the edge layer, before any
// classification or parsing.
type Upload struct {
	Filename    string
	ContentType string
	Size        int64
	ModTime     time.Time
	Payload     []byte
}

// contentTypes maps declared MIME types to document formats.
var contentTypes = map[string]domain.DocumentFormat{
	"application/pdf": domain.FormatPDF,
	"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet": domain.FormatXLSX,
}

// extensions maps lowercase file extensions to document formats.
var extensions = map[string]domain.DocumentFormat{
	".pdf":  domain.FormatPDF,
	".xlsx": domain.FormatXLSX,
}

// Ingest classifies and deduplicates a batch of uploads. Files whose declared
// type and extension both fail to resolve are reported as skipped, as are
// duplicates (within the batch, or against fingerprints in seen). Neither is
// fatal. No parsing happens here.
//
// seen carries fingerprints already ingested in the active session; it may be
// nil for per-request scope. It is updated in place with accepted fingerprints.
// Every document, accepted or skipped, carries its upload position as Index,
// so a request's merged report list never holds two files under one index.
func Ingest(uploads []Upload, seen map[string]bool) ([]domain.RawDocument, []domain.DocumentReport) {
	if seen == nil {
		seen = make(map[string]bool)
	}

	var docs []domain.RawDocument
	var reports []domain.DocumentReport

	for i, up := range uploads {
		format, ok := classify(up)
		if !ok {
			log.Printf("intake.Ingest: skipping %q: %v", up.Filename, domain.ErrInvalidFileType)
			reports = append(reports, domain.DocumentReport{
				Index:    i,
				Filename: up.Filename,
				Path:     domain.PathNone,
				Skipped:  true,
				Reason:   domain.ErrInvalidFileType.Error(),
			})
			continue
		}

		fp := Fingerprint(up)
		if seen[fp] {
			log.Printf("intake.Ingest: skipping %q: %v", up.Filename, domain.ErrDuplicateFile)
			reports = append(reports, domain.DocumentReport{
				Index:    i,
				Filename: up.Filename,
				Format:   format,
				Path:     domain.PathNone,
				Skipped:  true,
				Reason:   domain.ErrDuplicateFile.Error(),
			})
			continue
		}
		seen[fp] = true

		docs = append(docs, domain.RawDocument{
			Index:       i,
			Fingerprint: fp,
			Format:      format,
			Filename:    up.Filename,
			Payload:     up.Payload,
		})
	}

	return docs, reports
}

// classify resolves an upload's format from its declared content type first,
// then from its extension.
func classify(up Upload) (domain.DocumentFormat, bool) {
	ct := up.ContentType
	if mt, _, err := mime.ParseMediaType(ct); err == nil {
		ct = mt
	}
	if format, ok := contentTypes[strings.ToLower(ct)]; ok {
		return format, true
	}
	if format, ok := extensions[strings.ToLower(filepath.Ext(up.Filename))]; ok {
		return format, true
	}
	return "", false
}

// Fingerprint derives a deterministic identifier for duplicate detection:
// name, size and modification time when the uploader supplied one, a content
// hash otherwise.
func Fingerprint(up Upload) string {
	h := sha256.New()
	if !up.ModTime.IsZero() {
		fmt.Fprintf(h, "%s|%d|%d", up.Filename, up.Size, up.ModTime.UnixMilli())
	} else {
		h.Write(up.Payload)
	}
	return hex.EncodeToString(h.Sum(nil))
}
