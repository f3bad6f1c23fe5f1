package content

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"

	"shipdocs/internal/ocr"
)

// pdfTextPrimary extracts the text layer of a PDF with pdfcpu: dump each
// page's content stream and scrape the text-showing operators. Returns "" for
// image-only PDFs rather than an error.
func pdfTextPrimary(_ context.Context, payload []byte) (string, error) {
	tmpDir, err := os.MkdirTemp("", "shipdocs-pdf-*")
	if err != nil {
		return "", fmt.Errorf("create temp dir: %w", err)
	}
	defer os.RemoveAll(tmpDir)

	src := filepath.Join(tmpDir, "in.pdf")
	if err := os.WriteFile(src, payload, 0o600); err != nil {
		return "", fmt.Errorf("write temp pdf: %w", err)
	}

	pdfCtx, err := api.ReadContextFile(src)
	if err != nil {
		return "", fmt.Errorf("read pdf: %w", err)
	}

	outDir := filepath.Join(tmpDir, "content")
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return "", err
	}
	conf := model.NewDefaultConfiguration()
	if err := api.ExtractContentFile(src, outDir, nil, conf); err != nil {
		return "", fmt.Errorf("extract pdf content: %w", err)
	}

	var b strings.Builder
	for page := 1; page <= pdfCtx.PageCount; page++ {
		stream := readPageContent(outDir, page)
		if stream == nil {
			continue
		}
		txt := scrapeTextOperators(string(stream))
		if txt == "" {
			continue
		}
		if b.Len() > 0 {
			b.WriteString("\n")
		}
		b.WriteString(txt)
	}
	return b.String(), nil
}

// readPageContent loads the extracted content stream for one page, trying the
// filename patterns pdfcpu has used across versions.
func readPageContent(outDir string, page int) []byte {
	for _, pattern := range []string{"Content_page_%d.txt", "Content_page_%d", "page_%d.txt"} {
		if data, err := os.ReadFile(filepath.Join(outDir, fmt.Sprintf(pattern, page))); err == nil {
			return data
		}
	}
	return nil
}

// scrapeTextOperators pulls the arguments of Tj/TJ/'/'' operators out of a raw
// PDF content stream: literal strings in parentheses with their escape
// sequences resolved. Layout is approximated with spaces and newlines on text
// positioning operators, which is enough for field extraction.
func scrapeTextOperators(stream string) string {
	var b strings.Builder
	i := 0
	for i < len(stream) {
		c := stream[i]
		switch c {
		case '(':
			lit, next := readStringLiteral(stream, i)
			b.WriteString(lit)
			i = next
		case 'T':
			// Td/TD/T* move to a new line of text
			if i+1 < len(stream) && (stream[i+1] == 'd' || stream[i+1] == 'D' || stream[i+1] == '*') {
				b.WriteByte('\n')
			}
			i++
		case ']':
			// end of a TJ array: separate from following text
			b.WriteByte(' ')
			i++
		default:
			i++
		}
	}
	return strings.TrimSpace(b.String())
}

// readStringLiteral consumes a PDF string literal starting at the '(' at
// position start and returns the decoded text plus the index after the
// closing ')'. Balanced parentheses and backslash escapes per the PDF spec.
func readStringLiteral(stream string, start int) (string, int) {
	var b strings.Builder
	depth := 0
	i := start
	for i < len(stream) {
		c := stream[i]
		switch c {
		case '\\':
			if i+1 < len(stream) {
				switch stream[i+1] {
				case 'n':
					b.WriteByte('\n')
				case 't':
					b.WriteByte('\t')
				case 'r', 'b', 'f':
					// ignore
				default:
					b.WriteByte(stream[i+1])
				}
				i += 2
				continue
			}
			i++
		case '(':
			depth++
			if depth > 1 {
				b.WriteByte(c)
			}
			i++
		case ')':
			depth--
			if depth == 0 {
				return b.String(), i + 1
			}
			b.WriteByte(c)
			i++
		default:
			b.WriteByte(c)
			i++
		}
	}
	return b.String(), i
}

// pdfTextSecondary shells out to pdftotext as the second attempt at the text
// layer, the same binary the OCR package depends on.
func pdfTextSecondary(ctx context.Context, runner ocr.Runner, bin string, payload []byte) (string, error) {
	tmp, err := os.CreateTemp("", "shipdocs-pdf-*.pdf")
	if err != nil {
		return "", fmt.Errorf("create temp pdf: %w", err)
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(payload); err != nil {
		tmp.Close()
		return "", fmt.Errorf("write temp pdf: %w", err)
	}
	tmp.Close()

	// pdftotext -layout -enc UTF-8 -eol unix <path> -
	out, errb, err := runner.Run(ctx, bin, "-layout", "-enc", "UTF-8", "-eol", "unix", tmp.Name(), "-")
	if err != nil {
		return "", fmt.Errorf("pdftotext: %w: %s", err, string(errb))
	}
	return string(out), nil
}
