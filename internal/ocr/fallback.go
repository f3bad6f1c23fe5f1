package ocr

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"shipdocs/internal/config"
	"shipdocs/internal/domain"
)

// Fallback rasterizes image-based PDFs and optionally recognizes their text.
// Rasterization shells out to pdftoppm; recognition to tesseract.
type Fallback struct {
	cfg    config.OCRConfig
	runner Runner
}

// NewFallback creates a Fallback with the given configuration. A nil runner
// defaults to os/exec.
func NewFallback(cfg config.OCRConfig, runner Runner) *Fallback {
	if runner == nil {
		runner = NewExecRunner()
	}
	if cfg.DPI <= 0 {
		cfg.DPI = 300
	}
	if cfg.Language == "" {
		cfg.Language = "eng"
	}
	if cfg.PdftoppmBin == "" {
		cfg.PdftoppmBin = "pdftoppm"
	}
	if cfg.TesseractBin == "" {
		cfg.TesseractBin = "tesseract"
	}
	return &Fallback{cfg: cfg, runner: runner}
}

// DPI returns the configured rendering resolution.
func (f *Fallback) DPI() int {
	return f.cfg.DPI
}

// Enabled reports whether text recognition is switched on. Rasterization is
// always available; recognition is an optimization the oracle can do without.
func (f *Fallback) Enabled() bool {
	return f.cfg.Enabled
}

// Rasterize renders each PDF page to a PNG at the given DPI (0 falls back to
// the configured default). Pages come back in page order.
func (f *Fallback) Rasterize(ctx context.Context, pdf []byte, dpi int) ([]domain.PageImage, error) {
	if dpi <= 0 {
		dpi = f.cfg.DPI
	}

	tmpDir, err := os.MkdirTemp("", "shipdocs-ocr-*")
	if err != nil {
		return nil, fmt.Errorf("create temp dir: %w", err)
	}
	defer func() {
		if err := os.RemoveAll(tmpDir); err != nil {
			log.Printf("ocr.Rasterize: failed to remove temp dir %q: %v", tmpDir, err)
		}
	}()

	src := filepath.Join(tmpDir, "in.pdf")
	if err := os.WriteFile(src, pdf, 0o600); err != nil {
		return nil, fmt.Errorf("write temp pdf: %w", err)
	}

	prefix := filepath.Join(tmpDir, "page")
	// pdftoppm -r <dpi> -png <in.pdf> <tmp/page>
	_, errb, err := f.runner.Run(ctx, f.cfg.PdftoppmBin, "-r", strconv.Itoa(dpi), "-png", src, prefix)
	if err != nil {
		return nil, fmt.Errorf("%w: pdftoppm: %v: %s", domain.ErrOCRFailure, err, truncate(string(errb), 512))
	}

	// generated as prefix-1.png, prefix-2.png, ...
	matches, _ := filepath.Glob(prefix + "-*.png")
	sortByPageNumber(matches)
	if f.cfg.MaxPages > 0 && len(matches) > f.cfg.MaxPages {
		matches = matches[:f.cfg.MaxPages]
	}
	if len(matches) == 0 {
		return nil, fmt.Errorf("%w: pdftoppm produced no images", domain.ErrOCRFailure)
	}

	pages := make([]domain.PageImage, 0, len(matches))
	for i, m := range matches {
		png, err := os.ReadFile(m)
		if err != nil {
			return nil, fmt.Errorf("%w: read page image: %v", domain.ErrOCRFailure, err)
		}
		pages = append(pages, domain.PageImage{Number: i + 1, PNG: png})
	}

	if f.cfg.KeepArtifacts {
		f.keepArtifacts(pages)
	}
	return pages, nil
}

// RecognizeText runs tesseract over one page image and returns the recognized
// text. Callers should check Enabled first.
func (f *Fallback) RecognizeText(ctx context.Context, png []byte) (string, error) {
	tmp, err := os.CreateTemp("", "shipdocs-ocr-page-*.png")
	if err != nil {
		return "", fmt.Errorf("create temp image: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(png); err != nil {
		tmp.Close()
		return "", fmt.Errorf("write temp image: %w", err)
	}
	tmp.Close()

	// tesseract <img> stdout -l <lang>
	out, errb, err := f.runner.Run(ctx, f.cfg.TesseractBin, tmp.Name(), "stdout", "-l", f.cfg.Language)
	if err != nil {
		return "", fmt.Errorf("tesseract: %w: %s", err, truncate(string(errb), 512))
	}
	return string(out), nil
}

// RecognizePages OCRs every page and joins the results with form-feed page
// breaks. Per-page failures are logged and skipped; an error is returned only
// when no page yields text.
func (f *Fallback) RecognizePages(ctx context.Context, pages []domain.PageImage) (string, error) {
	var b strings.Builder
	var failures int
	for _, p := range pages {
		txt, err := f.RecognizeText(ctx, p.PNG)
		if err != nil {
			log.Printf("ocr.RecognizePages: page %d failed: %v", p.Number, err)
			failures++
			continue
		}
		if b.Len() > 0 {
			b.WriteString("\n\f\n")
		}
		b.WriteString(txt)
	}
	if b.Len() == 0 && failures > 0 {
		return "", fmt.Errorf("%w: all %d pages failed recognition", domain.ErrOCRFailure, failures)
	}
	return b.String(), nil
}

// keepArtifacts copies rendered pages into the artifact dir. Diagnostic only;
// failures are logged and ignored.
func (f *Fallback) keepArtifacts(pages []domain.PageImage) {
	if err := os.MkdirAll(f.cfg.ArtifactDir, 0o755); err != nil {
		log.Printf("ocr.keepArtifacts: mkdir %q: %v", f.cfg.ArtifactDir, err)
		return
	}
	for _, p := range pages {
		name := filepath.Join(f.cfg.ArtifactDir, fmt.Sprintf("page-%03d.png", p.Number))
		if err := os.WriteFile(name, p.PNG, 0o644); err != nil {
			log.Printf("ocr.keepArtifacts: write %q: %v", name, err)
		}
	}
}

// sortByPageNumber orders pdftoppm output files numerically so page-10 sorts
// after page-9.
func sortByPageNumber(paths []string) {
	num := func(p string) int {
		base := strings.TrimSuffix(filepath.Base(p), ".png")
		if i := strings.LastIndex(base, "-"); i >= 0 {
			if n, err := strconv.Atoi(base[i+1:]); err == nil {
				return n
			}
		}
		return 0
	}
	sort.Slice(paths, func(i, j int) bool { return num(paths[i]) < num(paths[j]) })
}
