package domain

// DocumentFormat identifies the source format of an uploaded document.
type DocumentFormat string

const (
	FormatPDF  DocumentFormat = "pdf"
	FormatXLSX DocumentFormat = "xlsx"
)

// ExtractionPath records which extraction route produced a document's content.
type ExtractionPath string

const (
	PathText    ExtractionPath = "text"
	PathOCR     ExtractionPath = "ocr"
	PathImage   ExtractionPath = "image"
	PathTabular ExtractionPath = "tabular"
	PathNone    ExtractionPath = "none"
)

// ContentKind is the discriminator of the ExtractedContent union.
type ContentKind string

const (
	ContentText    ContentKind = "text"
	ContentImage   ContentKind = "image"
	ContentTabular ContentKind = "tabular"
)
