package port

import (
	"context"

	"shipdocs/internal/domain"
)

// BlockType discriminates prompt content blocks.
type BlockType string

const (
	BlockText  BlockType = "text"
	BlockImage BlockType = "image"
)

// ContentBlock is one unit of oracle input: either prompt text or an inline
// image attachment.
type ContentBlock struct {
	Type      BlockType
	Text      string
	MediaType string // e.g. "image/png"; image blocks only
	Data      []byte // raw image bytes; image blocks only
}

// ExtractionPrompt carries the full payload for one joint oracle call: the
// instruction text (with all textual and tabular document content inlined)
// followed by ordered image attachments for image-based documents.
type ExtractionPrompt struct {
	Instructions string
	Blocks       []ContentBlock
}

// FieldOracle abstracts the external multimodal extraction service. One call
// covers all documents of a shipment jointly. Implementations must request
// maximal determinism and must map failures onto domain.ErrOracleUnavailable
// or domain.ErrOracleMalformedResponse.
type FieldOracle interface {
	ExtractFields(ctx context.Context, prompt ExtractionPrompt) (domain.FieldSet, error)
}
