package domain

import "errors"

var (
	ErrNotFound                = errors.New("resource not found")
	ErrInvalidFileType         = errors.New("file type not allowed")
	ErrDuplicateFile           = errors.New("duplicate file")
	ErrUnsupportedDocument     = errors.New("document could not be parsed")
	ErrOCRFailure              = errors.New("ocr rasterization failed")
	ErrNoContent               = errors.New("no usable content extracted from any document")
	ErrOracleUnavailable       = errors.New("extraction oracle unavailable")
	ErrOracleMalformedResponse = errors.New("extraction oracle returned a malformed response")
	ErrUploadFailed            = errors.New("file upload to storage failed")
)
