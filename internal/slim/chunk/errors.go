package chunk

import "errors"

var (
	errMissingLength      = errors.New("chunk: missing length field")
	errLengthExceedsMax   = errors.New("chunk: declared length exceeds MaxBodySize")
	errMissingIndex       = errors.New("chunk: missing index field")
	errMissingCount       = errors.New("chunk: missing count field")
	errBodyLengthMismatch = errors.New("chunk: body length does not match declared length")
	errHashMismatch       = errors.New("chunk: body hash does not match declared hash")
)
