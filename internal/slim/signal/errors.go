package signal

import "errors"

var (
	errMissingType        = errors.New("signal: missing type field")
	errBodyLengthMismatch = errors.New("signal: body length does not match declared length")
	errHashMismatch       = errors.New("signal: hash does not match declared hash")
	errBadElementType     = errors.New("signal: missing-indices array element tag is not integer")
)
