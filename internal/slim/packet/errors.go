package packet

import "errors"

var (
	errMissingID      = errors.New("packet: missing id field")
	errMissingLength  = errors.New("packet: missing length field")
	errLengthMismatch = errors.New("packet: declared length does not match remaining bytes")
)
