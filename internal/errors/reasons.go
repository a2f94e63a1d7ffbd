package errors

// Rejection reasons carried in a `rejected` signal's body.
const (
	ReasonChunkHashMismatch RejectReason = 0x00
	ReasonInvalidChunk      RejectReason = 0x01
	ReasonInvalidPacket     RejectReason = 0x02
	ReasonFieldTypeMismatch RejectReason = 0x03
	ReasonBadFieldValue     RejectReason = 0x04
	ReasonTimeout           RejectReason = 0xEF
	ReasonRequestResend     RejectReason = 0xFF
)
