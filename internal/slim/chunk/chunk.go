// Package chunk implements the transport-layer fragment that carries a
// slice of a packed packet's bytes across one UDP datagram: a fixed 44-byte
// header (magic, length, snowflake, hash, index, count) plus up to 980
// body bytes, integrity-checked with XXH3.
package chunk

import (
	"encoding/binary"

	protoerr "github.com/SamJakob/SLIM/internal/errors"
	"github.com/SamJakob/SLIM/internal/slim/wire"
	"github.com/SamJakob/SLIM/internal/slim/xxh3sum"
)

const (
	// Magic is the 4-byte constant leading every chunk datagram.
	Magic uint32 = 0x47525252

	// MaxChunkSize is the entire wire chunk including its header, bounded by
	// a conservative UDP payload budget.
	MaxChunkSize = 1024
	// HeaderSize is the fixed number of bytes preceding a chunk's body.
	HeaderSize = 44
	// MaxBodySize is the largest body a single chunk may carry.
	MaxBodySize = MaxChunkSize - HeaderSize
)

// Chunk is one fragment of a chunkified packet.
type Chunk struct {
	Snowflake [16]byte
	Hash      uint64
	Index     uint32
	Count     uint32
	Body      []byte
}

// Chunkify splits packed (the output of packet.Packet.Pack) into a sequence
// of chunks, each no larger than MaxBodySize bytes, sharing snowflake.
func Chunkify(snowflake [16]byte, packed []byte) []*Chunk {
	count := (len(packed) + MaxBodySize - 1) / MaxBodySize
	if count == 0 {
		count = 1
	}
	chunks := make([]*Chunk, 0, count)
	for i := 0; i < count; i++ {
		start := i * MaxBodySize
		end := start + MaxBodySize
		if end > len(packed) {
			end = len(packed)
		}
		body := packed[start:end]
		chunks = append(chunks, &Chunk{
			Snowflake: snowflake,
			Hash:      xxh3sum.Sum64(body),
			Index:     uint32(i),
			Count:     uint32(count),
			Body:      body,
		})
	}
	return chunks
}

// Pack encodes c into its on-wire datagram layout.
func (c *Chunk) Pack() []byte { return c.PackInto(nil) }

// PackInto encodes c the same way Pack does, but appends into buf's backing
// array instead of allocating a fresh one — the socket dispatcher passes a
// buffer drawn from bufpool here on the send path.
func (c *Chunk) PackInto(buf []byte) []byte {
	w := wire.NewWriterWithBuf(buf)
	w.WriteMagic(Magic)
	// WriteShort errors only on out-of-range values; body length is bounded
	// by MaxBodySize (980) well inside an unsigned 16-bit field.
	_ = w.WriteShort(int64(len(c.Body)), false)
	w.WriteFixedBytes(c.Snowflake[:])
	var hashBytes [8]byte
	binary.BigEndian.PutUint64(hashBytes[:], c.Hash)
	w.WriteFixedBytes(hashBytes[:])
	_ = w.WriteInteger(int64(c.Index), false)
	_ = w.WriteInteger(int64(c.Count), false)
	w.AppendRaw(c.Body)
	return w.Bytes()
}

// IsChunk reports whether the leading magic of data identifies a chunk
// datagram, without fully parsing it.
func IsChunk(data []byte) bool {
	return len(data) >= 5 && data[0] == 0xFF && binary.BigEndian.Uint32(data[1:5]) == Magic
}

// Parse decodes a chunk datagram, validating its magic, declared length and
// body hash. A hash mismatch is reported as a Rejectable error carrying the
// chunk's snowflake and ReasonChunkHashMismatch, so the dispatcher can send
// a `rejected` signal back to the sender.
func Parse(data []byte) (*Chunk, error) {
	r := wire.NewReader(data)
	if err := r.ReadMagic(Magic); err != nil {
		return nil, protoerr.NewChunkError("chunk.parse.magic", err)
	}
	length, present, err := r.ReadShort(false)
	if err != nil {
		return nil, protoerr.NewChunkError("chunk.parse.length", err)
	}
	if !present {
		return nil, protoerr.NewChunkError("chunk.parse.length", errMissingLength)
	}
	if length > MaxBodySize {
		return nil, protoerr.NewChunkError("chunk.parse.length_exceeds_max", errLengthExceedsMax)
	}
	snowflakeBytes, err := r.ReadFixedBytes(16)
	if err != nil {
		return nil, protoerr.NewChunkError("chunk.parse.snowflake", err)
	}
	var snowflake [16]byte
	copy(snowflake[:], snowflakeBytes)

	hashBytes, err := r.ReadFixedBytes(8)
	if err != nil {
		return nil, protoerr.NewRejectableChunkError("chunk.parse.hash", err, snowflake, protoerr.ReasonInvalidChunk)
	}
	hash := binary.BigEndian.Uint64(hashBytes)

	index, present, err := r.ReadInteger(false)
	if err != nil {
		return nil, protoerr.NewRejectableChunkError("chunk.parse.index", err, snowflake, protoerr.ReasonInvalidChunk)
	}
	if !present {
		return nil, protoerr.NewRejectableChunkError("chunk.parse.index", errMissingIndex, snowflake, protoerr.ReasonInvalidChunk)
	}
	count, present, err := r.ReadInteger(false)
	if err != nil {
		return nil, protoerr.NewRejectableChunkError("chunk.parse.count", err, snowflake, protoerr.ReasonInvalidChunk)
	}
	if !present {
		return nil, protoerr.NewRejectableChunkError("chunk.parse.count", errMissingCount, snowflake, protoerr.ReasonInvalidChunk)
	}

	if r.Remaining() != int(length) {
		return nil, protoerr.NewRejectableChunkError("chunk.parse.body_length_mismatch", errBodyLengthMismatch, snowflake, protoerr.ReasonInvalidChunk)
	}
	body := make([]byte, length)
	copy(body, data[len(data)-r.Remaining():])

	if xxh3sum.Sum64(body) != hash {
		return nil, protoerr.NewRejectableChunkError("chunk.parse.hash_mismatch", errHashMismatch, snowflake, protoerr.ReasonChunkHashMismatch)
	}

	return &Chunk{
		Snowflake: snowflake,
		Hash:      hash,
		Index:     uint32(index),
		Count:     uint32(count),
		Body:      body,
	}, nil
}
