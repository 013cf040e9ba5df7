// Package wire implements the v1 binary envelope exchanged between a
// host importer adapter and a plugin-provided importer service:
//
//	offset 0          : u32 meta_len (little-endian)
//	offset 4          : meta_len bytes of UTF-8 JSON metadata
//	offset 4+meta_len : remaining bytes = payload
package wire

import (
	"encoding/binary"
	"unicode/utf8"

	"github.com/forgecore/enginecore/internal/enginerr"
)

// MaxMetaLen is the largest accepted metadata segment length, in bytes.
const MaxMetaLen = 256 * 1024

// Envelope is a decoded v1 wire frame.
type Envelope struct {
	MetaJSON string
	Payload  []byte
}

// Encode builds a v1 frame from metaJSON and payload.
func Encode(metaJSON string, payload []byte) ([]byte, error) {
	if len(metaJSON) > MaxMetaLen {
		return nil, enginerr.InvalidInput("wire: meta_len exceeds 256 KiB")
	}
	buf := make([]byte, 4+len(metaJSON)+len(payload))
	binary.LittleEndian.PutUint32(buf[0:4], uint32(len(metaJSON)))
	copy(buf[4:], metaJSON)
	copy(buf[4+len(metaJSON):], payload)
	return buf, nil
}

// Decode parses a v1 frame. meta_len=0 is valid, with payload occupying
// the entire remainder. meta_len>256KiB is rejected as InvalidInput, as
// is a metadata segment that is not valid UTF-8 or a frame too short to
// hold its declared meta_len.
func Decode(frame []byte) (Envelope, error) {
	if len(frame) < 4 {
		return Envelope{}, enginerr.InvalidInput("wire: frame shorter than header")
	}

	metaLen := binary.LittleEndian.Uint32(frame[0:4])
	if metaLen > MaxMetaLen {
		return Envelope{}, enginerr.InvalidInput("wire: meta_len exceeds 256 KiB")
	}

	end := 4 + int(metaLen)
	if end > len(frame) {
		return Envelope{}, enginerr.InvalidInput("wire: frame shorter than declared meta_len")
	}

	meta := frame[4:end]
	if !utf8.Valid(meta) {
		return Envelope{}, enginerr.InvalidInput("wire: meta segment is not valid UTF-8")
	}

	payload := frame[end:]
	out := make([]byte, len(payload))
	copy(out, payload)

	return Envelope{MetaJSON: string(meta), Payload: out}, nil
}
