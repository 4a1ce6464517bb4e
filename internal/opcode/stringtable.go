package opcode

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"unicode/utf8"
)

// DecodeStringTable splits a script text segment's two sections into the
// per-slot strings: a big-endian uint32 table of byte offsets into the
// data section, and the UTF-8 string data itself. Each slot runs from
// its offset to the next slot's offset (the last runs to the end).
func DecodeStringTable(offsets, data []byte) ([]string, error) {
	if len(offsets)%4 != 0 {
		return nil, fmt.Errorf("offset section length %d is not a multiple of 4", len(offsets))
	}
	count := len(offsets) / 4
	starts := make([]uint32, count)
	for i := range starts {
		starts[i] = binary.BigEndian.Uint32(offsets[i*4:])
	}

	texts := make([]string, 0, count)
	for i, start := range starts {
		end := uint32(len(data))
		if i+1 < count {
			end = starts[i+1]
		}
		if start > end || end > uint32(len(data)) {
			return nil, fmt.Errorf("slot %d: byte range [%d, %d) outside data section of %d bytes", i, start, end, len(data))
		}
		slot := data[start:end]
		if !utf8.Valid(slot) {
			return nil, fmt.Errorf("slot %d: data is not valid UTF-8", i)
		}
		texts = append(texts, string(slot))
	}
	return texts, nil
}

// EncodeStringTable builds the offset and data sections from the final
// per-slot texts.
func EncodeStringTable(texts []string) (offsets, data []byte) {
	var buf bytes.Buffer
	offsets = make([]byte, 0, len(texts)*4)
	var word [4]byte
	for _, t := range texts {
		binary.BigEndian.PutUint32(word[:], uint32(buf.Len()))
		offsets = append(offsets, word[:]...)
		buf.WriteString(t)
	}
	return offsets, buf.Bytes()
}
