// Package edb implements the on-disk, mmap-backed storage engine of
// spec §4.7: a single file holding a header, a column table, and a
// chain of fixed-size blocks that are either row storage ("Table"
// blocks) or a heap free-list ("Heap" blocks) backing variable-length
// data (table/column names, CHECK text, VARCHAR cells). Grounded on
// original_source/db/storage/edb/{Definitions.hpp,Heap.cpp,EDBFile.cpp}.
package edb

import (
	"encoding/binary"

	"github.com/essadb/essadb/pkg/storage"
)

// Heap chunk signatures (spec §4.7).
const (
	sigUsed    uint32 = 0x2137D05A
	sigEmpty   uint32 = 0
	sigFreed   uint32 = 0x2137DEAD
	sigEndEdge uint32 = 0xE57F402D
)

const heapHeaderSize = 8 // signature u32 + size u32

// heapHeader is the 8-byte record preceding every heap chunk.
type heapHeader struct {
	signature uint32
	size      uint32
}

func readHeapHeader(buf []byte, off uint32) heapHeader {
	return heapHeader{
		signature: binary.LittleEndian.Uint32(buf[off:]),
		size:      binary.LittleEndian.Uint32(buf[off+4:]),
	}
}

func writeHeapHeader(buf []byte, off uint32, h heapHeader) {
	binary.LittleEndian.PutUint32(buf[off:], h.signature)
	binary.LittleEndian.PutUint32(buf[off+4:], h.size)
}

// initHeapBlock lays out a fresh heap block payload as a single Empty
// chunk bounded by an EndEdge header, per spec §4.7.
func initHeapBlock(payload []byte) {
	usable := uint32(len(payload)) - heapHeaderSize*2
	writeHeapHeader(payload, 0, heapHeader{signature: sigEmpty, size: usable})
	writeHeapHeader(payload, heapHeaderSize+usable, heapHeader{signature: sigEndEdge, size: 0})
}

// heapAlloc walks payload's free-list for the first Empty/Freed chunk
// large enough to host size+one new header, splits it, and returns
// the offset of the allocated chunk's data (just past its header).
// storage.ErrBlockTooLarge is returned when no chunk in this block can
// satisfy the request (spec §4.7: big blocks are not implemented).
func heapAlloc(payload []byte, size uint32) (uint32, error) {
	off := uint32(0)
	for {
		if off+heapHeaderSize > uint32(len(payload)) {
			return 0, storage.ErrBlockTooLarge
		}
		h := readHeapHeader(payload, off)
		switch h.signature {
		case sigEndEdge:
			return 0, storage.ErrBlockTooLarge
		case sigEmpty, sigFreed:
			if h.size >= size {
				remaining := h.size - size
				usedSize := size
				if remaining < heapHeaderSize {
					// No room to split: the whole chunk is handed out so
					// the walk still reaches the header that follows it.
					usedSize = h.size
				}
				writeHeapHeader(payload, off, heapHeader{signature: sigUsed, size: usedSize})
				dataOff := off + heapHeaderSize
				if remaining >= heapHeaderSize {
					newHdrOff := dataOff + size
					newSize := remaining - heapHeaderSize
					// The new Empty chunk ends exactly where the old one
					// did, so whatever followed it (EndEdge or a live
					// chunk) stays reachable.
					writeHeapHeader(payload, newHdrOff, heapHeader{signature: sigEmpty, size: newSize})
				}
				return dataOff, nil
			}
			off += heapHeaderSize + h.size
		case sigUsed:
			off += heapHeaderSize + h.size
		default:
			return 0, storage.ErrBlockTooLarge
		}
	}
}

// heapFree marks the chunk whose data starts at dataOff as Freed.
// Merging adjacent free chunks is deferred, as spec §4.7 allows.
func heapFree(payload []byte, dataOff uint32) {
	off := dataOff - heapHeaderSize
	h := readHeapHeader(payload, off)
	h.signature = sigFreed
	writeHeapHeader(payload, off, h)
}
