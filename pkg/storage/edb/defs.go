package edb

import (
	"encoding/binary"

	"github.com/essadb/essadb/pkg/storage"
	"github.com/essadb/essadb/pkg/value"
)

var magic = [6]byte{0x65, 0x73, 0x64, 0x62, 0x0d, 0x0a} // "esdb\r\n"

const currentVersion uint16 = 1

// defaultBlockSize is chosen independent of column widths for
// simplicity; spec §4.7 allows deriving it from the schema but does
// not require it.
const defaultBlockSize uint32 = 4096

const headerSize = 128 // fixed region; real fields total 63 bytes, rest reserved.

// HeapPtr locates a byte offset within one block's heap payload.
// block == 0 means null (spec §4.7).
type HeapPtr struct {
	Block  uint32
	Offset uint32
}

func (p HeapPtr) IsNull() bool { return p.Block == 0 }

const heapPtrSize = 8

func readHeapPtr(b []byte) HeapPtr {
	return HeapPtr{Block: binary.LittleEndian.Uint32(b[0:]), Offset: binary.LittleEndian.Uint32(b[4:])}
}

func putHeapPtr(b []byte, p HeapPtr) {
	binary.LittleEndian.PutUint32(b[0:], p.Block)
	binary.LittleEndian.PutUint32(b[4:], p.Offset)
}

// HeapSpan is a HeapPtr plus a byte length, used for table/column
// names, CHECK text, and VARCHAR cells.
type HeapSpan struct {
	Ptr  HeapPtr
	Size uint64
}

const heapSpanSize = heapPtrSize + 8

func readHeapSpan(b []byte) HeapSpan {
	return HeapSpan{Ptr: readHeapPtr(b), Size: binary.LittleEndian.Uint64(b[heapPtrSize:])}
}

func putHeapSpan(b []byte, s HeapSpan) {
	putHeapPtr(b, s.Ptr)
	binary.LittleEndian.PutUint64(b[heapPtrSize:], s.Size)
}

// header mirrors spec §4.7's fixed header, minus last_table_block/
// last_heap_block which this implementation derives by scanning the
// short block-type chain instead of caching (the file is expected to
// have few enough blocks that a scan is cheap; see DESIGN.md).
type header struct {
	version     uint16
	blockSize   uint32
	rowCount    uint64
	columnCount uint8
	tableName   HeapSpan
	checkStmt   HeapSpan
	aiCount     uint8
	keyCount    uint8

	// firstTableBlock/firstHeapBlock are this implementation's chain
	// heads, replacing spec §4.7's last_row_ptr/last_table_block/
	// last_heap_block cache fields: rows are found by scanning the
	// table-block chain rather than following a maintained tail
	// pointer (see DESIGN.md's grounding note for pkg/storage/edb).
	firstTableBlock uint32
	firstHeapBlock  uint32
}

func decodeHeader(b []byte) (header, error) {
	if len(b) < headerSize {
		return header{}, &storage.CorruptionError{Reason: "file shorter than header"}
	}
	for i := 0; i < 6; i++ {
		if b[i] != magic[i] {
			return header{}, &storage.CorruptionError{Reason: "bad magic"}
		}
	}
	var h header
	o := 6
	h.version = binary.LittleEndian.Uint16(b[o:])
	o += 2
	h.blockSize = binary.LittleEndian.Uint32(b[o:])
	o += 4
	h.rowCount = binary.LittleEndian.Uint64(b[o:])
	o += 8
	h.columnCount = b[o]
	o++
	h.tableName = readHeapSpan(b[o:])
	o += heapSpanSize
	h.checkStmt = readHeapSpan(b[o:])
	o += heapSpanSize
	h.aiCount = b[o]
	o++
	h.keyCount = b[o]
	o++
	h.firstTableBlock = binary.LittleEndian.Uint32(b[o:])
	o += 4
	h.firstHeapBlock = binary.LittleEndian.Uint32(b[o:])
	return h, nil
}

func encodeHeader(b []byte, h header) {
	copy(b[0:6], magic[:])
	o := 6
	binary.LittleEndian.PutUint16(b[o:], h.version)
	o += 2
	binary.LittleEndian.PutUint32(b[o:], h.blockSize)
	o += 4
	binary.LittleEndian.PutUint64(b[o:], h.rowCount)
	o += 8
	b[o] = h.columnCount
	o++
	putHeapSpan(b[o:], h.tableName)
	o += heapSpanSize
	putHeapSpan(b[o:], h.checkStmt)
	o += heapSpanSize
	b[o] = h.aiCount
	o++
	b[o] = h.keyCount
	o++
	binary.LittleEndian.PutUint32(b[o:], h.firstTableBlock)
	o += 4
	binary.LittleEndian.PutUint32(b[o:], h.firstHeapBlock)
}

// blockType tags a block's payload interpretation.
type blockType uint8

const (
	blockFree blockType = iota
	blockTable
	blockHeap
	blockBig
)

const blockHeaderSize = 5 // type u8 + next_block u32

func readBlockHeader(payload []byte) (blockType, uint32) {
	return blockType(payload[0]), binary.LittleEndian.Uint32(payload[1:])
}

func writeBlockHeader(payload []byte, t blockType, next uint32) {
	payload[0] = uint8(t)
	binary.LittleEndian.PutUint32(payload[1:], next)
}

// columnEntrySize is the fixed size of one column-table row: a
// HeapSpan for the name, four flag/tag bytes, a null flag, and a
// 16-byte default-value slot wide enough for any Value payload.
const columnEntrySize = heapSpanSize + 4 + 1 + 16

// columnEntry is the on-disk shape of one schema column (spec §4.7's
// "Column table"); Name itself is resolved through the heap separately.
type columnEntry struct {
	name          HeapSpan
	typ           value.Type
	autoIncrement bool
	unique        bool
	notNull       bool
	defaultIsNull bool
	defaultRaw    [16]byte
}

func decodeColumnEntry(b []byte) columnEntry {
	var c columnEntry
	c.name = readHeapSpan(b)
	o := heapSpanSize
	c.typ = value.Type(b[o])
	o++
	c.autoIncrement = b[o] != 0
	o++
	c.unique = b[o] != 0
	o++
	c.notNull = b[o] != 0
	o++
	c.defaultIsNull = b[o] != 0
	o++
	copy(c.defaultRaw[:], b[o:o+16])
	return c
}

func encodeColumnEntry(b []byte, c columnEntry) {
	putHeapSpan(b, c.name)
	o := heapSpanSize
	b[o] = uint8(c.typ)
	o++
	b[o] = boolByte(c.autoIncrement)
	o++
	b[o] = boolByte(c.unique)
	o++
	b[o] = boolByte(c.notNull)
	o++
	b[o] = boolByte(c.defaultIsNull)
	o++
	copy(b[o:o+16], c.defaultRaw[:])
}

func boolByte(b bool) uint8 {
	if b {
		return 1
	}
	return 0
}

// rowValueSize returns sizeof(type) per spec §4.7: Varchar stores a
// HeapSpan, Time stores year(2)+month(1)+day(1), everything else is
// its natural width.
func rowValueSize(t value.Type) int {
	switch t {
	case value.Int, value.Float:
		return 4
	case value.Varchar:
		return heapSpanSize
	case value.Bool:
		return 1
	case value.Time:
		return 4
	}
	return 0
}

// rowSize is the sum over columns of (not_null ? 0 : 1) + sizeof(type)
// (spec §4.7): a leading null-flag byte per nullable column.
func rowSize(cols []columnEntry) int {
	n := 0
	for _, c := range cols {
		if !c.notNull {
			n++
		}
		n += rowValueSize(c.typ)
	}
	return n
}

const rowSpecFixedSize = heapPtrSize + 1 // next_row HeapPtr + is_used byte
