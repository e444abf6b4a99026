package edb

import (
	"github.com/essadb/essadb/pkg/relation"
	"github.com/essadb/essadb/pkg/storage"
	"github.com/essadb/essadb/pkg/value"
)

// File is one open EDB-backed table: header, column table, and the
// block chain holding its rows and heap-allocated variable data
// (spec §4.7). Grounded on
// original_source/db/storage/edb/EDBFile.{hpp,cpp}.
type File struct {
	mf          *mappedFile
	hdr         header
	cols        []columnEntry
	blockSize   uint32
	blocksStart int64
}

func colTableOffset() int64 { return int64(headerSize) }

func (f *File) colTableSize() int64 { return int64(f.hdr.columnCount) * columnEntrySize }

// Create initializes a brand-new EDB file for a table with the given
// columns; path must not already exist.
func Create(path, tableName string, cols []relation.Column) (*File, error) {
	mf, err := openMappedFile(path, true)
	if err != nil {
		return nil, err
	}
	f := &File{mf: mf, blockSize: defaultBlockSize}
	f.hdr = header{
		version:     currentVersion,
		blockSize:   f.blockSize,
		columnCount: uint8(len(cols)),
	}
	f.blocksStart = colTableOffset() + f.colTableSize()

	// Write a placeholder header+column table first so the heap
	// allocator (which needs blocksStart) has somewhere to point.
	if err := f.flushHeader(); err != nil {
		mf.close()
		return nil, err
	}

	entries := make([]columnEntry, len(cols))
	for i, c := range cols {
		entries[i] = columnEntry{typ: c.Type, autoIncrement: c.AutoIncrement, unique: c.Unique, notNull: c.NotNull}
	}
	f.cols = entries

	for i, c := range cols {
		span, err := f.allocHeapBytes([]byte(c.Name))
		if err != nil {
			mf.close()
			return nil, err
		}
		f.cols[i].name = span

		if c.Default.IsNull() {
			f.cols[i].defaultIsNull = true
			continue
		}
		if err := f.encodeCellValue(f.cols[i].defaultRaw[:], c.Default); err != nil {
			mf.close()
			return nil, err
		}
	}
	nameSpan, err := f.allocHeapBytes([]byte(tableName))
	if err != nil {
		mf.close()
		return nil, err
	}
	f.hdr.tableName = nameSpan

	if err := f.flushColumns(); err != nil {
		mf.close()
		return nil, err
	}
	if err := f.flushHeader(); err != nil {
		mf.close()
		return nil, err
	}
	return f, nil
}

// Open re-attaches to an existing EDB file.
func Open(path string) (*File, error) {
	mf, err := openMappedFile(path, false)
	if err != nil {
		return nil, err
	}
	raw, err := mf.readAt(0, headerSize)
	if err != nil {
		mf.close()
		return nil, err
	}
	hdr, err := decodeHeader(raw)
	if err != nil {
		mf.close()
		return nil, err
	}
	f := &File{mf: mf, hdr: hdr, blockSize: hdr.blockSize}
	f.blocksStart = colTableOffset() + f.colTableSize()

	colsRaw, err := mf.readAt(colTableOffset(), int(f.colTableSize()))
	if err != nil {
		mf.close()
		return nil, err
	}
	f.cols = make([]columnEntry, hdr.columnCount)
	for i := range f.cols {
		f.cols[i] = decodeColumnEntry(colsRaw[i*columnEntrySize:])
	}
	return f, nil
}

func (f *File) Close() error { return f.mf.close() }

func (f *File) flushHeader() error {
	buf := make([]byte, headerSize)
	encodeHeader(buf, f.hdr)
	return f.mf.writeAt(0, buf)
}

func (f *File) flushColumns() error {
	buf := make([]byte, f.colTableSize())
	for i, c := range f.cols {
		encodeColumnEntry(buf[i*columnEntrySize:], c)
	}
	return f.mf.writeAt(colTableOffset(), buf)
}

// Columns decodes the column table back into relation.Column values,
// reading each name out of the heap.
func (f *File) Columns() ([]relation.Column, error) {
	cols := make([]relation.Column, len(f.cols))
	for i, c := range f.cols {
		name, err := f.readHeapBytes(c.name)
		if err != nil {
			return nil, err
		}
		def := value.NewNull()
		if !c.defaultIsNull {
			var err error
			def, err = f.decodeCellValue(c.typ, c.defaultRaw[:])
			if err != nil {
				return nil, err
			}
		}
		cols[i] = relation.Column{
			Name: string(name), Type: c.typ,
			AutoIncrement: c.autoIncrement, Unique: c.unique, NotNull: c.notNull,
			Default: def,
		}
	}
	return cols, nil
}

func (f *File) blockOffset(idx uint32) int64 {
	return f.blocksStart + int64(idx-1)*int64(f.blockSize)
}

func (f *File) blockCount() uint32 {
	total := int64(0)
	if sz := f.mf.size; sz > f.blocksStart {
		total = (sz - f.blocksStart) / int64(f.blockSize)
	}
	return uint32(total)
}

// allocateBlock appends one fresh block of the given type at the end
// of the file and returns its 1-based index.
func (f *File) allocateBlock(t blockType) (uint32, error) {
	idx := f.blockCount() + 1
	payload := make([]byte, f.blockSize)
	writeBlockHeader(payload, t, 0)
	if t == blockHeap {
		initHeapBlock(payload[blockHeaderSize:])
	}
	if err := f.mf.writeAt(f.blockOffset(idx), payload); err != nil {
		return 0, err
	}
	return idx, nil
}

func (f *File) readBlockPayload(idx uint32) ([]byte, error) {
	return f.mf.readAt(f.blockOffset(idx), int(f.blockSize))
}

func (f *File) writeBlockPayload(idx uint32, payload []byte) error {
	return f.mf.writeAt(f.blockOffset(idx), payload)
}

// allocHeapBytes stores data somewhere in the heap-block chain,
// extending the chain with a new block when every existing one is
// full (spec §4.7).
func (f *File) allocHeapBytes(data []byte) (HeapSpan, error) {
	size := uint32(len(data))

	idx := f.hdr.firstHeapBlock
	var prev uint32
	for idx != 0 {
		payload, err := f.readBlockPayload(idx)
		if err != nil {
			return HeapSpan{}, err
		}
		heapPayload := payload[blockHeaderSize:]
		off, err := heapAlloc(heapPayload, size)
		if err == nil {
			copy(heapPayload[off:off+size], data)
			if err := f.writeBlockPayload(idx, payload); err != nil {
				return HeapSpan{}, err
			}
			return HeapSpan{Ptr: HeapPtr{Block: idx, Offset: off}, Size: uint64(size)}, nil
		}
		if err != storage.ErrBlockTooLarge {
			return HeapSpan{}, err
		}
		_, next := readBlockHeader(payload)
		prev = idx
		idx = next
	}

	newIdx, err := f.allocateBlock(blockHeap)
	if err != nil {
		return HeapSpan{}, err
	}
	if prev == 0 {
		f.hdr.firstHeapBlock = newIdx
		if err := f.flushHeader(); err != nil {
			return HeapSpan{}, err
		}
	} else {
		payload, err := f.readBlockPayload(prev)
		if err != nil {
			return HeapSpan{}, err
		}
		writeBlockHeader(payload, blockHeap, newIdx)
		if err := f.writeBlockPayload(prev, payload); err != nil {
			return HeapSpan{}, err
		}
	}

	payload, err := f.readBlockPayload(newIdx)
	if err != nil {
		return HeapSpan{}, err
	}
	heapPayload := payload[blockHeaderSize:]
	off, err := heapAlloc(heapPayload, size)
	if err != nil {
		return HeapSpan{}, err
	}
	copy(heapPayload[off:off+size], data)
	if err := f.writeBlockPayload(newIdx, payload); err != nil {
		return HeapSpan{}, err
	}
	return HeapSpan{Ptr: HeapPtr{Block: newIdx, Offset: off}, Size: uint64(size)}, nil
}

func (f *File) readHeapBytes(span HeapSpan) ([]byte, error) {
	if span.Ptr.IsNull() {
		return nil, nil
	}
	payload, err := f.readBlockPayload(span.Ptr.Block)
	if err != nil {
		return nil, err
	}
	start := blockHeaderSize + int(span.Ptr.Offset)
	return append([]byte(nil), payload[start:start+int(span.Size)]...), nil
}

func (f *File) freeHeapBytes(span HeapSpan) error {
	if span.Ptr.IsNull() {
		return nil
	}
	payload, err := f.readBlockPayload(span.Ptr.Block)
	if err != nil {
		return err
	}
	heapFree(payload[blockHeaderSize:], span.Ptr.Offset)
	return f.writeBlockPayload(span.Ptr.Block, payload)
}

// rowSpecSize/rowsPerBlock describe the fixed table-block row layout
// (spec §4.7).
func (f *File) rowSpecSize() int   { return rowSpecFixedSize + rowSize(f.cols) }
func (f *File) rowsPerBlock() int {
	avail := int(f.blockSize) - blockHeaderSize - 1
	return avail / f.rowSpecSize()
}
