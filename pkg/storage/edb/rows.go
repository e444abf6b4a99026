package edb

import (
	"encoding/binary"
	"math"

	"github.com/essadb/essadb/pkg/value"
)

// encodeFixedValue writes the natural-width encoding of v into dst for
// every type except Varchar, which needs heap allocation and is
// handled by encodeCellValue instead.
func encodeFixedValue(dst []byte, v value.Value) {
	switch v.Type() {
	case value.Int:
		n, _ := v.ToInt()
		binary.LittleEndian.PutUint32(dst, uint32(n))
	case value.Float:
		f, _ := v.ToFloat()
		binary.LittleEndian.PutUint32(dst, math.Float32bits(f))
	case value.Bool:
		b, _ := v.ToBool()
		dst[0] = boolByte(b)
	case value.Time:
		t, _ := v.ToTime()
		binary.LittleEndian.PutUint16(dst, uint16(t.Year))
		dst[2] = byte(t.Month)
		dst[3] = byte(t.Day)
	}
}

func decodeFixedValue(t value.Type, src []byte) value.Value {
	switch t {
	case value.Int:
		return value.NewInt(int32(binary.LittleEndian.Uint32(src)))
	case value.Float:
		return value.NewFloat(math.Float32frombits(binary.LittleEndian.Uint32(src)))
	case value.Bool:
		return value.NewBool(src[0] != 0)
	case value.Time:
		year := binary.LittleEndian.Uint16(src)
		return value.NewTime(value.Date{Year: int(year), Month: int(src[2]), Day: int(src[3])})
	}
	return value.NewNull()
}

// encodeCellValue writes v into dst (sized rowValueSize(v.Type())),
// allocating heap space for Varchar cells.
func (f *File) encodeCellValue(dst []byte, v value.Value) error {
	if v.Type() == value.Varchar {
		span, err := f.allocHeapBytes([]byte(v.ToString()))
		if err != nil {
			return err
		}
		putHeapSpan(dst, span)
		return nil
	}
	encodeFixedValue(dst, v)
	return nil
}

func (f *File) decodeCellValue(t value.Type, src []byte) (value.Value, error) {
	if t == value.Varchar {
		span := readHeapSpan(src)
		b, err := f.readHeapBytes(span)
		if err != nil {
			return value.Value{}, err
		}
		return value.NewVarchar(string(b)), nil
	}
	return decodeFixedValue(t, src), nil
}

// encodeRow builds the row_size byte payload for one tuple, in column
// order: a null-flag byte precedes each nullable column's value (spec
// §4.7).
func (f *File) encodeRow(values []value.Value) ([]byte, error) {
	buf := make([]byte, rowSize(f.cols))
	off := 0
	for i, c := range f.cols {
		v := values[i]
		if !c.notNull {
			if v.IsNull() {
				buf[off] = 0
				off++
				off += rowValueSize(c.typ)
				continue
			}
			buf[off] = 1
			off++
		}
		if err := f.encodeCellValue(buf[off:off+rowValueSize(c.typ)], v); err != nil {
			return nil, err
		}
		off += rowValueSize(c.typ)
	}
	return buf, nil
}

func (f *File) decodeRow(buf []byte) ([]value.Value, error) {
	values := make([]value.Value, len(f.cols))
	off := 0
	for i, c := range f.cols {
		if !c.notNull {
			set := buf[off] != 0
			off++
			if !set {
				values[i] = value.NewNull()
				off += rowValueSize(c.typ)
				continue
			}
		}
		v, err := f.decodeCellValue(c.typ, buf[off:off+rowValueSize(c.typ)])
		if err != nil {
			return nil, err
		}
		values[i] = v
		off += rowValueSize(c.typ)
	}
	return values, nil
}

// rowSlotOffset locates one RowSpec within a table block's payload.
func rowSlotOffset(slot int, rowSpecSz int) int { return 1 + slot*rowSpecSz }

// InsertRow appends one row, reusing a freed slot in an existing table
// block before extending the chain (spec §4.7's packed RowSpec array).
func (f *File) InsertRow(values []value.Value) error {
	rowBytes, err := f.encodeRow(values)
	if err != nil {
		return err
	}
	specSz := f.rowSpecSize()
	perBlock := f.rowsPerBlock()

	idx := f.hdr.firstTableBlock
	var prev uint32
	for idx != 0 {
		payload, err := f.readBlockPayload(idx)
		if err != nil {
			return err
		}
		tbl := payload[blockHeaderSize:]
		for slot := 0; slot < perBlock; slot++ {
			so := rowSlotOffset(slot, specSz)
			isUsed := tbl[so+heapPtrSize]
			if isUsed == 0 {
				tbl[so+heapPtrSize] = 1
				copy(tbl[so+heapPtrSize+1:so+specSz], rowBytes)
				if int(tbl[0]) < slot+1 {
					tbl[0] = uint8(slot + 1)
				}
				if err := f.writeBlockPayload(idx, payload); err != nil {
					return err
				}
				f.hdr.rowCount++
				return f.flushHeader()
			}
		}
		_, next := readBlockHeader(payload)
		prev = idx
		idx = next
	}

	newIdx, err := f.allocateBlock(blockTable)
	if err != nil {
		return err
	}
	if prev == 0 {
		f.hdr.firstTableBlock = newIdx
	} else {
		payload, err := f.readBlockPayload(prev)
		if err != nil {
			return err
		}
		writeBlockHeader(payload, blockTable, newIdx)
		if err := f.writeBlockPayload(prev, payload); err != nil {
			return err
		}
	}

	payload, err := f.readBlockPayload(newIdx)
	if err != nil {
		return err
	}
	tbl := payload[blockHeaderSize:]
	so := rowSlotOffset(0, specSz)
	tbl[so+heapPtrSize] = 1
	copy(tbl[so+heapPtrSize+1:so+specSz], rowBytes)
	tbl[0] = 1
	if err := f.writeBlockPayload(newIdx, payload); err != nil {
		return err
	}
	f.hdr.rowCount++
	return f.flushHeader()
}

// rowLocation identifies one live row's physical slot.
type rowLocation struct {
	block uint32
	slot  int
}

// ScanRows returns every live row's values and location, in block-then-
// slot order (this implementation's row order; spec §4.7 leaves
// iteration order to the engine beyond "packed array").
func (f *File) ScanRows() ([][]value.Value, []rowLocation, error) {
	specSz := f.rowSpecSize()
	perBlock := f.rowsPerBlock()

	var rows [][]value.Value
	var locs []rowLocation
	idx := f.hdr.firstTableBlock
	for idx != 0 {
		payload, err := f.readBlockPayload(idx)
		if err != nil {
			return nil, nil, err
		}
		tbl := payload[blockHeaderSize:]
		for slot := 0; slot < perBlock; slot++ {
			so := rowSlotOffset(slot, specSz)
			if tbl[so+heapPtrSize] == 0 {
				continue
			}
			values, err := f.decodeRow(tbl[so+heapPtrSize+1 : so+specSz])
			if err != nil {
				return nil, nil, err
			}
			rows = append(rows, values)
			locs = append(locs, rowLocation{block: idx, slot: slot})
		}
		_, next := readBlockHeader(payload)
		idx = next
	}
	return rows, locs, nil
}

// OverwriteRow replaces the value stored at loc, freeing any heap
// spans the old Varchar cells held.
func (f *File) OverwriteRow(loc rowLocation, values []value.Value) error {
	specSz := f.rowSpecSize()
	payload, err := f.readBlockPayload(loc.block)
	if err != nil {
		return err
	}
	tbl := payload[blockHeaderSize:]
	so := rowSlotOffset(loc.slot, specSz)
	if err := f.freeRowHeapSpans(tbl[so+heapPtrSize+1 : so+specSz]); err != nil {
		return err
	}
	rowBytes, err := f.encodeRow(values)
	if err != nil {
		return err
	}
	copy(tbl[so+heapPtrSize+1:so+specSz], rowBytes)
	return f.writeBlockPayload(loc.block, payload)
}

// DeleteRow tombstones the slot at loc and frees any Varchar heap
// spans it held.
func (f *File) DeleteRow(loc rowLocation) error {
	specSz := f.rowSpecSize()
	payload, err := f.readBlockPayload(loc.block)
	if err != nil {
		return err
	}
	tbl := payload[blockHeaderSize:]
	so := rowSlotOffset(loc.slot, specSz)
	if err := f.freeRowHeapSpans(tbl[so+heapPtrSize+1 : so+specSz]); err != nil {
		return err
	}
	tbl[so+heapPtrSize] = 0
	if err := f.writeBlockPayload(loc.block, payload); err != nil {
		return err
	}
	if f.hdr.rowCount > 0 {
		f.hdr.rowCount--
	}
	return f.flushHeader()
}

func (f *File) freeRowHeapSpans(rowBuf []byte) error {
	off := 0
	for _, c := range f.cols {
		if !c.notNull {
			set := rowBuf[off] != 0
			off++
			if !set {
				off += rowValueSize(c.typ)
				continue
			}
		}
		if c.typ == value.Varchar {
			span := readHeapSpan(rowBuf[off : off+heapSpanSize])
			if err := f.freeHeapBytes(span); err != nil {
				return err
			}
		}
		off += rowValueSize(c.typ)
	}
	return nil
}
