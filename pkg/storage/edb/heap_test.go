package edb

import (
	"testing"

	"github.com/essadb/essadb/pkg/storage"
)

func TestHeapAllocSplitsAndFrees(t *testing.T) {
	payload := make([]byte, 256)
	initHeapBlock(payload)

	off1, err := heapAlloc(payload, 10)
	if err != nil {
		t.Fatal(err)
	}
	off2, err := heapAlloc(payload, 20)
	if err != nil {
		t.Fatal(err)
	}
	if off2 <= off1 {
		t.Fatalf("expected second allocation after the first, got off1=%d off2=%d", off1, off2)
	}

	heapFree(payload, off1)
	h := readHeapHeader(payload, off1-heapHeaderSize)
	if h.signature != sigFreed {
		t.Fatalf("expected freed chunk signature, got %x", h.signature)
	}

	off3, err := heapAlloc(payload, 5)
	if err != nil {
		t.Fatal(err)
	}
	if off3 != off1 {
		t.Fatalf("expected reuse of freed chunk at %d, got %d", off1, off3)
	}
}

func TestHeapAllocTooLarge(t *testing.T) {
	payload := make([]byte, 64)
	initHeapBlock(payload)
	_, err := heapAlloc(payload, 1000)
	if err != storage.ErrBlockTooLarge {
		t.Fatalf("expected ErrBlockTooLarge, got %v", err)
	}
}

func TestHeaderRoundTrip(t *testing.T) {
	h := header{
		version:         currentVersion,
		blockSize:       defaultBlockSize,
		rowCount:        42,
		columnCount:     3,
		tableName:       HeapSpan{Ptr: HeapPtr{Block: 2, Offset: 8}, Size: 5},
		firstTableBlock: 1,
		firstHeapBlock:  2,
	}
	buf := make([]byte, headerSize)
	encodeHeader(buf, h)

	decoded, err := decodeHeader(buf)
	if err != nil {
		t.Fatal(err)
	}
	if decoded != h {
		t.Fatalf("round trip mismatch: got %+v, want %+v", decoded, h)
	}
}

func TestDecodeHeaderRejectsBadMagic(t *testing.T) {
	buf := make([]byte, headerSize)
	if _, err := decodeHeader(buf); err == nil {
		t.Fatal("expected corruption error for zeroed buffer")
	}
}
