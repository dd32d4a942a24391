package actions

import (
	"bytes"
	"testing"
)

func TestPadWriterSingleFullBlock(t *testing.T) {
	cache := newFakeCache(4096)
	w := newPadWriter(cache, 512)

	data := bytes.Repeat([]byte{0x11}, 512)
	if err := w.Write(data, 0, false); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if err := w.Flush(); err != nil {
		t.Fatalf("Flush: %v", err)
	}

	got := cache.bytes()[:512]
	if !bytes.Equal(got, data) {
		t.Error("full-block write did not land verbatim")
	}
}

func TestPadWriterCoalescesPartialWrites(t *testing.T) {
	cache := newFakeCache(512)
	w := newPadWriter(cache, 512)

	if err := w.Write([]byte{0xAA, 0xAA}, 0, true); err != nil {
		t.Fatalf("Write first half: %v", err)
	}
	if err := w.Write([]byte{0xBB, 0xBB}, 2, true); err != nil {
		t.Fatalf("Write second half: %v", err)
	}
	if err := w.Flush(); err != nil {
		t.Fatalf("Flush: %v", err)
	}

	got := cache.bytes()
	want := []byte{0xAA, 0xAA, 0xBB, 0xBB}
	if !bytes.Equal(got[:4], want) {
		t.Errorf("coalesced block = %x, want %x", got[:4], want)
	}
	// Untouched tail of the block should remain zero from the pool's
	// zeroing, not leftover garbage.
	for i := 4; i < 512; i++ {
		if got[i] != 0 {
			t.Fatalf("byte %d = %#x, want 0", i, got[i])
		}
	}
}

func TestPadWriterFlushesOnBlockBoundaryCrossing(t *testing.T) {
	cache := newFakeCache(1024)
	w := newPadWriter(cache, 512)

	if err := w.Write([]byte{0x01}, 0, true); err != nil {
		t.Fatalf("Write block 0: %v", err)
	}
	// Writing into block 1 should flush block 0 first.
	if err := w.Write([]byte{0x02}, 512, true); err != nil {
		t.Fatalf("Write block 1: %v", err)
	}
	if err := w.Flush(); err != nil {
		t.Fatalf("Flush: %v", err)
	}

	got := cache.bytes()
	if got[0] != 0x01 || got[512] != 0x02 {
		t.Errorf("block 0 byte = %#x, block 1 byte = %#x", got[0], got[512])
	}
}

func TestPadWriterSpanningWriteCrossesBlocks(t *testing.T) {
	cache := newFakeCache(1024)
	w := newPadWriter(cache, 512)

	data := bytes.Repeat([]byte{0x5a}, 20)
	if err := w.Write(data, 500, true); err != nil {
		t.Fatalf("Write spanning two blocks: %v", err)
	}
	if err := w.Flush(); err != nil {
		t.Fatalf("Flush: %v", err)
	}

	got := cache.bytes()
	if !bytes.Equal(got[500:520], data) {
		t.Errorf("spanning write = %x, want %x", got[500:520], data)
	}
}

func TestPadWriterFlushNoopWhenEmpty(t *testing.T) {
	cache := newFakeCache(512)
	w := newPadWriter(cache, 512)
	if err := w.Flush(); err != nil {
		t.Errorf("Flush with nothing pending: %v", err)
	}
}
