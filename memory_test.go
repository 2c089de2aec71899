package main

import "testing"

func TestMemoryByteReadWrite(t *testing.T) {
	m := NewMemory()
	m.Write(0x1234, 0xAB)
	if got := m.Read(0x1234); got != 0xAB {
		t.Fatalf("Read(0x1234) = 0x%02X, want 0xAB", got)
	}
}

func TestMemoryWordIsLittleEndian(t *testing.T) {
	m := NewMemory()
	m.WriteWord(0x2000, 0xBEEF)
	if lo := m.Read(0x2000); lo != 0xEF {
		t.Fatalf("low byte = 0x%02X, want 0xEF", lo)
	}
	if hi := m.Read(0x2001); hi != 0xBE {
		t.Fatalf("high byte = 0x%02X, want 0xBE", hi)
	}
	if got := m.ReadWord(0x2000); got != 0xBEEF {
		t.Fatalf("ReadWord = 0x%04X, want 0xBEEF", got)
	}
}

func TestMemoryWordWrapsAtTopOfAddressSpace(t *testing.T) {
	m := NewMemory()
	m.WriteWord(0xFFFF, 0xABCD)
	if got := m.Read(0xFFFF); got != 0xCD {
		t.Fatalf("byte at 0xFFFF = 0x%02X, want 0xCD", got)
	}
	if got := m.Read(0x0000); got != 0xAB {
		t.Fatalf("byte at 0x0000 = 0x%02X, want 0xAB (wrap)", got)
	}
	if got := m.ReadWord(0xFFFF); got != 0xABCD {
		t.Fatalf("ReadWord(0xFFFF) = 0x%04X, want 0xABCD", got)
	}
}

func TestMemoryLoadAndClear(t *testing.T) {
	m := NewMemory()
	m.Load(0x0100, []byte{0xC3, 0x00, 0x00})
	if m.Read(0x0100) != 0xC3 || m.Read(0x0101) != 0x00 || m.Read(0x0102) != 0x00 {
		t.Fatalf("Load did not place bytes at 0x0100")
	}
	m.Clear()
	if m.Read(0x0100) != 0 {
		t.Fatalf("Clear left a non-zero byte at 0x0100")
	}
}

func TestDefaultIOBus(t *testing.T) {
	bus := NewDefaultIOBus()
	if got := bus.In(0x42); got != 0xFF {
		t.Fatalf("In(0x42) = 0x%02X, want 0xFF", got)
	}
	bus.Out(0x42, 0x99) // must not panic; value is discarded
}
