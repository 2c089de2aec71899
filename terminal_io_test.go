package main

import (
	"testing"
	"time"
)

func TestBufferedTerminalWriteChar(t *testing.T) {
	var out []byte
	term := NewBufferedTerminal(func(b byte) { out = append(out, b) })
	term.Write('A')
	if string(out) != "A" {
		t.Fatalf("expected output 'A', got %q", out)
	}
}

func TestBufferedTerminalWriteString(t *testing.T) {
	var out []byte
	term := NewBufferedTerminal(func(b byte) { out = append(out, b) })
	term.WriteString("Hello")
	if string(out) != "Hello" {
		t.Fatalf("expected output 'Hello', got %q", out)
	}
}

func TestBufferedTerminalKeyAvailable(t *testing.T) {
	term := NewBufferedTerminal(nil)
	if term.KeyAvailable() {
		t.Fatal("expected no input available initially")
	}
	term.EnqueueByte('A')
	if !term.KeyAvailable() {
		t.Fatal("expected input available after EnqueueByte")
	}
}

func TestBufferedTerminalReadChar(t *testing.T) {
	term := NewBufferedTerminal(nil)
	term.EnqueueByte('A')
	if got := term.ReadChar(); got != 'A' {
		t.Fatalf("expected 'A', got %q", got)
	}
	if term.KeyAvailable() {
		t.Fatal("expected empty after read")
	}
}

func TestBufferedTerminalReadSequence(t *testing.T) {
	term := NewBufferedTerminal(nil)
	input := "HELLO"
	for _, ch := range input {
		term.EnqueueByte(byte(ch))
	}
	var got []byte
	for i := 0; i < len(input); i++ {
		got = append(got, term.ReadChar())
	}
	if string(got) != input {
		t.Fatalf("expected %q, got %q", input, got)
	}
}

func TestBufferedTerminalReadCharBlocksUntilEnqueued(t *testing.T) {
	term := NewBufferedTerminal(nil)
	result := make(chan byte, 1)
	go func() {
		result <- term.ReadChar()
	}()

	select {
	case <-result:
		t.Fatal("ReadChar returned before any byte was enqueued")
	case <-time.After(20 * time.Millisecond):
	}

	term.EnqueueByte('Q')
	select {
	case b := <-result:
		if b != 'Q' {
			t.Fatalf("expected 'Q', got %q", b)
		}
	case <-time.After(time.Second):
		t.Fatal("ReadChar did not unblock after EnqueueByte")
	}
}

func TestBufferedTerminalReadLineEchoesAndTerminatesOnCR(t *testing.T) {
	var out []byte
	term := NewBufferedTerminal(func(b byte) { out = append(out, b) })
	for _, ch := range "HI\r" {
		term.EnqueueByte(byte(ch))
	}
	line := term.ReadLine()
	if line != "HI" {
		t.Fatalf("ReadLine = %q, want HI", line)
	}
	if string(out) != "HI\r\n" {
		t.Fatalf("echoed output = %q, want HI\\r\\n", out)
	}
}

func TestBufferedTerminalReadLineHandlesBackspace(t *testing.T) {
	var out []byte
	term := NewBufferedTerminal(func(b byte) { out = append(out, b) })
	for _, b := range []byte{'H', 'I', charBackspace, 'X', '\n'} {
		term.EnqueueByte(b)
	}
	line := term.ReadLine()
	if line != "HX" {
		t.Fatalf("ReadLine = %q, want HX", line)
	}
}

func TestBufferedTerminalRingBufferWrap(t *testing.T) {
	term := NewBufferedTerminal(nil)
	// 600 bytes a round, so the second round crosses the end of the
	// 1024-byte input buffer.
	for round := 0; round < 3; round++ {
		for i := 0; i < 600; i++ {
			term.EnqueueByte(byte(i + 1))
		}
		for i := 0; i < 600; i++ {
			got := term.ReadChar()
			if got != byte(i+1) {
				t.Fatalf("round %d, byte %d: got 0x%X", round, i, got)
			}
		}
		if term.KeyAvailable() {
			t.Fatalf("round %d: expected empty after drain", round)
		}
	}
}
