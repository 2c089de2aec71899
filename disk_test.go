package main

import "testing"

func TestNormalizeDiskNameAppendsTrailingDot(t *testing.T) {
	if got := NormalizeDiskName("readme"); got != "README." {
		t.Fatalf("NormalizeDiskName(readme) = %q, want README.", got)
	}
	if got := NormalizeDiskName(" hello.txt "); got != "HELLO.TXT" {
		t.Fatalf("NormalizeDiskName( hello.txt ) = %q, want HELLO.TXT", got)
	}
}

func TestWriteReadBytesRoundTrip(t *testing.T) {
	d := NewVirtualDisk()
	data := []byte{1, 2, 3, 4, 5}
	d.WriteBytes("FOO.BAR", data)
	got, ok := d.ReadBytes("foo.bar")
	if !ok {
		t.Fatalf("FOO.BAR not found")
	}
	if len(got) != len(data) {
		t.Fatalf("round trip length mismatch")
	}
	for i := range data {
		if got[i] != data[i] {
			t.Fatalf("round trip byte mismatch at %d", i)
		}
	}
}

func TestWriteTextNormalizesCRLFAndEOF(t *testing.T) {
	d := NewVirtualDisk()
	d.WriteText("A.TXT", "line one\nline two\n")
	raw, _ := d.ReadBytes("A.TXT")
	want := "line one\r\nline two\r\n\x1A"
	if string(raw) != want {
		t.Fatalf("stored text = %q, want %q", raw, want)
	}
	text, ok := d.ReadText("A.TXT")
	if !ok {
		t.Fatalf("A.TXT not found")
	}
	if text != "line one\r\nline two\r\n" {
		t.Fatalf("ReadText = %q", text)
	}
}

func TestWriteTextIsIdempotentAfterNormalization(t *testing.T) {
	d := NewVirtualDisk()
	d.WriteText("A.TXT", "one\r\ntwo\r\n")
	first, _ := d.ReadBytes("A.TXT")
	// Re-normalizing an already-normalized body through ReadText then
	// WriteText again must be a fixed point.
	text, _ := d.ReadText("A.TXT")
	d.WriteText("B.TXT", text)
	second, _ := d.ReadBytes("B.TXT")
	if string(first) != string(second) {
		t.Fatalf("canonicalized text is not a fixed point: %q vs %q", first, second)
	}
}

func TestExistsDeleteRename(t *testing.T) {
	d := NewVirtualDisk()
	d.WriteBytes("X.COM", []byte{0})
	if !d.Exists("X.COM") {
		t.Fatalf("X.COM should exist")
	}
	if !d.Rename("X.COM", "Y.COM") {
		t.Fatalf("rename should succeed")
	}
	if d.Exists("X.COM") {
		t.Fatalf("X.COM should no longer exist after rename")
	}
	if !d.Exists("Y.COM") {
		t.Fatalf("Y.COM should exist after rename")
	}
	if !d.Delete("Y.COM") {
		t.Fatalf("delete should succeed")
	}
	if d.Delete("Y.COM") {
		t.Fatalf("second delete of the same name should report false")
	}
}

func TestSize(t *testing.T) {
	d := NewVirtualDisk()
	d.WriteBytes("S.DAT", make([]byte, 300))
	n, ok := d.Size("S.DAT")
	if !ok || n != 300 {
		t.Fatalf("Size = %d, %v, want 300, true", n, ok)
	}
	if _, ok := d.Size("MISSING.DAT"); ok {
		t.Fatalf("Size of missing file should report false")
	}
}

func TestListMatchingWildcards(t *testing.T) {
	d := NewVirtualDisk()
	d.WriteBytes("HELLO.COM", []byte{1})
	d.WriteBytes("README.TXT", []byte{1})
	d.WriteBytes("HELP.COM", []byte{1})

	got := d.ListMatching("*.COM")
	if len(got) != 2 || got[0] != "HELLO.COM" || got[1] != "HELP.COM" {
		t.Fatalf("ListMatching(*.COM) = %v", got)
	}

	got = d.ListMatching("H???O.COM")
	if len(got) != 1 || got[0] != "HELLO.COM" {
		t.Fatalf("ListMatching(H???O.COM) = %v", got)
	}

	got = d.ListMatching("*.*")
	if len(got) != 3 {
		t.Fatalf("ListMatching(*.*) = %v, want 3 entries", got)
	}
}

func TestListMatchingNoHitsReturnsEmpty(t *testing.T) {
	d := NewVirtualDisk()
	d.WriteBytes("ONE.COM", []byte{1})
	got := d.ListMatching("*.TXT")
	if len(got) != 0 {
		t.Fatalf("expected no matches, got %v", got)
	}
}

// The canonical BDOS F_SFIRST enumeration FCB normalizes to an
// all-'?' pattern on both fields; '?' must absorb the padding short
// names and extensions don't actually have on an unpadded disk key.
func TestListMatchingAllWildcardsMatchesShortNames(t *testing.T) {
	d := NewVirtualDisk()
	d.WriteBytes("HI.C", []byte{1})
	d.WriteBytes("README.TXT", []byte{1})

	got := d.ListMatching("????????.???")
	if len(got) != 2 {
		t.Fatalf("ListMatching(????????.???) = %v, want both files", got)
	}
}

func TestMatchFieldQuestionMarkAbsorbsPadding(t *testing.T) {
	if !matchField("????????", "HI") {
		t.Fatalf("8 '?' should match a 2-character name")
	}
	if !matchField("???", "") {
		t.Fatalf("3 '?' should match an empty extension")
	}
	if matchField("AB", "A") {
		t.Fatalf("literal pattern char must not match implicit padding")
	}
}
