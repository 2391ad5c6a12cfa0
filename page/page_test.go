package page

import "testing"

func TestFrameResetClearsState(t *testing.T) {
	f := &Frame{}
	f.PageID = 5
	f.PinCount = 3
	f.IsDirty = true
	f.Data[0] = 0xFF

	f.Reset()

	if f.PageID != -1 {
		t.Fatalf("PageID after Reset = %d, want -1", f.PageID)
	}
	if f.PinCount != 0 {
		t.Fatalf("PinCount after Reset = %d, want 0", f.PinCount)
	}
	if f.IsDirty {
		t.Fatal("IsDirty after Reset = true")
	}
	for i, b := range f.Data {
		if b != 0 {
			t.Fatalf("Data[%d] after Reset = %d, want 0", i, b)
		}
	}
}

func TestChecksumDeterministicAndSensitive(t *testing.T) {
	a := make([]byte, Size)
	b := make([]byte, Size)
	copy(a, "identical contents")
	copy(b, "identical contents")

	if Checksum(a) != Checksum(b) {
		t.Fatal("Checksum differs for identical buffers")
	}

	b[0] ^= 0x01
	if Checksum(a) == Checksum(b) {
		t.Fatal("Checksum unchanged after single-byte mutation")
	}
}
