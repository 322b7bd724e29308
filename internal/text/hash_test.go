package text

import "testing"

func TestSha256Hex(t *testing.T) {
	t.Parallel()

	if got := Sha256Hex(""); got != "" {
		t.Errorf("Sha256Hex(blank) = %q, want empty", got)
	}
	if got := Sha256Hex("   "); got != "" {
		t.Errorf("Sha256Hex(whitespace) = %q, want empty", got)
	}
	if Sha256Hex(" word ") != Sha256Hex("word") {
		t.Error("hash must ignore surrounding whitespace")
	}
	if got := Sha256Hex("word"); len(got) != 64 {
		t.Errorf("hex hash length = %d, want 64", len(got))
	}
}

func TestSha256Bytes(t *testing.T) {
	t.Parallel()

	if got := Sha256Bytes(""); got != nil {
		t.Errorf("Sha256Bytes(blank) = %v, want nil", got)
	}
	if got := Sha256Bytes("word"); len(got) != 32 {
		t.Errorf("raw hash length = %d, want 32", len(got))
	}
	if Sha256Bytes("a")[0] == Sha256Bytes("b")[0] && Sha256Bytes("a")[1] == Sha256Bytes("b")[1] {
		t.Error("different inputs produced suspiciously equal prefixes")
	}
}
