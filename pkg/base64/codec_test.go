package base64_test

import (
	"bytes"
	stdbase64 "encoding/base64"
	"errors"
	"fmt"
	"math/rand"
	"testing"
	"testing/quick"

	"github.com/ZaninAndrea/sixlet/pkg/base64"
)

func TestEncodeKnownVectors(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"", ""},
		{"M", "TQ=="},
		{"Ma", "TWE="},
		{"Man", "TWFu"},
		{"Man is distinguished", "TWFuIGlzIGRpc3Rpbmd1aXNoZWQ="},
		{
			"Is there any availability of Rest service type for the Base64 Encoding?\r\n",
			"SXMgdGhlcmUgYW55IGF2YWlsYWJpbGl0eSBvZiBSZXN0IHNlcnZpY2UgdHlwZSBmb3IgdGhlIEJhc2U2NCBFbmNvZGluZz8NCg==",
		},
	}

	codec := base64.New()
	for _, tt := range tests {
		t.Run(fmt.Sprintf("%q", tt.input), func(t *testing.T) {
			got := codec.Encode([]byte(tt.input))
			if string(got) != tt.want {
				t.Errorf("Encode(%q) = %q, want %q", tt.input, got, tt.want)
			}

			decoded, err := codec.DecodeString(tt.want)
			if err != nil {
				t.Fatalf("DecodeString(%q) failed: %v", tt.want, err)
			}
			if string(decoded) != tt.input {
				t.Errorf("DecodeString(%q) = %q, want %q", tt.want, decoded, tt.input)
			}
		})
	}
}

func TestEncodeEmpty(t *testing.T) {
	got := base64.Std.Encode(nil)
	if got == nil || len(got) != 0 {
		t.Errorf("Encode(nil) = %#v, want empty slice", got)
	}

	decoded, err := base64.Std.Decode([]byte{})
	if err != nil {
		t.Fatalf("Decode(\"\") failed: %v", err)
	}
	if len(decoded) != 0 {
		t.Errorf("Decode(\"\") = %v, want empty", decoded)
	}
}

func TestEncodeDecodeIdentity(t *testing.T) {
	codec := base64.New()
	f := func(raw []byte) bool {
		encoded := codec.Encode(raw)
		decoded, err := codec.Decode(encoded)
		if err != nil {
			t.Logf("Error decoding: %v. Encoded: %q", err, encoded)
			return false
		}

		if !bytes.Equal(decoded, raw) {
			t.Logf("Mismatch: expected %x, got %x. Encoded: %q", raw, decoded, encoded)
			return false
		}

		return true
	}

	if err := quick.Check(f, nil); err != nil {
		t.Error(err)
	}
}

func TestEncodedLength(t *testing.T) {
	f := func(raw []byte) bool {
		want := 4 * ((len(raw) + 2) / 3)
		return len(base64.Std.Encode(raw)) == want && base64.EncodedLen(len(raw)) == want
	}

	if err := quick.Check(f, nil); err != nil {
		t.Error(err)
	}
}

func TestMatchesStandardLibrary(t *testing.T) {
	f := func(raw []byte) bool {
		return string(base64.Std.Encode(raw)) == stdbase64.StdEncoding.EncodeToString(raw)
	}

	if err := quick.Check(f, nil); err != nil {
		t.Error(err)
	}
}

func TestAppendEncode(t *testing.T) {
	dst := []byte("prefix:")
	got := base64.Std.AppendEncode(dst, []byte("Man"))
	if string(got) != "prefix:TWFu" {
		t.Errorf("AppendEncode = %q, want %q", got, "prefix:TWFu")
	}
}

func TestDecodeErrors(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		kind   base64.ErrorKind
		offset int
	}{
		{"length 5", "TWFuI", base64.InvalidLength, 5},
		{"length 1", "T", base64.InvalidLength, 1},
		{"length 3 with pad", "TW=", base64.InvalidLength, 3},
		{"bang", "TW!u", base64.InvalidCharacter, 2},
		{"space", "TWFu TWF", base64.InvalidCharacter, 4},
		{"newline", "TWF\n", base64.InvalidCharacter, 3},
		{"high byte", "TWF\xff", base64.InvalidCharacter, 3},
		{"url safe symbol", "TW-u", base64.InvalidCharacter, 2},
		{"interior pad", "TW=uTWFu", base64.InvalidCharacter, 2},
		{"pad in earlier quartet", "TQ==TWFu", base64.InvalidCharacter, 2},
		{"three pads", "T===", base64.InvalidCharacter, 1},
		{"only pads", "====", base64.InvalidCharacter, 0},
		{"pad before data in last quartet", "TWFu=WFu", base64.InvalidCharacter, 4},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			decoded, err := base64.Std.DecodeString(tt.input)
			if err == nil {
				t.Fatalf("DecodeString(%q) = %q, want error", tt.input, decoded)
			}
			if decoded != nil {
				t.Errorf("DecodeString(%q) returned partial output %q", tt.input, decoded)
			}

			var decodeErr *base64.DecodeError
			if !errors.As(err, &decodeErr) {
				t.Fatalf("error %v is not a *DecodeError", err)
			}
			if decodeErr.Kind != tt.kind {
				t.Errorf("Kind = %v, want %v", decodeErr.Kind, tt.kind)
			}
			if decodeErr.Offset != tt.offset {
				t.Errorf("Offset = %d, want %d", decodeErr.Offset, tt.offset)
			}

			wantSentinel := base64.ErrInvalidCharacter
			if tt.kind == base64.InvalidLength {
				wantSentinel = base64.ErrInvalidLength
			}
			if !errors.Is(err, wantSentinel) {
				t.Errorf("errors.Is(%v, %v) = false", err, wantSentinel)
			}
		})
	}
}

func TestDecodeErrorMessage(t *testing.T) {
	_, err := base64.Std.DecodeString("TW!u")
	if got, want := err.Error(), "input being decoded contains invalid characters (offset 2)"; got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}

	_, err = base64.Std.DecodeString("TWFuI")
	if got, want := err.Error(), "input isn't properly aligned (length 5)"; got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
}

// The encoder fills the discarded low bits of the last real symbol with zeros.
func TestPaddingBitsAreZero(t *testing.T) {
	f := func(raw []byte) bool {
		if len(raw)%3 == 0 {
			return true
		}
		encoded := base64.Std.Encode(raw)
		quartet := encoded[len(encoded)-4:]

		var last byte
		var mask byte
		switch len(raw) % 3 {
		case 1:
			last, mask = quartet[1], 0x0f
		case 2:
			last, mask = quartet[2], 0x03
		}

		sixlet, ok := base64.Std.Sixlet(last)
		if !ok {
			t.Logf("Symbol %q is not in the alphabet", last)
			return false
		}
		return sixlet&mask == 0
	}

	if err := quick.Check(f, nil); err != nil {
		t.Error(err)
	}
}

func TestSixletTable(t *testing.T) {
	codec := base64.New()
	for i := 0; i < len(base64.Alphabet); i++ {
		sixlet, ok := codec.Sixlet(base64.Alphabet[i])
		if !ok || int(sixlet) != i {
			t.Errorf("Sixlet(%q) = %d, %v, want %d, true", base64.Alphabet[i], sixlet, ok, i)
		}
	}

	seen := map[byte]bool{}
	for i := 0; i < len(base64.Alphabet); i++ {
		if seen[base64.Alphabet[i]] {
			t.Errorf("Symbol %q appears twice in the alphabet", base64.Alphabet[i])
		}
		seen[base64.Alphabet[i]] = true
	}

	for b := 0; b < 256; b++ {
		if seen[byte(b)] {
			continue
		}
		if _, ok := codec.Sixlet(byte(b)); ok {
			t.Errorf("Sixlet(%q) reported a value for a symbol outside the alphabet", byte(b))
		}
	}
}

// Encoding chunk by chunk only matches a whole-buffer encode when every chunk
// boundary falls on a 3-byte boundary.
func TestChunkedEncodeEquivalence(t *testing.T) {
	rng := rand.New(rand.NewSource(12345))
	data := make([]byte, 10000)
	rng.Read(data)

	whole := base64.Std.Encode(data)

	chunked := func(size int) []byte {
		var out []byte
		for start := 0; start < len(data); start += size {
			end := min(start+size, len(data))
			out = base64.Std.AppendEncode(out, data[start:end])
		}
		return out
	}

	for _, size := range []int{3, 30, 999, 3072} {
		if got := chunked(size); !bytes.Equal(got, whole) {
			t.Errorf("Chunk size %d: chunked encoding differs from whole-buffer encoding", size)
		}
	}

	for _, size := range []int{4, 1000, 1024} {
		if got := chunked(size); bytes.Equal(got, whole) {
			t.Errorf("Chunk size %d: expected chunked encoding to differ from whole-buffer encoding", size)
		}
	}
}

func TestConcurrentUse(t *testing.T) {
	codec := base64.New()
	done := make(chan bool)
	for g := 0; g < 8; g++ {
		go func(seed int64) {
			rng := rand.New(rand.NewSource(seed))
			ok := true
			for i := 0; i < 200; i++ {
				raw := make([]byte, rng.Intn(512))
				rng.Read(raw)
				decoded, err := codec.Decode(codec.Encode(raw))
				ok = ok && err == nil && bytes.Equal(decoded, raw)
			}
			done <- ok
		}(int64(g))
	}

	for g := 0; g < 8; g++ {
		if !<-done {
			t.Error("Concurrent round trip failed")
		}
	}
}

func BenchmarkCodec(b *testing.B) {
	sizes := []int{100, 1000, 10000, 100000}
	for _, n := range sizes {
		rng := rand.New(rand.NewSource(12345))
		data := make([]byte, n)
		rng.Read(data)

		b.Run(fmt.Sprintf("Encode_%d", n), func(b *testing.B) {
			b.ReportAllocs()
			b.SetBytes(int64(n))
			for i := 0; i < b.N; i++ {
				_ = base64.Std.Encode(data)
			}
		})

		encoded := base64.Std.Encode(data)

		b.Run(fmt.Sprintf("Decode_%d", n), func(b *testing.B) {
			b.ReportAllocs()
			b.SetBytes(int64(len(encoded)))
			for i := 0; i < b.N; i++ {
				_, _ = base64.Std.Decode(encoded)
			}
		})
	}
}
