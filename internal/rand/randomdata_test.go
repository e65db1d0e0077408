package rand

import "testing"

func TestRandLetterBytes(t *testing.T) {
	name := randLetterBytes(20)
	if len(name) != 20 {
		t.Fatalf("expected 20 bytes, got %d", len(name))
	}
	for _, b := range name {
		if !(b >= 'a' && b <= 'z' || b >= '0' && b <= '9') {
			t.Fatalf("byte %q outside of [0-9a-z]", b)
		}
	}
}

func benchmarkRandBytes(b *testing.B, size int) {
	for n := 0; n < b.N; n++ {
		_ = randBytes(size)
	}
}

func BenchmarkRandBytes20(b *testing.B)   { benchmarkRandBytes(b, 20) }
func BenchmarkRandBytes1000(b *testing.B) { benchmarkRandBytes(b, 1000) }

func benchmarkRandLetterBytes(b *testing.B, size int) {
	for n := 0; n < b.N; n++ {
		_ = randLetterBytes(size)
	}
}

func BenchmarkRandLetterBytes20(b *testing.B)   { benchmarkRandLetterBytes(b, 20) }
func BenchmarkRandLetterBytes1000(b *testing.B) { benchmarkRandLetterBytes(b, 1000) }
