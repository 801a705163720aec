package compress

import (
	"bytes"
	"math/rand"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestRoundTripBasic(t *testing.T) {
	cases := [][]byte{
		nil,
		{},
		[]byte("Hello, SonicLink!"),
		allBytes(),
		bytes.Repeat([]byte{0}, 1024),
		{0x42},
	}
	for _, in := range cases {
		var c Compressor
		compressed, err := c.Compress(in)
		if err != nil {
			t.Fatalf("Compress(%v) error: %v", in, err)
		}
		out, err := c.Decompress(compressed)
		if err != nil {
			t.Fatalf("Decompress error: %v", err)
		}
		if len(in) == 0 {
			if len(out) != 0 {
				t.Errorf("expected empty output, got %v", out)
			}
			continue
		}
		if !cmp.Equal(out, in) {
			t.Errorf("round trip mismatch:\nwant: %v\ngot:  %v", in, out)
		}
	}
}

func TestZerosCompressRatio(t *testing.T) {
	in := bytes.Repeat([]byte{0}, 1024)
	var c Compressor
	compressed, err := c.Compress(in)
	if err != nil {
		t.Fatal(err)
	}
	if len(compressed) >= 200 {
		t.Errorf("expected compressed size < 200, got %d", len(compressed))
	}
	stats := c.Stats()
	if stats.Original != 1024 || stats.Compressed != len(compressed) {
		t.Errorf("unexpected stats: %+v", stats)
	}
}

func TestRoundTripRandom(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	for i := 0; i < 50; i++ {
		n := rng.Intn(2000)
		in := make([]byte, n)
		rng.Read(in)
		var c Compressor
		compressed, err := c.Compress(in)
		if err != nil {
			t.Fatalf("Compress error: %v", err)
		}
		out, err := c.Decompress(compressed)
		if err != nil {
			t.Fatalf("Decompress error: %v", err)
		}
		if !bytes.Equal(out, in) {
			t.Fatalf("round trip mismatch at iteration %d (n=%d)", i, n)
		}
	}
}

func TestTreeDeterminism(t *testing.T) {
	var freq [256]uint32
	for i := range freq {
		freq[i] = uint32(i % 5)
	}
	freq[10] = 0
	t1 := buildTree(freq)
	t2 := buildTree(freq)
	c1 := codesFor(t1)
	c2 := codesFor(t2)
	if !cmp.Equal(c1, c2, cmp.AllowUnexported(code{})) {
		t.Errorf("two independent tree builds produced different codes")
	}
}

func TestMalformedHeader(t *testing.T) {
	var c Compressor
	_, err := c.Decompress([]byte{5, 0, 0, 0, 0, 1})
	if err == nil {
		t.Fatal("expected error for malformed header")
	}
}

func allBytes() []byte {
	b := make([]byte, 256)
	for i := range b {
		b[i] = byte(i)
	}
	return b
}
