package fec

import (
	"bytes"
	"errors"
	"testing"
)

func TestRoundTripBasic(t *testing.T) {
	c := New()
	cases := [][]byte{
		nil,
		{},
		[]byte("hello, soniclink"),
		bytes.Repeat([]byte{0x42}, 223),
		bytes.Repeat([]byte{0x7A}, 500),
	}
	for _, data := range cases {
		encoded := c.Encode(data)
		got, err := c.Decode(encoded)
		if err != nil {
			t.Fatalf("Decode(%d bytes): %v", len(data), err)
		}
		if !bytes.Equal(got, data) {
			t.Errorf("round trip mismatch for %d-byte input: want %v got %v", len(data), data, got)
		}
	}
}

func TestCorrects16ByteErrors(t *testing.T) {
	c := New()
	data := bytes.Repeat([]byte{'A'}, 223)
	encoded := c.Encode(data)

	corrupt := append([]byte(nil), encoded...)
	positions := []int{0, 3, 7, 11, 19, 23, 40, 55, 61, 70, 88, 99, 120, 150, 180, 199}
	for i, p := range positions {
		corrupt[4+p] ^= byte(0x10 + i)
	}

	got, err := c.Decode(corrupt)
	if err != nil {
		t.Fatalf("Decode with 16 byte errors: %v", err)
	}
	if !bytes.Equal(got, data) {
		t.Error("failed to correct 16 byte errors within one block")
	}
}

func TestUncorrectableReportsWarning(t *testing.T) {
	c := New()
	data := bytes.Repeat([]byte{'Z'}, 223)
	encoded := c.Encode(data)

	corrupt := append([]byte(nil), encoded...)
	for i := 0; i < 40; i++ {
		corrupt[4+i] ^= 0xFF
	}

	_, err := c.Decode(corrupt)
	if err == nil {
		t.Fatal("expected an uncorrectable-block warning")
	}
	var fecErr *Error
	if !errors.As(err, &fecErr) {
		t.Fatalf("expected *fec.Error, got %T", err)
	}
	if fecErr.Kind != Uncorrectable {
		t.Errorf("expected Uncorrectable, got %v", fecErr.Kind)
	}
}

func TestDecodeRejectsTruncatedInput(t *testing.T) {
	c := New()
	_, err := c.Decode([]byte{1, 2, 3})
	if err == nil {
		t.Fatal("expected an error for input not a multiple of the block size")
	}
	var fecErr *Error
	if !errors.As(err, &fecErr) || fecErr.Kind != Truncated {
		t.Fatalf("expected Truncated error, got %v", err)
	}
}

func TestEncodeIsDeterministic(t *testing.T) {
	c := New()
	data := []byte("deterministic parity")
	a := c.Encode(data)
	b := c.Encode(data)
	if !bytes.Equal(a, b) {
		t.Error("Encode is not deterministic")
	}
}
