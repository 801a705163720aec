package fec

import (
	"encoding/binary"
	"fmt"
)

// Codec is a systematic Reed-Solomon (n,k) codec over GF(2^8). The zero
// value is not usable; construct with New or NewCodec.
type Codec struct {
	N, K int
	gen  []byte // generator polynomial, MSB-first, monic.
}

// New returns the spec.md §4.3 default (255,223) codec: 32 parity bytes
// per 223-byte block, correcting up to 16 byte errors per block.
func New() *Codec {
	return NewCodec(255, 223)
}

// NewCodec builds a codec for an arbitrary (n,k) pair, n-k even only in
// the conventional sense that it determines the number of correctable
// byte errors as (n-k)/2.
func NewCodec(n, k int) *Codec {
	return &Codec{N: n, K: k, gen: generatorPoly(n - k)}
}

// generatorPoly builds g(x) = product_{i=0}^{nsym-1} (x - alpha^i),
// MSB-first, monic, with alpha = 2 (the primitive root of the field
// built in gf256.go).
func generatorPoly(nsym int) []byte {
	g := []byte{1}
	for i := 0; i < nsym; i++ {
		g = gfPolyMul(g, []byte{1, gfPow(2, i)})
	}
	return g
}

// encodeBlock systematically encodes a k-byte data block into an n-byte
// codeword: the data bytes unchanged, followed by n-k parity bytes
// equal to the remainder of data(x)*x^(n-k) divided by the generator.
func (c *Codec) encodeBlock(data []byte) []byte {
	nsym := len(c.gen) - 1
	remainder := make([]byte, len(data)+nsym)
	copy(remainder, data)
	for i := 0; i < len(data); i++ {
		coef := remainder[i]
		if coef == 0 {
			continue
		}
		for j := 0; j < len(c.gen); j++ {
			remainder[i+j] ^= gfMul(c.gen[j], coef)
		}
	}
	out := make([]byte, len(data)+nsym)
	copy(out, data)
	copy(out[len(data):], remainder[len(data):])
	return out
}

// decodeBlock corrects byte errors in an n-byte received block and
// returns the k-byte data portion. ok is false when the block carries
// more errors than the code can locate.
func (c *Codec) decodeBlock(received []byte) (data []byte, ok bool) {
	n, nsym := c.N, c.N-c.K
	syn := make([]byte, nsym)
	clean := true
	for j := 0; j < nsym; j++ {
		syn[j] = gfPolyEval(received, gfPow(2, j))
		if syn[j] != 0 {
			clean = false
		}
	}
	if clean {
		return append([]byte(nil), received[:c.K]...), true
	}

	sigma := berlekampMassey(syn)
	errs := len(sigma) - 1
	if errs == 0 || errs > nsym/2 {
		return nil, false
	}

	var errPos []int
	for i := 0; i < n; i++ {
		k := n - 1 - i
		x0 := gfInv(gfPow(2, k))
		if evalLSB(sigma, x0) == 0 {
			errPos = append(errPos, i)
		}
	}
	if len(errPos) != errs {
		return nil, false
	}

	omega := polyMulLSB(syn, sigma)
	if len(omega) > nsym {
		omega = omega[:nsym]
	}

	corrected := append([]byte(nil), received...)
	for _, i := range errPos {
		k := n - 1 - i
		xk := gfPow(2, k)
		xkInv := gfInv(xk)
		denom := derivativeEval(sigma, xkInv)
		if denom == 0 {
			return nil, false
		}
		magnitude := gfMul(xk, gfDiv(evalLSB(omega, xkInv), denom))
		corrected[i] ^= magnitude
	}

	for j := 0; j < nsym; j++ {
		if gfPolyEval(corrected, gfPow(2, j)) != 0 {
			return nil, false
		}
	}
	return corrected[:c.K], true
}

// berlekampMassey runs LFSR synthesis over the syndrome sequence and
// returns the error locator polynomial sigma(x), LSB-first (sigma[0] is
// the constant term, always 1).
func berlekampMassey(syn []byte) []byte {
	n := len(syn)
	conn := make([]byte, 1, n+1)
	conn[0] = 1
	prev := make([]byte, 1, n+1)
	prev[0] = 1
	length := 0
	shift := 1
	lastDiscrepancy := byte(1)

	for i := 0; i < n; i++ {
		discrepancy := syn[i]
		for j := 1; j <= length && j < len(conn); j++ {
			discrepancy ^= gfMul(conn[j], syn[i-j])
		}
		if discrepancy == 0 {
			shift++
			continue
		}
		if 2*length <= i {
			t := append([]byte(nil), conn...)
			coef := gfDiv(discrepancy, lastDiscrepancy)
			growTo(&conn, len(prev)+shift)
			for k := 0; k < len(prev); k++ {
				conn[k+shift] ^= gfMul(coef, prev[k])
			}
			length = i + 1 - length
			prev = t
			lastDiscrepancy = discrepancy
			shift = 1
		} else {
			coef := gfDiv(discrepancy, lastDiscrepancy)
			growTo(&conn, len(prev)+shift)
			for k := 0; k < len(prev); k++ {
				conn[k+shift] ^= gfMul(coef, prev[k])
			}
			shift++
		}
	}
	return conn[:length+1]
}

func growTo(p *[]byte, size int) {
	if size > len(*p) {
		grown := make([]byte, size)
		copy(grown, *p)
		*p = grown
	}
}

// evalLSB evaluates an LSB-first polynomial (p[i] is the coefficient of
// x^i) at x0.
func evalLSB(p []byte, x0 byte) byte {
	var result byte
	xPow := byte(1)
	for i := 0; i < len(p); i++ {
		result ^= gfMul(p[i], xPow)
		xPow = gfMul(xPow, x0)
	}
	return result
}

// derivativeEval evaluates the formal derivative of an LSB-first
// polynomial at x0. Over GF(2^m) the derivative keeps only odd-degree
// terms.
func derivativeEval(p []byte, x0 byte) byte {
	var result byte
	xPow := byte(1)
	for j := 1; j < len(p); j++ {
		if j%2 == 1 {
			result ^= gfMul(p[j], xPow)
		}
		xPow = gfMul(xPow, x0)
	}
	return result
}

// polyMulLSB multiplies two LSB-first polynomials.
func polyMulLSB(a, b []byte) []byte {
	out := make([]byte, len(a)+len(b)-1)
	for i, ac := range a {
		if ac == 0 {
			continue
		}
		for j, bc := range b {
			if bc == 0 {
				continue
			}
			out[i+j] ^= gfMul(ac, bc)
		}
	}
	return out
}

// Encode applies FEC across data, split into k-byte blocks (the final
// block zero-padded). The original length is carried in a 4-byte
// big-endian prefix ahead of the first block so Decode can trim the
// padding back off on the way out; the prefix is itself parity
// protected since it rides inside the first encoded block.
func (c *Codec) Encode(data []byte) []byte {
	var lenPrefix [4]byte
	binary.BigEndian.PutUint32(lenPrefix[:], uint32(len(data)))
	payload := append(lenPrefix[:], data...)

	out := make([]byte, 0, (len(payload)/c.K+1)*c.N)
	for offset := 0; offset < len(payload); offset += c.K {
		end := offset + c.K
		var block []byte
		if end > len(payload) {
			block = make([]byte, c.K)
			copy(block, payload[offset:])
		} else {
			block = payload[offset:end]
		}
		out = append(out, c.encodeBlock(block)...)
	}
	return out
}

// Decode reverses Encode, correcting up to (n-k)/2 byte errors per
// block. If any block is uncorrectable, Decode still returns its best
// effort (the block's raw data bytes, uncorrected) alongside a non-nil
// *Error describing which block failed, per spec.md §9.4.
func (c *Codec) Decode(encoded []byte) ([]byte, error) {
	if len(encoded) == 0 || len(encoded)%c.N != 0 {
		return nil, &Error{Kind: Truncated, Block: -1, Err: fmt.Errorf("input length %d is not a multiple of block size %d", len(encoded), c.N)}
	}
	nblocks := len(encoded) / c.N
	payload := make([]byte, 0, nblocks*c.K)
	var warn error
	for b := 0; b < nblocks; b++ {
		block := encoded[b*c.N : (b+1)*c.N]
		data, ok := c.decodeBlock(block)
		if !ok {
			data = append([]byte(nil), block[:c.K]...)
			if warn == nil {
				warn = &Error{Kind: Uncorrectable, Block: b, Err: fmt.Errorf("block carries more than %d byte errors", (c.N-c.K)/2)}
			}
		}
		payload = append(payload, data...)
	}
	if len(payload) < 4 {
		return payload, &Error{Kind: Truncated, Block: -1, Err: fmt.Errorf("decoded payload shorter than length header")}
	}
	origLen := int(binary.BigEndian.Uint32(payload[:4]))
	rest := payload[4:]
	if origLen < 0 || origLen > len(rest) {
		return rest, warn
	}
	return rest[:origLen], warn
}
