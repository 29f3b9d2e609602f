package base64

import "slices"

// Alphabet lists the 64 symbols in sixlet order.
const Alphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789+/"

// Pad marks the unused trailing positions of the final quartet.
const Pad byte = '='

// absent marks bytes with no sixlet. Zero is a valid sixlet, so it cannot be used.
const absent int8 = -1

const sixletMask = 0x3f

// Codec holds the encode and decode lookup tables.
// A Codec is immutable once built and may be shared between goroutines.
type Codec struct {
	symbolOf [64]byte
	sixletOf [256]int8
}

// Std is the shared codec for the standard alphabet.
var Std = New()

// New builds a codec over the standard alphabet.
func New() *Codec {
	c := &Codec{}
	for i := range c.sixletOf {
		c.sixletOf[i] = absent
	}

	for i := 0; i < len(Alphabet); i++ {
		c.symbolOf[i] = Alphabet[i]
		c.sixletOf[Alphabet[i]] = int8(i)
	}

	return c
}

// EncodedLen returns the length of the encoding of n source bytes.
func EncodedLen(n int) int {
	return (n + 2) / 3 * 4
}

// DecodedLen returns the maximum length of the bytes decoded from n symbols.
func DecodedLen(n int) int {
	return n / 4 * 3
}

// Encode returns the padded base64 encoding of src.
func (c *Codec) Encode(src []byte) []byte {
	return c.AppendEncode(make([]byte, 0, EncodedLen(len(src))), src)
}

// AppendEncode appends the padded base64 encoding of src to dst.
func (c *Codec) AppendEncode(dst, src []byte) []byte {
	dst = slices.Grow(dst, EncodedLen(len(src)))

	full := len(src) - len(src)%3
	for i := 0; i < full; i += 3 {
		b1, b2, b3 := src[i], src[i+1], src[i+2]
		dst = append(dst,
			c.symbolOf[b1>>2],
			c.symbolOf[(b1&0x03)<<4|b2>>4],
			c.symbolOf[(b2&0x0f)<<2|b3>>6],
			c.symbolOf[b3&sixletMask],
		)
	}

	switch len(src) - full {
	case 2:
		b1, b2 := src[full], src[full+1]
		dst = append(dst,
			c.symbolOf[b1>>2],
			c.symbolOf[(b1&0x03)<<4|b2>>4],
			c.symbolOf[(b2&0x0f)<<2],
			Pad,
		)
	case 1:
		b1 := src[full]
		dst = append(dst,
			c.symbolOf[b1>>2],
			c.symbolOf[(b1&0x03)<<4],
			Pad,
			Pad,
		)
	}

	return dst
}

// EncodeToString is Encode returning a string.
func (c *Codec) EncodeToString(src []byte) string {
	return string(c.Encode(src))
}

// Decode returns the bytes represented by the padded base64 symbols in src.
// On error the returned slice is nil.
func (c *Codec) Decode(src []byte) ([]byte, error) {
	if len(src)%4 != 0 {
		return nil, newDecodeError(InvalidLength, len(src))
	}

	pad := trailingPad(src)
	if pad > 2 {
		return nil, newDecodeError(InvalidCharacter, len(src)-pad)
	}
	body := len(src) - pad

	dst := make([]byte, 0, DecodedLen(len(src)))
	for i := 0; i < len(src); i += 4 {
		var quantum uint32
		for j := i; j < i+4; j++ {
			sixlet := c.sixletOf[src[j]]
			if sixlet == absent {
				if j < body {
					return nil, newDecodeError(InvalidCharacter, j)
				}
				// Pad positions pack as zero and are truncated below.
				sixlet = 0
			}
			quantum = quantum<<6 | uint32(sixlet)
		}

		dst = append(dst, byte(quantum>>16), byte(quantum>>8), byte(quantum))
	}

	return dst[:len(dst)-pad], nil
}

// DecodeString is Decode over a string.
func (c *Codec) DecodeString(s string) ([]byte, error) {
	return c.Decode([]byte(s))
}

// Sixlet returns the alphabet index of symbol, or false if symbol is not in the alphabet.
func (c *Codec) Sixlet(symbol byte) (byte, bool) {
	sixlet := c.sixletOf[symbol]
	if sixlet == absent {
		return 0, false
	}
	return byte(sixlet), true
}

func trailingPad(src []byte) int {
	n := 0
	for i := len(src) - 1; i >= 0 && src[i] == Pad; i-- {
		n++
	}
	return n
}
