package solana

import (
	"errors"
	"io"
)

var errCompactU16Range = errors.New("compact-u16 value out of range")

// appendCompactU16 appends n in the compact-u16 encoding the wire format
// uses for sequence lengths: little-endian base-128 with a continuation
// bit per byte.
func appendCompactU16(b []byte, n int) []byte {
	for {
		if n < 0x80 {
			return append(b, byte(n))
		}
		b = append(b, byte(n&0x7f)|0x80)
		n >>= 7
	}
}

// readCompactU16 reads one compact-u16 length prefix.
func readCompactU16(r io.ByteReader) (int, error) {
	var n, shift int
	for {
		c, err := r.ReadByte()
		if err != nil {
			return 0, err
		}
		n |= int(c&0x7f) << shift
		if c < 0x80 {
			break
		}
		shift += 7
		if shift > 14 {
			return 0, errCompactU16Range
		}
	}
	if n > 0xffff {
		return 0, errCompactU16Range
	}
	return n, nil
}
