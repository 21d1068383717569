package protocol

// MaxVarintLen is the longest encoding of a 64-bit varint.
const MaxVarintLen = 10

// EncodeUvarint writes v into buf and returns the number of bytes written.
// buf must hold at least UvarintLen(v) bytes.
func EncodeUvarint(buf []byte, v uint64) int {
	i := 0
	for v >= 0x80 {
		buf[i] = byte(v) | 0x80
		v >>= 7
		i++
	}
	buf[i] = byte(v)
	return i + 1
}

// DecodeUvarint reads a varint from buf. It returns the value and the number
// of bytes read; n is 0 when buf ends early and negative on overflow.
func DecodeUvarint(buf []byte) (v uint64, n int) {
	var shift uint
	for i, b := range buf {
		if i == MaxVarintLen {
			return 0, -(i + 1)
		}
		if b < 0x80 {
			if i == MaxVarintLen-1 && b > 1 {
				return 0, -(i + 1)
			}
			return v | uint64(b)<<shift, i + 1
		}
		v |= uint64(b&0x7f) << shift
		shift += 7
	}
	return 0, 0
}

// UvarintLen returns how many bytes EncodeUvarint uses for v.
func UvarintLen(v uint64) int {
	n := 1
	for v >= 0x80 {
		v >>= 7
		n++
	}
	return n
}
