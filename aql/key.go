package aql

import (
	"encoding/binary"
	"math"
)

// Type tags of the key encoding.
const (
	tagNull byte = iota
	tagFalse
	tagTrue
	tagNumber
	tagString
	tagArray
	tagObject
)

// canonicalNaN is the bit pattern every NaN encodes to.
const canonicalNaN = 0x7ff8000000000001

// AppendKey appends the canonical binary encoding of v to dst. Two values
// encode to the same bytes exactly when Equal reports them equal, so the
// encoding can key hash tables directly.
func AppendKey(dst []byte, v Value) []byte {
	switch v.kind {
	case KindNull:
		return append(dst, tagNull)
	case KindBool:
		if v.b {
			return append(dst, tagTrue)
		}
		return append(dst, tagFalse)
	case KindNumber:
		n := v.n
		var bits uint64
		switch {
		case math.IsNaN(n):
			bits = canonicalNaN
		case n == 0:
			bits = 0
		default:
			bits = math.Float64bits(n)
		}
		dst = append(dst, tagNumber)
		return binary.BigEndian.AppendUint64(dst, bits)
	case KindString:
		dst = append(dst, tagString)
		dst = binary.AppendUvarint(dst, uint64(len(v.s)))
		return append(dst, v.s...)
	case KindArray:
		dst = append(dst, tagArray)
		dst = binary.AppendUvarint(dst, uint64(len(v.arr)))
		for _, e := range v.arr {
			dst = AppendKey(dst, e)
		}
		return dst
	case KindObject:
		dst = append(dst, tagObject)
		dst = binary.AppendUvarint(dst, uint64(len(v.obj)))
		for _, k := range v.Keys() {
			dst = binary.AppendUvarint(dst, uint64(len(k)))
			dst = append(dst, k...)
			dst = AppendKey(dst, v.obj[k])
		}
		return dst
	}
	return dst
}

// AppendKeyTuple appends the encodings of every value in order. Each value's
// encoding is self-delimiting so distinct tuples never collide.
func AppendKeyTuple(dst []byte, vals []Value) []byte {
	for _, v := range vals {
		dst = AppendKey(dst, v)
	}
	return dst
}
