package vector

import (
	"encoding/binary"
	"fmt"
	"math"
)

// EncodeEmbedding encodes a vector as a little-endian sequence of IEEE 754
// float32 values without a length prefix; the length is derived from the BLOB
// size on decode.
func EncodeEmbedding(vec []float32) ([]byte, error) {
	if len(vec) == 0 {
		return nil, nil
	}
	b := make([]byte, len(vec)*4)
	putFloats(b, vec)
	return b, nil
}

// DecodeEmbedding decodes a BLOB produced by EncodeEmbedding.
func DecodeEmbedding(b []byte) ([]float32, error) {
	if len(b) == 0 {
		return nil, nil
	}
	if len(b)%4 != 0 {
		return nil, fmt.Errorf("vector: invalid embedding blob length %d (not multiple of 4)", len(b))
	}
	vec := make([]float32, len(b)/4)
	getFloats(vec, b)
	return vec, nil
}

// AppendMatrix appends rows of the same dimension to dst, back to back.
func AppendMatrix(dst []byte, rows [][]float32, dim int) ([]byte, error) {
	offset := len(dst)
	size := offset + len(rows)*dim*4
	if cap(dst) < size {
		grown := make([]byte, offset, size)
		copy(grown, dst)
		dst = grown
	}
	dst = dst[:size]
	for i, row := range rows {
		if len(row) != dim {
			return nil, fmt.Errorf("vector: row %d dimension mismatch: %d vs %d", i, len(row), dim)
		}
		putFloats(dst[offset+i*dim*4:], row)
	}
	return dst, nil
}

// DecodeMatrix reads n rows of dim floats from b.
func DecodeMatrix(b []byte, n, dim int) ([][]float32, error) {
	if n < 0 || dim < 0 {
		return nil, fmt.Errorf("vector: invalid matrix shape %dx%d", n, dim)
	}
	if len(b) != n*dim*4 {
		return nil, fmt.Errorf("vector: matrix blob length %d, want %d", len(b), n*dim*4)
	}
	rows := make([][]float32, n)
	for i := range rows {
		row := make([]float32, dim)
		getFloats(row, b[i*dim*4:])
		rows[i] = row
	}
	return rows, nil
}

func putFloats(b []byte, vec []float32) {
	for i, v := range vec {
		binary.LittleEndian.PutUint32(b[i*4:], math.Float32bits(v))
	}
}

func getFloats(vec []float32, b []byte) {
	for i := range vec {
		vec[i] = math.Float32frombits(binary.LittleEndian.Uint32(b[i*4:]))
	}
}
