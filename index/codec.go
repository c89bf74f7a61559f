package index

import (
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/viant/docrag/vector"
)

const (
	magic      = "DRIX"
	version    = 1
	headerSize = 4 + 1 + 1 + 4 + 4
)

var errInvalidData = errors.New("index: invalid data")

// Encode stores: magic, version(u8), metric(u8), dim(u32), n(u32), then n
// vectors of dim little-endian float32 values.
func Encode(metric Metric, dim int, vectors [][]float32) ([]byte, error) {
	code, err := metricCode(metric)
	if err != nil {
		return nil, err
	}
	out := make([]byte, headerSize, headerSize+len(vectors)*dim*4)
	copy(out, magic)
	out[4] = version
	out[5] = code
	binary.LittleEndian.PutUint32(out[6:10], uint32(dim))
	binary.LittleEndian.PutUint32(out[10:14], uint32(len(vectors)))
	return vector.AppendMatrix(out, vectors, dim)
}

// Decode restores the metric, dimension and vectors written by Encode.
func Decode(data []byte) (Metric, int, [][]float32, error) {
	if len(data) < headerSize || string(data[:4]) != magic {
		return "", 0, nil, errInvalidData
	}
	if data[4] != version {
		return "", 0, nil, fmt.Errorf("index: unsupported format version %d", data[4])
	}
	metric, err := codeMetric(data[5])
	if err != nil {
		return "", 0, nil, err
	}
	dim := int(binary.LittleEndian.Uint32(data[6:10]))
	n := int(binary.LittleEndian.Uint32(data[10:14]))
	if n > 0 && dim == 0 {
		return "", 0, nil, errInvalidData
	}
	vectors, err := vector.DecodeMatrix(data[headerSize:], n, dim)
	if err != nil {
		return "", 0, nil, fmt.Errorf("index: truncated data: %w", err)
	}
	return metric, dim, vectors, nil
}

func metricCode(m Metric) (byte, error) {
	switch m {
	case L2:
		return 1, nil
	case InnerProduct:
		return 2, nil
	}
	return 0, fmt.Errorf("index: unsupported metric %q", m)
}

func codeMetric(c byte) (Metric, error) {
	switch c {
	case 1:
		return L2, nil
	case 2:
		return InnerProduct, nil
	}
	return "", fmt.Errorf("index: unsupported metric code %d", c)
}
