package storage

import (
	"database/sql/driver"
	"fmt"
	"sync"

	"github.com/viant/docrag/vector"
	sqlite "modernc.org/sqlite"
)

var registerOnce sync.Once

// RegisterFunctions registers rag_l2, rag_ip and rag_cosine with the driver.
// They take two float32 BLOB embeddings and are available on connections
// opened after the call; rag_l2 is the squared Euclidean distance, matching
// the L2 index scores.
func RegisterFunctions() {
	registerOnce.Do(func() {
		_ = sqlite.RegisterDeterministicScalarFunction("rag_l2", 2, scalar("rag_l2", vector.SquaredL2))
		_ = sqlite.RegisterDeterministicScalarFunction("rag_ip", 2, scalar("rag_ip", vector.InnerProduct))
		_ = sqlite.RegisterDeterministicScalarFunction("rag_cosine", 2, scalar("rag_cosine", vector.CosineSimilarity))
	})
}

func scalar(name string, fn func(a, b []float32) (float64, error)) func(*sqlite.FunctionContext, []driver.Value) (driver.Value, error) {
	return func(_ *sqlite.FunctionContext, args []driver.Value) (driver.Value, error) {
		if len(args) != 2 {
			return nil, fmt.Errorf("%s: expected 2 arguments, got %d", name, len(args))
		}
		a, err := asEmbedding(name, args[0])
		if err != nil {
			return nil, err
		}
		b, err := asEmbedding(name, args[1])
		if err != nil {
			return nil, err
		}
		if a == nil || b == nil {
			return nil, nil
		}
		score, err := fn(a, b)
		if err != nil {
			return nil, err
		}
		return score, nil
	}
}

func asEmbedding(name string, arg driver.Value) ([]float32, error) {
	switch v := arg.(type) {
	case nil:
		return nil, nil
	case []byte:
		return vector.DecodeEmbedding(v)
	default:
		return nil, fmt.Errorf("%s: unsupported argument type %T for embedding; want BLOB", name, arg)
	}
}
