package storage

import (
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
)

const (
	indexArtifact     = "index.bin"
	chunksArtifact    = "chunks.bin"
	documentsArtifact = "documents.json"
)

// EncodeChunks stores: n(uint32), then for each chunk len(uint32) and bytes.
func EncodeChunks(chunks []string) []byte {
	size := 4
	for _, c := range chunks {
		size += 4 + len(c)
	}
	out := make([]byte, 4, size)
	binary.LittleEndian.PutUint32(out, uint32(len(chunks)))
	for _, c := range chunks {
		out = binary.LittleEndian.AppendUint32(out, uint32(len(c)))
		out = append(out, c...)
	}
	return out
}

// DecodeChunks restores a sequence written by EncodeChunks.
func DecodeChunks(data []byte) ([]string, error) {
	if len(data) < 4 {
		return nil, errors.New("storage: invalid chunk data")
	}
	n := int(binary.LittleEndian.Uint32(data))
	off := 4
	chunks := make([]string, 0, min(n, len(data)/4))
	for i := 0; i < n; i++ {
		if off+4 > len(data) {
			return nil, fmt.Errorf("storage: truncated chunk %d", i)
		}
		l := int(binary.LittleEndian.Uint32(data[off:]))
		off += 4
		if off+l > len(data) {
			return nil, fmt.Errorf("storage: truncated chunk %d", i)
		}
		chunks = append(chunks, string(data[off:off+l]))
		off += l
	}
	if off != len(data) {
		return nil, fmt.Errorf("storage: %d trailing bytes in chunk data", len(data)-off)
	}
	return chunks, nil
}

// EncodeDocuments writes the mapping as indented JSON with sorted keys.
func EncodeDocuments(documents map[string][]int) ([]byte, error) {
	if documents == nil {
		documents = map[string][]int{}
	}
	return json.MarshalIndent(documents, "", "  ")
}

// DecodeDocuments restores a mapping written by EncodeDocuments.
func DecodeDocuments(data []byte) (map[string][]int, error) {
	documents := map[string][]int{}
	if err := json.Unmarshal(data, &documents); err != nil {
		return nil, fmt.Errorf("storage: invalid document mapping: %w", err)
	}
	return documents, nil
}

type artifacts map[string][]byte

func encodeArtifacts(snapshot *Snapshot) (artifacts, error) {
	documents, err := EncodeDocuments(snapshot.Documents)
	if err != nil {
		return nil, err
	}
	out := artifacts{
		chunksArtifact:    EncodeChunks(snapshot.Chunks),
		documentsArtifact: documents,
	}
	if len(snapshot.Index) > 0 {
		out[indexArtifact] = snapshot.Index
	}
	return out, nil
}

func decodeArtifacts(in artifacts) (*Snapshot, error) {
	chunksData, ok := in[chunksArtifact]
	if !ok {
		return nil, fmt.Errorf("storage: missing %s", chunksArtifact)
	}
	documentsData, ok := in[documentsArtifact]
	if !ok {
		return nil, fmt.Errorf("storage: missing %s", documentsArtifact)
	}
	chunks, err := DecodeChunks(chunksData)
	if err != nil {
		return nil, err
	}
	documents, err := DecodeDocuments(documentsData)
	if err != nil {
		return nil, err
	}
	snapshot := &Snapshot{Chunks: chunks, Documents: documents}
	if data := in[indexArtifact]; len(data) > 0 {
		snapshot.Index = data
	}
	return snapshot, nil
}
