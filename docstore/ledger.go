package docstore

import (
	"fmt"
	"sort"
)

// Ledger is the chunk sequence plus document ownership. It is not safe for
// concurrent mutation; callers clone before changing a shared ledger.
type Ledger struct {
	chunks    []string
	documents map[string][]int
	owners    []string
}

// New returns an empty ledger.
func New() *Ledger {
	return &Ledger{documents: map[string][]int{}}
}

// FromArtifacts rebuilds a ledger from its persisted form and validates it.
func FromArtifacts(chunks []string, documents map[string][]int) (*Ledger, error) {
	l := &Ledger{
		chunks:    append([]string(nil), chunks...),
		documents: make(map[string][]int, len(documents)),
		owners:    make([]string, len(chunks)),
	}
	for id, positions := range documents {
		l.documents[id] = append([]int(nil), positions...)
		for _, pos := range positions {
			if pos < 0 || pos >= len(chunks) {
				return nil, fmt.Errorf("docstore: document %q position %d out of range [0,%d)", id, pos, len(chunks))
			}
			if owner := l.owners[pos]; owner != "" {
				return nil, fmt.Errorf("docstore: position %d owned by %q and %q", pos, owner, id)
			}
			l.owners[pos] = id
		}
	}
	if err := l.Validate(); err != nil {
		return nil, err
	}
	return l, nil
}

// Validate checks that every recorded position is in range, live and owned
// by exactly one document.
func (l *Ledger) Validate() error {
	seen := make(map[int]string, len(l.chunks))
	for id, positions := range l.documents {
		if id == "" {
			return fmt.Errorf("docstore: empty document id")
		}
		for _, pos := range positions {
			if pos < 0 || pos >= len(l.chunks) {
				return fmt.Errorf("docstore: document %q position %d out of range [0,%d)", id, pos, len(l.chunks))
			}
			if l.chunks[pos] == "" {
				return fmt.Errorf("docstore: document %q references tombstoned position %d", id, pos)
			}
			if other, ok := seen[pos]; ok {
				return fmt.Errorf("docstore: position %d owned by %q and %q", pos, other, id)
			}
			seen[pos] = id
		}
	}
	return nil
}

// Clone returns a deep copy.
func (l *Ledger) Clone() *Ledger {
	clone := &Ledger{
		chunks:    append([]string(nil), l.chunks...),
		documents: make(map[string][]int, len(l.documents)),
		owners:    append([]string(nil), l.owners...),
	}
	for id, positions := range l.documents {
		clone.documents[id] = append([]int(nil), positions...)
	}
	return clone
}

// Append records texts as the chunks of document id and returns the position
// of the first one.
func (l *Ledger) Append(id string, texts []string) int {
	start := len(l.chunks)
	positions := l.documents[id]
	for i, text := range texts {
		l.chunks = append(l.chunks, text)
		l.owners = append(l.owners, id)
		positions = append(positions, start+i)
	}
	l.documents[id] = positions
	return start
}

// Has reports whether id is a live document.
func (l *Ledger) Has(id string) bool {
	_, ok := l.documents[id]
	return ok
}

// Positions returns a copy of the chunk positions of id.
func (l *Ledger) Positions(id string) []int {
	return append([]int(nil), l.documents[id]...)
}

// Chunk returns the text at position; tombstoned or out of range positions
// report false.
func (l *Ledger) Chunk(position int) (string, bool) {
	if position < 0 || position >= len(l.chunks) || l.chunks[position] == "" {
		return "", false
	}
	return l.chunks[position], true
}

// Owner returns the document that owns position, or "".
func (l *Ledger) Owner(position int) string {
	if position < 0 || position >= len(l.owners) {
		return ""
	}
	return l.owners[position]
}

// Tombstone blanks every chunk of id and forgets the document.
func (l *Ledger) Tombstone(id string) bool {
	positions, ok := l.documents[id]
	if !ok {
		return false
	}
	for _, pos := range positions {
		if pos >= 0 && pos < len(l.chunks) {
			l.chunks[pos] = ""
			l.owners[pos] = ""
		}
	}
	delete(l.documents, id)
	return true
}

// Compact drops tombstoned and unowned positions. It returns the compacted
// ledger and, for each new position, the position it had in the receiver.
func (l *Ledger) Compact() (*Ledger, []int) {
	compacted := New()
	var survivors []int
	remap := make(map[int]int, len(l.chunks))
	for pos, text := range l.chunks {
		if text == "" || l.owners[pos] == "" {
			continue
		}
		remap[pos] = len(compacted.chunks)
		survivors = append(survivors, pos)
		compacted.chunks = append(compacted.chunks, text)
		compacted.owners = append(compacted.owners, l.owners[pos])
	}
	for id, positions := range l.documents {
		var mapped []int
		for _, pos := range positions {
			if next, ok := remap[pos]; ok {
				mapped = append(mapped, next)
			}
		}
		if len(mapped) == 0 {
			continue
		}
		sort.Ints(mapped)
		compacted.documents[id] = mapped
	}
	return compacted, survivors
}

// Chunks returns a copy of the chunk sequence, tombstones included.
func (l *Ledger) Chunks() []string {
	return append([]string(nil), l.chunks...)
}

// Documents returns a copy of the document to positions mapping.
func (l *Ledger) Documents() map[string][]int {
	out := make(map[string][]int, len(l.documents))
	for id, positions := range l.documents {
		out[id] = append([]int(nil), positions...)
	}
	return out
}

// DocumentIDs returns the live document identifiers in ascending order.
func (l *Ledger) DocumentIDs() []string {
	ids := make([]string, 0, len(l.documents))
	for id := range l.documents {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Len returns the length of the chunk sequence, tombstones included.
func (l *Ledger) Len() int { return len(l.chunks) }

// LiveCount returns the number of chunks owned by a live document.
func (l *Ledger) LiveCount() int {
	n := 0
	for _, positions := range l.documents {
		n += len(positions)
	}
	return n
}

// DocumentCount returns the number of live documents.
func (l *Ledger) DocumentCount() int { return len(l.documents) }
