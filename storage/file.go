package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

const (
	currentFile  = "CURRENT"
	manifestFile = "manifest.json"
	revPrefix    = "rev-"
	stagingGlob  = "staging-"
)

type manifest struct {
	Revision int64  `json:"revision"`
	Change   Change `json:"change"`
}

// FileStore persists each snapshot into its own revision directory and then
// atomically repoints the CURRENT file at it. Older revisions are pruned after
// the swap.
type FileStore struct {
	dir string
}

// NewFileStore creates dir if needed.
func NewFileStore(dir string) (*FileStore, error) {
	if dir == "" {
		return nil, errors.New("storage: file store directory is empty")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("storage: create %s: %w", dir, err)
	}
	return &FileStore{dir: dir}, nil
}

// Dir returns the root directory of the store.
func (s *FileStore) Dir() string { return s.dir }

func (s *FileStore) Save(ctx context.Context, snapshot *Snapshot) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	data, err := encodeArtifacts(snapshot)
	if err != nil {
		return err
	}
	if data[manifestFile], err = json.Marshal(manifest{Revision: snapshot.Revision, Change: snapshot.Change}); err != nil {
		return err
	}
	staging, err := os.MkdirTemp(s.dir, stagingGlob)
	if err != nil {
		return fmt.Errorf("storage: create staging dir: %w", err)
	}
	committed := false
	defer func() {
		if !committed {
			_ = os.RemoveAll(staging)
		}
	}()
	for name, blob := range data {
		if err := writeFileSync(filepath.Join(staging, name), blob); err != nil {
			return err
		}
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	suffix := strings.TrimPrefix(filepath.Base(staging), stagingGlob)
	revision := fmt.Sprintf("%s%06d-%s", revPrefix, snapshot.Revision, suffix)
	if err := os.Rename(staging, filepath.Join(s.dir, revision)); err != nil {
		return fmt.Errorf("storage: publish revision: %w", err)
	}
	committed = true
	current := filepath.Join(s.dir, currentFile)
	if err := writeFileSync(current+".tmp", []byte(revision+"\n")); err != nil {
		_ = os.RemoveAll(filepath.Join(s.dir, revision))
		return err
	}
	if err := os.Rename(current+".tmp", current); err != nil {
		_ = os.RemoveAll(filepath.Join(s.dir, revision))
		return fmt.Errorf("storage: swap %s: %w", currentFile, err)
	}
	syncDir(s.dir)
	s.prune(revision)
	return nil
}

func (s *FileStore) Load(ctx context.Context) (*Snapshot, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	revision, err := s.current()
	if errors.Is(err, ErrNotFound) {
		return nil, err
	}
	if err != nil {
		return nil, &CorruptError{Revision: s.highestRevision(), Err: err}
	}
	known := max(revisionNumber(revision), s.highestRevision())
	root := filepath.Join(s.dir, revision)
	data := artifacts{}
	for _, name := range []string{indexArtifact, chunksArtifact, documentsArtifact, manifestFile} {
		blob, err := os.ReadFile(filepath.Join(root, name))
		if errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err != nil {
			return nil, &CorruptError{Revision: known, Err: fmt.Errorf("read %s: %w", name, err)}
		}
		data[name] = blob
	}
	m := manifest{Revision: revisionNumber(revision)}
	if blob, ok := data[manifestFile]; ok {
		if err := json.Unmarshal(blob, &m); err != nil {
			return nil, &CorruptError{Revision: known, Err: fmt.Errorf("invalid manifest: %w", err)}
		}
	}
	snapshot, err := decodeArtifacts(data)
	if err != nil {
		return nil, &CorruptError{Revision: max(known, m.Revision), Err: err}
	}
	snapshot.Revision, snapshot.Change = m.Revision, m.Change
	return snapshot, nil
}

// highestRevision returns the largest revision number among the revision
// directories, or 0.
func (s *FileStore) highestRevision() int64 {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return 0
	}
	var highest int64
	for _, entry := range entries {
		if entry.IsDir() && strings.HasPrefix(entry.Name(), revPrefix) {
			highest = max(highest, revisionNumber(entry.Name()))
		}
	}
	return highest
}

// revisionNumber parses n out of a rev-<n>-<suffix> directory name.
func revisionNumber(name string) int64 {
	number, _, _ := strings.Cut(strings.TrimPrefix(name, revPrefix), "-")
	n, err := strconv.ParseInt(number, 10, 64)
	if err != nil {
		return 0
	}
	return n
}

// ArtifactPath returns the path of a named artifact of the current revision.
func (s *FileStore) ArtifactPath(name string) (string, error) {
	revision, err := s.current()
	if err != nil {
		return "", err
	}
	return filepath.Join(s.dir, revision, name), nil
}

func (s *FileStore) current() (string, error) {
	blob, err := os.ReadFile(filepath.Join(s.dir, currentFile))
	if errors.Is(err, fs.ErrNotExist) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("storage: read %s: %w", currentFile, err)
	}
	revision := strings.TrimSpace(string(blob))
	if !strings.HasPrefix(revision, revPrefix) || strings.ContainsAny(revision, `/\`) {
		return "", fmt.Errorf("storage: invalid %s content %q", currentFile, revision)
	}
	return revision, nil
}

func (s *FileStore) prune(keep string) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return
	}
	for _, entry := range entries {
		name := entry.Name()
		if name == keep || !entry.IsDir() {
			continue
		}
		if strings.HasPrefix(name, revPrefix) || strings.HasPrefix(name, stagingGlob) {
			_ = os.RemoveAll(filepath.Join(s.dir, name))
		}
	}
}

func writeFileSync(path string, data []byte) error {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return fmt.Errorf("storage: create %s: %w", filepath.Base(path), err)
	}
	if _, err := f.Write(data); err != nil {
		_ = f.Close()
		return fmt.Errorf("storage: write %s: %w", filepath.Base(path), err)
	}
	if err := f.Sync(); err != nil {
		_ = f.Close()
		return fmt.Errorf("storage: sync %s: %w", filepath.Base(path), err)
	}
	return f.Close()
}

func syncDir(dir string) {
	d, err := os.Open(dir)
	if err != nil {
		return
	}
	_ = d.Sync()
	_ = d.Close()
}

var _ Store = (*FileStore)(nil)
