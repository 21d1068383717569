package snapshot

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/vango-dev/kinesis/internal/errors"
)

// FileStore keeps snapshots as <name>.html files in a directory, each with a
// <name>.json metadata file beside it.
type FileStore struct {
	dir string
}

type fileMeta struct {
	App       string    `json:"app"`
	Size      int       `json:"size"`
	CreatedAt time.Time `json:"created_at"`
}

// NewFileStore creates dir if needed and returns a store over it.
func NewFileStore(dir string) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, errors.New(errors.CodeSnapshotStore).WithDetail(dir).Wrap(err)
	}
	return &FileStore{dir: dir}, nil
}

// Dir returns the store's directory.
func (s *FileStore) Dir() string {
	return s.dir
}

// Save implements Store.
func (s *FileStore) Save(ctx context.Context, snap Snapshot) (string, error) {
	if err := ValidateName(snap.Name); err != nil {
		return "", err
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}
	path := filepath.Join(s.dir, snap.Name+".html")
	if err := os.WriteFile(path, snap.HTML, 0o644); err != nil {
		return "", errors.New(errors.CodeSnapshotStore).WithDetail(path).Wrap(err)
	}
	meta, err := json.MarshalIndent(fileMeta{App: snap.App, Size: len(snap.HTML), CreatedAt: snap.CreatedAt}, "", "  ")
	if err != nil {
		return "", err
	}
	if err := os.WriteFile(s.metaPath(snap.Name), meta, 0o644); err != nil {
		os.Remove(path)
		return "", errors.New(errors.CodeSnapshotStore).WithDetail(s.metaPath(snap.Name)).Wrap(err)
	}
	return path, nil
}

// Load implements Store.
func (s *FileStore) Load(ctx context.Context, name string) (*Snapshot, error) {
	if err := ValidateName(name); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	html, err := os.ReadFile(filepath.Join(s.dir, name+".html"))
	if stderrors.Is(err, fs.ErrNotExist) {
		return nil, errors.New(errors.CodeSnapshotNotFound).WithDetail(name)
	}
	if err != nil {
		return nil, errors.New(errors.CodeSnapshotStore).WithDetail(name).Wrap(err)
	}
	snap := &Snapshot{Name: name, HTML: html}
	if data, err := os.ReadFile(s.metaPath(name)); err == nil {
		var meta fileMeta
		if json.Unmarshal(data, &meta) == nil {
			snap.App, snap.CreatedAt = meta.App, meta.CreatedAt
		}
	}
	return snap, nil
}

func (s *FileStore) metaPath(name string) string {
	return filepath.Join(s.dir, name+".json")
}
