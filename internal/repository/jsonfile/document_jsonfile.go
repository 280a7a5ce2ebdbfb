package jsonfile

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"doclib/internal/apperr"
	"doclib/internal/logging"
	"doclib/internal/model"
	"doclib/internal/repository"
)

// DocumentJSONFile keeps all document records as one pretty-printed JSON
// array in a single file. Every operation reads or rewrites the whole file.
// A mutex serializes access within the process; separate processes sharing the
// file are not coordinated.
type DocumentJSONFile struct {
	path  string
	blobs repository.BlobRemover
	mu    sync.Mutex
}

var _ repository.DocumentRepository = (*DocumentJSONFile)(nil)

// NewDocumentJSONFile creates a store persisting to path. blobs removes the
// binaries of deleted records; nil disables binary removal.
func NewDocumentJSONFile(path string, blobs repository.BlobRemover) (*DocumentJSONFile, error) {
	if path == "" {
		return nil, fmt.Errorf("metadata path is required")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create metadata dir: %w", err)
	}
	return &DocumentJSONFile{path: path, blobs: blobs}, nil
}

// Path returns the metadata file location.
func (s *DocumentJSONFile) Path() string {
	return s.path
}

// LoadAll reads the full list. A missing file is the empty state. A file that
// cannot be parsed is logged as corrupt and also reported as empty.
func (s *DocumentJSONFile) LoadAll(ctx context.Context) ([]model.Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.load()
}

// SaveAll atomically replaces the file with docs.
func (s *DocumentJSONFile) SaveAll(ctx context.Context, docs []model.Document) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.save(docs)
}

// Append loads, pushes doc and saves under the store lock.
func (s *DocumentJSONFile) Append(ctx context.Context, doc model.Document) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	docs, err := s.load()
	if err != nil {
		return err
	}
	for _, d := range docs {
		if d.ID == doc.ID {
			return apperr.NewPersistenceError("append metadata", fmt.Errorf("duplicate document id %s", doc.ID))
		}
	}
	return s.save(append(docs, doc))
}

// Remove drops the record with id, then deletes its binary best-effort.
func (s *DocumentJSONFile) Remove(ctx context.Context, id string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	docs, err := s.load()
	if err != nil {
		return false, err
	}
	idx := -1
	for i, d := range docs {
		if d.ID == id {
			idx = i
			break
		}
	}
	if idx == -1 {
		return false, nil
	}

	remaining := make([]model.Document, 0, len(docs)-1)
	remaining = append(remaining, docs[:idx]...)
	remaining = append(remaining, docs[idx+1:]...)
	if err := s.save(remaining); err != nil {
		return false, err
	}
	// the binary goes only after its record
	repository.RemoveBlob(ctx, s.blobs, docs[idx])
	return true, nil
}

// PingContext checks that the metadata directory is writable.
func (s *DocumentJSONFile) PingContext(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	f, err := os.CreateTemp(filepath.Dir(s.path), pingPattern)
	if err != nil {
		return fmt.Errorf("metadata dir not writable: %w", err)
	}
	name := f.Name()
	f.Close()
	return os.Remove(name)
}

func (s *DocumentJSONFile) load() ([]model.Document, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return []model.Document{}, nil
		}
		return nil, apperr.NewPersistenceError("read metadata", err)
	}

	var docs []model.Document
	if err := json.Unmarshal(data, &docs); err != nil {
		l := logging.Component("metadata_store")
		l.Error().
			Str("event", "metadata_corrupt").
			Str("path", s.path).
			Int("bytes", len(data)).
			Err(err).
			Msg("metadata file is not a valid document list; treating as empty")
		return []model.Document{}, nil
	}
	if docs == nil {
		docs = []model.Document{}
	}
	return docs, nil
}

func (s *DocumentJSONFile) save(docs []model.Document) error {
	if docs == nil {
		docs = []model.Document{}
	}
	data, err := Marshal(docs)
	if err != nil {
		return apperr.NewPersistenceError("encode metadata", err)
	}
	if err := writeFile(s.path, data, 0o644); err != nil {
		return apperr.NewPersistenceError("save metadata", err)
	}
	return nil
}

// Marshal renders docs exactly as they are persisted: a two-space indented
// JSON array without HTML escaping.
func Marshal(docs []model.Document) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(docs); err != nil {
		return nil, err
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}

const (
	tempPattern = ".metadata-*.tmp"
	pingPattern = ".ping-*"
)

// IsTempFile reports whether name is a scratch file the store creates next
// to the metadata file. Such files only survive a crash.
func IsTempFile(name string) bool {
	for _, p := range []string{tempPattern, pingPattern} {
		if ok, _ := filepath.Match(p, name); ok {
			return true
		}
	}
	return false
}

var writeFile = writeFileAtomic

// writeFileAtomic writes data to a temp file in the target's directory, syncs
// it, then renames it over path. On failure the previous file is untouched.
func writeFileAtomic(path string, data []byte, perm os.FileMode) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), tempPattern)
	if err != nil {
		return err
	}
	tmpName := tmp.Name()

	ok := false
	defer func() {
		if !ok {
			_ = tmp.Close()
			_ = os.Remove(tmpName)
		}
	}()

	if err := tmp.Chmod(perm); err != nil {
		return err
	}
	if _, err := tmp.Write(data); err != nil {
		return err
	}
	if err := tmp.Sync(); err != nil {
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Rename(tmpName, path); err != nil {
		return err
	}
	ok = true
	return nil
}
