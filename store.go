package psychics

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"
)

// Store persists esper documents keyed by player UUID.
// Implement this interface to keep esper state in a database instead of files.
type Store interface {
	// Load returns the document saved for a player.
	// Returns nil (not error) if nothing was saved yet.
	Load(ctx context.Context, id uuid.UUID) (Document, error)

	// Save replaces the document saved for a player.
	Save(ctx context.Context, id uuid.UUID, doc Document) error
}

// FileStore keeps one YAML file per player in a directory.
type FileStore struct {
	dir string
}

// NewFileStore creates a store in dir, creating the directory if needed.
func NewFileStore(dir string) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create store directory: %w", err)
	}
	return &FileStore{dir: dir}, nil
}

func (s *FileStore) path(id uuid.UUID) string {
	return filepath.Join(s.dir, id.String()+".yml")
}

// Load implements Store.
func (s *FileStore) Load(ctx context.Context, id uuid.UUID) (Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(s.path(id))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read esper %s: %w", id, err)
	}
	return decodeDocument(data)
}

// Save implements Store. The file is replaced atomically.
func (s *FileStore) Save(ctx context.Context, id uuid.UUID, doc Document) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	data, err := yaml.Marshal(doc)
	if err != nil {
		return fmt.Errorf("encode esper %s: %w", id, err)
	}

	tmp, err := os.CreateTemp(s.dir, id.String()+".*.tmp")
	if err != nil {
		return fmt.Errorf("save esper %s: %w", id, err)
	}
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmp.Name())
		return fmt.Errorf("save esper %s: %w", id, err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmp.Name())
		return fmt.Errorf("save esper %s: %w", id, err)
	}
	if err := os.Rename(tmp.Name(), s.path(id)); err != nil {
		_ = os.Remove(tmp.Name())
		return fmt.Errorf("save esper %s: %w", id, err)
	}
	return nil
}

// MemoryStore keeps documents in memory. Documents are stored encoded, so a
// loaded document never aliases a saved one.
type MemoryStore struct {
	mu   sync.Mutex
	docs map[uuid.UUID][]byte
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{docs: make(map[uuid.UUID][]byte)}
}

// Load implements Store.
func (s *MemoryStore) Load(ctx context.Context, id uuid.UUID) (Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	data, ok := s.docs[id]
	s.mu.Unlock()
	if !ok {
		return nil, nil
	}
	return decodeDocument(data)
}

// Save implements Store.
func (s *MemoryStore) Save(ctx context.Context, id uuid.UUID, doc Document) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	data, err := yaml.Marshal(doc)
	if err != nil {
		return fmt.Errorf("encode esper %s: %w", id, err)
	}
	s.mu.Lock()
	s.docs[id] = data
	s.mu.Unlock()
	return nil
}

func decodeDocument(data []byte) (Document, error) {
	var doc Document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("decode document: %w", err)
	}
	if doc == nil {
		doc = Document{}
	}
	return doc, nil
}
