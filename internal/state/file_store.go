package state

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
)

// FileStore keeps every visit in one JSON file.
type FileStore struct {
	mu   sync.Mutex
	File string
}

func NewFileStore(file string) *FileStore {
	return &FileStore{File: file}
}

func (fs *FileStore) Load(document string) (Visit, error) {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	visits, err := fs.readAll()
	if err != nil {
		return Visit{}, err
	}
	for _, v := range visits {
		if v.Document == document {
			return v, nil
		}
	}
	return Visit{}, ErrNotFound
}

func (fs *FileStore) Save(v Visit) error {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	visits, err := fs.readAll()
	if err != nil {
		return err
	}
	replaced := false
	for i := range visits {
		if visits[i].Document == v.Document {
			visits[i] = v
			replaced = true
		}
	}
	if !replaced {
		visits = append(visits, v)
	}
	return fs.writeAll(visits)
}

func (fs *FileStore) Close() error { return nil }

func (fs *FileStore) readAll() ([]Visit, error) {
	var visits []Visit
	f, err := os.Open(fs.File)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("open state file: %w", err)
	}
	defer f.Close()
	if err := json.NewDecoder(f).Decode(&visits); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("decode state file: %w", err)
	}
	return visits, nil
}

func (fs *FileStore) writeAll(visits []Visit) error {
	if err := os.MkdirAll(filepath.Dir(fs.File), 0o755); err != nil {
		return err
	}
	f, err := os.Create(fs.File)
	if err != nil {
		return err
	}
	defer f.Close()
	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	return enc.Encode(visits)
}

// InMemoryStore implements Store for testing (no disk I/O).
type InMemoryStore struct {
	mu     sync.Mutex
	visits map[string]Visit
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{visits: make(map[string]Visit)}
}

func (ms *InMemoryStore) Load(document string) (Visit, error) {
	ms.mu.Lock()
	defer ms.mu.Unlock()
	v, ok := ms.visits[document]
	if !ok {
		return Visit{}, ErrNotFound
	}
	return v, nil
}

func (ms *InMemoryStore) Save(v Visit) error {
	ms.mu.Lock()
	defer ms.mu.Unlock()
	ms.visits[v.Document] = v
	return nil
}

func (ms *InMemoryStore) Close() error { return nil }
