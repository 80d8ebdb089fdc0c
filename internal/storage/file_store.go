package storage

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// FileExt is the suffix of every file a FileStore writes.
const FileExt = ".json"

// FileStore keeps one file per key inside a directory.
type FileStore struct {
	mu  sync.RWMutex
	dir string
}

// NewFileStore creates a store rooted at dataDir
func NewFileStore(dataDir string) (*FileStore, error) {
	// Ensure data directory exists
	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return nil, err
	}

	return &FileStore{dir: dataDir}, nil
}

func (s *FileStore) Dir() string {
	return s.dir
}

func (s *FileStore) path(key string) string {
	return filepath.Join(s.dir, key+FileExt)
}

// KeyFromPath maps a file inside the store directory back to its key.
func KeyFromPath(path string) (string, bool) {
	base := filepath.Base(path)
	if !strings.HasSuffix(base, FileExt) {
		return "", false
	}
	key := strings.TrimSuffix(base, FileExt)
	if ValidateKey(key) != nil {
		return "", false
	}
	return key, true
}

// Get reads the value stored under key
func (s *FileStore) Get(key string) (string, bool, error) {
	if err := ValidateKey(key); err != nil {
		return "", false, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	data, err := os.ReadFile(s.path(key))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			// File doesn't exist yet, not an error
			return "", false, nil
		}
		return "", false, err
	}
	return string(data), true, nil
}

// Set replaces the value stored under key
func (s *FileStore) Set(key, value string) error {
	if err := ValidateKey(key); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	// Write to temp file first, then rename (atomic operation)
	target := s.path(key)
	tempFile, err := os.CreateTemp(s.dir, "."+key+"-*.tmp")
	if err != nil {
		return err
	}
	tempName := tempFile.Name()

	if _, err := tempFile.WriteString(value); err != nil {
		tempFile.Close()
		os.Remove(tempName)
		return err
	}

	if err := tempFile.Close(); err != nil {
		os.Remove(tempName)
		return err
	}

	return os.Rename(tempName, target)
}

// Exists checks if a value has been stored under key
func (s *FileStore) Exists(key string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	_, err := os.Stat(s.path(key))
	return err == nil
}
