package internal

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/gofrs/flock"
	"github.com/google/uuid"
)

// LockTimeout bounds how long a read or write waits for the file lock.
var LockTimeout = 3 * time.Second

// ErrLockTimeout is returned when the file lock cannot be acquired in time.
var ErrLockTimeout = errors.New("could not acquire file lock")

// FileStorage reads and writes one file under an inter-process lock. The
// lock lives next to the file as "<path>.lock".
type FileStorage struct {
	filePath string
	fileLock *flock.Flock
	mu       sync.RWMutex
}

// NewFileStorage creates a locked file accessor for filePath
func NewFileStorage(filePath string) *FileStorage {
	return &FileStorage{
		filePath: filePath,
		fileLock: flock.New(filePath + ".lock"),
	}
}

// Path returns the storage file path.
func (s *FileStorage) Path() string { return s.filePath }

// ReadAll returns the file contents, or nil when the file does not exist.
func (s *FileStorage) ReadAll() ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	unlock, err := s.lock(true)
	if err != nil {
		return nil, err
	}
	defer unlock()

	data, err := os.ReadFile(s.filePath)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}
	return data, nil
}

// WriteAll replaces the file contents atomically: data goes to a uniquely
// named temp file in the same directory which is then renamed over the file.
func (s *FileStorage) WriteAll(data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	unlock, err := s.lock(false)
	if err != nil {
		return err
	}
	defer unlock()

	if dir := filepath.Dir(s.filePath); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory: %w", err)
		}
	}

	tmpFile := fmt.Sprintf("%s.%s.tmp", s.filePath, uuid.New().String())
	if err := os.WriteFile(tmpFile, data, 0644); err != nil {
		return fmt.Errorf("failed to write temp file: %w", err)
	}
	if err := os.Rename(tmpFile, s.filePath); err != nil {
		_ = os.Remove(tmpFile)
		return fmt.Errorf("failed to rename file: %w", err)
	}
	return nil
}

// Close releases resources
func (s *FileStorage) Close() error {
	_ = os.Remove(s.filePath + ".lock")
	return nil
}

// lock takes the shared (read) or exclusive file lock.
func (s *FileStorage) lock(shared bool) (func(), error) {
	if dir := filepath.Dir(s.filePath); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create directory: %w", err)
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), LockTimeout)
	defer cancel()

	var (
		locked bool
		err    error
	)
	if shared {
		locked, err = s.fileLock.TryRLockContext(ctx, 100*time.Millisecond)
	} else {
		locked, err = s.fileLock.TryLockContext(ctx, 100*time.Millisecond)
	}
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, fmt.Errorf("%w: %s", ErrLockTimeout, s.filePath)
		}
		return nil, fmt.Errorf("failed to acquire lock: %w", err)
	}
	if !locked {
		return nil, fmt.Errorf("%w: %s", ErrLockTimeout, s.filePath)
	}
	return func() { _ = s.fileLock.Unlock() }, nil
}
