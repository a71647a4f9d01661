package storage

import (
	"bytes"
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/arthur-debert/nanomodel/storage/internal"
)

// ErrLockTimeout is returned when another process holds the snapshot file
// lock for longer than the lock timeout.
var ErrLockTimeout = internal.ErrLockTimeout

// Codec encodes and decodes snapshots.
type Codec interface {
	Name() string
	Marshal(snap *Snapshot) ([]byte, error)
	Unmarshal(data []byte, snap *Snapshot) error
}

type jsonCodec struct{}

func (jsonCodec) Name() string { return "json" }

func (jsonCodec) Marshal(snap *Snapshot) ([]byte, error) {
	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return nil, err
	}
	return append(data, '\n'), nil
}

func (jsonCodec) Unmarshal(data []byte, snap *Snapshot) error {
	return json.Unmarshal(data, snap)
}

type yamlCodec struct{}

func (yamlCodec) Name() string { return "yaml" }

func (yamlCodec) Marshal(snap *Snapshot) ([]byte, error) {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(snap); err != nil {
		return nil, err
	}
	if err := enc.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (yamlCodec) Unmarshal(data []byte, snap *Snapshot) error {
	return yaml.Unmarshal(data, snap)
}

// JSON and YAML are the built-in snapshot codecs.
var (
	JSON Codec = jsonCodec{}
	YAML Codec = yamlCodec{}
)

// CodecFor picks the codec from the file extension: .yaml and .yml use
// YAML, everything else JSON.
func CodecFor(path string) Codec {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return YAML
	default:
		return JSON
	}
}

// FileStorage implements Storage on a single locked file.
type FileStorage struct {
	file  *internal.FileStorage
	codec Codec
}

// NewFileStorage creates a file storage whose codec follows the extension
func NewFileStorage(filePath string) *FileStorage {
	return NewFileStorageWithCodec(filePath, CodecFor(filePath))
}

// NewJSONStorage creates a new JSON file-based storage implementation
func NewJSONStorage(filePath string) *FileStorage {
	return NewFileStorageWithCodec(filePath, JSON)
}

// NewFileStorageWithCodec creates a file storage using codec
func NewFileStorageWithCodec(filePath string, codec Codec) *FileStorage {
	return &FileStorage{file: internal.NewFileStorage(filePath), codec: codec}
}

// Path returns the snapshot file path.
func (s *FileStorage) Path() string { return s.file.Path() }

// Load reads the snapshot. A missing or empty file yields a new empty
// snapshot.
func (s *FileStorage) Load() (*Snapshot, error) {
	data, err := s.file.ReadAll()
	if err != nil {
		return nil, err
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return NewSnapshot(), nil
	}
	snap := &Snapshot{}
	if err := s.codec.Unmarshal(data, snap); err != nil {
		return nil, fmt.Errorf("failed to parse %s snapshot %s: %w", s.codec.Name(), s.Path(), err)
	}
	return snap, nil
}

// Save writes the snapshot, filling its metadata.
func (s *FileStorage) Save(snap *Snapshot) error {
	snap.touch()
	data, err := s.codec.Marshal(snap)
	if err != nil {
		return fmt.Errorf("failed to marshal %s snapshot: %w", s.codec.Name(), err)
	}
	return s.file.WriteAll(data)
}

// Close releases resources
func (s *FileStorage) Close() error {
	return s.file.Close()
}

var _ Storage = (*FileStorage)(nil)
