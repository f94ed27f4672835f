package settings

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/oshokin/lightshow/internal/config"
)

// FileStore keeps settings as a JSON object on disk. The file is read once
// and rewritten on every Put.
type FileStore struct {
	// path is the filesystem location of the JSON file.
	path string
	// mu protects values and the file.
	mu sync.Mutex
	// values caches the file contents; nil until first loaded.
	values map[string]string
}

// NewFileStore creates a store that reads and writes JSON at path.
func NewFileStore(path string) *FileStore {
	return &FileStore{path: filepath.Clean(path)}
}

// Get returns the value stored under key, or fallback when it is absent.
func (s *FileStore) Get(_ context.Context, key, fallback string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.load(); err != nil {
		return "", err
	}

	if value, ok := s.values[key]; ok {
		return value, nil
	}

	return fallback, nil
}

// Put stores value under key and rewrites the file.
func (s *FileStore) Put(_ context.Context, key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.load(); err != nil {
		return err
	}

	s.values[key] = value

	return s.save()
}

// Close does nothing; every Put is already on disk.
func (s *FileStore) Close() error {
	return nil
}

// load reads the file on first use. A missing file is an empty store.
func (s *FileStore) load() error {
	if s.values != nil {
		return nil
	}

	contents, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		s.values = make(map[string]string)

		return nil
	}

	if err != nil {
		return fmt.Errorf("read settings file: %w", err)
	}

	var object structpb.Struct
	if err = protojson.Unmarshal(contents, &object); err != nil {
		return fmt.Errorf("decode settings file: %w", err)
	}

	values := make(map[string]string, len(object.GetFields()))
	for key, value := range object.GetFields() {
		if str, ok := value.GetKind().(*structpb.Value_StringValue); ok {
			values[key] = str.StringValue
		}
	}

	s.values = values

	return nil
}

// save writes the cached values to disk.
func (s *FileStore) save() error {
	fields := make(map[string]*structpb.Value, len(s.values))
	for key, value := range s.values {
		fields[key] = structpb.NewStringValue(value)
	}

	marshalOptions := protojson.MarshalOptions{
		Multiline: true,
		Indent:    "  ",
	}

	data, err := marshalOptions.Marshal(&structpb.Struct{Fields: fields})
	if err != nil {
		return fmt.Errorf("encode settings: %w", err)
	}

	if err = os.WriteFile(s.path, data, config.DefaultFilePermissions); err != nil {
		return fmt.Errorf("write settings file: %w", err)
	}

	return nil
}

var _ Store = (*FileStore)(nil)
