package auth

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

// FileStore is a [CredentialStore] that keeps each token as a JSON file. The identifier is the file path.
//
// Files are written with 0600 permissions and missing parent directories are created with 0700.
type FileStore struct{}

// NewFileStore creates a [FileStore].
func NewFileStore() *FileStore {
	return &FileStore{}
}

func (s *FileStore) Load(_ context.Context, path string) (*Token, bool, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to read credential file: %w", err)
	}

	tok, err := DecodeCredential(data)
	if err != nil {
		return nil, false, &CacheCorruptError{ID: path, Err: err}
	}

	return tok, true, nil
}

func (s *FileStore) Save(_ context.Context, path string, tok *Token) error {
	data, err := EncodeCredential(tok)
	if err != nil {
		return fmt.Errorf("failed to encode credential: %w", err)
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0700); err != nil {
			return fmt.Errorf("failed to create credential directory: %w", err)
		}
	}

	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write credential file: %w", err)
	}

	return nil
}

func (s *FileStore) Delete(_ context.Context, path string) error {
	if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to remove credential file: %w", err)
	}
	return nil
}
