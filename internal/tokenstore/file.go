package tokenstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/abhidhakal/HReady-WebApp-sub001/internal/domain"
)

// FileKeyspace keeps one JSON file per namespace under a directory.
type FileKeyspace struct {
	dir string
}

// NewFile returns a file keyspace rooted at dir, defaulting to ~/.config/hready.
func NewFile(dir string) (*FileKeyspace, error) {
	if dir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("failed to resolve home directory: %w", err)
		}
		dir = filepath.Join(home, ".config", "hready")
	}
	return &FileKeyspace{dir: dir}, nil
}

// For returns the store bound to namespace.
func (k *FileKeyspace) For(namespace string) Store {
	return &fileStore{dir: k.dir, path: filepath.Join(k.dir, fileName(namespace))}
}

// Dir returns the root directory.
func (k *FileKeyspace) Dir() string {
	return k.dir
}

func fileName(namespace string) string {
	var b strings.Builder
	for _, r := range namespace {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '.':
			b.WriteRune(r)
		default:
			b.WriteByte('_')
		}
	}
	if b.Len() == 0 {
		return "session.json"
	}
	return "session-" + b.String() + ".json"
}

type fileStore struct {
	dir  string
	path string
}

func (s *fileStore) Save(ctx context.Context, rec domain.Record) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := validate(rec); err != nil {
		return err
	}
	if err := os.MkdirAll(s.dir, 0o700); err != nil {
		return fmt.Errorf("failed to create token directory: %w", err)
	}

	b, err := json.MarshalIndent(rec.Values(), "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode session record: %w", err)
	}

	// Write aside and rename so readers see either the old or the new record.
	tmp, err := os.CreateTemp(s.dir, ".session-*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpPath := tmp.Name()
	defer func() { _ = os.Remove(tmpPath) }()

	if err := tmp.Chmod(0o600); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("failed to set permissions: %w", err)
	}
	if _, err := tmp.Write(b); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("failed to write session record: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to flush session record: %w", err)
	}
	if err := os.Rename(tmpPath, s.path); err != nil {
		return fmt.Errorf("failed to replace session record: %w", err)
	}
	return nil
}

func (s *fileStore) Read(ctx context.Context) (domain.Record, error) {
	if err := ctx.Err(); err != nil {
		return domain.Record{}, err
	}
	b, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return domain.Record{}, nil
		}
		return domain.Record{}, fmt.Errorf("failed to read session record %s: %w", s.path, err)
	}

	var values map[string]string
	if err := json.Unmarshal(b, &values); err != nil {
		return domain.Record{}, fmt.Errorf("failed to parse session record %s: %w", s.path, err)
	}
	return domain.RecordFromValues(values), nil
}

func (s *fileStore) Clear(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := os.Remove(s.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to remove session record %s: %w", s.path, err)
	}
	return nil
}
