package statestore

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"feedmail/internal/domain/entity"
)

// DefaultFileName is the local snapshot file the invoking workflow publishes.
const DefaultFileName = "last_articles.json"

// FileSaver writes snapshots to the local filesystem.
type FileSaver struct{}

// NewFileSaver returns a FileSaver.
func NewFileSaver() *FileSaver {
	return &FileSaver{}
}

// Save writes articles and failCount to path, replacing any prior content.
// The document is indented with 4 spaces and keeps HTML and non-ASCII characters
// unescaped. The file is written to a temporary sibling first and renamed into place.
func (s *FileSaver) Save(articles []entity.Article, failCount int, path string) error {
	state := entity.FeedState{Articles: articles, FailCount: failCount}.Normalize()

	data, err := Encode(state)
	if err != nil {
		return err
	}

	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer func() {
		// no-op after a successful rename
		_ = os.Remove(tmpName)
	}()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("write state: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close state: %w", err)
	}
	if err := os.Chmod(tmpName, 0o644); err != nil {
		return fmt.Errorf("chmod state: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("rename state: %w", err)
	}
	return nil
}

// Encode renders state in the on-disk format.
func Encode(state entity.FeedState) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "    ")
	if err := enc.Encode(state.Normalize()); err != nil {
		return nil, fmt.Errorf("encode state: %w", err)
	}
	return buf.Bytes(), nil
}

// ReadFile reads a snapshot written by Save.
func ReadFile(path string) (entity.FeedState, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return entity.FeedState{}, err
	}
	var state entity.FeedState
	if err := json.Unmarshal(data, &state); err != nil {
		return entity.FeedState{}, fmt.Errorf("decode state: %w", err)
	}
	return state.Normalize(), nil
}
