// Package storage keeps uploaded ticket attachments.
package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/natefinch/atomic"
)

// ErrNotFound is returned for unknown keys.
var ErrNotFound = errors.New("stored object not found")

// Object describes a stored upload.
type Object struct {
	Key          string
	URL          string
	OriginalName string
	Size         int64
}

// Store persists attachment bytes.
type Store interface {
	Put(ctx context.Context, originalName string, r io.Reader) (Object, error)
	Open(ctx context.Context, key string) (io.ReadCloser, error)
	Delete(ctx context.Context, key string) error
}

// LocalStore writes uploads under a directory with UUID-based keys.
type LocalStore struct {
	dir       string
	urlPrefix string
}

// NewLocalStore creates dir when missing. urlPrefix is prepended to keys to build public URLs.
func NewLocalStore(dir, urlPrefix string) (*LocalStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create storage dir: %w", err)
	}
	return &LocalStore{dir: dir, urlPrefix: strings.TrimRight(urlPrefix, "/")}, nil
}

func (s *LocalStore) Put(_ context.Context, originalName string, r io.Reader) (Object, error) {
	key := uuid.NewString() + strings.ToLower(filepath.Ext(filepath.Base(originalName)))
	counter := &countingReader{r: r}
	if err := atomic.WriteFile(filepath.Join(s.dir, key), counter); err != nil {
		return Object{}, fmt.Errorf("write upload: %w", err)
	}
	return Object{
		Key:          key,
		URL:          s.urlPrefix + "/" + key,
		OriginalName: filepath.Base(originalName),
		Size:         counter.n,
	}, nil
}

func (s *LocalStore) Open(_ context.Context, key string) (io.ReadCloser, error) {
	path, err := s.path(key)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, ErrNotFound
	}
	return f, err
}

func (s *LocalStore) Delete(_ context.Context, key string) error {
	path, err := s.path(key)
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}

// path rejects keys that could escape the storage directory.
func (s *LocalStore) path(key string) (string, error) {
	if key == "" || key != filepath.Base(key) || strings.HasPrefix(key, ".") {
		return "", ErrNotFound
	}
	return filepath.Join(s.dir, key), nil
}

type countingReader struct {
	r io.Reader
	n int64
}

func (c *countingReader) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	c.n += int64(n)
	return n, err
}
