// Package storage loads recipe catalog documents from local files or S3.
package storage

import (
	"context"
	"errors"
)

// Source returns the raw bytes of a recipe catalog document.
type Source interface {
	Load(ctx context.Context) ([]byte, error)
}

// StaticSource is a simple in-memory implementation for testing
type StaticSource struct {
	data []byte
	err  error
}

func NewStaticSource(data []byte) *StaticSource {
	return &StaticSource{data: data}
}

func NewStaticSourceWithError() *StaticSource {
	return &StaticSource{err: errors.New("not found")}
}

func (s *StaticSource) Load(ctx context.Context) ([]byte, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.data, nil
}
