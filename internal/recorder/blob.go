package recorder

import (
	"bytes"
	"errors"
	"io"
	"sync"

	"github.com/google/uuid"
)

const blobScheme = "blob:tasknotes/"

var ErrBlobRevoked = errors.New("recorder: blob url revoked")

type blob struct {
	mimeType string
	data     []byte
}

// BlobStore hands out playable URLs for finalized recordings. Every URL
// created must be revoked exactly once.
type BlobStore struct {
	mu      sync.Mutex
	blobs   map[string]blob
	created uint64
	revoked uint64
}

func NewBlobStore() *BlobStore {
	return &BlobStore{blobs: make(map[string]blob)}
}

func (s *BlobStore) CreateURL(mimeType string, data []byte) string {
	url := blobScheme + uuid.NewString()
	s.mu.Lock()
	defer s.mu.Unlock()
	s.blobs[url] = blob{mimeType: mimeType, data: data}
	s.created++
	return url
}

// RevokeURL releases url. It reports false when url was unknown or already
// revoked.
func (s *BlobStore) RevokeURL(url string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.blobs[url]; !ok {
		return false
	}
	delete(s.blobs, url)
	s.revoked++
	return true
}

func (s *BlobStore) Open(url string) (io.ReadCloser, string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.blobs[url]
	if !ok {
		return nil, "", ErrBlobRevoked
	}
	return io.NopCloser(bytes.NewReader(b.data)), b.mimeType, nil
}

// Live is the number of URLs created and not yet revoked.
func (s *BlobStore) Live() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.blobs)
}

func (s *BlobStore) Counts() (created, revoked uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.created, s.revoked
}
