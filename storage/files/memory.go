package files

import (
	"context"
	"io"
	"io/ioutil"
	"sync"

	"github.com/pkg/errors"

	"github.com/ipdpulse/backend/core"
)

// MemoryStorage keeps uploads in memory. For tests: it records every
// upload so rejected files can be proven to never reach storage.
type MemoryStorage struct {
	mu      sync.Mutex
	Uploads map[string][]byte
}

var _ core.FileStorage = (*MemoryStorage)(nil)

func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{Uploads: make(map[string][]byte)}
}

func (s *MemoryStorage) Upload(ctx context.Context, key string, r io.Reader) (string, error) {
	data, err := ioutil.ReadAll(r)
	if err != nil {
		return "", errors.Wrap(err, "reading upload")
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.Uploads[key] = data
	return "/media/" + key, nil
}

// UploadCount returns the number of stored objects.
func (s *MemoryStorage) UploadCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.Uploads)
}
