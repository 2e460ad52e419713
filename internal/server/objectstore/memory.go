package objectstore

import (
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/dmitrijs2005/gophauth/internal/common"
)

// MemoryStore keeps objects in a map. It backs the in-memory server mode
// and tests.
type MemoryStore struct {
	mu       sync.Mutex
	baseURL  string
	objects  map[string][]byte
	versions map[string]int
}

func NewMemoryStore(baseURL string) *MemoryStore {
	return &MemoryStore{
		baseURL:  baseURL,
		objects:  make(map[string][]byte),
		versions: make(map[string]int),
	}
}

func (m *MemoryStore) Upload(_ context.Context, r io.Reader, opts UploadOptions) (*UploadResult, error) {
	if opts.SlotID == "" {
		return nil, fmt.Errorf("%w: empty slot id", common.ErrUploadFailed)
	}

	b, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrUploadFailed, err)
	}

	storageID := StorageID(opts.Folder, opts.SlotID)
	key := storageID + extensionFor(opts.ContentType)

	m.mu.Lock()
	defer m.mu.Unlock()
	m.objects[storageID] = b
	m.versions[storageID]++

	return &UploadResult{
		StorageID: storageID,
		URL:       fmt.Sprintf("%s/%s?v=%d", m.baseURL, key, m.versions[storageID]),
	}, nil
}

// Object returns the stored bytes for storageID.
func (m *MemoryStore) Object(storageID string) ([]byte, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.objects[storageID]
	return b, ok
}

// Len reports how many distinct objects are stored.
func (m *MemoryStore) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.objects)
}
