package web

import (
	"fmt"
	"strings"

	"github.com/dmitrijs2005/mediaxfer/internal/common"
	"github.com/google/uuid"
	lru "github.com/hashicorp/golang-lru/v2"
)

// ObjectURLPrefix starts every URL handed out by ObjectStore.
const ObjectURLPrefix = "blob:" + common.AppName + "/"

// DefaultObjectStoreSize bounds the number of live object URLs.
const DefaultObjectStoreSize = 64

// Blob is an in-memory file behind an object URL.
type Blob struct {
	Data        []byte
	ContentType string
	Name        string
}

// ObjectStore maps object URLs to blobs. When it is full the least recently
// used URL is revoked.
type ObjectStore struct {
	blobs    *lru.Cache[string, Blob]
	onRevoke func(url string)
}

// NewObjectStore creates a store holding at most size blobs. onRevoke, if
// not nil, is told about every URL dropped by eviction or Revoke.
func NewObjectStore(size int, onRevoke func(url string)) (*ObjectStore, error) {
	s := &ObjectStore{onRevoke: onRevoke}

	c, err := lru.NewWithEvict[string, Blob](size, func(url string, _ Blob) {
		if s.onRevoke != nil {
			s.onRevoke(url)
		}
	})
	if err != nil {
		return nil, fmt.Errorf("object store: %w", err)
	}
	s.blobs = c
	return s, nil
}

// CreateObjectURL registers b and returns its URL.
func (s *ObjectStore) CreateObjectURL(b Blob) string {
	url := ObjectURLPrefix + uuid.NewString()
	s.blobs.Add(url, b)
	return url
}

func (s *ObjectStore) Get(url string) (Blob, bool) {
	return s.blobs.Get(url)
}

func (s *ObjectStore) Revoke(url string) {
	s.blobs.Remove(url)
}

func (s *ObjectStore) Len() int {
	return s.blobs.Len()
}

// IsObjectURL reports whether url was produced by an ObjectStore.
func IsObjectURL(url string) bool {
	return strings.HasPrefix(url, ObjectURLPrefix)
}
