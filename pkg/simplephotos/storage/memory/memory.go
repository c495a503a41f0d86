// Package memory provides an in-memory object store for testing and
// development.
package memory

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/tendant/simple-photos/pkg/simplephotos"
)

type object struct {
	data    []byte
	params  simplephotos.PutParams
	created time.Time
}

// Store is an in-memory implementation of simplephotos.ObjectStore
type Store struct {
	mu      sync.RWMutex
	bucket  string
	objects map[string]object
}

// New creates a new in-memory object store
func New(bucket string) *Store {
	if bucket == "" {
		bucket = "memory"
	}
	return &Store{
		bucket:  bucket,
		objects: make(map[string]object),
	}
}

func (s *Store) Put(ctx context.Context, params simplephotos.PutParams, data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	buf := make([]byte, len(data))
	copy(buf, data)
	s.objects[params.Key] = object{data: buf, params: params, created: time.Now()}
	return nil
}

func (s *Store) HeadExists(ctx context.Context, key string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	_, ok := s.objects[key]
	return ok, nil
}

// Get returns the stored bytes for a key. Test helper, not part of the
// ObjectStore interface.
func (s *Store) Get(key string) ([]byte, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	obj, ok := s.objects[key]
	if !ok {
		return nil, false
	}
	return obj.data, true
}

// Len returns the number of stored objects. Test helper.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.objects)
}

func (s *Store) ListByPrefix(ctx context.Context, prefix string, maxKeys int32, continuationToken string) (*simplephotos.ObjectPage, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var keys []string
	for key := range s.objects {
		if strings.HasPrefix(key, prefix) {
			keys = append(keys, key)
		}
	}
	sort.Strings(keys)

	start := 0
	if continuationToken != "" {
		for i, key := range keys {
			if key > continuationToken {
				start = i
				break
			}
			start = i + 1
		}
	}
	keys = keys[start:]

	page := &simplephotos.ObjectPage{}
	if int32(len(keys)) > maxKeys {
		page.Keys = keys[:maxKeys]
		page.IsTruncated = true
		page.NextContinuationToken = page.Keys[len(page.Keys)-1]
	} else {
		page.Keys = keys
	}

	return page, nil
}

func (s *Store) DeleteOne(ctx context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	// Deleting an absent key is a no-op, matching S3.
	delete(s.objects, key)
	return nil
}

func (s *Store) DeleteMany(ctx context.Context, keys []string) (*simplephotos.BulkDeleteResult, error) {
	if len(keys) > 1000 {
		return nil, fmt.Errorf("delete batch of %d exceeds the limit of 1000", len(keys))
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	result := &simplephotos.BulkDeleteResult{}
	for _, key := range keys {
		delete(s.objects, key)
		result.Deleted = append(result.Deleted, key)
	}
	return result, nil
}

func (s *Store) Presign(ctx context.Context, key string, ttl time.Duration) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if _, ok := s.objects[key]; !ok {
		return "", fmt.Errorf("key %q not found", key)
	}
	expires := time.Now().Add(ttl).Unix()
	return fmt.Sprintf("https://%s.s3.amazonaws.com/%s?X-Amz-Expires=%d", s.bucket, key, expires), nil
}

func (s *Store) PublicURL(key string) string {
	return fmt.Sprintf("https://%s.s3.amazonaws.com/%s", s.bucket, key)
}
