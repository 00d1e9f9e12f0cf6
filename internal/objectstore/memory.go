package objectstore

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"conversionloader/internal/tags"
)

// Memory is an in-memory Store used by unit tests and local dry runs. It
// reproduces the semantics the pipeline depends on: copy carries tags,
// missing keys return ErrNotFound, and LastModified is stable per object.
type Memory struct {
	mu      sync.Mutex
	objects map[string]*memObject
	now     func() time.Time
}

type memObject struct {
	body         []byte
	tagSet       tags.Set
	lastModified time.Time
}

// NewMemory returns an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{
		objects: make(map[string]*memObject),
		now:     time.Now,
	}
}

// SetClock overrides the timestamp source for deterministic tests.
func (m *Memory) SetClock(now func() time.Time) { m.now = now }

func memKey(bucket, key string) string { return bucket + "/" + key }

// Seed places an object with a fixed modification time; test setup helper.
func (m *Memory) Seed(bucket, key string, body []byte, tagSet tags.Set, lastModified time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.objects[memKey(bucket, key)] = &memObject{
		body:         append([]byte(nil), body...),
		tagSet:       tagSet.Clone(),
		lastModified: lastModified,
	}
}

func (m *Memory) Get(_ context.Context, bucket, key string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	obj, ok := m.objects[memKey(bucket, key)]
	if !ok {
		return nil, ErrNotFound
	}
	return append([]byte(nil), obj.body...), nil
}

func (m *Memory) Put(_ context.Context, bucket, key string, body []byte, tagSet tags.Set) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.objects[memKey(bucket, key)] = &memObject{
		body:         append([]byte(nil), body...),
		tagSet:       tagSet.Clamped(),
		lastModified: m.now(),
	}
	return nil
}

func (m *Memory) Copy(_ context.Context, bucket, srcKey, dstKey string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	src, ok := m.objects[memKey(bucket, srcKey)]
	if !ok {
		return ErrNotFound
	}
	m.objects[memKey(bucket, dstKey)] = &memObject{
		body:         append([]byte(nil), src.body...),
		tagSet:       src.tagSet.Clone(),
		lastModified: m.now(),
	}
	return nil
}

func (m *Memory) Delete(_ context.Context, bucket, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.objects, memKey(bucket, key))
	return nil
}

func (m *Memory) LastModified(_ context.Context, bucket, key string) (time.Time, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	obj, ok := m.objects[memKey(bucket, key)]
	if !ok {
		return time.Time{}, ErrNotFound
	}
	return obj.lastModified, nil
}

func (m *Memory) GetTags(_ context.Context, bucket, key string) (tags.Set, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	obj, ok := m.objects[memKey(bucket, key)]
	if !ok {
		return nil, ErrNotFound
	}
	return obj.tagSet.Clone(), nil
}

func (m *Memory) PutTags(_ context.Context, bucket, key string, tagSet tags.Set) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	obj, ok := m.objects[memKey(bucket, key)]
	if !ok {
		return ErrNotFound
	}
	obj.tagSet = tagSet.Clamped()
	return nil
}

func (m *Memory) List(_ context.Context, bucket, prefix string) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var keys []string
	p := memKey(bucket, prefix)
	for k := range m.objects {
		if strings.HasPrefix(k, p) {
			keys = append(keys, strings.TrimPrefix(k, bucket+"/"))
		}
	}
	sort.Strings(keys)
	return keys, nil
}

func (m *Memory) Presign(bucket, key string, _ time.Duration) (string, error) {
	return fmt.Sprintf("https://%s.s3.amazonaws.com/%s", bucket, key), nil
}

// Exists reports whether an object is present; test assertion helper.
func (m *Memory) Exists(bucket, key string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.objects[memKey(bucket, key)]
	return ok
}
