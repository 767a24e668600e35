package blob

import (
	"bytes"
	"context"
	"io"
	"sync"
)

type object struct {
	data        []byte
	contentType string
}

// fakeBucket is an in-memory Client keyed by bucket/object.
type fakeBucket struct {
	mu      sync.Mutex
	objects map[string]object
}

func newFakeBucket() *fakeBucket {
	return &fakeBucket{objects: make(map[string]object)}
}

func (f *fakeBucket) Upload(_ context.Context, bucket, name, contentType string, content io.Reader) error {
	data, err := io.ReadAll(content)
	if err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.objects[bucket+"/"+name] = object{data: data, contentType: contentType}
	return nil
}

func (f *fakeBucket) Download(_ context.Context, bucket, name string) (io.ReadCloser, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	o, ok := f.objects[bucket+"/"+name]
	if !ok {
		return nil, ErrObjectNotFound
	}
	return io.NopCloser(bytes.NewReader(o.data)), nil
}

func (f *fakeBucket) Delete(_ context.Context, bucket, name string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.objects, bucket+"/"+name)
	return nil
}

func (f *fakeBucket) Exists(_ context.Context, bucket, name string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.objects[bucket+"/"+name]
	return ok, nil
}

func (f *fakeBucket) len() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.objects)
}

func (f *fakeBucket) contentType(bucket, name string) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.objects[bucket+"/"+name].contentType
}

// overwrite replaces stored bytes without touching the metadata, as a
// corrupted upload would.
func (f *fakeBucket) overwrite(bucket, name string, data []byte) {
	f.mu.Lock()
	defer f.mu.Unlock()
	o := f.objects[bucket+"/"+name]
	o.data = data
	f.objects[bucket+"/"+name] = o
}

var _ Client = (*fakeBucket)(nil)
