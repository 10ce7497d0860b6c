package app_test

import (
	"context"
	"encoding/json"
	"strings"
	"sync"

	"sunflower_web/internal/domain"
)

// ---- fakes ----

type call struct {
	Path      string
	Method    string
	Body      map[string]any
	NeedsAuth bool
}

// fakeAPI answers by "METHOD path" (query included) with canned JSON or an error.
type fakeAPI struct {
	mu      sync.Mutex
	replies map[string]string
	errs    map[string]error
	calls   []call
}

func newFakeAPI() *fakeAPI {
	return &fakeAPI{replies: map[string]string{}, errs: map[string]error{}}
}

func (f *fakeAPI) on(method, path, reply string) *fakeAPI {
	f.replies[method+" "+path] = reply
	return f
}

func (f *fakeAPI) fail(method, path string, err error) *fakeAPI {
	f.errs[method+" "+path] = err
	return f
}

func (f *fakeAPI) Request(ctx context.Context, path, method string, body any, needsAuth bool) (json.RawMessage, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	c := call{Path: path, Method: method, NeedsAuth: needsAuth}
	if body != nil {
		b, _ := json.Marshal(body)
		_ = json.Unmarshal(b, &c.Body)
	}
	f.calls = append(f.calls, c)

	key := method + " " + path
	if err, ok := f.errs[key]; ok {
		return nil, err
	}
	if r, ok := f.replies[key]; ok {
		return json.RawMessage(r), nil
	}
	return nil, nil
}

func (f *fakeAPI) Do(ctx context.Context, path, method string, body any, needsAuth bool, out any) error {
	raw, err := f.Request(ctx, path, method, body, needsAuth)
	if err != nil || raw == nil || out == nil {
		return err
	}
	return json.Unmarshal(raw, out)
}

func (f *fakeAPI) count(prefix string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, c := range f.calls {
		if strings.HasPrefix(c.Method+" "+c.Path, prefix) {
			n++
		}
	}
	return n
}

func (f *fakeAPI) last() call {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[len(f.calls)-1]
}

// fakeCache keeps JSON like the Redis adapter does.
type fakeCache struct {
	mu    sync.Mutex
	store map[string][]byte
	dels  []string
}

func (c *fakeCache) Get(ctx context.Context, key string, dst any) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	b, ok := c.store[key]
	if !ok {
		return false, nil
	}
	return true, json.Unmarshal(b, dst)
}

func (c *fakeCache) Set(ctx context.Context, key string, v any, ttlSec int) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.store == nil {
		c.store = map[string][]byte{}
	}
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	c.store[key] = b
	return nil
}

func (c *fakeCache) Del(ctx context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.store, key)
	c.dels = append(c.dels, key)
	return nil
}

var _ domain.Requester = (*fakeAPI)(nil)
var _ domain.Cache = (*fakeCache)(nil)
