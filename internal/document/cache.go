package document

import (
	"sort"
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"

	language "github.com/hanpama/opexport/internal/language"
)

// Cache memoizes Definitions by exact document text. By default it holds a
// single entry, the most recently parsed document, replaced on every miss.
// A Cache is not safe for concurrent use; see SyncCache.
type Cache struct {
	entries *lru.Cache[string, entry]
	onParse func(string)
	lastErr error
}

type CacheOption func(*cacheOptions)

type cacheOptions struct {
	capacity int
	onParse  func(string)
}

// WithCapacity sets how many distinct documents are remembered.
func WithCapacity(n int) CacheOption { return func(o *cacheOptions) { o.capacity = n } }

// WithParseHook registers fn to be called with the text of every real parse.
func WithParseHook(fn func(text string)) CacheOption {
	return func(o *cacheOptions) { o.onParse = fn }
}

func NewCache(opts ...CacheOption) *Cache {
	o := cacheOptions{capacity: 1}
	for _, f := range opts {
		f(&o)
	}
	if o.capacity < 1 {
		o.capacity = 1
	}
	entries, err := lru.New[string, entry](o.capacity)
	if err != nil {
		// only returned for a non-positive size
		panic(err)
	}
	return &Cache{entries: entries, onParse: o.onParse}
}

// Definitions returns the operations (subscriptions excluded) and fragments of
// text in source order. Text that fails to parse yields an empty list; the
// error is available from Err. A hit returns the very slice cached earlier.
func (c *Cache) Definitions(text string) []Definition {
	if e, ok := c.entries.Get(text); ok {
		c.lastErr = e.err
		return e.defs
	}
	if c.onParse != nil {
		c.onParse(text)
	}
	defs, err := Parse(text)
	c.lastErr = err
	c.entries.Add(text, entry{defs: defs, err: err})
	return defs
}

type entry struct {
	defs []Definition
	err  error
}

// Err reports the parse error of the text passed to the latest Definitions call.
func (c *Cache) Err() error { return c.lastErr }

// Lookup returns Definitions(text) together with its parse error.
func (c *Cache) Lookup(text string) ([]Definition, error) {
	defs := c.Definitions(text)
	return defs, c.lastErr
}

// Source yields the definitions of document text along with its parse error.
// *Cache and *SyncCache implement it.
type Source interface {
	Lookup(text string) ([]Definition, error)
}

// Parse parses text without caching. Type-system definitions are dropped;
// an error is only reported when the executable definitions fail to parse.
func Parse(text string) ([]Definition, error) {
	doc, err := language.ParseQuery(text)
	if err != nil {
		if executable, stripped := language.ExecutableSource(text); stripped {
			doc, err = language.ParseQuery(executable)
		}
	}
	if err != nil {
		return []Definition{}, err
	}
	defs := make([]Definition, 0, len(doc.Operations)+len(doc.Fragments))
	for _, op := range doc.Operations {
		if op.Operation == language.Subscription {
			continue
		}
		defs = append(defs, &Operation{Node: op})
	}
	for _, frag := range doc.Fragments {
		defs = append(defs, &Fragment{Node: frag})
	}
	sort.SliceStable(defs, func(i, j int) bool {
		return offset(defs[i]) < offset(defs[j])
	})
	return defs, nil
}

func offset(def Definition) int {
	if pos := def.Position(); pos != nil {
		return pos.Start
	}
	return 0
}

// SyncCache is a Cache guarded by a mutex.
type SyncCache struct {
	mu    sync.Mutex
	cache *Cache
}

func NewSyncCache(opts ...CacheOption) *SyncCache {
	return &SyncCache{cache: NewCache(opts...)}
}

// Lookup returns the definitions of text together with its parse error.
func (s *SyncCache) Lookup(text string) ([]Definition, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cache.Lookup(text)
}
