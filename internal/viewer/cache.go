package viewer

import (
	"os"
	"path/filepath"
	"sync"
	"time"

	"mandi/internal/logger"
	"mandi/internal/store/csvstore"
	"mandi/internal/types"

	"github.com/fsnotify/fsnotify"
)

// Cache holds the viewer's process-local copy of the master dataset. The
// copy is refreshed when the TTL expires, when the file's mtime moves, or
// when the filesystem watcher sees the file replaced. The file is re-opened
// on every reload; no long-lived handle is held, so the fetcher's atomic
// rename is always safe.
type Cache struct {
	store *csvstore.Store
	ttl   time.Duration

	mu       sync.Mutex
	ds       *types.Dataset
	loadedAt time.Time
	modTime  time.Time
	dirty    bool

	watcher *fsnotify.Watcher
}

// NewCache builds a cache over the store's CSV. The watch is best-effort:
// if the data directory cannot be watched yet, the TTL and mtime checks
// still keep the cache honest.
func NewCache(store *csvstore.Store, ttl time.Duration) (*Cache, error) {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	c := &Cache{store: store, ttl: ttl, dirty: true}
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		logger.Warnf("file watch unavailable, falling back to ttl refresh: %v", err)
		return c, nil
	}
	// Watch the directory, not the file: the fetcher replaces the file by
	// rename, which would silently drop a watch on the file itself.
	dir := filepath.Dir(store.Path())
	_ = os.MkdirAll(dir, 0o755)
	if err := watcher.Add(dir); err != nil {
		logger.Warnf("watching %s failed, falling back to ttl refresh: %v", dir, err)
		watcher.Close()
		return c, nil
	}
	c.watcher = watcher
	go c.watchLoop()
	return c, nil
}

// Close stops the filesystem watcher.
func (c *Cache) Close() error {
	if c.watcher == nil {
		return nil
	}
	return c.watcher.Close()
}

// Dataset returns the cached dataset, reloading it first if stale. The
// returned dataset must be treated as read-only.
func (c *Cache) Dataset() (*types.Dataset, time.Time, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.needsReload() {
		ds, err := c.store.Read()
		if err != nil {
			return nil, time.Time{}, err
		}
		c.ds = ds
		c.loadedAt = time.Now()
		c.modTime = c.statModTime()
		c.dirty = false
		logger.Debugf("viewer cache reloaded: %d records", ds.Len())
	}
	return c.ds, c.modTime, nil
}

// Invalidate forces the next Dataset call to reload.
func (c *Cache) Invalidate() {
	c.mu.Lock()
	c.dirty = true
	c.mu.Unlock()
}

func (c *Cache) needsReload() bool {
	if c.ds == nil || c.dirty {
		return true
	}
	if time.Since(c.loadedAt) > c.ttl {
		return true
	}
	return !c.statModTime().Equal(c.modTime)
}

func (c *Cache) statModTime() time.Time {
	info, err := os.Stat(c.store.Path())
	if err != nil {
		return time.Time{}
	}
	return info.ModTime()
}

func (c *Cache) watchLoop() {
	target := filepath.Base(c.store.Path())
	for {
		select {
		case evt, ok := <-c.watcher.Events:
			if !ok {
				return
			}
			if filepath.Base(evt.Name) != target {
				continue
			}
			if evt.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Rename) != 0 {
				c.Invalidate()
			}
		case err, ok := <-c.watcher.Errors:
			if !ok {
				return
			}
			logger.Warnf("file watch error: %v", err)
		}
	}
}
