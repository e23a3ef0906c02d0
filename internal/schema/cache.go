package schema

import (
	"database/sql"
	"fmt"
	"os"
	"sync"

	_ "modernc.org/sqlite"
	"golang.org/x/sync/singleflight"
)

// Parser is implemented by internal/schematext.Parser; kept as an
// interface here so the schema package (which schematext imports) never
// needs to import schematext back.
type Parser interface {
	Parse(path string, source string) (*Node, error)
}

// Cache is diskplan's schema cache: an append-only mapping from schema
// file path to parsed Node. Lookups are thread-safe via a mutex guarding
// the path-to-index map; entries are never evicted, and because nodes are
// stored as pointers, a lookup's returned *Node remains valid for the
// cache's lifetime regardless of how many later entries are appended
// (growing the backing slice never invalidates a pointer already handed
// out — only indices into the slice would be invalidated by reallocation,
// and indices are never exposed to callers).
type Cache struct {
	parser Parser

	mu      sync.Mutex
	index   map[string]int
	entries []cacheEntry

	group singleflight.Group // collapses concurrent Load of the same path

	db *sql.DB // optional on-disk memoization, see Persist
}

type cacheEntry struct {
	path   string
	source string
	node   *Node
}

// NewCache returns an empty Cache that parses schema text with parser.
func NewCache(parser Parser) *Cache {
	return &Cache{parser: parser, index: make(map[string]int)}
}

// Load returns the parsed Node for path, parsing and inserting it on first
// request. Concurrent callers requesting the same uncached path collapse
// into a single parse via golang.org/x/sync/singleflight — spec.md §4.3
// requires only that lookups be "safe under concurrent callers"; this goes
// a step further than a bare mutex by avoiding redundant parses of the
// same not-yet-cached file under concurrent load.
func (c *Cache) Load(path string) (*Node, error) {
	if n, ok := c.lookup(path); ok {
		return n, nil
	}

	v, err, _ := c.group.Do(path, func() (interface{}, error) {
		if n, ok := c.lookup(path); ok {
			return n, nil
		}
		source, err := c.readSource(path)
		if err != nil {
			return nil, err
		}
		node, err := c.parser.Parse(path, source)
		if err != nil {
			return nil, err
		}
		c.insert(path, source, node)
		return node, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*Node), nil
}

// readSource consults the optional sqlite memoization table before falling
// back to a real file read; see Persist.
func (c *Cache) readSource(path string) (string, error) {
	var mtimeNS int64
	if c.db != nil {
		if info, statErr := os.Stat(path); statErr == nil {
			mtimeNS = info.ModTime().UnixNano()
			if src, ok := c.lookupPersisted(path, mtimeNS); ok {
				return src, nil
			}
		}
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("schema: read %q: %w", path, err)
	}
	c.persistSource(path, string(data), mtimeNS)
	return string(data), nil
}

// Inject inserts a pre-parsed node under path without reading or parsing
// anything — a test affordance per spec.md §4.3.
func (c *Cache) Inject(path string, node *Node) {
	c.insert(path, "", node)
}

func (c *Cache) lookup(path string) (*Node, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	idx, ok := c.index[path]
	if !ok {
		return nil, false
	}
	return c.entries[idx].node, true
}

func (c *Cache) insert(path, source string, node *Node) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if idx, ok := c.index[path]; ok {
		// Another caller won the race between our lookup and this insert;
		// keep the existing entry so *Node identity stays stable.
		_ = idx
		return
	}
	c.index[path] = len(c.entries)
	c.entries = append(c.entries, cacheEntry{path: path, source: source, node: node})
}

// Persist enables the optional sqlite-backed source memoization layer
// described in SPEC_FULL.md's domain stack: an additive cache in front of
// the required in-memory one, letting a fresh process skip re-reading
// unchanged schema files from disk. It never replaces Load's in-memory
// node cache, which is what actually avoids re-parsing within a process.
func (c *Cache) Persist(dbPath string) error {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return fmt.Errorf("schema: open cache db %q: %w", dbPath, err)
	}
	const ddl = `CREATE TABLE IF NOT EXISTS schema_source (
		path TEXT PRIMARY KEY,
		mtime_ns INTEGER NOT NULL,
		source TEXT NOT NULL
	)`
	if _, err := db.Exec(ddl); err != nil {
		_ = db.Close()
		return fmt.Errorf("schema: init cache db: %w", err)
	}
	c.db = db
	return nil
}

// Close releases the optional persistence database, if enabled.
func (c *Cache) Close() error {
	if c.db == nil {
		return nil
	}
	return c.db.Close()
}

func (c *Cache) lookupPersisted(path string, mtimeNS int64) (string, bool) {
	var source string
	var storedMtime int64
	row := c.db.QueryRow(`SELECT mtime_ns, source FROM schema_source WHERE path = ?`, path)
	if err := row.Scan(&storedMtime, &source); err != nil {
		return "", false
	}
	if storedMtime != mtimeNS {
		return "", false
	}
	return source, true
}

// persistSource writes path's current source into the memoization table;
// called after a successful read (before the source is parsed) so future
// process starts can skip the disk read for an unchanged file.
func (c *Cache) persistSource(path, source string, mtimeNS int64) {
	if c.db == nil {
		return
	}
	_, _ = c.db.Exec(
		`INSERT INTO schema_source(path, mtime_ns, source) VALUES (?, ?, ?)
		 ON CONFLICT(path) DO UPDATE SET mtime_ns = excluded.mtime_ns, source = excluded.source`,
		path, mtimeNS, source,
	)
}
