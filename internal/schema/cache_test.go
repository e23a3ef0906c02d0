package schema

import (
	"os"
	"sync"
	"sync/atomic"
	"testing"
)

type countingParser struct {
	calls int32
}

func (p *countingParser) Parse(path string, source string) (*Node, error) {
	atomic.AddInt32(&p.calls, 1)
	return &Node{Line: source}, nil
}

func TestCacheInject(t *testing.T) {
	c := NewCache(&countingParser{})
	node := &Node{Line: "injected"}
	c.Inject("/fake/path", node)
	got, err := c.Load("/fake/path")
	if err != nil {
		t.Fatal(err)
	}
	if got != node {
		t.Error("Load after Inject did not return the injected node")
	}
}

func TestCacheLoadIsStable(t *testing.T) {
	c := NewCache(&countingParser{})
	c.Inject("/a", &Node{Line: "a"})
	first, _ := c.Load("/a")
	c.Inject("/b", &Node{Line: "b"}) // growing the cache must not move /a
	second, _ := c.Load("/a")
	if first != second {
		t.Error("node pointer for /a changed after inserting another entry")
	}
}

func TestCacheConcurrentLoadCollapses(t *testing.T) {
	dir := t.TempDir()
	path := dir + "/schema.diskplan"
	if err := os.WriteFile(path, []byte("dir/\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	parser := &countingParser{}
	c := NewCache(parser)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := c.Load(path); err != nil {
				t.Error(err)
			}
		}()
	}
	wg.Wait()

	if calls := atomic.LoadInt32(&parser.calls); calls != 1 {
		t.Errorf("parser called %d times, want 1", calls)
	}
}
