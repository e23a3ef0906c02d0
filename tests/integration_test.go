// Package tests holds diskplan's end-to-end scenarios: schema text in,
// filesystem mutations out, driven through the same internal/traverse
// entry point the CLI uses. Scenarios S1-S6 are mirrored from spec.md §8,
// which in turn mirrors original_source/diskplan-traversal/tests/
// {creation,matching,attributes}.rs.
package tests

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentic-research/diskplan/internal/dfs"
	"github.com/agentic-research/diskplan/internal/dpath"
	"github.com/agentic-research/diskplan/internal/schema"
	"github.com/agentic-research/diskplan/internal/schematext"
	"github.com/agentic-research/diskplan/internal/traverse"
)

// stemResolver is a traverse.Resolver over a fixed set of pre-parsed
// stems, enough to drive multi-root scenarios like S3 without a config
// file on disk.
type stemResolver struct {
	stems map[dpath.Root]*schema.Node
}

func newStemResolver() *stemResolver {
	return &stemResolver{stems: map[dpath.Root]*schema.Node{}}
}

func (r *stemResolver) addStem(t *testing.T, root, source string) dpath.Root {
	t.Helper()
	rootVal, err := dpath.NormalizeRoot(root)
	require.NoError(t, err)
	node, err := schematext.NewParser().Parse(root, source)
	require.NoError(t, err)
	r.stems[rootVal] = node
	return rootVal
}

func (r *stemResolver) SchemaFor(absPath string) (*schema.Node, dpath.Root, error) {
	var best dpath.Root
	var bestNode *schema.Node
	for root, node := range r.stems {
		rootStr := string(root)
		if absPath != rootStr && rootStr != "/" && !hasPrefixComponent(absPath, rootStr) {
			continue
		}
		if len(rootStr) > len(string(best)) || bestNode == nil {
			best, bestNode = root, node
		}
	}
	if bestNode == nil {
		return nil, "", assertNoStemErr(absPath)
	}
	return bestNode, best, nil
}

func hasPrefixComponent(path, prefix string) bool {
	if path == prefix {
		return true
	}
	return len(path) > len(prefix) && path[:len(prefix)] == prefix && path[len(prefix)] == '/'
}

func assertNoStemErr(path string) error {
	return &noStemError{path: path}
}

type noStemError struct{ path string }

func (e *noStemError) Error() string { return "tests: no stem contains " + e.path }

func (r *stemResolver) MapUser(name string) string  { return name }
func (r *stemResolver) MapGroup(name string) string { return name }

func runScenario(t *testing.T, resolver *stemResolver, root dpath.Root, target string) (dfs.Filesystem, error) {
	t.Helper()
	fs := dfs.NewMemory()
	rootNode, stemRoot, err := resolver.SchemaFor(target)
	require.NoError(t, err)

	plantedRoot, err := dpath.New(stemRoot, "")
	require.NoError(t, err)
	plantedTarget, err := dpath.New(stemRoot, target)
	require.NoError(t, err)

	stack := traverse.NewStack(resolver, "root", "root", uint16(dfs.DefaultDirMode))
	err = traverse.Traverse(fs, stack, rootNode, plantedRoot, plantedTarget.Relative(), traverse.ExtentFull)
	_ = root
	return fs, err
}

// S1 — Nested directories.
func TestS1NestedDirectories(t *testing.T) {
	r := newStemResolver()
	root := r.addStem(t, "/t", "subdir/\n    subsubdir/\n")

	fs, err := runScenario(t, r, root, "/t")
	require.NoError(t, err)

	assert.True(t, fs.IsDirectory("/t"))
	assert.True(t, fs.IsDirectory("/t/subdir"))
	assert.True(t, fs.IsDirectory("/t/subdir/subsubdir"))
}

// S2 — File from source.
func TestS2FileFromSource(t *testing.T) {
	r := newStemResolver()
	root := r.addStem(t, "/t", "f\n    :source /src/empty\n")

	fs := dfs.NewMemory()
	require.NoError(t, fs.CreateDirectoryAll("/src", dfs.SetAttrs{}))
	require.NoError(t, fs.CreateFile("/src/empty", dfs.SetAttrs{}, ""))

	rootNode, stemRoot, err := r.SchemaFor("/t")
	require.NoError(t, err)
	plantedRoot, err := dpath.New(stemRoot, "")
	require.NoError(t, err)
	plantedTarget, err := dpath.New(stemRoot, "/t")
	require.NoError(t, err)
	stack := traverse.NewStack(r, "root", "root", uint16(dfs.DefaultDirMode))
	require.NoError(t, traverse.Traverse(fs, stack, rootNode, plantedRoot, plantedTarget.Relative(), traverse.ExtentFull))

	_ = root
	assert.True(t, fs.IsFile("/t/f"))
	content, err := fs.ReadFile("/t/f")
	require.NoError(t, err)
	assert.Equal(t, "", content)
}

// S3 — Symlink with target schema, co-materializing a second stem.
func TestS3SymlinkWithTargetSchema(t *testing.T) {
	r := newStemResolver()
	rootA := r.addStem(t, "/a", "subdirlink/ -> /b/$NAME\n    subfile\n        :source /src/file\n")
	r.addStem(t, "/b", "$_catchall/\n    :match .*\n")

	fs := dfs.NewMemory()
	require.NoError(t, fs.CreateDirectoryAll("/src", dfs.SetAttrs{}))
	require.NoError(t, fs.CreateFile("/src/file", dfs.SetAttrs{}, "X"))

	rootNode, stemRoot, err := r.SchemaFor("/a")
	require.NoError(t, err)
	plantedRoot, err := dpath.New(stemRoot, "")
	require.NoError(t, err)
	plantedTarget, err := dpath.New(stemRoot, "/a")
	require.NoError(t, err)
	stack := traverse.NewStack(r, "root", "root", uint16(dfs.DefaultDirMode))
	require.NoError(t, traverse.Traverse(fs, stack, rootNode, plantedRoot, plantedTarget.Relative(), traverse.ExtentFull))

	_ = rootA
	assert.True(t, fs.IsLink("/a/subdirlink"))
	target, err := fs.ReadLink("/a/subdirlink")
	require.NoError(t, err)
	assert.Equal(t, "/b/subdirlink", target)
	assert.True(t, fs.IsDirectory("/b/subdirlink"))
	content, err := fs.ReadFile("/b/subdirlink/subfile")
	require.NoError(t, err)
	assert.Equal(t, "X", content)
}

// S4 — Static beats dynamic.
func TestS4StaticBeatsDynamic(t *testing.T) {
	r := newStemResolver()
	root := r.addStem(t, "/", "fixed/\n    MATCHED_FIXED/\n$v/\n    :match .*\n    MATCHED_VARIABLE/\n")

	fs := dfs.NewMemory()
	require.NoError(t, fs.CreateDirectory("/fixed", dfs.SetAttrs{}))

	rootNode, stemRoot, err := r.SchemaFor("/")
	require.NoError(t, err)
	plantedRoot, err := dpath.New(stemRoot, "")
	require.NoError(t, err)
	stack := traverse.NewStack(r, "root", "root", uint16(dfs.DefaultDirMode))
	require.NoError(t, traverse.Traverse(fs, stack, rootNode, plantedRoot, "", traverse.ExtentFull))

	_ = root
	assert.True(t, fs.IsDirectory("/fixed/MATCHED_FIXED"))
	assert.False(t, fs.Exists("/fixed/MATCHED_VARIABLE"))
}

// S5 — Categorical partition via :avoid.
func TestS5AvoidPartition(t *testing.T) {
	r := newStemResolver()
	source := "$building/\n" +
		"    :match .*shed\n" +
		"    BUILDING/\n" +
		"$animal/\n" +
		"    :match .*\n" +
		"    :avoid .*shed\n" +
		"    ANIMAL/\n"
	root := r.addStem(t, "/t", source)

	fs := dfs.NewMemory()
	require.NoError(t, fs.CreateDirectory("/t", dfs.SetAttrs{}))
	for _, name := range []string{"cow", "shed", "cow_shed", "chicken"} {
		require.NoError(t, fs.CreateDirectory("/t/"+name, dfs.SetAttrs{}))
	}

	rootNode, stemRoot, err := r.SchemaFor("/t")
	require.NoError(t, err)
	plantedRoot, err := dpath.New(stemRoot, "")
	require.NoError(t, err)
	stack := traverse.NewStack(r, "root", "root", uint16(dfs.DefaultDirMode))
	require.NoError(t, traverse.Traverse(fs, stack, rootNode, plantedRoot, "", traverse.ExtentFull))

	_ = root
	assert.True(t, fs.IsDirectory("/t/cow/ANIMAL"))
	assert.True(t, fs.IsDirectory("/t/shed/BUILDING"))
	assert.True(t, fs.IsDirectory("/t/cow_shed/BUILDING"))
	assert.True(t, fs.IsDirectory("/t/chicken/ANIMAL"))
	assert.False(t, fs.Exists("/t/cow/BUILDING"))
	assert.False(t, fs.Exists("/t/shed/ANIMAL"))
}

// S6 — :use composition and attribute precedence.
func TestS6UseCompositionAttributePrecedence(t *testing.T) {
	r := newStemResolver()
	source := ":def o_root/\n" +
		"    :owner root\n" +
		":def o_sys/\n" +
		"    :owner sys\n" +
		"use_ab/\n" +
		"    :use o_root\n" +
		"    :use o_sys\n" +
		"use_ba/\n" +
		"    :use o_sys\n" +
		"    :use o_root\n" +
		"local/\n" +
		"    :owner root\n" +
		"    :use o_sys\n"
	root := r.addStem(t, "/", source)

	fs := dfs.NewMemory()
	rootNode, stemRoot, err := r.SchemaFor("/")
	require.NoError(t, err)
	plantedRoot, err := dpath.New(stemRoot, "")
	require.NoError(t, err)
	stack := traverse.NewStack(r, "nobody", "nobody", uint16(dfs.DefaultDirMode))
	require.NoError(t, traverse.Traverse(fs, stack, rootNode, plantedRoot, "", traverse.ExtentFull))

	_ = root
	attrsAB, err := fs.Attributes("/use_ab")
	require.NoError(t, err)
	assert.Equal(t, "root", attrsAB.Owner)

	attrsBA, err := fs.Attributes("/use_ba")
	require.NoError(t, err)
	assert.Equal(t, "sys", attrsBA.Owner)

	attrsLocal, err := fs.Attributes("/local")
	require.NoError(t, err)
	assert.Equal(t, "root", attrsLocal.Owner)
}
