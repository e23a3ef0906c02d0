package dfs

import (
	"fmt"
	"io"
	"os"
	"os/user"
	"sort"
	"strconv"

	billy "github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/osfs"
	"github.com/go-git/go-billy/v5/util"
	"golang.org/x/sys/unix"
)

// Physical is the on-disk Filesystem backend. Path join, directory walk,
// and file I/O go through a billy.Filesystem rooted at "/" (so billy's own
// path handling, not diskplan's, governs how path strings map to host
// syscalls); owner/group/mode attributes fall outside billy's Basic/Dir
// capability set, so those go straight through golang.org/x/sys/unix
// instead, applied as a raw 12-bit mode value rather than through
// os.Chmod's os.FileMode translation, which would not let a caller
// round-trip setuid/setgid/sticky bits cleanly.
type Physical struct {
	fs billy.Filesystem
}

// NewPhysical returns a Filesystem backed by the real operating system.
func NewPhysical() *Physical { return &Physical{fs: osfs.New("/")} }

func (p *Physical) CreateDirectory(path string, attrs SetAttrs) error {
	mode := DefaultDirMode
	if attrs.Mode != nil {
		mode = attrs.Mode.Normalize()
	}
	if err := p.fs.MkdirAll(path, os.FileMode(mode)); err != nil {
		return fmt.Errorf("dfs: create directory %q: %w", path, err)
	}
	return applyOwnership(path, attrs)
}

func (p *Physical) CreateDirectoryAll(path string, attrs SetAttrs) error {
	if info, err := p.fs.Stat(path); err == nil {
		if !info.IsDir() {
			return fmt.Errorf("dfs: create directory %q: exists and is not a directory", path)
		}
		return nil
	}
	return p.CreateDirectory(path, attrs)
}

func (p *Physical) CreateFile(path string, attrs SetAttrs, content string) error {
	mode := DefaultFileMode
	if attrs.Mode != nil {
		mode = attrs.Mode.Normalize()
	}
	f, err := p.fs.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, os.FileMode(mode))
	if err != nil {
		return fmt.Errorf("dfs: create file %q: %w", path, err)
	}
	defer func() { _ = f.Close() }()
	if _, err := io.WriteString(f, content); err != nil {
		return fmt.Errorf("dfs: write file %q: %w", path, err)
	}
	return applyOwnership(path, attrs)
}

func (p *Physical) CreateSymlink(path, target string) error {
	if err := p.fs.Symlink(target, path); err != nil {
		return fmt.Errorf("dfs: create symlink %q -> %q: %w", path, target, err)
	}
	return nil
}

func (p *Physical) Exists(path string) bool {
	_, err := p.fs.Lstat(path)
	return err == nil
}

func (p *Physical) IsDirectory(path string) bool {
	info, err := p.fs.Stat(path) // dereferences symlinks
	return err == nil && info.IsDir()
}

func (p *Physical) IsFile(path string) bool {
	info, err := p.fs.Stat(path) // dereferences symlinks
	return err == nil && info.Mode().IsRegular()
}

func (p *Physical) IsLink(path string) bool {
	info, err := p.fs.Lstat(path)
	return err == nil && info.Mode()&os.ModeSymlink != 0
}

func (p *Physical) ListDirectory(path string) ([]string, error) {
	entries, err := p.fs.ReadDir(path)
	if err != nil {
		return nil, fmt.Errorf("dfs: list directory %q: %w", path, err)
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, e.Name())
	}
	sort.Strings(names)
	return names, nil
}

func (p *Physical) ReadFile(path string) (string, error) {
	data, err := util.ReadFile(p.fs, path)
	if err != nil {
		return "", fmt.Errorf("dfs: read file %q: %w", path, err)
	}
	return string(data), nil
}

func (p *Physical) ReadLink(path string) (string, error) {
	target, err := p.fs.Readlink(path)
	if err != nil {
		return "", fmt.Errorf("dfs: read link %q: %w", path, err)
	}
	return target, nil
}

func (*Physical) Attributes(path string) (Attrs, error) {
	var st unix.Stat_t
	if err := unix.Stat(path, &st); err != nil { // Stat dereferences symlinks
		return Attrs{}, fmt.Errorf("dfs: attributes %q: %w", path, err)
	}
	owner, group, err := lookupNames(st.Uid, st.Gid)
	if err != nil {
		return Attrs{}, err
	}
	return Attrs{
		Owner: owner,
		Group: group,
		Mode:  Mode(st.Mode & 0o7777),
	}, nil
}

func (*Physical) SetAttributes(path string, attrs SetAttrs) error {
	if attrs.Mode != nil {
		if err := unix.Chmod(path, uint32(attrs.Mode.Normalize())); err != nil {
			return fmt.Errorf("dfs: chmod %q: %w", path, err)
		}
	}
	return applyOwnership(path, attrs)
}

func applyOwnership(path string, attrs SetAttrs) error {
	if attrs.Owner == nil && attrs.Group == nil {
		return nil
	}
	uid, gid := -1, -1
	if attrs.Owner != nil {
		u, err := lookupUID(*attrs.Owner)
		if err != nil {
			return fmt.Errorf("dfs: resolve owner %q: %w", *attrs.Owner, err)
		}
		uid = u
	}
	if attrs.Group != nil {
		g, err := lookupGID(*attrs.Group)
		if err != nil {
			return fmt.Errorf("dfs: resolve group %q: %w", *attrs.Group, err)
		}
		gid = g
	}
	if err := unix.Chown(path, uid, gid); err != nil {
		return fmt.Errorf("dfs: chown %q: %w", path, err)
	}
	return nil
}

func lookupUID(name string) (int, error) {
	u, err := user.Lookup(name)
	if err != nil {
		return 0, err
	}
	return strconv.Atoi(u.Uid)
}

func lookupGID(name string) (int, error) {
	g, err := user.LookupGroup(name)
	if err != nil {
		return 0, err
	}
	return strconv.Atoi(g.Gid)
}

func lookupNames(uid, gid uint32) (owner, group string, err error) {
	u, err := user.LookupId(strconv.FormatUint(uint64(uid), 10))
	if err != nil {
		return "", "", fmt.Errorf("dfs: resolve uid %d: %w", uid, err)
	}
	g, err := user.LookupGroupId(strconv.FormatUint(uint64(gid), 10))
	if err != nil {
		return "", "", fmt.Errorf("dfs: resolve gid %d: %w", gid, err)
	}
	return u.Username, g.Name, nil
}

var _ Filesystem = (*Physical)(nil)
