package fs

import (
	"fmt"
	"strings"

	"github.com/mit-pdos/blockfs/buf"
	"github.com/mit-pdos/blockfs/common"
	"github.com/mit-pdos/blockfs/dir"
	"github.com/mit-pdos/blockfs/inode"
)

// MAXSYMLINKS bounds the symlinks followed while resolving one path.
const MAXSYMLINKS = 8

func splitPath(path string) ([]string, error) {
	if !strings.HasPrefix(path, "/") {
		return nil, fmt.Errorf("path %q is not absolute: %w", path, common.ErrInvalidName)
	}
	var comps []string
	for _, c := range strings.Split(path, "/") {
		if c != "" {
			comps = append(comps, c)
		}
	}
	return comps, nil
}

// ReadDir returns the entry set of directory inum.
func (vol *Volume) ReadDir(inum common.Inum) (*dir.Set, error) {
	ip, err := vol.inodes.Lookup(inum)
	if err != nil {
		return nil, err
	}
	if ip.Kind != inode.KindDir {
		return nil, fmt.Errorf("inode %d: %w", inum, common.ErrNotDir)
	}
	payload, err := vol.readPayload(ip.Direct, buf.KindDirContent)
	if err != nil {
		return nil, fmt.Errorf("directory %d: %w", inum, err)
	}
	return dir.Decode(payload)
}

func (vol *Volume) writeDir(inum common.Inum, set *dir.Set) error {
	ip, err := vol.inodes.Lookup(inum)
	if err != nil {
		return err
	}
	if err := vol.writeDirBlock(ip.Direct, set); err != nil {
		return err
	}
	ip.Mtime = vol.Now().Unix()
	return vol.writeInode(inum)
}

func (vol *Volume) walk(comps []string, follow bool, hops *int) (common.Inum, error) {
	cur := common.ROOTINUM
	for i, name := range comps {
		set, err := vol.ReadDir(cur)
		if err != nil {
			return common.NULLINUM, fmt.Errorf("/%s: %w", strings.Join(comps[:i], "/"), err)
		}
		next, err := set.Find(name)
		if err != nil {
			return common.NULLINUM, err
		}
		ip, err := vol.inodes.Lookup(next)
		if err != nil {
			return common.NULLINUM, err
		}
		last := i == len(comps)-1
		if ip.Kind == inode.KindSymlink && (follow || !last) {
			*hops++
			if *hops > MAXSYMLINKS {
				return common.NULLINUM, fmt.Errorf("resolving %q: %w", name, common.ErrTooManyLinks)
			}
			target, err := vol.readContent(ip)
			if err != nil {
				return common.NULLINUM, err
			}
			var tcomps []string
			if strings.HasPrefix(string(target), "/") {
				tcomps, err = splitPath(string(target))
				if err != nil {
					return common.NULLINUM, err
				}
			} else {
				// relative to the directory holding the link
				tcomps = append(append([]string{}, comps[:i]...),
					strings.FieldsFunc(string(target), func(r rune) bool { return r == '/' })...)
			}
			return vol.walk(append(tcomps, comps[i+1:]...), follow, hops)
		}
		cur = next
	}
	return cur, nil
}

// Lookup resolves an absolute path. Symlinks in the middle of the path are
// always followed; a final symlink only when follow is set.
func (vol *Volume) Lookup(path string, follow bool) (common.Inum, error) {
	comps, err := splitPath(path)
	if err != nil {
		return common.NULLINUM, err
	}
	hops := 0
	inum, err := vol.walk(comps, follow, &hops)
	if err != nil {
		return inum, fmt.Errorf("lookup %s: %w", path, err)
	}
	return inum, nil
}

func (vol *Volume) Resolve(path string) (common.Inum, error) {
	return vol.Lookup(path, true)
}

// linkTarget returns the absolute path named by target, stored in the
// symlink at link.
func linkTarget(link string, target string) string {
	if strings.HasPrefix(target, "/") {
		return target
	}
	comps, _ := splitPath(link)
	if len(comps) > 0 {
		comps = comps[:len(comps)-1]
	}
	return "/" + strings.Join(append(comps, target), "/")
}

// parentOf resolves everything but the last component of path, which
// must name a directory.
func (vol *Volume) parentOf(path string) (common.Inum, *dir.Set, string, error) {
	comps, err := splitPath(path)
	if err != nil {
		return common.NULLINUM, nil, "", err
	}
	if len(comps) == 0 {
		return common.NULLINUM, nil, "", fmt.Errorf("%s: %w", path, common.ErrProtectedEntry)
	}
	name := comps[len(comps)-1]
	hops := 0
	parent, err := vol.walk(comps[:len(comps)-1], true, &hops)
	if err != nil {
		return common.NULLINUM, nil, "", fmt.Errorf("%s: %w", path, err)
	}
	set, err := vol.ReadDir(parent)
	if err != nil {
		return common.NULLINUM, nil, "", fmt.Errorf("%s: %w", path, err)
	}
	return parent, set, name, nil
}

// checkInsert reports whether name could be added to set.
func checkInsert(set *dir.Set, name string) error {
	if err := dir.ValidName(name); err != nil {
		return err
	}
	if _, err := set.Find(name); err == nil {
		return fmt.Errorf("%q: %w", name, common.ErrDuplicateName)
	}
	if set.IsFull() {
		return fmt.Errorf("inserting %q: %w", name, common.ErrDirectoryFull)
	}
	return nil
}
