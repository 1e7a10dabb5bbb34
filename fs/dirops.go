package fs

import (
	"errors"
	"fmt"
	"time"

	"github.com/mit-pdos/blockfs/buf"
	"github.com/mit-pdos/blockfs/common"
	"github.com/mit-pdos/blockfs/dir"
	"github.com/mit-pdos/blockfs/inode"
)

// Entry is one line of a directory listing.
type Entry struct {
	Name  string      `yaml:"name"`
	Inum  common.Inum `yaml:"inode"`
	Kind  inode.Kind  `yaml:"kind"`
	Size  uint64      `yaml:"size"`
	Links uint64      `yaml:"links"`
	Mtime time.Time   `yaml:"mtime"`
}

func (vol *Volume) mkEntry(name string, inum common.Inum) (Entry, error) {
	ip, err := vol.inodes.Lookup(inum)
	if err != nil {
		return Entry{}, fmt.Errorf("entry %q: %w", name, err)
	}
	return Entry{
		Name:  name,
		Inum:  inum,
		Kind:  ip.Kind,
		Size:  ip.Size,
		Links: ip.Links,
		Mtime: ip.ModTime(),
	}, nil
}

// List returns the entries of the directory at path, or the single entry
// for a file.
func (vol *Volume) List(path string) ([]Entry, error) {
	inum, err := vol.Resolve(path)
	if err != nil {
		return nil, err
	}
	ip, err := vol.inodes.Lookup(inum)
	if err != nil {
		return nil, err
	}
	if ip.Kind != inode.KindDir {
		comps, _ := splitPath(path)
		e, err := vol.mkEntry(comps[len(comps)-1], inum)
		if err != nil {
			return nil, err
		}
		return []Entry{e}, nil
	}
	set, err := vol.ReadDir(inum)
	if err != nil {
		return nil, err
	}
	var ents []Entry
	for _, de := range set.Entries() {
		e, err := vol.mkEntry(de.Name, de.Inum)
		if err != nil {
			return nil, err
		}
		ents = append(ents, e)
	}
	return ents, nil
}

func (vol *Volume) Mkdir(path string) error {
	parent, pset, name, err := vol.parentOf(path)
	if err != nil {
		if errors.Is(err, common.ErrProtectedEntry) {
			return fmt.Errorf("mkdir %s: %w", path, common.ErrDuplicateName)
		}
		return err
	}
	if err := checkInsert(pset, name); err != nil {
		return fmt.Errorf("mkdir %s: %w", path, err)
	}
	if err := vol.reserve(1, 1); err != nil {
		return fmt.Errorf("mkdir %s: %w", path, err)
	}

	ip, err := vol.allocInode(inode.KindDir)
	if err != nil {
		return err
	}
	set := dir.Init(ip.Inum, parent)
	bnum, err := vol.allocBlock(buf.KindDirContent, name, set.Encode())
	if err != nil {
		if ferr := vol.freeInode(ip); ferr != nil {
			return errors.Join(err, ferr)
		}
		return err
	}
	if err := ip.SetBlocks([]common.Bnum{bnum}); err != nil {
		return err
	}
	ip.Size = common.DIRSZ
	ip.Links = 1
	if err := vol.writeInode(ip.Inum); err != nil {
		return err
	}
	if err := pset.Insert(name, ip.Inum); err != nil {
		return err
	}
	return vol.writeDir(parent, pset)
}

func (vol *Volume) Rmdir(path string) error {
	parent, pset, name, err := vol.parentOf(path)
	if err != nil {
		return err
	}
	if name == dir.DOT || name == dir.DOTDOT {
		return fmt.Errorf("rmdir %s: %w", path, common.ErrProtectedEntry)
	}
	inum, err := pset.Find(name)
	if err != nil {
		return fmt.Errorf("rmdir %s: %w", path, err)
	}
	ip, err := vol.inodes.Lookup(inum)
	if err != nil {
		return err
	}
	if ip.Kind != inode.KindDir {
		return fmt.Errorf("rmdir %s: %w", path, common.ErrNotDir)
	}
	set, err := vol.ReadDir(inum)
	if err != nil {
		return err
	}
	if !set.IsEmpty() {
		return fmt.Errorf("rmdir %s: %w", path, common.ErrNotEmpty)
	}
	if err := pset.Remove(name); err != nil {
		return err
	}
	if err := vol.writeDir(parent, pset); err != nil {
		return err
	}
	return vol.freeInode(ip)
}
