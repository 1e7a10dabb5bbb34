package fs

import (
	"fmt"

	"github.com/mit-pdos/blockfs/common"
	"github.com/mit-pdos/blockfs/inode"
)

// Ln adds dst as another name for the inode at src. A symlink at src is
// linked itself, not its target.
func (vol *Volume) Ln(src string, dst string) error {
	inum, err := vol.Lookup(src, false)
	if err != nil {
		return err
	}
	ip, err := vol.inodes.Lookup(inum)
	if err != nil {
		return err
	}
	if ip.Kind == inode.KindDir {
		return fmt.Errorf("ln %s: %w", src, common.ErrIsDir)
	}
	parent, pset, name, err := vol.parentOf(dst)
	if err != nil {
		return fmt.Errorf("ln %s: %w", dst, err)
	}
	if err := checkInsert(pset, name); err != nil {
		return fmt.Errorf("ln %s: %w", dst, err)
	}
	if err := pset.Insert(name, inum); err != nil {
		return err
	}
	if err := vol.writeDir(parent, pset); err != nil {
		return err
	}
	ip.Links++
	return vol.writeInode(inum)
}

// LnSym creates a symlink at linkpath whose content is target. The target
// need not exist.
func (vol *Volume) LnSym(target string, linkpath string) error {
	if target == "" {
		return fmt.Errorf("lnsym: empty target: %w", common.ErrInvalidName)
	}
	if uint64(len(target)) > vol.sb.PayloadSize() {
		return fmt.Errorf("lnsym %s: target of %d bytes: %w",
			linkpath, len(target), common.ErrNameTooLong)
	}
	parent, pset, name, err := vol.parentOf(linkpath)
	if err != nil {
		return fmt.Errorf("lnsym %s: %w", linkpath, err)
	}
	if _, err := vol.create(parent, pset, name, inode.KindSymlink, []byte(target)); err != nil {
		return fmt.Errorf("lnsym %s: %w", linkpath, err)
	}
	return nil
}

// Readlink returns the target stored in the symlink at path.
func (vol *Volume) Readlink(path string) (string, error) {
	inum, err := vol.Lookup(path, false)
	if err != nil {
		return "", err
	}
	ip, err := vol.inodes.Lookup(inum)
	if err != nil {
		return "", err
	}
	if ip.Kind != inode.KindSymlink {
		return "", fmt.Errorf("readlink %s: %w", path, common.ErrInvalidName)
	}
	b, err := vol.readContent(ip)
	return string(b), err
}
