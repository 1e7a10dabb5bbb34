package fs

import (
	"errors"
	"fmt"

	"github.com/mit-pdos/blockfs/buf"
	"github.com/mit-pdos/blockfs/common"
	"github.com/mit-pdos/blockfs/dir"
	"github.com/mit-pdos/blockfs/inode"
	"github.com/mit-pdos/blockfs/util"
)

// chunk splits data into payload-sized pieces; the last may be short.
func (vol *Volume) chunk(data []byte) ([][]byte, error) {
	sz := vol.sb.PayloadSize()
	n := util.RoundUp(uint64(len(data)), sz)
	if n > common.NBLKMAX {
		return nil, fmt.Errorf("%d bytes need %d blocks of %d: %w",
			len(data), n, common.NBLKMAX, common.ErrFileTooLarge)
	}
	chunks := make([][]byte, n)
	for i := uint64(0); i < n; i++ {
		end := util.Min((i+1)*sz, uint64(len(data)))
		chunks[i] = data[i*sz : end]
	}
	return chunks, nil
}

// readContent concatenates the file blocks of ip, cut to its size.
func (vol *Volume) readContent(ip *inode.Inode) ([]byte, error) {
	blks := ip.Blocks()
	if ip.Size > uint64(len(blks))*vol.sb.PayloadSize() {
		return nil, fmt.Errorf("inode %d: size %d in %d blocks: %w",
			ip.Inum, ip.Size, len(blks), common.ErrCorruptImage)
	}
	data := make([]byte, 0, ip.Size)
	for _, bnum := range blks {
		payload, err := vol.readPayload(bnum, buf.KindFileContent)
		if err != nil {
			return nil, fmt.Errorf("inode %d: %w", ip.Inum, err)
		}
		data = append(data, payload...)
	}
	return data[:ip.Size], nil
}

// setContent rewrites ip to hold chunks, reusing its existing blocks in
// order, then allocating or freeing the difference. The caller has
// reserved any extra blocks.
func (vol *Volume) setContent(ip *inode.Inode, name string, chunks [][]byte) error {
	old := ip.Blocks()
	blks := make([]common.Bnum, 0, len(chunks))
	var size uint64
	for i, c := range chunks {
		size += uint64(len(c))
		if i < len(old) {
			vol.hdrs[old[i]] = buf.MkHeader(old[i], buf.KindFileContent, name)
			if err := vol.writePayload(old[i], c); err != nil {
				return err
			}
			blks = append(blks, old[i])
			continue
		}
		bnum, err := vol.allocBlock(buf.KindFileContent, name, c)
		if err != nil {
			for _, b := range blks[len(old):] {
				if ferr := vol.freeBlock(b); ferr != nil {
					return errors.Join(err, ferr)
				}
			}
			return err
		}
		blks = append(blks, bnum)
	}
	for i := len(blks); i < len(old); i++ {
		if err := vol.freeBlock(old[i]); err != nil {
			return err
		}
	}
	if err := ip.SetBlocks(blks); err != nil {
		return err
	}
	ip.Size = size
	ip.Mtime = vol.Now().Unix()
	return vol.writeInode(ip.Inum)
}

// create makes a new inode of kind holding data and links it into pset as
// name.
func (vol *Volume) create(parent common.Inum, pset *dir.Set, name string,
	kind inode.Kind, data []byte) (*inode.Inode, error) {
	chunks, err := vol.chunk(data)
	if err != nil {
		return nil, err
	}
	if err := checkInsert(pset, name); err != nil {
		return nil, err
	}
	if err := vol.reserve(1, uint64(len(chunks))); err != nil {
		return nil, err
	}
	ip, err := vol.allocInode(kind)
	if err != nil {
		return nil, err
	}
	ip.Links = 1
	if err := vol.setContent(ip, name, chunks); err != nil {
		if ferr := vol.freeInode(ip); ferr != nil {
			return nil, errors.Join(err, ferr)
		}
		return nil, err
	}
	if err := pset.Insert(name, ip.Inum); err != nil {
		return nil, err
	}
	return ip, vol.writeDir(parent, pset)
}

// WriteFile creates a regular file at path holding data, or replaces the
// content of the file already there. A symlink at path is followed; if its
// target does not exist, the target is created.
func (vol *Volume) WriteFile(path string, data []byte) error {
	parent, pset, name, err := vol.parentOf(path)
	if err != nil {
		if errors.Is(err, common.ErrProtectedEntry) {
			err = common.ErrIsDir
		}
		return fmt.Errorf("write %s: %w", path, err)
	}
	if _, err := pset.Find(name); err != nil {
		if _, err := vol.create(parent, pset, name, inode.KindFile, data); err != nil {
			return fmt.Errorf("write %s: %w", path, err)
		}
		return nil
	}

	inum, err := vol.Resolve(path)
	if errors.Is(err, common.ErrNotFound) {
		// the entry exists, so path is a dangling symlink
		target, lerr := vol.Readlink(path)
		if lerr != nil {
			return err
		}
		return vol.WriteFile(linkTarget(path, target), data)
	}
	if err != nil {
		return err
	}
	ip, err := vol.inodes.Lookup(inum)
	if err != nil {
		return err
	}
	if ip.Kind == inode.KindDir {
		return fmt.Errorf("write %s: %w", path, common.ErrIsDir)
	}
	if ip.Count > 0 {
		name = vol.hdrs[ip.Direct].Name
	}
	chunks, err := vol.chunk(data)
	if err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	if n := uint64(len(chunks)); n > ip.Count {
		if err := vol.reserve(0, n-ip.Count); err != nil {
			return fmt.Errorf("write %s: %w", path, err)
		}
	}
	return vol.setContent(ip, name, chunks)
}

// ReadFile returns the content of the file at path, following symlinks.
func (vol *Volume) ReadFile(path string) ([]byte, error) {
	inum, err := vol.Resolve(path)
	if err != nil {
		return nil, err
	}
	ip, err := vol.inodes.Lookup(inum)
	if err != nil {
		return nil, err
	}
	if ip.Kind == inode.KindDir {
		return nil, fmt.Errorf("read %s: %w", path, common.ErrIsDir)
	}
	return vol.readContent(ip)
}

// Del removes the entry at path. The inode and its blocks are freed once
// no entry names it.
func (vol *Volume) Del(path string) error {
	parent, pset, name, err := vol.parentOf(path)
	if err != nil {
		return fmt.Errorf("del %s: %w", path, err)
	}
	inum, err := pset.Find(name)
	if err != nil {
		return fmt.Errorf("del %s: %w", path, err)
	}
	ip, err := vol.inodes.Lookup(inum)
	if err != nil {
		return err
	}
	if ip.Kind == inode.KindDir {
		return fmt.Errorf("del %s: %w", path, common.ErrIsDir)
	}
	if err := pset.Remove(name); err != nil {
		return err
	}
	if err := vol.writeDir(parent, pset); err != nil {
		return err
	}
	ip.Links--
	if ip.Links == 0 {
		return vol.freeInode(ip)
	}
	return vol.writeInode(inum)
}
