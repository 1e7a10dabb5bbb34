package fs

import (
	"errors"
	"fmt"

	"github.com/mit-pdos/blockfs/buf"
	"github.com/mit-pdos/blockfs/common"
	"github.com/mit-pdos/blockfs/inode"
	"github.com/mit-pdos/blockfs/util"
)

func (vol *Volume) numFreeInodes() uint64 {
	free := vol.inodes.NumInodes() - vol.inodes.NumAllocated()
	return util.Min(free, vol.sb.FreeInodes)
}

// reserve checks that ninode inodes and nblk data blocks are available,
// so that an operation fails before it allocates anything.
func (vol *Volume) reserve(ninode uint64, nblk uint64) error {
	if vol.numFreeInodes() < ninode {
		return fmt.Errorf("need %d inodes: %w", ninode, common.ErrNoFreeInodes)
	}
	if vol.bitmap.NumFree() < nblk || vol.sb.FreeBlocks < nblk {
		return fmt.Errorf("need %d blocks, %d free: %w",
			nblk, vol.bitmap.NumFree(), common.ErrNoFreeBlocks)
	}
	return nil
}

// allocBlock takes the first free data block, names it and writes its
// content.
func (vol *Volume) allocBlock(kind buf.Kind, name string, payload []byte) (common.Bnum, error) {
	bnum, err := vol.bitmap.AllocNum(vol.sb.DataStart())
	if err != nil {
		return 0, err
	}
	vol.hdrs[bnum] = buf.MkHeader(bnum, kind, name)
	if err := vol.writePayload(bnum, payload); err != nil {
		// the block on disk still carries its free header
		vol.hdrs[bnum] = buf.MkHeader(bnum, buf.KindFree, freeName(bnum))
		if ferr := vol.bitmap.FreeNum(bnum); ferr != nil {
			return 0, errors.Join(err, ferr)
		}
		return 0, err
	}
	vol.sb.FreeBlocks--
	util.DPrintf(5, "allocBlock: %d %v %s\n", bnum, kind, name)
	return bnum, vol.writeSuper()
}

func (vol *Volume) freeBlock(bnum common.Bnum) error {
	vol.hdrs[bnum] = buf.MkHeader(bnum, buf.KindFree, freeName(bnum))
	if err := vol.writePayload(bnum, nil); err != nil {
		return err
	}
	if err := vol.bitmap.FreeNum(bnum); err != nil {
		return err
	}
	vol.sb.FreeBlocks++
	util.DPrintf(5, "freeBlock: %d\n", bnum)
	return vol.writeSuper()
}

func (vol *Volume) allocInode(kind inode.Kind) (*inode.Inode, error) {
	if vol.sb.FreeInodes == 0 {
		return nil, common.ErrNoFreeInodes
	}
	inum, err := vol.inodes.Allocate(kind, vol.Now())
	if err != nil {
		return nil, err
	}
	vol.sb.FreeInodes--
	if err := vol.writeSuper(); err != nil {
		return nil, err
	}
	return vol.inodes.Lookup(inum)
}

// freeInode releases ip and its data blocks.
func (vol *Volume) freeInode(ip *inode.Inode) error {
	for _, bnum := range ip.Blocks() {
		if err := vol.freeBlock(bnum); err != nil {
			return err
		}
	}
	inum := ip.Inum
	if err := vol.inodes.Free(inum); err != nil {
		return err
	}
	vol.sb.FreeInodes++
	if err := vol.writeInode(inum); err != nil {
		return err
	}
	return vol.writeSuper()
}
