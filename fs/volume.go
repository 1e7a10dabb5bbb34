// Package fs is the open-volume handle: it formats, loads and persists
// images, and implements path operations on top of the inode table and
// directory sets.
package fs

import (
	"fmt"
	"time"

	"github.com/mit-pdos/blockfs/alloc"
	"github.com/mit-pdos/blockfs/buf"
	"github.com/mit-pdos/blockfs/common"
	"github.com/mit-pdos/blockfs/disk"
	"github.com/mit-pdos/blockfs/inode"
	"github.com/mit-pdos/blockfs/super"
)

// Volume owns the in-memory superblock, bitmap, inode table and block
// headers of one image. Every mutation is written through to the disk
// before the operation returns.
type Volume struct {
	d      disk.Disk
	sb     *super.Superblock
	bitmap *alloc.Bitmap
	inodes *inode.Table
	hdrs   []buf.Header
	Now    func() time.Time
}

func mkVolume(d disk.Disk, sb *super.Superblock) *Volume {
	return &Volume{
		d:      d,
		sb:     sb,
		inodes: inode.MkTable(sb.InodesPerBlock, sb.InodeBlocks),
		hdrs:   make([]buf.Header, sb.TotalBlocks),
		Now:    time.Now,
	}
}

// bitmapStore writes the bitmap block through on every mark.
type bitmapStore struct {
	vol *Volume
}

func (s bitmapStore) PutBitmap(b []byte) error {
	return s.vol.writePayload(s.vol.sb.BitmapBlock(), b)
}

func (vol *Volume) Super() *super.Superblock {
	return vol.sb
}

func (vol *Volume) Bitmap() *alloc.Bitmap {
	return vol.bitmap
}

func (vol *Volume) Inodes() *inode.Table {
	return vol.inodes
}

func (vol *Volume) Header(bnum common.Bnum) (buf.Header, error) {
	if bnum >= uint64(len(vol.hdrs)) {
		return buf.Header{}, fmt.Errorf("block %d of %d: %w",
			bnum, len(vol.hdrs), common.ErrOutOfRange)
	}
	return vol.hdrs[bnum], nil
}

// Headers returns a copy of every block header, in address order.
func (vol *Volume) Headers() []buf.Header {
	hdrs := make([]buf.Header, len(vol.hdrs))
	copy(hdrs, vol.hdrs)
	return hdrs
}

// Close releases the in-memory state and the disk together.
func (vol *Volume) Close() error {
	err := vol.d.Close()
	vol.sb = nil
	vol.bitmap = nil
	vol.inodes = nil
	vol.hdrs = nil
	return err
}
