package fs

import (
	"fmt"

	"github.com/mit-pdos/blockfs/alloc"
	"github.com/mit-pdos/blockfs/buf"
	"github.com/mit-pdos/blockfs/common"
	"github.com/mit-pdos/blockfs/disk"
	"github.com/mit-pdos/blockfs/super"
	"github.com/mit-pdos/blockfs/util"
)

// decodeSuperBlock parses the start of block 0: header, then superblock.
func decodeSuperBlock(b []byte) (*super.Superblock, buf.Header, error) {
	h, err := buf.DecodeHeader(b)
	if err != nil {
		return nil, h, err
	}
	if h.Kind != buf.KindSuper || h.Address != 0 {
		return nil, h, fmt.Errorf("block 0 is %v at %d: %w",
			h.Kind, h.Address, common.ErrCorruptImage)
	}
	sb, err := super.Decode(b[common.HDRSZ:])
	if err != nil {
		return nil, h, err
	}
	if err := sb.Validate(); err != nil {
		return nil, h, err
	}
	return sb, h, nil
}

// Open loads the image at path. Its block size is read from the
// superblock; nothing about the geometry is assumed beforehand. With lock
// set, Open fails with ErrLocked if another process holds the image.
func Open(path string, lock bool) (*Volume, error) {
	prefix, err := disk.ReadPrefix(path, common.HDRSZ+common.SUPERSZ)
	if err != nil {
		return nil, err
	}
	sb, _, err := decodeSuperBlock(prefix)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	d, err := disk.OpenFileDisk(path, sb.BlockSize)
	if err != nil {
		return nil, err
	}
	if lock {
		if err := d.Lock(); err != nil {
			d.Close()
			return nil, err
		}
	}
	vol, err := Load(d)
	if err != nil {
		d.Close()
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return vol, nil
}

func (vol *Volume) loadHeader(bnum common.Bnum, kind buf.Kind) (*buf.Buf, error) {
	blk, err := vol.d.Read(bnum)
	if err != nil {
		return nil, err
	}
	b := buf.MkBufLoad(bnum, blk)
	h, err := b.Header()
	if err != nil {
		return nil, err
	}
	if h.Kind != kind {
		return nil, fmt.Errorf("block %d is %v, want %v: %w",
			bnum, h.Kind, kind, common.ErrCorruptImage)
	}
	vol.hdrs[bnum] = h
	return b, nil
}

// Load reads every region of the image on d at offsets derived from its
// superblock.
func Load(d disk.Disk) (*Volume, error) {
	sz, err := d.Size()
	if err != nil {
		return nil, err
	}
	if sz == 0 {
		return nil, fmt.Errorf("image shorter than one block: %w", common.ErrTruncatedImage)
	}
	blk, err := d.Read(0)
	if err != nil {
		return nil, fmt.Errorf("reading superblock: %w", err)
	}
	sb, h0, err := decodeSuperBlock(blk)
	if err != nil {
		return nil, err
	}
	if sb.BlockSize != d.BlockSize() {
		return nil, fmt.Errorf("superblock block size %d, disk %d: %w",
			sb.BlockSize, d.BlockSize(), common.ErrCorruptImage)
	}
	if sz < sb.TotalBlocks {
		return nil, fmt.Errorf("image has %d of %d blocks: %w",
			sz, sb.TotalBlocks, common.ErrTruncatedImage)
	}
	util.DPrintf(1, "Load: %d blocks of %d\n", sb.TotalBlocks, sb.BlockSize)

	vol := mkVolume(d, sb)
	vol.hdrs[0] = h0
	for i := uint64(0); i < sb.InodeBlocks; i++ {
		b, err := vol.loadHeader(sb.InodeBlock(i), buf.KindInode)
		if err != nil {
			return nil, err
		}
		if err := vol.inodes.DecodeBlock(i, b.Payload()); err != nil {
			return nil, err
		}
	}
	b, err := vol.loadHeader(sb.BitmapBlock(), buf.KindBitmap)
	if err != nil {
		return nil, err
	}
	vol.bitmap = alloc.MkBitmapLoad(sb.TotalBlocks, b.Payload())
	for bnum := sb.DataStart(); bnum < sb.TotalBlocks; bnum++ {
		blk, err := d.Read(bnum)
		if err != nil {
			return nil, err
		}
		h, err := buf.DecodeHeader(blk)
		if err != nil {
			return nil, fmt.Errorf("block %d: %w", bnum, err)
		}
		vol.hdrs[bnum] = h
	}
	vol.bitmap.Attach(bitmapStore{vol})
	return vol, nil
}
