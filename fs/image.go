package fs

import (
	"fmt"

	"github.com/mit-pdos/blockfs/buf"
	"github.com/mit-pdos/blockfs/common"
	"github.com/mit-pdos/blockfs/dir"
	"github.com/mit-pdos/blockfs/util"
)

// writePayload writes block bnum as its current header followed by
// payload, zero filled.
func (vol *Volume) writePayload(bnum common.Bnum, payload []byte) error {
	b := buf.MkBuf(vol.hdrs[bnum], vol.sb.BlockSize)
	b.Install(0, payload)
	if err := vol.d.Write(bnum, b.Data); err != nil {
		return fmt.Errorf("writing %v block %d: %w", vol.hdrs[bnum].Kind, bnum, err)
	}
	return nil
}

func (vol *Volume) writeSuper() error {
	return vol.writePayload(0, vol.sb.Encode())
}

// writeInodeBlock writes inode block i of the table.
func (vol *Volume) writeInodeBlock(i uint64) error {
	payload := vol.inodes.EncodeBlock(i, vol.sb.PayloadSize())
	return vol.writePayload(vol.sb.InodeBlock(i), payload)
}

func (vol *Volume) writeInode(inum common.Inum) error {
	a := vol.inodes.Addr(inum)
	util.DPrintf(10, "writeInode: %d -> blk %d slot %d\n", inum, a.Blkno, a.Slot)
	return vol.writeInodeBlock(a.Blkno)
}

func (vol *Volume) writeBitmap() error {
	return vol.writePayload(vol.sb.BitmapBlock(), vol.bitmap.Bytes())
}

func (vol *Volume) writeDirBlock(bnum common.Bnum, set *dir.Set) error {
	return vol.writePayload(bnum, set.Encode())
}

// readPayload reads block bnum and checks its header against the
// in-memory copy.
func (vol *Volume) readPayload(bnum common.Bnum, kind buf.Kind) ([]byte, error) {
	if !vol.sb.IsData(bnum) {
		return nil, fmt.Errorf("data block %d: %w", bnum, common.ErrOutOfRange)
	}
	blk, err := vol.d.Read(bnum)
	if err != nil {
		return nil, err
	}
	b := buf.MkBufLoad(bnum, blk)
	h, err := b.Header()
	if err != nil {
		return nil, err
	}
	if h.Kind != kind || h.Address != bnum {
		return nil, fmt.Errorf("block %d is %v at %d, want %v: %w",
			bnum, h.Kind, h.Address, kind, common.ErrCorruptImage)
	}
	return b.Payload(), nil
}

// writeImage writes every region in layout order, then a barrier.
func (vol *Volume) writeImage(content map[common.Bnum][]byte) error {
	if err := vol.writeSuper(); err != nil {
		return err
	}
	for i := uint64(0); i < vol.sb.InodeBlocks; i++ {
		if err := vol.writeInodeBlock(i); err != nil {
			return err
		}
	}
	if err := vol.writeBitmap(); err != nil {
		return err
	}
	for bnum := vol.sb.DataStart(); bnum < vol.sb.TotalBlocks; bnum++ {
		if err := vol.writePayload(bnum, content[bnum]); err != nil {
			return err
		}
	}
	return vol.d.Barrier()
}
