// Package super holds the superblock record and the layout arithmetic that
// sizes every region of an image from it.
package super

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/tchajed/marshal"

	"github.com/mit-pdos/blockfs/common"
	"github.com/mit-pdos/blockfs/util"
)

const (
	MINBSKB     uint64 = 1
	MAXBSKB     uint64 = 100
	MININODES   uint64 = 1
	MAXINODES   uint64 = 4000
	STATE_CLEAN uint64 = 0
)

type Params struct {
	BlockSizeKB uint64
	FreeInodes  uint64
	// ImageSize in bytes; zero means common.ONEMB.
	ImageSize uint64
}

type Superblock struct {
	State          uint64
	TotalBlocks    uint64
	FreeBlocks     uint64
	FirstBlock     common.Bnum
	BlockSize      uint64
	InodesPerBlock uint64
	InodeBlocks    uint64
	FreeInodes     uint64
	FirstInode     common.Inum
	InodeSize      uint64
	SuperSize      uint64
	UUID           uuid.UUID
}

func invalid(format string, a ...interface{}) error {
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, a...), common.ErrInvalidConfig)
}

// Compute derives the geometry of a fresh image. It does no I/O, so a bad
// configuration is rejected before anything is written.
func Compute(p Params) (*Superblock, error) {
	if p.ImageSize == 0 {
		p.ImageSize = common.ONEMB
	}
	if p.BlockSizeKB < MINBSKB || p.BlockSizeKB > MAXBSKB {
		return nil, invalid("block size %dKB not in [%d,%d]", p.BlockSizeKB, MINBSKB, MAXBSKB)
	}
	if p.FreeInodes < MININODES || p.FreeInodes > MAXINODES {
		return nil, invalid("inode count %d not in [%d,%d]", p.FreeInodes, MININODES, MAXINODES)
	}
	bs := p.BlockSizeKB * common.KB
	payload := bs - common.HDRSZ
	if payload <= p.FreeInodes {
		return nil, invalid("block payload %d cannot cover %d inodes", payload, p.FreeInodes)
	}
	ipb := payload / common.INODESZ
	if ipb == 0 {
		return nil, invalid("block size %d holds no inode records", bs)
	}
	if common.DIRSZ > payload {
		return nil, invalid("block payload %d smaller than a directory", payload)
	}
	nblk := util.RoundUp(p.FreeInodes, ipb)
	total := p.ImageSize / bs
	if total < nblk+3 {
		return nil, invalid("%d blocks cannot hold %d inode blocks, super, bitmap and root",
			total, nblk)
	}
	if payload*8 < total {
		return nil, invalid("bitmap of %d bits cannot address %d blocks", payload*8, total)
	}
	sb := &Superblock{
		State:          STATE_CLEAN,
		TotalBlocks:    total,
		FreeBlocks:     total - nblk - 2,
		FirstBlock:     nblk + 2,
		BlockSize:      bs,
		InodesPerBlock: ipb,
		InodeBlocks:    nblk,
		FreeInodes:     p.FreeInodes,
		FirstInode:     common.ROOTINUM,
		InodeSize:      common.INODESZ,
		SuperSize:      common.SUPERSZ,
		UUID:           uuid.New(),
	}
	util.DPrintf(1, "Compute: bs %d ipb %d inode blocks %d total %d\n",
		bs, ipb, nblk, total)
	return sb, nil
}

func (sb *Superblock) InodeBlock(i uint64) common.Bnum {
	return 1 + i
}

func (sb *Superblock) BitmapBlock() common.Bnum {
	return 1 + sb.InodeBlocks
}

func (sb *Superblock) DataStart() common.Bnum {
	return sb.BitmapBlock() + 1
}

// Offset is the byte position of block bnum in the image.
func (sb *Superblock) Offset(bnum common.Bnum) uint64 {
	return bnum * sb.BlockSize
}

func (sb *Superblock) PayloadSize() uint64 {
	return sb.BlockSize - common.HDRSZ
}

func (sb *Superblock) NumInodes() uint64 {
	return sb.InodesPerBlock * sb.InodeBlocks
}

func (sb *Superblock) UsedBlocks() uint64 {
	return sb.TotalBlocks - sb.FreeBlocks
}

// IsData reports whether bnum lies in the data region.
func (sb *Superblock) IsData(bnum common.Bnum) bool {
	return bnum >= sb.DataStart() && bnum < sb.TotalBlocks
}

func (sb *Superblock) Encode() []byte {
	enc := marshal.NewEnc(common.SUPERSZ)
	enc.PutInt(sb.State)
	enc.PutInt(sb.TotalBlocks)
	enc.PutInt(sb.FreeBlocks)
	enc.PutInt(sb.FirstBlock)
	enc.PutInt(sb.BlockSize)
	enc.PutInt(sb.InodesPerBlock)
	enc.PutInt(sb.InodeBlocks)
	enc.PutInt(sb.FreeInodes)
	enc.PutInt(uint64(sb.FirstInode))
	enc.PutInt(sb.InodeSize)
	enc.PutInt(sb.SuperSize)
	b := enc.Finish()
	copy(b[11*common.WORDSZ:], sb.UUID[:])
	return b
}

func Decode(b []byte) (*Superblock, error) {
	if uint64(len(b)) < common.SUPERSZ {
		return nil, fmt.Errorf("decoding superblock: have %d bytes, need %d: %w",
			len(b), common.SUPERSZ, common.ErrTruncatedImage)
	}
	dec := marshal.NewDec(b[:common.SUPERSZ])
	sb := &Superblock{}
	sb.State = dec.GetInt()
	sb.TotalBlocks = dec.GetInt()
	sb.FreeBlocks = dec.GetInt()
	sb.FirstBlock = dec.GetInt()
	sb.BlockSize = dec.GetInt()
	sb.InodesPerBlock = dec.GetInt()
	sb.InodeBlocks = dec.GetInt()
	sb.FreeInodes = dec.GetInt()
	sb.FirstInode = common.Inum(dec.GetInt())
	sb.InodeSize = dec.GetInt()
	sb.SuperSize = dec.GetInt()
	copy(sb.UUID[:], b[11*common.WORDSZ:common.SUPERSZ])
	return sb, nil
}

func corrupt(format string, a ...interface{}) error {
	return fmt.Errorf("superblock: %s: %w", fmt.Sprintf(format, a...), common.ErrCorruptImage)
}

// Validate checks that a decoded superblock describes a layout this code
// could have produced.
func (sb *Superblock) Validate() error {
	if sb.InodeSize != common.INODESZ || sb.SuperSize != common.SUPERSZ {
		return corrupt("record sizes %d/%d, want %d/%d",
			sb.InodeSize, sb.SuperSize, common.INODESZ, common.SUPERSZ)
	}
	if sb.BlockSize < MINBSKB*common.KB || sb.BlockSize > MAXBSKB*common.KB {
		return corrupt("block size %d", sb.BlockSize)
	}
	if sb.InodesPerBlock != sb.PayloadSize()/common.INODESZ {
		return corrupt("%d inodes per block with block size %d",
			sb.InodesPerBlock, sb.BlockSize)
	}
	if sb.InodeBlocks == 0 || sb.TotalBlocks < sb.InodeBlocks+3 {
		return corrupt("%d inode blocks in %d blocks", sb.InodeBlocks, sb.TotalBlocks)
	}
	if sb.FirstBlock != sb.DataStart() {
		return corrupt("first block %d, want %d", sb.FirstBlock, sb.DataStart())
	}
	if sb.FreeBlocks > sb.TotalBlocks || sb.FreeInodes > sb.NumInodes() {
		return corrupt("free counts %d/%d beyond %d/%d",
			sb.FreeBlocks, sb.FreeInodes, sb.TotalBlocks, sb.NumInodes())
	}
	if sb.PayloadSize()*8 < sb.TotalBlocks {
		return corrupt("bitmap cannot address %d blocks", sb.TotalBlocks)
	}
	return nil
}
