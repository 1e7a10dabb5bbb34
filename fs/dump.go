package fs

import (
	"time"

	"github.com/mit-pdos/blockfs/buf"
	"github.com/mit-pdos/blockfs/common"
	"github.com/mit-pdos/blockfs/inode"
)

type SuperInfo struct {
	State          uint64      `yaml:"state"`
	TotalBlocks    uint64      `yaml:"total_blocks"`
	FreeBlocks     uint64      `yaml:"free_blocks"`
	FirstBlock     common.Bnum `yaml:"first_block"`
	BlockSize      uint64      `yaml:"block_size"`
	InodesPerBlock uint64      `yaml:"inodes_per_block"`
	InodeBlocks    uint64      `yaml:"inode_blocks"`
	FreeInodes     uint64      `yaml:"free_inodes"`
	FirstInode     common.Inum `yaml:"first_inode"`
	InodeSize      uint64      `yaml:"inode_size"`
	SuperSize      uint64      `yaml:"superblock_size"`
	UUID           string      `yaml:"uuid"`
}

type InodeInfo struct {
	Inum   common.Inum   `yaml:"id"`
	Kind   inode.Kind    `yaml:"kind"`
	Name   string        `yaml:"name"`
	Direct common.Bnum   `yaml:"direct_block"`
	Count  uint64        `yaml:"blocks"`
	Size   uint64        `yaml:"size"`
	Links  uint64        `yaml:"links"`
	Mtime  time.Time     `yaml:"mtime"`
	Blocks []common.Bnum `yaml:"block_list,flow"`
}

// Dump is a snapshot of the volume's metadata.
type Dump struct {
	Super  SuperInfo    `yaml:"superblock"`
	Bitmap string       `yaml:"bitmap"`
	Inodes []InodeInfo  `yaml:"inodes"`
	Blocks []buf.Header `yaml:"blocks"`
}

func (vol *Volume) Dump() *Dump {
	sb := vol.sb
	d := &Dump{
		Super: SuperInfo{
			State:          sb.State,
			TotalBlocks:    sb.TotalBlocks,
			FreeBlocks:     sb.FreeBlocks,
			FirstBlock:     sb.FirstBlock,
			BlockSize:      sb.BlockSize,
			InodesPerBlock: sb.InodesPerBlock,
			InodeBlocks:    sb.InodeBlocks,
			FreeInodes:     sb.FreeInodes,
			FirstInode:     sb.FirstInode,
			InodeSize:      sb.InodeSize,
			SuperSize:      sb.SuperSize,
			UUID:           sb.UUID.String(),
		},
		Blocks: vol.Headers(),
	}
	bits := make([]byte, sb.TotalBlocks)
	for i := range bits {
		bits[i] = '0'
		if occ, _ := vol.bitmap.IsOccupied(uint64(i)); occ {
			bits[i] = '1'
		}
	}
	d.Bitmap = string(bits)
	for _, ip := range vol.inodes.Allocated() {
		info := InodeInfo{
			Inum:   ip.Inum,
			Kind:   ip.Kind,
			Direct: ip.Direct,
			Count:  ip.Count,
			Size:   ip.Size,
			Links:  ip.Links,
			Mtime:  ip.ModTime(),
			Blocks: ip.Blocks(),
		}
		if ip.Direct < uint64(len(vol.hdrs)) {
			info.Name = vol.hdrs[ip.Direct].Name
		}
		d.Inodes = append(d.Inodes, info)
	}
	return d
}
