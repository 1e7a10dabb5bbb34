package addr

import (
	"github.com/mit-pdos/blockfs/common"
)

// Addr identifies an inode record by its position in the inode table.
//
// Blkno is the index of the inode block within the table (not the physical
// block number; the table starts right after the superblock), and Slot is
// the record's position within that block.
type Addr struct {
	Blkno uint64
	Slot  uint64
}

func (a Addr) Flatid(ipb uint64) common.Inum {
	return common.Inum(a.Blkno*ipb + a.Slot)
}

func MkAddr(blkno uint64, slot uint64) Addr {
	return Addr{Blkno: blkno, Slot: slot}
}

// MkInodeAddr maps a flat inode id to its table position. Format, open and
// lookup all go through here.
func MkInodeAddr(inum common.Inum, ipb uint64) Addr {
	return MkAddr(uint64(inum)/ipb, uint64(inum)%ipb)
}
