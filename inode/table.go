package inode

import (
	"fmt"
	"time"

	"github.com/mit-pdos/blockfs/addr"
	"github.com/mit-pdos/blockfs/common"
	"github.com/mit-pdos/blockfs/util"
)

// Table is the inode table: nblk inode blocks of ipb records each,
// addressed by flat id.
type Table struct {
	ipb    uint64
	nblk   uint64
	inodes []Inode
}

// MkTable makes a table with every slot free.
func MkTable(ipb uint64, nblk uint64) *Table {
	t := &Table{
		ipb:    ipb,
		nblk:   nblk,
		inodes: make([]Inode, ipb*nblk),
	}
	for i := range t.inodes {
		t.inodes[i] = mkFree(common.Inum(i))
	}
	return t
}

func (t *Table) NumInodes() uint64 {
	return uint64(len(t.inodes))
}

func (t *Table) Addr(inum common.Inum) addr.Addr {
	return addr.MkInodeAddr(inum, t.ipb)
}

// Get returns the slot for inum whatever its kind.
func (t *Table) Get(inum common.Inum) (*Inode, error) {
	if uint64(inum) >= t.NumInodes() {
		return nil, fmt.Errorf("inode %d of %d: %w", inum, t.NumInodes(), common.ErrOutOfRange)
	}
	return &t.inodes[inum], nil
}

func (t *Table) Lookup(inum common.Inum) (*Inode, error) {
	ip, err := t.Get(inum)
	if err != nil {
		return nil, err
	}
	if ip.IsFree() {
		return nil, fmt.Errorf("inode %d: %w", inum, common.ErrNotFound)
	}
	return ip, nil
}

// FindFree returns the first free slot in block-major, slot-minor order.
func (t *Table) FindFree() (common.Inum, error) {
	for blk := uint64(0); blk < t.nblk; blk++ {
		for slot := uint64(0); slot < t.ipb; slot++ {
			inum := addr.MkAddr(blk, slot).Flatid(t.ipb)
			if t.inodes[inum].IsFree() {
				return inum, nil
			}
		}
	}
	return common.NULLINUM, common.ErrNoFreeInodes
}

func (t *Table) Allocate(kind Kind, now time.Time) (common.Inum, error) {
	if kind == KindFree {
		panic("Allocate: free kind")
	}
	inum, err := t.FindFree()
	if err != nil {
		return inum, err
	}
	ip := mkFree(inum)
	ip.Kind = kind
	ip.Mtime = now.Unix()
	t.inodes[inum] = ip
	util.DPrintf(5, "Allocate: inode %d %v\n", inum, kind)
	return inum, nil
}

// Free releases the slot. Reclaiming the data blocks is up to the caller.
func (t *Table) Free(inum common.Inum) error {
	ip, err := t.Lookup(inum)
	if err != nil {
		return err
	}
	ip.Kind = KindFree
	ip.Direct = common.NULLBNUM
	util.DPrintf(5, "Free: inode %d\n", inum)
	return nil
}

func (t *Table) NumAllocated() uint64 {
	var n uint64
	for i := range t.inodes {
		if !t.inodes[i].IsFree() {
			n++
		}
	}
	return n
}

// Allocated returns the occupied inodes in id order.
func (t *Table) Allocated() []*Inode {
	var ips []*Inode
	for i := range t.inodes {
		if !t.inodes[i].IsFree() {
			ips = append(ips, &t.inodes[i])
		}
	}
	return ips
}

// EncodeBlock packs the records of inode block blk into a payload of
// size sz.
func (t *Table) EncodeBlock(blk uint64, sz uint64) []byte {
	b := make([]byte, sz)
	for slot := uint64(0); slot < t.ipb; slot++ {
		inum := addr.MkAddr(blk, slot).Flatid(t.ipb)
		copy(b[slot*common.INODESZ:], t.inodes[inum].Encode())
	}
	return b
}

// DecodeBlock loads the records of inode block blk from its payload.
func (t *Table) DecodeBlock(blk uint64, payload []byte) error {
	for slot := uint64(0); slot < t.ipb; slot++ {
		a := addr.MkAddr(blk, slot)
		ip, err := Decode(payload[slot*common.INODESZ:])
		if err != nil {
			return fmt.Errorf("inode block %d slot %d: %w", blk, slot, err)
		}
		if ip.Inum != a.Flatid(t.ipb) {
			return fmt.Errorf("inode block %d slot %d holds id %d: %w",
				blk, slot, ip.Inum, common.ErrCorruptImage)
		}
		t.inodes[ip.Inum] = ip
	}
	return nil
}
