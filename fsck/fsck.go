// Package fsck cross-checks block headers, the bitmap and the inode table
// of an open volume. It reports divergences and never repairs them.
package fsck

import (
	"fmt"
	"strings"

	"github.com/mit-pdos/blockfs/buf"
	"github.com/mit-pdos/blockfs/common"
	"github.com/mit-pdos/blockfs/dir"
	"github.com/mit-pdos/blockfs/fs"
	"github.com/mit-pdos/blockfs/inode"
	"github.com/mit-pdos/blockfs/util"
)

type Report struct {
	// InUse[i] is set when block i's header kind is not Free; Free is its
	// complement.
	InUse    []bool
	Free     []bool
	Problems []string
}

func (r *Report) problem(format string, a ...interface{}) {
	msg := fmt.Sprintf(format, a...)
	util.DPrintf(1, "fsck: %s\n", msg)
	r.Problems = append(r.Problems, msg)
}

func (r *Report) Clean() bool {
	return len(r.Problems) == 0
}

func count(bs []bool) uint64 {
	var n uint64
	for _, b := range bs {
		if b {
			n++
		}
	}
	return n
}

func (r *Report) NumInUse() uint64 {
	return count(r.InUse)
}

func (r *Report) NumFree() uint64 {
	return count(r.Free)
}

func bits(bs []bool) string {
	var sb strings.Builder
	for _, b := range bs {
		if b {
			sb.WriteByte('1')
		} else {
			sb.WriteByte('0')
		}
	}
	return sb.String()
}

func (r *Report) InUseBits() string {
	return bits(r.InUse)
}

func (r *Report) FreeBits() string {
	return bits(r.Free)
}

type checker struct {
	vol   *fs.Volume
	hdrs  []buf.Header
	owner map[common.Bnum]common.Inum
	r     *Report
}

func Check(vol *fs.Volume) *Report {
	c := &checker{
		vol:   vol,
		hdrs:  vol.Headers(),
		owner: make(map[common.Bnum]common.Inum),
		r:     &Report{},
	}
	c.checkBlocks()
	c.checkInodes()
	c.checkOrphans()
	c.checkTree()
	return c.r
}

func (c *checker) checkBlocks() {
	sb := c.vol.Super()
	n := uint64(len(c.hdrs))
	c.r.InUse = make([]bool, n)
	c.r.Free = make([]bool, n)
	for i, h := range c.hdrs {
		bnum := uint64(i)
		used := h.Kind != buf.KindFree
		c.r.InUse[i] = used
		c.r.Free[i] = !used
		if h.Address != bnum {
			c.r.problem("block %d: header address %d", bnum, h.Address)
		}
		occ, err := c.vol.Bitmap().IsOccupied(bnum)
		if err != nil {
			c.r.problem("block %d: %v", bnum, err)
		} else if occ != used {
			c.r.problem("block %d: bitmap %v, header %v", bnum, occ, h.Kind)
		}
		if sb.IsData(bnum) {
			switch h.Kind {
			case buf.KindFree, buf.KindFileContent, buf.KindDirContent:
			default:
				c.r.problem("block %d: %v in data region", bnum, h.Kind)
			}
		}
	}
	if used := c.r.NumInUse(); used != sb.UsedBlocks() {
		c.r.problem("%d blocks in use, superblock says %d", used, sb.UsedBlocks())
	}
}

func wantKind(k inode.Kind) buf.Kind {
	if k == inode.KindDir {
		return buf.KindDirContent
	}
	return buf.KindFileContent
}

func (c *checker) checkInodes() {
	sb := c.vol.Super()
	for _, ip := range c.vol.Inodes().Allocated() {
		blks := ip.Blocks()
		if ip.Size > uint64(len(blks))*sb.PayloadSize() {
			c.r.problem("inode %d: size %d does not fit %d blocks", ip.Inum, ip.Size, len(blks))
		}
		if ip.Kind == inode.KindDir && len(blks) != 1 {
			c.r.problem("inode %d: directory with %d blocks", ip.Inum, len(blks))
		}
		for _, bnum := range blks {
			if !sb.IsData(bnum) {
				c.r.problem("inode %d: block %d outside the data region", ip.Inum, bnum)
				continue
			}
			h := c.hdrs[bnum]
			if h.Kind == buf.KindFree {
				c.r.problem("inode %d: block %d is free", ip.Inum, bnum)
			} else if h.Kind != wantKind(ip.Kind) {
				c.r.problem("inode %d: block %d is %v", ip.Inum, bnum, h.Kind)
			}
			if other, ok := c.owner[bnum]; ok {
				c.r.problem("inode %d: block %d already owned by inode %d", ip.Inum, bnum, other)
				continue
			}
			c.owner[bnum] = ip.Inum
		}
	}
	free := c.vol.Inodes().NumInodes() - c.vol.Inodes().NumAllocated()
	if sb.FreeInodes > free {
		c.r.problem("superblock says %d free inodes, table has %d", sb.FreeInodes, free)
	}
}

func (c *checker) checkOrphans() {
	sb := c.vol.Super()
	for bnum := sb.DataStart(); bnum < sb.TotalBlocks; bnum++ {
		k := c.hdrs[bnum].Kind
		if k != buf.KindFileContent && k != buf.KindDirContent {
			continue
		}
		if _, ok := c.owner[bnum]; !ok {
			c.r.problem("block %d: %v owned by no inode", bnum, k)
		}
	}
}

// checkTree walks the directory tree from the root, counting the entries
// that name each inode.
func (c *checker) checkTree() {
	tbl := c.vol.Inodes()
	refs := make(map[common.Inum]uint64)
	visited := map[common.Inum]bool{common.ROOTINUM: true}
	// the root counts as linked once
	refs[common.ROOTINUM] = 1
	queue := []common.Inum{common.ROOTINUM}
	for len(queue) > 0 {
		inum := queue[0]
		queue = queue[1:]
		set, err := c.vol.ReadDir(inum)
		if err != nil {
			c.r.problem("directory %d unreadable: %v", inum, err)
			continue
		}
		if self := set.Self(); self != inum {
			c.r.problem("directory %d: %q names %d", inum, dir.DOT, self)
		}
		for _, e := range set.Children() {
			ip, err := tbl.Lookup(e.Inum)
			if err != nil {
				c.r.problem("directory %d: entry %q: %v", inum, e.Name, err)
				continue
			}
			refs[e.Inum]++
			if ip.Kind == inode.KindDir && !visited[e.Inum] {
				visited[e.Inum] = true
				queue = append(queue, e.Inum)
			}
		}
	}
	for _, ip := range tbl.Allocated() {
		n, ok := refs[ip.Inum]
		if !ok {
			c.r.problem("inode %d: not reachable from the root", ip.Inum)
			continue
		}
		if n != ip.Links {
			c.r.problem("inode %d: links %d, found %d entries", ip.Inum, ip.Links, n)
		}
	}
}
