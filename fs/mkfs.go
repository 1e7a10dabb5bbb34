package fs

import (
	"fmt"

	"github.com/mit-pdos/blockfs/alloc"
	"github.com/mit-pdos/blockfs/buf"
	"github.com/mit-pdos/blockfs/common"
	"github.com/mit-pdos/blockfs/dir"
	"github.com/mit-pdos/blockfs/disk"
	"github.com/mit-pdos/blockfs/inode"
	"github.com/mit-pdos/blockfs/super"
	"github.com/mit-pdos/blockfs/util"
)

func freeName(bnum common.Bnum) string {
	return fmt.Sprintf("free_%d", bnum)
}

// Format sizes a volume from p and writes a fresh image at path.
func Format(path string, p super.Params) (*Volume, error) {
	sb, err := super.Compute(p)
	if err != nil {
		return nil, err
	}
	d, err := disk.CreateFileDisk(path, sb.BlockSize, sb.TotalBlocks)
	if err != nil {
		return nil, err
	}
	vol, err := Mkfs(d, sb)
	if err != nil {
		d.Close()
		return nil, err
	}
	return vol, nil
}

// Mkfs lays out sb on d: metadata blocks marked in the bitmap, every inode
// free except the root directory, which takes inode 0 and the first data
// block.
func Mkfs(d disk.Disk, sb *super.Superblock) (*Volume, error) {
	if d.BlockSize() != sb.BlockSize {
		return nil, fmt.Errorf("disk block size %d, superblock %d: %w",
			d.BlockSize(), sb.BlockSize, common.ErrInvalidConfig)
	}
	sz, err := d.Size()
	if err != nil {
		return nil, err
	}
	if sz < sb.TotalBlocks {
		return nil, fmt.Errorf("disk has %d blocks, need %d: %w",
			sz, sb.TotalBlocks, common.ErrInvalidConfig)
	}
	util.DPrintf(1, "Mkfs: %d blocks of %d, %d inode blocks\n",
		sb.TotalBlocks, sb.BlockSize, sb.InodeBlocks)

	vol := mkVolume(d, sb)
	vol.bitmap = alloc.MkBitmap(sb.TotalBlocks, sb.PayloadSize())

	vol.hdrs[0] = buf.MkHeader(0, buf.KindSuper, "sb_0")
	for i := uint64(0); i < sb.InodeBlocks; i++ {
		bnum := sb.InodeBlock(i)
		vol.hdrs[bnum] = buf.MkHeader(bnum, buf.KindInode, fmt.Sprintf("t_%d", bnum))
	}
	vol.hdrs[sb.BitmapBlock()] = buf.MkHeader(sb.BitmapBlock(), buf.KindBitmap, "bmap")
	for bnum := uint64(0); bnum < sb.DataStart(); bnum++ {
		if err := vol.bitmap.Mark(bnum, true); err != nil {
			return nil, err
		}
	}
	for bnum := sb.DataStart(); bnum < sb.TotalBlocks; bnum++ {
		vol.hdrs[bnum] = buf.MkHeader(bnum, buf.KindFree, freeName(bnum))
	}

	root, err := vol.inodes.Allocate(inode.KindDir, vol.Now())
	if err != nil {
		return nil, err
	}
	if root != common.ROOTINUM {
		panic("Mkfs: root is not the first inode")
	}
	rootblk, err := vol.bitmap.AllocNum(sb.DataStart())
	if err != nil {
		return nil, err
	}
	vol.hdrs[rootblk] = buf.MkHeader(rootblk, buf.KindDirContent, "root")
	ip, err := vol.inodes.Lookup(root)
	if err != nil {
		return nil, err
	}
	if err := ip.SetBlocks([]common.Bnum{rootblk}); err != nil {
		return nil, err
	}
	ip.Size = common.DIRSZ
	ip.Links = 1
	// Compute counts the root block as free; it is in use from here on,
	// so free_blocks matches the bitmap.
	sb.FreeBlocks--
	sb.FreeInodes--

	content := map[common.Bnum][]byte{
		rootblk: dir.Init(root, root).Encode(),
	}
	if err := vol.writeImage(content); err != nil {
		return nil, err
	}
	vol.bitmap.Attach(bitmapStore{vol})
	return vol, nil
}
