package inode

import (
	"fmt"
	"time"

	"github.com/tchajed/marshal"

	"github.com/mit-pdos/blockfs/common"
)

type Kind uint8

const (
	KindFree Kind = iota
	KindDir
	KindFile
	KindSymlink
)

// On-disk kind words. Free is stored as -1.
const (
	diskDir     uint64 = 0
	diskFile    uint64 = 1
	diskSymlink uint64 = 2
	diskFree    uint64 = ^uint64(0)
)

func (k Kind) String() string {
	switch k {
	case KindFree:
		return "free"
	case KindDir:
		return "dir"
	case KindFile:
		return "file"
	case KindSymlink:
		return "symlink"
	}
	return "unknown"
}

func (k Kind) MarshalYAML() (interface{}, error) {
	return k.String(), nil
}

func (k Kind) encode() uint64 {
	switch k {
	case KindDir:
		return diskDir
	case KindFile:
		return diskFile
	case KindSymlink:
		return diskSymlink
	}
	return diskFree
}

func decodeKind(w uint64) (Kind, bool) {
	switch w {
	case diskDir:
		return KindDir, true
	case diskFile:
		return KindFile, true
	case diskSymlink:
		return KindSymlink, true
	case diskFree:
		return KindFree, true
	}
	return KindFree, false
}

type Inode struct {
	Inum     common.Inum
	Direct   common.Bnum
	Count    uint64
	Indirect [common.NINDIRECT]common.Bnum
	Kind     Kind
	Size     uint64
	Mtime    int64
	Links    uint64
}

func mkFree(inum common.Inum) Inode {
	ip := Inode{Inum: inum, Direct: common.NULLBNUM, Kind: KindFree}
	for i := range ip.Indirect {
		ip.Indirect[i] = common.NULLBNUM
	}
	return ip
}

func (ip *Inode) IsFree() bool {
	return ip.Kind == KindFree
}

func (ip *Inode) ModTime() time.Time {
	return time.Unix(ip.Mtime, 0)
}

// Blocks lists the data blocks the inode owns: the direct block, then
// the first Count-1 indirect pointers.
func (ip *Inode) Blocks() []common.Bnum {
	if ip.Count == 0 {
		return nil
	}
	n := ip.Count
	if n > common.NBLKMAX {
		n = common.NBLKMAX
	}
	blks := make([]common.Bnum, 0, n)
	blks = append(blks, ip.Direct)
	blks = append(blks, ip.Indirect[:n-1]...)
	return blks
}

// SetBlocks points the inode at blks and clears the unused pointers.
func (ip *Inode) SetBlocks(blks []common.Bnum) error {
	if uint64(len(blks)) > common.NBLKMAX {
		return fmt.Errorf("inode %d: %d blocks: %w", ip.Inum, len(blks), common.ErrFileTooLarge)
	}
	ip.Direct = common.NULLBNUM
	for i := range ip.Indirect {
		ip.Indirect[i] = common.NULLBNUM
	}
	ip.Count = uint64(len(blks))
	if len(blks) == 0 {
		return nil
	}
	ip.Direct = blks[0]
	copy(ip.Indirect[:], blks[1:])
	return nil
}

func (ip *Inode) Encode() []byte {
	enc := marshal.NewEnc(common.INODESZ)
	enc.PutInt(uint64(ip.Inum))
	enc.PutInt(ip.Direct)
	enc.PutInt(ip.Count)
	for _, b := range ip.Indirect {
		enc.PutInt(b)
	}
	enc.PutInt(ip.Kind.encode())
	enc.PutInt(ip.Size)
	enc.PutInt(uint64(ip.Mtime))
	enc.PutInt(ip.Links)
	return enc.Finish()
}

func Decode(b []byte) (Inode, error) {
	if uint64(len(b)) < common.INODESZ {
		return Inode{}, fmt.Errorf("decoding inode: have %d bytes: %w",
			len(b), common.ErrTruncatedImage)
	}
	dec := marshal.NewDec(b[:common.INODESZ])
	var ip Inode
	ip.Inum = common.Inum(dec.GetInt())
	ip.Direct = dec.GetInt()
	ip.Count = dec.GetInt()
	for i := range ip.Indirect {
		ip.Indirect[i] = dec.GetInt()
	}
	w := dec.GetInt()
	kind, ok := decodeKind(w)
	if !ok {
		return ip, fmt.Errorf("inode %d: kind word %d: %w", ip.Inum, int64(w), common.ErrCorruptImage)
	}
	ip.Kind = kind
	ip.Size = dec.GetInt()
	ip.Mtime = int64(dec.GetInt())
	ip.Links = dec.GetInt()
	if !ip.IsFree() && ip.Count > common.NBLKMAX {
		return ip, fmt.Errorf("inode %d: block count %d: %w", ip.Inum, ip.Count, common.ErrCorruptImage)
	}
	return ip, nil
}
