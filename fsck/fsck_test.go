package fsck

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mit-pdos/blockfs/disk"
	"github.com/mit-pdos/blockfs/fs"
	"github.com/mit-pdos/blockfs/inode"
	"github.com/mit-pdos/blockfs/super"
)

func mkVolume(t *testing.T) *fs.Volume {
	sb, err := super.Compute(super.Params{BlockSizeKB: 1, FreeInodes: 10})
	require.NoError(t, err)
	vol, err := fs.Mkfs(disk.NewMemDisk(sb.BlockSize, sb.TotalBlocks), sb)
	require.NoError(t, err)
	return vol
}

func hasProblem(r *Report, substr string) bool {
	for _, p := range r.Problems {
		if strings.Contains(p, substr) {
			return true
		}
	}
	return false
}

func TestFreshVolume(t *testing.T) {
	vol := mkVolume(t)
	r := Check(vol)
	assert.True(t, r.Clean(), "problems: %v", r.Problems)

	sb := vol.Super()
	assert.Equal(t, sb.TotalBlocks-sb.FreeBlocks, r.NumInUse())
	assert.Equal(t, sb.TotalBlocks, r.NumInUse()+r.NumFree())
	for i := range r.InUse {
		assert.NotEqual(t, r.InUse[i], r.Free[i], "block %d in exactly one set", i)
	}
	assert.Equal(t, "1111111", r.InUseBits()[:7])
	assert.Equal(t, "0000000", r.FreeBits()[:7])
	assert.Len(t, r.InUseBits(), int(sb.TotalBlocks))
}

func TestAfterOperations(t *testing.T) {
	vol := mkVolume(t)
	require.NoError(t, vol.Mkdir("/d"))
	require.NoError(t, vol.WriteFile("/d/f", make([]byte, 3000)))
	require.NoError(t, vol.Ln("/d/f", "/g"))
	require.NoError(t, vol.LnSym("/d/f", "/s"))
	require.NoError(t, vol.WriteFile("/h", []byte("x")))
	require.NoError(t, vol.Del("/h"))

	r := Check(vol)
	assert.True(t, r.Clean(), "problems: %v", r.Problems)
}

func TestFlippedBitmap(t *testing.T) {
	vol := mkVolume(t)
	free := vol.Super().DataStart() + 5
	require.NoError(t, vol.Bitmap().Mark(free, true))

	r := Check(vol)
	assert.False(t, r.Clean())
	assert.True(t, hasProblem(r, "bitmap"), "problems: %v", r.Problems)
}

func TestBadLinks(t *testing.T) {
	vol := mkVolume(t)
	require.NoError(t, vol.WriteFile("/f", []byte("x")))
	inum, err := vol.Resolve("/f")
	require.NoError(t, err)
	ip, err := vol.Inodes().Lookup(inum)
	require.NoError(t, err)
	ip.Links = 3

	r := Check(vol)
	assert.True(t, hasProblem(r, "links 3, found 1"), "problems: %v", r.Problems)
}

func TestUnreachableInode(t *testing.T) {
	vol := mkVolume(t)
	_, err := vol.Inodes().Allocate(inode.KindFile, time.Now())
	require.NoError(t, err)

	r := Check(vol)
	assert.True(t, hasProblem(r, "not reachable"), "problems: %v", r.Problems)
}

func TestSharedBlock(t *testing.T) {
	vol := mkVolume(t)
	require.NoError(t, vol.WriteFile("/a", []byte("a")))
	require.NoError(t, vol.WriteFile("/b", []byte("b")))
	a, err := vol.Resolve("/a")
	require.NoError(t, err)
	b, err := vol.Resolve("/b")
	require.NoError(t, err)
	ipa, err := vol.Inodes().Lookup(a)
	require.NoError(t, err)
	ipb, err := vol.Inodes().Lookup(b)
	require.NoError(t, err)
	orphan := ipb.Direct
	ipb.Direct = ipa.Direct

	r := Check(vol)
	assert.True(t, hasProblem(r, "already owned"), "problems: %v", r.Problems)
	assert.True(t, hasProblem(r, "owned by no inode"), "block %d orphaned: %v", orphan, r.Problems)
}
