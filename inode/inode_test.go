package inode

import (
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mit-pdos/blockfs/common"
)

func TestExhaustion(t *testing.T) {
	ipb, nblk := uint64(3), uint64(4)
	tbl := MkTable(ipb, nblk)
	now := time.Now()
	seen := make(map[common.Inum]bool)
	for i := uint64(0); i < ipb*nblk; i++ {
		inum, err := tbl.Allocate(KindFile, now)
		require.NoError(t, err, "allocation %d", i)
		assert.False(t, seen[inum], "id %d handed out twice", inum)
		seen[inum] = true
	}
	_, err := tbl.Allocate(KindFile, now)
	assert.ErrorIs(t, err, common.ErrNoFreeInodes)
	assert.Equal(t, ipb*nblk, tbl.NumAllocated())
}

func TestAllocateResets(t *testing.T) {
	tbl := MkTable(3, 1)
	now := time.Unix(1700000000, 0)
	inum, err := tbl.Allocate(KindDir, now)
	require.NoError(t, err)
	assert.Equal(t, common.Inum(0), inum)

	ip, err := tbl.Lookup(inum)
	require.NoError(t, err)
	assert.Equal(t, KindDir, ip.Kind)
	assert.Equal(t, now.Unix(), ip.Mtime)
	assert.Equal(t, common.NULLBNUM, ip.Direct)
	for _, b := range ip.Indirect {
		assert.Equal(t, common.NULLBNUM, b)
	}
	assert.Equal(t, uint64(0), ip.Count)
	assert.Nil(t, ip.Blocks())
}

func TestFreeAndLookup(t *testing.T) {
	tbl := MkTable(3, 2)
	now := time.Now()
	a, err := tbl.Allocate(KindFile, now)
	require.NoError(t, err)
	b, err := tbl.Allocate(KindFile, now)
	require.NoError(t, err)

	ip, err := tbl.Lookup(a)
	require.NoError(t, err)
	require.NoError(t, ip.SetBlocks([]common.Bnum{10, 11}))

	require.NoError(t, tbl.Free(a))
	_, err = tbl.Lookup(a)
	assert.ErrorIs(t, err, common.ErrNotFound)
	raw, err := tbl.Get(a)
	require.NoError(t, err)
	assert.Equal(t, common.NULLBNUM, raw.Direct)
	assert.Equal(t, common.Bnum(11), raw.Indirect[0], "indirect pointers left alone")

	assert.ErrorIs(t, tbl.Free(a), common.ErrNotFound)
	_, err = tbl.Lookup(6)
	assert.ErrorIs(t, err, common.ErrOutOfRange)

	c, err := tbl.Allocate(KindFile, now)
	require.NoError(t, err)
	assert.Equal(t, a, c, "first free slot is reused")
	assert.NotEqual(t, b, c)
}

func TestBlocks(t *testing.T) {
	ip := mkFree(1)
	blks := []common.Bnum{7, 8, 9}
	require.NoError(t, ip.SetBlocks(blks))
	assert.Equal(t, common.Bnum(7), ip.Direct)
	assert.Equal(t, uint64(3), ip.Count)
	assert.Equal(t, blks, ip.Blocks())
	assert.Equal(t, common.NULLBNUM, ip.Indirect[2])

	big := make([]common.Bnum, common.NBLKMAX+1)
	assert.ErrorIs(t, ip.SetBlocks(big), common.ErrFileTooLarge)
}

func TestEncodeDecode(t *testing.T) {
	ip := mkFree(5)
	ip.Kind = KindSymlink
	ip.Size = 12
	ip.Mtime = 1700000000
	ip.Links = 2
	require.NoError(t, ip.SetBlocks([]common.Bnum{20, 21}))
	b := ip.Encode()
	assert.Equal(t, common.INODESZ, uint64(len(b)))

	ip2, err := Decode(b)
	require.NoError(t, err)
	if diff := cmp.Diff(ip, ip2); diff != "" {
		t.Errorf("inode mismatch (-want +got):\n%s", diff)
	}

	free := mkFree(2)
	b = free.Encode()
	for i := 27 * common.WORDSZ; i < 28*common.WORDSZ; i++ {
		assert.Equal(t, byte(0xff), b[i], "free kind stored as -1")
	}
	free2, err := Decode(b)
	require.NoError(t, err)
	assert.True(t, free2.IsFree())
	assert.Equal(t, common.NULLBNUM, free2.Direct)

	b[27*common.WORDSZ] = 9
	_, err = Decode(b)
	assert.ErrorIs(t, err, common.ErrCorruptImage)
}

func TestTableBlockRoundTrip(t *testing.T) {
	tbl := MkTable(3, 2)
	_, err := tbl.Allocate(KindDir, time.Unix(100, 0))
	require.NoError(t, err)
	sz := uint64(968)

	tbl2 := MkTable(3, 2)
	for blk := uint64(0); blk < 2; blk++ {
		require.NoError(t, tbl2.DecodeBlock(blk, tbl.EncodeBlock(blk, sz)))
	}
	if diff := cmp.Diff(tbl.inodes, tbl2.inodes); diff != "" {
		t.Errorf("table mismatch (-want +got):\n%s", diff)
	}

	// slot 0 of block 1 must carry id 3
	b := tbl.EncodeBlock(1, sz)
	b[0] = 0
	assert.ErrorIs(t, tbl2.DecodeBlock(1, b), common.ErrCorruptImage)
}
