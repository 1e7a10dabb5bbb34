package dir

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mit-pdos/blockfs/common"
)

func names(s *Set) []string {
	var ns []string
	for _, e := range s.Entries() {
		ns = append(ns, e.Name)
	}
	return ns
}

func TestSeed(t *testing.T) {
	s := Init(4, 1)
	assert.Equal(t, uint64(2), s.Len())
	self, err := s.Find(".")
	require.NoError(t, err)
	assert.Equal(t, common.Inum(4), self)
	parent, err := s.Find("..")
	require.NoError(t, err)
	assert.Equal(t, common.Inum(1), parent)
	assert.Equal(t, common.Inum(4), s.Self())
	assert.Equal(t, common.Inum(1), s.Parent())
	assert.True(t, s.IsEmpty())
	assert.Empty(t, s.Children())
}

func TestCapacity(t *testing.T) {
	s := Init(0, 0)
	for i := 0; i < 14; i++ {
		require.NoError(t, s.Insert(fmt.Sprintf("f%d", i), common.Inum(i+1)))
	}
	assert.Equal(t, common.NDIRENT, s.Len())

	err := s.Insert("f14", 20)
	assert.ErrorIs(t, err, common.ErrDirectoryFull)
	assert.Equal(t, common.NDIRENT, s.Len())

	err = s.Insert("f3", 20)
	assert.ErrorIs(t, err, common.ErrDuplicateName, "duplicate is reported when full")
	assert.Equal(t, common.NDIRENT, s.Len())
}

func TestDuplicate(t *testing.T) {
	s := Init(0, 0)
	require.NoError(t, s.Insert("a", 1))
	err := s.Insert("a", 2)
	assert.ErrorIs(t, err, common.ErrDuplicateName)
	assert.Equal(t, uint64(3), s.Len())
	inum, err := s.Find("a")
	require.NoError(t, err)
	assert.Equal(t, common.Inum(1), inum)
}

func TestInvalidNames(t *testing.T) {
	s := Init(0, 0)
	for _, n := range []string{"", ".", "..", "a/b"} {
		assert.ErrorIs(t, s.Insert(n, 1), common.ErrInvalidName, "name %q", n)
	}
	assert.ErrorIs(t, s.Insert("0123456789abcdef", 1), common.ErrNameTooLong)
	assert.NoError(t, s.Insert("0123456789abcde", 1))
}

func TestRemove(t *testing.T) {
	s := Init(0, 0)
	for i, n := range []string{"a", "b", "c", "d"} {
		require.NoError(t, s.Insert(n, common.Inum(i+1)))
	}
	require.NoError(t, s.Remove("b"))
	assert.Equal(t, []string{".", "..", "a", "c", "d"}, names(s))
	assert.Equal(t, uint64(5), s.Len())

	_, err := s.Find("b")
	assert.ErrorIs(t, err, common.ErrNotFound)
	assert.ErrorIs(t, s.Remove("b"), common.ErrNotFound)
	assert.ErrorIs(t, s.Remove("."), common.ErrProtectedEntry)
	assert.ErrorIs(t, s.Remove(".."), common.ErrProtectedEntry)

	require.NoError(t, s.Insert("b", 9))
	assert.Equal(t, []string{".", "..", "a", "c", "d", "b"}, names(s))
}

func TestEncodeDecode(t *testing.T) {
	s := Init(3, 0)
	require.NoError(t, s.Insert("hello", 5))
	require.NoError(t, s.Insert("world", 6))
	b := s.Encode()
	assert.Equal(t, common.DIRSZ, uint64(len(b)))

	s2, err := Decode(b)
	require.NoError(t, err)
	assert.Equal(t, s.Entries(), s2.Entries())
	assert.Equal(t, s.Len(), s2.Len())

	_, err = Decode(b[:10])
	assert.ErrorIs(t, err, common.ErrTruncatedImage)

	_, err = Decode(make([]byte, common.DIRSZ))
	assert.ErrorIs(t, err, common.ErrCorruptImage, "zero block is not a directory")
}
