package util

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMin(t *testing.T) {
	assert := assert.New(t)
	assert.Equal(uint64(2), Min(2, 3))
	assert.Equal(uint64(2), Min(3, 2))
	assert.Equal(uint64(2), Min(2, 2))
}

func TestRoundUp(t *testing.T) {
	assert := assert.New(t)
	assert.Equal(uint64(4), RoundUp(10, 3))
	assert.Equal(uint64(3), RoundUp(9, 3), "exact division")
	assert.Equal(uint64(0), RoundUp(0, 3))
	assert.Equal(uint64(3), RoundUp(10, 4), "ten inodes at four per block")
	assert.Equal(uint64(5), RoundUp(1000*4+1, 1000), "round up by sz-1")
}

func TestCloneByteSlice(t *testing.T) {
	assert := assert.New(t)
	s := []byte{1, 2, 3}
	c := CloneByteSlice(s)
	assert.Equal(s, c)
	c[0] = 9
	assert.Equal(byte(1), s[0], "clone should not alias")
}

func TestSetDebug(t *testing.T) {
	defer SetDebug(0)
	SetDebug(3)
	assert.Equal(t, uint64(3), Debug)
	DPrintf(5, "suppressed %d\n", 5)
	DPrintf(1, "printed %d\n", 1)
}
