package buf

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mit-pdos/blockfs/common"
)

func TestHeaderEncodeDecode(t *testing.T) {
	h := MkHeader(7, KindDirContent, "root")
	b := h.Encode()
	assert.Equal(t, common.HDRSZ, uint64(len(b)))

	h2, err := DecodeHeader(b)
	require.NoError(t, err)
	assert.Equal(t, h, h2)
}

func TestHeaderNameTruncated(t *testing.T) {
	h := MkHeader(1, KindFileContent, "a-very-long-file-name")
	assert.Equal(t, "a-very-long-fil", h.Name)
	h2, err := DecodeHeader(h.Encode())
	require.NoError(t, err)
	assert.Equal(t, h.Name, h2.Name)
}

func TestDecodeHeaderErrors(t *testing.T) {
	_, err := DecodeHeader(make([]byte, 5))
	assert.ErrorIs(t, err, common.ErrTruncatedImage)

	b := MkHeader(3, KindFree, "free_1").Encode()
	b[8] = 42
	_, err = DecodeHeader(b)
	assert.ErrorIs(t, err, common.ErrCorruptImage)
}

func TestBufInstall(t *testing.T) {
	b := MkBuf(MkHeader(2, KindInode, "t_2"), 100)
	assert.Equal(t, 100-int(common.HDRSZ), len(b.Payload()))

	b.Install(4, []byte{1, 2, 3})
	assert.Equal(t, []byte{1, 2, 3}, b.Record(4, 3))

	h, err := b.Header()
	require.NoError(t, err)
	assert.Equal(t, common.Bnum(2), h.Address)
	assert.Equal(t, KindInode, h.Kind)

	assert.Panics(t, func() { b.Install(66, []byte{1, 2, 3}) })
}

func TestKindString(t *testing.T) {
	assert.Equal(t, "SUPER BLOCK", KindSuper.String())
	assert.Equal(t, "CORRUPTED BLOCK", Kind(9).String())
}
