// Package buf packs records (superblock, inodes, bitmap, directory entries) into
// disk blocks, each of which starts with a Header.
package buf

import (
	"fmt"

	"github.com/mit-pdos/blockfs/common"
	"github.com/mit-pdos/blockfs/util"
)

// A Buf is the full contents of one block: header, then payload.
type Buf struct {
	Blkno common.Bnum
	Data  []byte
}

// MkBuf makes a zero-filled block of size bs with hdr installed.
func MkBuf(hdr Header, bs uint64) *Buf {
	b := &Buf{
		Blkno: hdr.Address,
		Data:  make([]byte, bs),
	}
	b.SetHeader(hdr)
	return b
}

// Wrap a block read from disk.
func MkBufLoad(blkno common.Bnum, blk []byte) *Buf {
	return &Buf{Blkno: blkno, Data: blk}
}

func (buf *Buf) Header() (Header, error) {
	h, err := DecodeHeader(buf.Data)
	if err != nil {
		return h, fmt.Errorf("block %d: %w", buf.Blkno, err)
	}
	return h, nil
}

func (buf *Buf) SetHeader(h Header) {
	copy(buf.Data[:common.HDRSZ], h.Encode())
}

func (buf *Buf) Payload() []byte {
	return buf.Data[common.HDRSZ:]
}

// Install copies rec into the payload at byte offset off.
func (buf *Buf) Install(off uint64, rec []byte) {
	p := buf.Payload()
	if off+uint64(len(rec)) > uint64(len(p)) {
		panic(fmt.Sprintf("Install: record [%d,%d) past payload %d",
			off, off+uint64(len(rec)), len(p)))
	}
	util.DPrintf(20, "install blk %d off %d sz %d\n", buf.Blkno, off, len(rec))
	copy(p[off:], rec)
}

// Record returns the sz bytes of payload at off; it aliases the block.
func (buf *Buf) Record(off uint64, sz uint64) []byte {
	return buf.Payload()[off : off+sz]
}
