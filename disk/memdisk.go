package disk

import (
	"fmt"
	"sync"

	"github.com/mit-pdos/blockfs/common"
)

var _ Disk = (*MemDisk)(nil)

type MemDisk struct {
	l         *sync.RWMutex
	blockSize uint64
	blocks    [][]byte
}

func NewMemDisk(blockSize uint64, numBlocks uint64) *MemDisk {
	blocks := make([][]byte, numBlocks)
	for i := range blocks {
		blocks[i] = make([]byte, blockSize)
	}
	return &MemDisk{l: new(sync.RWMutex), blockSize: blockSize, blocks: blocks}
}

func (d *MemDisk) checkAddr(a uint64) error {
	if a >= uint64(len(d.blocks)) {
		return fmt.Errorf("block %d of %d: %w", a, len(d.blocks), common.ErrOutOfRange)
	}
	return nil
}

func (d *MemDisk) ReadTo(a uint64, buf Block) error {
	d.l.RLock()
	defer d.l.RUnlock()
	if err := d.checkAddr(a); err != nil {
		return err
	}
	copy(buf, d.blocks[a])
	return nil
}

func (d *MemDisk) Read(a uint64) (Block, error) {
	buf := make(Block, d.blockSize)
	err := d.ReadTo(a, buf)
	return buf, err
}

func (d *MemDisk) Write(a uint64, v Block) error {
	if uint64(len(v)) != d.blockSize {
		panic(fmt.Errorf("v is not block-sized (%d bytes)", len(v)))
	}
	d.l.Lock()
	defer d.l.Unlock()
	if err := d.checkAddr(a); err != nil {
		return err
	}
	copy(d.blocks[a], v)
	return nil
}

func (d *MemDisk) Size() (uint64, error) {
	// this never changes so we assume it's safe to run lock-free
	return uint64(len(d.blocks)), nil
}

func (d *MemDisk) BlockSize() uint64 {
	return d.blockSize
}

func (d *MemDisk) Barrier() error { return nil }

func (d *MemDisk) Close() error { return nil }
