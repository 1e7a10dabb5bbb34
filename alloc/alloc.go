package alloc

import (
	"fmt"

	"github.com/mit-pdos/blockfs/common"
	"github.com/mit-pdos/blockfs/util"
)

// Store persists the bitmap payload. Every mutation of an attached bitmap
// is written through before it returns.
type Store interface {
	PutBitmap(b []byte) error
}

// Bitmap tracks block occupancy, one bit per block: bit i is bit i%8 of
// byte i/8, and 1 means occupied.
type Bitmap struct {
	bitmap []byte
	max    uint64
	store  Store
}

// MkBitmap makes an empty bitmap of sz bytes covering max blocks.
func MkBitmap(max uint64, sz uint64) *Bitmap {
	if max > sz*8 {
		panic("MkBitmap: bitmap too small")
	}
	return &Bitmap{
		bitmap: make([]byte, sz),
		max:    max,
	}
}

// MkBitmapLoad wraps a bitmap payload read from disk.
func MkBitmapLoad(max uint64, bitmap []byte) *Bitmap {
	if max > uint64(len(bitmap))*8 {
		panic("MkBitmapLoad: bitmap too small")
	}
	return &Bitmap{bitmap: bitmap, max: max}
}

// Attach makes every later mutation write through to s.
func (a *Bitmap) Attach(s Store) {
	a.store = s
}

func (a *Bitmap) Max() uint64 {
	return a.max
}

func (a *Bitmap) checkRange(num uint64) error {
	if num >= a.max {
		return fmt.Errorf("block %d of %d: %w", num, a.max, common.ErrOutOfRange)
	}
	return nil
}

func (a *Bitmap) IsOccupied(num uint64) (bool, error) {
	if err := a.checkRange(num); err != nil {
		return false, err
	}
	return a.bitmap[num/8]&(1<<(num%8)) != 0, nil
}

func (a *Bitmap) flush() error {
	if a.store == nil {
		return nil
	}
	if err := a.store.PutBitmap(a.bitmap); err != nil {
		return fmt.Errorf("storing bitmap: %w", err)
	}
	return nil
}

// Mark sets or clears the bit for num and persists the bitmap. If the
// write fails the bit is restored.
func (a *Bitmap) Mark(num uint64, occupied bool) error {
	if err := a.checkRange(num); err != nil {
		return err
	}
	old := a.bitmap[num/8]
	if occupied {
		a.bitmap[num/8] |= 1 << (num % 8)
	} else {
		a.bitmap[num/8] &= ^(1 << (num % 8))
	}
	util.DPrintf(10, "Mark: %d %v\n", num, occupied)
	if err := a.flush(); err != nil {
		a.bitmap[num/8] = old
		return err
	}
	return nil
}

// SetBit is Mark for callers holding a raw bit value.
func (a *Bitmap) SetBit(num uint64, v uint8) error {
	switch v {
	case 0:
		return a.Mark(num, false)
	case 1:
		return a.Mark(num, true)
	default:
		return fmt.Errorf("bit %d value %d: %w", num, v, common.ErrInvalidBitValue)
	}
}

// FindFree returns the first clear bit at or after from without marking it.
func (a *Bitmap) FindFree(from uint64) (uint64, error) {
	for num := from; num < a.max; num++ {
		if a.bitmap[num/8]&(1<<(num%8)) == 0 {
			return num, nil
		}
	}
	return 0, fmt.Errorf("searching from %d: %w", from, common.ErrNoFreeBlocks)
}

// AllocNum marks and returns the first clear bit at or after from.
func (a *Bitmap) AllocNum(from uint64) (uint64, error) {
	num, err := a.FindFree(from)
	if err != nil {
		return 0, err
	}
	if err := a.Mark(num, true); err != nil {
		return 0, err
	}
	util.DPrintf(5, "AllocNum -> %d\n", num)
	return num, nil
}

func (a *Bitmap) FreeNum(num uint64) error {
	return a.Mark(num, false)
}

func popCnt(b byte) uint64 {
	var count uint64
	var x = b
	for i := uint64(0); i < 8; i++ {
		count += uint64(x & 1)
		x = x >> 1
	}
	return count
}

// NumUsed counts occupied bits among the first max.
func (a *Bitmap) NumUsed() uint64 {
	var count uint64
	full := a.max / 8
	for _, b := range a.bitmap[:full] {
		count += popCnt(b)
	}
	for num := full * 8; num < a.max; num++ {
		if a.bitmap[num/8]&(1<<(num%8)) != 0 {
			count++
		}
	}
	return count
}

func (a *Bitmap) NumFree() uint64 {
	return a.max - a.NumUsed()
}

// Bytes returns a copy of the whole payload.
func (a *Bitmap) Bytes() []byte {
	return util.CloneByteSlice(a.bitmap)
}
