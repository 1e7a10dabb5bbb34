package disk

// Block is one BlockSize()-byte buffer
type Block = []byte

// Disk provides access to a logical block-based disk whose block size is
// fixed when it is opened.
type Disk interface {
	// Read reads a disk block by address
	//
	// Fails with ErrOutOfRange unless a < Size().
	Read(a uint64) (Block, error)

	// ReadTo reads the disk block at a and stores the result in b
	ReadTo(a uint64, b Block) error

	// Write updates a disk block by address
	Write(a uint64, v Block) error

	// Size reports how big the disk is, in blocks
	Size() (uint64, error)

	BlockSize() uint64

	// Barrier ensures data is persisted.
	//
	// When it returns, all outstanding writes are guaranteed to be durably on
	// disk
	Barrier() error

	// Close releases any resources used by the disk and makes it unusable.
	Close() error
}
