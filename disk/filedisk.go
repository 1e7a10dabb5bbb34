package disk

import (
	"errors"
	"fmt"

	"golang.org/x/sys/unix"

	"github.com/mit-pdos/blockfs/common"
	"github.com/mit-pdos/blockfs/util"
)

var _ Disk = (*FileDisk)(nil)

type FileDisk struct {
	fd        int
	path      string
	blockSize uint64
	numBlocks uint64
}

func ioErr(op string, path string, err error) error {
	return fmt.Errorf("%s %s: %w: %w", op, path, common.ErrIOFailure, err)
}

// CreateFileDisk creates (or truncates) path to hold numBlocks blocks of
// blockSize bytes.
func CreateFileDisk(path string, blockSize uint64, numBlocks uint64) (*FileDisk, error) {
	fd, err := unix.Open(path, unix.O_RDWR|unix.O_CREAT|unix.O_TRUNC, 0666)
	if err != nil {
		return nil, ioErr("create", path, err)
	}
	if err := unix.Ftruncate(fd, int64(numBlocks*blockSize)); err != nil {
		unix.Close(fd)
		return nil, ioErr("truncate", path, err)
	}
	util.DPrintf(1, "CreateFileDisk: %s %d x %d\n", path, numBlocks, blockSize)
	return &FileDisk{fd: fd, path: path, blockSize: blockSize, numBlocks: numBlocks}, nil
}

// OpenFileDisk opens an existing image; its size in blocks is the file
// size rounded down to whole blocks.
func OpenFileDisk(path string, blockSize uint64) (*FileDisk, error) {
	fd, err := unix.Open(path, unix.O_RDWR, 0)
	if err != nil {
		return nil, ioErr("open", path, err)
	}
	var stat unix.Stat_t
	if err := unix.Fstat(fd, &stat); err != nil {
		unix.Close(fd)
		return nil, ioErr("stat", path, err)
	}
	return &FileDisk{
		fd:        fd,
		path:      path,
		blockSize: blockSize,
		numBlocks: uint64(stat.Size) / blockSize,
	}, nil
}

// ReadPrefix reads the first n bytes of path, for callers that must learn
// the block size before they can open the disk.
func ReadPrefix(path string, n uint64) ([]byte, error) {
	fd, err := unix.Open(path, unix.O_RDONLY, 0)
	if err != nil {
		return nil, ioErr("open", path, err)
	}
	defer unix.Close(fd)
	b := make([]byte, n)
	cnt, err := unix.Pread(fd, b, 0)
	if err != nil {
		return nil, ioErr("read", path, err)
	}
	if uint64(cnt) != n {
		return nil, fmt.Errorf("read %s: %d of %d bytes: %w",
			path, cnt, n, common.ErrTruncatedImage)
	}
	return b, nil
}

// Lock takes a non-blocking exclusive advisory lock, released by Close.
func (d *FileDisk) Lock() error {
	err := unix.Flock(d.fd, unix.LOCK_EX|unix.LOCK_NB)
	if errors.Is(err, unix.EWOULDBLOCK) {
		return fmt.Errorf("%s: %w", d.path, common.ErrLocked)
	}
	if err != nil {
		return ioErr("flock", d.path, err)
	}
	return nil
}

func (d *FileDisk) checkAddr(a uint64) error {
	if a >= d.numBlocks {
		return fmt.Errorf("block %d of %d in %s: %w",
			a, d.numBlocks, d.path, common.ErrOutOfRange)
	}
	return nil
}

func (d *FileDisk) ReadTo(a uint64, buf Block) error {
	if uint64(len(buf)) != d.blockSize {
		panic("buffer is not block-sized")
	}
	if err := d.checkAddr(a); err != nil {
		return err
	}
	n, err := unix.Pread(d.fd, buf, int64(a*d.blockSize))
	if err != nil {
		return ioErr("read", d.path, err)
	}
	if uint64(n) != d.blockSize {
		return fmt.Errorf("read block %d: %d of %d bytes: %w",
			a, n, d.blockSize, common.ErrTruncatedImage)
	}
	util.DPrintf(20, "read: %d\n", a)
	return nil
}

func (d *FileDisk) Read(a uint64) (Block, error) {
	buf := make([]byte, d.blockSize)
	err := d.ReadTo(a, buf)
	return buf, err
}

func (d *FileDisk) Write(a uint64, v Block) error {
	if uint64(len(v)) != d.blockSize {
		panic(fmt.Errorf("v is not block sized (%d bytes)", len(v)))
	}
	if err := d.checkAddr(a); err != nil {
		return err
	}
	n, err := unix.Pwrite(d.fd, v, int64(a*d.blockSize))
	if err != nil {
		return ioErr("write", d.path, err)
	}
	if uint64(n) != d.blockSize {
		return fmt.Errorf("write block %d: %d of %d bytes: %w",
			a, n, d.blockSize, common.ErrIOFailure)
	}
	util.DPrintf(20, "write: %d\n", a)
	return nil
}

func (d *FileDisk) Size() (uint64, error) {
	return d.numBlocks, nil
}

func (d *FileDisk) BlockSize() uint64 {
	return d.blockSize
}

func (d *FileDisk) Barrier() error {
	// NOTE: on macOS, this flushes to the drive but doesn't actually issue a
	// disk barrier; see https://golang.org/src/internal/poll/fd_fsync_darwin.go
	// for more details. The correct replacement is to issue a fcntl syscall with
	// cmd F_FULLFSYNC.
	if err := unix.Fsync(d.fd); err != nil {
		return ioErr("fsync", d.path, err)
	}
	util.DPrintf(10, "barrier\n")
	return nil
}

func (d *FileDisk) Close() error {
	if err := unix.Close(d.fd); err != nil {
		return ioErr("close", d.path, err)
	}
	return nil
}
