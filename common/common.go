package common

const (
	// ONEMB is the default image size; the original tool counts in
	// powers of ten.
	ONEMB   uint64 = 1000000
	KB      uint64 = 1000
	WORDSZ  uint64 = 8
	NAMELEN uint64 = 16 // fixed name field, NUL padded

	HDRSZ   uint64 = 2*WORDSZ + NAMELEN // block header: address, kind, name
	SUPERSZ uint64 = 11*WORDSZ + 16     // 11 counters and the volume uuid

	NINDIRECT uint64 = 24
	NBLKMAX   uint64 = NINDIRECT + 1 // direct block plus indirect blocks
	INODESZ   uint64 = (3 + NINDIRECT + 4) * WORDSZ

	NDIRENT  uint64 = 16
	DIRENTSZ uint64 = NAMELEN + WORDSZ
	DIRSZ    uint64 = NDIRENT*DIRENTSZ + WORDSZ
)

type Inum uint64
type Bnum = uint64

const (
	NULLINUM Inum = ^Inum(0)
	ROOTINUM Inum = 0
	// NULLBNUM is stored as an all-ones word, i.e. -1.
	NULLBNUM Bnum = ^Bnum(0)
)
