package buf

import (
	"bytes"
	"fmt"

	"github.com/tchajed/marshal"

	"github.com/mit-pdos/blockfs/common"
)

// Kind is the role of a block, recorded in its header.
type Kind uint64

const (
	KindInode Kind = iota
	KindFileContent
	KindDirContent
	KindSuper
	KindBitmap
	KindFree
)

func (k Kind) Valid() bool {
	return k <= KindFree
}

func (k Kind) String() string {
	switch k {
	case KindInode:
		return "INODES BLOCK"
	case KindFileContent:
		return "FILE CONTENT"
	case KindDirContent:
		return "DIRECTORY CONTENT"
	case KindSuper:
		return "SUPER BLOCK"
	case KindBitmap:
		return "INODE MAP"
	case KindFree:
		return "FREE BLOCK"
	default:
		return "CORRUPTED BLOCK"
	}
}

func (k Kind) MarshalYAML() (interface{}, error) {
	return k.String(), nil
}

// Header precedes the payload of every block. Address must equal the
// block's position in the image.
type Header struct {
	Address common.Bnum `yaml:"address"`
	Kind    Kind        `yaml:"kind"`
	Name    string      `yaml:"name"`
}

func MkHeader(address common.Bnum, kind Kind, name string) Header {
	return Header{Address: address, Kind: kind, Name: TruncName(name)}
}

// TruncName cuts name down to what fits a NUL-terminated name field.
func TruncName(name string) string {
	if uint64(len(name)) >= common.NAMELEN {
		return name[:common.NAMELEN-1]
	}
	return name
}

// PutName writes name into a fixed name field, NUL padded.
func PutName(dst []byte, name string) {
	field := dst[:common.NAMELEN]
	for i := range field {
		field[i] = 0
	}
	copy(field, TruncName(name))
}

func GetName(src []byte) string {
	field := src[:common.NAMELEN]
	if i := bytes.IndexByte(field, 0); i >= 0 {
		field = field[:i]
	}
	return string(field)
}

func (h Header) Encode() []byte {
	enc := marshal.NewEnc(common.HDRSZ)
	enc.PutInt(h.Address)
	enc.PutInt(uint64(h.Kind))
	b := enc.Finish()
	PutName(b[2*common.WORDSZ:], h.Name)
	return b
}

func DecodeHeader(b []byte) (Header, error) {
	if uint64(len(b)) < common.HDRSZ {
		return Header{}, fmt.Errorf(
			"decoding block header: have %d bytes, need %d: %w",
			len(b), common.HDRSZ, common.ErrTruncatedImage,
		)
	}
	dec := marshal.NewDec(b[:common.HDRSZ])
	h := Header{
		Address: dec.GetInt(),
		Kind:    Kind(dec.GetInt()),
		Name:    GetName(b[2*common.WORDSZ:]),
	}
	if !h.Kind.Valid() {
		return h, fmt.Errorf("decoding block header at %d: kind %d: %w",
			h.Address, h.Kind, common.ErrCorruptImage)
	}
	return h, nil
}
